package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/speakly/speakly/internal/audio"
	"github.com/speakly/speakly/internal/capture"
	"github.com/speakly/speakly/internal/cli"
	"github.com/speakly/speakly/internal/config"
	"github.com/speakly/speakly/internal/detect"
	"github.com/speakly/speakly/internal/doctor"
	"github.com/speakly/speakly/internal/ipc"
	"github.com/speakly/speakly/internal/langcode"
	"github.com/speakly/speakly/internal/logging"
	"github.com/speakly/speakly/internal/netcheck"
	"github.com/speakly/speakly/internal/output"
	"github.com/speakly/speakly/internal/session"
	"github.com/speakly/speakly/internal/synth"
	"github.com/speakly/speakly/internal/translate"
	"github.com/speakly/speakly/internal/version"
	"github.com/speakly/speakly/internal/voice"
)

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr, Stdin: os.Stdin}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("speakly"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("speakly"))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	cfg := cfgLoaded.Config
	if parsed.Source != "" {
		cfg.Languages.Source = parsed.Source
	}
	if parsed.Target != "" {
		cfg.Languages.Target = parsed.Target
	}

	opts := session.Options{
		Source:   cfg.Languages.Source,
		Target:   cfg.Languages.Target,
		Debounce: time.Duration(cfg.Session.DebounceMS) * time.Millisecond,
		Copy:     parsed.Copy,
		Mute:     parsed.Mute,
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"source", cfg.Languages.Source,
		"target", cfg.Languages.Target,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandDoctor:
		report := doctor.Run(cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandVoices:
		return r.commandVoices(cfg)
	case cli.CommandLanguages:
		return r.commandLanguages()
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandStop:
		return r.forwardOrFail(ctx, "stop")
	case cli.CommandCancel:
		return r.forwardOrFail(ctx, "cancel")
	case cli.CommandMute:
		return r.forwardOrFail(ctx, "mute")
	case cli.CommandTranslate:
		return r.commandTranslate(ctx, cfg, opts, logger, parsed.Text)
	case cli.CommandRepl:
		return r.commandRepl(ctx, cfg, opts, logger)
	case cli.CommandTalk:
		return r.commandTalk(ctx, cfg, opts, logger)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

func (r Runner) commandVoices(cfg config.Config) int {
	if len(cfg.Speech.Voices) == 0 {
		fmt.Fprintln(r.Stdout, "no voices configured; output is text-only")
		return 0
	}
	for _, v := range cfg.Speech.Voices {
		fmt.Fprintf(r.Stdout, "%-16s %-6s %s\n", v.Name, v.Lang, langcode.DisplayName(v.Lang))
	}
	return 0
}

func (r Runner) commandLanguages() int {
	for _, code := range langcode.Supported() {
		fmt.Fprintf(r.Stdout, "%-6s %s\n", code, langcode.DisplayName(code))
	}
	return 0
}

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "idle")
		return 0
	}

	resp, handled, err := tryForward(ctx, socketPath, "status")
	if handled {
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		state := resp.State
		if state == "" {
			state = "idle"
		}
		if resp.Muted {
			state += " (muted)"
		}
		fmt.Fprintln(r.Stdout, state)
		return 0
	}

	fmt.Fprintln(r.Stdout, "idle")
	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, command string) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, command)
	if !handled {
		fmt.Fprintf(r.Stderr, "error: no active speakly session\n")
		return 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

func (r Runner) commandTranslate(
	ctx context.Context,
	cfg config.Config,
	opts session.Options,
	logger *slog.Logger,
	text string,
) int {
	deps, cleanup, err := r.buildDeps(cfg, logger, false)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer cleanup()

	ctrl := session.NewController(logger, deps, opts)
	defer ctrl.Close()

	if err := ctrl.TranslateNow(ctx, text); err != nil {
		return 1
	}
	return 0
}

func (r Runner) commandRepl(
	ctx context.Context,
	cfg config.Config,
	opts session.Options,
	logger *slog.Logger,
) int {
	deps, cleanup, err := r.buildDeps(cfg, logger, false)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer cleanup()

	ctrl := session.NewController(logger, deps, opts)
	defer ctrl.Close()

	release, ok := r.serveSession(ctx, ctrl, logger)
	if !ok {
		return 1
	}
	defer release()

	fmt.Fprintln(r.Stdout, "type text to translate; :quit exits, :mute toggles speech, :copy copies the last result, :clear resets, :lang SRC TGT switches languages")

	stdin := r.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}
	scanner := bufio.NewScanner(stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return 0
		}
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), ":") {
			if r.replCommand(ctx, ctrl, strings.TrimSpace(line)) {
				return 0
			}
			continue
		}
		_ = ctrl.TranslateNow(ctx, line)
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(r.Stderr, "error: read input: %v\n", err)
		return 1
	}
	return 0
}

// replCommand handles one colon-prefixed repl directive; true means quit.
func (r Runner) replCommand(ctx context.Context, ctrl *session.Controller, line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case ":quit", ":q":
		return true
	case ":mute":
		if ctrl.ToggleMute() {
			fmt.Fprintln(r.Stdout, "muted")
		} else {
			fmt.Fprintln(r.Stdout, "unmuted")
		}
	case ":copy":
		if err := ctrl.CopyLast(ctx); err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
		} else {
			fmt.Fprintln(r.Stdout, "copied")
		}
	case ":clear":
		ctrl.Clear()
		fmt.Fprintln(r.Stdout, "cleared")
	case ":lang":
		if len(fields) != 3 {
			fmt.Fprintln(r.Stderr, "usage: :lang SOURCE TARGET")
			return false
		}
		ctrl.SetLanguages(fields[1], fields[2])
		source, target := ctrl.Languages()
		fmt.Fprintf(r.Stdout, "translating %s -> %s\n", source, target)
	default:
		fmt.Fprintf(r.Stderr, "unknown command %s\n", fields[0])
	}
	return false
}

func (r Runner) commandTalk(
	ctx context.Context,
	cfg config.Config,
	opts session.Options,
	logger *slog.Logger,
) int {
	deps, cleanup, err := r.buildDeps(cfg, logger, true)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer cleanup()

	ctrl := session.NewController(logger, deps, opts)
	defer ctrl.Close()

	release, ok := r.serveSession(ctx, ctrl, logger)
	if !ok {
		return 1
	}
	defer release()

	if err := ctrl.StartListening(ctx); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	fmt.Fprintln(r.Stderr, "listening; run `speakly stop` to translate or press Ctrl-C to cancel")

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = ctrl.CancelListening(context.Background())
			fmt.Fprintln(r.Stdout, "cancelled")
			return 0
		case <-ticker.C:
			if !ctrl.Listening() {
				return 0
			}
		}
	}
}

// serveSession acquires the runtime socket and serves IPC for ctrl. The
// returned release closes the listener and unlinks the socket.
func (r Runner) serveSession(
	ctx context.Context,
	ctrl *session.Controller,
	logger *slog.Logger,
) (func(), bool) {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return nil, false
	}

	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8, nil)
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			fmt.Fprintln(r.Stderr, "error: another speakly session is already running")
		} else {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
		}
		return nil, false
	}

	serveCtx, cancel := context.WithCancel(ctx)
	serveDone := make(chan struct{})
	go func() {
		defer close(serveDone)
		if err := ipc.Serve(serveCtx, listener, ctrl); err != nil {
			logger.Error("ipc server failed", "error", err.Error())
		}
	}()

	release := func() {
		cancel()
		<-serveDone
		_ = os.Remove(socketPath)
	}
	return release, true
}

// buildDeps wires the session collaborators from config. withCapture adds the
// microphone pipeline; one-shot and typed flows skip it.
func (r Runner) buildDeps(
	cfg config.Config,
	logger *slog.Logger,
	withCapture bool,
) (session.Deps, func(), error) {
	translator, err := translate.New(translate.Options{
		Endpoint: cfg.Translate.Endpoint,
		Provider: translate.Provider(cfg.Translate.Provider),
		APIKey:   cfg.Translate.APIKey,
		Timeout:  time.Duration(cfg.Translate.TimeoutMS) * time.Millisecond,
	}, logger)
	if err != nil {
		return session.Deps{}, nil, err
	}

	deps := session.Deps{
		Translator: translator,
		Detector:   detect.New(),
		Surface:    termSurface{out: r.Stdout, err: r.Stderr},
	}

	if prober, err := netcheck.NewDialProber(cfg.Translate.Endpoint); err == nil {
		deps.Prober = prober
	} else {
		logger.Warn("connectivity probe disabled", "error", err)
	}

	catalog := voice.NewCatalog()
	entries := make([]voice.Voice, 0, len(cfg.Speech.Voices))
	for _, v := range cfg.Speech.Voices {
		entries = append(entries, voice.Voice{Name: v.Name, Lang: v.Lang})
	}
	catalog.Refresh(entries)
	deps.Voices = catalog

	cleanup := func() {}
	if cfg.Speech.Enable {
		dispatcher, err := synth.Open(synth.OpenOptions{
			ClientName:   cfg.Speech.ClientName,
			OutputModule: cfg.Speech.Module,
			Retries:      2,
			RetryDelay:   150 * time.Millisecond,
		}, logger)
		if err != nil {
			logger.Warn("speech-dispatcher unavailable; running text-only", "error", err)
		} else {
			deps.Speech = dispatcher
			cleanup = func() { _ = dispatcher.Close() }
		}
	}

	if len(cfg.Clipboard.Argv) > 0 {
		deps.Copier = output.NewClipboard(cfg.Clipboard.Argv)
	}

	if withCapture {
		pipeline := capture.NewMicPipeline(capture.MicOptions{
			RecognizerEndpoint: cfg.Recognizer.Endpoint,
			SampleRate:         cfg.Recognizer.SampleRate,
			AudioInput:         cfg.Audio.Input,
			AudioFallback:      cfg.Audio.Fallback,
		}, logger)
		deps.Capturer = capture.NewController(logger, pipeline, audio.Available())
	}

	return deps, cleanup, nil
}

// termSurface renders session output and status to the terminal.
type termSurface struct {
	out io.Writer
	err io.Writer
}

func (s termSurface) SetOutput(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	fmt.Fprintln(s.out, text)
}

func (s termSurface) SetStatus(message string) {
	fmt.Fprintln(s.err, message)
}

func (s termSurface) ClearStatus() {}

func tryForward(ctx context.Context, socketPath string, command string) (ipc.Response, bool, error) {
	resp, err := ipc.Send(ctx, socketPath, ipc.Request{Command: command}, 220*time.Millisecond)
	if err == nil {
		if resp.OK {
			return resp, true, nil
		}
		return resp, true, errors.New(resp.Error)
	}

	if isSocketMissing(err) {
		return ipc.Response{}, false, nil
	}
	if isConnectionRefused(err) {
		return ipc.Response{}, false, nil
	}

	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", command, err)
}

func isSocketMissing(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, os.ErrNotExist) ||
		strings.Contains(err.Error(), "no such file or directory")
}

func isConnectionRefused(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}
