// Package session coordinates the typed and spoken translation lifecycle.
package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/speakly/speakly/internal/capture"
	"github.com/speakly/speakly/internal/ipc"
	"github.com/speakly/speakly/internal/langcode"
	"github.com/speakly/speakly/internal/netcheck"
	"github.com/speakly/speakly/internal/synth"
	"github.com/speakly/speakly/internal/translate"
	"github.com/speakly/speakly/internal/validate"
	"github.com/speakly/speakly/internal/voice"
)

// Options holds the per-session tunables resolved from config and flags.
type Options struct {
	Source   string
	Target   string
	Debounce time.Duration
	Copy     bool
	Mute     bool
}

// Deps bundles the collaborators a session controller drives.
type Deps struct {
	Translator Translator
	Capturer   Capturer
	Voices     *voice.Catalog
	Speech     synth.Engine
	Detector   Detector
	Prober     netcheck.Prober
	Copier     Copier
	Surface    Surface
}

// Controller orchestrates submissions end to end: validation, connectivity,
// translation, output, clipboard, and speech. Submissions are sequenced so a
// slow translation can never overwrite the result of a newer one.
type Controller struct {
	logger     *slog.Logger
	translator Translator
	capturer   Capturer
	voices     *voice.Catalog
	speech     synth.Engine
	detector   Detector
	prober     netcheck.Prober
	copier     Copier
	surface    Surface

	debounce time.Duration
	copyOut  bool

	mu        sync.Mutex
	source    string
	target    string
	muted     bool
	lastOut   string
	pending   *time.Timer
	latestSeq uint64
}

// NewController constructs a session controller with safe default fallbacks.
func NewController(logger *slog.Logger, deps Deps, opts Options) *Controller {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if deps.Surface == nil {
		deps.Surface = noopSurface{}
	}
	if deps.Speech == nil {
		deps.Speech = synth.Noop{}
	}
	if deps.Prober == nil {
		deps.Prober = netcheck.ProberFunc(func(context.Context) bool { return true })
	}

	return &Controller{
		logger:     logger,
		translator: deps.Translator,
		capturer:   deps.Capturer,
		voices:     deps.Voices,
		speech:     deps.Speech,
		detector:   deps.Detector,
		prober:     deps.Prober,
		copier:     deps.Copier,
		surface:    deps.Surface,
		debounce:   opts.Debounce,
		copyOut:    opts.Copy,
		source:     opts.Source,
		target:     opts.Target,
		muted:      opts.Mute,
	}
}

// Languages returns the current source and target codes.
func (c *Controller) Languages() (string, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.source, c.target
}

// SetLanguages swaps the active language pair for subsequent submissions.
func (c *Controller) SetLanguages(source, target string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if strings.TrimSpace(source) != "" {
		c.source = source
	}
	if strings.TrimSpace(target) != "" {
		c.target = target
	}
}

// Muted reports whether speech output is muted.
func (c *Controller) Muted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.muted
}

// ToggleMute flips the mute flag and interrupts any in-progress speech when
// muting. Text output is unaffected either way.
func (c *Controller) ToggleMute() bool {
	c.mu.Lock()
	c.muted = !c.muted
	muted := c.muted
	c.mu.Unlock()

	if muted {
		c.speech.Cancel()
	}
	return muted
}

// SubmitTyped queues typed text for translation after the debounce window.
// Each submission restarts the window, so only the final revision of a burst
// of keystrokes reaches the translator.
func (c *Controller) SubmitTyped(ctx context.Context, text string) {
	c.mu.Lock()
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
	if c.debounce <= 0 {
		c.mu.Unlock()
		_ = c.TranslateNow(ctx, text)
		return
	}
	c.pending = time.AfterFunc(c.debounce, func() {
		_ = c.TranslateNow(ctx, text)
	})
	c.mu.Unlock()
}

// TranslateNow runs the full pipeline for one submission immediately. The
// returned error is the pipeline failure, already rendered to the surface.
func (c *Controller) TranslateNow(ctx context.Context, text string) error {
	c.mu.Lock()
	c.latestSeq++
	seq := c.latestSeq
	source := c.source
	target := c.target
	c.mu.Unlock()

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		if c.fresh(seq) {
			c.setLastOutput("")
			c.surface.SetOutput("")
			c.surface.ClearStatus()
		}
		return nil
	}

	// Local checks run before any network traffic.
	if err := validate.Check(trimmed, source); err != nil {
		return c.fail(seq, source, err)
	}

	if !c.prober.Online(ctx) {
		return c.fail(seq, source, ErrOffline)
	}

	srcBase := langcode.Base(source)
	if srcBase == langcode.Auto {
		srcBase = c.detectSource(trimmed)
	}

	result, err := c.translator.Translate(ctx, translate.Request{
		Text:       trimmed,
		SourceLang: srcBase,
		TargetLang: langcode.Base(target),
	})
	if err != nil {
		return c.fail(seq, source, err)
	}

	if !c.fresh(seq) {
		c.logger.Debug("discarding superseded translation", "seq", seq)
		return nil
	}

	c.setLastOutput(result.TranslatedText)
	c.surface.SetOutput(result.TranslatedText)
	c.surface.ClearStatus()
	c.mirror(ctx, result.TranslatedText)
	c.speak(ctx, result.TranslatedText, target)
	return nil
}

// Clear discards the pending submission and resets output and status. Any
// in-flight translation is superseded, so its result never lands.
func (c *Controller) Clear() {
	c.mu.Lock()
	c.latestSeq++
	c.lastOut = ""
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
	c.mu.Unlock()

	c.surface.SetOutput("")
	c.surface.ClearStatus()
}

// CopyLast copies the most recent translation to the clipboard.
func (c *Controller) CopyLast(ctx context.Context) error {
	if c.copier == nil {
		return fmt.Errorf("clipboard is not configured")
	}

	c.mu.Lock()
	text := c.lastOut
	c.mu.Unlock()
	if text == "" {
		return fmt.Errorf("nothing to copy")
	}
	return c.copier.Copy(ctx, text)
}

func (c *Controller) setLastOutput(text string) {
	c.mu.Lock()
	c.lastOut = text
	c.mu.Unlock()
}

// StartListening begins a speech capture session for the current source.
func (c *Controller) StartListening(ctx context.Context) error {
	source, _ := c.Languages()
	if c.capturer == nil || !c.capturer.Available() {
		c.surface.SetStatus(statusMessage(capture.ErrUnavailable, source))
		return capture.ErrUnavailable
	}

	if err := c.capturer.Start(ctx, c.captureLocale(source)); err != nil {
		c.surface.SetStatus(statusMessage(err, source))
		return err
	}
	c.surface.SetStatus("Listening...")
	return nil
}

// StopListening finalizes the active capture session and submits the
// transcript through the same pipeline as typed text.
func (c *Controller) StopListening(ctx context.Context) error {
	if c.capturer == nil || !c.capturer.Listening() {
		return nil
	}

	source, _ := c.Languages()
	transcript, err := c.capturer.Stop(ctx)
	if err != nil {
		c.surface.SetStatus(statusMessage(err, source))
		return err
	}
	return c.TranslateNow(ctx, transcript)
}

// CancelListening aborts the active capture session and discards its audio.
func (c *Controller) CancelListening(ctx context.Context) error {
	if c.capturer == nil {
		return nil
	}
	err := c.capturer.Cancel(ctx)
	c.surface.ClearStatus()
	return err
}

// Listening reports whether a capture session is active.
func (c *Controller) Listening() bool {
	return c.capturer != nil && c.capturer.Listening()
}

// Handle serves IPC commands for the active owner session.
func (c *Controller) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case "status":
		return ipc.Response{OK: true, State: c.stateString(), Muted: c.Muted(), Message: "status"}
	case "stop", "toggle":
		if err := c.StopListening(ctx); err != nil {
			return ipc.Response{OK: false, State: c.stateString(), Error: err.Error()}
		}
		return ipc.Response{OK: true, State: c.stateString(), Message: "stop requested"}
	case "cancel":
		if err := c.CancelListening(ctx); err != nil {
			return ipc.Response{OK: false, State: c.stateString(), Error: err.Error()}
		}
		return ipc.Response{OK: true, State: c.stateString(), Message: "cancelled"}
	case "mute":
		muted := c.ToggleMute()
		msg := "unmuted"
		if muted {
			msg = "muted"
		}
		return ipc.Response{OK: true, State: c.stateString(), Muted: muted, Message: msg}
	default:
		return ipc.Response{OK: false, State: c.stateString(), Error: fmt.Sprintf("unknown command: %s", req.Command)}
	}
}

// Close releases any pending debounce timer.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
}

// fresh reports whether seq is still the newest submission.
func (c *Controller) fresh(seq uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return seq == c.latestSeq
}

// fail renders an error on the surface unless a newer submission exists.
// The previous output stays on screen either way.
func (c *Controller) fail(seq uint64, source string, err error) error {
	if c.fresh(seq) {
		c.surface.SetStatus(statusMessage(err, source))
	}
	c.logger.Warn("translation submission failed", "error", err, "seq", seq)
	return err
}

// detectSource guesses a concrete source language for auto submissions.
func (c *Controller) detectSource(text string) string {
	if c.detector != nil {
		if code, ok := c.detector.Detect(text); ok {
			return code
		}
	}
	return "en"
}

// mirror copies output to the clipboard when enabled; failures only log.
func (c *Controller) mirror(ctx context.Context, text string) {
	if !c.copyOut || c.copier == nil {
		return
	}
	if err := c.copier.Copy(ctx, text); err != nil {
		c.logger.Warn("clipboard copy failed", "error", err)
	}
}

// speak voices the translation unless muted or no voice covers the target.
func (c *Controller) speak(ctx context.Context, text, target string) {
	c.mu.Lock()
	muted := c.muted
	c.mu.Unlock()
	if muted {
		return
	}

	if c.voices == nil {
		return
	}
	v, ok := c.voices.Select(langcode.Base(target))
	if !ok {
		// Missing voice degrades to text-only output, never an error.
		c.logger.Info("no synthesis voice for target", "target", target)
		return
	}

	c.speech.Cancel()
	if err := c.speech.Speak(ctx, text, langcode.SpeechLocale(langcode.Base(v.Lang))); err != nil {
		c.logger.Warn("speech synthesis failed", "error", err, "voice", v.Name)
	}
}

// captureLocale maps the configured source to the recognizer language hint.
func (c *Controller) captureLocale(source string) string {
	base := langcode.Base(source)
	if base == langcode.Auto {
		return ""
	}
	return langcode.SpeechLocale(base)
}

// stateString renders the capture state for IPC consumers.
func (c *Controller) stateString() string {
	if c.Listening() {
		return "listening"
	}
	return "idle"
}
