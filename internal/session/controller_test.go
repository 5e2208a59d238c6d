package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/speakly/speakly/internal/capture"
	"github.com/speakly/speakly/internal/ipc"
	"github.com/speakly/speakly/internal/netcheck"
	"github.com/speakly/speakly/internal/translate"
	"github.com/speakly/speakly/internal/voice"
)

type fakeSurface struct {
	mu      sync.Mutex
	output  string
	outputs []string
	status  string
}

func (s *fakeSurface) SetOutput(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.output = text
	s.outputs = append(s.outputs, text)
}

func (s *fakeSurface) SetStatus(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = message
}

func (s *fakeSurface) ClearStatus() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = ""
}

func (s *fakeSurface) Output() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.output
}

func (s *fakeSurface) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

type fakeEngine struct {
	mu      sync.Mutex
	spoken  []string
	locales []string
	cancels int
}

func (e *fakeEngine) Speak(_ context.Context, text, locale string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.spoken = append(e.spoken, text)
	e.locales = append(e.locales, locale)
	return nil
}

func (e *fakeEngine) Cancel() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancels++
	return nil
}

func (e *fakeEngine) Close() error { return nil }

func (e *fakeEngine) Spoken() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.spoken...)
}

type fakeCapturer struct {
	available  bool
	listening  bool
	transcript string
	stopErr    error
}

func (f *fakeCapturer) Available() bool { return f.available }
func (f *fakeCapturer) Listening() bool { return f.listening }

func (f *fakeCapturer) Start(context.Context, string) error {
	f.listening = true
	return nil
}

func (f *fakeCapturer) Stop(context.Context) (string, error) {
	f.listening = false
	return f.transcript, f.stopErr
}

func (f *fakeCapturer) Cancel(context.Context) error {
	f.listening = false
	return nil
}

type fakeCopier struct {
	mu     sync.Mutex
	copied []string
}

func (f *fakeCopier) Copy(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.copied = append(f.copied, text)
	return nil
}

func reqFor(command string) ipc.Request {
	return ipc.Request{Command: command}
}

func hindiCatalog(t *testing.T) *voice.Catalog {
	t.Helper()
	catalog := voice.NewCatalog()
	catalog.Refresh([]voice.Voice{
		{Name: "english-us", Lang: "en"},
		{Name: "hindi", Lang: "hi"},
	})
	return catalog
}

func echoTranslator(calls *atomic.Int32) Translator {
	return TranslateFunc(func(_ context.Context, req translate.Request) (translate.Result, error) {
		if calls != nil {
			calls.Add(1)
		}
		return translate.Result{TranslatedText: "translated:" + req.Text}, nil
	})
}

func TestTypedTranslationHappyPath(t *testing.T) {
	surface := &fakeSurface{}
	engine := &fakeEngine{}
	copier := &fakeCopier{}

	ctrl := NewController(nil, Deps{
		Translator: echoTranslator(nil),
		Voices:     hindiCatalog(t),
		Speech:     engine,
		Copier:     copier,
		Surface:    surface,
	}, Options{Source: "hi-IN", Target: "en", Copy: true})

	require.NoError(t, ctrl.TranslateNow(context.Background(), "नमस्ते"))

	require.Equal(t, "translated:नमस्ते", surface.Output())
	require.Empty(t, surface.Status())
	require.Equal(t, []string{"translated:नमस्ते"}, engine.Spoken())
	require.Equal(t, []string{"en-US"}, engine.locales)
	require.Equal(t, []string{"translated:नमस्ते"}, copier.copied)
}

func TestEmptySubmissionClearsOutput(t *testing.T) {
	surface := &fakeSurface{}
	ctrl := NewController(nil, Deps{
		Translator: echoTranslator(nil),
		Surface:    surface,
	}, Options{Source: "hi-IN", Target: "en"})

	require.NoError(t, ctrl.TranslateNow(context.Background(), "नमस्ते"))
	require.NotEmpty(t, surface.Output())

	require.NoError(t, ctrl.TranslateNow(context.Background(), "   "))
	require.Empty(t, surface.Output())
	require.Empty(t, surface.Status())
}

func TestScriptMismatchSkipsNetwork(t *testing.T) {
	var translateCalls, probeCalls atomic.Int32
	surface := &fakeSurface{}

	ctrl := NewController(nil, Deps{
		Translator: echoTranslator(&translateCalls),
		Prober: netcheck.ProberFunc(func(context.Context) bool {
			probeCalls.Add(1)
			return true
		}),
		Surface: surface,
	}, Options{Source: "hi-IN", Target: "en"})

	err := ctrl.TranslateNow(context.Background(), "hello world")
	require.Error(t, err)
	require.Equal(t, "टेक्स्ट चुनी हुई भाषा से मेल नहीं खाता", surface.Status())
	require.Zero(t, translateCalls.Load(), "mismatched text must not reach the translator")
	require.Zero(t, probeCalls.Load(), "mismatched text must not trigger a connectivity probe")
}

func TestOfflineShortCircuits(t *testing.T) {
	var translateCalls atomic.Int32
	surface := &fakeSurface{}

	ctrl := NewController(nil, Deps{
		Translator: echoTranslator(&translateCalls),
		Prober:     netcheck.ProberFunc(func(context.Context) bool { return false }),
		Surface:    surface,
	}, Options{Source: "en", Target: "hi"})

	err := ctrl.TranslateNow(context.Background(), "hello")
	require.ErrorIs(t, err, ErrOffline)
	require.Contains(t, surface.Status(), "offline")
	require.Zero(t, translateCalls.Load())
}

func TestSupersededResultIsDiscarded(t *testing.T) {
	surface := &fakeSurface{}
	firstStarted := make(chan struct{})
	release := make(chan struct{})

	translator := TranslateFunc(func(_ context.Context, req translate.Request) (translate.Result, error) {
		if req.Text == "first" {
			close(firstStarted)
			<-release
		}
		return translate.Result{TranslatedText: "out:" + req.Text}, nil
	})

	ctrl := NewController(nil, Deps{Translator: translator, Surface: surface},
		Options{Source: "en", Target: "hi"})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = ctrl.TranslateNow(context.Background(), "first")
	}()

	<-firstStarted
	require.NoError(t, ctrl.TranslateNow(context.Background(), "second"))
	require.Equal(t, "out:second", surface.Output())

	close(release)
	<-done

	// The stale first result must not replace the newer one.
	require.Equal(t, "out:second", surface.Output())
	require.Equal(t, []string{"out:second"}, surface.outputs)
}

func TestTranslationFailureKeepsLastOutput(t *testing.T) {
	surface := &fakeSurface{}
	failNext := false
	translator := TranslateFunc(func(_ context.Context, req translate.Request) (translate.Result, error) {
		if failNext {
			return translate.Result{}, translate.ErrEmptyTranslation
		}
		return translate.Result{TranslatedText: "out:" + req.Text}, nil
	})

	ctrl := NewController(nil, Deps{Translator: translator, Surface: surface},
		Options{Source: "en", Target: "hi"})

	require.NoError(t, ctrl.TranslateNow(context.Background(), "hello"))
	require.Equal(t, "out:hello", surface.Output())

	failNext = true
	err := ctrl.TranslateNow(context.Background(), "world")
	require.ErrorIs(t, err, translate.ErrEmptyTranslation)
	require.Equal(t, "out:hello", surface.Output(), "failed submission must not clear prior output")
	require.Contains(t, surface.Status(), "try again")
}

func TestAutoSourceUsesDetector(t *testing.T) {
	var gotSource string
	translator := TranslateFunc(func(_ context.Context, req translate.Request) (translate.Result, error) {
		gotSource = req.SourceLang
		return translate.Result{TranslatedText: "x"}, nil
	})

	ctrl := NewController(nil, Deps{
		Translator: translator,
		Detector:   DetectFunc(func(string) (string, bool) { return "mr", true }),
	}, Options{Source: "auto", Target: "en"})

	require.NoError(t, ctrl.TranslateNow(context.Background(), "काही मजकूर"))
	require.Equal(t, "mr", gotSource)
}

func TestAutoSourceFallsBackToEnglish(t *testing.T) {
	var gotSource string
	translator := TranslateFunc(func(_ context.Context, req translate.Request) (translate.Result, error) {
		gotSource = req.SourceLang
		return translate.Result{TranslatedText: "x"}, nil
	})

	ctrl := NewController(nil, Deps{
		Translator: translator,
		Detector:   DetectFunc(func(string) (string, bool) { return "", false }),
	}, Options{Source: "auto", Target: "hi"})

	require.NoError(t, ctrl.TranslateNow(context.Background(), "zzz"))
	require.Equal(t, "en", gotSource)
}

func TestMutedSkipsSpeechAndCancelsInFlight(t *testing.T) {
	engine := &fakeEngine{}
	ctrl := NewController(nil, Deps{
		Translator: echoTranslator(nil),
		Voices:     hindiCatalog(t),
		Speech:     engine,
	}, Options{Source: "en", Target: "hi"})

	require.True(t, ctrl.ToggleMute())
	require.Equal(t, 1, engine.cancels, "muting must interrupt in-progress speech")

	require.NoError(t, ctrl.TranslateNow(context.Background(), "hello"))
	require.Empty(t, engine.Spoken())

	require.False(t, ctrl.ToggleMute())
	require.NoError(t, ctrl.TranslateNow(context.Background(), "hello"))
	require.NotEmpty(t, engine.Spoken())
}

func TestNoVoiceFallsBackToTextOnly(t *testing.T) {
	engine := &fakeEngine{}
	surface := &fakeSurface{}
	ctrl := NewController(nil, Deps{
		Translator: echoTranslator(nil),
		Voices:     voice.NewCatalog(),
		Speech:     engine,
		Surface:    surface,
	}, Options{Source: "en", Target: "ta"})

	require.NoError(t, ctrl.TranslateNow(context.Background(), "hello"))
	require.Equal(t, "translated:hello", surface.Output())
	require.Empty(t, surface.Status(), "missing voice is not an error")
	require.Empty(t, engine.Spoken())
}

func TestMarathiTargetFallsBackToHindiVoice(t *testing.T) {
	engine := &fakeEngine{}
	ctrl := NewController(nil, Deps{
		Translator: echoTranslator(nil),
		Voices:     hindiCatalog(t),
		Speech:     engine,
	}, Options{Source: "en", Target: "mr"})

	require.NoError(t, ctrl.TranslateNow(context.Background(), "hello"))
	require.Equal(t, []string{"hi-IN"}, engine.locales)
}

func TestSubmitTypedDebouncesBursts(t *testing.T) {
	var calls atomic.Int32
	var lastText string
	var mu sync.Mutex
	translator := TranslateFunc(func(_ context.Context, req translate.Request) (translate.Result, error) {
		calls.Add(1)
		mu.Lock()
		lastText = req.Text
		mu.Unlock()
		return translate.Result{TranslatedText: "x"}, nil
	})

	ctrl := NewController(nil, Deps{Translator: translator},
		Options{Source: "en", Target: "hi", Debounce: 30 * time.Millisecond})
	defer ctrl.Close()

	ctrl.SubmitTyped(context.Background(), "h")
	ctrl.SubmitTyped(context.Background(), "he")
	ctrl.SubmitTyped(context.Background(), "hello")

	require.Eventually(t, func() bool {
		return calls.Load() == 1
	}, time.Second, 5*time.Millisecond)

	// Give a stray earlier timer a chance to fire before asserting.
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int32(1), calls.Load(), "burst must collapse to one translation")
	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, "hello", lastText)
}

func TestStopListeningSubmitsTranscript(t *testing.T) {
	surface := &fakeSurface{}
	capturer := &fakeCapturer{available: true, transcript: "नमस्ते"}

	ctrl := NewController(nil, Deps{
		Translator: echoTranslator(nil),
		Capturer:   capturer,
		Surface:    surface,
	}, Options{Source: "hi-IN", Target: "en"})

	require.NoError(t, ctrl.StartListening(context.Background()))
	require.Equal(t, "Listening...", surface.Status())

	require.NoError(t, ctrl.StopListening(context.Background()))
	require.Equal(t, "translated:नमस्ते", surface.Output())
	require.Empty(t, surface.Status())
}

func TestStartListeningUnavailable(t *testing.T) {
	surface := &fakeSurface{}
	ctrl := NewController(nil, Deps{
		Translator: echoTranslator(nil),
		Capturer:   &fakeCapturer{available: false},
		Surface:    surface,
	}, Options{Source: "en", Target: "hi"})

	require.ErrorIs(t, ctrl.StartListening(context.Background()), capture.ErrUnavailable)
	require.Contains(t, surface.Status(), "not available")
}

func TestStopListeningNoSpeechSetsStatus(t *testing.T) {
	surface := &fakeSurface{}
	capturer := &fakeCapturer{available: true, stopErr: capture.ErrNoSpeech}

	ctrl := NewController(nil, Deps{
		Translator: echoTranslator(nil),
		Capturer:   capturer,
		Surface:    surface,
	}, Options{Source: "en", Target: "hi"})

	require.NoError(t, ctrl.StartListening(context.Background()))
	require.ErrorIs(t, ctrl.StopListening(context.Background()), capture.ErrNoSpeech)
	require.Contains(t, surface.Status(), "No speech")
}

func TestHandleCommands(t *testing.T) {
	capturer := &fakeCapturer{available: true, transcript: "hello"}
	ctrl := NewController(nil, Deps{
		Translator: echoTranslator(nil),
		Capturer:   capturer,
	}, Options{Source: "en", Target: "hi"})

	resp := ctrl.Handle(context.Background(), reqFor("status"))
	require.True(t, resp.OK)
	require.Equal(t, "idle", resp.State)
	require.False(t, resp.Muted)

	require.NoError(t, ctrl.StartListening(context.Background()))
	resp = ctrl.Handle(context.Background(), reqFor("status"))
	require.Equal(t, "listening", resp.State)

	resp = ctrl.Handle(context.Background(), reqFor("stop"))
	require.True(t, resp.OK)
	require.Equal(t, "idle", resp.State)

	resp = ctrl.Handle(context.Background(), reqFor("mute"))
	require.True(t, resp.OK)
	require.True(t, resp.Muted)
	require.Equal(t, "muted", resp.Message)

	resp = ctrl.Handle(context.Background(), reqFor("reboot"))
	require.False(t, resp.OK)
	require.Contains(t, resp.Error, "unknown command")
}

func TestStartMutedSkipsSpeech(t *testing.T) {
	surface := &fakeSurface{}
	engine := &fakeEngine{}

	ctrl := NewController(nil, Deps{
		Translator: echoTranslator(nil),
		Voices:     hindiCatalog(t),
		Speech:     engine,
		Surface:    surface,
	}, Options{Source: "en", Target: "hi", Mute: true})

	require.True(t, ctrl.Muted())
	require.NoError(t, ctrl.TranslateNow(context.Background(), "hello"))
	require.Equal(t, "translated:hello", surface.Output())
	require.Empty(t, engine.Spoken())
}

func TestCopyLastCopiesMostRecentOutput(t *testing.T) {
	surface := &fakeSurface{}
	copier := &fakeCopier{}

	ctrl := NewController(nil, Deps{
		Translator: echoTranslator(nil),
		Copier:     copier,
		Surface:    surface,
	}, Options{Source: "en", Target: "hi"})

	require.ErrorContains(t, ctrl.CopyLast(context.Background()), "nothing to copy")

	require.NoError(t, ctrl.TranslateNow(context.Background(), "first"))
	require.NoError(t, ctrl.TranslateNow(context.Background(), "second"))
	require.NoError(t, ctrl.CopyLast(context.Background()))
	require.Equal(t, []string{"translated:second"}, copier.copied)
}

func TestCopyLastWithoutCopierReturnsError(t *testing.T) {
	ctrl := NewController(nil, Deps{
		Translator: echoTranslator(nil),
	}, Options{Source: "en", Target: "hi"})

	require.ErrorContains(t, ctrl.CopyLast(context.Background()), "clipboard is not configured")
}

func TestClearResetsOutputAndDiscardsPending(t *testing.T) {
	surface := &fakeSurface{}
	copier := &fakeCopier{}
	var calls atomic.Int32

	ctrl := NewController(nil, Deps{
		Translator: echoTranslator(&calls),
		Copier:     copier,
		Surface:    surface,
	}, Options{Source: "en", Target: "hi", Debounce: 50 * time.Millisecond})

	require.NoError(t, ctrl.TranslateNow(context.Background(), "hello"))
	require.Equal(t, "translated:hello", surface.Output())

	ctrl.SubmitTyped(context.Background(), "queued")
	ctrl.Clear()

	require.Empty(t, surface.Output())
	require.ErrorContains(t, ctrl.CopyLast(context.Background()), "nothing to copy")

	time.Sleep(120 * time.Millisecond)
	require.Equal(t, int32(1), calls.Load())
}
