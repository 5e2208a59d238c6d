package synth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	speechd "github.com/ilyapashuk/go-speechd"

	"github.com/speakly/speakly/internal/langcode"
)

// Dispatcher speaks through a speech-dispatcher session. One utterance is in
// flight at a time; Speak cancels nothing by itself, callers decide when to
// interrupt via Cancel.
type Dispatcher struct {
	logger *slog.Logger

	mu      sync.Mutex
	session *speechd.SpeechdSession
}

// OpenOptions controls speech-dispatcher session setup.
type OpenOptions struct {
	ClientName   string
	OutputModule string
	Retries      int
	RetryDelay   time.Duration
}

// Open connects to speech-dispatcher with retries. The daemon sometimes
// rejects the first connection attempt right after startup.
func Open(opts OpenOptions, logger *slog.Logger) (*Dispatcher, error) {
	if opts.ClientName == "" {
		opts.ClientName = "speakly"
	}
	if opts.Retries <= 0 {
		opts.Retries = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 300 * time.Millisecond
	}

	var (
		session *speechd.SpeechdSession
		err     error
	)
	for attempt := 0; attempt < opts.Retries; attempt++ {
		session, err = speechd.Open()
		if err == nil {
			break
		}
		if logger != nil {
			logger.Warn("speech-dispatcher connect failed",
				"attempt", attempt+1,
				"retries", opts.Retries,
				"error", err.Error(),
			)
		}
		time.Sleep(opts.RetryDelay)
	}
	if err != nil {
		return nil, fmt.Errorf("connect speech-dispatcher after %d attempts: %w", opts.Retries, err)
	}

	if err := session.SetClientName(opts.ClientName, opts.ClientName, opts.ClientName); err != nil {
		session.Close()
		return nil, fmt.Errorf("set speech client name: %w", err)
	}
	if module := strings.TrimSpace(opts.OutputModule); module != "" {
		if err := session.SetOutputModule(module); err != nil {
			session.Close()
			return nil, fmt.Errorf("set output module %q: %w", module, err)
		}
	}

	return &Dispatcher{logger: logger, session: session}, nil
}

// Speak queues one utterance in the given locale. The language sent to the
// daemon is the base tag; speech-dispatcher picks the concrete voice.
func (d *Dispatcher) Speak(_ context.Context, text string, locale string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.session == nil {
		return fmt.Errorf("speech-dispatcher session is closed")
	}

	if err := d.session.SetLanguage(langcode.Base(locale)); err != nil {
		return fmt.Errorf("set speech language %q: %w", locale, err)
	}
	if _, err := d.session.Speak(text); err != nil {
		return fmt.Errorf("speak utterance: %w", err)
	}
	return nil
}

// Cancel stops any in-progress utterance.
func (d *Dispatcher) Cancel() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.session == nil {
		return nil
	}
	d.session.Cancel()
	return nil
}

// Close releases the speech-dispatcher session.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.session == nil {
		return nil
	}
	d.session.Close()
	d.session = nil
	return nil
}
