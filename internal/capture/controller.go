// Package capture manages single-shot speech capture sessions.
package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/speakly/speakly/internal/fsm"
)

var (
	// ErrUnavailable means the platform lacks capture capability entirely.
	// It is permanent for the session; typed input remains available.
	ErrUnavailable = errors.New("speech capture is not available")
	// ErrNoSpeech means capture completed but no usable speech was recognized.
	ErrNoSpeech = errors.New("no speech detected")
)

// Pipeline owns one start-to-stop capture/recognition cycle. A fresh cycle is
// created per session; the zero state of a pipeline is reusable after Stop.
type Pipeline interface {
	Start(ctx context.Context, locale string) error
	StopAndCollect(ctx context.Context) (string, error)
	Cancel(ctx context.Context) error
}

// Controller enforces the Idle -> Listening -> Idle lifecycle over a capture
// pipeline. It never runs two concurrent sessions: a start while listening is
// swallowed as a no-op, matching toggle-button semantics.
type Controller struct {
	logger    *slog.Logger
	pipeline  Pipeline
	available bool

	mu    sync.Mutex
	state fsm.State
}

// NewController wires a capture pipeline. Availability is probed once by the
// caller and cached here, never re-checked per call.
func NewController(logger *slog.Logger, pipeline Pipeline, available bool) *Controller {
	return &Controller{
		logger:    logger,
		pipeline:  pipeline,
		available: available && pipeline != nil,
		state:     fsm.StateIdle,
	}
}

// Available reports the cached capture capability verdict.
func (c *Controller) Available() bool {
	return c.available
}

// Listening reports whether a capture session is active.
func (c *Controller) Listening() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == fsm.StateListening
}

// Start begins a capture session in the given source locale. Starting while
// already listening is a logged no-op: the platform does not support
// concurrent sessions and the double-tap must not surface as a failure.
func (c *Controller) Start(ctx context.Context, locale string) error {
	if !c.available {
		return ErrUnavailable
	}

	c.mu.Lock()
	next, err := fsm.Transition(c.state, fsm.EventStart)
	if err != nil {
		c.mu.Unlock()
		if c.logger != nil {
			c.logger.Warn("capture already listening; start ignored", "locale", locale)
		}
		return nil
	}
	c.state = next
	c.mu.Unlock()

	if err := c.pipeline.Start(ctx, locale); err != nil {
		c.toIdle(fsm.EventFail)
		return fmt.Errorf("start capture: %w", err)
	}
	return nil
}

// Stop ends the active session and returns the finalized transcript.
// Stop is idempotent: when idle it returns empty with no error.
func (c *Controller) Stop(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.state != fsm.StateListening {
		c.mu.Unlock()
		return "", nil
	}
	c.mu.Unlock()

	transcript, err := c.pipeline.StopAndCollect(ctx)
	if err != nil {
		c.toIdle(fsm.EventFail)
		return "", err
	}
	c.toIdle(fsm.EventResult)

	if strings.TrimSpace(transcript) == "" {
		return "", ErrNoSpeech
	}
	return transcript, nil
}

// Cancel aborts the active session and discards any captured audio.
func (c *Controller) Cancel(ctx context.Context) error {
	c.mu.Lock()
	if c.state != fsm.StateListening {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	err := c.pipeline.Cancel(ctx)
	c.toIdle(fsm.EventStop)
	return err
}

// toIdle applies a terminating event; every exit path lands in Idle.
func (c *Controller) toIdle(event fsm.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, err := fsm.Transition(c.state, event)
	if err != nil {
		next = fsm.StateIdle
	}
	c.state = next
}
