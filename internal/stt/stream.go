// Package stt streams PCM audio to a vosk-server websocket recognizer and
// collects finalized transcript segments.
package stt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// StreamConfig controls stream initialization and recognition behavior.
type StreamConfig struct {
	Endpoint    string
	SampleRate  int
	Language    string
	DialTimeout time.Duration
}

// Stream wraps one active recognizer websocket lifecycle: dial, config frame,
// binary audio frames, eof marker, result collection.
type Stream struct {
	conn *websocket.Conn

	recvDone chan struct{}

	mu         sync.Mutex
	segments   []string
	recvErr    error
	closedSend bool
}

type configFrame struct {
	Config struct {
		SampleRate int    `json:"sample_rate"`
		Language   string `json:"language,omitempty"`
	} `json:"config"`
}

type resultFrame struct {
	// Text is a finalized utterance segment. Partial carries interim
	// hypotheses, which this client discards: translation acts only on
	// finalized recognition.
	Text    *string `json:"text"`
	Partial *string `json:"partial"`
}

// DialStream connects to the recognizer, sends the config frame, and starts
// the receive loop.
func DialStream(ctx context.Context, cfg StreamConfig) (*Stream, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New("recognizer endpoint is empty")
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 3 * time.Second
	}

	dialCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("dial recognizer %q: %w", endpoint, err)
	}

	var frame configFrame
	frame.Config.SampleRate = cfg.SampleRate
	frame.Config.Language = strings.TrimSpace(cfg.Language)
	if err := conn.WriteJSON(frame); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("send recognizer config: %w", err)
	}

	s := &Stream{
		conn:     conn,
		recvDone: make(chan struct{}),
	}
	go s.recvLoop()
	return s, nil
}

// recvLoop receives recognition frames until the server closes the socket.
func (s *Stream) recvLoop() {
	defer close(s.recvDone)

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return
			}
			s.mu.Lock()
			closed := s.closedSend
			s.mu.Unlock()
			if closed {
				// Connection teardown after eof is expected.
				return
			}

			s.mu.Lock()
			s.recvErr = err
			s.mu.Unlock()
			return
		}
		s.recordFrame(message)
	}
}

func (s *Stream) recordFrame(message []byte) {
	var frame resultFrame
	if err := json.Unmarshal(message, &frame); err != nil {
		return
	}
	if frame.Text == nil {
		return
	}

	segment := strings.Join(strings.Fields(*frame.Text), " ")
	if segment == "" {
		return
	}

	s.mu.Lock()
	s.segments = append(s.segments, segment)
	s.mu.Unlock()
}

// SendAudio sends one chunk of PCM audio over the active stream.
func (s *Stream) SendAudio(chunk []byte) error {
	if len(chunk) == 0 {
		return nil
	}

	s.mu.Lock()
	closed := s.closedSend
	recvErr := s.recvErr
	s.mu.Unlock()

	if closed {
		return errors.New("stream already closed for sending")
	}
	if recvErr != nil {
		return fmt.Errorf("stream receive loop failed: %w", recvErr)
	}

	return s.conn.WriteMessage(websocket.BinaryMessage, chunk)
}

// CloseAndCollect marks end of audio, waits for the final result, and returns
// all finalized segments.
func (s *Stream) CloseAndCollect(ctx context.Context) ([]string, time.Duration, error) {
	closedAt := time.Now()

	s.mu.Lock()
	if !s.closedSend {
		s.closedSend = true
		if err := s.conn.WriteMessage(websocket.TextMessage, []byte(`{"eof" : 1}`)); err != nil {
			s.mu.Unlock()
			_ = s.conn.Close()
			return nil, 0, fmt.Errorf("send eof marker: %w", err)
		}
	}
	s.mu.Unlock()

	waitDone := make(chan struct{})
	go func() {
		// The server replies with the last finalized segment and closes.
		// Bound the wait so a wedged server cannot block the session.
		select {
		case <-s.recvDone:
		case <-ctx.Done():
		case <-time.After(10 * time.Second):
		}
		close(waitDone)
	}()
	<-waitDone

	latency := time.Since(closedAt)
	_ = s.conn.Close()

	if ctx.Err() != nil {
		return nil, latency, ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recvErr != nil {
		return nil, latency, s.recvErr
	}

	segments := make([]string, len(s.segments))
	copy(segments, s.segments)
	return segments, latency, nil
}

// Cancel aborts stream processing and closes the underlying connection.
func (s *Stream) Cancel() error {
	s.mu.Lock()
	s.closedSend = true
	s.mu.Unlock()
	return s.conn.Close()
}
