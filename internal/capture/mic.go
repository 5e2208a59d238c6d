package capture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/speakly/speakly/internal/audio"
	"github.com/speakly/speakly/internal/stt"
	"github.com/speakly/speakly/internal/transcript"
)

// MicPipeline streams microphone PCM to the websocket recognizer and
// assembles finalized segments into one transcript.
type MicPipeline struct {
	logger     *slog.Logger
	endpoint   string
	sampleRate int
	input      string
	fallback   string

	mu        sync.Mutex
	started   bool
	capture   *audio.Capture
	stream    *stt.Stream
	sendErrCh chan error
}

// MicOptions configures the microphone pipeline.
type MicOptions struct {
	RecognizerEndpoint string
	SampleRate         int
	AudioInput         string
	AudioFallback      string
}

// NewMicPipeline constructs a pipeline from runtime options.
func NewMicPipeline(opts MicOptions, logger *slog.Logger) *MicPipeline {
	sampleRate := opts.SampleRate
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	return &MicPipeline{
		logger:     logger,
		endpoint:   opts.RecognizerEndpoint,
		sampleRate: sampleRate,
		input:      opts.AudioInput,
		fallback:   opts.AudioFallback,
	}
}

// Start resolves the input device, opens the recognizer stream, and begins
// forwarding PCM chunks.
func (p *MicPipeline) Start(ctx context.Context, locale string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return fmt.Errorf("capture pipeline already started")
	}

	selection, err := audio.SelectDevice(ctx, p.input, p.fallback)
	if err != nil {
		return err
	}
	if selection.Warning != "" && p.logger != nil {
		p.logger.Warn(selection.Warning)
	}

	stream, err := stt.DialStream(ctx, stt.StreamConfig{
		Endpoint:    p.endpoint,
		SampleRate:  p.sampleRate,
		Language:    locale,
		DialTimeout: 3 * time.Second,
	})
	if err != nil {
		return err
	}

	cap, err := audio.StartCapture(ctx, selection.Device)
	if err != nil {
		_ = stream.Cancel()
		return err
	}

	p.stream = stream
	p.capture = cap
	p.sendErrCh = make(chan error, 1)
	p.started = true

	go p.sendLoop(cap, stream, p.sendErrCh)
	return nil
}

// StopAndCollect stops audio, flushes the stream, and assembles the transcript.
func (p *MicPipeline) StopAndCollect(ctx context.Context) (string, error) {
	p.mu.Lock()
	started := p.started
	cap := p.capture
	stream := p.stream
	sendErrCh := p.sendErrCh
	p.reset()
	p.mu.Unlock()

	if !started || cap == nil || stream == nil {
		return "", fmt.Errorf("capture pipeline is not running")
	}

	_ = cap.Stop()

	var sendErr error
	if sendErrCh != nil {
		sendErr = <-sendErrCh
	}
	if sendErr != nil {
		_ = stream.Cancel()
		return "", fmt.Errorf("send audio stream: %w", sendErr)
	}

	closeCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	segments, latency, err := stream.CloseAndCollect(closeCtx)
	if err != nil {
		return "", fmt.Errorf("collect final transcript: %w", err)
	}

	if p.logger != nil {
		p.logger.Info("capture complete",
			"device", cap.Device().ID,
			"bytes_captured", cap.BytesCaptured(),
			"recognizer_latency_ms", latency.Milliseconds(),
			"segments", len(segments),
		)
	}

	return transcript.Assemble(segments), nil
}

// Cancel stops capture and stream immediately without collecting a result.
func (p *MicPipeline) Cancel(_ context.Context) error {
	p.mu.Lock()
	cap := p.capture
	stream := p.stream
	p.reset()
	p.mu.Unlock()

	if cap != nil {
		_ = cap.Stop()
	}
	if stream != nil {
		_ = stream.Cancel()
	}
	return nil
}

// reset clears per-session state; callers hold p.mu.
func (p *MicPipeline) reset() {
	p.started = false
	p.capture = nil
	p.stream = nil
	p.sendErrCh = nil
}

// sendLoop forwards capture chunks to the recognizer and reports the first
// send failure.
func (p *MicPipeline) sendLoop(cap *audio.Capture, stream *stt.Stream, errCh chan error) {
	sent := false
	sendResult := func(err error) {
		if sent {
			return
		}
		errCh <- err
		sent = true
	}
	defer sendResult(nil)

	for chunk := range cap.Chunks() {
		if len(chunk) == 0 {
			continue
		}
		if err := stream.SendAudio(chunk); err != nil {
			_ = cap.Stop()
			sendResult(err)
			return
		}
	}
}
