// Package speech turns microphone audio into a stream of transcript events by
// pumping captured PCM into a streaming transcription provider.
package speech

import (
	"context"
	"fmt"
	"time"

	"beespeak/internal/domain"
	"beespeak/internal/ports"
)

const (
	minChunkSize         = 256
	defaultChunkSize     = 4096
	defaultStreamTimeout = 4 * time.Second
)

// Config controls capture and streaming for one dictation.
type Config struct {
	Audio          ports.AudioConfig
	Streaming      ports.StreamingConfig
	ChunkSize      int
	StreamingGrace time.Duration
	StreamTimeout  time.Duration
}

// Capture implements ports.SpeechCapture.
type Capture struct {
	audio    ports.AudioCapture
	provider ports.TranscriptionProvider
	reporter ports.ErrorReporter
	cfg      Config
}

func New(audio ports.AudioCapture, provider ports.TranscriptionProvider, reporter ports.ErrorReporter, cfg Config) *Capture {
	if cfg.ChunkSize < minChunkSize {
		cfg.ChunkSize = defaultChunkSize
	}
	if cfg.StreamTimeout <= 0 {
		cfg.StreamTimeout = defaultStreamTimeout
	}
	return &Capture{audio: audio, provider: provider, reporter: reporter, cfg: cfg}
}

// Start connects to the provider before opening the microphone so no audio is
// captured without somewhere to send it.
func (c *Capture) Start(ctx context.Context) (ports.SpeechSession, error) {
	sessionCtx, cancel := context.WithCancel(ctx)

	stream, err := c.provider.StartStreaming(sessionCtx, c.cfg.Streaming)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start transcription: %w", err)
	}

	audio, err := c.audio.Start(sessionCtx, c.cfg.Audio)
	if err != nil {
		_ = stream.Close()
		cancel()
		return nil, fmt.Errorf("failed to start microphone: %w", err)
	}

	s := &session{
		cancel:   cancel,
		audio:    audio,
		stream:   stream,
		reporter: c.reporter,
		grace:    c.cfg.StreamingGrace,
		timeout:  c.cfg.StreamTimeout,
		pumpDone: make(chan struct{}),
	}
	go pumpAudioChunks(audio, stream, c.cfg.ChunkSize, c.reporter, s.pumpDone)
	return s, nil
}

type session struct {
	cancel   context.CancelFunc
	audio    ports.AudioSession
	stream   ports.StreamingSession
	reporter ports.ErrorReporter
	grace    time.Duration
	timeout  time.Duration
	pumpDone chan struct{}
}

func (s *session) Events() <-chan domain.TranscriptEvent {
	return s.stream.Events()
}

// Stop ends capture, gives the provider the grace period to deliver trailing
// results, then waits for the stream to finish.
func (s *session) Stop(ctx context.Context) error {
	defer s.cancel()

	if err := s.audio.Stop(); err != nil {
		s.reporter.SessionError(domain.ErrorCodeCaptureStop, "failed to stop audio capture cleanly")
	}

	if s.grace > 0 {
		timer := time.NewTimer(s.grace)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
		}
	}

	_ = s.stream.CloseSend()
	err := waitForStream(s.stream, s.timeout)
	<-s.pumpDone
	return err
}

func (s *session) Close() error {
	s.cancel()
	_ = s.audio.Stop()
	_ = s.stream.Close()
	<-s.pumpDone
	return nil
}

var _ ports.SpeechCapture = (*Capture)(nil)
