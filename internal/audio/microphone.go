// Package audio captures raw PCM from the system microphone through ffmpeg.
package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"beespeak/internal/ports"
)

// ErrMicrophoneDenied is returned when the OS refuses microphone access.
var ErrMicrophoneDenied = errors.New("microphone access denied")

const (
	defaultStartupProbe = 250 * time.Millisecond
	stopGrace           = 1200 * time.Millisecond
)

// Microphone streams 16-bit little-endian PCM from an ffmpeg child process.
type Microphone struct {
	command string
	goos    string
	probe   time.Duration
}

func NewMicrophone(command string) *Microphone {
	if command == "" {
		command = "ffmpeg"
	}
	return &Microphone{command: command, goos: runtime.GOOS, probe: defaultStartupProbe}
}

func (m *Microphone) Start(ctx context.Context, cfg ports.AudioConfig) (ports.AudioSession, error) {
	cmd := exec.CommandContext(ctx, m.command, captureArgs(m.goos, cfg)...)
	stderr := &lockedBuffer{}
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	exited := make(chan error, 1)
	go func() {
		exited <- cmd.Wait()
		close(exited)
	}()

	select {
	case err := <-exited:
		detail := stderr.Trimmed()
		if deniedAccess(detail) {
			return nil, fmt.Errorf("%w: %s", ErrMicrophoneDenied, detail)
		}
		if err != nil {
			return nil, fmt.Errorf("ffmpeg exited before capture started: %w: %s", err, detail)
		}
		return nil, errors.New("ffmpeg exited before capture started")
	case <-time.After(m.probe):
	}

	return &captureSession{
		stdout:  stdout,
		stderr:  stderr,
		process: cmd.Process,
		exited:  exited,
	}, nil
}

// captureArgs picks the ffmpeg input driver for the platform unless one is configured.
func captureArgs(goos string, cfg ports.AudioConfig) []string {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	if cfg.InputFormat == "" {
		switch goos {
		case "darwin":
			cfg.InputFormat = "avfoundation"
		case "windows":
			cfg.InputFormat = "dshow"
		default:
			cfg.InputFormat = "pulse"
		}
	}
	if cfg.InputDevice == "" {
		switch cfg.InputFormat {
		case "avfoundation":
			cfg.InputDevice = ":0"
		case "dshow":
			cfg.InputDevice = "audio=default"
		default:
			cfg.InputDevice = "default"
		}
	}

	return []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "warning",
		"-f", cfg.InputFormat,
		"-i", cfg.InputDevice,
		"-ac", strconv.Itoa(cfg.Channels),
		"-ar", strconv.Itoa(cfg.SampleRate),
		"-f", "s16le",
		"-",
	}
}

func deniedAccess(stderr string) bool {
	lower := strings.ToLower(stderr)
	return strings.Contains(lower, "permission denied") ||
		strings.Contains(lower, "not authorized") ||
		strings.Contains(lower, "access denied")
}

type captureSession struct {
	stdout  io.ReadCloser
	stderr  *lockedBuffer
	process *os.Process
	exited  <-chan error

	stopOnce sync.Once
	stopErr  error
}

func (s *captureSession) Read(p []byte) (int, error) {
	return s.stdout.Read(p)
}

func (s *captureSession) Close() error {
	return s.Stop()
}

// Stop interrupts ffmpeg so it flushes, killing it if it lingers.
func (s *captureSession) Stop() error {
	s.stopOnce.Do(func() {
		if s.process != nil {
			_ = s.process.Signal(os.Interrupt)
		}

		select {
		case err, ok := <-s.exited:
			if ok {
				s.stopErr = ignoreExitStatus(err)
			}
		case <-time.After(stopGrace):
			if s.process != nil {
				_ = s.process.Kill()
			}
			if err, ok := <-s.exited; ok {
				s.stopErr = ignoreExitStatus(err)
			}
		}

		if err := s.stdout.Close(); err != nil && !errors.Is(err, os.ErrClosed) && s.stopErr == nil {
			s.stopErr = err
		}
		if s.stopErr != nil {
			if detail := s.stderr.Trimmed(); detail != "" {
				s.stopErr = fmt.Errorf("%w: %s", s.stopErr, detail)
			}
		}
	})
	return s.stopErr
}

// ignoreExitStatus treats a non-zero exit as normal: ffmpeg exits 255 on interrupt.
func ignoreExitStatus(err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) Trimmed() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.TrimSpace(b.buf.String())
}
