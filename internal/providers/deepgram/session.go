package deepgram

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"beespeak/internal/domain"
)

var (
	closeStreamMessage = []byte(`{"type":"CloseStream"}`)
	keepAliveMessage   = []byte(`{"type":"KeepAlive"}`)
)

// ErrSendClosed is returned by SendAudio after CloseSend.
var ErrSendClosed = errors.New("audio stream is already closed")

type streamingSession struct {
	conn      *websocket.Conn
	keepAlive time.Duration

	events chan domain.TranscriptEvent
	audio  chan []byte
	done   chan struct{}

	wg sync.WaitGroup

	errMu sync.Mutex
	err   error

	closeSendOnce sync.Once
	closeOnce     sync.Once
	sendMu        sync.RWMutex
	sendClosed    bool
}

func newStreamingSession(conn *websocket.Conn, keepAlive time.Duration) *streamingSession {
	s := &streamingSession{
		conn:      conn,
		keepAlive: keepAlive,
		events:    make(chan domain.TranscriptEvent, 64),
		audio:     make(chan []byte, 32),
		done:      make(chan struct{}),
	}

	s.wg.Add(2)
	go s.readLoop()
	go s.writeLoop()
	go func() {
		s.wg.Wait()
		close(s.events)
		close(s.done)
		_ = conn.Close()
	}()
	return s
}

func (s *streamingSession) SendAudio(chunk []byte) error {
	if len(chunk) == 0 {
		return nil
	}

	s.sendMu.RLock()
	defer s.sendMu.RUnlock()
	if s.sendClosed {
		return ErrSendClosed
	}

	copied := append([]byte(nil), chunk...)
	select {
	case s.audio <- copied:
		return nil
	case <-s.done:
		if err := s.waitErr(); err != nil {
			return err
		}
		return errors.New("session closed")
	}
}

func (s *streamingSession) CloseSend() error {
	s.closeSendOnce.Do(func() {
		s.sendMu.Lock()
		s.sendClosed = true
		close(s.audio)
		s.sendMu.Unlock()
	})
	return nil
}

func (s *streamingSession) Events() <-chan domain.TranscriptEvent {
	return s.events
}

func (s *streamingSession) Wait() error {
	<-s.done
	return s.waitErr()
}

func (s *streamingSession) Close() error {
	s.closeOnce.Do(func() {
		_ = s.CloseSend()
		_ = s.conn.Close()
	})
	<-s.done
	return s.waitErr()
}

func (s *streamingSession) waitErr() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *streamingSession) setErr(err error) {
	if err == nil {
		return
	}
	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	) {
		return
	}

	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

// writeLoop forwards audio and keeps the socket alive through pauses in
// dictation, which Deepgram otherwise times out after ten seconds.
func (s *streamingSession) writeLoop() {
	defer s.wg.Done()

	var tick <-chan time.Time
	if s.keepAlive > 0 {
		ticker := time.NewTicker(s.keepAlive)
		defer ticker.Stop()
		tick = ticker.C
	}
	lastWrite := time.Now()

	for {
		select {
		case chunk, ok := <-s.audio:
			if !ok {
				if err := s.conn.WriteMessage(websocket.TextMessage, closeStreamMessage); err != nil {
					s.setErr(fmt.Errorf("failed to close stream: %w", err))
				}
				return
			}
			if err := s.conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
				s.setErr(fmt.Errorf("failed to send audio: %w", err))
				s.drainAudio()
				return
			}
			lastWrite = time.Now()
		case <-tick:
			if time.Since(lastWrite) < s.keepAlive {
				continue
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, keepAliveMessage); err != nil {
				s.setErr(fmt.Errorf("failed to send keepalive: %w", err))
				s.drainAudio()
				return
			}
			lastWrite = time.Now()
		}
	}
}

// drainAudio discards queued chunks so senders blocked on a full queue observe done.
func (s *streamingSession) drainAudio() {
	go func() {
		for range s.audio {
		}
	}()
}

func (s *streamingSession) readLoop() {
	defer s.wg.Done()

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			s.setErr(fmt.Errorf("failed to read provider event: %w", err))
			return
		}

		event, ok, err := decodeEvent(payload)
		if err != nil {
			s.setErr(err)
			return
		}
		if ok {
			s.emit(event)
		}
	}
}

// emit drops events rather than block the socket reader when nobody is consuming.
func (s *streamingSession) emit(event domain.TranscriptEvent) {
	select {
	case s.events <- event:
	case <-s.done:
	default:
	}
}
