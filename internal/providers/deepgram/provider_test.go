package deepgram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"beespeak/internal/domain"
	"beespeak/internal/ports"
)

func TestNewProviderDefaults(t *testing.T) {
	t.Parallel()

	p := NewProvider(Config{})
	if p.cfg.APIBaseURL != defaultBaseURL {
		t.Fatalf("unexpected base url: %q", p.cfg.APIBaseURL)
	}
	if p.cfg.Model != defaultModel {
		t.Fatalf("unexpected model: %q", p.cfg.Model)
	}
	if p.cfg.KeepAlive != 5*time.Second {
		t.Fatalf("unexpected keepalive: %s", p.cfg.KeepAlive)
	}
}

func TestProviderStartStreamingRequiresAPIKey(t *testing.T) {
	t.Parallel()

	_, err := NewProvider(Config{APIKey: " "}).StartStreaming(context.Background(), ports.StreamingConfig{})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected missing key error, got %v", err)
	}
}

func TestBuildListenURLDefaults(t *testing.T) {
	t.Parallel()

	raw, err := buildListenURL(Config{Model: "nova-2"}, ports.StreamingConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasPrefix(raw, "wss://api.deepgram.com/v1/listen?") {
		t.Fatalf("unexpected ws url: %s", raw)
	}
	for _, want := range []string{"encoding=linear16", "sample_rate=16000", "channels=1", "interim_results=false"} {
		if !strings.Contains(raw, want) {
			t.Fatalf("expected %s in url: %s", want, raw)
		}
	}
	if strings.Contains(raw, "keywords=") || strings.Contains(raw, "endpointing=") {
		t.Fatalf("unexpected optional params in url: %s", raw)
	}
}

func TestBuildListenURLKeywordsAndOptions(t *testing.T) {
	t.Parallel()

	raw, err := buildListenURL(
		Config{APIBaseURL: "http://localhost:8080/v1/", Model: "m", Language: "en-US", SmartFormat: true, EndpointingMS: 300, KeywordBoost: 2},
		ports.StreamingConfig{SampleRate: 8000, Channels: 2, InterimResults: true, Keywords: []string{"varroa", " ", "brood"}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Scheme != "ws" || parsed.Host != "localhost:8080" || parsed.Path != "/v1/listen" {
		t.Fatalf("unexpected ws url: %s", raw)
	}

	query := parsed.Query()
	if got := query["keywords"]; len(got) != 2 || got[0] != "varroa:2" || got[1] != "brood:2" {
		t.Fatalf("unexpected keywords: %v", got)
	}
	if query.Get("language") != "en-US" || query.Get("smart_format") != "true" || query.Get("endpointing") != "300" {
		t.Fatalf("unexpected query: %s", parsed.RawQuery)
	}
}

func TestBuildListenURLInvalidBase(t *testing.T) {
	t.Parallel()

	if _, err := buildListenURL(Config{APIBaseURL: ":// bad"}, ports.StreamingConfig{}); err == nil {
		t.Fatalf("expected invalid base url error")
	}
}

func TestDecodeEvent(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		payload string
		ok      bool
		kind    domain.TranscriptKind
		text    string
		wantErr bool
	}{
		{name: "interim", payload: `{"channel":{"alternatives":[{"transcript":" queen seen "}]}}`, ok: true, kind: domain.TranscriptKindPartial, text: "queen seen"},
		{name: "final", payload: `{"is_final":true,"channel":{"alternatives":[{"transcript":"varroa low"}]}}`, ok: true, kind: domain.TranscriptKindFinal, text: "varroa low"},
		{name: "speech final", payload: `{"speech_final":true,"channel":{"alternatives":[{"transcript":"save"}]}}`, ok: true, kind: domain.TranscriptKindFinal, text: "save"},
		{name: "results shape", payload: `{"results":{"channels":[{"alternatives":[{"transcript":"next frame"}]}]}}`, ok: true, kind: domain.TranscriptKindPartial, text: "next frame"},
		{name: "empty", payload: `{"channel":{"alternatives":[{"transcript":""}]}}`},
		{name: "metadata", payload: `{"type":"Metadata"}`},
		{name: "garbage", payload: `not json`},
		{name: "error", payload: `{"type":"Error","description":"bad audio"}`, wantErr: true},
	}

	for _, tc := range cases {
		event, ok, err := decodeEvent([]byte(tc.payload))
		if tc.wantErr != (err != nil) {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if ok != tc.ok {
			t.Fatalf("%s: expected ok=%t", tc.name, tc.ok)
		}
		if ok && (event.Kind != tc.kind || event.Text != tc.text) {
			t.Fatalf("%s: unexpected event %+v", tc.name, event)
		}
	}
}

func TestStreamingSessionAgainstServer(t *testing.T) {
	t.Parallel()

	upgrader := websocket.Upgrader{}
	gotAuth := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth <- r.Header.Get("Authorization")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			kind, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if kind == websocket.BinaryMessage {
				_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"is_final":true,"channel":{"alternatives":[{"transcript":"queen seen"}]}}`))
				continue
			}
			if strings.Contains(string(payload), "CloseStream") {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
		}
	}))
	defer server.Close()

	provider := NewProvider(Config{APIKey: "secret", APIBaseURL: server.URL})
	session, err := provider.StartStreaming(context.Background(), ports.StreamingConfig{})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if auth := <-gotAuth; auth != "Token secret" {
		t.Fatalf("unexpected authorization header %q", auth)
	}

	if err := session.SendAudio([]byte{1, 2, 3}); err != nil {
		t.Fatalf("send: %v", err)
	}

	select {
	case event := <-session.Events():
		if event.Kind != domain.TranscriptKindFinal || event.Text != "queen seen" {
			t.Fatalf("unexpected event %+v", event)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for transcript")
	}

	if err := session.CloseSend(); err != nil {
		t.Fatalf("close send: %v", err)
	}
	if err := session.SendAudio([]byte{4}); !errors.Is(err, ErrSendClosed) {
		t.Fatalf("expected ErrSendClosed, got %v", err)
	}
	if err := session.Wait(); err != nil {
		t.Fatalf("expected clean close, got %v", err)
	}
}

func TestStreamingSessionSetErr(t *testing.T) {
	t.Parallel()

	s := &streamingSession{}
	s.setErr(&websocket.CloseError{Code: websocket.CloseNormalClosure, Text: "closed"})
	if s.waitErr() != nil {
		t.Fatalf("expected close error to be ignored")
	}

	s.setErr(errors.New("first"))
	s.setErr(errors.New("second"))
	if s.waitErr() == nil || s.waitErr().Error() != "first" {
		t.Fatalf("expected first error to win")
	}
}

func TestStreamingSessionCloseSendIsIdempotent(t *testing.T) {
	t.Parallel()

	s := &streamingSession{audio: make(chan []byte, 1)}
	if err := s.CloseSend(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.CloseSend(); err != nil {
		t.Fatalf("unexpected second error: %v", err)
	}
}
