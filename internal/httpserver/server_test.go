package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nova328/teams-meeting-audio/internal/agent"
)

func TestServer_Healthz(t *testing.T) {
	srv := New(func() agent.State { return agent.State{} })
	r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestServer_StateReportsSnapshot(t *testing.T) {
	srv := New(func() agent.State {
		return agent.State{Muted: true, Paused: false, Processing: true, Turns: 7}
	})
	r := httptest.NewRequest(http.MethodGet, "/state", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var got agent.State
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if !got.Muted || got.Paused || !got.Processing || got.Turns != 7 {
		t.Fatalf("state mismatch: %+v", got)
	}
}
