package control

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nova328/teams-meeting-audio/internal/search"
)

func TestEmitter_WritesSignalLines(t *testing.T) {
	var buf bytes.Buffer
	e := NewEmitter(&buf)
	e.Emit(SignalMuted)
	e.Emit(SignalLeaveMeeting)
	want := "SIGNAL:MUTED\nSIGNAL:LEAVE_MEETING\n"
	if buf.String() != want {
		t.Fatalf("line protocol mismatch: got %q want %q", buf.String(), want)
	}
}

func TestEmitter_DeliversToSubscribers(t *testing.T) {
	e := NewEmitter(nil)
	sub := e.Subscribe()
	e.Emit(SignalPaused)
	select {
	case s := <-sub:
		if s != SignalPaused {
			t.Fatalf("got %v want %v", s, SignalPaused)
		}
	default:
		t.Fatalf("expected buffered delivery")
	}
}

func TestPending_ResolveOnce(t *testing.T) {
	p := NewPendingSearches(time.Minute)
	ch := p.Register("req-1")
	if !p.Resolve("req-1", SearchOutcome{Results: []search.Result{{Title: "t"}}}) {
		t.Fatalf("first resolve must succeed")
	}
	if p.Resolve("req-1", SearchOutcome{}) {
		t.Fatalf("second resolve must report unknown")
	}
	out := <-ch
	if out.Err != nil || len(out.Results) != 1 {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if p.Pending() != 0 {
		t.Fatalf("expected no pending requests")
	}
}

func TestPending_Expiry(t *testing.T) {
	p := NewPendingSearches(10 * time.Millisecond)
	ch := p.Register("req-2")
	select {
	case out := <-ch:
		if !errors.Is(out.Err, ErrSearchTimeout) {
			t.Fatalf("expected timeout, got %+v", out)
		}
	case <-time.After(time.Second):
		t.Fatalf("expiry never fired")
	}
}

func TestPending_ReadResults(t *testing.T) {
	p := NewPendingSearches(time.Minute)
	ch := p.Register("abc")
	input := strings.Join([]string{
		`not json at all`,
		`{"request_id":"","results":[]}`,
		`{"request_id":"abc","results":[{"title":"T","snippet":"S","url":"https://u"}]}`,
		`{"request_id":"unknown","results":[]}`,
	}, "\n")

	p.ReadResults(strings.NewReader(input))

	select {
	case out := <-ch:
		if out.Err != nil || len(out.Results) != 1 {
			t.Fatalf("unexpected outcome: %+v", out)
		}
		r := out.Results[0]
		if r.Title != "T" || r.Snippet != "S" || r.URL != "https://u" {
			t.Fatalf("result mapping mismatch: %+v", r)
		}
	default:
		t.Fatalf("injected result never resolved")
	}
}

func TestPending_ReadResultsError(t *testing.T) {
	p := NewPendingSearches(time.Minute)
	ch := p.Register("err-req")
	p.ReadResults(strings.NewReader(`{"request_id":"err-req","error":"provider down"}`))
	out := <-ch
	if out.Err == nil || out.Err.Error() != "provider down" {
		t.Fatalf("expected injected error, got %+v", out)
	}
}
