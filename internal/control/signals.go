package control

import (
	"fmt"
	"io"
	"log"
	"sync"
)

// Signal marks a privileged action the supervising process must perform on
// the bot's behalf (clicking meeting-UI buttons, tearing the browser down).
type Signal string

const (
	SignalLeaveMeeting Signal = "LEAVE_MEETING"
	SignalMuted        Signal = "MUTED"
	SignalUnmuted      Signal = "UNMUTED"
	SignalPaused       Signal = "PAUSED"
	SignalResumed      Signal = "RESUMED"
)

// Emitter publishes signals both as SIGNAL:<NAME> lines on an output writer
// (the channel the supervisor tails) and to in-process subscribers.
type Emitter struct {
	mu   sync.Mutex
	w    io.Writer
	subs []chan Signal
}

// NewEmitter wraps the given writer, usually stdout. A nil writer disables
// the line protocol and keeps only in-process delivery.
func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{w: w}
}

// Emit publishes one signal. Subscriber delivery is non-blocking; a slow
// subscriber misses signals rather than stalling the session.
func (e *Emitter) Emit(s Signal) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.w != nil {
		if _, err := fmt.Fprintf(e.w, "SIGNAL:%s\n", s); err != nil {
			log.Printf("control: failed to write signal %s: %v", s, err)
		}
	}
	for _, ch := range e.subs {
		select {
		case ch <- s:
		default:
		}
	}
}

// Subscribe returns a channel receiving every subsequently emitted signal.
func (e *Emitter) Subscribe() <-chan Signal {
	e.mu.Lock()
	defer e.mu.Unlock()
	ch := make(chan Signal, 16)
	e.subs = append(e.subs, ch)
	return ch
}
