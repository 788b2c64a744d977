package agent

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/nova328/teams-meeting-audio/internal/control"
	"github.com/nova328/teams-meeting-audio/internal/llm"
)

// maxHistory bounds the conversation context sent to the generator; the
// oldest turns are dropped first.
const maxHistory = 20

// defaultLeaveGrace is how long the process waits for the supervisor to act
// on a LEAVE signal before exiting on its own.
const defaultLeaveGrace = 60 * time.Second

// Config wires a Session to its collaborators.
type Config struct {
	Persona   string
	Generator Generator
	Speaker   Synthesizer
	Searcher  Searcher
	Signals   Notifier
	Pending   *control.PendingSearches
	// ForceExit runs if no external termination arrives within LeaveGrace
	// of a LEAVE signal.
	ForceExit  func()
	LeaveGrace time.Duration
}

// Session orchestrates one meeting-participation context: it owns the
// conversation history and the mute/pause/processing flags, and sequences
// transcription events into generation, tool execution and speech.
type Session struct {
	persona    string
	gen        Generator
	speaker    Synthesizer
	searcher   Searcher
	signals    Notifier
	pending    *control.PendingSearches
	forceExit  func()
	leaveGrace time.Duration

	mu         sync.Mutex
	history    []llm.Message
	transcript []llm.Message
	processing bool
	muted      bool
	paused     bool
	leaveTimer *time.Timer
}

// State is a point-in-time snapshot of the session flags.
type State struct {
	Muted      bool `json:"muted"`
	Paused     bool `json:"paused"`
	Processing bool `json:"processing"`
	Turns      int  `json:"turns"`
}

// NewSession constructs a Session. Nil collaborators degrade to no-ops so
// tests can wire only what they exercise.
func NewSession(cfg Config) *Session {
	s := &Session{
		persona:    cfg.Persona,
		gen:        cfg.Generator,
		speaker:    cfg.Speaker,
		searcher:   cfg.Searcher,
		signals:    cfg.Signals,
		pending:    cfg.Pending,
		forceExit:  cfg.ForceExit,
		leaveGrace: cfg.LeaveGrace,
	}
	if s.speaker == nil {
		s.speaker = nopSynth{}
	}
	if s.signals == nil {
		s.signals = nopNotifier{}
	}
	if s.pending == nil {
		s.pending = control.NewPendingSearches(30 * time.Second)
	}
	if s.forceExit == nil {
		s.forceExit = func() {}
	}
	if s.leaveGrace <= 0 {
		s.leaveGrace = defaultLeaveGrace
	}
	return s
}

// OnUtterance runs one full response cycle for a completed speech segment.
// Utterances arriving while paused are ignored; utterances arriving while a
// cycle is already in flight are dropped, never queued, so turn order stays
// coherent.
func (s *Session) OnUtterance(ctx context.Context, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	s.mu.Lock()
	if s.paused {
		s.mu.Unlock()
		log.Printf("agent: paused, ignoring utterance: %q", text)
		return
	}
	if s.processing {
		s.mu.Unlock()
		log.Printf("agent: response in flight, dropping utterance: %q", text)
		return
	}
	s.processing = true
	s.appendTurnLocked(llm.RoleUser, text)
	msgs := s.promptLocked()
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.processing = false
		s.mu.Unlock()
	}()

	log.Printf("agent: heard: %q", text)
	reply, err := s.gen.Generate(ctx, msgs)
	if err != nil {
		log.Printf("agent: generation failed: %v", err)
		return
	}

	// Tools run sequentially and to completion in the order returned; a
	// mute_self must take effect before a later speak.
	for _, call := range reply.ToolCalls {
		inv, err := parseInvocation(call)
		if err != nil {
			log.Printf("agent: ignoring tool call: %v", err)
			continue
		}
		s.execute(ctx, inv)
	}

	if content := strings.TrimSpace(reply.Content); content != "" {
		s.mu.Lock()
		s.appendTurnLocked(llm.RoleAssistant, content)
		s.mu.Unlock()
		s.speakUnlessMuted(ctx, content)
	}
}

// IsMuted reports whether speech output is currently suppressed.
func (s *Session) IsMuted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

// IsPaused reports whether incoming utterances are currently ignored.
func (s *Session) IsPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// Snapshot returns the current session state for the status endpoint.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{Muted: s.muted, Paused: s.paused, Processing: s.processing, Turns: len(s.transcript)}
}

// Transcript formats the full conversation (unbounded, unlike the generation
// context) for the deferred-task handoff log.
func (s *Session) Transcript() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var b strings.Builder
	for _, m := range s.transcript {
		b.WriteString("[")
		b.WriteString(strings.ToUpper(m.Role))
		b.WriteString("] ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String()
}

// Close stops the leave timer if one is armed.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.leaveTimer != nil {
		s.leaveTimer.Stop()
		s.leaveTimer = nil
	}
}

func (s *Session) appendTurnLocked(role, text string) {
	m := llm.Message{Role: role, Content: text}
	s.transcript = append(s.transcript, m)
	s.history = append(s.history, m)
	if len(s.history) > maxHistory {
		s.history = s.history[len(s.history)-maxHistory:]
	}
}

// promptLocked builds the generator input: persona first, then the bounded
// history in chronological order.
func (s *Session) promptLocked() []llm.Message {
	msgs := make([]llm.Message, 0, len(s.history)+1)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: s.persona})
	msgs = append(msgs, s.history...)
	return msgs
}

// speakUnlessMuted gates speech on the mute flag; the synthesizer checks the
// flag again at call time.
func (s *Session) speakUnlessMuted(ctx context.Context, text string) {
	s.mu.Lock()
	muted := s.muted
	s.mu.Unlock()
	if muted {
		log.Printf("agent: muted, not speaking: %q", text)
		return
	}
	if err := s.speaker.Speak(ctx, text); err != nil {
		log.Printf("agent: speech failed: %v", err)
	}
}
