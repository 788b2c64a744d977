package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nova328/teams-meeting-audio/internal/control"
	"github.com/nova328/teams-meeting-audio/internal/llm"
	"github.com/nova328/teams-meeting-audio/internal/search"
)

// Spoken acknowledgements and apologies. These go through the synthesizer
// like any other speech (and are therefore mute-suppressed) but are not part
// of the conversation history.
const (
	ackLeave           = "Okay, I'm leaving the meeting now. Goodbye!"
	ackPause           = "Okay, I'll stop listening until you ask me to resume."
	ackResume          = "I'm listening again."
	apologySearchUnset = "Sorry, web search isn't configured right now."
	apologyNoResults   = "Sorry, I couldn't find any results for that."
)

// toolKind is the closed set of actions the generator may invoke. Tool calls
// are decoded into it once at the boundary; unknown names never get past
// parseInvocation.
type toolKind int

const (
	toolLeaveMeeting toolKind = iota
	toolMuteSelf
	toolUnmuteSelf
	toolPauseListening
	toolResumeListening
	toolWebSearch
)

type invocation struct {
	kind  toolKind
	query string
}

var errUnknownTool = errors.New("unknown tool")

func parseInvocation(call llm.ToolCall) (invocation, error) {
	switch call.Name {
	case "leave_meeting":
		return invocation{kind: toolLeaveMeeting}, nil
	case "mute_self":
		return invocation{kind: toolMuteSelf}, nil
	case "unmute_self":
		return invocation{kind: toolUnmuteSelf}, nil
	case "pause_listening":
		return invocation{kind: toolPauseListening}, nil
	case "resume_listening":
		return invocation{kind: toolResumeListening}, nil
	case "web_search":
		var args struct {
			Query string `json:"query"`
		}
		if len(call.Arguments) > 0 {
			if err := json.Unmarshal(call.Arguments, &args); err != nil {
				return invocation{}, fmt.Errorf("web_search arguments: %w", err)
			}
		}
		return invocation{kind: toolWebSearch, query: strings.TrimSpace(args.Query)}, nil
	default:
		return invocation{}, fmt.Errorf("%w: %s", errUnknownTool, call.Name)
	}
}

func (s *Session) execute(ctx context.Context, inv invocation) {
	switch inv.kind {
	case toolLeaveMeeting:
		s.leaveMeeting(ctx)
	case toolMuteSelf:
		s.muteSelf()
	case toolUnmuteSelf:
		s.unmuteSelf()
	case toolPauseListening:
		s.pauseListening(ctx)
	case toolResumeListening:
		s.resumeListening(ctx)
	case toolWebSearch:
		s.webSearch(ctx, inv.query)
	}
}

// leaveMeeting speaks the goodbye before emitting the signal so the
// supervisor does not cut the audio off, then stops listening and arms the
// forced-exit timer.
func (s *Session) leaveMeeting(ctx context.Context) {
	s.speakUnlessMuted(ctx, ackLeave)
	s.signals.Emit(control.SignalLeaveMeeting)
	s.mu.Lock()
	s.paused = true
	if s.leaveTimer != nil {
		s.leaveTimer.Stop()
	}
	s.leaveTimer = time.AfterFunc(s.leaveGrace, func() {
		log.Println("agent: no termination after leave signal, forcing exit")
		s.forceExit()
	})
	s.mu.Unlock()
	log.Printf("agent: leave signal emitted, exiting in %s unless terminated", s.leaveGrace)
}

// muteSelf suppresses speech output. No spoken acknowledgement: the point is
// to go quiet.
func (s *Session) muteSelf() {
	s.mu.Lock()
	if s.muted {
		s.mu.Unlock()
		log.Println("agent: mute_self ignored, already muted")
		return
	}
	s.muted = true
	s.mu.Unlock()
	s.signals.Emit(control.SignalMuted)
}

// unmuteSelf restores speech output. No spoken acknowledgement either, to
// avoid interrupting whoever is talking.
func (s *Session) unmuteSelf() {
	s.mu.Lock()
	if !s.muted {
		s.mu.Unlock()
		log.Println("agent: unmute_self ignored, not muted")
		return
	}
	s.muted = false
	s.mu.Unlock()
	s.signals.Emit(control.SignalUnmuted)
}

func (s *Session) pauseListening(ctx context.Context) {
	s.mu.Lock()
	s.paused = true
	s.mu.Unlock()
	s.speakUnlessMuted(ctx, ackPause)
	s.signals.Emit(control.SignalPaused)
}

func (s *Session) resumeListening(ctx context.Context) {
	s.mu.Lock()
	s.paused = false
	s.mu.Unlock()
	s.speakUnlessMuted(ctx, ackResume)
	s.signals.Emit(control.SignalResumed)
}

// webSearch registers a pending request, races the search client against a
// supervisor-injected result, and speaks a generated summary of whatever
// resolves first. Every failure mode ends in a short spoken apology rather
// than an error.
func (s *Session) webSearch(ctx context.Context, query string) {
	if query == "" {
		log.Println("agent: web_search ignored, empty query")
		return
	}
	if s.searcher == nil {
		log.Println("agent: web_search requested but no search credential configured")
		s.speakUnlessMuted(ctx, apologySearchUnset)
		return
	}

	id := uuid.NewString()
	outcomeCh := s.pending.Register(id)
	go func() {
		results, err := s.searcher.Search(ctx, query, search.DefaultCount)
		s.pending.Resolve(id, control.SearchOutcome{Results: results, Err: err})
	}()

	out := <-outcomeCh
	if out.Err != nil {
		log.Printf("agent: web search %s failed: %v", id, out.Err)
		s.speakUnlessMuted(ctx, apologyNoResults)
		return
	}
	if len(out.Results) == 0 {
		log.Printf("agent: web search %s returned no results", id)
		s.speakUnlessMuted(ctx, apologyNoResults)
		return
	}

	s.mu.Lock()
	s.appendTurnLocked(llm.RoleSystem, formatResults(query, out.Results))
	msgs := s.promptLocked()
	s.mu.Unlock()

	reply, err := s.gen.Generate(ctx, msgs)
	if err != nil {
		log.Printf("agent: search summary generation failed: %v", err)
		return
	}
	if len(reply.ToolCalls) > 0 {
		log.Printf("agent: ignoring %d tool calls in search summary", len(reply.ToolCalls))
	}
	content := strings.TrimSpace(reply.Content)
	if content == "" {
		return
	}
	s.mu.Lock()
	s.appendTurnLocked(llm.RoleAssistant, content)
	s.mu.Unlock()
	s.speakUnlessMuted(ctx, content)
}

func formatResults(query string, results []search.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Web search results for %q:\n", query)
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s - %s (%s)\n", i+1, r.Title, r.Snippet, r.URL)
	}
	b.WriteString("Summarize these results for the user in one or two spoken sentences.")
	return b.String()
}
