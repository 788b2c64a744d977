package agent

import (
	"context"

	"github.com/nova328/teams-meeting-audio/internal/control"
	"github.com/nova328/teams-meeting-audio/internal/llm"
	"github.com/nova328/teams-meeting-audio/internal/search"
)

// Generator produces one reply for the conversation so far. The reply may
// carry spoken content, tool calls, or both.
type Generator interface {
	Generate(ctx context.Context, messages []llm.Message) (llm.Reply, error)
}

// Synthesizer speaks one utterance into the meeting.
type Synthesizer interface {
	Speak(ctx context.Context, text string) error
}

// Searcher runs one web search. A nil Searcher means no search credential is
// configured and web_search degrades to a spoken apology.
type Searcher interface {
	Search(ctx context.Context, query string, count int) ([]search.Result, error)
}

// Notifier publishes supervisor signals.
type Notifier interface {
	Emit(control.Signal)
}

type nopSynth struct{}

func (nopSynth) Speak(context.Context, string) error { return nil }

type nopNotifier struct{}

func (nopNotifier) Emit(control.Signal) {}
