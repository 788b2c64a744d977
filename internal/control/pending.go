package control

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"github.com/nova328/teams-meeting-audio/internal/search"
)

// ErrSearchTimeout is delivered to the waiter when a pending search is not
// resolved within the registry's expiry window.
var ErrSearchTimeout = errors.New("control: pending search timed out")

// SearchOutcome is the resolution of one pending search request.
type SearchOutcome struct {
	Results []search.Result
	Err     error
}

// PendingSearches tracks in-flight search requests by identifier. A request
// may be resolved by the in-process search client or by the supervisor via
// the line-oriented JSON input channel; the first resolution wins, and an
// unresolved request expires after the configured wait.
type PendingSearches struct {
	expiry  time.Duration
	mu      sync.Mutex
	waiters map[string]chan SearchOutcome
}

func NewPendingSearches(expiry time.Duration) *PendingSearches {
	if expiry <= 0 {
		expiry = 30 * time.Second
	}
	return &PendingSearches{expiry: expiry, waiters: make(map[string]chan SearchOutcome)}
}

// Register creates a pending request and returns the channel its single
// outcome will arrive on. The timeout outcome is delivered on expiry if
// nothing resolved the request first.
func (p *PendingSearches) Register(id string) <-chan SearchOutcome {
	ch := make(chan SearchOutcome, 1)
	p.mu.Lock()
	p.waiters[id] = ch
	p.mu.Unlock()
	time.AfterFunc(p.expiry, func() {
		if p.Resolve(id, SearchOutcome{Err: ErrSearchTimeout}) {
			log.Printf("control: search request %s expired", id)
		}
	})
	return ch
}

// Resolve delivers the outcome for a pending request. It reports false when
// the identifier is unknown or already resolved.
func (p *PendingSearches) Resolve(id string, out SearchOutcome) bool {
	p.mu.Lock()
	ch, ok := p.waiters[id]
	if ok {
		delete(p.waiters, id)
	}
	p.mu.Unlock()
	if !ok {
		return false
	}
	ch <- out
	return true
}

// Pending reports the number of unresolved requests.
func (p *PendingSearches) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.waiters)
}

// injectedResult is one line of the supervisor's result-injection protocol.
type injectedResult struct {
	RequestID string `json:"request_id"`
	Error     string `json:"error,omitempty"`
	Results   []struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
		URL     string `json:"url"`
	} `json:"results"`
}

// ReadResults consumes line-oriented JSON from r until EOF, resolving pending
// requests by identifier. Unknown identifiers and malformed lines are logged
// and skipped, never fatal.
func (p *PendingSearches) ReadResults(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var msg injectedResult
		if err := json.Unmarshal(line, &msg); err != nil {
			log.Printf("control: malformed result line: %v", err)
			continue
		}
		if msg.RequestID == "" {
			log.Println("control: result line missing request_id")
			continue
		}
		out := SearchOutcome{}
		if msg.Error != "" {
			out.Err = errors.New(msg.Error)
		} else {
			for _, r := range msg.Results {
				out.Results = append(out.Results, search.Result{Title: r.Title, Snippet: r.Snippet, URL: r.URL})
			}
		}
		if !p.Resolve(msg.RequestID, out) {
			log.Printf("control: no pending search for request %s", msg.RequestID)
		}
	}
	if err := scanner.Err(); err != nil {
		log.Printf("control: result reader stopped: %v", err)
	}
}
