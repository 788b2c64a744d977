package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func rewire(srv *httptest.Server) *http.Client {
	return &http.Client{Timeout: time.Second, Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		req.URL.Scheme = "http"
		req.URL.Host = srv.Listener.Addr().String()
		return http.DefaultTransport.RoundTrip(req)
	})}
}

func TestOpenAI_NoKey(t *testing.T) {
	c := NewOpenAIClient("", "model")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := c.Generate(ctx, []Message{{Role: RoleUser, Content: "hi"}}); err == nil {
		t.Fatalf("expected error with missing key")
	}
}

func TestOpenAI_HTTPFailures(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"status_non_2xx", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(500); _, _ = w.Write([]byte("oops")) }},
		{"bad_json", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("not-json")) }},
		{"empty_choices", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(200)
			_, _ = w.Write([]byte(`{"choices":[]}`))
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()
			c := NewOpenAIClient("key", "model")
			c.HTTPClient = rewire(srv)
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if _, err := c.Generate(ctx, []Message{{Role: RoleUser, Content: "hi"}}); err == nil {
				t.Fatalf("expected error; got nil")
			}
		})
	}
}

func TestOpenAI_SendsToolsetAndDecodesReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatCompletionsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Tools) != 6 {
			t.Errorf("expected the 6-tool fixed toolset, got %d", len(req.Tools))
		}
		if req.ToolChoice != "auto" {
			t.Errorf("expected automatic tool choice, got %q", req.ToolChoice)
		}
		if req.Messages[0].Role != RoleSystem {
			t.Errorf("expected persona first, got %q", req.Messages[0].Role)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{
			"role":"assistant",
			"content":" Let me check. ",
			"tool_calls":[{"id":"1","type":"function","function":{"name":"web_search","arguments":"{\"query\":\"weather\"}"}}]
		}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient("key", "model")
	c.HTTPClient = rewire(srv)
	reply, err := c.Generate(context.Background(), []Message{
		{Role: RoleSystem, Content: "persona"},
		{Role: RoleUser, Content: "what's the weather"},
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if reply.Content != "Let me check." {
		t.Fatalf("content mismatch: %q", reply.Content)
	}
	if len(reply.ToolCalls) != 1 || reply.ToolCalls[0].Name != "web_search" {
		t.Fatalf("tool call mismatch: %+v", reply.ToolCalls)
	}
	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(reply.ToolCalls[0].Arguments, &args); err != nil || args.Query != "weather" {
		t.Fatalf("arguments mismatch: %s (%v)", reply.ToolCalls[0].Arguments, err)
	}
}

func TestOpenAI_ContentOnlyReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Hello there."}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient("key", "model")
	c.HTTPClient = rewire(srv)
	reply, err := c.Generate(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if reply.Content != "Hello there." || len(reply.ToolCalls) != 0 {
		t.Fatalf("unexpected reply: %+v", reply)
	}
}
