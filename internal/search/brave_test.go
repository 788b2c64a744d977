package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func clientFor(t *testing.T, srv *httptest.Server) *http.Client {
	t.Helper()
	return &http.Client{Timeout: time.Second, Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		req.URL.Scheme = "http"
		req.URL.Host = srv.Listener.Addr().String()
		return http.DefaultTransport.RoundTrip(req)
	})}
}

func TestBrave_NoKey(t *testing.T) {
	c := NewBraveClient("")
	if _, err := c.Search(context.Background(), "hi", 3); err == nil {
		t.Fatalf("expected error with missing key")
	}
}

func TestBrave_NormalizesAndClampsCount(t *testing.T) {
	var gotCount string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCount = r.URL.Query().Get("count")
		if r.Header.Get("X-Subscription-Token") != "key" {
			t.Errorf("missing subscription token header")
		}
		body := map[string]any{"web": map[string]any{"results": func() []map[string]string {
			out := make([]map[string]string, 7)
			for i := range out {
				out[i] = map[string]string{
					"title":       fmt.Sprintf("title %d", i),
					"description": fmt.Sprintf("desc %d", i),
					"url":         fmt.Sprintf("https://example.com/%d", i),
				}
			}
			return out
		}()}}
		_ = json.NewEncoder(w).Encode(body)
	}))
	defer srv.Close()

	c := NewBraveClient("key")
	c.HTTPClient = clientFor(t, srv)

	results, err := c.Search(context.Background(), "anything", 9)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if gotCount != "5" {
		t.Fatalf("expected count clamped to 5, sent %s", gotCount)
	}
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	if results[0].Title != "title 0" || results[0].Snippet != "desc 0" || results[0].URL != "https://example.com/0" {
		t.Fatalf("normalization mismatch: %+v", results[0])
	}
}

func TestBrave_ClampsCountToFloor(t *testing.T) {
	var gotCount string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCount = r.URL.Query().Get("count")
		_, _ = w.Write([]byte(`{"web":{"results":[]}}`))
	}))
	defer srv.Close()

	c := NewBraveClient("key")
	c.HTTPClient = clientFor(t, srv)
	results, err := c.Search(context.Background(), "anything", 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if gotCount != "1" {
		t.Fatalf("expected count clamped to 1, sent %s", gotCount)
	}
	if len(results) != 0 {
		t.Fatalf("expected empty result list, got %d", len(results))
	}
}

func TestBrave_StatusErrorIsTyped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("slow down"))
	}))
	defer srv.Close()

	c := NewBraveClient("key")
	c.HTTPClient = clientFor(t, srv)
	_, err := c.Search(context.Background(), "anything", 3)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Status != http.StatusTooManyRequests {
		t.Fatalf("status mismatch: %d", apiErr.Status)
	}
}
