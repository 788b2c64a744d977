// Package storage persists meeting transcripts for deferred-task follow-up:
// requests the bot only acknowledged verbally are picked out of the uploaded
// transcript by an out-of-band process.
package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/supabase-community/supabase-go"
)

type Config struct {
	URL            string
	ServiceRoleKey string
	Bucket         string
}

// TranscriptStore uploads transcript text to a Supabase storage bucket.
type TranscriptStore struct {
	client *supabase.Client
	bucket string
}

func New(cfg Config) (*TranscriptStore, error) {
	if cfg.URL == "" || cfg.ServiceRoleKey == "" {
		return nil, fmt.Errorf("storage: SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY required")
	}
	bucket := cfg.Bucket
	if bucket == "" {
		bucket = "transcripts"
	}
	client, err := supabase.NewClient(cfg.URL, cfg.ServiceRoleKey, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("storage: create client: %w", err)
	}
	return &TranscriptStore{client: client, bucket: bucket}, nil
}

// SaveTranscript uploads one transcript under a timestamped key and returns
// the key. An empty transcript is skipped.
func (s *TranscriptStore) SaveTranscript(transcript string) (string, error) {
	if strings.TrimSpace(transcript) == "" {
		return "", nil
	}
	key := fmt.Sprintf("meeting-%s.txt", time.Now().UTC().Format("20060102-150405"))
	_, err := s.client.Storage.UploadFile(s.bucket, key, strings.NewReader(transcript))
	if err != nil {
		return "", fmt.Errorf("storage: upload %s: %w", key, err)
	}
	return key, nil
}
