package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nova328/teams-meeting-audio/internal/agent"
	"github.com/nova328/teams-meeting-audio/internal/audio"
	"github.com/nova328/teams-meeting-audio/internal/config"
	"github.com/nova328/teams-meeting-audio/internal/control"
	"github.com/nova328/teams-meeting-audio/internal/httpserver"
	"github.com/nova328/teams-meeting-audio/internal/llm"
	"github.com/nova328/teams-meeting-audio/internal/search"
	"github.com/nova328/teams-meeting-audio/internal/storage"
	"github.com/nova328/teams-meeting-audio/internal/transcript"
	"github.com/nova328/teams-meeting-audio/internal/tts"
)

func main() {
	// Include sub-second precision in all log timestamps
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Signal lines go to stdout where the supervisor tails them; injected
	// search results come back on stdin.
	emitter := control.NewEmitter(os.Stdout)
	pending := control.NewPendingSearches(30 * time.Second)
	go pending.ReadResults(os.Stdin)

	var searcher agent.Searcher
	if cfg.BraveKey != "" {
		searcher = search.NewBraveClient(cfg.BraveKey)
	}

	playback := audio.NewPlayback(cfg.OutputDevice, cfg.SampleRate)
	if err := playback.Start(ctx); err != nil {
		log.Fatalf("audio: %v", err)
	}
	defer playback.Close()

	var synth tts.StreamClient
	switch cfg.TTSProvider {
	case "deepgram":
		synth = tts.NewDeepgramClient(cfg.DeepgramKey, "", cfg.SampleRate)
	default:
		synth = tts.NewElevenLabsClient(cfg.ElevenLabsKey, cfg.ElevenLabsVoiceID, cfg.SampleRate)
	}
	speaker := &tts.Speaker{Client: synth, Sink: playback}

	sess := agent.NewSession(agent.Config{
		Persona:   cfg.Persona,
		Generator: llm.NewOpenAIClient(cfg.OpenAIKey, cfg.ChatModel),
		Speaker:   speaker,
		Searcher:  searcher,
		Signals:   emitter,
		Pending:   pending,
		ForceExit: func() { os.Exit(0) },
	})
	defer sess.Close()
	speaker.Muted = sess.IsMuted

	srv := httpserver.New(sess.Snapshot)
	go func() {
		if err := srv.Start(cfg.HTTPAddress); err != nil && err != http.ErrServerClosed {
			log.Printf("http server: %v", err)
		}
	}()

	stream := transcript.NewRealtimeService(cfg.OpenAIKey, cfg.TranscriptionModel, cfg.SampleRate)
	if err := stream.Connect(); err != nil {
		log.Fatalf("transcript: %v", err)
	}
	defer stream.Close()

	capture := audio.NewCapture(cfg.InputDevice, cfg.SampleRate)
	if err := capture.Start(ctx); err != nil {
		log.Fatalf("audio: %v", err)
	}
	defer capture.Close()

	go func() {
		for chunk := range capture.Chunks() {
			_ = stream.SendPCM(chunk)
		}
	}()

	// A single consumer keeps utterance processing strictly one-at-a-time.
	utterancesDone := make(chan struct{})
	go func() {
		defer close(utterancesDone)
		for text := range stream.Utterances() {
			sess.OnUtterance(ctx, text)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// The stream closing ends the session; the supervisor restarts the
	// process rather than this process reconnecting.
	select {
	case sig := <-sigChan:
		log.Printf("shutdown signal received: %v", sig)
	case err := <-stream.Errors():
		log.Printf("transcription stream failed: %v", err)
	case <-utterancesDone:
		log.Println("transcription stream closed")
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)

	uploadTranscript(cfg, sess)
}

// uploadTranscript hands the conversation off for deferred-task follow-up.
// Best effort: missing configuration or upload failure only logs.
func uploadTranscript(cfg config.Config, sess *agent.Session) {
	if cfg.SupabaseURL == "" {
		return
	}
	store, err := storage.New(storage.Config{
		URL:            cfg.SupabaseURL,
		ServiceRoleKey: cfg.SupabaseKey,
		Bucket:         cfg.SupabaseBucket,
	})
	if err != nil {
		log.Printf("transcript upload skipped: %v", err)
		return
	}
	key, err := store.SaveTranscript(sess.Transcript())
	if err != nil {
		log.Printf("transcript upload failed: %v", err)
		return
	}
	if key != "" {
		log.Printf("transcript uploaded as %s", key)
	}
}
