package config

import (
	"os"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDRESS", "TRANSCRIPTION_MODEL", "CHAT_MODEL", "SAMPLE_RATE", "INPUT_DEVICE", "OUTPUT_DEVICE", "TTS_PROVIDER", "PERSONA"} {
		os.Unsetenv(k)
	}
	cfg := Load()
	if cfg.HTTPAddress != ":8080" {
		t.Fatalf("expected default http address, got %q", cfg.HTTPAddress)
	}
	if cfg.TranscriptionModel == "" || cfg.ChatModel == "" {
		t.Fatalf("expected default model ids")
	}
	if cfg.SampleRate != 24000 {
		t.Fatalf("expected default sample rate 24000, got %d", cfg.SampleRate)
	}
	if cfg.InputDevice == "" || cfg.OutputDevice == "" {
		t.Fatalf("expected default device names")
	}
	if cfg.TTSProvider != "elevenlabs" {
		t.Fatalf("expected elevenlabs as default provider, got %q", cfg.TTSProvider)
	}
	if cfg.Persona == "" {
		t.Fatalf("expected default persona")
	}
}

func TestLoad_InvalidSampleRateFallsBack(t *testing.T) {
	os.Setenv("SAMPLE_RATE", "not-a-number")
	defer os.Unsetenv("SAMPLE_RATE")
	cfg := Load()
	if cfg.SampleRate != 24000 {
		t.Fatalf("expected fallback sample rate, got %d", cfg.SampleRate)
	}
}

func TestValidate(t *testing.T) {
	base := Config{OpenAIKey: "ok", TTSProvider: "elevenlabs", ElevenLabsKey: "ek"}
	if err := base.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	c := base
	c.OpenAIKey = ""
	if err := c.Validate(); err == nil {
		t.Fatalf("missing OpenAI key must be fatal")
	}

	c = base
	c.ElevenLabsKey = ""
	if err := c.Validate(); err == nil {
		t.Fatalf("missing ElevenLabs key must be fatal for elevenlabs provider")
	}

	c = Config{OpenAIKey: "ok", TTSProvider: "deepgram", DeepgramKey: "dk"}
	if err := c.Validate(); err != nil {
		t.Fatalf("deepgram provider with key must validate, got %v", err)
	}
	c.DeepgramKey = ""
	if err := c.Validate(); err == nil {
		t.Fatalf("missing Deepgram key must be fatal for deepgram provider")
	}

	c = Config{OpenAIKey: "ok", TTSProvider: "festival"}
	if err := c.Validate(); err == nil {
		t.Fatalf("unknown provider must be fatal")
	}

	// a missing search credential only degrades web_search
	if err := base.Validate(); err != nil {
		t.Fatalf("missing BRAVE_API_KEY must not fail validation: %v", err)
	}
}
