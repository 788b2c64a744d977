package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// DefaultPersona is used when PERSONA is not set. It is sent as the system
// message on every generation cycle.
const DefaultPersona = "You are a helpful voice assistant attending an online meeting. " +
	"Keep answers short and conversational; they will be spoken aloud. " +
	"Use the available tools when the user asks you to mute, unmute, pause, resume, " +
	"leave the meeting, or look something up on the web. " +
	"For requests you cannot act on directly (emails, calendar invites, reminders), " +
	"acknowledge them verbally; they are logged in the meeting transcript for follow-up."

// Config holds application configuration.
type Config struct {
	HTTPAddress string

	OpenAIKey          string
	TranscriptionModel string
	ChatModel          string

	BraveKey string

	TTSProvider       string // "elevenlabs" or "deepgram"
	ElevenLabsKey     string
	ElevenLabsVoiceID string
	DeepgramKey       string

	SampleRate   int
	InputDevice  string
	OutputDevice string

	Persona string

	SupabaseURL    string
	SupabaseKey    string
	SupabaseBucket string
}

// Load reads environment variables and returns Config with sane defaults.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file loaded")
	}

	addr := os.Getenv("HTTP_ADDRESS")
	if addr == "" {
		addr = ":8080"
	}

	openAIKey := os.Getenv("OPENAI_API_KEY")

	transcriptionModel := os.Getenv("TRANSCRIPTION_MODEL")
	if transcriptionModel == "" {
		transcriptionModel = "gpt-4o-mini-transcribe"
	}
	chatModel := os.Getenv("CHAT_MODEL")
	if chatModel == "" {
		chatModel = "gpt-4o-mini"
	}

	braveKey := os.Getenv("BRAVE_API_KEY")
	if braveKey == "" {
		log.Println("Warning: BRAVE_API_KEY not set - web search will be unavailable")
	}

	provider := os.Getenv("TTS_PROVIDER")
	if provider == "" {
		provider = "elevenlabs"
	}
	elevenKey := os.Getenv("ELEVENLABS_API_KEY")
	voiceID := os.Getenv("ELEVENLABS_VOICE_ID")
	if provider == "elevenlabs" && voiceID == "" {
		log.Println("Warning: ELEVENLABS_VOICE_ID not set - set a concrete voice ID from your ElevenLabs dashboard")
	}
	deepgramKey := os.Getenv("DEEPGRAM_API_KEY")

	rate := 24000
	if v := os.Getenv("SAMPLE_RATE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			log.Printf("Warning: invalid SAMPLE_RATE %q, using %d", v, rate)
		} else {
			rate = n
		}
	}

	inputDev := os.Getenv("INPUT_DEVICE")
	if inputDev == "" {
		inputDev = "meeting_capture.monitor"
	}
	outputDev := os.Getenv("OUTPUT_DEVICE")
	if outputDev == "" {
		outputDev = "meeting_playback"
	}

	persona := os.Getenv("PERSONA")
	if persona == "" {
		persona = DefaultPersona
	}

	log.Printf("config: HTTP_ADDRESS=%s sample_rate=%d input=%s output=%s tts=%s", addr, rate, inputDev, outputDev, provider)
	return Config{
		HTTPAddress:        addr,
		OpenAIKey:          openAIKey,
		TranscriptionModel: transcriptionModel,
		ChatModel:          chatModel,
		BraveKey:           braveKey,
		TTSProvider:        provider,
		ElevenLabsKey:      elevenKey,
		ElevenLabsVoiceID:  voiceID,
		DeepgramKey:        deepgramKey,
		SampleRate:         rate,
		InputDevice:        inputDev,
		OutputDevice:       outputDev,
		Persona:            persona,
		SupabaseURL:        os.Getenv("SUPABASE_URL"),
		SupabaseKey:        os.Getenv("SUPABASE_SERVICE_ROLE_KEY"),
		SupabaseBucket:     os.Getenv("SUPABASE_BUCKET"),
	}
}

// Validate checks the credentials the core speech loop cannot run without.
// A missing search credential is deliberately not an error; web_search
// degrades to a spoken "not configured" reply instead.
func (c Config) Validate() error {
	if c.OpenAIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required for transcription and response generation")
	}
	switch c.TTSProvider {
	case "elevenlabs":
		if c.ElevenLabsKey == "" {
			return fmt.Errorf("ELEVENLABS_API_KEY is required when TTS_PROVIDER=elevenlabs")
		}
	case "deepgram":
		if c.DeepgramKey == "" {
			return fmt.Errorf("DEEPGRAM_API_KEY is required when TTS_PROVIDER=deepgram")
		}
	default:
		return fmt.Errorf("unknown TTS_PROVIDER %q", c.TTSProvider)
	}
	return nil
}
