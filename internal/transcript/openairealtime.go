package transcript

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Voice-activity detection parameters sent to the transcription session.
// PREFIX_PADDING is audio retained before detected speech onset; SILENCE_DURATION
// is how long the user must stay quiet before an utterance is complete.
const (
	VAD_THRESHOLD    = 0.5
	PREFIX_PADDING   = 300 * time.Millisecond
	SILENCE_DURATION = 700 * time.Millisecond
)

const realtimeURL = "wss://api.openai.com/v1/realtime?intent=transcription"

// State of the streaming connection. Closed is terminal: there is no
// reconnection, the process is expected to exit and be restarted by the
// supervisor.
type State int

const (
	StateConnecting State = iota
	StateConfiguring
	StateStreaming
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConfiguring:
		return "configuring"
	case StateStreaming:
		return "streaming"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// RealtimeService maintains the single live transcription stream against the
// OpenAI realtime endpoint and emits one string per completed utterance.
type RealtimeService struct {
	apiKey     string
	model      string
	sampleRate int

	conn       *websocket.Conn
	utterances chan string
	errs       chan error
	audioData  chan []byte
	stopCh     chan struct{}

	mu    sync.RWMutex
	state State
}

// Realtime event envelopes. Only the fields the session cares about are decoded.
type sessionEvent struct {
	Type string `json:"type"`
	ID   string `json:"event_id"`
}

type transcriptionCompletedEvent struct {
	Type       string `json:"type"`
	ItemID     string `json:"item_id"`
	Transcript string `json:"transcript"`
}

type errorEvent struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type sessionUpdate struct {
	Type    string        `json:"type"`
	Session sessionConfig `json:"session"`
}

type sessionConfig struct {
	InputAudioFormat        string              `json:"input_audio_format"`
	InputAudioTranscription transcriptionConfig `json:"input_audio_transcription"`
	TurnDetection           turnDetection       `json:"turn_detection"`
}

type transcriptionConfig struct {
	Model string `json:"model"`
}

type turnDetection struct {
	Type              string  `json:"type"`
	Threshold         float64 `json:"threshold"`
	PrefixPaddingMs   int     `json:"prefix_padding_ms"`
	SilenceDurationMs int     `json:"silence_duration_ms"`
}

type audioAppend struct {
	Type  string `json:"type"`
	Audio string `json:"audio"`
}

// NewRealtimeService creates a transcription service for the given model and
// input sample rate.
func NewRealtimeService(apiKey, model string, sampleRate int) *RealtimeService {
	return &RealtimeService{
		apiKey:     apiKey,
		model:      model,
		sampleRate: sampleRate,
		utterances: make(chan string, 10),
		errs:       make(chan error, 1),
		audioData:  make(chan []byte, 1000),
		stopCh:     make(chan struct{}),
		state:      StateConnecting,
	}
}

// Utterances returns the channel signaling end-of-utterance with the transcript text.
func (s *RealtimeService) Utterances() <-chan string { return s.utterances }

// Errors returns the channel carrying the terminal stream error, if any.
func (s *RealtimeService) Errors() <-chan error { return s.errs }

// State reports the current connection state.
func (s *RealtimeService) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Connect dials the realtime endpoint and sends the transcription-session
// configuration. Audio is forwarded only once the configuration is acknowledged.
func (s *RealtimeService) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateConnecting {
		return fmt.Errorf("transcript: connect called in state %s", s.state)
	}
	if s.apiKey == "" {
		return fmt.Errorf("transcript: OpenAI API key is empty")
	}

	headers := map[string][]string{
		"Authorization": {"Bearer " + s.apiKey},
		"OpenAI-Beta":   {"realtime=v1"},
	}
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}

	log.Printf("transcript: connecting to %s", realtimeURL)
	conn, resp, err := dialer.Dial(realtimeURL, headers)
	if err != nil {
		if resp != nil {
			log.Printf("transcript: connection failed with status %d", resp.StatusCode)
		}
		return fmt.Errorf("transcript: failed to connect: %w", err)
	}

	s.conn = conn
	s.state = StateConfiguring

	cfg := sessionUpdate{
		Type: "transcription_session.update",
		Session: sessionConfig{
			InputAudioFormat:        "pcm16",
			InputAudioTranscription: transcriptionConfig{Model: s.model},
			TurnDetection: turnDetection{
				Type:              "server_vad",
				Threshold:         VAD_THRESHOLD,
				PrefixPaddingMs:   int(PREFIX_PADDING / time.Millisecond),
				SilenceDurationMs: int(SILENCE_DURATION / time.Millisecond),
			},
		},
	}
	if err := conn.WriteJSON(cfg); err != nil {
		_ = conn.Close()
		s.conn = nil
		s.state = StateClosed
		return fmt.Errorf("transcript: failed to send session config: %w", err)
	}

	go s.handleMessages()
	go s.sendAudioData()

	log.Println("transcript: connected, awaiting configuration ack")
	return nil
}

// SendPCM queues a chunk of s16le mono audio for the stream. Chunks arriving
// before the configuration is acknowledged are dropped.
func (s *RealtimeService) SendPCM(pcm []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateStreaming {
		return nil
	}
	select {
	case s.audioData <- pcm:
		return nil
	default:
		log.Println("transcript: audio buffer full, dropping chunk")
		return nil
	}
}

// Close tears the stream down. The service cannot be reused afterwards.
// The utterance channel is closed by the reader goroutine that sends on it,
// not here; a message already read off the socket may still be dispatched
// while Close runs.
func (s *RealtimeService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return nil
	}
	close(s.stopCh)
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
	s.state = StateClosed
	close(s.audioData)
	log.Println("transcript: stream closed")
	return nil
}

// fail records a terminal stream error and closes the service.
func (s *RealtimeService) fail(err error) {
	select {
	case s.errs <- err:
	default:
	}
	_ = s.Close()
}

func (s *RealtimeService) handleMessages() {
	defer close(s.utterances)
	for {
		select {
		case <-s.stopCh:
			return
		default:
			s.mu.RLock()
			conn := s.conn
			s.mu.RUnlock()
			if conn == nil {
				return
			}
			_, message, err := conn.ReadMessage()
			if err != nil {
				select {
				case <-s.stopCh:
				default:
					s.fail(fmt.Errorf("transcript: read: %w", err))
				}
				return
			}
			s.processMessage(message)
		}
	}
}

// processMessage dispatches one realtime event.
func (s *RealtimeService) processMessage(message []byte) {
	var base sessionEvent
	if err := json.Unmarshal(message, &base); err != nil {
		log.Printf("transcript: error unmarshaling event: %v", err)
		return
	}
	switch base.Type {
	case "transcription_session.created":
		log.Println("transcript: session created")
	case "transcription_session.updated":
		s.mu.Lock()
		if s.state == StateConfiguring {
			s.state = StateStreaming
			log.Println("transcript: configuration acknowledged, streaming audio")
		}
		s.mu.Unlock()
	case "input_audio_buffer.speech_started":
		log.Println("transcript: speech started")
	case "input_audio_buffer.speech_stopped":
		log.Println("transcript: speech stopped")
	case "conversation.item.input_audio_transcription.completed":
		var msg transcriptionCompletedEvent
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("transcript: error unmarshaling transcription event: %v", err)
			return
		}
		if msg.Transcript == "" {
			return
		}
		s.mu.RLock()
		closed := s.state == StateClosed
		s.mu.RUnlock()
		if closed {
			log.Printf("transcript: dropping utterance after close: %q", msg.Transcript)
			return
		}
		select {
		case <-s.stopCh:
		case s.utterances <- msg.Transcript:
		}
	case "error":
		var msg errorEvent
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("transcript: error unmarshaling error event: %v", err)
			return
		}
		s.fail(fmt.Errorf("transcript: server error %s: %s", msg.Error.Code, msg.Error.Message))
	default:
		// conversation.item.created, delta events and friends are not needed
	}
}

func (s *RealtimeService) sendAudioData() {
	for {
		select {
		case <-s.stopCh:
			return
		case pcm, ok := <-s.audioData:
			if !ok {
				return
			}
			s.mu.RLock()
			conn := s.conn
			s.mu.RUnlock()
			if conn == nil {
				return
			}
			msg := audioAppend{Type: "input_audio_buffer.append", Audio: base64.StdEncoding.EncodeToString(pcm)}
			if err := conn.WriteJSON(msg); err != nil {
				select {
				case <-s.stopCh:
				default:
					s.fail(fmt.Errorf("transcript: send audio: %w", err))
				}
				return
			}
		}
	}
}
