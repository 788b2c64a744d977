package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Conversation roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ToolCall is a structured request from the model naming one of the
// enumerated actions with raw JSON arguments. Decoding the arguments is the
// caller's job.
type ToolCall struct {
	Name      string
	Arguments json.RawMessage
}

// Reply carries the model output: spoken content, tool calls, or both.
type Reply struct {
	Content   string
	ToolCalls []ToolCall
}

type OpenAIClient struct {
	HTTPClient  *http.Client
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
}

type chatCompletionsRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Tools       []toolDef `json:"tools,omitempty"`
	ToolChoice  string    `json:"tool_choice,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

type toolDef struct {
	Type     string  `json:"type"`
	Function funcDef `json:"function"`
}

type funcDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

type chatToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type chatChoice struct {
	Index        int    `json:"index"`
	FinishReason string `json:"finish_reason"`
	Message      struct {
		Role      string         `json:"role"`
		Content   string         `json:"content"`
		ToolCalls []chatToolCall `json:"tool_calls"`
	} `json:"message"`
}

type chatCompletionsResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
}

// emptyParams is the schema for tools that take no arguments.
var emptyParams = json.RawMessage(`{"type":"object","properties":{}}`)

// toolset is the fixed, enumerated toolset sent on every request. The service
// decides whether to call zero, one, or multiple of them.
var toolset = []toolDef{
	{Type: "function", Function: funcDef{
		Name:        "leave_meeting",
		Description: "Leave the current meeting. Use when the user asks you to leave, go away, or hang up.",
		Parameters:  emptyParams,
	}},
	{Type: "function", Function: funcDef{
		Name:        "mute_self",
		Description: "Mute your own microphone so you stop speaking into the meeting. Transcription keeps running.",
		Parameters:  emptyParams,
	}},
	{Type: "function", Function: funcDef{
		Name:        "unmute_self",
		Description: "Unmute your own microphone so you can speak into the meeting again.",
		Parameters:  emptyParams,
	}},
	{Type: "function", Function: funcDef{
		Name:        "pause_listening",
		Description: "Stop reacting to what is said in the meeting until asked to resume.",
		Parameters:  emptyParams,
	}},
	{Type: "function", Function: funcDef{
		Name:        "resume_listening",
		Description: "Start reacting to the meeting again after a pause.",
		Parameters:  emptyParams,
	}},
	{Type: "function", Function: funcDef{
		Name:        "web_search",
		Description: "Search the web for current information and summarize it aloud.",
		Parameters:  json.RawMessage(`{"type":"object","properties":{"query":{"type":"string","description":"The search query"}},"required":["query"]}`),
	}},
}

func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	return &OpenAIClient{
		HTTPClient:  &http.Client{Timeout: 20 * time.Second},
		APIKey:      apiKey,
		Model:       model,
		MaxTokens:   200,
		Temperature: 0.7,
	}
}

// Generate runs one chat-completions request over the given messages with the
// fixed toolset and automatic tool choice. Network and malformed-response
// failures are recoverable: the session logs them and moves on.
func (c *OpenAIClient) Generate(ctx context.Context, messages []Message) (Reply, error) {
	if c.APIKey == "" {
		return Reply{}, fmt.Errorf("openai api key missing")
	}
	endpoint := "https://api.openai.com/v1/chat/completions"

	reqBody, _ := json.Marshal(chatCompletionsRequest{
		Model:       c.Model,
		Messages:    messages,
		Tools:       toolset,
		ToolChoice:  "auto",
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return Reply{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return Reply{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return Reply{}, fmt.Errorf("openai error: status=%d body=%s", resp.StatusCode, string(b))
	}
	var cr chatCompletionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return Reply{}, err
	}
	if len(cr.Choices) == 0 {
		return Reply{}, fmt.Errorf("openai: empty choices")
	}

	msg := cr.Choices[0].Message
	out := Reply{Content: strings.TrimSpace(msg.Content)}
	for _, tc := range msg.ToolCalls {
		if tc.Type != "" && tc.Type != "function" {
			continue
		}
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		})
	}
	return out, nil
}
