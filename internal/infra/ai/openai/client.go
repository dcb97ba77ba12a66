package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/threatdesk/internal/domain/ai"
	"github.com/bryanwahyu/threatdesk/internal/infra/ai/prompt"
)

const (
	maxTokens    = 1024
	defaultModel = "gemini-2.0-flash"
)

// Options configure the client. BaseURL may point at any OpenAI-compatible
// endpoint, including Gemini's.
type Options struct {
	BaseURL    string
	APIKey     string
	Model      string
	Persona    string
	Language   string
	HTTPClient *http.Client
}

type Client struct {
	*openai.Client
	Model    string
	Persona  string
	Language string
}

func NewClient(opts Options) *Client {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")
	}
	if opts.HTTPClient != nil {
		cfg.HTTPClient = opts.HTTPClient
	}
	model := opts.Model
	if model == "" {
		model = defaultModel
	}
	return &Client{
		Client:   openai.NewClientWithConfig(cfg),
		Model:    model,
		Persona:  opts.Persona,
		Language: opts.Language,
	}
}

// Analyze sends one chat completion constrained to the SecurityStatus schema.
func (c *Client) Analyze(ctx context.Context, input string, category ai.Category) (ai.SecurityStatus, error) {
	req := openai.ChatCompletionRequest{
		Model: c.Model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   prompt.SchemaName,
				Schema: prompt.ResponseSchema(),
				Strict: true,
			},
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.GetSystemPrompt(c.Language)},
			{Role: openai.ChatMessageRoleUser, Content: prompt.GetUserPrompt(input, category, c.Persona)},
		},
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if isReasoningModel(c.Model) {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		if isQuota(err) {
			return ai.SecurityStatus{}, fmt.Errorf("%w: %v", ai.ErrQuotaExceeded, err)
		}
		return ai.SecurityStatus{}, fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return ai.SecurityStatus{}, ai.ErrEmptyResponse
	}
	return Decode(resp.Choices[0].Message.Content)
}

// wire mirrors SecurityStatus with pointers so missing required fields are detectable.
type wire struct {
	IsSafe      *bool           `json:"isSafe"`
	ThreatLevel *ai.ThreatLevel `json:"threatLevel"`
	Message     *string         `json:"message"`
	Details     []string        `json:"details"`
}

// Decode parses a model answer into a SecurityStatus. Stray code fences are tolerated.
func Decode(content string) (ai.SecurityStatus, error) {
	content = stripFences(content)
	if content == "" {
		return ai.SecurityStatus{}, ai.ErrEmptyResponse
	}
	var w wire
	if err := json.Unmarshal([]byte(content), &w); err != nil {
		return ai.SecurityStatus{}, fmt.Errorf("decode analysis: %w", err)
	}
	if w.IsSafe == nil || w.ThreatLevel == nil || w.Message == nil {
		return ai.SecurityStatus{}, errors.New("decode analysis: missing required field")
	}
	details := w.Details
	if details == nil {
		details = []string{}
	}
	return ai.SecurityStatus{
		IsSafe:      *w.IsSafe,
		ThreatLevel: *w.ThreatLevel,
		Message:     *w.Message,
		Details:     details,
	}, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func isReasoningModel(model string) bool {
	for _, p := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}

func isQuota(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	return false
}
