// OpenAI-compatible chat completions implementation of [Completer]
package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/wlx/internal/shared"
)

const (
	completionBaseURL = "https://api.openai.com/v1"
	defaultModel      = "gpt-3.5-turbo"
)

// ChatMessage is one turn of a chat completion request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// CompletionService implements [Completer] for /chat/completions endpoints.
type CompletionService struct {
	client      *APIClient
	model       string
	temperature float64
}

// CompletionOpts configures a [CompletionService].
type CompletionOpts struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	Client      APIClientOpts
}

// NewCompletionService creates a chat completions client authenticated with a bearer key.
func NewCompletionService(opts CompletionOpts) (*CompletionService, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("%w: completion api_key", shared.ErrMissingCredentials)
	}
	if opts.BaseURL == "" {
		opts.BaseURL = completionBaseURL
	}
	if opts.Model == "" {
		opts.Model = defaultModel
	}

	clientOpts := opts.Client
	clientOpts.BaseURL = opts.BaseURL
	if clientOpts.Headers == nil {
		clientOpts.Headers = http.Header{}
	}
	clientOpts.Headers.Set("Authorization", "Bearer "+opts.APIKey)

	return &CompletionService{
		client:      NewAPIClient(clientOpts),
		model:       opts.Model,
		temperature: opts.Temperature,
	}, nil
}

// Complete sends one system and one user message and returns the first choice's content.
func (s *CompletionService) Complete(ctx context.Context, system, user string) (string, error) {
	req := chatRequest{
		Model: s.model,
		Messages: []ChatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: s.temperature,
	}

	resp, err := s.client.Post(ctx, "/chat/completions", req)
	if err != nil {
		return "", err
	}

	var body chatResponse
	if err := resp.Decode(&body); err != nil {
		return "", err
	}
	if body.Error != nil {
		return "", fmt.Errorf("%w: completion error: %s", shared.ErrMalformedResponse, body.Error.Message)
	}
	if len(body.Choices) == 0 {
		return "", fmt.Errorf("%w: completion returned no choices", shared.ErrMalformedResponse)
	}
	return body.Choices[0].Message.Content, nil
}

// StripCodeFences removes a surrounding markdown code fence such as ```json ... ```.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// drop the info string on the opening fence line
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], "[{") {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
