package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// DefaultModel matches the model the study backend serves.
const DefaultModel = "qwen2.5:1.5b"

// NoResponse is the reply when the model returns an empty completion.
const NoResponse = "No response generated"

// CompletionClient is the subset of *openai.Client the responder needs.
type CompletionClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIResponder asks an OpenAI-compatible server (OpenAI, Ollama's /v1)
// for a single-turn completion.
type OpenAIResponder struct {
	client       CompletionClient
	model        string
	systemPrompt string
}

// NewOpenAIClient builds an *openai.Client for baseURL. An empty baseURL keeps
// the library default. A positive timeout bounds every request.
func NewOpenAIClient(baseURL, apiKey string, timeout time.Duration) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: timeout}
	}
	return openai.NewClientWithConfig(cfg)
}

// NewOpenAIResponder wraps client. An empty model means DefaultModel.
func NewOpenAIResponder(client CompletionClient, model, systemPrompt string) *OpenAIResponder {
	if model == "" {
		model = DefaultModel
	}
	return &OpenAIResponder{client: client, model: model, systemPrompt: systemPrompt}
}

func (r *OpenAIResponder) Reply(ctx context.Context, input string) (string, error) {
	if Blank(input) {
		return "", ErrEmptyInput
	}

	var msgs []openai.ChatCompletionMessage
	if r.systemPrompt != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: r.systemPrompt,
		})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: input,
	})

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    r.model,
		Messages: msgs,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", &APIError{Message: apiErr.Message, Status: apiErr.HTTPStatusCode}
		}
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return NoResponse, nil
	}
	return resp.Choices[0].Message.Content, nil
}
