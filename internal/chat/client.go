package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Mr-Dark-debug/jeebot/internal/logger"
)

// DefaultEndpoint is where the study backend listens during development.
const DefaultEndpoint = "http://127.0.0.1:8000/chatbot/api/chat/"

const maxResponseBytes = 1 << 20

type chatRequest struct {
	Input string `json:"input"`
}

type chatResponse struct {
	Prediction *string `json:"prediction"`
	Error      *string `json:"error"`
}

// Client talks to the JSON chat endpoint.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient creates a Client. A zero timeout leaves requests bounded only by
// the caller's context.
func NewClient(endpoint string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

// Reply posts {"input": input} and returns the prediction.
//
// The body is decoded whatever the status code, since the backend reports
// {"error": ...} alongside 4xx and 5xx responses. A body with neither key is
// treated like a transport failure.
func (c *Client) Reply(ctx context.Context, input string) (string, error) {
	if Blank(input) {
		return "", ErrEmptyInput
	}

	payload, err := json.Marshal(chatRequest{Input: input})
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("posting to %s: %w", c.endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	logger.L.Debug("chat response received",
		"status", resp.StatusCode,
		"bytes", len(body),
		"elapsed", time.Since(start),
	)

	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decoding response (status %d): %w", resp.StatusCode, err)
	}

	switch {
	case out.Error != nil && *out.Error != "":
		return "", &APIError{Message: *out.Error, Status: resp.StatusCode}
	case out.Prediction != nil:
		return *out.Prediction, nil
	default:
		return "", errors.New("response has neither prediction nor error")
	}
}
