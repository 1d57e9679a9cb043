package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mr-Dark-debug/jeebot/internal/config"
)

func newServer(t *testing.T, status int, body string) (*httptest.Server, *string) {
	t.Helper()
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		got = req["input"]

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestClientPrediction(t *testing.T) {
	srv, got := newServer(t, http.StatusOK, `{"prediction":"Hi"}`)
	c := NewClient(srv.URL, time.Second)

	reply, err := c.Reply(context.Background(), "hello there")
	require.NoError(t, err)
	require.Equal(t, "Hi", reply)
	require.Equal(t, "hello there", *got)
}

func TestReplyTextScenarios(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"prediction", http.StatusOK, `{"prediction":"Hi"}`, "Hi"},
		{"empty prediction", http.StatusOK, `{"prediction":""}`, ""},
		{"error payload", http.StatusTooManyRequests, `{"error":"rate limited"}`, "Error: rate limited"},
		{"error with 200", http.StatusOK, `{"error":"No input provided"}`, "Error: No input provided"},
		{"html error page", http.StatusBadGateway, `<html>bad gateway</html>`, FallbackMessage},
		{"neither key", http.StatusOK, `{"answer":"?"}`, FallbackMessage},
		{"empty body", http.StatusOK, ``, FallbackMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newServer(t, tt.status, tt.body)
			got := ReplyText(context.Background(), NewClient(srv.URL, time.Second), "q")
			require.Equal(t, tt.want, got)
		})
	}
}

func TestClientErrorPayloadIsAPIError(t *testing.T) {
	srv, _ := newServer(t, http.StatusInternalServerError, `{"error":"model not loaded"}`)

	_, err := NewClient(srv.URL, time.Second).Reply(context.Background(), "q")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, "model not loaded", apiErr.Message)
	require.Equal(t, http.StatusInternalServerError, apiErr.Status)
}

func TestReplyTextNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	got := ReplyText(context.Background(), NewClient(url, time.Second), "q")
	require.Equal(t, FallbackMessage, got)
}

func TestClientTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	t.Cleanup(func() { close(release); srv.Close() })

	_, err := NewClient(srv.URL, 50*time.Millisecond).Reply(context.Background(), "q")
	require.Error(t, err)

	var apiErr *APIError
	require.False(t, errors.As(err, &apiErr))
}

func TestClientRejectsBlankInput(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	t.Cleanup(srv.Close)

	_, err := NewClient(srv.URL, time.Second).Reply(context.Background(), "   \n")
	require.ErrorIs(t, err, ErrEmptyInput)
	require.Zero(t, hits.Load())
}

type fakeCompletions struct {
	req  openai.ChatCompletionRequest
	resp openai.ChatCompletionResponse
	err  error
}

func (f *fakeCompletions) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.req = req
	return f.resp, f.err
}

func completion(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
		}},
	}
}

func TestOpenAIResponder(t *testing.T) {
	fake := &fakeCompletions{resp: completion("Force is $F = ma$")}
	r := NewOpenAIResponder(fake, "", "You are a JEE tutor.")

	reply, err := r.Reply(context.Background(), "What is Newton's second law?")
	require.NoError(t, err)
	require.Equal(t, "Force is $F = ma$", reply)

	require.Equal(t, DefaultModel, fake.req.Model)
	require.Len(t, fake.req.Messages, 2)
	require.Equal(t, openai.ChatMessageRoleSystem, fake.req.Messages[0].Role)
	require.Equal(t, "What is Newton's second law?", fake.req.Messages[1].Content)
}

func TestOpenAIResponderEmptyCompletion(t *testing.T) {
	for _, resp := range []openai.ChatCompletionResponse{{}, completion("  ")} {
		r := NewOpenAIResponder(&fakeCompletions{resp: resp}, "m", "")
		reply, err := r.Reply(context.Background(), "q")
		require.NoError(t, err)
		require.Equal(t, NoResponse, reply)
	}
}

func TestOpenAIResponderErrors(t *testing.T) {
	fake := &fakeCompletions{err: &openai.APIError{Message: "model not found", HTTPStatusCode: 404}}
	got := ReplyText(context.Background(), NewOpenAIResponder(fake, "m", ""), "q")
	require.Equal(t, "Error: model not found", got)

	fake = &fakeCompletions{err: errors.New("connection refused")}
	got = ReplyText(context.Background(), NewOpenAIResponder(fake, "m", ""), "q")
	require.Equal(t, FallbackMessage, got)
}

func TestOpenAIProviderTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	t.Cleanup(func() { close(release); srv.Close() })

	cfg := config.Default().Chat
	cfg.Provider = config.ProviderOpenAI
	cfg.BaseURL = srv.URL + "/v1"
	cfg.Timeout = 100 * time.Millisecond
	r, err := NewResponder(cfg)
	require.NoError(t, err)

	done := make(chan string, 1)
	go func() { done <- ReplyText(context.Background(), r, "q") }()

	select {
	case got := <-done:
		require.Equal(t, FallbackMessage, got)
	case <-time.After(5 * time.Second):
		t.Fatal("openai provider ignored chat.timeout")
	}
}

func TestOfflineResponder(t *testing.T) {
	r := NewOfflineResponder()
	ctx := context.Background()

	reply, err := r.Reply(ctx, "show my Progress")
	require.NoError(t, err)
	require.Equal(t, "Your current progress is: 0%", reply)

	reply, err = r.Reply(ctx, "What is the SYLLABUS?")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(reply, "Here's the syllabus:\n"))

	reply, err = r.Reply(ctx, "any references?")
	require.NoError(t, err)
	require.Contains(t, reply, "Concepts of Physics")

	first, _ := r.Reply(ctx, "hello")
	second, _ := r.Reply(ctx, "hello")
	require.NotEqual(t, first, second)

	for range 20 {
		_, _ = r.Reply(ctx, "hi")
	}
	require.Equal(t, 100, r.Progress())

	_, err = r.Reply(ctx, "")
	require.ErrorIs(t, err, ErrEmptyInput)
}

func TestNewResponder(t *testing.T) {
	cfg := config.Default().Chat

	r, err := NewResponder(cfg)
	require.NoError(t, err)
	require.IsType(t, &Client{}, r)

	cfg.Provider = config.ProviderOpenAI
	r, err = NewResponder(cfg)
	require.NoError(t, err)
	require.IsType(t, &OpenAIResponder{}, r)

	cfg.Provider = config.ProviderOffline
	r, err = NewResponder(cfg)
	require.NoError(t, err)
	require.IsType(t, &OfflineResponder{}, r)

	cfg.Provider = "smoke-signals"
	_, err = NewResponder(cfg)
	require.Error(t, err)
}
