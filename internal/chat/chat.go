// Package chat turns student input into a bot reply.
//
// A Responder produces the reply text. ReplyText folds every failure into a
// string the session can reveal like any other bot message.
package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/Mr-Dark-debug/jeebot/internal/logger"
)

// FallbackMessage is shown when the backend could not be reached or answered
// with something that is not a chat payload.
const FallbackMessage = "An error occurred. Please try again."

// ErrEmptyInput is returned for blank input before any request is made.
var ErrEmptyInput = errors.New("chat: empty input")

// Responder produces a reply for one student message.
type Responder interface {
	Reply(ctx context.Context, input string) (string, error)
}

// ResponderFunc adapts a function to a Responder.
type ResponderFunc func(ctx context.Context, input string) (string, error)

func (f ResponderFunc) Reply(ctx context.Context, input string) (string, error) {
	return f(ctx, input)
}

// APIError is an error the backend reported in its payload.
type APIError struct {
	Message string
	Status  int
}

func (e *APIError) Error() string {
	return "Error: " + e.Message
}

// ReplyText asks r for a reply and maps failures to displayable text:
// an APIError becomes "Error: <message>", anything else FallbackMessage.
func ReplyText(ctx context.Context, r Responder, input string) string {
	reply, err := r.Reply(ctx, input)
	if err == nil {
		return reply
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		logger.L.Warn("chat backend reported an error", "status", apiErr.Status, "error", apiErr.Message)
		return apiErr.Error()
	}
	logger.L.Error("chat request failed", "error", err)
	return FallbackMessage
}

// Blank reports whether input has nothing worth sending.
func Blank(input string) bool {
	return strings.TrimSpace(input) == ""
}
