// Package ocr reads text out of images so it can be fed to the chat pipeline.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/Mr-Dark-debug/jeebot/internal/logger"
)

// Bot text for the two ways an OCR run can come up short.
const (
	FailureMessage = "Could not read text from the image. Please try again."
	EmptyMessage   = "No text was found in the image."
)

// ErrNotImage is returned when the file's content is not an image.
var ErrNotImage = errors.New("ocr: file is not an image")

// Recognizer extracts text from an image file.
type Recognizer interface {
	Recognize(ctx context.Context, path string) (string, error)
}

// Tesseract runs the tesseract executable.
type Tesseract struct {
	Command  string
	Language string
	Timeout  time.Duration
}

// NewTesseract returns a recognizer with defaults filled in.
func NewTesseract(command, language string, timeout time.Duration) *Tesseract {
	if command == "" {
		command = "tesseract"
	}
	if language == "" {
		language = "eng"
	}
	return &Tesseract{Command: command, Language: language, Timeout: timeout}
}

// Recognize checks that path holds an image and returns what tesseract
// printed, trimmed.
func (t *Tesseract) Recognize(ctx context.Context, path string) (string, error) {
	if err := CheckImage(path); err != nil {
		return "", err
	}

	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.Command, path, "stdout", "-l", t.Language)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("running %s: %w: %s", t.Command, err, msg)
		}
		return "", fmt.Errorf("running %s: %w", t.Command, err)
	}

	text := strings.TrimSpace(stdout.String())
	logger.L.Debug("ocr finished", "path", path, "chars", len(text), "elapsed", time.Since(start))
	return text, nil
}

// CheckImage sniffs the file content and rejects anything that is not image/*.
func CheckImage(path string) error {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if !strings.HasPrefix(mt.String(), "image/") {
		return fmt.Errorf("%w: %s is %s", ErrNotImage, path, mt.String())
	}
	return nil
}

// ReplyText runs rec on path and returns the text to reveal as a bot message.
func ReplyText(ctx context.Context, rec Recognizer, path string) string {
	text, err := rec.Recognize(ctx, path)
	if err != nil {
		logger.L.Error("ocr failed", "path", path, "error", err)
		return FailureMessage
	}
	if strings.TrimSpace(text) == "" {
		return EmptyMessage
	}
	return text
}
