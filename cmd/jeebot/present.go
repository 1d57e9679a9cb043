package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/Mr-Dark-debug/jeebot/internal/reveal"
	"github.com/Mr-Dark-debug/jeebot/internal/segment"
)

var (
	mathInlineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#76e3ea")).
			Italic(true)

	mathBlockStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#76e3ea")).
			PaddingLeft(4)

	ruleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#30363d"))
)

// isStdoutTTY reports whether stdout is a terminal.
func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// present writes a bot reply to w. When animate is set the reply is typed
// out one character at a time; replies containing math are then printed
// again with the math set apart.
func present(ctx context.Context, w io.Writer, text string, delay time.Duration, animate bool) {
	if !animate {
		fmt.Fprintln(w, renderSpans(text))
		return
	}

	typeOut(ctx, w, reveal.New(reveal.TimerScheduler{}, delay), text)
	fmt.Fprintln(w)

	if segment.HasMath(text) {
		fmt.Fprintln(w, ruleStyle.Render(strings.Repeat("─", 40)))
		fmt.Fprintln(w, renderSpans(text))
	}
}

// typeOut reveals text into w and waits for the run to commit. Cancelling
// ctx stops the run where it is.
func typeOut(ctx context.Context, w io.Writer, r *reveal.Revealer, text string) {
	done := make(chan struct{})
	shown := 0
	r.Start(text, reveal.SinkFuncs{
		OnFrame: func(prefix string) {
			fmt.Fprint(w, prefix[shown:])
			shown = len(prefix)
		},
		OnCommit: func(full string) {
			// A flushed run still prints its tail.
			fmt.Fprint(w, full[shown:])
			close(done)
		},
	})

	select {
	case <-done:
	case <-ctx.Done():
		r.Stop()
	}
}

// renderSpans styles the math spans of text for the terminal.
func renderSpans(text string) string {
	return segment.Render(text, segment.Styler{
		Inline: func(s string) string { return mathInlineStyle.Render(s) },
		Block:  func(s string) string { return mathBlockStyle.Render(s) },
	})
}

// renderMarkdown renders markdown for terminal display. Piped output is
// left as plain markdown.
func renderMarkdown(md string) string {
	if !isStdoutTTY() {
		return md
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}
