package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Mr-Dark-debug/jeebot/internal/segment"
)

// ────────────────────────────────────────────────────────────
// Span rendering
// ────────────────────────────────────────────────────────────

// renderSegments styles text span by span with the chat math styles.
func renderSegments(text string, base lipgloss.Style) string {
	return segment.Render(text, segment.Styler{
		Plain:  func(s string) string { return renderLines(s, base) },
		Inline: func(s string) string { return mathInlineStyle.Render(s) },
		Block:  func(s string) string { return mathBlockStyle.Render(s) },
	})
}

// renderLines styles each line separately so the styling does not pad
// multi-line text into a block.
func renderLines(text string, style lipgloss.Style) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = style.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}

// ────────────────────────────────────────────────────────────
// Bars and rows
// ────────────────────────────────────────────────────────────

func detailRow(label, value string) string {
	return detailLabelStyle.Render(label) + "  " + detailValueStyle.Render(value)
}

// renderScoreBar draws a horizontal bar for a percentage score.
func renderScoreBar(label string, pct float64, barWidth int) string {
	if barWidth < 4 {
		return fmt.Sprintf("%-12s %5.1f%%", label, pct)
	}
	filled := int(float64(barWidth) * pct / 100)
	if filled < 1 && pct > 0 {
		filled = 1
	}
	filled = clamp(filled, 0, barWidth)
	empty := barWidth - filled

	bar := lipgloss.NewStyle().Foreground(scoreColor(pct)).Render(strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", empty))

	return fmt.Sprintf("%-12s %s %5.1f%%", truncate(label, 12), bar, pct)
}

// ────────────────────────────────────────────────────────────
// String helpers
// ────────────────────────────────────────────────────────────

// truncate cuts a string to maxLen and appends "..." if truncated.
func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// clamp restricts val to [lo, hi].
func clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
