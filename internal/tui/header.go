package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderHeader produces the top bar:
//
//	AI Helper  │  1 Dashboard  2 Quiz  3 Chat
func renderHeader(m *Model) string {
	brand := headerBrandStyle.Render(Brand)
	sep := headerSepStyle.Render(" │ ")

	var tabs []string
	for r := RouteDashboard; r < routeCount; r++ {
		label := fmt.Sprintf("%d %s", int(r)+1, r)
		if r == m.route {
			tabs = append(tabs, headerTabActiveStyle.Render(label))
		} else {
			tabs = append(tabs, headerTabStyle.Render(label))
		}
	}

	content := brand + sep + strings.Join(tabs, "  ")
	return headerBarStyle.Width(m.width).Render(content)
}

// renderFooter produces the bottom status bar with keyboard hints.
func renderFooter(m *Model) string {
	var left, right string

	switch {
	case m.err != nil:
		left = statusErrorStyle.Render(fmt.Sprintf("Error: %v", m.err))
	case m.statusMsg != "":
		left = statusStyle.Render(m.statusMsg)
	}

	switch m.route {
	case RouteChat:
		right = renderHints([]hint{
			{"enter", "send"},
			{"/ocr <image>", "read image"},
			{"pgup/pgdn", "scroll"},
			{"tab", "switch"},
			{"ctrl+c", "quit"},
		})
	case RouteQuiz:
		right = renderHints(m.quizHints())
	default:
		right = renderHints([]hint{
			{"r", "refresh"},
			{"1-3", "switch"},
			{"q", "quit"},
		})
	}

	gap := max(0, m.width-lipgloss.Width(left)-lipgloss.Width(right))

	bar := left + strings.Repeat(" ", gap) + right
	return lipgloss.NewStyle().
		Background(colorBgSurface).
		Width(m.width).
		Render(bar)
}

type hint struct {
	key  string
	desc string
}

func renderHints(hints []hint) string {
	var parts []string
	for _, h := range hints {
		parts = append(parts,
			hintKeyStyle.Render(h.key)+" "+hintDescStyle.Render(h.desc))
	}
	return strings.Join(parts, hintDescStyle.Render("  "))
}
