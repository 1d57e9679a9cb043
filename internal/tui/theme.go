package tui

import "github.com/charmbracelet/lipgloss"

// ────────────────────────────────────────────────────────────
// Color Palette: GitHub Dark
// ────────────────────────────────────────────────────────────
//
// All colors are defined here. No ad-hoc color literals anywhere.

var (
	// Base
	colorBgPanel   = lipgloss.Color("#161b22")
	colorBgSurface = lipgloss.Color("#1c2128")

	// Text
	colorText      = lipgloss.Color("#e6edf3")
	colorTextDim   = lipgloss.Color("#8b949e")
	colorTextMuted = lipgloss.Color("#484f58")

	// Accents
	colorBlue   = lipgloss.Color("#58a6ff")
	colorGreen  = lipgloss.Color("#3fb950")
	colorRed    = lipgloss.Color("#f85149")
	colorYellow = lipgloss.Color("#d29922")
	colorPurple = lipgloss.Color("#bc8cff")
	colorCyan   = lipgloss.Color("#76e3ea")

	// Structural
	colorDivider   = lipgloss.Color("#30363d")
	colorHighlight = lipgloss.Color("#1f6feb")
)

// ────────────────────────────────────────────────────────────
// Component Styles
// ────────────────────────────────────────────────────────────

// Header bar
var (
	headerBarStyle = lipgloss.NewStyle().
			Background(colorBgSurface).
			Foreground(colorText).
			Padding(0, 1)

	headerBrandStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorBlue)

	headerSepStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted)

	headerTabStyle = lipgloss.NewStyle().
			Foreground(colorTextDim)

	headerTabActiveStyle = lipgloss.NewStyle().
				Foreground(colorText).
				Background(colorHighlight).
				Bold(true).
				Padding(0, 1)
)

// Panel chrome
var (
	panelActiveStyle = lipgloss.NewStyle().
				Padding(0, 1).
				Border(lipgloss.Border{
			Top:    "─",
			Bottom: "",
			Left:   "",
			Right:  "",
		}).
		BorderForeground(colorBlue)

	panelTitleStyle = lipgloss.NewStyle().
			Foreground(colorBlue).
			Bold(true)
)

// Chat transcript
var (
	userLabelStyle = lipgloss.NewStyle().
			Foreground(colorBlue).
			Bold(true)

	botLabelStyle = lipgloss.NewStyle().
			Foreground(colorPurple).
			Bold(true)

	messageTextStyle = lipgloss.NewStyle().
				Foreground(colorText)

	messageTimeStyle = lipgloss.NewStyle().
				Foreground(colorTextMuted)

	mathInlineStyle = lipgloss.NewStyle().
			Foreground(colorCyan).
			Italic(true)

	mathBlockStyle = lipgloss.NewStyle().
			Foreground(colorCyan).
			Background(colorBgPanel).
			Padding(0, 2)

	cursorStyle = lipgloss.NewStyle().
			Foreground(colorPurple)

	inputBarStyle = lipgloss.NewStyle().
			Border(lipgloss.Border{Top: "─"}).
			BorderForeground(colorDivider).
			Padding(0, 1)
)

// Dashboard
var (
	detailLabelStyle = lipgloss.NewStyle().
				Foreground(colorBlue)

	detailValueStyle = lipgloss.NewStyle().
				Foreground(colorText)

	detailSectionStyle = lipgloss.NewStyle().
				Foreground(colorDivider)

	barEmptyStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted)

	severityHighStyle = lipgloss.NewStyle().
				Foreground(colorRed)

	severityMediumStyle = lipgloss.NewStyle().
				Foreground(colorYellow)

	severityLowStyle = lipgloss.NewStyle().
				Foreground(colorTextDim)

	quoteStyle = lipgloss.NewStyle().
			Foreground(colorTextDim).
			Italic(true).
			Border(lipgloss.Border{Left: "│"}).
			BorderForeground(colorPurple).
			Padding(0, 1)
)

// Quiz
var (
	itemStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Padding(0, 1)

	itemSelectedStyle = lipgloss.NewStyle().
				Background(colorHighlight).
				Foreground(colorText).
				Bold(true).
				Padding(0, 1)

	optionCorrectStyle = lipgloss.NewStyle().
				Foreground(colorGreen).
				Bold(true).
				Padding(0, 1)

	optionWrongStyle = lipgloss.NewStyle().
				Foreground(colorRed).
				Padding(0, 1)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorTextDim)

	emptyStateStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted).
			Padding(2, 4)
)

// Footer / status bar
var (
	statusStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Background(colorBgSurface).
			Padding(0, 1)

	statusErrorStyle = lipgloss.NewStyle().
				Foreground(colorRed).
				Background(colorBgSurface).
				Padding(0, 1)

	hintKeyStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Bold(true)

	hintDescStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(colorPurple)
)

// severityStyle returns the style for a weak chapter severity.
func severityStyle(severity string) lipgloss.Style {
	switch severity {
	case "high":
		return severityHighStyle
	case "medium":
		return severityMediumStyle
	default:
		return severityLowStyle
	}
}

// scoreColor picks a bar color for a percentage score.
func scoreColor(pct float64) lipgloss.Color {
	switch {
	case pct >= 75:
		return colorGreen
	case pct >= 50:
		return colorYellow
	default:
		return colorRed
	}
}
