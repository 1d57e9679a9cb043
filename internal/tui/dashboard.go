package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Mr-Dark-debug/jeebot/internal/analysis"
	"github.com/Mr-Dark-debug/jeebot/pkg/timeutil"
)

type dashboardState struct {
	report   *analysis.Report
	loadedAt time.Time
}

type reportLoadedMsg struct{ report *analysis.Report }

func (m Model) loadReport() tea.Cmd {
	store := m.store
	return func() tea.Msg {
		report, err := analysis.NewAnalyzer(store).FullAnalysis()
		if err != nil {
			return errMsg{err}
		}
		return reportLoadedMsg{report: report}
	}
}

func (m Model) updateDashboard(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(reportLoadedMsg); ok {
		m.dash.report = msg.report
		m.dash.loadedAt = time.Now()
		if m.route == RouteDashboard {
			m.statusMsg = fmt.Sprintf("%d questions answered", msg.report.Overall.Attempts)
		}
	}
	return m, nil
}

func (m Model) handleDashboardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "r" {
		m.statusMsg = "Refreshing..."
		return m, m.loadReport()
	}
	return m, nil
}

// renderDashboard renders the performance overview.
func renderDashboard(m *Model, width, height int) string {
	title := panelTitleStyle.Render("Performance Overview")

	r := m.dash.report
	if r == nil {
		return title + "\n\n" + emptyStateStyle.Render("Loading your progress...")
	}

	barWidth := clamp(width-24, 4, 40)
	var lines []string
	lines = append(lines, title, "")

	// ── Scores ──

	if r.Overall.Attempts == 0 {
		lines = append(lines, dimStyle.Render("No attempts yet. Take a test from the Quiz tab."))
	} else {
		lines = append(lines, renderScoreBar(r.Overall.Name, r.Overall.Percent, barWidth))
	}
	for _, s := range r.Subjects {
		if s.Attempts == 0 {
			lines = append(lines, fmt.Sprintf("%-12s %s", truncate(s.Name, 12), dimStyle.Render("not attempted")))
			continue
		}
		lines = append(lines, renderScoreBar(s.Name, s.Percent, barWidth))
	}

	// ── Weak chapters ──

	if len(r.WeakChapters) > 0 {
		lines = append(lines, "", detailSectionStyle.Render("Chapters to Revise"))
		for _, w := range r.WeakChapters {
			lines = append(lines, fmt.Sprintf("%s  %s / %s  %s",
				severityStyle(w.Severity).Render("●"),
				w.Subject, w.Chapter,
				dimStyle.Render(fmt.Sprintf("%.0f%% of %d", w.Percent, w.Attempts))))
		}
	}

	// ── Trend ──

	if t := r.Trend; t != nil {
		lines = append(lines, "", detailSectionStyle.Render("Trend"))
		value := t.Direction
		if t.Direction != "not enough data" {
			value = fmt.Sprintf("%s (%+.1f per question)", t.Direction, t.Slope)
		}
		lines = append(lines, detailRow("Direction", value))
	}

	// ── History ──

	if len(r.History) > 0 {
		lines = append(lines, "", detailSectionStyle.Render("Test History"))
		now := m.dash.loadedAt
		for _, h := range r.History {
			lines = append(lines, fmt.Sprintf("%s  %s  %s",
				truncate(h.Subject+" / "+h.Chapter, max(10, width-30)),
				detailValueStyle.Render(fmt.Sprintf("%.0f%%", h.Percent)),
				dimStyle.Render(timeutil.RelativeTime(h.At, now))))
		}
	}

	// ── Notifications ──

	if len(r.Warnings) > 0 {
		lines = append(lines, "", detailSectionStyle.Render("Notifications"))
		for _, w := range r.Warnings {
			lines = append(lines, severityMediumStyle.Render("! ")+truncate(w, max(10, width-2)))
		}
	}

	lines = append(lines, "", quoteStyle.Render(r.Quote.Text+"\n- "+r.Quote.Author))

	content := strings.Join(lines, "\n")
	if n := strings.Count(content, "\n") + 1; n > height {
		content = strings.Join(strings.Split(content, "\n")[:height], "\n")
	}
	return content
}

// renderDashboardPanel wraps the dashboard in a styled panel.
func renderDashboardPanel(m *Model, width, height int) string {
	content := renderDashboard(m, width-4, height-2)
	return panelActiveStyle.Width(width).Height(max(1, height-1)).Render(content)
}
