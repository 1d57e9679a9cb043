package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/Mr-Dark-debug/jeebot/internal/database"
	"github.com/Mr-Dark-debug/jeebot/internal/segment"
	"github.com/Mr-Dark-debug/jeebot/pkg/timeutil"
)

type quizStage int

const (
	stageSubjects quizStage = iota
	stageChapters
	stageQuestion
	stageSummary
)

type quizState struct {
	stage    quizStage
	subjects []database.Subject
	cursor   int

	subject string
	chapter string

	questions []*database.Question
	index     int
	chosen    int // -1 until an option is picked
	shownAt   time.Time
	elapsed   time.Duration

	showSolution bool
	solutionView string

	answered int
	correct  int
}

func newQuizState() quizState {
	return quizState{chosen: -1}
}

func (q *quizState) current() *database.Question {
	if q.index < 0 || q.index >= len(q.questions) {
		return nil
	}
	return q.questions[q.index]
}

func (q *quizState) chapters() []string {
	for _, s := range q.subjects {
		if s.Name == q.subject {
			return s.Chapters
		}
	}
	return nil
}

// ────────────────────────────────────────────────────────────
// Messages and commands
// ────────────────────────────────────────────────────────────

type subjectsLoadedMsg []database.Subject

type questionsLoadedMsg struct {
	subject   string
	chapter   string
	questions []*database.Question
}

type attemptRecordedMsg struct{ attempt *database.Attempt }

func (m Model) loadSubjects() tea.Cmd {
	store := m.store
	return func() tea.Msg {
		subjects, err := store.ListSubjects()
		if err != nil {
			return errMsg{err}
		}
		return subjectsLoadedMsg(subjects)
	}
}

func (m Model) loadQuestions(subject, chapter string) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		qs, err := store.QueryQuestions(database.QuestionFilter{
			Subject: &subject,
			Chapter: &chapter,
		})
		if err != nil {
			return errMsg{err}
		}
		return questionsLoadedMsg{subject: subject, chapter: chapter, questions: qs}
	}
}

func (m Model) recordAttempt(questionID string, chosen int) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		a := &database.Attempt{QuestionID: questionID, Chosen: chosen}
		if err := store.RecordAttempt(a); err != nil {
			return errMsg{err}
		}
		return attemptRecordedMsg{attempt: a}
	}
}

// ────────────────────────────────────────────────────────────
// Update
// ────────────────────────────────────────────────────────────

func (m Model) updateQuiz(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case subjectsLoadedMsg:
		m.quiz.subjects = []database.Subject(msg)
		if m.route == RouteQuiz || m.statusMsg == "Loading..." {
			m.statusMsg = fmt.Sprintf("%d subjects", len(m.quiz.subjects))
		}
		return m, nil

	case questionsLoadedMsg:
		if len(msg.questions) == 0 {
			m.statusMsg = "No questions in " + msg.chapter
			return m, nil
		}
		m.quiz.subject = msg.subject
		m.quiz.chapter = msg.chapter
		m.quiz.questions = msg.questions
		m.quiz.answered = 0
		m.quiz.correct = 0
		m.showQuestion(0)
		m.statusMsg = fmt.Sprintf("%s / %s", msg.subject, msg.chapter)
		return m, nil

	case attemptRecordedMsg:
		if msg.attempt.Correct {
			m.statusMsg = "Correct! Recorded."
		} else {
			m.statusMsg = "Recorded."
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) showQuestion(i int) {
	m.quiz.stage = stageQuestion
	m.quiz.index = i
	m.quiz.cursor = 0
	m.quiz.chosen = -1
	m.quiz.elapsed = 0
	m.quiz.shownAt = time.Now()
	m.quiz.showSolution = false
	m.quiz.solutionView = ""
}

func (m Model) handleQuizKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	q := &m.quiz

	switch q.stage {
	case stageSubjects:
		switch key {
		case "j", "down":
			q.cursor = clamp(q.cursor+1, 0, max(0, len(q.subjects)-1))
		case "k", "up":
			q.cursor = clamp(q.cursor-1, 0, max(0, len(q.subjects)-1))
		case "enter":
			if q.cursor < len(q.subjects) {
				q.subject = q.subjects[q.cursor].Name
				q.stage = stageChapters
				q.cursor = 0
			}
		}

	case stageChapters:
		chapters := q.chapters()
		switch key {
		case "j", "down":
			q.cursor = clamp(q.cursor+1, 0, max(0, len(chapters)-1))
		case "k", "up":
			q.cursor = clamp(q.cursor-1, 0, max(0, len(chapters)-1))
		case "enter":
			if q.cursor < len(chapters) {
				return m, m.loadQuestions(q.subject, chapters[q.cursor])
			}
		case "esc", "backspace":
			q.stage = stageSubjects
			q.cursor = 0
			for i, s := range q.subjects {
				if s.Name == q.subject {
					q.cursor = i
				}
			}
		}

	case stageQuestion:
		cur := q.current()
		if cur == nil {
			return m, nil
		}
		switch key {
		case "j", "down":
			q.cursor = clamp(q.cursor+1, 0, len(cur.Options)-1)
		case "k", "up":
			q.cursor = clamp(q.cursor-1, 0, len(cur.Options)-1)
		case "enter":
			return m.choose(q.cursor)
		case "s":
			q.showSolution = !q.showSolution
			if q.showSolution {
				q.solutionView = renderMarkdown(solutionMarkdown(cur), m.width-4)
			}
		case "n", "right":
			if q.index+1 >= len(q.questions) {
				q.stage = stageSummary
			} else {
				m.showQuestion(q.index + 1)
			}
		case "esc":
			q.stage = stageChapters
			q.cursor = 0
		default:
			if len(key) == 1 && key[0] >= 'a' && int(key[0]-'a') < len(cur.Options) {
				return m.choose(int(key[0] - 'a'))
			}
		}

	case stageSummary:
		switch key {
		case "r":
			return m, m.loadQuestions(q.subject, q.chapter)
		case "enter", "esc":
			q.stage = stageChapters
			q.cursor = 0
		}
	}

	return m, nil
}

// choose answers the current question. Only the first choice counts.
func (m Model) choose(i int) (tea.Model, tea.Cmd) {
	q := &m.quiz
	cur := q.current()
	if cur == nil || q.chosen >= 0 || i < 0 || i >= len(cur.Options) {
		return m, nil
	}

	q.chosen = i
	q.cursor = i
	q.elapsed = time.Since(q.shownAt)
	q.answered++
	if i == cur.Answer() {
		q.correct++
	}
	return m, m.recordAttempt(cur.QuestionID, i)
}

func (m Model) quizHints() []hint {
	switch m.quiz.stage {
	case stageQuestion:
		return []hint{
			{"a-d", "answer"},
			{"s", "solution"},
			{"n", "next"},
			{"esc", "back"},
		}
	case stageSummary:
		return []hint{
			{"r", "retry"},
			{"enter", "chapters"},
		}
	case stageChapters:
		return []hint{
			{"↑↓", "navigate"},
			{"enter", "start"},
			{"esc", "back"},
		}
	default:
		return []hint{
			{"↑↓", "navigate"},
			{"enter", "select"},
			{"q", "quit"},
		}
	}
}

// ────────────────────────────────────────────────────────────
// Solutions
// ────────────────────────────────────────────────────────────

// solutionMarkdown builds the solution text. Math spans become code so the
// markdown renderer leaves their underscores and carets alone.
func solutionMarkdown(q *database.Question) string {
	var b strings.Builder
	if ans := q.Answer(); ans >= 0 {
		fmt.Fprintf(&b, "**Answer: (%c)** %s\n\n", 'a'+ans, mathAsCode(q.Options[ans].Text))
	}
	if q.Explanation != "" {
		b.WriteString(mathAsCode(q.Explanation))
	} else {
		b.WriteString("_No explanation available._")
	}
	return b.String()
}

func mathAsCode(text string) string {
	var b strings.Builder
	for span := range segment.All(text) {
		switch span.Kind {
		case segment.InlineMath:
			b.WriteString("`" + span.Content + "`")
		case segment.BlockMath:
			b.WriteString("\n```\n" + strings.TrimSpace(span.Content) + "\n```\n")
		default:
			b.WriteString(span.Content)
		}
	}
	return b.String()
}

// renderMarkdown renders markdown for the terminal, falling back to the
// source text when rendering fails.
func renderMarkdown(md string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(max(20, width)),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

// ────────────────────────────────────────────────────────────
// View
// ────────────────────────────────────────────────────────────

func renderQuiz(m *Model, width, height int) string {
	q := &m.quiz
	var lines []string

	switch q.stage {
	case stageSubjects:
		if len(q.subjects) == 0 {
			return emptyStateStyle.Render(
				"No questions yet.\n\nImport a question file with `jeebot import <file>`.")
		}
		lines = append(lines, panelTitleStyle.Render("Choose a subject"), "")
		for i, s := range q.subjects {
			label := fmt.Sprintf("%s  %s", s.Name,
				dimStyle.Render(fmt.Sprintf("%d chapters", len(s.Chapters))))
			lines = append(lines, renderItem(label, i == q.cursor, width))
		}

	case stageChapters:
		lines = append(lines, panelTitleStyle.Render(q.subject)+dimStyle.Render("  choose a chapter"), "")
		for i, c := range q.chapters() {
			lines = append(lines, renderItem(c, i == q.cursor, width))
		}

	case stageQuestion:
		lines = append(lines, renderQuestion(m, width)...)

	case stageSummary:
		pct := 0.0
		if q.answered > 0 {
			pct = float64(q.correct) / float64(q.answered) * 100
		}
		lines = append(lines,
			panelTitleStyle.Render("Test Complete")+dimStyle.Render("  "+q.subject+" / "+q.chapter),
			"",
			detailRow("Questions", fmt.Sprintf("%d", len(q.questions))),
			detailRow("Answered", fmt.Sprintf("%d", q.answered)),
			detailRow("Correct", fmt.Sprintf("%d", q.correct)),
			"",
			renderScoreBar("Score", pct, min(40, width-24)),
		)
	}

	if len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}

func renderQuestion(m *Model, width int) []string {
	q := &m.quiz
	cur := q.current()
	if cur == nil {
		return nil
	}
	wrap := lipgloss.NewStyle().Width(max(10, width))

	header := panelTitleStyle.Render(fmt.Sprintf("Question %d of %d", q.index+1, len(q.questions))) +
		dimStyle.Render(fmt.Sprintf("  %s / %s", q.subject, q.chapter))
	if cur.Difficulty != "" {
		header += dimStyle.Render("  " + cur.Difficulty)
	}

	lines := []string{header, "", wrap.Render(renderSegments(cur.Text, messageTextStyle)), ""}

	answer := cur.Answer()
	for i, opt := range cur.Options {
		label := fmt.Sprintf("(%c) %s", 'a'+i, renderSegments(opt.Text, lipgloss.NewStyle()))
		style := itemStyle
		switch {
		case q.chosen >= 0 && i == answer:
			style = optionCorrectStyle
		case q.chosen >= 0 && i == q.chosen:
			style = optionWrongStyle
		case q.chosen < 0 && i == q.cursor:
			style = itemSelectedStyle
		}
		lines = append(lines, style.Render(label))
	}

	if q.chosen >= 0 {
		verdict := optionWrongStyle.Render("Incorrect")
		if q.chosen == answer {
			verdict = optionCorrectStyle.Render("Correct")
		}
		lines = append(lines, "", verdict+dimStyle.Render("  answered in "+timeutil.FormatElapsed(q.elapsed)))
	}

	if q.showSolution {
		lines = append(lines, "", detailSectionStyle.Render("Solution"), q.solutionView)
	}
	return lines
}

func renderItem(label string, selected bool, width int) string {
	if selected {
		return itemSelectedStyle.Width(max(10, width-4)).Render(label)
	}
	return itemStyle.Width(max(10, width-4)).Render(label)
}

// renderQuizPanel wraps the quiz in a styled panel.
func renderQuizPanel(m *Model, width, height int) string {
	content := renderQuiz(m, width-4, height-2)
	return panelActiveStyle.Width(width).Height(max(1, height-1)).Render(content)
}
