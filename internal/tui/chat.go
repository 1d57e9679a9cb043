package tui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Mr-Dark-debug/jeebot/internal/chat"
	"github.com/Mr-Dark-debug/jeebot/internal/ocr"
	"github.com/Mr-Dark-debug/jeebot/internal/session"
	"github.com/Mr-Dark-debug/jeebot/pkg/timeutil"
)

// ocrCommand uploads an image instead of sending text.
const ocrCommand = "/ocr"

const welcomeText = "Ask me anything about Physics, Chemistry or Biology.\n" +
	"Type /ocr followed by an image path to read a question from a photo."

type chatState struct {
	session  *session.Session
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
}

func newChatState() chatState {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a doubt..."
	ti.CharLimit = 4096

	vp := viewport.New(80, 20)
	vp.SetContent("")

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	return chatState{
		session:  session.New(),
		input:    ti,
		viewport: vp,
		spinner:  sp,
	}
}

// ────────────────────────────────────────────────────────────
// Messages and commands
// ────────────────────────────────────────────────────────────

// replyMsg carries the final bot text for one submission, whether it came
// from the chat backend, the OCR engine or a fallback.
type replyMsg struct{ text string }

// revealTickMsg advances the reveal run identified by token.
type revealTickMsg struct{ token uint64 }

func (m Model) fetchReply(input string) tea.Cmd {
	responder := m.responder
	return func() tea.Msg {
		return replyMsg{text: chat.ReplyText(context.Background(), responder, input)}
	}
}

func (m Model) readImage(path string) tea.Cmd {
	rec := m.recognizer
	return func() tea.Msg {
		return replyMsg{text: ocr.ReplyText(context.Background(), rec, path)}
	}
}

func (m Model) revealTick(token uint64) tea.Cmd {
	return tea.Tick(m.delay, func(time.Time) tea.Msg {
		return revealTickMsg{token: token}
	})
}

// ────────────────────────────────────────────────────────────
// Update
// ────────────────────────────────────────────────────────────

func (m Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return m.submit()

	case "esc":
		// Skip the rest of the animation.
		m.chat.session.Flush()
		m.refreshTranscript()
		return m, nil

	case "pgup", "pgdown", "up", "down":
		var cmd tea.Cmd
		m.chat.viewport, cmd = m.chat.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.chat.input, cmd = m.chat.input.Update(msg)
	return m, cmd
}

// submit sends the input line. Blank input is ignored. "/ocr <path>"
// reads the image instead of calling the chat backend.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := m.chat.input.Value()
	if chat.Blank(text) {
		return m, nil
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == ocrCommand || strings.HasPrefix(trimmed, ocrCommand+" ") {
		return m.submitImage(strings.TrimSpace(strings.TrimPrefix(trimmed, ocrCommand)))
	}

	if err := m.chat.session.Submit(text); err != nil {
		if errors.Is(err, session.ErrBusy) {
			m.statusMsg = "Still waiting for a reply..."
		}
		return m, nil
	}

	m.chat.input.Reset()
	m.statusMsg = ""
	m.refreshTranscript()
	return m, tea.Batch(m.chat.spinner.Tick, m.fetchReply(text))
}

func (m Model) submitImage(path string) (tea.Model, tea.Cmd) {
	if path == "" {
		m.statusMsg = "Usage: /ocr <image path>"
		return m, nil
	}
	if m.recognizer == nil {
		m.statusMsg = "Image reading is not configured"
		return m, nil
	}
	if err := m.chat.session.Await(); err != nil {
		m.statusMsg = "Still waiting for a reply..."
		return m, nil
	}

	m.chat.input.Reset()
	m.statusMsg = "Reading " + filepath.Base(path)
	m.refreshTranscript()
	return m, tea.Batch(m.chat.spinner.Tick, m.readImage(path))
}

func (m Model) updateChat(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case replyMsg:
		m.statusMsg = ""
		typing := m.chat.session.BeginReveal(msg.text)
		m.refreshTranscript()
		if typing.Complete() {
			return m, nil
		}
		return m, m.revealTick(typing.Token)

	case revealTickMsg:
		typing, ok := m.chat.session.Advance(msg.token)
		if !ok {
			return m, nil
		}
		m.refreshTranscript()
		if typing.Complete() {
			return m, nil
		}
		return m, m.revealTick(msg.token)

	case spinner.TickMsg:
		if m.chat.session.Phase() != session.PhaseAwaiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.chat.spinner, cmd = m.chat.spinner.Update(msg)
		m.refreshTranscript()
		return m, cmd
	}

	var cmd tea.Cmd
	m.chat.input, cmd = m.chat.input.Update(msg)
	return m, cmd
}

// resizeChat fits the transcript and input to the window.
func (m *Model) resizeChat() {
	m.chat.viewport.Width = max(10, m.width-2)
	m.chat.viewport.Height = max(3, m.bodyHeight()-3)
	m.chat.input.Width = max(10, m.width-6)
	m.refreshTranscript()
}

func (m *Model) refreshTranscript() {
	m.chat.viewport.SetContent(renderTranscript(m, m.chat.viewport.Width))
	m.chat.viewport.GotoBottom()
}

// ────────────────────────────────────────────────────────────
// View
// ────────────────────────────────────────────────────────────

// renderTranscript renders the committed history followed by the reply
// being revealed or a spinner while one is fetched.
func renderTranscript(m *Model, width int) string {
	s := m.chat.session
	history := s.History()
	wrap := lipgloss.NewStyle().Width(max(10, width-2))

	if len(history) == 0 && s.Phase() == session.PhaseIdle {
		return emptyStateStyle.Render(welcomeText)
	}

	var blocks []string
	for _, msg := range history {
		label := botLabelStyle.Render(Brand)
		if msg.Sender == session.SenderUser {
			label = userLabelStyle.Render("You")
		}
		ts := messageTimeStyle.Render(timeutil.FormatClock(msg.At))
		blocks = append(blocks,
			label+"  "+ts+"\n"+wrap.Render(renderSegments(msg.Text, messageTextStyle)))
	}

	switch s.Phase() {
	case session.PhaseRevealing:
		live := renderSegments(s.Live(), messageTextStyle) + cursorStyle.Render("▌")
		blocks = append(blocks, botLabelStyle.Render(Brand)+"\n"+wrap.Render(live))
	case session.PhaseAwaiting:
		blocks = append(blocks,
			botLabelStyle.Render(Brand)+"\n"+m.chat.spinner.View()+dimStyle.Render(" thinking..."))
	}

	return strings.Join(blocks, "\n\n")
}

// renderChat lays out the transcript above the input line.
func renderChat(m *Model, width, height int) string {
	panel := panelActiveStyle.
		Width(width).
		Height(max(1, height-3)).
		Render(m.chat.viewport.View())
	input := inputBarStyle.Width(width).Render(m.chat.input.View())
	return lipgloss.JoinVertical(lipgloss.Left, panel, input)
}
