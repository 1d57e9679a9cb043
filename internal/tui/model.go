package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Mr-Dark-debug/jeebot/internal/chat"
	"github.com/Mr-Dark-debug/jeebot/internal/database"
	"github.com/Mr-Dark-debug/jeebot/internal/logger"
	"github.com/Mr-Dark-debug/jeebot/internal/ocr"
	"github.com/Mr-Dark-debug/jeebot/internal/reveal"
)

// Brand is shown at the left of the header.
const Brand = "AI Helper"

// ────────────────────────────────────────────────────────────
// Routes
// ────────────────────────────────────────────────────────────

// Route identifies the view that fills the body.
type Route int

const (
	RouteDashboard Route = iota
	RouteQuiz
	RouteChat

	routeCount
)

func (r Route) String() string {
	switch r {
	case RouteQuiz:
		return "Quiz"
	case RouteChat:
		return "Chat"
	default:
		return "Dashboard"
	}
}

// ────────────────────────────────────────────────────────────
// Model
// ────────────────────────────────────────────────────────────

// Options are the collaborators the TUI needs.
type Options struct {
	Store       database.Store
	Responder   chat.Responder
	Recognizer  ocr.Recognizer
	RevealDelay time.Duration
}

// Model is the root BubbleTea model for the jeebot TUI.
// State is organized by route; rendering is delegated
// to component functions in separate files.
type Model struct {
	store      database.Store
	responder  chat.Responder
	recognizer ocr.Recognizer
	delay      time.Duration

	route Route
	chat  chatState
	quiz  quizState
	dash  dashboardState

	width  int
	height int

	// Status
	statusMsg string
	err       error
}

// NewModel creates a new TUI model. The dashboard is the initial route.
func NewModel(opts Options) Model {
	delay := opts.RevealDelay
	if delay <= 0 {
		delay = reveal.DefaultDelay
	}
	return Model{
		store:      opts.Store,
		responder:  opts.Responder,
		recognizer: opts.Recognizer,
		delay:      delay,
		route:      RouteDashboard,
		chat:       newChatState(),
		quiz:       newQuizState(),
		statusMsg:  "Loading...",
	}
}

// Route returns the active route.
func (m Model) Route() Route {
	return m.route
}

// ────────────────────────────────────────────────────────────
// Messages
// ────────────────────────────────────────────────────────────

type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

// ────────────────────────────────────────────────────────────
// Init
// ────────────────────────────────────────────────────────────

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadReport(), m.loadSubjects())
}

// ────────────────────────────────────────────────────────────
// Update
// ────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeChat()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case replyMsg, revealTickMsg:
		return m.updateChat(msg)

	case subjectsLoadedMsg, questionsLoadedMsg, attemptRecordedMsg:
		return m.updateQuiz(msg)

	case reportLoadedMsg:
		return m.updateDashboard(msg)

	case errMsg:
		m.err = msg.err
		logger.L.Error("tui command failed", "error", msg.err)
		return m, nil
	}

	// Spinner frames and cursor blinks belong to the chat view.
	return m.updateChat(msg)
}

// handleKey routes keyboard input. Route switching keys are global except
// that digits and "q" are left to the text input on the chat route.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch key {
	case "ctrl+c":
		m.chat.session.Teardown()
		return m, tea.Quit
	case "tab":
		return m.switchTo((m.route + 1) % routeCount)
	case "shift+tab":
		return m.switchTo((m.route + routeCount - 1) % routeCount)
	}

	if m.route != RouteChat {
		switch key {
		case "q":
			return m, tea.Quit
		case "1", "2", "3":
			return m.switchTo(Route(key[0] - '1'))
		}
	}

	switch m.route {
	case RouteChat:
		return m.handleChatKey(msg)
	case RouteQuiz:
		return m.handleQuizKey(msg)
	default:
		return m.handleDashboardKey(msg)
	}
}

// switchTo changes the active route. Entering the dashboard reloads the
// report so attempts made in the quiz show up.
func (m Model) switchTo(r Route) (tea.Model, tea.Cmd) {
	if r == m.route {
		return m, nil
	}
	m.route = r
	m.err = nil
	m.statusMsg = ""
	logger.L.Debug("route changed", "route", r.String())

	switch r {
	case RouteDashboard:
		return m, m.loadReport()
	case RouteChat:
		cmd := m.chat.input.Focus()
		return m, cmd
	}
	return m, nil
}

// ────────────────────────────────────────────────────────────
// View
// ────────────────────────────────────────────────────────────

func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	header := renderHeader(&m)
	footer := renderFooter(&m)

	bodyHeight := m.bodyHeight()

	var body string
	switch m.route {
	case RouteChat:
		body = renderChat(&m, m.width, bodyHeight)
	case RouteQuiz:
		body = renderQuizPanel(&m, m.width, bodyHeight)
	default:
		body = renderDashboardPanel(&m, m.width, bodyHeight)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

// bodyHeight is the height left between header and footer.
func (m Model) bodyHeight() int {
	return max(1, m.height-2)
}
