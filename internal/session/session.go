// Package session holds the state of one chat conversation: the committed
// history plus at most one reply being revealed.
//
// A Session is driven by a single goroutine (the TUI update loop). Every
// change goes through one of the transitions below, and a small state
// machine tracks which phase the conversation is in:
//
//	Idle ──Submit──▶ Awaiting ──BeginReveal──▶ Revealing ──Advance(last)──▶ Idle
//	  └────────────BeginReveal (OCR)──────────────▶┘
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/qmuntal/stateless"

	"github.com/Mr-Dark-debug/jeebot/internal/logger"
	"github.com/Mr-Dark-debug/jeebot/internal/reveal"
)

// Sender identifies who wrote a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is one committed entry in the history.
type Message struct {
	Sender Sender
	Text   string
	At     time.Time
}

// Phase is where the conversation currently stands.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseAwaiting  Phase = "awaiting"
	PhaseRevealing Phase = "revealing"
)

type trigger string

const (
	triggerSubmit   trigger = "submit"
	triggerReveal   trigger = "reveal"
	triggerCommit   trigger = "commit"
	triggerTeardown trigger = "teardown"
)

var (
	// ErrBlank is returned by Submit for input with no visible characters.
	ErrBlank = errors.New("session: blank input")
	// ErrBusy is returned by Submit while a reply is still being fetched.
	ErrBusy = errors.New("session: reply already pending")
)

// Session is the chat state for one run of the program.
type Session struct {
	ID string

	fsm     *stateless.StateMachine
	history []Message
	typing  reveal.Typing
	next    uint64
	now     func() time.Time
}

// New returns an idle session with an empty history.
func New() *Session {
	s := &Session{
		ID:  uuid.NewString(),
		now: time.Now,
	}
	s.fsm = newMachine()
	return s
}

func newMachine() *stateless.StateMachine {
	fsm := stateless.NewStateMachine(PhaseIdle)

	fsm.Configure(PhaseIdle).
		Permit(triggerSubmit, PhaseAwaiting).
		Permit(triggerReveal, PhaseRevealing).
		Ignore(triggerCommit).
		Ignore(triggerTeardown)

	fsm.Configure(PhaseAwaiting).
		Permit(triggerReveal, PhaseRevealing).
		Permit(triggerCommit, PhaseIdle).
		Permit(triggerTeardown, PhaseIdle)

	fsm.Configure(PhaseRevealing).
		PermitReentry(triggerReveal).
		Permit(triggerSubmit, PhaseAwaiting).
		Permit(triggerCommit, PhaseIdle).
		Permit(triggerTeardown, PhaseIdle)

	return fsm
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	return s.fsm.MustState().(Phase)
}

// History returns a copy of the committed messages, oldest first.
func (s *Session) History() []Message {
	out := make([]Message, len(s.history))
	copy(out, s.history)
	return out
}

// Live returns the part of the current reply revealed so far.
func (s *Session) Live() string {
	return s.typing.Prefix()
}

// Typing returns the state of the current reveal.
func (s *Session) Typing() reveal.Typing {
	return s.typing
}

// Submit records the student's message and waits for a reply. A reply that
// is still being revealed is committed in full first.
func (s *Session) Submit(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrBlank
	}
	if s.Phase() == PhaseAwaiting {
		return ErrBusy
	}
	s.Flush()

	if err := s.fire(triggerSubmit); err != nil {
		return err
	}
	s.append(SenderUser, text)
	return nil
}

// Await moves to the awaiting phase without adding a user message. It is
// used when the reply comes from an uploaded image rather than typed text.
func (s *Session) Await() error {
	if s.Phase() == PhaseAwaiting {
		return ErrBusy
	}
	s.Flush()
	return s.fire(triggerSubmit)
}

// BeginReveal starts revealing text as the bot's reply and returns the new
// reveal state. Any reveal in progress is committed in full first. Empty
// text is committed at once, in which case the returned state is already
// complete and the session is idle again.
func (s *Session) BeginReveal(text string) reveal.Typing {
	s.Flush()

	s.next++
	s.typing = reveal.NewTyping(text, s.next)

	if s.typing.Complete() {
		s.commit()
		return reveal.NewTyping(text, s.next)
	}
	if err := s.fire(triggerReveal); err != nil {
		logger.L.Warn("session transition failed", "session", s.ID, "error", err)
	}
	logger.L.Debug("reveal started", "session", s.ID, "token", s.next, "units", s.typing.Len())
	return s.typing
}

// Advance reveals one more unit of the run identified by token. Ticks for
// a run that was superseded or torn down are ignored and report false. When
// the last unit is revealed the full text is committed to the history.
func (s *Session) Advance(token uint64) (reveal.Typing, bool) {
	if s.Phase() != PhaseRevealing || s.typing.Token != token {
		return s.typing, false
	}
	s.typing = s.typing.Advance()
	state := s.typing
	if state.Complete() {
		s.commit()
	}
	return state, true
}

// Flush commits the reply being revealed, if any, in full.
func (s *Session) Flush() {
	if s.Phase() != PhaseRevealing {
		return
	}
	s.commit()
}

// Teardown drops the reveal in progress without committing it.
func (s *Session) Teardown() {
	s.typing = reveal.Typing{Token: s.typing.Token}
	if err := s.fire(triggerTeardown); err != nil {
		logger.L.Warn("session transition failed", "session", s.ID, "error", err)
	}
}

func (s *Session) commit() {
	text := s.typing.FullText
	s.typing = reveal.Typing{Token: s.typing.Token}
	if err := s.fire(triggerCommit); err != nil {
		logger.L.Warn("session transition failed", "session", s.ID, "error", err)
	}
	s.append(SenderBot, text)
}

func (s *Session) append(sender Sender, text string) {
	s.history = append(s.history, Message{Sender: sender, Text: text, At: s.now()})
}

func (s *Session) fire(t trigger) error {
	if err := s.fsm.FireCtx(context.Background(), t); err != nil {
		return fmt.Errorf("session %s: %s in phase %s: %w", s.ID, t, s.Phase(), err)
	}
	return nil
}
