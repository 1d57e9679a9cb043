package reveal

import (
	"sync"
	"time"

	"github.com/Mr-Dark-debug/jeebot/internal/logger"
)

// DefaultDelay is the per-unit reveal delay.
const DefaultDelay = 50 * time.Millisecond

// Scheduler runs tick after delay and returns a function that cancels it.
// Cancel must be safe to call after the tick has already fired.
type Scheduler interface {
	Schedule(delay time.Duration, tick func()) (cancel func())
}

// TimerScheduler schedules ticks on real timers.
type TimerScheduler struct{}

// Schedule implements Scheduler using time.AfterFunc.
func (TimerScheduler) Schedule(delay time.Duration, tick func()) func() {
	t := time.AfterFunc(delay, tick)
	return func() { t.Stop() }
}

// Sink receives the output of a run. Frame is called with every growing
// prefix; Commit is called exactly once with the full text when the run
// finishes or is superseded. Calls are serialized and must not re-enter the
// Revealer.
type Sink interface {
	Frame(prefix string)
	Commit(full string)
}

// SinkFuncs adapts two functions to a Sink. Nil functions are skipped.
type SinkFuncs struct {
	OnFrame  func(prefix string)
	OnCommit func(full string)
}

func (s SinkFuncs) Frame(prefix string) {
	if s.OnFrame != nil {
		s.OnFrame(prefix)
	}
}

func (s SinkFuncs) Commit(full string) {
	if s.OnCommit != nil {
		s.OnCommit(full)
	}
}

// Revealer drives one Typing at a time. Starting a new run supersedes the
// active one: the old run emits no more frames and its full text is
// committed immediately, so the output of two runs never interleaves.
type Revealer struct {
	sched Scheduler
	delay time.Duration

	// emit serializes sink calls so frames and commits keep their order.
	emit sync.Mutex

	mu     sync.Mutex
	next   uint64
	state  Typing
	sink   Sink
	cancel func()
	active bool
}

// New creates a Revealer. A nil scheduler means real timers and a
// non-positive delay means DefaultDelay.
func New(sched Scheduler, delay time.Duration) *Revealer {
	if sched == nil {
		sched = TimerScheduler{}
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Revealer{sched: sched, delay: delay}
}

// Start begins revealing text into sink and returns the run token. Empty
// text is committed at once without any ticks.
func (r *Revealer) Start(text string, sink Sink) uint64 {
	r.emit.Lock()
	defer r.emit.Unlock()

	r.mu.Lock()
	prevText, prevSink, superseded := r.detachLocked()
	r.next++
	token := r.next
	r.state = NewTyping(text, token)
	units := r.state.Len()
	empty := units == 0
	if !empty {
		r.sink = sink
		r.active = true
		r.cancel = r.sched.Schedule(r.delay, func() { r.tick(token) })
	}
	r.mu.Unlock()

	// The superseded run commits before the new one can emit anything.
	if superseded {
		logger.L.Debug("reveal run flushed", "units", Units(prevText))
		prevSink.Commit(prevText)
	}
	logger.L.Debug("reveal run started", "token", token, "units", units)
	if empty {
		sink.Commit(text)
	}
	return token
}

// Stop cancels the active run without committing it.
func (r *Revealer) Stop() {
	r.emit.Lock()
	defer r.emit.Unlock()

	r.mu.Lock()
	r.detachLocked()
	r.mu.Unlock()
}

// Flush finishes the active run immediately and commits its full text.
func (r *Revealer) Flush() {
	r.emit.Lock()
	defer r.emit.Unlock()

	r.mu.Lock()
	text, sink, ok := r.detachLocked()
	r.mu.Unlock()
	if ok {
		logger.L.Debug("reveal run flushed", "units", Units(text))
		sink.Commit(text)
	}
}

// Active reports whether a run is in progress.
func (r *Revealer) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// State returns a snapshot of the current run.
func (r *Revealer) State() Typing {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Revealer) tick(token uint64) {
	r.emit.Lock()
	defer r.emit.Unlock()

	r.mu.Lock()
	if !r.active || r.state.Token != token {
		r.mu.Unlock()
		return
	}

	r.state = r.state.Advance()
	prefix := r.state.Prefix()
	sink := r.sink
	done := r.state.Complete()
	if done {
		r.active = false
		r.cancel = nil
		r.sink = nil
		r.state = Typing{Token: token}
	} else {
		r.cancel = r.sched.Schedule(r.delay, func() { r.tick(token) })
	}
	r.mu.Unlock()

	sink.Frame(prefix)
	if done {
		sink.Commit(prefix)
	}
}

// detachLocked clears the active run and returns what it would commit.
func (r *Revealer) detachLocked() (string, Sink, bool) {
	if !r.active {
		return "", nil, false
	}
	if r.cancel != nil {
		r.cancel()
	}
	text, sink := r.state.FullText, r.sink
	r.active = false
	r.cancel = nil
	r.sink = nil
	r.state = Typing{Token: r.state.Token}
	return text, sink, true
}
