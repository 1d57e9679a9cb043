package session

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func runAll(s *Session, token uint64) []string {
	var frames []string
	for {
		st, ok := s.Advance(token)
		if !ok {
			return frames
		}
		frames = append(frames, st.Prefix())
		if st.Complete() {
			return frames
		}
	}
}

func texts(msgs []Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = string(m.Sender) + ":" + m.Text
	}
	return out
}

func TestSubmitThenReveal(t *testing.T) {
	s := New()
	require.NotEmpty(t, s.ID)
	require.Equal(t, PhaseIdle, s.Phase())

	require.NoError(t, s.Submit("hello"))
	require.Equal(t, PhaseAwaiting, s.Phase())

	st := s.BeginReveal("Hi")
	require.Equal(t, PhaseRevealing, s.Phase())
	require.Equal(t, "", s.Live())

	frames := runAll(s, st.Token)
	require.Equal(t, []string{"H", "Hi"}, frames)
	require.Equal(t, PhaseIdle, s.Phase())
	require.Equal(t, "", s.Live())
	require.Equal(t, []string{"user:hello", "bot:Hi"}, texts(s.History()))
}

func TestSubmitRejectsBlankAndBusy(t *testing.T) {
	s := New()
	require.ErrorIs(t, s.Submit("  \t"), ErrBlank)
	require.Empty(t, s.History())

	require.NoError(t, s.Submit("first"))
	require.ErrorIs(t, s.Submit("second"), ErrBusy)
	require.ErrorIs(t, s.Await(), ErrBusy)
	require.Len(t, s.History(), 1)
}

func TestEmptyReplyCommitsImmediately(t *testing.T) {
	s := New()
	require.NoError(t, s.Submit("q"))

	st := s.BeginReveal("")
	require.True(t, st.Complete())
	require.Equal(t, PhaseIdle, s.Phase())
	require.Equal(t, []string{"user:q", "bot:"}, texts(s.History()))

	_, ok := s.Advance(st.Token)
	require.False(t, ok)
}

func TestStaleTicksAreIgnored(t *testing.T) {
	s := New()
	require.NoError(t, s.Await())
	old := s.BeginReveal("abc")

	_, ok := s.Advance(old.Token)
	require.True(t, ok)
	require.Equal(t, "a", s.Live())

	// A second reply supersedes the first.
	cur := s.BeginReveal("xy")
	require.NotEqual(t, old.Token, cur.Token)

	_, ok = s.Advance(old.Token)
	require.False(t, ok)

	require.Equal(t, []string{"x", "xy"}, runAll(s, cur.Token))
	require.Equal(t, []string{"bot:abc", "bot:xy"}, texts(s.History()))
}

func TestSubmitWhileRevealingFlushes(t *testing.T) {
	s := New()
	require.NoError(t, s.Submit("one"))
	st := s.BeginReveal("first reply")
	s.Advance(st.Token)

	require.NoError(t, s.Submit("two"))
	require.Equal(t, PhaseAwaiting, s.Phase())
	require.Equal(t, []string{"user:one", "bot:first reply", "user:two"}, texts(s.History()))

	_, ok := s.Advance(st.Token)
	require.False(t, ok)
}

func TestTeardownDiscardsReveal(t *testing.T) {
	s := New()
	require.NoError(t, s.Submit("q"))
	st := s.BeginReveal("never shown in full")
	s.Advance(st.Token)

	s.Teardown()
	require.Equal(t, PhaseIdle, s.Phase())
	require.Equal(t, "", s.Live())
	require.Equal(t, []string{"user:q"}, texts(s.History()))

	_, ok := s.Advance(st.Token)
	require.False(t, ok)

	s.Teardown()
	require.Equal(t, PhaseIdle, s.Phase())
}

func TestTeardownWhileAwaiting(t *testing.T) {
	s := New()
	require.NoError(t, s.Submit("q"))
	s.Teardown()
	require.Equal(t, PhaseIdle, s.Phase())
	require.NoError(t, s.Submit("again"))
}

func TestRevealCountsGraphemes(t *testing.T) {
	s := New()
	st := s.BeginReveal("ok 👍🏽")
	require.Equal(t, 4, st.Len())
	frames := runAll(s, st.Token)
	require.Len(t, frames, 4)
	require.Equal(t, "ok 👍🏽", frames[3])
}

func TestHistoryIsACopy(t *testing.T) {
	s := New()
	require.NoError(t, s.Submit("q"))
	h := s.History()
	h[0].Text = "changed"
	require.Equal(t, "q", s.History()[0].Text)
	require.False(t, s.History()[0].At.IsZero())
}
