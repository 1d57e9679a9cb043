// Package reveal implements the typing animation for bot replies.
//
// A Typing value holds the text being revealed and how much of it is
// visible. A reveal unit is one grapheme cluster, so accented letters and
// emoji never appear half-drawn. The Revealer drives a Typing forward on a
// fixed per-step delay through a Scheduler and guarantees that only one
// run is active at a time.
package reveal

import "github.com/rivo/uniseg"

// Typing is the transient state of one reveal run. It is a value type:
// Advance returns the next state instead of mutating the receiver.
type Typing struct {
	FullText string
	Revealed int
	Token    uint64

	// bounds[i] is the byte offset just past unit i.
	bounds []int
}

// NewTyping prepares text for revealing under the given run token.
func NewTyping(text string, token uint64) Typing {
	return Typing{
		FullText: text,
		Token:    token,
		bounds:   unitBounds(text),
	}
}

// Len is the number of reveal units in the full text.
func (t Typing) Len() int {
	return len(t.bounds)
}

// Prefix returns the currently visible part of the text.
func (t Typing) Prefix() string {
	if t.Revealed <= 0 {
		return ""
	}
	return t.FullText[:t.bounds[t.Revealed-1]]
}

// Complete reports whether every unit is visible.
func (t Typing) Complete() bool {
	return t.Revealed >= t.Len()
}

// Advance reveals one more unit. A complete Typing is returned unchanged.
func (t Typing) Advance() Typing {
	if t.Complete() {
		return t
	}
	t.Revealed++
	return t
}

// unitBounds returns the end offset of every grapheme cluster in s.
func unitBounds(s string) []int {
	if s == "" {
		return nil
	}
	bounds := make([]int, 0, len(s))
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		_, end := g.Positions()
		bounds = append(bounds, end)
	}
	return bounds
}

// Units returns the number of reveal units in s.
func Units(s string) int {
	return uniseg.GraphemeClusterCount(s)
}
