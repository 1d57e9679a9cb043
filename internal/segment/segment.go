// Package segment splits chat text into plain-text and math-notation spans.
//
// Recognized math delimiters:
//
//	\( ... \)   inline math
//	\[ ... \]   block math
//	$$ ... $$   block math
//	$ ... $     inline math
//
// The scan runs left to right. At each position the alternatives are tried
// in the fixed order $$, $, \(, \[ and the first one that closes wins, so
// "$$" always beats "$" at the same offset. Closers are non-greedy and a
// math span never crosses a line break (CR, LF, U+2028 or U+2029). Openers
// without a closer on the same line are left in the surrounding plain text.
package segment

import (
	"iter"
	"strings"
)

// Kind labels a span.
type Kind int

const (
	Plain Kind = iota
	InlineMath
	BlockMath
)

func (k Kind) String() string {
	switch k {
	case InlineMath:
		return "inline-math"
	case BlockMath:
		return "block-math"
	default:
		return "plain"
	}
}

// Span is a contiguous labeled piece of a message. Open and Close hold the
// delimiters that were stripped from Content; both are empty for Plain.
type Span struct {
	Kind    Kind
	Content string
	Open    string
	Close   string
}

// IsMath reports whether the span holds math notation.
func (s Span) IsMath() bool {
	return s.Kind != Plain
}

// String returns the span with its delimiters reinserted.
func (s Span) String() string {
	return s.Open + s.Content + s.Close
}

// delimiter is one recognized opener/closer pair, in precedence order.
type delimiter struct {
	open, close string
	kind        Kind
}

// lineBreaks are the characters a math span cannot contain.
const lineBreaks = "\r\n\u2028\u2029"

var delimiters = []delimiter{
	{"$$", "$$", BlockMath},
	{"$", "$", InlineMath},
	{`\(`, `\)`, InlineMath},
	{`\[`, `\]`, BlockMath},
}

// All returns the spans of text in source order. The sequence is lazy and
// can be ranged over any number of times.
func All(text string) iter.Seq[Span] {
	return func(yield func(Span) bool) {
		plainStart := 0
		pos := 0
		for pos < len(text) {
			i := strings.IndexAny(text[pos:], `$\`)
			if i < 0 {
				break
			}
			at := pos + i

			d, content, end, ok := matchAt(text, at)
			if !ok {
				pos = at + 1
				continue
			}

			if at > plainStart {
				if !yield(Span{Kind: Plain, Content: text[plainStart:at]}) {
					return
				}
			}
			if content != "" {
				if !yield(Span{Kind: d.kind, Content: content, Open: d.open, Close: d.close}) {
					return
				}
			}
			pos = end
			plainStart = end
		}

		if plainStart < len(text) {
			yield(Span{Kind: Plain, Content: text[plainStart:]})
		}
	}
}

// Split collects All(text) into a slice.
func Split(text string) []Span {
	var spans []Span
	for sp := range All(text) {
		spans = append(spans, sp)
	}
	return spans
}

// Join reassembles spans into source text, delimiters included.
func Join(spans []Span) string {
	var b strings.Builder
	for _, sp := range spans {
		b.WriteString(sp.String())
	}
	return b.String()
}

// HasMath reports whether text contains at least one math span.
func HasMath(text string) bool {
	for sp := range All(text) {
		if sp.IsMath() {
			return true
		}
	}
	return false
}

// matchAt tries every delimiter at offset at. It returns the matched
// delimiter, the stripped content and the offset just past the closer.
func matchAt(text string, at int) (delimiter, string, int, bool) {
	for _, d := range delimiters {
		if !strings.HasPrefix(text[at:], d.open) {
			continue
		}
		bodyStart := at + len(d.open)
		rest := text[bodyStart:]

		j := strings.Index(rest, d.close)
		if j < 0 {
			continue
		}
		if nl := strings.IndexAny(rest, lineBreaks); nl >= 0 && nl < j {
			continue
		}
		return d, rest[:j], bodyStart + j + len(d.close), true
	}
	return delimiter{}, "", 0, false
}
