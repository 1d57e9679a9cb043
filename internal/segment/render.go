package segment

import "strings"

// Styler decorates each kind of span. Nil functions leave the content as is.
type Styler struct {
	Plain  func(string) string
	Inline func(string) string
	Block  func(string) string
}

// Render rewrites text span by span with st. Inline math stays in the line;
// block math is trimmed and set on its own line.
func Render(text string, st Styler) string {
	var b strings.Builder
	for span := range All(text) {
		switch span.Kind {
		case InlineMath:
			b.WriteString(apply(st.Inline, span.Content))
		case BlockMath:
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
				b.WriteString("\n")
			}
			b.WriteString(apply(st.Block, strings.TrimSpace(span.Content)))
			b.WriteString("\n")
		default:
			b.WriteString(apply(st.Plain, span.Content))
		}
	}
	return b.String()
}

func apply(fn func(string) string, s string) string {
	if fn == nil {
		return s
	}
	return fn(s)
}
