package segment

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []Span
	}{
		{
			name: "inline dollar",
			in:   "The answer is $x^2$",
			want: []Span{
				{Kind: Plain, Content: "The answer is "},
				{Kind: InlineMath, Content: "x^2", Open: "$", Close: "$"},
			},
		},
		{
			name: "double dollar beats single",
			in:   "$$E=mc^2$$ done",
			want: []Span{
				{Kind: BlockMath, Content: "E=mc^2", Open: "$$", Close: "$$"},
				{Kind: Plain, Content: " done"},
			},
		},
		{
			name: "backslash paren and bracket",
			in:   `a \(b\) c \[d\]`,
			want: []Span{
				{Kind: Plain, Content: "a "},
				{Kind: InlineMath, Content: "b", Open: `\(`, Close: `\)`},
				{Kind: Plain, Content: " c "},
				{Kind: BlockMath, Content: "d", Open: `\[`, Close: `\]`},
			},
		},
		{
			name: "unterminated dollar stays plain",
			in:   "costs $5 today",
			want: []Span{{Kind: Plain, Content: "costs $5 today"}},
		},
		{
			name: "math does not cross a newline",
			in:   "$a\nb$",
			want: []Span{{Kind: Plain, Content: "$a\nb$"}},
		},
		{
			name: "math does not cross a line separator",
			in:   "$a\u2028b$",
			want: []Span{{Kind: Plain, Content: "$a\u2028b$"}},
		},
		{
			name: "math does not cross a paragraph separator",
			in:   `\(a` + "\u2029" + `b\)`,
			want: []Span{{Kind: Plain, Content: `\(a` + "\u2029" + `b\)`}},
		},
		{
			name: "empty math is dropped",
			in:   "x $$ y",
			want: []Span{
				{Kind: Plain, Content: "x "},
				{Kind: Plain, Content: " y"},
			},
		},
		{
			name: "adjacent math",
			in:   "$a$$b$",
			want: []Span{
				{Kind: InlineMath, Content: "a", Open: "$", Close: "$"},
				{Kind: InlineMath, Content: "b", Open: "$", Close: "$"},
			},
		},
		{
			name: "lone backslash",
			in:   `C:\path`,
			want: []Span{{Kind: Plain, Content: `C:\path`}},
		},
		{
			name: "empty input",
			in:   "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Split(tt.in))
		})
	}
}

func TestJoinReconstructsBalancedInput(t *testing.T) {
	inputs := []string{
		"The answer is $x^2$",
		`Use \(\frac{a}{b}\) then \[\int_0^1 x\,dx\] and $$\sum_i i$$.`,
		"plain only",
		"$a$ and $b$ and $$c$$",
		"multi\nline $x$\nstill plain",
		"ΔT = $\\frac{1}{2}$ × 0.1",
	}
	for _, in := range inputs {
		require.Equal(t, in, Join(Split(in)), "input %q", in)
	}
}

func TestAllIsRestartable(t *testing.T) {
	seq := All("one $two$ three")

	var first, second []Span
	for sp := range seq {
		first = append(first, sp)
	}
	for sp := range seq {
		second = append(second, sp)
	}
	require.Len(t, first, 3)
	require.Equal(t, first, second)
}

func TestAllStopsEarly(t *testing.T) {
	n := 0
	for range All("a $b$ c $d$ e") {
		n++
		if n == 2 {
			break
		}
	}
	require.Equal(t, 2, n)
}

func TestHasMath(t *testing.T) {
	require.True(t, HasMath(`see \(x\)`))
	require.False(t, HasMath("price is $5"))
}

func TestKindString(t *testing.T) {
	require.Equal(t, "plain", Plain.String())
	require.Equal(t, "inline-math", InlineMath.String())
	require.Equal(t, "block-math", BlockMath.String())
}
