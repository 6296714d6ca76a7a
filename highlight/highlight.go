// Package highlight splits message text into plain and highlighted segments.
//
// A highlighted span is text wrapped in '#' delimiters, as in "plain #loud#
// text". Spans do not nest, the delimiters are dropped from the output, and a
// delimiter without a partner is kept as literal text.
package highlight

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Delimiter opens and closes a highlighted span.
const Delimiter = '#'

var spanPattern = regexp.MustCompile(`#([^#]+)#`)

// Segment is a run of text, highlighted or not.
type Segment struct {
	Text        string
	Highlighted bool
}

// Format splits text into segments in their original order.
func Format(text string) []Segment {
	matches := spanPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		if text == "" {
			return nil
		}
		return []Segment{{Text: text}}
	}

	segs := make([]Segment, 0, 2*len(matches)+1)
	last := 0
	for _, m := range matches {
		if m[0] > last {
			segs = append(segs, Segment{Text: text[last:m[0]]})
		}
		segs = append(segs, Segment{Text: text[m[2]:m[3]], Highlighted: true})
		last = m[1]
	}
	if last < len(text) {
		segs = append(segs, Segment{Text: text[last:]})
	}
	return segs
}

// Plain joins segments back into text without delimiters.
func Plain(segs []Segment) string {
	var b strings.Builder
	for _, s := range segs {
		b.WriteString(s.Text)
	}
	return b.String()
}

// DefaultStyle renders highlighted spans in bold.
var DefaultStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))

// Render formats text for the terminal, styling highlighted spans with style.
func Render(text string, style lipgloss.Style) string {
	var b strings.Builder
	for _, s := range Format(text) {
		if s.Highlighted {
			b.WriteString(style.Render(s.Text))
		} else {
			b.WriteString(s.Text)
		}
	}
	return b.String()
}
