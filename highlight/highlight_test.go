package highlight

import (
	"reflect"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		in   string
		want []Segment
	}{
		{"plain #loud# text", []Segment{{Text: "plain "}, {Text: "loud", Highlighted: true}, {Text: " text"}}},
		{"no match", []Segment{{Text: "no match"}}},
		{"#unterminated", []Segment{{Text: "#unterminated"}}},
		{"#whole#", []Segment{{Text: "whole", Highlighted: true}}},
		{"#a# and #b#", []Segment{{Text: "a", Highlighted: true}, {Text: " and "}, {Text: "b", Highlighted: true}}},
		{"x #a# #tail", []Segment{{Text: "x "}, {Text: "a", Highlighted: true}, {Text: " #tail"}}},
		{"empty ## span", []Segment{{Text: "empty ## span"}}},
		{"###", []Segment{{Text: "###"}}},
		{"#a##b#", []Segment{{Text: "a", Highlighted: true}, {Text: "b", Highlighted: true}}},
		{"#multi\nline#", []Segment{{Text: "multi\nline", Highlighted: true}}},
		{"", nil},
	}
	for _, tt := range tests {
		got := Format(tt.in)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Format(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestPlainDropsOnlyMatchedDelimiters(t *testing.T) {
	tests := map[string]string{
		"plain #loud# text": "plain loud text",
		"#unterminated":     "#unterminated",
		"a #b# #c":          "a b #c",
	}
	for in, want := range tests {
		if got := Plain(Format(in)); got != want {
			t.Errorf("Plain(Format(%q)) = %q, want %q", in, got, want)
		}
	}
}

func TestRenderStylesHighlightedSpans(t *testing.T) {
	style := lipgloss.NewStyle().Bold(true)
	got := Render("say #hi# now", style)
	if !strings.HasPrefix(got, "say ") || !strings.HasSuffix(got, " now") {
		t.Fatalf("Render() = %q, want plain text kept around the span", got)
	}
	if strings.Contains(got, "#") {
		t.Fatalf("Render() = %q, delimiters should be removed", got)
	}
	if !strings.Contains(got, "hi") {
		t.Fatalf("Render() = %q, want highlighted text", got)
	}
}
