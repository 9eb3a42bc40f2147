package htmltext

import (
	"strings"
	"testing"
)

func TestReduceStripsScriptAndStyle(t *testing.T) {
	raw := `<html><head><style>body{color:red}</style></head><body><script>var x = 1;</script><p>visible</p></body></html>`

	text := Reduce(raw)
	if strings.Contains(text, "var x") {
		t.Errorf("script content leaked into text: %q", text)
	}
	if strings.Contains(text, "color:red") {
		t.Errorf("style content leaked into text: %q", text)
	}
	if !strings.Contains(text, "visible") {
		t.Errorf("body text lost: %q", text)
	}
}

func TestReduceBlockBoundaries(t *testing.T) {
	raw := `<div>first</div><div>second</div>`

	text := Reduce(raw)
	if !strings.Contains(text, "first") || !strings.Contains(text, "second") {
		t.Fatalf("block text lost: %q", text)
	}
	if strings.Contains(text, "firstsecond") {
		t.Errorf("adjacent blocks ran together: %q", text)
	}
}

func TestReduceListItems(t *testing.T) {
	raw := `<ul><li>alpha</li><li>beta</li></ul>`

	text := Reduce(raw)
	if !strings.Contains(text, "- alpha") {
		t.Errorf("expected bulleted item, got %q", text)
	}
	if !strings.Contains(text, "- beta") {
		t.Errorf("expected bulleted item, got %q", text)
	}
}

func TestReduceLineBreaks(t *testing.T) {
	text := Reduce(`line one<br>line two`)
	if !strings.Contains(text, "line one\nline two") {
		t.Errorf("br not converted to newline: %q", text)
	}
}

func TestReducePlainTextPassthrough(t *testing.T) {
	// Non-HTML input survives as text.
	text := Reduce("just plain words")
	if text != "just plain words" {
		t.Errorf("plain text mangled: %q", text)
	}
}

func TestReduceCollapsesWhitespace(t *testing.T) {
	text := Reduce("<p>a   lot    of\t spaces</p>")
	if strings.Contains(text, "  ") {
		t.Errorf("runs of spaces survived: %q", text)
	}
	if strings.Contains(text, "\n\n\n") {
		t.Errorf("runs of blank lines survived: %q", text)
	}
}

func TestReduceEmpty(t *testing.T) {
	if text := Reduce(""); text != "" {
		t.Errorf("expected empty output, got %q", text)
	}
}
