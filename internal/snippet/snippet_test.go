package snippet

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestFindContainsQuery(t *testing.T) {
	text := strings.Repeat(".", 50) + "needle" + strings.Repeat(".", 50)

	results := Find(text, "needle", 5)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if !strings.Contains(strings.ToLower(results[0]), "needle") {
		t.Errorf("snippet does not contain query: %q", results[0])
	}
}

func TestFindCaseInsensitive(t *testing.T) {
	results := Find("Hello World", "hello", 5)
	if len(results) != 1 {
		t.Fatalf("expected exactly 1 match, got %d", len(results))
	}
	if !strings.Contains(results[0], "Hello") {
		t.Errorf("snippet lost original casing: %q", results[0])
	}
}

func TestFindMatchCap(t *testing.T) {
	// 10 occurrences spaced beyond the window so each is a distinct match.
	text := strings.Repeat("needle "+strings.Repeat("x", 500)+" ", 10)

	results := Find(text, "needle", 3)
	if len(results) != 3 {
		t.Fatalf("expected 3 results with maxMatches=3, got %d", len(results))
	}
}

func TestFindDocumentOrder(t *testing.T) {
	text := "first ALPHA " + strings.Repeat("x", 500) + " second ALPHA " + strings.Repeat("y", 500) + " third ALPHA"

	results := Find(text, "alpha", 10)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if !strings.Contains(results[0], "first") {
		t.Errorf("result 0 should contain the first occurrence context: %q", results[0])
	}
	if !strings.Contains(results[2], "third") {
		t.Errorf("result 2 should contain the third occurrence context: %q", results[2])
	}
}

func TestFindEmptyQuery(t *testing.T) {
	if results := Find("some text", "", 5); len(results) != 0 {
		t.Errorf("empty query must return no matches, got %d", len(results))
	}
}

func TestFindNoMatch(t *testing.T) {
	if results := Find("some text", "absent", 5); len(results) != 0 {
		t.Errorf("expected no matches, got %d", len(results))
	}
}

func TestFindEllipsisOnlyWhenTruncated(t *testing.T) {
	// Short text: the window covers the whole text, so no ellipsis.
	short := Find("tiny needle here", "needle", 1)
	if len(short) != 1 {
		t.Fatalf("expected 1 result, got %d", len(short))
	}
	if strings.HasPrefix(short[0], "...") || strings.HasSuffix(short[0], "...") {
		t.Errorf("untruncated snippet must not carry ellipsis: %q", short[0])
	}

	// Long text: both sides truncated.
	long := strings.Repeat("a", 1000) + " needle " + strings.Repeat("b", 1000)
	results := Find(long, "needle", 1)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if !strings.HasPrefix(results[0], "...") {
		t.Errorf("expected leading ellipsis: %q", results[0][:20])
	}
	if !strings.HasSuffix(results[0], "...") {
		t.Errorf("expected trailing ellipsis: %q", results[0][len(results[0])-20:])
	}
}

func TestFindWindowBounds(t *testing.T) {
	long := strings.Repeat("a", 1000) + "needle" + strings.Repeat("b", 1000)

	results := Find(long, "needle", 1)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	// 160 before + len(query) + 240 after + two "..." affixes.
	maxLen := 160 + len("needle") + 240 + 6
	if len(results[0]) > maxLen {
		t.Errorf("snippet length %d exceeds window bound %d", len(results[0]), maxLen)
	}
}

func TestFindNonOverlapping(t *testing.T) {
	// "aaaa" contains three overlapping "aa" but only two non-overlapping.
	results := Find("aaaa", "aa", 10)
	if len(results) != 2 {
		t.Errorf("expected 2 non-overlapping matches, got %d", len(results))
	}
}

func TestFindFoldedRuneLengthChange(t *testing.T) {
	// U+023A lowercases to U+2C65, growing from two bytes to three, so match
	// offsets found in the folded text are not valid in the original.
	text := strings.Repeat("Ⱥ", 300)

	results := Find(text, "Ⱥ", 1000)
	if len(results) != 300 {
		t.Fatalf("expected 300 matches, got %d", len(results))
	}
	for i, s := range results {
		if !utf8.ValidString(s) {
			t.Fatalf("result %d is not valid UTF-8: %q", i, s)
		}
		if !strings.Contains(s, "Ⱥ") {
			t.Fatalf("result %d lost the matched rune: %q", i, s)
		}
	}
}

func TestFindWindowAlignedAfterFoldedRunes(t *testing.T) {
	// Length-changing runes before the match must not shift the window.
	text := "ȺȺȺ marker needle tail"

	results := Find(text, "NEEDLE", 1)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	want := "ȺȺȺ marker needle tail"
	if results[0] != want {
		t.Errorf("snippet misaligned:\ngot  %q\nwant %q", results[0], want)
	}
}

func TestFindCollapsesNewlines(t *testing.T) {
	results := Find("before\nneedle\nafter", "needle", 1)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if strings.Contains(results[0], "\n") {
		t.Errorf("snippet must not contain newlines: %q", results[0])
	}
	if results[0] != "before needle after" {
		t.Errorf("unexpected snippet: %q", results[0])
	}
}
