// Package snippet extracts bounded context windows around case-insensitive
// query matches in normalized plain text.
package snippet

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// beforeWindow is the maximum number of characters kept before a match.
	beforeWindow = 160
	// afterWindow is the maximum number of characters kept after a match.
	afterWindow = 240
)

// Find scans text for case-insensitive occurrences of query and returns at
// most maxMatches context windows, in left-to-right document order.
//
// Matches are non-overlapping: each scan resumes immediately after the end of
// the previous match, so overlapping occurrences of the query are not all
// returned.
//
// Each window spans up to 160 characters before and 240 characters after the
// match, prefixed/suffixed with "..." when truncated by a text boundary, with
// internal newlines collapsed to spaces. An empty query yields no matches.
func Find(text, query string, maxMatches int) []string {
	if query == "" || maxMatches <= 0 {
		return nil
	}

	// Lowercasing can change byte lengths (e.g. U+023A is two bytes, its
	// lowercase U+2C65 is three), so offsets found in the folded text are
	// mapped back to byte positions valid in the original before slicing.
	lowerText, offsets := foldWithOffsets(text)
	lowerQuery := strings.ToLower(query)

	var results []string
	pos := 0
	for len(results) < maxMatches {
		idx := strings.Index(lowerText[pos:], lowerQuery)
		if idx < 0 {
			break
		}
		idx += pos
		matchEnd := idx + len(lowerQuery)

		origStart := offsets[idx]
		origEnd := len(text)
		if matchEnd < len(offsets) {
			origEnd = offsets[matchEnd]
		}

		start := origStart - beforeWindow
		if start < 0 {
			start = 0
		}
		for start > 0 && !utf8.RuneStart(text[start]) {
			start--
		}
		end := origEnd + afterWindow
		if end > len(text) {
			end = len(text)
		}
		for end < len(text) && !utf8.RuneStart(text[end]) {
			end++
		}

		window := text[start:end]
		window = strings.Join(strings.Fields(window), " ")
		if start > 0 {
			window = "..." + window
		}
		if end < len(text) {
			window = window + "..."
		}
		results = append(results, window)

		pos = matchEnd
	}

	return results
}

// foldWithOffsets lowercases text rune by rune and records, for every byte of
// the folded result, the byte offset in the original text of the rune that
// produced it.
func foldWithOffsets(text string) (string, []int) {
	var b strings.Builder
	b.Grow(len(text))
	offsets := make([]int, 0, len(text))
	for i, r := range text {
		lr := unicode.ToLower(r)
		n := b.Len()
		b.WriteRune(lr)
		for ; n < b.Len(); n++ {
			offsets = append(offsets, i)
		}
	}
	return b.String(), offsets
}
