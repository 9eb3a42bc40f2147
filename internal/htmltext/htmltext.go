// Package htmltext provides HTML-to-text reduction for fetched documentation
// pages, producing normalized plain text suitable for substring search.
package htmltext

import (
	"strings"

	"golang.org/x/net/html"
)

// blockTags are element names whose end marks a line break in the reduced text.
var blockTags = map[string]bool{
	"p": true, "div": true, "section": true, "article": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"li": true, "tr": true, "table": true, "ul": true, "ol": true,
	"blockquote": true, "pre": true, "header": true, "footer": true,
}

// skippedTags are elements whose entire subtree is dropped, payload included.
var skippedTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "iframe": true,
	"svg": true, "head": true,
}

// Reduce converts raw HTML into normalized plain text.
//
// The output is guaranteed to contain no tags and no script or style payloads.
// Block-level elements and <br> become newlines, list items become "- " bullet
// lines, runs of horizontal whitespace collapse to a single space, and runs of
// three or more newlines collapse to exactly two. Malformed or unclosed markup
// is tolerated: the underlying parser repairs what it can and never fails on
// real-world input.
func Reduce(raw string) string {
	root, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		// html.Parse only fails on reader errors, which strings.Reader
		// never produces. Fall back to the raw input stripped of nothing.
		return normalize(raw)
	}

	var b strings.Builder
	walk(root, &b)
	return normalize(b.String())
}

// walk appends the text content of n and its children to b, inserting the
// line-break and bullet markers that Reduce promises.
func walk(n *html.Node, b *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		if skippedTags[n.Data] {
			return
		}
		if n.Data == "br" {
			b.WriteString("\n")
			return
		}
		if n.Data == "li" {
			b.WriteString("\n- ")
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, b)
	}

	if n.Type == html.ElementNode && blockTags[n.Data] {
		b.WriteString("\n")
	}
}

// normalize collapses horizontal whitespace runs to one space, trims each
// line, collapses 3+ consecutive newlines to exactly 2, and trims the result.
func normalize(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blanks := 0
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			blanks++
			if blanks >= 2 || len(out) == 0 {
				continue
			}
		} else {
			blanks = 0
		}
		out = append(out, line)
	}
	// Drop a trailing blank kept by the loop above.
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}
