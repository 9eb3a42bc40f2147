// Package scaffold provides the project-context reader and the scaffolding
// helpers that turn raw project notes into structured Markdown, checklists,
// and config updates.
package scaffold

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// InfoFileName is the structured project notes file under the project root.
	InfoFileName = "PROJECT_INFO.md"
	// StyleFileName is the optional styling notes file under the project root.
	StyleFileName = "STYLE_GUIDE.md"
	// InstructionsFileName is the generated agent-instructions file.
	InstructionsFileName = "PROJECT_INSTRUCTIONS.md"
	// TodoFileName is the generated TODO document.
	TodoFileName = "TODO.md"
)

// Context holds the coarse attributes read from a downstream project's info
// and style files. Both files are optional; absent files leave empty fields.
type Context struct {
	Root      string
	Info      string
	Style     string
	Platforms []string
}

// platformTags maps keywords found in the info text to platform tags.
var platformTags = []struct{ keyword, tag string }{
	{"ios", "ios"},
	{"iphone", "ios"},
	{"ipad", "ios"},
	{"android", "android"},
	{"web", "web"},
	{"browser", "web"},
	{"desktop", "desktop"},
	{"electron", "desktop"},
}

// LoadContext reads the optional info and style files under root and infers
// platform tags from the info text. Missing files are not errors.
func LoadContext(root string) (*Context, error) {
	if root == "" {
		return nil, fmt.Errorf("project root cannot be empty")
	}

	ctx := &Context{Root: root}

	info, err := os.ReadFile(filepath.Join(root, InfoFileName))
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read %s: %w", InfoFileName, err)
	}
	ctx.Info = string(info)

	style, err := os.ReadFile(filepath.Join(root, StyleFileName))
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read %s: %w", StyleFileName, err)
	}
	ctx.Style = string(style)

	ctx.Platforms = inferPlatforms(ctx.Info)
	return ctx, nil
}

// inferPlatforms scans lowercased info text for platform keywords,
// deduplicating tags in keyword-table order.
func inferPlatforms(info string) []string {
	lower := strings.ToLower(info)
	seen := make(map[string]bool)
	var tags []string
	for _, pt := range platformTags {
		if seen[pt.tag] {
			continue
		}
		if containsWord(lower, pt.keyword) {
			seen[pt.tag] = true
			tags = append(tags, pt.tag)
		}
	}
	return tags
}

// containsWord reports whether text contains keyword bounded by
// non-alphanumeric characters.
func containsWord(text, keyword string) bool {
	start := 0
	for {
		idx := strings.Index(text[start:], keyword)
		if idx < 0 {
			return false
		}
		idx += start
		end := idx + len(keyword)
		beforeOK := idx == 0 || !isWordByte(text[idx-1])
		afterOK := end == len(text) || !isWordByte(text[end])
		if beforeOK && afterOK {
			return true
		}
		start = idx + 1
	}
}

func isWordByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}

// IngestNotes converts raw free-form project notes into a structured
// PROJECT_INFO.md under root and returns the written content. Lines that look
// like headings become sections; everything else becomes bullet points under
// the most recent section.
func IngestNotes(root, notes string) (string, error) {
	if strings.TrimSpace(notes) == "" {
		return "", fmt.Errorf("project notes cannot be empty")
	}

	var b strings.Builder
	b.WriteString("# Project Info\n\n")

	sectionOpen := false
	for _, line := range strings.Split(notes, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "#"):
			b.WriteString("\n## " + strings.TrimSpace(strings.TrimLeft(line, "# ")) + "\n\n")
			sectionOpen = true
		case strings.HasSuffix(line, ":") && len(strings.Fields(line)) <= 4:
			b.WriteString("\n## " + strings.TrimSuffix(line, ":") + "\n\n")
			sectionOpen = true
		default:
			if !sectionOpen {
				b.WriteString("\n## Overview\n\n")
				sectionOpen = true
			}
			line = strings.TrimPrefix(line, "- ")
			line = strings.TrimPrefix(line, "* ")
			b.WriteString("- " + line + "\n")
		}
	}

	content := b.String()
	path := filepath.Join(root, InfoFileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", InfoFileName, err)
	}
	return content, nil
}
