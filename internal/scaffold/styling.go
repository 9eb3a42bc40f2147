package scaffold

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var (
	hexColorRe   = regexp.MustCompile(`#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})\b`)
	fontFamilyRe = regexp.MustCompile(`font-family:\s*([^;}\n]+)`)
	cssVarRe     = regexp.MustCompile(`--([a-z0-9-]+)\s*:\s*([^;}\n]+)`)
)

// ConvertStyling converts raw styling notes or CSS into a structured
// STYLE_GUIDE.md under root and returns the content. Colors, fonts, and CSS
// custom properties are lifted into token tables; everything else is kept
// verbatim as reference notes.
func ConvertStyling(root, raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("styling input cannot be empty")
	}

	var b strings.Builder
	b.WriteString("# Style Guide\n\n")

	if vars := cssVarRe.FindAllStringSubmatch(raw, -1); len(vars) > 0 {
		b.WriteString("## Design tokens\n\n")
		b.WriteString("| Token | Value |\n|---|---|\n")
		for _, m := range vars {
			b.WriteString(fmt.Sprintf("| `--%s` | `%s` |\n", m[1], strings.TrimSpace(m[2])))
		}
		b.WriteString("\n")
	}

	if colors := dedupeSorted(hexColorRe.FindAllString(raw, -1)); len(colors) > 0 {
		b.WriteString("## Colors\n\n")
		for _, c := range colors {
			b.WriteString("- `" + c + "`\n")
		}
		b.WriteString("\n")
	}

	if fonts := fontFamilyRe.FindAllStringSubmatch(raw, -1); len(fonts) > 0 {
		b.WriteString("## Typography\n\n")
		seen := make(map[string]bool)
		for _, m := range fonts {
			family := strings.TrimSpace(m[1])
			if !seen[family] {
				seen[family] = true
				b.WriteString("- " + family + "\n")
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("## Source notes\n\n")
	b.WriteString("```\n")
	b.WriteString(strings.TrimSpace(raw))
	b.WriteString("\n```\n")

	content := b.String()
	if err := os.WriteFile(filepath.Join(root, StyleFileName), []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", StyleFileName, err)
	}
	return content, nil
}

// dedupeSorted lowercases, deduplicates, and sorts the given values.
func dedupeSorted(values []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range values {
		v = strings.ToLower(v)
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
