package scaffold

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/appscaffold/guides-mcp-server/internal/guides"
)

// BuildTodo derives a TODO document from the project checklist, writes it to
// TODO.md under the context root, and returns the content. Missing checklist
// items become unchecked tasks; answered ones are recorded as done.
func BuildTodo(ctx *Context, store *guides.Store) (string, error) {
	items := BuildChecklist(ctx)

	var b strings.Builder
	b.WriteString("# Project TODO\n\n")
	b.WriteString(fmt.Sprintf("Generated %s from %s.\n\n", time.Now().Format("2006-01-02"), InfoFileName))

	b.WriteString("## Open\n\n")
	open := 0
	for _, item := range items {
		if item.Status != StatusMissing {
			continue
		}
		open++
		b.WriteString(fmt.Sprintf("- [ ] **%s** — %s\n", item.Title, item.Question))
		if item.AnswerHint != "" {
			b.WriteString(fmt.Sprintf("  - Hint: %s\n", item.AnswerHint))
		}
		for _, gid := range item.GuideIDs {
			if spec, ok := store.Get(gid); ok {
				b.WriteString(fmt.Sprintf("  - See guide: %s (%s)\n", spec.Title, spec.ID))
			}
		}
	}
	if open == 0 {
		b.WriteString("Nothing open. All preflight questions are answered.\n")
	}

	b.WriteString("\n## Done\n\n")
	done := 0
	for _, item := range items {
		if item.Status != StatusAnswered {
			continue
		}
		done++
		b.WriteString(fmt.Sprintf("- [x] **%s**", item.Title))
		if item.Evidence != "" {
			b.WriteString(fmt.Sprintf(" — %q", item.Evidence))
		}
		b.WriteString("\n")
	}
	if done == 0 {
		b.WriteString("Nothing answered yet.\n")
	}

	content := b.String()
	if err := os.WriteFile(filepath.Join(ctx.Root, TodoFileName), []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", TodoFileName, err)
	}
	return content, nil
}

// BuildInstructions regenerates the agent-instructions file from the project
// context and the guide registry, writes it under the context root, and
// returns the content.
func BuildInstructions(ctx *Context, store *guides.Store) (string, error) {
	var b strings.Builder
	b.WriteString("# Project Instructions\n\n")

	if len(ctx.Platforms) > 0 {
		b.WriteString("Target platforms: " + strings.Join(ctx.Platforms, ", ") + "\n\n")
	}

	if ctx.Info != "" {
		b.WriteString("## Project Notes\n\n")
		b.WriteString(strings.TrimSpace(ctx.Info))
		b.WriteString("\n\n")
	}

	if ctx.Style != "" {
		b.WriteString("## Styling\n\n")
		b.WriteString(strings.TrimSpace(ctx.Style))
		b.WriteString("\n\n")
	}

	b.WriteString("## Guides\n\n")
	b.WriteString("Consult these before inventing a pattern:\n\n")
	for _, spec := range store.List() {
		b.WriteString(fmt.Sprintf("- `%s` — %s: %s\n", spec.ID, spec.Title, spec.Description))
	}

	content := b.String()
	if err := os.WriteFile(filepath.Join(ctx.Root, InstructionsFileName), []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", InstructionsFileName, err)
	}
	return content, nil
}

// BuildReadme regenerates README.md under the context root from the project
// context, preserving nothing of the previous file, and returns the content.
func BuildReadme(ctx *Context, appName string) (string, error) {
	if appName == "" {
		appName = filepath.Base(ctx.Root)
	}

	var b strings.Builder
	b.WriteString("# " + appName + "\n\n")

	summary := firstParagraph(ctx.Info)
	if summary != "" {
		b.WriteString(summary + "\n\n")
	}

	if len(ctx.Platforms) > 0 {
		b.WriteString("**Platforms:** " + strings.Join(ctx.Platforms, ", ") + "\n\n")
	}

	b.WriteString("## Getting started\n\n")
	b.WriteString("```sh\nnpm install\nnpm run start\n```\n\n")
	b.WriteString("## Project documents\n\n")
	b.WriteString(fmt.Sprintf("- `%s` — structured project notes\n", InfoFileName))
	b.WriteString(fmt.Sprintf("- `%s` — working checklist\n", TodoFileName))
	b.WriteString(fmt.Sprintf("- `%s` — agent instructions\n", InstructionsFileName))

	content := b.String()
	if err := os.WriteFile(filepath.Join(ctx.Root, "README.md"), []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write README.md: %w", err)
	}
	return content, nil
}

// firstParagraph returns the first non-heading paragraph of markdown text.
func firstParagraph(md string) string {
	var lines []string
	for _, line := range strings.Split(md, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if len(lines) > 0 {
				break
			}
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, strings.TrimPrefix(line, "- "))
	}
	return strings.Join(lines, " ")
}
