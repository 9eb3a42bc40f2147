// Package guides provides read access to the fixed set of local Markdown
// guides, each exposed under a stable id with a title and description.
package guides

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Spec is an immutable registry entry mapping a guide id to a file on disk.
type Spec struct {
	ID          string
	Title       string
	FileName    string
	Description string
}

// meta is the optional YAML frontmatter a guide file may carry. When present
// it overrides the registry title/description for that guide.
type meta struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// Guide is a loaded guide: its registry spec plus the Markdown body with any
// frontmatter stripped.
type Guide struct {
	Spec
	Content string
}

// Store provides leaf-level read access to the guide registry. The registry
// is static; file contents are read per request so edits on disk show up
// without a restart.
type Store struct {
	baseDir string
	order   []string
	specs   map[string]Spec
}

// NewStore creates a store rooted at baseDir with the given registry.
func NewStore(baseDir string, specs []Spec) *Store {
	s := &Store{baseDir: baseDir, specs: make(map[string]Spec, len(specs))}
	for _, spec := range specs {
		if _, seen := s.specs[spec.ID]; !seen {
			s.order = append(s.order, spec.ID)
		}
		s.specs[spec.ID] = spec
	}
	return s
}

// List returns every registered guide spec in registration order.
func (s *Store) List() []Spec {
	out := make([]Spec, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.specs[id])
	}
	return out
}

// Get returns the registry spec for id.
func (s *Store) Get(id string) (Spec, bool) {
	spec, ok := s.specs[id]
	return spec, ok
}

// Read loads the guide registered under id. Missing ids and missing files are
// ordinary errors for the caller to surface, never panics.
func (s *Store) Read(id string) (*Guide, error) {
	spec, ok := s.specs[id]
	if !ok {
		return nil, fmt.Errorf("unknown guide id: %s", id)
	}

	raw, err := os.ReadFile(filepath.Join(s.baseDir, spec.FileName))
	if err != nil {
		return nil, fmt.Errorf("failed to read guide %s: %w", id, err)
	}

	var fm meta
	body, err := frontmatter.Parse(bytes.NewReader(raw), &fm)
	if err != nil {
		// Guides without valid frontmatter are served as-is.
		body = raw
	}

	guide := &Guide{Spec: spec, Content: string(body)}
	if fm.Title != "" {
		guide.Title = fm.Title
	} else if guide.Title == "" {
		guide.Title = firstHeading(body)
	}
	if fm.Description != "" {
		guide.Description = fm.Description
	}
	return guide, nil
}

// firstHeading returns the text of the first Markdown heading in body, or "".
func firstHeading(body []byte) string {
	parser := goldmark.DefaultParser()
	root := parser.Parse(text.NewReader(body))

	var heading string
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := n.(*ast.Heading); ok {
			var buf bytes.Buffer
			for c := h.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					buf.Write(t.Segment.Value(body))
				}
			}
			heading = buf.String()
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return heading
}

// DefaultSpecs returns the built-in guide registry.
func DefaultSpecs() []Spec {
	return []Spec{
		{
			ID:          "project-setup",
			Title:       "Project Setup",
			FileName:    "project-setup.md",
			Description: "Bootstrapping a new app: tooling, directory layout, and first-run checklist.",
		},
		{
			ID:          "navigation",
			Title:       "Navigation Patterns",
			FileName:    "navigation.md",
			Description: "Stack, tab, and modal navigation structure with typed routes.",
		},
		{
			ID:          "styling",
			Title:       "Styling Conventions",
			FileName:    "styling.md",
			Description: "Design tokens, theming, and component styling conventions.",
		},
		{
			ID:          "data-fetching",
			Title:       "Data Fetching",
			FileName:    "data-fetching.md",
			Description: "Server state, caching, and mutation patterns for API-backed screens.",
		},
		{
			ID:          "forms-validation",
			Title:       "Forms and Validation",
			FileName:    "forms-validation.md",
			Description: "Form state handling and schema validation for user input.",
		},
		{
			ID:          "release-checklist",
			Title:       "Release Checklist",
			FileName:    "release-checklist.md",
			Description: "Pre-release verification: naming, icons, builds, store metadata.",
		},
	}
}
