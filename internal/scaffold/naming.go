package scaffold

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// namingFiles are the config files update-app-naming touches when present.
var namingFiles = []string{"app.json", "package.json"}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify converts a display name into a lowercase kebab-case identifier.
func Slugify(name string) string {
	slug := slugRe.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}

// RenameApp merges the new app identifiers into the project's config files.
// displayName defaults to newName; the package slug is derived from newName.
// Only files that exist under root are touched; each is JSON-merged, not
// rewritten, so unrelated fields survive. Returns the list of updated files.
func RenameApp(root, newName, displayName string) ([]string, error) {
	if strings.TrimSpace(newName) == "" {
		return nil, fmt.Errorf("new app name cannot be empty")
	}
	if displayName == "" {
		displayName = newName
	}
	slug := Slugify(newName)
	if slug == "" {
		return nil, fmt.Errorf("app name %q produces an empty slug", newName)
	}

	var updated []string
	for _, name := range namingFiles {
		path := filepath.Join(root, name)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		if err := mergeNaming(path, name, slug, displayName); err != nil {
			return updated, fmt.Errorf("failed to update %s: %w", name, err)
		}
		updated = append(updated, name)
	}

	if len(updated) == 0 {
		return nil, fmt.Errorf("no config files found under %s (looked for %s)", root, strings.Join(namingFiles, ", "))
	}
	return updated, nil
}

// mergeNaming JSON-merges the naming fields for one config file.
func mergeNaming(path, fileName, slug, displayName string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	switch fileName {
	case "package.json":
		doc["name"] = slug
	case "app.json":
		// Expo-style app.json nests under "expo"; plain app.json keeps
		// fields at the top level.
		if expo, ok := doc["expo"].(map[string]any); ok {
			expo["name"] = displayName
			expo["slug"] = slug
			doc["expo"] = expo
		} else {
			doc["name"] = displayName
			doc["slug"] = slug
		}
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	out = append(out, '\n')
	return os.WriteFile(path, out, 0o644)
}
