package scaffold

import (
	"regexp"
	"strings"
)

// ItemStatus is whether a checklist question is answered by the project info.
type ItemStatus string

const (
	StatusAnswered ItemStatus = "answered"
	StatusMissing  ItemStatus = "missing"
)

// ChecklistItem is one preflight question, derived transiently from the
// project context and never persisted.
type ChecklistItem struct {
	ID         string
	Title      string
	Question   string
	GuideIDs   []string
	Status     ItemStatus
	Evidence   string
	AnswerHint string
}

// checklistRule marks an item answered when its pattern matches the
// lowercased project info. Rules are evaluated in declaration order, which is
// also the order items appear in generated documents.
type checklistRule struct {
	id         string
	title      string
	question   string
	guideIDs   []string
	pattern    *regexp.Regexp
	answerHint string
}

var checklistRules = []checklistRule{
	{
		id:         "app-name",
		title:      "App name",
		question:   "What is the app called, and what display name should stores show?",
		guideIDs:   []string{"project-setup", "release-checklist"},
		pattern:    regexp.MustCompile(`\b(app name|called|named|titled)\b`),
		answerHint: "Add an 'App name:' line to the project notes, then run update-app-naming.",
	},
	{
		id:         "target-platforms",
		title:      "Target platforms",
		question:   "Which platforms does the app ship to (ios, android, web)?",
		guideIDs:   []string{"project-setup"},
		pattern:    regexp.MustCompile(`\b(ios|android|web|browser|desktop)\b`),
		answerHint: "List the target platforms in the project notes.",
	},
	{
		id:         "navigation-shape",
		title:      "Navigation shape",
		question:   "What is the top-level navigation structure (tabs, stack, drawer)?",
		guideIDs:   []string{"navigation"},
		pattern:    regexp.MustCompile(`\b(tab|stack|drawer|navigat|screen)\b`),
		answerHint: "Describe the main screens and how users move between them.",
	},
	{
		id:         "data-sources",
		title:      "Data sources",
		question:   "Where does the app's data come from (API, local storage, third party)?",
		guideIDs:   []string{"data-fetching"},
		pattern:    regexp.MustCompile(`\b(api|backend|endpoint|database|storage|supabase|firebase)\b`),
		answerHint: "Name the backing API or storage in the project notes.",
	},
	{
		id:         "styling-system",
		title:      "Styling system",
		question:   "Is there a design system, color palette, or styling convention?",
		guideIDs:   []string{"styling"},
		pattern:    regexp.MustCompile(`\b(style|theme|color|colour|palette|font|design)\b`),
		answerHint: "Add styling notes or run convert-styling with your raw CSS.",
	},
	{
		id:         "auth-model",
		title:      "Authentication",
		question:   "Does the app need sign-in, and with what providers?",
		guideIDs:   []string{"data-fetching", "forms-validation"},
		pattern:    regexp.MustCompile(`\b(auth|login|sign[ -]?in|sign[ -]?up|account|oauth)\b`),
		answerHint: "State whether users sign in and which providers are required.",
	},
}

// BuildChecklist evaluates every checklist rule against the project context.
// Items come back in rule order; answered items carry the first matching line
// of the info text as evidence.
func BuildChecklist(ctx *Context) []ChecklistItem {
	lower := strings.ToLower(ctx.Info)
	// Styling notes answer the styling question even without info mentions.
	if ctx.Style != "" {
		lower += "\nstyle"
	}

	items := make([]ChecklistItem, 0, len(checklistRules))
	for _, rule := range checklistRules {
		item := ChecklistItem{
			ID:       rule.id,
			Title:    rule.title,
			Question: rule.question,
			GuideIDs: rule.guideIDs,
			Status:   StatusMissing,
		}
		if rule.pattern.MatchString(lower) {
			item.Status = StatusAnswered
			item.Evidence = evidenceLine(ctx.Info, rule.pattern)
		} else {
			item.AnswerHint = rule.answerHint
		}
		items = append(items, item)
	}
	return items
}

// evidenceLine returns the first line of info whose lowered form matches the
// pattern, in original casing. Lowercasing is done per line so byte offsets
// never cross between the folded and original text. Returns "" when only the
// style sentinel matched.
func evidenceLine(info string, pattern *regexp.Regexp) string {
	for _, line := range strings.Split(info, "\n") {
		if pattern.MatchString(strings.ToLower(line)) {
			return strings.TrimSpace(line)
		}
	}
	return ""
}
