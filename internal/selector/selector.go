// Package selector classifies free-text questions into ranked guide and doc
// ids and extracts a best-guess search keyword, using ordered rule tables.
package selector

import (
	"regexp"
	"strings"
)

// rule appends its ids to the accumulator when its pattern matches the
// lowercased question. Rules are evaluated in declaration order, which is the
// tie-break policy: earlier rules contribute ids first.
type rule struct {
	pattern *regexp.Regexp
	ids     []string
}

// fallbackGuideID is used when no guide rule matches.
const fallbackGuideID = "project-setup"

// maxGuideIDs caps how many guide ids a question selects.
const maxGuideIDs = 3

var guideRules = []rule{
	{regexp.MustCompile(`\b(navigat|route|screen|stack|tab|deep link)`), []string{"navigation"}},
	{regexp.MustCompile(`\b(style|styling|theme|color|colour|font|design token|tailwind)`), []string{"styling"}},
	{regexp.MustCompile(`\b(fetch|query|api|server state|cache|mutation|axios)`), []string{"data-fetching"}},
	{regexp.MustCompile(`\b(form|input|validat|schema|zod)`), []string{"forms-validation"}},
	{regexp.MustCompile(`\b(release|publish|store|build|submit|icon|version)`), []string{"release-checklist"}},
	{regexp.MustCompile(`\b(setup|start|scaffold|init|new project|boilerplate)`), []string{"project-setup"}},
	{regexp.MustCompile(`\b(test|lint|typecheck)`), []string{"project-setup", "release-checklist"}},
}

var docRules = []rule{
	{regexp.MustCompile(`\b(zod|schema|validat)`), []string{"zod"}},
	{regexp.MustCompile(`\b(navigat|route|screen|stack|tab)`), []string{"react-navigation"}},
	{regexp.MustCompile(`\b(expo|native module|app config|eas)`), []string{"expo"}},
	{regexp.MustCompile(`\b(query|fetch|cache|mutation|server state)`), []string{"react-query"}},
	{regexp.MustCompile(`\b(tailwind|utility class|styling|css)`), []string{"tailwind"}},
}

// GuideIDs returns up to three guide ids ranked by rule order, deduplicated
// preserving first insertion. When nothing matches, the fixed fallback id is
// returned alone.
func GuideIDs(question string) []string {
	ids := applyRules(guideRules, question)
	if len(ids) == 0 {
		return []string{fallbackGuideID}
	}
	if len(ids) > maxGuideIDs {
		ids = ids[:maxGuideIDs]
	}
	return ids
}

// DocIDs returns the doc source ids selected for the question, ranked by rule
// order and deduplicated. An empty result means no doc source looked relevant.
func DocIDs(question string) []string {
	return applyRules(docRules, question)
}

func applyRules(rules []rule, question string) []string {
	q := strings.ToLower(question)
	seen := make(map[string]bool)
	var ids []string
	for _, r := range rules {
		if !r.pattern.MatchString(q) {
			continue
		}
		for _, id := range r.ids {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}

var (
	backtickRe = regexp.MustCompile("`([^`]+)`")
	camelRe    = regexp.MustCompile(`\b[a-z]+[A-Z][A-Za-z]*\b|\b[A-Z][a-z]+[A-Z][A-Za-z]*\b`)
	kebabRe    = regexp.MustCompile(`\b[a-z][a-z0-9]*(?:-[a-z0-9]+)+\b`)
	wordRe     = regexp.MustCompile(`[A-Za-z][A-Za-z0-9]{3,}`)
)

var stopwords = map[string]bool{
	"what": true, "when": true, "where": true, "which": true, "does": true,
	"should": true, "would": true, "could": true, "have": true, "this": true,
	"that": true, "with": true, "from": true, "into": true, "about": true,
	"need": true, "want": true, "help": true, "please": true, "using": true,
	"make": true, "work": true,
}

// QueryTerm extracts a single search keyword from a question. Strategies are
// tried in order of specificity: a backtick-quoted span, a camelCase or
// PascalCase token, a kebab-case token, then the first content word of at
// least four characters outside the stopword set. Returns "" when every
// strategy comes up empty.
func QueryTerm(question string) string {
	if m := backtickRe.FindStringSubmatch(question); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := camelRe.FindString(question); m != "" {
		return m
	}
	if m := kebabRe.FindString(strings.ToLower(question)); m != "" {
		return m
	}
	for _, w := range wordRe.FindAllString(question, -1) {
		if !stopwords[strings.ToLower(w)] {
			return w
		}
	}
	return ""
}
