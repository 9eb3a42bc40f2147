// Package docs provides the external documentation registry and the fetcher
// that searches registered pages for query snippets.
package docs

// Source identifies a named external documentation bundle. Sources are
// defined once at process start and never mutated.
type Source struct {
	ID    string
	Title string
	URLs  []string
}

// Registry is the fixed set of documentation sources, looked up by id while
// preserving registration order for deterministic listings.
type Registry struct {
	order   []string
	sources map[string]Source
}

// NewRegistry builds a registry from the given sources. Later duplicates of
// an id replace earlier ones without changing their position.
func NewRegistry(sources []Source) *Registry {
	r := &Registry{sources: make(map[string]Source, len(sources))}
	for _, s := range sources {
		if _, seen := r.sources[s.ID]; !seen {
			r.order = append(r.order, s.ID)
		}
		r.sources[s.ID] = s
	}
	return r
}

// Get returns the source registered under id.
func (r *Registry) Get(id string) (Source, bool) {
	s, ok := r.sources[id]
	return s, ok
}

// All returns every source in registration order.
func (r *Registry) All() []Source {
	out := make([]Source, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.sources[id])
	}
	return out
}

// IDs returns the registered ids in registration order.
func (r *Registry) IDs() []string {
	return append([]string(nil), r.order...)
}

// DefaultSources returns the built-in documentation registry.
func DefaultSources() []Source {
	return []Source{
		{
			ID:    "zod",
			Title: "Zod schema validation",
			URLs:  []string{"https://zod.dev/"},
		},
		{
			ID:    "react-navigation",
			Title: "React Navigation",
			URLs: []string{
				"https://reactnavigation.org/docs/getting-started",
				"https://reactnavigation.org/docs/native-stack-navigator",
			},
		},
		{
			ID:    "expo",
			Title: "Expo SDK",
			URLs: []string{
				"https://docs.expo.dev/versions/latest/",
				"https://docs.expo.dev/workflow/configuration/",
			},
		},
		{
			ID:    "react-query",
			Title: "TanStack Query",
			URLs: []string{
				"https://tanstack.com/query/latest/docs/framework/react/overview",
			},
		},
		{
			ID:    "tailwind",
			Title: "Tailwind CSS",
			URLs: []string{
				"https://tailwindcss.com/docs/styling-with-utility-classes",
			},
		},
	}
}
