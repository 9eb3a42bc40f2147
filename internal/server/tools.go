package server

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/appscaffold/guides-mcp-server/internal/docs"
	"github.com/appscaffold/guides-mcp-server/internal/scaffold"
	"github.com/appscaffold/guides-mcp-server/internal/selector"
)

// smart-help fan-out bounds: how many doc sources and URLs per source one
// question may trigger.
const (
	smartHelpMaxDocs        = 2
	smartHelpMaxURLs        = 2
	smartHelpMaxMatches     = 3
	defaultMaxMatchesPerURL = 5
)

// addTool registers a tool and records its name for the portfolio document.
func (s *Server) addTool(tool mcp.Tool, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)) {
	s.toolNames = append(s.toolNames, tool.Name)
	s.mcpServer.AddTool(tool, handler)
}

// registerTools registers every MCP tool with the server. Argument validation
// happens at this boundary, before any I/O.
func (s *Server) registerTools() {
	s.addTool(mcp.NewTool(
		"list-guides",
		mcp.WithDescription("List the available project guides with ids and descriptions."),
	), s.handleListGuides)

	s.addTool(mcp.NewTool(
		"read-guide",
		mcp.WithDescription("Read the full Markdown content of a guide by id."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Guide id (see list-guides)"),
		),
	), s.handleReadGuide)

	s.addTool(mcp.NewTool(
		"list-docs",
		mcp.WithDescription("List the registered external documentation sources."),
	), s.handleListDocs)

	s.addTool(mcp.NewTool(
		"search-docs",
		mcp.WithDescription("Search a registered documentation source for a query, returning snippet windows per URL."),
		mcp.WithString("docId",
			mcp.Required(),
			mcp.Description("Documentation source id (see list-docs)"),
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Case-insensitive substring to search for"),
		),
		mcp.WithNumber("maxMatchesPerUrl",
			mcp.Description("Maximum snippets per URL (default: 5)"),
		),
		mcp.WithNumber("maxUrls",
			mcp.Description("Maximum URLs to fetch (default: all registered)"),
		),
	), s.handleSearchDocs)

	s.addTool(mcp.NewTool(
		"fetch-web-doc",
		mcp.WithDescription("Fetch an arbitrary documentation URL, reduce it to text, and optionally search it."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("Absolute http(s) URL to fetch"),
		),
		mcp.WithString("query",
			mcp.Description("Optional case-insensitive substring to search for"),
		),
		mcp.WithNumber("maxMatches",
			mcp.Description("Maximum snippets to return (default: 5)"),
		),
	), s.handleFetchWebDoc)

	s.addTool(mcp.NewTool(
		"smart-help",
		mcp.WithDescription("Answer a free-text question by selecting relevant guides and searching relevant documentation sources."),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("The question to route"),
		),
	), s.handleSmartHelp)

	s.addTool(mcp.NewTool(
		"ingest-project-context",
		mcp.WithDescription("Convert raw project notes into a structured PROJECT_INFO.md under the project root."),
		mcp.WithString("notes",
			mcp.Required(),
			mcp.Description("Free-form project notes"),
		),
	), s.handleIngestProjectContext)

	s.addTool(mcp.NewTool(
		"generate-project-instructions",
		mcp.WithDescription("Regenerate PROJECT_INSTRUCTIONS.md from the project context and guide registry."),
	), s.handleGenerateInstructions)

	s.addTool(mcp.NewTool(
		"generate-project-todo",
		mcp.WithDescription("Derive TODO.md from the project preflight checklist."),
	), s.handleGenerateTodo)

	s.addTool(mcp.NewTool(
		"project-preflight",
		mcp.WithDescription("Report which preflight questions the project context answers and which are still missing."),
	), s.handleProjectPreflight)

	s.addTool(mcp.NewTool(
		"convert-styling",
		mcp.WithDescription("Convert raw styling notes or CSS into a structured STYLE_GUIDE.md."),
		mcp.WithString("styles",
			mcp.Required(),
			mcp.Description("Raw CSS or styling notes"),
		),
	), s.handleConvertStyling)

	s.addTool(mcp.NewTool(
		"update-app-naming",
		mcp.WithDescription("Rename the app's identifiers across the project's config files."),
		mcp.WithString("newName",
			mcp.Required(),
			mcp.Description("New app name; the package slug is derived from it"),
		),
		mcp.WithString("displayName",
			mcp.Description("Store-facing display name (default: newName)"),
		),
	), s.handleUpdateAppNaming)

	s.addTool(mcp.NewTool(
		"update-readme",
		mcp.WithDescription("Regenerate README.md from the project context."),
		mcp.WithString("appName",
			mcp.Description("App name for the README title (default: project directory name)"),
		),
	), s.handleUpdateReadme)

	s.logger.Info("MCP tools registered", "count", len(s.toolNames))
}

func (s *Server) handleListGuides(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var b strings.Builder
	specs := s.store.List()
	b.WriteString(fmt.Sprintf("%d guides available:\n\n", len(specs)))
	for _, spec := range specs {
		b.WriteString(fmt.Sprintf("- %s — %s\n  %s\n", spec.ID, spec.Title, spec.Description))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleReadGuide(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required and must be a non-empty string"), nil
	}

	guide, err := s.store.Read(id)
	if err != nil {
		s.logger.Warn("guide read failed", "id", id, "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("guide not available: %v", err)), nil
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("# %s\n\n", guide.Title))
	b.WriteString(guide.Content)
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleListDocs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var b strings.Builder
	sources := s.registry.All()
	b.WriteString(fmt.Sprintf("%d documentation sources registered:\n\n", len(sources)))
	for _, src := range sources {
		b.WriteString(fmt.Sprintf("- %s — %s\n", src.ID, src.Title))
		for _, u := range src.URLs {
			b.WriteString(fmt.Sprintf("  %s\n", u))
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleSearchDocs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docID, err := request.RequireString("docId")
	if err != nil {
		return mcp.NewToolResultError("docId parameter is required and must be a non-empty string"), nil
	}
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query parameter is required and must be a non-empty string"), nil
	}
	maxMatches := request.GetInt("maxMatchesPerUrl", defaultMaxMatchesPerURL)
	maxURLs := request.GetInt("maxUrls", 0)

	results, err := s.fetcher.Search(ctx, docID, query, maxURLs, maxMatches)
	if err != nil {
		var unknown *docs.ErrUnknownSource
		if errors.As(err, &unknown) {
			return mcp.NewToolResultError(fmt.Sprintf(
				"unknown docId %q; registered ids: %s", docID, strings.Join(s.registry.IDs(), ", "))), nil
		}
		s.logger.Error("doc search failed", "doc_id", docID, "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	s.logger.Info("doc search completed", "doc_id", docID, "query", query, "urls", len(results))
	return mcp.NewToolResultText(formatURLResults(docID, query, results)), nil
}

func (s *Server) handleFetchWebDoc(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError("url parameter is required and must be a non-empty string"), nil
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return mcp.NewToolResultError("url must start with http:// or https://"), nil
	}
	query := request.GetString("query", "")
	maxMatches := request.GetInt("maxMatches", defaultMaxMatchesPerURL)

	result := s.fetcher.FetchURL(ctx, url, query, maxMatches)

	var b strings.Builder
	if query != "" {
		b.WriteString(fmt.Sprintf("Results for %q in %s:\n\n", query, url))
	} else {
		b.WriteString(fmt.Sprintf("Content of %s:\n\n", url))
	}
	writeURLResult(&b, query, result)
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleSmartHelp(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("question parameter is required and must be a non-empty string"), nil
	}

	guideIDs := selector.GuideIDs(question)
	docIDs := selector.DocIDs(question)
	term := selector.QueryTerm(question)

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Question: %s\n\n", question))

	b.WriteString("## Relevant guides\n\n")
	for _, id := range guideIDs {
		if spec, ok := s.store.Get(id); ok {
			b.WriteString(fmt.Sprintf("- %s — %s: %s\n", spec.ID, spec.Title, spec.Description))
		}
	}
	b.WriteString("\nUse read-guide with one of the ids above for the full text.\n")

	if len(docIDs) > smartHelpMaxDocs {
		docIDs = docIDs[:smartHelpMaxDocs]
	}
	if term != "" && len(docIDs) > 0 {
		b.WriteString(fmt.Sprintf("\n## Documentation matches for %q\n", term))
		for _, docID := range docIDs {
			results, err := s.fetcher.Search(ctx, docID, term, smartHelpMaxURLs, smartHelpMaxMatches)
			if err != nil {
				b.WriteString(fmt.Sprintf("\n%s: lookup failed: %v\n", docID, err))
				continue
			}
			b.WriteString("\n")
			b.WriteString(formatURLResults(docID, term, results))
		}
	}

	s.logger.Info("smart-help routed",
		"guides", strings.Join(guideIDs, ","),
		"docs", strings.Join(docIDs, ","),
		"term", term)
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleIngestProjectContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notes, err := request.RequireString("notes")
	if err != nil {
		return mcp.NewToolResultError("notes parameter is required and must be a non-empty string"), nil
	}

	content, err := scaffold.IngestNotes(s.config.ProjectRoot, notes)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to ingest notes: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Wrote %s:\n\n%s", scaffold.InfoFileName, content)), nil
}

func (s *Server) handleGenerateInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pctx, err := scaffold.LoadContext(s.config.ProjectRoot)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load project context: %v", err)), nil
	}
	content, err := scaffold.BuildInstructions(pctx, s.store)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to build instructions: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Wrote %s:\n\n%s", scaffold.InstructionsFileName, content)), nil
}

func (s *Server) handleGenerateTodo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pctx, err := scaffold.LoadContext(s.config.ProjectRoot)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load project context: %v", err)), nil
	}
	content, err := scaffold.BuildTodo(pctx, s.store)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to build TODO: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Wrote %s:\n\n%s", scaffold.TodoFileName, content)), nil
}

func (s *Server) handleProjectPreflight(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pctx, err := scaffold.LoadContext(s.config.ProjectRoot)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load project context: %v", err)), nil
	}
	return mcp.NewToolResultText(formatChecklist(scaffold.BuildChecklist(pctx), pctx)), nil
}

func (s *Server) handleConvertStyling(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	styles, err := request.RequireString("styles")
	if err != nil {
		return mcp.NewToolResultError("styles parameter is required and must be a non-empty string"), nil
	}

	content, err := scaffold.ConvertStyling(s.config.ProjectRoot, styles)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to convert styling: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Wrote %s:\n\n%s", scaffold.StyleFileName, content)), nil
}

func (s *Server) handleUpdateAppNaming(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	newName, err := request.RequireString("newName")
	if err != nil {
		return mcp.NewToolResultError("newName parameter is required and must be a non-empty string"), nil
	}
	displayName := request.GetString("displayName", "")

	updated, err := scaffold.RenameApp(s.config.ProjectRoot, newName, displayName)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to rename app: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Renamed app to %q (slug %q). Updated: %s",
		newName, scaffold.Slugify(newName), strings.Join(updated, ", "))), nil
}

func (s *Server) handleUpdateReadme(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pctx, err := scaffold.LoadContext(s.config.ProjectRoot)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load project context: %v", err)), nil
	}
	content, err := scaffold.BuildReadme(pctx, request.GetString("appName", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to build README: %v", err)), nil
	}
	return mcp.NewToolResultText("Wrote README.md:\n\n" + content), nil
}

// formatURLResults renders per-URL search outcomes in registry order,
// reporting failures and empty results inline.
func formatURLResults(docID, query string, results []docs.URLResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s: searched %d URL(s) for %q\n", docID, len(results), query))
	for _, res := range results {
		b.WriteString("\n")
		writeURLResult(&b, query, res)
	}
	return b.String()
}

func writeURLResult(b *strings.Builder, query string, res docs.URLResult) {
	b.WriteString(res.URL + "\n")
	if res.Err != "" {
		b.WriteString(fmt.Sprintf("  error: %s\n", res.Err))
		if len(res.Snippets) == 0 {
			return
		}
	}
	if len(res.Snippets) == 0 {
		if query != "" {
			b.WriteString(fmt.Sprintf("  no matches for %q in %s\n", query, res.URL))
		} else {
			b.WriteString("  page reduced to empty text\n")
		}
		return
	}
	for i, snip := range res.Snippets {
		b.WriteString(fmt.Sprintf("  %d. %s\n", i+1, snip))
	}
}

// formatChecklist renders the preflight report.
func formatChecklist(items []scaffold.ChecklistItem, pctx *scaffold.Context) string {
	answered := 0
	for _, item := range items {
		if item.Status == scaffold.StatusAnswered {
			answered++
		}
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Preflight: %d/%d questions answered", answered, len(items)))
	if len(pctx.Platforms) > 0 {
		b.WriteString(fmt.Sprintf(" (platforms: %s)", strings.Join(pctx.Platforms, ", ")))
	}
	b.WriteString("\n\n")

	for _, item := range items {
		switch item.Status {
		case scaffold.StatusAnswered:
			b.WriteString(fmt.Sprintf("[x] %s\n", item.Title))
			if item.Evidence != "" {
				b.WriteString(fmt.Sprintf("    evidence: %q\n", item.Evidence))
			}
		case scaffold.StatusMissing:
			b.WriteString(fmt.Sprintf("[ ] %s — %s\n", item.Title, item.Question))
			if item.AnswerHint != "" {
				b.WriteString(fmt.Sprintf("    hint: %s\n", item.AnswerHint))
			}
			if len(item.GuideIDs) > 0 {
				b.WriteString(fmt.Sprintf("    guides: %s\n", strings.Join(item.GuideIDs, ", ")))
			}
		}
	}
	return b.String()
}
