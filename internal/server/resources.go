package server

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/appscaffold/guides-mcp-server/internal/scaffold"
)

// registerResources exposes each guide as an addressable guide:// resource.
func (s *Server) registerResources() {
	for _, spec := range s.store.List() {
		uri := "guide://" + spec.ID
		resource := mcp.NewResource(
			uri,
			spec.Title,
			mcp.WithResourceDescription(spec.Description),
			mcp.WithMIMEType("text/markdown"),
		)

		id := spec.ID
		s.mcpServer.AddResource(resource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			guide, err := s.store.Read(id)
			if err != nil {
				return nil, fmt.Errorf("failed to read guide %s: %w", id, err)
			}
			return []mcp.ResourceContents{
				mcp.TextResourceContents{
					URI:      request.Params.URI,
					MIMEType: "text/markdown",
					Text:     guide.Content,
				},
			}, nil
		})
	}

	s.logger.Info("guide resources registered", "count", len(s.store.List()))
}

// registerPrompts registers the project-kickoff prompt, which bundles the
// preflight checklist for a fresh conversation.
func (s *Server) registerPrompts() {
	prompt := mcp.NewPrompt(
		"project-kickoff",
		mcp.WithPromptDescription("Start a project conversation with the current preflight checklist."),
	)
	s.promptNames = append(s.promptNames, "project-kickoff")

	s.mcpServer.AddPrompt(prompt, func(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		pctx, err := scaffold.LoadContext(s.config.ProjectRoot)
		if err != nil {
			return nil, fmt.Errorf("failed to load project context: %w", err)
		}
		report := formatChecklist(scaffold.BuildChecklist(pctx), pctx)

		return mcp.NewGetPromptResult(
			"Project kickoff checklist",
			[]mcp.PromptMessage{
				mcp.NewPromptMessage(
					mcp.RoleUser,
					mcp.NewTextContent(
						"Here is the current project preflight state. Work through the missing items with me, "+
							"consulting the referenced guides before proposing patterns.\n\n"+report,
					),
				),
			},
		), nil
	})
}
