// Package server provides the MCP server core implementation, handling
// protocol wiring, tool registration, and transport startup.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/appscaffold/guides-mcp-server/internal/config"
	"github.com/appscaffold/guides-mcp-server/internal/docs"
	"github.com/appscaffold/guides-mcp-server/internal/guides"
	"github.com/appscaffold/guides-mcp-server/internal/pagecache"
	"github.com/appscaffold/guides-mcp-server/internal/transport"
)

// serverName and serverVersion identify this process to MCP clients and in
// the portfolio document.
const (
	serverName    = "guides-mcp-server"
	serverVersion = "1.0.0"
)

// Server coordinates the MCP protocol handling, guide/doc registries, and
// the transport front door.
type Server struct {
	config    *config.Config
	logger    *slog.Logger
	store     *guides.Store
	registry  *docs.Registry
	fetcher   *docs.Fetcher
	mcpServer *server.MCPServer
	frontDoor *transport.FrontDoor
	httpSrv   *http.Server

	toolNames   []string
	promptNames []string
}

// NewServer creates a new MCP server instance with the provided
// configuration and logger. The server is not started until Start() is
// called.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	mcpServer := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithPromptCapabilities(false),
	)

	store := guides.NewStore(cfg.GuidesDir, guides.DefaultSpecs())
	registry := docs.NewRegistry(docs.DefaultSources())
	cache := pagecache.New(time.Duration(cfg.CacheTTL) * time.Minute)

	// The fetcher logs through zerolog, mirroring the split between the
	// slog core and the console-oriented fetch path.
	zl := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	fetcher := docs.NewFetcher(registry, cache,
		time.Duration(cfg.FetchTimeout)*time.Second, cfg.MaxConcurrent, zl)

	s := &Server{
		config:    cfg,
		logger:    logger,
		store:     store,
		registry:  registry,
		fetcher:   fetcher,
		mcpServer: mcpServer,
	}

	s.registerTools()
	s.registerResources()
	s.registerPrompts()

	if cfg.Transport == config.TransportHTTP {
		opts := []transport.Option{
			transport.WithPortfolio(s.portfolioInfo()),
		}
		if cfg.ExternalPrefix != "" {
			opts = append(opts, transport.WithExternalPrefix(cfg.ExternalPrefix))
		}
		s.frontDoor = transport.NewFrontDoor(mcpServer, logger, opts...)
	}

	return s, nil
}

// Start runs the configured transport. For HTTP this blocks serving the
// front door until Shutdown; for stdio it blocks until the client
// disconnects.
func (s *Server) Start(ctx context.Context) error {
	switch s.config.Transport {
	case config.TransportStdio:
		s.logger.Info("starting MCP server", "transport", config.TransportStdio)
		return server.ServeStdio(s.mcpServer)
	case config.TransportHTTP:
		addr := s.config.GetTransportAddress()
		s.logger.Info("starting MCP server", "transport", config.TransportHTTP, "address", addr)
		s.httpSrv = &http.Server{
			Addr:    addr,
			Handler: s.frontDoor.Handler(),
		}
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported transport: %s", s.config.Transport)
	}
}

// Shutdown gracefully stops the server: live sessions are closed, then the
// listener drains.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server", "transport", s.config.Transport)

	if s.frontDoor != nil {
		s.frontDoor.Shutdown()
	}
	if s.httpSrv != nil {
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			return fmt.Errorf("http shutdown error: %w", err)
		}
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// portfolioInfo builds the metadata document served at /portfolio.json.
func (s *Server) portfolioInfo() *transport.PortfolioInfo {
	info := &transport.PortfolioInfo{
		Name:    serverName,
		Version: serverVersion,
		Tools:   s.toolNames,
		Prompts: s.promptNames,
	}
	for _, spec := range s.store.List() {
		info.Guides = append(info.Guides, transport.PortfolioGuide{
			ID:          spec.ID,
			Title:       spec.Title,
			Description: spec.Description,
		})
	}
	return info
}
