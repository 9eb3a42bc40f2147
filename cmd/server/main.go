// Guides MCP Server
//
// This is the main entry point for the guides MCP server. It serves curated
// project guides, documentation search tools, and scaffolding helpers over
// the Model Context Protocol (MCP).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/appscaffold/guides-mcp-server/internal/config"
	"github.com/appscaffold/guides-mcp-server/internal/logger"
	"github.com/appscaffold/guides-mcp-server/internal/server"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configFile  string
	logLevel    string
	transport   string
	port        int
	showVersion bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "guides-mcp-server",
		Short: "Guides MCP Server",
		Long: `Guides MCP Server exposes curated project guides as MCP resources and
provides documentation search and project-scaffolding tools.

Tools include:
  - list-guides / read-guide: browse the curated guide set
  - search-docs / fetch-web-doc / smart-help: search external documentation
  - ingest-project-context, generate-project-todo, project-preflight and
    friends: scaffold project documents from raw notes

By default the server listens on HTTP, multiplexing the streamable and
legacy SSE transports on a single /mcp endpoint. Use --transport stdio for
local process-based integrations.`,
		RunE: runServer,
	}

	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to configuration file (optional)")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "", "Log level (debug, info, warn, error)")
	rootCmd.Flags().StringVarP(&transport, "transport", "t", "", "Transport mode (http, stdio)")
	rootCmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP listen port")
	rootCmd.Flags().BoolVarP(&showVersion, "version", "v", false, "Show version information")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	if showVersion {
		fmt.Printf("Guides MCP Server\n")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Commit:  %s\n", commit)
		fmt.Printf("Built:   %s\n", date)
		return nil
	}

	// Load configuration
	var cfg *config.Config
	var err error
	if configFile != "" {
		cfg, err = config.LoadFromFile(configFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration from file: %w", err)
		}
	} else {
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
	}

	// Flag overrides (highest precedence)
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if transport != "" {
		cfg.Transport = transport
	}
	if port != 0 {
		cfg.Port = port
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.NewLogger(cfg.LogLevel, os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	log.Info("starting guides MCP server",
		"version", version,
		"commit", commit,
		"date", date)

	srv, err := server.NewServer(cfg, log)
	if err != nil {
		log.Error("failed to create server", "error", err)
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			log.Error("server error", "error", err)
			return err
		}
		log.Info("server stopped normally")
		return nil

	case sig := <-sigChan:
		log.Info("received shutdown signal", "signal", sig.String())
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("error during shutdown", "error", err)
			return fmt.Errorf("shutdown error: %w", err)
		}

		log.Info("server shutdown complete")
		return nil
	}
}
