// Package logger builds slog loggers for the server. Output defaults to
// stderr: over the stdio transport the MCP client owns stdout for protocol
// frames, so any log line written there would corrupt the stream.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger creates a new structured logger with the specified log level.
// Valid levels are: debug, info, warn, error. A nil output falls back to
// stderr, keeping stdout free for the stdio protocol stream.
func NewLogger(level string, output io.Writer) (*slog.Logger, error) {
	var slogLevel slog.Level

	switch strings.ToLower(level) {
	case "debug":
		slogLevel = slog.LevelDebug
	case "info":
		slogLevel = slog.LevelInfo
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		return nil, fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", level)
	}

	if output == nil {
		output = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level: slogLevel,
	}

	handler := slog.NewJSONHandler(output, opts)
	return slog.New(handler), nil
}

// Default creates a logger with info level and stderr output.
func Default() *slog.Logger {
	logger, _ := NewLogger("info", os.Stderr)
	return logger
}
