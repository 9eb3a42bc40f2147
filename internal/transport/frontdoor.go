package transport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

// MessageHandler dispatches one raw JSON-RPC message and returns the response
// message, or nil for notifications. *server.MCPServer satisfies it; tests
// substitute fakes.
type MessageHandler interface {
	HandleMessage(ctx context.Context, message json.RawMessage) mcp.JSONRPCMessage
}

// FrontDoor is the single HTTP listener surface: it routes MCP-shaped
// requests to the owning transport kind and serves the health and portfolio
// endpoints. It owns the two disjoint session tables.
type FrontDoor struct {
	mcp            MessageHandler
	streamable     *Registry
	sse            *Registry
	logger         *slog.Logger
	heartbeat      time.Duration
	externalPrefix string
	portfolio      *portfolioDoc
}

// Option configures a FrontDoor.
type Option func(*FrontDoor)

// WithHeartbeatInterval overrides the SSE keep-alive interval. Test use only;
// production sessions heartbeat every HeartbeatInterval.
func WithHeartbeatInterval(d time.Duration) Option {
	return func(fd *FrontDoor) { fd.heartbeat = d }
}

// WithExternalPrefix sets the path prefix an external proxy exposes this
// server under. It is prepended to the endpoint URL announced to SSE clients
// and registers an alias route for the message side channel.
func WithExternalPrefix(prefix string) Option {
	return func(fd *FrontDoor) { fd.externalPrefix = strings.TrimSuffix(prefix, "/") }
}

// WithPortfolio sets the metadata document served at /portfolio.json.
func WithPortfolio(p *PortfolioInfo) Option {
	return func(fd *FrontDoor) { fd.portfolio = newPortfolioDoc(p) }
}

// NewFrontDoor creates the front door for the given MCP message handler.
func NewFrontDoor(handler MessageHandler, logger *slog.Logger, opts ...Option) *FrontDoor {
	fd := &FrontDoor{
		mcp:        handler,
		streamable: NewRegistry(),
		sse:        NewRegistry(),
		logger:     logger,
		heartbeat:  HeartbeatInterval,
	}
	for _, opt := range opts {
		opt(fd)
	}
	if fd.portfolio == nil {
		fd.portfolio = newPortfolioDoc(&PortfolioInfo{Name: "guides-mcp-server"})
	}
	return fd
}

// Handler returns the HTTP handler for the whole front door surface.
func (fd *FrontDoor) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/mcp", fd.handleMCP)
	mux.HandleFunc("/mcp/messages", fd.handleMessages)
	if fd.externalPrefix != "" {
		mux.HandleFunc(fd.externalPrefix+"/mcp/messages", fd.handleMessages)
	}
	mux.HandleFunc("/health", fd.handleHealth)
	mux.HandleFunc("/portfolio.json", fd.portfolio.serve)
	return mux
}

// handleMCP decides which transport kind a request belongs to. A GET that
// asks for an event stream and carries no session id bootstraps a legacy SSE
// session; everything else is the bidirectional streamable transport.
func (fd *FrontDoor) handleMCP(w http.ResponseWriter, r *http.Request) {
	wantsStream := strings.Contains(r.Header.Get("Accept"), "text/event-stream")
	if r.Method == http.MethodGet && wantsStream && r.Header.Get(SessionHeader) == "" {
		fd.handleSSE(w, r)
		return
	}
	fd.handleStreamable(w, r)
}

func (fd *FrontDoor) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		fd.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Shutdown closes every live session on both tables.
func (fd *FrontDoor) Shutdown() {
	fd.sse.CloseAll()
	fd.streamable.CloseAll()
}

// StreamableSessions exposes the kind-A table size for diagnostics and tests.
func (fd *FrontDoor) StreamableSessions() int { return fd.streamable.Len() }

// SSESessions exposes the kind-B table size for diagnostics and tests.
func (fd *FrontDoor) SSESessions() int { return fd.sse.Len() }

func marshalJSONRPC(msg mcp.JSONRPCMessage) ([]byte, error) {
	return json.Marshal(msg)
}
