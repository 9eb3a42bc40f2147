package transport

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

// SessionHeader carries the streamable transport's session id on every
// request after initialization.
const SessionHeader = "Mcp-Session-Id"

// maxMessageBytes caps the size of a single inbound JSON-RPC message.
const maxMessageBytes = 4 << 20

// streamableSession is a bidirectional transport-kind-A session. The server
// assigns its id during initialization; subsequent requests present it in the
// Mcp-Session-Id header.
type streamableSession struct {
	id       string
	registry *Registry
	created  time.Time
}

func (s *streamableSession) SessionID() string { return s.id }

// Close deregisters the session. Removal is an identity scan, not an id
// lookup: a session that was never (or is no longer) registered under its id
// must not evict another table entry.
func (s *streamableSession) Close() {
	s.registry.RemoveSession(s)
}

// rpcProbe is the minimal shape needed to route a raw JSON-RPC message
// without fully parsing it; full parsing belongs to the MCP server.
type rpcProbe struct {
	Method string          `json:"method"`
	ID     json.RawMessage `json:"id"`
}

// handleStreamable serves transport kind A: POST carries a JSON-RPC message
// and receives the JSON response directly, DELETE ends the session.
func (fd *FrontDoor) handleStreamable(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		fd.handleStreamablePost(w, r)
	case http.MethodDelete:
		fd.handleStreamableDelete(w, r)
	default:
		fd.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (fd *FrontDoor) handleStreamablePost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxMessageBytes))
	if err != nil {
		fd.writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	var probe rpcProbe
	if err := json.Unmarshal(body, &probe); err != nil {
		fd.writeError(w, http.StatusBadRequest, "invalid JSON-RPC message")
		return
	}

	sessionID := r.Header.Get(SessionHeader)

	// A request without a session header must be an initialization; anything
	// else has lost (or never had) its session and cannot be served.
	if sessionID == "" && probe.Method != "initialize" {
		fd.writeError(w, http.StatusBadRequest, "missing "+SessionHeader+" header")
		return
	}

	var sess *streamableSession
	if sessionID != "" {
		existing, ok := fd.streamable.Get(sessionID)
		if !ok {
			fd.writeError(w, http.StatusNotFound, "session not found")
			return
		}
		sess = existing.(*streamableSession)
	}

	response := fd.mcp.HandleMessage(r.Context(), body)

	// New sessions register only after the initialize response actually
	// succeeded. Registering earlier would race an unusable id into the
	// table and risk a ghost entry if the connect fails.
	if sess == nil {
		if isErrorResponse(response) {
			fd.writeJSONRPC(w, response)
			return
		}
		sess = &streamableSession{
			id:       uuid.NewString(),
			registry: fd.streamable,
			created:  time.Now(),
		}
		if err := fd.streamable.Put(sess); err != nil {
			fd.logger.Error("failed to register streamable session", "error", err)
			fd.writeError(w, http.StatusInternalServerError, "failed to register session")
			return
		}
		fd.logger.Info("streamable session created", "session_id", sess.id)
	}

	w.Header().Set(SessionHeader, sess.id)

	// Notifications produce no response; acknowledge receipt only.
	if response == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	fd.writeJSONRPC(w, response)
}

func (fd *FrontDoor) handleStreamableDelete(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get(SessionHeader)
	if sessionID == "" {
		fd.writeError(w, http.StatusBadRequest, "missing "+SessionHeader+" header")
		return
	}
	sess, ok := fd.streamable.Get(sessionID)
	if !ok {
		fd.writeError(w, http.StatusNotFound, "session not found")
		return
	}
	sess.Close()
	fd.logger.Info("streamable session closed", "session_id", sessionID)
	w.WriteHeader(http.StatusNoContent)
}

// isErrorResponse reports whether the MCP server answered with a JSON-RPC
// error payload.
func isErrorResponse(msg mcp.JSONRPCMessage) bool {
	if msg == nil {
		return false
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return true
	}
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return true
	}
	return len(envelope.Error) > 0
}

// writeJSONRPC writes a JSON-RPC message with a 200 status.
func (fd *FrontDoor) writeJSONRPC(w http.ResponseWriter, msg any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(msg); err != nil {
		// Headers are gone; the partial response cannot be unsent.
		fd.logger.Error("failed to write JSON-RPC response", "error", err)
	}
}

// writeError emits a structured JSON error body. Callers must only use it
// before any part of a response has been written.
func (fd *FrontDoor) writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
