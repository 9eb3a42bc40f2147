package transport

import (
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// HeartbeatInterval is how often a live SSE session emits a keep-alive
// comment frame to defeat idle-timeout disconnection.
const HeartbeatInterval = 30 * time.Second

// sseEvent is one server-to-client frame on the legacy push stream.
type sseEvent struct {
	name string
	data []byte
}

// sseSession is a legacy transport-kind-B session: a server-to-client event
// stream paired with the POST side channel for client-to-server messages.
// Unlike the streamable kind, the session assigns its own id at construction
// and is registered immediately.
type sseSession struct {
	id       string
	registry *Registry
	events   chan sseEvent
	done     chan struct{}

	// closeOnce makes teardown at-most-once: the explicit Close call and the
	// connection's context cancellation both funnel through it, so neither
	// path can double-cancel the heartbeat or double-remove the table entry.
	closeOnce sync.Once
}

func newSSESession(registry *Registry) *sseSession {
	return &sseSession{
		id:       uuid.NewString(),
		registry: registry,
		events:   make(chan sseEvent, 16),
		done:     make(chan struct{}),
	}
}

func (s *sseSession) SessionID() string { return s.id }

// Close tears the session down: it stops the serve loop (which cancels the
// heartbeat ticker) and removes the registry entry. Safe to call any number
// of times from any close path.
func (s *sseSession) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.registry.RemoveSession(s)
	})
}

// Enqueue hands an event to the serve loop. Returns false when the session is
// already closed or its buffer is full; the caller treats that as a dead
// session rather than blocking a request handler on it.
func (s *sseSession) Enqueue(name string, data []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.events <- sseEvent{name: name, data: data}:
		return true
	case <-s.done:
		return false
	}
}

// handleSSE bootstraps a legacy push session: GET with an event-stream Accept
// header and no session id header. The handler blocks for the lifetime of
// the stream, bounded only by client disconnect or server shutdown.
func (fd *FrontDoor) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		fd.writeError(w, http.StatusInternalServerError, "streaming unsupported by connection")
		return
	}

	sess := newSSESession(fd.sse)
	if err := fd.sse.Put(sess); err != nil {
		// A uuid collision is effectively unreachable; surface it before
		// any stream bytes go out.
		fd.logger.Error("failed to register sse session", "error", err)
		fd.writeError(w, http.StatusInternalServerError, "failed to register session")
		return
	}
	fd.logger.Info("sse session created", "session_id", sess.id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// First frame tells the client where to POST its messages.
	endpoint := fmt.Sprintf("%s/mcp/messages?sessionId=%s", fd.externalPrefix, sess.id)
	if err := writeSSE(w, "endpoint", []byte(endpoint)); err != nil {
		// Stream already started; nothing can be resent. Tear down and log.
		sess.Close()
		fd.logger.Warn("failed to write endpoint event", "session_id", sess.id, "error", err)
		return
	}
	flusher.Flush()

	// The ticker lives exactly as long as the serve loop; both close paths
	// end the loop, so the heartbeat can never fire after the stream ended.
	ticker := time.NewTicker(fd.heartbeat)
	defer ticker.Stop()
	defer sess.Close()

	for {
		select {
		case <-r.Context().Done():
			fd.logger.Info("sse session disconnected", "session_id", sess.id)
			return
		case <-sess.done:
			fd.logger.Info("sse session closed", "session_id", sess.id)
			return
		case ev := <-sess.events:
			if err := writeSSE(w, ev.name, ev.data); err != nil {
				fd.logger.Warn("sse write failed", "session_id", sess.id, "error", err)
				return
			}
			flusher.Flush()
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				fd.logger.Warn("heartbeat write failed", "session_id", sess.id, "error", err)
				return
			}
			flusher.Flush()
		}
	}
}

// handleMessages serves the POST side channel for legacy sessions. The
// session id resolves only in the SSE table; an id minted by the streamable
// transport is session-not-found here.
func (fd *FrontDoor) handleMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		fd.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		fd.writeError(w, http.StatusBadRequest, "missing sessionId query parameter")
		return
	}

	entry, ok := fd.sse.Get(sessionID)
	if !ok {
		// Terminal for this request: not retried, not queued.
		fd.writeError(w, http.StatusNotFound, "session not found")
		return
	}
	sess := entry.(*sseSession)

	// The transport reads the raw stream itself; no middleware pre-parses it.
	body, err := io.ReadAll(io.LimitReader(r.Body, maxMessageBytes))
	if err != nil {
		fd.writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	response := fd.mcp.HandleMessage(r.Context(), body)
	if response != nil {
		data, err := marshalJSONRPC(response)
		if err != nil {
			fd.logger.Error("failed to marshal response", "session_id", sessionID, "error", err)
			fd.writeError(w, http.StatusInternalServerError, "failed to encode response")
			return
		}
		if !sess.Enqueue("message", data) {
			fd.writeError(w, http.StatusNotFound, "session closed")
			return
		}
	}

	w.WriteHeader(http.StatusAccepted)
}

// writeSSE writes one event frame. Multi-line payloads get one data: line per
// line, per the SSE framing rules.
func writeSSE(w io.Writer, name string, data []byte) error {
	if _, err := fmt.Fprintf(w, "event: %s\n", name); err != nil {
		return err
	}
	for _, line := range splitLines(data) {
		if _, err := fmt.Fprintf(w, "data: %s\n", line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprint(w, "\n")
	return err
}

func splitLines(data []byte) []string {
	var lines []string
	start := 0
	for i, b := range data {
		if b == '\n' {
			lines = append(lines, string(data[start:i]))
			start = i + 1
		}
	}
	lines = append(lines, string(data[start:]))
	return lines
}
