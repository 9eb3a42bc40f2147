package transport

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHandler scripts the MCP dispatch for transport tests.
type fakeHandler struct {
	respond func(message json.RawMessage) mcp.JSONRPCMessage
	calls   int
}

func (f *fakeHandler) HandleMessage(ctx context.Context, message json.RawMessage) mcp.JSONRPCMessage {
	f.calls++
	if f.respond != nil {
		return f.respond(message)
	}
	var probe rpcProbe
	_ = json.Unmarshal(message, &probe)
	if probe.ID == nil {
		return nil // notification
	}
	return map[string]any{"jsonrpc": "2.0", "id": json.RawMessage(probe.ID), "result": map[string]any{}}
}

var _ MessageHandler = (*fakeHandler)(nil)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestFrontDoor(t *testing.T, opts ...Option) (*FrontDoor, *httptest.Server) {
	t.Helper()
	fd := NewFrontDoor(&fakeHandler{}, testLogger(), opts...)
	srv := httptest.NewServer(fd.Handler())
	t.Cleanup(srv.Close)
	return fd, srv
}

const initializeBody = `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`

func TestStreamableInitializeAssignsSession(t *testing.T) {
	fd, srv := newTestFrontDoor(t)

	resp, err := http.Post(srv.URL+"/mcp", "application/json", strings.NewReader(initializeBody))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	sessionID := resp.Header.Get(SessionHeader)
	require.NotEmpty(t, sessionID, "initialize response must carry a session id")
	assert.Equal(t, 1, fd.StreamableSessions())
	assert.Equal(t, 0, fd.SSESessions())
}

func TestStreamableRequestWithoutSessionRejected(t *testing.T) {
	_, srv := newTestFrontDoor(t)

	body := `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`
	resp, err := http.Post(srv.URL+"/mcp", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStreamableUnknownSessionRejected(t *testing.T) {
	_, srv := newTestFrontDoor(t)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/mcp", strings.NewReader(`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`))
	require.NoError(t, err)
	req.Header.Set(SessionHeader, "not-a-session")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStreamableFailedInitializeNotRegistered(t *testing.T) {
	handler := &fakeHandler{respond: func(json.RawMessage) mcp.JSONRPCMessage {
		return map[string]any{
			"jsonrpc": "2.0", "id": 1,
			"error": map[string]any{"code": -32600, "message": "unsupported protocol version"},
		}
	}}
	fd := NewFrontDoor(handler, testLogger())
	srv := httptest.NewServer(fd.Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/mcp", "application/json", strings.NewReader(initializeBody))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode, "JSON-RPC errors ride a 200")
	assert.Empty(t, resp.Header.Get(SessionHeader))
	assert.Equal(t, 0, fd.StreamableSessions(), "failed initialize must not register a session")
}

func TestStreamableNotificationAccepted(t *testing.T) {
	fd, srv := newTestFrontDoor(t)

	init, err := http.Post(srv.URL+"/mcp", "application/json", strings.NewReader(initializeBody))
	require.NoError(t, err)
	init.Body.Close()
	sessionID := init.Header.Get(SessionHeader)
	require.NotEmpty(t, sessionID)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/mcp", strings.NewReader(`{"jsonrpc":"2.0","method":"notifications/initialized"}`))
	require.NoError(t, err)
	req.Header.Set(SessionHeader, sessionID)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, 1, fd.StreamableSessions(), "notification must not disturb the session")
}

func TestStreamableDeleteEndsSession(t *testing.T) {
	fd, srv := newTestFrontDoor(t)

	init, err := http.Post(srv.URL+"/mcp", "application/json", strings.NewReader(initializeBody))
	require.NoError(t, err)
	init.Body.Close()
	sessionID := init.Header.Get(SessionHeader)
	require.NotEmpty(t, sessionID)

	del, err := http.NewRequest(http.MethodDelete, srv.URL+"/mcp", nil)
	require.NoError(t, err)
	del.Header.Set(SessionHeader, sessionID)

	resp, err := http.DefaultClient.Do(del)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 0, fd.StreamableSessions())

	// Teardown is terminal: the id is gone, a second delete is not found.
	resp2, err := http.DefaultClient.Do(del)
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}

func TestStreamableIDInvalidOnMessagesChannel(t *testing.T) {
	_, srv := newTestFrontDoor(t)

	init, err := http.Post(srv.URL+"/mcp", "application/json", strings.NewReader(initializeBody))
	require.NoError(t, err)
	init.Body.Close()
	sessionID := init.Header.Get(SessionHeader)
	require.NotEmpty(t, sessionID)

	// The POST side channel resolves ids only in the SSE table.
	resp, err := http.Post(srv.URL+"/mcp/messages?sessionId="+sessionID, "application/json", strings.NewReader(initializeBody))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "session not found", body["error"])
}

func TestMessagesChannelRequiresSessionID(t *testing.T) {
	_, srv := newTestFrontDoor(t)

	resp, err := http.Post(srv.URL+"/mcp/messages", "application/json", strings.NewReader(initializeBody))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMCPInvalidJSONRejected(t *testing.T) {
	_, srv := newTestFrontDoor(t)

	resp, err := http.Post(srv.URL+"/mcp", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealthEndpoint(t *testing.T) {
	_, srv := newTestFrontDoor(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestPortfolioEndpoint(t *testing.T) {
	_, srv := newTestFrontDoor(t, WithPortfolio(&PortfolioInfo{
		Name:    "guides-mcp-server",
		Version: "1.0.0",
		Tools:   []string{"list-guides"},
	}))

	resp, err := http.Get(srv.URL + "/portfolio.json")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	etag := resp.Header.Get("ETag")
	require.NotEmpty(t, etag)

	var info PortfolioInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	assert.Equal(t, "guides-mcp-server", info.Name)

	// A matching If-None-Match short-circuits to 304.
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/portfolio.json", nil)
	require.NoError(t, err)
	req.Header.Set("If-None-Match", etag)

	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusNotModified, resp2.StatusCode)
}

func TestShutdownClosesAllSessions(t *testing.T) {
	fd, srv := newTestFrontDoor(t)

	for i := 0; i < 3; i++ {
		resp, err := http.Post(srv.URL+"/mcp", "application/json", strings.NewReader(initializeBody))
		require.NoError(t, err)
		resp.Body.Close()
	}
	require.Equal(t, 3, fd.StreamableSessions())

	fd.Shutdown()
	assert.Equal(t, 0, fd.StreamableSessions())
	assert.Equal(t, 0, fd.SSESessions())
}
