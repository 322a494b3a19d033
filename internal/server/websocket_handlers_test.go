package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockWebSocketConn records written messages.
type mockWebSocketConn struct {
	mu       sync.Mutex
	messages [][]byte
	err      error
}

func (m *mockWebSocketConn) WriteMessage(_ int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, append([]byte(nil), data...))
	return nil
}

func (m *mockWebSocketConn) responses(t *testing.T) []WebSocketStructureResponse {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]WebSocketStructureResponse, len(m.messages))
	for i, data := range m.messages {
		require.NoError(t, json.Unmarshal(data, &out[i]))
	}
	return out
}

func structureMessage(t *testing.T, docType string) []byte {
	t.Helper()
	data, err := json.Marshal(WebSocketStructureRequest{
		Type:     "structure",
		Document: json.RawMessage(contractJSON),
		DocType:  docType,
	})
	require.NoError(t, err)
	return data
}

func TestHandleWebSocketMessage_Structure(t *testing.T) {
	s := newTestServer(t)
	conn := &mockWebSocketConn{}

	s.handleWebSocketMessage(conn, structureMessage(t, "contract"))

	resps := conn.responses(t)
	require.GreaterOrEqual(t, len(resps), 2)

	first := resps[0]
	assert.Equal(t, "structure_response", first.Type)
	assert.Equal(t, "processing", first.Status)
	assert.Equal(t, 2, first.Pages)
	assert.Zero(t, first.Progress)

	last := resps[len(resps)-1]
	assert.Equal(t, "completed", last.Status)
	assert.InDelta(t, 1.0, last.Progress, 1e-9)
	require.NotNil(t, last.Result)
	assert.Equal(t, "contract", last.Result.DocType)
	assert.Len(t, last.Result.Sections, 2)
	assert.Equal(t, first.RequestID, last.RequestID)

	var prev float64
	for _, r := range resps {
		assert.GreaterOrEqual(t, r.Progress, prev)
		prev = r.Progress
	}
}

func TestHandleWebSocketMessage_Errors(t *testing.T) {
	tests := []struct {
		name      string
		message   string
		errorType string
		contains  string
	}{
		{"invalid json", "{", "invalid_request", "Failed to parse request"},
		{"unknown type", `{"type": "ocr"}`, "invalid_request", "Unsupported request type: ocr"},
		{"missing document", `{"type": "structure"}`, "invalid_request", "No document provided"},
		{"bad document", `{"type": "structure", "document": "text"}`, "invalid_document", "Failed to decode document"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := &mockWebSocketConn{}
			newTestServer(t).handleWebSocketMessage(conn, []byte(tt.message))

			resps := conn.responses(t)
			require.Len(t, resps, 1)
			assert.Equal(t, "error", resps[0].Type)
			assert.Equal(t, "error", resps[0].Status)
			assert.Equal(t, tt.errorType, resps[0].ErrorType)
			assert.Contains(t, resps[0].Error, tt.contains)
		})
	}
}

func TestSendWebSocketResponse_WriteError(t *testing.T) {
	conn := &mockWebSocketConn{err: errors.New("closed")}
	newTestServer(t).sendWebSocketResponse(conn, WebSocketStructureResponse{Type: "structure_response"})
	assert.Empty(t, conn.messages)
}

func TestStructureWebSocket_EndToEnd(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t).Router())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, structureMessage(t, "")))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))
	var last WebSocketStructureResponse
	for last.Status != "completed" {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, &last))
		require.NotEqual(t, "error", last.Status, last.Error)
	}
	require.NotNil(t, last.Result)
	assert.Equal(t, "1. ОБЩИЕ ПОЛОЖЕНИЯ", last.Result.Sections[0].Title)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	s := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln, time.Second) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestListenAndServe_BadAddress(t *testing.T) {
	err := newTestServer(t).ListenAndServe(context.Background(), "256.0.0.1:bad", time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to listen")
}

func TestConfigAddr(t *testing.T) {
	assert.Equal(t, "localhost:8080", Config{Host: "localhost", Port: 8080}.Addr())
	assert.Equal(t, "[::1]:9000", Config{Host: "::1", Port: 9000}.Addr())
}
