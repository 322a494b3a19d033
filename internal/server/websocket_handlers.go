package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MeKo-Tech/docstruct/internal/pipeline"
	"github.com/MeKo-Tech/docstruct/internal/source"
)

// WebSocket upgrader with reasonable defaults.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketStructureRequest asks for one document to be structured.
type WebSocketStructureRequest struct {
	Type     string          `json:"type"` // "structure"
	Document json.RawMessage `json:"document"`
	DocType  string          `json:"doc_type,omitempty"`
}

// WebSocketConnWriter is an interface for writing WebSocket messages.
type WebSocketConnWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// WebSocketStructureResponse reports progress or the final result.
type WebSocketStructureResponse struct {
	Type      string           `json:"type"`
	Status    string           `json:"status"` // "processing", "completed", "error"
	Progress  float64          `json:"progress"`
	Pages     int              `json:"pages,omitempty"`
	Result    *pipeline.Result `json:"result,omitempty"`
	Error     string           `json:"error,omitempty"`
	ErrorType string           `json:"error_type,omitempty"`
	RequestID string           `json:"request_id,omitempty"`
}

// lockedWriter serializes writes from the read loop and progress callbacks.
type lockedWriter struct {
	mu   sync.Mutex
	conn WebSocketConnWriter
}

func (l *lockedWriter) WriteMessage(messageType int, data []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.conn.WriteMessage(messageType, data)
}

// structureWebSocketHandler handles WebSocket connections for streamed structuring.
func (s *Server) structureWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	slog.Info("WebSocket connection established", "remote_addr", r.RemoteAddr)

	s.handleWebSocketConnection(conn)
}

// handleWebSocketConnection processes messages from a WebSocket connection.
func (s *Server) handleWebSocketConnection(conn *websocket.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	out := &lockedWriter{conn: conn}
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket error", "error", err)
			}
			break
		}

		websocketMessagesTotal.WithLabelValues("received").Inc()

		if messageType == websocket.TextMessage {
			s.handleWebSocketMessage(out, data)
		}
	}
}

// handleWebSocketMessage structures the document carried by one message,
// streaming page progress before the result.
func (s *Server) handleWebSocketMessage(conn WebSocketConnWriter, data []byte) {
	var req WebSocketStructureRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendWebSocketError(conn, "invalid_request", fmt.Sprintf("Failed to parse request: %v", err))
		return
	}
	if req.Type != "structure" {
		s.sendWebSocketError(conn, "invalid_request", "Unsupported request type: "+req.Type)
		return
	}
	if len(req.Document) == 0 {
		s.sendWebSocketError(conn, "invalid_request", "No document provided")
		return
	}

	doc, err := source.Decode(req.Document, s.sourceOpts)
	if err != nil {
		structureRequestsTotal.WithLabelValues("websocket", "error").Inc()
		s.sendWebSocketError(conn, "invalid_document", fmt.Sprintf("Failed to decode document: %v", err))
		return
	}

	requestID := strconv.FormatInt(time.Now().UnixNano(), 10)
	progress := pipeline.FuncProgressCallback(func(current, total int) {
		resp := WebSocketStructureResponse{
			Type:      "structure_response",
			Status:    "processing",
			Pages:     total,
			RequestID: requestID,
		}
		if total > 0 {
			resp.Progress = float64(current) / float64(total)
		}
		s.sendWebSocketResponse(conn, resp)
	})

	pl, err := s.pipelineFor(req.DocType, progress)
	if err != nil {
		s.sendWebSocketError(conn, "processing_error", fmt.Sprintf("Failed to create pipeline: %v", err))
		return
	}

	ctx, cancel := s.backgroundContext()
	defer cancel()
	res, err := s.structure(ctx, pl, doc, "websocket")
	if err != nil {
		s.sendWebSocketError(conn, "processing_error", fmt.Sprintf("Structuring failed: %v", err))
		return
	}

	s.sendWebSocketResponse(conn, WebSocketStructureResponse{
		Type:      "structure_response",
		Status:    "completed",
		Progress:  1.0,
		Pages:     res.Meta.Pages,
		Result:    res,
		RequestID: requestID,
	})
}

// sendWebSocketResponse sends a response message over WebSocket.
func (s *Server) sendWebSocketResponse(conn WebSocketConnWriter, response WebSocketStructureResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		slog.Error("Failed to marshal WebSocket response", "error", err)
		return
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("Failed to send WebSocket message", "error", err)
		return
	}

	websocketMessagesTotal.WithLabelValues("sent").Inc()
}

// sendWebSocketError sends an error message over WebSocket.
func (s *Server) sendWebSocketError(conn WebSocketConnWriter, errorType, message string) {
	s.sendWebSocketResponse(conn, WebSocketStructureResponse{
		Type:      "error",
		Status:    "error",
		Error:     message,
		ErrorType: errorType,
	})
}
