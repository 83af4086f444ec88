package speech

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/vaidikdevsen/friday-ai/backend/internal/model/chat"
	"github.com/vaidikdevsen/friday-ai/backend/internal/service/pipeline"
)

// WebSocketHandler accepts finalized speech transcripts over a WebSocket
// and feeds them into the request pipeline exactly like typed input.
// The browser's recognizer produces one transcript per activation; the
// pipeline's events for that request are relayed back on the same
// socket.
type WebSocketHandler struct {
	pipeline *pipeline.Pipeline
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates the WebSocket transcript handler.
func NewWebSocketHandler(p *pipeline.Pipeline) *WebSocketHandler {
	return &WebSocketHandler{
		pipeline: p,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts the WebSocket route.
func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/speech/ws", h.handleWebSocket)
}

type inboundMessage struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type outgoingMessage struct {
	Type      string        `json:"type"`
	Message   *chat.Message `json:"message,omitempty"`
	Outcome   string        `json:"outcome,omitempty"`
	Error     string        `json:"error,omitempty"`
	Timestamp int64         `json:"timestamp"`
}

// wsRenderer relays pipeline events for one request onto the socket.
// The pipeline runs synchronously inside the read loop, so writes never
// interleave.
type wsRenderer struct {
	conn *websocket.Conn
}

func (r *wsRenderer) send(msg outgoingMessage) {
	msg.Timestamp = time.Now().UnixMilli()
	if err := r.conn.WriteJSON(msg); err != nil {
		log.Printf("[speech] failed to write ws message: %v", err)
	}
}

func (r *wsRenderer) ShowPending() { r.send(outgoingMessage{Type: "pending"}) }

func (r *wsRenderer) RemovePending() { r.send(outgoingMessage{Type: "pending_done"}) }

func (r *wsRenderer) RenderMessage(m chat.Message) {
	r.send(outgoingMessage{Type: "message", Message: &m})
}

func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[speech] websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	renderer := &wsRenderer{conn: conn}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[speech] websocket read failed: %v", err)
			}
			return
		}

		var inbound inboundMessage
		if err := json.Unmarshal(raw, &inbound); err != nil {
			renderer.send(outgoingMessage{Type: "error", Error: "invalid message"})
			continue
		}

		switch inbound.Type {
		case "transcript":
			h.handleTranscript(r, renderer, inbound.Text)
		case "stop":
			h.pipeline.Stop()
			renderer.send(outgoingMessage{Type: "stopping"})
		default:
			renderer.send(outgoingMessage{Type: "error", Error: "unknown message type"})
		}
	}
}

func (h *WebSocketHandler) handleTranscript(r *http.Request, renderer *wsRenderer, text string) {
	outcome, err := h.pipeline.Submit(r.Context(), text, renderer)
	if err != nil {
		if errors.Is(err, pipeline.ErrEmptyPrompt) {
			renderer.send(outgoingMessage{Type: "error", Error: "empty transcript"})
			return
		}
		renderer.send(outgoingMessage{Type: "error", Error: err.Error()})
		return
	}
	renderer.send(outgoingMessage{Type: "end", Outcome: string(outcome)})
}
