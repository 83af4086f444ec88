package stream

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vaidikdevsen/friday-ai/backend/internal/model/chat"
	"github.com/vaidikdevsen/friday-ai/backend/internal/service/pipeline"
	"github.com/vaidikdevsen/friday-ai/backend/pkg/utils"
)

// Handler streams one generation request over Server-Sent Events. The
// SSE connection is this request's rendering surface: pending indicator,
// rendered messages and the terminal outcome all arrive as events.
type Handler struct {
	pipeline *pipeline.Pipeline
}

// New creates the stream handler.
func New(p *pipeline.Pipeline) *Handler {
	return &Handler{pipeline: p}
}

// RegisterRoutes mounts the generation routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/generate", h.handleGenerate)
	r.Post("/generate/stop", h.handleStop)
	r.Get("/generate/status", h.handleStatus)
}

// Event is one SSE frame sent to the client.
type Event struct {
	Event   string        `json:"event"`
	Message *chat.Message `json:"message,omitempty"`
	Outcome string        `json:"outcome,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// sseRenderer implements pipeline.Renderer on top of one SSE connection.
type sseRenderer struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func (r *sseRenderer) ShowPending() {
	utils.SendSSEChunk(r.w, r.flusher, Event{Event: "pending"})
}

func (r *sseRenderer) RemovePending() {
	utils.SendSSEChunk(r.w, r.flusher, Event{Event: "pending_done"})
}

func (r *sseRenderer) RenderMessage(msg chat.Message) {
	utils.SendSSEChunk(r.w, r.flusher, Event{Event: "message", Message: &msg})
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	userMessage := r.URL.Query().Get("message")
	if userMessage == "" {
		utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	utils.SetupSSEHeaders(w)
	renderer := &sseRenderer{w: w, flusher: flusher}

	outcome, err := h.pipeline.Submit(r.Context(), userMessage, renderer)
	if err != nil {
		// Entry-guard and persistence failures; service failures have
		// already been rendered into the transcript by the pipeline.
		utils.SendSSEChunk(w, flusher, Event{Event: "error", Error: err.Error()})
		return
	}

	utils.SendSSEChunk(w, flusher, Event{Event: "end", Outcome: string(outcome)})
	log.Printf("[stream] request finished, outcome=%s", outcome)
}

// handleStop signals the in-flight request's cancellation token.
func (h *Handler) handleStop(w http.ResponseWriter, r *http.Request) {
	h.pipeline.Stop()
	utils.RespondJSON(w, http.StatusAccepted, map[string]string{"status": "stopping"})
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"state": string(h.pipeline.State()),
		"busy":  h.pipeline.Busy(),
	})
}
