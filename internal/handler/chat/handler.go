package chat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vaidikdevsen/friday-ai/backend/internal/model/chat"
	chatservice "github.com/vaidikdevsen/friday-ai/backend/internal/service/chat"
	"github.com/vaidikdevsen/friday-ai/backend/pkg/utils"
)

// Handler exposes the conversation registry over HTTP.
type Handler struct {
	chatSvc *chatservice.Service
}

// New creates the conversation handler.
func New(chatSvc *chatservice.Service) *Handler {
	return &Handler{chatSvc: chatSvc}
}

// RegisterRoutes mounts the conversation routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/conversations", h.handleList)
	r.Post("/conversations", h.handleCreate)
	r.Delete("/conversations", h.handleDeleteAll)
	r.Get("/conversations/{id}", h.handleTranscript)
	r.Patch("/conversations/{id}", h.handleRename)
	r.Delete("/conversations/{id}", h.handleDelete)
	r.Post("/conversations/{id}/activate", h.handleSwitch)
}

// conversationSummary is the list/search projection: the transcript is
// fetched per conversation, not with every listing.
type conversationSummary struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	MessageCount int    `json:"messageCount"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
	Active       bool   `json:"active"`
}

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

func summarize(conv chat.Conversation, activeID string) conversationSummary {
	return conversationSummary{
		ID:           conv.ID,
		Title:        conv.Title,
		MessageCount: len(conv.Messages),
		CreatedAt:    conv.CreatedAt.Format(timeLayout),
		UpdatedAt:    conv.UpdatedAt.Format(timeLayout),
		Active:       conv.ID == activeID,
	}
}

// handleList returns all conversations newest-first; with ?q= it becomes
// a case-insensitive title search.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("q")

	activeID := ""
	if active, ok := h.chatSvc.Active(r.Context()); ok {
		activeID = active.ID
	}

	summaries := make([]conversationSummary, 0)
	for conv := range h.chatSvc.Search(r.Context(), filter) {
		summaries = append(summaries, summarize(conv, activeID))
	}

	utils.RespondJSON(w, http.StatusOK, summaries)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Title string `json:"title"`
	}
	// An empty body is fine: the conversation gets the default title.
	_ = json.NewDecoder(r.Body).Decode(&payload)

	conv, err := h.chatSvc.Create(r.Context(), payload.Title)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusCreated, conv)
}

func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	messages, err := h.chatSvc.Transcript(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, messages)
}

func (h *Handler) handleRename(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var payload struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.chatSvc.Rename(r.Context(), id, payload.Title); err != nil {
		respondServiceError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "renamed"})
}

// handleDelete removes a conversation. When the registry empties out, a
// fresh default conversation is created immediately so there is always
// an active one to append to.
func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.chatSvc.Delete(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}

	conv, err := h.chatSvc.EnsureActive(r.Context())
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"status":   "deleted",
		"activeId": conv.ID,
	})
}

func (h *Handler) handleDeleteAll(w http.ResponseWriter, r *http.Request) {
	if err := h.chatSvc.DeleteAll(r.Context()); err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	conv, err := h.chatSvc.EnsureActive(r.Context())
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"status":   "cleared",
		"activeId": conv.ID,
	})
}

// handleSwitch makes the conversation active and returns its transcript
// for display.
func (h *Handler) handleSwitch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	conv, err := h.chatSvc.SwitchActive(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, conv)
}

func respondServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, chatservice.ErrConversationNotFound) {
		status = http.StatusNotFound
	}
	utils.RespondError(w, status, err.Error())
}
