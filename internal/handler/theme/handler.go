package theme

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vaidikdevsen/friday-ai/backend/internal/store"
	"github.com/vaidikdevsen/friday-ai/backend/pkg/utils"
)

const defaultTheme = "light"

// Handler persists the UI theme preference in the key/value store.
type Handler struct {
	st *store.Store
}

// New creates the theme handler.
func New(st *store.Store) *Handler {
	return &Handler{st: st}
}

// RegisterRoutes mounts the theme routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/theme", h.handleGet)
	r.Put("/theme", h.handlePut)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	value, err := h.st.Get(store.KeyTheme)
	if errors.Is(err, store.ErrKeyNotFound) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"theme": defaultTheme})
		return
	}
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"theme": string(value)})
}

func (h *Handler) handlePut(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Theme string `json:"theme"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if payload.Theme != "light" && payload.Theme != "dark" {
		utils.RespondError(w, http.StatusBadRequest, "theme must be light or dark")
		return
	}

	if err := h.st.Put(store.KeyTheme, []byte(payload.Theme)); err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"theme": payload.Theme})
}
