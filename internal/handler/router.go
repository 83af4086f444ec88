package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vaidikdevsen/friday-ai/backend/internal/handler/chat"
	"github.com/vaidikdevsen/friday-ai/backend/internal/handler/speech"
	"github.com/vaidikdevsen/friday-ai/backend/internal/handler/stream"
	"github.com/vaidikdevsen/friday-ai/backend/internal/handler/theme"
	middlewarePkg "github.com/vaidikdevsen/friday-ai/backend/internal/middleware"
	chatService "github.com/vaidikdevsen/friday-ai/backend/internal/service/chat"
	"github.com/vaidikdevsen/friday-ai/backend/internal/service/pipeline"
	"github.com/vaidikdevsen/friday-ai/backend/internal/store"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(st *store.Store, chatSvc *chatService.Service, p *pipeline.Pipeline) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	chatHandler := chat.New(chatSvc)
	streamHandler := stream.New(p)
	themeHandler := theme.New(st)
	speechHandler := speech.NewWebSocketHandler(p)

	r.Route("/api", func(api chi.Router) {
		chatHandler.RegisterRoutes(api)
		streamHandler.RegisterRoutes(api)
		themeHandler.RegisterRoutes(api)
		speechHandler.RegisterRoutes(api)
	})

	return r
}
