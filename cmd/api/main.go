package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/vaidikdevsen/friday-ai/backend/internal/config"
	"github.com/vaidikdevsen/friday-ai/backend/internal/handler"
	"github.com/vaidikdevsen/friday-ai/backend/internal/service/ai"
	chatservice "github.com/vaidikdevsen/friday-ai/backend/internal/service/chat"
	"github.com/vaidikdevsen/friday-ai/backend/internal/service/image"
	"github.com/vaidikdevsen/friday-ai/backend/internal/service/pipeline"
	"github.com/vaidikdevsen/friday-ai/backend/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Open the persistent store and restore the conversation registry.
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer st.Close()

	chatSvc, err := chatservice.NewService(st)
	if err != nil {
		log.Fatalf("failed to load conversation registry: %v", err)
	}
	conv, err := chatSvc.EnsureActive(ctx)
	if err != nil {
		log.Fatalf("failed to ensure active conversation: %v", err)
	}
	log.Printf("active conversation: %s (%s)", conv.Title, conv.ID)

	// Prompt enhancement is optional: without credentials the pipeline
	// sends the raw prompt to the image service.
	var enhancer pipeline.Enhancer
	if cfg.AI.Enabled() {
		aiSvc, err := ai.NewService(ctx, cfg.AI)
		if err != nil {
			log.Printf("warning: failed to initialize enhancement service: %v", err)
			log.Println("continuing with raw prompts only")
		} else {
			enhancer = aiSvc
			log.Println("prompt enhancement service initialized successfully")
		}
	} else {
		log.Println("enhancement model credentials not configured, using raw prompts")
	}

	var generator pipeline.Generator
	if cfg.Image.Enabled() {
		generator = image.NewClient(cfg.Image)
		log.Println("image generation client initialized successfully")
	} else {
		log.Println("warning: IMAGE_API_KEY not configured, image generation will fail")
	}

	p := pipeline.New(chatSvc, enhancer, generator)
	router := handler.NewRouter(st, chatSvc, p)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("FRIDAY backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
