package main

import (
	"context"
	"encoding/base64"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/vaidikdevsen/friday-ai/backend/internal/config"
	"github.com/vaidikdevsen/friday-ai/backend/internal/service/ai"
	"github.com/vaidikdevsen/friday-ai/backend/internal/service/image"
)

// Manual smoke tester for the two external services: enhances a prompt
// (when credentials are configured) and generates one image from it.
func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] failed to load .env, using system environment variables: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	prompt := flag.String("prompt", "", "prompt to generate an image for")
	outputPath := flag.String("out", "", "output image file path (default gen-output-<ts>.jpg)")
	skipEnhance := flag.Bool("skip-enhance", false, "send the raw prompt without enhancement")
	timeout := flag.Duration("timeout", 120*time.Second, "request timeout")
	flag.Parse()

	if strings.TrimSpace(*prompt) == "" {
		flag.Usage()
		log.Fatal("provide a prompt via -prompt")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	finalPrompt := *prompt
	if !*skipEnhance && cfg.AI.Enabled() {
		enhancer, err := ai.NewService(ctx, cfg.AI)
		if err != nil {
			log.Printf("[WARN] enhancement unavailable, using raw prompt: %v", err)
		} else if enhanced, err := enhancer.Enhance(ctx, *prompt); err != nil {
			log.Printf("[WARN] enhancement failed, using raw prompt: %v", err)
		} else {
			finalPrompt = enhanced
			log.Printf("enhanced prompt: %s", finalPrompt)
		}
	}

	if !cfg.Image.Enabled() {
		log.Fatal("IMAGE_API_KEY is not configured")
	}

	client := image.NewClient(cfg.Image)
	result, err := client.Generate(ctx, finalPrompt)
	if err != nil {
		log.Fatalf("image generation failed: %v", err)
	}

	payload, err := decodeDataURI(result.DataURI)
	if err != nil {
		log.Fatalf("unexpected image reference: %v", err)
	}

	path := *outputPath
	if path == "" {
		path = fmt.Sprintf("gen-output-%d.jpg", time.Now().Unix())
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		log.Fatalf("failed to write image file: %v", err)
	}

	log.Printf("image generated by %s: %s (%d bytes)", result.Source, path, len(payload))
}

func decodeDataURI(uri string) ([]byte, error) {
	_, encoded, ok := strings.Cut(uri, ";base64,")
	if !ok {
		return nil, fmt.Errorf("not a base64 data URI")
	}
	return base64.StdEncoding.DecodeString(encoded)
}
