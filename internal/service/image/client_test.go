package image_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vaidikdevsen/friday-ai/backend/internal/config"
	"github.com/vaidikdevsen/friday-ai/backend/internal/service/image"
)

func newClient(endpoint string) *image.Client {
	return image.NewClient(config.ImageConfig{
		Endpoint: endpoint,
		APIKey:   "test-key",
		Source:   "FLUX.1 AI",
		Timeout:  5,
	})
}

func TestGenerateSuccess(t *testing.T) {
	const fakeJPEG = "not-really-a-jpeg"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		var payload struct {
			Inputs string `json:"inputs"`
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if payload.Inputs != "a red fox" {
			t.Errorf("inputs = %q", payload.Inputs)
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte(fakeJPEG))
	}))
	defer srv.Close()

	result, err := newClient(srv.URL).Generate(context.Background(), "a red fox")
	if err != nil {
		t.Fatalf("Generate err: %v", err)
	}
	if !strings.HasPrefix(result.DataURI, "data:image/jpeg;base64,") {
		t.Fatalf("unexpected data URI prefix: %s", result.DataURI[:32])
	}
	if result.Source != "FLUX.1 AI" {
		t.Fatalf("source = %q", result.Source)
	}
}

func TestGenerateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := newClient(srv.URL).Generate(context.Background(), "anything"); err == nil {
		t.Fatal("expected error for 503 response")
	}
}

func TestGenerateEmptyPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if _, err := newClient(srv.URL).Generate(context.Background(), "anything"); err == nil {
		t.Fatal("expected error for empty payload")
	}
}

func TestGenerateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("late"))
	}))
	defer srv.Close()

	if _, err := newClient(srv.URL).Generate(ctx, "anything"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
