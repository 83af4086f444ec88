package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/vaidikdevsen/friday-ai/backend/internal/config"
)

var ErrEmptyImage = errors.New("image service returned an empty payload")

// Result is the outcome of a successful generation: an embeddable
// data-URI reference plus the source label shown in the attribution line.
type Result struct {
	DataURI string
	Source  string
}

// Client calls a Hugging-Face-style inference endpoint that accepts a
// JSON prompt and answers with the raw image bytes.
type Client struct {
	endpoint   string
	apiKey     string
	source     string
	httpClient *http.Client
}

// NewClient builds the image-generation client from configuration.
func NewClient(cfg config.ImageConfig) *Client {
	return &Client{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		source:   cfg.Source,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
	}
}

type generateRequest struct {
	Inputs string `json:"inputs"`
}

// Generate produces an image for the prompt. The request is bound to ctx,
// so cancelling the request's context aborts the call promptly.
func (c *Client) Generate(ctx context.Context, prompt string) (Result, error) {
	body, err := json.Marshal(generateRequest{Inputs: prompt})
	if err != nil {
		return Result{}, fmt.Errorf("failed to encode image request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("failed to build image request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("image request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, fmt.Errorf("image service error: status %d", resp.StatusCode)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read image payload: %w", err)
	}
	if len(payload) == 0 {
		return Result{}, ErrEmptyImage
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	log.Printf("[image] generated %d bytes (%s)", len(payload), contentType)

	return Result{
		DataURI: fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(payload)),
		Source:  c.source,
	}, nil
}
