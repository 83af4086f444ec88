package ai

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/vaidikdevsen/friday-ai/backend/internal/config"
)

// enhancementInstruction steers the model toward producing a richer
// image-generation prompt and nothing else.
const enhancementInstruction = "Create a detailed, descriptive prompt for AI image generation. " +
	"Include: subject details, style (e.g., photorealistic, artistic, cinematic), " +
	"lighting (natural, studio, dramatic), composition, colors, mood, camera angle, " +
	"and quality descriptors (high quality, detailed, sharp, 8k). " +
	"Be specific and vivid. Return only the enhanced prompt, no extra text."

// Service wraps the prompt-enhancement model behind a single call.
type Service struct {
	chatModel model.ChatModel
	cfg       config.AIConfig
	chain     compose.Runnable[map[string]any, *schema.Message]
}

// NewService creates the enhancement service from configuration.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile enhancement chain: %w", err)
	}

	return &Service{
		chatModel: chatModel,
		cfg:       cfg,
		chain:     runnable,
	}, nil
}

// Enhance rewrites the raw user text into a richer image prompt. Callers
// treat any error as a cue to fall back to the raw text; the service
// itself never substitutes.
func (s *Service) Enhance(ctx context.Context, userText string) (string, error) {
	response, err := s.chain.Invoke(ctx, map[string]any{
		"system": enhancementInstruction,
		"query":  userText,
	})
	if err != nil {
		return "", fmt.Errorf("failed to run enhancement chain: %w", err)
	}

	enhanced := strings.TrimSpace(response.Content)
	if enhanced == "" {
		return "", fmt.Errorf("enhancement model returned empty prompt")
	}

	log.Printf("[ai] enhanced prompt, in=%d out=%d chars", len(userText), len(enhanced))
	return enhanced, nil
}
