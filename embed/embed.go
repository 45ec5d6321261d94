// Package embed generates text embeddings through a local Ollama server.
// It backs the optional /embed endpoint used by RAG ingestion pipelines
// that consume this service's scraped content.
package embed

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/embedding/ollama"

	"github.com/gatherkit/gather/config"
	"github.com/gatherkit/gather/models"
)

// Service wraps the Ollama embedder. A nil *Service means embedding is
// not configured; callers should treat the feature as disabled.
type Service struct {
	model     *ollama.Embedder
	modelName string
}

// NewService initialises the embedder. Returns (nil, nil) when no model
// is configured, which keeps the /embed endpoint disabled.
func NewService(ctx context.Context, cfg config.EmbedConfig) (*Service, error) {
	if cfg.Model == "" {
		return nil, nil
	}

	model, err := ollama.NewEmbedder(ctx, &ollama.EmbeddingConfig{
		Model:   cfg.Model,
		BaseURL: cfg.BaseURL,
	})
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeEmbedding,
			fmt.Sprintf("failed to initialise embedder for model %q", cfg.Model),
			err,
		)
	}
	return &Service{model: model, modelName: cfg.Model}, nil
}

// Model returns the configured model name.
func (s *Service) Model() string {
	return s.modelName
}

// Embed converts one text into its embedding vector.
func (s *Service) Embed(ctx context.Context, text string) ([]float64, error) {
	vectors, err := s.model.EmbedStrings(ctx, []string{text})
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeEmbedding,
			"embedding generation failed",
			err,
		)
	}
	if len(vectors) == 0 {
		return nil, models.NewScrapeError(
			models.ErrCodeEmbedding,
			"embedder returned no vectors",
			nil,
		)
	}
	return vectors[0], nil
}
