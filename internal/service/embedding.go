package service

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	openai "github.com/sashabaranov/go-openai"

	apperrors "github.com/ihaney/Alpha.A1/pkg/errors"
)

// maxEmbeddingTextLen bounds the text accepted for embedding.
const maxEmbeddingTextLen = 8000

// EmbeddingClient is the slice of the OpenAI client the service uses.
type EmbeddingClient interface {
	CreateEmbeddings(ctx context.Context, req openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// EmbeddingService turns free text into an embedding vector for semantic
// search.
type EmbeddingService struct {
	client EmbeddingClient
	model  openai.EmbeddingModel
	logger *slog.Logger
}

// NewEmbeddingService creates the embedding service.
func NewEmbeddingService(client EmbeddingClient, logger *slog.Logger) *EmbeddingService {
	return &EmbeddingService{
		client: client,
		model:  openai.AdaEmbeddingV2,
		logger: logger,
	}
}

// Embed returns the embedding vector for text. Text must be between 1 and
// 8000 characters.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, apperrors.Validation("text is required")
	}
	if utf8.RuneCountInString(text) > maxEmbeddingTextLen {
		return nil, apperrors.Validation(fmt.Sprintf("text must not exceed %d characters", maxEmbeddingTextLen))
	}

	resp, err := s.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: s.model,
	})
	if err != nil {
		return nil, apperrors.Upstream(fmt.Errorf("create embedding: %w", err))
	}
	if len(resp.Data) == 0 {
		return nil, apperrors.Upstream(fmt.Errorf("embedding response contained no data"))
	}

	s.logger.DebugContext(ctx, "embedding generated",
		slog.Int("text_len", len(text)),
		slog.Int("dimensions", len(resp.Data[0].Embedding)),
	)
	return resp.Data[0].Embedding, nil
}
