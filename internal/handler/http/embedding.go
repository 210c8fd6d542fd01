package http

import (
	"log/slog"
	"net/http"

	"github.com/ihaney/Alpha.A1/internal/service"
	apperrors "github.com/ihaney/Alpha.A1/pkg/errors"
	"github.com/ihaney/Alpha.A1/pkg/httputil"
	"github.com/ihaney/Alpha.A1/pkg/validator"
)

// EmbeddingHandler handles embedding webhook calls.
type EmbeddingHandler struct {
	service *service.EmbeddingService
	logger  *slog.Logger
}

// NewEmbeddingHandler creates a new embedding webhook handler.
func NewEmbeddingHandler(svc *service.EmbeddingService, logger *slog.Logger) *EmbeddingHandler {
	return &EmbeddingHandler{
		service: svc,
		logger:  logger,
	}
}

// EmbedRequest is the JSON request body for generating an embedding.
type EmbedRequest struct {
	Text string `json:"text" validate:"required,max=8000"`
}

// EmbedResponse is the JSON response body with the generated vector.
type EmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// HandleEmbed turns request text into an embedding vector.
// POST /api/v1/embed
func (h *EmbeddingHandler) HandleEmbed(w http.ResponseWriter, r *http.Request) {
	var req EmbedRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, apperrors.Validation(err.Error()), h.logger)
		return
	}

	embedding, err := h.service.Embed(r.Context(), req.Text)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, EmbedResponse{Embedding: embedding})
}
