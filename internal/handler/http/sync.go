// Package http exposes the synchronization webhooks over HTTP.
package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ihaney/Alpha.A1/internal/domain"
	"github.com/ihaney/Alpha.A1/internal/service"
	apperrors "github.com/ihaney/Alpha.A1/pkg/errors"
	"github.com/ihaney/Alpha.A1/pkg/httputil"
)

// SyncHandler handles change-event webhook calls.
type SyncHandler struct {
	service *service.SyncService
	logger  *slog.Logger
}

// NewSyncHandler creates a new sync webhook handler.
func NewSyncHandler(svc *service.SyncService, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{
		service: svc,
		logger:  logger,
	}
}

// HandleChange applies one catalog change event to the search index.
// POST /api/v1/sync
func (h *SyncHandler) HandleChange(w http.ResponseWriter, r *http.Request) {
	var event domain.ChangeEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		httputil.WriteError(w, r, apperrors.Validation("invalid JSON body"), h.logger)
		return
	}

	if err := h.service.ApplyChange(r.Context(), event); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, nil)
}
