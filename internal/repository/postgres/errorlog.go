package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ihaney/Alpha.A1/internal/repository"
)

// AuditRepository persists error records into the error_logs table.
type AuditRepository struct {
	db DB
}

// NewAuditRepository creates a PostgreSQL-backed audit repository.
func NewAuditRepository(db DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Insert writes one audit record. Context is stored as JSONB.
func (r *AuditRepository) Insert(ctx context.Context, entry repository.LogEntry) error {
	contextJSON, err := json.Marshal(entry.Context)
	if err != nil {
		return fmt.Errorf("marshal log context: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO error_logs (error_message, error_stack, severity, user_id, context)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5)`,
		entry.Message, entry.Stack, entry.Severity, entry.UserID, contextJSON,
	)
	if err != nil {
		return fmt.Errorf("insert error log: %w", err)
	}
	return nil
}
