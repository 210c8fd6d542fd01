package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ihaney/Alpha.A1/internal/repository"
	"github.com/ihaney/Alpha.A1/pkg/middleware"
)

type capturingRepo struct {
	entries []repository.LogEntry
	err     error
}

func (r *capturingRepo) Insert(_ context.Context, entry repository.LogEntry) error {
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, entry)
	return nil
}

func newAuditLogger(repo repository.AuditRepository) *Logger {
	return NewLogger(repo, slog.New(slog.NewJSONHandler(io.Discard, nil)))
}

func TestLogger_PersistsRecord(t *testing.T) {
	repo := &capturingRepo{}
	l := newAuditLogger(repo)

	l.Error(context.Background(), errors.New("index unavailable"), map[string]any{
		"job": "full_reindex",
	})

	require.Len(t, repo.entries, 1)
	entry := repo.entries[0]
	assert.Equal(t, "index unavailable", entry.Message)
	assert.Equal(t, SeverityError, entry.Severity)
	assert.Equal(t, "full_reindex", entry.Context["job"])
	assert.NotEmpty(t, entry.Stack)
}

func TestLogger_RecordsAuthenticatedCaller(t *testing.T) {
	repo := &capturingRepo{}
	l := newAuditLogger(repo)

	ctx := middleware.WithCallerID(context.Background(), "webhook")
	l.Error(ctx, errors.New("upsert failed"), nil)

	require.Len(t, repo.entries, 1)
	assert.Equal(t, "webhook", repo.entries[0].UserID)
}

func TestLogger_CriticalSeverity(t *testing.T) {
	repo := &capturingRepo{}
	l := newAuditLogger(repo)

	l.Critical(context.Background(), errors.New("reindex aborted"), nil)

	require.Len(t, repo.entries, 1)
	assert.Equal(t, SeverityCritical, repo.entries[0].Severity)
}

func TestLogger_SwallowsRepositoryFailure(t *testing.T) {
	repo := &capturingRepo{err: errors.New("error_logs table missing")}
	l := newAuditLogger(repo)

	// Must not panic or propagate: audit writes are best-effort.
	l.Error(context.Background(), errors.New("primary failure"), nil)
}

func TestLogger_NilErrorIsNoop(t *testing.T) {
	repo := &capturingRepo{}
	l := newAuditLogger(repo)

	l.Error(context.Background(), nil, nil)
	assert.Empty(t, repo.entries)
}

func TestLogger_NilRepositoryOnlyLogs(t *testing.T) {
	l := newAuditLogger(nil)
	l.Error(context.Background(), errors.New("boom"), nil)
}
