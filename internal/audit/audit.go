// Package audit records pipeline errors into the audit store. Writes are
// best-effort: a failed write is logged and swallowed so audit logging can
// never break the operation it is reporting on.
package audit

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"

	"github.com/ihaney/Alpha.A1/internal/repository"
	"github.com/ihaney/Alpha.A1/pkg/middleware"
)

// Severity levels for audit records.
const (
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Logger writes audit records through an AuditRepository.
type Logger struct {
	repo   repository.AuditRepository
	logger *slog.Logger
}

// NewLogger creates an audit logger. A nil repository disables persistence;
// records still go to the structured log.
func NewLogger(repo repository.AuditRepository, logger *slog.Logger) *Logger {
	return &Logger{repo: repo, logger: logger}
}

// Error records a failure with error severity.
func (l *Logger) Error(ctx context.Context, err error, fields map[string]any) {
	l.record(ctx, err, SeverityError, fields)
}

// Critical records a failure with critical severity.
func (l *Logger) Critical(ctx context.Context, err error, fields map[string]any) {
	l.record(ctx, err, SeverityCritical, fields)
}

func (l *Logger) record(ctx context.Context, err error, severity string, fields map[string]any) {
	if err == nil {
		return
	}

	l.logger.ErrorContext(ctx, "pipeline error",
		slog.String("error", err.Error()),
		slog.String("severity", severity),
		slog.Any("context", fields),
	)

	if l.repo == nil {
		return
	}

	entry := repository.LogEntry{
		Message:  err.Error(),
		Stack:    stackOf(err),
		Severity: severity,
		UserID:   middleware.CallerIDFromContext(ctx),
		Context:  fields,
	}
	if insertErr := l.repo.Insert(ctx, entry); insertErr != nil {
		// Swallowed: the audit store being down must not cascade.
		l.logger.ErrorContext(ctx, "failed to persist audit record",
			slog.String("error", insertErr.Error()),
		)
	}
}

// stackOf returns a stack trace for the record. Plain errors carry no stack,
// so the current goroutine's stack stands in as the capture point.
func stackOf(err error) string {
	var tracer interface{ StackTrace() string }
	if errors.As(err, &tracer) {
		return tracer.StackTrace()
	}
	return string(debug.Stack())
}
