package logging

import (
	"context"
	"log/slog"

	"dropsort/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventID identifies one file event across settle, classify and place.
	FieldEventID = "event_id"
	// FieldFile is the base name of the file being organized.
	FieldFile = "file"
	// FieldSource is the absolute path a file was found at.
	FieldSource = "source"
	// FieldDestination is the absolute path a file was moved to.
	FieldDestination = "destination"
	// FieldCategory is the classification bucket.
	FieldCategory = "category"
	// FieldOutcome is moved, skipped or failed.
	FieldOutcome = "outcome"
	// FieldReason explains a skip or failure.
	FieldReason = "reason"
	// FieldErrorKind is the error taxonomy label from services.Kind.
	FieldErrorKind = "error_kind"
	// FieldEventType tags lifecycle log lines for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint carries a short operator-facing remedy.
	FieldErrorHint = "error_hint"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	var fields []slog.Attr
	if id, ok := services.EventIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldEventID, id))
	}
	if name, ok := services.FileNameFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldFile, name))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
