package services

import "context"

type contextKey string

const (
	eventIDKey  contextKey = "event_id"
	fileNameKey contextKey = "file_name"
)

// WithEventID annotates context with the file event identifier.
func WithEventID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, eventIDKey, id)
}

// EventIDFromContext extracts the file event identifier if present.
func EventIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(eventIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithFileName annotates context with the base name of the file being organized.
func WithFileName(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, fileNameKey, name)
}

// FileNameFromContext returns the file name if present.
func FileNameFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(fileNameKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
