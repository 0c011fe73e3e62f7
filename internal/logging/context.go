package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized structured logging key for export run identifiers.
	FieldRunID = "run_id"
	// FieldLevel is the standardized structured logging key for mip level indices.
	FieldLevel = "mip_level"
	// FieldSize is the standardized structured logging key for mip pixel dimensions.
	FieldSize = "size"
	// FieldTool is the standardized structured logging key for external tool names.
	FieldTool = "tool"
)

type contextKey int

const (
	runIDKey contextKey = iota
	levelKey
)

// WithRunID attaches an export run identifier to ctx.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// WithLevel attaches the mip level being processed to ctx.
func WithLevel(ctx context.Context, level int) context.Context {
	return context.WithValue(ctx, levelKey, level)
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if id, ok := ctx.Value(runIDKey).(string); ok && id != "" {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if level, ok := ctx.Value(levelKey).(int); ok {
		fields = append(fields, slog.Int(FieldLevel, level))
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
	args := make([]any, 0, len(fields))
	for _, field := range fields {
		args = append(args, field)
	}
	return logger.With(args...)
}
