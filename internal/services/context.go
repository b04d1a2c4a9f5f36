package services

import "context"

type contextKey string

const (
	attemptIDKey contextKey = "attempt_id"
	stageKey     contextKey = "stage"
	pointKey     contextKey = "point"
	batchIDKey   contextKey = "batch_id"
)

// WithAttemptID annotates context with the attempt identifier.
func WithAttemptID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, attemptIDKey, id)
}

// AttemptIDFromContext extracts the attempt identifier if present.
func AttemptIDFromContext(ctx context.Context) (int64, bool) {
	v := ctx.Value(attemptIDKey)
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	default:
		return 0, false
	}
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	if str, ok := ctx.Value(stageKey).(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithPoint annotates context with the workflow checkpoint name.
func WithPoint(ctx context.Context, point string) context.Context {
	if point == "" {
		return ctx
	}
	return context.WithValue(ctx, pointKey, point)
}

// PointFromContext returns the checkpoint name if present.
func PointFromContext(ctx context.Context) (string, bool) {
	if str, ok := ctx.Value(pointKey).(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithBatchID annotates context with the checkout batch correlation identifier.
func WithBatchID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, batchIDKey, id)
}

// BatchIDFromContext extracts the batch correlation identifier if present.
func BatchIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(batchIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
