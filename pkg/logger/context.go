package logger

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const requestIDKey contextKey = "request_id"

func NewRequestID() string {
	return uuid.New().String()[:8]
}

func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// FromContext tags l with the request id carried by ctx, if any.
func FromContext(ctx context.Context, l Logger) Logger {
	id := RequestIDFromContext(ctx)
	if id == "" {
		return l
	}
	if bl, ok := l.(*BaseLogger); ok {
		return bl.With("request_id", id)
	}
	return l.WithPrefix("[" + id + "]")
}
