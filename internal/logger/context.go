package logger

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

type (
	loggerKey struct{}
	eventKey  struct{}
)

// ContextWithLogger stores a request-scoped logger in the context.
func ContextWithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext extracts the request-scoped logger, or zap.NewNop().
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}

// Event accumulates fields for the canonical per-request log line.
// Handlers add retrieval outcome, generation id or risk as they learn them.
type Event struct {
	mu     sync.Mutex
	fields []zap.Field
}

// Add appends fields to the event.
func (e *Event) Add(fields ...zap.Field) {
	e.mu.Lock()
	e.fields = append(e.fields, fields...)
	e.mu.Unlock()
}

// Fields returns a copy of the accumulated fields.
func (e *Event) Fields() []zap.Field {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]zap.Field, len(e.fields))
	copy(out, e.fields)
	return out
}

// ContextWithEvent attaches a fresh Event to ctx.
func ContextWithEvent(ctx context.Context) (context.Context, *Event) {
	e := &Event{}
	return context.WithValue(ctx, eventKey{}, e), e
}

// Annotate adds fields to the request's Event. No-op outside a request.
func Annotate(ctx context.Context, fields ...zap.Field) {
	if e, ok := ctx.Value(eventKey{}).(*Event); ok {
		e.Add(fields...)
	}
}
