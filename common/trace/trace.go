// Package trace provides turn ID generation and context propagation so log
// lines emitted while handling one webhook turn can be correlated.
package trace

import (
	"context"

	"github.com/google/uuid"
)

// traceKey is the unexported context key used to store the turn ID.
type traceKey struct{}

// NewID generates a unique turn ID.
func NewID() string {
	return "turn_" + uuid.NewString()
}

// WithID returns a child context carrying the given turn ID.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceKey{}, id)
}

// FromContext extracts the turn ID from ctx, returning "" if absent.
func FromContext(ctx context.Context) string {
	if v, ok := ctx.Value(traceKey{}).(string); ok {
		return v
	}
	return ""
}
