// Package reqid carries a per-request identifier through the context so
// events published while serving a request can be correlated.
package reqid

import (
	"context"

	"github.com/google/uuid"
)

// Header is the HTTP header a caller may use to supply its own id.
const Header = "X-Request-Id"

type key struct{}

// NewContext returns a copy of parent carrying a fresh random id, and the id.
func NewContext(parent context.Context) (context.Context, string) {
	return WithID(parent, uuid.NewString())
}

// WithID returns a copy of parent carrying id. An empty id is replaced with a
// generated one.
func WithID(parent context.Context, id string) (context.Context, string) {
	if id == "" {
		id = uuid.NewString()
	}
	return context.WithValue(parent, key{}, id), id
}

// FromContext returns the request id stored in ctx, if any.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(key{}).(string)
	return id, ok
}
