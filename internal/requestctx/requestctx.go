package requestctx

import (
	"context"

	"github.com/oklog/ulid/v2"
)

// Header carries the correlation id on requests and responses
const Header = "X-Request-ID"

type idKey struct{}

// With returns a copy of ctx carrying the correlation id
func With(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, idKey{}, id)
}

// ID returns the correlation id carried by ctx, "" when there is none
func ID(ctx context.Context) string {
	id, _ := ctx.Value(idKey{}).(string)
	return id
}

// NewID returns a ULID. Ids from one process are strictly increasing,
// even within the same millisecond.
func NewID() string {
	return ulid.Make().String()
}

// Resolve returns the supplied id verbatim when it is non-empty,
// otherwise a freshly generated one.
func Resolve(supplied string) string {
	if supplied != "" {
		return supplied
	}
	return NewID()
}
