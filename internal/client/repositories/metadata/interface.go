// Package metadata is the durable key/value store behind the session, the
// post draft and user preferences. Values are plain strings.
package metadata

import (
	"context"
)

// Repository reads and writes single keys of the metadata table.
// Get reports a missing key as ok=false with a nil error.
type Repository interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	List(ctx context.Context) (map[string]string, error)
	Clear(ctx context.Context) error
}

// KV is a Repository that can also write several keys atomically.
type KV interface {
	Repository
	SetMany(ctx context.Context, values map[string]string) error
}

var _ KV = (*Store)(nil)
