package storage

import (
	"context"
	"errors"
)

// ErrCorruptValue marks a stored value that cannot be parsed as expected.
// It is the only fault class the metering core raises on its own; callers
// match it with errors.Is.
var ErrCorruptValue = errors.New("corrupt stored value")

// KV is the flat key-value contract the metering core persists through.
// It is deliberately minimal: opaque string values, no list or set
// primitives, no transactions. Get reports ok=false for an absent key.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}
