// Package persist saves and restores named collections as JSON over a kv.Store.
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"cinetrack/internal/kv"
)

// Save encodes v as JSON and overwrites key with it.
func Save(ctx context.Context, store kv.Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := store.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Load decodes the value stored under key. It reports false when nothing was
// saved, the read failed, or the value does not decode into T; in every such
// case the returned value is T's zero value.
func Load[T any](ctx context.Context, store kv.Store, key string, logger zerolog.Logger) (T, bool) {
	var zero T

	raw, err := store.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return zero, false
	}
	if err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("read stored collection failed, using default")
		return zero, false
	}

	var out T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("stored collection is corrupt, using default")
		return zero, false
	}
	return out, true
}
