// Package storage persists session flags, signature logs and reward balances
// as JSON values under plain string keys.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// UpdateFunc receives the current value (nil, false when absent) and returns the next one.
// Returning a nil slice deletes the key. Returning an error aborts the update.
type UpdateFunc func(current []byte, exists bool) ([]byte, error)

// Store is a persistent key-value store.
// Update is atomic with respect to every other call on the same Store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Update(ctx context.Context, key string, fn UpdateFunc) error
	Close() error
}

// ReadError is returned when a persisted value cannot be decoded
type ReadError struct {
	Key string
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("malformed value for key %s: %v", e.Key, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// IsReadError checks if error is ReadError
func IsReadError(err error) bool {
	var re *ReadError
	return errors.As(err, &re)
}

// GetJSON decodes the value under key into v.
// Returns false when the key is absent and *ReadError when the value is malformed.
func GetJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, &ReadError{Key: key, Err: err}
	}
	return true, nil
}

// SetJSON encodes v and stores it under key
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return s.Set(ctx, key, raw)
}

// UpdateJSON atomically decodes the value under key, applies fn and stores the result.
// A malformed stored value is passed to fn as the zero value of T and reported through onMalformed.
func UpdateJSON[T any](ctx context.Context, s Store, key string, onMalformed func(error), fn func(current T, exists bool) (T, error)) error {
	return s.Update(ctx, key, func(raw []byte, exists bool) ([]byte, error) {
		var cur T
		if exists {
			if err := json.Unmarshal(raw, &cur); err != nil {
				if onMalformed != nil {
					onMalformed(&ReadError{Key: key, Err: err})
				}
				var zero T
				cur = zero
				exists = false
			}
		}
		next, err := fn(cur, exists)
		if err != nil {
			return nil, err
		}
		out, err := json.Marshal(next)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s: %w", key, err)
		}
		return out, nil
	})
}
