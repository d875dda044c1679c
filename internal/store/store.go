// Package store provides the durable key-value stores behind the index.
//
// Two instances are used per indexed root: the word index (term -> postings)
// and the source registry (document id -> path). Both sit behind the same
// Store interface, backed by SQLite or bbolt.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store is closed")

// Store is a persistent string-keyed byte map.
//
// ForEach callbacks must not call back into the same store.
type Store interface {
	// Get returns the value stored under key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// ForEach calls fn for every entry in key order. Iteration stops at the
	// first error fn returns.
	ForEach(ctx context.Context, fn func(key string, value []byte) error) error

	// Replace atomically swaps the whole content for entries.
	Replace(ctx context.Context, entries map[string][]byte) error

	// Close flushes and releases the store. Closing twice is a no-op.
	Close() error
}

// With opens the store at basePath, runs fn and always closes the store,
// whatever fn returns.
func With(basePath string, backend Backend, fn func(Store) error) (err error) {
	s, err := Open(basePath, backend)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close %s: %w", basePath, cerr))
		}
	}()
	return fn(s)
}

// Map is a typed view over a Store with JSON-encoded values.
type Map[V any] struct {
	s Store
}

// NewMap wraps s.
func NewMap[V any](s Store) *Map[V] {
	return &Map[V]{s: s}
}

// Get decodes the value under key.
func (m *Map[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var v V
	data, ok, err := m.s.Get(ctx, key)
	if err != nil || !ok {
		return v, ok, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, false, fmt.Errorf("decode %q: %w", key, err)
	}
	return v, true, nil
}

// Set encodes v under key.
func (m *Map[V]) Set(ctx context.Context, key string, v V) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	return m.s.Set(ctx, key, data)
}

// Delete removes key.
func (m *Map[V]) Delete(ctx context.Context, key string) error {
	return m.s.Delete(ctx, key)
}

// ForEach decodes and visits every entry.
func (m *Map[V]) ForEach(ctx context.Context, fn func(key string, v V) error) error {
	return m.s.ForEach(ctx, func(key string, data []byte) error {
		var v V
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("decode %q: %w", key, err)
		}
		return fn(key, v)
	})
}

// Replace encodes entries and swaps them in atomically.
func (m *Map[V]) Replace(ctx context.Context, entries map[string]V) error {
	raw := make(map[string][]byte, len(entries))
	for k, v := range entries {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %q: %w", k, err)
		}
		raw[k] = data
	}
	return m.s.Replace(ctx, raw)
}
