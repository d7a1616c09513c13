// Package storage persists serialized parameter values.
package storage

import (
	"context"

	"github.com/darkjune/eclipse/pkg/naming"
)

// Storage loads and saves raw parameter values keyed by their full name.
type Storage interface {
	// Load returns the stored value and whether it was present.
	Load(ctx context.Context, key naming.FullName) (string, bool, error)
	Save(ctx context.Context, key naming.FullName, raw string) error
}

// Flusher is implemented by storages buffering writes.
type Flusher interface {
	Flush(ctx context.Context) error
}

// Flush flushes s if it buffers writes.
func Flush(ctx context.Context, s Storage) error {
	if f, ok := s.(Flusher); ok {
		return f.Flush(ctx)
	}
	return nil
}
