// Package storage holds the key-value stores a trained model is persisted to.
package storage

import (
	"context"
	"errors"
)

var (
	ErrNotFound      = errors.New("key not found")
	ErrQuotaExceeded = errors.New("store quota exceeded")
)

// Store is a blob store keyed by string. Get returns ErrNotFound for absent
// keys; Put returns an error wrapping ErrQuotaExceeded when the blob does not
// fit. Delete of an absent key is not an error.
type Store interface {
	Put(ctx context.Context, key string, blob []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Close() error
}
