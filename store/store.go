// Package store persists annotrack state in a string key-value store
package store

import (
	"github.com/ayoisaiah/annotrack/internal/apperr"
)

var (
	// ErrNotFound is returned by Get when a key has no value.
	ErrNotFound = &apperr.Error{
		Message: "key not found",
	}

	errAlreadyRunning = &apperr.Error{
		Message: "is annotrack already running? Only one instance can be active at a time",
	}

	errOpenDB = &apperr.Error{
		Message: "unable to open the tracking database",
	}
)

// KV is a string key-value store. Implementations are not required to
// coordinate writers across processes.
type KV interface {
	// Get returns the value stored under key or ErrNotFound.
	Get(key string) (string, error)
	// Set stores value under key, overwriting any previous value.
	Set(key, value string) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(key string) error
	// Keys returns all keys that start with prefix in ascending order.
	Keys(prefix string) ([]string, error)
	// Close releases the store.
	Close() error
}
