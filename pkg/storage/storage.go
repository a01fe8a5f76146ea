// Package storage provides key/value object storage with interchangeable backends. Keys are
// slash separated paths, e.g. "tokens/<contract>/balances/<holder>".
package storage

import (
	"context"
	"errors"
	"os"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned by Read when there is no object at the key.
	ErrNotFound = errors.New("Object not found")
)

// Storage is implemented by every backend.
type Storage interface {
	// Write stores body at key, replacing anything already there.
	Write(ctx context.Context, key string, body []byte, options *Options) error

	// Read returns the object at key, or ErrNotFound.
	Read(ctx context.Context, key string) ([]byte, error)

	// Remove deletes the object at key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error

	// Search returns the objects directly under query["path"].
	Search(ctx context.Context, query map[string]string) ([][]byte, error)

	// List returns the keys directly under path, sorted.
	List(ctx context.Context, path string) ([]string, error)

	// Clear removes the objects under query["path"].
	Clear(ctx context.Context, query map[string]string) error
}

// Options are optional per write settings. Backends ignore the fields that do not apply to them.
type Options struct {
	TTL     int64 // Seconds until the object expires. 0 never expires.
	Mode    os.FileMode
	DirMode os.FileMode
}

// NewOptions returns the default Options.
func NewOptions() Options {
	return Options{
		Mode:    0644,
		DirMode: 0755,
	}
}

// childKeys returns the keys that are directly under path, sorted.
func childKeys(keys []string, path string) []string {
	prefix := dirPrefix(path)

	result := make([]string, 0, len(keys))
	for _, k := range keys {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		rest := k[len(prefix):]
		if len(rest) == 0 || strings.Contains(rest, "/") {
			continue
		}
		result = append(result, k)
	}

	sort.Strings(result)
	return result
}

// dirPrefix returns path with exactly one trailing slash, or "" for the root.
func dirPrefix(path string) string {
	path = strings.TrimSuffix(path, "/")
	if len(path) == 0 {
		return ""
	}
	return path + "/"
}
