package db

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/payme/contracts/pkg/storage"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"
)

var (
	// ErrInvalidDBProvided is returned in the event that an uninitialized db is
	// used to perform actions against.
	ErrInvalidDBProvided = errors.New("Invalid DB provided")

	// ErrNotFound abstracts the standard not found error.
	ErrNotFound = errors.New("Entity not found")
)

const (
	// BucketStandalone stores objects on the local filesystem under Root.
	BucketStandalone = "standalone"

	// BucketMemory keeps objects in process memory.
	BucketMemory = "memory"
)

// DB is the persistent key-value store the contracts read and write. The backend is chosen by
// the StorageConfig.
type DB struct {
	storage storage.Storage
}

// StorageConfig is geared towards "bucket" style storage, where you have a
// specific root (the Bucket). A URL with a redis://, sqlite:// or postgres:// scheme selects a
// database backend instead of a bucket.
type StorageConfig struct {
	Bucket     string
	Root       string
	URL        string
	MaxRetries int
	RetryDelay int // Milliseconds between retries

	Region    string
	AccessKey string
	Secret    string
}

// New returns a new DB value for use with the storage backend selected by sc.
func New(ctx context.Context, sc *StorageConfig) (*DB, error) {
	if sc == nil {
		return nil, ErrInvalidDBProvided
	}

	storeConfig := storage.NewConfig(sc.Bucket, sc.Root)
	storeConfig.URL = sc.URL
	storeConfig.Region = sc.Region
	storeConfig.AccessKey = sc.AccessKey
	storeConfig.Secret = sc.Secret
	if sc.MaxRetries > 0 {
		storeConfig.MaxRetries = sc.MaxRetries
	}

	var store storage.Storage
	var err error
	switch {
	case strings.HasPrefix(sc.URL, "redis://"), strings.HasPrefix(sc.URL, "rediss://"):
		store, err = storage.NewRedisStorage(ctx, storeConfig)
	case strings.HasPrefix(sc.URL, "sqlite://"):
		store, err = storage.NewSQLiteStorage(ctx, storeConfig)
	case strings.HasPrefix(sc.URL, "postgres://"), strings.HasPrefix(sc.URL, "postgresql://"):
		store, err = storage.NewPostgresStorage(ctx, storeConfig)
	case len(sc.URL) > 0:
		return nil, fmt.Errorf("Unsupported storage url scheme : %s", sc.URL)
	case strings.ToLower(sc.Bucket) == BucketStandalone:
		store = storage.NewFilesystemStorage(storeConfig)
	case strings.ToLower(sc.Bucket) == BucketMemory:
		store = storage.NewMemoryStorage()
	default:
		store = storage.NewS3Storage(storeConfig)
	}
	if err != nil {
		return nil, errors.Wrap(err, "open storage")
	}

	return NewWithStorage(store), nil
}

// NewWithStorage returns a DB using an already constructed backend.
func NewWithStorage(store storage.Storage) *DB {
	return &DB{
		storage: store,
	}
}

// StatusCheck validates the DB status good.
func (db *DB) StatusCheck(ctx context.Context) error {
	ctx, span := trace.StartSpan(ctx, "platform.DB.StatusCheck")
	defer span.End()

	if db.storage == nil {
		return ErrInvalidDBProvided
	}

	// Generate a random key that is almost certain not to exist.
	uid, _ := uuid.NewRandom()
	ts := time.Now().UnixNano()
	k := fmt.Sprintf("healthcheck/%v/%v", uid, ts)

	// We should receive a "not found" error for a non-existant key.
	if _, err := db.Fetch(ctx, k); err != ErrNotFound {
		return err
	}

	return nil
}

// Close closes a DB value being used.
func (db *DB) Close() error {
	store := db.storage
	db.storage = nil

	switch s := store.(type) {
	case io.Closer:
		return s.Close()
	case interface{ Close() }:
		s.Close()
	}

	return nil
}

// -------------------------------------------------------------------------
// Storage

// Put something in storage
func (db *DB) Put(ctx context.Context, key string, body []byte) error {
	if db.storage == nil {
		return errors.Wrap(ErrInvalidDBProvided, "storage == nil")
	}

	return db.storage.Write(ctx, key, body, nil)
}

// Fetch something from storage
func (db *DB) Fetch(ctx context.Context, key string) ([]byte, error) {
	if db.storage == nil {
		return nil, errors.Wrap(ErrInvalidDBProvided, "storage == nil")
	}

	b, err := db.storage.Read(ctx, key)
	if err != nil {
		if err == storage.ErrNotFound {
			err = ErrNotFound
		}

		return nil, err
	}

	return b, nil
}

// Remove something from storage
func (db *DB) Remove(ctx context.Context, key string) error {
	if db.storage == nil {
		return errors.Wrap(ErrInvalidDBProvided, "storage == nil")
	}

	return db.storage.Remove(ctx, key)
}

// Search for things in storage
func (db *DB) Search(ctx context.Context, keyStart string) ([][]byte, error) {
	if db.storage == nil {
		return nil, errors.Wrap(ErrInvalidDBProvided, "storage == nil")
	}
	query := map[string]string{
		"path": keyStart,
	}

	return db.storage.Search(ctx, query)
}

// List returns the keys under a given path.
func (db *DB) List(ctx context.Context, key string) ([]string, error) {
	if db.storage == nil {
		return nil, errors.Wrap(ErrInvalidDBProvided, "storage == nil")
	}

	return db.storage.List(ctx, key)
}

// Clear removes everything under a given path.
func (db *DB) Clear(ctx context.Context, keyStart string) error {
	if db.storage == nil {
		return errors.Wrap(ErrInvalidDBProvided, "storage == nil")
	}
	query := map[string]string{
		"path": keyStart,
	}

	return db.storage.Clear(ctx, query)
}
