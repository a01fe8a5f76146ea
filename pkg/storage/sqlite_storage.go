package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	_ "modernc.org/sqlite"
)

const (
	sqliteBusyTimeoutMs = 5000

	sqliteSchema = `CREATE TABLE IF NOT EXISTS objects (
	key TEXT PRIMARY KEY,
	body BLOB NOT NULL
)`
)

// SQLiteStorage implements the Storage interface in a single SQLite table.
type SQLiteStorage struct {
	Config Config
	db     *sql.DB
}

// NewSQLiteStorage opens (creating if needed) the database file at config.URL.
func NewSQLiteStorage(ctx context.Context, config Config) (*SQLiteStorage, error) {
	file := strings.TrimPrefix(config.URL, "sqlite://")
	if file == "" {
		return nil, errors.New("sqlite file is required")
	}

	db, err := sql.Open("sqlite", file)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}

	// one writer at a time keeps SQLITE_BUSY out of the picture.
	db.SetMaxOpenConns(1)

	pragma := fmt.Sprintf("PRAGMA busy_timeout = %d", sqliteBusyTimeoutMs)
	if _, err := db.ExecContext(ctx, pragma); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "busy timeout")
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create schema")
	}

	return &SQLiteStorage{
		Config: config,
		db:     db,
	}, nil
}

// Write upserts the object.
func (s *SQLiteStorage) Write(ctx context.Context, key string, body []byte,
	options *Options) error {

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO objects (key, body) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET body = excluded.body`, key, body)
	if err != nil {
		return errors.Wrapf(err, "write %s", key)
	}

	return nil
}

// Read selects the object.
func (s *SQLiteStorage) Read(ctx context.Context, key string) ([]byte, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM objects WHERE key = ?`, key).Scan(&body)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "read %s", key)
	}

	return body, nil
}

// Remove deletes the object.
func (s *SQLiteStorage) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM objects WHERE key = ?`, key); err != nil {
		return errors.Wrapf(err, "remove %s", key)
	}
	return nil
}

// Search returns the objects directly under query["path"].
func (s *SQLiteStorage) Search(ctx context.Context,
	query map[string]string) ([][]byte, error) {

	keys, err := s.List(ctx, query["path"])
	if err != nil {
		return nil, err
	}

	objects := make([][]byte, 0, len(keys))
	for _, key := range keys {
		b, err := s.Read(ctx, key)
		if err != nil {
			return nil, err
		}
		objects = append(objects, b)
	}

	return objects, nil
}

// List returns the keys directly under path.
func (s *SQLiteStorage) List(ctx context.Context, path string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM objects WHERE substr(key, 1, ?) = ?`,
		len(dirPrefix(path)), dirPrefix(path))
	if err != nil {
		return nil, errors.Wrap(err, "list")
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, errors.Wrap(err, "scan key")
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "list")
	}

	return childKeys(keys, path), nil
}

// Clear removes every object under query["path"].
func (s *SQLiteStorage) Clear(ctx context.Context, query map[string]string) error {
	prefix := dirPrefix(query["path"])
	_, err := s.db.ExecContext(ctx, `DELETE FROM objects WHERE substr(key, 1, ?) = ?`,
		len(prefix), prefix)
	if err != nil {
		return errors.Wrap(err, "clear")
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
