package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

const postgresSchema = `CREATE TABLE IF NOT EXISTS objects (
	key TEXT PRIMARY KEY,
	body BYTEA NOT NULL
)`

// PostgresStorage implements the Storage interface in a single Postgres table.
type PostgresStorage struct {
	Config Config
	pool   *pgxpool.Pool
}

// NewPostgresStorage connects to config.URL and ensures the table exists.
func NewPostgresStorage(ctx context.Context, config Config) (*PostgresStorage, error) {
	if config.URL == "" {
		return nil, errors.New("postgres url is required")
	}

	pool, err := pgxpool.New(ctx, config.URL)
	if err != nil {
		return nil, errors.Wrap(err, "connect postgres")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "ping postgres")
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "create schema")
	}

	return &PostgresStorage{
		Config: config,
		pool:   pool,
	}, nil
}

// Write upserts the object.
func (p *PostgresStorage) Write(ctx context.Context, key string, body []byte,
	options *Options) error {

	_, err := p.pool.Exec(ctx,
		`INSERT INTO objects (key, body) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET body = EXCLUDED.body`, key, body)
	if err != nil {
		return errors.Wrapf(err, "write %s", key)
	}

	return nil
}

// Read selects the object.
func (p *PostgresStorage) Read(ctx context.Context, key string) ([]byte, error) {
	var body []byte
	err := p.pool.QueryRow(ctx, `SELECT body FROM objects WHERE key = $1`, key).Scan(&body)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "read %s", key)
	}

	return body, nil
}

// Remove deletes the object.
func (p *PostgresStorage) Remove(ctx context.Context, key string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM objects WHERE key = $1`, key); err != nil {
		return errors.Wrapf(err, "remove %s", key)
	}
	return nil
}

// Search returns the objects directly under query["path"].
func (p *PostgresStorage) Search(ctx context.Context,
	query map[string]string) ([][]byte, error) {

	keys, err := p.List(ctx, query["path"])
	if err != nil {
		return nil, err
	}

	objects := make([][]byte, 0, len(keys))
	for _, key := range keys {
		b, err := p.Read(ctx, key)
		if err != nil {
			return nil, err
		}
		objects = append(objects, b)
	}

	return objects, nil
}

// List returns the keys directly under path.
func (p *PostgresStorage) List(ctx context.Context, path string) ([]string, error) {
	prefix := dirPrefix(path)
	rows, err := p.pool.Query(ctx, `SELECT key FROM objects WHERE left(key, $1) = $2`,
		len(prefix), prefix)
	if err != nil {
		return nil, errors.Wrap(err, "list")
	}

	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, errors.Wrap(err, "list")
	}

	return childKeys(keys, path), nil
}

// Clear removes every object under query["path"].
func (p *PostgresStorage) Clear(ctx context.Context, query map[string]string) error {
	prefix := dirPrefix(query["path"])
	_, err := p.pool.Exec(ctx, `DELETE FROM objects WHERE left(key, $1) = $2`,
		len(prefix), prefix)
	if err != nil {
		return errors.Wrap(err, "clear")
	}
	return nil
}

// Close closes the pool.
func (p *PostgresStorage) Close() {
	p.pool.Close()
}
