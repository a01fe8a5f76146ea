package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// redisScanCount is the COUNT hint passed to SCAN.
const redisScanCount = 500

// RedisStorage implements the Storage interface on a Redis server. Keys are namespaced with the
// configured bucket.
type RedisStorage struct {
	Config Config
	client *redis.Client
}

// NewRedisStorage connects to the server at config.URL and verifies connectivity.
func NewRedisStorage(ctx context.Context, config Config) (*RedisStorage, error) {
	if config.URL == "" {
		return nil, errors.New("redis url is required")
	}

	opt, err := redis.ParseURL(config.URL)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	opt.MaxRetries = config.MaxRetries

	client := redis.NewClient(opt)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrap(err, "ping redis")
	}

	return NewRedisStorageWithClient(config, client), nil
}

// NewRedisStorageWithClient returns a RedisStorage using an existing client.
func NewRedisStorageWithClient(config Config, client *redis.Client) *RedisStorage {
	return &RedisStorage{
		Config: config,
		client: client,
	}
}

// Write sets the key, with an expiry when options.TTL is set.
func (r *RedisStorage) Write(ctx context.Context, key string, body []byte,
	options *Options) error {

	var ttl time.Duration
	if options != nil && options.TTL > 0 {
		ttl = time.Duration(options.TTL) * time.Second
	}

	if err := r.client.Set(ctx, r.buildKey(key), body, ttl).Err(); err != nil {
		return fmt.Errorf("Failed to write to %v : %v", key, err)
	}

	return nil
}

// Read gets the key.
func (r *RedisStorage) Read(ctx context.Context, key string) ([]byte, error) {
	b, err := r.client.Get(ctx, r.buildKey(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("Failed to read from %v : %v", key, err)
	}

	return b, nil
}

// Remove deletes the key.
func (r *RedisStorage) Remove(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.buildKey(key)).Err(); err != nil {
		return fmt.Errorf("Failed to delete %v : %v", key, err)
	}
	return nil
}

// Search returns the objects directly under query["path"].
func (r *RedisStorage) Search(ctx context.Context,
	query map[string]string) ([][]byte, error) {

	keys, err := r.List(ctx, query["path"])
	if err != nil {
		return nil, err
	}

	objects := make([][]byte, 0, len(keys))
	for _, key := range keys {
		b, err := r.Read(ctx, key)
		if err != nil {
			if err == ErrNotFound { // expired between scan and get
				continue
			}
			return nil, err
		}
		objects = append(objects, b)
	}

	return objects, nil
}

// List returns the keys directly under path.
func (r *RedisStorage) List(ctx context.Context, path string) ([]string, error) {
	keys, err := r.scan(ctx, path)
	if err != nil {
		return nil, err
	}

	return childKeys(keys, path), nil
}

// Clear removes every key under query["path"].
func (r *RedisStorage) Clear(ctx context.Context, query map[string]string) error {
	keys, err := r.scan(ctx, query["path"])
	if err != nil {
		return err
	}

	if len(keys) == 0 {
		return nil
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.buildKey(k)
	}

	return r.client.Del(ctx, full...).Err()
}

// Close closes the client.
func (r *RedisStorage) Close() error {
	return r.client.Close()
}

// scan returns every key (without the bucket namespace) under path.
func (r *RedisStorage) scan(ctx context.Context, path string) ([]string, error) {
	namespace := r.buildKey("")
	match := r.buildKey(dirPrefix(path)) + "*"

	var keys []string
	var cursor uint64
	for {
		page, next, err := r.client.Scan(ctx, cursor, match, redisScanCount).Result()
		if err != nil {
			return nil, errors.Wrap(err, "scan")
		}

		for _, k := range page {
			keys = append(keys, k[len(namespace):])
		}

		if next == 0 {
			break
		}
		cursor = next
	}

	return keys, nil
}

func (r *RedisStorage) buildKey(key string) string {
	if len(r.Config.Bucket) == 0 {
		return key
	}
	return r.Config.Bucket + ":" + key
}
