package storage

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryStorage implements the Storage interface in process memory. It is used by tests and
// by the "memory" bucket for throw away instances.
type MemoryStorage struct {
	lock    sync.RWMutex
	objects map[string]memoryObject
}

type memoryObject struct {
	body    []byte
	expires time.Time
}

// NewMemoryStorage returns an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		objects: make(map[string]memoryObject),
	}
}

// Write copies body into memory.
func (m *MemoryStorage) Write(ctx context.Context, key string, body []byte,
	options *Options) error {

	obj := memoryObject{
		body: append([]byte(nil), body...),
	}
	if options != nil && options.TTL > 0 {
		obj.expires = time.Now().Add(time.Duration(options.TTL) * time.Second)
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	m.objects[key] = obj
	return nil
}

// Read returns a copy of the object at key.
func (m *MemoryStorage) Read(ctx context.Context, key string) ([]byte, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	obj, exists := m.objects[key]
	if !exists || obj.expired(time.Now()) {
		return nil, ErrNotFound
	}

	return append([]byte(nil), obj.body...), nil
}

// Remove deletes the object at key.
func (m *MemoryStorage) Remove(ctx context.Context, key string) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	delete(m.objects, key)
	return nil
}

// Search returns the objects directly under query["path"].
func (m *MemoryStorage) Search(ctx context.Context,
	query map[string]string) ([][]byte, error) {

	keys, err := m.List(ctx, query["path"])
	if err != nil {
		return nil, err
	}

	objects := make([][]byte, 0, len(keys))
	for _, key := range keys {
		b, err := m.Read(ctx, key)
		if err != nil {
			if err == ErrNotFound {
				continue
			}
			return nil, err
		}
		objects = append(objects, b)
	}

	return objects, nil
}

// List returns the keys directly under path.
func (m *MemoryStorage) List(ctx context.Context, path string) ([]string, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	now := time.Now()
	keys := make([]string, 0, len(m.objects))
	for key, obj := range m.objects {
		if obj.expired(now) {
			continue
		}
		keys = append(keys, key)
	}

	return childKeys(keys, path), nil
}

// Clear removes every object under query["path"].
func (m *MemoryStorage) Clear(ctx context.Context, query map[string]string) error {
	prefix := dirPrefix(query["path"])

	m.lock.Lock()
	defer m.lock.Unlock()

	for key := range m.objects {
		if strings.HasPrefix(key, prefix) {
			delete(m.objects, key)
		}
	}

	return nil
}

func (o memoryObject) expired(now time.Time) bool {
	return !o.expires.IsZero() && now.After(o.expires)
}
