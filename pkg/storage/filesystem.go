package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
)

// FilesystemStorage implements the Storage interface for interacting with
// the local filesystem.
type FilesystemStorage struct {
	Config Config
}

// NewFilesystemStorage implements the Storage interface for simple S3 like
// file system interactions.
func NewFilesystemStorage(config Config) FilesystemStorage {
	return FilesystemStorage{
		Config: config,
	}
}

// Write writes the data to a file under the root. The file is written to a temporary name
// and renamed so readers never see a partial object.
func (f FilesystemStorage) Write(ctx context.Context,
	key string,
	body []byte,
	options *Options) error {

	// make sure that the Options argument is valid
	if options == nil {
		opts := NewOptions()
		options = &opts
	}

	filename := f.buildPath(key)

	// make sure directory exists.
	dir := filepath.Dir(filename)

	if err := f.ensureExists(dir, options); err != nil {
		return err
	}

	var mode os.FileMode = 0644

	if options.Mode != 0 {
		mode = options.Mode
	}

	tmp := filename + ".tmp"
	if err := os.WriteFile(tmp, body, mode); err != nil {
		return err
	}

	return os.Rename(tmp, filename)
}

// Read reads the data from a file on the local filesystem.
func (f FilesystemStorage) Read(ctx context.Context,
	key string) ([]byte, error) {

	filename := f.buildPath(key)

	// check for existence of file
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return nil, ErrNotFound
	}

	return os.ReadFile(filename)
}

// Remove removes the file stored at key.
func (f FilesystemStorage) Remove(ctx context.Context, key string) error {
	filename := f.buildPath(key)

	if err := os.Remove(filename); err != nil && !os.IsNotExist(err) {
		return err
	}

	return nil
}

// Search returns all objects in the store, from a given path.
//
// The path can be empty.
func (f FilesystemStorage) Search(ctx context.Context,
	query map[string]string) ([][]byte, error) {

	keys, err := f.List(ctx, query["path"])
	if err != nil {
		return nil, err
	}

	objects := [][]byte{}

	for _, key := range keys {
		b, err := f.Read(ctx, key)
		if err != nil {
			return nil, err
		}

		objects = append(objects, b)
	}

	return objects, nil
}

// List returns the keys of the files directly under path.
func (f FilesystemStorage) List(ctx context.Context, p string) ([]string, error) {
	dir := f.buildPath(strings.TrimSuffix(p, "/"))

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	prefix := dirPrefix(p)
	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasSuffix(entry.Name(), ".tmp") {
			continue
		}
		keys = append(keys, prefix+entry.Name())
	}

	return childKeys(keys, p), nil
}

// Clear removes everything under the path.
func (f FilesystemStorage) Clear(ctx context.Context, query map[string]string) error {
	p := query["path"]
	if len(strings.Trim(p, "/")) == 0 {
		return os.RemoveAll(f.buildPath(""))
	}

	return os.RemoveAll(f.buildPath(strings.TrimSuffix(p, "/")))
}

func (f FilesystemStorage) buildPath(key string) string {
	parts := []string{
		f.Config.Root,
		f.Config.Bucket,
	}

	if len(key) > 0 {
		parts = append(parts, key)
	}

	s := strings.Join(parts, "/")

	return filepath.FromSlash(s)
}

func (f FilesystemStorage) ensureExists(dir string, options *Options) error {
	if options == nil {
		opts := NewOptions()
		options = &opts
	}

	dirMode := options.DirMode
	if dirMode == 0 {
		dirMode = 0755
	}

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, dirMode); err != nil {
			return err
		}
	}

	return nil
}
