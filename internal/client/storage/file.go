package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStorage persists all items in a single JSON file. The whole file is
// read on every GetItem and rewritten on every write.
type FileStorage struct {
	// Path is the location of the JSON file.
	Path string
	// Quota caps the total size of keys and values in bytes; 0 is unlimited.
	Quota int

	mu sync.Mutex
}

// NewFileStorage returns a FileStorage writing to path.
func NewFileStorage(path string, quota int) *FileStorage {
	return &FileStorage{Path: path, Quota: quota}
}

var errCorrupt = errors.New("corrupt storage file")

func (fs *FileStorage) load() (map[string][]byte, error) {
	f, err := os.Open(fs.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string][]byte), nil
		}
		return nil, err
	}
	defer f.Close()

	items := make(map[string][]byte)
	if err := json.NewDecoder(f).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode %s: %w: %v", fs.Path, errCorrupt, err)
	}
	return items, nil
}

// save replaces the file atomically: the items are written to a temporary
// file in the same directory which is then renamed over Path.
func (fs *FileStorage) save(items map[string][]byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(fs.Path), filepath.Base(fs.Path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := json.NewEncoder(tmp).Encode(items); err != nil {
		tmp.Close()
		return fmt.Errorf("encode %s: %w", fs.Path, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), fs.Path)
}

// loadForWrite is load for writers: an undecodable file holds nothing that
// can be read back, so it is replaced rather than blocking every write.
func (fs *FileStorage) loadForWrite() (map[string][]byte, error) {
	items, err := fs.load()
	if errors.Is(err, errCorrupt) {
		return make(map[string][]byte), nil
	}
	return items, err
}

func (fs *FileStorage) GetItem(_ context.Context, key string) ([]byte, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	items, err := fs.load()
	if err != nil {
		return nil, err
	}
	v, ok := items[key]
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

func (fs *FileStorage) SetItem(_ context.Context, key string, value []byte) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	items, err := fs.loadForWrite()
	if err != nil {
		return err
	}
	items[key] = value
	if fs.Quota > 0 && usage(items) > fs.Quota {
		return ErrQuotaExceeded
	}
	return fs.save(items)
}

func (fs *FileStorage) RemoveItem(_ context.Context, key string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	items, err := fs.loadForWrite()
	if err != nil {
		return err
	}
	if _, ok := items[key]; !ok {
		return nil
	}
	delete(items, key)
	return fs.save(items)
}

func (fs *FileStorage) Clear(context.Context) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := os.Remove(fs.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
