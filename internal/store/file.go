package store

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// FileStore keeps the history as a JSON array in a single file. Writes go to a
// temporary file in the same directory which is then renamed over the target.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the file. A missing file is an empty history.
func (s *FileStore) Load(ctx context.Context) ([]weather.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &StorageError{Op: "load", Backend: "file", Err: err}
	}

	var entries []weather.HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, &StorageError{Op: "load", Backend: "file", Err: err}
	}
	return entries, nil
}

// Save writes entries atomically.
func (s *FileStore) Save(ctx context.Context, entries []weather.HistoryEntry) error {
	if entries == nil {
		entries = []weather.HistoryEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return &StorageError{Op: "save", Backend: "file", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeAtomic(s.path, data); err != nil {
		return &StorageError{Op: "save", Backend: "file", Err: err}
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
