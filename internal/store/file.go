package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/guildsnap/guildsnap/internal/domain"
)

// FileStore keeps one <id>.json file per snapshot under a single directory.
type FileStore struct {
	dir string
}

// NewFileStore opens a file store rooted at dir, creating it if absent. The
// directory is fixed for the lifetime of the store; relocating storage means
// constructing a new store.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the storage directory.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Put writes the snapshot blob for id, replacing any existing one.
func (s *FileStore) Put(id string, data []byte) error {
	tmp := s.path(id) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path(id)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// Get reads the snapshot blob for id.
func (s *FileStore) Get(id string) ([]byte, error) {
	data, err := os.ReadFile(s.path(id))
	if os.IsNotExist(err) {
		return nil, &domain.SnapshotNotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", id, err)
	}
	return data, nil
}

// List returns all stored snapshot ids, sorted.
func (s *FileStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}

// Delete removes the snapshot blob for id.
func (s *FileStore) Delete(id string) error {
	err := os.Remove(s.path(id))
	if os.IsNotExist(err) {
		return &domain.SnapshotNotFoundError{ID: id}
	}
	if err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", id, err)
	}
	return nil
}

// Info reports the size of the stored blob for id.
func (s *FileStore) Info(id string) (Info, error) {
	fi, err := os.Stat(s.path(id))
	if os.IsNotExist(err) {
		return Info{}, &domain.SnapshotNotFoundError{ID: id}
	}
	if err != nil {
		return Info{}, fmt.Errorf("failed to stat snapshot %s: %w", id, err)
	}
	return Info{ID: id, SizeKB: float64(fi.Size()) / 1024}, nil
}
