package store

import (
	"database/sql"
	"fmt"

	"github.com/guildsnap/guildsnap/internal/db"
	"github.com/guildsnap/guildsnap/internal/domain"
)

// SQLiteStore keeps snapshot blobs in a single-table SQLite catalog. It is
// the backend of choice when many snapshots accumulate and listing them from
// a flat directory gets slow.
type SQLiteStore struct {
	db *db.DB
}

// NewSQLiteStore opens (and migrates) the catalog at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(); err != nil {
		database.Close()
		return nil, err
	}
	return &SQLiteStore{db: database}, nil
}

// Close releases the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Put writes the snapshot blob for id, replacing any existing one.
func (s *SQLiteStore) Put(id string, data []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO snapshots (id, data, size_bytes) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data, size_bytes = excluded.size_bytes
	`, id, data, len(data))
	if err != nil {
		return fmt.Errorf("failed to store snapshot %s: %w", id, err)
	}
	return nil
}

// Get reads the snapshot blob for id.
func (s *SQLiteStore) Get(id string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRow("SELECT data FROM snapshots WHERE id = ?", id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, &domain.SnapshotNotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", id, err)
	}
	return data, nil
}

// List returns all stored snapshot ids, oldest first.
func (s *SQLiteStore) List() ([]string, error) {
	rows, err := s.db.Query("SELECT id FROM snapshots ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Delete removes the snapshot blob for id.
func (s *SQLiteStore) Delete(id string) error {
	res, err := s.db.Exec("DELETE FROM snapshots WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", id, err)
	}
	if n == 0 {
		return &domain.SnapshotNotFoundError{ID: id}
	}
	return nil
}

// Info reports the size of the stored blob for id.
func (s *SQLiteStore) Info(id string) (Info, error) {
	var size int64
	err := s.db.QueryRow("SELECT size_bytes FROM snapshots WHERE id = ?", id).Scan(&size)
	if err == sql.ErrNoRows {
		return Info{}, &domain.SnapshotNotFoundError{ID: id}
	}
	if err != nil {
		return Info{}, fmt.Errorf("failed to stat snapshot %s: %w", id, err)
	}
	return Info{ID: id, SizeKB: float64(size) / 1024}, nil
}
