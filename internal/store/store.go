// Package store persists serialized snapshots keyed by identifier.
//
// Two backends exist: a directory of JSON files (the default) and a SQLite
// catalog. No other system reads the persisted form; the encoding is owned by
// the snapshot package.
package store

// Info describes one stored snapshot without loading its contents.
type Info struct {
	ID     string  `json:"id"`
	SizeKB float64 `json:"size_kb"`
}

// Store is the persistence contract for snapshot blobs. Get, Delete, and
// Info return *domain.SnapshotNotFoundError for unknown identifiers.
type Store interface {
	Put(id string, data []byte) error
	Get(id string) ([]byte, error)
	List() ([]string, error)
	Delete(id string) error
	Info(id string) (Info, error)
}
