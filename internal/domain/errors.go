// Package domain holds the error taxonomy and option types shared by the
// builder, restore orchestrator, and CLI.
package domain

import "fmt"

// InvalidTargetError is returned when no target guild handle was supplied.
type InvalidTargetError struct{}

func (e *InvalidTargetError) Error() string {
	return "no target guild supplied"
}

// SnapshotNotFoundError is returned when the requested snapshot id has no
// backing data in the store.
type SnapshotNotFoundError struct {
	ID string
}

func (e *SnapshotNotFoundError) Error() string {
	return fmt.Sprintf("snapshot not found: %s", e.ID)
}

// SnapshotCorruptError is returned when a stored snapshot cannot be decoded.
type SnapshotCorruptError struct {
	ID    string
	Cause error
}

func (e *SnapshotCorruptError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("snapshot corrupt: %v", e.Cause)
	}
	return fmt.Sprintf("snapshot %s corrupt: %v", e.ID, e.Cause)
}

func (e *SnapshotCorruptError) Unwrap() error {
	return e.Cause
}

// PermissionError is returned when the session lacks a capability required
// for a backup.
type PermissionError struct {
	Missing string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("missing required permission: %s", e.Missing)
}
