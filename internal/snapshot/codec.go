package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/guildsnap/guildsnap/internal/domain"
)

// Encode serializes a snapshot. With pretty set, the document is indented for
// human inspection; the compact form is the storage default.
func Encode(s *Snapshot, pretty bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	out := buf.Bytes()
	if n := len(out); n > 0 && out[n-1] == '\n' {
		out = out[:n-1]
	}
	return out, nil
}

// Decode parses and validates a stored snapshot document. Any structural
// problem is reported as a domain.SnapshotCorruptError so callers can
// distinguish corruption from absence.
func Decode(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, &domain.SnapshotCorruptError{Cause: err}
	}
	if err := validate(&s); err != nil {
		return nil, &domain.SnapshotCorruptError{ID: s.ID, Cause: err}
	}
	return &s, nil
}

func validate(s *Snapshot) error {
	everyone := 0
	for i, r := range s.Roles {
		if r.Name == "" {
			return fmt.Errorf("role %d has no name", i)
		}
		if r.IsEveryone {
			everyone++
		}
		if r.Permissions != "" {
			if _, err := strconv.ParseUint(r.Permissions, 10, 64); err != nil {
				return fmt.Errorf("role %q has invalid permission bitmask %q", r.Name, r.Permissions)
			}
		}
	}
	if len(s.Roles) > 0 && everyone != 1 {
		return fmt.Errorf("snapshot has %d default-role descriptors, want exactly 1", everyone)
	}

	for _, cat := range s.Channels.Categories {
		if cat.Name == "" {
			return fmt.Errorf("category has no name")
		}
		for _, c := range cat.Children {
			if err := validateChannel(c); err != nil {
				return err
			}
		}
	}
	for _, c := range s.Channels.Others {
		if err := validateChannel(c); err != nil {
			return err
		}
	}
	return nil
}

func validateChannel(c Channel) error {
	switch c.Kind {
	case KindText, KindVoice:
	default:
		return fmt.Errorf("channel %q has unknown kind %q", c.Name, c.Kind)
	}
	if c.Name == "" {
		return fmt.Errorf("channel has no name")
	}
	if c.RateLimit != nil && *c.RateLimit < 0 {
		return fmt.Errorf("channel %q has negative rate limit %d", c.Name, *c.RateLimit)
	}
	for _, o := range c.Overwrites {
		if o.RoleName == "" {
			return fmt.Errorf("channel %q has an overwrite with no role name", c.Name)
		}
	}
	return nil
}

// ParsePermissions converts a decimal bitmask string to the int64 form the
// client library expects. An empty string is zero.
func ParsePermissions(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid permission bitmask %q: %w", s, err)
	}
	return int64(v), nil
}

// FormatPermissions converts a permission bitmask to its wire string.
func FormatPermissions(v int64) string {
	return strconv.FormatUint(uint64(v), 10)
}
