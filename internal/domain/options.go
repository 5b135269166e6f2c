package domain

import "fmt"

// DefaultMaxMessages is the per-channel message cap applied when a caller
// does not set one.
const DefaultMaxMessages = 10

// Image capture modes for guild icons, emoji, and attachments.
const (
	// ImageModeURL records only the remote URL of each image.
	ImageModeURL = ""
	// ImageModeBase64 fetches each image and embeds it as a data URI.
	ImageModeBase64 = "base64"
)

// Backup categories that can be excluded from capture.
const (
	SkipRoles    = "roles"
	SkipEmojis   = "emojis"
	SkipChannels = "channels"
)

// BuildOptions configures snapshot capture.
type BuildOptions struct {
	// MaxMessagesPerChannel caps message history capture (default 10).
	MaxMessagesPerChannel int
	// Persist writes the snapshot through the store.
	Persist bool
	// Pretty indents the persisted document.
	Pretty bool
	// SnapshotID overrides the generated identifier.
	SnapshotID string
	// DoNotBackup names capture categories to skip: roles, emojis, channels.
	DoNotBackup map[string]bool
	// ImageMode is ImageModeURL or ImageModeBase64.
	ImageMode string
}

// Validate checks option values and fills defaults.
func (o *BuildOptions) Validate() error {
	if o.MaxMessagesPerChannel == 0 {
		o.MaxMessagesPerChannel = DefaultMaxMessages
	}
	if o.MaxMessagesPerChannel < 0 {
		return fmt.Errorf("max messages per channel must be >= 0, got %d", o.MaxMessagesPerChannel)
	}
	if o.ImageMode != ImageModeURL && o.ImageMode != ImageModeBase64 {
		return fmt.Errorf("unknown image mode: %q", o.ImageMode)
	}
	for name := range o.DoNotBackup {
		switch name {
		case SkipRoles, SkipEmojis, SkipChannels:
		default:
			return fmt.Errorf("unknown backup category: %q", name)
		}
	}
	return nil
}

// RestoreOptions configures a restore run.
type RestoreOptions struct {
	// ClearBeforeRestore tears down existing guild state first.
	ClearBeforeRestore bool
	// MaxMessagesPerChannel is validated for forward compatibility; message
	// restore is not part of the restore path.
	MaxMessagesPerChannel int
}

// DefaultRestoreOptions returns the option defaults for a restore run.
func DefaultRestoreOptions() RestoreOptions {
	return RestoreOptions{
		ClearBeforeRestore:    true,
		MaxMessagesPerChannel: DefaultMaxMessages,
	}
}

// Validate checks option values.
func (o *RestoreOptions) Validate() error {
	if o.MaxMessagesPerChannel < 0 {
		return fmt.Errorf("max messages per channel must be >= 0, got %d", o.MaxMessagesPerChannel)
	}
	return nil
}
