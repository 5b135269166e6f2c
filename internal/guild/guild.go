// Package guild abstracts the remote guild capabilities this system consumes.
//
// The builder and the restore orchestrator speak only these interfaces; the
// Discord client library is confined to the discord adapter package. Tests
// substitute fakes.
package guild

import "context"

// Channel kinds as reported by the live guild.
const (
	KindText     = "text"
	KindVoice    = "voice"
	KindCategory = "category"
	// KindOther covers channel types this system neither captures nor
	// recreates (stage, forum, directory).
	KindOther = "other"
)

// RoleInfo is a role as it exists on the live guild.
type RoleInfo struct {
	ID          string
	Name        string
	Color       int
	Permissions int64
	Hoist       bool
	Mentionable bool
	// Managed roles belong to integrations and are never deleted or
	// recreated.
	Managed bool
	// IsEveryone marks the implicit default role.
	IsEveryone bool
}

// OverwriteInfo is a live permission overwrite, keyed by role ID.
type OverwriteInfo struct {
	RoleID string
	Allow  int64
	Deny   int64
}

// ChannelInfo is a channel as it exists on the live guild.
type ChannelInfo struct {
	ID         string
	Name       string
	Kind       string
	ParentID   string
	Position   int
	Overwrites []OverwriteInfo

	Topic     string
	NSFW      bool
	RateLimit int
	// Announcement is set for news-style text channels; they are captured
	// as text and recreated as plain text.
	Announcement bool

	Bitrate   int
	UserLimit int
}

// ThreadInfo is an active thread under a text channel.
type ThreadInfo struct {
	ID   string
	Name string
}

// EmojiInfo is a custom emoji on the live guild.
type EmojiInfo struct {
	ID   string
	Name string
	URL  string
}

// WebhookInfo is a webhook on the live guild.
type WebhookInfo struct {
	ID   string
	Name string
}

// AttachmentInfo is one message attachment.
type AttachmentInfo struct {
	Name string
	URL  string
}

// MessageInfo is one message from channel history.
type MessageInfo struct {
	ID           string
	AuthorName   string
	AuthorAvatar string
	Content      string
	Embeds       [][]byte
	Attachments  []AttachmentInfo
	Pinned       bool
}

// Settings carries guild-level mutations. Nil fields are left untouched; a
// pointer to the zero value clears the setting.
type Settings struct {
	Name                  *string
	Icon                  *string
	Banner                *string
	Splash                *string
	VerificationLevel     *int
	ExplicitContentFilter *int
	DefaultNotifications  *int
	SystemChannelID       *string
}

// RoleParams creates or edits a role.
type RoleParams struct {
	Name        string
	Color       int
	Permissions int64
	Hoist       bool
	Mentionable bool
}

// OverwriteParams is one permission overwrite to apply at creation.
type OverwriteParams struct {
	RoleID string
	Allow  int64
	Deny   int64
}

// ChannelParams creates a channel or category.
type ChannelParams struct {
	Name       string
	Kind       string
	ParentID   string
	Overwrites []OverwriteParams

	Topic     string
	NSFW      bool
	RateLimit int

	Bitrate   int
	UserLimit int
}

// Handle is the full capability surface over one target guild. Every call
// that touches the remote service takes a context and may fail.
type Handle interface {
	// Identity and current settings.
	ID() string
	Name() string
	IconURL() string
	BannerURL() string
	SplashURL() string
	VerificationLevel() int
	ExplicitContentFilter() int
	DefaultNotifications() int
	PremiumTier() int
	// AFK returns the configured AFK channel ID (empty if unset) and
	// timeout in seconds.
	AFK() (channelID string, timeoutSeconds int)
	// Widget returns the widget enabled flag and its channel ID.
	Widget() (enabled bool, channelID string)
	// HasManageGuild reports whether the session holds the manage-guild
	// capability over this guild.
	HasManageGuild(ctx context.Context) (bool, error)
	// CanEditContentFilter reports whether the guild's capability tier
	// permits changing the explicit content filter.
	CanEditContentFilter() bool

	// Enumeration.
	Roles(ctx context.Context) ([]RoleInfo, error)
	Channels(ctx context.Context) ([]ChannelInfo, error)
	Emojis(ctx context.Context) ([]EmojiInfo, error)
	Webhooks(ctx context.Context) ([]WebhookInfo, error)
	ActiveThreads(ctx context.Context, channelID string) ([]ThreadInfo, error)
	// Messages retrieves up to limit messages older than beforeID (newest
	// first when beforeID is empty). Page size is capped at 100.
	Messages(ctx context.Context, channelID, beforeID string, limit int) ([]MessageInfo, error)

	// Mutation.
	Edit(ctx context.Context, s Settings) error
	CreateRole(ctx context.Context, p RoleParams) (RoleInfo, error)
	EditRole(ctx context.Context, roleID string, p RoleParams) error
	DeleteRole(ctx context.Context, roleID string) error
	CreateChannel(ctx context.Context, p ChannelParams) (ChannelInfo, error)
	DeleteChannel(ctx context.Context, channelID string) error
	CreateEmoji(ctx context.Context, name, image string) error
	DeleteEmoji(ctx context.Context, emojiID string) error
	DeleteWebhook(ctx context.Context, webhookID string) error
	SetAFK(ctx context.Context, channelID string, timeoutSeconds int) error
	ClearAFK(ctx context.Context) error
	SetWidget(ctx context.Context, enabled bool, channelID string) error
	ClearWidget(ctx context.Context) error
}

// ImageFetcher converts a remote image URL into an embedded base64 data URI.
type ImageFetcher interface {
	FetchDataURI(ctx context.Context, url string) (string, error)
}
