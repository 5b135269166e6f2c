// Package snapshot defines the serialized guild state document and its codec.
//
// A snapshot is a point-in-time capture of a guild's configuration: name,
// appearance, moderation settings, roles, the channel tree, emojis, and a
// bounded slice of message history. Roles and channels are referenced by name
// throughout, never by Discord ID, since IDs are not portable across guilds.
package snapshot

import (
	"time"
)

// Channel kinds. Announcement-style channels are captured as text and always
// recreated as plain text.
const (
	KindText  = "text"
	KindVoice = "voice"
)

// Snapshot is the complete serialized state of a guild.
type Snapshot struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Name   string   `json:"name"`
	Icon   ImageRef `json:"icon,omitempty"`
	Banner ImageRef `json:"banner,omitempty"`
	Splash ImageRef `json:"splash,omitempty"`

	VerificationLevel     int `json:"verification_level"`
	ExplicitContentFilter int `json:"explicit_content_filter"`
	DefaultNotifications  int `json:"default_notifications"`

	AFK    *AFK    `json:"afk,omitempty"`
	Widget *Widget `json:"widget,omitempty"`

	Roles    []Role      `json:"roles,omitempty"`
	Channels ChannelTree `json:"channels"`
	Emojis   []Emoji     `json:"emojis,omitempty"`
}

// ImageRef is either a remote URL, an embedded base64 data URI, or both.
// When both are present the embedded form wins at restore time.
type ImageRef struct {
	URL  string `json:"url,omitempty"`
	Data string `json:"data,omitempty"`
}

// IsZero reports whether the ref carries neither a URL nor embedded data.
func (r ImageRef) IsZero() bool {
	return r.URL == "" && r.Data == ""
}

// AFK is the guild's AFK channel configuration. The channel is resolved by
// name against the restored voice channels.
type AFK struct {
	ChannelName    string `json:"channel_name"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// Widget is the guild's widget configuration.
type Widget struct {
	Enabled     bool   `json:"enabled"`
	ChannelName string `json:"channel_name,omitempty"`
}

// Role describes one guild role. Permissions is a decimal bitmask kept as a
// string on the wire so values never truncate.
type Role struct {
	Name        string `json:"name"`
	Color       int    `json:"color"`
	Permissions string `json:"permissions"`
	Hoist       bool   `json:"hoist"`
	Mentionable bool   `json:"mentionable"`
	// IsEveryone marks the implicit default role. It is edited in place on
	// restore, never created or deleted. At most one per snapshot.
	IsEveryone bool `json:"is_everyone,omitempty"`
}

// ChannelTree is the ordered channel structure of a guild: categories owning
// their children, plus channels with no parent.
type ChannelTree struct {
	Categories []Category `json:"categories,omitempty"`
	Others     []Channel  `json:"others,omitempty"`
}

// Category describes one channel category and its children, in order.
type Category struct {
	Name       string      `json:"name"`
	Overwrites []Overwrite `json:"overwrites,omitempty"`
	Children   []Channel   `json:"children,omitempty"`
}

// Channel is a tagged union on Kind. Text fields and voice fields are
// mutually exclusive; the zero values of the other arm are omitted.
type Channel struct {
	Kind       string      `json:"kind"`
	Name       string      `json:"name"`
	Overwrites []Overwrite `json:"overwrites,omitempty"`
	Parent     string      `json:"parent,omitempty"`

	// Text-like fields.
	NSFW      bool      `json:"nsfw,omitempty"`
	RateLimit *int      `json:"rate_limit,omitempty"`
	Topic     *string   `json:"topic,omitempty"`
	Messages  []Message `json:"messages,omitempty"`
	Threads   []Thread  `json:"threads,omitempty"`

	// Voice fields.
	Bitrate   int  `json:"bitrate,omitempty"`
	UserLimit *int `json:"user_limit,omitempty"`
}

// Thread is a thread under a text channel, with its own message history.
type Thread struct {
	Name     string    `json:"name"`
	Messages []Message `json:"messages,omitempty"`
}

// Overwrite is one permission overwrite, keyed by role name. Allow and Deny
// are decimal bitmask strings.
type Overwrite struct {
	RoleName string `json:"role_name"`
	Allow    string `json:"allow"`
	Deny     string `json:"deny"`
}

// Message is a read-only export artifact; restore does not recreate messages.
type Message struct {
	AuthorName   string     `json:"author_name"`
	AuthorAvatar string     `json:"author_avatar,omitempty"`
	Content      string     `json:"content"`
	Embeds       []RawEmbed `json:"embeds,omitempty"`
	Attachments  []ImageRef `json:"attachments,omitempty"`
	Pinned       bool       `json:"pinned,omitempty"`
}

// RawEmbed is opaque embed JSON carried through unmodified.
type RawEmbed []byte

// MarshalJSON writes the raw bytes as-is.
func (e RawEmbed) MarshalJSON() ([]byte, error) {
	if len(e) == 0 {
		return []byte("null"), nil
	}
	return e, nil
}

// UnmarshalJSON keeps the raw bytes as-is.
func (e *RawEmbed) UnmarshalJSON(data []byte) error {
	*e = append((*e)[:0], data...)
	return nil
}

// Emoji describes one custom emoji.
type Emoji struct {
	Name  string   `json:"name"`
	Image ImageRef `json:"image"`
}

// Walk calls fn for every channel in the tree, categories' children first,
// then uncategorized channels.
func (t ChannelTree) Walk(fn func(c Channel)) {
	for _, cat := range t.Categories {
		for _, c := range cat.Children {
			fn(c)
		}
	}
	for _, c := range t.Others {
		fn(c)
	}
}

// EveryoneRole returns the implicit default role descriptor, if present.
func (s *Snapshot) EveryoneRole() (Role, bool) {
	for _, r := range s.Roles {
		if r.IsEveryone {
			return r, true
		}
	}
	return Role{}, false
}
