// Package builder captures live guild state into a snapshot document.
package builder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/guildsnap/guildsnap/internal/clamp"
	"github.com/guildsnap/guildsnap/internal/domain"
	"github.com/guildsnap/guildsnap/internal/guild"
	"github.com/guildsnap/guildsnap/internal/id"
	"github.com/guildsnap/guildsnap/internal/snapshot"
	"github.com/guildsnap/guildsnap/internal/store"
)

// Builder reads a guild through the capability surface and assembles a
// snapshot. Fields are set once at construction; a zero Logger falls back to
// the default.
type Builder struct {
	Store   store.Store
	Fetcher guild.ImageFetcher
	Logger  *slog.Logger
	Skip    clamp.SkipConfig
}

func (b *Builder) log() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}

// Build captures h into a snapshot. It requires the manage-guild capability
// and fails with domain.PermissionError without it. When opts.Persist is set
// the encoded snapshot is written through the store.
func (b *Builder) Build(ctx context.Context, h guild.Handle, opts domain.BuildOptions) (*snapshot.Snapshot, error) {
	if h == nil {
		return nil, &domain.InvalidTargetError{}
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	ok, err := h.HasManageGuild(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check permissions: %w", err)
	}
	if !ok {
		return nil, &domain.PermissionError{Missing: "manage guild"}
	}

	snapID := opts.SnapshotID
	if snapID == "" {
		snapID = id.New()
	}
	log := b.log().With("guild_id", h.ID(), "snapshot_id", snapID)

	snap := &snapshot.Snapshot{
		ID:        snapID,
		CreatedAt: time.Now().UTC(),
		Name:      h.Name(),

		Icon:   b.captureImage(ctx, h.IconURL(), opts.ImageMode, log),
		Banner: b.captureImage(ctx, h.BannerURL(), opts.ImageMode, log),
		Splash: b.captureImage(ctx, h.SplashURL(), opts.ImageMode, log),

		VerificationLevel:     h.VerificationLevel(),
		ExplicitContentFilter: h.ExplicitContentFilter(),
		DefaultNotifications:  h.DefaultNotifications(),
	}

	channels, err := h.Channels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate channels: %w", err)
	}

	if afkID, timeout := h.AFK(); afkID != "" {
		if name, ok := channelName(channels, afkID); ok {
			snap.AFK = &snapshot.AFK{ChannelName: name, TimeoutSeconds: timeout}
		}
	}
	if enabled, widgetID := h.Widget(); enabled || widgetID != "" {
		w := &snapshot.Widget{Enabled: enabled}
		if name, ok := channelName(channels, widgetID); ok {
			w.ChannelName = name
		}
		snap.Widget = w
	}

	if !opts.DoNotBackup[domain.SkipRoles] {
		if err := b.captureRoles(ctx, h, snap); err != nil {
			return nil, err
		}
	}
	if !opts.DoNotBackup[domain.SkipChannels] {
		b.captureChannels(ctx, h, channels, snap, opts, log)
	}
	if !opts.DoNotBackup[domain.SkipEmojis] {
		if err := b.captureEmojis(ctx, h, snap, opts, log); err != nil {
			return nil, err
		}
	}

	if opts.Persist {
		data, err := snapshot.Encode(snap, opts.Pretty)
		if err != nil {
			return nil, err
		}
		if err := b.Store.Put(snap.ID, data); err != nil {
			return nil, err
		}
		log.Info("snapshot persisted", "bytes", len(data))
	}

	return snap, nil
}

// captureImage records an image reference, embedding the binary when base64
// mode is requested. A failed fetch degrades to a URL-only reference.
func (b *Builder) captureImage(ctx context.Context, url, mode string, log *slog.Logger) snapshot.ImageRef {
	if url == "" {
		return snapshot.ImageRef{}
	}
	ref := snapshot.ImageRef{URL: url}
	if mode == domain.ImageModeBase64 && b.Fetcher != nil {
		data, err := b.Fetcher.FetchDataURI(ctx, url)
		if err != nil {
			log.Warn("image fetch failed, keeping URL reference", "url", url, "error", err)
		} else {
			ref.Data = data
		}
	}
	return ref
}

func (b *Builder) captureRoles(ctx context.Context, h guild.Handle, snap *snapshot.Snapshot) error {
	roles, err := h.Roles(ctx)
	if err != nil {
		return fmt.Errorf("failed to enumerate roles: %w", err)
	}
	for _, r := range roles {
		if r.Managed {
			continue
		}
		snap.Roles = append(snap.Roles, snapshot.Role{
			Name:        r.Name,
			Color:       r.Color,
			Permissions: snapshot.FormatPermissions(r.Permissions),
			Hoist:       r.Hoist,
			Mentionable: r.Mentionable,
			IsEveryone:  r.IsEveryone,
		})
	}
	return nil
}

func channelName(channels []guild.ChannelInfo, id string) (string, bool) {
	for _, c := range channels {
		if c.ID == id {
			return c.Name, true
		}
	}
	return "", false
}
