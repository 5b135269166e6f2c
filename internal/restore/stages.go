package restore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/guildsnap/guildsnap/internal/guild"
	"github.com/guildsnap/guildsnap/internal/report"
	"github.com/guildsnap/guildsnap/internal/snapshot"
)

// restoreConfig applies guild-level settings. Every settor is isolated so a
// rejected field cannot abort the rest; the stage itself never fails.
func (o *Orchestrator) restoreConfig(ctx context.Context, h guild.Handle, snap *snapshot.Snapshot, log *slog.Logger) error {
	apply := func(field string, s guild.Settings) {
		if err := h.Edit(ctx, s); err != nil {
			log.Warn("config field not applied", "field", field, "error", err)
		}
	}

	apply("name", guild.Settings{Name: &snap.Name})

	if img := o.resolveImage(ctx, snap.Icon, log); img != "" {
		apply("icon", guild.Settings{Icon: &img})
	}
	if img := o.resolveImage(ctx, snap.Banner, log); img != "" {
		apply("banner", guild.Settings{Banner: &img})
	}
	if img := o.resolveImage(ctx, snap.Splash, log); img != "" {
		apply("splash", guild.Settings{Splash: &img})
	}

	lvl := snap.VerificationLevel
	apply("verification_level", guild.Settings{VerificationLevel: &lvl})
	notif := snap.DefaultNotifications
	apply("default_notifications", guild.Settings{DefaultNotifications: &notif})

	if h.CanEditContentFilter() {
		filter := snap.ExplicitContentFilter
		apply("explicit_content_filter", guild.Settings{ExplicitContentFilter: &filter})
	} else {
		log.Debug("explicit content filter not editable on this guild, skipping")
	}
	return nil
}

// resolveImage prefers the embedded encoding; a URL-only reference is
// fetched on the fly. Failures degrade to no image.
func (o *Orchestrator) resolveImage(ctx context.Context, ref snapshot.ImageRef, log *slog.Logger) string {
	if ref.IsZero() {
		return ""
	}
	if ref.Data != "" {
		return ref.Data
	}
	if o.Fetcher == nil {
		return ""
	}
	data, err := o.Fetcher.FetchDataURI(ctx, ref.URL)
	if err != nil {
		log.Warn("image fetch failed, skipping", "url", ref.URL, "error", err)
		return ""
	}
	return data
}

// restoreRoles edits the implicit default role in place and creates every
// other descriptor. Creation order carries no meaning; per-item failures
// are collected and skipped.
func (o *Orchestrator) restoreRoles(ctx context.Context, h guild.Handle, snap *snapshot.Snapshot, sum *report.Summary) error {
	live, err := h.Roles(ctx)
	if err != nil {
		return fmt.Errorf("failed to enumerate roles: %w", err)
	}
	everyoneID := ""
	for _, r := range live {
		if r.IsEveryone {
			everyoneID = r.ID
			break
		}
	}

	for _, r := range snap.Roles {
		perms, err := snapshot.ParsePermissions(r.Permissions)
		if err != nil {
			sum.Add("roles", r.Name, err)
			continue
		}
		params := guild.RoleParams{
			Name:        r.Name,
			Color:       r.Color,
			Permissions: perms,
			Hoist:       r.Hoist,
			Mentionable: r.Mentionable,
		}
		if r.IsEveryone {
			if everyoneID == "" {
				sum.Add("roles", r.Name, fmt.Errorf("no default role on target guild"))
				continue
			}
			sum.Add("roles", r.Name, h.EditRole(ctx, everyoneID, params))
			continue
		}
		_, err = h.CreateRole(ctx, params)
		sum.Add("roles", r.Name, err)
	}
	return nil
}

// restoreAFK resolves the AFK channel by voice-channel name and applies
// channel and timeout together. No name match means no mutation and no
// error.
func (o *Orchestrator) restoreAFK(ctx context.Context, h guild.Handle, snap *snapshot.Snapshot, log *slog.Logger) error {
	if snap.AFK == nil {
		return nil
	}
	channels, err := h.Channels(ctx)
	if err != nil {
		log.Warn("AFK channel lookup failed, skipping", "error", err)
		return nil
	}
	for _, c := range channels {
		if c.Kind == guild.KindVoice && c.Name == snap.AFK.ChannelName {
			if err := h.SetAFK(ctx, c.ID, snap.AFK.TimeoutSeconds); err != nil {
				log.Warn("AFK setting not applied", "error", err)
			}
			return nil
		}
	}
	log.Debug("no voice channel matches AFK name, skipping", "name", snap.AFK.ChannelName)
	return nil
}

// restoreEmojis creates each emoji from its embedded encoding, falling back
// to fetching the URL reference.
func (o *Orchestrator) restoreEmojis(ctx context.Context, h guild.Handle, snap *snapshot.Snapshot, sum *report.Summary) error {
	for _, e := range snap.Emojis {
		img := e.Image.Data
		if img == "" && e.Image.URL != "" && o.Fetcher != nil {
			data, err := o.Fetcher.FetchDataURI(ctx, e.Image.URL)
			if err != nil {
				sum.Add("emojis", e.Name, err)
				continue
			}
			img = data
		}
		if img == "" {
			sum.Add("emojis", e.Name, fmt.Errorf("no image source"))
			continue
		}
		sum.Add("emojis", e.Name, h.CreateEmoji(ctx, e.Name, img))
	}
	return nil
}

// restoreWidget resolves the recorded widget channel by name and applies
// the enabled flag. A snapshot with no widget channel recorded is a no-op.
func (o *Orchestrator) restoreWidget(ctx context.Context, h guild.Handle, snap *snapshot.Snapshot, log *slog.Logger) error {
	if snap.Widget == nil || snap.Widget.ChannelName == "" {
		return nil
	}
	channels, err := h.Channels(ctx)
	if err != nil {
		log.Warn("widget channel lookup failed, skipping", "error", err)
		return nil
	}
	channelID := ""
	for _, c := range channels {
		if c.Name == snap.Widget.ChannelName {
			channelID = c.ID
			break
		}
	}
	if channelID == "" {
		log.Debug("no channel matches widget name, skipping", "name", snap.Widget.ChannelName)
		return nil
	}
	if err := h.SetWidget(ctx, snap.Widget.Enabled, channelID); err != nil {
		log.Warn("widget setting not applied", "error", err)
	}
	return nil
}
