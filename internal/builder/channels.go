package builder

import (
	"context"
	"log/slog"
	"sort"

	"github.com/guildsnap/guildsnap/internal/clamp"
	"github.com/guildsnap/guildsnap/internal/domain"
	"github.com/guildsnap/guildsnap/internal/guild"
	"github.com/guildsnap/guildsnap/internal/snapshot"
)

// captureChannels assembles the channel tree: categories with their children
// in position order, then uncategorized channels. Channel kinds this system
// does not restore are left out entirely.
func (b *Builder) captureChannels(ctx context.Context, h guild.Handle, channels []guild.ChannelInfo, snap *snapshot.Snapshot, opts domain.BuildOptions, log *slog.Logger) {
	roleNames := b.roleNamesByID(ctx, h, log)

	sorted := make([]guild.ChannelInfo, len(channels))
	copy(sorted, channels)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })

	var ordered []*snapshot.Category
	byID := make(map[string]*snapshot.Category)
	for _, c := range sorted {
		if c.Kind != guild.KindCategory {
			continue
		}
		cat := &snapshot.Category{
			Name:       c.Name,
			Overwrites: overwritesByName(c.Overwrites, roleNames),
		}
		ordered = append(ordered, cat)
		byID[c.ID] = cat
	}

	for _, c := range sorted {
		if c.Kind != guild.KindText && c.Kind != guild.KindVoice {
			continue
		}
		if clamp.ShouldSkipChannel(c.Name, b.Skip) {
			log.Debug("skipping channel by ignore rule", "channel", c.Name)
			continue
		}
		desc := b.captureChannel(ctx, h, c, roleNames, opts, log)
		if parent, ok := byID[c.ParentID]; ok {
			desc.Parent = parent.Name
			parent.Children = append(parent.Children, desc)
		} else {
			snap.Channels.Others = append(snap.Channels.Others, desc)
		}
	}

	for _, cat := range ordered {
		snap.Channels.Categories = append(snap.Channels.Categories, *cat)
	}
}

func (b *Builder) captureChannel(ctx context.Context, h guild.Handle, c guild.ChannelInfo, roleNames map[string]string, opts domain.BuildOptions, log *slog.Logger) snapshot.Channel {
	desc := snapshot.Channel{
		Kind:       snapshot.KindText,
		Name:       c.Name,
		Overwrites: overwritesByName(c.Overwrites, roleNames),
	}
	switch c.Kind {
	case guild.KindVoice:
		desc.Kind = snapshot.KindVoice
		desc.Bitrate = c.Bitrate
		if c.UserLimit > 0 {
			limit := c.UserLimit
			desc.UserLimit = &limit
		}
	default:
		desc.NSFW = c.NSFW
		if c.Topic != "" {
			topic := c.Topic
			desc.Topic = &topic
		}
		if c.RateLimit > 0 {
			rl := c.RateLimit
			desc.RateLimit = &rl
		}
		desc.Messages = b.captureMessages(ctx, h, c.ID, opts, log)
		desc.Threads = b.captureThreads(ctx, h, c.ID, opts, log)
	}
	return desc
}

func (b *Builder) captureThreads(ctx context.Context, h guild.Handle, channelID string, opts domain.BuildOptions, log *slog.Logger) []snapshot.Thread {
	threads, err := h.ActiveThreads(ctx, channelID)
	if err != nil {
		log.Warn("thread enumeration failed", "channel_id", channelID, "error", err)
		return nil
	}
	var out []snapshot.Thread
	for _, t := range threads {
		out = append(out, snapshot.Thread{
			Name:     t.Name,
			Messages: b.captureMessages(ctx, h, t.ID, opts, log),
		})
	}
	return out
}

func (b *Builder) roleNamesByID(ctx context.Context, h guild.Handle, log *slog.Logger) map[string]string {
	names := make(map[string]string)
	roles, err := h.Roles(ctx)
	if err != nil {
		log.Warn("role enumeration failed, overwrites will be dropped", "error", err)
		return names
	}
	for _, r := range roles {
		names[r.ID] = r.Name
	}
	return names
}

// overwritesByName converts live ID-keyed overwrites to the name-keyed wire
// form. Overwrites for unknown roles are dropped.
func overwritesByName(list []guild.OverwriteInfo, roleNames map[string]string) []snapshot.Overwrite {
	var out []snapshot.Overwrite
	for _, o := range list {
		name, ok := roleNames[o.RoleID]
		if !ok {
			continue
		}
		out = append(out, snapshot.Overwrite{
			RoleName: name,
			Allow:    snapshot.FormatPermissions(o.Allow),
			Deny:     snapshot.FormatPermissions(o.Deny),
		})
	}
	return out
}
