package restore

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/guildsnap/guildsnap/internal/clamp"
	"github.com/guildsnap/guildsnap/internal/guild"
	"github.com/guildsnap/guildsnap/internal/report"
	"github.com/guildsnap/guildsnap/internal/snapshot"
)

// restoreChannels recreates the channel tree. It runs after the roles stage
// has settled, so the role enumeration here sees the roles that stage just
// created and overwrites resolve against them. Categories are independent of
// one another and built concurrently; each category's children are created
// sequentially after it so the parent id exists. Uncategorized channels run
// alongside the categories. Only role enumeration is systemic; everything
// else degrades to per-item outcomes.
func (o *Orchestrator) restoreChannels(ctx context.Context, h guild.Handle, snap *snapshot.Snapshot, sum *report.Summary) error {
	live, err := h.Roles(ctx)
	if err != nil {
		return fmt.Errorf("failed to enumerate roles: %w", err)
	}
	roleIDByName := make(map[string]string, len(live))
	for _, r := range live {
		roleIDByName[r.Name] = r.ID
	}

	tier := h.PremiumTier()

	var g errgroup.Group
	for i := range snap.Channels.Categories {
		cat := &snap.Channels.Categories[i]
		g.Go(func() error {
			info, err := h.CreateChannel(ctx, guild.ChannelParams{
				Name:       cat.Name,
				Kind:       guild.KindCategory,
				Overwrites: clamp.ResolveOverwrites(cat.Overwrites, roleIDByName),
			})
			sum.Add("channels", cat.Name, err)
			if err != nil {
				// Children have nowhere to attach.
				return nil
			}
			for j := range cat.Children {
				o.createChannel(ctx, h, &cat.Children[j], info.ID, tier, roleIDByName, sum)
			}
			return nil
		})
	}
	for i := range snap.Channels.Others {
		ch := &snap.Channels.Others[i]
		g.Go(func() error {
			o.createChannel(ctx, h, ch, "", tier, roleIDByName, sum)
			return nil
		})
	}
	return g.Wait()
}

// createChannel builds one channel with every parameter clamped to what the
// target guild can accept. Out-of-range user limits and rate limits are
// omitted instead of failing the channel.
func (o *Orchestrator) createChannel(ctx context.Context, h guild.Handle, ch *snapshot.Channel, parentID string, tier int, roleIDByName map[string]string, sum *report.Summary) {
	if clamp.ShouldSkipChannel(ch.Name, o.Skip) {
		return
	}
	p := guild.ChannelParams{
		Name:       ch.Name,
		Kind:       clamp.ChannelKind(ch.Kind),
		ParentID:   parentID,
		Overwrites: clamp.ResolveOverwrites(ch.Overwrites, roleIDByName),
	}
	switch p.Kind {
	case guild.KindVoice:
		p.Bitrate = clamp.Bitrate(ch.Bitrate, tier)
		if ch.UserLimit != nil {
			if v, ok := clamp.UserLimit(*ch.UserLimit); ok {
				p.UserLimit = v
			}
		}
	default:
		p.NSFW = ch.NSFW
		if ch.Topic != nil {
			p.Topic = *ch.Topic
		}
		if ch.RateLimit != nil {
			if v, ok := clamp.RateLimit(*ch.RateLimit); ok {
				p.RateLimit = v
			}
		}
	}
	_, err := h.CreateChannel(ctx, p)
	sum.Add("channels", ch.Name, err)
}
