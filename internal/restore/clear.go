package restore

import (
	"context"
	"fmt"

	"github.com/guildsnap/guildsnap/internal/guild"
	"github.com/guildsnap/guildsnap/internal/report"
)

// clear removes every deletable role, channel, emoji, and webhook, and
// resets guild settings to baseline. Each individual deletion is
// best-effort: failures land in the summary and the loop continues. Only a
// failure of the stage itself (an enumeration call) propagates, which is
// what arms the stage-level retry.
func (o *Orchestrator) clear(ctx context.Context, h guild.Handle, sum *report.Summary) error {
	roles, err := h.Roles(ctx)
	if err != nil {
		return fmt.Errorf("failed to enumerate roles: %w", err)
	}
	for _, r := range roles {
		if r.Managed || r.IsEveryone {
			continue
		}
		sum.Add("clear:roles", r.Name, h.DeleteRole(ctx, r.ID))
	}

	channels, err := h.Channels(ctx)
	if err != nil {
		return fmt.Errorf("failed to enumerate channels: %w", err)
	}
	for _, c := range channels {
		sum.Add("clear:channels", c.Name, h.DeleteChannel(ctx, c.ID))
	}

	emojis, err := h.Emojis(ctx)
	if err != nil {
		return fmt.Errorf("failed to enumerate emojis: %w", err)
	}
	for _, e := range emojis {
		sum.Add("clear:emojis", e.Name, h.DeleteEmoji(ctx, e.ID))
	}

	webhooks, err := h.Webhooks(ctx)
	if err != nil {
		return fmt.Errorf("failed to enumerate webhooks: %w", err)
	}
	for _, w := range webhooks {
		sum.Add("clear:webhooks", w.Name, h.DeleteWebhook(ctx, w.ID))
	}

	empty := ""
	zero := 0
	sum.Add("clear:settings", "baseline", h.Edit(ctx, guild.Settings{
		Icon:                  &empty,
		Banner:                &empty,
		Splash:                &empty,
		DefaultNotifications:  &zero,
		VerificationLevel:     &zero,
		ExplicitContentFilter: &zero,
		SystemChannelID:       &empty,
	}))
	sum.Add("clear:afk", "afk", h.ClearAFK(ctx))
	sum.Add("clear:widget", "widget", h.ClearWidget(ctx))

	return nil
}
