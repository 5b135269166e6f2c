package builder

import (
	"context"
	"log/slog"

	"github.com/guildsnap/guildsnap/internal/domain"
	"github.com/guildsnap/guildsnap/internal/guild"
	"github.com/guildsnap/guildsnap/internal/snapshot"
)

const pageSize = 100

// captureMessages paginates backwards from the newest message until the cap
// is reached or history runs out. A failed page fetch is treated as end of
// history so a transient remote error cannot abort an export.
func (b *Builder) captureMessages(ctx context.Context, h guild.Handle, channelID string, opts domain.BuildOptions, log *slog.Logger) []snapshot.Message {
	max := opts.MaxMessagesPerChannel
	if max <= 0 {
		return nil
	}

	var out []snapshot.Message
	before := ""
	for len(out) < max {
		limit := max - len(out)
		if limit > pageSize {
			limit = pageSize
		}
		page, err := h.Messages(ctx, channelID, before, limit)
		if err != nil {
			log.Warn("message page fetch failed, treating as end of history", "channel_id", channelID, "error", err)
			break
		}
		if len(page) == 0 {
			break
		}
		for _, m := range page {
			out = append(out, b.captureMessage(ctx, m, opts, log))
		}
		before = page[len(page)-1].ID
	}
	return out
}

func (b *Builder) captureMessage(ctx context.Context, m guild.MessageInfo, opts domain.BuildOptions, log *slog.Logger) snapshot.Message {
	msg := snapshot.Message{
		AuthorName:   m.AuthorName,
		AuthorAvatar: m.AuthorAvatar,
		Content:      m.Content,
		Pinned:       m.Pinned,
	}
	for _, e := range m.Embeds {
		msg.Embeds = append(msg.Embeds, snapshot.RawEmbed(e))
	}
	for _, a := range m.Attachments {
		msg.Attachments = append(msg.Attachments, b.captureImage(ctx, a.URL, opts.ImageMode, log))
	}
	return msg
}
