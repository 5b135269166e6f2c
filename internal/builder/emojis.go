package builder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/guildsnap/guildsnap/internal/domain"
	"github.com/guildsnap/guildsnap/internal/guild"
	"github.com/guildsnap/guildsnap/internal/snapshot"
)

func (b *Builder) captureEmojis(ctx context.Context, h guild.Handle, snap *snapshot.Snapshot, opts domain.BuildOptions, log *slog.Logger) error {
	emojis, err := h.Emojis(ctx)
	if err != nil {
		return fmt.Errorf("failed to enumerate emojis: %w", err)
	}
	for _, e := range emojis {
		snap.Emojis = append(snap.Emojis, snapshot.Emoji{
			Name:  e.Name,
			Image: b.captureImage(ctx, e.URL, opts.ImageMode, log),
		})
	}
	return nil
}
