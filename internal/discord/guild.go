// Package discord adapts a discordgo session to the guild capability
// surface. All knowledge of the client library lives here.
package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/bwmarrin/discordgo"

	"github.com/guildsnap/guildsnap/internal/guild"
)

// Guild implements guild.Handle over one Discord guild.
type Guild struct {
	s  *discordgo.Session
	g  *discordgo.Guild
	id string
}

// Open fetches the guild object and wraps it. The returned handle caches the
// identity fields read at this point; enumerations always hit the API.
func Open(s *discordgo.Session, guildID string) (*Guild, error) {
	g, err := s.Guild(guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch guild %s: %w", guildID, err)
	}
	return &Guild{s: s, g: g, id: guildID}, nil
}

func (d *Guild) ID() string   { return d.id }
func (d *Guild) Name() string { return d.g.Name }

func (d *Guild) IconURL() string {
	if d.g.Icon == "" {
		return ""
	}
	return d.g.IconURL("1024")
}

func (d *Guild) BannerURL() string {
	if d.g.Banner == "" {
		return ""
	}
	return d.g.BannerURL("1024")
}

func (d *Guild) SplashURL() string {
	if d.g.Splash == "" {
		return ""
	}
	return discordgo.EndpointGuildSplash(d.g.ID, d.g.Splash)
}

func (d *Guild) VerificationLevel() int     { return int(d.g.VerificationLevel) }
func (d *Guild) ExplicitContentFilter() int { return int(d.g.ExplicitContentFilter) }
func (d *Guild) DefaultNotifications() int  { return int(d.g.DefaultMessageNotifications) }
func (d *Guild) PremiumTier() int           { return int(d.g.PremiumTier) }

func (d *Guild) AFK() (string, int) {
	return d.g.AfkChannelID, d.g.AfkTimeout
}

func (d *Guild) Widget() (bool, string) {
	return d.g.WidgetEnabled, d.g.WidgetChannelID
}

// HasManageGuild computes the session user's base permissions over the guild
// from its role set.
func (d *Guild) HasManageGuild(ctx context.Context) (bool, error) {
	u, err := d.s.User("@me", discordgo.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("failed to fetch session user: %w", err)
	}
	m, err := d.s.GuildMember(d.id, u.ID, discordgo.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("failed to fetch guild member: %w", err)
	}
	if d.g.OwnerID == u.ID {
		return true, nil
	}
	roles, err := d.s.GuildRoles(d.id, discordgo.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("failed to fetch roles: %w", err)
	}
	var perms int64
	for _, r := range roles {
		if r.ID == d.id || slices.Contains(m.Roles, r.ID) {
			perms |= r.Permissions
		}
	}
	if perms&discordgo.PermissionAdministrator != 0 {
		return true, nil
	}
	return perms&discordgo.PermissionManageServer != 0, nil
}

// CanEditContentFilter reports the capability gate for the explicit content
// filter setting. The remote contract ties it to the community feature.
func (d *Guild) CanEditContentFilter() bool {
	return slices.Contains(d.g.Features, discordgo.GuildFeatureCommunity)
}

func (d *Guild) Roles(ctx context.Context) ([]guild.RoleInfo, error) {
	roles, err := d.s.GuildRoles(d.id, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roles: %w", err)
	}
	out := make([]guild.RoleInfo, 0, len(roles))
	for _, r := range roles {
		out = append(out, guild.RoleInfo{
			ID:          r.ID,
			Name:        r.Name,
			Color:       r.Color,
			Permissions: r.Permissions,
			Hoist:       r.Hoist,
			Mentionable: r.Mentionable,
			Managed:     r.Managed,
			IsEveryone:  r.ID == d.id,
		})
	}
	return out, nil
}

func channelKind(t discordgo.ChannelType) (kind string, announcement bool) {
	switch t {
	case discordgo.ChannelTypeGuildText:
		return guild.KindText, false
	case discordgo.ChannelTypeGuildNews:
		return guild.KindText, true
	case discordgo.ChannelTypeGuildVoice:
		return guild.KindVoice, false
	case discordgo.ChannelTypeGuildCategory:
		return guild.KindCategory, false
	default:
		return guild.KindOther, false
	}
}

func (d *Guild) Channels(ctx context.Context) ([]guild.ChannelInfo, error) {
	channels, err := d.s.GuildChannels(d.id, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch channels: %w", err)
	}
	out := make([]guild.ChannelInfo, 0, len(channels))
	for _, c := range channels {
		kind, news := channelKind(c.Type)
		info := guild.ChannelInfo{
			ID:           c.ID,
			Name:         c.Name,
			Kind:         kind,
			ParentID:     c.ParentID,
			Position:     c.Position,
			Topic:        c.Topic,
			NSFW:         c.NSFW,
			RateLimit:    c.RateLimitPerUser,
			Announcement: news,
			Bitrate:      c.Bitrate,
			UserLimit:    c.UserLimit,
		}
		for _, o := range c.PermissionOverwrites {
			if o.Type != discordgo.PermissionOverwriteTypeRole {
				continue
			}
			info.Overwrites = append(info.Overwrites, guild.OverwriteInfo{
				RoleID: o.ID,
				Allow:  o.Allow,
				Deny:   o.Deny,
			})
		}
		out = append(out, info)
	}
	return out, nil
}

func (d *Guild) Emojis(ctx context.Context) ([]guild.EmojiInfo, error) {
	emojis, err := d.s.GuildEmojis(d.id, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch emojis: %w", err)
	}
	out := make([]guild.EmojiInfo, 0, len(emojis))
	for _, e := range emojis {
		out = append(out, guild.EmojiInfo{
			ID:   e.ID,
			Name: e.Name,
			URL:  discordgo.EndpointEmoji(e.ID),
		})
	}
	return out, nil
}

func (d *Guild) Webhooks(ctx context.Context) ([]guild.WebhookInfo, error) {
	hooks, err := d.s.GuildWebhooks(d.id, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch webhooks: %w", err)
	}
	out := make([]guild.WebhookInfo, 0, len(hooks))
	for _, h := range hooks {
		out = append(out, guild.WebhookInfo{ID: h.ID, Name: h.Name})
	}
	return out, nil
}

func (d *Guild) ActiveThreads(ctx context.Context, channelID string) ([]guild.ThreadInfo, error) {
	list, err := d.s.GuildThreadsActive(d.id, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch active threads: %w", err)
	}
	var out []guild.ThreadInfo
	for _, t := range list.Threads {
		if t.ParentID != channelID {
			continue
		}
		out = append(out, guild.ThreadInfo{ID: t.ID, Name: t.Name})
	}
	return out, nil
}

func (d *Guild) Messages(ctx context.Context, channelID, beforeID string, limit int) ([]guild.MessageInfo, error) {
	if limit > 100 {
		limit = 100
	}
	msgs, err := d.s.ChannelMessages(channelID, limit, beforeID, "", "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}
	out := make([]guild.MessageInfo, 0, len(msgs))
	for _, m := range msgs {
		info := guild.MessageInfo{
			ID:      m.ID,
			Content: m.ContentWithMentionsReplaced(),
			Pinned:  m.Pinned,
		}
		if m.Author != nil {
			info.AuthorName = m.Author.Username
			info.AuthorAvatar = m.Author.AvatarURL("")
		}
		for _, e := range m.Embeds {
			raw, err := json.Marshal(e)
			if err != nil {
				continue
			}
			info.Embeds = append(info.Embeds, raw)
		}
		for _, a := range m.Attachments {
			info.Attachments = append(info.Attachments, guild.AttachmentInfo{
				Name: a.Filename,
				URL:  a.URL,
			})
		}
		out = append(out, info)
	}
	return out, nil
}

func (d *Guild) Edit(ctx context.Context, s guild.Settings) error {
	gp := &discordgo.GuildParams{}
	if s.Name != nil {
		gp.Name = *s.Name
	}
	if s.Icon != nil {
		gp.Icon = *s.Icon
	}
	if s.Banner != nil {
		gp.Banner = *s.Banner
	}
	if s.Splash != nil {
		gp.Splash = *s.Splash
	}
	if s.VerificationLevel != nil {
		lvl := discordgo.VerificationLevel(*s.VerificationLevel)
		gp.VerificationLevel = &lvl
	}
	if s.DefaultNotifications != nil {
		gp.DefaultMessageNotifications = *s.DefaultNotifications
	}
	if s.ExplicitContentFilter != nil {
		gp.ExplicitContentFilter = *s.ExplicitContentFilter
	}
	if s.SystemChannelID != nil {
		gp.SystemChannelID = *s.SystemChannelID
	}
	if _, err := d.s.GuildEdit(d.id, gp, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to edit guild: %w", err)
	}
	return nil
}

func (d *Guild) CreateRole(ctx context.Context, p guild.RoleParams) (guild.RoleInfo, error) {
	r, err := d.s.GuildRoleCreate(d.id, roleParams(p), discordgo.WithContext(ctx))
	if err != nil {
		return guild.RoleInfo{}, fmt.Errorf("failed to create role %q: %w", p.Name, err)
	}
	return guild.RoleInfo{
		ID:          r.ID,
		Name:        r.Name,
		Color:       r.Color,
		Permissions: r.Permissions,
		Hoist:       r.Hoist,
		Mentionable: r.Mentionable,
	}, nil
}

func (d *Guild) EditRole(ctx context.Context, roleID string, p guild.RoleParams) error {
	if _, err := d.s.GuildRoleEdit(d.id, roleID, roleParams(p), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to edit role %s: %w", roleID, err)
	}
	return nil
}

func roleParams(p guild.RoleParams) *discordgo.RoleParams {
	rp := &discordgo.RoleParams{
		Name:        p.Name,
		Hoist:       &p.Hoist,
		Permissions: &p.Permissions,
		Mentionable: &p.Mentionable,
	}
	if p.Color != 0 {
		rp.Color = &p.Color
	}
	return rp
}

func (d *Guild) DeleteRole(ctx context.Context, roleID string) error {
	if err := d.s.GuildRoleDelete(d.id, roleID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to delete role %s: %w", roleID, err)
	}
	return nil
}

func channelType(kind string) discordgo.ChannelType {
	switch kind {
	case guild.KindVoice:
		return discordgo.ChannelTypeGuildVoice
	case guild.KindCategory:
		return discordgo.ChannelTypeGuildCategory
	default:
		return discordgo.ChannelTypeGuildText
	}
}

func (d *Guild) CreateChannel(ctx context.Context, p guild.ChannelParams) (guild.ChannelInfo, error) {
	overwrites := make([]*discordgo.PermissionOverwrite, 0, len(p.Overwrites))
	for _, o := range p.Overwrites {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    o.RoleID,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: o.Allow,
			Deny:  o.Deny,
		})
	}
	c, err := d.s.GuildChannelCreateComplex(d.id, discordgo.GuildChannelCreateData{
		Name:                 p.Name,
		Type:                 channelType(p.Kind),
		Topic:                p.Topic,
		Bitrate:              p.Bitrate,
		UserLimit:            p.UserLimit,
		RateLimitPerUser:     p.RateLimit,
		PermissionOverwrites: overwrites,
		ParentID:             p.ParentID,
		NSFW:                 p.NSFW,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return guild.ChannelInfo{}, fmt.Errorf("failed to create channel %q: %w", p.Name, err)
	}
	kind, news := channelKind(c.Type)
	return guild.ChannelInfo{
		ID:           c.ID,
		Name:         c.Name,
		Kind:         kind,
		ParentID:     c.ParentID,
		Announcement: news,
	}, nil
}

func (d *Guild) DeleteChannel(ctx context.Context, channelID string) error {
	if _, err := d.s.ChannelDelete(channelID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to delete channel %s: %w", channelID, err)
	}
	return nil
}

func (d *Guild) CreateEmoji(ctx context.Context, name, image string) error {
	_, err := d.s.GuildEmojiCreate(d.id, &discordgo.EmojiParams{
		Name:  name,
		Image: image,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to create emoji %q: %w", name, err)
	}
	return nil
}

func (d *Guild) DeleteEmoji(ctx context.Context, emojiID string) error {
	if err := d.s.GuildEmojiDelete(d.id, emojiID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to delete emoji %s: %w", emojiID, err)
	}
	return nil
}

func (d *Guild) DeleteWebhook(ctx context.Context, webhookID string) error {
	if err := d.s.WebhookDelete(webhookID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to delete webhook %s: %w", webhookID, err)
	}
	return nil
}

func (d *Guild) SetAFK(ctx context.Context, channelID string, timeoutSeconds int) error {
	_, err := d.s.GuildEdit(d.id, &discordgo.GuildParams{
		AfkChannelID: channelID,
		AfkTimeout:   timeoutSeconds,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to set AFK channel: %w", err)
	}
	return nil
}

func (d *Guild) ClearAFK(ctx context.Context) error {
	// The wire format cannot null the AFK channel through GuildParams;
	// resetting the timeout to the service default is the closest reset.
	_, err := d.s.GuildEdit(d.id, &discordgo.GuildParams{
		AfkTimeout: 300,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to clear AFK channel: %w", err)
	}
	return nil
}

func (d *Guild) SetWidget(ctx context.Context, enabled bool, channelID string) error {
	err := d.s.GuildEmbedEdit(d.id, &discordgo.GuildEmbed{
		Enabled:   &enabled,
		ChannelID: channelID,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to edit widget: %w", err)
	}
	return nil
}

func (d *Guild) ClearWidget(ctx context.Context) error {
	return d.SetWidget(ctx, false, "")
}
