package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/guildsnap/guildsnap/internal/guild"
)

// FakeGuild is an in-memory guild.Handle. Mutations are recorded, any
// operation can be made to fail by name via Fail / FailTimes, and create or
// enumerate calls can be slowed via Slow to surface ordering assumptions.
// All methods are safe for concurrent use.
type FakeGuild struct {
	mu sync.Mutex

	GuildID       string
	GuildName     string
	Icon          string
	Banner        string
	Splash        string
	Verification  int
	ContentFilter int
	Notifications int
	Tier          int
	AFKChannelID  string
	AFKTimeout    int
	WidgetOn      bool
	WidgetChannel string

	ManageGuild bool
	Community   bool

	LiveRoles    []guild.RoleInfo
	LiveChannels []guild.ChannelInfo
	LiveEmojis   []guild.EmojiInfo
	LiveWebhooks []guild.WebhookInfo
	LiveThreads  map[string][]guild.ThreadInfo
	History      map[string][]guild.MessageInfo

	// Recorded mutations.
	Edits           []guild.Settings
	CreatedRoles    []guild.RoleParams
	EditedRoles     map[string]guild.RoleParams
	CreatedChannels []guild.ChannelParams
	CreatedEmojis   map[string]string
	DeletedRoles    []string
	DeletedChannels []string
	DeletedEmojis   []string
	DeletedWebhooks []string
	AFKCleared      bool
	WidgetCleared   bool

	failAlways map[string]error
	failTimes  map[string]int
	slow       map[string]time.Duration
	calls      map[string]int
	nextID     int
}

// NewFakeGuild returns a fake guild with manage permission, an implicit
// default role, and empty live state.
func NewFakeGuild() *FakeGuild {
	return &FakeGuild{
		GuildID:     "guild-1",
		GuildName:   "Test Guild",
		ManageGuild: true,
		Community:   true,
		LiveRoles: []guild.RoleInfo{
			{ID: "role-everyone", Name: "@everyone", IsEveryone: true},
		},
		LiveThreads:   map[string][]guild.ThreadInfo{},
		History:       map[string][]guild.MessageInfo{},
		EditedRoles:   map[string]guild.RoleParams{},
		CreatedEmojis: map[string]string{},
		failAlways:    map[string]error{},
		failTimes:     map[string]int{},
		slow:          map[string]time.Duration{},
		calls:         map[string]int{},
	}
}

// Fail makes every future call to op return err.
func (f *FakeGuild) Fail(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failAlways[op] = err
}

// FailTimes makes the next n calls to op return err, then succeed.
func (f *FakeGuild) FailTimes(op string, n int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failAlways[op] = err
	f.failTimes[op] = n
}

// Slow makes every future call to op take at least d before touching guild
// state. Applies to the role and channel create/enumerate operations.
func (f *FakeGuild) Slow(op string, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.slow[op] = d
}

// stall must be called before the mutex is taken so a slowed call does not
// block concurrent callers.
func (f *FakeGuild) stall(op string) {
	f.mu.Lock()
	d := f.slow[op]
	f.mu.Unlock()
	if d > 0 {
		time.Sleep(d)
	}
}

// Calls reports how many times op was invoked.
func (f *FakeGuild) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// check must be called with the mutex held.
func (f *FakeGuild) check(op string) error {
	f.calls[op]++
	err, ok := f.failAlways[op]
	if !ok {
		return nil
	}
	if n, limited := f.failTimes[op]; limited {
		if n <= 0 {
			return nil
		}
		f.failTimes[op] = n - 1
	}
	return err
}

func (f *FakeGuild) genID(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *FakeGuild) ID() string                { return f.GuildID }
func (f *FakeGuild) Name() string              { return f.GuildName }
func (f *FakeGuild) IconURL() string           { return f.Icon }
func (f *FakeGuild) BannerURL() string         { return f.Banner }
func (f *FakeGuild) SplashURL() string         { return f.Splash }
func (f *FakeGuild) VerificationLevel() int    { return f.Verification }
func (f *FakeGuild) ExplicitContentFilter() int { return f.ContentFilter }
func (f *FakeGuild) DefaultNotifications() int { return f.Notifications }
func (f *FakeGuild) PremiumTier() int          { return f.Tier }

func (f *FakeGuild) AFK() (string, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.AFKChannelID, f.AFKTimeout
}

func (f *FakeGuild) Widget() (bool, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.WidgetOn, f.WidgetChannel
}

func (f *FakeGuild) HasManageGuild(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("HasManageGuild"); err != nil {
		return false, err
	}
	return f.ManageGuild, nil
}

func (f *FakeGuild) CanEditContentFilter() bool { return f.Community }

func (f *FakeGuild) Roles(ctx context.Context) ([]guild.RoleInfo, error) {
	f.stall("Roles")
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("Roles"); err != nil {
		return nil, err
	}
	out := make([]guild.RoleInfo, len(f.LiveRoles))
	copy(out, f.LiveRoles)
	return out, nil
}

func (f *FakeGuild) Channels(ctx context.Context) ([]guild.ChannelInfo, error) {
	f.stall("Channels")
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("Channels"); err != nil {
		return nil, err
	}
	out := make([]guild.ChannelInfo, len(f.LiveChannels))
	copy(out, f.LiveChannels)
	return out, nil
}

func (f *FakeGuild) Emojis(ctx context.Context) ([]guild.EmojiInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("Emojis"); err != nil {
		return nil, err
	}
	out := make([]guild.EmojiInfo, len(f.LiveEmojis))
	copy(out, f.LiveEmojis)
	return out, nil
}

func (f *FakeGuild) Webhooks(ctx context.Context) ([]guild.WebhookInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("Webhooks"); err != nil {
		return nil, err
	}
	out := make([]guild.WebhookInfo, len(f.LiveWebhooks))
	copy(out, f.LiveWebhooks)
	return out, nil
}

func (f *FakeGuild) ActiveThreads(ctx context.Context, channelID string) ([]guild.ThreadInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("ActiveThreads"); err != nil {
		return nil, err
	}
	return f.LiveThreads[channelID], nil
}

func (f *FakeGuild) Messages(ctx context.Context, channelID, beforeID string, limit int) ([]guild.MessageInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("Messages"); err != nil {
		return nil, err
	}
	history := f.History[channelID]
	start := 0
	if beforeID != "" {
		for i, m := range history {
			if m.ID == beforeID {
				start = i + 1
				break
			}
		}
	}
	if start >= len(history) {
		return nil, nil
	}
	end := start + limit
	if end > len(history) {
		end = len(history)
	}
	out := make([]guild.MessageInfo, end-start)
	copy(out, history[start:end])
	return out, nil
}

func (f *FakeGuild) Edit(ctx context.Context, s guild.Settings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("Edit"); err != nil {
		return err
	}
	f.Edits = append(f.Edits, s)
	if s.Name != nil {
		f.GuildName = *s.Name
	}
	if s.VerificationLevel != nil {
		f.Verification = *s.VerificationLevel
	}
	if s.ExplicitContentFilter != nil {
		f.ContentFilter = *s.ExplicitContentFilter
	}
	if s.DefaultNotifications != nil {
		f.Notifications = *s.DefaultNotifications
	}
	return nil
}

func (f *FakeGuild) CreateRole(ctx context.Context, p guild.RoleParams) (guild.RoleInfo, error) {
	f.stall("CreateRole")
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("CreateRole"); err != nil {
		return guild.RoleInfo{}, err
	}
	f.CreatedRoles = append(f.CreatedRoles, p)
	info := guild.RoleInfo{
		ID:          f.genID("role"),
		Name:        p.Name,
		Color:       p.Color,
		Permissions: p.Permissions,
		Hoist:       p.Hoist,
		Mentionable: p.Mentionable,
	}
	f.LiveRoles = append(f.LiveRoles, info)
	return info, nil
}

func (f *FakeGuild) EditRole(ctx context.Context, roleID string, p guild.RoleParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("EditRole"); err != nil {
		return err
	}
	f.EditedRoles[roleID] = p
	return nil
}

func (f *FakeGuild) DeleteRole(ctx context.Context, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("DeleteRole"); err != nil {
		return err
	}
	f.DeletedRoles = append(f.DeletedRoles, roleID)
	kept := f.LiveRoles[:0]
	for _, r := range f.LiveRoles {
		if r.ID != roleID {
			kept = append(kept, r)
		}
	}
	f.LiveRoles = kept
	return nil
}

func (f *FakeGuild) CreateChannel(ctx context.Context, p guild.ChannelParams) (guild.ChannelInfo, error) {
	f.stall("CreateChannel")
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("CreateChannel"); err != nil {
		return guild.ChannelInfo{}, err
	}
	f.CreatedChannels = append(f.CreatedChannels, p)
	info := guild.ChannelInfo{
		ID:        f.genID("chan"),
		Name:      p.Name,
		Kind:      p.Kind,
		ParentID:  p.ParentID,
		Topic:     p.Topic,
		NSFW:      p.NSFW,
		RateLimit: p.RateLimit,
		Bitrate:   p.Bitrate,
		UserLimit: p.UserLimit,
	}
	f.LiveChannels = append(f.LiveChannels, info)
	return info, nil
}

func (f *FakeGuild) DeleteChannel(ctx context.Context, channelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("DeleteChannel"); err != nil {
		return err
	}
	f.DeletedChannels = append(f.DeletedChannels, channelID)
	kept := f.LiveChannels[:0]
	for _, c := range f.LiveChannels {
		if c.ID != channelID {
			kept = append(kept, c)
		}
	}
	f.LiveChannels = kept
	return nil
}

func (f *FakeGuild) CreateEmoji(ctx context.Context, name, image string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("CreateEmoji"); err != nil {
		return err
	}
	f.CreatedEmojis[name] = image
	f.LiveEmojis = append(f.LiveEmojis, guild.EmojiInfo{ID: f.genID("emoji"), Name: name})
	return nil
}

func (f *FakeGuild) DeleteEmoji(ctx context.Context, emojiID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("DeleteEmoji"); err != nil {
		return err
	}
	f.DeletedEmojis = append(f.DeletedEmojis, emojiID)
	return nil
}

func (f *FakeGuild) DeleteWebhook(ctx context.Context, webhookID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("DeleteWebhook"); err != nil {
		return err
	}
	f.DeletedWebhooks = append(f.DeletedWebhooks, webhookID)
	return nil
}

func (f *FakeGuild) SetAFK(ctx context.Context, channelID string, timeoutSeconds int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("SetAFK"); err != nil {
		return err
	}
	f.AFKChannelID = channelID
	f.AFKTimeout = timeoutSeconds
	return nil
}

func (f *FakeGuild) ClearAFK(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("ClearAFK"); err != nil {
		return err
	}
	f.AFKCleared = true
	f.AFKChannelID = ""
	return nil
}

func (f *FakeGuild) SetWidget(ctx context.Context, enabled bool, channelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("SetWidget"); err != nil {
		return err
	}
	f.WidgetOn = enabled
	f.WidgetChannel = channelID
	return nil
}

func (f *FakeGuild) ClearWidget(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("ClearWidget"); err != nil {
		return err
	}
	f.WidgetCleared = true
	f.WidgetOn = false
	f.WidgetChannel = ""
	return nil
}

// FakeFetcher resolves URLs from a fixed map.
type FakeFetcher struct {
	// URIs maps a URL to the data URI FetchDataURI returns for it.
	URIs map[string]string
	// Err, when set, fails every fetch.
	Err error
}

func (f *FakeFetcher) FetchDataURI(ctx context.Context, url string) (string, error) {
	if f.Err != nil {
		return "", f.Err
	}
	if uri, ok := f.URIs[url]; ok {
		return uri, nil
	}
	return "", fmt.Errorf("no fixture for %s", url)
}
