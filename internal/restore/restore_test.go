package restore

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/guildsnap/guildsnap/internal/builder"
	"github.com/guildsnap/guildsnap/internal/domain"
	"github.com/guildsnap/guildsnap/internal/guild"
	"github.com/guildsnap/guildsnap/internal/retry"
	"github.com/guildsnap/guildsnap/internal/snapshot"
	"github.com/guildsnap/guildsnap/internal/store"
	"github.com/guildsnap/guildsnap/internal/testutil"
)

func sampleSnapshot() *snapshot.Snapshot {
	topic := "general talk"
	userLimit := 10
	return &snapshot.Snapshot{
		ID:   "01JSNAP000000000000000000A",
		Name: "Restored Guild",
		Roles: []snapshot.Role{
			{Name: "@everyone", Permissions: "1024", IsEveryone: true},
			{Name: "mods", Color: 0xAA0000, Permissions: "8", Hoist: true},
		},
		Channels: snapshot.ChannelTree{
			Categories: []snapshot.Category{
				{
					Name: "General",
					Children: []snapshot.Channel{
						{Kind: snapshot.KindText, Name: "chat", Parent: "General", Topic: &topic},
						{Kind: snapshot.KindVoice, Name: "Lounge", Parent: "General", Bitrate: 64000, UserLimit: &userLimit},
					},
				},
			},
			Others: []snapshot.Channel{
				{Kind: snapshot.KindText, Name: "rules"},
			},
		},
		AFK:    &snapshot.AFK{ChannelName: "Lounge", TimeoutSeconds: 600},
		Widget: &snapshot.Widget{Enabled: true, ChannelName: "rules"},
		Emojis: []snapshot.Emoji{
			{Name: "party", Image: snapshot.ImageRef{Data: "data:image/png;base64,cGFydHk="}},
		},
	}
}

func TestRestoreAppliesSnapshot(t *testing.T) {
	f := testutil.NewFakeGuild()
	// Name-matching channels exist up front so the AFK and widget stages,
	// which run alongside channel creation, resolve deterministically.
	f.LiveChannels = []guild.ChannelInfo{
		{ID: "chan-afk", Name: "Lounge", Kind: guild.KindVoice},
		{ID: "chan-widget", Name: "rules", Kind: guild.KindText},
	}
	o := &Orchestrator{}

	opts := domain.DefaultRestoreOptions()
	opts.ClearBeforeRestore = false
	snap, err := o.Restore(context.Background(), f, sampleSnapshot(), opts)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if snap.Name != "Restored Guild" {
		t.Errorf("returned snapshot = %+v", snap)
	}

	if f.GuildName != "Restored Guild" {
		t.Errorf("guild name = %q", f.GuildName)
	}

	// The default role is edited in place, never recreated.
	edited, ok := f.EditedRoles["role-everyone"]
	if !ok {
		t.Fatal("default role was not edited")
	}
	if edited.Permissions != 1024 {
		t.Errorf("default role permissions = %d", edited.Permissions)
	}
	if len(f.CreatedRoles) != 1 || f.CreatedRoles[0].Name != "mods" {
		t.Errorf("created roles = %+v", f.CreatedRoles)
	}

	// Category plus three channels.
	var category, children, loose int
	for _, c := range f.CreatedChannels {
		switch {
		case c.Kind == guild.KindCategory:
			category++
		case c.ParentID != "":
			children++
		default:
			loose++
		}
	}
	if category != 1 || children != 2 || loose != 1 {
		t.Errorf("created channels = %+v", f.CreatedChannels)
	}

	if f.AFKChannelID == "" || f.AFKTimeout != 600 {
		t.Errorf("AFK not applied: %q %d", f.AFKChannelID, f.AFKTimeout)
	}
	if !f.WidgetOn || f.WidgetChannel == "" {
		t.Errorf("widget not applied: %v %q", f.WidgetOn, f.WidgetChannel)
	}
	if f.CreatedEmojis["party"] != "data:image/png;base64,cGFydHk=" {
		t.Errorf("emoji not created: %+v", f.CreatedEmojis)
	}
}

func TestRestoreClampsVoiceChannels(t *testing.T) {
	f := testutil.NewFakeGuild()
	f.Tier = 0
	o := &Orchestrator{}

	snap := sampleSnapshot()
	bigLimit := 500
	snap.Channels.Categories[0].Children[1].Bitrate = 999999999
	snap.Channels.Categories[0].Children[1].UserLimit = &bigLimit

	if _, err := o.Restore(context.Background(), f, snap, domain.DefaultRestoreOptions()); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	var lounge *guild.ChannelParams
	for i := range f.CreatedChannels {
		if f.CreatedChannels[i].Name == "Lounge" {
			lounge = &f.CreatedChannels[i]
		}
	}
	if lounge == nil {
		t.Fatal("voice channel not created")
	}
	if lounge.Bitrate != 64000 {
		t.Errorf("bitrate = %d, want 64000", lounge.Bitrate)
	}
	if lounge.UserLimit != 0 {
		t.Errorf("out-of-range user limit should be omitted, got %d", lounge.UserLimit)
	}
}

func TestRestoreClearsByDefault(t *testing.T) {
	f := testutil.NewFakeGuild()
	f.LiveRoles = append(f.LiveRoles,
		guild.RoleInfo{ID: "role-old", Name: "old"},
		guild.RoleInfo{ID: "role-bot", Name: "bot", Managed: true},
	)
	f.LiveChannels = []guild.ChannelInfo{{ID: "chan-old", Name: "old-chat", Kind: guild.KindText}}
	f.LiveEmojis = []guild.EmojiInfo{{ID: "emoji-old", Name: "old"}}
	f.LiveWebhooks = []guild.WebhookInfo{{ID: "hook-old", Name: "old-hook"}}
	o := &Orchestrator{}

	if _, err := o.Restore(context.Background(), f, sampleSnapshot(), domain.DefaultRestoreOptions()); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if len(f.DeletedRoles) != 1 || f.DeletedRoles[0] != "role-old" {
		t.Errorf("deleted roles = %v (managed and default must survive)", f.DeletedRoles)
	}
	if len(f.DeletedChannels) != 1 || f.DeletedChannels[0] != "chan-old" {
		t.Errorf("deleted channels = %v", f.DeletedChannels)
	}
	if len(f.DeletedEmojis) != 1 || len(f.DeletedWebhooks) != 1 {
		t.Errorf("emojis/webhooks not cleared: %v %v", f.DeletedEmojis, f.DeletedWebhooks)
	}
	if !f.AFKCleared || !f.WidgetCleared {
		t.Error("AFK/widget not reset")
	}
}

func TestRestoreNoClearSkipsDeletions(t *testing.T) {
	f := testutil.NewFakeGuild()
	f.LiveRoles = append(f.LiveRoles, guild.RoleInfo{ID: "role-old", Name: "old"})
	f.LiveChannels = []guild.ChannelInfo{{ID: "chan-old", Name: "old-chat", Kind: guild.KindText}}
	o := &Orchestrator{}

	opts := domain.DefaultRestoreOptions()
	opts.ClearBeforeRestore = false
	if _, err := o.Restore(context.Background(), f, sampleSnapshot(), opts); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if len(f.DeletedRoles) != 0 || len(f.DeletedChannels) != 0 {
		t.Errorf("deletions happened despite no-clear: %v %v", f.DeletedRoles, f.DeletedChannels)
	}
}

func TestRestoreStageRetriesThenFails(t *testing.T) {
	f := testutil.NewFakeGuild()
	// The roles stage enumerates live roles first; a systemic failure there
	// burns the whole retry budget.
	f.Fail("Roles", errors.New("remote unavailable"))
	o := &Orchestrator{Attempts: 3}

	opts := domain.DefaultRestoreOptions()
	opts.ClearBeforeRestore = false
	_, err := o.Restore(context.Background(), f, sampleSnapshot(), opts)
	if !errors.Is(err, ErrRestoreFailed) {
		t.Fatalf("expected ErrRestoreFailed, got %v", err)
	}

	// Roles is hit by both the roles stage and the channels stage, each
	// retried independently: 3 attempts apiece.
	if got := f.Calls("Roles"); got != 6 {
		t.Errorf("Roles called %d times, want 6", got)
	}
}

func TestRestoreStageRecoversWithinBudget(t *testing.T) {
	f := testutil.NewFakeGuild()
	f.FailTimes("Roles", 1, errors.New("transient"))
	o := &Orchestrator{}

	opts := domain.DefaultRestoreOptions()
	opts.ClearBeforeRestore = false
	if _, err := o.Restore(context.Background(), f, sampleSnapshot(), opts); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if len(f.CreatedRoles) != 1 || f.CreatedRoles[0].Name != "mods" {
		t.Errorf("roles stage did not recover: %+v", f.CreatedRoles)
	}
	if len(f.CreatedChannels) == 0 {
		t.Error("channels stage did not recover")
	}
}

func TestRestoreItemFailuresDoNotFail(t *testing.T) {
	f := testutil.NewFakeGuild()
	f.Fail("CreateEmoji", errors.New("image rejected"))
	o := &Orchestrator{}

	opts := domain.DefaultRestoreOptions()
	opts.ClearBeforeRestore = false
	if _, err := o.Restore(context.Background(), f, sampleSnapshot(), opts); err != nil {
		t.Fatalf("item-level failure should not fail the restore: %v", err)
	}
}

func TestRestoreAFKNoMatchIsNoop(t *testing.T) {
	f := testutil.NewFakeGuild()
	o := &Orchestrator{}

	snap := sampleSnapshot()
	snap.AFK = &snapshot.AFK{ChannelName: "does-not-exist", TimeoutSeconds: 600}
	snap.Channels = snapshot.ChannelTree{}

	opts := domain.DefaultRestoreOptions()
	opts.ClearBeforeRestore = false
	if _, err := o.Restore(context.Background(), f, snap, opts); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if f.AFKChannelID != "" {
		t.Errorf("AFK was set to %q for a missing channel", f.AFKChannelID)
	}
}

func TestRestoreSkipsIgnoredChannels(t *testing.T) {
	f := testutil.NewFakeGuild()
	o := &Orchestrator{}
	o.Skip.Enabled = true
	o.Skip.Prefixes = []string{"ticket-"}

	snap := sampleSnapshot()
	snap.Channels.Others = append(snap.Channels.Others, snapshot.Channel{
		Kind: snapshot.KindText, Name: "ticket-0042",
	})

	opts := domain.DefaultRestoreOptions()
	opts.ClearBeforeRestore = false
	if _, err := o.Restore(context.Background(), f, snap, opts); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	for _, c := range f.CreatedChannels {
		if c.Name == "ticket-0042" {
			t.Error("ignored channel was recreated")
		}
	}
}

func TestRestoreResolvesStoredSnapshot(t *testing.T) {
	s, err := store.NewFileStore(filepath.Join(t.TempDir(), "snapshots"))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	snap := sampleSnapshot()
	data, err := snapshot.Encode(snap, false)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := s.Put(snap.ID, data); err != nil {
		t.Fatalf("Put: %v", err)
	}

	f := testutil.NewFakeGuild()
	o := &Orchestrator{Store: s}

	opts := domain.DefaultRestoreOptions()
	opts.ClearBeforeRestore = false
	got, err := o.Restore(context.Background(), f, snap.ID, opts)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if got.Name != snap.Name {
		t.Errorf("resolved snapshot = %+v", got)
	}
}

func TestRestoreMissingSnapshot(t *testing.T) {
	s, err := store.NewFileStore(filepath.Join(t.TempDir(), "snapshots"))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	o := &Orchestrator{Store: s}

	_, err = o.Restore(context.Background(), testutil.NewFakeGuild(), "nope", domain.DefaultRestoreOptions())
	var notFound *domain.SnapshotNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected SnapshotNotFoundError, got %v", err)
	}
}

func TestRestoreCorruptSnapshot(t *testing.T) {
	s, err := store.NewFileStore(filepath.Join(t.TempDir(), "snapshots"))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := s.Put("bad", []byte("{not json")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	o := &Orchestrator{Store: s}

	_, err = o.Restore(context.Background(), testutil.NewFakeGuild(), "bad", domain.DefaultRestoreOptions())
	var corrupt *domain.SnapshotCorruptError
	if !errors.As(err, &corrupt) {
		t.Fatalf("expected SnapshotCorruptError, got %v", err)
	}
	if corrupt.ID != "bad" {
		t.Errorf("corrupt.ID = %q", corrupt.ID)
	}
}

func TestRestoreNilTarget(t *testing.T) {
	o := &Orchestrator{}
	_, err := o.Restore(context.Background(), nil, sampleSnapshot(), domain.DefaultRestoreOptions())
	var invalid *domain.InvalidTargetError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidTargetError, got %v", err)
	}
}

func TestRestoreSnapshotIDWithoutStore(t *testing.T) {
	o := &Orchestrator{}
	_, err := o.Restore(context.Background(), testutil.NewFakeGuild(), "some-id", domain.DefaultRestoreOptions())
	if err == nil || !strings.Contains(err.Error(), "no store configured") {
		t.Fatalf("expected a no-store error, got %v", err)
	}
}

func TestRestoreWidgetWithoutChannelIsNoop(t *testing.T) {
	f := testutil.NewFakeGuild()
	o := &Orchestrator{}

	snap := sampleSnapshot()
	snap.Widget = &snapshot.Widget{Enabled: true}

	opts := domain.DefaultRestoreOptions()
	opts.ClearBeforeRestore = false
	if _, err := o.Restore(context.Background(), f, snap, opts); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if f.Calls("SetWidget") != 0 {
		t.Errorf("SetWidget called %d times for a snapshot with no widget channel", f.Calls("SetWidget"))
	}
	if f.WidgetOn {
		t.Error("widget enabled without a recorded channel")
	}
}

func TestRoundTrip(t *testing.T) {
	source := testutil.NewFakeGuild()
	source.GuildName = "Source"
	source.LiveRoles = append(source.LiveRoles, guild.RoleInfo{ID: "role-mods", Name: "mods", Permissions: 8})
	source.LiveChannels = []guild.ChannelInfo{
		{ID: "cat-1", Name: "General", Kind: guild.KindCategory},
		{ID: "chan-1", Name: "chat", Kind: guild.KindText, ParentID: "cat-1",
			Overwrites: []guild.OverwriteInfo{{RoleID: "role-mods", Allow: 1024, Deny: 2048}}},
		{ID: "chan-2", Name: "Lounge", Kind: guild.KindVoice, ParentID: "cat-1", Bitrate: 64000},
	}

	b := &builder.Builder{}
	snap, err := b.Build(context.Background(), source, domain.BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	target := testutil.NewFakeGuild()
	o := &Orchestrator{}
	if _, err := o.Restore(context.Background(), target, snap, domain.DefaultRestoreOptions()); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if target.GuildName != "Source" {
		t.Errorf("guild name = %q", target.GuildName)
	}
	created := make(map[string]guild.ChannelParams)
	for _, c := range target.CreatedChannels {
		created[c.Name] = c
	}
	for _, want := range []string{"General", "chat", "Lounge"} {
		if _, ok := created[want]; !ok {
			t.Errorf("channel %q not recreated", want)
		}
	}

	// The chat overwrite must survive the trip, resolved to the role the
	// restore itself created on the target.
	modsID := ""
	for _, r := range target.LiveRoles {
		if r.Name == "mods" {
			modsID = r.ID
		}
	}
	if modsID == "" {
		t.Fatal("mods role not recreated on target")
	}
	chat := created["chat"]
	if len(chat.Overwrites) != 1 {
		t.Fatalf("chat overwrites = %+v, want 1", chat.Overwrites)
	}
	ow := chat.Overwrites[0]
	if ow.RoleID != modsID || ow.Allow != 1024 || ow.Deny != 2048 {
		t.Errorf("chat overwrite = %+v, want role %s allow 1024 deny 2048", ow, modsID)
	}
}

// Channel overwrites must resolve against the roles the restore itself
// creates, even when role creation is slow.
func TestRestoreChannelOverwritesSeeNewRoles(t *testing.T) {
	f := testutil.NewFakeGuild()
	f.Slow("CreateRole", 20*time.Millisecond)
	o := &Orchestrator{}

	snap := sampleSnapshot()
	snap.Channels.Categories[0].Children[0].Overwrites = []snapshot.Overwrite{
		{RoleName: "mods", Allow: "1024", Deny: "2048"},
	}

	if _, err := o.Restore(context.Background(), f, snap, domain.DefaultRestoreOptions()); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	modsID := ""
	for _, r := range f.LiveRoles {
		if r.Name == "mods" {
			modsID = r.ID
		}
	}
	if modsID == "" {
		t.Fatal("mods role not created")
	}
	for _, c := range f.CreatedChannels {
		if c.Name != "chat" {
			continue
		}
		if len(c.Overwrites) != 1 || c.Overwrites[0].RoleID != modsID {
			t.Fatalf("chat overwrites = %+v, want one for role %s", c.Overwrites, modsID)
		}
		return
	}
	t.Fatal("chat channel not created")
}

// The aggregate error hides stage detail from callers.
func TestStageExhaustionError(t *testing.T) {
	f := testutil.NewFakeGuild()
	f.Fail("Roles", errors.New("down"))
	o := &Orchestrator{Attempts: 2}

	opts := domain.DefaultRestoreOptions()
	opts.ClearBeforeRestore = false
	_, err := o.Restore(context.Background(), f, sampleSnapshot(), opts)
	if !errors.Is(err, ErrRestoreFailed) {
		t.Fatalf("expected ErrRestoreFailed, got %v", err)
	}

	var exhausted *retry.ExhaustedError
	if errors.As(err, &exhausted) {
		t.Error("exhaustion detail must not leak through the aggregate error")
	}
}
