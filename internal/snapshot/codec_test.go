package snapshot

import (
	"errors"
	"strings"
	"testing"

	"github.com/guildsnap/guildsnap/internal/domain"
)

func sampleSnapshot() *Snapshot {
	rate := 5
	topic := "welcome"
	limit := 10
	return &Snapshot{
		ID:   "01JTESTSNAPSHOT0000000000A",
		Name: "Test Guild",
		Roles: []Role{
			{Name: "@everyone", Permissions: "1024", IsEveryone: true},
			{Name: "mods", Color: 0xFF0000, Permissions: "8", Hoist: true},
		},
		Channels: ChannelTree{
			Categories: []Category{
				{
					Name: "General",
					Children: []Channel{
						{Kind: KindText, Name: "chat", Parent: "General", Topic: &topic, RateLimit: &rate},
						{Kind: KindVoice, Name: "Lounge", Parent: "General", Bitrate: 64000, UserLimit: &limit},
					},
				},
			},
			Others: []Channel{
				{Kind: KindText, Name: "rules", NSFW: false},
			},
		},
		Emojis: []Emoji{{Name: "party", Image: ImageRef{URL: "https://cdn.example/party.png"}}},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	snap := sampleSnapshot()

	data, err := Encode(snap, false)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if got.ID != snap.ID {
		t.Errorf("id = %q, want %q", got.ID, snap.ID)
	}
	if got.Name != snap.Name {
		t.Errorf("name = %q, want %q", got.Name, snap.Name)
	}
	if len(got.Roles) != 2 || !got.Roles[0].IsEveryone {
		t.Errorf("roles not preserved: %+v", got.Roles)
	}
	if len(got.Channels.Categories) != 1 || len(got.Channels.Categories[0].Children) != 2 {
		t.Errorf("channel tree not preserved: %+v", got.Channels)
	}
	voice := got.Channels.Categories[0].Children[1]
	if voice.Kind != KindVoice || voice.UserLimit == nil || *voice.UserLimit != 10 {
		t.Errorf("voice channel not preserved: %+v", voice)
	}
}

func TestEncodePrettyEndsWithoutNewline(t *testing.T) {
	data, err := Encode(sampleSnapshot(), true)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(data) == 0 || data[len(data)-1] == '\n' {
		t.Error("expected trimmed document")
	}
	if !strings.Contains(string(data), "\n  ") {
		t.Error("expected indented output")
	}
}

func TestDecodeRejectsMalformedJSON(t *testing.T) {
	_, err := Decode([]byte("{not json"))
	var corrupt *domain.SnapshotCorruptError
	if !errors.As(err, &corrupt) {
		t.Fatalf("expected SnapshotCorruptError, got %v", err)
	}
}

func TestDecodeRejectsInvalidStructure(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unnamed role", `{"id":"x","name":"g","roles":[{"name":""}]}`},
		{"two everyone roles", `{"id":"x","name":"g","roles":[{"name":"@everyone","is_everyone":true},{"name":"@everyone","is_everyone":true}]}`},
		{"roles without a default role", `{"id":"x","name":"g","roles":[{"name":"mods","permissions":"8"}]}`},
		{"bad permission bitmask", `{"id":"x","name":"g","roles":[{"name":"r","permissions":"abc"}]}`},
		{"unknown channel kind", `{"id":"x","name":"g","channels":{"others":[{"kind":"stage","name":"s"}]}}`},
		{"negative rate limit", `{"id":"x","name":"g","channels":{"others":[{"kind":"text","name":"c","rate_limit":-1}]}}`},
		{"overwrite with no role", `{"id":"x","name":"g","channels":{"others":[{"kind":"text","name":"c","overwrites":[{"role_name":""}]}]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.doc))
			var corrupt *domain.SnapshotCorruptError
			if !errors.As(err, &corrupt) {
				t.Fatalf("expected SnapshotCorruptError, got %v", err)
			}
			if corrupt.ID != "x" {
				t.Errorf("corrupt.ID = %q, want %q", corrupt.ID, "x")
			}
		})
	}
}

func TestParsePermissions(t *testing.T) {
	v, err := ParsePermissions("1024")
	if err != nil || v != 1024 {
		t.Errorf("ParsePermissions(1024) = %d, %v", v, err)
	}
	if v, err := ParsePermissions(""); err != nil || v != 0 {
		t.Errorf("empty bitmask = %d, %v", v, err)
	}
	if _, err := ParsePermissions("-5"); err == nil {
		t.Error("expected error for negative bitmask")
	}
	if _, err := ParsePermissions("words"); err == nil {
		t.Error("expected error for non-numeric bitmask")
	}

	// Large masks survive the string round trip.
	big := "18446744073709551615"
	v, err = ParsePermissions(big)
	if err != nil {
		t.Fatalf("ParsePermissions(%s): %v", big, err)
	}
	if FormatPermissions(v) != big {
		t.Errorf("round trip = %s, want %s", FormatPermissions(v), big)
	}
}

func TestRawEmbedPassthrough(t *testing.T) {
	doc := `{"id":"x","name":"g","channels":{"others":[{"kind":"text","name":"c","messages":[{"author_name":"a","content":"","embeds":[{"title":"hi","color":5}]}]}]}}`
	snap, err := Decode([]byte(doc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	embeds := snap.Channels.Others[0].Messages[0].Embeds
	if len(embeds) != 1 {
		t.Fatalf("expected 1 embed, got %d", len(embeds))
	}
	if string(embeds[0]) != `{"title":"hi","color":5}` {
		t.Errorf("embed bytes not preserved: %s", embeds[0])
	}
}

func TestEveryoneRole(t *testing.T) {
	snap := sampleSnapshot()
	r, ok := snap.EveryoneRole()
	if !ok || r.Name != "@everyone" {
		t.Fatalf("EveryoneRole = %+v, %v", r, ok)
	}
	if _, ok := (&Snapshot{}).EveryoneRole(); ok {
		t.Error("expected no default role in empty snapshot")
	}
}

func TestDiff(t *testing.T) {
	a := sampleSnapshot()
	b := sampleSnapshot()

	out, err := Diff(a, b)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if out != "" {
		t.Errorf("expected empty diff for identical snapshots, got:\n%s", out)
	}

	b.Name = "Renamed Guild"
	out, err = Diff(a, b)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if !strings.Contains(out, "Renamed Guild") {
		t.Errorf("diff does not mention the change:\n%s", out)
	}
}

func TestSummary(t *testing.T) {
	got := Summary(sampleSnapshot())
	want := "Test Guild, 2 roles, 1 categories, 3 channels, 1 emojis"
	if got != want {
		t.Errorf("Summary = %q, want %q", got, want)
	}
}
