// Package clamp holds the pure value-safety rules applied before anything is
// sent to the remote service: bitrate and limit ranges, channel type
// downgrades, and overwrite resolution. No I/O happens here.
package clamp

import (
	"strings"

	"github.com/guildsnap/guildsnap/internal/guild"
	"github.com/guildsnap/guildsnap/internal/snapshot"
)

// MinBitrate is the lowest voice bitrate the remote service accepts.
const MinBitrate = 8000

// tierCeilings maps a guild's premium tier to its maximum voice bitrate.
var tierCeilings = map[int]int{
	0: 64000,
	1: 128000,
	2: 256000,
	3: 384000,
}

// Bitrate clamps a requested voice bitrate into [MinBitrate, tier ceiling].
// Unknown tiers get the baseline ceiling.
func Bitrate(requested, tier int) int {
	ceiling, ok := tierCeilings[tier]
	if !ok {
		ceiling = tierCeilings[0]
	}
	if requested > ceiling {
		requested = ceiling
	}
	if requested < MinBitrate {
		requested = MinBitrate
	}
	return requested
}

// UserLimit accepts a voice user limit in [0, 99]. Out-of-range values are
// omitted so the remote default applies.
func UserLimit(requested int) (int, bool) {
	if requested < 0 || requested > 99 {
		return 0, false
	}
	return requested, true
}

// RateLimit accepts a slow-mode value >= 0 seconds; anything else is omitted.
func RateLimit(requested int) (int, bool) {
	if requested < 0 {
		return 0, false
	}
	return requested, true
}

// ChannelKind maps a snapshot channel kind to the kind actually created.
// Text-like descriptors always come back as plain text, never as an
// announcement-style type.
func ChannelKind(kind string) string {
	if kind == snapshot.KindVoice {
		return guild.KindVoice
	}
	return guild.KindText
}

// ResolveOverwrites maps name-keyed snapshot overwrites onto live role IDs.
// Entries whose role name does not resolve are dropped, not failed.
func ResolveOverwrites(list []snapshot.Overwrite, roleIDByName map[string]string) []guild.OverwriteParams {
	var out []guild.OverwriteParams
	for _, o := range list {
		id, ok := roleIDByName[o.RoleName]
		if !ok {
			continue
		}
		allow, err := snapshot.ParsePermissions(o.Allow)
		if err != nil {
			continue
		}
		deny, err := snapshot.ParsePermissions(o.Deny)
		if err != nil {
			continue
		}
		out = append(out, guild.OverwriteParams{RoleID: id, Allow: allow, Deny: deny})
	}
	return out
}

// SkipConfig enables name-based channel exclusion, used to keep
// convention-named channels (support tickets and the like) out of snapshots
// and restores.
type SkipConfig struct {
	Enabled  bool
	Prefixes []string
	Names    []string
}

// ShouldSkipChannel reports whether a channel name matches a configured
// ignore prefix or exact name.
func ShouldSkipChannel(name string, cfg SkipConfig) bool {
	if !cfg.Enabled {
		return false
	}
	for _, p := range cfg.Prefixes {
		if p != "" && strings.HasPrefix(name, p) {
			return true
		}
	}
	for _, n := range cfg.Names {
		if n != "" && n == name {
			return true
		}
	}
	return false
}
