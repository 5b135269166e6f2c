// Package restore tears down a guild's state and recreates it from a
// snapshot in dependency order: roles before channels, categories before
// their children. Item-level failures are collected and skipped; a stage
// whose retry budget runs out fails the whole restore with one aggregate
// error.
package restore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/guildsnap/guildsnap/internal/clamp"
	"github.com/guildsnap/guildsnap/internal/domain"
	"github.com/guildsnap/guildsnap/internal/guild"
	"github.com/guildsnap/guildsnap/internal/report"
	"github.com/guildsnap/guildsnap/internal/retry"
	"github.com/guildsnap/guildsnap/internal/snapshot"
	"github.com/guildsnap/guildsnap/internal/store"
)

// ErrRestoreFailed is the only error surfaced to callers when a stage
// exhausts its retry budget. The underlying causes are logged, not returned,
// so remote-service detail never leaks into user-facing output.
var ErrRestoreFailed = errors.New("restore failed: one or more stages did not complete")

// Orchestrator runs restores. The zero value is not usable; populate Store
// and (for URL-only image references) Fetcher.
type Orchestrator struct {
	Store   store.Store
	Fetcher guild.ImageFetcher
	Logger  *slog.Logger
	// Skip filters channels out of recreation by name prefix.
	Skip clamp.SkipConfig
	// Attempts overrides the per-stage retry budget; 0 means the default.
	Attempts int
}

func (o *Orchestrator) log() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o *Orchestrator) attempts() int {
	if o.Attempts > 0 {
		return o.Attempts
	}
	return retry.DefaultAttempts
}

// Restore applies a snapshot to h. snapOrID is either a *snapshot.Snapshot
// or a stored snapshot id. It returns the snapshot actually applied, or an
// aggregate error; it never partially resolves.
func (o *Orchestrator) Restore(ctx context.Context, h guild.Handle, snapOrID any, opts domain.RestoreOptions) (*snapshot.Snapshot, error) {
	if h == nil {
		return nil, &domain.InvalidTargetError{}
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	snap, err := o.resolve(snapOrID)
	if err != nil {
		return nil, err
	}

	log := o.log().With(
		"run_id", uuid.New().String(),
		"guild_id", h.ID(),
		"snapshot_id", snap.ID,
	)
	summary := &report.Summary{}

	if opts.ClearBeforeRestore {
		log.Info("clearing existing guild state")
		err := retry.Do(ctx, "clear", o.attempts(), func() error {
			return o.clear(ctx, h, summary)
		})
		if err != nil {
			log.Error("clearing stage failed", "error", err)
			summary.Log(log)
			return nil, ErrRestoreFailed
		}
	}

	log.Info("restoring", "contents", snapshot.Summary(snap))

	// The stages share only the read-only snapshot; each settles on its own.
	// A plain group (no shared cancellation) lets every stage finish before
	// the aggregate result is decided.
	var g errgroup.Group
	stage := func(name string, retried bool, fn func() error) func() error {
		return func() error {
			var err error
			if retried {
				err = retry.Do(ctx, name, o.attempts(), fn)
			} else {
				err = fn()
			}
			if err != nil {
				log.Error("stage failed", "stage", name, "error", err)
				return fmt.Errorf("stage %s: %w", name, err)
			}
			return nil
		}
	}

	// Channels resolves overwrites against the roles the roles stage
	// creates, so it may not start until that stage settles, retries
	// included. The other four stages are independent.
	rolesDone := make(chan struct{})
	g.Go(stage("config", false, func() error { return o.restoreConfig(ctx, h, snap, log) }))
	g.Go(func() error {
		defer close(rolesDone)
		return stage("roles", true, func() error { return o.restoreRoles(ctx, h, snap, summary) })()
	})
	g.Go(func() error {
		<-rolesDone
		return stage("channels", true, func() error { return o.restoreChannels(ctx, h, snap, summary) })()
	})
	g.Go(stage("afk", false, func() error { return o.restoreAFK(ctx, h, snap, log) }))
	g.Go(stage("emojis", true, func() error { return o.restoreEmojis(ctx, h, snap, summary) }))
	g.Go(stage("widget", false, func() error { return o.restoreWidget(ctx, h, snap, log) }))

	if err := g.Wait(); err != nil {
		summary.Log(log)
		return nil, ErrRestoreFailed
	}

	summary.Log(log)
	log.Info("restore complete")
	return snap, nil
}

// resolve turns a snapshot reference into the snapshot itself.
func (o *Orchestrator) resolve(snapOrID any) (*snapshot.Snapshot, error) {
	switch v := snapOrID.(type) {
	case *snapshot.Snapshot:
		if v == nil {
			return nil, &domain.SnapshotNotFoundError{}
		}
		return v, nil
	case string:
		if o.Store == nil {
			return nil, fmt.Errorf("cannot resolve snapshot id %q: no store configured", v)
		}
		data, err := o.Store.Get(v)
		if err != nil {
			return nil, err
		}
		snap, err := snapshot.Decode(data)
		if err != nil {
			var corrupt *domain.SnapshotCorruptError
			if errors.As(err, &corrupt) && corrupt.ID == "" {
				corrupt.ID = v
			}
			return nil, err
		}
		return snap, nil
	default:
		return nil, fmt.Errorf("unsupported snapshot reference type %T", snapOrID)
	}
}
