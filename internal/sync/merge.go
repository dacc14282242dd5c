package sync

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/klauern/tasksync/internal/clock"
	"github.com/klauern/tasksync/internal/logging"
	"github.com/klauern/tasksync/internal/model"
)

// EqualClockPolicy decides what happens when both sides changed a task to
// different states while carrying identical vector clocks. Under correct
// clock discipline that cannot happen, so it usually points at a client
// that wrote without incrementing its clock.
type EqualClockPolicy string

const (
	// EqualClockEscalate treats the divergence as a conflict and hands it to
	// the configured strategy.
	EqualClockEscalate EqualClockPolicy = "escalate"

	// EqualClockPreferLocal keeps the local side without flagging a conflict.
	EqualClockPreferLocal EqualClockPolicy = "prefer_local"
)

// IsValid returns true if the policy is recognized.
func (p EqualClockPolicy) IsValid() bool {
	return p == EqualClockEscalate || p == EqualClockPreferLocal
}

// ParseEqualClockPolicy converts a configured name to a policy.
func ParseEqualClockPolicy(s string) (EqualClockPolicy, error) {
	p := EqualClockPolicy(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if p == "" {
		return EqualClockEscalate, nil
	}
	if !p.IsValid() {
		return "", fmt.Errorf("unknown equal clock policy %q (valid: escalate, prefer_local)", s)
	}
	return p, nil
}

// Options configures the merge engine.
type Options struct {
	// EqualClockPolicy handles divergent edits with identical clocks. The
	// default escalates them through the strategy as a conflict.
	// EqualClockPreferLocal resolves them to local with no conflict, as peers
	// that never escalate do.
	EqualClockPolicy EqualClockPolicy

	// Renderer formats manual-review conflicts. Defaults to NewConflictRenderer().
	Renderer *ConflictRenderer
}

// DefaultOptions returns the default engine options.
func DefaultOptions() Options {
	return Options{
		EqualClockPolicy: EqualClockEscalate,
		Renderer:         NewConflictRenderer(),
	}
}

// Engine performs three-way merges. It holds only configuration, so one
// Engine can serve any number of goroutines.
type Engine struct {
	opts Options
}

// NewEngine creates an engine, filling unset options with defaults.
func NewEngine(opts Options) *Engine {
	if !opts.EqualClockPolicy.IsValid() {
		opts.EqualClockPolicy = EqualClockEscalate
	}
	if opts.Renderer == nil {
		opts.Renderer = NewConflictRenderer()
	}
	return &Engine{opts: opts}
}

var defaultEngine = NewEngine(DefaultOptions())

// ThreeWayMerge merges local and remote against base using the default engine.
func ThreeWayMerge(local, remote, base *model.TaskVersion, strategy Strategy) Result {
	return defaultEngine.ThreeWayMerge(local, remote, base, strategy)
}

// ThreeWayMerge decides the merged state of one task. Any of local, remote
// and base may be nil. It never fails: every combination of inputs maps to a
// Result, and unknown strategies behave as StrategyTimestamp.
func (e *Engine) ThreeWayMerge(local, remote, base *model.TaskVersion, strategy Strategy) Result {
	logging.Debug("starting three-way merge",
		logging.Task(taskID(local, remote, base)),
		logging.Operation("three_way_merge"),
		logging.Strategy(strategy.String()),
		slog.Bool("has_local", local != nil),
		slog.Bool("has_remote", remote != nil),
		slog.Bool("has_base", base != nil),
	)

	switch {
	case local == nil && remote == nil:
		return resolvedBy(Empty())

	case remote == nil:
		return e.oneSided(local, base, "local")

	case local == nil:
		return e.oneSided(remote, base, "remote")

	default:
		return e.bothExist(local, remote, base, strategy)
	}
}

// oneSided handles a task present on only one side. Without a base the task
// is new; with a base the other side deleted it, and the modification wins
// over the delete.
func (e *Engine) oneSided(present, base *model.TaskVersion, side string) Result {
	if base == nil {
		return resolvedBy(Single(present.Clone()))
	}

	logging.Debug("delete conflict detected",
		logging.Task(taskID(present, base)),
		logging.ConflictType(ConflictDelete.String()),
		slog.String("kept", side),
	)

	return Result{
		Merged:       Single(present.Clone()),
		Conflict:     true,
		ConflictType: ConflictDelete,
		Strategy:     StrategyThreeWay,
	}
}

func (e *Engine) bothExist(local, remote, base *model.TaskVersion, strategy Strategy) Result {
	if base == nil {
		return e.independentCreate(local, remote, strategy)
	}

	localChanged := !model.SameState(local, base)
	remoteChanged := !model.SameState(remote, base)

	switch {
	case !localChanged && !remoteChanged:
		return resolvedBy(Single(local.Clone()))

	case localChanged && !remoteChanged:
		return resolvedBy(Single(local.Clone()))

	case !localChanged && remoteChanged:
		return resolvedBy(Single(remote.Clone()))

	case model.SameState(local, remote):
		// Both sides made the same edit.
		return resolvedBy(Single(local.Clone()))
	}

	if !local.HasClock() || !remote.HasClock() {
		logging.Debug("no vector clocks available, escalating",
			logging.Task(taskID(local, remote)),
		)
		return e.resolve(local, remote, strategy)
	}

	order := clock.Compare(local.VectorClock, remote.VectorClock)
	logging.Debug("compared vector clocks",
		logging.Task(taskID(local, remote)),
		logging.Ordering(order.String()),
		slog.String("local_clock", local.VectorClock.String()),
		slog.String("remote_clock", remote.VectorClock.String()),
	)

	switch order {
	case clock.Before:
		return resolvedBy(Single(remote.Clone()))

	case clock.After:
		return resolvedBy(Single(local.Clone()))

	case clock.Equal:
		if e.opts.EqualClockPolicy == EqualClockPreferLocal {
			return resolvedBy(Single(local.Clone()))
		}
		logging.Warn("divergent edits share an identical vector clock",
			logging.Task(taskID(local, remote)),
			slog.String("clock", local.VectorClock.String()),
			logging.Platform(local.Platform.String()),
			slog.String("remote_platform", remote.Platform.String()),
		)
		return e.resolve(local, remote, strategy)

	default:
		return e.resolve(local, remote, strategy)
	}
}

// independentCreate handles a task created on both sides under the same id
// with no shared history.
func (e *Engine) independentCreate(local, remote *model.TaskVersion, strategy Strategy) Result {
	if local.Content != remote.Content {
		return e.resolve(local, remote, strategy)
	}

	merged := local.Clone()
	if remote.UpdatedAt.After(merged.UpdatedAt) {
		merged.UpdatedAt = remote.UpdatedAt
	}
	merged.Metadata = model.UnionMetadata(merged.Metadata, remote.Clone().Metadata)
	merged.VectorClock = joinClocks(local, remote, merged.VectorClock)

	return resolvedBy(Single(merged))
}

// joinClocks returns the join of both clocks when both sides carry one, and
// fallback otherwise.
func joinClocks(local, remote *model.TaskVersion, fallback clock.VectorClock) clock.VectorClock {
	if local.HasClock() && remote.HasClock() {
		return clock.Merge(local.VectorClock, remote.VectorClock)
	}
	return fallback
}

// taskID returns the first non-empty id among the given versions.
func taskID(versions ...*model.TaskVersion) string {
	for _, v := range versions {
		if v != nil && v.ID != "" {
			return v.ID
		}
	}
	return ""
}
