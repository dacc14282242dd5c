package sync

import (
	"github.com/klauern/tasksync/internal/logging"
	"github.com/klauern/tasksync/internal/model"
)

// Metadata keys written by conflict strategies.
const (
	// MetadataRequiresResolution marks a manual-review version.
	MetadataRequiresResolution = "requiresResolution"
	// MetadataConflictType records the conflict type on a manual-review version.
	MetadataConflictType = "conflictType"
	// MetadataConflictCopy records which side a keep_both copy came from.
	MetadataConflictCopy = "conflictCopy"
)

// Prefixes added to the content of keep_both copies.
const (
	LocalCopyPrefix  = "[local] "
	RemoteCopyPrefix = "[remote] "
)

// resolve runs the conflict strategy for two present, divergent versions.
// Every path reports a conflict.
func (e *Engine) resolve(local, remote *model.TaskVersion, strategy Strategy) Result {
	conflictType := classifyConflict(local, remote)

	var (
		merged Merged
		taken  Strategy
	)

	switch strategy.effective() {
	case StrategyStatusPriority:
		merged, taken = resolveStatusPriority(local, remote)
	case StrategyKeepLocal:
		merged, taken = Single(resolvedCopy(local, local, remote)), StrategyKeepLocal
	case StrategyKeepRemote:
		merged, taken = Single(resolvedCopy(remote, local, remote)), StrategyKeepRemote
	case StrategyKeepBoth:
		merged, taken = resolveKeepBoth(local, remote), StrategyKeepBoth
	case StrategyManual:
		merged, taken = Single(e.resolveManual(local, remote, conflictType)), StrategyManual
	default:
		merged, taken = resolveTimestamp(local, remote)
	}

	logging.Debug("conflict resolved",
		logging.Task(taskID(local, remote)),
		logging.ConflictType(conflictType.String()),
		logging.Strategy(taken.String()),
	)

	return Result{
		Merged:       merged,
		Conflict:     true,
		ConflictType: conflictType,
		Strategy:     taken,
	}
}

// resolveTimestamp keeps the side with the later updatedAt; local wins ties.
func resolveTimestamp(local, remote *model.TaskVersion) (Merged, Strategy) {
	winner := local
	if remote.UpdatedAt.After(local.UpdatedAt) {
		winner = remote
	}
	return Single(resolvedCopy(winner, local, remote)), StrategyTimestamp
}

// resolveStatusPriority keeps the side whose status is further along and
// falls back to timestamps when both rank the same.
func resolveStatusPriority(local, remote *model.TaskVersion) (Merged, Strategy) {
	lp, rp := local.Status.Priority(), remote.Status.Priority()
	switch {
	case lp > rp:
		return Single(resolvedCopy(local, local, remote)), StrategyStatusPriority
	case rp > lp:
		return Single(resolvedCopy(remote, local, remote)), StrategyStatusPriority
	default:
		return resolveTimestamp(local, remote)
	}
}

// resolveKeepBoth returns a tagged copy of each side.
func resolveKeepBoth(local, remote *model.TaskVersion) Merged {
	l := resolvedCopy(local, local, remote)
	l.Content = LocalCopyPrefix + l.Content
	l.Metadata = model.UnionMetadata(l.Metadata, map[string]any{MetadataConflictCopy: "local"})

	r := resolvedCopy(remote, local, remote)
	r.Content = RemoteCopyPrefix + r.Content
	r.Metadata = model.UnionMetadata(r.Metadata, map[string]any{MetadataConflictCopy: "remote"})

	return Pair(l, r)
}

// resolveManual builds a single pending version that shows both sides.
func (e *Engine) resolveManual(local, remote *model.TaskVersion, conflictType ConflictType) *model.TaskVersion {
	v := resolvedCopy(local, local, remote)
	v.Content = e.opts.Renderer.Render(local, remote)
	v.Status = model.StatusPending
	if remote.UpdatedAt.After(v.UpdatedAt) {
		v.UpdatedAt = remote.UpdatedAt
	}
	v.Metadata = model.UnionMetadata(v.Metadata, map[string]any{
		MetadataRequiresResolution: true,
		MetadataConflictType:       string(conflictType),
	})
	return v
}

// resolvedCopy clones the chosen side and gives it the join of both clocks so
// the next merge sees it as descending from both inputs.
func resolvedCopy(chosen, local, remote *model.TaskVersion) *model.TaskVersion {
	v := chosen.Clone()
	v.VectorClock = joinClocks(local, remote, v.VectorClock)
	return v
}
