package sync

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	gosync "sync"

	"golang.org/x/sync/errgroup"

	"github.com/klauern/tasksync/internal/logging"
	"github.com/klauern/tasksync/internal/model"
)

// Item holds the three versions of one task fed to a batch reconcile.
type Item struct {
	ID     string             `json:"id" yaml:"id" toml:"id"`
	Local  *model.TaskVersion `json:"local,omitempty" yaml:"local,omitempty" toml:"local,omitempty"`
	Remote *model.TaskVersion `json:"remote,omitempty" yaml:"remote,omitempty" toml:"remote,omitempty"`
	Base   *model.TaskVersion `json:"base,omitempty" yaml:"base,omitempty" toml:"base,omitempty"`
}

// ItemResult pairs a task id with its merge result.
type ItemResult struct {
	ID     string `json:"id" yaml:"id"`
	Result Result `json:"result" yaml:"result"`
}

// ProgressFunc is called after each item is merged with the number of items
// finished so far. Calls are serialized.
type ProgressFunc func(done, total int)

// ReconcileOptions configures a batch reconcile.
type ReconcileOptions struct {
	// Strategy resolves conflicts for every item.
	Strategy Strategy

	// Concurrency bounds the number of items merged at once.
	// Defaults to GOMAXPROCS.
	Concurrency int

	// Progress is notified as items finish. Optional.
	Progress ProgressFunc
}

// ReconcileAll merges every item independently and returns the results in
// input order. Items do not share state, so they are merged concurrently;
// the caller must not pass two items for the same task with overlapping
// bases. Only context cancellation produces an error.
func (e *Engine) ReconcileAll(ctx context.Context, items []Item, opts ReconcileOptions) (*Report, error) {
	defer logging.Timer("reconcile")()

	logging.Debug("starting reconcile",
		logging.Operation("reconcile"),
		logging.Strategy(opts.Strategy.String()),
		logging.Count(len(items)),
	)

	limit := opts.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	report := &Report{
		Strategy: opts.Strategy.effective(),
		Items:    make([]ItemResult, len(items)),
	}

	var (
		mu   gosync.Mutex
		done int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, item := range items {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			id := item.ID
			if id == "" {
				id = taskID(item.Local, item.Remote, item.Base)
			}
			report.Items[i] = ItemResult{
				ID:     id,
				Result: e.ThreeWayMerge(item.Local, item.Remote, item.Base, opts.Strategy),
			}

			if opts.Progress != nil {
				mu.Lock()
				done++
				opts.Progress(done, len(items))
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("reconcile cancelled: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("reconcile cancelled: %w", err)
	}

	logging.Debug("reconcile completed",
		logging.Operation("reconcile"),
		logging.Count(len(report.Items)),
		"conflicts", len(report.Conflicts()),
	)

	return report, nil
}

// Report summarizes a batch reconcile.
type Report struct {
	// Strategy is the conflict strategy that was in effect.
	Strategy Strategy `json:"strategy" yaml:"strategy"`

	// Items holds one result per input item, in input order.
	Items []ItemResult `json:"items" yaml:"items"`
}

// Conflicts returns the items whose merge was a conflict.
func (r *Report) Conflicts() []ItemResult {
	var out []ItemResult
	for _, ir := range r.Items {
		if ir.Result.Conflict {
			out = append(out, ir)
		}
	}
	return out
}

// Clean returns the items that merged without conflict.
func (r *Report) Clean() []ItemResult {
	var out []ItemResult
	for _, ir := range r.Items {
		if !ir.Result.Conflict {
			out = append(out, ir)
		}
	}
	return out
}

// CountByConflictType counts conflicting items per conflict type.
func (r *Report) CountByConflictType() map[ConflictType]int {
	counts := make(map[ConflictType]int)
	for _, ir := range r.Conflicts() {
		counts[ir.Result.ConflictType]++
	}
	return counts
}

// NeedsReview returns the items routed to manual review.
func (r *Report) NeedsReview() []ItemResult {
	var out []ItemResult
	for _, ir := range r.Items {
		if ir.Result.NeedsReview() {
			out = append(out, ir)
		}
	}
	return out
}

// HasConflicts returns true if any item conflicted.
func (r *Report) HasConflicts() bool {
	return len(r.Conflicts()) > 0
}

// Summary returns a human-readable summary of the reconcile.
func (r *Report) Summary() string {
	var sb strings.Builder

	counts := r.CountByConflictType()

	sb.WriteString(fmt.Sprintf("Reconciled %d task(s) using %s strategy\n", len(r.Items), r.Strategy))
	sb.WriteString(fmt.Sprintf("  Clean:           %d\n", len(r.Clean())))
	sb.WriteString(fmt.Sprintf("  Conflicts:       %d\n", len(r.Conflicts())))
	sb.WriteString(fmt.Sprintf("    content_diff:    %d\n", counts[ConflictContentDiff]))
	sb.WriteString(fmt.Sprintf("    status_diff:     %d\n", counts[ConflictStatusDiff]))
	sb.WriteString(fmt.Sprintf("    concurrent_edit: %d\n", counts[ConflictConcurrentEdit]))
	sb.WriteString(fmt.Sprintf("    delete_conflict: %d\n", counts[ConflictDelete]))
	sb.WriteString(fmt.Sprintf("  Needs review:    %d\n", len(r.NeedsReview())))

	if review := r.NeedsReview(); len(review) > 0 {
		sb.WriteString("\nTasks requiring manual resolution:\n")
		for _, ir := range review {
			sb.WriteString(fmt.Sprintf("  - %s: %s\n", ir.ID, ir.Result.ConflictType.Description()))
		}
	}

	return sb.String()
}
