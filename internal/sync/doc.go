// Package sync implements the three-way merge that reconciles task versions
// edited independently on different platforms.
//
// # Merging
//
// ThreeWayMerge takes the local version, the remote version and their common
// ancestor (any of which may be nil) and returns a Result describing the
// merged task and whether the merge needed disambiguation:
//
//	res := sync.ThreeWayMerge(local, remote, base, sync.StrategyTimestamp)
//	if res.Conflict {
//	    fmt.Printf("%s resolved by %s\n", res.ConflictType, res.Strategy)
//	}
//
// The merge is a pure function of its inputs. Identical inputs always give
// an identical Result, and the returned versions never alias the inputs, so
// every client that replays the same history converges on the same state.
//
// # Decision order
//
//  1. Both sides missing: nothing to merge.
//  2. One side missing: a create (no base) is accepted, a delete that races
//     with a modification keeps the modification and reports a delete
//     conflict.
//  3. No base: identical content converges, anything else is a conflict.
//  4. Base present: unchanged sides fast-forward, identical edits converge,
//     and vector clocks decide the rest. Concurrent clocks, or missing
//     clocks, fall through to the configured conflict strategy.
//
// # Conflict strategies
//
// Available strategies:
//   - StrategyTimestamp: newest updatedAt wins, local on a tie
//   - StrategyStatusPriority: completed > in_progress > pending, then timestamp
//   - StrategyKeepLocal / StrategyKeepRemote: fixed winner
//   - StrategyKeepBoth: returns a pair of tagged copies
//   - StrategyManual: returns a conflict-marker version routed to a human
//
// Unknown strategy names degrade to StrategyTimestamp rather than failing.
package sync
