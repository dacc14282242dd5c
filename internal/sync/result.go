package sync

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/klauern/tasksync/internal/model"
)

// MergedKind tells which shape a Merged value holds.
type MergedKind int

const (
	// MergedEmpty means the task exists on neither side.
	MergedEmpty MergedKind = iota
	// MergedSingle holds one version.
	MergedSingle
	// MergedPair holds a local and a remote copy (keep_both).
	MergedPair
)

// String returns the lower-case name of the kind.
func (k MergedKind) String() string {
	switch k {
	case MergedEmpty:
		return "empty"
	case MergedSingle:
		return "single"
	case MergedPair:
		return "pair"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Merged is the outcome of a merge: nothing, a single version, or a pair.
// The zero value is empty.
type Merged struct {
	kind   MergedKind
	first  *model.TaskVersion
	second *model.TaskVersion
}

// Empty returns a Merged holding nothing.
func Empty() Merged {
	return Merged{kind: MergedEmpty}
}

// Single returns a Merged holding v. A nil v yields Empty.
func Single(v *model.TaskVersion) Merged {
	if v == nil {
		return Empty()
	}
	return Merged{kind: MergedSingle, first: v}
}

// Pair returns a Merged holding a local and a remote copy.
func Pair(local, remote *model.TaskVersion) Merged {
	return Merged{kind: MergedPair, first: local, second: remote}
}

// Kind reports the shape of m.
func (m Merged) Kind() MergedKind {
	return m.kind
}

// IsEmpty reports whether m holds nothing.
func (m Merged) IsEmpty() bool {
	return m.kind == MergedEmpty
}

// Single returns the version held by a single-shaped Merged.
func (m Merged) Single() (*model.TaskVersion, bool) {
	if m.kind != MergedSingle {
		return nil, false
	}
	return m.first, true
}

// Pair returns the two versions held by a pair-shaped Merged.
func (m Merged) Pair() (local, remote *model.TaskVersion, ok bool) {
	if m.kind != MergedPair {
		return nil, nil, false
	}
	return m.first, m.second, true
}

// Versions returns the held versions in order: none, one, or local then remote.
func (m Merged) Versions() []*model.TaskVersion {
	switch m.kind {
	case MergedSingle:
		return []*model.TaskVersion{m.first}
	case MergedPair:
		return []*model.TaskVersion{m.first, m.second}
	default:
		return nil
	}
}

// MarshalJSON encodes m as null, a version object, or a two-element array.
func (m Merged) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.wireValue())
}

// UnmarshalJSON decodes the form written by MarshalJSON.
func (m *Merged) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		*m = Empty()
		return nil
	}
	if raw[0] == '[' {
		var pair []*model.TaskVersion
		if err := json.Unmarshal(raw, &pair); err != nil {
			return err
		}
		if len(pair) != 2 {
			return fmt.Errorf("merged pair must hold 2 versions, got %d", len(pair))
		}
		if pair[0] == nil || pair[1] == nil {
			return errors.New("merged pair must not hold null versions")
		}
		*m = Pair(pair[0], pair[1])
		return nil
	}
	var v model.TaskVersion
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	*m = Single(&v)
	return nil
}

// MarshalYAML encodes m the same way as MarshalJSON.
func (m Merged) MarshalYAML() (any, error) {
	return m.wireValue(), nil
}

func (m Merged) wireValue() any {
	switch m.kind {
	case MergedSingle:
		return m.first
	case MergedPair:
		return []*model.TaskVersion{m.first, m.second}
	default:
		return nil
	}
}

// Result is the outcome of a three-way merge.
type Result struct {
	// Merged is the version (or versions) to persist.
	Merged Merged `json:"merged" yaml:"merged"`

	// Conflict is true when the outcome was not implied by one side being
	// unchanged or causally dominant.
	Conflict bool `json:"conflict" yaml:"conflict"`

	// ConflictType is set only when Conflict is true.
	ConflictType ConflictType `json:"conflictType,omitempty" yaml:"conflictType,omitempty"`

	// Strategy is the resolution path actually taken.
	Strategy Strategy `json:"strategy" yaml:"strategy"`
}

// NeedsReview reports whether a human has to look at the result.
func (r Result) NeedsReview() bool {
	v, ok := r.Merged.Single()
	if !ok || v.Metadata == nil {
		return false
	}
	flag, _ := v.Metadata[MetadataRequiresResolution].(bool)
	return flag
}

// Summary returns a one-line description of the result.
func (r Result) Summary() string {
	if !r.Conflict {
		return fmt.Sprintf("merged cleanly (%s, %s)", r.Strategy, r.Merged.Kind())
	}
	return fmt.Sprintf("conflict: %s, resolved by %s (%s)",
		r.ConflictType.Description(), r.Strategy, r.Merged.Kind())
}

// resolvedBy returns a non-conflict result taken by the three-way path.
func resolvedBy(m Merged) Result {
	return Result{Merged: m, Strategy: StrategyThreeWay}
}
