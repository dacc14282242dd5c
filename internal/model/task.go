package model

import (
	"fmt"
	"maps"
	"time"

	"github.com/klauern/tasksync/internal/clock"
)

// TaskVersion is one platform's view of a task at a point in time.
// A nil *TaskVersion means the task does not exist on that side.
type TaskVersion struct {
	ID          string            `json:"id,omitempty" yaml:"id,omitempty" toml:"id,omitempty"`
	Content     string            `json:"content" yaml:"content" toml:"content"`
	Status      Status            `json:"status" yaml:"status" toml:"status"`
	ActiveForm  string            `json:"activeForm" yaml:"activeForm" toml:"activeForm"`
	UpdatedAt   time.Time         `json:"updatedAt" yaml:"updatedAt" toml:"updatedAt"`
	Platform    Platform          `json:"platform,omitempty" yaml:"platform,omitempty" toml:"platform,omitempty"`
	VectorClock clock.VectorClock `json:"vectorClock,omitempty" yaml:"vectorClock,omitempty" toml:"vectorClock,omitempty"`
	Metadata    map[string]any    `json:"metadata,omitempty" yaml:"metadata,omitempty" toml:"metadata,omitempty"`
}

// SameState reports whether a and b agree on content, status and active form.
// Timestamps, platform, clocks and metadata are not part of the comparison.
func SameState(a, b *TaskVersion) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Content == b.Content &&
		a.Status == b.Status &&
		a.ActiveForm == b.ActiveForm
}

// HasClock reports whether the version carries a vector clock.
func (t *TaskVersion) HasClock() bool {
	return t != nil && t.VectorClock != nil
}

// Clone returns a deep copy of t. Cloning nil returns nil.
func (t *TaskVersion) Clone() *TaskVersion {
	if t == nil {
		return nil
	}
	out := *t
	if t.VectorClock != nil {
		out.VectorClock = t.VectorClock.Clone()
	}
	if t.Metadata != nil {
		out.Metadata = cloneMetadata(t.Metadata)
	}
	return &out
}

// Validate checks the shape of a version before it is handed to the merge
// engine. The engine itself assumes well-formed input.
func (t *TaskVersion) Validate() error {
	if t == nil {
		return nil
	}
	if !t.Status.IsValid() {
		return fmt.Errorf("%w %q", ErrInvalidStatus, t.Status)
	}
	if t.Platform != "" && !t.Platform.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPlatform, t.Platform)
	}
	return nil
}

// UnionMetadata returns the shallow union of a and b; b wins on collisions.
// The result is nil when both inputs are empty.
func UnionMetadata(a, b map[string]any) map[string]any {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make(map[string]any, len(a)+len(b))
	maps.Copy(out, a)
	maps.Copy(out, b)
	return out
}

// cloneMetadata copies nested maps and slices so results never alias inputs.
func cloneMetadata(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMetadata(val)
	case []any:
		cp := make([]any, len(val))
		for i, item := range val {
			cp[i] = cloneValue(item)
		}
		return cp
	default:
		return val
	}
}
