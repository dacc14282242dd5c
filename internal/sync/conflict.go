package sync

import "github.com/klauern/tasksync/internal/model"

// ConflictType identifies why a merge needed disambiguation.
type ConflictType string

const (
	// ConflictNone is reported when the merge was not a conflict.
	ConflictNone ConflictType = ""

	// ConflictContentDiff means both sides changed the content differently.
	ConflictContentDiff ConflictType = "content_diff"

	// ConflictStatusDiff means the content agrees but the status differs.
	ConflictStatusDiff ConflictType = "status_diff"

	// ConflictConcurrentEdit covers any other concurrent divergence,
	// such as differing active forms.
	ConflictConcurrentEdit ConflictType = "concurrent_edit"

	// ConflictDelete means one side deleted a task the other side kept.
	ConflictDelete ConflictType = "delete_conflict"
)

// String returns the conflict type name, "none" for ConflictNone.
func (c ConflictType) String() string {
	if c == ConflictNone {
		return "none"
	}
	return string(c)
}

// Description returns a human-readable description of the conflict type.
func (c ConflictType) Description() string {
	switch c {
	case ConflictNone:
		return "no conflict"
	case ConflictContentDiff:
		return "content differs"
	case ConflictStatusDiff:
		return "status differs"
	case ConflictConcurrentEdit:
		return "concurrent edits"
	case ConflictDelete:
		return "deleted on one side, kept on the other"
	default:
		return "unknown conflict"
	}
}

// classifyConflict names the first difference found between two versions
// that are both present.
func classifyConflict(local, remote *model.TaskVersion) ConflictType {
	switch {
	case local.Content != remote.Content:
		return ConflictContentDiff
	case local.Status != remote.Status:
		return ConflictStatusDiff
	default:
		return ConflictConcurrentEdit
	}
}
