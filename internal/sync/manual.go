package sync

import (
	"strings"
	"time"

	"github.com/klauern/tasksync/internal/model"
)

// ConflictRenderer formats both sides of a conflict, conflict-marker style,
// into the content of a manual-review task.
type ConflictRenderer struct {
	// MarkerStart opens the local block.
	MarkerStart string

	// MarkerMiddle separates the local and remote blocks.
	MarkerMiddle string

	// MarkerEnd closes the remote block.
	MarkerEnd string
}

// NewConflictRenderer creates a renderer with the default markers.
func NewConflictRenderer() *ConflictRenderer {
	return &ConflictRenderer{
		MarkerStart:  "<<<<<<< LOCAL",
		MarkerMiddle: "=======",
		MarkerEnd:    ">>>>>>> REMOTE",
	}
}

// Render returns the side-by-side rendering of local and remote. Timestamps
// are written in UTC so every client renders the same bytes.
func (r *ConflictRenderer) Render(local, remote *model.TaskVersion) string {
	var sb strings.Builder

	sb.WriteString(withPlatform(r.MarkerStart, local.Platform))
	sb.WriteByte('\n')
	writeSide(&sb, local)
	sb.WriteString(r.MarkerMiddle)
	sb.WriteByte('\n')
	writeSide(&sb, remote)
	sb.WriteString(withPlatform(r.MarkerEnd, remote.Platform))

	return sb.String()
}

func writeSide(sb *strings.Builder, v *model.TaskVersion) {
	sb.WriteString("content: ")
	sb.WriteString(v.Content)
	sb.WriteByte('\n')
	sb.WriteString("status: ")
	sb.WriteString(v.Status.String())
	sb.WriteByte('\n')
	sb.WriteString("updatedAt: ")
	sb.WriteString(v.UpdatedAt.UTC().Format(time.RFC3339Nano))
	sb.WriteByte('\n')
}

func withPlatform(marker string, p model.Platform) string {
	if p == "" {
		return marker
	}
	return marker + " (" + p.String() + ")"
}
