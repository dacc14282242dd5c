package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidStatus is returned when a status string is not recognized.
var ErrInvalidStatus = errors.New("invalid status")

// Status is the lifecycle state of a task.
type Status string

const (
	// StatusPending is a task that has not been started.
	StatusPending Status = "pending"

	// StatusInProgress is a task being worked on.
	StatusInProgress Status = "in_progress"

	// StatusCompleted is a finished task.
	StatusCompleted Status = "completed"
)

// IsValid returns true if the status is recognized.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

// AllStatuses returns all task statuses in lifecycle order.
func AllStatuses() []Status {
	return []Status{StatusPending, StatusInProgress, StatusCompleted}
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// Priority ranks statuses for conflict resolution:
// completed(3) > in_progress(2) > pending(1). Unknown statuses rank 0.
func (s Status) Priority() int {
	switch s {
	case StatusCompleted:
		return 3
	case StatusInProgress:
		return 2
	case StatusPending:
		return 1
	default:
		return 0
	}
}

// ParseStatus converts a string to a Status.
// Returns StatusPending if the string is empty.
func ParseStatus(s string) (Status, error) {
	if s == "" {
		return StatusPending, nil
	}

	normalized := strings.ToLower(strings.TrimSpace(s))

	st := Status(normalized)
	if st.IsValid() {
		return st, nil
	}

	switch normalized {
	case "in-progress", "inprogress", "active", "doing":
		return StatusInProgress, nil
	case "done", "complete":
		return StatusCompleted, nil
	case "todo":
		return StatusPending, nil
	default:
		return "", fmt.Errorf("%w %q (valid: pending, in_progress, completed)", ErrInvalidStatus, s)
	}
}
