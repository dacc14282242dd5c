// Package ui provides terminal output helpers for tasksync.
package ui

import (
	"github.com/fatih/color"

	"github.com/klauern/tasksync/internal/model"
	"github.com/klauern/tasksync/internal/sync"
)

// Color function types for styled output.
var (
	// Success is used for clean merges and completed tasks (green).
	Success = color.New(color.FgGreen).SprintFunc()
	// Error is used for errors and failures (red).
	Error = color.New(color.FgRed).SprintFunc()
	// Warning is used for resolved conflicts (yellow).
	Warning = color.New(color.FgYellow).SprintFunc()
	// Info is used for informational messages (cyan).
	Info = color.New(color.FgCyan).SprintFunc()
	// Bold is used for emphasis (bold white).
	Bold = color.New(color.Bold).SprintFunc()
	// Dim is used for secondary information (faint).
	Dim = color.New(color.Faint).SprintFunc()
	// Header is used for table headers (bold cyan).
	Header = color.New(color.FgCyan, color.Bold).SprintFunc()
)

// Status symbols with colors.
const (
	SymbolSuccess    = "✓"
	SymbolError      = "✗"
	SymbolWarning    = "⚠"
	SymbolSkipped    = "-"
	SymbolPending    = "○"
	SymbolInProgress = "◐"
)

// StatusSuccess returns a green checkmark with optional message.
func StatusSuccess(msg string) string {
	return withSymbol(Success(SymbolSuccess), msg)
}

// StatusError returns a red X with optional message.
func StatusError(msg string) string {
	return withSymbol(Error(SymbolError), msg)
}

// StatusWarning returns a yellow warning with optional message.
func StatusWarning(msg string) string {
	return withSymbol(Warning(SymbolWarning), msg)
}

// StatusSkipped returns a dimmed skip symbol with optional message.
func StatusSkipped(msg string) string {
	return withSymbol(Dim(SymbolSkipped), msg)
}

func withSymbol(symbol, msg string) string {
	if msg == "" {
		return symbol
	}
	return symbol + " " + msg
}

// TaskStatus renders a task status with its symbol.
func TaskStatus(s model.Status) string {
	switch s {
	case model.StatusCompleted:
		return Success(SymbolSuccess) + " " + string(s)
	case model.StatusInProgress:
		return Info(SymbolInProgress) + " " + string(s)
	case model.StatusPending:
		return Dim(SymbolPending) + " " + string(s)
	default:
		return Error(SymbolError) + " " + string(s)
	}
}

// Conflict renders the outcome of a merge: a green check for a clean merge,
// a red cross for anything that needs manual resolution, and a yellow warning
// for conflicts a strategy resolved.
func Conflict(r sync.Result) string {
	switch {
	case !r.Conflict:
		return StatusSuccess("clean")
	case r.NeedsReview():
		return StatusError(r.ConflictType.String())
	default:
		return StatusWarning(r.ConflictType.String())
	}
}

// DisableColors disables all color output.
// This is useful for piping output or for users who prefer no colors.
func DisableColors() {
	color.NoColor = true
}

// EnableColors enables color output.
func EnableColors() {
	color.NoColor = false
}

// IsColorEnabled returns whether colors are currently enabled.
func IsColorEnabled() bool {
	return !color.NoColor
}
