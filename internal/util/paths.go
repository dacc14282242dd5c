// Package util holds small filesystem helpers shared across tasksync.
package util

import (
	"os"
	"path/filepath"
	"strings"
)

// HomeDir returns the user's home directory
func HomeDir() string {
	home, _ := os.UserHomeDir()
	return home
}

// TasksyncConfigPath returns the tasksync configuration directory.
// TASKSYNC_HOME overrides the default of ~/.tasksync.
func TasksyncConfigPath() string {
	if dir := os.Getenv("TASKSYNC_HOME"); dir != "" {
		return dir
	}
	return filepath.Join(HomeDir(), ".tasksync")
}

// ExpandPath expands a leading ~ to the home directory.
func ExpandPath(path string) string {
	if path == "~" {
		return HomeDir()
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(HomeDir(), path[2:])
	}
	return path
}
