package e2e

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauern/tasksync/internal/model"
)

// Fixture provides helpers for creating test fixtures in E2E tests.
type Fixture struct {
	t       *testing.T
	baseDir string
}

// NewFixture creates a new fixture helper rooted at the given directory.
func NewFixture(t *testing.T, baseDir string) *Fixture {
	t.Helper()
	return &Fixture{
		t:       t,
		baseDir: baseDir,
	}
}

// WriteFile writes content to a file relative to the fixture base directory.
// It creates parent directories as needed.
func (f *Fixture) WriteFile(relPath, content string) string {
	f.t.Helper()
	fullPath := f.Path(relPath)

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		f.t.Fatalf("failed to create directory %s: %v", dir, err)
	}

	if err := os.WriteFile(fullPath, []byte(content), 0o600); err != nil {
		f.t.Fatalf("failed to write file %s: %v", fullPath, err)
	}

	return fullPath
}

// WriteJSON encodes v as JSON into relPath.
func (f *Fixture) WriteJSON(relPath string, v any) string {
	f.t.Helper()
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		f.t.Fatalf("failed to encode %s: %v", relPath, err)
	}
	return f.WriteFile(relPath, string(data))
}

// ParseTask decodes the JSON task a command printed.
func (f *Fixture) ParseTask(out string) *model.TaskVersion {
	f.t.Helper()
	var v model.TaskVersion
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		f.t.Fatalf("failed to decode task: %v\n%s", err, out)
	}
	return &v
}

// MergeInput is the document the merge command reads.
type MergeInput struct {
	Strategy string             `json:"strategy,omitempty"`
	Local    *model.TaskVersion `json:"local,omitempty"`
	Remote   *model.TaskVersion `json:"remote,omitempty"`
	Base     *model.TaskVersion `json:"base,omitempty"`
}

// JSON returns the input encoded for stdin.
func (m MergeInput) JSON(t *testing.T) string {
	t.Helper()
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("failed to encode merge input: %v", err)
	}
	return string(data)
}

// Path returns the full path for a relative path.
func (f *Fixture) Path(relPath string) string {
	return filepath.Join(f.baseDir, relPath)
}
