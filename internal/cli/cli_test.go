package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/klauern/tasksync/internal/clock"
	"github.com/klauern/tasksync/internal/logging"
	"github.com/klauern/tasksync/internal/model"
	"github.com/klauern/tasksync/internal/snapshot"
	"github.com/klauern/tasksync/internal/sync"
)

// runApp runs the CLI with colors off and returns stdout and stderr.
func runApp(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	app := newApp()
	app.Writer = &stdout
	app.ErrWriter = &stderr

	err := app.Run(context.Background(), append([]string{"tasksync", "--no-color"}, args...))
	return stdout.String(), stderr.String(), err
}

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const fastForwardInput = `local:  {content: buy oat milk, status: pending, updatedAt: 2026-01-02T11:00:00Z}
remote: {content: buy milk, status: pending, updatedAt: 2026-01-02T10:00:00Z}
base:   {content: buy milk, status: pending, updatedAt: 2026-01-02T10:00:00Z}
`

const divergentInput = `{
  "strategy": "keep_remote",
  "local":  {"content": "call mom", "status": "pending", "updatedAt": "2026-01-02T11:00:00Z"},
  "remote": {"content": "call dad", "status": "pending", "updatedAt": "2026-01-02T10:00:00Z"},
  "base":   {"content": "call", "status": "pending", "updatedAt": "2026-01-01T10:00:00Z"}
}`

const equalClockInput = `{
  "local":  {"content": "a", "status": "pending", "platform": "laptop", "vectorClock": {"laptop": 1}},
  "remote": {"content": "b", "status": "pending", "platform": "phone", "vectorClock": {"laptop": 1}},
  "base":   {"content": "c", "status": "pending", "vectorClock": {"laptop": 1}}
}`

func decodeResult(t *testing.T, out string) sync.Result {
	t.Helper()
	var r sync.Result
	require.NoError(t, json.Unmarshal([]byte(out), &r), out)
	return r
}

func TestMergeCommand_FastForward(t *testing.T) {
	path := writeInput(t, "task.yaml", fastForwardInput)

	out, _, err := runApp(t, "merge", "--format", "json", path)
	require.NoError(t, err)

	r := decodeResult(t, out)
	assert.False(t, r.Conflict)
	assert.Equal(t, sync.StrategyThreeWay, r.Strategy)
	v, ok := r.Merged.Single()
	require.True(t, ok)
	assert.Equal(t, "buy oat milk", v.Content)
}

func TestMergeCommand_StrategyPrecedence(t *testing.T) {
	path := writeInput(t, "task.json", divergentInput)

	tests := map[string]struct {
		args        []string
		wantContent string
		wantStrat   sync.Strategy
	}{
		"strategy from input file": {
			args:        []string{"merge", "-f", "json", path},
			wantContent: "call dad",
			wantStrat:   sync.StrategyKeepRemote,
		},
		"flag overrides input file": {
			args:        []string{"merge", "-f", "json", "--strategy", "keep-local", path},
			wantContent: "call mom",
			wantStrat:   sync.StrategyKeepLocal,
		},
		"unknown strategy degrades to timestamp": {
			args:        []string{"merge", "-f", "json", "-s", "coin_flip", path},
			wantContent: "call mom",
			wantStrat:   sync.StrategyTimestamp,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			out, _, err := runApp(t, tt.args...)
			require.NoError(t, err)

			r := decodeResult(t, out)
			assert.True(t, r.Conflict)
			assert.Equal(t, sync.ConflictContentDiff, r.ConflictType)
			assert.Equal(t, tt.wantStrat, r.Strategy)
			v, ok := r.Merged.Single()
			require.True(t, ok)
			assert.Equal(t, tt.wantContent, v.Content)
		})
	}
}

func TestMergeCommand_EqualClockPolicy(t *testing.T) {
	path := writeInput(t, "task.json", equalClockInput)

	out, _, err := runApp(t, "merge", "-f", "json", path)
	require.NoError(t, err)
	assert.True(t, decodeResult(t, out).Conflict, "escalate is the default")

	out, _, err = runApp(t, "merge", "-f", "json", "--equal-clock-policy", "prefer-local", path)
	require.NoError(t, err)
	r := decodeResult(t, out)
	assert.False(t, r.Conflict)
	v, _ := r.Merged.Single()
	assert.Equal(t, "a", v.Content)

	_, _, err = runApp(t, "merge", "--equal-clock-policy", "coin_flip", path)
	assert.Error(t, err)
}

func TestMergeCommand_KeepBothYAML(t *testing.T) {
	path := writeInput(t, "task.json", divergentInput)

	out, _, err := runApp(t, "merge", "--format", "yaml", "--strategy", "keep_both", path)
	require.NoError(t, err)

	var doc struct {
		Merged   []model.TaskVersion `yaml:"merged"`
		Conflict bool                `yaml:"conflict"`
		Strategy string              `yaml:"strategy"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc), out)
	require.Len(t, doc.Merged, 2)
	assert.Equal(t, sync.LocalCopyPrefix+"call mom", doc.Merged[0].Content)
	assert.Equal(t, sync.RemoteCopyPrefix+"call dad", doc.Merged[1].Content)
	assert.Equal(t, "keep_both", doc.Strategy)
}

func TestMergeCommand_TextOutput(t *testing.T) {
	path := writeInput(t, "task.yaml", fastForwardInput)

	out, _, err := runApp(t, "--verbose", "merge", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Merge result")
	assert.Contains(t, out, "buy oat milk")
	assert.Contains(t, out, "merged cleanly")
}

func TestMergeCommand_Errors(t *testing.T) {
	good := writeInput(t, "task.yaml", fastForwardInput)

	_, _, err := runApp(t, "merge")
	assert.ErrorContains(t, err, "exactly 1 argument")

	_, _, err = runApp(t, "merge", writeInput(t, "task.xml", "<task/>"))
	assert.ErrorIs(t, err, snapshot.ErrUnsupportedFormat)

	_, _, err = runApp(t, "merge", "--format", "xml", good)
	assert.ErrorContains(t, err, "unsupported output format")

	_, _, err = runApp(t, "merge", writeInput(t, "bad.json", `{"local": {"status": "blocked"}}`))
	assert.ErrorIs(t, err, model.ErrInvalidStatus)
}

const batchInput = `strategy: status_priority
items:
  - id: report
    local:  {content: report, status: completed, updatedAt: 2026-01-02T10:00:00Z}
    remote: {content: report, status: in_progress, updatedAt: 2026-01-02T11:00:00Z}
    base:   {content: report, status: pending, updatedAt: 2026-01-01T10:00:00Z}
  - id: new
    local: {content: new task, status: pending}
  - id: dropped
    local: {content: old, status: pending}
    base:  {content: old, status: pending}
`

func TestReconcileCommand_JSON(t *testing.T) {
	path := writeInput(t, "batch.yaml", batchInput)

	out, _, err := runApp(t, "reconcile", "--format", "json", "-j", "2", path)
	require.NoError(t, err)

	var report sync.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report), out)

	require.Len(t, report.Items, 3)
	assert.Equal(t, sync.StrategyStatusPriority, report.Strategy)
	assert.Equal(t, []string{"report", "new", "dropped"},
		[]string{report.Items[0].ID, report.Items[1].ID, report.Items[2].ID})

	assert.Equal(t, sync.ConflictStatusDiff, report.Items[0].Result.ConflictType)
	v, _ := report.Items[0].Result.Merged.Single()
	assert.Equal(t, model.StatusCompleted, v.Status)

	assert.False(t, report.Items[1].Result.Conflict)
	assert.Equal(t, sync.ConflictDelete, report.Items[2].Result.ConflictType)
}

func TestReconcileCommand_Text(t *testing.T) {
	path := writeInput(t, "batch.yaml", batchInput)

	out, stderr, err := runApp(t, "reconcile", path)
	require.NoError(t, err)

	assert.Contains(t, out, "OUTCOME")
	assert.Contains(t, out, "status_diff")
	assert.Contains(t, out, "delete_conflict")
	assert.Contains(t, out, "Reconciled 3 task(s) using status_priority strategy")
	assert.NotContains(t, stderr, "Reconciling", "progress bar must stay off for non-terminals")
}

func TestReconcileCommand_DuplicateIDs(t *testing.T) {
	path := writeInput(t, "batch.json", `{"items": [{"id": "a"}, {"id": "a"}]}`)
	_, _, err := runApp(t, "reconcile", path)
	assert.ErrorContains(t, err, "duplicate id")
}

func TestClockCommand(t *testing.T) {
	tests := map[string]struct {
		args []string
		want string
	}{
		"init":                 {[]string{"clock", "init", "laptop"}, `{"laptop":0}`},
		"increment":            {[]string{"clock", "increment", "laptop", `{"laptop":1,"phone":2}`}, `{"laptop":2,"phone":2}`},
		"increment empty":      {[]string{"clock", "increment", "phone", ""}, `{"phone":1}`},
		"increment no clock":   {[]string{"clock", "increment", "phone"}, `{"phone":1}`},
		"merge":                {[]string{"clock", "merge", `{"a":1,"b":0}`, `{"b":2}`}, `{"a":1,"b":2}`},
		"compare concurrent":   {[]string{"clock", "compare", `{"a":1}`, `{"b":1}`}, "concurrent"},
		"compare before":       {[]string{"clock", "compare", `{"a":1}`, `{"a":2}`}, "before"},
		"compare zero entries": {[]string{"clock", "compare", `{"a":0}`, `{}`}, "equal"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			out, _, err := runApp(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, strings.TrimSpace(out))
		})
	}
}

func TestClockCommand_Errors(t *testing.T) {
	_, _, err := runApp(t, "clock", "compare", `{"a":1}`)
	assert.ErrorContains(t, err, "exactly 2 arguments")

	_, _, err = runApp(t, "clock", "increment")
	assert.ErrorContains(t, err, "1 or 2 arguments")

	_, _, err = runApp(t, "clock", "increment", "phone", `{}`, `{}`)
	assert.ErrorContains(t, err, "1 or 2 arguments")

	_, _, err = runApp(t, "clock", "merge", `{"a":-1}`, `{}`)
	assert.ErrorContains(t, err, "invalid clock")

	_, _, err = runApp(t, "clock", "init", "two words")
	assert.ErrorIs(t, err, model.ErrInvalidPlatform)
}

func fixedNow(t *testing.T) time.Time {
	t.Helper()
	at := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	old := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = old })
	return at
}

func TestTaskNew(t *testing.T) {
	at := fixedNow(t)

	out, _, err := runApp(t, "task", "new", "--platform", "laptop", "--content", "water plants", "--status", "doing")
	require.NoError(t, err)

	var v model.TaskVersion
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)

	_, err = uuid.Parse(v.ID)
	assert.NoError(t, err, "id should be a uuid")
	assert.Equal(t, "water plants", v.Content)
	assert.Equal(t, model.StatusInProgress, v.Status)
	assert.Equal(t, model.Platform("laptop"), v.Platform)
	assert.Equal(t, clock.VectorClock{"laptop": 1}, v.VectorClock)
	assert.True(t, at.Equal(v.UpdatedAt))
}

func TestTaskNew_PlatformFromConfig(t *testing.T) {
	out, _, err := runApp(t, "task", "new", "-c", "x")
	require.NoError(t, err)

	var v model.TaskVersion
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, model.Platform("test-host"), v.Platform)
	assert.Equal(t, model.StatusPending, v.Status)
}

func TestTaskNew_RequiresContent(t *testing.T) {
	_, _, err := runApp(t, "task", "new", "--platform", "laptop")
	assert.ErrorContains(t, err, "--content is required")
}

func TestTaskEdit(t *testing.T) {
	fixedNow(t)
	path := writeInput(t, "task.json",
		`{"id": "abc", "content": "x", "status": "pending", "platform": "phone", "vectorClock": {"phone": 3}}`)

	out, _, err := runApp(t, "task", "edit", "--platform", "laptop", "--status", "done", "--format", "yaml", path)
	require.NoError(t, err)

	var v model.TaskVersion
	require.NoError(t, yaml.Unmarshal([]byte(out), &v), out)
	assert.Equal(t, "abc", v.ID)
	assert.Equal(t, "x", v.Content)
	assert.Equal(t, model.StatusCompleted, v.Status)
	assert.Equal(t, model.Platform("laptop"), v.Platform)
	assert.Equal(t, clock.VectorClock{"phone": 3, "laptop": 1}, v.VectorClock)
}

func TestStrategiesCommand(t *testing.T) {
	out, _, err := runApp(t, "strategies")
	require.NoError(t, err)

	assert.Contains(t, out, "timestamp (default)")
	for _, s := range sync.AllStrategies() {
		assert.Contains(t, out, s.String())
		assert.Contains(t, out, s.Description())
	}
	assert.NotContains(t, out, "three_way")
}

func TestConfigCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	out, _, err := runApp(t, "--config", path, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+path)
	assert.FileExists(t, path)

	_, _, err = runApp(t, "--config", path, "config", "init")
	assert.ErrorContains(t, err, "already exists")

	_, _, err = runApp(t, "--config", path, "config", "init", "--force")
	require.NoError(t, err)

	out, _, err = runApp(t, "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "(loaded)")
	assert.Contains(t, out, "default_strategy: timestamp")
	assert.Contains(t, out, "equal_clock_policy: escalate")
}

func TestConfigShow_Defaults(t *testing.T) {
	out, _, err := runApp(t, "--config", filepath.Join(t.TempDir(), "none.yaml"), "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "not found, using defaults")
	assert.Contains(t, out, "platform: test-host")
}

func TestConfigureLogging(t *testing.T) {
	tests := map[string]struct {
		args      []string
		wantLevel slog.Level
	}{
		"no flags keeps warn level": {
			args:      []string{"version"},
			wantLevel: slog.LevelWarn,
		},
		"verbose flag enables info level": {
			args:      []string{"--verbose", "version"},
			wantLevel: slog.LevelInfo,
		},
		"debug flag enables debug level": {
			args:      []string{"--debug", "version"},
			wantLevel: slog.LevelDebug,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := runApp(t, tt.args...)
			require.NoError(t, err)

			ctx := context.Background()
			logger := logging.Default()
			assert.True(t, logger.Enabled(ctx, tt.wantLevel))
			if tt.wantLevel > slog.LevelDebug {
				assert.False(t, logger.Enabled(ctx, tt.wantLevel-4))
			}
		})
	}
}

func TestConfigureLogging_FromConfig(t *testing.T) {
	path := writeInput(t, "config.yaml", "logging:\n  level: debug\n  json: true\n")

	_, stderr, err := runApp(t, "--config", path, "version")
	require.NoError(t, err)
	assert.Contains(t, stderr, `"msg":"logging configured"`)

	bad := writeInput(t, "bad.yaml", "logging:\n  level: loud\n")
	_, _, err = runApp(t, "--config", bad, "version")
	assert.ErrorContains(t, err, "invalid logging level")
}
