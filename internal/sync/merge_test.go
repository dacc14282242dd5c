package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klauern/tasksync/internal/clock"
	"github.com/klauern/tasksync/internal/model"
)

// task builds a version with the given content, status and unix timestamp.
func task(content string, status model.Status, updatedAt int64) *model.TaskVersion {
	return &model.TaskVersion{
		ID:         "t-1",
		Content:    content,
		Status:     status,
		ActiveForm: "Working on " + content,
		UpdatedAt:  time.Unix(updatedAt, 0).UTC(),
	}
}

func withClock(v *model.TaskVersion, c clock.VectorClock) *model.TaskVersion {
	v.VectorClock = c
	return v
}

func onPlatform(v *model.TaskVersion, p model.Platform) *model.TaskVersion {
	v.Platform = p
	return v
}

func requireSingle(t *testing.T, res Result) *model.TaskVersion {
	t.Helper()
	v, ok := res.Merged.Single()
	require.True(t, ok, "expected a single merged version, got %s", res.Merged.Kind())
	return v
}

func TestThreeWayMerge_BothAbsent(t *testing.T) {
	for _, base := range []*model.TaskVersion{nil, task("orig", model.StatusPending, 1)} {
		res := ThreeWayMerge(nil, nil, base, StrategyTimestamp)

		assert.True(t, res.Merged.IsEmpty())
		assert.False(t, res.Conflict)
		assert.Equal(t, ConflictNone, res.ConflictType)
		assert.Equal(t, StrategyThreeWay, res.Strategy)
	}
}

func TestThreeWayMerge_OnlyLocal(t *testing.T) {
	local := task("new task", model.StatusPending, 10)

	t.Run("created locally", func(t *testing.T) {
		res := ThreeWayMerge(local, nil, nil, StrategyTimestamp)

		assert.Equal(t, local, requireSingle(t, res))
		assert.False(t, res.Conflict)
		assert.Equal(t, ConflictNone, res.ConflictType)
		assert.Equal(t, StrategyThreeWay, res.Strategy)
	})

	t.Run("deleted remotely", func(t *testing.T) {
		base := task("old task", model.StatusPending, 1)
		res := ThreeWayMerge(local, nil, base, StrategyKeepRemote)

		assert.Equal(t, local, requireSingle(t, res))
		assert.True(t, res.Conflict)
		assert.Equal(t, ConflictDelete, res.ConflictType)
		assert.Equal(t, StrategyThreeWay, res.Strategy)
	})
}

func TestThreeWayMerge_OnlyRemote(t *testing.T) {
	remote := task("remote task", model.StatusInProgress, 10)

	t.Run("created remotely", func(t *testing.T) {
		res := ThreeWayMerge(nil, remote, nil, StrategyTimestamp)

		assert.Equal(t, remote, requireSingle(t, res))
		assert.False(t, res.Conflict)
	})

	t.Run("deleted locally", func(t *testing.T) {
		base := task("remote task", model.StatusPending, 1)
		res := ThreeWayMerge(nil, remote, base, StrategyKeepLocal)

		assert.Equal(t, remote, requireSingle(t, res))
		assert.True(t, res.Conflict)
		assert.Equal(t, ConflictDelete, res.ConflictType)
		assert.Equal(t, StrategyThreeWay, res.Strategy)
	})
}

func TestThreeWayMerge_NoBase(t *testing.T) {
	t.Run("same content merges metadata and timestamps", func(t *testing.T) {
		local := task("buy milk", model.StatusPending, 100)
		local.Metadata = map[string]any{"list": "home", "source": "local"}
		remote := task("buy milk", model.StatusInProgress, 200)
		remote.Metadata = map[string]any{"source": "remote", "due": "friday"}

		res := ThreeWayMerge(local, remote, nil, StrategyTimestamp)
		merged := requireSingle(t, res)

		assert.False(t, res.Conflict)
		assert.Equal(t, StrategyThreeWay, res.Strategy)
		assert.Equal(t, model.StatusPending, merged.Status, "local shape is kept")
		assert.Equal(t, time.Unix(200, 0).UTC(), merged.UpdatedAt)
		assert.Equal(t, map[string]any{"list": "home", "source": "remote", "due": "friday"}, merged.Metadata)
	})

	t.Run("same content joins clocks", func(t *testing.T) {
		local := withClock(task("x", model.StatusPending, 1), clock.VectorClock{"p1": 1})
		remote := withClock(task("x", model.StatusPending, 2), clock.VectorClock{"p2": 1})

		merged := requireSingle(t, ThreeWayMerge(local, remote, nil, StrategyTimestamp))
		assert.Equal(t, clock.VectorClock{"p1": 1, "p2": 1}, merged.VectorClock)
	})

	t.Run("different content escalates", func(t *testing.T) {
		local := task("buy milk", model.StatusPending, 100)
		remote := task("buy oat milk", model.StatusPending, 200)

		res := ThreeWayMerge(local, remote, nil, StrategyTimestamp)

		assert.True(t, res.Conflict)
		assert.Equal(t, ConflictContentDiff, res.ConflictType)
		assert.Equal(t, StrategyTimestamp, res.Strategy)
		assert.Equal(t, "buy oat milk", requireSingle(t, res).Content)
	})
}

func TestThreeWayMerge_WithBase(t *testing.T) {
	base := task("orig", model.StatusPending, 1)

	tests := []struct {
		name         string
		local        *model.TaskVersion
		remote       *model.TaskVersion
		wantContent  string
		wantStatus   model.Status
		wantConflict bool
	}{
		{
			name:        "neither changed",
			local:       task("orig", model.StatusPending, 5),
			remote:      task("orig", model.StatusPending, 3),
			wantContent: "orig",
			wantStatus:  model.StatusPending,
		},
		{
			name:        "only local changed",
			local:       task("edited", model.StatusPending, 5),
			remote:      task("orig", model.StatusPending, 9),
			wantContent: "edited",
			wantStatus:  model.StatusPending,
		},
		{
			name:        "only remote changed",
			local:       task("orig", model.StatusPending, 9),
			remote:      task("orig", model.StatusCompleted, 5),
			wantContent: "orig",
			wantStatus:  model.StatusCompleted,
		},
		{
			name:        "convergent edits",
			local:       task("same edit", model.StatusInProgress, 5),
			remote:      task("same edit", model.StatusInProgress, 7),
			wantContent: "same edit",
			wantStatus:  model.StatusInProgress,
		},
		{
			name:         "divergent without clocks",
			local:        task("local edit", model.StatusPending, 8),
			remote:       task("remote edit", model.StatusPending, 7),
			wantContent:  "local edit",
			wantStatus:   model.StatusPending,
			wantConflict: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ThreeWayMerge(tt.local, tt.remote, base, StrategyTimestamp)
			merged := requireSingle(t, res)

			assert.Equal(t, tt.wantContent, merged.Content)
			assert.Equal(t, tt.wantStatus, merged.Status)
			assert.Equal(t, tt.wantConflict, res.Conflict)
			if !tt.wantConflict {
				assert.Equal(t, StrategyThreeWay, res.Strategy)
				assert.Equal(t, ConflictNone, res.ConflictType)
			}
		})
	}
}

func TestThreeWayMerge_FastForwardReturnsLocal(t *testing.T) {
	base := task("orig", model.StatusPending, 1)
	local := withClock(task("changed", model.StatusPending, 2), clock.VectorClock{"p1": 3})
	remote := withClock(task("orig", model.StatusPending, 9), clock.VectorClock{"p2": 5})

	res := ThreeWayMerge(local, remote, base, StrategyKeepRemote)

	assert.Equal(t, local, requireSingle(t, res))
	assert.False(t, res.Conflict)
}

func TestThreeWayMerge_VectorClocks(t *testing.T) {
	base := task("orig", model.StatusPending, 1)

	tests := []struct {
		name         string
		localClock   clock.VectorClock
		remoteClock  clock.VectorClock
		wantContent  string
		wantConflict bool
	}{
		{
			name:        "local before remote",
			localClock:  clock.VectorClock{"p1": 1},
			remoteClock: clock.VectorClock{"p1": 1, "p2": 1},
			wantContent: "remote edit",
		},
		{
			name:        "local after remote",
			localClock:  clock.VectorClock{"p1": 2, "p2": 1},
			remoteClock: clock.VectorClock{"p1": 1, "p2": 1},
			wantContent: "local edit",
		},
		{
			name:         "concurrent",
			localClock:   clock.VectorClock{"p1": 2},
			remoteClock:  clock.VectorClock{"p1": 1, "p2": 1},
			wantContent:  "remote edit",
			wantConflict: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Remote is newer so the timestamp strategy picks it on conflict.
			local := withClock(task("local edit", model.StatusPending, 10), tt.localClock)
			remote := withClock(task("remote edit", model.StatusPending, 20), tt.remoteClock)

			res := ThreeWayMerge(local, remote, base, StrategyTimestamp)

			assert.Equal(t, tt.wantContent, requireSingle(t, res).Content)
			assert.Equal(t, tt.wantConflict, res.Conflict)
		})
	}
}

func TestThreeWayMerge_OneSidedClockEscalates(t *testing.T) {
	base := task("orig", model.StatusPending, 1)
	local := withClock(task("local edit", model.StatusPending, 10), clock.VectorClock{"p1": 1})
	remote := task("remote edit", model.StatusPending, 5)

	res := ThreeWayMerge(local, remote, base, StrategyKeepRemote)

	assert.True(t, res.Conflict)
	assert.Equal(t, StrategyKeepRemote, res.Strategy)
	assert.Equal(t, "remote edit", requireSingle(t, res).Content)
}

func TestThreeWayMerge_EqualClocks(t *testing.T) {
	base := task("orig", model.StatusPending, 1)
	c := clock.VectorClock{"p1": 2, "p2": 1}

	newInputs := func() (*model.TaskVersion, *model.TaskVersion) {
		return withClock(task("local edit", model.StatusPending, 10), c.Clone()),
			withClock(task("remote edit", model.StatusPending, 20), c.Clone())
	}

	t.Run("escalate by default", func(t *testing.T) {
		local, remote := newInputs()
		res := ThreeWayMerge(local, remote, base, StrategyTimestamp)

		assert.True(t, res.Conflict)
		assert.Equal(t, ConflictContentDiff, res.ConflictType)
		assert.Equal(t, StrategyTimestamp, res.Strategy)
		assert.Equal(t, "remote edit", requireSingle(t, res).Content)
	})

	t.Run("prefer local", func(t *testing.T) {
		local, remote := newInputs()
		engine := NewEngine(Options{EqualClockPolicy: EqualClockPreferLocal})
		res := engine.ThreeWayMerge(local, remote, base, StrategyTimestamp)

		assert.False(t, res.Conflict)
		assert.Equal(t, StrategyThreeWay, res.Strategy)
		assert.Equal(t, local, requireSingle(t, res))
	})
}

func TestThreeWayMerge_ConvergentCreate(t *testing.T) {
	local := &model.TaskVersion{Content: "buy milk", Status: model.StatusPending, UpdatedAt: time.Unix(100, 0)}
	remote := &model.TaskVersion{Content: "buy milk", Status: model.StatusPending, UpdatedAt: time.Unix(200, 0)}

	res := ThreeWayMerge(local, remote, nil, StrategyTimestamp)
	merged := requireSingle(t, res)

	assert.Equal(t, "buy milk", merged.Content)
	assert.True(t, merged.UpdatedAt.Equal(time.Unix(200, 0)))
	assert.False(t, res.Conflict)
}

func divergentEdit() (local, remote, base *model.TaskVersion) {
	local = &model.TaskVersion{Content: "A", Status: model.StatusPending, UpdatedAt: time.Unix(500, 0)}
	remote = &model.TaskVersion{Content: "B", Status: model.StatusPending, UpdatedAt: time.Unix(300, 0)}
	base = &model.TaskVersion{Content: "orig", Status: model.StatusPending, UpdatedAt: time.Unix(100, 0)}
	return local, remote, base
}

func TestThreeWayMerge_TimestampConflict(t *testing.T) {
	local, remote, base := divergentEdit()

	res := ThreeWayMerge(local, remote, base, StrategyTimestamp)

	assert.Equal(t, "A", requireSingle(t, res).Content)
	assert.True(t, res.Conflict)
	assert.Equal(t, ConflictContentDiff, res.ConflictType)
	assert.Equal(t, StrategyTimestamp, res.Strategy)
}

func TestThreeWayMerge_CausalResolution(t *testing.T) {
	base := &model.TaskVersion{Content: "orig", Status: model.StatusPending}
	local := &model.TaskVersion{Content: "local", Status: model.StatusPending, VectorClock: clock.VectorClock{"p1": 1}}
	remote := &model.TaskVersion{Content: "remote", Status: model.StatusPending, VectorClock: clock.VectorClock{"p1": 1, "p2": 1}}

	require.Equal(t, clock.Before, clock.Compare(local.VectorClock, remote.VectorClock))

	res := ThreeWayMerge(local, remote, base, StrategyTimestamp)

	assert.Equal(t, remote, requireSingle(t, res))
	assert.False(t, res.Conflict)
}

func TestThreeWayMerge_KeepBoth(t *testing.T) {
	local, remote, base := divergentEdit()

	res := ThreeWayMerge(local, remote, base, StrategyKeepBoth)

	l, r, ok := res.Merged.Pair()
	require.True(t, ok)
	assert.Equal(t, LocalCopyPrefix+"A", l.Content)
	assert.Equal(t, RemoteCopyPrefix+"B", r.Content)
	assert.Equal(t, "local", l.Metadata[MetadataConflictCopy])
	assert.Equal(t, "remote", r.Metadata[MetadataConflictCopy])
	assert.True(t, res.Conflict)
	assert.Equal(t, StrategyKeepBoth, res.Strategy)
	assert.Len(t, res.Merged.Versions(), 2)
}

func TestThreeWayMerge_UnknownStrategyFallsBack(t *testing.T) {
	local, remote, base := divergentEdit()

	bogus := ThreeWayMerge(local, remote, base, Strategy("bogus"))
	timestamp := ThreeWayMerge(local, remote, base, StrategyTimestamp)

	assert.Equal(t, timestamp, bogus)
	assert.Equal(t, StrategyTimestamp, bogus.Strategy)
}

func TestThreeWayMerge_Deterministic(t *testing.T) {
	local, remote, base := divergentEdit()
	local.VectorClock = clock.VectorClock{"p1": 2}
	remote.VectorClock = clock.VectorClock{"p2": 2}
	local.Metadata = map[string]any{"k": "v"}

	for _, s := range append(AllStrategies(), Strategy("bogus")) {
		t.Run(s.String(), func(t *testing.T) {
			first := ThreeWayMerge(local, remote, base, s)
			second := ThreeWayMerge(local, remote, base, s)
			assert.Equal(t, first, second)
		})
	}
}

func TestThreeWayMerge_DoesNotAliasInputs(t *testing.T) {
	local, remote, base := divergentEdit()
	local.VectorClock = clock.VectorClock{"p1": 1}
	remote.VectorClock = clock.VectorClock{"p2": 1}
	local.Metadata = map[string]any{"k": "v"}

	res := ThreeWayMerge(local, remote, base, StrategyKeepLocal)
	merged := requireSingle(t, res)
	merged.Metadata["k"] = "changed"
	merged.VectorClock["p1"] = 99

	assert.Equal(t, "v", local.Metadata["k"])
	assert.Equal(t, uint64(1), local.VectorClock.Get("p1"))
	assert.Equal(t, clock.VectorClock{"p2": 1}, remote.VectorClock)
}

func TestThreeWayMerge_SymmetricDelete(t *testing.T) {
	base := task("orig", model.StatusPending, 1)
	for _, s := range AllStrategies() {
		remote := task("kept", model.StatusCompleted, 2)
		res := ThreeWayMerge(nil, remote, base, s)

		assert.Equal(t, remote, requireSingle(t, res), s)
		assert.True(t, res.Conflict, s)
		assert.Equal(t, ConflictDelete, res.ConflictType, s)
	}
}

func TestThreeWayMerge_TotalOverNilCombinations(t *testing.T) {
	versions := []*model.TaskVersion{nil, task("a", model.StatusPending, 1), task("b", model.StatusCompleted, 2)}
	for _, local := range versions {
		for _, remote := range versions {
			for _, base := range versions {
				for _, s := range AllStrategies() {
					res := ThreeWayMerge(local, remote, base, s)
					if res.Conflict {
						assert.NotEqual(t, ConflictNone, res.ConflictType)
					} else {
						assert.Equal(t, ConflictNone, res.ConflictType)
					}
					assert.NotEmpty(t, res.Strategy)
				}
			}
		}
	}
}

func TestNewEngine_Defaults(t *testing.T) {
	e := NewEngine(Options{})
	assert.Equal(t, EqualClockEscalate, e.opts.EqualClockPolicy)
	assert.NotNil(t, e.opts.Renderer)
}

func TestParseEqualClockPolicy(t *testing.T) {
	tests := []struct {
		input   string
		want    EqualClockPolicy
		wantErr bool
	}{
		{"", EqualClockEscalate, false},
		{"escalate", EqualClockEscalate, false},
		{"prefer-local", EqualClockPreferLocal, false},
		{"PREFER_LOCAL", EqualClockPreferLocal, false},
		{"ignore", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseEqualClockPolicy(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
