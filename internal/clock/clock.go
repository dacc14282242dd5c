package clock

import (
	"fmt"
	"sort"
	"strings"
)

// VectorClock maps a platform id to its edit counter.
// Missing entries read as zero.
type VectorClock map[string]uint64

// Init returns the clock a platform starts with before its first write.
func Init(platform string) VectorClock {
	return VectorClock{platform: 0}
}

// Increment returns a copy of c with the platform's counter advanced by one.
// A nil clock is treated as empty.
func Increment(c VectorClock, platform string) VectorClock {
	next := c.Clone()
	next[platform] = c[platform] + 1
	return next
}

// Merge returns the pointwise maximum of a and b over the union of their keys.
func Merge(a, b VectorClock) VectorClock {
	merged := make(VectorClock, max(len(a), len(b)))
	for platform, counter := range a {
		merged[platform] = counter
	}
	for platform, counter := range b {
		if current, ok := merged[platform]; !ok || current < counter {
			merged[platform] = counter
		}
	}
	return merged
}

// Ordering is the causal relationship between two clocks.
type Ordering int

const (
	// Equal means both clocks hold the same counters.
	Equal Ordering = iota
	// Before means the first clock happened before the second.
	Before
	// After means the first clock happened after the second.
	After
	// Concurrent means neither clock dominates the other.
	Concurrent
)

// String returns the lower-case name of the ordering.
func (o Ordering) String() string {
	switch o {
	case Equal:
		return "equal"
	case Before:
		return "before"
	case After:
		return "after"
	case Concurrent:
		return "concurrent"
	default:
		return fmt.Sprintf("ordering(%d)", int(o))
	}
}

// Mirror returns the ordering seen from the other clock's side.
func (o Ordering) Mirror() Ordering {
	switch o {
	case Before:
		return After
	case After:
		return Before
	default:
		return o
	}
}

// Compare reports how a relates to b:
//   - Equal: every counter matches
//   - Before: every counter of a is <= b and at least one is <
//   - After: every counter of a is >= b and at least one is >
//   - Concurrent: neither dominates
func Compare(a, b VectorClock) Ordering {
	var less, greater bool
	for platform, counter := range a {
		other := b[platform]
		if counter < other {
			less = true
		} else if counter > other {
			greater = true
		}
	}
	for platform, counter := range b {
		if _, seen := a[platform]; seen {
			continue
		}
		if counter > 0 {
			less = true
		}
	}

	switch {
	case less && greater:
		return Concurrent
	case less:
		return Before
	case greater:
		return After
	default:
		return Equal
	}
}

// Descends reports whether a has seen everything b has (a >= b).
func Descends(a, b VectorClock) bool {
	o := Compare(a, b)
	return o == After || o == Equal
}

// Get returns the counter for platform, or 0 when absent.
func (c VectorClock) Get(platform string) uint64 {
	return c[platform]
}

// Clone returns a deep copy. Cloning nil yields an empty, non-nil clock.
func (c VectorClock) Clone() VectorClock {
	out := make(VectorClock, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Equal reports whether both clocks hold the same counters.
// Explicit zero entries are equivalent to missing ones.
func (c VectorClock) Equal(other VectorClock) bool {
	return Compare(c, other) == Equal
}

// String returns a deterministic representation sorted by platform id.
func (c VectorClock) String() string {
	if len(c) == 0 {
		return "{}"
	}

	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s:%d", k, c[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
