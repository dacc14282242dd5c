package sync

import "strings"

// Strategy names the resolution path a merge takes.
type Strategy string

const (
	// StrategyThreeWay is the path taken when no conflict strategy was needed.
	// It is reported in results but cannot be configured.
	StrategyThreeWay Strategy = "three_way"

	// StrategyTimestamp picks the side with the latest updatedAt.
	StrategyTimestamp Strategy = "timestamp"

	// StrategyStatusPriority picks the side with the more advanced status.
	StrategyStatusPriority Strategy = "status_priority"

	// StrategyKeepLocal always picks the local side.
	StrategyKeepLocal Strategy = "keep_local"

	// StrategyKeepRemote always picks the remote side.
	StrategyKeepRemote Strategy = "keep_remote"

	// StrategyKeepBoth keeps a tagged copy of each side.
	StrategyKeepBoth Strategy = "keep_both"

	// StrategyManual produces a conflict-marker version for human review.
	StrategyManual Strategy = "manual"
)

// DefaultStrategy is used when no strategy is configured or the configured
// name is not recognized.
const DefaultStrategy = StrategyTimestamp

// IsValid returns true if the strategy can be configured.
func (s Strategy) IsValid() bool {
	switch s {
	case StrategyTimestamp, StrategyStatusPriority, StrategyKeepLocal,
		StrategyKeepRemote, StrategyKeepBoth, StrategyManual:
		return true
	default:
		return false
	}
}

// AllStrategies returns every configurable conflict strategy.
func AllStrategies() []Strategy {
	return []Strategy{
		StrategyTimestamp,
		StrategyStatusPriority,
		StrategyKeepLocal,
		StrategyKeepRemote,
		StrategyKeepBoth,
		StrategyManual,
	}
}

// String returns the string representation of the strategy.
func (s Strategy) String() string {
	return string(s)
}

// Description returns a human-readable description of the strategy.
func (s Strategy) Description() string {
	switch s {
	case StrategyThreeWay:
		return "Resolved by the three-way merge without a conflict strategy"
	case StrategyTimestamp:
		return "Keep the most recently updated version (local wins ties)"
	case StrategyStatusPriority:
		return "Keep the version with the most advanced status, then the newest"
	case StrategyKeepLocal:
		return "Always keep the local version"
	case StrategyKeepRemote:
		return "Always keep the remote version"
	case StrategyKeepBoth:
		return "Keep both versions as separate, tagged tasks"
	case StrategyManual:
		return "Combine both versions with conflict markers for manual review"
	default:
		return "Unknown strategy"
	}
}

// ParseStrategy converts a configured name to a Strategy.
// Unknown names, including the empty string, map to DefaultStrategy.
func ParseStrategy(s string) Strategy {
	normalized := Strategy(strings.ToLower(strings.TrimSpace(s)))
	normalized = Strategy(strings.ReplaceAll(string(normalized), "-", "_"))
	if normalized.IsValid() {
		return normalized
	}
	return DefaultStrategy
}

// effective returns the strategy that will actually run for s.
func (s Strategy) effective() Strategy {
	if s.IsValid() {
		return s
	}
	return DefaultStrategy
}
