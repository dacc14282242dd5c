package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/klauern/tasksync/internal/config"
	"github.com/klauern/tasksync/internal/logging"
	"github.com/klauern/tasksync/internal/sync"
)

type outputFormat string

const (
	formatText outputFormat = "text"
	formatJSON outputFormat = "json"
	formatYAML outputFormat = "yaml"
)

func parseOutputFormat(s string) (outputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "table":
		return formatText, nil
	case "json":
		return formatJSON, nil
	case "yaml", "yml":
		return formatYAML, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (use text, json or yaml)", s)
	}
}

// resolveFormat picks the --format flag, falling back to the config default.
func resolveFormat(cmd *cli.Command, cfg *config.Config) (outputFormat, error) {
	if cmd.IsSet("format") {
		return parseOutputFormat(cmd.String("format"))
	}
	return parseOutputFormat(cfg.Output.Format)
}

// writeStructured encodes v as indented JSON or YAML.
func writeStructured(w io.Writer, format outputFormat, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("format %q is not structured", format)
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format (text, json, yaml)",
	}
}

func strategyFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "strategy",
		Aliases: []string{"s"},
		Usage:   "Conflict strategy (timestamp, status_priority, keep_local, keep_remote, keep_both, manual)",
	}
}

func equalClockPolicyFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "equal-clock-policy",
		Usage: "What to do when equal clocks carry different edits (escalate, prefer_local)",
	}
}

// resolveStrategy applies precedence: flag, then the input document, then config.
// Unknown names fall back to the default strategy with a warning.
func resolveStrategy(cmd *cli.Command, cfg *config.Config, fromInput string) sync.Strategy {
	name := cfg.Merge.DefaultStrategy
	if fromInput != "" {
		name = fromInput
	}
	if cmd.IsSet("strategy") {
		name = cmd.String("strategy")
	}

	strategy := sync.ParseStrategy(name)
	if normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_"); name != "" && normalized != string(strategy) {
		logging.Warn("unknown strategy, using default",
			logging.Strategy(name),
			slog.String("default", strategy.String()))
	}
	return strategy
}

// newEngine builds a merge engine from config and the --equal-clock-policy flag.
func newEngine(cmd *cli.Command, cfg *config.Config) (*sync.Engine, error) {
	opts := sync.DefaultOptions()
	opts.EqualClockPolicy = cfg.GetEqualClockPolicy()
	if cmd.IsSet("equal-clock-policy") {
		policy, err := sync.ParseEqualClockPolicy(cmd.String("equal-clock-policy"))
		if err != nil {
			return nil, err
		}
		opts.EqualClockPolicy = policy
	}
	return sync.NewEngine(opts), nil
}
