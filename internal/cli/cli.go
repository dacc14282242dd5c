// Package cli provides the command-line interface for tasksync.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/klauern/tasksync/internal/config"
	"github.com/klauern/tasksync/internal/logging"
	"github.com/klauern/tasksync/internal/ui"
)

var (
	// Version is the current version of the application.
	Version = "dev"
	// Commit is the git commit hash.
	Commit = "unknown"
	// BuildDate is the date and time of the build.
	BuildDate = "unknown"
)

// Run executes the CLI application with the given context and arguments.
func Run(ctx context.Context, args []string) error {
	return newApp().Run(ctx, args)
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "tasksync",
		Usage:   "Reconcile task lists edited on several platforms",
		Version: Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose output (info level logging)",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug output (debug level logging, implies verbose)",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Path to the config file",
				Sources: cli.EnvVars("TASKSYNC_CONFIG"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return ctx, err
			}
			configureColors(cmd, cfg)
			if err := configureLogging(cmd, cfg); err != nil {
				return ctx, err
			}
			return withConfig(ctx, cfg), nil
		},
		Commands: []*cli.Command{
			mergeCommand(),
			reconcileCommand(),
			clockCommand(),
			taskCommand(),
			strategiesCommand(),
			configCommand(),
			versionCommand(),
		},
	}
}

type configKey struct{}

func withConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// configFrom returns the config loaded by the root command, or defaults.
func configFrom(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey{}).(*config.Config); ok && cfg != nil {
		return cfg
	}
	return config.Default()
}

// loadConfig reads --config when given, otherwise the default config file.
// A missing file yields the defaults.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	path := config.FilePath()
	if p := cmd.String("config"); p != "" {
		path = p
	}
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// configureColors sets up color output based on CLI flags and config.
func configureColors(cmd *cli.Command, cfg *config.Config) {
	switch {
	case cmd.Bool("no-color"), cfg.Output.Color == "never":
		ui.DisableColors()
	case cfg.Output.Color == "always":
		ui.EnableColors()
	}
}

// configureLogging sets up the logger from config, with CLI flags taking
// precedence.
func configureLogging(cmd *cli.Command, cfg *config.Config) error {
	opts := logging.DefaultOptions()
	opts.JSON = cfg.Logging.JSON

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("invalid logging level in config: %w", err)
	}
	opts.Level = level

	if cmd.Bool("debug") {
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	} else if cmd.Bool("verbose") || cfg.Output.Verbose {
		opts.Level = min(opts.Level, slog.LevelInfo)
	}

	opts.Output = cmd.Root().ErrWriter

	logging.SetDefault(logging.New(opts))
	logging.Debug("logging configured", slog.String("level", opts.Level.String()))

	return nil
}
