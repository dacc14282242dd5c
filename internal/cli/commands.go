package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/klauern/tasksync/internal/config"
	"github.com/klauern/tasksync/internal/sync"
	"github.com/klauern/tasksync/internal/ui"
)

func strategiesCommand() *cli.Command {
	return &cli.Command{
		Name:  "strategies",
		Usage: "List conflict resolution strategies",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			def := configFrom(ctx).GetStrategy()

			t := ui.NewTable("STRATEGY", "DESCRIPTION")
			for _, s := range sync.AllStrategies() {
				name := s.String()
				if s == def {
					name += " (default)"
				}
				t.AddRow(name, s.Description())
			}
			return t.Render(cmd.Root().Writer)
		},
	}
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Show or create the configuration file",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print the effective configuration",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					w := cmd.Root().Writer
					path := configPath(cmd)
					state := ui.Dim("(not found, using defaults)")
					if fileExists(path) {
						state = ui.Success("(loaded)")
					}
					_, _ = fmt.Fprintf(w, "# %s %s\n", path, state)
					return writeStructured(w, formatYAML, configFrom(ctx))
				},
			},
			{
				Name:  "init",
				Usage: "Write a default configuration file",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing configuration file",
					},
				},
				Action: func(_ context.Context, cmd *cli.Command) error {
					path := configPath(cmd)
					if fileExists(path) && !cmd.Bool("force") {
						return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
					}
					if err := config.Default().SaveToPath(path); err != nil {
						return fmt.Errorf("failed to write config: %w", err)
					}
					_, _ = fmt.Fprintln(cmd.Root().Writer, ui.StatusSuccess("wrote "+path))
					return nil
				},
			},
		},
	}
}
