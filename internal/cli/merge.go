package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/klauern/tasksync/internal/logging"
	"github.com/klauern/tasksync/internal/snapshot"
	"github.com/klauern/tasksync/internal/ui"
)

func mergeCommand() *cli.Command {
	return &cli.Command{
		Name:      "merge",
		Usage:     "Three-way merge the local, remote and base versions of one task",
		UsageText: "tasksync merge [options] FILE",
		Description: `Reads {local, remote, base} from FILE and prints the merged result.
   Any of the three may be omitted to mean the task does not exist on that side.

   FILE may be .json, .yaml, .yml or .toml. Use - to read JSON from stdin.
   Conflicts are reported in the output; they are not errors.

   Examples:
     tasksync merge task.yaml
     tasksync merge --strategy keep_both --format json task.json
     cat task.json | tasksync merge -`,
		Flags: []cli.Flag{
			strategyFlag(),
			formatFlag(),
			equalClockPolicyFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return errors.New("merge requires exactly 1 argument: FILE")
			}
			cfg := configFrom(ctx)

			format, err := resolveFormat(cmd, cfg)
			if err != nil {
				return err
			}

			in, err := snapshot.LoadInput(cmd.Args().First())
			if err != nil {
				return err
			}

			engine, err := newEngine(cmd, cfg)
			if err != nil {
				return err
			}

			strategy := resolveStrategy(cmd, cfg, in.Strategy)
			result := engine.ThreeWayMerge(in.Local, in.Remote, in.Base, strategy)

			logging.Info("merge complete",
				logging.Strategy(result.Strategy.String()),
				logging.ConflictType(result.ConflictType.String()),
			)

			w := cmd.Root().Writer
			if format != formatText {
				return writeStructured(w, format, result)
			}

			_, _ = fmt.Fprintln(w, ui.RenderResult(result))
			if cmd.Bool("verbose") || cfg.Output.Verbose {
				_, _ = fmt.Fprintln(w, ui.Dim(result.Summary()))
			}
			return nil
		},
	}
}
