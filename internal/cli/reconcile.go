package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/klauern/tasksync/internal/progress"
	"github.com/klauern/tasksync/internal/snapshot"
	"github.com/klauern/tasksync/internal/sync"
	"github.com/klauern/tasksync/internal/ui"
)

func reconcileCommand() *cli.Command {
	return &cli.Command{
		Name:      "reconcile",
		Usage:     "Merge a batch of tasks and summarize the conflicts",
		UsageText: "tasksync reconcile [options] FILE",
		Description: `Reads a batch document with an items list, each item holding an id
   and the local, remote and base versions of one task. Every item is merged
   independently; results keep the input order.

   Examples:
     tasksync reconcile tasks.yaml
     tasksync reconcile --strategy status_priority --format json tasks.json`,
		Flags: []cli.Flag{
			strategyFlag(),
			formatFlag(),
			equalClockPolicyFlag(),
			&cli.IntFlag{
				Name:    "concurrency",
				Aliases: []string{"j"},
				Usage:   "Number of items merged in parallel (0 = number of CPUs)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return errors.New("reconcile requires exactly 1 argument: FILE")
			}
			cfg := configFrom(ctx)

			format, err := resolveFormat(cmd, cfg)
			if err != nil {
				return err
			}

			batch, err := snapshot.LoadBatch(cmd.Args().First())
			if err != nil {
				return err
			}

			engine, err := newEngine(cmd, cfg)
			if err != nil {
				return err
			}

			bar := progress.New(progress.Options{
				Max:         int64(len(batch.Items)),
				Description: "Reconciling",
				Writer:      cmd.Root().ErrWriter,
			})

			report, err := engine.ReconcileAll(ctx, batch.Items, sync.ReconcileOptions{
				Strategy:    resolveStrategy(cmd, cfg, batch.Strategy),
				Concurrency: int(cmd.Int("concurrency")),
				Progress:    bar.Func(),
			})
			if finishErr := bar.Finish(); finishErr != nil && err == nil {
				err = finishErr
			}
			if err != nil {
				return fmt.Errorf("reconcile failed: %w", err)
			}

			w := cmd.Root().Writer
			if format != formatText {
				return writeStructured(w, format, report)
			}
			return ui.RenderReport(w, report)
		},
	}
}
