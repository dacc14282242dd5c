package cli

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/klauern/tasksync/internal/clock"
	"github.com/klauern/tasksync/internal/config"
	"github.com/klauern/tasksync/internal/model"
	"github.com/klauern/tasksync/internal/snapshot"
)

// now is replaced in tests.
var now = func() time.Time { return time.Now().UTC() }

func taskCommand() *cli.Command {
	return &cli.Command{
		Name:  "task",
		Usage: "Create and edit task versions",
		Commands: []*cli.Command{
			taskNewCommand(),
			taskEditCommand(),
		},
	}
}

func taskFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "platform",
			Aliases: []string{"p"},
			Usage:   "Platform making the edit (defaults to config, then hostname)",
		},
		&cli.StringFlag{
			Name:    "content",
			Aliases: []string{"c"},
			Usage:   "Task text",
		},
		&cli.StringFlag{
			Name:  "status",
			Usage: "Task status (pending, in_progress, completed)",
		},
		&cli.StringFlag{
			Name:  "active-form",
			Usage: "Present-continuous form shown while the task is in progress",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format (json, yaml)",
			Value:   "json",
		},
	}
}

func taskNewCommand() *cli.Command {
	return &cli.Command{
		Name:      "new",
		Usage:     "Print a fresh task version with a new id and clock",
		UsageText: "tasksync task new --content TEXT [options]",
		Flags:     taskFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.String("content") == "" {
				return errors.New("--content is required")
			}

			p, err := editingPlatform(cmd, configFrom(ctx))
			if err != nil {
				return err
			}
			status, err := model.ParseStatus(cmd.String("status"))
			if err != nil {
				return err
			}

			v := &model.TaskVersion{
				ID:          uuid.NewString(),
				Content:     cmd.String("content"),
				Status:      status,
				ActiveForm:  cmd.String("active-form"),
				UpdatedAt:   now(),
				Platform:    p,
				VectorClock: clock.Increment(clock.Init(p.String()), p.String()),
			}
			return writeTask(cmd, v)
		},
	}
}

func taskEditCommand() *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Apply an edit to a task version and advance its clock",
		UsageText: "tasksync task edit [options] FILE",
		Flags:     taskFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return errors.New("task edit requires exactly 1 argument: FILE")
			}

			v, err := snapshot.LoadTask(cmd.Args().First())
			if err != nil {
				return err
			}
			p, err := editingPlatform(cmd, configFrom(ctx))
			if err != nil {
				return err
			}

			if cmd.IsSet("content") {
				v.Content = cmd.String("content")
			}
			if cmd.IsSet("active-form") {
				v.ActiveForm = cmd.String("active-form")
			}
			if cmd.IsSet("status") {
				if v.Status, err = model.ParseStatus(cmd.String("status")); err != nil {
					return err
				}
			}
			if v.ID == "" {
				v.ID = uuid.NewString()
			}

			v.Platform = p
			v.UpdatedAt = now()
			v.VectorClock = clock.Increment(v.VectorClock, p.String())
			return writeTask(cmd, v)
		},
	}
}

func editingPlatform(cmd *cli.Command, cfg *config.Config) (model.Platform, error) {
	if cmd.IsSet("platform") {
		return model.ParsePlatform(cmd.String("platform"))
	}
	return cfg.GetPlatform()
}

func writeTask(cmd *cli.Command, v *model.TaskVersion) error {
	format, err := parseOutputFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	if format == formatText {
		return errors.New("task output must be json or yaml")
	}
	return writeStructured(cmd.Root().Writer, format, v)
}
