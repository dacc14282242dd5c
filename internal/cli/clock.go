package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/klauern/tasksync/internal/clock"
	"github.com/klauern/tasksync/internal/model"
)

func clockCommand() *cli.Command {
	return &cli.Command{
		Name:  "clock",
		Usage: "Work with vector clocks",
		Description: `Clocks are written as JSON objects mapping a platform id to its counter,
   for example '{"laptop": 2, "phone": 1}'.`,
		Commands: []*cli.Command{
			{
				Name:      "init",
				Usage:     "Print the starting clock for a platform",
				UsageText: "tasksync clock init PLATFORM",
				Action: func(_ context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() != 1 {
						return errors.New("clock init requires exactly 1 argument: PLATFORM")
					}
					p, err := model.ParsePlatform(cmd.Args().First())
					if err != nil {
						return err
					}
					return writeClock(cmd, clock.Init(p.String()))
				},
			},
			{
				Name:      "increment",
				Usage:     "Advance a platform's counter",
				UsageText: "tasksync clock increment PLATFORM [CLOCK]",
				Action: func(_ context.Context, cmd *cli.Command) error {
					if n := cmd.Args().Len(); n < 1 || n > 2 {
						return errors.New("clock increment requires 1 or 2 arguments: PLATFORM [CLOCK]")
					}
					p, err := model.ParsePlatform(cmd.Args().Get(0))
					if err != nil {
						return err
					}
					c, err := parseClock(cmd.Args().Get(1))
					if err != nil {
						return err
					}
					return writeClock(cmd, clock.Increment(c, p.String()))
				},
			},
			{
				Name:      "merge",
				Usage:     "Print the pointwise maximum of two clocks",
				UsageText: "tasksync clock merge CLOCK_A CLOCK_B",
				Action: func(_ context.Context, cmd *cli.Command) error {
					a, b, err := clockPair(cmd, "merge")
					if err != nil {
						return err
					}
					return writeClock(cmd, clock.Merge(a, b))
				},
			},
			{
				Name:      "compare",
				Usage:     "Print how CLOCK_A relates to CLOCK_B (equal, before, after, concurrent)",
				UsageText: "tasksync clock compare CLOCK_A CLOCK_B",
				Action: func(_ context.Context, cmd *cli.Command) error {
					a, b, err := clockPair(cmd, "compare")
					if err != nil {
						return err
					}
					_, err = fmt.Fprintln(cmd.Root().Writer, clock.Compare(a, b))
					return err
				},
			},
		},
	}
}

func clockPair(cmd *cli.Command, name string) (clock.VectorClock, clock.VectorClock, error) {
	if cmd.Args().Len() != 2 {
		return nil, nil, fmt.Errorf("clock %s requires exactly 2 arguments: CLOCK_A CLOCK_B", name)
	}
	a, err := parseClock(cmd.Args().Get(0))
	if err != nil {
		return nil, nil, err
	}
	b, err := parseClock(cmd.Args().Get(1))
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

// parseClock decodes a JSON clock. An empty argument is the empty clock.
func parseClock(s string) (clock.VectorClock, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return clock.VectorClock{}, nil
	}
	var c clock.VectorClock
	if err := json.Unmarshal([]byte(s), &c); err != nil {
		return nil, fmt.Errorf("invalid clock %q: %w", s, err)
	}
	return c.Clone(), nil
}

func writeClock(cmd *cli.Command, c clock.VectorClock) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.Root().Writer, string(data))
	return err
}
