package cli

import (
	"context"
	"fmt"
	"runtime"

	"github.com/urfave/cli/v3"
)

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Display version and build information",
		Action: func(_ context.Context, cmd *cli.Command) error {
			w := cmd.Root().Writer
			_, _ = fmt.Fprintf(w, "tasksync version %s\n", Version)
			_, _ = fmt.Fprintf(w, "  commit: %s\n", Commit)
			_, _ = fmt.Fprintf(w, "  built: %s\n", BuildDate)
			_, _ = fmt.Fprintf(w, "  go: %s\n", runtime.Version())
			return nil
		},
	}
}
