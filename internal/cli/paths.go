package cli

import (
	"os"

	"github.com/urfave/cli/v3"

	"github.com/klauern/tasksync/internal/config"
	"github.com/klauern/tasksync/internal/util"
)

// configPath returns --config when set, otherwise the default config file.
func configPath(cmd *cli.Command) string {
	if path := cmd.String("config"); path != "" {
		return util.ExpandPath(path)
	}
	return config.FilePath()
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
