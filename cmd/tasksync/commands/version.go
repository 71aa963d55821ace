package commands

import (
	"fmt"

	"git.home.luguber.info/inful/tasksync/internal/version"
)

// VersionSubCmd implements the 'version' command.
type VersionSubCmd struct{}

func (v *VersionSubCmd) Run(_ *CLI) error {
	fmt.Printf("tasksync %s (commit %s, built %s)\n",
		version.Version, version.GitCommit, version.BuildTime)
	return nil
}
