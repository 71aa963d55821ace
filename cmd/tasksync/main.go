package main

import (
	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/tasksync/cmd/tasksync/commands"
	"git.home.luguber.info/inful/tasksync/internal/version"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("tasksync"),
		kong.Description("Notion to Todoist webhook sync service with per-page debouncing."),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
	)
	err := ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
