package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitepipe/cmd/sitepipe/commands"
	derrors "git.home.luguber.info/inful/sitepipe/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepipe/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("sitepipe"),
		kong.Description("Build a Markdown blog into a static site and publish it atomically."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)
	if err := parser.Run(&commands.Global{Logger: slog.Default()}, cli); err != nil {
		os.Exit(derrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err, os.Stderr))
	}
}
