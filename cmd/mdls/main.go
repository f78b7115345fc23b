package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/mdls/cmd/mdls/commands"
	mdlserrors "git.home.luguber.info/inful/mdls/internal/foundation/errors"
	"git.home.luguber.info/inful/mdls/internal/version"
)

func main() {
	var cli commands.CLI
	kctx := kong.Parse(&cli,
		kong.Name("mdls"),
		kong.Description("Markdown language server: document links, rename and link maintenance for Markdown workspaces."),
		kong.Vars{"version": version.Version},
		kong.UsageOnError(),
	)

	err := kctx.Run(&commands.Global{Logger: slog.Default(), Out: os.Stdout}, &cli)
	if err == nil {
		return
	}

	adapter := mdlserrors.NewCLIErrorAdapter(cli.Verbose, slog.Default())
	if cli.Verbose {
		adapter.LogError(err)
	}
	fmt.Fprintln(os.Stderr, adapter.FormatError(err))
	os.Exit(adapter.ExitCodeFor(err))
}
