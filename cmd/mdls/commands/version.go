package commands

import (
	"fmt"

	"git.home.luguber.info/inful/mdls/internal/version"
)

// VersionCmd implements the 'version' command.
type VersionCmd struct{}

func (v *VersionCmd) Run(g *Global, _ *CLI) error {
	_, err := fmt.Fprintf(g.out(), "mdls %s\n", version.String())
	return err
}
