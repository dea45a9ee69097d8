package cmd

import (
	"github.com/mitchellh/cli"

	"github.com/pantheon-community/pantheonctl/internal/version"
)

// versionCommand prints the CLI version.
type versionCommand struct {
	ui cli.Ui
}

func (c *versionCommand) Synopsis() string {
	return "Print the pantheonctl version"
}

func (c *versionCommand) Help() string {
	return "Usage: pantheonctl version"
}

func (c *versionCommand) Run(args []string) int {
	c.ui.Output("pantheonctl " + version.Version)
	return 0
}
