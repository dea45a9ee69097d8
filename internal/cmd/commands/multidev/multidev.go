// Package multidev implements the multidev environment commands.
package multidev

import (
	"context"
	"fmt"

	"github.com/pantheon-community/pantheonctl/internal/cmd/base"
)

// CreateCommand provisions a new multidev environment.
type CreateCommand struct {
	*base.Command

	flagSite string
	flagName string
	flagFrom string
}

func (c *CreateCommand) Synopsis() string {
	return "Create a multidev environment"
}

func (c *CreateCommand) Help() string {
	return `Usage: pantheonctl multidev create -site=<site-id> -name=<name> [-from=<env>]

  Names are 1-11 characters of lowercase letters, digits and hyphens,
  starting with a letter or digit. Reserved names (dev, test, live and the
  local aliases) are rejected.`
}

func (c *CreateCommand) Run(args []string) int {
	f := c.FlagSet("multidev create")
	f.StringVar(&c.flagSite, "site", "", "The site identifier.")
	f.StringVar(&c.flagName, "name", "", "The multidev environment name.")
	f.StringVar(&c.flagFrom, "from", "dev", "The environment to branch from.")
	if err := f.Parse(args); err != nil {
		return 1
	}
	if c.flagSite == "" || c.flagName == "" {
		c.UI.Error("The -site and -name flags are required.")
		return 1
	}

	cfg, err := c.Config()
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	client, err := c.Client(cfg)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	ctx := context.Background()
	wf, err := client.CreateMultidev(ctx, c.flagSite, c.flagName, c.flagFrom)
	if err != nil {
		c.UI.Error(c.ErrorText(err))
		return 1
	}

	c.UI.Info(fmt.Sprintf("Creating multidev %s (workflow %s).", c.flagName, wf.ID))
	return c.WatchWorkflow(ctx, client, wf, 0)
}

// DeleteCommand tears down a multidev environment.
type DeleteCommand struct {
	*base.Command

	flagSite         string
	flagName         string
	flagDeleteBranch bool
}

func (c *DeleteCommand) Synopsis() string {
	return "Delete a multidev environment"
}

func (c *DeleteCommand) Help() string {
	return `Usage: pantheonctl multidev delete -site=<site-id> -name=<name> [-delete-branch]`
}

func (c *DeleteCommand) Run(args []string) int {
	f := c.FlagSet("multidev delete")
	f.StringVar(&c.flagSite, "site", "", "The site identifier.")
	f.StringVar(&c.flagName, "name", "", "The multidev environment name.")
	f.BoolVar(&c.flagDeleteBranch, "delete-branch", false, "Also delete the git branch.")
	if err := f.Parse(args); err != nil {
		return 1
	}
	if c.flagSite == "" || c.flagName == "" {
		c.UI.Error("The -site and -name flags are required.")
		return 1
	}

	cfg, err := c.Config()
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	client, err := c.Client(cfg)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	ctx := context.Background()
	wf, err := client.DeleteMultidev(ctx, c.flagSite, c.flagName, c.flagDeleteBranch)
	if err != nil {
		c.UI.Error(c.ErrorText(err))
		return 1
	}

	return c.WatchWorkflow(ctx, client, wf, 0)
}

// MergeCommand merges a multidev into dev, or dev into a multidev.
type MergeCommand struct {
	*base.Command

	flagSite    string
	flagName    string
	flagFromDev bool
}

func (c *MergeCommand) Synopsis() string {
	return "Merge between a multidev environment and dev"
}

func (c *MergeCommand) Help() string {
	return `Usage: pantheonctl multidev merge -site=<site-id> -name=<name> [-from-dev]

  By default merges the multidev branch into dev. With -from-dev, merges
  dev into the multidev branch instead.`
}

func (c *MergeCommand) Run(args []string) int {
	f := c.FlagSet("multidev merge")
	f.StringVar(&c.flagSite, "site", "", "The site identifier.")
	f.StringVar(&c.flagName, "name", "", "The multidev environment name.")
	f.BoolVar(&c.flagFromDev, "from-dev", false, "Merge dev into the multidev.")
	if err := f.Parse(args); err != nil {
		return 1
	}
	if c.flagSite == "" || c.flagName == "" {
		c.UI.Error("The -site and -name flags are required.")
		return 1
	}

	cfg, err := c.Config()
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	client, err := c.Client(cfg)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	ctx := context.Background()
	if c.flagFromDev {
		workflow, err := client.MergeDevToMultidev(ctx, c.flagSite, c.flagName)
		if err != nil {
			c.UI.Error(c.ErrorText(err))
			return 1
		}
		return c.WatchWorkflow(ctx, client, workflow, 0)
	}

	workflow, err := client.MergeMultidevToDev(ctx, c.flagSite, c.flagName)
	if err != nil {
		c.UI.Error(c.ErrorText(err))
		return 1
	}
	return c.WatchWorkflow(ctx, client, workflow, 0)
}
