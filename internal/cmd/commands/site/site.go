// Package site implements the site-level commands.
package site

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pantheon-community/pantheonctl/internal/cmd/base"
)

// InfoCommand prints a site's metadata.
type InfoCommand struct {
	*base.Command

	flagSite string
}

func (c *InfoCommand) Synopsis() string {
	return "Show site information"
}

func (c *InfoCommand) Help() string {
	return `Usage: pantheonctl site info -site=<site-id>`
}

func (c *InfoCommand) Run(args []string) int {
	f := c.FlagSet("site info")
	f.StringVar(&c.flagSite, "site", "", "The site identifier.")
	if err := f.Parse(args); err != nil {
		return 1
	}
	if c.flagSite == "" {
		c.UI.Error("The -site flag is required.")
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

	site, err := client.SiteInfo(context.Background(), c.flagSite)
	if err != nil {
		c.UI.Error(c.ErrorText(err))
		return 1
	}

	c.UI.Output(fmt.Sprintf("Name:      %s", site.Name))
	c.UI.Output(fmt.Sprintf("Label:     %s", site.Label))
	c.UI.Output(fmt.Sprintf("Plan:      %s", site.PlanName))
	c.UI.Output(fmt.Sprintf("Framework: %s", site.Framework))
	c.UI.Output(fmt.Sprintf("Upstream:  %s", site.Upstream))
	c.UI.Output(fmt.Sprintf("Created:   %s", time.Unix(site.Created, 0).Format(time.RFC1123)))
	if site.Frozen {
		c.UI.Warn("This site is frozen.")
	}
	return 0
}

// LabelCommand updates a site's display label.
type LabelCommand struct {
	*base.Command

	flagSite  string
	flagLabel string
}

func (c *LabelCommand) Synopsis() string {
	return "Update the site label"
}

func (c *LabelCommand) Help() string {
	return `Usage: pantheonctl site label -site=<site-id> -label=<label>`
}

func (c *LabelCommand) Run(args []string) int {
	f := c.FlagSet("site label")
	f.StringVar(&c.flagSite, "site", "", "The site identifier.")
	f.StringVar(&c.flagLabel, "label", "", "The new label.")
	if err := f.Parse(args); err != nil {
		return 1
	}
	if c.flagSite == "" || c.flagLabel == "" {
		c.UI.Error("The -site and -label flags are required.")
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

	if err := client.UpdateSiteLabel(context.Background(), c.flagSite, c.flagLabel); err != nil {
		c.UI.Error(c.ErrorText(err))
		return 1
	}

	c.UI.Info("Site label updated.")
	return 0
}

// DeleteCommand deletes a site permanently.
type DeleteCommand struct {
	*base.Command

	flagSite  string
	flagForce bool
}

func (c *DeleteCommand) Synopsis() string {
	return "Delete a site permanently"
}

func (c *DeleteCommand) Help() string {
	return `Usage: pantheonctl site delete -site=<site-id> [-force]

  Deletes the site and everything in it. This cannot be undone. Without
  -force, the site name must be typed back to confirm.`
}

func (c *DeleteCommand) Run(args []string) int {
	f := c.FlagSet("site delete")
	f.StringVar(&c.flagSite, "site", "", "The site identifier.")
	f.BoolVar(&c.flagForce, "force", false, "Skip the confirmation prompt.")
	if err := f.Parse(args); err != nil {
		return 1
	}
	if c.flagSite == "" {
		c.UI.Error("The -site flag is required.")
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

	if !c.flagForce {
		site, err := client.SiteInfo(ctx, c.flagSite)
		if err != nil {
			c.UI.Error(c.ErrorText(err))
			return 1
		}
		answer, err := c.UI.Ask(fmt.Sprintf(
			"Deleting %q cannot be undone. Type the site name to confirm:", site.Name))
		if err != nil || strings.TrimSpace(answer) != site.Name {
			c.UI.Error("Confirmation did not match; aborting.")
			return 1
		}
	}

	if err := client.DeleteSite(ctx, c.flagSite); err != nil {
		c.UI.Error(c.ErrorText(err))
		return 1
	}

	c.UI.Info("Site deleted.")
	return 0
}
