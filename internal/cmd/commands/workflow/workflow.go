// Package workflow implements the workflow commands.
package workflow

import (
	"context"
	"fmt"

	"github.com/pantheon-community/pantheonctl/internal/cmd/base"
)

// WatchCommand polls an existing workflow until it finishes.
type WatchCommand struct {
	*base.Command

	flagSite        string
	flagWorkflow    string
	flagMaxAttempts int
}

func (c *WatchCommand) Synopsis() string {
	return "Watch a workflow until it completes"
}

func (c *WatchCommand) Help() string {
	return `Usage: pantheonctl workflow watch -site=<site-id> -workflow=<workflow-id> [options]

Options:
  -max-attempts=<n>   Give up after n polls. Defaults to 60.`
}

func (c *WatchCommand) Run(args []string) int {
	f := c.FlagSet("workflow watch")
	f.StringVar(&c.flagSite, "site", "", "The site identifier.")
	f.StringVar(&c.flagWorkflow, "workflow", "", "The workflow identifier.")
	f.IntVar(&c.flagMaxAttempts, "max-attempts", 0, "Poll attempt ceiling.")
	if err := f.Parse(args); err != nil {
		return 1
	}
	if c.flagSite == "" || c.flagWorkflow == "" {
		c.UI.Error("The -site and -workflow flags are required.")
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
	wf, err := client.GetWorkflow(ctx, c.flagSite, c.flagWorkflow)
	if err != nil {
		c.UI.Error(c.ErrorText(err))
		return 1
	}
	if wf.Terminal() {
		c.UI.Info(fmt.Sprintf("Workflow already finished with result %q.", wf.Result))
		return 0
	}

	return c.WatchWorkflow(ctx, client, wf, c.flagMaxAttempts)
}
