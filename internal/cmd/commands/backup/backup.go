// Package backup implements the backup commands.
package backup

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pantheon-community/pantheonctl/internal/cmd/base"
	"github.com/pantheon-community/pantheonctl/pkg/pantheon"
)

// ListCommand prints the backup catalog for an environment.
type ListCommand struct {
	*base.Command

	flagSite    string
	flagEnv     string
	flagElement string
}

func (c *ListCommand) Synopsis() string {
	return "List backups for an environment"
}

func (c *ListCommand) Help() string {
	return `Usage: pantheonctl backup list -site=<site-id> -env=<environment> [-element=<code|database|files>]`
}

func (c *ListCommand) Run(args []string) int {
	f := c.FlagSet("backup list")
	f.StringVar(&c.flagSite, "site", "", "The site identifier.")
	f.StringVar(&c.flagEnv, "env", "dev", "The environment name.")
	f.StringVar(&c.flagElement, "element", "", "Filter by element type.")
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

	backups, err := client.ListBackups(context.Background(), c.flagSite, c.flagEnv)
	if err != nil {
		c.UI.Error(c.ErrorText(err))
		return 1
	}

	var shown []pantheon.Backup
	for _, b := range backups {
		if c.flagElement != "" && b.Element != c.flagElement {
			continue
		}
		shown = append(shown, b)
	}
	if len(shown) == 0 {
		c.UI.Info("No backups found.")
		return 0
	}

	sort.Slice(shown, func(i, j int) bool {
		return shown[i].FinishTime > shown[j].FinishTime
	})
	for _, b := range shown {
		finished := "in progress"
		if b.FinishTime > 0 {
			finished = time.Unix(int64(b.FinishTime), 0).UTC().Format(time.RFC3339)
		}
		c.UI.Output(fmt.Sprintf("%-10s %-22s %s", b.Element, finished, b.ID))
	}
	return 0
}

// CreateCommand starts a new backup and watches it to completion.
type CreateCommand struct {
	*base.Command

	flagSite    string
	flagEnv     string
	flagElement string
}

func (c *CreateCommand) Synopsis() string {
	return "Create a backup of an environment"
}

func (c *CreateCommand) Help() string {
	return `Usage: pantheonctl backup create -site=<site-id> -env=<environment> [options]

Options:
  -element=<code|database|files|all>   What to back up. Defaults to all.`
}

func (c *CreateCommand) Run(args []string) int {
	f := c.FlagSet("backup create")
	f.StringVar(&c.flagSite, "site", "", "The site identifier.")
	f.StringVar(&c.flagEnv, "env", "dev", "The environment name.")
	f.StringVar(&c.flagElement, "element", pantheon.ElementAll, "The element to back up.")
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
	wf, err := client.CreateBackup(ctx, c.flagSite, c.flagEnv, c.flagElement)
	if err != nil {
		c.UI.Error(c.ErrorText(err))
		return 1
	}

	c.UI.Info(fmt.Sprintf("Backup started (workflow %s).", wf.ID))
	return c.WatchWorkflow(ctx, client, wf, 0)
}

// RestoreCommand restores a backup into its environment.
type RestoreCommand struct {
	*base.Command

	flagSite    string
	flagEnv     string
	flagBackup  string
	flagElement string
}

func (c *RestoreCommand) Synopsis() string {
	return "Restore a backup into an environment"
}

func (c *RestoreCommand) Help() string {
	return `Usage: pantheonctl backup restore -site=<site-id> -env=<environment> -backup=<backup-id> -element=<code|database|files>

  Restores are per-element; "all" is not accepted.`
}

func (c *RestoreCommand) Run(args []string) int {
	f := c.FlagSet("backup restore")
	f.StringVar(&c.flagSite, "site", "", "The site identifier.")
	f.StringVar(&c.flagEnv, "env", "dev", "The environment name.")
	f.StringVar(&c.flagBackup, "backup", "", "The backup identifier.")
	f.StringVar(&c.flagElement, "element", "", "The element to restore.")
	if err := f.Parse(args); err != nil {
		return 1
	}
	if c.flagSite == "" || c.flagBackup == "" || c.flagElement == "" {
		c.UI.Error("The -site, -backup and -element flags are required.")
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
	wf, err := client.RestoreBackup(ctx, c.flagSite, c.flagEnv, c.flagBackup, c.flagElement)
	if err != nil {
		c.UI.Error(c.ErrorText(err))
		return 1
	}

	return c.WatchWorkflow(ctx, client, wf, 0)
}
