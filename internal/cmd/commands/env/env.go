// Package env implements the environment-level commands.
package env

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pantheon-community/pantheonctl/internal/cmd/base"
	"github.com/pantheon-community/pantheonctl/pkg/envstate"
	"github.com/pantheon-community/pantheonctl/pkg/pantheon"
)

// InfoCommand prints an environment's details, falling back to locally
// recorded state for environments that only exist locally.
type InfoCommand struct {
	*base.Command

	flagSite string
	flagEnv  string
}

func (c *InfoCommand) Synopsis() string {
	return "Show environment information"
}

func (c *InfoCommand) Help() string {
	return `Usage: pantheonctl env info -site=<site-id> -env=<environment>

  Local development environment names (lando, local, localhost, ddev) are
  mapped to dev before querying the API.`
}

func (c *InfoCommand) Run(args []string) int {
	f := c.FlagSet("env info")
	f.StringVar(&c.flagSite, "site", "", "The site identifier.")
	f.StringVar(&c.flagEnv, "env", "dev", "The environment name.")
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
	state, err := c.State(cfg)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	ctx := context.Background()
	environment, err := client.Environment(ctx, c.flagSite, c.flagEnv)
	if err != nil {
		if errors.Is(err, pantheon.ErrEnvironmentNotFound) {
			// Expected for local-only environments; show what we last knew.
			return c.showRecorded(state)
		}
		c.UI.Error(c.ErrorText(err))
		return 1
	}

	c.UI.Output(fmt.Sprintf("Environment:     %s", environment.Name))
	c.UI.Output(fmt.Sprintf("Connection mode: %s", environment.ConnectionMode))
	c.UI.Output(fmt.Sprintf("PHP version:     %s", environment.PHPVersion))
	c.UI.Output(fmt.Sprintf("Target commit:   %s", environment.TargetCommit))
	if environment.Locked {
		c.UI.Output("Locked:          yes")
	}

	// Reconcile the local record with what the API just told us.
	record := &envstate.Record{
		SiteID:         c.flagSite,
		Environment:    environment.Name,
		ConnectionMode: environment.ConnectionMode,
		LastSynced:     time.Now(),
	}
	if err := state.Put(record); err != nil {
		c.Log.Warn("failed to record environment state", "error", err)
	}
	return 0
}

func (c *InfoCommand) showRecorded(state *envstate.Store) int {
	record, err := state.Get(c.flagSite, pantheon.ResolveEnvironment(c.flagEnv))
	if err != nil {
		c.UI.Warn("This environment only exists locally and no state has been recorded for it yet.")
		return 0
	}

	c.UI.Warn("This environment only exists locally; showing last-known state.")
	c.UI.Output(fmt.Sprintf("Environment:     %s", record.Environment))
	c.UI.Output(fmt.Sprintf("Connection mode: %s", record.ConnectionMode))
	c.UI.Output(fmt.Sprintf("Last synced:     %s", record.LastSynced.Format(time.RFC1123)))
	return 0
}

// DeployCommand promotes code to test or live and watches the deploy.
type DeployCommand struct {
	*base.Command

	flagSite       string
	flagTarget     string
	flagClearCache bool
	flagUpdateDB   bool
	flagNote       string
}

func (c *DeployCommand) Synopsis() string {
	return "Deploy code to the test or live environment"
}

func (c *DeployCommand) Help() string {
	return `Usage: pantheonctl env deploy -site=<site-id> -target=<test|live> [options]

Options:
  -clear-cache   Flush the environment cache after the deploy.
  -updatedb      Run database updates after the deploy.
  -note=<text>   Deploy log annotation.`
}

func (c *DeployCommand) Run(args []string) int {
	f := c.FlagSet("env deploy")
	f.StringVar(&c.flagSite, "site", "", "The site identifier.")
	f.StringVar(&c.flagTarget, "target", "", "The deploy target (test or live).")
	f.BoolVar(&c.flagClearCache, "clear-cache", false, "Flush the environment cache.")
	f.BoolVar(&c.flagUpdateDB, "updatedb", false, "Run database updates.")
	f.StringVar(&c.flagNote, "note", "Deployed via pantheonctl", "Deploy log annotation.")
	if err := f.Parse(args); err != nil {
		return 1
	}
	if c.flagSite == "" || c.flagTarget == "" {
		c.UI.Error("The -site and -target flags are required.")
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
	wf, err := client.DeployCode(ctx, pantheon.DeployRequest{
		SiteID:     c.flagSite,
		Target:     c.flagTarget,
		ClearCache: c.flagClearCache,
		UpdateDB:   c.flagUpdateDB,
		Annotation: c.flagNote,
	})
	if err != nil {
		c.UI.Error(c.ErrorText(err))
		return 1
	}

	c.UI.Info(fmt.Sprintf("Deploy started (workflow %s).", wf.ID))
	return c.WatchWorkflow(ctx, client, wf, 0)
}

// CloneCommand copies the database and/or files between environments.
type CloneCommand struct {
	*base.Command

	flagSite  string
	flagFrom  string
	flagTo    string
	flagDB    bool
	flagFiles bool
}

func (c *CloneCommand) Synopsis() string {
	return "Clone the database and/or files between environments"
}

func (c *CloneCommand) Help() string {
	return `Usage: pantheonctl env clone -site=<site-id> -from=<env> -to=<env> [-db] [-files]

  Without -db or -files, both are cloned.`
}

func (c *CloneCommand) Run(args []string) int {
	f := c.FlagSet("env clone")
	f.StringVar(&c.flagSite, "site", "", "The site identifier.")
	f.StringVar(&c.flagFrom, "from", "", "The source environment.")
	f.StringVar(&c.flagTo, "to", "", "The target environment.")
	f.BoolVar(&c.flagDB, "db", false, "Clone the database.")
	f.BoolVar(&c.flagFiles, "files", false, "Clone uploaded files.")
	if err := f.Parse(args); err != nil {
		return 1
	}
	if c.flagSite == "" || c.flagFrom == "" || c.flagTo == "" {
		c.UI.Error("The -site, -from and -to flags are required.")
		return 1
	}
	if !c.flagDB && !c.flagFiles {
		c.flagDB = true
		c.flagFiles = true
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
	var workflows []pantheon.Workflow

	if c.flagDB {
		wf, err := client.CloneDatabase(ctx, c.flagSite, c.flagFrom, c.flagTo)
		if err != nil {
			c.UI.Error(c.ErrorText(err))
			return 1
		}
		workflows = append(workflows, wf)
	}
	if c.flagFiles {
		wf, err := client.CloneFiles(ctx, c.flagSite, c.flagFrom, c.flagTo)
		if err != nil {
			c.UI.Error(c.ErrorText(err))
			return 1
		}
		workflows = append(workflows, wf)
	}

	if len(workflows) == 1 {
		return c.WatchWorkflow(ctx, client, workflows[0], 0)
	}

	// Two workflows run concurrently; give the pair a longer ceiling.
	poller, err := pantheon.NewPoller(pantheon.PollerConfig{
		Fetcher:     client,
		MaxAttempts: 120,
		Logger:      c.Log,
		OnProgress: func(progress int, description string) {
			c.UI.Info(fmt.Sprintf("%3d%%  %s", progress, description))
		},
	})
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	ids := make([]string, len(workflows))
	for i, wf := range workflows {
		ids[i] = wf.ID
	}
	result, err := poller.PollAll(ctx, c.flagSite, ids)
	if err != nil {
		c.UI.Error(fmt.Sprintf("polling interrupted: %s", err))
		return 1
	}
	if result.Result != pantheon.WorkflowSucceeded {
		c.UI.Error(fmt.Sprintf("Clone failed: %s", result.Err))
		return 1
	}

	c.UI.Info("Clone completed successfully.")
	return 0
}

// ModeCommand switches an environment between git and sftp mode.
type ModeCommand struct {
	*base.Command

	flagSite string
	flagEnv  string
	flagMode string
}

func (c *ModeCommand) Synopsis() string {
	return "Set the connection mode of an environment"
}

func (c *ModeCommand) Help() string {
	return `Usage: pantheonctl env mode -site=<site-id> -env=<environment> -mode=<git|sftp>`
}

func (c *ModeCommand) Run(args []string) int {
	f := c.FlagSet("env mode")
	f.StringVar(&c.flagSite, "site", "", "The site identifier.")
	f.StringVar(&c.flagEnv, "env", "dev", "The environment name.")
	f.StringVar(&c.flagMode, "mode", "", "The connection mode (git or sftp).")
	if err := f.Parse(args); err != nil {
		return 1
	}
	if c.flagSite == "" || c.flagMode == "" {
		c.UI.Error("The -site and -mode flags are required.")
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
	state, err := c.State(cfg)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	if err := client.SetConnectionMode(context.Background(), c.flagSite, c.flagEnv, c.flagMode); err != nil {
		c.UI.Error(c.ErrorText(err))
		return 1
	}

	record := &envstate.Record{
		SiteID:         c.flagSite,
		Environment:    pantheon.ResolveEnvironment(c.flagEnv),
		ConnectionMode: c.flagMode,
		LastSynced:     time.Now(),
	}
	if err := state.Put(record); err != nil {
		c.Log.Warn("failed to record environment state", "error", err)
	}

	c.UI.Info(fmt.Sprintf("Connection mode set to %s.", c.flagMode))
	return 0
}

// CommitCommand commits pending sftp-mode changes.
type CommitCommand struct {
	*base.Command

	flagSite    string
	flagEnv     string
	flagMessage string
}

func (c *CommitCommand) Synopsis() string {
	return "Commit pending sftp-mode changes"
}

func (c *CommitCommand) Help() string {
	return `Usage: pantheonctl env commit -site=<site-id> -env=<environment> -message=<text>`
}

func (c *CommitCommand) Run(args []string) int {
	f := c.FlagSet("env commit")
	f.StringVar(&c.flagSite, "site", "", "The site identifier.")
	f.StringVar(&c.flagEnv, "env", "dev", "The environment name.")
	f.StringVar(&c.flagMessage, "message", "", "The commit message.")
	if err := f.Parse(args); err != nil {
		return 1
	}
	if c.flagSite == "" || c.flagMessage == "" {
		c.UI.Error("The -site and -message flags are required.")
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

	// Show what is about to be committed.
	stats, err := client.DiffStat(ctx, c.flagSite, c.flagEnv)
	if err == nil && len(stats) == 0 {
		c.UI.Info("No pending changes to commit.")
		return 0
	}

	wf, err := client.CommitChanges(ctx, c.flagSite, c.flagEnv, c.flagMessage)
	if err != nil {
		c.UI.Error(c.ErrorText(err))
		return 1
	}

	return c.WatchWorkflow(ctx, client, wf, 0)
}

// DomainsCommand lists, adds or removes environment domains.
type DomainsCommand struct {
	*base.Command

	flagSite   string
	flagEnv    string
	flagAdd    string
	flagRemove string
}

func (c *DomainsCommand) Synopsis() string {
	return "Manage environment domains"
}

func (c *DomainsCommand) Help() string {
	return `Usage: pantheonctl env domains -site=<site-id> -env=<environment> [-add=<domain>|-remove=<domain>]

  Without -add or -remove, lists the environment's domains.`
}

func (c *DomainsCommand) Run(args []string) int {
	f := c.FlagSet("env domains")
	f.StringVar(&c.flagSite, "site", "", "The site identifier.")
	f.StringVar(&c.flagEnv, "env", "live", "The environment name.")
	f.StringVar(&c.flagAdd, "add", "", "A domain to attach.")
	f.StringVar(&c.flagRemove, "remove", "", "A domain to detach.")
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

	switch {
	case c.flagAdd != "":
		if err := client.AddDomain(ctx, c.flagSite, c.flagEnv, c.flagAdd); err != nil {
			c.UI.Error(c.ErrorText(err))
			return 1
		}
		c.UI.Info(fmt.Sprintf("Domain %s added.", c.flagAdd))
		return 0
	case c.flagRemove != "":
		if err := client.DeleteDomain(ctx, c.flagSite, c.flagEnv, c.flagRemove); err != nil {
			c.UI.Error(c.ErrorText(err))
			return 1
		}
		c.UI.Info(fmt.Sprintf("Domain %s removed.", c.flagRemove))
		return 0
	}

	domains, err := client.Domains(ctx, c.flagSite, c.flagEnv)
	if err != nil {
		c.UI.Error(c.ErrorText(err))
		return 1
	}
	if len(domains) == 0 {
		c.UI.Info("No domains attached.")
		return 0
	}
	for _, d := range domains {
		line := d.ID
		if d.Primary {
			line += " (primary)"
		}
		c.UI.Output(line)
	}
	return 0
}
