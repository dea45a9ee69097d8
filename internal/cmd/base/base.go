// Package base carries the shared state and helpers of all pantheonctl CLI
// commands.
package base

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"github.com/spf13/afero"

	"github.com/pantheon-community/pantheonctl/internal/config"
	"github.com/pantheon-community/pantheonctl/pkg/cache"
	"github.com/pantheon-community/pantheonctl/pkg/envstate"
	"github.com/pantheon-community/pantheonctl/pkg/pantheon"
)

// Command is embedded by every CLI command.
type Command struct {
	UI  cli.Ui
	Log hclog.Logger

	flagConfig string
}

// FlagSet returns a flag set pre-populated with the global flags.
func (c *Command) FlagSet(name string) *flag.FlagSet {
	f := flag.NewFlagSet(name, flag.ContinueOnError)
	f.StringVar(&c.flagConfig, "config", filepath.Join(config.DefaultDir(), "config.hcl"),
		"Path to the configuration file.")
	return f
}

// Config loads the configuration file named by the -config flag.
func (c *Command) Config() (*config.Config, error) {
	return config.Load(c.flagConfig)
}

// Client builds the API client from the configuration, backed by the
// file cache.
func (c *Command) Client(cfg *config.Config) (*pantheon.Client, error) {
	store, err := cache.NewFile(afero.NewOsFs(), cfg.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("error opening cache: %w", err)
	}

	return pantheon.New(pantheon.Config{
		BaseURL: cfg.BaseURL,
		Tokens:  cfg.TokenSource(),
		Cache:   store,
		Logger:  c.Log,
	})
}

// State opens the local environment state database.
func (c *Command) State(cfg *config.Config) (*envstate.Store, error) {
	return envstate.Open(cfg.StatePath, c.Log)
}

// ErrorText renders a client error the way users should see it: transient
// failures ask for patience, credential failures point at configuration,
// and local-only environments are an expected limitation rather than an
// outage.
func (c *Command) ErrorText(err error) string {
	switch {
	case pantheon.IsTransient(err):
		return fmt.Sprintf(
			"The Pantheon API is temporarily unreachable; try again in a few minutes.\n(%s)", err)
	case errors.Is(err, pantheon.ErrNoCredential):
		return "No machine token is configured. Run 'pantheonctl auth login' or set " +
			config.EnvMachineToken + "."
	case errors.Is(err, pantheon.ErrInvalidCredential),
		errors.Is(err, pantheon.ErrAuthenticationFailed):
		return fmt.Sprintf(
			"Authentication with the Pantheon API failed; your machine token may have been revoked.\n"+
				"Run 'pantheonctl auth login' with a fresh token.\n(%s)", err)
	case errors.Is(err, pantheon.ErrEnvironmentNotFound):
		return fmt.Sprintf(
			"That environment only exists locally and has no remote equivalent.\n(%s)", err)
	default:
		return err.Error()
	}
}

// WatchWorkflow polls a workflow to completion, reporting progress through
// the UI. Returns the process exit code.
func (c *Command) WatchWorkflow(ctx context.Context, client *pantheon.Client, wf pantheon.Workflow, maxAttempts int) int {
	poller, err := pantheon.NewPoller(pantheon.PollerConfig{
		Fetcher:     client,
		MaxAttempts: maxAttempts,
		Logger:      c.Log,
		OnProgress: func(progress int, description string) {
			if description != "" {
				c.UI.Info(fmt.Sprintf("%3d%%  %s", progress, description))
			} else {
				c.UI.Info(fmt.Sprintf("%3d%%", progress))
			}
		},
	})
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	result, err := poller.Poll(ctx, wf.SiteID, wf.ID)
	if err != nil {
		c.UI.Error(fmt.Sprintf("polling interrupted: %s", err))
		return 1
	}

	switch {
	case result.Result == pantheon.WorkflowSucceeded:
		c.UI.Info("Workflow completed successfully.")
		return 0
	case errors.Is(result.Err, pantheon.ErrPollTimeout):
		c.UI.Error("Timed out waiting for the workflow; it may still be running remotely.")
		return 1
	default:
		c.UI.Error(fmt.Sprintf("Workflow failed: %s", describeFailure(result)))
		return 1
	}
}

func describeFailure(result pantheon.PollResult) string {
	if result.Err != nil {
		return result.Err.Error()
	}
	if result.Workflow.ActiveDescription != "" {
		return result.Workflow.ActiveDescription
	}
	return "the remote operation reported failure"
}
