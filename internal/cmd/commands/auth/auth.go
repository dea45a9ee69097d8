// Package auth implements the credential management commands.
package auth

import (
	"fmt"
	"os"
	"strings"

	"github.com/pantheon-community/pantheonctl/internal/cmd/base"
	"github.com/pantheon-community/pantheonctl/internal/config"
)

// LoginCommand stores a machine token, encrypted at rest.
type LoginCommand struct {
	*base.Command

	flagToken string
}

func (c *LoginCommand) Synopsis() string {
	return "Store a Pantheon machine token"
}

func (c *LoginCommand) Help() string {
	return `Usage: pantheonctl auth login [-token=...]

  Stores a machine token for subsequent commands. The token is encrypted
  with the passphrase from ` + config.EnvCredentialKey + ` before it is
  written to disk. Without -token, the token is read interactively.`
}

func (c *LoginCommand) Run(args []string) int {
	f := c.FlagSet("auth login")
	f.StringVar(&c.flagToken, "token", "", "The machine token to store.")
	if err := f.Parse(args); err != nil {
		return 1
	}

	cfg, err := c.Config()
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	token := c.flagToken
	if token == "" {
		token, err = c.UI.AskSecret("Machine token:")
		if err != nil {
			c.UI.Error(fmt.Sprintf("error reading token: %s", err))
			return 1
		}
		token = strings.TrimSpace(token)
	}
	if token == "" {
		c.UI.Error("A machine token is required.")
		return 1
	}

	if os.Getenv(config.EnvCredentialKey) == "" {
		c.UI.Error(config.EnvCredentialKey + " must be set to encrypt the stored token.")
		return 1
	}

	if err := cfg.TokenSource().Save(token); err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	c.UI.Info("Machine token stored.")
	return 0
}

// LogoutCommand removes the stored machine token.
type LogoutCommand struct {
	*base.Command
}

func (c *LogoutCommand) Synopsis() string {
	return "Remove the stored Pantheon machine token"
}

func (c *LogoutCommand) Help() string {
	return "Usage: pantheonctl auth logout"
}

func (c *LogoutCommand) Run(args []string) int {
	f := c.FlagSet("auth logout")
	if err := f.Parse(args); err != nil {
		return 1
	}

	cfg, err := c.Config()
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	if err := cfg.TokenSource().Delete(); err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	c.UI.Info("Machine token removed.")
	return 0
}
