package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/pantheon-community/pantheonctl/internal/cmd/base"
	"github.com/pantheon-community/pantheonctl/internal/cmd/commands/auth"
	"github.com/pantheon-community/pantheonctl/internal/cmd/commands/backup"
	"github.com/pantheon-community/pantheonctl/internal/cmd/commands/env"
	"github.com/pantheon-community/pantheonctl/internal/cmd/commands/multidev"
	"github.com/pantheon-community/pantheonctl/internal/cmd/commands/site"
	"github.com/pantheon-community/pantheonctl/internal/cmd/commands/workflow"
)

// Commands is the mapping of all available CLI commands.
var Commands map[string]cli.CommandFactory

func initCommands(log hclog.Logger, ui cli.Ui) {
	b := func() *base.Command {
		return &base.Command{UI: ui, Log: log}
	}

	Commands = map[string]cli.CommandFactory{
		"auth login": func() (cli.Command, error) {
			return &auth.LoginCommand{Command: b()}, nil
		},
		"auth logout": func() (cli.Command, error) {
			return &auth.LogoutCommand{Command: b()}, nil
		},
		"site info": func() (cli.Command, error) {
			return &site.InfoCommand{Command: b()}, nil
		},
		"site label": func() (cli.Command, error) {
			return &site.LabelCommand{Command: b()}, nil
		},
		"site delete": func() (cli.Command, error) {
			return &site.DeleteCommand{Command: b()}, nil
		},
		"env info": func() (cli.Command, error) {
			return &env.InfoCommand{Command: b()}, nil
		},
		"env deploy": func() (cli.Command, error) {
			return &env.DeployCommand{Command: b()}, nil
		},
		"env clone": func() (cli.Command, error) {
			return &env.CloneCommand{Command: b()}, nil
		},
		"env mode": func() (cli.Command, error) {
			return &env.ModeCommand{Command: b()}, nil
		},
		"env commit": func() (cli.Command, error) {
			return &env.CommitCommand{Command: b()}, nil
		},
		"env domains": func() (cli.Command, error) {
			return &env.DomainsCommand{Command: b()}, nil
		},
		"backup list": func() (cli.Command, error) {
			return &backup.ListCommand{Command: b()}, nil
		},
		"backup create": func() (cli.Command, error) {
			return &backup.CreateCommand{Command: b()}, nil
		},
		"backup restore": func() (cli.Command, error) {
			return &backup.RestoreCommand{Command: b()}, nil
		},
		"multidev create": func() (cli.Command, error) {
			return &multidev.CreateCommand{Command: b()}, nil
		},
		"multidev delete": func() (cli.Command, error) {
			return &multidev.DeleteCommand{Command: b()}, nil
		},
		"multidev merge": func() (cli.Command, error) {
			return &multidev.MergeCommand{Command: b()}, nil
		},
		"workflow watch": func() (cli.Command, error) {
			return &workflow.WatchCommand{Command: b()}, nil
		},
		"version": func() (cli.Command, error) {
			return &versionCommand{ui: ui}, nil
		},
	}
}
