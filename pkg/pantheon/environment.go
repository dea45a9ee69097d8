package pantheon

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mitchellh/mapstructure"
)

// localEnvAliases are development environment names with no remote
// equivalent. The upstream API has no concept of local environments, so
// every call that accepts an environment name maps these to "dev" first.
var localEnvAliases = map[string]bool{
	"lando":     true,
	"local":     true,
	"localhost": true,
	"ddev":      true,
}

// ResolveEnvironment maps local development environment aliases to "dev",
// case-insensitively, and returns any other name unchanged.
func ResolveEnvironment(name string) string {
	if localEnvAliases[strings.ToLower(name)] {
		return "dev"
	}
	return name
}

// Environments fetches the full environment map for a site. Cached for
// five minutes.
func (c *Client) Environments(ctx context.Context, siteID string) (map[string]Environment, error) {
	const op = "Environments"

	var raw map[string]map[string]any
	err := c.cachedGet(ctx, op,
		fmt.Sprintf("/sites/%s/environments", siteID),
		environmentsKey(siteID), 5*time.Minute, &raw)
	if err != nil {
		return nil, err
	}

	envs := make(map[string]Environment, len(raw))
	for name, fields := range raw {
		var env Environment
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &env,
		})
		if err != nil {
			return nil, &Error{Op: op, Err: err}
		}
		if err := dec.Decode(fields); err != nil {
			c.logger.Error("failed to decode environment", "site", siteID, "environment", name, "error", err)
			return nil, &Error{Op: op, Err: ErrMalformedResponse, Msg: err.Error()}
		}
		env.Name = name
		envs[name] = env
	}
	return envs, nil
}

// Environment fetches one environment of a site. The API has no
// single-environment endpoint, so this fetches the full map and extracts
// one key; a missing key is ErrEnvironmentNotFound, which legitimately
// occurs for local-only environments and must not be treated as an outage.
func (c *Client) Environment(ctx context.Context, siteID, env string) (Environment, error) {
	const op = "Environment"
	env = ResolveEnvironment(env)

	envs, err := c.Environments(ctx, siteID)
	if err != nil {
		return Environment{}, err
	}

	e, ok := envs[env]
	if !ok {
		c.logger.Warn("environment absent from site", "site", siteID, "environment", env)
		return Environment{}, &Error{Op: op, Err: ErrEnvironmentNotFound, Msg: env}
	}
	return e, nil
}

// Commits fetches the commit log of an environment. Cached for five
// minutes.
func (c *Client) Commits(ctx context.Context, siteID, env string) ([]Commit, error) {
	env = ResolveEnvironment(env)
	var commits []Commit
	err := c.cachedGet(ctx, "Commits",
		fmt.Sprintf("/sites/%s/environments/%s/commits", siteID, env),
		commitsKey(siteID, env), 5*time.Minute, &commits)
	if err != nil {
		return nil, err
	}
	return commits, nil
}

// DiffStat fetches pending file changes on an sftp-mode environment, keyed
// by file path. Never cached: it reflects in-flight edits.
func (c *Client) DiffStat(ctx context.Context, siteID, env string) (map[string]DiffStat, error) {
	env = ResolveEnvironment(env)
	var stats map[string]DiffStat
	err := c.do(ctx, "DiffStat", http.MethodGet,
		fmt.Sprintf("/sites/%s/environments/%s/diffstat", siteID, env), nil, &stats)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// SetConnectionMode switches an environment between git and sftp mode.
// Invalidates the site's environment cache, which embeds the mode.
func (c *Client) SetConnectionMode(ctx context.Context, siteID, env, mode string) error {
	const op = "SetConnectionMode"
	env = ResolveEnvironment(env)

	if err := validation.Validate(mode,
		validation.Required,
		validation.In(ConnectionModeGit, ConnectionModeSFTP),
	); err != nil {
		return &Error{Op: op, Err: ErrInvalidMode, Msg: mode}
	}

	err := c.do(ctx, op, http.MethodPost,
		fmt.Sprintf("/sites/%s/environments/%s/connection-mode", siteID, env),
		map[string]string{"mode": mode}, nil)
	if err != nil {
		return err
	}

	c.invalidate(op, environmentsKey(siteID))
	c.logger.Info("connection mode updated", "site", siteID, "environment", env, "mode", mode)
	return nil
}

// CommitChanges commits pending sftp-mode changes on an environment and
// returns the workflow tracking the commit. Invalidates the environment's
// commit cache.
func (c *Client) CommitChanges(ctx context.Context, siteID, env, message string) (Workflow, error) {
	const op = "CommitChanges"
	env = ResolveEnvironment(env)

	wf, err := c.workflowOp(ctx, op, http.MethodPost,
		fmt.Sprintf("/sites/%s/environments/%s/code/commit", siteID, env),
		siteID, map[string]string{"message": message})
	if err != nil {
		return Workflow{}, err
	}

	c.invalidate(op, commitsKey(siteID, env))
	return wf, nil
}

// EnvironmentMetrics fetches the traffic timeseries for an environment.
// Cached for fifteen minutes; metrics lag upstream anyway.
func (c *Client) EnvironmentMetrics(ctx context.Context, siteID, env string) (Metrics, error) {
	env = ResolveEnvironment(env)
	var m Metrics
	err := c.cachedGet(ctx, "EnvironmentMetrics",
		fmt.Sprintf("/sites/%s/environments/%s/metrics", siteID, env),
		metricsKey(siteID, env), 15*time.Minute, &m)
	if err != nil {
		return Metrics{}, err
	}
	return m, nil
}

// EnvironmentSettings fetches the settings record of an environment.
func (c *Client) EnvironmentSettings(ctx context.Context, siteID, env string) (Settings, error) {
	env = ResolveEnvironment(env)
	var s Settings
	err := c.do(ctx, "EnvironmentSettings", http.MethodGet,
		fmt.Sprintf("/sites/%s/environments/%s/settings", siteID, env), nil, &s)
	if err != nil {
		return Settings{}, err
	}
	return s, nil
}
