package pantheon

import (
	"context"
	"fmt"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// DeployRequest holds the options of a code deploy.
type DeployRequest struct {
	SiteID string
	// Target of the deploy. Code only ever deploys dev→test→live, so the
	// target must be test or live.
	Target string
	// ClearCache flushes the environment cache after the deploy.
	ClearCache bool
	// UpdateDB runs database updates after the deploy.
	UpdateDB bool
	// Annotation is the deploy log message.
	Annotation string
}

// Validate checks the deploy preconditions before any network call.
func (r DeployRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.SiteID, validation.Required),
		validation.Field(&r.Target, validation.Required, validation.In("test", "live")),
	)
}

// deploySource returns the environment code is promoted from for a deploy
// target.
func deploySource(target string) string {
	if target == "live" {
		return "test"
	}
	return "dev"
}

// DeployCode promotes code to the target environment and returns the
// workflow tracking the deploy. Invalidates the commit caches of both the
// source and the target environment.
func (c *Client) DeployCode(ctx context.Context, req DeployRequest) (Workflow, error) {
	const op = "DeployCode"
	req.Target = ResolveEnvironment(req.Target)

	if err := req.Validate(); err != nil {
		return Workflow{}, &Error{Op: op, Err: ErrInvalidEnvironment, Msg: err.Error()}
	}

	body := map[string]any{
		"clear_cache": req.ClearCache,
		"updatedb":    req.UpdateDB,
		"annotation":  req.Annotation,
	}

	wf, err := c.workflowOp(ctx, op, http.MethodPost,
		fmt.Sprintf("/sites/%s/environments/%s/deploy", req.SiteID, req.Target),
		req.SiteID, body)
	if err != nil {
		return Workflow{}, err
	}

	c.invalidate(op,
		commitsKey(req.SiteID, deploySource(req.Target)),
		commitsKey(req.SiteID, req.Target),
	)
	c.logger.Info("deploy started", "site", req.SiteID, "target", req.Target, "workflow", wf.ID)
	return wf, nil
}

// CloneDatabase copies the database from one environment to another and
// returns the workflow tracking the clone. Fails fast when source and
// target resolve to the same environment.
func (c *Client) CloneDatabase(ctx context.Context, siteID, source, target string) (Workflow, error) {
	return c.clone(ctx, "CloneDatabase", "database/clone", siteID, source, target)
}

// CloneFiles copies uploaded files from one environment to another and
// returns the workflow tracking the clone.
func (c *Client) CloneFiles(ctx context.Context, siteID, source, target string) (Workflow, error) {
	return c.clone(ctx, "CloneFiles", "files/clone", siteID, source, target)
}

func (c *Client) clone(ctx context.Context, op, operation, siteID, source, target string) (Workflow, error) {
	source = ResolveEnvironment(source)
	target = ResolveEnvironment(target)

	if source == target {
		return Workflow{}, &Error{Op: op, Err: ErrSameEnvironment, Msg: source}
	}

	wf, err := c.workflowOp(ctx, op, http.MethodPost,
		fmt.Sprintf("/sites/%s/environments/%s/%s", siteID, target, operation),
		siteID, map[string]string{"from_environment": source})
	if err != nil {
		return Workflow{}, err
	}

	c.logger.Info("clone started", "op", op, "site", siteID, "source", source,
		"target", target, "workflow", wf.ID)
	return wf, nil
}

// ApplyUpstreamUpdates merges pending upstream commits into an environment
// and returns the workflow tracking the merge. Invalidates the upstream
// updates cache and the environment's commit cache.
func (c *Client) ApplyUpstreamUpdates(ctx context.Context, siteID, env string, updateDB bool) (Workflow, error) {
	const op = "ApplyUpstreamUpdates"
	env = ResolveEnvironment(env)

	wf, err := c.workflowOp(ctx, op, http.MethodPost,
		fmt.Sprintf("/sites/%s/environments/%s/upstream/updates", siteID, env),
		siteID, map[string]any{"updatedb": updateDB})
	if err != nil {
		return Workflow{}, err
	}

	c.invalidate(op, upstreamUpdatesKey(siteID), commitsKey(siteID, env))
	c.logger.Info("upstream updates started", "site", siteID, "environment", env, "workflow", wf.ID)
	return wf, nil
}
