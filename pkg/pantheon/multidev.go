package pantheon

import (
	"context"
	"fmt"
	"net/http"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// multidevNameRe matches valid multidev environment names: lowercase
// alphanumerics and dashes, starting with a letter or digit. The upstream
// limits names to 11 characters.
var multidevNameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// reservedEnvNames cannot be used as multidev names.
var reservedEnvNames = []any{"dev", "test", "live", "lando", "local", "localhost", "ddev"}

func validateMultidevName(name string) error {
	return validation.Validate(name,
		validation.Required,
		validation.Length(1, 11),
		validation.Match(multidevNameRe),
		validation.NotIn(reservedEnvNames...),
	)
}

// CreateMultidev creates a named environment forked from the given source
// environment and returns the workflow tracking the creation. Invalidates
// the site's environment cache.
func (c *Client) CreateMultidev(ctx context.Context, siteID, name, source string) (Workflow, error) {
	const op = "CreateMultidev"
	source = ResolveEnvironment(source)

	if err := validateMultidevName(name); err != nil {
		return Workflow{}, &Error{Op: op, Err: ErrInvalidEnvironment, Msg: fmt.Sprintf("%s: %s", name, err)}
	}

	wf, err := c.workflowOp(ctx, op, http.MethodPost,
		fmt.Sprintf("/sites/%s/environments", siteID),
		siteID, map[string]string{"id": name, "from_environment": source})
	if err != nil {
		return Workflow{}, err
	}

	c.invalidate(op, environmentsKey(siteID))
	c.logger.Info("multidev creation started", "site", siteID, "environment", name,
		"source", source, "workflow", wf.ID)
	return wf, nil
}

// DeleteMultidev removes a multidev environment, optionally deleting its
// git branch, and returns the workflow tracking the deletion. Only
// multidev environments can be deleted; dev, test and live are refused
// before any network call.
func (c *Client) DeleteMultidev(ctx context.Context, siteID, name string, deleteBranch bool) (Workflow, error) {
	const op = "DeleteMultidev"

	if err := validateMultidevName(name); err != nil {
		return Workflow{}, &Error{Op: op, Err: ErrInvalidEnvironment, Msg: fmt.Sprintf("%s: %s", name, err)}
	}

	wf, err := c.workflowOp(ctx, op, http.MethodDelete,
		fmt.Sprintf("/sites/%s/environments/%s", siteID, name),
		siteID, map[string]any{"delete_branch": deleteBranch})
	if err != nil {
		return Workflow{}, err
	}

	c.invalidate(op, environmentsKey(siteID))
	c.logger.Info("multidev deletion started", "site", siteID, "environment", name, "workflow", wf.ID)
	return wf, nil
}

// MergeMultidevToDev merges a multidev environment's code into dev and
// returns the workflow tracking the merge. Invalidates the dev commit
// cache.
func (c *Client) MergeMultidevToDev(ctx context.Context, siteID, name string) (Workflow, error) {
	const op = "MergeMultidevToDev"

	if err := validateMultidevName(name); err != nil {
		return Workflow{}, &Error{Op: op, Err: ErrInvalidEnvironment, Msg: fmt.Sprintf("%s: %s", name, err)}
	}

	wf, err := c.workflowOp(ctx, op, http.MethodPost,
		fmt.Sprintf("/sites/%s/environments/dev/merge", siteID),
		siteID, map[string]string{"from_environment": name})
	if err != nil {
		return Workflow{}, err
	}

	c.invalidate(op, commitsKey(siteID, "dev"))
	c.logger.Info("merge to dev started", "site", siteID, "environment", name, "workflow", wf.ID)
	return wf, nil
}

// MergeDevToMultidev merges dev's code into a multidev environment and
// returns the workflow tracking the merge. Invalidates the multidev's
// commit cache.
func (c *Client) MergeDevToMultidev(ctx context.Context, siteID, name string) (Workflow, error) {
	const op = "MergeDevToMultidev"

	if err := validateMultidevName(name); err != nil {
		return Workflow{}, &Error{Op: op, Err: ErrInvalidEnvironment, Msg: fmt.Sprintf("%s: %s", name, err)}
	}

	wf, err := c.workflowOp(ctx, op, http.MethodPost,
		fmt.Sprintf("/sites/%s/environments/%s/merge", siteID, name),
		siteID, map[string]string{"from_environment": "dev"})
	if err != nil {
		return Workflow{}, err
	}

	c.invalidate(op, commitsKey(siteID, name))
	c.logger.Info("merge from dev started", "site", siteID, "environment", name, "workflow", wf.ID)
	return wf, nil
}
