package pantheon

import (
	"context"
	"fmt"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ListBackups fetches the backup catalog of an environment. Cached for
// five minutes.
func (c *Client) ListBackups(ctx context.Context, siteID, env string) (map[string]Backup, error) {
	env = ResolveEnvironment(env)
	var backups map[string]Backup
	err := c.cachedGet(ctx, "ListBackups",
		fmt.Sprintf("/sites/%s/environments/%s/backups/catalog", siteID, env),
		backupsKey(siteID, env), 5*time.Minute, &backups)
	if err != nil {
		return nil, err
	}
	return backups, nil
}

// CreateBackup starts a backup of the given element, or of everything when
// element is "all". Returns the workflow tracking the backup and
// invalidates the backup catalog cache.
func (c *Client) CreateBackup(ctx context.Context, siteID, env, element string) (Workflow, error) {
	const op = "CreateBackup"
	env = ResolveEnvironment(env)

	if err := validation.Validate(element,
		validation.Required,
		validation.In(ElementCode, ElementDatabase, ElementFiles, ElementAll),
	); err != nil {
		return Workflow{}, &Error{Op: op, Err: ErrInvalidElement, Msg: element}
	}

	wf, err := c.workflowOp(ctx, op, http.MethodPost,
		fmt.Sprintf("/sites/%s/environments/%s/backups", siteID, env),
		siteID, map[string]any{"element": element})
	if err != nil {
		return Workflow{}, err
	}

	c.invalidate(op, backupsKey(siteID, env))
	c.logger.Info("backup started", "site", siteID, "environment", env, "element", element, "workflow", wf.ID)
	return wf, nil
}

// RestoreBackup restores a single element from a backup. Unlike
// CreateBackup it does not accept "all": the upstream restores one element
// per workflow. Returns the workflow tracking the restore.
func (c *Client) RestoreBackup(ctx context.Context, siteID, env, backupID, element string) (Workflow, error) {
	const op = "RestoreBackup"
	env = ResolveEnvironment(env)

	if err := validation.Validate(element,
		validation.Required,
		validation.In(ElementCode, ElementDatabase, ElementFiles),
	); err != nil {
		return Workflow{}, &Error{Op: op, Err: ErrInvalidElement, Msg: element}
	}

	wf, err := c.workflowOp(ctx, op, http.MethodPost,
		fmt.Sprintf("/sites/%s/environments/%s/backups/%s/restore", siteID, env, backupID),
		siteID, map[string]any{"element": element})
	if err != nil {
		return Workflow{}, err
	}

	c.logger.Info("restore started", "site", siteID, "environment", env, "backup", backupID,
		"element", element, "workflow", wf.ID)
	return wf, nil
}

// BackupDownloadURL returns a short-lived signed URL for downloading one
// element of a backup. Never cached: the URL expires quickly.
func (c *Client) BackupDownloadURL(ctx context.Context, siteID, env, backupID, element string) (string, error) {
	const op = "BackupDownloadURL"
	env = ResolveEnvironment(env)

	if err := validation.Validate(element,
		validation.Required,
		validation.In(ElementCode, ElementDatabase, ElementFiles),
	); err != nil {
		return "", &Error{Op: op, Err: ErrInvalidElement, Msg: element}
	}

	var resp struct {
		URL string `json:"url"`
	}
	err := c.do(ctx, op, http.MethodGet,
		fmt.Sprintf("/sites/%s/environments/%s/backups/%s/%s/download-url", siteID, env, backupID, element),
		nil, &resp)
	if err != nil {
		return "", err
	}
	if resp.URL == "" {
		return "", &Error{Op: op, Err: ErrMalformedResponse, Msg: "missing download url"}
	}
	return resp.URL, nil
}
