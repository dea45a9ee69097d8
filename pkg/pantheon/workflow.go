package pantheon

import (
	"context"
	"fmt"
	"net/http"
)

// workflowOp runs a mutation that responds with a workflow, backfilling
// the workflow's site id when the response omits it so the result can be
// polled directly.
func (c *Client) workflowOp(ctx context.Context, op, method, path, siteID string, body any) (Workflow, error) {
	var wf Workflow
	if err := c.do(ctx, op, method, path, body, &wf); err != nil {
		return Workflow{}, err
	}
	if wf.SiteID == "" {
		wf.SiteID = siteID
	}
	return wf, nil
}

// GetWorkflow fetches the current status of a workflow. Never cached:
// polling depends on fresh step counts.
func (c *Client) GetWorkflow(ctx context.Context, siteID, workflowID string) (Workflow, error) {
	var wf Workflow
	err := c.do(ctx, "GetWorkflow", http.MethodGet,
		fmt.Sprintf("/sites/%s/workflows/%s", siteID, workflowID), nil, &wf)
	if err != nil {
		return Workflow{}, err
	}
	if wf.SiteID == "" {
		wf.SiteID = siteID
	}
	return wf, nil
}

// TriggerWorkflow starts a named workflow with arbitrary parameters and
// returns it for polling. This is the escape hatch for workflow types the
// client has no dedicated operation for.
func (c *Client) TriggerWorkflow(ctx context.Context, siteID, workflowType string, params map[string]any) (Workflow, error) {
	const op = "TriggerWorkflow"

	body := map[string]any{"type": workflowType}
	if len(params) > 0 {
		body["params"] = params
	}

	wf, err := c.workflowOp(ctx, op, http.MethodPost,
		fmt.Sprintf("/sites/%s/workflows", siteID), siteID, body)
	if err != nil {
		return Workflow{}, err
	}

	c.logger.Info("workflow triggered", "site", siteID, "type", workflowType, "workflow", wf.ID)
	return wf, nil
}
