package pantheon

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
)

// ErrPollTimeout means a workflow did not reach a terminal result within
// the poller's attempt ceiling. The remote workflow may still be running;
// there is no server-side cancellation.
var ErrPollTimeout = errors.New("workflow polling timed out")

// errWorkflowRunning signals the retry loop that the workflow has not
// reached a terminal result yet.
var errWorkflowRunning = errors.New("workflow still running")

// WorkflowFetcher fetches workflow status. *Client implements it.
type WorkflowFetcher interface {
	GetWorkflow(ctx context.Context, siteID, workflowID string) (Workflow, error)
}

// ProgressFunc receives fractional progress (1-100) and the workflow's
// active step description. It is never called with zero progress, so the
// caller's display never flashes 0%.
type ProgressFunc func(progress int, description string)

// PollResult is the terminal outcome of polling one workflow.
type PollResult struct {
	// Workflow is the last fetched status.
	Workflow Workflow

	// Result is WorkflowSucceeded or WorkflowFailed. A timeout or a status
	// fetch error reports WorkflowFailed with Err set.
	Result string

	// Err is ErrPollTimeout, or the status-fetch error that ended polling.
	Err error
}

// PollerConfig holds configuration for a workflow poller.
type PollerConfig struct {
	// Fetcher fetches workflow status. Required.
	Fetcher WorkflowFetcher

	// Interval between polls. Default: 2s.
	Interval time.Duration

	// MaxAttempts bounds the number of status fetches per workflow.
	// Default: 60 (about two minutes at the default interval). Clone
	// operations that spawn multiple workflows typically use 120.
	MaxAttempts int

	// OnProgress (optional) receives progress updates.
	OnProgress ProgressFunc

	// Logger (optional).
	Logger hclog.Logger
}

// Poller drives workflow status queries until a terminal result or the
// attempt ceiling. Each poll loop is strictly sequential: one status fetch
// (or one fan-out round, for multiple workflows) per tick.
type Poller struct {
	fetcher     WorkflowFetcher
	interval    time.Duration
	maxAttempts int
	onProgress  ProgressFunc
	logger      hclog.Logger
}

// NewPoller creates a workflow poller.
func NewPoller(cfg PollerConfig) (*Poller, error) {
	if cfg.Fetcher == nil {
		return nil, fmt.Errorf("workflow fetcher is required")
	}
	if cfg.Interval == 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 60
	}
	if cfg.Logger == nil {
		cfg.Logger = hclog.NewNullLogger()
	}
	return &Poller{
		fetcher:     cfg.Fetcher,
		interval:    cfg.Interval,
		maxAttempts: cfg.MaxAttempts,
		onProgress:  cfg.OnProgress,
		logger:      cfg.Logger.Named("workflow-poller"),
	}, nil
}

// Poll fetches the workflow's status at a fixed interval until it reaches
// a terminal result or the attempt ceiling. It blocks, returning the
// terminal outcome; a non-nil error is returned only when ctx is
// cancelled. A status-fetch error ends polling immediately: the fetch is
// not retried.
func (p *Poller) Poll(ctx context.Context, siteID, workflowID string) (PollResult, error) {
	var last Workflow

	operation := func() error {
		wf, err := p.fetcher.GetWorkflow(ctx, siteID, workflowID)
		if err != nil {
			return backoff.Permanent(err)
		}
		last = wf

		if progress := wf.Progress(); progress > 0 && p.onProgress != nil {
			p.onProgress(progress, wf.ActiveDescription)
		}
		if wf.Terminal() {
			return nil
		}
		return errWorkflowRunning
	}

	ticker := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewConstantBackOff(p.interval),
			uint64(p.maxAttempts-1),
		), ctx)

	err := backoff.Retry(operation, ticker)
	switch {
	case err == nil:
		p.logger.Debug("workflow finished", "site", siteID, "workflow", workflowID, "result", last.Result)
		return PollResult{Workflow: last, Result: last.Result}, nil
	case ctx.Err() != nil:
		return PollResult{Workflow: last}, ctx.Err()
	case errors.Is(err, errWorkflowRunning):
		p.logger.Warn("workflow polling exhausted", "site", siteID, "workflow", workflowID,
			"attempts", p.maxAttempts)
		return PollResult{Workflow: last, Result: WorkflowFailed, Err: ErrPollTimeout}, nil
	default:
		p.logger.Error("workflow status fetch failed", "site", siteID, "workflow", workflowID,
			"error", err)
		return PollResult{Workflow: last, Result: WorkflowFailed, Err: err}, nil
	}
}

// MultiPollResult is the terminal outcome of polling several workflows
// spawned by one user action.
type MultiPollResult struct {
	// Results holds the per-workflow outcome, keyed by workflow id.
	Results map[string]PollResult

	// Result is WorkflowSucceeded only when every workflow succeeded; a
	// single failure marks the whole action failed.
	Result string

	// Err aggregates the individual failures.
	Err error
}

// multiState tracks one workflow across ticks.
type multiState struct {
	last     Workflow
	progress int
	result   string
	err      error
}

// PollAll polls all workflows each tick, firing the fetches in parallel
// and waiting for all of them before computing aggregate state. A workflow
// that reaches a terminal state is excluded from subsequent ticks.
// Aggregate progress is the mean over all workflows, with succeeded ones
// pinned at 100 and failed ones at their last known value.
func (p *Poller) PollAll(ctx context.Context, siteID string, workflowIDs []string) (MultiPollResult, error) {
	// An action that spawned no workflows has nothing left to wait for.
	if len(workflowIDs) == 0 {
		return MultiPollResult{
			Results: map[string]PollResult{},
			Result:  WorkflowSucceeded,
		}, nil
	}

	states := make(map[string]*multiState, len(workflowIDs))
	for _, id := range workflowIDs {
		states[id] = &multiState{}
	}

	ticker := backoff.NewConstantBackOff(p.interval)

	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return p.multiResult(siteID, states), ctx.Err()
			case <-time.After(ticker.NextBackOff()):
			}
		}

		var wg sync.WaitGroup
		var mu sync.Mutex
		for id, st := range states {
			if st.result != "" {
				continue
			}
			wg.Add(1)
			go func(id string, st *multiState) {
				defer wg.Done()
				wf, err := p.fetcher.GetWorkflow(ctx, siteID, id)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					// A fetch error is terminal for that workflow.
					st.result = WorkflowFailed
					st.err = err
					return
				}
				st.last = wf
				if progress := wf.Progress(); progress > 0 {
					st.progress = progress
				}
				if wf.Terminal() {
					st.result = wf.Result
					if wf.Result == WorkflowSucceeded {
						st.progress = 100
					}
				}
			}(id, st)
		}
		wg.Wait()

		done := 0
		sum := 0
		for _, st := range states {
			sum += st.progress
			if st.result != "" {
				done++
			}
		}
		if aggregate := sum / len(states); aggregate > 0 && p.onProgress != nil {
			p.onProgress(aggregate, fmt.Sprintf("%d of %d operations complete", done, len(states)))
		}

		if done == len(states) {
			return p.multiResult(siteID, states), nil
		}
	}

	// Attempts exhausted: everything still running timed out.
	for _, st := range states {
		if st.result == "" {
			st.result = WorkflowFailed
			st.err = ErrPollTimeout
		}
	}
	p.logger.Warn("multi-workflow polling exhausted", "site", siteID,
		"workflows", len(states), "attempts", p.maxAttempts)
	return p.multiResult(siteID, states), nil
}

func (p *Poller) multiResult(siteID string, states map[string]*multiState) MultiPollResult {
	out := MultiPollResult{
		Results: make(map[string]PollResult, len(states)),
		Result:  WorkflowSucceeded,
	}

	var errs *multierror.Error
	for id, st := range states {
		out.Results[id] = PollResult{Workflow: st.last, Result: st.result, Err: st.err}
		if st.result != WorkflowSucceeded {
			out.Result = WorkflowFailed
			if st.err != nil {
				errs = multierror.Append(errs, fmt.Errorf("workflow %s: %w", id, st.err))
			} else {
				errs = multierror.Append(errs, fmt.Errorf("workflow %s failed", id))
			}
		}
	}
	out.Err = errs.ErrorOrNil()

	if out.Result == WorkflowFailed {
		p.logger.Error("multi-workflow action failed", "site", siteID, "error", out.Err)
	}
	return out
}
