package pantheon

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedFetcher replays a fixed sequence of statuses per workflow id,
// repeating the last one once the script runs out.
type scriptedFetcher struct {
	mu      sync.Mutex
	scripts map[string][]scriptStep
	calls   map[string]int
}

type scriptStep struct {
	wf  Workflow
	err error
}

func newScriptedFetcher() *scriptedFetcher {
	return &scriptedFetcher{
		scripts: make(map[string][]scriptStep),
		calls:   make(map[string]int),
	}
}

func (f *scriptedFetcher) script(id string, steps ...scriptStep) {
	f.scripts[id] = steps
}

func (f *scriptedFetcher) fetches(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

func (f *scriptedFetcher) GetWorkflow(_ context.Context, _, id string) (Workflow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	steps := f.scripts[id]
	idx := f.calls[id]
	f.calls[id]++
	if idx >= len(steps) {
		idx = len(steps) - 1
	}
	step := steps[idx]
	return step.wf, step.err
}

// running builds a non-terminal workflow status at the given step count.
func running(id string, step, total int) scriptStep {
	return scriptStep{wf: Workflow{
		ID:                id,
		Step:              step,
		Operations:        make([]WorkflowOperation, total),
		ActiveDescription: "working",
	}}
}

func finished(id, result string) scriptStep {
	wf := Workflow{ID: id, Result: result}
	// A succeeded workflow reports its full step count.
	if result == WorkflowSucceeded {
		wf.Step = 4
		wf.Operations = make([]WorkflowOperation, 4)
	}
	return scriptStep{wf: wf}
}

func TestWorkflow_Progress(t *testing.T) {
	tests := []struct {
		name  string
		step  int
		total int
		want  int
	}{
		{name: "quarter", step: 1, total: 4, want: 25},
		{name: "half", step: 2, total: 4, want: 50},
		{name: "third rounds", step: 1, total: 3, want: 33},
		{name: "two thirds rounds", step: 2, total: 3, want: 67},
		{name: "complete", step: 4, total: 4, want: 100},
		{name: "overshoot capped", step: 5, total: 4, want: 100},
		{name: "zero step", step: 0, total: 4, want: 0},
		{name: "no operations", step: 2, total: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wf := Workflow{Step: tt.step, Operations: make([]WorkflowOperation, tt.total)}
			assert.Equal(t, tt.want, wf.Progress())
		})
	}
}

func TestPoll_SucceedsWithProgress(t *testing.T) {
	fetcher := newScriptedFetcher()
	fetcher.script("wf-1",
		running("wf-1", 1, 4),
		running("wf-1", 2, 4),
		finished("wf-1", WorkflowSucceeded),
	)

	var progress []int
	poller, err := NewPoller(PollerConfig{
		Fetcher:     fetcher,
		Interval:    time.Millisecond,
		MaxAttempts: 60,
		OnProgress:  func(p int, _ string) { progress = append(progress, p) },
	})
	require.NoError(t, err)

	result, err := poller.Poll(context.Background(), "s1", "wf-1")
	require.NoError(t, err)

	assert.Equal(t, WorkflowSucceeded, result.Result)
	assert.NoError(t, result.Err)
	assert.Equal(t, []int{25, 50, 100}, progress)
	assert.Equal(t, 3, fetcher.fetches("wf-1"))
}

func TestPoll_TimeoutAfterMaxAttempts(t *testing.T) {
	fetcher := newScriptedFetcher()
	fetcher.script("wf-1", running("wf-1", 1, 4))

	poller, err := NewPoller(PollerConfig{
		Fetcher:     fetcher,
		Interval:    time.Millisecond,
		MaxAttempts: 5,
	})
	require.NoError(t, err)

	result, err := poller.Poll(context.Background(), "s1", "wf-1")
	require.NoError(t, err)

	assert.Equal(t, WorkflowFailed, result.Result)
	assert.ErrorIs(t, result.Err, ErrPollTimeout)
	assert.Equal(t, 5, fetcher.fetches("wf-1"))
}

func TestPoll_FetchErrorEndsPolling(t *testing.T) {
	boom := errors.New("boom")
	fetcher := newScriptedFetcher()
	fetcher.script("wf-1",
		running("wf-1", 1, 4),
		scriptStep{err: boom},
	)

	poller, err := NewPoller(PollerConfig{
		Fetcher:     fetcher,
		Interval:    time.Millisecond,
		MaxAttempts: 60,
	})
	require.NoError(t, err)

	result, err := poller.Poll(context.Background(), "s1", "wf-1")
	require.NoError(t, err)

	assert.Equal(t, WorkflowFailed, result.Result)
	assert.ErrorIs(t, result.Err, boom)

	// The fetch is not retried after an error.
	assert.Equal(t, 2, fetcher.fetches("wf-1"))
}

func TestPoll_ContextCancellation(t *testing.T) {
	fetcher := newScriptedFetcher()
	fetcher.script("wf-1", running("wf-1", 1, 4))

	poller, err := NewPoller(PollerConfig{
		Fetcher:     fetcher,
		Interval:    time.Hour,
		MaxAttempts: 60,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err = poller.Poll(ctx, "s1", "wf-1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewPoller_RequiresFetcher(t *testing.T) {
	_, err := NewPoller(PollerConfig{})
	assert.Error(t, err)
}

func TestPollAll_AllSucceed(t *testing.T) {
	fetcher := newScriptedFetcher()
	fetcher.script("wf-1",
		running("wf-1", 2, 4),
		finished("wf-1", WorkflowSucceeded),
	)
	fetcher.script("wf-2",
		running("wf-2", 1, 4),
		running("wf-2", 3, 4),
		finished("wf-2", WorkflowSucceeded),
	)

	poller, err := NewPoller(PollerConfig{
		Fetcher:     fetcher,
		Interval:    time.Millisecond,
		MaxAttempts: 60,
	})
	require.NoError(t, err)

	result, err := poller.PollAll(context.Background(), "s1", []string{"wf-1", "wf-2"})
	require.NoError(t, err)

	assert.Equal(t, WorkflowSucceeded, result.Result)
	assert.NoError(t, result.Err)
	require.Len(t, result.Results, 2)
	assert.Equal(t, WorkflowSucceeded, result.Results["wf-1"].Result)
	assert.Equal(t, WorkflowSucceeded, result.Results["wf-2"].Result)

	// wf-1 finished on the second tick and was excluded afterwards.
	assert.Equal(t, 2, fetcher.fetches("wf-1"))
	assert.Equal(t, 3, fetcher.fetches("wf-2"))
}

func TestPollAll_SingleFailureFailsAction(t *testing.T) {
	fetcher := newScriptedFetcher()
	fetcher.script("wf-1", finished("wf-1", WorkflowSucceeded))
	fetcher.script("wf-2",
		running("wf-2", 1, 4),
		finished("wf-2", WorkflowSucceeded),
	)
	fetcher.script("wf-3",
		running("wf-3", 1, 4),
		finished("wf-3", WorkflowFailed),
	)

	var lastProgress int
	poller, err := NewPoller(PollerConfig{
		Fetcher:     fetcher,
		Interval:    time.Millisecond,
		MaxAttempts: 60,
		OnProgress:  func(p int, _ string) { lastProgress = p },
	})
	require.NoError(t, err)

	result, err := poller.PollAll(context.Background(), "s1", []string{"wf-1", "wf-2", "wf-3"})
	require.NoError(t, err)

	assert.Equal(t, WorkflowFailed, result.Result)
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "wf-3")

	assert.Equal(t, WorkflowSucceeded, result.Results["wf-1"].Result)
	assert.Equal(t, WorkflowSucceeded, result.Results["wf-2"].Result)
	assert.Equal(t, WorkflowFailed, result.Results["wf-3"].Result)

	// Succeeded workflows pin at 100; the failed one keeps its last known
	// progress, so the mean lands between them.
	assert.Equal(t, (100+100+25)/3, lastProgress)
}

func TestPollAll_NoWorkflows(t *testing.T) {
	fetcher := newScriptedFetcher()

	poller, err := NewPoller(PollerConfig{
		Fetcher:     fetcher,
		Interval:    time.Millisecond,
		MaxAttempts: 3,
	})
	require.NoError(t, err)

	result, err := poller.PollAll(context.Background(), "s1", nil)
	require.NoError(t, err)

	assert.Equal(t, WorkflowSucceeded, result.Result)
	assert.NoError(t, result.Err)
	assert.Empty(t, result.Results)
}

func TestPollAll_TimeoutMarksRunningAsFailed(t *testing.T) {
	fetcher := newScriptedFetcher()
	fetcher.script("wf-1", finished("wf-1", WorkflowSucceeded))
	fetcher.script("wf-2", running("wf-2", 1, 4))

	poller, err := NewPoller(PollerConfig{
		Fetcher:     fetcher,
		Interval:    time.Millisecond,
		MaxAttempts: 3,
	})
	require.NoError(t, err)

	result, err := poller.PollAll(context.Background(), "s1", []string{"wf-1", "wf-2"})
	require.NoError(t, err)

	assert.Equal(t, WorkflowFailed, result.Result)
	assert.Equal(t, WorkflowSucceeded, result.Results["wf-1"].Result)
	assert.Equal(t, WorkflowFailed, result.Results["wf-2"].Result)
	assert.ErrorIs(t, result.Results["wf-2"].Err, ErrPollTimeout)
	assert.ErrorIs(t, result.Err, ErrPollTimeout)
	assert.Equal(t, 3, fetcher.fetches("wf-2"))
}

func TestGetWorkflow_BackfillsSiteID(t *testing.T) {
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": "wf-1", "step": 2, "result": ""}`))
	})
	client := newTestClient(t, backend)

	wf, err := client.GetWorkflow(context.Background(), "s1", "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "s1", wf.SiteID)
}
