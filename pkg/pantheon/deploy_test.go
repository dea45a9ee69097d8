package pantheon

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeployRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     DeployRequest
		wantErr bool
	}{
		{name: "test target", req: DeployRequest{SiteID: "s1", Target: "test"}},
		{name: "live target", req: DeployRequest{SiteID: "s1", Target: "live"}},
		{name: "dev target", req: DeployRequest{SiteID: "s1", Target: "dev"}, wantErr: true},
		{name: "multidev target", req: DeployRequest{SiteID: "s1", Target: "feature-1"}, wantErr: true},
		{name: "missing site", req: DeployRequest{Target: "test"}, wantErr: true},
		{name: "missing target", req: DeployRequest{SiteID: "s1"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDeployCode_InvalidTargetNoNetwork(t *testing.T) {
	backend := newTestBackend(t, nil)
	client := newTestClient(t, backend)

	_, err := client.DeployCode(context.Background(), DeployRequest{SiteID: "s1", Target: "dev"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidEnvironment)
	assert.Equal(t, 0, backend.requests())
}

func TestDeployCode_InvalidatesSourceAndTargetCommits(t *testing.T) {
	tests := []struct {
		target string
		source string
	}{
		{target: "test", source: "dev"},
		{target: "live", source: "test"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			var gotBody map[string]any
			backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "/sites/s1/environments/"+tt.target+"/deploy", r.URL.Path)
				raw, _ := io.ReadAll(r.Body)
				require.NoError(t, json.Unmarshal(raw, &gotBody))
				w.Write([]byte(`{"id": "wf-deploy", "type": "deploy"}`))
			})

			store := newRecordingStore()
			client, err := New(Config{
				BaseURL: backend.URL,
				Tokens:  StaticToken("mt"),
				Cache:   store,
			})
			require.NoError(t, err)

			wf, err := client.DeployCode(context.Background(), DeployRequest{
				SiteID:     "s1",
				Target:     tt.target,
				ClearCache: true,
				UpdateDB:   true,
				Annotation: "release",
			})
			require.NoError(t, err)
			assert.Equal(t, "wf-deploy", wf.ID)

			assert.Equal(t, true, gotBody["clear_cache"])
			assert.Equal(t, true, gotBody["updatedb"])
			assert.Equal(t, "release", gotBody["annotation"])

			assert.ElementsMatch(t, []string{
				commitsKey("s1", tt.source),
				commitsKey("s1", tt.target),
			}, store.deletedKeys())
		})
	}
}

// Deploying must force the next commit-log read of both the promoted-from
// and promoted-to environment back to the network.
func TestDeployCode_CommitLogRefetchedAfterDeploy(t *testing.T) {
	commitFetches := 0
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sites/s1/environments/dev/commits", "/sites/s1/environments/test/commits":
			commitFetches++
			w.Write([]byte(`[{"hash": "abc123", "message": "initial"}]`))
		case "/sites/s1/environments/test/deploy":
			w.Write([]byte(`{"id": "wf-deploy"}`))
		default:
			http.NotFound(w, r)
		}
	})
	client := newTestClient(t, backend)
	ctx := context.Background()

	// Warm both commit caches and confirm they serve repeats.
	for _, env := range []string{"dev", "test"} {
		_, err := client.Commits(ctx, "s1", env)
		require.NoError(t, err)
		_, err = client.Commits(ctx, "s1", env)
		require.NoError(t, err)
	}
	require.Equal(t, 2, commitFetches)

	_, err := client.DeployCode(ctx, DeployRequest{SiteID: "s1", Target: "test"})
	require.NoError(t, err)

	_, err = client.Commits(ctx, "s1", "dev")
	require.NoError(t, err)
	_, err = client.Commits(ctx, "s1", "test")
	require.NoError(t, err)
	assert.Equal(t, 4, commitFetches)
}

func TestClone_SameEnvironmentFailsFast(t *testing.T) {
	backend := newTestBackend(t, nil)
	client := newTestClient(t, backend)
	ctx := context.Background()

	// lando resolves to dev, so this is a same-environment clone.
	_, err := client.CloneDatabase(ctx, "s1", "lando", "dev")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSameEnvironment)

	_, err = client.CloneFiles(ctx, "s1", "test", "test")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSameEnvironment)

	assert.Equal(t, 0, backend.requests())
}

func TestCloneDatabase(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &gotBody))
		w.Write([]byte(`{"id": "wf-clone", "type": "clone_database"}`))
	})
	client := newTestClient(t, backend)

	wf, err := client.CloneDatabase(context.Background(), "s1", "live", "lando")
	require.NoError(t, err)

	assert.Equal(t, "wf-clone", wf.ID)
	assert.Equal(t, "/sites/s1/environments/dev/database/clone", gotPath)
	assert.Equal(t, map[string]string{"from_environment": "live"}, gotBody)
}

func TestApplyUpstreamUpdates(t *testing.T) {
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sites/s1/environments/dev/upstream/updates", r.URL.Path)
		w.Write([]byte(`{"id": "wf-upstream"}`))
	})

	store := newRecordingStore()
	client, err := New(Config{
		BaseURL: backend.URL,
		Tokens:  StaticToken("mt"),
		Cache:   store,
	})
	require.NoError(t, err)

	wf, err := client.ApplyUpstreamUpdates(context.Background(), "s1", "dev", true)
	require.NoError(t, err)
	assert.Equal(t, "wf-upstream", wf.ID)
	assert.ElementsMatch(t, []string{
		upstreamUpdatesKey("s1"),
		commitsKey("s1", "dev"),
	}, store.deletedKeys())
}
