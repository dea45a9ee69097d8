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

func TestValidateMultidevName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "simple", input: "feature"},
		{name: "with digits", input: "pr-123"},
		{name: "single char", input: "a"},
		{name: "max length", input: "abcdefghijk"},
		{name: "too long", input: "abcdefghijkl", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "uppercase", input: "Feature", wantErr: true},
		{name: "leading dash", input: "-feature", wantErr: true},
		{name: "underscore", input: "my_env", wantErr: true},
		{name: "reserved dev", input: "dev", wantErr: true},
		{name: "reserved test", input: "test", wantErr: true},
		{name: "reserved live", input: "live", wantErr: true},
		{name: "reserved lando", input: "lando", wantErr: true},
		{name: "reserved local", input: "local", wantErr: true},
		{name: "reserved localhost", input: "localhost", wantErr: true},
		{name: "reserved ddev", input: "ddev", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateMultidevName(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreateMultidev(t *testing.T) {
	var gotBody map[string]string
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/sites/s1/environments", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &gotBody))
		w.Write([]byte(`{"id": "wf-multidev"}`))
	})

	store := newRecordingStore()
	client, err := New(Config{
		BaseURL: backend.URL,
		Tokens:  StaticToken("mt"),
		Cache:   store,
	})
	require.NoError(t, err)

	// The fork source resolves local aliases like everything else.
	wf, err := client.CreateMultidev(context.Background(), "s1", "feature-1", "lando")
	require.NoError(t, err)

	assert.Equal(t, "wf-multidev", wf.ID)
	assert.Equal(t, map[string]string{"id": "feature-1", "from_environment": "dev"}, gotBody)
	assert.Equal(t, []string{environmentsKey("s1")}, store.deletedKeys())
}

func TestCreateMultidev_InvalidName(t *testing.T) {
	backend := newTestBackend(t, nil)
	client := newTestClient(t, backend)

	_, err := client.CreateMultidev(context.Background(), "s1", "live", "dev")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidEnvironment)
	assert.Equal(t, 0, backend.requests())
}

func TestDeleteMultidev(t *testing.T) {
	var gotBody map[string]any
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/sites/s1/environments/feature-1", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &gotBody))
		w.Write([]byte(`{"id": "wf-delete"}`))
	})
	client := newTestClient(t, backend)

	wf, err := client.DeleteMultidev(context.Background(), "s1", "feature-1", true)
	require.NoError(t, err)
	assert.Equal(t, "wf-delete", wf.ID)
	assert.Equal(t, true, gotBody["delete_branch"])
}

func TestDeleteMultidev_RefusesFixedEnvironments(t *testing.T) {
	backend := newTestBackend(t, nil)
	client := newTestClient(t, backend)
	ctx := context.Background()

	for _, name := range []string{"dev", "test", "live"} {
		_, err := client.DeleteMultidev(ctx, "s1", name, false)
		require.Error(t, err, name)
		assert.ErrorIs(t, err, ErrInvalidEnvironment, name)
	}
	assert.Equal(t, 0, backend.requests())
}

func TestMergeMultidev(t *testing.T) {
	t.Run("to dev", func(t *testing.T) {
		var gotPath string
		var gotBody map[string]string
		backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			raw, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(raw, &gotBody))
			w.Write([]byte(`{"id": "wf-merge"}`))
		})

		store := newRecordingStore()
		client, err := New(Config{BaseURL: backend.URL, Tokens: StaticToken("mt"), Cache: store})
		require.NoError(t, err)

		_, err = client.MergeMultidevToDev(context.Background(), "s1", "feature-1")
		require.NoError(t, err)
		assert.Equal(t, "/sites/s1/environments/dev/merge", gotPath)
		assert.Equal(t, map[string]string{"from_environment": "feature-1"}, gotBody)
		assert.Equal(t, []string{commitsKey("s1", "dev")}, store.deletedKeys())
	})

	t.Run("from dev", func(t *testing.T) {
		var gotPath string
		var gotBody map[string]string
		backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			raw, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(raw, &gotBody))
			w.Write([]byte(`{"id": "wf-merge"}`))
		})

		store := newRecordingStore()
		client, err := New(Config{BaseURL: backend.URL, Tokens: StaticToken("mt"), Cache: store})
		require.NoError(t, err)

		_, err = client.MergeDevToMultidev(context.Background(), "s1", "feature-1")
		require.NoError(t, err)
		assert.Equal(t, "/sites/s1/environments/feature-1/merge", gotPath)
		assert.Equal(t, map[string]string{"from_environment": "dev"}, gotBody)
		assert.Equal(t, []string{commitsKey("s1", "feature-1")}, store.deletedKeys())
	})
}
