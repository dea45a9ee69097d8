package pantheon

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomains(t *testing.T) {
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sites/s1/environments/live/domains", r.URL.Path)
		w.Write([]byte(`[
			{"id": "live-my-site.pantheonsite.io", "type": "platform", "status": "active"},
			{"id": "www.example.com", "type": "custom", "status": "active", "primary": true}
		]`))
	})
	client := newTestClient(t, backend)

	domains, err := client.Domains(context.Background(), "s1", "live")
	require.NoError(t, err)
	require.Len(t, domains, 2)
	assert.Equal(t, "www.example.com", domains[1].ID)
	assert.True(t, domains[1].Primary)

	_, err = client.Domains(context.Background(), "s1", "live")
	require.NoError(t, err)
	assert.Equal(t, 1, backend.requests())
}

func TestAddDomain(t *testing.T) {
	var gotMethod, gotPath string
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.EscapedPath()
		w.Write([]byte(`{}`))
	})

	store := newRecordingStore()
	client, err := New(Config{
		BaseURL: backend.URL,
		Tokens:  StaticToken("mt"),
		Cache:   store,
	})
	require.NoError(t, err)

	require.NoError(t, client.AddDomain(context.Background(), "s1", "live", "www.example.com"))
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/sites/s1/environments/live/domains/www.example.com", gotPath)
	assert.Equal(t, []string{domainsKey("s1", "live")}, store.deletedKeys())
}

func TestDeleteDomain(t *testing.T) {
	var gotMethod string
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		w.Write([]byte(`{}`))
	})

	store := newRecordingStore()
	client, err := New(Config{
		BaseURL: backend.URL,
		Tokens:  StaticToken("mt"),
		Cache:   store,
	})
	require.NoError(t, err)

	require.NoError(t, client.DeleteDomain(context.Background(), "s1", "live", "www.example.com"))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, []string{domainsKey("s1", "live")}, store.deletedKeys())
}

func TestDomainOperations_RequireDomain(t *testing.T) {
	backend := newTestBackend(t, nil)
	client := newTestClient(t, backend)
	ctx := context.Background()

	err := client.AddDomain(ctx, "s1", "live", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingDomain)

	err = client.DeleteDomain(ctx, "s1", "live", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingDomain)

	assert.Equal(t, 0, backend.requests())
}
