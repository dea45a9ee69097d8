package envstate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:", nil)
	require.NoError(t, err)
	return store
}

func TestStore_PutGet(t *testing.T) {
	store := setupTestStore(t)

	err := store.Put(&Record{
		SiteID:         "s1",
		Environment:    "dev",
		ConnectionMode: "sftp",
		Addons:         AddonFlags{"redis": true},
	})
	require.NoError(t, err)

	got, err := store.Get("s1", "dev")
	require.NoError(t, err)
	assert.Equal(t, "sftp", got.ConnectionMode)
	assert.True(t, got.Addons["redis"])
	assert.False(t, got.LastSynced.IsZero())
}

func TestStore_GetNotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.Get("s1", "feature-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_PutUpserts(t *testing.T) {
	store := setupTestStore(t)

	require.NoError(t, store.Put(&Record{
		SiteID:         "s1",
		Environment:    "dev",
		ConnectionMode: "git",
		LastSynced:     time.Now().Add(-time.Hour),
	}))
	require.NoError(t, store.Put(&Record{
		SiteID:         "s1",
		Environment:    "dev",
		ConnectionMode: "sftp",
	}))

	got, err := store.Get("s1", "dev")
	require.NoError(t, err)
	assert.Equal(t, "sftp", got.ConnectionMode)

	records, err := store.List("s1")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestStore_ListOrdersByEnvironment(t *testing.T) {
	store := setupTestStore(t)

	for _, env := range []string{"test", "dev", "feature-1"} {
		require.NoError(t, store.Put(&Record{
			SiteID:      "s1",
			Environment: env,
		}))
	}
	require.NoError(t, store.Put(&Record{SiteID: "s2", Environment: "dev"}))

	records, err := store.List("s1")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "dev", records[0].Environment)
	assert.Equal(t, "feature-1", records[1].Environment)
	assert.Equal(t, "test", records[2].Environment)
}

func TestStore_Delete(t *testing.T) {
	store := setupTestStore(t)

	require.NoError(t, store.Put(&Record{SiteID: "s1", Environment: "dev"}))
	require.NoError(t, store.Delete("s1", "dev"))

	_, err := store.Get("s1", "dev")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting an absent record is not an error.
	assert.NoError(t, store.Delete("s1", "dev"))
}

func TestAddonFlags_RoundTrip(t *testing.T) {
	flags := AddonFlags{"redis": true, "solr": false}

	value, err := flags.Value()
	require.NoError(t, err)

	var got AddonFlags
	require.NoError(t, got.Scan(value))
	assert.Equal(t, flags, got)

	var empty AddonFlags
	require.NoError(t, empty.Scan(nil))
	assert.Nil(t, empty)
}
