package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SetGet(t *testing.T) {
	m := NewMemory()

	require.NoError(t, m.Set("k1", []byte("v1"), time.Minute))

	got, ok := m.Get("k1")
	require.True(t, ok)
	assert.Equal(t, []byte("v1"), got)

	_, ok = m.Get("absent")
	assert.False(t, ok)
}

func TestMemory_ExpiredEntryReadsAsAbsent(t *testing.T) {
	m := NewMemory()

	current := time.Now()
	m.now = func() time.Time { return current }

	require.NoError(t, m.Set("k1", []byte("v1"), 5*time.Minute))

	current = current.Add(4 * time.Minute)
	_, ok := m.Get("k1")
	assert.True(t, ok)

	current = current.Add(2 * time.Minute)
	_, ok = m.Get("k1")
	assert.False(t, ok)
}

func TestMemory_SetOverwrites(t *testing.T) {
	m := NewMemory()

	require.NoError(t, m.Set("k1", []byte("old"), time.Minute))
	require.NoError(t, m.Set("k1", []byte("new"), time.Minute))

	got, ok := m.Get("k1")
	require.True(t, ok)
	assert.Equal(t, []byte("new"), got)
}

func TestMemory_Delete(t *testing.T) {
	m := NewMemory()

	require.NoError(t, m.Set("k1", []byte("v1"), time.Minute))
	require.NoError(t, m.Delete("k1"))

	_, ok := m.Get("k1")
	assert.False(t, ok)

	// Deleting an absent key is not an error.
	assert.NoError(t, m.Delete("k1"))
}

func TestEnvelope_RoundTrip(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	fetched := time.Unix(1700000000, 0)
	raw, err := Wrap(payload{Name: "my-site"}, fetched)
	require.NoError(t, err)

	var out payload
	env, err := Unwrap(raw, &out)
	require.NoError(t, err)

	assert.Equal(t, "my-site", out.Name)
	assert.Equal(t, fetched.Unix(), env.CachedAt)
}

func TestUnwrap_AcceptsLegacyBarePayload(t *testing.T) {
	var out struct {
		Name string `json:"name"`
	}
	env, err := Unwrap([]byte(`{"name": "my-site"}`), &out)
	require.NoError(t, err)

	assert.Equal(t, "my-site", out.Name)
	assert.Zero(t, env.CachedAt)
}

func TestUnwrap_RejectsGarbage(t *testing.T) {
	_, err := Unwrap([]byte("not json"), nil)
	assert.Error(t, err)

	var out map[string]string
	_, err = Unwrap([]byte(`{"data": "notanobject", "cached_at": 1}`), &out)
	assert.Error(t, err)
}
