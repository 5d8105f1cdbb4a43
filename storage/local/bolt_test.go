package local

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoltStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "portal.db")
	store, err := OpenBolt(path)
	require.NoError(t, err)

	_, ok, err := store.Get("auth_user")
	require.NoError(t, err)
	assert.False(t, ok, "fresh store should be empty")

	require.NoError(t, store.Set("auth_user", `{"email":"t@test.cd","role":"teacher"}`))
	require.NoError(t, store.Set("auth_token", "tok"))

	val, ok, err := store.Get("auth_user")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"email":"t@test.cd","role":"teacher"}`, val)

	require.NoError(t, store.Delete("auth_token"))
	require.NoError(t, store.Delete("auth_token"), "deleting an absent key must succeed")
	_, ok, err = store.Get("auth_token")
	require.NoError(t, err)
	assert.False(t, ok)

	// records survive a reopen
	require.NoError(t, store.Close())
	store, err = OpenBolt(path)
	require.NoError(t, err)
	defer store.Close()

	val, ok, err = store.Get("auth_user")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"email":"t@test.cd","role":"teacher"}`, val)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Set("k", "v"))
	val, ok, err := store.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", val)
	assert.Equal(t, map[string]string{"k": "v"}, store.Snapshot())

	require.NoError(t, store.Delete("k"))
	require.NoError(t, store.Delete("k"))
	assert.Empty(t, store.Snapshot())
}
