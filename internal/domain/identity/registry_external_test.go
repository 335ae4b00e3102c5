// Package identity_test provides black-box tests for the api-key registry.
package identity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orlv/nsrvm/internal/domain/identity"
)

// TestRegistry_Ensure verifies Ensure mints a stable key per name and
// returns the same key on repeated calls.
//
// Params:
//   - t: testing context for assertions
func TestRegistry_Ensure(t *testing.T) {
	t.Parallel()

	r := identity.NewRegistry()

	first, err := r.Ensure("web")
	require.NoError(t, err)
	assert.NotEmpty(t, first)

	second, err := r.Ensure("web")
	require.NoError(t, err)
	assert.Equal(t, first, second, "Ensure must return the same key across calls")

	other, err := r.Ensure("worker")
	require.NoError(t, err)
	assert.NotEqual(t, first, other, "distinct names must get distinct keys")
}

// TestRegistry_Get verifies Get reports presence and the on-file value.
//
// Params:
//   - t: testing context for assertions
func TestRegistry_Get(t *testing.T) {
	t.Parallel()

	r := identity.NewRegistry()

	_, ok := r.Get("web")
	assert.False(t, ok, "unknown name should not be found")

	key, err := r.Ensure("web")
	require.NoError(t, err)

	got, ok := r.Get("web")
	assert.True(t, ok)
	assert.Equal(t, key, got)
}

// TestRegistry_Forget verifies Forget removes a key, after which Ensure
// mints a fresh one.
//
// Params:
//   - t: testing context for assertions
func TestRegistry_Forget(t *testing.T) {
	t.Parallel()

	r := identity.NewRegistry()

	original, err := r.Ensure("web")
	require.NoError(t, err)

	r.Forget("web")

	_, ok := r.Get("web")
	assert.False(t, ok, "key should be gone after Forget")

	fresh, err := r.Ensure("web")
	require.NoError(t, err)
	assert.NotEqual(t, original, fresh, "a new key should be minted after Forget")
}
