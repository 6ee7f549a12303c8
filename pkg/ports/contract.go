package ports

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunBlackboardContract runs a suite of tests to verify that a Blackboard
// implementation adheres to the defined interface contract.
// The blackboard must be empty when the suite starts.
func RunBlackboardContract(t *testing.T, bb Blackboard) {
	ctx := context.Background()

	t.Run("Put and Get keep types", func(t *testing.T) {
		values := map[string]any{
			"contract-string": "bar",
			"contract-int":    int64(42),
			"contract-float":  1.5,
			"contract-bool":   true,
		}
		for k, v := range values {
			require.NoError(t, bb.Put(ctx, k, v), "Put should not return error")
		}
		for k, want := range values {
			got, ok, err := bb.Get(ctx, k)
			require.NoError(t, err)
			require.True(t, ok, "key %s should exist", k)
			assert.Equal(t, want, got, "key %s", k)
		}
	})

	t.Run("Put replaces", func(t *testing.T) {
		require.NoError(t, bb.Put(ctx, "contract-replace", "a"))
		require.NoError(t, bb.Put(ctx, "contract-replace", "b"))
		got, ok, err := bb.Get(ctx, "contract-replace")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "b", got)
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		v, ok, err := bb.Get(ctx, "contract-missing")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, v)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, bb.Put(ctx, "contract-delete", "x"))
		require.NoError(t, bb.Delete(ctx, "contract-delete"))
		_, ok, err := bb.Get(ctx, "contract-delete")
		require.NoError(t, err)
		assert.False(t, ok, "Get after Delete should report a missing key")
		assert.NoError(t, bb.Delete(ctx, "contract-delete"), "deleting a missing key is not an error")
	})

	t.Run("Snapshot", func(t *testing.T) {
		snap, err := bb.Snapshot(ctx)
		require.NoError(t, err)
		assert.Equal(t, "bar", snap["contract-string"])
		assert.Equal(t, int64(42), snap["contract-int"])
		assert.NotContains(t, snap, "contract-delete")

		snap["contract-string"] = "mutated"
		got, _, err := bb.Get(ctx, "contract-string")
		require.NoError(t, err)
		assert.Equal(t, "bar", got, "Snapshot must return a copy")
	})
}

// RunSourceLoaderContract verifies that a SourceLoader serves exactly the
// files in setupData.
func RunSourceLoaderContract(t *testing.T, loader SourceLoader, setupData map[string][]byte) {
	t.Helper()

	t.Run("Read", func(t *testing.T) {
		for name, want := range setupData {
			got, err := loader.Read(name)
			require.NoError(t, err, "reading %s", name)
			assert.Equal(t, string(want), string(got))
		}
	})

	t.Run("Read Not Found", func(t *testing.T) {
		_, err := loader.Read("non-existent.yaml")
		assert.ErrorIs(t, err, ErrSourceNotFound)
	})

	t.Run("List", func(t *testing.T) {
		names, err := loader.List()
		require.NoError(t, err)
		want := make([]string, 0, len(setupData))
		for name := range setupData {
			want = append(want, name)
		}
		sort.Strings(want)
		sort.Strings(names)
		assert.Equal(t, want, names)
	})
}
