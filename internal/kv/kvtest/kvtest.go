// Package kvtest holds the behaviour every kv.Store backend must share.
package kvtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hailinhs/alumnisite/internal/kv"
)

func Run(t *testing.T, store kv.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		_, err := store.Get(ctx, "missing")
		require.ErrorIs(t, err, kv.ErrNotFound)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "alumni_news", []byte(`[{"id":"1"}]`)))
		got, err := store.Get(ctx, "alumni_news")
		require.NoError(t, err)
		require.JSONEq(t, `[{"id":"1"}]`, string(got))
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "alumni_events", []byte(`[1]`)))
		require.NoError(t, store.Set(ctx, "alumni_events", []byte(`[1,2]`)))
		got, err := store.Get(ctx, "alumni_events")
		require.NoError(t, err)
		require.Equal(t, `[1,2]`, string(got))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "alumni_user", []byte(`{}`)))
		require.NoError(t, store.Delete(ctx, "alumni_user"))
		_, err := store.Get(ctx, "alumni_user")
		require.ErrorIs(t, err, kv.ErrNotFound)
		require.NoError(t, store.Delete(ctx, "alumni_user"))
	})

	t.Run("unicode values", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "k", []byte(`"李雷"`)))
		got, err := store.Get(ctx, "k")
		require.NoError(t, err)
		require.Equal(t, `"李雷"`, string(got))
	})
}
