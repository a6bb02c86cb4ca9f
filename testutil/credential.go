package testutil

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-console/core/credential"
)

// CheckCredentialStore exercises the credential.Store contract against the store returned by newStore:
// for any sequence of Set and Clear, Get reflects the most recent write.
func CheckCredentialStore(t *testing.T, newStore func(t *testing.T) credential.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("empty store", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Get(ctx)
		assert.ErrorIs(t, err, credential.ErrNotFound)
	})

	t.Run("set then get", func(t *testing.T) {
		store := newStore(t)
		want := credential.Credential{Token: "abc", Email: "a@b.com"}
		require.NoError(t, store.Set(ctx, want))

		got, err := store.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("clear is idempotent", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Clear(ctx))
		require.NoError(t, store.Set(ctx, credential.Credential{Token: "abc"}))
		require.NoError(t, store.Clear(ctx))
		require.NoError(t, store.Clear(ctx))

		_, err := store.Get(ctx)
		assert.ErrorIs(t, err, credential.ErrNotFound)
		assert.Equal(t, "", credential.Token(ctx, store))
	})

	t.Run("random sequences", func(t *testing.T) {
		rnd := rand.New(rand.NewSource(42))
		for seq := 0; seq < 20; seq++ {
			store := newStore(t)
			var last *credential.Credential
			for op := 0; op < 15; op++ {
				if rnd.Intn(3) == 0 {
					require.NoError(t, store.Clear(ctx))
					last = nil
				} else {
					cred := credential.Credential{Token: fmt.Sprintf("tok-%d-%d", seq, op)}
					if rnd.Intn(2) == 0 {
						cred.Email = fmt.Sprintf("admin%d@masomo.test", op)
					}
					require.NoError(t, store.Set(ctx, cred))
					last = &cred
				}

				got, err := store.Get(ctx)
				if last == nil {
					require.ErrorIs(t, err, credential.ErrNotFound, "seq %d op %d", seq, op)
					continue
				}
				require.NoError(t, err, "seq %d op %d", seq, op)
				require.Equal(t, *last, got, "seq %d op %d", seq, op)
			}
		}
	})
}
