package filecred

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-console/core/credential"
	"github.com/trezcool/masomo-console/testutil"
)

func TestStore(t *testing.T) {
	testutil.CheckCredentialStore(t, func(t *testing.T) credential.Store {
		return NewStore(filepath.Join(t.TempDir(), "masomo", "credential.json"))
	})
}

func TestStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "credential.json")

	require.NoError(t, NewStore(path).Set(ctx, credential.Credential{Token: "abc", Email: "a@b.com"}))

	cred, err := NewStore(path).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", cred.Token)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestStore_Corrupted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credential.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewStore(path).Get(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, credential.ErrNotFound)
}
