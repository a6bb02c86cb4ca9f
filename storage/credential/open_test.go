package credstorage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-console/core"
	filecred "github.com/trezcool/masomo-console/storage/credential/filestore"
	rediscred "github.com/trezcool/masomo-console/storage/credential/redisstore"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()
	srv := miniredis.RunT(t)

	newConf := func(backend string) *core.Config {
		conf := new(core.Config)
		conf.Credential.Backend = backend
		conf.Credential.Path = filepath.Join(t.TempDir(), "credential.json")
		conf.Credential.RedisURL = "redis://" + srv.Addr()
		conf.Credential.RedisKey = "k"
		return conf
	}

	store, closeFn, err := Open(ctx, newConf(core.CredentialBackendFile))
	require.NoError(t, err)
	assert.IsType(t, &filecred.Store{}, store)
	assert.NoError(t, closeFn())

	store, closeFn, err = Open(ctx, newConf(core.CredentialBackendRedis))
	require.NoError(t, err)
	assert.IsType(t, &rediscred.Store{}, store)
	assert.NoError(t, closeFn())

	store, closeFn, err = Open(ctx, newConf(core.CredentialBackendMemory))
	require.NoError(t, err)
	assert.NotNil(t, store)
	assert.NoError(t, closeFn())

	_, closeFn, err = Open(ctx, newConf("cookie"))
	assert.EqualError(t, err, `unknown credential backend "cookie"`)
	assert.NotNil(t, closeFn)
}
