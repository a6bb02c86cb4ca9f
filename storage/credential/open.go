package credstorage

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/credential"
	filecred "github.com/trezcool/masomo-console/storage/credential/filestore"
	inmemcred "github.com/trezcool/masomo-console/storage/credential/inmem"
	rediscred "github.com/trezcool/masomo-console/storage/credential/redisstore"
)

// Open returns the credential.Store selected by conf.Credential.Backend.
// The returned close func releases backend connections; it is never nil.
func Open(ctx context.Context, conf *core.Config) (credential.Store, func() error, error) {
	noop := func() error { return nil }

	switch conf.Credential.Backend {
	case core.CredentialBackendFile, "":
		return filecred.NewStore(conf.Credential.Path), noop, nil
	case core.CredentialBackendMemory:
		return inmemcred.NewStore(), noop, nil
	case core.CredentialBackendRedis:
		store, err := rediscred.Open(ctx, conf.Credential.RedisURL, conf.Credential.RedisKey)
		if err != nil {
			return nil, noop, errors.Wrap(err, "opening redis credential store")
		}
		return store, store.Close, nil
	default:
		return nil, noop, errors.Errorf("unknown credential backend %q", conf.Credential.Backend)
	}
}
