package rediscred

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/masomo-console/core/credential"
)

const (
	fieldToken = credential.Key
	fieldEmail = "email"
)

// Store keeps the credential in a Redis hash so several console hosts can share one session.
type Store struct {
	client *redis.Client
	key    string
}

var _ credential.Store = (*Store)(nil)

func NewStore(client *redis.Client, key string) *Store {
	return &Store{client: client, key: key}
}

// Open parses redisURL, connects and pings the server.
func Open(ctx context.Context, redisURL, key string) (*Store, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, "parsing Redis URL")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "pinging Redis")
	}
	return NewStore(client, key), nil
}

func (s *Store) Get(ctx context.Context) (credential.Credential, error) {
	vals, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return credential.Credential{}, errors.Wrap(err, "reading credential")
	}
	cred := credential.Credential{Token: vals[fieldToken], Email: vals[fieldEmail]}
	if cred.IsZero() {
		return credential.Credential{}, credential.ErrNotFound
	}
	return cred, nil
}

func (s *Store) Set(ctx context.Context, cred credential.Credential) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		pipe.HSet(ctx, s.key, fieldToken, cred.Token, fieldEmail, cred.Email)
		return nil
	})
	return errors.Wrap(err, "writing credential")
}

func (s *Store) Clear(ctx context.Context) error {
	return errors.Wrap(s.client.Del(ctx, s.key).Err(), "clearing credential")
}

func (s *Store) Close() error {
	return s.client.Close()
}
