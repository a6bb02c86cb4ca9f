package inmemcred

import (
	"context"
	"sync"

	"github.com/trezcool/masomo-console/core/credential"
)

type store struct {
	mutex sync.RWMutex
	cred  credential.Credential
}

var _ credential.Store = (*store)(nil)

// NewStore returns a process-local credential.Store; nothing survives a restart.
func NewStore(initial ...credential.Credential) credential.Store {
	s := new(store)
	if len(initial) > 0 {
		s.cred = initial[0]
	}
	return s
}

func (s *store) Get(_ context.Context) (credential.Credential, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if s.cred.IsZero() {
		return credential.Credential{}, credential.ErrNotFound
	}
	return s.cred, nil
}

func (s *store) Set(_ context.Context, cred credential.Credential) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.cred = cred
	return nil
}

func (s *store) Clear(_ context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.cred = credential.Credential{}
	return nil
}
