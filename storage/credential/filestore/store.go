package filecred

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/core/credential"
)

// Store keeps the credential in a JSON file readable by the current user only.
// It survives restarts until Clear is called or the file is removed.
type Store struct {
	path  string
	mutex sync.Mutex
}

var _ credential.Store = (*Store)(nil)

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string { return s.path }

func (s *Store) Get(_ context.Context) (credential.Credential, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return credential.Credential{}, credential.ErrNotFound
		}
		return credential.Credential{}, errors.Wrap(err, "reading credential file")
	}

	var cred credential.Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return credential.Credential{}, errors.Wrap(err, "decoding credential file")
	}
	if cred.IsZero() {
		return credential.Credential{}, credential.ErrNotFound
	}
	return cred, nil
}

func (s *Store) Set(_ context.Context, cred credential.Credential) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.Wrap(err, "creating credential directory")
	}
	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding credential")
	}

	// write then rename so a crash never leaves a half-written token behind
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return errors.Wrap(err, "writing credential file")
	}
	return errors.Wrap(os.Rename(tmp, s.path), "replacing credential file")
}

func (s *Store) Clear(_ context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing credential file")
	}
	return nil
}
