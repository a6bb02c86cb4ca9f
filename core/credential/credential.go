// Package credential defines the single persisted bearer token of the console.
package credential

import (
	"context"
	"errors"
)

// Key is the durable key the token is stored under.
const Key = "token"

// ErrNotFound is returned by Store.Get when no credential is stored.
var ErrNotFound = errors.New("credential not found")

// Credential is an opaque bearer token plus an optional echoed identity hint.
type Credential struct {
	Token string `json:"token"`
	Email string `json:"email,omitempty"`
}

func (c Credential) IsZero() bool { return c.Token == "" }

// Store persists at most one Credential.
// Get reflects the most recent Set; after Clear it returns ErrNotFound.
// Token contents are never validated.
type Store interface {
	Get(ctx context.Context) (Credential, error)
	Set(ctx context.Context, cred Credential) error
	Clear(ctx context.Context) error
}

// Token returns the stored token, or "" when there is none or it cannot be read.
func Token(ctx context.Context, store Store) string {
	cred, err := store.Get(ctx)
	if err != nil {
		return ""
	}
	return cred.Token
}
