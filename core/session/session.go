// Package session owns the signed-in state of the console: the startup credential
// check and the login, register and logout transitions.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/credential"
)

// Notification texts
const (
	MsgLoginSucceeded    = "Login successful!"
	MsgLoginFailedPrefix = "Login Error: "
	MsgRegistered        = "Registration successful! Please login."
	MsgRegisterFailed    = "Registration failed"
	MsgLoggedOut         = "Logged out"
	MsgLogoutFailed      = "Logout failed: the stored credential could not be removed"
)

// AuthClient is the remote authentication capability.
type AuthClient interface {
	// Login exchanges credentials for a bearer token.
	Login(ctx context.Context, username, password string) (string, error)
	Register(ctx context.Context, email, password string) error
}

// State is the published session state.
// Loading is true only until the startup check has run.
type State struct {
	IsAuthenticated bool
	Identity        string
	Loading         bool
}

// DisplayName is the local part of the identity email.
func (s State) DisplayName() string {
	if i := strings.Index(s.Identity, "@"); i > 0 {
		return s.Identity[:i]
	}
	return s.Identity
}

// Controller is the single owner of the session state. It is the only writer of the credential store.
type Controller struct {
	store    credential.Store
	auth     AuthClient
	notifier core.Notifier
	logger   core.Logger

	startOnce sync.Once

	mu        sync.RWMutex
	state     State
	expiresAt time.Time
	subs      map[int]func(State)
	nextSub   int
}

func NewController(store credential.Store, auth AuthClient, notifier core.Notifier, logger core.Logger) (*Controller, error) {
	err := vala.BeginValidation().Validate(
		vala.IsNotNil(store, "store"),
		vala.IsNotNil(auth, "auth"),
		vala.IsNotNil(notifier, "notifier"),
		vala.IsNotNil(logger, "logger"),
	).Check()
	if err != nil {
		return nil, errors.Wrap(err, "session controller")
	}
	return &Controller{
		store:    store,
		auth:     auth,
		notifier: notifier,
		logger:   logger,
		state:    State{Loading: true},
		subs:     make(map[int]func(State)),
	}, nil
}

// Start reads the credential store once. Later calls return the current state.
// An unreadable store is treated as no credential.
func (c *Controller) Start(ctx context.Context) State {
	c.startOnce.Do(func() {
		cred, err := c.store.Get(ctx)
		if err != nil && !errors.Is(err, credential.ErrNotFound) {
			c.logger.Error("reading stored credential", err)
		}

		c.mu.Lock()
		if err == nil && !cred.IsZero() {
			claims := readClaims(cred.Token)
			identity := claims.identity
			if identity == "" {
				identity = cred.Email
			}
			c.state.IsAuthenticated = true
			c.state.Identity = identity
			c.expiresAt = claims.expiresAt
		}
		c.state.Loading = false
		c.mu.Unlock()

		c.publish()
	})
	return c.State()
}

func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// ExpiresAt returns the expiry claimed by the current token, if it carries one.
// It is informational: an expired token is only discovered when a call is rejected.
func (c *Controller) ExpiresAt() (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.expiresAt, !c.expiresAt.IsZero()
}

// Person identifies the signed-in administrator in log reports.
func (c *Controller) Person() core.Person {
	st := c.State()
	return core.Person{ID: st.Identity, Username: st.DisplayName(), Email: st.Identity}
}

// Subscribe registers fn to be called with every new state. The returned func unsubscribes.
func (c *Controller) Subscribe(fn func(State)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

func (c *Controller) publish() {
	c.mu.RLock()
	st := c.state
	subs := make([]func(State), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.RUnlock()

	for _, fn := range subs {
		fn(st)
	}
}

// Login submits the credentials and stores the returned token.
// Failures leave the state unchanged; the outcome is always notified.
func (c *Controller) Login(ctx context.Context, email, password string) bool {
	email = core.CleanString(email)
	token, err := c.auth.Login(ctx, email, password)
	if err != nil {
		c.logger.Error("login", err)
		core.NotifyError(c.notifier, MsgLoginFailedPrefix+core.LoginErrorMessage(err))
		return false
	}
	if err := c.store.Set(ctx, credential.Credential{Token: token, Email: email}); err != nil {
		c.logger.Error("storing credential", err)
		core.NotifyError(c.notifier, MsgLoginFailedPrefix+core.LoginErrorMessage(err))
		return false
	}

	claims := readClaims(token)
	c.mu.Lock()
	c.state.IsAuthenticated = true
	c.state.Identity = email
	c.expiresAt = claims.expiresAt
	c.mu.Unlock()
	c.publish()

	core.NotifySuccess(c.notifier, MsgLoginSucceeded)
	return true
}

// Register creates an account. It never signs the caller in.
func (c *Controller) Register(ctx context.Context, email, password string) bool {
	if err := c.auth.Register(ctx, core.CleanString(email), password); err != nil {
		c.logger.Error("register", err)
		core.NotifyError(c.notifier, core.DetailMessage(err, MsgRegisterFailed))
		return false
	}
	core.NotifySuccess(c.notifier, MsgRegistered)
	return true
}

// Logout clears the credential and signs the operator out. No network call is made.
// If the store cannot be cleared the session is left as is, since the token would still be sent.
func (c *Controller) Logout(ctx context.Context) bool {
	if err := c.store.Clear(ctx); err != nil {
		c.logger.Error("clearing credential", err, c.Person())
		core.NotifyError(c.notifier, MsgLogoutFailed)
		return false
	}

	c.mu.Lock()
	c.state.IsAuthenticated = false
	c.state.Identity = ""
	c.expiresAt = time.Time{}
	c.mu.Unlock()
	c.publish()

	core.NotifySuccess(c.notifier, MsgLoggedOut)
	return true
}

type tokenClaims struct {
	identity  string
	expiresAt time.Time
}

// readClaims decodes the token payload without verifying it. Opaque tokens yield no claims.
func readClaims(token string) tokenClaims {
	var out tokenClaims
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return out
	}
	for _, key := range []string{"email", "username", "sub"} {
		if v, ok := claims[key].(string); ok && v != "" {
			out.identity = v
			break
		}
	}
	if exp, ok := claims["exp"].(float64); ok {
		out.expiresAt = time.Unix(int64(exp), 0)
	}
	return out
}
