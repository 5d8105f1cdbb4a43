package session

import (
	"context"
	"encoding/json"
	"sync"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/lms"
)

// Authenticator is the part of lms.API the Store talks to.
type Authenticator interface {
	Authenticate(ctx context.Context, creds lms.Credentials) (lms.AuthResult, error)
	CreateAccount(ctx context.Context, acct lms.NewAccount) (lms.AccountResult, error)
}

type Options struct {
	Logger        core.Logger
	Validate      *validator.Validate
	Translator    ut.Translator
	LoginFallback string // core.LoginFallbackStudent (default) | core.LoginFallbackReject
}

// Store is the single source of truth for who is logged in.
// It is created once by the top-level initializer and handed to every page.
type Store struct {
	auth    Authenticator
	persist Persistence
	opts    Options

	restoreOnce sync.Once

	mu        sync.RWMutex
	user      *Session
	isLoading bool
}

func NewStore(auth Authenticator, persist Persistence, opts Options) *Store {
	if opts.Logger == nil {
		opts.Logger = core.NopLogger{}
	}
	if opts.Translator == nil {
		opts.Translator = core.NewTranslator()
	}
	if opts.Validate == nil {
		opts.Validate = core.NewValidate(opts.Translator)
	}
	if opts.LoginFallback == "" {
		opts.LoginFallback = core.LoginFallbackStudent
	}
	return &Store{
		auth:      auth,
		persist:   persist,
		opts:      opts,
		isLoading: true,
	}
}

// User returns a copy of the current session, nil when logged out.
func (st *Store) User() *Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if st.user == nil {
		return nil
	}
	usr := *st.user
	return &usr
}

func (st *Store) IsLoading() bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.isLoading
}

func (st *Store) IsEditor() bool {
	return st.User().IsEditor()
}

// Token returns the persisted auth token, empty when absent or unreadable.
func (st *Store) Token() string {
	token, ok, err := st.persist.Get(KeyToken)
	if err != nil {
		st.opts.Logger.Warn("reading auth token", errors.Wrap(err, "reading auth token"))
		return ""
	}
	if !ok {
		return ""
	}
	return token
}

// Restore loads the persisted session, once per Store. Malformed records are discarded.
// The loading flag is cleared whatever happens.
func (st *Store) Restore() {
	st.restoreOnce.Do(func() {
		usr := st.readPersistedUser()

		st.mu.Lock()
		defer st.mu.Unlock()
		st.user = usr
		st.isLoading = false
	})
}

func (st *Store) readPersistedUser() *Session {
	raw, ok, err := st.persist.Get(KeyUser)
	if err != nil {
		st.opts.Logger.Warn("reading persisted session", errors.Wrap(err, "reading persisted session"))
		return nil
	}
	if !ok || raw == "" {
		return nil
	}
	var usr Session
	if err := json.Unmarshal([]byte(raw), &usr); err != nil {
		st.opts.Logger.Warn("discarding malformed persisted session", errors.Wrap(err, "decoding persisted session"))
		return nil
	}
	if !usr.valid() {
		st.opts.Logger.Warn("discarding incomplete persisted session")
		return nil
	}
	return &usr
}

// Login authenticates against the backend and reports whether it accepted the credentials.
// Any response replaces the session, ok or not; the returned flag is the backend's.
// Transport and HTTP failures are returned as errors; callers show one generic message for both.
func (st *Store) Login(ctx context.Context, email, password string) (bool, error) {
	res, err := st.auth.Authenticate(ctx, lms.Credentials{Email: email, Password: password})
	if err != nil {
		return false, errors.Wrap(err, "authenticating")
	}

	var next Session
	switch {
	case res.User != nil:
		next = Session{Email: res.User.Email, Role: res.User.Role}
	case st.opts.LoginFallback == core.LoginFallbackReject:
		st.opts.Logger.Warn("login response has no user; refusing to assume a role", map[string]interface{}{"email": email})
		return false, nil
	default:
		next = Session{Email: email, Role: lms.RoleStudent}
	}

	st.mu.Lock()
	st.user = &next
	st.isLoading = false
	st.mu.Unlock()

	// persistence is best-effort: a failure only costs the session on next start
	if data, err := json.Marshal(next); err == nil {
		if err := st.persist.Set(KeyUser, string(data)); err != nil {
			st.opts.Logger.Warn("persisting session", errors.Wrap(err, "persisting session"), next)
		}
	}
	if res.Token != "" {
		if err := st.persist.Set(KeyToken, res.Token); err != nil {
			st.opts.Logger.Warn("persisting auth token", errors.Wrap(err, "persisting auth token"), next)
		}
	}
	return res.OK, nil
}

// Register creates another account. It never touches the current session or token:
// an admin creating accounts stays logged in as themselves.
func (st *Store) Register(ctx context.Context, name, email, password, role string) (bool, error) {
	acct := lms.NewAccount{
		Name:     core.CleanString(name),
		Email:    core.CleanString(email, true /* lower */),
		Password: password,
		Role:     core.CleanString(role, true /* lower */),
	}
	if err := core.ValidateStruct(st.opts.Validate, st.opts.Translator, acct); err != nil {
		return false, err
	}
	res, err := st.auth.CreateAccount(ctx, acct)
	if err != nil {
		return false, errors.Wrap(err, "creating account")
	}
	return res.OK, nil
}

// Logout clears the session and both persisted records. Safe to call when logged out.
func (st *Store) Logout() {
	st.mu.Lock()
	prev := st.user
	st.user = nil
	st.mu.Unlock()

	for _, key := range []string{KeyUser, KeyToken} {
		if err := st.persist.Delete(key); err != nil {
			args := []interface{}{errors.Wrapf(err, "deleting %s", key)}
			if prev != nil {
				args = append(args, *prev)
			}
			st.opts.Logger.Warn("clearing persisted session", args...)
		}
	}
}
