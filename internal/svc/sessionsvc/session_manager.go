// Package sessionsvc owns the authentication state of the client. The Manager
// is the only writer of the persisted session token.
package sessionsvc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/mkrupp/chatapp/internal/domain"
	"github.com/mkrupp/chatapp/internal/infra/logging"
	"github.com/mkrupp/chatapp/internal/platform"
	"github.com/mkrupp/chatapp/internal/repo/token"
	"github.com/mkrupp/chatapp/internal/svc/sessionsvc/accountclient"
)

const (
	titleLoginFailed        = "Login Failed"
	titleLoginError         = "Login Error"
	titleRegistrationFailed = "Registration Failed"
	titleRegistrationError  = "Registration Error"

	msgInvalidCredentials    = "Invalid email or password."
	msgEmailRegistered       = "Email is already registered."
	msgLoginErrorFallback    = "Unable to login"
	msgRegisterErrorFallback = "Unable to register"
)

// Manager is the session manager. It is safe for concurrent use. At most one
// of Initialize, SignIn, SignUp and SignOut runs at a time: Initialize, SignIn
// and SignUp fail fast with domain.ErrBusy, SignOut waits for its turn.
type Manager struct {
	accounts accountclient.AccountClient
	tokens   token.Repository
	alerter  platform.Alerter
	log      logging.Logger

	op   sync.Mutex // held for the whole of an operation
	busy atomic.Bool

	mu        sync.RWMutex
	token     string
	pending   bool // sign-in or sign-up in flight
	observers map[int]func(domain.Session)
	nextObs   int
}

// Option configures a Manager.
type Option func(*Manager)

// WithAlerter routes user-visible failures to a.
func WithAlerter(a platform.Alerter) Option {
	return func(m *Manager) {
		m.alerter = a
	}
}

// NewManager creates a Manager in the Unauthenticated state. Call Initialize to
// restore a persisted session.
func NewManager(accounts accountclient.AccountClient, tokens token.Repository, opts ...Option) *Manager {
	m := &Manager{
		accounts:  accounts,
		tokens:    tokens,
		alerter:   platform.NopAlerter{},
		log:       logging.GetLogger("svc.sessionsvc.session_manager"),
		observers: map[int]func(domain.Session){},
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Session returns a snapshot of the current session.
func (m *Manager) Session() domain.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return domain.Session{Token: m.token, Busy: m.busy.Load()}
}

// Token returns the in-memory session token, empty when signed out.
func (m *Manager) Token() string {
	return m.Session().Token
}

// Busy reports whether an operation is in flight.
func (m *Manager) Busy() bool {
	return m.busy.Load()
}

// State returns the current state of the authentication state machine.
func (m *Manager) State() domain.SessionState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	switch {
	case m.pending:
		return domain.StateAuthenticating
	case m.token != "":
		return domain.StateAuthenticated
	default:
		return domain.StateUnauthenticated
	}
}

// Subscribe registers fn to be called with a snapshot after every change of the
// token or the busy flag. The returned function removes the subscription.
func (m *Manager) Subscribe(fn func(domain.Session)) (cancel func()) {
	m.mu.Lock()
	id := m.nextObs
	m.nextObs++
	m.observers[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.observers, id)
		m.mu.Unlock()
	}
}

// Initialize restores the persisted token. A read failure is logged and leaves
// the session unauthenticated. Calling it again re-reads the store.
func (m *Manager) Initialize(ctx context.Context) {
	if err := m.tryBegin(ctx, false); err != nil {
		m.log.WarnContext(ctx, "initialize skipped", "error", err)

		return
	}
	defer m.end(ctx)

	value, ok, err := m.tokens.Get(ctx, domain.TokenKey)
	if err != nil {
		m.log.ErrorContext(ctx, "read token failed", "error", err)

		return
	}

	if !ok || value == "" {
		m.log.DebugContext(ctx, "no persisted session")

		return
	}

	m.setToken(value)
	m.log.DebugContext(ctx, "session restored")
}

// SignIn authenticates against the account service and activates the derived token.
// Failures are alerted and returned; the session is left unchanged on failure.
func (m *Manager) SignIn(ctx context.Context, creds domain.Credentials) (err error) {
	log := m.log.With(logging.Group("user", "email", creds.Email))

	if err := m.tryBegin(ctx, true); err != nil {
		return err
	}
	defer m.end(ctx)

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "sign in failed", "error", err)
		} else {
			log.DebugContext(ctx, "signed in")
		}
	}()

	users, err := m.accounts.FindUsers(ctx, domain.FilterByCredentials(creds.Email, creds.Password))
	if err != nil {
		m.alerter.Alert(ctx, titleLoginError, alertMessage(err, msgLoginErrorFallback))

		return fmt.Errorf("find users: %w", err)
	}

	if len(users) == 0 {
		m.alerter.Alert(ctx, titleLoginFailed, msgInvalidCredentials)

		return domain.ErrInvalidCredentials
	}

	m.activate(ctx, domain.DeriveToken(users[0]))

	return nil
}

// SignUp creates an account and activates the derived token. The email is
// checked for an existing account before anything is created.
func (m *Manager) SignUp(ctx context.Context, reg domain.Registration) (err error) {
	log := m.log.With(logging.Group("user", "email", reg.Email))

	if err := m.tryBegin(ctx, true); err != nil {
		return err
	}
	defer m.end(ctx)

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "sign up failed", "error", err)
		} else {
			log.DebugContext(ctx, "signed up")
		}
	}()

	existing, err := m.accounts.FindUsers(ctx, domain.FilterByEmail(reg.Email))
	if err != nil {
		m.alerter.Alert(ctx, titleRegistrationError, alertMessage(err, msgRegisterErrorFallback))

		return fmt.Errorf("find users: %w", err)
	}

	if len(existing) > 0 {
		m.alerter.Alert(ctx, titleRegistrationFailed, msgEmailRegistered)

		return domain.ErrEmailAlreadyRegistered
	}

	created, err := m.accounts.CreateUser(ctx, domain.NewUser{
		Name:     reg.Name,
		Email:    reg.Email,
		Password: reg.Password,
	})
	if err != nil {
		m.alerter.Alert(ctx, titleRegistrationError, alertMessage(err, msgRegisterErrorFallback))

		return fmt.Errorf("create user: %w", err)
	}

	m.activate(ctx, domain.DeriveToken(*created))

	return nil
}

// SignOut removes the persisted token and clears the session. A running
// operation is waited for first. It always ends unauthenticated; a store
// failure is only logged.
func (m *Manager) SignOut(ctx context.Context) {
	if m.busy.Load() {
		m.log.DebugContext(ctx, "sign out queued")
	}

	m.op.Lock()
	m.begin(ctx, false)
	defer m.end(ctx)

	if err := m.tokens.Remove(ctx, domain.TokenKey); err != nil {
		m.log.ErrorContext(ctx, "remove token failed", "error", err)
	}

	m.setToken("")
	m.log.DebugContext(ctx, "signed out")
}

// activate persists tok and makes it the session token. The in-memory token is
// set even when persisting fails.
func (m *Manager) activate(ctx context.Context, tok string) {
	if err := m.tokens.Set(ctx, domain.TokenKey, tok); err != nil {
		m.log.ErrorContext(ctx, "persist token failed", "error", err)
	}

	m.setToken(tok)
}

// tryBegin starts an operation or fails with domain.ErrBusy.
func (m *Manager) tryBegin(ctx context.Context, authenticating bool) error {
	if !m.op.TryLock() {
		return domain.ErrBusy
	}

	m.begin(ctx, authenticating)

	return nil
}

// begin marks the session busy. m.op must be held.
func (m *Manager) begin(ctx context.Context, authenticating bool) {
	m.mu.Lock()
	m.pending = authenticating
	m.mu.Unlock()

	m.busy.Store(true)
	m.notify(ctx)
}

// end clears the busy flag and releases m.op.
func (m *Manager) end(ctx context.Context) {
	defer m.op.Unlock()

	m.mu.Lock()
	m.pending = false
	m.mu.Unlock()

	m.busy.Store(false)
	m.notify(ctx)
}

func (m *Manager) setToken(tok string) {
	m.mu.Lock()
	m.token = tok
	m.mu.Unlock()
}

func (m *Manager) notify(ctx context.Context) {
	m.mu.RLock()
	snapshot := domain.Session{Token: m.token, Busy: m.busy.Load()}
	observers := make([]func(domain.Session), 0, len(m.observers))

	for _, fn := range m.observers {
		observers = append(observers, fn)
	}
	m.mu.RUnlock()

	m.log.DebugContext(ctx, "session changed", "authenticated", snapshot.Authenticated(), "busy", snapshot.Busy)

	for _, fn := range observers {
		fn(snapshot)
	}
}

// alertMessage picks the text shown for a transport failure: the status line
// of a failed response, else the cause joined to domain.ErrTransport, else fallback.
func alertMessage(err error, fallback string) string {
	var statusErr *accountclient.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Error()
	}

	if cause := transportCause(err); cause != nil && cause.Error() != "" {
		return cause.Error()
	}

	return fallback
}

func transportCause(err error) error {
	for err != nil {
		if joined, ok := err.(interface{ Unwrap() []error }); ok { //nolint:errorlint
			for _, e := range joined.Unwrap() {
				if !errors.Is(e, domain.ErrTransport) {
					return e
				}
			}

			return nil
		}

		err = errors.Unwrap(err)
	}

	return nil
}
