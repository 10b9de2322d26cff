// Package session owns the client-side authentication state.
//
// A Manager is the single writer of that state: only its transition methods mutate it,
// and readers get copies through the accessors. Every transition marks the manager busy
// while it runs and clears the flag on every exit path.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"city-tours/internal/identity"
	"city-tours/internal/models"

	"github.com/rs/zerolog/log"
)

// State is the authentication state of a session
type State int

const (
	StateRestoring State = iota
	StateAnonymous
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateRestoring:
		return "restoring"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Identity is the remote identity collaborator.
// GetCurrentUser returns a nil user and a nil error when there is no valid credential.
type Identity interface {
	SignUp(ctx context.Context, email, password string, attrs models.UserAttributes) (*models.AuthUser, error)
	SignInWithPassword(ctx context.Context, email, password string) (*models.AuthUser, error)
	SignOut(ctx context.Context) error
	GetCurrentUser(ctx context.Context) (*models.AuthUser, error)
	ResetPasswordForEmail(ctx context.Context, email string) (*models.PasswordReset, error)
}

// Snapshot is a consistent copy of the session state
type Snapshot struct {
	State   State
	User    *models.AuthUser
	Loading bool
	Error   string
}

// IsAuthenticated reports whether a user is present
func (s Snapshot) IsAuthenticated() bool {
	return s.User != nil
}

// Manager drives the session state machine
type Manager struct {
	identity Identity

	mu       sync.RWMutex
	state    State
	user     *models.AuthUser
	errMsg   string
	inflight int
}

// NewManager creates a manager in the Restoring state
func NewManager(id Identity) *Manager {
	return &Manager{identity: id, state: StateRestoring}
}

// RestoreSession asks the collaborator for an existing credential. It never fails:
// any collaborator error leaves the session anonymous with the error recorded.
func (m *Manager) RestoreSession(ctx context.Context) {
	m.begin()
	defer m.end()

	user, err := m.identity.GetCurrentUser(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case err != nil:
		m.setLocked(StateAnonymous, nil)
		m.errMsg = models.MessageOf(err, "could not restore session")
	case user != nil:
		m.setLocked(StateAuthenticated, user)
		m.errMsg = ""
	default:
		m.setLocked(StateAnonymous, nil)
	}
}

// SignUp registers a new account and authenticates it
func (m *Manager) SignUp(ctx context.Context, email, password, name string) error {
	m.begin()
	defer m.end()

	if strings.TrimSpace(email) == "" || password == "" || strings.TrimSpace(name) == "" {
		return m.fail(models.NewValidationError("email, password and name are required"), "")
	}
	if err := identity.ValidateCredentials(email, password); err != nil {
		return m.fail(err, "")
	}

	user, err := m.identity.SignUp(ctx, email, password, models.UserAttributes{Name: name})
	if err != nil {
		return m.fail(err, "could not sign up")
	}
	if user == nil {
		return nil
	}

	created := *user
	created.Name = &name
	created.AvatarURL = nil

	m.mu.Lock()
	defer m.mu.Unlock()
	m.setLocked(StateAuthenticated, &created)
	m.errMsg = ""
	return nil
}

// SignIn authenticates with e-mail and password. A failed attempt signs out any previous user.
func (m *Manager) SignIn(ctx context.Context, email, password string) error {
	m.begin()
	defer m.end()

	if strings.TrimSpace(email) == "" || password == "" {
		return m.fail(models.NewValidationError("email and password are required"), "")
	}

	user, err := m.identity.SignInWithPassword(ctx, email, password)
	if err == nil && user == nil {
		err = models.NewRemoteError("sign in returned no user", nil)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.setLocked(StateAnonymous, nil)
		m.errMsg = models.MessageOf(err, "could not sign in")
		return err
	}
	m.setLocked(StateAuthenticated, user)
	m.errMsg = ""
	return nil
}

// SignOut invalidates the remote session. On failure the current state is kept so the caller can retry.
func (m *Manager) SignOut(ctx context.Context) error {
	m.begin()
	defer m.end()

	if err := m.identity.SignOut(ctx); err != nil {
		return m.fail(err, "could not sign out")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.setLocked(StateAnonymous, nil)
	m.errMsg = ""
	return nil
}

// ResetPassword requests a password reset e-mail
func (m *Manager) ResetPassword(ctx context.Context, email string) (*models.PasswordReset, error) {
	m.begin()
	defer m.end()

	reset, err := m.identity.ResetPasswordForEmail(ctx, email)
	if err != nil {
		return nil, m.fail(err, "could not request password reset")
	}
	return reset, nil
}

// ClearError drops the recorded error
func (m *Manager) ClearError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errMsg = ""
}

// UpdateUser merges patch into the current user; it does nothing when no user is present
func (m *Manager) UpdateUser(patch models.UserPatch) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return
	}
	merged := patch.Apply(*m.user)
	m.user = copyUser(&merged)
}

// Snapshot returns a copy of the whole state
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		State:   m.state,
		User:    copyUser(m.user),
		Loading: m.inflight > 0,
		Error:   m.errMsg,
	}
}

// State returns the current state
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// User returns a copy of the current user, or nil
func (m *Manager) User() *models.AuthUser {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyUser(m.user)
}

// Loading reports whether a transition is running
func (m *Manager) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.inflight > 0
}

// Error returns the last recorded error message
func (m *Manager) Error() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.errMsg
}

// IsAuthenticated reports whether a user is present
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user != nil
}

// begin marks a transition as running and drops the error left by the previous one
func (m *Manager) begin() {
	m.mu.Lock()
	m.inflight++
	m.errMsg = ""
	m.mu.Unlock()
}

func (m *Manager) end() {
	m.mu.Lock()
	m.inflight--
	m.mu.Unlock()
}

// fail records err and returns it unchanged
func (m *Manager) fail(err error, fallback string) error {
	m.mu.Lock()
	m.errMsg = models.MessageOf(err, fallback)
	m.mu.Unlock()
	return err
}

// setLocked moves to state; the user is present exactly when authenticated
func (m *Manager) setLocked(state State, user *models.AuthUser) {
	if state != StateAuthenticated {
		user = nil
	}
	prev := m.state
	m.state = state
	m.user = copyUser(user)
	if prev != state {
		log.Debug().Stringer("from", prev).Stringer("to", state).Msg("Session state changed")
	}
}

func copyUser(u *models.AuthUser) *models.AuthUser {
	if u == nil {
		return nil
	}
	c := *u
	c.Name = copyString(u.Name)
	c.AvatarURL = copyString(u.AvatarURL)
	return &c
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
