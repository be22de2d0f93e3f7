package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tasklink-app/tasklink-web/internal/models"
	"github.com/tasklink-app/tasklink-web/internal/upstream"
	"github.com/tasklink-app/tasklink-web/internal/wizard"
)

var (
	// ErrRequestInFlight signals a mutating call for this session is already
	// running. Every mutating action shares this one guard.
	ErrRequestInFlight = errors.New("session: request already in flight")
)

// State is the durable per-browser record: identity+token plus the ephemeral
// read-once markers the auth flows hand to the next page view.
type State struct {
	User         *models.User  `json:"user,omitempty"`
	Token        string        `json:"token,omitempty"`
	SelectedRole string        `json:"selectedRole,omitempty"`
	AuthError    string        `json:"authError,omitempty"`
	Flash        string        `json:"flash,omitempty"`
	Wizard       *wizard.State `json:"wizard,omitempty"`
}

// Authenticated holds by construction: identity present iff signed in. No
// intermediate authenticating identity is ever stored.
func (s *State) Authenticated() bool { return s.User != nil }

// Manager owns load/save of session records and the authentication
// operations. All durable-storage access goes through here.
type Manager struct {
	storage Storage
	codec   *Codec
	auth    *upstream.AuthAPI
	ttl     time.Duration
	log     *zap.Logger

	mu       sync.Mutex
	resumed  map[string]struct{}
	inFlight map[string]struct{}
}

func NewManager(storage Storage, codec *Codec, auth *upstream.AuthAPI, ttl time.Duration, log *zap.Logger) *Manager {
	return &Manager{
		storage:  storage,
		codec:    codec,
		auth:     auth,
		ttl:      ttl,
		log:      log,
		resumed:  make(map[string]struct{}),
		inFlight: make(map[string]struct{}),
	}
}

func (m *Manager) NewID() string { return uuid.NewString() }

// Begin claims the session's mutating-request slot. Callers must End in a
// deferred path.
func (m *Manager) Begin(sid string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.inFlight[sid]; busy {
		return false
	}
	m.inFlight[sid] = struct{}{}
	return true
}

func (m *Manager) End(sid string) {
	m.mu.Lock()
	delete(m.inFlight, sid)
	m.mu.Unlock()
}

// Load returns the session state, or an empty signed-out state when no record
// exists. A record that fails to unseal is treated as absent.
func (m *Manager) Load(ctx context.Context, sid string) (*State, error) {
	sealed, err := m.storage.Get(ctx, sid)
	if errors.Is(err, ErrNotFound) {
		return &State{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: load: %w", err)
	}
	plain, err := m.codec.Open(sealed)
	if err != nil {
		m.log.Warn("discarding unreadable session record", zap.String("sid", sid), zap.Error(err))
		_ = m.storage.Delete(ctx, sid)
		return &State{}, nil
	}
	var st State
	if err := json.Unmarshal(plain, &st); err != nil {
		_ = m.storage.Delete(ctx, sid)
		return &State{}, nil
	}
	return &st, nil
}

func (m *Manager) Save(ctx context.Context, sid string, st *State) error {
	plain, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}
	sealed, err := m.codec.Seal(plain)
	if err != nil {
		return err
	}
	return m.storage.Set(ctx, sid, sealed, m.ttl)
}

// Login authenticates against the upstream and persists identity + token.
// Upstream failure messages pass through untouched; there is no retry.
func (m *Manager) Login(ctx context.Context, sid, email, password string) (*models.User, error) {
	if !m.Begin(sid) {
		return nil, ErrRequestInFlight
	}
	defer m.End(sid)

	res, err := m.auth.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	st, err := m.Load(ctx, sid)
	if err != nil {
		return nil, err
	}
	st.User = &res.User
	st.Token = res.Token
	m.markResumed(sid)
	if err := m.Save(ctx, sid, st); err != nil {
		return nil, err
	}
	return st.User, nil
}

func (m *Manager) Register(ctx context.Context, sid string, payload upstream.RegisterPayload) (*models.User, error) {
	if !m.Begin(sid) {
		return nil, ErrRequestInFlight
	}
	defer m.End(sid)

	res, err := m.auth.Register(ctx, payload)
	if err != nil {
		return nil, err
	}
	st, err := m.Load(ctx, sid)
	if err != nil {
		return nil, err
	}
	st.User = &res.User
	st.Token = res.Token
	m.markResumed(sid)
	if err := m.Save(ctx, sid, st); err != nil {
		return nil, err
	}
	return st.User, nil
}

// Logout invalidates upstream best-effort, then clears identity and token
// unconditionally. A failed upstream call is logged, never propagated.
func (m *Manager) Logout(ctx context.Context, sid string) error {
	st, err := m.Load(ctx, sid)
	if err != nil {
		return err
	}
	if st.Token != "" {
		if err := m.auth.Logout(ctx, st.Token); err != nil {
			m.log.Warn("upstream logout failed", zap.String("sid", sid), zap.Error(err))
		}
	}
	st.User = nil
	st.Token = ""
	st.Wizard = nil
	return m.Save(ctx, sid, st)
}

// SetUser replaces the in-memory identity directly. Used by flows that have
// already validated state with the upstream (OAuth callback, wizard submit).
func (m *Manager) SetUser(ctx context.Context, sid string, user *models.User) error {
	st, err := m.Load(ctx, sid)
	if err != nil {
		return err
	}
	st.User = user
	if user == nil {
		st.Token = ""
	}
	return m.Save(ctx, sid, st)
}

// Adopt persists a verified identity together with its bearer token.
func (m *Manager) Adopt(ctx context.Context, sid string, user *models.User, token string) error {
	st, err := m.Load(ctx, sid)
	if err != nil {
		return err
	}
	st.User = user
	st.Token = token
	m.markResumed(sid)
	return m.Save(ctx, sid, st)
}

// Resume re-validates a persisted identity the first time a session is
// touched after process start. Any failure clears identity and token and
// falls back to signed-out; a token whose exp already passed is cleared
// without a network call.
func (m *Manager) Resume(ctx context.Context, sid string) (*State, error) {
	st, err := m.Load(ctx, sid)
	if err != nil {
		return nil, err
	}
	if st.User == nil || st.Token == "" {
		if st.User != nil || st.Token != "" {
			// never leave a half pair behind
			st.User = nil
			st.Token = ""
			_ = m.Save(ctx, sid, st)
		}
		return st, nil
	}
	if m.isResumed(sid) {
		return st, nil
	}

	if tokenExpired(st.Token) {
		st.User = nil
		st.Token = ""
		_ = m.Save(ctx, sid, st)
		return st, nil
	}

	user, err := m.auth.Me(ctx, st.Token)
	if err != nil {
		m.log.Info("session re-validation failed, signing out", zap.String("sid", sid), zap.Error(err))
		st.User = nil
		st.Token = ""
		_ = m.Save(ctx, sid, st)
		return st, nil
	}
	st.User = user
	m.markResumed(sid)
	if err := m.Save(ctx, sid, st); err != nil {
		return nil, err
	}
	return st, nil
}

// SetSelectedRole writes the pending-role intent consumed once by the OAuth
// callback.
func (m *Manager) SetSelectedRole(ctx context.Context, sid, role string) error {
	st, err := m.Load(ctx, sid)
	if err != nil {
		return err
	}
	st.SelectedRole = role
	return m.Save(ctx, sid, st)
}

// ConsumeSelectedRole reads and clears the pending-role intent in one step.
// It must be cleared whether or not the caller ends up using it.
func (m *Manager) ConsumeSelectedRole(ctx context.Context, sid string) (string, error) {
	st, err := m.Load(ctx, sid)
	if err != nil {
		return "", err
	}
	role := st.SelectedRole
	if role == "" {
		return "", nil
	}
	st.SelectedRole = ""
	if err := m.Save(ctx, sid, st); err != nil {
		return "", err
	}
	return role, nil
}

func (m *Manager) SetAuthError(ctx context.Context, sid, msg string) error {
	st, err := m.Load(ctx, sid)
	if err != nil {
		return err
	}
	st.AuthError = msg
	return m.Save(ctx, sid, st)
}

// ConsumeAuthError reads and clears the existing-account marker. The
// role-selection view is its only reader.
func (m *Manager) ConsumeAuthError(ctx context.Context, sid string) (string, error) {
	st, err := m.Load(ctx, sid)
	if err != nil {
		return "", err
	}
	msg := st.AuthError
	if msg == "" {
		return "", nil
	}
	st.AuthError = ""
	if err := m.Save(ctx, sid, st); err != nil {
		return "", err
	}
	return msg, nil
}

func (m *Manager) SetFlash(ctx context.Context, sid, msg string) error {
	st, err := m.Load(ctx, sid)
	if err != nil {
		return err
	}
	st.Flash = msg
	return m.Save(ctx, sid, st)
}

func (m *Manager) ConsumeFlash(ctx context.Context, sid string) (string, error) {
	st, err := m.Load(ctx, sid)
	if err != nil {
		return "", err
	}
	msg := st.Flash
	if msg == "" {
		return "", nil
	}
	st.Flash = ""
	if err := m.Save(ctx, sid, st); err != nil {
		return "", err
	}
	return msg, nil
}

func (m *Manager) markResumed(sid string) {
	m.mu.Lock()
	m.resumed[sid] = struct{}{}
	m.mu.Unlock()
}

func (m *Manager) isResumed(sid string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.resumed[sid]
	return ok
}

// tokenExpired inspects the bearer token's exp claim without verifying the
// signature. The gateway holds no signing key; the upstream stays the
// authority, this only avoids a doomed round trip.
func tokenExpired(token string) bool {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		// opaque tokens go to the upstream for the verdict
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
