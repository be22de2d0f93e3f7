package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/tasklink-app/tasklink-web/internal/models"
	"github.com/tasklink-app/tasklink-web/internal/upstream"
)

func userFixture() *models.User {
	return &models.User{
		ID:               "u1",
		Name:             "Alice",
		Email:            "a@b.com",
		Role:             models.RoleAgent,
		ProfileCompleted: true,
	}
}

const testKey = "0123456789abcdef0123456789abcdef"

// fakeUpstream is a minimal stand-in for the marketplace API: fixed responses
// per path, call counting for the best-effort paths.
type fakeUpstream struct {
	mux         *http.ServeMux
	logoutCalls int
	meFails     bool
}

func newFakeUpstream(t *testing.T) (*fakeUpstream, *httptest.Server) {
	t.Helper()
	f := &fakeUpstream{mux: http.NewServeMux()}

	f.mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Email != "a@b.com" || body.Password != "pw123" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": false, "message": "Identifiants invalides",
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"user":  map[string]any{"id": "u1", "name": "Alice", "email": "a@b.com", "role": "agent", "profileCompleted": true},
				"token": "t1",
			},
		})
	})

	f.mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		f.logoutCalls++
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "boom"})
	})

	f.mux.HandleFunc("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if f.meFails {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "Token invalide"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"user": map[string]any{"id": "u1", "name": "Alice Renamed", "email": "a@b.com", "role": "agent", "profileCompleted": true},
			},
		})
	})

	srv := httptest.NewServer(f.mux)
	t.Cleanup(srv.Close)
	return f, srv
}

func newTestManager(t *testing.T, baseURL string) *Manager {
	t.Helper()
	codec, err := NewCodec(testKey)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	log := zap.NewNop()
	auth := &upstream.AuthAPI{Client: upstream.New(baseURL, log)}
	return NewManager(NewMemoryStorage(), codec, auth, time.Hour, log)
}

func TestLoginPersistsIdentity(t *testing.T) {
	_, srv := newFakeUpstream(t)
	m := newTestManager(t, srv.URL)
	ctx := context.Background()
	sid := m.NewID()

	user, err := m.Login(ctx, sid, "a@b.com", "pw123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.ID != "u1" || user.Role != "agent" {
		t.Fatalf("unexpected user: %+v", user)
	}

	st, err := m.Load(ctx, sid)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !st.Authenticated() || st.Token != "t1" {
		t.Fatalf("identity not persisted: %+v", st)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	_, srv := newFakeUpstream(t)
	m := newTestManager(t, srv.URL)
	ctx := context.Background()
	sid := m.NewID()

	_, err := m.Login(ctx, sid, "a@b.com", "wrong")
	if err == nil {
		t.Fatal("bad credentials accepted")
	}
	var upErr *upstream.Error
	if !asUpstreamError(err, &upErr) || upErr.Message != "Identifiants invalides" {
		t.Fatalf("upstream message not carried through: %v", err)
	}

	st, _ := m.Load(ctx, sid)
	if st.Authenticated() || st.Token != "" {
		t.Fatalf("failed login left identity behind: %+v", st)
	}
}

func TestLogoutClearsEvenWhenUpstreamFails(t *testing.T) {
	f, srv := newFakeUpstream(t)
	m := newTestManager(t, srv.URL)
	ctx := context.Background()
	sid := m.NewID()

	if _, err := m.Login(ctx, sid, "a@b.com", "pw123"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := m.Logout(ctx, sid); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if f.logoutCalls != 1 {
		t.Fatalf("upstream logout calls = %d, want 1", f.logoutCalls)
	}

	st, _ := m.Load(ctx, sid)
	if st.Authenticated() || st.Token != "" {
		t.Fatalf("logout left identity behind: %+v", st)
	}
}

func TestResumeRevalidatesOnce(t *testing.T) {
	_, srv := newFakeUpstream(t)
	m := newTestManager(t, srv.URL)
	ctx := context.Background()
	sid := m.NewID()

	// a record persisted by a previous process: not in the resumed set
	st := &State{Token: "t1"}
	st.User = userFixture()
	if err := m.Save(ctx, sid, st); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := m.Resume(ctx, sid)
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if !got.Authenticated() {
		t.Fatal("valid session signed out on resume")
	}
	if got.User.Name != "Alice Renamed" {
		t.Fatalf("identity not refreshed from upstream: %+v", got.User)
	}
}

func TestResumeClearsOnRevalidationFailure(t *testing.T) {
	f, srv := newFakeUpstream(t)
	f.meFails = true
	m := newTestManager(t, srv.URL)
	ctx := context.Background()
	sid := m.NewID()

	st := &State{Token: "t1", User: userFixture()}
	if err := m.Save(ctx, sid, st); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := m.Resume(ctx, sid)
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if got.Authenticated() || got.Token != "" {
		t.Fatalf("invalid session survived resume: %+v", got)
	}

	// and the cleared state is durable
	reloaded, _ := m.Load(ctx, sid)
	if reloaded.Authenticated() || reloaded.Token != "" {
		t.Fatalf("cleared state not persisted: %+v", reloaded)
	}
}

func TestResumeClearsHalfPair(t *testing.T) {
	_, srv := newFakeUpstream(t)
	m := newTestManager(t, srv.URL)
	ctx := context.Background()
	sid := m.NewID()

	// token without identity
	if err := m.Save(ctx, sid, &State{Token: "t1"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := m.Resume(ctx, sid)
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if got.Authenticated() || got.Token != "" {
		t.Fatalf("half pair survived: %+v", got)
	}
}

func TestResumeSkipsExpiredTokenWithoutNetwork(t *testing.T) {
	m := newTestManager(t, "http://127.0.0.1:0")
	ctx := context.Background()
	sid := m.NewID()

	expired := signedToken(t, time.Now().Add(-time.Hour))
	if err := m.Save(ctx, sid, &State{Token: expired, User: userFixture()}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// the upstream address is unreachable: resume must not need it
	got, err := m.Resume(ctx, sid)
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if got.Authenticated() || got.Token != "" {
		t.Fatalf("expired token survived: %+v", got)
	}
}

func TestInFlightGuard(t *testing.T) {
	_, srv := newFakeUpstream(t)
	m := newTestManager(t, srv.URL)
	sid := m.NewID()

	if !m.Begin(sid) {
		t.Fatal("first Begin refused")
	}
	if _, err := m.Login(context.Background(), sid, "a@b.com", "pw123"); err != ErrRequestInFlight {
		t.Fatalf("concurrent login error = %v, want ErrRequestInFlight", err)
	}
	m.End(sid)
	if _, err := m.Login(context.Background(), sid, "a@b.com", "pw123"); err != nil {
		t.Fatalf("login after End: %v", err)
	}
}

func TestConsumeMarkersReadOnce(t *testing.T) {
	_, srv := newFakeUpstream(t)
	m := newTestManager(t, srv.URL)
	ctx := context.Background()
	sid := m.NewID()

	if err := m.SetSelectedRole(ctx, sid, "agent"); err != nil {
		t.Fatalf("SetSelectedRole: %v", err)
	}
	role, err := m.ConsumeSelectedRole(ctx, sid)
	if err != nil || role != "agent" {
		t.Fatalf("first consume = %q, %v", role, err)
	}
	role, err = m.ConsumeSelectedRole(ctx, sid)
	if err != nil || role != "" {
		t.Fatalf("second consume = %q, %v, want empty", role, err)
	}

	if err := m.SetAuthError(ctx, sid, "existing account"); err != nil {
		t.Fatalf("SetAuthError: %v", err)
	}
	msg, _ := m.ConsumeAuthError(ctx, sid)
	if msg != "existing account" {
		t.Fatalf("first consume = %q", msg)
	}
	msg, _ = m.ConsumeAuthError(ctx, sid)
	if msg != "" {
		t.Fatalf("second consume = %q, want empty", msg)
	}
}

func TestLoadDiscardsUnreadableRecord(t *testing.T) {
	_, srv := newFakeUpstream(t)
	m := newTestManager(t, srv.URL)
	ctx := context.Background()
	sid := m.NewID()

	if err := m.storage.Set(ctx, sid, []byte("garbage that will not unseal"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	st, err := m.Load(ctx, sid)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if st.Authenticated() {
		t.Fatal("garbage record produced an identity")
	}
	if _, err := m.storage.Get(ctx, sid); err != ErrNotFound {
		t.Fatalf("garbage record not deleted: %v", err)
	}
}

func asUpstreamError(err error, target **upstream.Error) bool {
	e, ok := err.(*upstream.Error)
	if ok {
		*target = e
	}
	return ok
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": exp.Unix(),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}
