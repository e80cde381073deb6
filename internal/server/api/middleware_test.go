package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/citsolutions/vpnportal/internal/server/services"
	"github.com/citsolutions/vpnportal/pkg/models"
)

type stubSessions struct {
	byToken map[string]*models.Session
}

func (s *stubSessions) Insert(_ context.Context, session *models.Session) error {
	session.ID = uuid.New()
	s.byToken[session.Token] = session
	return nil
}

func (s *stubSessions) GetByToken(_ context.Context, token string) (*models.Session, error) {
	return s.byToken[token], nil
}

func (s *stubSessions) Touch(_ context.Context, token string, at time.Time) error {
	if stored := s.byToken[token]; stored != nil {
		stored.LastActiveAt = at
	}
	return nil
}

func (s *stubSessions) Revoke(_ context.Context, token string) error {
	if stored := s.byToken[token]; stored != nil {
		stored.Revoked = true
	}
	return nil
}

func (s *stubSessions) RevokeExpired(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

type stubUsers struct {
	users map[uuid.UUID]*models.User
}

func (s *stubUsers) GetByUsername(_ context.Context, _ string) (*models.User, error) {
	return nil, nil
}

func (s *stubUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	return s.users[id], nil
}

func (s *stubUsers) UpdateLastLogin(_ context.Context, _ uuid.UUID, _ time.Time) error { return nil }
func (s *stubUsers) SetMfaSecret(_ context.Context, _ uuid.UUID, _ string) error       { return nil }
func (s *stubUsers) EnableMfa(_ context.Context, _ uuid.UUID) error                    { return nil }
func (s *stubUsers) DisableMfa(_ context.Context, _ uuid.UUID) error                   { return nil }

func newMiddlewareHarness(t *testing.T, superadmin bool) (http.Handler, string) {
	t.Helper()

	sessions := &stubSessions{byToken: make(map[string]*models.Session)}
	users := &stubUsers{users: make(map[uuid.UUID]*models.User)}

	user := &models.User{ID: uuid.New(), Username: "alice", Active: true, Superadmin: superadmin}
	users.users[user.ID] = user

	svc := services.NewSessionService(sessions)
	token, err := svc.Create(context.Background(), user.ID, "10.0.0.1", "test")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	mw := NewSessionMiddleware(svc, users)
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := GetPrincipal(r)
		if principal == nil || principal.User == nil {
			t.Error("handler reached without a principal")
		}
		w.WriteHeader(http.StatusOK)
	})
	return mw.Handler(RequireSuperadmin(inner)), token
}

func TestSessionMiddlewareRedirectsAnonymous(t *testing.T) {
	handler, _ := newMiddlewareHarness(t, true)

	req := httptest.NewRequest(http.MethodGet, "/peers", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want /login", loc)
	}
}

func TestSessionMiddlewareAcceptsValidSession(t *testing.T) {
	handler, token := newMiddlewareHarness(t, true)

	req := httptest.NewRequest(http.MethodGet, "/peers", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestRequireSuperadminRejectsRegularUser(t *testing.T) {
	handler, token := newMiddlewareHarness(t, false)

	req := httptest.NewRequest(http.MethodGet, "/peers", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestSessionMiddlewareRejectsRevokedSession(t *testing.T) {
	sessions := &stubSessions{byToken: make(map[string]*models.Session)}
	users := &stubUsers{users: make(map[uuid.UUID]*models.User)}
	user := &models.User{ID: uuid.New(), Username: "alice", Active: true}
	users.users[user.ID] = user

	svc := services.NewSessionService(sessions)
	token, err := svc.Create(context.Background(), user.ID, "10.0.0.1", "test")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Revoke(context.Background(), token); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	handler := NewSessionMiddleware(svc, users).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("revoked session reached the handler")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
}
