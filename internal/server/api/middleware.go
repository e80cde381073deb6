package api

import (
	"context"
	"log"
	"net/http"

	"github.com/citsolutions/vpnportal/internal/server/services"
	"github.com/citsolutions/vpnportal/pkg/models"
)

type contextKey string

const principalKey contextKey = "principal"

// SessionMiddleware gates routes behind a valid portal session and loads the
// caller's Principal into the request context.
type SessionMiddleware struct {
	sessions *services.SessionService
	users    services.UserStore
}

func NewSessionMiddleware(sessions *services.SessionService, users services.UserStore) *SessionMiddleware {
	return &SessionMiddleware{sessions: sessions, users: users}
}

func (m *SessionMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := cookieValue(r, sessionCookieName)

		session, err := m.sessions.Enforce(r.Context(), token)
		if err != nil {
			log.Printf("Session enforcement failed: %v", err)
			respondErrorJSON(w, http.StatusInternalServerError, "session check failed")
			return
		}
		if session == nil {
			clearCookie(w, sessionCookieName)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		user, err := m.users.GetByID(r.Context(), session.UserID)
		if err != nil {
			log.Printf("User lookup for session failed: %v", err)
			respondErrorJSON(w, http.StatusInternalServerError, "session check failed")
			return
		}
		if user == nil || !user.Active {
			// Deactivation takes effect on the next request.
			if err := m.sessions.Revoke(r.Context(), token); err != nil {
				log.Printf("Failed to revoke session of deactivated user: %v", err)
			}
			clearCookie(w, sessionCookieName)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		principal := &models.Principal{Session: session, User: user}
		ctx := context.WithValue(r.Context(), principalKey, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireSuperadmin guards the admin surface. The session middleware must run
// first.
func RequireSuperadmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := GetPrincipal(r)
		if principal == nil || principal.User == nil || !principal.User.Superadmin {
			respondErrorJSON(w, http.StatusForbidden, "superadmin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func GetPrincipal(r *http.Request) *models.Principal {
	principal, ok := r.Context().Value(principalKey).(*models.Principal)
	if !ok {
		return nil
	}
	return principal
}
