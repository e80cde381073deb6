package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/citsolutions/vpnportal/internal/server/services"
)

// RouterDeps collects everything the HTTP surface needs.
type RouterDeps struct {
	AuthService *services.AuthService
	Sessions    *services.SessionService
	PeerService *services.PeerService
	Users       services.UserStore
	DB          Pinger
}

// NewRouter builds the portal router: public login/MFA routes, the
// session-gated user surface and the superadmin peer surface.
func NewRouter(deps RouterDeps) chi.Router {
	authHandler := NewAuthHandler(deps.AuthService, deps.Sessions)
	mfaHandler := NewMfaHandler(deps.AuthService)
	peerHandler := NewPeerHandler(deps.PeerService)
	sessionMW := NewSessionMiddleware(deps.Sessions, deps.Users)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	r.Get("/healthz", Healthz(time.Now()))
	r.Get("/readyz", Readyz(deps.DB))

	// Public routes; /mfa is gated by the pending ticket, not a session.
	r.Get("/login", authHandler.LoginPage)
	r.Post("/login", authHandler.Login)
	r.Get("/mfa", mfaHandler.MfaPage)
	r.Post("/mfa", mfaHandler.VerifyMfa)

	// Session-protected routes.
	r.Group(func(r chi.Router) {
		r.Use(sessionMW.Handler)

		r.Get("/", HomePage)
		r.Post("/logout", authHandler.Logout)

		r.Route("/settings/mfa", func(r chi.Router) {
			r.Get("/", mfaHandler.SettingsPage)
			r.Get("/qr.png", mfaHandler.QRCode)
			r.Post("/confirm", mfaHandler.ConfirmEnrollment)
			r.Post("/disable", mfaHandler.DisableMfa)
		})

		// Superadmin surface.
		r.Group(func(r chi.Router) {
			r.Use(RequireSuperadmin)
			r.Get("/peers", peerHandler.ListPage)
			r.Post("/peers", peerHandler.Create)
			r.Post("/peers/{peer_id}/delete", peerHandler.Delete)
		})
	})

	return r
}
