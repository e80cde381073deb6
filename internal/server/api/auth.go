package api

import (
	"log"
	"net/http"

	"github.com/citsolutions/vpnportal/internal/server/services"
)

type AuthHandler struct {
	authService *services.AuthService
	sessions    *services.SessionService
}

func NewAuthHandler(authService *services.AuthService, sessions *services.SessionService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		sessions:    sessions,
	}
}

type loginPageData struct {
	Title string
	Error string
}

func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	renderPage(w, loginTmpl, http.StatusOK, loginPageData{Title: "CITS VPN Portal — Sign in"})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		renderPage(w, loginTmpl, http.StatusBadRequest, loginPageData{
			Title: "CITS VPN Portal — Sign in",
			Error: "Invalid request.",
		})
		return
	}

	out, err := h.authService.Login(r.Context(),
		r.PostFormValue("username"), r.PostFormValue("password"),
		clientIP(r), r.UserAgent())
	if err != nil {
		log.Printf("Login failed: %v", err)
		renderPage(w, loginTmpl, http.StatusInternalServerError, loginPageData{
			Title: "CITS VPN Portal — Sign in",
			Error: "Something went wrong. Please try again.",
		})
		return
	}

	applyCookies(w, out)
	if out.OK() {
		http.Redirect(w, r, out.Redirect, http.StatusSeeOther)
		return
	}

	renderPage(w, loginTmpl, out.Status, loginPageData{
		Title: "CITS VPN Portal — Sign in",
		Error: out.Message,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := cookieValue(r, sessionCookieName); token != "" {
		if err := h.sessions.Revoke(r.Context(), token); err != nil {
			log.Printf("Failed to revoke session on logout: %v", err)
		}
	}
	clearCookie(w, sessionCookieName)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
