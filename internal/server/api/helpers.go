package api

import (
	"encoding/json"
	"net"
	"net/http"
	"os"

	"github.com/citsolutions/vpnportal/pkg/models"
)

const (
	sessionCookieName = "portal_session"
	ticketCookieName  = "mfa_ticket"
)

func writeJSON(w http.ResponseWriter, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(data)
}

func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, data)
}

func respondErrorJSON(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, models.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}

func cookieSecure() bool {
	return os.Getenv("COOKIE_SECURE") == "true"
}

func setCookie(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   cookieSecure(),
		SameSite: http.SameSiteLaxMode,
	})
}

func clearCookie(w http.ResponseWriter, name string) {
	setCookie(w, name, "", -1)
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

// applyCookies performs the cookie operations an outcome carries. Redirects
// are left to the caller, which knows whether it is serving HTML or JSON.
func applyCookies(w http.ResponseWriter, out *models.Outcome) {
	if out.SessionToken != "" {
		setCookie(w, sessionCookieName, out.SessionToken, 0)
	}
	if out.MfaTicket != "" {
		setCookie(w, ticketCookieName, out.MfaTicket, int(out.TicketTTL.Seconds()))
	}
	if out.ClearTicket && out.MfaTicket == "" {
		clearCookie(w, ticketCookieName)
	}
	if out.ClearSession {
		clearCookie(w, sessionCookieName)
	}
}

// clientIP returns the caller address without the port. The RealIP middleware
// has already folded X-Forwarded-For into RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
