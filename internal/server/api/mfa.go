package api

import (
	"log"
	"net/http"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/citsolutions/vpnportal/internal/server/services"
)

const qrSizePixels = 220

type MfaHandler struct {
	authService *services.AuthService
}

func NewMfaHandler(authService *services.AuthService) *MfaHandler {
	return &MfaHandler{authService: authService}
}

type mfaVerifyPageData struct {
	Title    string
	Username string
	Error    string
}

type mfaSettingsPageData struct {
	Title   string
	Enabled bool
	Secret  string
	UserID  string
	Error   string
}

// MfaPage renders the verification form for a pending login. Anything wrong
// with the ticket sends the caller back to the login page.
func (h *MfaHandler) MfaPage(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.TicketUser(r.Context(), cookieValue(r, ticketCookieName))
	if err != nil {
		log.Printf("Ticket lookup failed: %v", err)
		respondErrorJSON(w, http.StatusInternalServerError, "ticket check failed")
		return
	}
	if user == nil {
		clearCookie(w, ticketCookieName)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	renderPage(w, mfaVerifyTmpl, http.StatusOK, mfaVerifyPageData{
		Title:    "CITS VPN Portal — MFA",
		Username: user.Username,
	})
}

func (h *MfaHandler) VerifyMfa(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/mfa", http.StatusSeeOther)
		return
	}
	ticket := cookieValue(r, ticketCookieName)

	out, err := h.authService.VerifyMfa(r.Context(), ticket, r.PostFormValue("code"), clientIP(r), r.UserAgent())
	if err != nil {
		log.Printf("MFA verification failed: %v", err)
		respondErrorJSON(w, http.StatusInternalServerError, "verification failed")
		return
	}

	applyCookies(w, out)
	// A redirect wins even for the expired-ticket outcome: the caller goes
	// back to the login page rather than seeing an error here.
	if out.Redirect != "" {
		http.Redirect(w, r, out.Redirect, http.StatusSeeOther)
		return
	}

	data := mfaVerifyPageData{Title: "CITS VPN Portal — MFA", Error: out.Message}
	if user, err := h.authService.TicketUser(r.Context(), ticket); err == nil && user != nil {
		data.Username = user.Username
	}
	renderPage(w, mfaVerifyTmpl, out.Status, data)
}

// SettingsPage renders enrollment material for the logged-in user. The
// pending secret is created here if it does not exist yet.
func (h *MfaHandler) SettingsPage(w http.ResponseWriter, r *http.Request) {
	principal := GetPrincipal(r)

	view, err := h.authService.BeginMfaEnrollment(r.Context(), principal.User)
	if err != nil {
		log.Printf("MFA enrollment failed: %v", err)
		respondErrorJSON(w, http.StatusInternalServerError, "enrollment failed")
		return
	}

	renderPage(w, mfaSettingsTmpl, http.StatusOK, mfaSettingsPageData{
		Title:   "CITS VPN Portal — MFA Setup",
		Enabled: view.AlreadyEnabled,
		Secret:  view.Secret,
		UserID:  principal.User.ID.String(),
	})
}

func (h *MfaHandler) ConfirmEnrollment(w http.ResponseWriter, r *http.Request) {
	principal := GetPrincipal(r)
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/settings/mfa", http.StatusSeeOther)
		return
	}

	out, err := h.authService.ConfirmMfaEnrollment(r.Context(), principal.User, r.PostFormValue("code"))
	if err != nil {
		log.Printf("MFA confirmation failed: %v", err)
		respondErrorJSON(w, http.StatusInternalServerError, "confirmation failed")
		return
	}
	if out.OK() {
		http.Redirect(w, r, out.Redirect, http.StatusSeeOther)
		return
	}

	// Re-render with the unchanged pending secret so the same QR can be
	// scanned again.
	view, err := h.authService.BeginMfaEnrollment(r.Context(), principal.User)
	if err != nil {
		log.Printf("MFA enrollment failed: %v", err)
		respondErrorJSON(w, http.StatusInternalServerError, "enrollment failed")
		return
	}
	renderPage(w, mfaSettingsTmpl, out.Status, mfaSettingsPageData{
		Title:   "CITS VPN Portal — MFA Setup",
		Enabled: view.AlreadyEnabled,
		Secret:  view.Secret,
		UserID:  principal.User.ID.String(),
		Error:   out.Message,
	})
}

func (h *MfaHandler) DisableMfa(w http.ResponseWriter, r *http.Request) {
	principal := GetPrincipal(r)
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/settings/mfa", http.StatusSeeOther)
		return
	}

	target, err := uuid.Parse(r.PostFormValue("user_id"))
	if err != nil {
		respondErrorJSON(w, http.StatusBadRequest, "invalid user id")
		return
	}

	out, err := h.authService.DisableMfa(r.Context(), principal.User, target)
	if err != nil {
		log.Printf("MFA disable failed: %v", err)
		respondErrorJSON(w, http.StatusInternalServerError, "disable failed")
		return
	}
	if !out.OK() {
		respondErrorJSON(w, out.Status, out.Message)
		return
	}
	http.Redirect(w, r, out.Redirect, http.StatusSeeOther)
}

// QRCode serves the enrollment QR as PNG. Only the pending (not yet enabled)
// secret is ever rendered; once MFA is on the endpoint goes away.
func (h *MfaHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	principal := GetPrincipal(r)

	view, err := h.authService.BeginMfaEnrollment(r.Context(), principal.User)
	if err != nil {
		log.Printf("MFA enrollment failed: %v", err)
		respondErrorJSON(w, http.StatusInternalServerError, "enrollment failed")
		return
	}
	if view.AlreadyEnabled {
		http.NotFound(w, r)
		return
	}

	png, err := qrcode.Encode(view.URI, qrcode.Medium, qrSizePixels)
	if err != nil {
		log.Printf("Failed to encode QR: %v", err)
		respondErrorJSON(w, http.StatusInternalServerError, "qr encoding failed")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(png)
}
