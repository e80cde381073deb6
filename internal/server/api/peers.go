package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/citsolutions/vpnportal/internal/server/services"
	"github.com/citsolutions/vpnportal/pkg/models"
)

type PeerHandler struct {
	peerService *services.PeerService
}

func NewPeerHandler(peerService *services.PeerService) *PeerHandler {
	return &PeerHandler{peerService: peerService}
}

type peersPageData struct {
	Title string
	Peers []models.PeerView
	Error string
}

func (h *PeerHandler) renderList(w http.ResponseWriter, r *http.Request, status int, errMsg string) {
	views, err := h.peerService.ListPeers(r.Context(), GetPrincipal(r))
	if err != nil {
		log.Printf("Failed to list peers: %v", err)
		respondErrorJSON(w, http.StatusInternalServerError, "failed to list peers")
		return
	}
	renderPage(w, peersTmpl, status, peersPageData{
		Title: "CITS VPN Portal — Peers",
		Peers: views,
		Error: errMsg,
	})
}

func (h *PeerHandler) ListPage(w http.ResponseWriter, r *http.Request) {
	h.renderList(w, r, http.StatusOK, "")
}

// parseKeepalive reads the optional keepalive form field: empty or zero
// means no keepalive; anything non-numeric is rejected.
func parseKeepalive(raw string) (*int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, true
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return nil, false
		}
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, false
	}
	if n == 0 {
		return nil, true
	}
	return &n, true
}

func (h *PeerHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/peers", http.StatusSeeOther)
		return
	}

	keepalive, ok := parseKeepalive(r.PostFormValue("keepalive"))
	if !ok {
		h.renderList(w, r, http.StatusBadRequest, "Keepalive must be a number of seconds.")
		return
	}

	_, err := h.peerService.CreatePeer(r.Context(), GetPrincipal(r),
		r.PostFormValue("label"), r.PostFormValue("allowed_ips"), keepalive)
	switch {
	case err == nil:
		http.Redirect(w, r, "/peers", http.StatusSeeOther)
	case errors.Is(err, services.ErrPoolExhausted):
		h.renderList(w, r, http.StatusConflict, "No free addresses left in the pool.")
	case errors.Is(err, services.ErrNoSite):
		h.renderList(w, r, http.StatusConflict, "No site is configured yet.")
	case errors.Is(err, services.ErrForbidden):
		respondErrorJSON(w, http.StatusForbidden, "superadmin access required")
	default:
		log.Printf("Failed to create peer: %v", err)
		h.renderList(w, r, http.StatusBadGateway, "Could not provision the peer. Check the interface and try again.")
	}
}

func (h *PeerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	peerID, err := uuid.Parse(chi.URLParam(r, "peer_id"))
	if err != nil {
		respondErrorJSON(w, http.StatusBadRequest, "invalid peer id")
		return
	}

	if err := h.peerService.DeletePeer(r.Context(), GetPrincipal(r), peerID); err != nil {
		if errors.Is(err, services.ErrForbidden) {
			respondErrorJSON(w, http.StatusForbidden, "superadmin access required")
			return
		}
		log.Printf("Failed to delete peer %s: %v", peerID, err)
		respondErrorJSON(w, http.StatusInternalServerError, "failed to delete peer")
		return
	}
	http.Redirect(w, r, "/peers", http.StatusSeeOther)
}
