package api

import (
	"context"
	"math"
	"net/http"
	"time"
)

type homePageData struct {
	Title      string
	Username   string
	Superadmin bool
}

func HomePage(w http.ResponseWriter, r *http.Request) {
	principal := GetPrincipal(r)
	renderPage(w, homeTmpl, http.StatusOK, homePageData{
		Title:      "CITS VPN Portal — Home",
		Username:   principal.User.Username,
		Superadmin: principal.User.Superadmin,
	})
}

type healthResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds,omitempty"`
}

// Healthz reports process liveness.
func Healthz(start time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, healthResponse{
			Status:        "ok",
			UptimeSeconds: math.Round(time.Since(start).Seconds()*10) / 10,
		})
	}
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

// Readyz reports readiness: the process is up and the database answers.
func Readyz(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "degraded"})
			return
		}
		respondJSON(w, http.StatusOK, healthResponse{Status: "ready"})
	}
}
