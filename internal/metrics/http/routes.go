package metricshttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// MountRoutes registers the dashboard endpoints onto the router. Breakdown
// and trend hit more tables per request than the cards, so they carry a
// per-IP rate limit.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(60, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	r.Get("/metric/{metric}", h.handleMetric)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/breakdown/{metric}", h.handleBreakdown)
		gr.Get("/trend/{metric}", h.handleTrend)
	})
}
