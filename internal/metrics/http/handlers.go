package metricshttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fuelsight/fuelsight/internal/metrics"
	"github.com/fuelsight/fuelsight/internal/platform/httpx"
	"github.com/fuelsight/fuelsight/internal/sites"
)

const requestTimeout = 5 * time.Second

// DashboardService is the data contract the handler needs from the metrics
// layer.
type DashboardService interface {
	GetMetric(ctx context.Context, metric string, scope metrics.Scope, spec metrics.PeriodSpec) (metrics.Card, error)
	GetBreakdown(ctx context.Context, metric string, scope metrics.Scope, spec metrics.PeriodSpec) (metrics.Breakdown, error)
	GetTrend(ctx context.Context, metric string, scope metrics.Scope, years []int) (metrics.Trend, error)
}

// SiteDirectory resolves site codes for scope validation.
type SiteDirectory interface {
	Get(ctx context.Context, code int) (sites.Site, error)
}

// Handler serves the dashboard JSON API.
type Handler struct {
	logger   *slog.Logger
	service  DashboardService
	sites    SiteDirectory
	validate *validator.Validate
	now      func() time.Time
}

// NewHandler constructs the dashboard HTTP handler.
func NewHandler(logger *slog.Logger, service DashboardService, directory SiteDirectory) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		sites:    directory,
		validate: validator.New(),
		now:      time.Now,
	}
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

// requestFilters carries the parsed query parameters. Either the date range
// or the month/year lists select the period; supplying both is rejected.
type requestFilters struct {
	Site   *int  `validate:"omitempty,gte=0"`
	Months []int `validate:"omitempty,dive,gte=1,lte=12"`
	Years  []int `validate:"omitempty,dive,gte=1,lte=9999"`
	From   time.Time
	To     time.Time
}

func (f requestFilters) scope() metrics.Scope {
	if f.Site != nil {
		return metrics.SiteScope(*f.Site)
	}
	return metrics.AllSites()
}

func (f requestFilters) periodSpec() metrics.PeriodSpec {
	return metrics.PeriodSpec{Months: f.Months, Years: f.Years, From: f.From, To: f.To}
}

func (h *Handler) handleMetric(w http.ResponseWriter, r *http.Request) {
	metric := chi.URLParam(r, "metric")
	filters, err := h.parseFilters(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.checkSite(ctx, filters.Site); err != nil {
		h.respondError(w, err)
		return
	}

	card, err := h.service.GetMetric(ctx, metric, filters.scope(), filters.periodSpec())
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, card)
}

func (h *Handler) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	metric := chi.URLParam(r, "metric")
	filters, err := h.parseFilters(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.checkSite(ctx, filters.Site); err != nil {
		h.respondError(w, err)
		return
	}

	breakdown, err := h.service.GetBreakdown(ctx, metric, filters.scope(), filters.periodSpec())
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, breakdown)
}

func (h *Handler) handleTrend(w http.ResponseWriter, r *http.Request) {
	metric := chi.URLParam(r, "metric")
	filters, err := h.parseFilters(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.checkSite(ctx, filters.Site); err != nil {
		h.respondError(w, err)
		return
	}

	years := filters.Years
	if len(years) == 0 {
		years = []int{h.now().UTC().Year()}
	}
	trend, err := h.service.GetTrend(ctx, metric, filters.scope(), years)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, trend)
}

func (h *Handler) parseFilters(r *http.Request) (requestFilters, error) {
	var f requestFilters
	query := r.URL.Query()

	if raw := strings.TrimSpace(query.Get("site")); raw != "" {
		code, err := strconv.Atoi(raw)
		if err != nil {
			return f, badParam("site")
		}
		f.Site = &code
	}
	months, err := parseIntList(query.Get("months"))
	if err != nil {
		return f, badParam("months")
	}
	f.Months = months
	years, err := parseIntList(query.Get("years"))
	if err != nil {
		return f, badParam("years")
	}
	f.Years = years

	if raw := strings.TrimSpace(query.Get("from")); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return f, badParam("from")
		}
		f.From = t
	}
	if raw := strings.TrimSpace(query.Get("to")); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return f, badParam("to")
		}
		f.To = t
	}
	if (!f.From.IsZero() || !f.To.IsZero()) && (len(f.Months) > 0 || len(f.Years) > 0) {
		return f, httpx.WrapValidation(errors.New("use either a date range or month/year lists, not both"))
	}

	if err := h.validate.Struct(f); err != nil {
		return f, httpx.WrapValidation(err)
	}
	return f, nil
}

func (h *Handler) checkSite(ctx context.Context, code *int) error {
	if code == nil || h.sites == nil {
		return nil
	}
	_, err := h.sites.Get(ctx, *code)
	return err
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sites.ErrSiteNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "unknown site")
	case errors.Is(err, metrics.ErrInvalidInput), errors.Is(err, httpx.ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		if h.logger != nil {
			h.logger.Error("dashboard request failed", slog.Any("error", err))
		}
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func badParam(field string) error {
	return httpx.WrapValidation(errors.New("invalid " + field))
}

func parseIntList(raw string) ([]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
