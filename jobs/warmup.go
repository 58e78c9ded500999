package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/fuelsight/fuelsight/internal/jobs"
	"github.com/fuelsight/fuelsight/internal/metrics"
	"github.com/fuelsight/fuelsight/internal/sites"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// headlineMetrics are the cards warmed for every scope. Trends are warmed
// for the metric set the dashboard charts by default.
var headlineMetrics = []string{
	metrics.MetricTotalFuelVolume,
	metrics.MetricNetSales,
	metrics.MetricTotalNetSales,
	metrics.MetricFuelProfit,
	metrics.MetricTotalProfit,
	metrics.MetricShopProfit,
	metrics.MetricOverheads,
	metrics.MetricLabourCost,
}

var trendMetrics = []string{
	metrics.MetricTotalFuelVolume,
	metrics.MetricNetSales,
	metrics.MetricFuelProfit,
}

// SiteLister enumerates the sites whose caches the warmup covers.
type SiteLister interface {
	ListActive(ctx context.Context) ([]sites.Site, error)
}

// DashboardWarmupJob pre-populates dashboard caches so the first morning
// request hits Redis instead of Postgres.
type DashboardWarmupJob struct {
	Dashboard *metrics.Service
	Sites     SiteLister
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	clock     func() time.Time
}

// NewDashboardWarmupJob wires dependencies for the warmup handler.
func NewDashboardWarmupJob(dashboard *metrics.Service, lister SiteLister, logger *slog.Logger, jm *jobmetrics.Metrics) *DashboardWarmupJob {
	return &DashboardWarmupJob{
		Dashboard: dashboard,
		Sites:     lister,
		Logger:    logger,
		Metrics:   jm,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes dashboard warmup tasks.
func (j *DashboardWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Dashboard == nil {
		return errors.New("dashboard warmup: handler not configured")
	}
	var payload DashboardWarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	tracker := j.metrics().Track(TaskDashboardWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	now := j.now()
	years := payload.Years
	if len(years) == 0 {
		years = []int{now.Year()}
	}

	logger := j.logger()
	logger.Info("starting dashboard warmup", slog.Any("years", years))

	scopes, err := j.resolveScopes(ctx, payload)
	if err != nil {
		resultErr = err
		logger.Error("resolve warmup scopes", slog.Any("error", err))
		return resultErr
	}

	spec := metrics.PeriodSpec{Years: years, Months: yearMonths()}
	warmed := 0
	for _, scope := range scopes {
		if err := j.warmScope(ctx, scope, spec, years); err != nil {
			resultErr = err
			logger.Error("warm scope", slog.Any("error", err))
			return resultErr
		}
		warmed++
	}

	logger.Info("completed dashboard warmup", slog.Int("scopes", warmed), slog.Duration("duration", time.Since(now)))
	return resultErr
}

// resolveScopes always includes the all-sites view, then each requested or
// active site.
func (j *DashboardWarmupJob) resolveScopes(ctx context.Context, payload DashboardWarmupPayload) ([]metrics.Scope, error) {
	scopes := []metrics.Scope{metrics.AllSites()}
	if len(payload.SiteCodes) > 0 {
		for _, code := range payload.SiteCodes {
			scopes = append(scopes, metrics.SiteScope(code))
		}
		return scopes, nil
	}
	if j.Sites == nil {
		return scopes, nil
	}
	active, err := j.Sites.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range active {
		scopes = append(scopes, metrics.SiteScope(s.Code))
	}
	return scopes, nil
}

func (j *DashboardWarmupJob) warmScope(ctx context.Context, scope metrics.Scope, spec metrics.PeriodSpec, years []int) error {
	scopeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	warmed := 0
	for _, metric := range headlineMetrics {
		if _, err := j.Dashboard.GetMetric(scopeCtx, metric, scope, spec); err != nil {
			return err
		}
		warmed++
	}
	for _, metric := range trendMetrics {
		if _, err := j.Dashboard.GetTrend(scopeCtx, metric, scope, years); err != nil {
			return err
		}
		warmed++
	}

	kind := "site"
	if scope == metrics.AllSites() {
		kind = "all"
	}
	j.metrics().AddWarmedKeys(kind, warmed)
	return nil
}

func (j *DashboardWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskDashboardWarmup))
	}
	return slog.Default().With(slog.String("job", TaskDashboardWarmup))
}

func (j *DashboardWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *DashboardWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

func yearMonths() []int {
	months := make([]int, 12)
	for i := range months {
		months[i] = i + 1
	}
	return months
}
