package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/fuelsight/fuelsight/internal/jobs"
	"github.com/fuelsight/fuelsight/internal/metrics"
)

// CacheBumpJob invalidates dashboard caches after the overnight ingest
// finishes loading new ledger and margin rows.
type CacheBumpJob struct {
	Dashboard *metrics.Service
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewCacheBumpJob wires dependencies for the bump handler.
func NewCacheBumpJob(dashboard *metrics.Service, logger *slog.Logger, jm *jobmetrics.Metrics) *CacheBumpJob {
	return &CacheBumpJob{Dashboard: dashboard, Logger: logger, Metrics: jm}
}

// Handle processes cache bump tasks.
func (j *CacheBumpJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Dashboard == nil {
		return errors.New("cache bump: handler not configured")
	}
	tracker := j.jobMetrics().Track(TaskCacheBump)
	err := j.Dashboard.InvalidateCache(ctx)
	if err != nil && j.Logger != nil {
		j.Logger.Error("cache bump failed", slog.Any("error", err))
	}
	return tracker.End(err)
}

func (j *CacheBumpJob) jobMetrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
