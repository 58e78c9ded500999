package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/fuelsight/fuelsight/internal/metrics"
	"github.com/fuelsight/fuelsight/internal/sites"
)

// countingStore satisfies metrics.Store with zero-valued aggregates and
// counts how often it is hit.
type countingStore struct {
	calls atomic.Int64
}

func (s *countingStore) AggregateLedger(ctx context.Context, q metrics.LedgerQuery) (metrics.LedgerTotals, error) {
	s.calls.Add(1)
	return metrics.LedgerTotals{}, nil
}

func (s *countingStore) LedgerSeries(ctx context.Context, q metrics.LedgerQuery) ([]metrics.LedgerMonth, error) {
	s.calls.Add(1)
	return nil, nil
}

func (s *countingStore) TransactionCount(ctx context.Context, q metrics.LedgerQuery) (int64, error) {
	s.calls.Add(1)
	return 0, nil
}

func (s *countingStore) MonthlySummary(ctx context.Context, q metrics.MonthlyQuery) (metrics.MonthlySummaryTotals, error) {
	s.calls.Add(1)
	return metrics.MonthlySummaryTotals{}, nil
}

func (s *countingStore) FuelMargin(ctx context.Context, q metrics.MonthlyQuery) (metrics.FuelMarginTotals, error) {
	s.calls.Add(1)
	return metrics.FuelMarginTotals{}, nil
}

func (s *countingStore) FuelMarginSeries(ctx context.Context, years []int, siteCode *int) ([]metrics.FuelMarginMonth, error) {
	s.calls.Add(1)
	return nil, nil
}

func (s *countingStore) MonthlySummarySeries(ctx context.Context, years []int, siteCode *int) ([]metrics.MonthlySummaryMonth, error) {
	s.calls.Add(1)
	return nil, nil
}

func (s *countingStore) ActiveSiteCount(ctx context.Context, periods metrics.PeriodSet) (int64, error) {
	s.calls.Add(1)
	return 0, nil
}

type staticSites struct {
	list []sites.Site
}

func (s staticSites) ListActive(ctx context.Context) ([]sites.Site, error) {
	return s.list, nil
}

func newWarmupJob(t *testing.T, lister SiteLister) (*DashboardWarmupJob, *countingStore, func()) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := &countingStore{}
	svc := metrics.NewService(metrics.NewResolver(store), metrics.NewCache(client, time.Minute))
	job := NewDashboardWarmupJob(svc, lister, nil, nil)
	return job, store, func() {
		_ = client.Close()
		mr.Close()
	}
}

func TestDashboardWarmupWarmsAllScopes(t *testing.T) {
	job, store, cleanup := newWarmupJob(t, staticSites{list: []sites.Site{
		{Code: 5, Name: "Edmonton", Active: true},
		{Code: 9, Name: "Tottenham", Active: true},
	}})
	defer cleanup()

	task, err := NewDashboardWarmupTask(DashboardWarmupPayload{Years: []int{2025}})
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if err := job.Handle(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if store.calls.Load() == 0 {
		t.Fatal("expected warmup to hit the store")
	}

	// A follow-up run over the same scopes must be served from cache.
	before := store.calls.Load()
	if err := job.Handle(context.Background(), task); err != nil {
		t.Fatalf("second handle: %v", err)
	}
	if store.calls.Load() != before {
		t.Fatalf("expected cached warmup, store calls went %d -> %d", before, store.calls.Load())
	}
}

func TestDashboardWarmupExplicitSites(t *testing.T) {
	job, store, cleanup := newWarmupJob(t, staticSites{})
	defer cleanup()

	task, err := NewDashboardWarmupTask(DashboardWarmupPayload{SiteCodes: []int{5}, Years: []int{2025}})
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if err := job.Handle(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if store.calls.Load() == 0 {
		t.Fatal("expected warmup to hit the store")
	}
}

func TestDashboardWarmupBadPayloadSkipsRetry(t *testing.T) {
	job, _, cleanup := newWarmupJob(t, staticSites{})
	defer cleanup()

	task := asynq.NewTask(TaskDashboardWarmup, []byte("{not json"))
	if err := job.Handle(context.Background(), task); err != asynq.SkipRetry {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
}
