package metrics

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeStore returns canned aggregates and records the ledger queries it
// receives. Resolver fan-out calls it concurrently, hence the mutex.
type fakeStore struct {
	mu sync.Mutex

	fm       FuelMarginTotals
	ms       MonthlySummaryTotals
	fmSeries []FuelMarginMonth
	msSeries []MonthlySummaryMonth

	ledgerFn   func(LedgerQuery) LedgerTotals
	seriesRows []LedgerMonth
	txCount    int64
	siteCount  int64

	ledgerQueries []LedgerQuery
	calls         int
}

func (f *fakeStore) record(q LedgerQuery) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ledgerQueries = append(f.ledgerQueries, q)
}

func (f *fakeStore) bump() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
}

func (f *fakeStore) AggregateLedger(ctx context.Context, q LedgerQuery) (LedgerTotals, error) {
	f.bump()
	f.record(q)
	if f.ledgerFn != nil {
		return f.ledgerFn(q), nil
	}
	return LedgerTotals{}, nil
}

func (f *fakeStore) LedgerSeries(ctx context.Context, q LedgerQuery) ([]LedgerMonth, error) {
	f.bump()
	f.record(q)
	return f.seriesRows, nil
}

func (f *fakeStore) TransactionCount(ctx context.Context, q LedgerQuery) (int64, error) {
	f.bump()
	f.record(q)
	return f.txCount, nil
}

func (f *fakeStore) MonthlySummary(ctx context.Context, q MonthlyQuery) (MonthlySummaryTotals, error) {
	f.bump()
	return f.ms, nil
}

func (f *fakeStore) FuelMargin(ctx context.Context, q MonthlyQuery) (FuelMarginTotals, error) {
	f.bump()
	return f.fm, nil
}

func (f *fakeStore) FuelMarginSeries(ctx context.Context, years []int, siteCode *int) ([]FuelMarginMonth, error) {
	f.bump()
	return f.fmSeries, nil
}

func (f *fakeStore) MonthlySummarySeries(ctx context.Context, years []int, siteCode *int) ([]MonthlySummaryMonth, error) {
	f.bump()
	return f.msSeries, nil
}

func (f *fakeStore) ActiveSiteCount(ctx context.Context, periods PeriodSet) (int64, error) {
	f.bump()
	return f.siteCount, nil
}

func mustWindow(t *testing.T, spec PeriodSpec) Window {
	t.Helper()
	w, err := spec.Window()
	require.NoError(t, err)
	return w
}

func itemSum(items []BreakdownItem) float64 {
	var sum float64
	for _, it := range items {
		sum += it.Value
	}
	return sum
}

func TestResolveFuelVolumePrimary(t *testing.T) {
	store := &fakeStore{
		fm: FuelMarginTotals{SaleVolume: 1200, Rows: 2},
		fmSeries: []FuelMarginMonth{
			{Year: 2025, Month: 1, SaleVolume: 700},
			{Year: 2025, Month: 2, SaleVolume: 500},
			{Year: 2025, Month: 5, SaleVolume: 999}, // outside window
		},
	}
	r := NewResolver(store)
	w := mustWindow(t, PeriodSpec{Years: []int{2025}, Months: []int{1, 2}})

	res, err := r.Resolve(context.Background(), MetricTotalFuelVolume, AllSites(), w)
	require.NoError(t, err)
	require.Equal(t, 1200.0, res.Value)
	require.Equal(t, UnitLitres, res.Unit)
	require.Len(t, res.Items, 2)
	require.InDelta(t, res.Value, itemSum(res.Items), 1e-2)
	require.Equal(t, "Jan 2025", res.Items[0].Name)
}

func TestResolveFuelVolumeFallback(t *testing.T) {
	store := &fakeStore{
		ms: MonthlySummaryTotals{BunkeredVolume: 300, NonBunkeredVolume: 500},
	}
	r := NewResolver(store)
	w := mustWindow(t, PeriodSpec{Years: []int{2025}, Months: []int{1}})

	res, err := r.Resolve(context.Background(), MetricTotalFuelVolume, AllSites(), w)
	require.NoError(t, err)
	require.Equal(t, 800.0, res.Value)
	require.Len(t, res.Items, 2)
	require.InDelta(t, res.Value, itemSum(res.Items), 1e-2)
	require.Equal(t, "Bunkered Volume", res.Items[0].Name)
}

func TestResolveNetSalesFallback(t *testing.T) {
	store := &fakeStore{
		ms: MonthlySummaryTotals{BunkeredSales: 1500, NonBunkeredSales: 2500},
	}
	r := NewResolver(store)
	w := mustWindow(t, PeriodSpec{Years: []int{2025}, Months: []int{3}})

	res, err := r.Resolve(context.Background(), MetricNetSales, AllSites(), w)
	require.NoError(t, err)
	require.Equal(t, 4000.0, res.Value)
	require.InDelta(t, res.Value, itemSum(res.Items), 1e-2)
}

func TestResolveTotalNetSalesAddsIncome(t *testing.T) {
	store := &fakeStore{
		fm: FuelMarginTotals{NetSales: 9000, Rows: 1},
		fmSeries: []FuelMarginMonth{
			{Year: 2025, Month: 1, NetSales: 9000},
		},
		ledgerFn: func(q LedgerQuery) LedgerTotals {
			return LedgerTotals{
				Amount: 450,
				PerCode: []CodeTotal{
					{Code: 6100, Name: "Fuel Commissions", Amount: 300, Count: 4},
					{Code: 6102, Name: "Valeting Commissions", Amount: 150, Count: 2},
				},
			}
		},
	}
	r := NewResolver(store)
	w := mustWindow(t, PeriodSpec{Years: []int{2025}, Months: []int{1}})

	res, err := r.Resolve(context.Background(), MetricTotalNetSales, AllSites(), w)
	require.NoError(t, err)
	require.Equal(t, 9450.0, res.Value)
	require.InDelta(t, res.Value, itemSum(res.Items), 1e-2)
	require.Equal(t, "Fuel Sales", res.Items[0].Name)
}

func TestResolveShopProfit(t *testing.T) {
	store := &fakeStore{
		ms: MonthlySummaryTotals{ShopSales: 5000, ShopPurchases: 3200},
	}
	r := NewResolver(store)
	w := mustWindow(t, PeriodSpec{Years: []int{2025}, Months: []int{1}})

	res, err := r.Resolve(context.Background(), MetricShopProfit, AllSites(), w)
	require.NoError(t, err)
	require.Equal(t, 1800.0, res.Value)
	require.InDelta(t, res.Value, itemSum(res.Items), 1e-2)
}

func TestResolveOverheadsBuckets(t *testing.T) {
	store := &fakeStore{
		ledgerFn: func(q LedgerQuery) LedgerTotals {
			return LedgerTotals{
				Amount: 600,
				PerCode: []CodeTotal{
					{Code: 7201, Name: "Utilities", Amount: 100, Count: 1},
					{Code: 7202, Name: "Utilities", Amount: 150, Count: 1},
					{Code: 7100, Name: "Rent & Rates", Amount: 350, Count: 2},
				},
			}
		},
	}
	r := NewResolver(store)
	w := mustWindow(t, PeriodSpec{Years: []int{2025}, Months: []int{1}})

	res, err := r.Resolve(context.Background(), MetricOverheads, AllSites(), w)
	require.NoError(t, err)
	require.Equal(t, 600.0, res.Value)
	require.Len(t, res.Items, 2)
	require.InDelta(t, res.Value, itemSum(res.Items), 1e-2)
	require.Equal(t, 7100, res.Items[0].Code)
	require.Equal(t, "Rent & Rates", res.Items[0].Name)
	require.Equal(t, 250.0, res.Items[1].Value)
	require.Equal(t, int64(2), res.Items[1].TransactionCount)
}

func TestResolveBankBalanceUpperBoundOnly(t *testing.T) {
	store := &fakeStore{
		ledgerFn: func(q LedgerQuery) LedgerTotals {
			return LedgerTotals{Amount: -1234.56}
		},
	}
	r := NewResolver(store)
	w := mustWindow(t, PeriodSpec{Years: []int{2025}, Months: []int{2}})

	res, err := r.Resolve(context.Background(), MetricBankBalance, AllSites(), w)
	require.NoError(t, err)
	require.Equal(t, -1234.56, res.Value)

	require.Len(t, store.ledgerQueries, 1)
	q := store.ledgerQueries[0]
	require.True(t, q.From.IsZero(), "bank balance must not have a lower bound")
	require.Equal(t, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC), q.To)
	require.Equal(t, CodesFor(CategoryBankAccount), q.Codes)
}

func TestResolveRatioZeroDenominator(t *testing.T) {
	store := &fakeStore{}
	r := NewResolver(store)
	w := mustWindow(t, PeriodSpec{Years: []int{2025}, Months: []int{1}})
	ctx := context.Background()

	for _, metric := range []string{MetricAvgPPL, MetricActualPPL, MetricProfitMargin, MetricLabourCostPct, MetricBasketSize, MetricAvgSalePerSite} {
		res, err := r.Resolve(ctx, metric, AllSites(), w)
		require.NoError(t, err, metric)
		require.Equal(t, 0.0, res.Value, metric)
		require.False(t, math.IsNaN(res.Value), metric)
		require.False(t, res.HasBreakdown, metric)
	}
}

func TestResolveAvgPPL(t *testing.T) {
	store := &fakeStore{
		fm: FuelMarginTotals{FuelProfit: 500, SaleVolume: 10000, Rows: 1},
	}
	r := NewResolver(store)
	w := mustWindow(t, PeriodSpec{Years: []int{2025}, Months: []int{1}})

	res, err := r.Resolve(context.Background(), MetricAvgPPL, AllSites(), w)
	require.NoError(t, err)
	require.InDelta(t, 5.0, res.Value, 1e-9)
	require.Equal(t, UnitPPL, res.Unit)
}

func TestResolveActualPPLUsesFallbackVolume(t *testing.T) {
	store := &fakeStore{
		ms: MonthlySummaryTotals{BunkeredVolume: 2000, NonBunkeredVolume: 2000},
		ledgerFn: func(q LedgerQuery) LedgerTotals {
			return LedgerTotals{Amount: 200}
		},
	}
	r := NewResolver(store)
	w := mustWindow(t, PeriodSpec{Years: []int{2025}, Months: []int{1}})

	res, err := r.Resolve(context.Background(), MetricActualPPL, AllSites(), w)
	require.NoError(t, err)
	require.InDelta(t, 5.0, res.Value, 1e-9)
}

func TestResolveBasketSize(t *testing.T) {
	store := &fakeStore{
		ms:      MonthlySummaryTotals{ShopSales: 1200},
		txCount: 400,
	}
	r := NewResolver(store)
	w := mustWindow(t, PeriodSpec{Years: []int{2025}, Months: []int{1}})

	res, err := r.Resolve(context.Background(), MetricBasketSize, AllSites(), w)
	require.NoError(t, err)
	require.InDelta(t, 3.0, res.Value, 1e-9)

	var counted *LedgerQuery
	for i := range store.ledgerQueries {
		if len(store.ledgerQueries[i].Categories) > 0 {
			counted = &store.ledgerQueries[i]
		}
	}
	require.NotNil(t, counted)
	require.ElementsMatch(t, []string{CategoryShopSales, CategoryFuelSales}, counted.Categories)
}

func TestResolveActiveSites(t *testing.T) {
	store := &fakeStore{siteCount: 7}
	r := NewResolver(store)
	w := mustWindow(t, PeriodSpec{Years: []int{2025}, Months: []int{1}})

	res, err := r.Resolve(context.Background(), MetricActiveSites, AllSites(), w)
	require.NoError(t, err)
	require.Equal(t, 7.0, res.Value)
	require.Equal(t, UnitSites, res.Unit)
}

func TestResolveEmptyWindowSkipsStore(t *testing.T) {
	store := &fakeStore{}
	r := NewResolver(store)

	res, err := r.Resolve(context.Background(), MetricNetSales, AllSites(), Window{})
	require.NoError(t, err)
	require.Equal(t, 0.0, res.Value)
	require.NotNil(t, res.Items)
	require.Empty(t, res.Items)
	require.Equal(t, 0, store.calls)
}

func TestResolveUnknownMetric(t *testing.T) {
	r := NewResolver(&fakeStore{})
	w := mustWindow(t, PeriodSpec{Years: []int{2025}, Months: []int{1}})
	_, err := r.Resolve(context.Background(), "nonsense", AllSites(), w)
	require.ErrorIs(t, err, ErrUnknownMetric)
}

func TestTrendZeroFillsAndFallsBack(t *testing.T) {
	store := &fakeStore{
		fmSeries: []FuelMarginMonth{
			{Year: 2025, Month: 1, SaleVolume: 700},
			{Year: 2025, Month: 3, SaleVolume: 650},
		},
		msSeries: []MonthlySummaryMonth{
			{Year: 2025, Month: 2, BunkeredVolume: 100, NonBunkeredVolume: 200},
			{Year: 2025, Month: 3, BunkeredVolume: 999}, // primary wins, ignored
		},
	}
	r := NewResolver(store)

	data, err := r.Trend(context.Background(), MetricTotalFuelVolume, AllSites(), []int{2025})
	require.NoError(t, err)
	require.Len(t, data.Series, 1)

	values := data.Series[0].Values
	require.Equal(t, 700.0, values[0])
	require.Equal(t, 300.0, values[1], "month without fuel-margin rows uses the summary fallback")
	require.Equal(t, 650.0, values[2])
	for m := 3; m < 12; m++ {
		require.Equal(t, 0.0, values[m])
	}
}

func TestTrendMultipleYears(t *testing.T) {
	store := &fakeStore{
		fmSeries: []FuelMarginMonth{
			{Year: 2024, Month: 6, FuelProfit: 400},
			{Year: 2025, Month: 6, FuelProfit: 500},
		},
	}
	r := NewResolver(store)

	data, err := r.Trend(context.Background(), MetricFuelProfit, AllSites(), []int{2025, 2024})
	require.NoError(t, err)
	require.Len(t, data.Series, 2)
	require.Equal(t, 2024, data.Series[0].Year)
	require.Equal(t, 400.0, data.Series[0].Values[5])
	require.Equal(t, 500.0, data.Series[1].Values[5])
}

func TestTrendLedgerMetricUsesAbsolutes(t *testing.T) {
	store := &fakeStore{
		seriesRows: []LedgerMonth{
			{Year: 2025, Month: 4, SumAmount: -800, SumAbs: 800},
		},
	}
	r := NewResolver(store)

	data, err := r.Trend(context.Background(), MetricLabourCost, AllSites(), []int{2025})
	require.NoError(t, err)
	require.Equal(t, 800.0, data.Series[0].Values[3])

	require.Len(t, store.ledgerQueries, 1)
	require.Equal(t, CodesFor(CategoryLabour), store.ledgerQueries[0].Codes)
	require.Len(t, store.ledgerQueries[0].Months, 12)
}

func TestTrendRequiresYears(t *testing.T) {
	r := NewResolver(&fakeStore{})
	_, err := r.Trend(context.Background(), MetricNetSales, AllSites(), nil)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestTrendUnsupportedMetric(t *testing.T) {
	r := NewResolver(&fakeStore{})
	_, err := r.Trend(context.Background(), MetricBankBalance, AllSites(), []int{2025})
	require.ErrorIs(t, err, ErrInvalidInput)
}
