package metrics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

// Store is the query surface the resolver needs. Repository satisfies it;
// tests substitute an in-memory fake.
type Store interface {
	AggregateLedger(ctx context.Context, q LedgerQuery) (LedgerTotals, error)
	LedgerSeries(ctx context.Context, q LedgerQuery) ([]LedgerMonth, error)
	TransactionCount(ctx context.Context, q LedgerQuery) (int64, error)
	MonthlySummary(ctx context.Context, q MonthlyQuery) (MonthlySummaryTotals, error)
	FuelMargin(ctx context.Context, q MonthlyQuery) (FuelMarginTotals, error)
	FuelMarginSeries(ctx context.Context, years []int, siteCode *int) ([]FuelMarginMonth, error)
	MonthlySummarySeries(ctx context.Context, years []int, siteCode *int) ([]MonthlySummaryMonth, error)
	ActiveSiteCount(ctx context.Context, periods PeriodSet) (int64, error)
}

// Resolution is one fully computed metric: the card value plus, for metrics
// that have one, the breakdown whose items sum to the value. Both are
// derived from the same source data in the same pass, which is what keeps
// cards and modals from ever disagreeing.
type Resolution struct {
	Metric       string          `json:"metric"`
	Value        float64         `json:"value"`
	Unit         string          `json:"unit"`
	HasBreakdown bool            `json:"hasBreakdown"`
	Items        []BreakdownItem `json:"items,omitempty"`
}

// YearSeries is one year's monthly values, always 12 calendar-ordered slots.
type YearSeries struct {
	Year   int         `json:"year"`
	Values [12]float64 `json:"values"`
}

// TrendData carries per-year monthly series for one metric.
type TrendData struct {
	Metric string       `json:"metric"`
	Series []YearSeries `json:"series"`
}

// Resolver combines ledger and monthly aggregates according to the fixed
// per-metric precedence table. The fuel-margin table wins for fuel numbers
// whenever its figure is non-zero; the monthly summary is the fallback.
// Independent sub-queries for one metric run concurrently and any failure
// fails the whole computation; a partial total would silently break the
// breakdown invariant.
type Resolver struct {
	store Store
}

// NewResolver constructs a Resolver over a Store.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve computes one metric for a scope and resolved period window.
// Metric must already be canonical. Empty windows yield a zero-filled
// resolution without touching the store.
func (r *Resolver) Resolve(ctx context.Context, metric string, scope Scope, w Window) (Resolution, error) {
	if r == nil || r.store == nil {
		return Resolution{}, fmt.Errorf("metrics: resolver not configured")
	}
	res := Resolution{Metric: metric, Unit: UnitFor(metric), HasBreakdown: hasBreakdown(metric)}
	if w.Set.Empty() {
		if res.HasBreakdown {
			res.Items = []BreakdownItem{}
		}
		return res, nil
	}

	var err error
	switch metric {
	case MetricTotalFuelVolume:
		err = r.resolveFuelVolume(ctx, scope, w, &res)
	case MetricNetSales:
		err = r.resolveNetSales(ctx, scope, w, &res)
	case MetricTotalNetSales:
		err = r.resolveTotalNetSales(ctx, scope, w, &res)
	case MetricFuelProfit:
		err = r.resolveFuelProfit(ctx, scope, w, &res)
	case MetricTotalProfit:
		err = r.resolveTotalProfit(ctx, scope, w, &res)
	case MetricShopProfit:
		err = r.resolveCategoryProfit(ctx, scope, w, &res, "Shop")
	case MetricValetProfit:
		err = r.resolveCategoryProfit(ctx, scope, w, &res, "Valet")
	case MetricOverheads:
		err = r.resolveOverheads(ctx, scope, w, &res)
	case MetricLabourCost:
		err = r.resolveLabourCost(ctx, scope, w, &res)
	case MetricBankBalance:
		err = r.resolveBankBalance(ctx, scope, w, &res)
	case MetricAvgPPL:
		err = r.resolveAvgPPL(ctx, scope, w, &res)
	case MetricActualPPL:
		err = r.resolveActualPPL(ctx, scope, w, &res)
	case MetricProfitMargin:
		err = r.resolveProfitMargin(ctx, scope, w, &res)
	case MetricLabourCostPct:
		err = r.resolveLabourCostPct(ctx, scope, w, &res)
	case MetricBasketSize:
		err = r.resolveBasketSize(ctx, scope, w, &res)
	case MetricActiveSites:
		err = r.resolveActiveSites(ctx, w, &res)
	case MetricAvgSalePerSite:
		err = r.resolveAvgSalePerSite(ctx, scope, w, &res)
	default:
		return Resolution{}, ErrUnknownMetric
	}
	if err != nil {
		return Resolution{}, err
	}
	return res, nil
}

func hasBreakdown(metric string) bool {
	switch metric {
	case MetricAvgPPL, MetricActualPPL, MetricProfitMargin, MetricLabourCostPct,
		MetricBasketSize, MetricActiveSites, MetricAvgSalePerSite:
		return false
	}
	return true
}

// ledgerWindowQuery converts a window into ledger filters. Explicit
// month/year windows match the ledger on extracted year and month so the
// ledger and the month tables select exactly the same periods; date-range
// windows keep day precision for the ledger.
func ledgerWindowQuery(scope Scope, w Window) LedgerQuery {
	q := LedgerQuery{SiteCode: scope.SiteCode}
	if w.Explicit {
		q.Years = w.Set.Years()
		q.Months = w.Set.Months()
	} else {
		q.From = w.From
		q.To = w.To
	}
	return q
}

func monthlyWindowQuery(scope Scope, w Window) MonthlyQuery {
	return MonthlyQuery{Periods: w.Set, SiteCode: scope.SiteCode}
}

// fuelSources loads the two fuel aggregates and the per-month fuel-margin
// rows in one concurrent pass.
func (r *Resolver) fuelSources(ctx context.Context, scope Scope, w Window) (FuelMarginTotals, MonthlySummaryTotals, []FuelMarginMonth, error) {
	var (
		fm     FuelMarginTotals
		ms     MonthlySummaryTotals
		series []FuelMarginMonth
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		fm, err = r.store.FuelMargin(ctx, monthlyWindowQuery(scope, w))
		return err
	})
	g.Go(func() error {
		var err error
		ms, err = r.store.MonthlySummary(ctx, monthlyWindowQuery(scope, w))
		return err
	})
	g.Go(func() error {
		var err error
		series, err = r.store.FuelMarginSeries(ctx, w.Set.Years(), scope.SiteCode)
		return err
	})
	if err := g.Wait(); err != nil {
		return FuelMarginTotals{}, MonthlySummaryTotals{}, nil, err
	}
	return fm, ms, series, nil
}

func (r *Resolver) resolveFuelVolume(ctx context.Context, scope Scope, w Window, res *Resolution) error {
	fm, ms, series, err := r.fuelSources(ctx, scope, w)
	if err != nil {
		return err
	}
	if fm.SaleVolume > 0 {
		res.Value = fm.SaleVolume
		res.Items = periodItems(series, w.Set, func(m FuelMarginMonth) float64 { return m.SaleVolume })
		return nil
	}
	res.Value = ms.FuelVolumeTotal()
	res.Items = []BreakdownItem{
		{Name: "Bunkered Volume", Value: ms.BunkeredVolume},
		{Name: "Non-Bunkered Volume", Value: ms.NonBunkeredVolume},
	}
	return nil
}

func (r *Resolver) resolveNetSales(ctx context.Context, scope Scope, w Window, res *Resolution) error {
	fm, ms, series, err := r.fuelSources(ctx, scope, w)
	if err != nil {
		return err
	}
	if fm.NetSales > 0 {
		res.Value = fm.NetSales
		res.Items = periodItems(series, w.Set, func(m FuelMarginMonth) float64 { return m.NetSales })
		return nil
	}
	res.Value = ms.FuelSalesTotal()
	res.Items = []BreakdownItem{
		{Name: "Bunkered Sales", Value: ms.BunkeredSales},
		{Name: "Non-Bunkered Sales", Value: ms.NonBunkeredSales},
	}
	return nil
}

func (r *Resolver) resolveTotalNetSales(ctx context.Context, scope Scope, w Window, res *Resolution) error {
	var (
		fuel   Resolution
		income LedgerTotals
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		fuel, err = r.Resolve(ctx, MetricNetSales, scope, w)
		return err
	})
	g.Go(func() error {
		q := ledgerWindowQuery(scope, w)
		q.Codes = CodesFor(CategoryOtherIncome)
		var err error
		income, err = r.store.AggregateLedger(ctx, q)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}
	res.Value = fuel.Value + income.Amount
	res.Items = append([]BreakdownItem{{Name: "Fuel Sales", Value: fuel.Value}}, codeItems(income)...)
	return nil
}

func (r *Resolver) resolveFuelProfit(ctx context.Context, scope Scope, w Window, res *Resolution) error {
	var (
		fm     FuelMarginTotals
		series []FuelMarginMonth
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		fm, err = r.store.FuelMargin(ctx, monthlyWindowQuery(scope, w))
		return err
	})
	g.Go(func() error {
		var err error
		series, err = r.store.FuelMarginSeries(ctx, w.Set.Years(), scope.SiteCode)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}
	res.Value = fm.FuelProfit
	res.Items = periodItems(series, w.Set, func(m FuelMarginMonth) float64 { return m.FuelProfit })
	return nil
}

func (r *Resolver) resolveTotalProfit(ctx context.Context, scope Scope, w Window, res *Resolution) error {
	var (
		fm     FuelMarginTotals
		income LedgerTotals
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		fm, err = r.store.FuelMargin(ctx, monthlyWindowQuery(scope, w))
		return err
	})
	g.Go(func() error {
		q := ledgerWindowQuery(scope, w)
		q.Codes = CodesFor(CategoryOtherIncome)
		var err error
		income, err = r.store.AggregateLedger(ctx, q)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}
	res.Value = fm.FuelProfit + income.Amount
	res.Items = append([]BreakdownItem{{Name: "Fuel Profit", Value: fm.FuelProfit}}, codeItems(income)...)
	return nil
}

func (r *Resolver) resolveCategoryProfit(ctx context.Context, scope Scope, w Window, res *Resolution, label string) error {
	ms, err := r.store.MonthlySummary(ctx, monthlyWindowQuery(scope, w))
	if err != nil {
		return err
	}
	sales, purchases := ms.ShopSales, ms.ShopPurchases
	if label == "Valet" {
		sales, purchases = ms.ValetSales, ms.ValetPurchases
	}
	res.Value = sales - purchases
	res.Items = []BreakdownItem{
		{Name: label + " Sales", Value: sales},
		{Name: label + " Purchases", Value: -purchases},
	}
	return nil
}

func (r *Resolver) resolveOverheads(ctx context.Context, scope Scope, w Window, res *Resolution) error {
	q := ledgerWindowQuery(scope, w)
	q.CodeFrom, q.CodeTo = OverheadCodeFrom, OverheadCodeTo
	totals, err := r.store.AggregateLedger(ctx, q)
	if err != nil {
		return err
	}
	res.Value = totals.Amount
	res.Items = bucketItems(totals)
	return nil
}

func (r *Resolver) resolveLabourCost(ctx context.Context, scope Scope, w Window, res *Resolution) error {
	q := ledgerWindowQuery(scope, w)
	q.Codes = CodesFor(CategoryLabour)
	totals, err := r.store.AggregateLedger(ctx, q)
	if err != nil {
		return err
	}
	res.Value = totals.Amount
	res.Items = codeItems(totals)
	return nil
}

func (r *Resolver) resolveBankBalance(ctx context.Context, scope Scope, w Window, res *Resolution) error {
	// Bank accounts are running balances: only the upper bound applies and
	// amounts keep their signs.
	q := LedgerQuery{
		Codes:    CodesFor(CategoryBankAccount),
		To:       w.To,
		SiteCode: scope.SiteCode,
	}
	totals, err := r.store.AggregateLedger(ctx, q)
	if err != nil {
		return err
	}
	res.Value = totals.Amount
	res.Items = codeItems(totals)
	return nil
}

func (r *Resolver) resolveAvgPPL(ctx context.Context, scope Scope, w Window, res *Resolution) error {
	fm, err := r.store.FuelMargin(ctx, monthlyWindowQuery(scope, w))
	if err != nil {
		return err
	}
	res.Value = safeDiv(fm.FuelProfit, fm.SaleVolume) * 100
	return nil
}

func (r *Resolver) resolveActualPPL(ctx context.Context, scope Scope, w Window, res *Resolution) error {
	var (
		overheads LedgerTotals
		fm        FuelMarginTotals
		ms        MonthlySummaryTotals
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		q := ledgerWindowQuery(scope, w)
		q.CodeFrom, q.CodeTo = OverheadCodeFrom, OverheadCodeTo
		var err error
		overheads, err = r.store.AggregateLedger(ctx, q)
		return err
	})
	g.Go(func() error {
		var err error
		fm, err = r.store.FuelMargin(ctx, monthlyWindowQuery(scope, w))
		return err
	})
	g.Go(func() error {
		var err error
		ms, err = r.store.MonthlySummary(ctx, monthlyWindowQuery(scope, w))
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}
	volume := fm.SaleVolume
	if volume <= 0 {
		volume = ms.FuelVolumeTotal()
	}
	res.Value = safeDiv(overheads.Amount, volume) * 100
	return nil
}

func (r *Resolver) resolveProfitMargin(ctx context.Context, scope Scope, w Window, res *Resolution) error {
	var (
		fm FuelMarginTotals
		ms MonthlySummaryTotals
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		fm, err = r.store.FuelMargin(ctx, monthlyWindowQuery(scope, w))
		return err
	})
	g.Go(func() error {
		var err error
		ms, err = r.store.MonthlySummary(ctx, monthlyWindowQuery(scope, w))
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}
	sales := fm.NetSales
	if sales <= 0 {
		sales = ms.FuelSalesTotal()
	}
	res.Value = safeDiv(fm.FuelProfit, sales) * 100
	return nil
}

func (r *Resolver) resolveLabourCostPct(ctx context.Context, scope Scope, w Window, res *Resolution) error {
	var (
		labour LedgerTotals
		ms     MonthlySummaryTotals
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		q := ledgerWindowQuery(scope, w)
		q.Codes = CodesFor(CategoryLabour)
		var err error
		labour, err = r.store.AggregateLedger(ctx, q)
		return err
	})
	g.Go(func() error {
		var err error
		ms, err = r.store.MonthlySummary(ctx, monthlyWindowQuery(scope, w))
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}
	res.Value = safeDiv(labour.Amount, ms.ShopSales) * 100
	return nil
}

func (r *Resolver) resolveBasketSize(ctx context.Context, scope Scope, w Window, res *Resolution) error {
	var (
		ms    MonthlySummaryTotals
		count int64
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ms, err = r.store.MonthlySummary(ctx, monthlyWindowQuery(scope, w))
		return err
	})
	g.Go(func() error {
		q := ledgerWindowQuery(scope, w)
		q.Categories = []string{CategoryShopSales, CategoryFuelSales}
		var err error
		count, err = r.store.TransactionCount(ctx, q)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}
	res.Value = safeDiv(ms.ShopSales, float64(count))
	return nil
}

func (r *Resolver) resolveActiveSites(ctx context.Context, w Window, res *Resolution) error {
	count, err := r.store.ActiveSiteCount(ctx, w.Set)
	if err != nil {
		return err
	}
	res.Value = float64(count)
	return nil
}

func (r *Resolver) resolveAvgSalePerSite(ctx context.Context, scope Scope, w Window, res *Resolution) error {
	var (
		total Resolution
		count int64
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = r.Resolve(ctx, MetricTotalNetSales, scope, w)
		return err
	})
	g.Go(func() error {
		var err error
		count, err = r.store.ActiveSiteCount(ctx, w.Set)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}
	res.Value = safeDiv(total.Value, float64(count))
	return nil
}

// Trend computes per-year monthly series for the metric. Every series has
// exactly 12 slots in calendar order, zero-filled where no rows exist.
func (r *Resolver) Trend(ctx context.Context, metric string, scope Scope, years []int) (TrendData, error) {
	if r == nil || r.store == nil {
		return TrendData{}, fmt.Errorf("metrics: resolver not configured")
	}
	years = sortedInts(years)
	if len(years) == 0 {
		return TrendData{}, fmt.Errorf("%w: years required", ErrInvalidInput)
	}
	data := TrendData{Metric: metric}

	switch metric {
	case MetricTotalFuelVolume, MetricNetSales:
		fmRows, msRows, err := r.trendFuelSources(ctx, scope, years)
		if err != nil {
			return TrendData{}, err
		}
		data.Series = fuelTrendSeries(metric, years, fmRows, msRows)
	case MetricFuelProfit:
		rows, err := r.store.FuelMarginSeries(ctx, years, scope.SiteCode)
		if err != nil {
			return TrendData{}, err
		}
		data.Series = seriesFromFuelMargin(years, rows, func(m FuelMarginMonth) float64 { return m.FuelProfit })
	case MetricTotalProfit:
		var (
			fmRows  []FuelMarginMonth
			incRows []LedgerMonth
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			fmRows, err = r.store.FuelMarginSeries(gctx, years, scope.SiteCode)
			return err
		})
		g.Go(func() error {
			var err error
			incRows, err = r.ledgerTrend(gctx, scope, years, CodesFor(CategoryOtherIncome), 0, 0)
			return err
		})
		if err := g.Wait(); err != nil {
			return TrendData{}, err
		}
		data.Series = seriesFromFuelMargin(years, fmRows, func(m FuelMarginMonth) float64 { return m.FuelProfit })
		addLedgerSeries(data.Series, incRows, true)
	case MetricLabourCost:
		rows, err := r.ledgerTrend(ctx, scope, years, CodesFor(CategoryLabour), 0, 0)
		if err != nil {
			return TrendData{}, err
		}
		data.Series = seriesFromLedger(years, rows, true)
	case MetricOverheads:
		rows, err := r.ledgerTrend(ctx, scope, years, nil, OverheadCodeFrom, OverheadCodeTo)
		if err != nil {
			return TrendData{}, err
		}
		data.Series = seriesFromLedger(years, rows, true)
	default:
		return TrendData{}, fmt.Errorf("%w: metric %s has no trend", ErrInvalidInput, metric)
	}
	return data, nil
}

func (r *Resolver) trendFuelSources(ctx context.Context, scope Scope, years []int) ([]FuelMarginMonth, []MonthlySummaryMonth, error) {
	var (
		fmRows []FuelMarginMonth
		msRows []MonthlySummaryMonth
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		fmRows, err = r.store.FuelMarginSeries(ctx, years, scope.SiteCode)
		return err
	})
	g.Go(func() error {
		var err error
		msRows, err = r.store.MonthlySummarySeries(ctx, years, scope.SiteCode)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return fmRows, msRows, nil
}

func (r *Resolver) ledgerTrend(ctx context.Context, scope Scope, years, codes []int, codeFrom, codeTo int) ([]LedgerMonth, error) {
	q := LedgerQuery{
		Codes:    codes,
		CodeFrom: codeFrom,
		CodeTo:   codeTo,
		Years:    years,
		Months:   allMonths(),
		SiteCode: scope.SiteCode,
	}
	return r.store.LedgerSeries(ctx, q)
}

// fuelTrendSeries applies the primary/fallback rule month by month: each
// slot takes the fuel-margin figure when non-zero, otherwise the monthly
// summary fallback.
func fuelTrendSeries(metric string, years []int, fmRows []FuelMarginMonth, msRows []MonthlySummaryMonth) []YearSeries {
	fmPick := func(m FuelMarginMonth) float64 { return m.SaleVolume }
	msPick := func(m MonthlySummaryMonth) float64 { return m.BunkeredVolume + m.NonBunkeredVolume }
	if metric == MetricNetSales {
		fmPick = func(m FuelMarginMonth) float64 { return m.NetSales }
		msPick = func(m MonthlySummaryMonth) float64 { return m.BunkeredSales + m.NonBunkeredSales }
	}
	series := seriesFromFuelMargin(years, fmRows, fmPick)
	fallback := make(map[Period]float64, len(msRows))
	for _, row := range msRows {
		fallback[Period{Year: row.Year, Month: row.Month}] = msPick(row)
	}
	for i := range series {
		for m := 0; m < 12; m++ {
			if series[i].Values[m] == 0 {
				series[i].Values[m] = fallback[Period{Year: series[i].Year, Month: m + 1}]
			}
		}
	}
	return series
}

func seriesFromFuelMargin(years []int, rows []FuelMarginMonth, pick func(FuelMarginMonth) float64) []YearSeries {
	series := emptySeries(years)
	index := seriesIndex(years)
	for _, row := range rows {
		if i, ok := index[row.Year]; ok && row.Month >= 1 && row.Month <= 12 {
			series[i].Values[row.Month-1] += pick(row)
		}
	}
	return series
}

func seriesFromLedger(years []int, rows []LedgerMonth, absolute bool) []YearSeries {
	series := emptySeries(years)
	addLedgerSeries(series, rows, absolute)
	return series
}

func addLedgerSeries(series []YearSeries, rows []LedgerMonth, absolute bool) {
	index := make(map[int]int, len(series))
	for i, s := range series {
		index[s.Year] = i
	}
	for _, row := range rows {
		if i, ok := index[row.Year]; ok && row.Month >= 1 && row.Month <= 12 {
			v := row.SumAmount
			if absolute {
				v = row.SumAbs
			}
			series[i].Values[row.Month-1] += v
		}
	}
}

func emptySeries(years []int) []YearSeries {
	series := make([]YearSeries, len(years))
	for i, y := range years {
		series[i] = YearSeries{Year: y}
	}
	return series
}

func seriesIndex(years []int) map[int]int {
	index := make(map[int]int, len(years))
	for i, y := range years {
		index[y] = i
	}
	return index
}

func allMonths() []int {
	months := make([]int, 12)
	for i := range months {
		months[i] = i + 1
	}
	return months
}

// periodItems turns per-month fuel-margin rows into breakdown lines for the
// months the window actually selects. Because the rows come from the same
// year/month predicate as the aggregate, the lines sum to the card exactly.
func periodItems(rows []FuelMarginMonth, set PeriodSet, pick func(FuelMarginMonth) float64) []BreakdownItem {
	items := make([]BreakdownItem, 0, len(rows))
	for _, row := range rows {
		if !set.Contains(row.Year, row.Month) {
			continue
		}
		items = append(items, BreakdownItem{
			Name:  monthLabel(row.Year, row.Month),
			Value: pick(row),
		})
	}
	return items
}

// codeItems maps per-code ledger totals into breakdown lines.
func codeItems(totals LedgerTotals) []BreakdownItem {
	items := make([]BreakdownItem, 0, len(totals.PerCode))
	for _, ct := range totals.PerCode {
		items = append(items, BreakdownItem{
			Code:             ct.Code,
			Name:             ct.Name,
			Value:            ct.Amount,
			TransactionCount: ct.Count,
		})
	}
	return items
}

// bucketItems folds per-code overhead totals into the per-hundred buckets
// shown by the overheads modal.
func bucketItems(totals LedgerTotals) []BreakdownItem {
	sums := make(map[int]*BreakdownItem)
	for _, ct := range totals.PerCode {
		base := OverheadBucketBase(ct.Code)
		item, ok := sums[base]
		if !ok {
			item = &BreakdownItem{Code: base, Name: OverheadBucketName(base)}
			sums[base] = item
		}
		item.Value += ct.Amount
		item.TransactionCount += ct.Count
	}
	bases := make([]int, 0, len(sums))
	for base := range sums {
		bases = append(bases, base)
	}
	sort.Ints(bases)
	items := make([]BreakdownItem, 0, len(bases))
	for _, base := range bases {
		items = append(items, *sums[base])
	}
	return items
}

func monthLabel(year, month int) string {
	return fmt.Sprintf("%s %d", time.Month(month).String()[:3], year)
}

// safeDiv divides, returning 0 for a zero denominator. Ratio metrics never
// surface NaN or infinity.
func safeDiv(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}
