package metrics

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository runs the read-only aggregate queries behind the engine. All
// dynamic filters (IN lists, optional bounds) go through squirrel so
// placeholder numbering and parameter binding stay in one place.
type Repository struct {
	pool    *pgxpool.Pool
	builder squirrel.StatementBuilderType
}

// NewRepository constructs a metrics repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{
		pool:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *Repository) ready() error {
	if r == nil || r.pool == nil {
		return fmt.Errorf("metrics repo not initialised")
	}
	return nil
}

// activeRowFilter keeps logically deleted ledger rows out of every sum.
const activeRowFilter = "(deleted_flag IS NULL OR deleted_flag = 0)"

func siteFilter(b squirrel.SelectBuilder, column string, siteCode *int) squirrel.SelectBuilder {
	if siteCode != nil {
		return b.Where(squirrel.Eq{column: *siteCode})
	}
	return b.Where(squirrel.NotEq{column: sentinelSiteCodes})
}

func ledgerBaseFilters(b squirrel.SelectBuilder, q LedgerQuery) squirrel.SelectBuilder {
	b = b.Where(activeRowFilter)
	if len(q.Codes) > 0 {
		b = b.Where(squirrel.Eq{"nominal_code": q.Codes})
	} else if q.CodeTo > 0 {
		b = b.Where(squirrel.GtOrEq{"nominal_code": q.CodeFrom}).
			Where(squirrel.LtOrEq{"nominal_code": q.CodeTo})
	}
	if len(q.Years) > 0 {
		b = b.Where(squirrel.Eq{"EXTRACT(YEAR FROM transaction_date)::int": q.Years}).
			Where(squirrel.Eq{"EXTRACT(MONTH FROM transaction_date)::int": q.Months})
	} else {
		if !q.From.IsZero() {
			b = b.Where(squirrel.GtOrEq{"transaction_date": q.From})
		}
		if !q.To.IsZero() {
			b = b.Where(squirrel.LtOrEq{"transaction_date": q.To})
		}
	}
	if len(q.Categories) > 0 {
		b = b.Where(squirrel.Eq{"category": q.Categories})
	}
	return siteFilter(b, "site_code", q.SiteCode)
}

func (r *Repository) buildLedgerAggregate(q LedgerQuery) (string, []any, error) {
	b := r.builder.Select(
		"nominal_code",
		"COALESCE(SUM(amount), 0) AS sum_amount",
		"COALESCE(SUM(ABS(amount)), 0) AS sum_abs_amount",
		"COALESCE(SUM(volume), 0) AS sum_volume",
		"COUNT(*) AS tx_count",
	).From("ledger_entries")
	b = ledgerBaseFilters(b, q)
	return b.GroupBy("nominal_code").OrderBy("nominal_code").ToSql()
}

// AggregateLedger sums matching ledger rows grouped by nominal code and
// applies the taxonomy sign rules.
func (r *Repository) AggregateLedger(ctx context.Context, q LedgerQuery) (LedgerTotals, error) {
	if err := r.ready(); err != nil {
		return LedgerTotals{}, err
	}
	sql, args, err := r.buildLedgerAggregate(q)
	if err != nil {
		return LedgerTotals{}, fmt.Errorf("metrics: build ledger query: %w", err)
	}
	var rows []ledgerRow
	if err := pgxscan.Select(ctx, r.pool, &rows, sql, args...); err != nil {
		return LedgerTotals{}, err
	}
	return summariseLedger(rows), nil
}

func (r *Repository) buildLedgerSeries(q LedgerQuery) (string, []any, error) {
	b := r.builder.Select(
		"EXTRACT(YEAR FROM transaction_date)::int AS year",
		"EXTRACT(MONTH FROM transaction_date)::int AS month",
		"COALESCE(SUM(amount), 0) AS sum_amount",
		"COALESCE(SUM(ABS(amount)), 0) AS sum_abs_amount",
		"COUNT(*) AS tx_count",
	).From("ledger_entries")
	b = ledgerBaseFilters(b, q)
	return b.GroupBy("1", "2").OrderBy("1", "2").ToSql()
}

// LedgerSeries sums matching ledger rows per calendar month.
func (r *Repository) LedgerSeries(ctx context.Context, q LedgerQuery) ([]LedgerMonth, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	sql, args, err := r.buildLedgerSeries(q)
	if err != nil {
		return nil, fmt.Errorf("metrics: build ledger series: %w", err)
	}
	var rows []LedgerMonth
	if err := pgxscan.Select(ctx, r.pool, &rows, sql, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) buildTransactionCount(q LedgerQuery) (string, []any, error) {
	b := r.builder.Select("COUNT(*) AS tx_count").From("ledger_entries")
	b = ledgerBaseFilters(b, q)
	return b.ToSql()
}

// TransactionCount counts matching ledger rows; the basket-size denominator
// uses it with a category filter instead of nominal codes.
func (r *Repository) TransactionCount(ctx context.Context, q LedgerQuery) (int64, error) {
	if err := r.ready(); err != nil {
		return 0, err
	}
	sql, args, err := r.buildTransactionCount(q)
	if err != nil {
		return 0, fmt.Errorf("metrics: build count query: %w", err)
	}
	var count int64
	if err := pgxscan.Get(ctx, r.pool, &count, sql, args...); err != nil {
		return 0, err
	}
	return count, nil
}

func monthlyFilters(b squirrel.SelectBuilder, q MonthlyQuery) squirrel.SelectBuilder {
	b = b.Where(squirrel.Eq{"m.year": q.Periods.Years()}).
		Where(squirrel.Eq{"m.month": q.Periods.Months()})
	b = siteFilter(b, "m.site_code", q.SiteCode)
	if q.Bunkered != nil {
		b = b.Join("sites s ON s.site_code = m.site_code")
		if *q.Bunkered {
			b = b.Where("s.is_bunkered = TRUE")
		} else {
			b = b.Where("(s.is_bunkered = FALSE OR s.is_bunkered IS NULL)")
		}
	}
	return b
}

func (r *Repository) buildMonthlySummary(q MonthlyQuery) (string, []any, error) {
	b := r.builder.Select(
		"COALESCE(SUM(m.bunkered_sales), 0) AS bunkered_sales",
		"COALESCE(SUM(m.non_bunkered_sales), 0) AS non_bunkered_sales",
		"COALESCE(SUM(m.bunkered_purchases), 0) AS bunkered_purchases",
		"COALESCE(SUM(m.non_bunkered_purchases), 0) AS non_bunkered_purchases",
		"COALESCE(SUM(m.bunkered_volume), 0) AS bunkered_volume",
		"COALESCE(SUM(m.non_bunkered_volume), 0) AS non_bunkered_volume",
		"COALESCE(SUM(m.shop_sales), 0) AS shop_sales",
		"COALESCE(SUM(m.shop_purchases), 0) AS shop_purchases",
		"COALESCE(SUM(m.valet_sales), 0) AS valet_sales",
		"COALESCE(SUM(m.valet_purchases), 0) AS valet_purchases",
		"COALESCE(SUM(m.overheads), 0) AS overheads",
		"COALESCE(SUM(m.labour_cost), 0) AS labour_cost",
	).From("monthly_summary m")
	return monthlyFilters(b, q).ToSql()
}

// MonthlySummary sums the monthly pre-aggregate table over the period set.
func (r *Repository) MonthlySummary(ctx context.Context, q MonthlyQuery) (MonthlySummaryTotals, error) {
	var totals MonthlySummaryTotals
	if err := r.ready(); err != nil {
		return totals, err
	}
	if q.Periods.Empty() {
		return totals, nil
	}
	sql, args, err := r.buildMonthlySummary(q)
	if err != nil {
		return totals, fmt.Errorf("metrics: build monthly summary: %w", err)
	}
	if err := pgxscan.Get(ctx, r.pool, &totals, sql, args...); err != nil {
		return MonthlySummaryTotals{}, err
	}
	return totals, nil
}

func (r *Repository) buildFuelMargin(q MonthlyQuery) (string, []any, error) {
	b := r.builder.Select(
		"COALESCE(SUM(m.sale_volume), 0) AS sale_volume",
		"COALESCE(SUM(m.net_sales), 0) AS net_sales",
		"COALESCE(SUM(m.fuel_profit), 0) AS fuel_profit",
		"COALESCE(SUM(m.purchases), 0) AS purchases",
		"COALESCE(AVG(m.ppl), 0) AS avg_ppl",
		"COUNT(*) AS row_count",
	).From("fuel_margin_monthly m")
	return monthlyFilters(b, q).ToSql()
}

// FuelMargin sums the fuel-margin table over the period set.
func (r *Repository) FuelMargin(ctx context.Context, q MonthlyQuery) (FuelMarginTotals, error) {
	var totals FuelMarginTotals
	if err := r.ready(); err != nil {
		return totals, err
	}
	if q.Periods.Empty() {
		return totals, nil
	}
	sql, args, err := r.buildFuelMargin(q)
	if err != nil {
		return totals, fmt.Errorf("metrics: build fuel margin: %w", err)
	}
	if err := pgxscan.Get(ctx, r.pool, &totals, sql, args...); err != nil {
		return FuelMarginTotals{}, err
	}
	return totals, nil
}

func (r *Repository) buildFuelMarginSeries(years []int, siteCode *int) (string, []any, error) {
	b := r.builder.Select(
		"m.year",
		"m.month",
		"COALESCE(SUM(m.sale_volume), 0) AS sale_volume",
		"COALESCE(SUM(m.net_sales), 0) AS net_sales",
		"COALESCE(SUM(m.fuel_profit), 0) AS fuel_profit",
	).From("fuel_margin_monthly m").
		Where(squirrel.Eq{"m.year": years})
	b = siteFilter(b, "m.site_code", siteCode)
	return b.GroupBy("m.year", "m.month").OrderBy("m.year", "m.month").ToSql()
}

// FuelMarginSeries sums the fuel-margin table per calendar month for the
// given years.
func (r *Repository) FuelMarginSeries(ctx context.Context, years []int, siteCode *int) ([]FuelMarginMonth, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	if len(years) == 0 {
		return nil, nil
	}
	sql, args, err := r.buildFuelMarginSeries(years, siteCode)
	if err != nil {
		return nil, fmt.Errorf("metrics: build fuel margin series: %w", err)
	}
	var rows []FuelMarginMonth
	if err := pgxscan.Select(ctx, r.pool, &rows, sql, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) buildMonthlySummarySeries(years []int, siteCode *int) (string, []any, error) {
	b := r.builder.Select(
		"m.year",
		"m.month",
		"COALESCE(SUM(m.bunkered_sales), 0) AS bunkered_sales",
		"COALESCE(SUM(m.non_bunkered_sales), 0) AS non_bunkered_sales",
		"COALESCE(SUM(m.bunkered_volume), 0) AS bunkered_volume",
		"COALESCE(SUM(m.non_bunkered_volume), 0) AS non_bunkered_volume",
		"COALESCE(SUM(m.shop_sales), 0) AS shop_sales",
		"COALESCE(SUM(m.shop_purchases), 0) AS shop_purchases",
		"COALESCE(SUM(m.valet_sales), 0) AS valet_sales",
		"COALESCE(SUM(m.valet_purchases), 0) AS valet_purchases",
	).From("monthly_summary m").
		Where(squirrel.Eq{"m.year": years})
	b = siteFilter(b, "m.site_code", siteCode)
	return b.GroupBy("m.year", "m.month").OrderBy("m.year", "m.month").ToSql()
}

// MonthlySummarySeries sums the monthly summary table per calendar month
// for the given years.
func (r *Repository) MonthlySummarySeries(ctx context.Context, years []int, siteCode *int) ([]MonthlySummaryMonth, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	if len(years) == 0 {
		return nil, nil
	}
	sql, args, err := r.buildMonthlySummarySeries(years, siteCode)
	if err != nil {
		return nil, fmt.Errorf("metrics: build monthly summary series: %w", err)
	}
	var rows []MonthlySummaryMonth
	if err := pgxscan.Select(ctx, r.pool, &rows, sql, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) buildActiveSiteCount(periods PeriodSet) (string, []any, error) {
	return r.builder.Select("COUNT(DISTINCT site_code) AS site_count").
		From("fuel_margin_monthly").
		Where(squirrel.Eq{"year": periods.Years()}).
		Where(squirrel.Eq{"month": periods.Months()}).
		Where(squirrel.NotEq{"site_code": sentinelSiteCodes}).
		ToSql()
}

// ActiveSiteCount counts distinct non-sentinel sites with fuel-margin rows
// in the period set.
func (r *Repository) ActiveSiteCount(ctx context.Context, periods PeriodSet) (int64, error) {
	if err := r.ready(); err != nil {
		return 0, err
	}
	if periods.Empty() {
		return 0, nil
	}
	sql, args, err := r.buildActiveSiteCount(periods)
	if err != nil {
		return 0, fmt.Errorf("metrics: build active site count: %w", err)
	}
	var count int64
	if err := pgxscan.Get(ctx, r.pool, &count, sql, args...); err != nil {
		return 0, err
	}
	return count, nil
}
