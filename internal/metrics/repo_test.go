package metrics

import (
	"strings"
	"testing"
	"time"
)

func newTestRepo() *Repository {
	// A nil pool is fine for exercising the SQL builders.
	return NewRepository(nil)
}

func TestBuildLedgerAggregateExcludesDeleted(t *testing.T) {
	repo := newTestRepo()
	sql, _, err := repo.buildLedgerAggregate(LedgerQuery{Codes: []int{4000}})
	if err != nil {
		t.Fatalf("build error: %v", err)
	}
	if !strings.Contains(sql, "deleted_flag IS NULL OR deleted_flag = 0") {
		t.Fatalf("deleted filter missing:\n%s", sql)
	}
	if !strings.Contains(sql, "GROUP BY nominal_code") {
		t.Fatalf("group by missing:\n%s", sql)
	}
}

func TestBuildLedgerAggregateSentinelExclusion(t *testing.T) {
	repo := newTestRepo()
	sql, args, err := repo.buildLedgerAggregate(LedgerQuery{Codes: []int{4000}})
	if err != nil {
		t.Fatalf("build error: %v", err)
	}
	if !strings.Contains(sql, "site_code NOT IN") {
		t.Fatalf("sentinel exclusion missing for all-sites:\n%s", sql)
	}
	found := 0
	for _, a := range args {
		if v, ok := a.(int); ok && (v == 0 || v == 1) {
			found++
		}
	}
	if found != 2 {
		t.Fatalf("sentinel codes not bound, args=%v", args)
	}
}

func TestBuildLedgerAggregateSingleSite(t *testing.T) {
	repo := newTestRepo()
	site := 5
	sql, _, err := repo.buildLedgerAggregate(LedgerQuery{Codes: []int{4000}, SiteCode: &site})
	if err != nil {
		t.Fatalf("build error: %v", err)
	}
	if strings.Contains(sql, "NOT IN") {
		t.Fatalf("explicit site must not exclude sentinels:\n%s", sql)
	}
	if !strings.Contains(sql, "site_code = ") {
		t.Fatalf("site equality missing:\n%s", sql)
	}
}

func TestBuildLedgerAggregateExplicitPeriods(t *testing.T) {
	repo := newTestRepo()
	sql, _, err := repo.buildLedgerAggregate(LedgerQuery{
		CodeFrom: OverheadCodeFrom,
		CodeTo:   OverheadCodeTo,
		Years:    []int{2025},
		Months:   []int{1, 3},
	})
	if err != nil {
		t.Fatalf("build error: %v", err)
	}
	if !strings.Contains(sql, "EXTRACT(YEAR FROM transaction_date)::int IN") {
		t.Fatalf("year extraction missing:\n%s", sql)
	}
	if !strings.Contains(sql, "EXTRACT(MONTH FROM transaction_date)::int IN") {
		t.Fatalf("month extraction missing:\n%s", sql)
	}
	if strings.Contains(sql, "transaction_date >=") {
		t.Fatalf("explicit periods must not add date bounds:\n%s", sql)
	}
	if !strings.Contains(sql, "nominal_code >= ") || !strings.Contains(sql, "nominal_code <= ") {
		t.Fatalf("code range missing:\n%s", sql)
	}
}

func TestBuildLedgerAggregateRangeBounds(t *testing.T) {
	repo := newTestRepo()
	sql, _, err := repo.buildLedgerAggregate(LedgerQuery{
		Codes: []int{1200},
		To:    time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("build error: %v", err)
	}
	if strings.Contains(sql, "transaction_date >=") {
		t.Fatalf("zero From must leave the lower bound open:\n%s", sql)
	}
	if !strings.Contains(sql, "transaction_date <=") {
		t.Fatalf("upper bound missing:\n%s", sql)
	}
}

func TestBuildTransactionCountCategories(t *testing.T) {
	repo := newTestRepo()
	sql, args, err := repo.buildTransactionCount(LedgerQuery{
		Years:      []int{2025},
		Months:     []int{1},
		Categories: []string{CategoryShopSales, CategoryFuelSales},
	})
	if err != nil {
		t.Fatalf("build error: %v", err)
	}
	if !strings.Contains(sql, "category IN") {
		t.Fatalf("category filter missing:\n%s", sql)
	}
	found := false
	for _, a := range args {
		if a == CategoryShopSales {
			found = true
		}
	}
	if !found {
		t.Fatalf("category arg not bound: %v", args)
	}
}

func TestBuildMonthlySummaryPeriodLists(t *testing.T) {
	repo := newTestRepo()
	q := MonthlyQuery{Periods: NewPeriodSet([]int{2024, 2025}, []int{12, 1})}
	sql, args, err := repo.buildMonthlySummary(q)
	if err != nil {
		t.Fatalf("build error: %v", err)
	}
	if !strings.Contains(sql, "m.year IN") || !strings.Contains(sql, "m.month IN") {
		t.Fatalf("period lists missing:\n%s", sql)
	}
	if len(args) < 4 {
		t.Fatalf("expected year+month args, got %v", args)
	}
}

func TestBuildFuelMarginJoinsForBunkered(t *testing.T) {
	repo := newTestRepo()
	bunkered := true
	q := MonthlyQuery{Periods: NewPeriodSet([]int{2025}, []int{1}), Bunkered: &bunkered}
	sql, _, err := repo.buildFuelMargin(q)
	if err != nil {
		t.Fatalf("build error: %v", err)
	}
	if !strings.Contains(sql, "JOIN sites s ON s.site_code = m.site_code") {
		t.Fatalf("sites join missing:\n%s", sql)
	}
	if !strings.Contains(sql, "s.is_bunkered = TRUE") {
		t.Fatalf("bunkered filter missing:\n%s", sql)
	}
}

func TestBuildActiveSiteCount(t *testing.T) {
	repo := newTestRepo()
	sql, _, err := repo.buildActiveSiteCount(NewPeriodSet([]int{2025}, []int{1, 2}))
	if err != nil {
		t.Fatalf("build error: %v", err)
	}
	if !strings.Contains(sql, "COUNT(DISTINCT site_code)") {
		t.Fatalf("distinct count missing:\n%s", sql)
	}
	if !strings.Contains(sql, "site_code NOT IN") {
		t.Fatalf("sentinel exclusion missing:\n%s", sql)
	}
}
