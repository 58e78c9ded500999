// Package metrics implements the FuelSight reconciliation engine: it turns
// the transaction ledger, the monthly summary table, and the fuel-margin
// table into a single authoritative number per dashboard card together with
// a breakdown that sums exactly to it.
package metrics

import (
	"errors"
	"fmt"
)

// Metric names accepted by the service. These are the wire identifiers used
// by the dashboard front end.
const (
	MetricTotalFuelVolume = "totalFuelVolume"
	MetricNetSales        = "netSales"
	MetricTotalNetSales   = "totalNetSales"
	MetricFuelProfit      = "fuelProfit"
	MetricTotalProfit     = "totalProfit"
	MetricShopProfit      = "shopProfit"
	MetricValetProfit     = "valetProfit"
	MetricOverheads       = "overheads"
	MetricLabourCost      = "labourCost"
	MetricBankBalance     = "bankBalance"
	MetricAvgPPL          = "avgPPL"
	MetricActualPPL       = "actualPPL"
	MetricProfitMargin    = "profitMargin"
	MetricLabourCostPct   = "labourCostPct"
	MetricBasketSize      = "basketSize"
	MetricActiveSites     = "activeSites"
	MetricAvgSalePerSite  = "avgSalePerSite"
)

// metricAliases maps the short names the front end historically used for
// trend requests onto canonical metric names.
var metricAliases = map[string]string{
	"volume": MetricTotalFuelVolume,
	"sales":  MetricNetSales,
	"profit": MetricTotalProfit,
	"labour": MetricLabourCost,
}

var metricUnits = map[string]string{
	MetricTotalFuelVolume: UnitLitres,
	MetricNetSales:        UnitGBP,
	MetricTotalNetSales:   UnitGBP,
	MetricFuelProfit:      UnitGBP,
	MetricTotalProfit:     UnitGBP,
	MetricShopProfit:      UnitGBP,
	MetricValetProfit:     UnitGBP,
	MetricOverheads:       UnitGBP,
	MetricLabourCost:      UnitGBP,
	MetricBankBalance:     UnitGBP,
	MetricAvgPPL:          UnitPPL,
	MetricActualPPL:       UnitPPL,
	MetricProfitMargin:    UnitPercent,
	MetricLabourCostPct:   UnitPercent,
	MetricBasketSize:      UnitGBP,
	MetricActiveSites:     UnitSites,
	MetricAvgSalePerSite:  UnitGBP,
}

// Units attached to resolved values.
const (
	UnitGBP     = "GBP"
	UnitLitres  = "L"
	UnitPPL     = "ppl"
	UnitPercent = "%"
	UnitSites   = "sites"
)

// CanonicalMetric normalises a requested metric name, resolving aliases.
// The second return value is false for names outside the taxonomy.
func CanonicalMetric(name string) (string, bool) {
	if alias, ok := metricAliases[name]; ok {
		name = alias
	}
	_, ok := metricUnits[name]
	return name, ok
}

// UnitFor returns the display unit for a canonical metric name.
func UnitFor(metric string) string {
	return metricUnits[metric]
}

// Sentinel site codes are header/company rows in the site table, not real
// sites. They are excluded from every cross-site aggregate but honoured when
// a caller asks for one of them explicitly.
var sentinelSiteCodes = []int{0, 1}

// ErrInvalidInput marks caller mistakes: missing scope or period parameters,
// a date range with start after end, or an unknown metric. It is detected
// before any query is issued.
var ErrInvalidInput = errors.New("metrics: invalid input")

// ErrUnknownMetric reports a metric name outside the supported set.
var ErrUnknownMetric = fmt.Errorf("%w: unknown metric", ErrInvalidInput)

// ErrNoBreakdown reports a breakdown request against a ratio metric that has
// no meaningful decomposition.
var ErrNoBreakdown = fmt.Errorf("%w: metric has no breakdown", ErrInvalidInput)

// Scope selects either a single site or the all-sites view.
type Scope struct {
	SiteCode *int
}

// AllSites returns the cross-site scope with sentinels excluded.
func AllSites() Scope {
	return Scope{}
}

// SiteScope returns a scope pinned to one site code. Sentinel codes are
// permitted here: asking for site 0 or 1 explicitly is how head-office rows
// are inspected.
func SiteScope(code int) Scope {
	return Scope{SiteCode: &code}
}

func (s Scope) token() string {
	if s.SiteCode == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *s.SiteCode)
}

// LedgerEntry mirrors one row of the transaction ledger. Rows are inserted
// by the ingestion pipeline and only ever read here; deletion is logical via
// DeletedFlag.
type LedgerEntry struct {
	SiteCode        int      `db:"site_code"`
	NominalCode     int      `db:"nominal_code"`
	TransactionDate string   `db:"transaction_date"`
	Amount          float64  `db:"amount"`
	Volume          *float64 `db:"volume"`
	Category        string   `db:"category"`
	DeletedFlag     *int16   `db:"deleted_flag"`
}

// Ledger category values used for transaction counting.
const (
	CategoryShopSales  = "shop_sales"
	CategoryFuelSales  = "fuel_sales"
	CategoryValetSales = "valet_sales"
)
