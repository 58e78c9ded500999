package metrics

// MonthlyQuery bounds a pass over the month-granularity tables. The period
// set is reconstructed server-side as year IN (...) AND month IN (...).
type MonthlyQuery struct {
	Periods  PeriodSet
	SiteCode *int
	Bunkered *bool // true: bunkered sites only; false: non-bunkered or unflagged
}

// MonthlySummaryTotals sums the monthly pre-aggregate table across every
// matching (site, year, month) row.
type MonthlySummaryTotals struct {
	BunkeredSales        float64 `db:"bunkered_sales"`
	NonBunkeredSales     float64 `db:"non_bunkered_sales"`
	BunkeredPurchases    float64 `db:"bunkered_purchases"`
	NonBunkeredPurchases float64 `db:"non_bunkered_purchases"`
	BunkeredVolume       float64 `db:"bunkered_volume"`
	NonBunkeredVolume    float64 `db:"non_bunkered_volume"`
	ShopSales            float64 `db:"shop_sales"`
	ShopPurchases        float64 `db:"shop_purchases"`
	ValetSales           float64 `db:"valet_sales"`
	ValetPurchases       float64 `db:"valet_purchases"`
	Overheads            float64 `db:"overheads"`
	LabourCost           float64 `db:"labour_cost"`
}

// FuelMarginTotals sums the fuel-margin table. It is the authoritative
// source for fuel numbers whenever its figures are non-zero. AvgPPL is a
// simple unweighted mean across rows; the stored per-row rate is never
// treated as authoritative and headline PPL is recomputed from profit and
// volume instead.
type FuelMarginTotals struct {
	SaleVolume float64 `db:"sale_volume"`
	NetSales   float64 `db:"net_sales"`
	FuelProfit float64 `db:"fuel_profit"`
	Purchases  float64 `db:"purchases"`
	AvgPPL     float64 `db:"avg_ppl"`
	Rows       int64   `db:"row_count"`
}

// FuelMarginMonth is one calendar month of fuel-margin sums, used for
// trends and for period-level breakdowns.
type FuelMarginMonth struct {
	Year       int     `db:"year"`
	Month      int     `db:"month"`
	SaleVolume float64 `db:"sale_volume"`
	NetSales   float64 `db:"net_sales"`
	FuelProfit float64 `db:"fuel_profit"`
}

// MonthlySummaryMonth is one calendar month of monthly-summary sums.
type MonthlySummaryMonth struct {
	Year              int     `db:"year"`
	Month             int     `db:"month"`
	BunkeredSales     float64 `db:"bunkered_sales"`
	NonBunkeredSales  float64 `db:"non_bunkered_sales"`
	BunkeredVolume    float64 `db:"bunkered_volume"`
	NonBunkeredVolume float64 `db:"non_bunkered_volume"`
	ShopSales         float64 `db:"shop_sales"`
	ShopPurchases     float64 `db:"shop_purchases"`
	ValetSales        float64 `db:"valet_sales"`
	ValetPurchases    float64 `db:"valet_purchases"`
}

// FuelSalesTotal applies the monthly-summary fallback formula for fuel
// sales: bunkered plus non-bunkered.
func (t MonthlySummaryTotals) FuelSalesTotal() float64 {
	return t.BunkeredSales + t.NonBunkeredSales
}

// FuelVolumeTotal applies the monthly-summary fallback formula for fuel
// volume.
func (t MonthlySummaryTotals) FuelVolumeTotal() float64 {
	return t.BunkeredVolume + t.NonBunkeredVolume
}
