package metrics

import "time"

// LedgerQuery describes one aggregate pass over the transaction ledger.
// Either Codes or the CodeFrom/CodeTo range selects nominal codes; either
// the From/To date bounds or the Years/Months lists bound time. Deleted
// rows (deleted_flag = 1) never match; rows with 0 or NULL do.
type LedgerQuery struct {
	Codes    []int
	CodeFrom int
	CodeTo   int

	From   time.Time // zero means no lower bound (running balances)
	To     time.Time
	Years  []int
	Months []int

	SiteCode   *int // nil selects all sites with sentinels excluded
	Categories []string
}

// CodeTotal is one nominal code's contribution to a ledger aggregate, sign
// rule already applied. It backs the breakdown modals.
type CodeTotal struct {
	Code   int
	Name   string
	Amount float64
	Volume float64
	Count  int64
}

// LedgerTotals is the result of a ledger aggregate pass.
type LedgerTotals struct {
	Amount       float64 // sign rule applied per code
	SignedAmount float64
	AbsAmount    float64
	Volume       float64
	Count        int64
	PerCode      []CodeTotal
}

// ledgerRow mirrors one GROUP BY nominal_code result row.
type ledgerRow struct {
	NominalCode int     `db:"nominal_code"`
	SumAmount   float64 `db:"sum_amount"`
	SumAbs      float64 `db:"sum_abs_amount"`
	SumVolume   float64 `db:"sum_volume"`
	TxCount     int64   `db:"tx_count"`
}

// summariseLedger folds grouped ledger rows into totals, applying the sign
// rule per code. Rows whose code falls outside the taxonomy are omitted.
// Volumes are summed as-is; litres are not sign-corrected.
func summariseLedger(rows []ledgerRow) LedgerTotals {
	var totals LedgerTotals
	for _, row := range rows {
		cls, ok := Classify(row.NominalCode)
		if !ok {
			continue
		}
		amount := row.SumAmount
		if cls.Sign == SignAbsolute {
			amount = row.SumAbs
		}
		totals.Amount += amount
		totals.SignedAmount += row.SumAmount
		totals.AbsAmount += row.SumAbs
		totals.Volume += row.SumVolume
		totals.Count += row.TxCount
		totals.PerCode = append(totals.PerCode, CodeTotal{
			Code:   row.NominalCode,
			Name:   cls.Name,
			Amount: amount,
			Volume: row.SumVolume,
			Count:  row.TxCount,
		})
	}
	return totals
}

// LedgerMonth is one calendar month's ledger aggregate, used for trends.
type LedgerMonth struct {
	Year      int     `db:"year"`
	Month     int     `db:"month"`
	SumAmount float64 `db:"sum_amount"`
	SumAbs    float64 `db:"sum_abs_amount"`
	TxCount   int64   `db:"tx_count"`
}
