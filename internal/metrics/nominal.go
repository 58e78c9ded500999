package metrics

// Category groups nominal codes by the kind of financial event they record.
type Category string

// Nominal code categories.
const (
	CategoryFuelSale     Category = "fuel-sale"
	CategoryFuelPurchase Category = "fuel-purchase"
	CategoryOtherIncome  Category = "other-income"
	CategoryOverhead     Category = "overhead"
	CategoryLabour       Category = "labour"
	CategoryBankAccount  Category = "bank-account"
)

// SignRule controls how ledger amounts for a code are summed.
type SignRule int

const (
	// SignAsIs sums amounts with their recorded sign (running balances).
	SignAsIs SignRule = iota
	// SignAbsolute sums absolute values; sales and purchase codes are
	// booked with inconsistent signs upstream, so magnitude is what counts.
	SignAbsolute
)

// Classification is one taxonomy entry for a nominal code.
type Classification struct {
	Code     int
	Name     string
	Category Category
	Sign     SignRule
}

// namedCodes is the compiled-in chart-of-accounts taxonomy. It is never
// mutated at runtime; Classify falls back to the overhead range for 7xxx
// codes not named here.
var namedCodes = map[int]Classification{
	4000: {Code: 4000, Name: "Petrol Sales", Category: CategoryFuelSale, Sign: SignAbsolute},
	4001: {Code: 4001, Name: "Diesel Sales", Category: CategoryFuelSale, Sign: SignAbsolute},
	4002: {Code: 4002, Name: "Super Petrol Sales", Category: CategoryFuelSale, Sign: SignAbsolute},
	4003: {Code: 4003, Name: "Super Diesel Sales", Category: CategoryFuelSale, Sign: SignAbsolute},
	4008: {Code: 4008, Name: "AdBlue Sales", Category: CategoryFuelSale, Sign: SignAbsolute},

	5000: {Code: 5000, Name: "Petrol Purchases", Category: CategoryFuelPurchase, Sign: SignAbsolute},
	5001: {Code: 5001, Name: "Diesel Purchases", Category: CategoryFuelPurchase, Sign: SignAbsolute},
	5003: {Code: 5003, Name: "Super Petrol Purchases", Category: CategoryFuelPurchase, Sign: SignAbsolute},
	5004: {Code: 5004, Name: "Super Diesel Purchases", Category: CategoryFuelPurchase, Sign: SignAbsolute},
	5014: {Code: 5014, Name: "AdBlue Purchases", Category: CategoryFuelPurchase, Sign: SignAbsolute},

	6100: {Code: 6100, Name: "Fuel Commissions", Category: CategoryOtherIncome, Sign: SignAbsolute},
	6101: {Code: 6101, Name: "Daily Facility Fees", Category: CategoryOtherIncome, Sign: SignAbsolute},
	6102: {Code: 6102, Name: "Valeting Commissions", Category: CategoryOtherIncome, Sign: SignAbsolute},

	7000: {Code: 7000, Name: "Gross Wages", Category: CategoryLabour, Sign: SignAbsolute},
	7006: {Code: 7006, Name: "Employers N.I.", Category: CategoryLabour, Sign: SignAbsolute},
	7007: {Code: 7007, Name: "Staff Pensions", Category: CategoryLabour, Sign: SignAbsolute},

	1200: {Code: 1200, Name: "PRL HSBC", Category: CategoryBankAccount, Sign: SignAsIs},
	1223: {Code: 1223, Name: "Edmonton A/C", Category: CategoryBankAccount, Sign: SignAsIs},
	1224: {Code: 1224, Name: "Lloyds Bank", Category: CategoryBankAccount, Sign: SignAsIs},
}

// Overhead code range. Every 7xxx code is an overhead regardless of whether
// it also carries a narrower named classification.
const (
	OverheadCodeFrom = 7000
	OverheadCodeTo   = 7999
)

var overheadBucketNames = map[int]string{
	70: "Labour",
	71: "Rent & Rates",
	72: "Utilities",
	73: "Maintenance",
	74: "Insurance",
	75: "Professional Fees",
	76: "Marketing",
	77: "Travel",
	78: "Repairs & Renewals",
	79: "Bank & Finance",
}

// Classify resolves a nominal code against the taxonomy. Codes outside it
// return ok=false and are simply omitted from taxonomy-driven metrics;
// classification never errors.
func Classify(code int) (Classification, bool) {
	if c, ok := namedCodes[code]; ok {
		return c, true
	}
	if code >= OverheadCodeFrom && code <= OverheadCodeTo {
		return Classification{
			Code:     code,
			Name:     OverheadBucketName(code),
			Category: CategoryOverhead,
			Sign:     SignAbsolute,
		}, true
	}
	return Classification{}, false
}

// OverheadBucketName maps a 7xxx code to its per-hundred bucket label.
// Non-overhead codes yield an empty string.
func OverheadBucketName(code int) string {
	return overheadBucketNames[code/100]
}

// OverheadBucketBase returns the first code of the bucket the code belongs
// to, e.g. 7234 -> 7200.
func OverheadBucketBase(code int) int {
	return (code / 100) * 100
}

// CodesFor lists the explicit nominal codes carrying the given category, in
// ascending order. The overhead category is a range, not a list; callers use
// OverheadCodeFrom/OverheadCodeTo for it.
func CodesFor(category Category) []int {
	var codes []int
	for code, cls := range namedCodes {
		if cls.Category == category {
			codes = append(codes, code)
		}
	}
	return sortedInts(codes)
}
