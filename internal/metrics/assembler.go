package metrics

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// BreakdownItem is one line of a breakdown modal.
type BreakdownItem struct {
	Code             int     `json:"code,omitempty"`
	Name             string  `json:"name"`
	Value            float64 `json:"value"`
	TransactionCount int64   `json:"transactionCount,omitempty"`
}

// Card is one headline dashboard figure, with a pre-formatted display
// string so every client renders the number identically.
type Card struct {
	Metric  string  `json:"metric"`
	Value   float64 `json:"value"`
	Unit    string  `json:"unit"`
	Display string  `json:"display"`
}

// Breakdown is the modal payload for one metric. Total always equals the
// card value for the same metric, scope and window.
type Breakdown struct {
	Metric string          `json:"metric"`
	Unit   string          `json:"unit"`
	Total  float64         `json:"total"`
	Items  []BreakdownItem `json:"items"`
}

// TrendSeries is one chart line.
type TrendSeries struct {
	Name   string      `json:"name"`
	Values [12]float64 `json:"values"`
}

// Trend is the chart payload: fixed calendar labels plus one series per
// requested year.
type Trend struct {
	Metric string        `json:"metric"`
	Unit   string        `json:"unit"`
	Labels [12]string    `json:"labels"`
	Series []TrendSeries `json:"series"`
}

var monthLabels = [12]string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

// Assembler shapes resolver output into the response payloads. It holds a
// locale-aware printer for grouped number formatting on cards.
type Assembler struct {
	printer *message.Printer
}

// NewAssembler builds an Assembler with British English number formatting.
func NewAssembler() *Assembler {
	return &Assembler{printer: message.NewPrinter(language.BritishEnglish)}
}

// Card shapes a resolution into a headline card.
func (a *Assembler) Card(res Resolution) Card {
	return Card{
		Metric:  res.Metric,
		Value:   res.Value,
		Unit:    res.Unit,
		Display: a.display(res.Value, res.Unit),
	}
}

// Breakdown shapes a resolution into a modal payload. Metrics without a
// breakdown return ErrNoBreakdown; ratios have no meaningful item list.
func (a *Assembler) Breakdown(res Resolution) (Breakdown, error) {
	if !res.HasBreakdown {
		return Breakdown{}, fmt.Errorf("%w: %s", ErrNoBreakdown, res.Metric)
	}
	items := res.Items
	if items == nil {
		items = []BreakdownItem{}
	}
	return Breakdown{
		Metric: res.Metric,
		Unit:   res.Unit,
		Total:  res.Value,
		Items:  items,
	}, nil
}

// Trend shapes trend data into the chart payload. One series per year, in
// ascending year order, each with 12 zero-filled slots.
func (a *Assembler) Trend(data TrendData) Trend {
	t := Trend{
		Metric: data.Metric,
		Unit:   UnitFor(data.Metric),
		Labels: monthLabels,
		Series: make([]TrendSeries, len(data.Series)),
	}
	for i, ys := range data.Series {
		t.Series[i] = TrendSeries{
			Name:   fmt.Sprintf("%d", ys.Year),
			Values: ys.Values,
		}
	}
	return t
}

// display renders the card string for a value in its unit. Currency gets a
// pound sign and thousands grouping, percentages and pence-per-litre keep
// two decimals, litres group with no decimals, counts are plain integers.
func (a *Assembler) display(value float64, unit string) string {
	switch unit {
	case UnitGBP:
		return a.printer.Sprintf("£%.2f", value)
	case UnitLitres:
		return a.printer.Sprintf("%.0f L", value)
	case UnitPPL:
		return a.printer.Sprintf("%.2fp", value)
	case UnitPercent:
		return a.printer.Sprintf("%.2f%%", value)
	case UnitSites:
		return a.printer.Sprintf("%.0f", value)
	default:
		return a.printer.Sprintf("%.2f", value)
	}
}
