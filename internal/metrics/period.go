package metrics

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Period identifies one month of one year, the granularity of the monthly
// summary and fuel-margin tables.
type Period struct {
	Year  int
	Month int
}

// PeriodSet holds the years and months covering a query window as two
// independent ordered, duplicate-free lists. The month tables are queried
// with `year IN (...) AND month IN (...)`, reconstructing the cross product.
// When a range spans partial months across multiple years with different
// month sets this over-selects; that behaviour is carried over from the
// historical reports deliberately so numbers keep matching.
type PeriodSet struct {
	years  []int
	months []int
}

// NewPeriodSet builds a set from explicit month and year lists, deduplicated
// with input order preserved.
func NewPeriodSet(years, months []int) PeriodSet {
	return PeriodSet{years: dedupe(years), months: dedupe(months)}
}

// Years returns the ordered year list.
func (s PeriodSet) Years() []int {
	out := make([]int, len(s.years))
	copy(out, s.years)
	return out
}

// Months returns the ordered month list.
func (s PeriodSet) Months() []int {
	out := make([]int, len(s.months))
	copy(out, s.months)
	return out
}

// Empty reports whether the set covers no periods. Empty sets resolve to
// zero-filled results downstream, never errors.
func (s PeriodSet) Empty() bool {
	return len(s.years) == 0 || len(s.months) == 0
}

// Contains reports whether a (year, month) pair falls inside the cross
// product the set selects.
func (s PeriodSet) Contains(year, month int) bool {
	return contains(s.years, year) && contains(s.months, month)
}

// End returns the last day of the latest covered month, the upper bound used
// for running-balance queries when no explicit range was supplied.
func (s PeriodSet) End() time.Time {
	if s.Empty() {
		return time.Time{}
	}
	maxYear := s.years[0]
	for _, y := range s.years {
		if y > maxYear {
			maxYear = y
		}
	}
	maxMonth := s.months[0]
	for _, m := range s.months {
		if m > maxMonth {
			maxMonth = m
		}
	}
	return time.Date(maxYear, time.Month(maxMonth)+1, 0, 0, 0, 0, 0, time.UTC)
}

func (s PeriodSet) token() string {
	return joinInts(s.years) + "/" + joinInts(s.months)
}

// ExpandRange walks month-by-month from the first day of start's month to
// the first day of end's month inclusive and collects the covering periods.
// Day-granularity ranges are widened to whole months because the downstream
// tables hold one row per site/month. A start after end yields an empty set;
// callers validate ordering before querying.
func ExpandRange(start, end time.Time) PeriodSet {
	if start.IsZero() || end.IsZero() || start.After(end) {
		return PeriodSet{}
	}
	var years, months []int
	current := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !current.After(last) {
		years = append(years, current.Year())
		months = append(months, int(current.Month()))
		current = current.AddDate(0, 1, 0)
	}
	return NewPeriodSet(years, months)
}

// PeriodSpec is the caller-facing period selector: either explicit month and
// year lists, or a day-granularity date range that ExpandRange widens.
type PeriodSpec struct {
	Months []int
	Years  []int
	From   time.Time
	To     time.Time
}

// HasRange reports whether the spec carries a date range.
func (p PeriodSpec) HasRange() bool {
	return !p.From.IsZero() || !p.To.IsZero()
}

// Window is a resolved PeriodSpec: the covering period set plus the date
// bounds ledger queries should use. Explicit windows filter the ledger by
// extracted year/month instead of dates so both stores see the same months.
type Window struct {
	Set      PeriodSet
	From     time.Time
	To       time.Time
	Explicit bool
}

// Window validates the spec and resolves it. Missing period parameters and
// inverted ranges surface as ErrInvalidInput before any query runs.
func (p PeriodSpec) Window() (Window, error) {
	if p.HasRange() {
		if p.From.IsZero() || p.To.IsZero() {
			return Window{}, fmt.Errorf("%w: date range requires both bounds", ErrInvalidInput)
		}
		if p.From.After(p.To) {
			return Window{}, fmt.Errorf("%w: range start after end", ErrInvalidInput)
		}
		return Window{Set: ExpandRange(p.From, p.To), From: p.From, To: p.To}, nil
	}
	if len(p.Months) == 0 || len(p.Years) == 0 {
		return Window{}, fmt.Errorf("%w: months and years required", ErrInvalidInput)
	}
	for _, m := range p.Months {
		if m < 1 || m > 12 {
			return Window{}, fmt.Errorf("%w: month %d out of range", ErrInvalidInput, m)
		}
	}
	for _, y := range p.Years {
		if y < 1 {
			return Window{}, fmt.Errorf("%w: year %d out of range", ErrInvalidInput, y)
		}
	}
	set := NewPeriodSet(p.Years, p.Months)
	return Window{Set: set, To: set.End(), Explicit: true}, nil
}

func (p PeriodSpec) token() string {
	if p.HasRange() {
		return p.From.Format("2006-01-02") + ".." + p.To.Format("2006-01-02")
	}
	return joinInts(dedupe(p.Years)) + "/" + joinInts(dedupe(p.Months))
}

func dedupe(values []int) []int {
	seen := make(map[int]struct{}, len(values))
	out := make([]int, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func contains(values []int, v int) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func sortedInts(values []int) []int {
	out := dedupe(values)
	sort.Ints(out)
	return out
}
