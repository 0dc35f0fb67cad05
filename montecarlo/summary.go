package montecarlo

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/rustyeddy/mcfolio/journal"
)

// Summary aggregates Total across trials at one reporting time.
type Summary struct {
	Portfolio string
	T         float64
	Trials    int
	Mean      float64
	P5        float64
	P50       float64
	P95       float64
}

// Summarize returns one Summary per distinct reporting time, in time order.
// When a trial reports several rows at the same time, its last row counts.
func Summarize(portfolio string, rows []Row) []Summary {
	byT := map[float64]map[int]float64{}
	for _, r := range rows {
		if byT[r.T] == nil {
			byT[r.T] = map[int]float64{}
		}
		byT[r.T][r.Trial] = r.Total
	}

	times := make([]float64, 0, len(byT))
	for t := range byT {
		times = append(times, t)
	}
	sort.Float64s(times)

	out := make([]Summary, 0, len(times))
	for _, t := range times {
		totals := make([]float64, 0, len(byT[t]))
		for _, v := range byT[t] {
			totals = append(totals, v)
		}
		s := summarize(totals)
		s.Portfolio = portfolio
		s.T = t
		out = append(out, s)
	}
	return out
}

// Final summarizes each trial's last reported Total.
func Final(portfolio string, rows []Row) journal.SummaryRecord {
	last := map[int]float64{}
	for _, r := range rows {
		last[r.Trial] = r.Total
	}
	totals := make([]float64, 0, len(last))
	for _, v := range last {
		totals = append(totals, v)
	}
	return SummarizeTotals(portfolio, totals)
}

// SummarizeTotals summarizes one final Total per trial.
func SummarizeTotals(portfolio string, totals []float64) journal.SummaryRecord {
	s := summarize(append([]float64(nil), totals...))
	return journal.SummaryRecord{
		Portfolio: portfolio,
		Trials:    s.Trials,
		Mean:      s.Mean,
		P5:        s.P5,
		P50:       s.P50,
		P95:       s.P95,
	}
}

func summarize(totals []float64) Summary {
	if len(totals) == 0 {
		return Summary{}
	}
	sort.Float64s(totals)

	sum := decimal.Zero
	for _, v := range totals {
		sum = sum.Add(decimal.NewFromFloat(v))
	}
	mean := sum.Div(decimal.NewFromInt(int64(len(totals))))

	return Summary{
		Trials: len(totals),
		Mean:   cents(mean),
		P5:     cents(decimal.NewFromFloat(Percentile(totals, 5))),
		P50:    cents(decimal.NewFromFloat(Percentile(totals, 50))),
		P95:    cents(decimal.NewFromFloat(Percentile(totals, 95))),
	}
}

func cents(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// Percentile returns the p-th percentile (0..100) of sorted values using
// linear interpolation between closest ranks.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	switch {
	case n == 0:
		return math.NaN()
	case n == 1:
		return sorted[0]
	}
	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo < 0 {
		return sorted[0]
	}
	if hi >= n {
		return sorted[n-1]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// FormatMoney renders an amount in the given ISO currency, e.g. "$1,234.50".
// Unknown currencies fall back to a plain two-decimal number.
func FormatMoney(amount float64, currency string) string {
	if currency == "" {
		currency = "USD"
	}
	cur := money.GetCurrency(currency)
	if cur == nil {
		return fmt.Sprintf("%.2f %s", amount, currency)
	}
	minor := decimal.NewFromFloat(amount).Shift(int32(cur.Fraction)).Round(0)
	return money.New(minor.IntPart(), currency).Display()
}

// PrintSummary writes the final summaries of a run.
func PrintSummary(w io.Writer, runID string, finals []journal.SummaryRecord, currency string) {
	fmt.Fprintln(w, "=====================================")
	fmt.Fprintf(w, "Run %s\n", runID)
	fmt.Fprintln(w, "=====================================")
	for _, s := range finals {
		fmt.Fprintf(w, "%s (%d trials)\n", s.Portfolio, s.Trials)
		fmt.Fprintf(w, "  %-5s %s\n", "mean", FormatMoney(s.Mean, currency))
		fmt.Fprintf(w, "  %-5s %s\n", "p5", FormatMoney(s.P5, currency))
		fmt.Fprintf(w, "  %-5s %s\n", "p50", FormatMoney(s.P50, currency))
		fmt.Fprintf(w, "  %-5s %s\n", "p95", FormatMoney(s.P95, currency))
	}
	fmt.Fprintln(w, strings.Repeat("=", 37))
}
