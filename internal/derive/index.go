package derive

import "github.com/andresuchdata/invdash/internal/domain"

const (
	// DefaultTargetRate is the annual inflation target in percent.
	DefaultTargetRate = 4.0
	// TargetIndex is the base index grown by the annual target.
	TargetIndex = domain.BaseIndex * (1 + DefaultTargetRate/100)
)

var monthLabels = [12]string{
	"Ene", "Feb", "Mar", "Abr", "May", "Jun",
	"Jul", "Ago", "Sep", "Oct", "Nov", "Dic",
}

// DerivePriceIndex chains monthly percent rates into a base-100 index. The
// result always has len(rates)+1 entries; empty input yields [100].
func DerivePriceIndex(rates domain.InflationSeries) domain.PriceIndexSeries {
	series := make(domain.PriceIndexSeries, 0, len(rates)+1)

	idx := domain.BaseIndex
	series = append(series, idx)
	for _, rate := range rates {
		idx *= 1 + rate/100
		series = append(series, idx)
	}

	return series
}

// ProjectNextIndex repeats lastRate once more on top of the latest index
// value and rounds to one decimal.
func ProjectNextIndex(series domain.PriceIndexSeries, lastRate float64) float64 {
	return roundFloat(series.Last()*(1+lastRate/100), 1)
}

// CurrentIndex is the latest index value rounded to one decimal.
func CurrentIndex(series domain.PriceIndexSeries) float64 {
	return roundFloat(series.Last(), 1)
}

// TargetLine returns n points of the fixed target index.
func TargetLine(n int) []float64 {
	if n < 0 {
		n = 0
	}
	line := make([]float64, n)
	for i := range line {
		line[i] = TargetIndex
	}
	return line
}

// MonthLabels returns n chart labels, cycling through month abbreviations.
func MonthLabels(n int) []string {
	if n < 0 {
		n = 0
	}
	labels := make([]string, n)
	for i := range labels {
		labels[i] = monthLabels[i%len(monthLabels)]
	}
	return labels
}

// Summarize reports the latest rate, the target, and the average of the
// last three rates when at least three are observed.
func Summarize(rates domain.InflationSeries, targetRate float64) domain.InflationSummary {
	summary := domain.InflationSummary{
		CurrentRate:    rates.Last(),
		TargetRate:     targetRate,
		ObservedMonths: len(rates),
	}

	if len(rates) >= 3 {
		var sum float64
		for _, r := range rates[len(rates)-3:] {
			sum += r
		}
		avg := sum / 3
		summary.AverageLast3 = &avg
	}

	return summary
}
