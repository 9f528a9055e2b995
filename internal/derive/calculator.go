package derive

import (
	"math"

	"github.com/andresuchdata/invdash/internal/domain"
)

// InventoryCalculator derives inventory KPIs and chart aggregates under a
// given reorder policy.
type InventoryCalculator struct {
	policy domain.ReorderPolicy
}

// NewInventoryCalculator creates a calculator for the given reorder policy
func NewInventoryCalculator(policy domain.ReorderPolicy) *InventoryCalculator {
	return &InventoryCalculator{policy: policy}
}

var defaultCalculator = NewInventoryCalculator(domain.ReorderBelow)

// Policy returns the reorder policy the calculator applies.
func (ic *InventoryCalculator) Policy() domain.ReorderPolicy {
	return ic.policy
}

// KPIs computes the headline inventory figures. An empty item list yields
// all-zero KPIs.
func (ic *InventoryCalculator) KPIs(items []domain.InventoryItem) domain.InventoryKPIs {
	kpis := domain.InventoryKPIs{TotalItems: len(items)}

	for i := range items {
		it := &items[i]

		// 1. Total value uses the stored value when present
		kpis.TotalValue = addValue(kpis.TotalValue, it.EffectiveValue())

		// 2. Low stock against the reorder threshold
		if ic.policy.NeedsReorder(*it) {
			kpis.LowStockCount++
		}

		// 3. Discontinued
		if it.Discontinued {
			kpis.DiscontinuedCount++
		}
	}

	kpis.ActiveCount = kpis.TotalItems - kpis.DiscontinuedCount
	return kpis
}

// Buckets aggregates effective value per stock range, in the order the
// ranges are given. Ranges without items are omitted. Overlapping ranges
// count an item once per matching range.
func (ic *InventoryCalculator) Buckets(items []domain.InventoryItem, ranges []domain.StockRange) []domain.StockBucket {
	buckets := make([]domain.StockBucket, 0, len(ranges))

	for _, r := range ranges {
		bucket := domain.StockBucket{Label: r.Label}
		for i := range items {
			if r.Contains(items[i].Stock) {
				bucket.TotalValue = addValue(bucket.TotalValue, items[i].EffectiveValue())
				bucket.ItemCount++
			}
		}
		if bucket.ItemCount > 0 {
			buckets = append(buckets, bucket)
		}
	}

	return buckets
}

// StatusBreakdown returns the active / discontinued / low-stock segments of
// the status doughnut, each with its share of all items in percent.
func (ic *InventoryCalculator) StatusBreakdown(items []domain.InventoryItem) []domain.StatusSlice {
	kpis := ic.KPIs(items)

	slices := []domain.StatusSlice{
		{Label: "Active", Count: kpis.ActiveCount},
		{Label: "Discontinued", Count: kpis.DiscontinuedCount},
		{Label: "Low stock", Count: kpis.LowStockCount},
	}
	if kpis.TotalItems == 0 {
		return slices
	}

	for i := range slices {
		share := float64(slices[i].Count) / float64(kpis.TotalItems) * 100
		slices[i].Share = roundFloat(share, 1)
	}
	return slices
}

// ComputeInventoryKPIs applies the default (strictly below) reorder policy.
func ComputeInventoryKPIs(items []domain.InventoryItem) domain.InventoryKPIs {
	return defaultCalculator.KPIs(items)
}

// BucketInventoryByStock aggregates items into the given stock ranges.
func BucketInventoryByStock(items []domain.InventoryItem, ranges []domain.StockRange) []domain.StockBucket {
	return defaultCalculator.Buckets(items, ranges)
}

// DefaultStockRanges are the composition chart ranges used by the dashboard.
func DefaultStockRanges() []domain.StockRange {
	return []domain.StockRange{
		{Label: "Low stock (< 50)", Min: 0, Max: 49},
		{Label: "Medium stock (50-100)", Min: 50, Max: 100},
		{Label: "High stock (101-150)", Min: 101, Max: 150},
		{Label: "Very high stock (> 150)", Min: 151, Max: domain.Unbounded},
	}
}

// addValue accumulates effective values, saturating at the float range so a
// dataset kept despite violations still yields an encodable total.
func addValue(total, v float64) float64 {
	if math.IsNaN(v) {
		return total
	}
	sum := total + v
	switch {
	case math.IsInf(sum, 1):
		return math.MaxFloat64
	case math.IsInf(sum, -1):
		return -math.MaxFloat64
	}
	return sum
}

// roundFloat rounds v to the given number of decimal places.
func roundFloat(v float64, decimals int) float64 {
	if decimals <= 0 {
		return math.Round(v)
	}

	factor := math.Pow(10, float64(decimals))
	return math.Round(v*factor) / factor
}
