package derive

import (
	"math"
	"testing"

	"github.com/andresuchdata/invdash/internal/domain"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestDerivePriceIndexChainsRates(t *testing.T) {
	rates := domain.InflationSeries{0.32, 0.41, 0.55, -0.2, 0.62, 0.44}
	series := DerivePriceIndex(rates)

	if len(series) != len(rates)+1 {
		t.Fatalf("expected %d values, got %d", len(rates)+1, len(series))
	}
	if series[0] != 100.0 {
		t.Fatalf("expected base 100, got %v", series[0])
	}
	for i, r := range rates {
		if want := series[i] * (1 + r/100); series[i+1] != want {
			t.Fatalf("step %d: expected %v, got %v", i, want, series[i+1])
		}
	}
}

func TestDerivePriceIndexEmpty(t *testing.T) {
	series := DerivePriceIndex(nil)
	if len(series) != 1 || series[0] != 100.0 {
		t.Fatalf("expected [100], got %v", series)
	}
}

func TestDerivePriceIndexScenario(t *testing.T) {
	series := DerivePriceIndex(domain.InflationSeries{1.0, -0.5})
	expected := []float64{100.0, 101.0, 100.495}
	if len(series) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, series)
	}
	for i := range expected {
		if !almostEqual(series[i], expected[i]) {
			t.Fatalf("index %d: expected %v, got %v", i, expected[i], series[i])
		}
	}
}

func TestProjectNextIndex(t *testing.T) {
	rates := domain.InflationSeries{1.0, -0.5}
	series := DerivePriceIndex(rates)

	// 100.495 * 0.995 = 99.9925...
	if got := ProjectNextIndex(series, rates.Last()); got != 100.0 {
		t.Fatalf("expected 100.0, got %v", got)
	}
	if got := ProjectNextIndex(DerivePriceIndex(nil), domain.InflationSeries{}.Last()); got != 100.0 {
		t.Fatalf("expected flat projection on empty series, got %v", got)
	}
	if got := ProjectNextIndex(domain.PriceIndexSeries{100, 110}, 10); got != 121.0 {
		t.Fatalf("expected 121.0, got %v", got)
	}
}

func TestCurrentIndex(t *testing.T) {
	if got := CurrentIndex(domain.PriceIndexSeries{100, 101.26}); got != 101.3 {
		t.Fatalf("expected 101.3, got %v", got)
	}
}

func TestComputeInventoryKPIsEmpty(t *testing.T) {
	kpis := ComputeInventoryKPIs(nil)
	if kpis != (domain.InventoryKPIs{}) {
		t.Fatalf("expected zero KPIs, got %+v", kpis)
	}
}

func TestComputeInventoryKPIsUsesEffectiveValue(t *testing.T) {
	items := []domain.InventoryItem{
		{ID: "a", Price: 10, Stock: 5},
		{ID: "b", Price: 2, Stock: 3, Value: domain.Float(100)},
	}
	kpis := ComputeInventoryKPIs(items)
	if kpis.TotalValue != 150 {
		t.Fatalf("expected total value 150, got %v", kpis.TotalValue)
	}
}

func TestComputeInventoryKPIsCounts(t *testing.T) {
	items := []domain.InventoryItem{
		{ID: "X1", Name: "Widget", Price: 1000, Stock: 2, ReorderLevel: 5},
		{ID: "X2", Stock: 5, ReorderLevel: 5},
		{ID: "X3", Stock: 9, ReorderLevel: 5, Discontinued: true},
	}

	kpis := ComputeInventoryKPIs(items)
	if kpis.LowStockCount != 1 {
		t.Fatalf("expected 1 low-stock item under the strict policy, got %d", kpis.LowStockCount)
	}
	if kpis.DiscontinuedCount != 1 || kpis.ActiveCount != 2 || kpis.TotalItems != 3 {
		t.Fatalf("unexpected counts: %+v", kpis)
	}

	inclusive := NewInventoryCalculator(domain.ReorderAtOrBelow).KPIs(items)
	if inclusive.LowStockCount != 2 {
		t.Fatalf("expected stock == reorder level to count under the inclusive policy, got %d", inclusive.LowStockCount)
	}
}

func TestBucketInventoryByStock(t *testing.T) {
	items := []domain.InventoryItem{
		{ID: "a", Price: 1, Stock: 10},
		{ID: "b", Price: 2, Stock: 49},
		{ID: "c", Price: 1, Stock: 200, Value: domain.Float(7)},
		{ID: "d", Price: 3, Stock: 50},
	}

	buckets := BucketInventoryByStock(items, DefaultStockRanges())
	if len(buckets) != 3 {
		t.Fatalf("expected the empty 101-150 range to be omitted, got %+v", buckets)
	}

	expected := []domain.StockBucket{
		{Label: "Low stock (< 50)", TotalValue: 10 + 98, ItemCount: 2},
		{Label: "Medium stock (50-100)", TotalValue: 150, ItemCount: 1},
		{Label: "Very high stock (> 150)", TotalValue: 7, ItemCount: 1},
	}
	total := 0
	for i, b := range buckets {
		if b != expected[i] {
			t.Fatalf("bucket %d: expected %+v, got %+v", i, expected[i], b)
		}
		total += b.ItemCount
	}
	if total != len(items) {
		t.Fatalf("disjoint ranges must report every item exactly once, got %d", total)
	}
}

func TestBucketInventoryByStockKeepsCallerOrder(t *testing.T) {
	items := []domain.InventoryItem{{ID: "a", Price: 1, Stock: 5}, {ID: "b", Price: 1, Stock: 500}}
	ranges := []domain.StockRange{
		{Label: "big", Min: 100, Max: domain.Unbounded},
		{Label: "small", Min: 0, Max: 99},
	}
	buckets := BucketInventoryByStock(items, ranges)
	if len(buckets) != 2 || buckets[0].Label != "big" || buckets[1].Label != "small" {
		t.Fatalf("expected caller order, got %+v", buckets)
	}
	if got := BucketInventoryByStock(nil, ranges); len(got) != 0 {
		t.Fatalf("expected no buckets for empty items, got %+v", got)
	}
}

func TestStatusBreakdown(t *testing.T) {
	items := []domain.InventoryItem{
		{ID: "a", Stock: 1, ReorderLevel: 5},
		{ID: "b", Stock: 10, ReorderLevel: 5, Discontinued: true},
		{ID: "c", Stock: 10, ReorderLevel: 5},
		{ID: "d", Stock: 10, ReorderLevel: 5},
	}
	slices := NewInventoryCalculator(domain.ReorderBelow).StatusBreakdown(items)
	if slices[0].Count != 3 || slices[0].Share != 75 {
		t.Fatalf("unexpected active slice %+v", slices[0])
	}
	if slices[1].Count != 1 || slices[1].Share != 25 {
		t.Fatalf("unexpected discontinued slice %+v", slices[1])
	}
	if slices[2].Count != 1 || slices[2].Share != 25 {
		t.Fatalf("unexpected low stock slice %+v", slices[2])
	}

	empty := NewInventoryCalculator(domain.ReorderBelow).StatusBreakdown(nil)
	for _, s := range empty {
		if s.Count != 0 || s.Share != 0 {
			t.Fatalf("expected zero slices for empty input, got %+v", empty)
		}
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(domain.InflationSeries{0.3, 0.6, 0.9}, DefaultTargetRate)
	if s.CurrentRate != 0.9 || s.TargetRate != 4.0 || s.ObservedMonths != 3 {
		t.Fatalf("unexpected summary %+v", s)
	}
	if s.AverageLast3 == nil || !almostEqual(*s.AverageLast3, 0.6) {
		t.Fatalf("expected 3-month average 0.6, got %v", s.AverageLast3)
	}

	short := Summarize(domain.InflationSeries{0.5}, DefaultTargetRate)
	if short.AverageLast3 != nil {
		t.Fatalf("expected no average with fewer than 3 rates")
	}
	if Summarize(nil, DefaultTargetRate).CurrentRate != 0 {
		t.Fatalf("expected zero current rate for empty series")
	}
}

func TestTargetLineAndLabels(t *testing.T) {
	line := TargetLine(3)
	if len(line) != 3 || line[0] != 104 || line[2] != 104 {
		t.Fatalf("unexpected target line %v", line)
	}
	labels := MonthLabels(14)
	if labels[0] != "Ene" || labels[11] != "Dic" || labels[12] != "Ene" || labels[13] != "Feb" {
		t.Fatalf("unexpected labels %v", labels)
	}
	if len(TargetLine(-1)) != 0 || len(MonthLabels(0)) != 0 {
		t.Fatalf("expected empty results for non-positive sizes")
	}
}

func TestInventoryTotalsSaturate(t *testing.T) {
	items := []domain.InventoryItem{
		{ID: "A", Stock: 10, Value: domain.Float(1e308)},
		{ID: "B", Stock: 20, Value: domain.Float(1e308)},
	}

	if got := ComputeInventoryKPIs(items).TotalValue; got != math.MaxFloat64 {
		t.Fatalf("expected saturated total, got %v", got)
	}
	buckets := BucketInventoryByStock(items, DefaultStockRanges())
	if len(buckets) != 1 || buckets[0].TotalValue != math.MaxFloat64 {
		t.Fatalf("expected saturated bucket, got %+v", buckets)
	}
}
