package domain

import "math"

// InventoryKPIs are the headline inventory figures of the dashboard.
type InventoryKPIs struct {
	TotalValue        float64 `json:"total_value"`
	LowStockCount     int     `json:"low_stock_count"`
	DiscontinuedCount int     `json:"discontinued_count"`
	ActiveCount       int     `json:"active_count"`
	TotalItems        int     `json:"total_items"`
}

// StockRange is an inclusive [Min, Max] stock interval with a chart label.
type StockRange struct {
	Label string `json:"label"`
	Min   int    `json:"min"`
	Max   int    `json:"max"`
}

// Unbounded is used as Max for an open-ended range.
const Unbounded = math.MaxInt

// Contains reports whether stock falls inside the range.
func (r StockRange) Contains(stock int) bool {
	return stock >= r.Min && stock <= r.Max
}

// StockBucket aggregates the items of one StockRange.
type StockBucket struct {
	Label      string  `json:"label"`
	TotalValue float64 `json:"total_value"`
	ItemCount  int     `json:"item_count"`
}

// StatusSlice is one segment of the inventory status doughnut.
type StatusSlice struct {
	Label string  `json:"label"`
	Count int     `json:"count"`
	Share float64 `json:"share"`
}

// InflationSummary carries the rate-based headline numbers.
type InflationSummary struct {
	CurrentRate    float64  `json:"current_rate"`
	TargetRate     float64  `json:"target_rate"`
	AverageLast3   *float64 `json:"average_last_3,omitempty"`
	ObservedMonths int      `json:"observed_months"`
}

// FormattedKPIs holds display strings for the KPI cards.
type FormattedKPIs struct {
	TotalValue     string `json:"total_value"`
	CurrentIndex   string `json:"current_index"`
	ProjectedIndex string `json:"projected_index"`
	CurrentRate    string `json:"current_rate"`
	TargetRate     string `json:"target_rate"`
	AverageLast3   string `json:"average_last_3"`
}

// PriceIndexChart is the data consumed by the price-index line chart.
type PriceIndexChart struct {
	Labels     []string         `json:"labels"`
	Index      PriceIndexSeries `json:"index"`
	TargetLine []float64        `json:"target_line"`
}

// DashboardSnapshot aggregates every derived value the dashboard renders.
type DashboardSnapshot struct {
	KPIs            InventoryKPIs    `json:"kpis"`
	Formatted       FormattedKPIs    `json:"formatted"`
	CurrentIndex    float64          `json:"current_index"`
	ProjectedIndex  float64          `json:"projected_index"`
	Inflation       InflationSummary `json:"inflation"`
	PriceIndex      PriceIndexChart  `json:"price_index"`
	StockBuckets    []StockBucket    `json:"stock_buckets"`
	StatusBreakdown []StatusSlice    `json:"status_breakdown"`
	LastUpdate      string           `json:"last_update"`
}
