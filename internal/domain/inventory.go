package domain

import "math"

// InventoryItem is one SKU of the loaded dataset.
type InventoryItem struct {
	ID            string   `json:"id" validate:"required"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Price         float64  `json:"price" validate:"gte=0"`
	Stock         int      `json:"stock" validate:"gte=0"`
	Value         *float64 `json:"value,omitempty"`
	ReorderLevel  int      `json:"reorderLevel" validate:"gte=0"`
	LeadTime      int      `json:"leadTime" validate:"gte=0"`
	OrderQuantity *int     `json:"orderQuantity,omitempty"`
	Discontinued  bool     `json:"discontinued"`
}

// EffectiveValue returns the stored value when present and finite,
// otherwise price times stock.
func (it InventoryItem) EffectiveValue() float64 {
	if it.Value != nil && !math.IsNaN(*it.Value) && !math.IsInf(*it.Value, 0) {
		return *it.Value
	}
	return it.Price * float64(it.Stock)
}

// InflationSeries holds monthly inflation rates in percent, oldest first.
type InflationSeries []float64

// Last returns the most recent rate, or 0 when the series is empty.
func (s InflationSeries) Last() float64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1]
}

// PriceIndexSeries is a chained base-100 index; element 0 is the base.
type PriceIndexSeries []float64

// Last returns the latest index value, or the base when the series is empty.
func (s PriceIndexSeries) Last() float64 {
	if len(s) == 0 {
		return BaseIndex
	}
	return s[len(s)-1]
}

// BaseIndex seeds every price index series.
const BaseIndex = 100.0

// Dataset is the input supplied once by the host: items plus the inflation series.
type Dataset struct {
	Items     []InventoryItem `json:"items"`
	Inflation InflationSeries `json:"inflation"`
}

// Normalize replaces nil sequences with empty ones.
func (d *Dataset) Normalize() {
	if d.Items == nil {
		d.Items = []InventoryItem{}
	}
	if d.Inflation == nil {
		d.Inflation = InflationSeries{}
	}
}

// Float and Int build optional field values.
func Float(v float64) *float64 { return &v }

func Int(v int) *int { return &v }
