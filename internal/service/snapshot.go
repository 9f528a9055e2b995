package service

import (
	"time"

	"github.com/andresuchdata/invdash/internal/derive"
	"github.com/andresuchdata/invdash/internal/domain"
	"github.com/andresuchdata/invdash/internal/format"
)

// BuildSnapshot derives every dashboard figure from a dataset.
func BuildSnapshot(ds domain.Dataset, calc *derive.InventoryCalculator, targetRate float64, updatedAt time.Time) *domain.DashboardSnapshot {
	kpis := calc.KPIs(ds.Items)
	series := derive.DerivePriceIndex(ds.Inflation)
	current := derive.CurrentIndex(series)
	projected := derive.ProjectNextIndex(series, ds.Inflation.Last())
	summary := derive.Summarize(ds.Inflation, targetRate)

	formatted := domain.FormattedKPIs{
		TotalValue:     format.Currency(kpis.TotalValue),
		CurrentIndex:   format.Index(current),
		ProjectedIndex: format.Index(projected),
		CurrentRate:    format.PercentagePoints(summary.CurrentRate),
		TargetRate:     format.PercentagePoints(summary.TargetRate),
	}
	if summary.AverageLast3 != nil {
		formatted.AverageLast3 = format.PercentagePoints(*summary.AverageLast3)
	}

	return &domain.DashboardSnapshot{
		KPIs:           kpis,
		Formatted:      formatted,
		CurrentIndex:   current,
		ProjectedIndex: projected,
		Inflation:      summary,
		PriceIndex: domain.PriceIndexChart{
			Labels:     derive.MonthLabels(len(series)),
			Index:      series,
			TargetLine: derive.TargetLine(len(series)),
		},
		StockBuckets:    calc.Buckets(ds.Items, derive.DefaultStockRanges()),
		StatusBreakdown: calc.StatusBreakdown(ds.Items),
		LastUpdate:      format.Date(updatedAt),
	}
}
