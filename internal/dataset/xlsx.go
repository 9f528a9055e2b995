package dataset

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/invdash/internal/domain"
)

// DecodeXLSX reads a workbook with an item sheet (header row plus one row per
// item) and an optional inflation sheet (one rate per row in the first
// column, an optional text header is skipped). Sheet names follow the JSON
// section aliases; without a match the first sheet holds the items.
func DecodeXLSX(r io.Reader) (domain.Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return domain.Dataset{}, fmt.Errorf("xlsx has no sheets")
	}

	itemSheet, inflationSheet := "", ""
	for _, name := range sheets {
		switch section, _ := canonicalKey(sectionAliases, name); section {
		case "items":
			if itemSheet == "" {
				itemSheet = name
			}
		case "inflation":
			if inflationSheet == "" {
				inflationSheet = name
			}
		}
	}
	if itemSheet == "" && sheets[0] != inflationSheet {
		itemSheet = sheets[0]
	}

	var ds domain.Dataset
	if itemSheet != "" {
		rows, err := f.GetRows(itemSheet)
		if err != nil {
			return domain.Dataset{}, fmt.Errorf("failed to read rows from sheet %s: %w", itemSheet, err)
		}
		ds.Items = itemsFromRows(rows)
	}
	if inflationSheet != "" {
		rows, err := f.GetRows(inflationSheet)
		if err != nil {
			return domain.Dataset{}, fmt.Errorf("failed to read rows from sheet %s: %w", inflationSheet, err)
		}
		ds.Inflation = ratesFromRows(rows)
	}

	ds.Normalize()
	return ds, nil
}

// itemsFromRows maps each data row onto the header and decodes it like a
// JSON object with string values. Blank rows are skipped.
func itemsFromRows(rows [][]string) []domain.InventoryItem {
	if len(rows) == 0 {
		return nil
	}
	header := rows[0]

	items := make([]domain.InventoryItem, 0, len(rows)-1)
	for _, record := range rows[1:] {
		obj := make(map[string]json.RawMessage, len(header))
		blank := true
		for i, col := range header {
			if i >= len(record) || strings.TrimSpace(record[i]) == "" {
				continue
			}
			blank = false
			raw, _ := json.Marshal(record[i])
			obj[col] = raw
		}
		if blank {
			continue
		}
		items = append(items, decodeItem(obj))
	}
	return items
}

func ratesFromRows(rows [][]string) domain.InflationSeries {
	rates := make(domain.InflationSeries, 0, len(rows))
	for _, record := range rows {
		if len(record) == 0 {
			continue
		}
		if n := numberFrom(record[0]); n.ok {
			rates = append(rates, n.v)
		}
	}
	return rates
}
