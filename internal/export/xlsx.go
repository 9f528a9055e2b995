package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/invdash/internal/domain"
)

const (
	SheetName       = "Inventory"
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// XLSXFilename returns the date-stamped workbook download name.
func XLSXFilename(t time.Time) string {
	return fmt.Sprintf("inventory_%s.xlsx", t.Format(time.DateOnly))
}

// XLSX renders rows as a single-sheet workbook with the CSV header. Numeric
// columns are written as numbers; a missing order quantity leaves the cell
// empty.
func XLSX(rows []*domain.InventoryItem, policy domain.ReorderPolicy) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, it := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := xlsxRow(it, policy)
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i, err)
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func xlsxRow(it *domain.InventoryItem, policy domain.ReorderPolicy) []interface{} {
	var orderQty interface{}
	if it.OrderQuantity != nil {
		orderQty = *it.OrderQuantity
	}

	return []interface{}{
		policy.Label(*it),
		it.ID,
		it.Name,
		it.Description,
		finite(it.Price),
		it.Stock,
		finite(it.EffectiveValue()),
		it.ReorderLevel,
		it.LeadTime,
		orderQty,
		yesNo(it.Discontinued),
	}
}
