// Package export serializes table views into downloadable files.
package export

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andresuchdata/invdash/internal/domain"
)

const (
	// Delimiter separates CSV fields.
	Delimiter = ';'
	// BOM prefixes every CSV so spreadsheet tools detect UTF-8.
	BOM = "\uFEFF"

	CSVContentType = "text/csv; charset=utf-8"
)

// Header is the fixed column order of every export.
var Header = []string{
	"Reorder",
	"ID",
	"Name",
	"Description",
	"Price",
	"Stock",
	"Value",
	"Reorder Level",
	"Lead Time",
	"Order Quantity",
	"Discontinued",
}

// Filename returns the date-stamped CSV download name.
func Filename(t time.Time) string {
	return fmt.Sprintf("inventory_%s.csv", t.Format(time.DateOnly))
}

// CSV renders rows with the fixed header, BOM first and lines joined by "\n".
func CSV(rows []*domain.InventoryItem, policy domain.ReorderPolicy) []byte {
	var buf bytes.Buffer
	// bytes.Buffer writes never fail
	_ = WriteCSV(&buf, rows, policy)
	return buf.Bytes()
}

// WriteCSV streams the CSV export to w.
func WriteCSV(w io.Writer, rows []*domain.InventoryItem, policy domain.ReorderPolicy) error {
	if _, err := io.WriteString(w, BOM+joinRecord(Header)); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i, it := range rows {
		if _, err := io.WriteString(w, "\n"+joinRecord(Record(it, policy))); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	return nil
}

// Record returns the display fields of one row in header order.
func Record(it *domain.InventoryItem, policy domain.ReorderPolicy) []string {
	orderQty := ""
	if it.OrderQuantity != nil {
		orderQty = strconv.Itoa(*it.OrderQuantity)
	}

	return []string{
		policy.Label(*it),
		it.ID,
		it.Name,
		it.Description,
		number(it.Price),
		strconv.Itoa(it.Stock),
		number(it.EffectiveValue()),
		strconv.Itoa(it.ReorderLevel),
		strconv.Itoa(it.LeadTime),
		orderQty,
		yesNo(it.Discontinued),
	}
}

func joinRecord(fields []string) string {
	escaped := make([]string, len(fields))
	for i, f := range fields {
		escaped[i] = escapeField(f)
	}
	return strings.Join(escaped, string(Delimiter))
}

// escapeField quotes a field holding the delimiter, a quote or a line break
// and doubles any inner quotes. Other fields pass through untouched.
func escapeField(s string) string {
	if !strings.ContainsAny(s, string(Delimiter)+"\"\n\r") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// number renders v in shortest decimal form.
func number(v float64) string {
	return decimal.NewFromFloat(finite(v)).String()
}

// finite maps NaN and infinities to 0.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
