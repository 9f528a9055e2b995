// Package dataset decodes inventory datasets and fetches them from the
// configured source.
package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/andresuchdata/invdash/internal/domain"
	"github.com/andresuchdata/invdash/internal/format"
)

// Item keys accepted on input, normalized (lower case, no accents) to their
// canonical field.
var fieldAliases = map[string]string{
	"id":             "id",
	"name":           "name",
	"nombre":         "name",
	"description":    "description",
	"descripcion":    "description",
	"price":          "price",
	"precio":         "price",
	"stock":          "stock",
	"value":          "value",
	"valor":          "value",
	"reorderlevel":   "reorderLevel",
	"reorder_level":  "reorderLevel",
	"reorder level":  "reorderLevel",
	"nivel_reorden":  "reorderLevel",
	"leadtime":       "leadTime",
	"lead_time":      "leadTime",
	"lead time":      "leadTime",
	"orderquantity":  "orderQuantity",
	"order_quantity": "orderQuantity",
	"order quantity": "orderQuantity",
	"cant_pedido":    "orderQuantity",
	"discontinued":   "discontinued",
	"descontinuado":  "discontinued",
}

var sectionAliases = map[string]string{
	"items":      "items",
	"inventario": "items",
	"inflation":  "inflation",
	"inflacion":  "inflation",
}

func canonicalKey(aliases map[string]string, key string) (string, bool) {
	canonical, ok := aliases[format.NormalizeSearchKey(strings.TrimSpace(key))]
	return canonical, ok
}

// resolveKeys picks, for every canonical name present in m, the key that
// supplies it. The English spelling wins over its aliases; among the rest the
// lexically smallest key wins.
func resolveKeys[V any](aliases map[string]string, m map[string]V) map[string]string {
	chosen := make(map[string]string, len(m))
	for key := range m {
		canonical, ok := canonicalKey(aliases, key)
		if !ok {
			continue
		}
		if current, seen := chosen[canonical]; seen && !preferKey(canonical, key, current) {
			continue
		}
		chosen[canonical] = key
	}
	return chosen
}

func preferKey(canonical, key, current string) bool {
	english := strings.ToLower(canonical)
	keyExact := format.NormalizeSearchKey(strings.TrimSpace(key)) == english
	currentExact := format.NormalizeSearchKey(strings.TrimSpace(current)) == english
	if keyExact != currentExact {
		return keyExact
	}
	return key < current
}

// Decode reads a JSON dataset. Unknown keys are ignored and numeric fields
// degrade to zero (or absent, for value and orderQuantity) when malformed.
func Decode(r io.Reader) (domain.Dataset, error) {
	var top map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&top); err != nil {
		return domain.Dataset{}, fmt.Errorf("decode dataset: %w", err)
	}

	var ds domain.Dataset
	for section, key := range resolveKeys(sectionAliases, top) {
		raw := top[key]
		switch section {
		case "items":
			var rows []map[string]json.RawMessage
			if err := json.Unmarshal(raw, &rows); err != nil {
				return domain.Dataset{}, fmt.Errorf("decode items: %w", err)
			}
			ds.Items = make([]domain.InventoryItem, 0, len(rows))
			for _, row := range rows {
				ds.Items = append(ds.Items, decodeItem(row))
			}
		case "inflation":
			var rates []flexNumber
			if err := json.Unmarshal(raw, &rates); err != nil {
				return domain.Dataset{}, fmt.Errorf("decode inflation: %w", err)
			}
			ds.Inflation = make(domain.InflationSeries, 0, len(rates))
			for _, r := range rates {
				if r.ok {
					ds.Inflation = append(ds.Inflation, r.v)
				}
			}
		}
	}

	ds.Normalize()
	return ds, nil
}

// DecodeBytes picks the decoder from the file extension: .xlsx workbooks,
// anything else as JSON.
func DecodeBytes(name string, data []byte) (domain.Dataset, error) {
	if strings.EqualFold(filepath.Ext(name), ".xlsx") {
		return DecodeXLSX(bytes.NewReader(data))
	}
	return Decode(bytes.NewReader(data))
}

func decodeItem(row map[string]json.RawMessage) domain.InventoryItem {
	var it domain.InventoryItem
	for field, key := range resolveKeys(fieldAliases, row) {
		raw := row[key]
		switch field {
		case "id":
			it.ID = strings.TrimSpace(decodeString(raw))
		case "name":
			it.Name = decodeString(raw)
		case "description":
			it.Description = decodeString(raw)
		case "price":
			it.Price = decodeNumber(raw).orZero()
		case "stock":
			it.Stock = decodeNumber(raw).toInt()
		case "value":
			if n := decodeNumber(raw); n.ok {
				it.Value = domain.Float(n.v)
			}
		case "reorderLevel":
			it.ReorderLevel = decodeNumber(raw).toInt()
		case "leadTime":
			it.LeadTime = decodeNumber(raw).toInt()
		case "orderQuantity":
			if n := decodeNumber(raw); n.ok {
				it.OrderQuantity = domain.Int(n.toInt())
			}
		case "discontinued":
			it.Discontinued = decodeBool(raw)
		}
	}
	return it
}

// flexNumber accepts JSON numbers and numeric strings. Anything else,
// including null, decodes as absent.
type flexNumber struct {
	v  float64
	ok bool
}

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	*n = decodeNumber(b)
	return nil
}

func (n flexNumber) orZero() float64 {
	if !n.ok {
		return 0
	}
	return n.v
}

func (n flexNumber) toInt() int {
	if !n.ok || math.Abs(n.v) > math.MaxInt32 {
		return 0
	}
	return int(math.Round(n.v))
}

func decodeNumber(raw json.RawMessage) flexNumber {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return flexNumber{}
	}
	return numberFrom(v)
}

func numberFrom(v interface{}) flexNumber {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return flexNumber{}
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return flexNumber{}
		}
		f = parsed
	default:
		return flexNumber{}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return flexNumber{}
	}
	return flexNumber{v: f, ok: true}
}

func decodeString(raw json.RawMessage) string {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

func decodeBool(raw json.RawMessage) bool {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		switch format.NormalizeSearchKey(strings.TrimSpace(t)) {
		case "true", "yes", "si", "1", "x":
			return true
		}
	}
	return false
}
