package table

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/andresuchdata/invdash/internal/domain"
)

var (
	ErrUnknownColumn = errors.New("unknown column")
	ErrUnknownKind   = errors.New("unknown sort type")
)

// ColumnKey names a sortable column of the inventory table.
type ColumnKey string

const (
	ColumnID            ColumnKey = "id"
	ColumnName          ColumnKey = "name"
	ColumnDescription   ColumnKey = "description"
	ColumnPrice         ColumnKey = "price"
	ColumnStock         ColumnKey = "stock"
	ColumnValue         ColumnKey = "value"
	ColumnReorderLevel  ColumnKey = "reorderLevel"
	ColumnLeadTime      ColumnKey = "leadTime"
	ColumnOrderQuantity ColumnKey = "orderQuantity"
	ColumnReorderStatus ColumnKey = "reorderStatus"
	ColumnDiscontinued  ColumnKey = "discontinued"
)

// Kind selects how two cells are compared.
type Kind string

const (
	KindText    Kind = "text"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
)

// cellType is the native representation a column accessor produces.
type cellType int

const (
	cellMissing cellType = iota
	cellText
	cellNumber
	cellBool
)

type cell struct {
	typ  cellType
	text string
	num  float64
	flag bool
}

func textCell(s string) cell    { return cell{typ: cellText, text: s} }
func numberCell(f float64) cell { return cell{typ: cellNumber, num: f} }
func boolCell(b bool) cell      { return cell{typ: cellBool, flag: b} }

// column binds a key to its typed accessor and default comparison kind.
type column struct {
	key      ColumnKey
	kind     Kind
	accessor func(it *domain.InventoryItem, policy domain.ReorderPolicy) cell
}

var columns = map[ColumnKey]column{
	ColumnID: {ColumnID, KindText, func(it *domain.InventoryItem, _ domain.ReorderPolicy) cell {
		return textCell(it.ID)
	}},
	ColumnName: {ColumnName, KindText, func(it *domain.InventoryItem, _ domain.ReorderPolicy) cell {
		return textCell(it.Name)
	}},
	ColumnDescription: {ColumnDescription, KindText, func(it *domain.InventoryItem, _ domain.ReorderPolicy) cell {
		return textCell(it.Description)
	}},
	ColumnPrice: {ColumnPrice, KindNumber, func(it *domain.InventoryItem, _ domain.ReorderPolicy) cell {
		return numberCell(it.Price)
	}},
	ColumnStock: {ColumnStock, KindNumber, func(it *domain.InventoryItem, _ domain.ReorderPolicy) cell {
		return numberCell(float64(it.Stock))
	}},
	// value sorts on the effective value, never on the raw stored field
	ColumnValue: {ColumnValue, KindNumber, func(it *domain.InventoryItem, _ domain.ReorderPolicy) cell {
		return numberCell(it.EffectiveValue())
	}},
	ColumnReorderLevel: {ColumnReorderLevel, KindNumber, func(it *domain.InventoryItem, _ domain.ReorderPolicy) cell {
		return numberCell(float64(it.ReorderLevel))
	}},
	ColumnLeadTime: {ColumnLeadTime, KindNumber, func(it *domain.InventoryItem, _ domain.ReorderPolicy) cell {
		return numberCell(float64(it.LeadTime))
	}},
	ColumnOrderQuantity: {ColumnOrderQuantity, KindNumber, func(it *domain.InventoryItem, _ domain.ReorderPolicy) cell {
		if it.OrderQuantity == nil {
			return cell{}
		}
		return numberCell(float64(*it.OrderQuantity))
	}},
	ColumnReorderStatus: {ColumnReorderStatus, KindText, func(it *domain.InventoryItem, policy domain.ReorderPolicy) cell {
		return textCell(policy.Label(*it))
	}},
	ColumnDiscontinued: {ColumnDiscontinued, KindBoolean, func(it *domain.InventoryItem, _ domain.ReorderPolicy) cell {
		return boolCell(it.Discontinued)
	}},
}

// Wire names used by older clients of the dashboard.
var columnAliases = map[string]ColumnKey{
	"nombre":         ColumnName,
	"descripcion":    ColumnDescription,
	"precio":         ColumnPrice,
	"valor":          ColumnValue,
	"nivel_reorden":  ColumnReorderLevel,
	"reorder_level":  ColumnReorderLevel,
	"lead_time":      ColumnLeadTime,
	"cant_pedido":    ColumnOrderQuantity,
	"order_quantity": ColumnOrderQuantity,
	"pedido":         ColumnReorderStatus,
	"reorder_status": ColumnReorderStatus,
	"descontinuado":  ColumnDiscontinued,
}

// ParseColumn resolves a wire column name.
func ParseColumn(s string) (ColumnKey, error) {
	s = strings.TrimSpace(s)
	if _, ok := columns[ColumnKey(s)]; ok {
		return ColumnKey(s), nil
	}
	if key, ok := columnAliases[strings.ToLower(s)]; ok {
		return key, nil
	}
	for key := range columns {
		if strings.EqualFold(string(key), s) {
			return key, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownColumn, s)
}

// ParseKind resolves a wire sort type. An empty string yields "" so the
// column's own kind applies.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return "", nil
	case KindText:
		return KindText, nil
	case KindNumber:
		return KindNumber, nil
	case KindBoolean:
		return KindBoolean, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// DefaultKind returns the comparison kind a column uses when none is given.
func DefaultKind(key ColumnKey) (Kind, error) {
	col, ok := columns[key]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownColumn, key)
	}
	return col.kind, nil
}

func (c cell) number() float64 {
	switch c.typ {
	case cellNumber:
		if math.IsNaN(c.num) {
			return 0
		}
		return c.num
	case cellBool:
		if c.flag {
			return 1
		}
		return 0
	case cellText:
		f, err := strconv.ParseFloat(strings.TrimSpace(c.text), 64)
		if err != nil || math.IsNaN(f) {
			return 0
		}
		return f
	}
	return 0
}

func (c cell) truthy() bool {
	switch c.typ {
	case cellNumber:
		return c.num != 0 && !math.IsNaN(c.num)
	case cellBool:
		return c.flag
	case cellText:
		return c.text != ""
	}
	return false
}

func (c cell) String() string {
	switch c.typ {
	case cellNumber:
		return strconv.FormatFloat(c.num, 'f', -1, 64)
	case cellBool:
		return strconv.FormatBool(c.flag)
	case cellText:
		return c.text
	}
	return ""
}
