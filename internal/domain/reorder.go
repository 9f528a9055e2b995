package domain

import (
	"fmt"
	"strings"
)

// ReorderPolicy decides when stock is low enough to flag an item for reorder.
type ReorderPolicy int

const (
	// ReorderBelow flags items whose stock is strictly below the reorder level.
	ReorderBelow ReorderPolicy = iota
	// ReorderAtOrBelow also flags items sitting exactly on the reorder level.
	ReorderAtOrBelow
)

const (
	ReorderLabel = "Reorder"
	OKLabel      = "OK"
)

// NeedsReorder applies the policy to a single item.
func (p ReorderPolicy) NeedsReorder(it InventoryItem) bool {
	if p == ReorderAtOrBelow {
		return it.Stock <= it.ReorderLevel
	}
	return it.Stock < it.ReorderLevel
}

// Label returns the two-valued reorder status shown in tables and exports.
func (p ReorderPolicy) Label(it InventoryItem) string {
	if p.NeedsReorder(it) {
		return ReorderLabel
	}
	return OKLabel
}

func (p ReorderPolicy) String() string {
	if p == ReorderAtOrBelow {
		return "at_or_below"
	}
	return "below"
}

// ParseReorderPolicy accepts "below"/"lt" and "at_or_below"/"lte".
func ParseReorderPolicy(s string) (ReorderPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "below", "lt", "<":
		return ReorderBelow, nil
	case "at_or_below", "lte", "<=":
		return ReorderAtOrBelow, nil
	}
	return ReorderBelow, fmt.Errorf("unknown reorder policy %q", s)
}
