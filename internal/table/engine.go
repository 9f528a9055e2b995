// Package table holds the interactive state of one inventory table: the
// working set derived from the full dataset by search filtering and column
// sorting.
package table

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/andresuchdata/invdash/internal/domain"
	"github.com/andresuchdata/invdash/internal/format"
)

// Direction is the sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// SearchScope selects which fields a search query is matched against.
type SearchScope int

const (
	// ScopeIdentity matches id, name and description.
	ScopeIdentity SearchScope = iota
	// ScopeAllFields matches the display string of every item field.
	ScopeAllFields
)

// ParseSearchScope accepts "identity" and "all".
func ParseSearchScope(s string) (SearchScope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "identity":
		return ScopeIdentity, nil
	case "all", "all_fields":
		return ScopeAllFields, nil
	}
	return ScopeIdentity, fmt.Errorf("unknown search scope %q", s)
}

// State is a snapshot of the table's filter and sort state.
type State struct {
	SortColumn    *ColumnKey `json:"sort_column"`
	SortDirection Direction  `json:"sort_direction"`
	SortKind      Kind       `json:"sort_type,omitempty"`
	Query         string     `json:"query"`
	Total         int        `json:"total"`
	Visible       int        `json:"visible"`
}

// Engine owns the working set of one table. It is not safe for concurrent
// use; callers serialize operations per engine.
type Engine struct {
	policy domain.ReorderPolicy
	scope  SearchScope

	all     []*domain.InventoryItem
	working []*domain.InventoryItem

	query      string
	sortColumn ColumnKey
	sortDir    Direction
	sortKind   Kind
}

type Option func(*Engine)

func WithReorderPolicy(p domain.ReorderPolicy) Option {
	return func(e *Engine) { e.policy = p }
}

func WithSearchScope(s SearchScope) Option {
	return func(e *Engine) { e.scope = s }
}

// New creates an engine over items. Rows are shared with the caller's slice.
func New(items []domain.InventoryItem, opts ...Option) *Engine {
	e := &Engine{sortDir: Asc}
	for _, opt := range opts {
		opt(e)
	}
	e.Load(items)
	return e
}

// Load replaces the dataset: the working set becomes the full dataset and
// the sort column is cleared.
func (e *Engine) Load(items []domain.InventoryItem) {
	e.all = make([]*domain.InventoryItem, len(items))
	for i := range items {
		e.all[i] = &items[i]
	}
	e.working = slices.Clone(e.all)
	e.query = ""
	e.sortColumn = ""
	e.sortDir = Asc
	e.sortKind = ""
}

// Filter rebuilds the working set from the full dataset. An empty or blank
// query restores every row. An active sort is re-applied.
func (e *Engine) Filter(query string) {
	e.query = strings.TrimSpace(query)

	if e.query == "" {
		e.working = slices.Clone(e.all)
	} else {
		needle := format.NormalizeSearchKey(e.query)
		working := make([]*domain.InventoryItem, 0, len(e.all))
		for _, it := range e.all {
			if e.matches(it, needle) {
				working = append(working, it)
			}
		}
		e.working = working
	}

	if e.sortColumn != "" {
		e.apply()
	}
}

func (e *Engine) matches(it *domain.InventoryItem, needle string) bool {
	for _, field := range e.searchFields(it) {
		if strings.Contains(format.NormalizeSearchKey(field), needle) {
			return true
		}
	}
	return false
}

func (e *Engine) searchFields(it *domain.InventoryItem) []string {
	if e.scope != ScopeAllFields {
		return []string{it.ID, it.Name, it.Description}
	}

	fields := []string{
		it.ID,
		it.Name,
		it.Description,
		numberCell(it.Price).String(),
		numberCell(float64(it.Stock)).String(),
		numberCell(float64(it.ReorderLevel)).String(),
		numberCell(float64(it.LeadTime)).String(),
		boolCell(it.Discontinued).String(),
	}
	if it.Value != nil {
		fields = append(fields, numberCell(*it.Value).String())
	}
	if it.OrderQuantity != nil {
		fields = append(fields, numberCell(float64(*it.OrderQuantity)).String())
	}
	return fields
}

// SortBy applies the sort transition: the same column flips direction, a
// different column starts ascending. An empty kind uses the column's own.
func (e *Engine) SortBy(key ColumnKey, kind Kind) error {
	col, ok := columns[key]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownColumn, key)
	}
	switch kind {
	case "":
		kind = col.kind
	case KindText, KindNumber, KindBoolean:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	if e.sortColumn == key {
		if e.sortDir == Asc {
			e.sortDir = Desc
		} else {
			e.sortDir = Asc
		}
	} else {
		e.sortColumn = key
		e.sortDir = Asc
	}
	e.sortKind = kind

	e.apply()
	return nil
}

type sortEntry struct {
	item *domain.InventoryItem
	num  float64
	text string
}

// apply sorts the working set in place by the current sort state. The sort
// is stable so equal keys keep their relative order in both directions.
func (e *Engine) apply() {
	col := columns[e.sortColumn]

	entries := make([]sortEntry, len(e.working))
	for i, it := range e.working {
		c := col.accessor(it, e.policy)
		entry := sortEntry{item: it}
		switch e.sortKind {
		case KindNumber:
			entry.num = c.number()
		case KindBoolean:
			if c.truthy() {
				entry.num = 1
			}
		default:
			entry.text = strings.ToLower(c.String())
		}
		entries[i] = entry
	}

	textual := e.sortKind != KindNumber && e.sortKind != KindBoolean
	desc := e.sortDir == Desc
	slices.SortStableFunc(entries, func(a, b sortEntry) int {
		var r int
		if textual {
			r = strings.Compare(a.text, b.text)
		} else {
			r = cmp.Compare(a.num, b.num)
		}
		if desc {
			return -r
		}
		return r
	})

	for i := range entries {
		e.working[i] = entries[i].item
	}
}

// CurrentView returns the working set in display order. The slice is a
// copy; the rows are shared and must be treated as read-only.
func (e *Engine) CurrentView() []*domain.InventoryItem {
	return slices.Clone(e.working)
}

// State returns the current filter and sort state.
func (e *Engine) State() State {
	st := State{
		SortDirection: e.sortDir,
		SortKind:      e.sortKind,
		Query:         e.query,
		Total:         len(e.all),
		Visible:       len(e.working),
	}
	if e.sortColumn != "" {
		col := e.sortColumn
		st.SortColumn = &col
	}
	return st
}

// Policy returns the reorder policy used for the reorder status column.
func (e *Engine) Policy() domain.ReorderPolicy {
	return e.policy
}
