package table

import (
	"errors"
	"testing"

	"github.com/andresuchdata/invdash/internal/domain"
)

func sampleItems() []domain.InventoryItem {
	return []domain.InventoryItem{
		{ID: "A1", Name: "Tornillo", Description: "Acero inoxidable", Price: 12.5, Stock: 40, ReorderLevel: 50, LeadTime: 7, OrderQuantity: domain.Int(100)},
		{ID: "B2", Name: "Martillo", Description: "Mango de madera", Price: 150, Stock: 8, ReorderLevel: 5, LeadTime: 14, Discontinued: true},
		{ID: "C3", Name: "Cañería", Description: "PVC de 2 pulgadas", Price: 9, Stock: 300, Value: domain.Float(10), ReorderLevel: 100, LeadTime: 3},
		{ID: "D4", Name: "Pintura", Description: "Látex blanco", Price: 150, Stock: 12, ReorderLevel: 12, LeadTime: 10, OrderQuantity: domain.Int(20)},
	}
}

func ids(rows []*domain.InventoryItem) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func equalIDs(t *testing.T, got []*domain.InventoryItem, want ...string) {
	t.Helper()
	g := ids(got)
	if len(g) != len(want) {
		t.Fatalf("expected %v, got %v", want, g)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, g)
		}
	}
}

func TestNewStartsUnsortedWithFullDataset(t *testing.T) {
	e := New(sampleItems())

	st := e.State()
	if st.SortColumn != nil || st.SortDirection != Asc {
		t.Fatalf("expected initial state (nil, asc), got %+v", st)
	}
	if st.Total != 4 || st.Visible != 4 {
		t.Fatalf("unexpected counts %+v", st)
	}
	equalIDs(t, e.CurrentView(), "A1", "B2", "C3", "D4")
}

func TestRowsAreSharedWithDataset(t *testing.T) {
	items := sampleItems()
	e := New(items)

	if e.CurrentView()[0] != &items[0] {
		t.Fatalf("expected working set to reference the loaded rows")
	}
}

func TestSortStateMachine(t *testing.T) {
	e := New(sampleItems())

	steps := []struct {
		column ColumnKey
		dir    Direction
	}{
		{ColumnPrice, Asc},
		{ColumnPrice, Desc},
		{ColumnPrice, Asc},
		{ColumnName, Asc},
		{ColumnName, Desc},
		{ColumnStock, Asc},
	}

	for i, step := range steps {
		if err := e.SortBy(step.column, ""); err != nil {
			t.Fatalf("step %d: unexpected error %v", i, err)
		}
		st := e.State()
		if st.SortColumn == nil || *st.SortColumn != step.column || st.SortDirection != step.dir {
			t.Fatalf("step %d: expected (%s, %s), got %+v", i, step.column, step.dir, st)
		}
	}
}

func TestSortNumberIsStable(t *testing.T) {
	e := New(sampleItems())

	if err := e.SortBy(ColumnPrice, KindNumber); err != nil {
		t.Fatal(err)
	}
	// B2 and D4 share a price; dataset order is kept
	equalIDs(t, e.CurrentView(), "C3", "A1", "B2", "D4")

	if err := e.SortBy(ColumnPrice, KindNumber); err != nil {
		t.Fatal(err)
	}
	equalIDs(t, e.CurrentView(), "B2", "D4", "A1", "C3")
}

func TestSortNumberIsNumericNotLexicographic(t *testing.T) {
	e := New(sampleItems())

	if err := e.SortBy(ColumnStock, ""); err != nil {
		t.Fatal(err)
	}
	equalIDs(t, e.CurrentView(), "B2", "D4", "A1", "C3")

	if err := e.SortBy(ColumnName, ""); err != nil {
		t.Fatal(err)
	}
	if err := e.SortBy(ColumnStock, KindText); err != nil {
		t.Fatal(err)
	}
	// as text "12" < "300" < "40" < "8"
	equalIDs(t, e.CurrentView(), "D4", "C3", "A1", "B2")
}

func TestSortDerivedColumns(t *testing.T) {
	tests := []struct {
		name   string
		column ColumnKey
		kind   Kind
		want   []string
	}{
		// effective values: A1 500, B2 1200, C3 10 (stored), D4 1800
		{name: "value uses effective value", column: ColumnValue, want: []string{"C3", "A1", "B2", "D4"}},
		// labels: A1 Reorder, B2 OK, C3 OK, D4 OK
		{name: "reorder status compares labels", column: ColumnReorderStatus, want: []string{"B2", "C3", "D4", "A1"}},
		{name: "boolean puts false first", column: ColumnDiscontinued, want: []string{"A1", "C3", "D4", "B2"}},
		{name: "missing order quantity counts as zero", column: ColumnOrderQuantity, kind: KindNumber, want: []string{"B2", "C3", "D4", "A1"}},
		{name: "text is case insensitive", column: ColumnDescription, kind: KindText, want: []string{"A1", "D4", "B2", "C3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(sampleItems())
			if err := e.SortBy(tt.column, tt.kind); err != nil {
				t.Fatal(err)
			}
			equalIDs(t, e.CurrentView(), tt.want...)
		})
	}
}

func TestReorderStatusFollowsPolicy(t *testing.T) {
	items := sampleItems()

	strict := New(items)
	inclusive := New(items, WithReorderPolicy(domain.ReorderAtOrBelow))

	for _, e := range []*Engine{strict, inclusive} {
		if err := e.SortBy(ColumnReorderStatus, ""); err != nil {
			t.Fatal(err)
		}
	}
	// D4 sits exactly on its reorder level
	equalIDs(t, strict.CurrentView(), "B2", "C3", "D4", "A1")
	equalIDs(t, inclusive.CurrentView(), "B2", "C3", "A1", "D4")
}

func TestSortByRejectsUnknownInput(t *testing.T) {
	e := New(sampleItems())

	if err := e.SortBy("weight", ""); !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("expected ErrUnknownColumn, got %v", err)
	}
	if err := e.SortBy(ColumnPrice, "date"); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
	if e.State().SortColumn != nil {
		t.Fatalf("rejected sort must not change state")
	}
}

func TestFilterBlankQueryRestoresDataset(t *testing.T) {
	for _, q := range []string{"", "   ", "\t\n"} {
		e := New(sampleItems())
		e.Filter("martillo")
		e.Filter(q)
		equalIDs(t, e.CurrentView(), "A1", "B2", "C3", "D4")
		if e.State().Query != "" {
			t.Fatalf("expected trimmed empty query, got %q", e.State().Query)
		}
	}
}

func TestFilterMatching(t *testing.T) {
	tests := []struct {
		name  string
		scope SearchScope
		query string
		want  []string
	}{
		{name: "by id", query: "c3", want: []string{"C3"}},
		{name: "accent insensitive", query: "caneria", want: []string{"C3"}},
		{name: "accented query", query: "LÁTEX", want: []string{"D4"}},
		{name: "description substring", query: "de", want: []string{"B2", "C3"}},
		{name: "surrounding blanks trimmed", query: "  tornillo ", want: []string{"A1"}},
		{name: "identity ignores numbers", query: "150", want: []string{}},
		{name: "all fields matches numbers", scope: ScopeAllFields, query: "150", want: []string{"B2", "D4"}},
		{name: "no match", query: "zzz", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(sampleItems(), WithSearchScope(tt.scope))
			e.Filter(tt.query)
			equalIDs(t, e.CurrentView(), tt.want...)
			if st := e.State(); st.Visible != len(tt.want) || st.Total != 4 {
				t.Fatalf("unexpected counts %+v", st)
			}
		})
	}
}

func TestFilterStartsFromFullDataset(t *testing.T) {
	e := New(sampleItems())

	e.Filter("tornillo")
	e.Filter("martillo")
	equalIDs(t, e.CurrentView(), "B2")
}

func TestFilterIsIdempotent(t *testing.T) {
	e := New(sampleItems())

	e.Filter("de")
	first := ids(e.CurrentView())

	e.Filter("de")
	equalIDs(t, e.CurrentView(), first...)

	if err := e.SortBy(ColumnName, ""); err != nil {
		t.Fatal(err)
	}
	e.Filter("de")
	got := ids(e.CurrentView())
	if len(got) != len(first) {
		t.Fatalf("expected the same rows %v, got %v", first, got)
	}
	seen := make(map[string]bool, len(got))
	for _, id := range got {
		seen[id] = true
	}
	for _, id := range first {
		if !seen[id] {
			t.Fatalf("expected the same rows %v, got %v", first, got)
		}
	}
}

func TestFilterReappliesActiveSort(t *testing.T) {
	e := New(sampleItems())

	if err := e.SortBy(ColumnPrice, ""); err != nil {
		t.Fatal(err)
	}
	if err := e.SortBy(ColumnPrice, ""); err != nil {
		t.Fatal(err)
	}
	e.Filter("i")

	equalIDs(t, e.CurrentView(), "B2", "D4", "A1", "C3")
	st := e.State()
	if st.SortDirection != Desc || st.SortColumn == nil || *st.SortColumn != ColumnPrice {
		t.Fatalf("filter must not toggle or clear the sort, got %+v", st)
	}
}

func TestLoadResetsState(t *testing.T) {
	e := New(sampleItems())
	e.Filter("martillo")
	if err := e.SortBy(ColumnStock, ""); err != nil {
		t.Fatal(err)
	}
	if err := e.SortBy(ColumnStock, ""); err != nil {
		t.Fatal(err)
	}

	e.Load([]domain.InventoryItem{{ID: "Z9"}, {ID: "Y8"}})

	st := e.State()
	if st.SortColumn != nil || st.SortDirection != Asc || st.Query != "" {
		t.Fatalf("expected reset state, got %+v", st)
	}
	equalIDs(t, e.CurrentView(), "Z9", "Y8")
}

func TestEmptyDataset(t *testing.T) {
	e := New(nil)
	e.Filter("anything")
	if err := e.SortBy(ColumnValue, ""); err != nil {
		t.Fatal(err)
	}
	if len(e.CurrentView()) != 0 {
		t.Fatalf("expected empty view")
	}
}

func TestCurrentViewIsACopy(t *testing.T) {
	e := New(sampleItems())
	view := e.CurrentView()
	view[0], view[1] = view[1], view[0]

	equalIDs(t, e.CurrentView(), "A1", "B2", "C3", "D4")
}

func TestParseColumn(t *testing.T) {
	tests := []struct {
		in      string
		want    ColumnKey
		wantErr bool
	}{
		{in: "price", want: ColumnPrice},
		{in: "reorderlevel", want: ColumnReorderLevel},
		{in: " precio ", want: ColumnPrice},
		{in: "cant_pedido", want: ColumnOrderQuantity},
		{in: "descontinuado", want: ColumnDiscontinued},
		{in: "weight", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseColumn(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownColumn) {
				t.Fatalf("%q: expected ErrUnknownColumn, got %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("%q: expected %s, got %s (%v)", tt.in, tt.want, got, err)
		}
	}

	if k, err := ParseKind(""); err != nil || k != "" {
		t.Fatalf("expected empty kind, got %q (%v)", k, err)
	}
	if k, err := ParseKind("Number"); err != nil || k != KindNumber {
		t.Fatalf("expected number kind, got %q (%v)", k, err)
	}
	if k, err := DefaultKind(ColumnDiscontinued); err != nil || k != KindBoolean {
		t.Fatalf("expected boolean default, got %q (%v)", k, err)
	}
}

func TestEndToEndReorderRow(t *testing.T) {
	items := []domain.InventoryItem{{ID: "X1", Name: "Widget", Price: 1000, Stock: 2, ReorderLevel: 5}}
	e := New(items)
	e.Filter("widg")

	view := e.CurrentView()
	if len(view) != 1 || e.Policy().Label(*view[0]) != domain.ReorderLabel {
		t.Fatalf("expected X1 flagged for reorder, got %v", ids(view))
	}
}
