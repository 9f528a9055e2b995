package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/andresuchdata/invdash/internal/dataset"
	"github.com/andresuchdata/invdash/internal/derive"
	"github.com/andresuchdata/invdash/internal/domain"
	"github.com/andresuchdata/invdash/internal/storage"
	"github.com/andresuchdata/invdash/internal/table"
)

func scenario() domain.Dataset {
	return domain.Dataset{
		Items:     []domain.InventoryItem{{ID: "X1", Name: "Widget", Price: 1000, Stock: 2, ReorderLevel: 5}},
		Inflation: domain.InflationSeries{1.0, -0.5},
	}
}

type memoryCache struct {
	mu   sync.Mutex
	data map[string]*domain.DashboardSnapshot
	sets int
}

func (c *memoryCache) GetSnapshot(_ context.Context, fp string) (*domain.DashboardSnapshot, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.data[fp]
	return s, ok, nil
}

func (c *memoryCache) SetSnapshot(_ context.Context, fp string, s *domain.DashboardSnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data == nil {
		c.data = make(map[string]*domain.DashboardSnapshot)
	}
	c.data[fp] = s
	c.sets++
	return nil
}

func (c *memoryCache) InvalidateAll(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = nil
	return nil
}

type memoryStore struct {
	storage.Noop
	uploads map[string]string
}

func (m *memoryStore) UploadObject(_ context.Context, key string, data []byte, contentType string) error {
	if m.uploads == nil {
		m.uploads = make(map[string]string)
	}
	m.uploads[key] = contentType
	return nil
}

func newService(t *testing.T, ds domain.Dataset, opts Options) *DashboardService {
	t.Helper()
	svc := NewDashboardService(dataset.NewLoader(dataset.StaticSource{Dataset: ds}, true), opts)
	if err := svc.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	return svc
}

func TestSnapshotScenario(t *testing.T) {
	svc := newService(t, scenario(), Options{})

	snap, err := svc.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	want := []float64{100, 101, 100.495}
	if len(snap.PriceIndex.Index) != 3 {
		t.Fatalf("unexpected index %v", snap.PriceIndex.Index)
	}
	for i := range want {
		if math.Abs(snap.PriceIndex.Index[i]-want[i]) > 1e-9 {
			t.Fatalf("index %d: expected %v, got %v", i, want[i], snap.PriceIndex.Index[i])
		}
	}
	if snap.KPIs.LowStockCount != 1 || snap.KPIs.TotalValue != 2000 {
		t.Fatalf("unexpected KPIs %+v", snap.KPIs)
	}
	if snap.CurrentIndex != derive.CurrentIndex(snap.PriceIndex.Index) || snap.ProjectedIndex != 100.0 {
		t.Fatalf("unexpected headline index %v / %v", snap.CurrentIndex, snap.ProjectedIndex)
	}
	if len(snap.PriceIndex.Labels) != 3 || snap.PriceIndex.Labels[2] != "Mar" || len(snap.PriceIndex.TargetLine) != 3 {
		t.Fatalf("unexpected chart data %+v", snap.PriceIndex)
	}
	if len(snap.StockBuckets) != 1 || snap.StockBuckets[0].ItemCount != 1 {
		t.Fatalf("unexpected buckets %+v", snap.StockBuckets)
	}
	if snap.Formatted.TotalValue == "" || snap.Formatted.AverageLast3 != "" {
		t.Fatalf("unexpected formatted KPIs %+v", snap.Formatted)
	}
}

func TestSnapshotIsCached(t *testing.T) {
	c := &memoryCache{}
	svc := newService(t, scenario(), Options{Cache: c})

	first, err := svc.Snapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Snapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if first != second || c.sets != 1 {
		t.Fatalf("expected cached snapshot, sets=%d", c.sets)
	}
}

func TestNotLoaded(t *testing.T) {
	svc := NewDashboardService(dataset.NewLoader(dataset.StaticSource{}, true), Options{})
	if _, err := svc.Snapshot(context.Background()); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded, got %v", err)
	}
	if _, err := svc.CreateTable(); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded, got %v", err)
	}
}

func TestReloadKeepsPreviousDatasetOnValidationFailure(t *testing.T) {
	src := &switchSource{ds: scenario()}
	svc := NewDashboardService(dataset.NewLoader(src, true), Options{})
	if err := svc.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}

	src.ds = domain.Dataset{Items: []domain.InventoryItem{{ID: "X1", Price: -1}}}
	if err := svc.Reload(context.Background()); !domain.IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}

	ds, err := svc.Dataset()
	if err != nil || len(ds.Items) != 1 || ds.Items[0].Price != 1000 {
		t.Fatalf("expected previous dataset to stay active, got %+v (%v)", ds, err)
	}
}

type switchSource struct{ ds domain.Dataset }

func (s *switchSource) Name() string { return "switch" }

func (s *switchSource) Fetch(context.Context) (domain.Dataset, error) { return s.ds, nil }

func TestReloadResetsTables(t *testing.T) {
	src := &switchSource{ds: scenario()}
	svc := NewDashboardService(dataset.NewLoader(src, true), Options{
		Calculator: derive.NewInventoryCalculator(domain.ReorderAtOrBelow),
	})
	if err := svc.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}

	sess, err := svc.CreateTable()
	if err != nil {
		t.Fatal(err)
	}
	_ = sess.Do(func(e *table.Engine) error { return e.SortBy(table.ColumnName, "") })

	src.ds = domain.Dataset{Items: []domain.InventoryItem{{ID: "A"}, {ID: "B"}}}
	if err := svc.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}

	_ = sess.Do(func(e *table.Engine) error {
		if st := e.State(); st.Total != 2 || st.SortColumn != nil {
			t.Fatalf("expected reset session over the new dataset, got %+v", st)
		}
		return nil
	})
	if svc.Policy() != domain.ReorderAtOrBelow {
		t.Fatalf("expected configured policy")
	}
}

func TestUploadExport(t *testing.T) {
	store := &memoryStore{}
	svc := newService(t, scenario(), Options{Storage: store, ExportPrefix: "exports/"})

	key, err := svc.UploadExport(context.Background(), "inventory_2026-10-15.csv", []byte("x"), "text/csv")
	if err != nil {
		t.Fatal(err)
	}
	if key != "exports/inventory_2026-10-15.csv" || store.uploads[key] != "text/csv" {
		t.Fatalf("unexpected upload %q %v", key, store.uploads)
	}

	plain := newService(t, scenario(), Options{})
	if _, err := plain.UploadExport(context.Background(), "f.csv", nil, ""); !errors.Is(err, storage.ErrDisabled) {
		t.Fatalf("expected ErrDisabled without storage, got %v", err)
	}
}

func TestBuildSnapshotEmptyDataset(t *testing.T) {
	snap := BuildSnapshot(domain.Dataset{}, derive.NewInventoryCalculator(domain.ReorderBelow), 4.0, time.Now())
	if snap.KPIs != (domain.InventoryKPIs{}) || len(snap.PriceIndex.Index) != 1 || len(snap.StockBuckets) != 0 {
		t.Fatalf("unexpected empty snapshot %+v", snap)
	}
	if !strings.Contains(snap.Formatted.TargetRate, "4") {
		t.Fatalf("unexpected target rate %q", snap.Formatted.TargetRate)
	}
}

// growingSource returns one more item on every fetch.
type growingSource struct {
	mu    sync.Mutex
	count int
}

func (s *growingSource) Name() string { return "growing" }

func (s *growingSource) Fetch(context.Context) (domain.Dataset, error) {
	s.mu.Lock()
	s.count++
	n := s.count
	s.mu.Unlock()

	items := make([]domain.InventoryItem, n)
	for i := range items {
		items[i] = domain.InventoryItem{ID: strings.Repeat("x", i+1), Price: 1, Stock: 1}
	}
	return domain.Dataset{Items: items}, nil
}

func TestConcurrentReloadsLeaveSessionsOnActiveDataset(t *testing.T) {
	svc := NewDashboardService(dataset.NewLoader(&growingSource{}, true), Options{})
	if err := svc.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}

	const workers = 16
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		sessions []string
	)
	for i := 0; i < workers; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := svc.Reload(context.Background()); err != nil {
				t.Error(err)
			}
		}()
		go func() {
			defer wg.Done()
			sess, err := svc.CreateTable()
			if err != nil {
				t.Error(err)
				return
			}
			mu.Lock()
			sessions = append(sessions, sess.ID)
			mu.Unlock()
		}()
	}
	wg.Wait()

	ds, err := svc.Dataset()
	if err != nil {
		t.Fatal(err)
	}
	if len(ds.Items) != workers+1 {
		t.Fatalf("expected the last reload to be active, got %d items", len(ds.Items))
	}
	for _, id := range sessions {
		sess, err := svc.Sessions().Get(id)
		if err != nil {
			t.Fatal(err)
		}
		_ = sess.Do(func(e *table.Engine) error {
			if total := e.State().Total; total != len(ds.Items) {
				t.Errorf("session %s holds %d rows, active dataset has %d", id, total, len(ds.Items))
			}
			return nil
		})
	}
}
