package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/andresuchdata/invdash/internal/cache"
	"github.com/andresuchdata/invdash/internal/dataset"
	"github.com/andresuchdata/invdash/internal/derive"
	"github.com/andresuchdata/invdash/internal/domain"
	"github.com/andresuchdata/invdash/internal/session"
	"github.com/andresuchdata/invdash/internal/storage"
)

// ErrNotLoaded is returned before the first successful dataset load.
var ErrNotLoaded = errors.New("dataset not loaded")

type Options struct {
	TargetRate   float64
	Calculator   *derive.InventoryCalculator
	Cache        cache.SnapshotCache
	Storage      storage.ObjectStorage
	ExportPrefix string
	Sessions     *session.Registry
}

// DashboardService owns the loaded dataset and everything derived from it.
type DashboardService struct {
	loader       *dataset.Loader
	calc         *derive.InventoryCalculator
	targetRate   float64
	cache        cache.SnapshotCache
	store        storage.ObjectStorage
	exportPrefix string
	sessions     *session.Registry
	now          func() time.Time

	// reloadMu serialises whole reloads; mu guards the active dataset and
	// is held across the session reset so no session sees an older dataset.
	reloadMu sync.Mutex

	mu          sync.RWMutex
	ds          domain.Dataset
	fingerprint string
	loadedAt    time.Time
	loaded      bool

	group singleflight.Group
}

func NewDashboardService(loader *dataset.Loader, opts Options) *DashboardService {
	s := &DashboardService{
		loader:       loader,
		calc:         opts.Calculator,
		targetRate:   opts.TargetRate,
		cache:        opts.Cache,
		store:        opts.Storage,
		exportPrefix: opts.ExportPrefix,
		sessions:     opts.Sessions,
		now:          time.Now,
	}
	if s.calc == nil {
		s.calc = derive.NewInventoryCalculator(domain.ReorderBelow)
	}
	if s.targetRate == 0 {
		s.targetRate = derive.DefaultTargetRate
	}
	if s.cache == nil {
		s.cache = cache.NewNoopSnapshotCache()
	}
	if s.store == nil {
		s.store = storage.Noop{}
	}
	if s.sessions == nil {
		s.sessions = session.NewRegistry(session.DefaultMaxSessions)
	}
	return s
}

// Reload fetches the dataset again and swaps it in. Every table session is
// reset over the new rows. On failure the previous dataset stays active.
func (s *DashboardService) Reload(ctx context.Context) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	ds, err := s.loader.Load(ctx)
	if err != nil {
		return err
	}

	fp, err := cache.Fingerprint(ds, s.targetRate, s.calc.Policy())
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.ds = ds
	s.fingerprint = fp
	s.loadedAt = s.now()
	s.loaded = true
	s.sessions.Reload(ds.Items)
	s.mu.Unlock()

	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("dashboard: cache invalidation failed")
	}
	return nil
}

// Dataset returns the active dataset. Rows are shared and read-only.
func (s *DashboardService) Dataset() (domain.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.loaded {
		return domain.Dataset{}, ErrNotLoaded
	}
	return s.ds, nil
}

func (s *DashboardService) Policy() domain.ReorderPolicy {
	return s.calc.Policy()
}

// Snapshot returns the derived dashboard, computing it at most once per
// dataset across concurrent callers.
func (s *DashboardService) Snapshot(ctx context.Context) (*domain.DashboardSnapshot, error) {
	s.mu.RLock()
	ds, fp, loadedAt, loaded := s.ds, s.fingerprint, s.loadedAt, s.loaded
	s.mu.RUnlock()

	if !loaded {
		return nil, ErrNotLoaded
	}

	if snapshot, ok, err := s.cache.GetSnapshot(ctx, fp); err == nil && ok {
		return snapshot, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("dashboard: cache get snapshot failed")
	}

	v, err, _ := s.group.Do(fp, func() (interface{}, error) {
		snapshot := BuildSnapshot(ds, s.calc, s.targetRate, loadedAt)
		if err := s.cache.SetSnapshot(ctx, fp, snapshot); err != nil {
			log.Warn().Err(err).Msg("dashboard: cache set snapshot failed")
		}
		return snapshot, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.DashboardSnapshot), nil
}

// Sessions exposes the table session registry.
func (s *DashboardService) Sessions() *session.Registry {
	return s.sessions
}

// CreateTable opens a table session over the active dataset.
func (s *DashboardService) CreateTable() (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.loaded {
		return nil, ErrNotLoaded
	}
	return s.sessions.Create(s.ds.Items), nil
}

// UploadExport stores an export file under the configured prefix and
// returns its object key.
func (s *DashboardService) UploadExport(ctx context.Context, filename string, data []byte, contentType string) (string, error) {
	key := path.Join(s.exportPrefix, filename)
	if err := s.store.UploadObject(ctx, key, data, contentType); err != nil {
		return "", fmt.Errorf("upload export: %w", err)
	}
	log.Info().Str("key", key).Int("bytes", len(data)).Msg("export uploaded")
	return key, nil
}
