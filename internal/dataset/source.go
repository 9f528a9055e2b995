package dataset

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/andresuchdata/invdash/internal/domain"
	"github.com/andresuchdata/invdash/internal/drive"
	"github.com/andresuchdata/invdash/internal/repository/postgres"
	"github.com/andresuchdata/invdash/internal/storage"
)

// Source fetches a raw, not yet validated dataset.
type Source interface {
	Name() string
	Fetch(ctx context.Context) (domain.Dataset, error)
}

// FileSource reads a local .json or .xlsx file.
type FileSource struct {
	Path string
}

func (s FileSource) Name() string { return "file:" + s.Path }

func (s FileSource) Fetch(ctx context.Context) (domain.Dataset, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("read dataset file: %w", err)
	}
	return DecodeBytes(s.Path, data)
}

// ObjectSource reads a dataset object from S3-compatible storage.
type ObjectSource struct {
	Store storage.ObjectStorage
	Key   string
}

func (s ObjectSource) Name() string { return "s3:" + s.Key }

func (s ObjectSource) Fetch(ctx context.Context) (domain.Dataset, error) {
	data, err := s.Store.GetObject(ctx, s.Key)
	if err != nil {
		return domain.Dataset{}, err
	}
	return DecodeBytes(s.Key, data)
}

// DriveSource reads a dataset file from Google Drive. Ref is a file id or a
// path from the Drive root.
type DriveSource struct {
	Service *drive.Service
	Ref     string
}

func (s DriveSource) Name() string { return "drive:" + s.Ref }

func (s DriveSource) Fetch(ctx context.Context) (domain.Dataset, error) {
	file, err := s.Service.Resolve(ctx, s.Ref)
	if err != nil {
		return domain.Dataset{}, err
	}

	var buf bytes.Buffer
	if err := s.Service.Download(ctx, file, &buf); err != nil {
		return domain.Dataset{}, err
	}
	return DecodeBytes(file.DecodeName(), buf.Bytes())
}

// PostgresSource reads the inventory_items and inflation_rates tables.
type PostgresSource struct {
	Repo *postgres.InventoryRepository
}

func (s PostgresSource) Name() string { return "postgres" }

func (s PostgresSource) Fetch(ctx context.Context) (domain.Dataset, error) {
	ds, err := s.Repo.LoadDataset(ctx)
	if err != nil {
		return domain.Dataset{}, err
	}
	ds.Normalize()
	return ds, nil
}

// StaticSource serves a dataset already held in memory.
type StaticSource struct {
	Dataset domain.Dataset
}

func (s StaticSource) Name() string { return "static" }

func (s StaticSource) Fetch(context.Context) (domain.Dataset, error) {
	ds := domain.Dataset{
		Items:     append([]domain.InventoryItem(nil), s.Dataset.Items...),
		Inflation: append(domain.InflationSeries(nil), s.Dataset.Inflation...),
	}
	ds.Normalize()
	return ds, nil
}
