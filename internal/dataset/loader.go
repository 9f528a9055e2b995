package dataset

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/invdash/internal/config"
	"github.com/andresuchdata/invdash/internal/domain"
	"github.com/andresuchdata/invdash/internal/drive"
	"github.com/andresuchdata/invdash/internal/repository/postgres"
	"github.com/andresuchdata/invdash/internal/storage"
)

// Loader fetches a dataset from its source and enforces the item invariants.
type Loader struct {
	source Source
	strict bool
}

func NewLoader(source Source, strict bool) *Loader {
	return &Loader{source: source, strict: strict}
}

func (l *Loader) Source() Source { return l.source }

// Load fetches and validates. In strict mode a dataset with violations is
// rejected with a *domain.ValidationError; otherwise the violations are
// logged and the dataset is kept.
func (l *Loader) Load(ctx context.Context) (domain.Dataset, error) {
	ds, err := l.source.Fetch(ctx)
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("fetch dataset from %s: %w", l.source.Name(), err)
	}
	ds.Normalize()

	if err := ds.Validate(); err != nil {
		if l.strict {
			return domain.Dataset{}, err
		}
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			for _, v := range ve.Violations {
				log.Warn().Str("source", l.source.Name()).Str("violation", v.String()).Msg("dataset item kept despite violation")
			}
		}
	}

	log.Info().
		Str("source", l.source.Name()).
		Int("items", len(ds.Items)).
		Int("inflation_months", len(ds.Inflation)).
		Msg("dataset loaded")

	return ds, nil
}

// OpenSource builds the configured source. The returned close function
// releases connections held by the source and is never nil.
func OpenSource(ctx context.Context, cfg *config.Config, store storage.ObjectStorage) (Source, func(), error) {
	noop := func() {}

	switch strings.ToLower(strings.TrimSpace(cfg.Dataset.Source)) {
	case "", "file":
		if cfg.Dataset.Path == "" {
			return nil, noop, fmt.Errorf("DATASET_PATH is required for the file source")
		}
		return FileSource{Path: cfg.Dataset.Path}, noop, nil

	case "s3", "object", "minio":
		if store == nil {
			return nil, noop, fmt.Errorf("object storage is not configured")
		}
		return ObjectSource{Store: store, Key: cfg.Dataset.ObjectKey}, noop, nil

	case "drive":
		if cfg.Dataset.DriveCredentialsJSON == "" || cfg.Dataset.DriveFileID == "" {
			return nil, noop, fmt.Errorf("GOOGLE_DRIVE_CREDENTIALS_JSON and DATASET_DRIVE_FILE_ID are required for the drive source")
		}
		svc, err := drive.NewService(ctx, cfg.Dataset.DriveCredentialsJSON)
		if err != nil {
			return nil, noop, err
		}
		return DriveSource{Service: svc, Ref: cfg.Dataset.DriveFileID}, noop, nil

	case "postgres", "db":
		db, err := postgres.NewDB(ctx, &cfg.Database)
		if err != nil {
			return nil, noop, err
		}
		closeDB := func() {
			if err := db.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close database")
			}
		}
		return PostgresSource{Repo: postgres.NewInventoryRepository(db)}, closeDB, nil
	}

	return nil, noop, fmt.Errorf("unknown dataset source %q", cfg.Dataset.Source)
}
