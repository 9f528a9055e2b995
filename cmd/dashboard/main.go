package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/invdash/internal/config"
	"github.com/andresuchdata/invdash/internal/dataset"
	"github.com/andresuchdata/invdash/internal/derive"
	"github.com/andresuchdata/invdash/internal/domain"
	"github.com/andresuchdata/invdash/internal/export"
	"github.com/andresuchdata/invdash/internal/format"
	"github.com/andresuchdata/invdash/internal/repository/postgres"
	"github.com/andresuchdata/invdash/internal/service"
	"github.com/andresuchdata/invdash/internal/storage"
	"github.com/andresuchdata/invdash/internal/table"
	"github.com/andresuchdata/invdash/pkg/logger"
)

func main() {
	_ = godotenv.Load()
	logger.Configure(os.Stderr, false)

	if err := newApp().Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("dashboard command failed")
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "dashboard",
		Usage: "Inspect and export the inventory dashboard dataset",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dataset",
				Usage:   "Path to a .json or .xlsx dataset",
				Value:   "./data/dataset.json",
				EnvVars: []string{"DATASET_PATH"},
			},
			&cli.StringFlag{
				Name:    "db-url",
				Usage:   "Read the dataset from Postgres instead of --dataset",
				EnvVars: []string{"DATABASE_URL"},
			},
			&cli.StringFlag{
				Name:    "policy",
				Usage:   "Reorder policy: below or at_or_below",
				Value:   "below",
				EnvVars: []string{"DASHBOARD_REORDER_POLICY"},
			},
			&cli.Float64Flag{
				Name:    "target-rate",
				Usage:   "Annual inflation target in percent",
				Value:   derive.DefaultTargetRate,
				EnvVars: []string{"DASHBOARD_TARGET_RATE"},
			},
			&cli.BoolFlag{
				Name:  "lenient",
				Usage: "Keep items that fail validation",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "summary",
				Usage:  "Print the KPI cards",
				Action: runSummary,
			},
			{
				Name:   "index",
				Usage:  "Print the price index series",
				Action: runIndex,
			},
			{
				Name:  "export",
				Usage: "Export the filtered and sorted table as CSV",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "query", Usage: "Search query"},
					&cli.StringFlag{Name: "sort", Usage: "Column to sort by"},
					&cli.StringFlag{Name: "type", Usage: "Sort type: text, number or boolean"},
					&cli.BoolFlag{Name: "desc", Usage: "Sort descending"},
					&cli.StringFlag{Name: "scope", Usage: "Search scope: identity or all", Value: "identity"},
					&cli.StringFlag{Name: "out", Usage: "Output file, - for stdout (default inventory_<date>.csv)"},
					&cli.BoolFlag{Name: "upload", Usage: "Also upload the file to object storage"},
				},
				Action: runExport,
			},
			{
				Name:   "import",
				Usage:  "Replace the Postgres dataset with the contents of --dataset",
				Action: runImport,
			},
		},
	}
}

func loadDataset(c *cli.Context) (domain.Dataset, func(), error) {
	var (
		source dataset.Source
		closer = func() {}
	)

	if url := c.String("db-url"); url != "" {
		db, err := postgres.Open(c.Context, "pgx", url)
		if err != nil {
			return domain.Dataset{}, closer, err
		}
		closer = func() { _ = db.Close() }
		source = dataset.PostgresSource{Repo: postgres.NewInventoryRepository(db)}
	} else {
		source = dataset.FileSource{Path: c.String("dataset")}
	}

	ds, err := dataset.NewLoader(source, !c.Bool("lenient")).Load(c.Context)
	return ds, closer, err
}

func calculator(c *cli.Context) (*derive.InventoryCalculator, error) {
	policy, err := domain.ParseReorderPolicy(c.String("policy"))
	if err != nil {
		return nil, err
	}
	return derive.NewInventoryCalculator(policy), nil
}

func runSummary(c *cli.Context) error {
	ds, closeDB, err := loadDataset(c)
	defer closeDB()
	if err != nil {
		return err
	}
	calc, err := calculator(c)
	if err != nil {
		return err
	}

	snap := service.BuildSnapshot(ds, calc, c.Float64("target-rate"), time.Now())

	w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Total value\t%s\n", snap.Formatted.TotalValue)
	fmt.Fprintf(w, "Items\t%d\n", snap.KPIs.TotalItems)
	fmt.Fprintf(w, "Low stock\t%d\n", snap.KPIs.LowStockCount)
	fmt.Fprintf(w, "Discontinued\t%d\n", snap.KPIs.DiscontinuedCount)
	fmt.Fprintf(w, "Current index\t%s\n", snap.Formatted.CurrentIndex)
	fmt.Fprintf(w, "Projected index\t%s\n", snap.Formatted.ProjectedIndex)
	fmt.Fprintf(w, "Current rate\t%s\n", snap.Formatted.CurrentRate)
	fmt.Fprintf(w, "Target rate\t%s\n", snap.Formatted.TargetRate)
	if snap.Formatted.AverageLast3 != "" {
		fmt.Fprintf(w, "Average last 3\t%s\n", snap.Formatted.AverageLast3)
	}
	return w.Flush()
}

func runIndex(c *cli.Context) error {
	ds, closeDB, err := loadDataset(c)
	defer closeDB()
	if err != nil {
		return err
	}

	series := derive.DerivePriceIndex(ds.Inflation)
	labels := derive.MonthLabels(len(series))
	target := derive.TargetLine(len(series))

	w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Month\tIndex\tTarget")
	for i, v := range series {
		fmt.Fprintf(w, "%s\t%s\t%s\n", labels[i], format.Index(v), format.Index(target[i]))
	}
	return w.Flush()
}

func runExport(c *cli.Context) error {
	ds, closeDB, err := loadDataset(c)
	defer closeDB()
	if err != nil {
		return err
	}
	calc, err := calculator(c)
	if err != nil {
		return err
	}
	scope, err := table.ParseSearchScope(c.String("scope"))
	if err != nil {
		return err
	}

	engine := table.New(ds.Items, table.WithReorderPolicy(calc.Policy()), table.WithSearchScope(scope))
	engine.Filter(c.String("query"))

	if col := c.String("sort"); col != "" {
		key, err := table.ParseColumn(col)
		if err != nil {
			return err
		}
		kind, err := table.ParseKind(c.String("type"))
		if err != nil {
			return err
		}
		if err := engine.SortBy(key, kind); err != nil {
			return err
		}
		if c.Bool("desc") {
			// a second click on the same column flips the direction
			_ = engine.SortBy(key, kind)
		}
	}

	data := export.CSV(engine.CurrentView(), engine.Policy())
	name := export.Filename(time.Now())

	out := c.String("out")
	switch out {
	case "-":
		if _, err := c.App.Writer.Write(data); err != nil {
			return err
		}
	default:
		if out == "" {
			out = name
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		logger.Log.Info().Str("file", out).Int("rows", len(engine.CurrentView())).Msg("export written")
		name = filepath.Base(out)
	}

	if c.Bool("upload") {
		return upload(c.Context, name, data)
	}
	return nil
}

func upload(ctx context.Context, name string, data []byte) error {
	cfg := config.Load().Storage
	client, err := storage.NewMinioClient(storage.MinioConfig{
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		Bucket:    cfg.Bucket,
		Region:    cfg.Region,
		UseSSL:    cfg.UseSSL,
	})
	if err != nil {
		return err
	}

	svc := service.NewDashboardService(nil, service.Options{Storage: client, ExportPrefix: cfg.ExportPrefix})
	key, err := svc.UploadExport(ctx, name, data, export.CSVContentType)
	if err != nil {
		return err
	}
	logger.Log.Info().Str("key", key).Msg("export uploaded")
	return nil
}

func runImport(c *cli.Context) error {
	url := c.String("db-url")
	if url == "" {
		return errors.New("import needs --db-url")
	}

	ds, err := dataset.NewLoader(dataset.FileSource{Path: c.String("dataset")}, !c.Bool("lenient")).Load(c.Context)
	if err != nil {
		return err
	}

	db, err := postgres.Open(c.Context, "pgx", url)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := postgres.NewInventoryRepository(db)
	if err := repo.Migrate(c.Context); err != nil {
		return err
	}
	if err := repo.ReplaceDataset(c.Context, ds); err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "imported %d items and %d inflation months\n", len(ds.Items), len(ds.Inflation))
	return nil
}
