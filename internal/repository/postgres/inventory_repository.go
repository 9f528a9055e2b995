package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"github.com/andresuchdata/invdash/internal/domain"
)

// Schema creates the tables the inventory repository reads and writes.
const Schema = `
CREATE TABLE IF NOT EXISTS inventory_items (
	position       INTEGER NOT NULL,
	id             TEXT PRIMARY KEY,
	name           TEXT NOT NULL DEFAULT '',
	description    TEXT NOT NULL DEFAULT '',
	price          DOUBLE PRECISION NOT NULL DEFAULT 0,
	stock          INTEGER NOT NULL DEFAULT 0,
	value          DOUBLE PRECISION,
	reorder_level  INTEGER NOT NULL DEFAULT 0,
	lead_time      INTEGER NOT NULL DEFAULT 0,
	order_quantity INTEGER,
	discontinued   BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS inflation_rates (
	position INTEGER PRIMARY KEY,
	rate     DOUBLE PRECISION NOT NULL
);
`

type inventoryRow struct {
	Position      int             `db:"position"`
	ID            string          `db:"id"`
	Name          string          `db:"name"`
	Description   string          `db:"description"`
	Price         float64         `db:"price"`
	Stock         int             `db:"stock"`
	Value         sql.NullFloat64 `db:"value"`
	ReorderLevel  int             `db:"reorder_level"`
	LeadTime      int             `db:"lead_time"`
	OrderQuantity sql.NullInt64   `db:"order_quantity"`
	Discontinued  bool            `db:"discontinued"`
}

type inflationRow struct {
	Position int     `db:"position"`
	Rate     float64 `db:"rate"`
}

type InventoryRepository struct {
	db *DB
}

func NewInventoryRepository(db *DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

// Migrate creates the schema if it does not exist yet.
func (r *InventoryRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// LoadDataset reads items and inflation rates in insertion order.
func (r *InventoryRepository) LoadDataset(ctx context.Context) (domain.Dataset, error) {
	var (
		items     []inventoryRow
		inflation []inflationRow
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := r.db.SelectContext(gctx, &items, `
			SELECT position, id, name, description, price, stock, value,
				reorder_level, lead_time, order_quantity, discontinued
			FROM inventory_items
			ORDER BY position`); err != nil {
			return fmt.Errorf("failed to load inventory items: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := r.db.SelectContext(gctx, &inflation, `
			SELECT position, rate FROM inflation_rates ORDER BY position`); err != nil {
			return fmt.Errorf("failed to load inflation rates: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.Dataset{}, err
	}

	ds := domain.Dataset{
		Items:     make([]domain.InventoryItem, len(items)),
		Inflation: make(domain.InflationSeries, len(inflation)),
	}
	for i, row := range items {
		ds.Items[i] = row.toItem()
	}
	for i, row := range inflation {
		ds.Inflation[i] = row.Rate
	}
	return ds, nil
}

// ReplaceDataset swaps the stored dataset for ds in a single transaction.
func (r *InventoryRepository) ReplaceDataset(ctx context.Context, ds domain.Dataset) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM inventory_items`); err != nil {
			return fmt.Errorf("failed to clear inventory items: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM inflation_rates`); err != nil {
			return fmt.Errorf("failed to clear inflation rates: %w", err)
		}

		if len(ds.Items) > 0 {
			rows := make([]inventoryRow, len(ds.Items))
			for i, it := range ds.Items {
				rows[i] = fromItem(i, it)
			}
			if _, err := tx.NamedExecContext(ctx, `
				INSERT INTO inventory_items (
					position, id, name, description, price, stock, value,
					reorder_level, lead_time, order_quantity, discontinued
				) VALUES (
					:position, :id, :name, :description, :price, :stock, :value,
					:reorder_level, :lead_time, :order_quantity, :discontinued
				)`, rows); err != nil {
				return fmt.Errorf("failed to insert inventory items: %w", err)
			}
		}

		if len(ds.Inflation) > 0 {
			rows := make([]inflationRow, len(ds.Inflation))
			for i, rate := range ds.Inflation {
				rows[i] = inflationRow{Position: i, Rate: rate}
			}
			if _, err := tx.NamedExecContext(ctx,
				`INSERT INTO inflation_rates (position, rate) VALUES (:position, :rate)`, rows); err != nil {
				return fmt.Errorf("failed to insert inflation rates: %w", err)
			}
		}

		return nil
	})
}

func (row inventoryRow) toItem() domain.InventoryItem {
	it := domain.InventoryItem{
		ID:           row.ID,
		Name:         row.Name,
		Description:  row.Description,
		Price:        row.Price,
		Stock:        row.Stock,
		ReorderLevel: row.ReorderLevel,
		LeadTime:     row.LeadTime,
		Discontinued: row.Discontinued,
	}
	if row.Value.Valid {
		it.Value = domain.Float(row.Value.Float64)
	}
	if row.OrderQuantity.Valid {
		it.OrderQuantity = domain.Int(int(row.OrderQuantity.Int64))
	}
	return it
}

func fromItem(position int, it domain.InventoryItem) inventoryRow {
	row := inventoryRow{
		Position:     position,
		ID:           it.ID,
		Name:         it.Name,
		Description:  it.Description,
		Price:        it.Price,
		Stock:        it.Stock,
		ReorderLevel: it.ReorderLevel,
		LeadTime:     it.LeadTime,
		Discontinued: it.Discontinued,
	}
	if it.Value != nil {
		row.Value = sql.NullFloat64{Float64: *it.Value, Valid: true}
	}
	if it.OrderQuantity != nil {
		row.OrderQuantity = sql.NullInt64{Int64: int64(*it.OrderQuantity), Valid: true}
	}
	return row
}
