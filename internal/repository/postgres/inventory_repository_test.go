package postgres

import (
	"strings"
	"testing"

	"github.com/andresuchdata/invdash/internal/config"
	"github.com/andresuchdata/invdash/internal/domain"
)

func TestRowConversionKeepsOptionalFields(t *testing.T) {
	tests := []struct {
		name string
		item domain.InventoryItem
	}{
		{
			name: "optional fields absent",
			item: domain.InventoryItem{ID: "A1", Name: "Tornillo", Price: 12.5, Stock: 40, ReorderLevel: 50, LeadTime: 7},
		},
		{
			name: "optional fields present including zero",
			item: domain.InventoryItem{ID: "B2", Price: 3, Stock: 1, Value: domain.Float(0), OrderQuantity: domain.Int(0), Discontinued: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := fromItem(3, tt.item)
			if row.Position != 3 {
				t.Fatalf("expected position 3, got %d", row.Position)
			}
			if row.Value.Valid != (tt.item.Value != nil) || row.OrderQuantity.Valid != (tt.item.OrderQuantity != nil) {
				t.Fatalf("null flags do not match optional fields: %+v", row)
			}

			got := row.toItem()
			if got.ID != tt.item.ID || got.Price != tt.item.Price || got.Discontinued != tt.item.Discontinued {
				t.Fatalf("unexpected item %+v", got)
			}
			if (got.Value == nil) != (tt.item.Value == nil) || (got.OrderQuantity == nil) != (tt.item.OrderQuantity == nil) {
				t.Fatalf("optional fields not preserved: %+v", got)
			}
		})
	}
}

func TestDSN(t *testing.T) {
	dsn := DSN(&config.DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "invdash", SSLMode: "disable"})
	for _, part := range []string{"host=db", "port=5432", "dbname=invdash", "sslmode=disable"} {
		if !strings.Contains(dsn, part) {
			t.Fatalf("expected %q in %q", part, dsn)
		}
	}
}
