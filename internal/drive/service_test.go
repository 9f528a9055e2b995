package drive

import (
	"context"
	"testing"
)

func TestDecodeName(t *testing.T) {
	tests := []struct {
		file File
		want string
	}{
		{File{Name: "dataset.json", MimeType: "application/json"}, "dataset.json"},
		{File{Name: "Inventario", MimeType: spreadsheetMimeType}, "Inventario.xlsx"},
		{File{Name: "Inventario.XLSX", MimeType: spreadsheetMimeType}, "Inventario.XLSX"},
		{File{Name: "stock.xlsx", MimeType: xlsxMimeType}, "stock.xlsx"},
	}
	for _, tt := range tests {
		if got := tt.file.DecodeName(); got != tt.want {
			t.Errorf("DecodeName(%q) = %q, want %q", tt.file.Name, got, tt.want)
		}
	}
}

func TestEscapeQuery(t *testing.T) {
	if got := escapeQuery(`O'Brien\stock`); got != `O\'Brien\\stock` {
		t.Fatalf("unexpected escape %q", got)
	}
}

func TestNewServiceRejectsBadCredentials(t *testing.T) {
	if _, err := NewService(context.Background(), "{not json"); err == nil {
		t.Fatalf("expected error for malformed credentials")
	}
}
