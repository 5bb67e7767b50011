package ingest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestFlexFloatTolerantDecoding(t *testing.T) {
	payload := `[
		{"native_id":"1","name":"a","retailer":"r","price":1.25},
		{"native_id":"2","name":"b","retailer":"r","price":"2.50"},
		{"native_id":"3","name":"c","retailer":"r","price":null},
		{"native_id":"4","name":"d","retailer":"r","price":"no disponible"},
		{"native_id":"5","name":"e","retailer":"r"}
	]`

	var rows []RawProduct
	if err := json.Unmarshal([]byte(payload), &rows); err != nil {
		t.Fatalf("a bad price should never fail the batch: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("rows = %d, want 5", len(rows))
	}

	if !rows[0].Price.Valid || rows[0].Price.Value != 1.25 {
		t.Errorf("numeric price = %+v, want 1.25 valid", rows[0].Price)
	}
	if !rows[1].Price.Valid || rows[1].Price.Value != 2.50 {
		t.Errorf("string price = %+v, want 2.50 valid", rows[1].Price)
	}
	for i := 2; i < 5; i++ {
		if rows[i].Price.Valid {
			t.Errorf("row %d price = %+v, want invalid", i, rows[i].Price)
		}
	}
}

func TestLoadDirSortsAndSkipsBadFiles(t *testing.T) {
	dir := t.TempDir()

	write := func(name, content string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	write("b_mercadona.json", `[{"native_id":"m-1","name":"Leche","retailer":"Mercadona","price":0.95}]`)
	write("a_carrefour.json", `[{"native_id":"c-1","name":"Leche","retailer":"Carrefour","price":0.89}]`)
	write("broken.json", `{not json`)
	write("notes.txt", `ignore me`)

	batches, err := LoadDir(dir)
	if err == nil {
		t.Error("expected the broken file's error to surface")
	}
	if len(batches) != 2 {
		t.Fatalf("batches = %d, want 2", len(batches))
	}
	if batches[0].File != "a_carrefour.json" || batches[1].File != "b_mercadona.json" {
		t.Errorf("batches out of order: %s, %s", batches[0].File, batches[1].File)
	}
	if len(batches[0].Rows) != 1 || batches[0].Rows[0].Retailer != "Carrefour" {
		t.Errorf("unexpected first batch: %+v", batches[0])
	}
}

func TestLoadDirMissingDirectory(t *testing.T) {
	if _, err := LoadDir(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected an error for a missing feed directory")
	}
}
