/**
 * @description
 * Scraper feed reader. Retailer scrapers are external collaborators that drop
 * one JSON file per scrape run into a feed directory; each file is an array of
 * raw product rows in a homogeneous shape regardless of scraping technique.
 *
 * Rows are deliberately decoded loosely: a malformed price in one row must not
 * abort the batch, so prices tolerate numbers, numeric strings, and null and
 * are validated later during ingestion.
 *
 * @dependencies
 * - standard "encoding/json"
 * - standard "os", "path/filepath"
 */

package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// FlexFloat decodes a JSON number, numeric string, or null without failing the
// surrounding array. Invalid values are kept as zero with Valid=false.
type FlexFloat struct {
	Value float64
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler. It never returns an error so
// that one bad price cannot reject a whole feed file.
func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	f.Value = 0
	f.Valid = false

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil
	}

	raw := strings.Trim(string(trimmed), `"`)
	if raw == "" {
		return nil
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}

	f.Value = value
	f.Valid = true
	return nil
}

// MarshalJSON implements json.Marshaler
func (f FlexFloat) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// RawProduct is the homogeneous record shape every scraper must deliver
type RawProduct struct {
	ExternalID string    `json:"native_id"`
	Name       string    `json:"name"`
	Price      FlexFloat `json:"price"`
	UnitPrice  FlexFloat `json:"unit_price"`
	Format     string    `json:"format"`
	Category   string    `json:"category"`
	Retailer   string    `json:"retailer"`
	URL        string    `json:"url"`
	ImageURL   string    `json:"image_url"`
}

// Batch is the contents of one feed file, ingested as a unit
type Batch struct {
	File string
	Rows []RawProduct
}

// LoadFile reads a single feed file
func LoadFile(path string) ([]RawProduct, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed file %s: %w", path, err)
	}

	var rows []RawProduct
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse feed file %s: %w", path, err)
	}

	return rows, nil
}

// LoadDir reads every *.json feed file in dir, sorted by name so that batches
// are ingested in a stable order. Files that fail to parse are skipped; the
// error of the last failing file is returned alongside the good batches.
func LoadDir(dir string) ([]Batch, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed dir %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var batches []Batch
	var lastErr error
	for _, name := range names {
		path := filepath.Join(dir, name)
		rows, err := LoadFile(path)
		if err != nil {
			lastErr = err
			continue
		}
		batches = append(batches, Batch{File: name, Rows: rows})
	}

	return batches, lastErr
}
