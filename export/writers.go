// Package export persists scrape results. It is a collaborator of the
// engine, not part of it: the engine returns in-memory records and stats,
// and this package writes them out.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aluiziolira/go-scrape-products/models"
	"github.com/aluiziolira/go-scrape-products/parser"
)

// Writer is the output contract shared by the CSV, JSON, and dual writers.
type Writer interface {
	Write(products []*models.ProductRecord) error
	Close() error
	Validate() error
}

// CSVWriter writes records to CSV, flattening specifications, images, and
// categories into joined strings.
type CSVWriter struct {
	filename string
	file     *os.File
	writer   *csv.Writer
	mu       sync.Mutex
}

// NewCSVWriter initialises a CSV writer and writes the header row.
func NewCSVWriter(filename string) (*CSVWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create csv file: %w", err)
	}

	writer := csv.NewWriter(f)
	header := []string{"sku", "name", "price", "description", "specifications", "images", "categories", "availability", "brand", "source_url", "scraped_at"}
	if err := writer.Write(header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return nil, fmt.Errorf("flush csv header: %w", err)
	}

	return &CSVWriter{
		filename: filename,
		file:     f,
		writer:   writer,
	}, nil
}

// Write appends products to the CSV output.
func (cw *CSVWriter) Write(products []*models.ProductRecord) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	for _, product := range products {
		record := []string{
			product.SKU,
			product.Name,
			product.Price,
			product.Description,
			parser.JoinSpecifications(product.Specifications),
			joinStrings(product.Images),
			joinStrings(product.Categories),
			product.Availability,
			product.Brand,
			product.SourceURL,
			product.ScrapedAt.Format(time.RFC3339),
		}
		if err := cw.writer.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv records: %w", err)
	}
	return nil
}

// Close flushes and closes the file handle.
func (cw *CSVWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv writer: %w", err)
	}
	return cw.file.Close()
}

// Validate ensures the file exists and has content. Usable after Close.
func (cw *CSVWriter) Validate() error {
	info, err := os.Stat(cw.filename)
	if err != nil {
		return fmt.Errorf("stat csv file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("csv file is empty")
	}
	return nil
}

// JSONWriter accumulates records and writes them as one JSON array, matching
// the ProductRecord field names.
type JSONWriter struct {
	filename string
	mu       sync.Mutex
	records  []*models.ProductRecord
	written  bool
}

// NewJSONWriter initialises the JSON writer.
func NewJSONWriter(filename string) (*JSONWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}
	return &JSONWriter{filename: filename}, nil
}

// Write buffers products; the array is serialised on Close.
func (jw *JSONWriter) Write(products []*models.ProductRecord) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	jw.records = append(jw.records, products...)
	return nil
}

// Close serialises the accumulated array and writes the file.
func (jw *JSONWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	if jw.written {
		return nil
	}

	records := jw.records
	if records == nil {
		records = []*models.ProductRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json records: %w", err)
	}
	if err := os.WriteFile(jw.filename, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	jw.written = true
	return nil
}

// Validate ensures the JSON file has data.
func (jw *JSONWriter) Validate() error {
	info, err := os.Stat(jw.filename)
	if err != nil {
		return fmt.Errorf("stat json file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("json file is empty")
	}
	return nil
}

func joinStrings(values []string) string {
	out := ""
	for i, value := range values {
		if i > 0 {
			out += "; "
		}
		out += value
	}
	return out
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
