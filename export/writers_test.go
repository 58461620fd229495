package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aluiziolira/go-scrape-products/models"
)

func sampleProduct() *models.ProductRecord {
	return &models.ProductRecord{
		SKU:         "HMR-042",
		Name:        "Claw Hammer",
		Price:       "£19.99",
		Description: "A dependable claw hammer.",
		Specifications: []models.Specification{
			{Key: "Weight", Value: "600 g"},
			{Key: "Handle", Value: "Fibreglass"},
		},
		Images:       []string{"http://example.test/media/hammer.jpg"},
		Categories:   []string{"Home", "Tools"},
		Availability: "In stock",
		Brand:        "Acme",
		SourceURL:    "http://example.test/catalogue/hammer",
		ScrapedAt:    time.Date(2025, 11, 4, 13, 9, 13, 0, time.UTC),
	}
}

func TestCSVWriterWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.csv")

	writer, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("create csv writer: %v", err)
	}

	if err := writer.Write([]*models.ProductRecord{sampleProduct()}); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close csv: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records=%d, want 2", len(records))
	}
	if records[0][0] != "sku" || records[0][1] != "name" {
		t.Fatalf("unexpected header: %v", records[0])
	}
	if records[1][4] != "Weight: 600 g; Handle: Fibreglass" {
		t.Fatalf("specifications column = %q", records[1][4])
	}
}

func TestJSONWriterWritesArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")

	writer, err := NewJSONWriter(path)
	if err != nil {
		t.Fatalf("create json writer: %v", err)
	}
	if err := writer.Write([]*models.ProductRecord{sampleProduct(), sampleProduct()}); err != nil {
		t.Fatalf("write json: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close json: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read json: %v", err)
	}

	var decoded []models.ProductRecord
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("output is not a json array: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("decoded %d records, want 2", len(decoded))
	}
	if decoded[0].Name != "Claw Hammer" {
		t.Fatalf("name = %q", decoded[0].Name)
	}
	if len(decoded[0].Specifications) != 2 {
		t.Fatalf("specifications = %+v", decoded[0].Specifications)
	}
}

func TestJSONWriterEmptyRunWritesEmptyArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")

	writer, err := NewJSONWriter(path)
	if err != nil {
		t.Fatalf("create json writer: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close json: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read json: %v", err)
	}
	var decoded []models.ProductRecord
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("output is not a json array: %v", err)
	}
	if len(decoded) != 0 {
		t.Fatalf("decoded %d records, want 0", len(decoded))
	}
}

func TestDualWriterWrite(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "products.csv")
	jsonPath := filepath.Join(dir, "products.json")

	writer, err := NewDualWriter(csvPath, jsonPath)
	if err != nil {
		t.Fatalf("create dual writer: %v", err)
	}
	if err := writer.Write([]*models.ProductRecord{sampleProduct()}); err != nil {
		t.Fatalf("write dual: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close dual: %v", err)
	}

	if info, err := os.Stat(csvPath); err != nil || info.Size() == 0 {
		t.Fatalf("csv file missing or empty")
	}
	if info, err := os.Stat(jsonPath); err != nil || info.Size() == 0 {
		t.Fatalf("json file missing or empty")
	}
	if err := writer.Validate(); err != nil {
		t.Fatalf("validate dual: %v", err)
	}
}

func TestWriteSessionLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	end := time.Date(2025, 11, 4, 13, 20, 0, 0, time.UTC)
	stats := &models.SessionStats{
		SessionID:          "run-1",
		StartTime:          time.Date(2025, 11, 4, 13, 9, 0, 0, time.UTC),
		EndTime:            &end,
		RequestsMade:       3,
		SuccessfulRequests: 2,
		FailedRequests:     1,
		ProductsScraped:    2,
		Errors:             []string{"http://example.test/p/3: http status 404"},
	}
	requests := []models.RequestOutcome{
		{URL: "http://example.test/p/1", Attempt: 1, StatusCode: 200, Succeeded: true},
	}

	if err := WriteSessionLog(path, stats, requests); err != nil {
		t.Fatalf("write session log: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read session log: %v", err)
	}

	var decoded struct {
		Stats    models.SessionStats     `json:"stats"`
		Requests []models.RequestOutcome `json:"requests"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode session log: %v", err)
	}
	if decoded.Stats.SessionID != "run-1" || decoded.Stats.RequestsMade != 3 {
		t.Fatalf("stats = %+v", decoded.Stats)
	}
	if len(decoded.Requests) != 1 {
		t.Fatalf("requests = %d, want 1", len(decoded.Requests))
	}
}

func TestWriteSessionLogNilStats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := WriteSessionLog(path, nil, nil); err == nil {
		t.Fatalf("expected error for nil stats")
	}
}
