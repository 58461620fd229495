package export

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aluiziolira/go-scrape-products/models"
)

// sessionLog is the on-disk shape of one finished run.
type sessionLog struct {
	Stats    *models.SessionStats    `json:"stats"`
	Requests []models.RequestOutcome `json:"requests,omitempty"`
}

// WriteSessionLog persists the session stats and the per-attempt request log
// as a JSON file.
func WriteSessionLog(filename string, stats *models.SessionStats, requests []models.RequestOutcome) error {
	if stats == nil {
		return fmt.Errorf("session stats are nil")
	}
	if err := ensureDir(filename); err != nil {
		return err
	}

	data, err := json.MarshalIndent(sessionLog{Stats: stats, Requests: requests}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session log: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("write session log: %w", err)
	}
	return nil
}
