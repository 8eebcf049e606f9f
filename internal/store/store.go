// Package store persists calculation output under a data directory: a JSON
// result and text report per ticker per day, plus an append-only CSV time
// series per ticker for trend analysis.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	log "github.com/sirupsen/logrus"

	"github.com/Rumble43/Max-Pain-Calculator/internal/maxpain"
)

const (
	dailyDir     = "daily"
	summariesDir = "summaries"

	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02 15:04:05"
)

type Store struct {
	dataDir string
}

// New prepares the data directory layout.
func New(dataDir string) (*Store, error) {
	for _, dir := range []string{filepath.Join(dataDir, dailyDir), filepath.Join(dataDir, summariesDir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("New: failed to create %s: %w", dir, err)
		}
	}
	return &Store{dataDir: dataDir}, nil
}

// SaveResult writes the full result as JSON, keyed by ticker and calculation
// date. Rerunning on the same day overwrites the earlier file.
func (s *Store) SaveResult(ticker string, result *maxpain.MaxPainResult) (string, error) {
	name := fmt.Sprintf("%s_%s_max_pain.json", strings.ToUpper(ticker), result.CalculationTime.Format(dateLayout))
	path := filepath.Join(s.dataDir, dailyDir, name)

	raw, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("SaveResult: failed to marshal result: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("SaveResult: failed to write %s: %w", path, err)
	}

	log.Infof("saved result to %s", path)
	return path, nil
}

// SaveReport writes the rendered text report next to the day's JSON result.
func (s *Store) SaveReport(ticker string, asOf time.Time, report string) (string, error) {
	name := fmt.Sprintf("%s_%s_report.txt", strings.ToUpper(ticker), asOf.Format(dateLayout))
	path := filepath.Join(s.dataDir, dailyDir, name)

	if err := os.WriteFile(path, []byte(report), 0o644); err != nil {
		return "", fmt.Errorf("SaveReport: failed to write %s: %w", path, err)
	}
	return path, nil
}

// AppendSummary adds one row to the ticker's history CSV, creating the file
// with a header on first write.
func (s *Store) AppendSummary(ticker string, result *maxpain.MaxPainResult) error {
	row := NewSummaryRow(ticker, result)
	path := s.summaryPath(ticker)
	rows := []*SummaryRow{row}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("AppendSummary: failed to create %s: %w", path, err)
		}
		defer file.Close()

		if err := gocsv.MarshalFile(&rows, file); err != nil {
			return fmt.Errorf("AppendSummary: failed to write %s: %w", path, err)
		}
		log.Infof("started summary history at %s", path)
		return nil
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("AppendSummary: failed to open %s: %w", path, err)
	}
	defer file.Close()

	if err := gocsv.MarshalWithoutHeaders(&rows, file); err != nil {
		return fmt.Errorf("AppendSummary: failed to append to %s: %w", path, err)
	}
	return nil
}

// LoadHistory returns the ticker's summary rows from the last N days, oldest
// first. A missing history file is not an error.
func (s *Store) LoadHistory(ticker string, days int) ([]*SummaryRow, error) {
	path := s.summaryPath(ticker)

	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("LoadHistory: failed to open %s: %w", path, err)
	}
	defer file.Close()

	var rows []*SummaryRow
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, fmt.Errorf("LoadHistory: failed to parse %s: %w", path, err)
	}

	cutoff := time.Now().AddDate(0, 0, -days)
	recent := make([]*SummaryRow, 0, len(rows))
	for _, row := range rows {
		at, err := row.Time()
		if err != nil {
			log.Warnf("skipping malformed history row in %s: %v", path, err)
			continue
		}
		if at.Before(cutoff) {
			continue
		}
		recent = append(recent, row)
	}
	return recent, nil
}

func (s *Store) summaryPath(ticker string) string {
	return filepath.Join(s.dataDir, summariesDir, fmt.Sprintf("%s_max_pain_history.csv", strings.ToUpper(ticker)))
}
