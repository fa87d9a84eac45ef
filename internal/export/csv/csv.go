package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/robalyx/warden/internal/export/types"
)

// Exporter handles exporting hashes to csv files.
type Exporter struct {
	outDir string
}

// New creates a new csv exporter instance.
func New(outDir string) *Exporter {
	return &Exporter{outDir: outDir}
}

// Export writes account and address records to separate csv files.
func (e *Exporter) Export(accountRecords, addressRecords []*types.ExportRecord) error {
	files := []string{"accounts.csv", "addresses.csv"}
	for _, file := range files {
		path := filepath.Join(e.outDir, file)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove existing file %s: %w", file, err)
		}
	}

	if err := e.writeFile("accounts.csv", accountRecords); err != nil {
		return fmt.Errorf("failed to export accounts: %w", err)
	}

	if err := e.writeFile("addresses.csv", addressRecords); err != nil {
		return fmt.Errorf("failed to export addresses: %w", err)
	}

	return nil
}

// writeFile writes records to a csv file.
func (e *Exporter) writeFile(filename string, records []*types.ExportRecord) error {
	file, err := os.Create(filepath.Join(e.outDir, filename))
	if err != nil {
		return fmt.Errorf("failed to create csv file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if err := writer.Write([]string{"hash", "kind", "reason", "expires_at"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, record := range records {
		if err := writer.Write([]string{
			record.Hash,
			record.Kind,
			record.Reason,
			strconv.FormatInt(record.ExpiresAt, 10),
		}); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush csv file: %w", err)
	}

	return nil
}
