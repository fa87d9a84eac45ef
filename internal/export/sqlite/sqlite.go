package sqlite

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/robalyx/warden/internal/export/types"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// Exporter handles exporting hashes to SQLite databases.
type Exporter struct {
	outDir string
}

// New creates a new SQLite exporter instance.
func New(outDir string) *Exporter {
	return &Exporter{outDir: outDir}
}

// Export writes account and address records to separate SQLite databases.
func (e *Exporter) Export(accountRecords, addressRecords []*types.ExportRecord) error {
	files := []string{"accounts.db", "addresses.db"}
	for _, file := range files {
		path := filepath.Join(e.outDir, file)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove existing file %s: %w", file, err)
		}
	}

	if err := e.createDB("accounts.db", "accounts", accountRecords); err != nil {
		return fmt.Errorf("failed to export accounts: %w", err)
	}

	if err := e.createDB("addresses.db", "addresses", addressRecords); err != nil {
		return fmt.Errorf("failed to export addresses: %w", err)
	}

	return nil
}

// createDB creates a SQLite database with a single table containing records.
// Permanent bans have a NULL expiry so consumers can filter live bans with
// "expires_at IS NULL OR expires_at > now".
func (e *Exporter) createDB(filename, table string, records []*types.ExportRecord) (err error) {
	conn, err := sqlite.OpenConn(filepath.Join(e.outDir, filename), sqlite.OpenCreate|sqlite.OpenReadWrite)
	if err != nil {
		return fmt.Errorf("failed to open SQLite database: %w", err)
	}
	defer conn.Close()

	err = sqlitex.ExecuteScript(conn, fmt.Sprintf(`
		CREATE TABLE %[1]s (
			hash TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			reason TEXT NOT NULL,
			expires_at INTEGER
		);
		CREATE INDEX idx_%[1]s_expires_at ON %[1]s (expires_at);
	`, table), nil)
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	insert := fmt.Sprintf("INSERT INTO %s (hash, kind, reason, expires_at) VALUES (?, ?, ?, ?)", table)

	// Insert records in batches
	const batchSize = 1000
	for i := 0; i < len(records); i += batchSize {
		end := min(i+batchSize, len(records))

		if err := e.insertBatch(conn, insert, records[i:end]); err != nil {
			return err
		}
	}

	return nil
}

// insertBatch inserts records inside a single transaction.
func (e *Exporter) insertBatch(conn *sqlite.Conn, insert string, records []*types.ExportRecord) (err error) {
	defer sqlitex.Transaction(conn)(&err)

	for _, record := range records {
		err = sqlitex.Execute(conn, insert, &sqlitex.ExecOptions{
			Args: []any{record.Hash, record.Kind, record.Reason, expiresAt(record)},
		})
		if err != nil {
			return fmt.Errorf("failed to insert record: %w", err)
		}
	}

	return nil
}

// expiresAt returns the record's expiry, or nil for a permanent ban.
func expiresAt(record *types.ExportRecord) any {
	if record.ExpiresAt == 0 {
		return nil
	}
	return record.ExpiresAt
}
