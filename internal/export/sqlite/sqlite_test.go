package sqlite_test

import (
	"os"
	"path/filepath"
	"testing"

	exportSQLite "github.com/robalyx/warden/internal/export/sqlite"
	"github.com/robalyx/warden/internal/export/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// readSQLiteFile reads every record of the table ordered by hash.
func readSQLiteFile(t *testing.T, path, table string) []*types.ExportRecord {
	t.Helper()

	conn, err := sqlite.OpenConn(path, sqlite.OpenReadOnly)
	require.NoError(t, err)
	defer conn.Close()

	var records []*types.ExportRecord
	err = sqlitex.ExecuteTransient(conn, "SELECT hash, kind, reason, expires_at FROM "+table+" ORDER BY hash", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			records = append(records, &types.ExportRecord{
				Hash:      stmt.ColumnText(0),
				Kind:      stmt.ColumnText(1),
				Reason:    stmt.ColumnText(2),
				ExpiresAt: stmt.ColumnInt64(3),
			})
			return nil
		},
	})
	require.NoError(t, err)

	return records
}

func TestExporter_Export(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		accounts  []*types.ExportRecord
		addresses []*types.ExportRecord
		wantErr   bool
	}{
		{
			name: "basic export",
			accounts: []*types.ExportRecord{
				{Hash: "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef", Kind: "BAN", Reason: "Cheating"},
				{Hash: "fedcba9876543210fedcba9876543210fedcba9876543210fedcba9876543210", Kind: "TEMP_BAN", Reason: "Spam", ExpiresAt: 1717243200},
			},
			addresses: []*types.ExportRecord{
				{Hash: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", Kind: "SUBNET", Reason: "Botnet"},
			},
		},
		{
			name:      "empty records",
			accounts:  []*types.ExportRecord{},
			addresses: []*types.ExportRecord{},
		},
		{
			name: "reasons with quotes",
			accounts: []*types.ExportRecord{
				{Hash: "cccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccc", Kind: "BAN", Reason: "it's a 'quote'"},
				{Hash: "dddddddddddddddddddddddddddddddddddddddddddddddddddddddddddddddd", Kind: "BAN", Reason: `double "quote"`},
			},
		},
		{
			name: "duplicate hash",
			accounts: []*types.ExportRecord{
				{Hash: "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef", Kind: "BAN", Reason: "first"},
				{Hash: "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef", Kind: "BAN", Reason: "second"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tempDir := t.TempDir()
			err := exportSQLite.New(tempDir).Export(tt.accounts, tt.addresses)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			assert.Len(t, readSQLiteFile(t, filepath.Join(tempDir, "accounts.db"), "accounts"), len(tt.accounts))
			assert.Len(t, readSQLiteFile(t, filepath.Join(tempDir, "addresses.db"), "addresses"), len(tt.addresses))

			if len(tt.accounts) > 0 {
				got := readSQLiteFile(t, filepath.Join(tempDir, "accounts.db"), "accounts")
				assert.Equal(t, tt.accounts, got)
			}
		})
	}
}

func TestExporter_LargeBatch(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()

	records := make([]*types.ExportRecord, 2500)
	for i := range records {
		records[i] = &types.ExportRecord{Hash: string(rune('a'+i%26)) + string(rune('0'+i/26%10)) + string(rune('A'+i/260)), Kind: "BAN"}
	}

	require.NoError(t, exportSQLite.New(tempDir).Export(records, nil))
	assert.Len(t, readSQLiteFile(t, filepath.Join(tempDir, "accounts.db"), "accounts"), len(records))
}

func TestExporter_ExistingFiles(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	for _, file := range []string{"accounts.db", "addresses.db"} {
		require.NoError(t, os.WriteFile(filepath.Join(tempDir, file), []byte("invalid sqlite db"), 0o644))
	}

	records := []*types.ExportRecord{
		{Hash: "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef", Kind: "BAN", Reason: "test reason"},
	}

	require.NoError(t, exportSQLite.New(tempDir).Export(records, records))

	assert.Equal(t, records, readSQLiteFile(t, filepath.Join(tempDir, "accounts.db"), "accounts"))
	assert.Equal(t, records, readSQLiteFile(t, filepath.Join(tempDir, "addresses.db"), "addresses"))
}

func TestExporter_DatabaseSchema(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	records := []*types.ExportRecord{
		{Hash: "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef", Kind: "BAN"},
	}
	require.NoError(t, exportSQLite.New(tempDir).Export(records, nil))

	conn, err := sqlite.OpenConn(filepath.Join(tempDir, "accounts.db"), sqlite.OpenReadOnly)
	require.NoError(t, err)
	defer conn.Close()

	var columns []string
	var pkColumn string
	err = sqlitex.ExecuteTransient(conn, "PRAGMA table_info(accounts)", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			columns = append(columns, stmt.ColumnText(1))
			if stmt.ColumnInt(5) == 1 {
				pkColumn = stmt.ColumnText(1)
			}
			return nil
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"hash", "kind", "reason", "expires_at"}, columns)
	assert.Equal(t, "hash", pkColumn)
}

func TestExporter_PermanentBansHaveNoExpiry(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	records := []*types.ExportRecord{
		{Hash: "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef", Kind: "BAN", Reason: "Cheating"},
		{Hash: "fedcba9876543210fedcba9876543210fedcba9876543210fedcba9876543210", Kind: "TEMP_BAN", Reason: "Spam", ExpiresAt: 1717243200},
	}
	require.NoError(t, exportSQLite.New(tempDir).Export(records, nil))

	conn, err := sqlite.OpenConn(filepath.Join(tempDir, "accounts.db"), sqlite.OpenReadOnly)
	require.NoError(t, err)
	defer conn.Close()

	var permanent []string
	err = sqlitex.ExecuteTransient(conn, "SELECT hash FROM accounts WHERE expires_at IS NULL", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			permanent = append(permanent, stmt.ColumnText(0))
			return nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{records[0].Hash}, permanent)

	var indexes []string
	err = sqlitex.ExecuteTransient(conn, "PRAGMA index_list(accounts)", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			indexes = append(indexes, stmt.ColumnText(1))
			return nil
		},
	})
	require.NoError(t, err)
	assert.Contains(t, indexes, "idx_accounts_expires_at")
}
