package export_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/robalyx/warden/internal/database/types"
	"github.com/robalyx/warden/internal/database/types/enum"
	"github.com/robalyx/warden/internal/export"
	"github.com/robalyx/warden/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func seedStore(t *testing.T, now time.Time) (*store.MemoryStore, uuid.UUID) {
	t.Helper()

	ctx := context.Background()
	s := store.NewMemory()
	banned := uuid.New()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	punishments := []*types.Punishment{
		{AccountID: banned, Type: enum.PunishmentTypeBan, Reason: "Cheating", StartAt: now.Add(-2 * time.Hour), Active: true},
		{AccountID: banned, Type: enum.PunishmentTypeTempBan, Reason: "Older", StartAt: now.Add(-3 * time.Hour), ExpiresAt: &future, Active: true},
		{AccountID: uuid.New(), Type: enum.PunishmentTypeTempBan, Reason: "Expired", StartAt: now.Add(-2 * time.Hour), ExpiresAt: &past, Active: true},
		{AccountID: uuid.New(), Type: enum.PunishmentTypeMute, Reason: "Chat", StartAt: now.Add(-time.Hour), Active: true},
		{AccountID: uuid.New(), Type: enum.PunishmentTypeBan, Reason: "Lifted", StartAt: now.Add(-time.Hour), Active: false},
	}
	for _, p := range punishments {
		_, err := s.SavePunishment(ctx, p)
		require.NoError(t, err)
	}

	bans := []*types.IPBan{
		{Address: "203.0.113.7", Reason: "Botting", StartAt: now.Add(-time.Hour), Active: true},
		{Address: "198.51.100.0/24", Reason: "Botnet", StartAt: now.Add(-time.Hour), ExpiresAt: &future, Active: true, IsSubnet: true},
		{Address: "192.0.2.1", Reason: "Expired", StartAt: now.Add(-2 * time.Hour), ExpiresAt: &past, Active: true},
	}
	for _, b := range bans {
		_, err := s.SaveIPBan(ctx, b)
		require.NoError(t, err)
	}

	return s, banned
}

func TestExportAll(t *testing.T) {
	t.Parallel()

	now := time.Now().Truncate(time.Second)
	s, banned := seedStore(t, now)
	outDir := filepath.Join(t.TempDir(), "out")

	cfg := export.Config{
		ExportVersion: "1",
		Salt:          "pepper",
		HashType:      export.HashTypeSHA256,
		Iterations:    2,
		Concurrency:   4,
	}

	summary, err := export.New(s, outDir, cfg, zap.NewNop()).
		WithFormats(export.FormatCSV).
		ExportAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Accounts)
	assert.Equal(t, 2, summary.Addresses)

	accounts, err := os.ReadFile(filepath.Join(outDir, "accounts.csv"))
	require.NoError(t, err)

	wantHash := export.HashValue(banned[:], "pepper", export.HashTypeSHA256, 2, 0)
	assert.Contains(t, string(accounts), wantHash+",BAN,Cheating,0")
	assert.NotContains(t, string(accounts), "Expired")

	addresses, err := os.ReadFile(filepath.Join(outDir, "addresses.csv"))
	require.NoError(t, err)

	exactHash := export.HashValue([]byte("203.0.113.7"), "pepper", export.HashTypeSHA256, 2, 0)
	assert.Contains(t, string(addresses), exactHash+",ADDRESS,Botting,0")
	assert.Contains(t, string(addresses), "SUBNET,Botnet")
	assert.NotContains(t, string(addresses), "203.0.113.7")

	raw, err := os.ReadFile(filepath.Join(outDir, "export_config.json"))
	require.NoError(t, err)

	var written map[string]any
	require.NoError(t, sonic.Unmarshal(raw, &written))
	assert.Equal(t, "sha256", written["hashType"])
	assert.Equal(t, "pepper", written["salt"])
	assert.Equal(t, export.EngineVersion, written["engineVersion"])
}

func TestExportAllFormats(t *testing.T) {
	t.Parallel()

	s, _ := seedStore(t, time.Now())
	outDir := t.TempDir()

	cfg := export.Config{Salt: "pepper", HashType: export.HashTypeArgon2id, Iterations: 1, Memory: 1, Concurrency: 2}
	_, err := export.New(s, outDir, cfg, zap.NewNop()).ExportAll(context.Background())
	require.NoError(t, err)

	for _, file := range []string{"accounts.db", "addresses.db", "accounts.bin", "addresses.bin", "accounts.csv", "addresses.csv"} {
		assert.FileExists(t, filepath.Join(outDir, file))
	}
}

func TestExportAllValidation(t *testing.T) {
	t.Parallel()

	s := store.NewMemory()

	_, err := export.New(s, t.TempDir(), export.Config{HashType: export.HashTypeSHA256}, zap.NewNop()).
		ExportAll(context.Background())
	require.ErrorIs(t, err, export.ErrMissingSalt)

	_, err = export.New(s, t.TempDir(), export.Config{Salt: "x", HashType: "md5"}, zap.NewNop()).
		ExportAll(context.Background())
	require.ErrorIs(t, err, export.ErrUnsupportedHashType)

	_, err = export.New(s, t.TempDir(), export.Config{Salt: "x", HashType: export.HashTypeSHA256}, zap.NewNop()).
		WithFormats("xml").
		ExportAll(context.Background())
	require.ErrorIs(t, err, export.ErrUnsupportedFormat)
}
