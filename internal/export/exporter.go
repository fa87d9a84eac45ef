// Package export writes the active bans as salted hash lists that can be
// shared without revealing account ids or addresses.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	dbtypes "github.com/robalyx/warden/internal/database/types"
	"github.com/robalyx/warden/internal/database/types/enum"
	"github.com/robalyx/warden/internal/export/binary"
	"github.com/robalyx/warden/internal/export/csv"
	"github.com/robalyx/warden/internal/export/sqlite"
	"github.com/robalyx/warden/internal/export/types"
	"go.uber.org/zap"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported export format")
	ErrMissingSalt       = errors.New("export salt must not be empty")
)

// Format represents a supported export format.
type Format string

const (
	FormatSQLite Format = "sqlite"
	FormatBinary Format = "binary"
	FormatCSV    Format = "csv"
)

// EngineVersion is bumped on breaking changes to the file layouts.
const EngineVersion = "1.0.0"

// Config holds the configuration for exports.
type Config struct {
	ExportVersion string   `json:"exportVersion"`
	Salt          string   `json:"salt"`
	Description   string   `json:"description"`
	HashType      HashType `json:"hashType"`
	Iterations    uint32   `json:"iterations"`
	Memory        uint32   `json:"memory,omitempty"`
	Concurrency   int      `json:"-"`
}

// Source provides the records to export.
type Source interface {
	GetActivePunishmentsByType(ctx context.Context, kinds ...enum.PunishmentType) ([]*dbtypes.Punishment, error)
	GetActiveIPBans(ctx context.Context) ([]*dbtypes.IPBan, error)
}

// Summary reports what an export wrote.
type Summary struct {
	Accounts  int
	Addresses int
	Formats   []Format
}

// Exporter handles exporting banned accounts and addresses.
type Exporter struct {
	source  Source
	outDir  string
	config  Config
	formats []Format
	logger  *zap.Logger
	now     func() time.Time
}

// New creates a new exporter writing every supported format.
func New(source Source, outDir string, config Config, logger *zap.Logger) *Exporter {
	return &Exporter{
		source:  source,
		outDir:  outDir,
		config:  config,
		formats: []Format{FormatSQLite, FormatBinary, FormatCSV},
		logger:  logger.Named("export"),
		now:     time.Now,
	}
}

// WithFormats limits the formats written.
func (e *Exporter) WithFormats(formats ...Format) *Exporter {
	e.formats = formats
	return e
}

// ExportAll writes the active bans in every configured format.
func (e *Exporter) ExportAll(ctx context.Context) (*Summary, error) {
	if e.config.Salt == "" {
		return nil, ErrMissingSalt
	}
	if _, err := ParseHashType(string(e.config.HashType)); err != nil {
		return nil, err
	}
	if e.config.Iterations == 0 {
		e.config.Iterations = 1
	}

	e.logger.Info("Starting export",
		zap.String("hashType", string(e.config.HashType)),
		zap.Uint32("iterations", e.config.Iterations),
		zap.Uint32("memory", e.config.Memory),
		zap.Int("concurrency", e.config.Concurrency),
		zap.String("outDir", e.outDir))

	accounts, addresses, err := e.collect(ctx)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(e.outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := e.writeConfig(); err != nil {
		return nil, err
	}

	for _, format := range e.formats {
		if err := e.export(format, accounts, addresses); err != nil {
			return nil, fmt.Errorf("failed to export %s format: %w", format, err)
		}
	}

	e.logger.Info("Export completed",
		zap.Int("accounts", len(accounts)),
		zap.Int("addresses", len(addresses)))

	return &Summary{
		Accounts:  len(accounts),
		Addresses: len(addresses),
		Formats:   e.formats,
	}, nil
}

// collect gathers the unexpired bans and hashes their identifiers.
func (e *Exporter) collect(ctx context.Context) (accounts, addresses []*types.ExportRecord, err error) {
	now := e.now()

	bans, err := e.source.GetActivePunishmentsByType(ctx, enum.PunishmentTypeBan, enum.PunishmentTypeTempBan)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get account bans: %w", err)
	}

	// An account with several active bans is exported once, using its newest ban
	seen := make(map[string]struct{}, len(bans))
	var values [][]byte
	for _, ban := range bans {
		if !ban.IsActiveAt(now) {
			continue
		}
		if _, ok := seen[ban.AccountID.String()]; ok {
			continue
		}
		seen[ban.AccountID.String()] = struct{}{}

		values = append(values, ban.AccountID[:])
		accounts = append(accounts, &types.ExportRecord{
			Kind:      ban.Type.String(),
			Reason:    ban.Reason,
			ExpiresAt: unixOrZero(ban.ExpiresAt),
		})
	}
	e.applyHashes(accounts, values)

	ipBans, err := e.source.GetActiveIPBans(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get address bans: %w", err)
	}

	clear(seen)
	values = values[:0]
	for _, ban := range ipBans {
		if ban.IsExpiredAt(now) {
			continue
		}
		if _, ok := seen[ban.Address]; ok {
			continue
		}
		seen[ban.Address] = struct{}{}

		kind := "ADDRESS"
		if ban.IsSubnet {
			kind = "SUBNET"
		}

		values = append(values, []byte(ban.Address))
		addresses = append(addresses, &types.ExportRecord{
			Kind:      kind,
			Reason:    ban.Reason,
			ExpiresAt: unixOrZero(ban.ExpiresAt),
		})
	}
	e.applyHashes(addresses, values)

	return accounts, addresses, nil
}

func (e *Exporter) applyHashes(records []*types.ExportRecord, values [][]byte) {
	hashes := hashValues(values, e.config.Salt, e.config.HashType, e.config.Concurrency, e.config.Iterations, e.config.Memory)
	for i, record := range records {
		record.Hash = hashes[i]
	}
}

// writeConfig saves the parameters needed to check identifiers against the export.
func (e *Exporter) writeConfig() error {
	jsonConfig := struct {
		Config

		EngineVersion string `json:"engineVersion"`
		ExportedAt    int64  `json:"exportedAt"`
	}{
		Config:        e.config,
		EngineVersion: EngineVersion,
		ExportedAt:    e.now().Unix(),
	}

	data, err := sonic.ConfigStd.MarshalIndent(jsonConfig, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal export config: %w", err)
	}

	if err := os.WriteFile(filepath.Join(e.outDir, "export_config.json"), data, 0o600); err != nil {
		return fmt.Errorf("failed to write export config: %w", err)
	}

	return nil
}

// export handles exporting data in the specified format.
func (e *Exporter) export(format Format, accounts, addresses []*types.ExportRecord) error {
	var exporter interface {
		Export(accounts, addresses []*types.ExportRecord) error
	}

	switch format {
	case FormatSQLite:
		exporter = sqlite.New(e.outDir)
	case FormatBinary:
		exporter = binary.New(e.outDir)
	case FormatCSV:
		exporter = csv.New(e.outDir)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	return exporter.Export(accounts, addresses)
}

func unixOrZero(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return t.Unix()
}
