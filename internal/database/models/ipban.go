package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/robalyx/warden/internal/database/dbretry"
	"github.com/robalyx/warden/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// IPBanModel handles database operations for address and subnet bans.
type IPBanModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewIPBan creates a new IPBanModel instance.
func NewIPBan(db *bun.DB, logger *zap.Logger) *IPBanModel {
	return &IPBanModel{
		db:     db,
		logger: logger.Named("db_ip_ban"),
	}
}

// SaveIPBan inserts the ban and returns its assigned id.
func (m *IPBanModel) SaveIPBan(ctx context.Context, ban *types.IPBan) (int64, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (int64, error) {
		_, err := m.db.NewInsert().
			Model(ban).
			Returning("id").
			Exec(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to save ip ban: %w", err)
		}

		return ban.ID, nil
	})
}

// GetActiveIPBan returns the newest active non-subnet ban for exactly this address.
func (m *IPBanModel) GetActiveIPBan(ctx context.Context, address string) (*types.IPBan, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.IPBan, error) {
		var ban types.IPBan
		err := m.db.NewSelect().
			Model(&ban).
			Where("address = ?", address).
			Where("active").
			Where("NOT is_subnet").
			Order("start_at DESC", "id DESC").
			Limit(1).
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get ip ban: %w", err)
		}

		return &ban, nil
	})
}

// GetActiveSubnetBans returns every active subnet ban, newest first.
func (m *IPBanModel) GetActiveSubnetBans(ctx context.Context) ([]*types.IPBan, error) {
	return m.list(ctx, true)
}

// GetActiveIPBans returns every active ban, newest first.
func (m *IPBanModel) GetActiveIPBans(ctx context.Context) ([]*types.IPBan, error) {
	return m.list(ctx, false)
}

// DeactivateIPBan clears the active flag.
func (m *IPBanModel) DeactivateIPBan(ctx context.Context, id int64) (bool, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (bool, error) {
		result, err := m.db.NewUpdate().
			Model((*types.IPBan)(nil)).
			Set("active = FALSE").
			Where("id = ?", id).
			Where("active").
			Exec(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to deactivate ip ban: %w", err)
		}

		return affected(result)
	})
}

func (m *IPBanModel) list(ctx context.Context, subnetsOnly bool) ([]*types.IPBan, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.IPBan, error) {
		var bans []*types.IPBan
		query := m.db.NewSelect().
			Model(&bans).
			Where("active")
		if subnetsOnly {
			query = query.Where("is_subnet")
		}

		if err := query.Order("start_at DESC", "id DESC").Scan(ctx); err != nil {
			return nil, fmt.Errorf("failed to list ip bans: %w", err)
		}

		return bans, nil
	})
}
