package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robalyx/warden/internal/database/dbretry"
	"github.com/robalyx/warden/internal/database/types"
	"github.com/robalyx/warden/internal/database/types/enum"
	"github.com/robalyx/warden/internal/store"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// PunishmentModel handles database operations for punishment records.
type PunishmentModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewPunishment creates a new PunishmentModel instance.
func NewPunishment(db *bun.DB, logger *zap.Logger) *PunishmentModel {
	return &PunishmentModel{
		db:     db,
		logger: logger.Named("db_punishment"),
	}
}

// SavePunishment inserts the punishment and returns its assigned id.
func (m *PunishmentModel) SavePunishment(ctx context.Context, p *types.Punishment) (int64, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (int64, error) {
		_, err := m.db.NewInsert().
			Model(p).
			Returning("id").
			Exec(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to save punishment: %w", err)
		}

		return p.ID, nil
	})
}

// GetPunishment returns a punishment by id.
func (m *PunishmentModel) GetPunishment(ctx context.Context, id int64) (*types.Punishment, error) {
	p, err := dbretry.Operation(ctx, func(ctx context.Context) (*types.Punishment, error) {
		var p types.Punishment
		err := m.db.NewSelect().
			Model(&p).
			Where("id = ?", id).
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get punishment: %w", err)
		}

		return &p, nil
	})
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("punishment %d: %w", id, store.ErrNotFound)
	}

	return p, nil
}

// GetActivePunishment returns the newest active punishment of any of the given types.
func (m *PunishmentModel) GetActivePunishment(
	ctx context.Context, accountID uuid.UUID, kinds ...enum.PunishmentType,
) (*types.Punishment, error) {
	if len(kinds) == 0 {
		return nil, nil
	}

	return dbretry.Operation(ctx, func(ctx context.Context) (*types.Punishment, error) {
		var p types.Punishment
		err := m.db.NewSelect().
			Model(&p).
			Where("account_id = ?", accountID).
			Where("active").
			Where("type IN (?)", bun.In(kinds)).
			Order("start_at DESC", "id DESC").
			Limit(1).
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get active punishment: %w", err)
		}

		return &p, nil
	})
}

// GetActivePunishments returns all active punishments for the account.
func (m *PunishmentModel) GetActivePunishments(ctx context.Context, accountID uuid.UUID) ([]*types.Punishment, error) {
	return m.list(ctx, "failed to get active punishments", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("account_id = ?", accountID).Where("active")
	})
}

// GetActivePunishmentsByType returns active punishments of the given types across all accounts.
func (m *PunishmentModel) GetActivePunishmentsByType(
	ctx context.Context, kinds ...enum.PunishmentType,
) ([]*types.Punishment, error) {
	if len(kinds) == 0 {
		return nil, nil
	}

	return m.list(ctx, "failed to get active punishments by type", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("active").Where("type IN (?)", bun.In(kinds))
	})
}

// GetPunishmentsSince returns punishments that started strictly after since.
func (m *PunishmentModel) GetPunishmentsSince(
	ctx context.Context, accountID uuid.UUID, since time.Time,
) ([]*types.Punishment, error) {
	return m.list(ctx, "failed to get recent punishments", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("account_id = ?", accountID).Where("start_at > ?", since)
	})
}

// GetPunishmentHistory returns every punishment for the account.
func (m *PunishmentModel) GetPunishmentHistory(ctx context.Context, accountID uuid.UUID) ([]*types.Punishment, error) {
	return m.list(ctx, "failed to get punishment history", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("account_id = ?", accountID)
	})
}

// DeactivatePunishment clears the active flag.
func (m *PunishmentModel) DeactivatePunishment(ctx context.Context, id int64) (bool, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (bool, error) {
		result, err := m.db.NewUpdate().
			Model((*types.Punishment)(nil)).
			Set("active = FALSE").
			Where("id = ?", id).
			Where("active").
			Exec(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to deactivate punishment: %w", err)
		}

		return affected(result)
	})
}

// DeactivatePunishmentsByType clears every active punishment of the type for the account.
func (m *PunishmentModel) DeactivatePunishmentsByType(
	ctx context.Context, accountID uuid.UUID, kind enum.PunishmentType,
) (bool, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (bool, error) {
		result, err := m.db.NewUpdate().
			Model((*types.Punishment)(nil)).
			Set("active = FALSE").
			Where("account_id = ?", accountID).
			Where("type = ?", kind).
			Where("active").
			Exec(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to deactivate punishments: %w", err)
		}

		return affected(result)
	})
}

// list runs a punishment query ordered newest first.
func (m *PunishmentModel) list(
	ctx context.Context, failure string, filter func(*bun.SelectQuery) *bun.SelectQuery,
) ([]*types.Punishment, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.Punishment, error) {
		var punishments []*types.Punishment
		err := filter(m.db.NewSelect().Model(&punishments)).
			Order("start_at DESC", "id DESC").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", failure, err)
		}

		return punishments, nil
	})
}

// affected reports whether an update changed any row.
func affected(result sql.Result) (bool, error) {
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}
