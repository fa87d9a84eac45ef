package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/robalyx/warden/internal/database/dbretry"
	"github.com/robalyx/warden/internal/database/types"
	"github.com/robalyx/warden/internal/database/types/enum"
	"github.com/robalyx/warden/internal/store"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.uber.org/zap"
)

// AppealModel handles database operations for appeals.
type AppealModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewAppeal creates a new AppealModel instance.
func NewAppeal(db *bun.DB, logger *zap.Logger) *AppealModel {
	return &AppealModel{
		db:     db,
		logger: logger.Named("db_appeal"),
	}
}

// SaveAppeal inserts the appeal and returns its assigned id.
func (m *AppealModel) SaveAppeal(ctx context.Context, appeal *types.Appeal) (int64, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (int64, error) {
		_, err := m.db.NewInsert().
			Model(appeal).
			Returning("id").
			Exec(ctx)
		if err != nil {
			// idx_appeals_account_pending allows one pending appeal per account
			var pgerr pgdriver.Error
			if errors.As(err, &pgerr) && pgerr.IntegrityViolation() &&
				pgerr.Field('n') == "idx_appeals_account_pending" {
				return 0, store.ErrPendingAppeal
			}
			return 0, fmt.Errorf("failed to save appeal: %w", err)
		}

		return appeal.ID, nil
	})
}

// GetAppeal returns an appeal by id.
func (m *AppealModel) GetAppeal(ctx context.Context, id int64) (*types.Appeal, error) {
	appeal, err := dbretry.Operation(ctx, func(ctx context.Context) (*types.Appeal, error) {
		var appeal types.Appeal
		err := m.db.NewSelect().
			Model(&appeal).
			Where("id = ?", id).
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get appeal: %w", err)
		}

		return &appeal, nil
	})
	if err != nil {
		return nil, err
	}
	if appeal == nil {
		return nil, fmt.Errorf("appeal %d: %w", id, store.ErrNotFound)
	}

	return appeal, nil
}

// ResolveAppeal stores the decision only if the appeal is still pending.
func (m *AppealModel) ResolveAppeal(ctx context.Context, appeal *types.Appeal) (bool, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (bool, error) {
		result, err := m.db.NewUpdate().
			Model(appeal).
			Column("status", "responder_id", "responder_name", "response", "responded_at").
			WherePK().
			Where("status = ?", enum.AppealStatusPending).
			Exec(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to resolve appeal: %w", err)
		}

		return affected(result)
	})
}

// HasPendingAppeal checks if the account has an appeal awaiting a decision.
func (m *AppealModel) HasPendingAppeal(ctx context.Context, accountID uuid.UUID) (bool, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (bool, error) {
		exists, err := m.db.NewSelect().
			Model((*types.Appeal)(nil)).
			Where("account_id = ?", accountID).
			Where("status = ?", enum.AppealStatusPending).
			Exists(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to check pending appeal: %w", err)
		}

		return exists, nil
	})
}

// GetPendingAppeals returns every pending appeal, oldest first.
func (m *AppealModel) GetPendingAppeals(ctx context.Context) ([]*types.Appeal, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.Appeal, error) {
		var appeals []*types.Appeal
		err := m.db.NewSelect().
			Model(&appeals).
			Where("status = ?", enum.AppealStatusPending).
			Order("submitted_at ASC", "id ASC").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get pending appeals: %w", err)
		}

		return appeals, nil
	})
}

// GetAccountAppeals returns every appeal of the account, newest first.
func (m *AppealModel) GetAccountAppeals(ctx context.Context, accountID uuid.UUID) ([]*types.Appeal, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.Appeal, error) {
		var appeals []*types.Appeal
		err := m.db.NewSelect().
			Model(&appeals).
			Where("account_id = ?", accountID).
			Order("submitted_at DESC", "id DESC").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get account appeals: %w", err)
		}

		return appeals, nil
	})
}
