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
	"github.com/robalyx/warden/internal/store"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// AccountModel handles database operations for observed addresses, names and join pairs.
type AccountModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewAccount creates a new AccountModel instance.
func NewAccount(db *bun.DB, logger *zap.Logger) *AccountModel {
	return &AccountModel{
		db:     db,
		logger: logger.Named("db_account"),
	}
}

// RecordAccountAddress upserts the (account, address) pair with its last-seen time.
func (m *AccountModel) RecordAccountAddress(ctx context.Context, entry *types.AccountAddress) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewInsert().
			Model(entry).
			On("CONFLICT (account_id, address) DO UPDATE").
			Set("account_name = EXCLUDED.account_name").
			Set("last_seen = EXCLUDED.last_seen").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to record account address: %w", err)
		}

		return nil
	})
}

// GetAccountAddresses returns the addresses an account was seen on, most recent first.
func (m *AccountModel) GetAccountAddresses(ctx context.Context, accountID uuid.UUID) ([]*types.AccountAddress, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.AccountAddress, error) {
		var entries []*types.AccountAddress
		err := m.db.NewSelect().
			Model(&entries).
			Where("account_id = ?", accountID).
			Order("last_seen DESC", "address").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get account addresses: %w", err)
		}

		return entries, nil
	})
}

// GetAccountsByAddress returns every account seen on the address, most recent first.
func (m *AccountModel) GetAccountsByAddress(ctx context.Context, address string) ([]uuid.UUID, error) {
	return m.accounts(ctx, "failed to get accounts by address", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("address = ?", address)
	})
}

// GetRecentAccounts returns distinct accounts seen strictly after since.
func (m *AccountModel) GetRecentAccounts(ctx context.Context, since time.Time) ([]uuid.UUID, error) {
	return m.accounts(ctx, "failed to get recent accounts", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("last_seen > ?", since)
	})
}

// GetAccountName returns the most recently observed display name.
func (m *AccountModel) GetAccountName(ctx context.Context, accountID uuid.UUID) (string, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (string, error) {
		var name string
		err := m.db.NewSelect().
			Model((*types.AccountAddress)(nil)).
			Column("account_name").
			Where("account_id = ?", accountID).
			Order("last_seen DESC").
			Limit(1).
			Scan(ctx, &name)
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to get account name: %w", err)
		}

		return name, nil
	})
}

// FindAccountByName resolves a display name case-insensitively.
func (m *AccountModel) FindAccountByName(ctx context.Context, name string) (uuid.UUID, error) {
	id, err := dbretry.Operation(ctx, func(ctx context.Context) (uuid.UUID, error) {
		var id uuid.UUID
		err := m.db.NewSelect().
			Model((*types.AccountAddress)(nil)).
			Column("account_id").
			Where("LOWER(account_name) = LOWER(?)", name).
			Order("last_seen DESC").
			Limit(1).
			Scan(ctx, &id)
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, nil
		}
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to find account by name: %w", err)
		}

		return id, nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	if id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("account %q: %w", name, store.ErrNotFound)
	}

	return id, nil
}

// GetAllDisplayNames returns every distinct (account, name) pair ever observed.
func (m *AccountModel) GetAllDisplayNames(ctx context.Context) ([]types.AccountName, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]types.AccountName, error) {
		var names []types.AccountName
		err := m.db.NewSelect().
			Model((*types.AccountAddress)(nil)).
			Distinct().
			Column("account_id", "account_name").
			Order("account_name", "account_id").
			Scan(ctx, &names)
		if err != nil {
			return nil, fmt.Errorf("failed to get display names: %w", err)
		}

		return names, nil
	})
}

// RecordJoinPair stores a suspicious join pairing.
func (m *AccountModel) RecordJoinPair(ctx context.Context, pair *types.JoinPair) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewInsert().
			Model(pair).
			Returning("id").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to record join pair: %w", err)
		}

		return nil
	})
}

// GetSuspiciousJoinPairs returns every recorded join pairing, newest first.
func (m *AccountModel) GetSuspiciousJoinPairs(ctx context.Context) ([]types.JoinPair, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]types.JoinPair, error) {
		var pairs []types.JoinPair
		err := m.db.NewSelect().
			Model(&pairs).
			Order("observed_at DESC", "id DESC").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get join pairs: %w", err)
		}

		return pairs, nil
	})
}

// accounts selects distinct account ids ordered by their latest sighting.
func (m *AccountModel) accounts(
	ctx context.Context, failure string, filter func(*bun.SelectQuery) *bun.SelectQuery,
) ([]uuid.UUID, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]uuid.UUID, error) {
		var ids []uuid.UUID
		err := filter(m.db.NewSelect().Model((*types.AccountAddress)(nil))).
			Column("account_id").
			Group("account_id").
			OrderExpr("MAX(last_seen) DESC, account_id").
			Scan(ctx, &ids)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", failure, err)
		}

		return ids, nil
	})
}
