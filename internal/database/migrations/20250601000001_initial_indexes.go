package migrations

import (
	"context"
	"fmt"

	"github.com/robalyx/warden/internal/database/types/enum"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewRaw(`
			-- Punishment lookups by account
			CREATE INDEX IF NOT EXISTS idx_punishments_account_active
			ON punishments (account_id, start_at DESC)
			WHERE active;

			CREATE INDEX IF NOT EXISTS idx_punishments_account_time
			ON punishments (account_id, start_at DESC);

			CREATE INDEX IF NOT EXISTS idx_punishments_active_type
			ON punishments (type, start_at DESC)
			WHERE active;

			-- Address ban indexes
			CREATE INDEX IF NOT EXISTS idx_ip_bans_address_active
			ON ip_bans (address, start_at DESC)
			WHERE active AND NOT is_subnet;

			CREATE INDEX IF NOT EXISTS idx_ip_bans_subnet_active
			ON ip_bans (start_at DESC)
			WHERE active AND is_subnet;

			-- Account observation indexes
			CREATE INDEX IF NOT EXISTS idx_account_addresses_address
			ON account_addresses (address, last_seen DESC);

			CREATE INDEX IF NOT EXISTS idx_account_addresses_last_seen
			ON account_addresses (last_seen DESC);

			CREATE INDEX IF NOT EXISTS idx_account_addresses_name
			ON account_addresses (LOWER(account_name));

			CREATE INDEX IF NOT EXISTS idx_join_pairs_observed
			ON join_pairs (observed_at DESC);

			-- Appeal indexes
			CREATE INDEX IF NOT EXISTS idx_appeals_account_time
			ON appeals (account_id, submitted_at DESC);

			CREATE INDEX IF NOT EXISTS idx_appeals_pending
			ON appeals (submitted_at ASC)
			WHERE status = ?;

			CREATE UNIQUE INDEX IF NOT EXISTS idx_appeals_account_pending
			ON appeals (account_id)
			WHERE status = ?;
		`, enum.AppealStatusPending, enum.AppealStatusPending).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create indexes: %w", err)
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewRaw(`
			DROP INDEX IF EXISTS idx_punishments_account_active;
			DROP INDEX IF EXISTS idx_punishments_account_time;
			DROP INDEX IF EXISTS idx_punishments_active_type;
			DROP INDEX IF EXISTS idx_ip_bans_address_active;
			DROP INDEX IF EXISTS idx_ip_bans_subnet_active;
			DROP INDEX IF EXISTS idx_account_addresses_address;
			DROP INDEX IF EXISTS idx_account_addresses_last_seen;
			DROP INDEX IF EXISTS idx_account_addresses_name;
			DROP INDEX IF EXISTS idx_join_pairs_observed;
			DROP INDEX IF EXISTS idx_appeals_account_time;
			DROP INDEX IF EXISTS idx_appeals_pending;
			DROP INDEX IF EXISTS idx_appeals_account_pending;
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to drop indexes: %w", err)
		}

		return nil
	})
}
