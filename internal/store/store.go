// Package store defines the persistence contract used by the moderation
// components. Implementations must be safe for concurrent use.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/robalyx/warden/internal/database/types"
	"github.com/robalyx/warden/internal/database/types/enum"
)

var (
	// ErrNotFound is returned when a record lookup by id or name has no result.
	ErrNotFound = errors.New("record not found")
	// ErrPendingAppeal is returned when saving a pending appeal for an account
	// that already has one.
	ErrPendingAppeal = errors.New("account already has a pending appeal")
)

// Punishments persists punishment records.
// Lists are ordered newest first by start time.
type Punishments interface {
	// SavePunishment inserts the punishment and returns its assigned id.
	SavePunishment(ctx context.Context, p *types.Punishment) (int64, error)
	// GetPunishment returns a punishment by id or ErrNotFound.
	GetPunishment(ctx context.Context, id int64) (*types.Punishment, error)
	// GetActivePunishment returns the newest active punishment of any of the
	// given types, or nil. Expiry is not evaluated.
	GetActivePunishment(ctx context.Context, accountID uuid.UUID, kinds ...enum.PunishmentType) (*types.Punishment, error)
	// GetActivePunishments returns all active punishments for the account.
	GetActivePunishments(ctx context.Context, accountID uuid.UUID) ([]*types.Punishment, error)
	// GetActivePunishmentsByType returns active punishments of the given types across all accounts.
	GetActivePunishmentsByType(ctx context.Context, kinds ...enum.PunishmentType) ([]*types.Punishment, error)
	// GetPunishmentsSince returns punishments that started strictly after since.
	GetPunishmentsSince(ctx context.Context, accountID uuid.UUID, since time.Time) ([]*types.Punishment, error)
	// GetPunishmentHistory returns every punishment for the account.
	GetPunishmentHistory(ctx context.Context, accountID uuid.UUID) ([]*types.Punishment, error)
	// DeactivatePunishment clears the active flag. It reports false when the
	// record was already inactive or does not exist.
	DeactivatePunishment(ctx context.Context, id int64) (bool, error)
	// DeactivatePunishmentsByType clears every active punishment of the type
	// for the account and reports whether any changed.
	DeactivatePunishmentsByType(ctx context.Context, accountID uuid.UUID, kind enum.PunishmentType) (bool, error)
}

// IPBans persists address and subnet bans.
type IPBans interface {
	// SaveIPBan inserts the ban and returns its assigned id.
	SaveIPBan(ctx context.Context, ban *types.IPBan) (int64, error)
	// GetActiveIPBan returns the newest active non-subnet ban for exactly this address, or nil.
	GetActiveIPBan(ctx context.Context, address string) (*types.IPBan, error)
	// GetActiveSubnetBans returns every active subnet ban, newest first.
	GetActiveSubnetBans(ctx context.Context) ([]*types.IPBan, error)
	// GetActiveIPBans returns every active ban, newest first.
	GetActiveIPBans(ctx context.Context) ([]*types.IPBan, error)
	// DeactivateIPBan clears the active flag and reports whether it changed.
	DeactivateIPBan(ctx context.Context, id int64) (bool, error)
}

// Accounts persists observed account addresses, names and join pairs.
type Accounts interface {
	// RecordAccountAddress upserts the (account, address) pair with its last-seen time.
	RecordAccountAddress(ctx context.Context, entry *types.AccountAddress) error
	// GetAccountAddresses returns the addresses an account was seen on, most recent first.
	GetAccountAddresses(ctx context.Context, accountID uuid.UUID) ([]*types.AccountAddress, error)
	// GetAccountsByAddress returns every account seen on the address, most recent first.
	GetAccountsByAddress(ctx context.Context, address string) ([]uuid.UUID, error)
	// GetAccountName returns the most recently observed display name, or "" if unknown.
	GetAccountName(ctx context.Context, accountID uuid.UUID) (string, error)
	// FindAccountByName resolves a display name case-insensitively or returns ErrNotFound.
	FindAccountByName(ctx context.Context, name string) (uuid.UUID, error)
	// GetAllDisplayNames returns every distinct (account, name) pair ever observed.
	GetAllDisplayNames(ctx context.Context) ([]types.AccountName, error)
	// GetRecentAccounts returns distinct accounts seen strictly after since.
	GetRecentAccounts(ctx context.Context, since time.Time) ([]uuid.UUID, error)
	// RecordJoinPair stores a suspicious join pairing.
	RecordJoinPair(ctx context.Context, pair *types.JoinPair) error
	// GetSuspiciousJoinPairs returns every recorded join pairing.
	GetSuspiciousJoinPairs(ctx context.Context) ([]types.JoinPair, error)
}

// Appeals persists appeals.
type Appeals interface {
	// SaveAppeal inserts the appeal and returns its assigned id. A pending appeal
	// is only inserted when the account has no other pending appeal, otherwise
	// ErrPendingAppeal is returned and nothing is stored.
	SaveAppeal(ctx context.Context, appeal *types.Appeal) (int64, error)
	// GetAppeal returns an appeal by id or ErrNotFound.
	GetAppeal(ctx context.Context, id int64) (*types.Appeal, error)
	// ResolveAppeal stores the decision only if the appeal is still pending
	// and reports whether it did.
	ResolveAppeal(ctx context.Context, appeal *types.Appeal) (bool, error)
	// HasPendingAppeal checks if the account has an appeal awaiting a decision.
	HasPendingAppeal(ctx context.Context, accountID uuid.UUID) (bool, error)
	// GetPendingAppeals returns every pending appeal, oldest first.
	GetPendingAppeals(ctx context.Context) ([]*types.Appeal, error)
	// GetAccountAppeals returns every appeal of the account, newest first.
	GetAccountAppeals(ctx context.Context, accountID uuid.UUID) ([]*types.Appeal, error)
}

// Store combines all persistence concerns.
type Store interface {
	Punishments
	IPBans
	Accounts
	Appeals
}
