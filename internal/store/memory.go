package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robalyx/warden/internal/database/types"
	"github.com/robalyx/warden/internal/database/types/enum"
)

// MemoryStore provides an in-memory Store implementation.
// It backs tests and single-node deployments without PostgreSQL, and mirrors
// the database implementation's ordering and conditional updates.
type MemoryStore struct {
	mu sync.RWMutex

	nextPunishmentID int64
	nextIPBanID      int64
	nextAppealID     int64
	nextJoinPairID   int64

	punishments map[int64]*types.Punishment
	ipBans      map[int64]*types.IPBan
	appeals     map[int64]*types.Appeal
	addresses   map[addressKey]*types.AccountAddress
	joinPairs   []types.JoinPair
}

type addressKey struct {
	accountID uuid.UUID
	address   string
}

// NewMemory creates an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		nextPunishmentID: 1,
		nextIPBanID:      1,
		nextAppealID:     1,
		nextJoinPairID:   1,
		punishments:      make(map[int64]*types.Punishment),
		ipBans:           make(map[int64]*types.IPBan),
		appeals:          make(map[int64]*types.Appeal),
		addresses:        make(map[addressKey]*types.AccountAddress),
	}
}

// newestPunishmentFirst orders by start time, then id, descending.
func newestPunishmentFirst(a, b *types.Punishment) int {
	if c := b.StartAt.Compare(a.StartAt); c != 0 {
		return c
	}
	return cmp.Compare(b.ID, a.ID)
}

func newestIPBanFirst(a, b *types.IPBan) int {
	if c := b.StartAt.Compare(a.StartAt); c != 0 {
		return c
	}
	return cmp.Compare(b.ID, a.ID)
}

// collectPunishments returns sorted clones of punishments matching keep.
func (s *MemoryStore) collectPunishments(keep func(*types.Punishment) bool) []*types.Punishment {
	var result []*types.Punishment
	for _, p := range s.punishments {
		if keep(p) {
			result = append(result, p.Clone())
		}
	}
	slices.SortFunc(result, newestPunishmentFirst)
	return result
}

// SavePunishment inserts the punishment and returns its assigned id.
func (s *MemoryStore) SavePunishment(_ context.Context, p *types.Punishment) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := p.Clone()
	stored.ID = s.nextPunishmentID
	s.nextPunishmentID++
	s.punishments[stored.ID] = stored

	p.ID = stored.ID
	return stored.ID, nil
}

// GetPunishment returns a punishment by id or ErrNotFound.
func (s *MemoryStore) GetPunishment(_ context.Context, id int64) (*types.Punishment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.punishments[id]
	if !ok {
		return nil, fmt.Errorf("store: punishment %d: %w", id, ErrNotFound)
	}
	return p.Clone(), nil
}

// GetActivePunishment returns the newest active punishment of any of the given types.
func (s *MemoryStore) GetActivePunishment(
	_ context.Context, accountID uuid.UUID, kinds ...enum.PunishmentType,
) (*types.Punishment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := s.collectPunishments(func(p *types.Punishment) bool {
		return p.AccountID == accountID && p.Active && slices.Contains(kinds, p.Type)
	})
	if len(matches) == 0 {
		return nil, nil
	}
	return matches[0], nil
}

// GetActivePunishments returns all active punishments for the account.
func (s *MemoryStore) GetActivePunishments(_ context.Context, accountID uuid.UUID) ([]*types.Punishment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collectPunishments(func(p *types.Punishment) bool {
		return p.AccountID == accountID && p.Active
	}), nil
}

// GetActivePunishmentsByType returns active punishments of the given types across all accounts.
func (s *MemoryStore) GetActivePunishmentsByType(
	_ context.Context, kinds ...enum.PunishmentType,
) ([]*types.Punishment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collectPunishments(func(p *types.Punishment) bool {
		return p.Active && slices.Contains(kinds, p.Type)
	}), nil
}

// GetPunishmentsSince returns punishments that started strictly after since.
func (s *MemoryStore) GetPunishmentsSince(
	_ context.Context, accountID uuid.UUID, since time.Time,
) ([]*types.Punishment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collectPunishments(func(p *types.Punishment) bool {
		return p.AccountID == accountID && p.StartAt.After(since)
	}), nil
}

// GetPunishmentHistory returns every punishment for the account.
func (s *MemoryStore) GetPunishmentHistory(_ context.Context, accountID uuid.UUID) ([]*types.Punishment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collectPunishments(func(p *types.Punishment) bool {
		return p.AccountID == accountID
	}), nil
}

// DeactivatePunishment clears the active flag.
func (s *MemoryStore) DeactivatePunishment(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.punishments[id]
	if !ok || !p.Active {
		return false, nil
	}
	p.Active = false
	return true, nil
}

// DeactivatePunishmentsByType clears every active punishment of the type for the account.
func (s *MemoryStore) DeactivatePunishmentsByType(
	_ context.Context, accountID uuid.UUID, kind enum.PunishmentType,
) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for _, p := range s.punishments {
		if p.AccountID == accountID && p.Type == kind && p.Active {
			p.Active = false
			changed = true
		}
	}
	return changed, nil
}

// SaveIPBan inserts the ban and returns its assigned id.
func (s *MemoryStore) SaveIPBan(_ context.Context, ban *types.IPBan) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := ban.Clone()
	stored.ID = s.nextIPBanID
	s.nextIPBanID++
	s.ipBans[stored.ID] = stored

	ban.ID = stored.ID
	return stored.ID, nil
}

func (s *MemoryStore) collectIPBans(keep func(*types.IPBan) bool) []*types.IPBan {
	var result []*types.IPBan
	for _, b := range s.ipBans {
		if keep(b) {
			result = append(result, b.Clone())
		}
	}
	slices.SortFunc(result, newestIPBanFirst)
	return result
}

// GetActiveIPBan returns the newest active non-subnet ban for exactly this address.
func (s *MemoryStore) GetActiveIPBan(_ context.Context, address string) (*types.IPBan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := s.collectIPBans(func(b *types.IPBan) bool {
		return b.Active && !b.IsSubnet && b.Address == address
	})
	if len(matches) == 0 {
		return nil, nil
	}
	return matches[0], nil
}

// GetActiveSubnetBans returns every active subnet ban.
func (s *MemoryStore) GetActiveSubnetBans(_ context.Context) ([]*types.IPBan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collectIPBans(func(b *types.IPBan) bool {
		return b.Active && b.IsSubnet
	}), nil
}

// GetActiveIPBans returns every active ban.
func (s *MemoryStore) GetActiveIPBans(_ context.Context) ([]*types.IPBan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collectIPBans(func(b *types.IPBan) bool {
		return b.Active
	}), nil
}

// DeactivateIPBan clears the active flag.
func (s *MemoryStore) DeactivateIPBan(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.ipBans[id]
	if !ok || !b.Active {
		return false, nil
	}
	b.Active = false
	return true, nil
}

// RecordAccountAddress upserts the (account, address) pair.
func (s *MemoryStore) RecordAccountAddress(_ context.Context, entry *types.AccountAddress) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *entry
	s.addresses[addressKey{accountID: entry.AccountID, address: entry.Address}] = &stored
	return nil
}

// sortedAddresses returns copies of the matching entries, most recent first.
func (s *MemoryStore) sortedAddresses(keep func(*types.AccountAddress) bool) []*types.AccountAddress {
	var result []*types.AccountAddress
	for _, a := range s.addresses {
		if keep(a) {
			entry := *a
			result = append(result, &entry)
		}
	}
	slices.SortFunc(result, func(a, b *types.AccountAddress) int {
		if c := b.LastSeen.Compare(a.LastSeen); c != 0 {
			return c
		}
		if c := strings.Compare(a.AccountID.String(), b.AccountID.String()); c != 0 {
			return c
		}
		return strings.Compare(a.Address, b.Address)
	})
	return result
}

// GetAccountAddresses returns the addresses an account was seen on.
func (s *MemoryStore) GetAccountAddresses(
	_ context.Context, accountID uuid.UUID,
) ([]*types.AccountAddress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sortedAddresses(func(a *types.AccountAddress) bool {
		return a.AccountID == accountID
	}), nil
}

// GetAccountsByAddress returns every account seen on the address.
func (s *MemoryStore) GetAccountsByAddress(_ context.Context, address string) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.sortedAddresses(func(a *types.AccountAddress) bool {
		return a.Address == address
	})
	return distinctAccounts(entries), nil
}

// GetAccountName returns the most recently observed display name.
func (s *MemoryStore) GetAccountName(_ context.Context, accountID uuid.UUID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.sortedAddresses(func(a *types.AccountAddress) bool {
		return a.AccountID == accountID
	})
	if len(entries) == 0 {
		return "", nil
	}
	return entries[0].AccountName, nil
}

// FindAccountByName resolves a display name case-insensitively.
func (s *MemoryStore) FindAccountByName(_ context.Context, name string) (uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.sortedAddresses(func(a *types.AccountAddress) bool {
		return strings.EqualFold(a.AccountName, name)
	})
	if len(entries) == 0 {
		return uuid.Nil, fmt.Errorf("store: account %q: %w", name, ErrNotFound)
	}
	return entries[0].AccountID, nil
}

// GetAllDisplayNames returns every distinct (account, name) pair ever observed.
func (s *MemoryStore) GetAllDisplayNames(_ context.Context) ([]types.AccountName, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[types.AccountName]struct{})
	var result []types.AccountName
	for _, a := range s.addresses {
		entry := types.AccountName{AccountID: a.AccountID, Name: a.AccountName}
		if _, ok := seen[entry]; ok {
			continue
		}
		seen[entry] = struct{}{}
		result = append(result, entry)
	}

	slices.SortFunc(result, func(a, b types.AccountName) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.AccountID.String(), b.AccountID.String())
	})
	return result, nil
}

// GetRecentAccounts returns distinct accounts seen strictly after since.
func (s *MemoryStore) GetRecentAccounts(_ context.Context, since time.Time) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.sortedAddresses(func(a *types.AccountAddress) bool {
		return a.LastSeen.After(since)
	})
	return distinctAccounts(entries), nil
}

// RecordJoinPair stores a suspicious join pairing.
func (s *MemoryStore) RecordJoinPair(_ context.Context, pair *types.JoinPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *pair
	stored.ID = s.nextJoinPairID
	s.nextJoinPairID++
	s.joinPairs = append(s.joinPairs, stored)

	pair.ID = stored.ID
	return nil
}

// GetSuspiciousJoinPairs returns every recorded join pairing, newest first.
func (s *MemoryStore) GetSuspiciousJoinPairs(_ context.Context) ([]types.JoinPair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := slices.Clone(s.joinPairs)
	slices.SortStableFunc(result, func(a, b types.JoinPair) int {
		return b.ObservedAt.Compare(a.ObservedAt)
	})
	return result, nil
}

// SaveAppeal inserts the appeal and returns its assigned id.
func (s *MemoryStore) SaveAppeal(_ context.Context, appeal *types.Appeal) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if appeal.IsPending() {
		for _, a := range s.appeals {
			if a.AccountID == appeal.AccountID && a.IsPending() {
				return 0, ErrPendingAppeal
			}
		}
	}

	stored := appeal.Clone()
	stored.ID = s.nextAppealID
	s.nextAppealID++
	s.appeals[stored.ID] = stored

	appeal.ID = stored.ID
	return stored.ID, nil
}

// GetAppeal returns an appeal by id or ErrNotFound.
func (s *MemoryStore) GetAppeal(_ context.Context, id int64) (*types.Appeal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.appeals[id]
	if !ok {
		return nil, fmt.Errorf("store: appeal %d: %w", id, ErrNotFound)
	}
	return a.Clone(), nil
}

// ResolveAppeal stores the decision only if the appeal is still pending.
func (s *MemoryStore) ResolveAppeal(_ context.Context, appeal *types.Appeal) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.appeals[appeal.ID]
	if !ok || !current.IsPending() {
		return false, nil
	}

	current.Status = appeal.Status
	current.ResponderID = appeal.ResponderID
	current.ResponderName = appeal.ResponderName
	current.Response = appeal.Response
	current.RespondedAt = appeal.RespondedAt
	return true, nil
}

// HasPendingAppeal checks if the account has an appeal awaiting a decision.
func (s *MemoryStore) HasPendingAppeal(_ context.Context, accountID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.appeals {
		if a.AccountID == accountID && a.IsPending() {
			return true, nil
		}
	}
	return false, nil
}

// GetPendingAppeals returns every pending appeal, oldest first.
func (s *MemoryStore) GetPendingAppeals(_ context.Context) ([]*types.Appeal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := s.collectAppeals(func(a *types.Appeal) bool { return a.IsPending() })
	slices.Reverse(result)
	return result, nil
}

// GetAccountAppeals returns every appeal of the account, newest first.
func (s *MemoryStore) GetAccountAppeals(_ context.Context, accountID uuid.UUID) ([]*types.Appeal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collectAppeals(func(a *types.Appeal) bool { return a.AccountID == accountID }), nil
}

// collectAppeals returns clones of matching appeals, newest first.
func (s *MemoryStore) collectAppeals(keep func(*types.Appeal) bool) []*types.Appeal {
	var result []*types.Appeal
	for _, a := range s.appeals {
		if keep(a) {
			result = append(result, a.Clone())
		}
	}
	slices.SortFunc(result, func(a, b *types.Appeal) int {
		if c := b.SubmittedAt.Compare(a.SubmittedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return result
}

// distinctAccounts keeps the first occurrence of each account id.
func distinctAccounts(entries []*types.AccountAddress) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(entries))
	result := make([]uuid.UUID, 0, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.AccountID]; ok {
			continue
		}
		seen[e.AccountID] = struct{}{}
		result = append(result, e.AccountID)
	}
	return result
}

var _ Store = (*MemoryStore)(nil)
