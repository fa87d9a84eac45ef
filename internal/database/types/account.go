package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/robalyx/warden/internal/database/types/enum"
)

// Capabilities is supplied by the host layer to answer permission questions.
type Capabilities interface {
	HasBypass(kind enum.BypassKind) bool
}

// BypassSet is a fixed set of granted bypasses.
type BypassSet []enum.BypassKind

// HasBypass checks if the kind is in the set.
func (s BypassSet) HasBypass(kind enum.BypassKind) bool {
	for _, k := range s {
		if k == kind {
			return true
		}
	}
	return false
}

// Account is the connecting player as seen by the policy checks.
type Account struct {
	ID           uuid.UUID
	Name         string
	Capabilities Capabilities
}

// HasBypass checks if the account may skip the given check.
func (a Account) HasBypass(kind enum.BypassKind) bool {
	return a.Capabilities != nil && a.Capabilities.HasBypass(kind)
}

// AccountAddress records an address an account connected from.
type AccountAddress struct {
	AccountID   uuid.UUID `bun:",pk,type:uuid"`
	Address     string    `bun:",pk"`
	AccountName string    `bun:",notnull"`
	LastSeen    time.Time `bun:",notnull"`
}

// AccountName pairs an account with one of its observed display names.
type AccountName struct {
	AccountID uuid.UUID `bun:",type:uuid"`
	Name      string    `bun:"account_name"`
}

// JoinPair records two accounts observed joining together in a suspicious way.
type JoinPair struct {
	ID         int64     `bun:",pk,autoincrement"`
	AccountA   uuid.UUID `bun:",type:uuid,notnull"`
	AccountB   uuid.UUID `bun:",type:uuid,notnull"`
	ObservedAt time.Time `bun:",notnull"`
}

// Other returns the member of the pair that is not id, and whether id is a member.
func (p JoinPair) Other(id uuid.UUID) (uuid.UUID, bool) {
	switch id {
	case p.AccountA:
		return p.AccountB, true
	case p.AccountB:
		return p.AccountA, true
	default:
		return uuid.Nil, false
	}
}
