package types

import (
	"time"

	"github.com/google/uuid"
)

// IPBan represents a ban on a single address or an IPv4 CIDR subnet.
type IPBan struct {
	ID         int64      `bun:",pk,autoincrement"`
	Address    string     `bun:",notnull"` // Address, or network/mask when IsSubnet
	IssuerID   uuid.UUID  `bun:",type:uuid,nullzero"`
	IssuerName string     `bun:",notnull"`
	Reason     string     `bun:",type:text,notnull"`
	StartAt    time.Time  `bun:",notnull"`
	ExpiresAt  *time.Time `bun:",nullzero"` // Null for permanent bans
	Active     bool       `bun:",notnull"`
	IsSubnet   bool       `bun:",notnull"`
}

// IsPermanent checks if the ban never expires.
func (b *IPBan) IsPermanent() bool {
	return b.ExpiresAt == nil
}

// IsExpiredAt checks if the ban end time has passed at the given instant.
func (b *IPBan) IsExpiredAt(now time.Time) bool {
	return b.ExpiresAt != nil && now.After(*b.ExpiresAt)
}

// Clone returns a deep copy of the ban.
func (b *IPBan) Clone() *IPBan {
	c := *b
	if b.ExpiresAt != nil {
		expires := *b.ExpiresAt
		c.ExpiresAt = &expires
	}
	return &c
}
