package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/robalyx/warden/internal/database/types/enum"
)

// MetadataCategory is the metadata key that tags a punishment with its escalation category.
const MetadataCategory = "category"

// Punishment represents a sanction issued against an account.
type Punishment struct {
	ID          int64               `bun:",pk,autoincrement"`
	AccountID   uuid.UUID           `bun:",type:uuid,notnull"`  // Punished account
	AccountName string              `bun:",notnull"`            // Display name at time of issue
	IssuerID    uuid.UUID           `bun:",type:uuid,nullzero"` // Staff account (zero for console)
	IssuerName  string              `bun:",notnull"`            // Staff display name
	Type        enum.PunishmentType `bun:",notnull"`
	Reason      string              `bun:",type:text,notnull"`
	StartAt     time.Time           `bun:",notnull"`
	ExpiresAt   *time.Time          `bun:",nullzero"` // Null for permanent punishments
	Active      bool                `bun:",notnull"`
	Metadata    map[string]string   `bun:",type:jsonb"`
}

// IsPermanent checks if the punishment never expires.
func (p *Punishment) IsPermanent() bool {
	return p.ExpiresAt == nil
}

// IsExpiredAt checks if the punishment end time has passed at the given instant.
func (p *Punishment) IsExpiredAt(now time.Time) bool {
	return p.ExpiresAt != nil && now.After(*p.ExpiresAt)
}

// IsActiveAt checks if the punishment is active and not yet expired.
func (p *Punishment) IsActiveAt(now time.Time) bool {
	return p.Active && !p.IsExpiredAt(now)
}

// Remaining returns the time left until expiry, or zero for permanent punishments.
func (p *Punishment) Remaining(now time.Time) time.Duration {
	if p.ExpiresAt == nil {
		return 0
	}
	return p.ExpiresAt.Sub(now)
}

// Category returns the escalation category tag, if any.
func (p *Punishment) Category() string {
	if p.Metadata == nil {
		return ""
	}
	return p.Metadata[MetadataCategory]
}

// Clone returns a deep copy of the punishment.
func (p *Punishment) Clone() *Punishment {
	c := *p
	if p.ExpiresAt != nil {
		expires := *p.ExpiresAt
		c.ExpiresAt = &expires
	}
	if p.Metadata != nil {
		c.Metadata = make(map[string]string, len(p.Metadata))
		for k, v := range p.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}
