package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/robalyx/warden/internal/database/types/enum"
)

// Appeal represents a request to lift a punishment.
type Appeal struct {
	ID            int64             `bun:",pk,autoincrement"`
	PunishmentID  int64             `bun:",notnull"`
	AccountID     uuid.UUID         `bun:",type:uuid,notnull"`
	AccountName   string            `bun:",notnull"`
	Reason        string            `bun:",type:text,notnull"`
	SubmittedAt   time.Time         `bun:",notnull"`
	Status        enum.AppealStatus `bun:",notnull"`
	ResponderID   uuid.UUID         `bun:",type:uuid,nullzero"`
	ResponderName string            `bun:",nullzero"`
	Response      string            `bun:",type:text,nullzero"`
	RespondedAt   time.Time         `bun:",nullzero"`
}

// IsPending checks if the appeal is still awaiting a staff decision.
func (a *Appeal) IsPending() bool {
	return a.Status == enum.AppealStatusPending
}

// Clone returns a copy of the appeal.
func (a *Appeal) Clone() *Appeal {
	c := *a
	return &c
}
