package database

import (
	"github.com/robalyx/warden/internal/database/models"
	"github.com/robalyx/warden/internal/store"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

var _ store.Store = (*Repository)(nil)

// Repository provides access to all database models.
// It satisfies store.Store through the embedded models.
type Repository struct {
	*models.PunishmentModel
	*models.IPBanModel
	*models.AccountModel
	*models.AppealModel
}

// NewRepository creates a new repository instance with all models.
func NewRepository(db *bun.DB, logger *zap.Logger) *Repository {
	return &Repository{
		PunishmentModel: models.NewPunishment(db, logger),
		IPBanModel:      models.NewIPBan(db, logger),
		AccountModel:    models.NewAccount(db, logger),
		AppealModel:     models.NewAppeal(db, logger),
	}
}
