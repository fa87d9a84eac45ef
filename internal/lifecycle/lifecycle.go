// Package lifecycle issues and lifts punishments and address bans and runs
// the appeal workflow. Expired records are deactivated lazily when read.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robalyx/warden/internal/database/types"
	"github.com/robalyx/warden/internal/database/types/enum"
	"github.com/robalyx/warden/internal/metrics"
	"github.com/robalyx/warden/internal/notify"
	"github.com/robalyx/warden/internal/store"
	"go.uber.org/zap"
)

var (
	// ErrDurationRequired is returned when a temporary punishment has no duration.
	ErrDurationRequired = errors.New("temporary punishment requires a duration")
	// ErrInvalidAddress is returned for addresses that are neither IPv4 nor a subnet.
	ErrInvalidAddress = errors.New("invalid address")
	// ErrNoActivePunishment is returned when appealing without an active punishment.
	ErrNoActivePunishment = errors.New("no active punishment to appeal")
	// ErrPendingAppealExists is returned when the account already awaits a decision.
	ErrPendingAppealExists = errors.New("an appeal is already pending")
	// ErrEmptyAppeal is returned when an appeal has no text.
	ErrEmptyAppeal = errors.New("appeal reason is empty")
	// ErrAppealNotPending is returned when resolving an appeal that was already decided.
	ErrAppealNotPending = errors.New("appeal is not pending")
	// ErrMissingResponder is returned when a decision lacks a responder or response.
	ErrMissingResponder = errors.New("appeal decision requires a responder and response")
)

// DefaultReason is recorded when staff give no reason.
const DefaultReason = "No reason provided"

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// Service owns every state change of punishments, address bans and appeals.
type Service struct {
	store         store.Store
	alerts        notify.Sender
	notifyAppeals atomic.Bool
	metrics       *metrics.Metrics
	logger        *zap.Logger
	now           func() time.Time
}

// NewService creates a Service. alerts may be nil.
func NewService(s store.Store, alerts notify.Sender, m *metrics.Metrics, logger *zap.Logger, opts ...Option) *Service {
	svc := &Service{
		store:   s,
		alerts:  alerts,
		metrics: m,
		logger:  logger.Named("lifecycle"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// SetAppealNotifications toggles staff alerts for new appeals.
func (s *Service) SetAppealNotifications(enabled bool) {
	s.notifyAppeals.Store(enabled)
}

// IssueRequest describes a punishment to issue.
// A zero Duration means none was given.
type IssueRequest struct {
	AccountID   uuid.UUID
	AccountName string
	IssuerID    uuid.UUID
	IssuerName  string
	Type        enum.PunishmentType
	Reason      string
	Duration    time.Duration
	Metadata    map[string]string
}

// Issue saves a new active punishment.
//
// Temporary types require a duration. A ban or mute given a duration is
// issued as its temporary form. Kicks and warnings ignore the duration.
func (s *Service) Issue(ctx context.Context, req IssueRequest) (*types.Punishment, error) {
	kind := req.Type
	if req.Duration > 0 {
		kind = temporaryForm(kind)
	}

	if kind.IsTemporary() && req.Duration <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrDurationRequired, kind)
	}

	reason := req.Reason
	if reason == "" {
		reason = DefaultReason
	}

	start := s.now()
	p := &types.Punishment{
		AccountID:   req.AccountID,
		AccountName: req.AccountName,
		IssuerID:    req.IssuerID,
		IssuerName:  req.IssuerName,
		Type:        kind,
		Reason:      reason,
		StartAt:     start,
		Active:      true,
		Metadata:    req.Metadata,
	}
	if kind.IsTemporary() {
		expires := start.Add(req.Duration)
		p.ExpiresAt = &expires
	}

	if _, err := s.store.SavePunishment(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save punishment: %w", err)
	}

	s.metrics.RecordPunishment(kind)
	s.logger.Info("Issued punishment",
		zap.Int64("punishmentID", p.ID),
		zap.String("accountID", p.AccountID.String()),
		zap.String("type", kind.String()),
		zap.String("issuer", p.IssuerName))

	return p, nil
}

// Lift deactivates every active punishment of the given types for the
// account and reports whether any changed.
func (s *Service) Lift(ctx context.Context, accountID uuid.UUID, kinds ...enum.PunishmentType) (bool, error) {
	lifted := false
	for _, kind := range kinds {
		changed, err := s.store.DeactivatePunishmentsByType(ctx, accountID, kind)
		if err != nil {
			return lifted, fmt.Errorf("failed to lift %s: %w", kind, err)
		}
		lifted = lifted || changed
	}

	if lifted {
		s.logger.Info("Lifted punishments", zap.String("accountID", accountID.String()))
	}
	return lifted, nil
}

// LiftPunishment deactivates one punishment. A second call is a no-op reporting false.
func (s *Service) LiftPunishment(ctx context.Context, id int64) (bool, error) {
	changed, err := s.store.DeactivatePunishment(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to lift punishment: %w", err)
	}
	return changed, nil
}

// ActivePunishment returns the newest unexpired active punishment of any of
// the types. Expired records it passes are deactivated.
func (s *Service) ActivePunishment(
	ctx context.Context, accountID uuid.UUID, kinds ...enum.PunishmentType,
) (*types.Punishment, error) {
	now := s.now()
	for {
		p, err := s.store.GetActivePunishment(ctx, accountID, kinds...)
		if err != nil {
			return nil, fmt.Errorf("failed to load active punishment: %w", err)
		}
		if p == nil || !p.IsExpiredAt(now) {
			return p, nil
		}
		if err := s.expire(ctx, p); err != nil {
			return nil, err
		}
	}
}

// ActiveBan returns the account's unexpired ban or temporary ban.
func (s *Service) ActiveBan(ctx context.Context, accountID uuid.UUID) (*types.Punishment, error) {
	return s.ActivePunishment(ctx, accountID, enum.PunishmentTypeBan, enum.PunishmentTypeTempBan)
}

// ActiveMute returns the account's unexpired mute or temporary mute.
func (s *Service) ActiveMute(ctx context.Context, accountID uuid.UUID) (*types.Punishment, error) {
	return s.ActivePunishment(ctx, accountID, enum.PunishmentTypeMute, enum.PunishmentTypeTempMute)
}

// ActivePunishments returns every unexpired active punishment, newest first.
func (s *Service) ActivePunishments(ctx context.Context, accountID uuid.UUID) ([]*types.Punishment, error) {
	punishments, err := s.store.GetActivePunishments(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load active punishments: %w", err)
	}

	now := s.now()
	active := punishments[:0]
	for _, p := range punishments {
		if p.IsExpiredAt(now) {
			if err := s.expire(ctx, p); err != nil {
				return nil, err
			}
			continue
		}
		active = append(active, p)
	}
	return active, nil
}

// History returns every punishment of the account, newest first.
func (s *Service) History(ctx context.Context, accountID uuid.UUID) ([]*types.Punishment, error) {
	history, err := s.store.GetPunishmentHistory(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load punishment history: %w", err)
	}
	return history, nil
}

// temporaryForm maps a ban or mute to its temporary type.
func temporaryForm(kind enum.PunishmentType) enum.PunishmentType {
	switch kind {
	case enum.PunishmentTypeBan:
		return enum.PunishmentTypeTempBan
	case enum.PunishmentTypeMute:
		return enum.PunishmentTypeTempMute
	default:
		return kind
	}
}

// expire deactivates an expired punishment. Losing a race with another
// reader is not an error.
func (s *Service) expire(ctx context.Context, p *types.Punishment) error {
	changed, err := s.store.DeactivatePunishment(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("failed to deactivate expired punishment: %w", err)
	}

	if changed {
		s.logger.Debug("Deactivated expired punishment",
			zap.Int64("punishmentID", p.ID),
			zap.String("type", p.Type.String()))
	}
	return nil
}
