package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/robalyx/warden/internal/database/types"
	"github.com/robalyx/warden/internal/database/types/enum"
	"github.com/robalyx/warden/internal/notify"
	"github.com/robalyx/warden/internal/store"
	"go.uber.org/zap"
)

// Decision is a staff response to an appeal.
type Decision struct {
	ResponderID   uuid.UUID
	ResponderName string
	Response      string
}

// CanAppeal reports whether the account may submit an appeal now.
func (s *Service) CanAppeal(ctx context.Context, accountID uuid.UUID) (bool, error) {
	err := s.checkEligible(ctx, accountID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNoActivePunishment), errors.Is(err, ErrPendingAppealExists):
		return false, nil
	default:
		return false, err
	}
}

// SubmitAppeal files an appeal against the account's newest active punishment.
func (s *Service) SubmitAppeal(ctx context.Context, accountID uuid.UUID, accountName, reason string) (*types.Appeal, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrEmptyAppeal
	}

	pending, err := s.store.HasPendingAppeal(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to check pending appeals: %w", err)
	}
	if pending {
		return nil, ErrPendingAppealExists
	}

	active, err := s.ActivePunishments(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if len(active) == 0 {
		return nil, ErrNoActivePunishment
	}

	appeal := &types.Appeal{
		PunishmentID: active[0].ID,
		AccountID:    accountID,
		AccountName:  accountName,
		Reason:       reason,
		SubmittedAt:  s.now(),
		Status:       enum.AppealStatusPending,
	}
	if _, err := s.store.SaveAppeal(ctx, appeal); err != nil {
		if errors.Is(err, store.ErrPendingAppeal) {
			return nil, ErrPendingAppealExists
		}
		return nil, fmt.Errorf("failed to save appeal: %w", err)
	}

	s.logger.Info("Appeal submitted",
		zap.Int64("appealID", appeal.ID),
		zap.Int64("punishmentID", appeal.PunishmentID),
		zap.String("accountID", accountID.String()))

	if s.notifyAppeals.Load() && s.alerts != nil {
		s.alerts.Send(notify.Alert{
			Kind:        notify.KindAppeal,
			AccountID:   accountID.String(),
			AccountName: accountName,
			Message:     fmt.Sprintf("%s has submitted a new appeal (#%d)", accountName, appeal.ID),
			CreatedAt:   appeal.SubmittedAt,
		})
	}

	return appeal, nil
}

// AcceptAppeal accepts a pending appeal and deactivates the appealed punishment.
// The punishment is lifted before the appeal leaves the pending state, so a
// failed call can be repeated.
func (s *Service) AcceptAppeal(ctx context.Context, appealID int64, decision Decision) (*types.Appeal, error) {
	appeal, err := s.pendingAppeal(ctx, appealID, decision)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.DeactivatePunishment(ctx, appeal.PunishmentID); err != nil {
		return nil, fmt.Errorf("failed to lift appealed punishment: %w", err)
	}

	return s.resolve(ctx, appeal, enum.AppealStatusAccepted, decision)
}

// RejectAppeal rejects a pending appeal. The punishment is left untouched.
func (s *Service) RejectAppeal(ctx context.Context, appealID int64, decision Decision) (*types.Appeal, error) {
	appeal, err := s.pendingAppeal(ctx, appealID, decision)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, appeal, enum.AppealStatusRejected, decision)
}

// PendingAppeals returns every appeal awaiting a decision, oldest first.
func (s *Service) PendingAppeals(ctx context.Context) ([]*types.Appeal, error) {
	appeals, err := s.store.GetPendingAppeals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending appeals: %w", err)
	}
	return appeals, nil
}

// AccountAppeals returns every appeal of the account, newest first.
func (s *Service) AccountAppeals(ctx context.Context, accountID uuid.UUID) ([]*types.Appeal, error) {
	appeals, err := s.store.GetAccountAppeals(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load appeals: %w", err)
	}
	return appeals, nil
}

// checkEligible returns nil when the account may appeal.
func (s *Service) checkEligible(ctx context.Context, accountID uuid.UUID) error {
	pending, err := s.store.HasPendingAppeal(ctx, accountID)
	if err != nil {
		return fmt.Errorf("failed to check pending appeals: %w", err)
	}
	if pending {
		return ErrPendingAppealExists
	}

	active, err := s.ActivePunishments(ctx, accountID)
	if err != nil {
		return err
	}
	if len(active) == 0 {
		return ErrNoActivePunishment
	}
	return nil
}

// pendingAppeal validates the decision and loads the appeal it applies to.
func (s *Service) pendingAppeal(ctx context.Context, appealID int64, decision Decision) (*types.Appeal, error) {
	if decision.ResponderName == "" || strings.TrimSpace(decision.Response) == "" {
		return nil, ErrMissingResponder
	}

	appeal, err := s.store.GetAppeal(ctx, appealID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("appeal %d: %w", appealID, err)
		}
		return nil, fmt.Errorf("failed to load appeal: %w", err)
	}
	if !appeal.IsPending() {
		return nil, ErrAppealNotPending
	}
	return appeal, nil
}

// resolve moves a pending appeal to a terminal status.
func (s *Service) resolve(
	ctx context.Context, appeal *types.Appeal, status enum.AppealStatus, decision Decision,
) (*types.Appeal, error) {
	appeal.Status = status
	appeal.ResponderID = decision.ResponderID
	appeal.ResponderName = decision.ResponderName
	appeal.Response = strings.TrimSpace(decision.Response)
	appeal.RespondedAt = s.now()

	resolved, err := s.store.ResolveAppeal(ctx, appeal)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve appeal: %w", err)
	}
	if !resolved {
		return nil, ErrAppealNotPending
	}

	s.logger.Info("Appeal resolved",
		zap.Int64("appealID", appeal.ID),
		zap.String("status", status.String()),
		zap.String("responder", decision.ResponderName))

	return appeal, nil
}
