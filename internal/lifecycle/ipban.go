package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robalyx/warden/internal/database/types"
	"github.com/robalyx/warden/internal/ipmatch"
	"go.uber.org/zap"
)

// IPBanRequest describes an address or subnet ban. A zero Duration is permanent.
type IPBanRequest struct {
	Address    string
	IssuerID   uuid.UUID
	IssuerName string
	Reason     string
	Duration   time.Duration
}

// IssueIPBan saves a new address ban. Addresses in network/mask form are subnet bans.
func (s *Service) IssueIPBan(ctx context.Context, req IPBanRequest) (*types.IPBan, error) {
	address := ipmatch.Normalize(req.Address)
	if !ipmatch.IsValidBanTarget(address) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, req.Address)
	}

	reason := req.Reason
	if reason == "" {
		reason = DefaultReason
	}

	start := s.now()
	ban := &types.IPBan{
		Address:    address,
		IssuerID:   req.IssuerID,
		IssuerName: req.IssuerName,
		Reason:     reason,
		StartAt:    start,
		Active:     true,
		IsSubnet:   ipmatch.IsSubnet(address),
	}
	if req.Duration > 0 {
		expires := start.Add(req.Duration)
		ban.ExpiresAt = &expires
	}

	if _, err := s.store.SaveIPBan(ctx, ban); err != nil {
		return nil, fmt.Errorf("failed to save address ban: %w", err)
	}

	s.logger.Info("Issued address ban",
		zap.Int64("banID", ban.ID),
		zap.String("address", ban.Address),
		zap.Bool("subnet", ban.IsSubnet),
		zap.String("issuer", ban.IssuerName))

	return ban, nil
}

// LiftIPBan deactivates every active ban on exactly this address or subnet
// and reports whether any changed.
func (s *Service) LiftIPBan(ctx context.Context, address string) (bool, error) {
	address = ipmatch.Normalize(address)

	bans, err := s.store.GetActiveIPBans(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load address bans: %w", err)
	}

	lifted := false
	for _, ban := range bans {
		if ban.Address != address {
			continue
		}

		changed, err := s.store.DeactivateIPBan(ctx, ban.ID)
		if err != nil {
			return lifted, fmt.Errorf("failed to lift address ban: %w", err)
		}
		lifted = lifted || changed
	}

	if lifted {
		s.logger.Info("Lifted address ban", zap.String("address", address))
	}
	return lifted, nil
}

// ActiveIPBans returns every active address ban, newest first.
func (s *Service) ActiveIPBans(ctx context.Context) ([]*types.IPBan, error) {
	bans, err := s.store.GetActiveIPBans(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load address bans: %w", err)
	}
	return bans, nil
}
