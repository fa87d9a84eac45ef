package ipmatch

import (
	"context"
	"time"

	"github.com/robalyx/warden/internal/database/types"
	"github.com/robalyx/warden/internal/store"
	"go.uber.org/zap"
)

// Resolver finds the ban that applies to a connecting address.
type Resolver struct {
	bans   store.IPBans
	logger *zap.Logger
	now    func() time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock replaces the wall clock used for expiry decisions.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		r.now = now
	}
}

// NewResolver creates a Resolver backed by the given ban store.
func NewResolver(bans store.IPBans, logger *zap.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		bans:   bans,
		logger: logger.Named("ipmatch"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the active ban covering the address, or nil.
// An exact address ban wins over subnet bans. Expired bans found along the way
// are deactivated. Store failures are logged and treated as no ban.
func (r *Resolver) Resolve(ctx context.Context, ip string) *types.IPBan {
	address := Normalize(ip)
	now := r.now()

	if exact := r.exactBan(ctx, address, now); exact != nil {
		return exact
	}

	subnets, err := r.bans.GetActiveSubnetBans(ctx)
	if err != nil {
		r.logger.Error("Failed to list subnet bans", zap.Error(err))
		return nil
	}

	for _, ban := range subnets {
		if ban.IsExpiredAt(now) {
			r.expire(ctx, ban)
			continue
		}
		if InSubnet(address, ban.Address) {
			return ban
		}
	}

	return nil
}

// exactBan returns the newest unexpired ban on exactly this address,
// deactivating expired ones it passes.
func (r *Resolver) exactBan(ctx context.Context, address string, now time.Time) *types.IPBan {
	for {
		ban, err := r.bans.GetActiveIPBan(ctx, address)
		if err != nil {
			r.logger.Error("Failed to look up address ban", zap.String("address", address), zap.Error(err))
			return nil
		}
		if ban == nil || !ban.IsExpiredAt(now) {
			return ban
		}
		if !r.expire(ctx, ban) {
			return nil
		}
	}
}

// expire deactivates a ban whose end time has passed.
// It reports whether the ban is no longer active afterwards.
func (r *Resolver) expire(ctx context.Context, ban *types.IPBan) bool {
	changed, err := r.bans.DeactivateIPBan(ctx, ban.ID)
	if err != nil {
		r.logger.Error("Failed to deactivate expired address ban",
			zap.Int64("banID", ban.ID),
			zap.Error(err))
		return false
	}
	if !changed {
		return true
	}

	r.logger.Debug("Deactivated expired address ban",
		zap.Int64("banID", ban.ID),
		zap.String("address", ban.Address))
	return true
}
