// Package reputation checks connecting addresses against an external
// VPN/proxy reputation service, caching verdicts to bound lookup cost.
package reputation

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/robalyx/warden/internal/database/types"
	"github.com/robalyx/warden/internal/database/types/enum"
	"github.com/robalyx/warden/internal/metrics"
	"github.com/robalyx/warden/pkg/utils"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Settings toggles the checker at runtime.
type Settings struct {
	Enabled bool
	APIKey  string
}

// Cache maps an address to its VPN verdict.
type Cache = utils.TTLMap[string, bool]

type checkerState struct {
	settings Settings
	provider Provider
}

// Checker decides whether an address belongs to a VPN, proxy or Tor exit.
// Every failure path yields false.
type Checker struct {
	state   atomic.Pointer[checkerState]
	cache   *Cache
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewChecker creates a Checker that stores verdicts in cache.
func NewChecker(
	settings Settings, provider Provider, cache *Cache, m *metrics.Metrics, logger *zap.Logger,
) *Checker {
	c := &Checker{
		cache:   cache,
		metrics: m,
		logger:  logger.Named("vpn_checker"),
	}
	c.Update(settings, provider)
	return c
}

// Update swaps the settings and provider. Cached verdicts are kept.
func (c *Checker) Update(settings Settings, provider Provider) {
	c.state.Store(&checkerState{settings: settings, provider: provider})

	if settings.Enabled && settings.APIKey == "" {
		c.logger.Warn("VPN detection is enabled but no API key is configured, checks are disabled")
	}
}

// Cache returns the verdict cache.
func (c *Checker) Cache() *Cache {
	return c.cache
}

// Check returns true when the address should be treated as a VPN.
// Accounts holding the VPN bypass are never flagged and never looked up.
// Only successful lookups are cached.
func (c *Checker) Check(ctx context.Context, caps types.Capabilities, ip string) bool {
	state := c.state.Load()
	if !state.settings.Enabled || state.settings.APIKey == "" || state.provider == nil {
		c.metrics.RecordReputationLookup(metrics.LookupDisabled)
		return false
	}

	if caps != nil && caps.HasBypass(enum.BypassKindVPN) {
		c.metrics.RecordReputationLookup(metrics.LookupSkipped)
		return false
	}

	if verdict, ok := c.cache.Get(ip); ok {
		c.metrics.RecordReputationLookup(metrics.LookupCached)
		return verdict
	}

	value, err, _ := c.group.Do(ip, func() (any, error) {
		result, err := state.provider.Lookup(ctx, ip)
		if err != nil {
			return false, err
		}

		flagged := result.Flagged()
		c.cache.Set(ip, flagged)
		return flagged, nil
	})
	if err != nil {
		c.recordFailure(ip, err)
		return false
	}

	flagged, _ := value.(bool)
	if flagged {
		c.metrics.RecordReputationLookup(metrics.LookupFlagged)
	} else {
		c.metrics.RecordReputationLookup(metrics.LookupClean)
	}

	return flagged
}

// recordFailure logs and counts a failed lookup.
func (c *Checker) recordFailure(ip string, err error) {
	switch {
	case errors.Is(err, ErrRateLimited):
		c.metrics.RecordReputationLookup(metrics.LookupLimited)
		c.logger.Debug("Skipped reputation lookup over request budget", zap.String("address", ip))
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		c.metrics.RecordReputationLookup(metrics.LookupTripped)
		c.logger.Debug("Skipped reputation lookup while circuit is open", zap.String("address", ip))
	default:
		c.metrics.RecordReputationLookup(metrics.LookupFailed)
		c.logger.Warn("Failed to check address reputation",
			zap.String("address", ip),
			zap.Error(err))
	}
}
