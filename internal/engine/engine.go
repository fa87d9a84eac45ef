// Package engine composes the moderation checks into the decisions the host
// asks for: whether an account may connect or chat, and what punishment an
// offense receives.
package engine

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/robalyx/warden/internal/alt"
	"github.com/robalyx/warden/internal/escalation"
	"github.com/robalyx/warden/internal/ipmatch"
	"github.com/robalyx/warden/internal/lifecycle"
	"github.com/robalyx/warden/internal/metrics"
	"github.com/robalyx/warden/internal/notify"
	"github.com/robalyx/warden/internal/reputation"
	"github.com/robalyx/warden/internal/setup/config"
	"github.com/robalyx/warden/internal/store"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
)

// settings are the engine-level toggles swapped on reload.
type settings struct {
	vpnBlock       bool
	altNotifyStaff bool
	messages       config.Messages
}

// Option configures an Engine.
type Option func(*options)

type options struct {
	provider reputation.Provider
	now      func() time.Time
}

// WithProvider fixes the reputation provider instead of building one from config.
func WithProvider(p reputation.Provider) Option {
	return func(o *options) {
		o.provider = p
	}
}

// WithClock overrides the time source of every component.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// Engine is the composition root of the moderation checks.
type Engine struct {
	settings   atomic.Pointer[settings]
	store      store.Store
	vpn        *reputation.Checker
	bans       *ipmatch.Resolver
	alts       *alt.Detector
	escalation *escalation.Engine
	lifecycle  *lifecycle.Service
	alerts     notify.Sender
	metrics    *metrics.Metrics
	logger     *zap.Logger
	options    options
	background conc.WaitGroup
}

// New builds an Engine and its components from the configuration.
// alerts may be nil to disable staff alerts.
func New(
	cfg *config.Config, s store.Store, cache *reputation.Cache, alerts notify.Sender,
	m *metrics.Metrics, logger *zap.Logger, opts ...Option,
) *Engine {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	life := lifecycle.NewService(s, alerts, m, logger, lifecycle.WithClock(o.now))

	e := &Engine{
		store:      s,
		vpn:        reputation.NewChecker(reputation.Settings{}, nil, cache, m, logger),
		bans:       ipmatch.NewResolver(s, logger, ipmatch.WithClock(o.now)),
		alts:       alt.NewDetector(altSettings(cfg), s, life, alerts, m, logger, alt.WithClock(o.now)),
		escalation: escalation.New(cfg.Escalation, cfg.Templates, s, m, logger, escalation.WithClock(o.now)),
		lifecycle:  life,
		alerts:     alerts,
		metrics:    m,
		logger:     logger.Named("engine"),
		options:    o,
	}
	e.apply(cfg)

	return e
}

// Reload applies a new configuration to every component.
// The reputation cache keeps its entries and lifetime.
func (e *Engine) Reload(cfg *config.Config) {
	e.alts.Update(altSettings(cfg))
	e.escalation.Load(cfg.Escalation, cfg.Templates)
	e.apply(cfg)

	e.logger.Info("Reloaded moderation settings")
}

// apply updates the settings shared by New and Reload.
func (e *Engine) apply(cfg *config.Config) {
	provider := e.options.provider
	if provider == nil && cfg.VPNDetection.APIKey != "" {
		provider = reputation.NewIPQualityScore(providerConfig(cfg.VPNDetection), e.logger)
	}
	e.vpn.Update(vpnSettings(cfg), provider)

	e.lifecycle.SetAppealNotifications(cfg.Notify.StaffAppeals)
	e.settings.Store(&settings{
		vpnBlock:       cfg.VPNDetection.Block,
		altNotifyStaff: cfg.AltDetection.NotifyStaff,
		messages:       cfg.Messages,
	})
}

// Lifecycle returns the punishment and appeal service.
func (e *Engine) Lifecycle() *lifecycle.Service {
	return e.lifecycle
}

// Escalation returns the escalation engine.
func (e *Engine) Escalation() *escalation.Engine {
	return e.escalation
}

// Close waits for background post-connect work to finish.
func (e *Engine) Close() {
	e.background.Wait()
}

// now returns the current time from the configured clock.
func (e *Engine) now() time.Time {
	return e.options.now()
}

// detach keeps request values but drops cancellation for work that outlives the request.
func detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

func vpnSettings(cfg *config.Config) reputation.Settings {
	return reputation.Settings{
		Enabled: cfg.VPNDetection.Enabled,
		APIKey:  cfg.VPNDetection.APIKey,
	}
}

func providerConfig(cfg config.VPNDetection) reputation.ProviderConfig {
	return reputation.ProviderConfig{
		BaseURL:           cfg.APIURL,
		APIKey:            cfg.APIKey,
		Timeout:           time.Duration(cfg.TimeoutMs) * time.Millisecond,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
		BreakerFailures:   cfg.BreakerFailures,
		BreakerCooldown:   time.Duration(cfg.BreakerCooldown) * time.Second,
	}
}

func altSettings(cfg *config.Config) alt.Settings {
	return alt.Settings{
		Enabled:     cfg.AltDetection.Enabled,
		Block:       cfg.AltDetection.Block,
		NotifyStaff: cfg.AltDetection.NotifyStaff,
		RecentDays:  cfg.AltDetection.RecentDays,
		Methods: alt.Methods{
			IPMatch:        cfg.AltDetection.Methods.IPMatch,
			IDPattern:      cfg.AltDetection.Methods.IDPattern,
			NameSimilarity: cfg.AltDetection.Methods.NameSimilarity,
			JoinPattern:    cfg.AltDetection.Methods.JoinPattern,
		},
	}
}
