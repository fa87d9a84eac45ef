// Package escalation resolves the next punishment for a repeated offense
// from per-category ladders and keeps named punishment templates.
package escalation

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robalyx/warden/internal/database/types"
	"github.com/robalyx/warden/internal/database/types/enum"
	"github.com/robalyx/warden/internal/metrics"
	"github.com/robalyx/warden/internal/setup/config"
	"github.com/robalyx/warden/internal/store"
	"github.com/robalyx/warden/pkg/utils"
	"go.uber.org/zap"
)

// ErrNoEscalation is returned when escalation is disabled or the category has no ladder.
var ErrNoEscalation = errors.New("no escalation configured")

// Permanent is the duration keyword for punishments that never expire.
const Permanent = "permanent"

// FallbackDuration is applied when a step duration cannot be parsed.
const FallbackDuration = time.Hour

// DefaultResetDays is the offense window used when none is configured.
const DefaultResetDays = 30

// Step is one rung of an escalation ladder.
type Step struct {
	Level    int
	Type     enum.PunishmentType
	Reason   string
	Duration string
}

// Ladder maps offense levels to steps.
type Ladder map[int]Step

// Resolve returns the step for an offense level, or the highest configured
// step when the level is beyond the ladder.
func (l Ladder) Resolve(level int) (Step, bool) {
	if len(l) == 0 {
		return Step{}, false
	}
	if step, ok := l[level]; ok {
		return step, true
	}
	return l[slices.Max(slices.Collect(maps.Keys(l)))], true
}

// Request describes who is punished for which category.
type Request struct {
	AccountID   uuid.UUID
	AccountName string
	IssuerID    uuid.UUID
	IssuerName  string
	Category    string
}

type ladders struct {
	enabled    bool
	resetDays  int
	categories map[string]Ladder
	templates  map[string]Template
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// Engine counts offenses and applies escalation steps.
type Engine struct {
	state   atomic.Pointer[ladders]
	store   store.Punishments
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// New creates an Engine from the escalation and template configuration.
func New(
	cfg config.Escalation, templates map[string]config.Template,
	s store.Punishments, m *metrics.Metrics, logger *zap.Logger, opts ...Option,
) *Engine {
	e := &Engine{
		store:   s,
		metrics: m,
		logger:  logger.Named("escalation"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.Load(cfg, templates)
	return e
}

// Load replaces the ladders and templates. Invalid entries are skipped with a warning.
func (e *Engine) Load(cfg config.Escalation, templates map[string]config.Template) {
	state := &ladders{
		enabled:    cfg.Enabled,
		resetDays:  cfg.ResetDays,
		categories: make(map[string]Ladder, len(cfg.Categories)),
		templates:  e.loadTemplates(templates),
	}
	if state.resetDays <= 0 {
		state.resetDays = DefaultResetDays
	}

	for category, levels := range cfg.Categories {
		ladder := make(Ladder, len(levels))
		for key, raw := range levels {
			level, err := strconv.Atoi(key)
			if err != nil || level <= 0 {
				e.logger.Warn("Invalid escalation level",
					zap.String("category", category),
					zap.String("level", key))
				continue
			}

			kind, err := enum.PunishmentTypeString(raw.Type)
			if err != nil {
				e.logger.Warn("Invalid punishment type in escalation config",
					zap.String("category", category),
					zap.Int("level", level),
					zap.String("type", raw.Type))
				continue
			}

			ladder[level] = Step{Level: level, Type: kind, Reason: raw.Reason, Duration: raw.Duration}
		}

		state.categories[category] = ladder
		e.logger.Debug("Loaded escalation ladder",
			zap.String("category", category),
			zap.Int("steps", len(ladder)))
	}

	e.state.Store(state)
}

// Categories returns the configured category names, sorted.
func (e *Engine) Categories() []string {
	return slices.Sorted(maps.Keys(e.state.Load().categories))
}

// CountOffenses counts punishments tagged with the category that started
// within the trailing window. Untagged punishments are not counted.
func (e *Engine) CountOffenses(ctx context.Context, accountID uuid.UUID, category string, windowDays int) (int, error) {
	since := e.now().Add(-time.Duration(windowDays) * utils.Day)

	punishments, err := e.store.GetPunishmentsSince(ctx, accountID, since)
	if err != nil {
		return 0, fmt.Errorf("failed to load punishments: %w", err)
	}

	count := 0
	for _, p := range punishments {
		if p.Category() == category {
			count++
		}
	}
	return count, nil
}

// NextStep resolves the step the next offense in the category receives.
// It returns ErrNoEscalation when escalation is disabled or the category has no ladder.
func (e *Engine) NextStep(ctx context.Context, accountID uuid.UUID, category string) (Step, error) {
	state := e.state.Load()
	ladder := state.categories[category]
	if !state.enabled || len(ladder) == 0 {
		return Step{}, ErrNoEscalation
	}

	count, err := e.CountOffenses(ctx, accountID, category, state.resetDays)
	if err != nil {
		return Step{}, err
	}

	step, _ := ladder.Resolve(count + 1)
	return step, nil
}

// Apply resolves the next step and saves the resulting punishment.
func (e *Engine) Apply(ctx context.Context, req Request) (*types.Punishment, error) {
	step, err := e.NextStep(ctx, req.AccountID, req.Category)
	if err != nil {
		return nil, err
	}

	start := e.now()
	p := &types.Punishment{
		AccountID:   req.AccountID,
		AccountName: req.AccountName,
		IssuerID:    req.IssuerID,
		IssuerName:  req.IssuerName,
		Type:        step.Type,
		Reason:      step.Reason,
		StartAt:     start,
		ExpiresAt:   e.expiry(step.Duration, start),
		Active:      true,
		Metadata:    map[string]string{types.MetadataCategory: req.Category},
	}

	if _, err := e.store.SavePunishment(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save escalated punishment: %w", err)
	}

	e.metrics.RecordEscalation(req.Category, strconv.Itoa(step.Level))
	e.metrics.RecordPunishment(p.Type)
	e.logger.Info("Applied escalation step",
		zap.String("accountID", req.AccountID.String()),
		zap.String("category", req.Category),
		zap.Int("level", step.Level),
		zap.String("type", step.Type.String()))

	return p, nil
}

// expiry turns a duration expression into an absolute expiry, nil meaning permanent.
// Only the permanent keyword yields no expiry, anything unparseable gets the fallback.
func (e *Engine) expiry(duration string, start time.Time) *time.Time {
	duration = strings.TrimSpace(duration)
	if strings.EqualFold(duration, Permanent) {
		return nil
	}

	d, err := utils.ParseDuration(duration)
	if err != nil {
		e.logger.Warn("Invalid duration in escalation step, using fallback",
			zap.String("duration", duration),
			zap.Duration("fallback", FallbackDuration),
			zap.Error(err))
		d = FallbackDuration
	}

	expires := start.Add(d)
	return &expires
}
