// Package metrics exposes prometheus counters for moderation decisions.
//
// A nil *Metrics is valid and records nothing, so components can be built
// without a registry in tests.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robalyx/warden/internal/database/types/enum"
)

const namespace = "warden"

// Reputation lookup outcomes.
const (
	LookupCached   = "cached"
	LookupFlagged  = "flagged"
	LookupClean    = "clean"
	LookupFailed   = "failed"
	LookupSkipped  = "skipped"
	LookupLimited  = "rate_limited"
	LookupTripped  = "circuit_open"
	LookupDisabled = "disabled"
)

// Metrics holds the collectors registered for one engine instance.
type Metrics struct {
	registry prometheus.Gatherer

	gateDecisions        *prometheus.CounterVec
	reputationLookups    *prometheus.CounterVec
	altMatches           *prometheus.CounterVec
	punishmentsIssued    *prometheus.CounterVec
	escalations          *prometheus.CounterVec
	notificationsDropped prometheus.Counter
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		gateDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gate_decisions_total",
				Help:      "Total number of connection gate decisions by outcome",
			},
			[]string{"reason"},
		),
		reputationLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reputation_lookups_total",
				Help:      "Total number of address reputation checks by result",
			},
			[]string{"result"},
		),
		altMatches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "alt_matches_total",
				Help:      "Total number of potential alternate accounts found by detection method",
			},
			[]string{"method"},
		),
		punishmentsIssued: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "punishments_issued_total",
				Help:      "Total number of punishments issued by type",
			},
			[]string{"type"},
		),
		escalations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "escalations_total",
				Help:      "Total number of escalated punishments by category and level",
			},
			[]string{"category", "level"},
		),
		notificationsDropped: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_dropped_total",
				Help:      "Total number of staff notifications dropped because the queue was full",
			},
		),
	}
}

// Handler serves the registered collectors in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gatherer returns the underlying registry.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// RecordGateDecision counts a connection gate outcome.
func (m *Metrics) RecordGateDecision(reason enum.BlockReason) {
	if m == nil {
		return
	}
	m.gateDecisions.WithLabelValues(reason.String()).Inc()
}

// RecordReputationLookup counts a reputation check outcome.
func (m *Metrics) RecordReputationLookup(result string) {
	if m == nil {
		return
	}
	m.reputationLookups.WithLabelValues(result).Inc()
}

// RecordAltMatch counts a potential alternate account by detection method.
func (m *Metrics) RecordAltMatch(method string) {
	if m == nil {
		return
	}
	m.altMatches.WithLabelValues(method).Inc()
}

// RecordPunishment counts an issued punishment.
func (m *Metrics) RecordPunishment(kind enum.PunishmentType) {
	if m == nil {
		return
	}
	m.punishmentsIssued.WithLabelValues(kind.String()).Inc()
}

// RecordEscalation counts a punishment chosen from an escalation ladder.
func (m *Metrics) RecordEscalation(category, level string) {
	if m == nil {
		return
	}
	m.escalations.WithLabelValues(category, level).Inc()
}

// RecordDroppedNotification counts a notification that could not be queued.
func (m *Metrics) RecordDroppedNotification() {
	if m == nil {
		return
	}
	m.notificationsDropped.Inc()
}
