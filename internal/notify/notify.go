// Package notify delivers staff alerts raised by the policy checks.
package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Kind identifies what an alert is about.
type Kind string

const (
	// KindAlt reports the top-ranked potential alternate account for a connection.
	KindAlt Kind = "alt"
	// KindAltSummary lists the potential alternate accounts found after a connection.
	KindAltSummary Kind = "alt_summary"
	// KindVPN reports an account connecting from a flagged address.
	KindVPN Kind = "vpn"
	// KindAppeal reports a newly submitted appeal.
	KindAppeal Kind = "appeal"
)

// Alert is a staff notification.
type Alert struct {
	Kind        Kind      `json:"kind"`
	AccountID   string    `json:"accountId"`
	AccountName string    `json:"accountName"`
	Address     string    `json:"address,omitempty"`
	RelatedID   string    `json:"relatedId,omitempty"`
	RelatedName string    `json:"relatedName,omitempty"`
	Method      string    `json:"method,omitempty"`
	Confidence  int       `json:"confidence,omitempty"`
	Blocked     bool      `json:"blocked,omitempty"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Notifier delivers an alert to one destination.
type Notifier interface {
	Notify(ctx context.Context, alert Alert) error
}

// Sender queues an alert without blocking and reports whether it was accepted.
type Sender interface {
	Send(alert Alert) bool
}

// LogNotifier writes alerts to the staff log.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.Named("staff_alerts")}
}

// Notify logs the alert.
func (n *LogNotifier) Notify(_ context.Context, alert Alert) error {
	n.logger.Info(alert.Message,
		zap.String("kind", string(alert.Kind)),
		zap.String("accountID", alert.AccountID),
		zap.String("accountName", alert.AccountName),
		zap.String("address", alert.Address),
		zap.String("relatedName", alert.RelatedName),
		zap.String("method", alert.Method),
		zap.Int("confidence", alert.Confidence),
		zap.Bool("blocked", alert.Blocked))
	return nil
}

// AltMessage renders the staff line for a potential alternate account.
func AltMessage(accountName, altName, method string, confidence int, blocked bool) string {
	msg := fmt.Sprintf("%s might be an alt of %s (%s, %d%% confidence)", accountName, altName, method, confidence)
	if blocked {
		msg += " - BLOCKED"
	}
	return msg
}

// AltSummaryMessage lists up to three names and counts the rest.
func AltSummaryMessage(accountName string, names []string) string {
	shown := names
	if len(shown) > 3 {
		shown = shown[:3]
	}

	msg := "Possible alt accounts for " + accountName + ": "
	for i, name := range shown {
		if i > 0 {
			msg += ", "
		}
		msg += name
	}
	if len(names) > 3 {
		msg += fmt.Sprintf(" and %d more", len(names)-3)
	}
	return msg
}
