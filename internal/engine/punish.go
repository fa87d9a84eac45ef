package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/robalyx/warden/internal/alt"
	"github.com/robalyx/warden/internal/database/types"
	"github.com/robalyx/warden/internal/escalation"
	"github.com/robalyx/warden/internal/ipmatch"
	"github.com/robalyx/warden/internal/lifecycle"
	"github.com/robalyx/warden/pkg/utils"
)

var (
	// ErrUnknownTemplate is returned when a template id is not configured.
	ErrUnknownTemplate = errors.New("unknown punishment template")
	// ErrInvalidTemplateDuration is returned when a template duration cannot be parsed.
	ErrInvalidTemplateDuration = errors.New("invalid template duration")
)

// Staff identifies the staff member acting on an account.
type Staff struct {
	ID   uuid.UUID
	Name string
}

// Punish applies the next escalation step of the category to the account.
// It returns escalation.ErrNoEscalation when the category has no ladder.
func (e *Engine) Punish(ctx context.Context, account types.Account, staff Staff, category string) (*types.Punishment, error) {
	return e.escalation.Apply(ctx, escalation.Request{
		AccountID:   account.ID,
		AccountName: account.Name,
		IssuerID:    staff.ID,
		IssuerName:  staff.Name,
		Category:    category,
	})
}

// IssueTemplate issues the punishment described by a named template.
func (e *Engine) IssueTemplate(
	ctx context.Context, account types.Account, staff Staff, templateID string,
) (*types.Punishment, error) {
	template, ok := e.escalation.Template(templateID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTemplate, templateID)
	}

	duration, err := templateDuration(template.Duration)
	if err != nil {
		return nil, fmt.Errorf("%w: template %s: %w", ErrInvalidTemplateDuration, templateID, err)
	}

	return e.lifecycle.Issue(ctx, lifecycle.IssueRequest{
		AccountID:   account.ID,
		AccountName: account.Name,
		IssuerID:    staff.ID,
		IssuerName:  staff.Name,
		Type:        template.Type,
		Reason:      template.Reason,
		Duration:    duration,
		Metadata:    map[string]string{"template": template.ID},
	})
}

// Alts lists the potential alternate accounts of the account on the address.
func (e *Engine) Alts(ctx context.Context, account types.Account, ip string) []alt.PotentialAlt {
	return e.alts.Detect(ctx, account, ipmatch.Normalize(ip))
}

// RecordJoinPair stores two accounts observed joining together suspiciously.
func (e *Engine) RecordJoinPair(ctx context.Context, a, b uuid.UUID) error {
	if a == b {
		return nil
	}

	if err := e.store.RecordJoinPair(ctx, &types.JoinPair{
		AccountA:   a,
		AccountB:   b,
		ObservedAt: e.now(),
	}); err != nil {
		return fmt.Errorf("failed to record join pair: %w", err)
	}
	return nil
}

// templateDuration parses a template duration. Empty, zero and permanent mean none.
func templateDuration(expr string) (time.Duration, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" || expr == "0" || strings.EqualFold(expr, escalation.Permanent) {
		return 0, nil
	}
	return utils.ParseDuration(expr)
}
