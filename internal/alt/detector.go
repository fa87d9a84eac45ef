// Package alt correlates accounts across weak signals to find likely
// alternate accounts of the same player.
package alt

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robalyx/warden/internal/database/types"
	"github.com/robalyx/warden/internal/database/types/enum"
	"github.com/robalyx/warden/internal/metrics"
	"github.com/robalyx/warden/internal/notify"
	"github.com/robalyx/warden/internal/store"
	"github.com/robalyx/warden/pkg/utils"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// Detection method tags.
const (
	MethodIPMatch        = "IP Match"
	MethodIDPattern      = "ID Pattern"
	MethodNameSimilarity = "Name Similarity"
	MethodJoinPattern    = "Join Pattern"
)

// Confidence assigned by the fixed-score scans.
const (
	ConfidenceIPMatch     = 90
	ConfidenceIDPattern   = 60
	ConfidenceJoinPattern = 70

	// BlockConfidence is the confidence at which a non-IP match may block.
	BlockConfidence = 90
)

// similarityThreshold must be exceeded by ID and name similarity.
const similarityThreshold = 0.7

// DefaultRecentDays is the window used by the ID pattern scan.
const DefaultRecentDays = 30

// PotentialAlt is an account suspected of belonging to the same player.
// Two values refer to the same alt when their AccountID is equal.
type PotentialAlt struct {
	AccountID  uuid.UUID `json:"accountId"`
	Name       string    `json:"name"`
	Method     string    `json:"method"`
	Confidence int       `json:"confidence"`
}

// Methods toggles the individual scans.
type Methods struct {
	IPMatch        bool
	IDPattern      bool
	NameSimilarity bool
	JoinPattern    bool
}

// Settings configures the detector.
type Settings struct {
	Enabled     bool
	Block       bool
	NotifyStaff bool
	RecentDays  int
	Methods     Methods
}

// Bans answers whether an account is currently banned.
type Bans interface {
	ActiveBan(ctx context.Context, accountID uuid.UUID) (*types.Punishment, error)
}

// Option configures a Detector.
type Option func(*Detector)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(d *Detector) {
		d.now = now
	}
}

// Detector runs the alt scans and derives block decisions.
type Detector struct {
	settings atomic.Pointer[Settings]
	store    store.Accounts
	bans     Bans
	alerts   notify.Sender
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewDetector creates a Detector. alerts may be nil to disable staff notices.
func NewDetector(
	settings Settings, accounts store.Accounts, bans Bans, alerts notify.Sender,
	m *metrics.Metrics, logger *zap.Logger, opts ...Option,
) *Detector {
	d := &Detector{
		store:   accounts,
		bans:    bans,
		alerts:  alerts,
		metrics: m,
		logger:  logger.Named("alt_detector"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.Update(settings)
	return d
}

// Update swaps the detector settings.
func (d *Detector) Update(settings Settings) {
	if settings.RecentDays <= 0 {
		settings.RecentDays = DefaultRecentDays
	}
	d.settings.Store(&settings)
}

// Settings returns the current settings.
func (d *Detector) Settings() Settings {
	return *d.settings.Load()
}

// Detect returns the potential alts of the account ordered by confidence.
// The result is empty when detection is disabled or the account holds the alt bypass.
func (d *Detector) Detect(ctx context.Context, account types.Account, ip string) []PotentialAlt {
	settings := d.settings.Load()
	if !settings.Enabled || account.HasBypass(enum.BypassKindAlt) {
		return nil
	}

	type scan struct {
		name    string
		enabled bool
		run     func(context.Context, types.Account, string, *Settings) ([]PotentialAlt, error)
	}
	scans := []scan{
		{"ip_match", settings.Methods.IPMatch, d.scanAddress},
		{"id_pattern", settings.Methods.IDPattern, d.scanIDPattern},
		{"name_similarity", settings.Methods.NameSimilarity, d.scanNames},
		{"join_pattern", settings.Methods.JoinPattern, d.scanJoinPairs},
	}

	// Each scan writes its own slot so merge order follows scan order
	results := make([][]PotentialAlt, len(scans))
	p := pool.New().WithContext(ctx)
	for i, s := range scans {
		if !s.enabled {
			continue
		}
		p.Go(func(ctx context.Context) error {
			found, err := s.run(ctx, account, ip, settings)
			if err != nil {
				d.logger.Error("Alt scan failed",
					zap.String("scan", s.name),
					zap.String("accountID", account.ID.String()),
					zap.Error(err))
			}
			results[i] = found
			return nil
		})
	}
	_ = p.Wait()

	alts := Merge(results...)
	for _, a := range alts {
		d.metrics.RecordAltMatch(a.Method)
	}
	return alts
}

// ShouldBlock reports whether the account must be refused because a
// detected alt is banned. When staff notices are enabled the top match is
// reported whether or not the account is blocked.
func (d *Detector) ShouldBlock(ctx context.Context, account types.Account, ip string) bool {
	settings := d.settings.Load()
	if !settings.Enabled || !settings.Block || account.HasBypass(enum.BypassKindAlt) {
		return false
	}

	alts := d.Detect(ctx, account, ip)
	if len(alts) == 0 {
		return false
	}

	for _, a := range alts {
		if a.Method != MethodIPMatch && a.Confidence < BlockConfidence {
			continue
		}

		if d.isBanned(ctx, a.AccountID) {
			d.logger.Info("Blocking alt account",
				zap.String("accountName", account.Name),
				zap.String("altName", a.Name),
				zap.String("method", a.Method))
			d.notifyStaff(settings, account, ip, a, true)
			return true
		}
	}

	d.notifyStaff(settings, account, ip, alts[0], false)
	return false
}

// isBanned checks for an active, unexpired ban on the alt.
func (d *Detector) isBanned(ctx context.Context, accountID uuid.UUID) bool {
	ban, err := d.bans.ActiveBan(ctx, accountID)
	if err != nil {
		d.logger.Error("Failed to read alt punishments",
			zap.String("accountID", accountID.String()),
			zap.Error(err))
		return false
	}
	return ban != nil
}

// notifyStaff queues a staff alert about a potential alt.
func (d *Detector) notifyStaff(settings *Settings, account types.Account, ip string, a PotentialAlt, blocked bool) {
	if !settings.NotifyStaff || d.alerts == nil {
		return
	}

	d.alerts.Send(notify.Alert{
		Kind:        notify.KindAlt,
		AccountID:   account.ID.String(),
		AccountName: account.Name,
		Address:     ip,
		RelatedID:   a.AccountID.String(),
		RelatedName: a.Name,
		Method:      a.Method,
		Confidence:  a.Confidence,
		Blocked:     blocked,
		Message:     notify.AltMessage(account.Name, a.Name, a.Method, a.Confidence, blocked),
		CreatedAt:   d.now(),
	})
}

// scanAddress finds other accounts seen on the same address.
func (d *Detector) scanAddress(ctx context.Context, account types.Account, ip string, _ *Settings) ([]PotentialAlt, error) {
	ids, err := d.store.GetAccountsByAddress(ctx, ip)
	if err != nil {
		return nil, err
	}

	var found []PotentialAlt
	for _, id := range ids {
		if id == account.ID {
			continue
		}
		if a, ok := d.named(ctx, id, MethodIPMatch, ConfidenceIPMatch); ok {
			found = append(found, a)
		}
	}
	return found, nil
}

// scanIDPattern compares identifier segments against recently seen accounts.
func (d *Detector) scanIDPattern(
	ctx context.Context, account types.Account, _ string, settings *Settings,
) ([]PotentialAlt, error) {
	since := d.now().Add(-time.Duration(settings.RecentDays) * utils.Day)
	ids, err := d.store.GetRecentAccounts(ctx, since)
	if err != nil {
		return nil, err
	}

	var found []PotentialAlt
	for _, id := range ids {
		if id == account.ID || IDSimilarity(account.ID, id) <= similarityThreshold {
			continue
		}
		if a, ok := d.named(ctx, id, MethodIDPattern, ConfidenceIDPattern); ok {
			found = append(found, a)
		}
	}
	return found, nil
}

// scanNames compares the account name against every known display name.
func (d *Detector) scanNames(ctx context.Context, account types.Account, _ string, _ *Settings) ([]PotentialAlt, error) {
	names, err := d.store.GetAllDisplayNames(ctx)
	if err != nil {
		return nil, err
	}

	var found []PotentialAlt
	for _, n := range names {
		if n.AccountID == account.ID || strings.EqualFold(n.Name, account.Name) {
			continue
		}

		similarity := utils.NameSimilarity(account.Name, n.Name)
		if similarity <= similarityThreshold {
			continue
		}

		found = append(found, PotentialAlt{
			AccountID:  n.AccountID,
			Name:       n.Name,
			Method:     MethodNameSimilarity,
			Confidence: utils.Percent(similarity),
		})
	}
	return found, nil
}

// scanJoinPairs reports the other member of every join pair the account is in.
func (d *Detector) scanJoinPairs(ctx context.Context, account types.Account, _ string, _ *Settings) ([]PotentialAlt, error) {
	pairs, err := d.store.GetSuspiciousJoinPairs(ctx)
	if err != nil {
		return nil, err
	}

	var found []PotentialAlt
	for _, pair := range pairs {
		other, ok := pair.Other(account.ID)
		if !ok || other == account.ID {
			continue
		}
		if a, ok := d.named(ctx, other, MethodJoinPattern, ConfidenceJoinPattern); ok {
			found = append(found, a)
		}
	}
	return found, nil
}

// named builds a PotentialAlt, skipping accounts whose name is unknown.
func (d *Detector) named(ctx context.Context, id uuid.UUID, method string, confidence int) (PotentialAlt, bool) {
	name, err := d.store.GetAccountName(ctx, id)
	if err != nil {
		d.logger.Warn("Failed to resolve account name",
			zap.String("accountID", id.String()),
			zap.Error(err))
		return PotentialAlt{}, false
	}
	if name == "" {
		return PotentialAlt{}, false
	}

	return PotentialAlt{AccountID: id, Name: name, Method: method, Confidence: confidence}, true
}

// Merge concatenates scan results, keeps the first occurrence of each
// account and orders the result by confidence, highest first. Ties keep
// their scan order.
func Merge(groups ...[]PotentialAlt) []PotentialAlt {
	seen := make(map[uuid.UUID]struct{})
	var merged []PotentialAlt

	for _, group := range groups {
		for _, a := range group {
			if _, ok := seen[a.AccountID]; ok {
				continue
			}
			seen[a.AccountID] = struct{}{}
			merged = append(merged, a)
		}
	}

	slices.SortStableFunc(merged, func(a, b PotentialAlt) int {
		return cmp.Compare(b.Confidence, a.Confidence)
	})
	return merged
}

// IDSimilarity returns the fraction of dash-separated identifier segments
// that are identical in both identifiers.
func IDSimilarity(a, b uuid.UUID) float64 {
	left := strings.Split(a.String(), "-")
	right := strings.Split(b.String(), "-")

	same := 0
	for i := range left {
		if left[i] == right[i] {
			same++
		}
	}
	return float64(same) / float64(len(left))
}
