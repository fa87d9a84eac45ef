package engine_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/robalyx/warden/internal/database/types"
	"github.com/robalyx/warden/internal/database/types/enum"
	"github.com/robalyx/warden/internal/engine"
	"github.com/robalyx/warden/internal/escalation"
	"github.com/robalyx/warden/internal/lifecycle"
	"github.com/robalyx/warden/internal/notify"
	"github.com/robalyx/warden/internal/reputation"
	"github.com/robalyx/warden/internal/setup/config"
	"github.com/robalyx/warden/internal/store"
	"github.com/robalyx/warden/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

type fakeProvider struct {
	flagged map[string]bool
	err     error
}

func (p *fakeProvider) Lookup(_ context.Context, ip string) (reputation.Result, error) {
	if p.err != nil {
		return reputation.Result{}, p.err
	}
	return reputation.Result{VPN: p.flagged[ip]}, nil
}

type recordingSender struct {
	mu     sync.Mutex
	alerts []notify.Alert
}

func (r *recordingSender) Send(alert notify.Alert) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, alert)
	return true
}

func (r *recordingSender) received() []notify.Alert {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Alert(nil), r.alerts...)
}

func testConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Version = config.CurrentVersion
	cfg.VPNDetection.Enabled = true
	cfg.VPNDetection.Block = true
	cfg.VPNDetection.APIKey = "key"
	cfg.AltDetection.Enabled = true
	cfg.AltDetection.Block = true
	cfg.AltDetection.NotifyStaff = true
	cfg.Escalation.Categories = map[string]map[string]config.Step{
		"chat": {
			"1": {Type: "WARN", Reason: "Chat abuse", Duration: "permanent"},
			"2": {Type: "TEMP_MUTE", Reason: "Repeated chat abuse", Duration: "1d"},
		},
	}
	cfg.Templates = map[string]config.Template{
		"spam":  {Type: "TEMP_MUTE", Reason: "Spamming", Duration: "30m"},
		"hack":  {Type: "BAN", Reason: "Hacking", Duration: "permanent"},
		"weird": {Type: "TEMP_BAN", Duration: "soon"},
	}
	return cfg
}

type fixture struct {
	engine   *engine.Engine
	store    *store.MemoryStore
	provider *fakeProvider
	alerts   *recordingSender
}

func newFixture(t *testing.T, cfg *config.Config) *fixture {
	t.Helper()

	f := &fixture{
		store:    store.NewMemory(),
		provider: &fakeProvider{flagged: map[string]bool{}},
		alerts:   &recordingSender{},
	}
	cache := utils.NewTTLMap[string, bool](time.Hour)
	f.engine = engine.New(cfg, f.store, cache, f.alerts, nil, zap.NewNop(),
		engine.WithProvider(f.provider), engine.WithClock(clock))
	t.Cleanup(f.engine.Close)
	return f
}

func account(name string, bypass ...enum.BypassKind) types.Account {
	return types.Account{ID: uuid.New(), Name: name, Capabilities: types.BypassSet(bypass)}
}

func TestCheckConnectionAllowsCleanAccount(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, testConfig())
	steve := account("Steve")

	verdict := f.engine.CheckConnection(ctx, steve, "1.1.1.1")
	assert.True(t, verdict.Allowed)
	assert.Equal(t, enum.BlockReasonNone, verdict.Reason)

	addresses, err := f.store.GetAccountAddresses(ctx, steve.ID)
	require.NoError(t, err)
	require.Len(t, addresses, 1)
	assert.Equal(t, "1.1.1.1", addresses[0].Address)
}

func TestCheckConnectionVPN(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, testConfig())
	f.provider.flagged["6.6.6.6"] = true

	verdict := f.engine.CheckConnection(ctx, account("Steve"), "6.6.6.6")
	assert.False(t, verdict.Allowed)
	assert.Equal(t, enum.BlockReasonVPN, verdict.Reason)
	assert.Equal(t, config.Defaults().Messages.VPNBlocked, verdict.Message)

	verdict = f.engine.CheckConnection(ctx, account("Trusted", enum.BypassKindVPN), "6.6.6.6")
	assert.True(t, verdict.Allowed)

	reportOnly := testConfig()
	reportOnly.VPNDetection.Block = false
	f.engine.Reload(reportOnly)

	verdict = f.engine.CheckConnection(ctx, account("Alex"), "6.6.6.6")
	assert.True(t, verdict.Allowed)
}

func TestCheckConnectionFailsOpen(t *testing.T) {
	t.Parallel()

	f := newFixture(t, testConfig())
	f.provider.err = errors.New("provider down")

	verdict := f.engine.CheckConnection(context.Background(), account("Steve"), "6.6.6.6")
	assert.True(t, verdict.Allowed)
}

func TestCheckConnectionIPBan(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, testConfig())

	_, err := f.engine.Lifecycle().IssueIPBan(ctx, lifecycle.IPBanRequest{
		Address: "192.168.1.0/24", IssuerName: "Mod", Reason: "Botting",
	})
	require.NoError(t, err)

	verdict := f.engine.CheckConnection(ctx, account("Steve"), "192.168.1.5")
	assert.False(t, verdict.Allowed)
	assert.Equal(t, enum.BlockReasonIPBan, verdict.Reason)
	require.NotNil(t, verdict.IPBan)
	assert.Contains(t, verdict.Message, "Reason: Botting")
	assert.Contains(t, verdict.Message, "Banned by: Mod")
	assert.Contains(t, verdict.Message, "Expires: Never")

	verdict = f.engine.CheckConnection(ctx, account("Steve"), "192.168.2.5")
	assert.True(t, verdict.Allowed)

	verdict = f.engine.CheckConnection(ctx, account("Admin", enum.BypassKindIPBan), "192.168.1.6")
	assert.True(t, verdict.Allowed)
}

func TestCheckConnectionBannedAlt(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, testConfig())

	banned := account("Alexandra")
	require.True(t, f.engine.CheckConnection(ctx, banned, "1.2.3.4").Allowed)
	_, err := f.engine.Lifecycle().Issue(ctx, lifecycle.IssueRequest{
		AccountID: banned.ID, AccountName: banned.Name, Type: enum.PunishmentTypeBan,
	})
	require.NoError(t, err)

	verdict := f.engine.CheckConnection(ctx, account("Steve"), "1.2.3.4")
	assert.False(t, verdict.Allowed)
	assert.Equal(t, enum.BlockReasonAlt, verdict.Reason)

	alerts := f.alerts.received()
	require.NotEmpty(t, alerts)
	assert.True(t, alerts[len(alerts)-1].Blocked)
}

func TestCheckConnectionNormalizesAddress(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, testConfig())

	banned := account("Alexandra")
	require.True(t, f.engine.CheckConnection(ctx, banned, " 1.2.3.4\n").Allowed)
	_, err := f.engine.Lifecycle().Issue(ctx, lifecycle.IssueRequest{
		AccountID: banned.ID, AccountName: banned.Name, Type: enum.PunishmentTypeBan,
	})
	require.NoError(t, err)

	accounts, err := f.store.GetAccountsByAddress(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{banned.ID}, accounts)

	steve := account("Steve")
	verdict := f.engine.CheckConnection(ctx, steve, "1.2.3.4 ")
	assert.False(t, verdict.Allowed)
	assert.Equal(t, enum.BlockReasonAlt, verdict.Reason)

	alts := f.engine.Alts(ctx, steve, "\t1.2.3.4")
	require.NotEmpty(t, alts)
	assert.Equal(t, banned.ID, alts[0].AccountID)
}

func TestCheckConnectionOwnBan(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, testConfig())
	steve := account("Steve")

	_, err := f.engine.Lifecycle().Issue(ctx, lifecycle.IssueRequest{
		AccountID: steve.ID, AccountName: steve.Name, IssuerName: "Mod",
		Type: enum.PunishmentTypeBan, Reason: "Griefing", Duration: utils.Day,
	})
	require.NoError(t, err)

	verdict := f.engine.CheckConnection(ctx, steve, "1.1.1.1")
	assert.False(t, verdict.Allowed)
	assert.Equal(t, enum.BlockReasonBan, verdict.Reason)
	require.NotNil(t, verdict.Punishment)
	assert.Equal(t, enum.PunishmentTypeTempBan, verdict.Punishment.Type)
	assert.Contains(t, verdict.Message, "Reason: Griefing")
	assert.Contains(t, verdict.Message, "Duration: 1 day")
	assert.Contains(t, verdict.Message, "Expires: 02/06/2024 12:00:00")

	// The VPN check runs before the account's own ban
	f.provider.flagged["6.6.6.6"] = true
	verdict = f.engine.CheckConnection(ctx, steve, "6.6.6.6")
	assert.Equal(t, enum.BlockReasonVPN, verdict.Reason)
}

func TestPostConnectAlerts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, testConfig())
	f.provider.flagged["6.6.6.6"] = true

	other := account("Alexandra")
	require.NoError(t, f.store.RecordAccountAddress(ctx, &types.AccountAddress{
		AccountID: other.ID, AccountName: other.Name, Address: "6.6.6.6", LastSeen: now,
	}))

	trusted := account("Steve", enum.BypassKindVPN)
	f.engine.PostConnect(ctx, account("Steve"), "6.6.6.6")
	f.engine.PostConnect(ctx, trusted, "9.9.9.9")
	f.engine.Close()

	alerts := f.alerts.received()
	kinds := make(map[notify.Kind]int)
	for _, a := range alerts {
		kinds[a.Kind]++
	}
	assert.Equal(t, 1, kinds[notify.KindVPN])
	assert.Equal(t, 1, kinds[notify.KindAltSummary])

	for _, a := range alerts {
		switch a.Kind {
		case notify.KindVPN:
			assert.Equal(t, "Player Steve is using a VPN/PROXY (IP: 6.6.6.6)", a.Message)
		case notify.KindAltSummary:
			assert.Equal(t, "Possible alt accounts for Steve: Alexandra", a.Message)
		}
	}
}

func TestCheckChat(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, testConfig())
	steve := account("Steve")

	mute, message := f.engine.CheckChat(ctx, steve)
	assert.Nil(t, mute)
	assert.Empty(t, message)

	_, err := f.engine.Lifecycle().Issue(ctx, lifecycle.IssueRequest{
		AccountID: steve.ID, Type: enum.PunishmentTypeMute, Reason: "Spam",
	})
	require.NoError(t, err)

	mute, message = f.engine.CheckChat(ctx, steve)
	require.NotNil(t, mute)
	assert.Contains(t, message, "Reason: Spam")
	assert.Contains(t, message, "Muted by: Console")
	assert.Contains(t, message, "Expires: Never")
}

func TestPunishEscalates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, testConfig())
	steve := account("Steve")
	staff := engine.Staff{ID: uuid.New(), Name: "Mod"}

	first, err := f.engine.Punish(ctx, steve, staff, "chat")
	require.NoError(t, err)
	assert.Equal(t, enum.PunishmentTypeWarn, first.Type)

	second, err := f.engine.Punish(ctx, steve, staff, "chat")
	require.NoError(t, err)
	assert.Equal(t, enum.PunishmentTypeTempMute, second.Type)

	_, err = f.engine.Punish(ctx, steve, staff, "unknown")
	require.ErrorIs(t, err, escalation.ErrNoEscalation)
}

func TestIssueTemplate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, testConfig())
	steve := account("Steve")
	staff := engine.Staff{Name: "Mod"}

	spam, err := f.engine.IssueTemplate(ctx, steve, staff, "spam")
	require.NoError(t, err)
	assert.Equal(t, enum.PunishmentTypeTempMute, spam.Type)
	require.NotNil(t, spam.ExpiresAt)
	assert.Equal(t, now.Add(30*time.Minute), *spam.ExpiresAt)

	hack, err := f.engine.IssueTemplate(ctx, steve, staff, "hack")
	require.NoError(t, err)
	assert.True(t, hack.IsPermanent())

	_, err = f.engine.IssueTemplate(ctx, steve, staff, "missing")
	require.ErrorIs(t, err, engine.ErrUnknownTemplate)

	_, err = f.engine.IssueTemplate(ctx, steve, staff, "weird")
	require.ErrorIs(t, err, engine.ErrInvalidTemplateDuration)
}

func TestRecordJoinPairFeedsAltDetection(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, testConfig())

	a, b := account("Aaaaaaaa"), account("Zzzzzzzz")
	require.True(t, f.engine.CheckConnection(ctx, b, "7.7.7.7").Allowed)
	require.NoError(t, f.engine.RecordJoinPair(ctx, a.ID, b.ID))
	require.NoError(t, f.engine.RecordJoinPair(ctx, a.ID, a.ID))

	alts := f.engine.Alts(ctx, a, "8.8.8.8")
	require.Len(t, alts, 1)
	assert.Equal(t, b.ID, alts[0].AccountID)
}
