package escalation_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/robalyx/warden/internal/database/types"
	"github.com/robalyx/warden/internal/database/types/enum"
	"github.com/robalyx/warden/internal/escalation"
	"github.com/robalyx/warden/internal/setup/config"
	"github.com/robalyx/warden/internal/store"
	"github.com/robalyx/warden/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func ladderConfig() config.Escalation {
	return config.Escalation{
		Enabled:   true,
		ResetDays: 30,
		Categories: map[string]map[string]config.Step{
			"cheating": {
				"1": {Type: "WARN", Reason: "First offense", Duration: "permanent"},
				"2": {Type: "TEMP_BAN", Reason: "Second offense", Duration: "1d"},
				"3": {Type: "BAN", Reason: "Third offense", Duration: "permanent"},
			},
			"broken": {
				"1":   {Type: "TEMP_MUTE", Reason: "Bad duration", Duration: "forever-ish"},
				"two": {Type: "BAN"},
				"3":   {Type: "EXILE"},
			},
		},
	}
}

func newEngine(t *testing.T, cfg config.Escalation) (*escalation.Engine, *store.MemoryStore) {
	t.Helper()

	s := store.NewMemory()
	e := escalation.New(cfg, nil, s, nil, zap.NewNop(), escalation.WithClock(func() time.Time { return now }))
	return e, s
}

func offense(t *testing.T, s *store.MemoryStore, account uuid.UUID, category string, age time.Duration) {
	t.Helper()

	p := &types.Punishment{
		AccountID: account,
		Type:      enum.PunishmentTypeWarn,
		StartAt:   now.Add(-age),
		Active:    true,
	}
	if category != "" {
		p.Metadata = map[string]string{types.MetadataCategory: category}
	}
	_, err := s.SavePunishment(context.Background(), p)
	require.NoError(t, err)
}

func TestNextStep(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		prior     int
		wantLevel int
		wantType  enum.PunishmentType
	}{
		{name: "first offense", prior: 0, wantLevel: 1, wantType: enum.PunishmentTypeWarn},
		{name: "second offense", prior: 1, wantLevel: 2, wantType: enum.PunishmentTypeTempBan},
		{name: "third offense", prior: 2, wantLevel: 3, wantType: enum.PunishmentTypeBan},
		{name: "beyond the ladder repeats the top step", prior: 5, wantLevel: 3, wantType: enum.PunishmentTypeBan},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e, s := newEngine(t, ladderConfig())
			account := uuid.New()
			for range tt.prior {
				offense(t, s, account, "cheating", time.Hour)
			}

			step, err := e.NextStep(context.Background(), account, "cheating")
			require.NoError(t, err)
			assert.Equal(t, tt.wantLevel, step.Level)
			assert.Equal(t, tt.wantType, step.Type)
		})
	}
}

func TestCountOffenses(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	e, s := newEngine(t, ladderConfig())
	account := uuid.New()

	offense(t, s, account, "cheating", time.Hour)
	offense(t, s, account, "cheating", 10*utils.Day)
	offense(t, s, account, "cheating", 31*utils.Day)
	offense(t, s, account, "chat", time.Hour)
	offense(t, s, account, "", time.Hour)
	offense(t, s, uuid.New(), "cheating", time.Hour)

	count, err := e.CountOffenses(ctx, account, "cheating", 30)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = e.CountOffenses(ctx, account, "cheating", 5)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNoEscalation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	e, _ := newEngine(t, ladderConfig())
	_, err := e.NextStep(ctx, uuid.New(), "unknown")
	require.ErrorIs(t, err, escalation.ErrNoEscalation)

	disabled := ladderConfig()
	disabled.Enabled = false
	e, _ = newEngine(t, disabled)
	_, err = e.Apply(ctx, escalation.Request{AccountID: uuid.New(), Category: "cheating"})
	require.ErrorIs(t, err, escalation.ErrNoEscalation)
}

func TestApply(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	e, s := newEngine(t, ladderConfig())
	account := uuid.New()
	issuer := uuid.New()

	req := escalation.Request{
		AccountID:   account,
		AccountName: "Steve",
		IssuerID:    issuer,
		IssuerName:  "Moderator",
		Category:    "cheating",
	}

	first, err := e.Apply(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, enum.PunishmentTypeWarn, first.Type)
	assert.Nil(t, first.ExpiresAt)
	assert.Equal(t, "cheating", first.Category())

	second, err := e.Apply(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, enum.PunishmentTypeTempBan, second.Type)
	require.NotNil(t, second.ExpiresAt)
	assert.Equal(t, now.Add(utils.Day), *second.ExpiresAt)

	third, err := e.Apply(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, enum.PunishmentTypeBan, third.Type)
	assert.True(t, third.IsPermanent())

	history, err := s.GetPunishmentHistory(ctx, account)
	require.NoError(t, err)
	assert.Len(t, history, 3)
	for _, p := range history {
		assert.Equal(t, issuer, p.IssuerID)
		assert.True(t, p.Active)
	}
}

func TestApplyFallbackDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		kind     string
		duration string
	}{
		{name: "unparseable temporary", kind: "TEMP_MUTE", duration: "forever-ish"},
		{name: "missing duration on ban", kind: "BAN", duration: ""},
		{name: "zero duration on ban", kind: "BAN", duration: "0"},
		{name: "missing duration on warning", kind: "WARN", duration: ""},
		{name: "blank duration on mute", kind: "MUTE", duration: "  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e, _ := newEngine(t, config.Escalation{
				Enabled: true,
				Categories: map[string]map[string]config.Step{
					"griefing": {"1": {Type: tt.kind, Reason: "Griefing", Duration: tt.duration}},
				},
			})

			p, err := e.Apply(context.Background(), escalation.Request{AccountID: uuid.New(), Category: "griefing"})
			require.NoError(t, err)
			assert.Equal(t, tt.kind, p.Type.String())
			require.NotNil(t, p.ExpiresAt, "only the permanent keyword leaves a record without expiry")
			assert.Equal(t, now.Add(escalation.FallbackDuration), *p.ExpiresAt)
		})
	}
}

func TestApplyPermanentKeyword(t *testing.T) {
	t.Parallel()

	e, _ := newEngine(t, config.Escalation{
		Enabled: true,
		Categories: map[string]map[string]config.Step{
			"griefing": {"1": {Type: "BAN", Duration: " Permanent "}},
		},
	})

	p, err := e.Apply(context.Background(), escalation.Request{AccountID: uuid.New(), Category: "griefing"})
	require.NoError(t, err)
	assert.True(t, p.IsPermanent())
}

func TestLoadSkipsInvalidSteps(t *testing.T) {
	t.Parallel()

	e, _ := newEngine(t, ladderConfig())
	assert.Equal(t, []string{"broken", "cheating"}, e.Categories())

	// Only level 1 of the broken ladder is valid, so every offense resolves to it
	account := uuid.New()
	for range 3 {
		p, err := e.Apply(context.Background(), escalation.Request{AccountID: account, Category: "broken"})
		require.NoError(t, err)
		assert.Equal(t, enum.PunishmentTypeTempMute, p.Type)
	}
}

func TestLadderResolve(t *testing.T) {
	t.Parallel()

	ladder := escalation.Ladder{
		1: {Level: 1, Type: enum.PunishmentTypeWarn},
		4: {Level: 4, Type: enum.PunishmentTypeBan},
	}

	step, ok := ladder.Resolve(1)
	require.True(t, ok)
	assert.Equal(t, 1, step.Level)

	step, ok = ladder.Resolve(2)
	require.True(t, ok)
	assert.Equal(t, 4, step.Level, "gaps fall back to the highest level")

	_, ok = escalation.Ladder{}.Resolve(1)
	assert.False(t, ok)
}

func TestTemplates(t *testing.T) {
	t.Parallel()

	e := escalation.New(config.Escalation{}, map[string]config.Template{
		"spam":    {Type: "TEMP_MUTE", Reason: "Spamming", Duration: "30m", DisplayName: "Spam"},
		"hacking": {Type: "BAN"},
		"bogus":   {Type: "NOPE"},
	}, store.NewMemory(), nil, zap.NewNop())

	templates := e.Templates()
	require.Len(t, templates, 2)
	assert.Equal(t, "hacking", templates[0].ID)
	assert.Equal(t, "hacking", templates[0].DisplayName, "display name defaults to the id")
	assert.Equal(t, "No reason provided", templates[0].Reason)

	spam, ok := e.Template("spam")
	require.True(t, ok)
	assert.Equal(t, "30m", spam.Duration)

	_, ok = e.Template("bogus")
	assert.False(t, ok)

	mutes := e.TemplatesByType(enum.PunishmentTypeTempMute)
	require.Len(t, mutes, 1)
	assert.Equal(t, "spam", mutes[0].ID)
}
