package types_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/robalyx/warden/internal/database/types"
	"github.com/robalyx/warden/internal/database/types/enum"
	"github.com/stretchr/testify/assert"
)

func TestPunishmentExpiry(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	tests := []struct {
		name       string
		punishment types.Punishment
		expired    bool
		active     bool
	}{
		{
			name:       "permanent active",
			punishment: types.Punishment{Active: true},
			expired:    false,
			active:     true,
		},
		{
			name:       "temporary not yet expired",
			punishment: types.Punishment{Active: true, ExpiresAt: &future},
			expired:    false,
			active:     true,
		},
		{
			name:       "temporary expired",
			punishment: types.Punishment{Active: true, ExpiresAt: &past},
			expired:    true,
			active:     false,
		},
		{
			name:       "deactivated",
			punishment: types.Punishment{Active: false},
			expired:    false,
			active:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expired, tt.punishment.IsExpiredAt(now))
			assert.Equal(t, tt.active, tt.punishment.IsActiveAt(now))
		})
	}
}

func TestPunishmentClone(t *testing.T) {
	t.Parallel()

	expires := time.Now().Add(time.Hour)
	original := &types.Punishment{
		ExpiresAt: &expires,
		Metadata:  map[string]string{types.MetadataCategory: "chat"},
	}

	clone := original.Clone()
	clone.Metadata[types.MetadataCategory] = "cheating"
	*clone.ExpiresAt = expires.Add(time.Hour)

	assert.Equal(t, "chat", original.Category())
	assert.Equal(t, expires, *original.ExpiresAt)
}

func TestJoinPairOther(t *testing.T) {
	t.Parallel()

	a, b, c := uuid.New(), uuid.New(), uuid.New()
	pair := types.JoinPair{AccountA: a, AccountB: b}

	other, ok := pair.Other(a)
	assert.True(t, ok)
	assert.Equal(t, b, other)

	other, ok = pair.Other(b)
	assert.True(t, ok)
	assert.Equal(t, a, other)

	_, ok = pair.Other(c)
	assert.False(t, ok)
}

func TestAccountHasBypass(t *testing.T) {
	t.Parallel()

	account := types.Account{Capabilities: types.BypassSet{enum.BypassKindVPN}}
	assert.True(t, account.HasBypass(enum.BypassKindVPN))
	assert.False(t, account.HasBypass(enum.BypassKindAlt))

	assert.False(t, types.Account{}.HasBypass(enum.BypassKindVPN))
}

func TestPunishmentTypeProperties(t *testing.T) {
	t.Parallel()

	assert.True(t, enum.PunishmentTypeBan.PreventsJoin())
	assert.True(t, enum.PunishmentTypeTempBan.PreventsJoin())
	assert.False(t, enum.PunishmentTypeMute.PreventsJoin())
	assert.True(t, enum.PunishmentTypeTempMute.IsTemporary())
	assert.False(t, enum.PunishmentTypeWarn.IsTemporary())

	parsed, err := enum.PunishmentTypeString("temp_ban")
	assert.NoError(t, err)
	assert.Equal(t, enum.PunishmentTypeTempBan, parsed)
	assert.Equal(t, "TEMP_BAN", enum.PunishmentTypeTempBan.String())
}
