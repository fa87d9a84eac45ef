package reputation_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/robalyx/warden/internal/database/types"
	"github.com/robalyx/warden/internal/database/types/enum"
	"github.com/robalyx/warden/internal/reputation"
	"github.com/robalyx/warden/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeProvider returns canned results and counts lookups.
type fakeProvider struct {
	mu      sync.Mutex
	results map[string]reputation.Result
	err     error
	calls   int
}

func (p *fakeProvider) Lookup(_ context.Context, ip string) (reputation.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls++
	if p.err != nil {
		return reputation.Result{}, p.err
	}
	return p.results[ip], nil
}

func (p *fakeProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.calls
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newChecker(settings reputation.Settings, provider reputation.Provider) (*reputation.Checker, *testClock) {
	clock := &testClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cache := utils.NewTTLMap[string, bool](time.Hour, utils.WithClock[string, bool](clock.Now))
	return reputation.NewChecker(settings, provider, cache, nil, zap.NewNop()), clock
}

var enabled = reputation.Settings{Enabled: true, APIKey: "key"}

func TestCheckerDisabled(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		settings reputation.Settings
	}{
		{name: "feature off", settings: reputation.Settings{Enabled: false, APIKey: "key"}},
		{name: "missing api key", settings: reputation.Settings{Enabled: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			provider := &fakeProvider{results: map[string]reputation.Result{"1.1.1.1": {VPN: true}}}
			checker, _ := newChecker(tt.settings, provider)

			assert.False(t, checker.Check(context.Background(), nil, "1.1.1.1"))
			assert.Zero(t, provider.Calls())
			assert.Zero(t, checker.Cache().Len())
		})
	}
}

func TestCheckerBypass(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{results: map[string]reputation.Result{"1.1.1.1": {VPN: true}}}
	checker, _ := newChecker(enabled, provider)

	account := types.Account{Capabilities: types.BypassSet{enum.BypassKindVPN}}
	assert.False(t, checker.Check(context.Background(), account, "1.1.1.1"))
	assert.Zero(t, provider.Calls())
}

func TestCheckerCachesSuccessfulLookups(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{results: map[string]reputation.Result{
		"1.1.1.1": {Tor: true},
		"2.2.2.2": {},
	}}
	checker, clock := newChecker(enabled, provider)
	ctx := context.Background()

	assert.True(t, checker.Check(ctx, nil, "1.1.1.1"))
	assert.True(t, checker.Check(ctx, nil, "1.1.1.1"))
	assert.False(t, checker.Check(ctx, nil, "2.2.2.2"))
	assert.False(t, checker.Check(ctx, nil, "2.2.2.2"))
	assert.Equal(t, 2, provider.Calls())

	clock.Advance(time.Hour)
	assert.True(t, checker.Check(ctx, nil, "1.1.1.1"))
	assert.Equal(t, 3, provider.Calls())
}

func TestCheckerFailOpenWithoutCaching(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{err: errors.New("connection refused")}
	checker, _ := newChecker(enabled, provider)
	ctx := context.Background()

	assert.False(t, checker.Check(ctx, nil, "3.3.3.3"))
	_, cached := checker.Cache().Get("3.3.3.3")
	assert.False(t, cached)

	provider.mu.Lock()
	provider.err = nil
	provider.results = map[string]reputation.Result{"3.3.3.3": {Proxy: true}}
	provider.mu.Unlock()

	assert.True(t, checker.Check(ctx, nil, "3.3.3.3"))
	assert.Equal(t, 2, provider.Calls())
}

func TestCheckerUpdateKeepsCache(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{results: map[string]reputation.Result{"4.4.4.4": {VPN: true}}}
	checker, _ := newChecker(enabled, provider)
	ctx := context.Background()

	require.True(t, checker.Check(ctx, nil, "4.4.4.4"))

	checker.Update(reputation.Settings{Enabled: false}, provider)
	assert.False(t, checker.Check(ctx, nil, "4.4.4.4"))

	checker.Update(enabled, provider)
	assert.True(t, checker.Check(ctx, nil, "4.4.4.4"))
	assert.Equal(t, 1, provider.Calls())
}
