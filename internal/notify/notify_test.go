package notify_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bytedance/sonic"
	"github.com/redis/rueidis"
	"github.com/robalyx/warden/internal/metrics"
	"github.com/robalyx/warden/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingNotifier struct {
	mu     sync.Mutex
	alerts []notify.Alert
	block  chan struct{}
	err    error
}

func (r *recordingNotifier) Notify(_ context.Context, alert notify.Alert) error {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, alert)
	return r.err
}

func (r *recordingNotifier) received() []notify.Alert {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Alert(nil), r.alerts...)
}

func TestAltMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Steve might be an alt of Alex (IP Match, 90% confidence)",
		notify.AltMessage("Steve", "Alex", "IP Match", 90, false))
	assert.Equal(t, "Steve might be an alt of Alex (Name Similarity, 83% confidence) - BLOCKED",
		notify.AltMessage("Steve", "Alex", "Name Similarity", 83, true))
}

func TestAltSummaryMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Possible alt accounts for Steve: a, b",
		notify.AltSummaryMessage("Steve", []string{"a", "b"}))
	assert.Equal(t, "Possible alt accounts for Steve: a, b, c and 2 more",
		notify.AltSummaryMessage("Steve", []string{"a", "b", "c", "d", "e"}))
}

func TestDispatcherDeliversToAllNotifiers(t *testing.T) {
	t.Parallel()

	first := &recordingNotifier{}
	second := &recordingNotifier{err: errors.New("unavailable")}

	d := notify.NewDispatcher(4, nil, zap.NewNop(), first, second)
	d.Start(context.Background())

	assert.True(t, d.Send(notify.Alert{Kind: notify.KindVPN, AccountName: "Steve"}))
	d.Close()

	require.Len(t, first.received(), 1)
	require.Len(t, second.received(), 1)
	assert.False(t, first.received()[0].CreatedAt.IsZero())

	assert.False(t, d.Send(notify.Alert{Kind: notify.KindVPN}), "closed dispatcher rejects alerts")
	d.Close()
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	blocked := &recordingNotifier{block: make(chan struct{})}

	d := notify.NewDispatcher(1, m, zap.NewNop(), blocked)

	// Without a running worker the queue holds exactly one alert
	assert.True(t, d.Send(notify.Alert{Kind: notify.KindAlt}))
	assert.False(t, d.Send(notify.Alert{Kind: notify.KindAlt}))

	d.Start(context.Background())
	close(blocked.block)
	d.Close()

	assert.Len(t, blocked.received(), 1)
}

func TestRedisNotifierPublishes(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	sub := mr.NewSubscriber()
	defer sub.Close()
	sub.Subscribe("staff")

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{mr.Addr()},
		DisableCache: true,
	})
	require.NoError(t, err)
	defer client.Close()

	n := notify.NewRedisNotifier(client, "staff")
	alert := notify.Alert{
		Kind:        notify.KindAlt,
		AccountName: "Steve",
		RelatedName: "Alex",
		Method:      "IP Match",
		Confidence:  90,
		Blocked:     true,
		Message:     "Steve might be an alt of Alex (IP Match, 90% confidence) - BLOCKED",
	}
	require.NoError(t, n.Notify(context.Background(), alert))

	select {
	case msg := <-sub.Messages():
		assert.Equal(t, "staff", msg.Channel)

		var decoded notify.Alert
		require.NoError(t, sonic.UnmarshalString(msg.Message, &decoded))
		assert.Equal(t, alert.Message, decoded.Message)
		assert.Equal(t, 90, decoded.Confidence)
		assert.True(t, decoded.Blocked)
	case <-time.After(2 * time.Second):
		t.Fatal("alert was not published")
	}
}
