package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/robalyx/warden/internal/database/types/enum"
	"github.com/robalyx/warden/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsSafe(t *testing.T) {
	t.Parallel()

	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.RecordGateDecision(enum.BlockReasonVPN)
		m.RecordReputationLookup(metrics.LookupCached)
		m.RecordAltMatch("IP Match")
		m.RecordPunishment(enum.PunishmentTypeBan)
		m.RecordEscalation("chat", "1")
		m.RecordDroppedNotification()
	})
}

func TestHandlerExposesCounters(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	m.RecordGateDecision(enum.BlockReasonIPBan)
	m.RecordGateDecision(enum.BlockReasonIPBan)
	m.RecordReputationLookup(metrics.LookupFlagged)

	count, err := testutil.GatherAndCount(m.Gatherer(), "warden_gate_decisions_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	server := httptest.NewServer(m.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `warden_gate_decisions_total{reason="ip_ban"} 2`)
	assert.Contains(t, string(body), `warden_reputation_lookups_total{result="flagged"} 1`)
}
