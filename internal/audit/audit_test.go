package audit

import (
	"testing"
	"time"

	"github.com/outofforest/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/eaglebank/account-registry/shared/events"
)

func TestRecorderCountsEventsByType(t *testing.T) {
	ctx := logger.WithLogger(t.Context(), logger.New(logger.DefaultConfig))
	reg := prometheus.NewRegistry()
	recorder := NewRecorder(reg)

	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	recorder.now = func() time.Time { return now }

	for _, event := range []events.Event{
		{Type: events.AccountCreated, Timestamp: now.Add(-time.Second), Data: map[string]any{"id": 101}},
		{Type: events.AccountUpdated, Timestamp: now, Data: map[string]any{"id": 101}},
		{Type: events.AccountUpdated, Timestamp: now, Data: map[string]any{"id": 101}},
		{Type: events.AccountDeleted, Data: map[string]any{"id": 101}},
		{Type: "transaction.created"},
	} {
		require.NoError(t, recorder.Handle(ctx, event))
	}

	require.InDelta(t, 1, testutil.ToFloat64(recorder.events.WithLabelValues(events.AccountCreated)), 0)
	require.InDelta(t, 2, testutil.ToFloat64(recorder.events.WithLabelValues(events.AccountUpdated)), 0)
	require.InDelta(t, 1, testutil.ToFloat64(recorder.events.WithLabelValues(events.AccountDeleted)), 0)
	require.InDelta(t, 1, testutil.ToFloat64(recorder.events.WithLabelValues(unknownType)), 0)
	require.Equal(t, 4, testutil.CollectAndCount(recorder.events))

	// Zero timestamps are not observed.
	require.Equal(t, 1, testutil.CollectAndCount(recorder.lag))
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() == "account_registry_event_lag_seconds" {
			require.Equal(t, uint64(3), family.GetMetric()[0].GetHistogram().GetSampleCount())
		}
	}
}
