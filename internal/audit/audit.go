// Package audit consumes account events from the stream and records them.
package audit

import (
	"context"
	"time"

	"github.com/outofforest/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/eaglebank/account-registry/shared/events"
)

const unknownType = "unknown"

// Recorder logs every account event and counts it by type.
type Recorder struct {
	events *prometheus.CounterVec
	lag    prometheus.Histogram
	now    func() time.Time
}

func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "account_registry_events_total",
			Help: "Account events consumed from the event stream, by type.",
		}, []string{"type"}),
		lag: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "account_registry_event_lag_seconds",
			Help:    "Delay between publishing an account event and auditing it.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		now: time.Now,
	}
}

// Handle is an events.Handler. It never fails so messages are always ACKed.
func (r *Recorder) Handle(ctx context.Context, event events.Event) error {
	log := logger.Get(ctx)

	eventType := event.Type
	switch eventType {
	case events.AccountCreated, events.AccountUpdated, events.AccountDeleted:
	default:
		log.Warn("Unexpected event type", zap.String("type", eventType))
		eventType = unknownType
	}

	r.events.WithLabelValues(eventType).Inc()
	if !event.Timestamp.IsZero() {
		if lag := r.now().Sub(event.Timestamp); lag >= 0 {
			r.lag.Observe(lag.Seconds())
		}
	}

	log.Info("Account event",
		zap.String("type", event.Type),
		zap.Time("publishedAt", event.Timestamp),
		zap.Any("data", event.Data))
	return nil
}
