package monitoring

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	ticketOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "support_ticket_operations_total",
			Help: "Ticket writes by operation and outcome",
		},
		[]string{"operation", "status"},
	)

	messagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "support_messages_sent_total",
			Help: "Messages created by kind and outcome",
		},
		[]string{"kind", "status"},
	)

	activeSubscriptions = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "support_active_subscriptions",
			Help: "Open snapshot subscriptions per hub",
		},
		[]string{"hub"},
	)

	snapshotDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "support_snapshot_deliveries_total",
			Help: "Snapshots pushed to subscribers per hub",
		},
		[]string{"hub"},
	)

	snapshotLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "support_snapshot_load_duration_seconds",
			Help:    "Time spent re-reading a subscription snapshot",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"hub"},
	)

	rateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "support_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"scope"},
	)

	changeEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "support_change_events_total",
			Help: "Change events applied to local feeds per collection",
		},
		[]string{"collection"},
	)

	realtimeInstances = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "support_realtime_instances",
			Help: "Server instances listening on the realtime change channel",
		},
	)
)

func TrackTicketOperation(operation string, err error) {
	ticketOperations.WithLabelValues(operation, outcome(err)).Inc()
}

func TrackMessage(kind string, err error) {
	messagesSent.WithLabelValues(kind, outcome(err)).Inc()
}

func TrackSubscription(hub string, delta int) {
	activeSubscriptions.WithLabelValues(hub).Add(float64(delta))
}

func TrackSnapshot(hub string, took time.Duration, listeners int) {
	snapshotLoadDuration.WithLabelValues(hub).Observe(took.Seconds())
	snapshotDeliveries.WithLabelValues(hub).Add(float64(listeners))
}

func TrackChangeEvent(collection string) {
	changeEvents.WithLabelValues(collection).Inc()
}

func TrackRateLimited(scope string) {
	rateLimited.WithLabelValues(scope).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// Monitor polls Redis for cluster-level gauges.
type Monitor struct {
	redis   *redis.Client
	channel string
	every   time.Duration
}

func NewMonitor(redisClient *redis.Client, channel string) *Monitor {
	return &Monitor{redis: redisClient, channel: channel, every: 30 * time.Second}
}

// Run collects until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.every)
	defer ticker.Stop()

	m.collect(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.collect(ctx)
		}
	}
}

func (m *Monitor) collect(ctx context.Context) {
	counts, err := m.redis.PubSubNumSub(ctx, m.channel).Result()
	if err != nil {
		slog.Warn("monitoring: reading realtime subscribers failed", "error", err)
		return
	}
	realtimeInstances.Set(float64(counts[m.channel]))
}
