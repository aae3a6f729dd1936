package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the relay's Prometheus collectors.
type Metrics struct {
	ActiveConnections prometheus.Gauge
	RoomJoins         prometheus.Counter
	MessagesRelayed   prometheus.Counter
	DroppedDeliveries prometheus.Counter
	DroppedEvents     prometheus.Counter
	BroadcastFanout   prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ActiveConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "relay_active_connections",
			Help: "Number of live relay connections.",
		}),
		RoomJoins: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_room_joins_total",
			Help: "Total accepted join-room events.",
		}),
		MessagesRelayed: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_messages_relayed_total",
			Help: "Total send-message events fanned out to a room.",
		}),
		DroppedDeliveries: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_dropped_deliveries_total",
			Help: "Deliveries dropped because a member's queue was full.",
		}),
		DroppedEvents: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_dropped_events_total",
			Help: "Inbound events dropped as protocol violations.",
		}),
		BroadcastFanout: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "relay_broadcast_fanout",
			Help:    "Number of members per broadcast.",
			Buckets: prometheus.LinearBuckets(1, 2, 10),
		}),
	}
}
