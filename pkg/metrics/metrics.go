package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	EventsHandled = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "collab", Name: "events_handled_total", Help: "Number of inbound collaboration events accepted, by event name."},
		[]string{"event"},
	)
	EventsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "collab", Name: "events_rejected_total", Help: "Number of inbound events dropped before any side effect, by reason."},
		[]string{"reason"},
	)
	PersistFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "collab", Name: "persist_failures_total", Help: "Number of failed persistence calls issued by the event router, by operation."},
		[]string{"op"},
	)
	OutboundDropped = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "collab", Name: "outbound_dropped_total", Help: "Number of outbound events dropped because a connection's send buffer was full."},
	)
	ActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: "collab", Name: "active_connections", Help: "Number of open transport connections."},
	)
	ActiveRooms = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: "collab", Name: "active_rooms", Help: "Number of documents with at least one joined connection."},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(EventsHandled)
	reg.MustRegister(EventsRejected)
	reg.MustRegister(PersistFailures)
	reg.MustRegister(OutboundDropped)
	reg.MustRegister(ActiveConnections)
	reg.MustRegister(ActiveRooms)
}
