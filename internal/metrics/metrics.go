package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics groups the game server's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	transitions    *prometheus.CounterVec
	conflicts      prometheus.Counter
	roundsFinished *prometheus.CounterVec
	wsConnections  prometheus.Gauge
	watchdogFails  prometheus.Counter
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kelime",
			Name:      "transitions_total",
			Help:      "Session transitions by operation and result.",
		}, []string{"op", "result"}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kelime",
			Name:      "store_conflicts_total",
			Help:      "Optimistic transaction attempts aborted by a concurrent writer.",
		}),
		roundsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kelime",
			Name:      "rounds_finished_total",
			Help:      "Finished rounds by outcome.",
		}, []string{"outcome"}),
		wsConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "kelime",
			Name:      "ws_connections",
			Help:      "Open websocket connections.",
		}),
		watchdogFails: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kelime",
			Name:      "watchdog_expired_turns_total",
			Help:      "Turns failed by the server-side watchdog.",
		}),
	}
	reg.MustRegister(m.transitions, m.conflicts, m.roundsFinished, m.wsConnections, m.watchdogFails)
	return m
}

// Transition counts one transition attempt. result is "ok" or an error code.
func (m *Metrics) Transition(op, result string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(op, result).Inc()
}

func (m *Metrics) StoreConflict() {
	if m == nil {
		return
	}
	m.conflicts.Inc()
}

// RoundFinished counts a round by outcome: "win" or "no_winner".
func (m *Metrics) RoundFinished(outcome string) {
	if m == nil {
		return
	}
	m.roundsFinished.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ConnOpened() {
	if m == nil {
		return
	}
	m.wsConnections.Inc()
}

func (m *Metrics) ConnClosed() {
	if m == nil {
		return
	}
	m.wsConnections.Dec()
}

func (m *Metrics) WatchdogExpired() {
	if m == nil {
		return
	}
	m.watchdogFails.Inc()
}
