package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Transition("submit_guess", "ok")
	m.Transition("submit_guess", "ok")
	m.Transition("submit_guess", "NOT_YOUR_TURN")
	m.StoreConflict()
	m.RoundFinished("win")
	m.ConnOpened()
	m.ConnOpened()
	m.ConnClosed()
	m.WatchdogExpired()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.transitions.WithLabelValues("submit_guess", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("submit_guess", "NOT_YOUR_TURN")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.conflicts))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.roundsFinished.WithLabelValues("win")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.wsConnections))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.watchdogFails))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Transition("join", "ok")
		m.StoreConflict()
		m.RoundFinished("no_winner")
		m.ConnOpened()
		m.ConnClosed()
		m.WatchdogExpired()
	})
}
