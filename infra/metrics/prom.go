package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/rescueroute/fleetsim/core/metrics"
)

// PromSink records simulation statistics in Prometheus metrics.
type PromSink struct {
	avgBattery      prometheus.Gauge
	activeRobots    prometheus.Gauge
	chargingRobots  prometheus.Gauge
	pendingMissions prometheus.Gauge
	totalDistance   prometheus.Gauge

	completed *prometheus.CounterVec
	deaths    prometheus.Counter
	decisions *prometheus.CounterVec

	tickDuration prometheus.Histogram
}

// NewPromSink registers the simulation metrics on the default Prometheus
// registerer. The /metrics server is started separately.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		avgBattery: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fleet_avg_battery",
			Help: "Average battery level across non-dead robots",
		}),
		activeRobots: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fleet_active_robots",
			Help: "Number of robots that are not dead",
		}),
		chargingRobots: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fleet_charging_robots",
			Help: "Number of robots currently charging",
		}),
		pendingMissions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "missions_pending",
			Help: "Number of missions waiting for a robot",
		}),
		totalDistance: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fleet_distance_total",
			Help: "Total cells traveled by the fleet since reset",
		}),
		completed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "missions_completed_total",
			Help: "Total missions completed",
		}, []string{"priority"}),
		deaths: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "robot_deaths_total",
			Help: "Total robots lost to battery depletion",
		}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "decisions_total",
			Help: "External decisions processed, by outcome",
		}, []string{"accepted"}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tick_duration_seconds",
			Help:    "Wall time spent advancing one simulation tick",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}

	var err error
	if s.avgBattery, err = register(reg, s.avgBattery); err != nil {
		return nil, err
	}
	if s.activeRobots, err = register(reg, s.activeRobots); err != nil {
		return nil, err
	}
	if s.chargingRobots, err = register(reg, s.chargingRobots); err != nil {
		return nil, err
	}
	if s.pendingMissions, err = register(reg, s.pendingMissions); err != nil {
		return nil, err
	}
	if s.totalDistance, err = register(reg, s.totalDistance); err != nil {
		return nil, err
	}
	if s.completed, err = register(reg, s.completed); err != nil {
		return nil, err
	}
	if s.deaths, err = register(reg, s.deaths); err != nil {
		return nil, err
	}
	if s.decisions, err = register(reg, s.decisions); err != nil {
		return nil, err
	}
	if s.tickDuration, err = register(reg, s.tickDuration); err != nil {
		return nil, err
	}
	return s, nil
}

// register adds c to the registry, adopting the already-registered collector
// on a duplicate so records stay visible to scrapes.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(C), nil
		}
		var zero C
		return zero, err
	}
	return c, nil
}

// RecordTick updates the fleet gauges and the tick duration histogram.
func (s *PromSink) RecordTick(stats coremetrics.TickStats) error {
	s.avgBattery.Set(stats.FleetAvgBattery)
	s.activeRobots.Set(float64(stats.ActiveRobots))
	s.chargingRobots.Set(float64(stats.ChargingRobots))
	s.pendingMissions.Set(float64(stats.PendingMissions))
	s.totalDistance.Set(stats.TotalDistance)
	s.tickDuration.Observe(stats.DurationSeconds)
	return nil
}

// RecordMissionCompleted increments the completion counter for the priority.
func (s *PromSink) RecordMissionCompleted(ev coremetrics.MissionCompletion) error {
	s.completed.WithLabelValues(ev.Priority.String()).Inc()
	return nil
}

// RecordRobotDeath increments the death counter.
func (s *PromSink) RecordRobotDeath(coremetrics.RobotDeath) error {
	s.deaths.Inc()
	return nil
}

// RecordDecision increments the decision counter by outcome.
func (s *PromSink) RecordDecision(ev coremetrics.DecisionOutcome) error {
	s.decisions.WithLabelValues(strconv.FormatBool(ev.Accepted)).Inc()
	return nil
}
