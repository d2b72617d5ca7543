package metrics

import coremetrics "github.com/rescueroute/fleetsim/core/metrics"

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordTick forwards the tick stats to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordTick(stats coremetrics.TickStats) error {
	for _, s := range m.Sinks {
		if err := s.RecordTick(stats); err != nil {
			return err
		}
	}
	return nil
}

// RecordMissionCompleted forwards completion events to interested sinks.
func (m *MultiSink) RecordMissionCompleted(ev coremetrics.MissionCompletion) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.MissionRecorder); ok {
			if err := rec.RecordMissionCompleted(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordRobotDeath forwards death events to interested sinks.
func (m *MultiSink) RecordRobotDeath(ev coremetrics.RobotDeath) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.DeathRecorder); ok {
			if err := rec.RecordRobotDeath(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordDecision forwards decision outcomes to interested sinks.
func (m *MultiSink) RecordDecision(ev coremetrics.DecisionOutcome) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.DecisionRecorder); ok {
			if err := rec.RecordDecision(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
