// Package app wires the simulation clock, event bus and metrics sinks into a
// runnable service.
package app

import (
	"context"
	"fmt"

	"github.com/rescueroute/fleetsim/config"
	coremetrics "github.com/rescueroute/fleetsim/core/metrics"
	"github.com/rescueroute/fleetsim/core/sim"
	"github.com/rescueroute/fleetsim/infra/logger"
	"github.com/rescueroute/fleetsim/infra/metrics"
	"github.com/rescueroute/fleetsim/internal/eventbus"
)

// Service orchestrates the clock and its observability plumbing.
type Service struct {
	Clock *sim.Clock

	bus         eventbus.EventBus
	sink        coremetrics.Sink
	log         logger.Logger
	promEnabled bool
	promAddr    string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	var sinks []coremetrics.Sink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink()
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(
			cfg.Metrics.InfluxURL, cfg.Metrics.InfluxToken, cfg.Metrics.InfluxOrg, cfg.Metrics.InfluxBucket))
	}
	var sink coremetrics.Sink
	switch len(sinks) {
	case 0:
		sink = coremetrics.NopSink{}
	case 1:
		sink = sinks[0]
	default:
		sink = metrics.NewMultiSink(sinks...)
	}

	bus := eventbus.New()
	clock, err := sim.New(cfg.Simulation, bus, logger.New("clock"))
	if err != nil {
		return nil, fmt.Errorf("simulation clock: %w", err)
	}

	return &Service{
		Clock:       clock,
		bus:         bus,
		sink:        sink,
		log:         logg,
		promEnabled: cfg.Metrics.PrometheusEnabled,
		promAddr:    cfg.Metrics.PrometheusAddr,
	}, nil
}

// Run starts the clock and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	metrics.StartEventCollector(ctx, s.bus, s.sink)
	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promAddr, s.log); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if err := s.Clock.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	return nil
}
