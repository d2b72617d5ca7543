package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/rescueroute/fleetsim/core/metrics"
	"github.com/rescueroute/fleetsim/infra/logger"
)

// InfluxSink writes simulation statistics to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a NopSink
// if the health check fails, so a missing database never stalls the clock.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.Sink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

// RecordTick writes the per-tick fleet reduction as a single point.
func (s *InfluxSink) RecordTick(stats coremetrics.TickStats) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("fleet_tick").
		AddTag("component", "clock").
		AddField("tick", int64(stats.Tick)).
		AddField("duration_ms", round3(stats.DurationSeconds*1000)).
		AddField("active_robots", stats.ActiveRobots).
		AddField("dead_robots", stats.DeadRobots).
		AddField("charging_robots", stats.ChargingRobots).
		AddField("pending_missions", stats.PendingMissions).
		AddField("in_progress_missions", stats.InProgressMissions).
		AddField("completed_missions", stats.CompletedMissions).
		AddField("avg_battery", round3(stats.FleetAvgBattery)).
		AddField("total_distance", round3(stats.TotalDistance)).
		AddField("battery_consumed", round3(stats.TotalBatteryConsumed)).
		SetTime(time.Now())
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordMissionCompleted writes a completion event point.
func (s *InfluxSink) RecordMissionCompleted(ev coremetrics.MissionCompletion) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("mission_completed").
		AddTag("mission_id", ev.MissionID).
		AddTag("robot_id", ev.RobotID).
		AddTag("priority", ev.Priority.String()).
		AddTag("component", "clock").
		AddField("duration_ticks", int64(ev.DurationTicks)).
		AddField("tick", int64(ev.Tick)).
		SetTime(time.Now())
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordRobotDeath writes a robot loss event point.
func (s *InfluxSink) RecordRobotDeath(ev coremetrics.RobotDeath) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("robot_death").
		AddTag("robot_id", ev.RobotID).
		AddTag("component", "clock").
		AddField("pos", ev.Pos.String()).
		AddField("tick", int64(ev.Tick)).
		SetTime(time.Now())
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordDecision writes the outcome of an external decision.
func (s *InfluxSink) RecordDecision(ev coremetrics.DecisionOutcome) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("decision_applied").
		AddTag("decision_id", ev.DecisionID).
		AddTag("accepted", strconv.FormatBool(ev.Accepted)).
		AddTag("component", "dispatcher").
		AddField("bindings", ev.Bindings).
		AddField("rejected", ev.Rejected).
		AddField("tick", int64(ev.Tick)).
		SetTime(time.Now())
	return s.writeAPI.WritePoint(ctx, p)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
