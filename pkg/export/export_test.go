package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rescueroute/fleetsim/core/model"
)

func sampleSnapshot() model.Snapshot {
	return model.Snapshot{
		Tick: 12,
		CompletedMissions: []model.Mission{
			{ID: "M0001", Priority: model.PriorityHigh, Status: model.MissionCompleted, CreatedTick: 0, CompletedTick: 5},
			{ID: "M0002", Priority: model.PriorityLow, Status: model.MissionCompleted, CreatedTick: 3, CompletedTick: 12},
		},
		CompletedTotal: 2,
	}
}

func TestReportComputesDurations(t *testing.T) {
	entries := Report(sampleSnapshot(), 0.5)
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].DurationTicks != 5 || entries[0].DurationSeconds != 2.5 {
		t.Errorf("entry 0 duration = %d ticks / %v s", entries[0].DurationTicks, entries[0].DurationSeconds)
	}
	if entries[1].Priority != "LOW" {
		t.Errorf("entry 1 priority = %s, want LOW", entries[1].Priority)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, Report(sampleSnapshot(), 1.0)); err != nil {
		t.Fatal(err)
	}
	var decoded []Entry
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(decoded) != 2 || decoded[0].MissionID != "M0001" {
		t.Errorf("unexpected report: %+v", decoded)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, Report(sampleSnapshot(), 1.0)); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want header + 2 rows", len(lines))
	}
	if lines[0] != "mission_id,priority,created_tick,completed_tick,duration_ticks,duration_seconds" {
		t.Errorf("header = %s", lines[0])
	}
	if !strings.HasPrefix(lines[1], "M0001,HIGH,0,5,5,") {
		t.Errorf("row 1 = %s", lines[1])
	}
}
