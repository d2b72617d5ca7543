// Package export renders completed-mission reports from a simulation
// snapshot in JSON or CSV form.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/rescueroute/fleetsim/core/model"
)

// Entry is one completed mission in the report.
type Entry struct {
	MissionID       string  `json:"mission_id"`
	Priority        string  `json:"priority"`
	CreatedTick     uint64  `json:"created_tick"`
	CompletedTick   uint64  `json:"completed_tick"`
	DurationTicks   uint64  `json:"duration_ticks"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// Report builds entries for the completed missions retained in the snapshot
// history window. tickSeconds converts tick durations to wall time.
func Report(snap model.Snapshot, tickSeconds float64) []Entry {
	entries := make([]Entry, 0, len(snap.CompletedMissions))
	for _, m := range snap.CompletedMissions {
		entries = append(entries, Entry{
			MissionID:       m.ID,
			Priority:        m.Priority.String(),
			CreatedTick:     m.CreatedTick,
			CompletedTick:   m.CompletedTick,
			DurationTicks:   m.DurationTicks(),
			DurationSeconds: float64(m.DurationTicks()) * tickSeconds,
		})
	}
	return entries
}

// WriteJSON writes the report to w in JSON format.
func WriteJSON(w io.Writer, entries []Entry) error {
	enc := json.NewEncoder(w)
	return enc.Encode(entries)
}

// WriteCSV writes the report to w in CSV format.
func WriteCSV(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"mission_id", "priority", "created_tick", "completed_tick", "duration_ticks", "duration_seconds"}); err != nil {
		return err
	}
	for _, e := range entries {
		rec := []string{
			e.MissionID,
			e.Priority,
			strconv.FormatUint(e.CreatedTick, 10),
			strconv.FormatUint(e.CompletedTick, 10),
			strconv.FormatUint(e.DurationTicks, 10),
			strconv.FormatFloat(e.DurationSeconds, 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
