package logs_test

import (
	"testing"

	"sttbatch/internal/logs"
)

var sample = []string{
	`{"ts":"2026-01-01T00:00:00Z","level":"info","msg":"run started","run_id":"r1","rank":0,"component":"pipeline","event_type":"run_start"}`,
	`{"ts":"2026-01-01T00:00:01Z","level":"debug","msg":"batch written","run_id":"r1","rank":0,"component":"pipeline","batch":0}`,
	`{"ts":"2026-01-01T00:00:02Z","level":"warn","msg":"error audio","run_id":"r2","rank":1,"component":"manifest"}`,
	`{"ts":"2026-01-01T00:00:03Z","level":"error","msg":"run failed","run_id":"r2","rank":1,"component":"pipeline","event_type":"run_failed","error":"boom"}`,
	`not json`,
}

func TestFilterEmptyPassesEverything(t *testing.T) {
	if got := (logs.Filter{}).Apply(sample); len(got) != len(sample) {
		t.Fatalf("expected all lines, got %d", len(got))
	}
}

func TestFilterPredicates(t *testing.T) {
	cases := []struct {
		name   string
		filter logs.Filter
		want   int
	}{
		{name: "min level warn", filter: logs.Filter{MinLevel: "WARN"}, want: 2},
		{name: "run id", filter: logs.Filter{RunID: "r1"}, want: 2},
		{name: "event type", filter: logs.Filter{EventType: "run_failed"}, want: 1},
		{name: "component", filter: logs.Filter{Component: "manifest"}, want: 1},
		{name: "search", filter: logs.Filter{Search: "BATCH"}, want: 1},
		{name: "combined", filter: logs.Filter{RunID: "r2", MinLevel: "error"}, want: 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.filter.Apply(sample); len(got) != tc.want {
				t.Fatalf("expected %d lines, got %d: %v", tc.want, len(got), got)
			}
		})
	}
}

func TestFilterValidate(t *testing.T) {
	if err := (logs.Filter{MinLevel: "loud"}).Validate(); err == nil {
		t.Fatal("expected unknown level error")
	}
	if err := (logs.Filter{MinLevel: "Warn"}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseEntry(t *testing.T) {
	entry, err := logs.ParseEntry(sample[3])
	if err != nil {
		t.Fatalf("ParseEntry: %v", err)
	}
	if entry.Rank == nil || *entry.Rank != 1 || entry.Error != "boom" || entry.Message != "run failed" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if _, err := logs.ParseEntry(sample[4]); err == nil {
		t.Fatal("expected parse error")
	}
}
