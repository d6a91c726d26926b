package logs

import (
	"encoding/json"
	"fmt"
	"strings"
)

var levelRank = map[string]int{"debug": 0, "info": 1, "warn": 2, "error": 3}

// Filter narrows JSON log lines by their structured fields. Zero fields match
// everything.
type Filter struct {
	// MinLevel drops entries below this level (debug, info, warn, error).
	MinLevel  string
	RunID     string
	EventType string
	Component string
	// Search is a case-insensitive substring of the message.
	Search string
}

// Entry is the subset of a JSON log line that filtering and rendering need.
type Entry struct {
	Time      string `json:"ts"`
	Level     string `json:"level"`
	Message   string `json:"msg"`
	RunID     string `json:"run_id"`
	Rank      *int   `json:"rank"`
	Component string `json:"component"`
	EventType string `json:"event_type"`
	Error     string `json:"error"`
}

// ParseEntry decodes one JSON log line.
func ParseEntry(line string) (Entry, error) {
	var entry Entry
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		return Entry{}, fmt.Errorf("parse log line: %w", err)
	}
	return entry, nil
}

// Empty reports whether the filter matches every entry.
func (f Filter) Empty() bool {
	return strings.TrimSpace(f.MinLevel) == "" &&
		strings.TrimSpace(f.RunID) == "" &&
		strings.TrimSpace(f.EventType) == "" &&
		strings.TrimSpace(f.Component) == "" &&
		strings.TrimSpace(f.Search) == ""
}

// Validate rejects an unknown level name.
func (f Filter) Validate() error {
	level := strings.ToLower(strings.TrimSpace(f.MinLevel))
	if level == "" {
		return nil
	}
	if _, ok := levelRank[level]; !ok {
		return fmt.Errorf("unknown log level %q (want debug, info, warn or error)", f.MinLevel)
	}
	return nil
}

// Match reports whether entry passes every set predicate.
func (f Filter) Match(entry Entry) bool {
	if level := strings.ToLower(strings.TrimSpace(f.MinLevel)); level != "" {
		if levelRank[strings.ToLower(entry.Level)] < levelRank[level] {
			return false
		}
	}
	if id := strings.TrimSpace(f.RunID); id != "" && entry.RunID != id {
		return false
	}
	if event := strings.TrimSpace(f.EventType); event != "" && !strings.EqualFold(entry.EventType, event) {
		return false
	}
	if component := strings.TrimSpace(f.Component); component != "" && !strings.EqualFold(entry.Component, component) {
		return false
	}
	if search := strings.ToLower(strings.TrimSpace(f.Search)); search != "" &&
		!strings.Contains(strings.ToLower(entry.Message), search) {
		return false
	}
	return true
}

// Apply keeps the lines that parse and match. Lines that are not JSON pass
// through only when the filter is empty.
func (f Filter) Apply(lines []string) []string {
	if f.Empty() {
		return lines
	}
	out := lines[:0:0]
	for _, line := range lines {
		entry, err := ParseEntry(line)
		if err != nil {
			continue
		}
		if f.Match(entry) {
			out = append(out, line)
		}
	}
	return out
}
