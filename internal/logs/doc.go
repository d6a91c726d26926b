// Package logs reads the per-rank JSON log files written under the log
// directory.
//
// Tail returns the last N lines (negative offset) or everything after a byte
// offset, optionally waiting for new lines. Filter matches the structured
// fields the JSON handler emits so `sttbatch logs` can narrow a busy rank log to
// one run, level, or event type.
package logs
