package ledger

import (
	"strings"
	"time"
)

// Status is the lifecycle state of a rank within a run, and the derived state
// of the run as a whole.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	// StatusPartial marks a run where some ranks completed and the rest never
	// reported in.
	StatusPartial Status = "partial"
)

// ParseStatus attempts to map a string into a Status.
func ParseStatus(value string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(value))) {
	case StatusRunning:
		return StatusRunning, true
	case StatusCompleted:
		return StatusCompleted, true
	case StatusFailed:
		return StatusFailed, true
	case StatusPartial:
		return StatusPartial, true
	}
	return "", false
}

// RunSpec identifies a run and the inputs every rank agrees on.
type RunSpec struct {
	ID        string
	Model     string
	Language  string
	Manifest  string
	Output    string
	WorldSize int
}

// RankState is one rank's progress through a run.
type RankState struct {
	Rank         int
	Status       Status
	StartedAt    time.Time
	FinishedAt   time.Time
	ErrorKind    string
	ErrorMessage string
}

// Run is a run row joined with its rank states and utterance totals.
type Run struct {
	RunSpec
	CreatedAt    time.Time
	Ranks        []RankState
	Utterances   int
	AudioSeconds float64
	MeanScore    float64
}

// Status derives the run status from its ranks. Any failed rank fails the run;
// any running rank keeps it running.
func (r Run) Status() Status {
	if len(r.Ranks) == 0 {
		return StatusRunning
	}
	completed := 0
	for _, rank := range r.Ranks {
		switch rank.Status {
		case StatusFailed:
			return StatusFailed
		case StatusRunning:
			return StatusRunning
		case StatusCompleted:
			completed++
		}
	}
	if completed < r.WorldSize {
		return StatusPartial
	}
	return StatusCompleted
}

// FinishedAt returns the latest rank finish time, or zero while any rank is
// still running.
func (r Run) FinishedAt() time.Time {
	var latest time.Time
	for _, rank := range r.Ranks {
		if rank.FinishedAt.IsZero() {
			return time.Time{}
		}
		if rank.FinishedAt.After(latest) {
			latest = rank.FinishedAt
		}
	}
	return latest
}

// Utterance records one written prediction.
type Utterance struct {
	AudioFilepath string
	Rank          int
	Duration      float64
	TokenCount    int
	// MeanScore is the average transition score over the utterance's tokens.
	// Nil when the utterance produced no tokens or a non-finite mean.
	MeanScore *float64
}
