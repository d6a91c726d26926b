package ledger

import (
	"context"
	"fmt"
	"math"
	"time"
)

// RecordUtterances stores a written batch in one transaction. Re-recording a
// path for the same run replaces the earlier row.
func (s *Store) RecordUtterances(ctx context.Context, runID string, utterances []Utterance) error {
	if len(utterances) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO utterances (run_id, audio_filepath, rank, duration, token_count, mean_score, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(run_id, audio_filepath) DO UPDATE SET
             rank = excluded.rank,
             duration = excluded.duration,
             token_count = excluded.token_count,
             mean_score = excluded.mean_score,
             created_at = excluded.created_at`)
	if err != nil {
		return fmt.Errorf("prepare record: %w", err)
	}
	defer stmt.Close()

	now := formatTime(time.Now())
	for _, u := range utterances {
		var mean any
		if u.MeanScore != nil && !math.IsNaN(*u.MeanScore) && !math.IsInf(*u.MeanScore, 0) {
			mean = *u.MeanScore
		}
		if _, err := stmt.ExecContext(ctx, runID, u.AudioFilepath, u.Rank, u.Duration, u.TokenCount, mean, now); err != nil {
			return fmt.Errorf("record utterance %s: %w", u.AudioFilepath, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit record: %w", err)
	}
	return nil
}

// CompletedPaths returns the audio paths already recorded for a run.
func (s *Store) CompletedPaths(ctx context.Context, runID string) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT audio_filepath FROM utterances WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("load completed paths: %w", err)
	}
	defer rows.Close()

	done := make(map[string]struct{})
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("scan completed path: %w", err)
		}
		done[path] = struct{}{}
	}
	return done, rows.Err()
}

// MeanScore averages the finite entries of scores. It returns nil when there
// are none.
func MeanScore(scores []float64) *float64 {
	var (
		sum   float64
		count int
	)
	for _, v := range scores {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		sum += v
		count++
	}
	if count == 0 {
		return nil
	}
	mean := sum / float64(count)
	return &mean
}
