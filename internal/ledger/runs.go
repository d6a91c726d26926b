package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"sttbatch/internal/services"
)

// ErrRunNotFound reports a run id with no ledger row.
var ErrRunNotFound = errors.New("run not found")

// StartRank registers the run if no rank has yet and marks rank as running.
// A rank restarting under the same id clears its previous finish state.
func (s *Store) StartRank(ctx context.Context, spec RunSpec, rank int) error {
	spec.ID = strings.TrimSpace(spec.ID)
	if spec.ID == "" {
		return fmt.Errorf("start rank: run id is required")
	}
	if spec.WorldSize <= 0 {
		spec.WorldSize = 1
	}
	if rank < 0 || rank >= spec.WorldSize {
		return fmt.Errorf("start rank: rank %d outside world size %d", rank, spec.WorldSize)
	}
	now := formatTime(time.Now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin start tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, model, language, manifest, output, world_size, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(id) DO NOTHING`,
		spec.ID, spec.Model, spec.Language, spec.Manifest, spec.Output, spec.WorldSize, now,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	var existing RunSpec
	if err := tx.QueryRowContext(ctx,
		`SELECT model, language, world_size FROM runs WHERE id = ?`, spec.ID,
	).Scan(&existing.Model, &existing.Language, &existing.WorldSize); err != nil {
		return fmt.Errorf("load run: %w", err)
	}
	if existing.Model != spec.Model || existing.Language != spec.Language || existing.WorldSize != spec.WorldSize {
		return fmt.Errorf("%w: run %s was started with model %s, language %s, world size %d",
			services.ErrConfiguration, spec.ID, existing.Model, existing.Language, existing.WorldSize)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO run_ranks (run_id, rank, status, started_at)
         VALUES (?, ?, ?, ?)
         ON CONFLICT(run_id, rank) DO UPDATE SET
             status = excluded.status,
             started_at = excluded.started_at,
             finished_at = NULL,
             error_kind = NULL,
             error_message = NULL`,
		spec.ID, rank, StatusRunning, now,
	); err != nil {
		return fmt.Errorf("insert run rank: %w", err)
	}
	return tx.Commit()
}

// FinishRank marks rank completed when runErr is nil and failed otherwise,
// recording the failure classification.
func (s *Store) FinishRank(ctx context.Context, runID string, rank int, runErr error) error {
	status := StatusCompleted
	var kind, message string
	if runErr != nil {
		status = StatusFailed
		kind = services.FailureKind(runErr)
		message = runErr.Error()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE run_ranks
         SET status = ?, finished_at = ?, error_kind = ?, error_message = ?
         WHERE run_id = ? AND rank = ?`,
		status, formatTime(time.Now()), nullableString(kind), nullableString(message), runID, rank,
	)
	if err != nil {
		return fmt.Errorf("finish run rank: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run rank: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s rank %d", ErrRunNotFound, runID, rank)
	}
	return nil
}

// GetRun loads one run with its ranks and totals.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, runSelect+` WHERE r.id = ? GROUP BY r.id`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	ranks, err := s.rankStates(ctx, id)
	if err != nil {
		return nil, err
	}
	run.Ranks = ranks
	return run, nil
}

// ListRuns returns the most recent runs first. A non-positive limit returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := runSelect + ` GROUP BY r.id ORDER BY r.created_at DESC, r.rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	rows.Close()

	for i := range runs {
		ranks, err := s.rankStates(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Ranks = ranks
	}
	return runs, nil
}

const runSelect = `SELECT r.id, r.model, r.language, r.manifest, r.output, r.world_size, r.created_at,
        COUNT(u.audio_filepath), COALESCE(SUM(u.duration), 0), AVG(u.mean_score)
    FROM runs r
    LEFT JOIN utterances u ON u.run_id = r.id`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		run       Run
		createdAt string
		mean      sql.NullFloat64
	)
	if err := row.Scan(
		&run.ID,
		&run.Model,
		&run.Language,
		&run.Manifest,
		&run.Output,
		&run.WorldSize,
		&createdAt,
		&run.Utterances,
		&run.AudioSeconds,
		&mean,
	); err != nil {
		return nil, err
	}
	run.CreatedAt = parseTime(createdAt)
	if mean.Valid {
		run.MeanScore = mean.Float64
	}
	return &run, nil
}

func (s *Store) rankStates(ctx context.Context, runID string) ([]RankState, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT rank, status, started_at, finished_at, error_kind, error_message
         FROM run_ranks WHERE run_id = ? ORDER BY rank`, runID)
	if err != nil {
		return nil, fmt.Errorf("load run ranks: %w", err)
	}
	defer rows.Close()

	var states []RankState
	for rows.Next() {
		var (
			state     RankState
			status    string
			startedAt string
			finished  sql.NullString
			kind      sql.NullString
			message   sql.NullString
		)
		if err := rows.Scan(&state.Rank, &status, &startedAt, &finished, &kind, &message); err != nil {
			return nil, fmt.Errorf("scan run rank: %w", err)
		}
		if parsed, ok := ParseStatus(status); ok {
			state.Status = parsed
		} else {
			state.Status = Status(status)
		}
		state.StartedAt = parseTime(startedAt)
		state.FinishedAt = parseNullTime(finished)
		state.ErrorKind = kind.String
		state.ErrorMessage = message.String
		states = append(states, state)
	}
	return states, rows.Err()
}
