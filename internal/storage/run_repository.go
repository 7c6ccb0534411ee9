package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/room-vacancy/backend/internal/storage/models"
)

// ErrRunNotFound is returned when a run ID does not exist.
var ErrRunNotFound = errors.New("run not found")

// RunRepository provides data access for availability runs.
type RunRepository struct {
	BaseRepository
}

// NewRunRepository creates a new run repository.
func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

const runColumns = `id, triggered_by, started_at, finished_at, status, courses, skipped,
	places, rooms, unresolved, error`

// Create inserts a run in the running state, assigning its ID and start time.
func (r *RunRepository) Create(ctx context.Context, run *models.AvailabilityRun) error {
	run.ID = GenerateID()
	run.StartedAt = r.Now()
	run.Status = models.RunStatusRunning
	if run.TriggeredBy == "" {
		run.TriggeredBy = models.RunTriggerManual
	}

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO availability_runs (id, triggered_by, started_at, status)
		VALUES (?, ?, ?, ?)
	`, run.ID, run.TriggeredBy, run.StartedAt, run.Status)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	return nil
}

// Finish records a run's outcome and counts.
func (r *RunRepository) Finish(ctx context.Context, run *models.AvailabilityRun) error {
	now := r.Now()
	run.FinishedAt = &now

	result, err := r.DB().ExecContext(ctx, `
		UPDATE availability_runs SET
			finished_at = ?, status = ?, courses = ?, skipped = ?,
			places = ?, rooms = ?, unresolved = ?, error = ?
		WHERE id = ?
	`,
		run.FinishedAt, run.Status, run.Courses, run.Skipped,
		run.Places, run.Rooms, run.Unresolved, run.Error, run.ID,
	)
	if err != nil {
		return fmt.Errorf("updating run: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, run.ID)
	}
	return nil
}

// GetByID retrieves a run by its ID.
func (r *RunRepository) GetByID(ctx context.Context, id string) (*models.AvailabilityRun, error) {
	row := r.DB().QueryRowContext(ctx, "SELECT "+runColumns+" FROM availability_runs WHERE id = ?", id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying run: %w", err)
	}
	return run, nil
}

// ListRecent returns up to limit runs, newest first.
func (r *RunRepository) ListRecent(ctx context.Context, limit int) ([]models.AvailabilityRun, error) {
	rows, err := r.DB().QueryContext(ctx,
		"SELECT "+runColumns+" FROM availability_runs ORDER BY started_at DESC, rowid DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	runs := []models.AvailabilityRun{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// MarkInterrupted closes runs left in the running state by a previous
// process.
func (r *RunRepository) MarkInterrupted(ctx context.Context) (int64, error) {
	msg := "interrupted by restart"
	result, err := r.DB().ExecContext(ctx, `
		UPDATE availability_runs SET status = ?, finished_at = ?, error = ?
		WHERE status = ?
	`, models.RunStatusError, r.Now(), msg, models.RunStatusRunning)
	if err != nil {
		return 0, fmt.Errorf("marking interrupted runs: %w", err)
	}
	return result.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*models.AvailabilityRun, error) {
	var run models.AvailabilityRun
	if err := row.Scan(
		&run.ID, &run.TriggeredBy, &run.StartedAt, &run.FinishedAt, &run.Status,
		&run.Courses, &run.Skipped, &run.Places, &run.Rooms, &run.Unresolved, &run.Error,
	); err != nil {
		return nil, err
	}
	return &run, nil
}
