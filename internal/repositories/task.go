package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/studyx/internal/models"
	"github.com/desertthunder/studyx/internal/shared"
)

// SaveRecord is one row of the save history.
type SaveRecord struct {
	ID      string    `json:"id"`
	TaskID  int       `json:"taskId"`
	Code    string    `json:"code"`
	Correct *bool     `json:"correct"`
	SavedAt time.Time `json:"savedAt"`
}

// TaskRepository stores the current state of every task and the history of saves.
type TaskRepository struct {
	db *sql.DB
}

// NewTaskRepository creates a new TaskRepository with the given database connection
func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Get returns the stored code and verdict for taskID, or [shared.ErrTaskNotFound].
func (r *TaskRepository) Get(ctx context.Context, taskID int) (models.TaskResult, error) {
	query := `SELECT code, correct FROM tasks WHERE task_id = ?`

	var (
		result  models.TaskResult
		correct sql.NullBool
	)
	err := r.db.QueryRowContext(ctx, query, taskID).Scan(&result.Code, &correct)
	if errors.Is(err, sql.ErrNoRows) {
		return models.TaskResult{}, fmt.Errorf("%w: %d", shared.ErrTaskNotFound, taskID)
	}
	if err != nil {
		return models.TaskResult{}, fmt.Errorf("failed to get task: %w", err)
	}

	result.Correct = boolPtr(correct)
	return result, nil
}

// Save upserts the task and appends the request to the save history.
//
// A nil verdict keeps whatever verdict the task already had.
func (r *TaskRepository) Save(ctx context.Context, req models.SaveRequest) error {
	now := time.Now().UTC()

	upsert := `
		INSERT INTO tasks (task_id, code, correct, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(task_id) DO UPDATE SET
			code = excluded.code,
			correct = COALESCE(excluded.correct, tasks.correct),
			updated_at = excluded.updated_at
	`
	history := `
		INSERT INTO task_saves (id, task_id, code, correct, saved_at)
		VALUES (?, ?, ?, ?, ?)
	`

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, upsert, req.TaskID, req.Code, nullBool(req.Correct), now, now); err != nil {
			return fmt.Errorf("failed to save task: %w", err)
		}
		if _, err := tx.ExecContext(ctx, history, shared.GenerateID(), req.TaskID, req.Code, nullBool(req.Correct), now); err != nil {
			return fmt.Errorf("failed to record save: %w", err)
		}
		return nil
	})
}

// Progress lists evaluated task ids, each list in ascending order.
func (r *TaskRepository) Progress(ctx context.Context) (models.ProgressResult, error) {
	query := `SELECT task_id, correct FROM tasks WHERE correct IS NOT NULL ORDER BY task_id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return models.ProgressResult{}, fmt.Errorf("failed to query progress: %w", err)
	}
	defer rows.Close()

	result := models.ProgressResult{Correct: []int{}, Incorrect: []int{}}
	for rows.Next() {
		var (
			id      int
			correct bool
		)
		if err := rows.Scan(&id, &correct); err != nil {
			return models.ProgressResult{}, fmt.Errorf("failed to scan progress: %w", err)
		}
		if correct {
			result.Correct = append(result.Correct, id)
		} else {
			result.Incorrect = append(result.Incorrect, id)
		}
	}

	if err := rows.Err(); err != nil {
		return models.ProgressResult{}, fmt.Errorf("failed to iterate progress: %w", err)
	}
	return result, nil
}

// History returns the saves recorded for taskID, oldest first.
func (r *TaskRepository) History(ctx context.Context, taskID int) ([]SaveRecord, error) {
	query := `
		SELECT id, task_id, code, correct, saved_at
		FROM task_saves
		WHERE task_id = ?
		ORDER BY saved_at ASC, rowid ASC
	`

	rows, err := r.db.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	records := []SaveRecord{}
	for rows.Next() {
		var (
			rec     SaveRecord
			correct sql.NullBool
		)
		if err := rows.Scan(&rec.ID, &rec.TaskID, &rec.Code, &correct, &rec.SavedAt); err != nil {
			return nil, fmt.Errorf("failed to scan save: %w", err)
		}
		rec.Correct = boolPtr(correct)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}
	return records, nil
}

// Count returns the number of stored tasks.
func (r *TaskRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return n, nil
}
