package repository

import (
	"context"
	"fmt"

	"github.com/whompratt/claans/internal/domain"
	"github.com/whompratt/claans/pkg/database"
)

type TaskRepository struct {
	db *database.DB
}

func NewTaskRepository(db *database.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task domain.AddTaskRequest) (*domain.Task, error) {
	conn := r.db.Conn(ctx)

	var created domain.Task
	err := conn.QueryRowContext(ctx, `
		INSERT INTO tasks (description, reward, ephemeral)
		VALUES ($1, $2, $3)
		RETURNING id, description, reward, ephemeral, active
	`, task.Description, task.Reward, task.Ephemeral).Scan(
		&created.ID, &created.Description, &created.Reward, &created.Ephemeral, &created.Active,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert task: %w", err)
	}

	return &created, nil
}

func (r *TaskRepository) GetByID(ctx context.Context, taskID int64) (*domain.Task, error) {
	conn := r.db.Conn(ctx)

	var task domain.Task
	err := conn.QueryRowContext(ctx, `
		SELECT id, description, reward, ephemeral, active
		FROM tasks
		WHERE id = $1
	`, taskID).Scan(&task.ID, &task.Description, &task.Reward, &task.Ephemeral, &task.Active)

	if err != nil {
		return nil, HandleNoRowsError(err)
	}

	return &task, nil
}

func (r *TaskRepository) List(ctx context.Context, activeOnly bool) ([]domain.Task, error) {
	conn := r.db.Conn(ctx)

	query := `
		SELECT id, description, reward, ephemeral, active
		FROM tasks
	`
	if activeOnly {
		query += " WHERE active"
	}
	query += " ORDER BY reward ASC"

	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		var task domain.Task
		if err := rows.Scan(&task.ID, &task.Description, &task.Reward, &task.Ephemeral, &task.Active); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	return tasks, rows.Err()
}

// DeactivateByReward clears the active flag on whichever task currently
// occupies the given reward tier. Returns the number of tasks deactivated.
func (r *TaskRepository) DeactivateByReward(ctx context.Context, reward domain.TaskReward) (int64, error) {
	conn := r.db.Conn(ctx)

	result, err := conn.ExecContext(ctx, `
		UPDATE tasks
		SET active = FALSE
		WHERE active AND reward = $1
	`, reward)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate tasks for reward tier: %w", err)
	}

	return result.RowsAffected()
}

func (r *TaskRepository) SetActive(ctx context.Context, taskID int64, active bool) error {
	conn := r.db.Conn(ctx)

	result, err := conn.ExecContext(ctx, `
		UPDATE tasks
		SET active = $1, last = CASE WHEN $1 THEN NOW() ELSE last END
		WHERE id = $2
	`, active, taskID)
	if err != nil {
		return fmt.Errorf("failed to set task active: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, taskID int64) error {
	conn := r.db.Conn(ctx)

	result, err := conn.ExecContext(ctx, "DELETE FROM tasks WHERE id = $1", taskID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}
