package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hitoshi/taskman/internal/model"
)

const selectTask = `SELECT id, user_id, title, description, deadline, completed FROM tasks`

// PostgresTaskRepo はPostgreSQLを使用したタスクリポジトリ。
type PostgresTaskRepo struct {
	db *sql.DB
}

// NewPostgresTaskRepo はPostgresTaskRepoを生成する。
func NewPostgresTaskRepo(db *sql.DB) *PostgresTaskRepo {
	return &PostgresTaskRepo{db: db}
}

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*model.Task, error) {
	t := &model.Task{}
	var description sql.NullString
	var deadline sql.NullTime
	if err := row.Scan(&t.ID, &t.UserID, &t.Title, &description, &deadline, &t.Completed); err != nil {
		return nil, err
	}
	if description.Valid {
		t.Description = &description.String
	}
	if deadline.Valid {
		d := deadline.Time
		t.Deadline = &d
	}
	return t, nil
}

// FindByID は指定IDのタスクを取得する。見つからない場合はnilを返す。
func (r *PostgresTaskRepo) FindByID(ctx context.Context, userID, taskID int64) (*model.Task, error) {
	t, err := scanTask(r.db.QueryRowContext(ctx,
		selectTask+` WHERE id = $1 AND user_id = $2`,
		taskID, userID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return t, nil
}

// filterClause は完了フィルタに対応するWHERE句と引数を返す。
// $1は常にuser_idとする。
func filterClause(userID int64, filter model.TaskFilter) (string, []any) {
	switch filter {
	case model.TaskFilterComplete:
		return ` WHERE user_id = $1 AND completed = $2`, []any{userID, true}
	case model.TaskFilterIncomplete:
		return ` WHERE user_id = $1 AND completed = $2`, []any{userID, false}
	default:
		return ` WHERE user_id = $1`, []any{userID}
	}
}

// List はフィルタに一致するタスクをID昇順で取得する。
func (r *PostgresTaskRepo) List(ctx context.Context, userID int64, filter model.TaskFilter, limit, offset int) ([]*model.Task, error) {
	where, args := filterClause(userID, filter)
	args = append(args, limit, offset)
	query := fmt.Sprintf("%s%s ORDER BY id ASC LIMIT $%d OFFSET $%d", selectTask, where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}

	return tasks, nil
}

// Count はフィルタに一致するタスク数を返す。
func (r *PostgresTaskRepo) Count(ctx context.Context, userID int64, filter model.TaskFilter) (int, error) {
	where, args := filterClause(userID, filter)

	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return count, nil
}

// Create はタスクを作成し、採番されたIDをtask.IDに設定する。
func (r *PostgresTaskRepo) Create(ctx context.Context, task *model.Task) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO tasks (user_id, title, description, deadline, completed)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		task.UserID, task.Title, task.Description, task.Deadline, task.Completed,
	).Scan(&task.ID)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

// Update はタスクを部分更新し、更新後のタスクを返す。見つからない場合はnilを返す。
func (r *PostgresTaskRepo) Update(ctx context.Context, userID, taskID int64, patch model.TaskPatch) (*model.Task, error) {
	query, args, err := buildTaskUpdateQuery(userID, taskID, patch)
	if err != nil {
		return nil, err
	}

	t, err := scanTask(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return t, nil
}

// buildTaskUpdateQuery は指定されたフィールドだけをSET句に含めたUPDATE文を組み立てる。
func buildTaskUpdateQuery(userID, taskID int64, patch model.TaskPatch) (string, []any, error) {
	var sets []string
	var args []any

	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.ClearDescription {
		sets = append(sets, "description = NULL")
	} else if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.ClearDeadline {
		sets = append(sets, "deadline = NULL")
	} else if patch.Deadline != nil {
		set("deadline", *patch.Deadline)
	}
	if patch.Completed != nil {
		set("completed", *patch.Completed)
	}

	if len(sets) == 0 {
		return "", nil, fmt.Errorf("no task fields to update")
	}

	args = append(args, taskID, userID)
	query := fmt.Sprintf(
		"UPDATE tasks SET %s WHERE id = $%d AND user_id = $%d RETURNING id, user_id, title, description, deadline, completed",
		strings.Join(sets, ", "), len(args)-1, len(args),
	)
	return query, args, nil
}

// Delete は指定IDのタスクを削除する。
func (r *PostgresTaskRepo) Delete(ctx context.Context, userID, taskID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = $1 AND user_id = $2`,
		taskID, userID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete task: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

// compile-time interface check
var _ TaskRepository = (*PostgresTaskRepo)(nil)
