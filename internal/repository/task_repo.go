package repository

import (
	"context"
	"fmt"

	"github.com/hitoshi/todoapi/internal/database"
	"github.com/hitoshi/todoapi/internal/model"
)

// SQLTaskRepo はdatabase/sqlを使用したタスクリポジトリ。
// 更新・削除は (id, owner_id) を条件とする単一レコードの操作として実行する。
type SQLTaskRepo struct {
	db *database.DB
}

// NewSQLTaskRepo はSQLTaskRepoを生成する。
func NewSQLTaskRepo(db *database.DB) *SQLTaskRepo {
	return &SQLTaskRepo{db: db}
}

const taskColumns = `id, owner_id, title, description, completed, created_at`

// ListByOwner は所有者のタスクを作成日時の昇順で返す。
// 作成日時が同じ場合はUUIDv7のIDで作成順を保つ。
// タスクがない場合は空のスライスを返す。
func (r *SQLTaskRepo) ListByOwner(ctx context.Context, ownerID string) ([]*model.Task, error) {
	rows, err := r.db.QueryContext(ctx,
		r.db.Rebind(`SELECT `+taskColumns+`
		 FROM tasks
		 WHERE owner_id = $1
		 ORDER BY created_at ASC, id ASC`),
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]*model.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}

	return tasks, nil
}

// Create はタスクを作成する。
func (r *SQLTaskRepo) Create(ctx context.Context, task *model.Task) error {
	_, err := r.db.ExecContext(ctx,
		r.db.Rebind(`INSERT INTO tasks (`+taskColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6)`),
		task.ID, task.OwnerID, task.Title, task.Description, task.Completed, task.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

// UpdateByOwner は所有者のタスクを部分更新し、更新後のタスクを返す。
// patchのnilフィールドはCOALESCEにより現在値を維持する。
// 更新と再取得は同一トランザクション内で行う。該当タスクがない場合はnilを返す。
func (r *SQLTaskRepo) UpdateByOwner(ctx context.Context, ownerID, id string, patch model.TaskPatch) (*model.Task, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		r.db.Rebind(`UPDATE tasks
		 SET title = COALESCE($3, title),
		     description = COALESCE($4, description),
		     completed = COALESCE($5, completed)
		 WHERE id = $1 AND owner_id = $2`),
		id, ownerID, patch.Title, patch.Description, patch.Completed,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, nil
	}

	task, err := scanTask(tx.QueryRowContext(ctx,
		r.db.Rebind(`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND owner_id = $2`),
		id, ownerID,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to reload task: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return task, nil
}

// DeleteByOwner は所有者のタスクを削除する。
// 該当タスクがなく削除しなかった場合はfalseを返す。
func (r *SQLTaskRepo) DeleteByOwner(ctx context.Context, ownerID, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		r.db.Rebind(`DELETE FROM tasks WHERE id = $1 AND owner_id = $2`),
		id, ownerID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete task: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// StatsByOwner は所有者のタスク総数と完了数を返す。
// タスクがない場合は {0, 0} を返す。
func (r *SQLTaskRepo) StatsByOwner(ctx context.Context, ownerID string) (model.TaskStats, error) {
	var stats model.TaskStats
	err := r.db.QueryRowContext(ctx,
		r.db.Rebind(`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN completed THEN 1 ELSE 0 END), 0)
		 FROM tasks
		 WHERE owner_id = $1`),
		ownerID,
	).Scan(&stats.Total, &stats.Completed)
	if err != nil {
		return model.TaskStats{}, fmt.Errorf("failed to aggregate tasks: %w", err)
	}
	return stats, nil
}

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(s rowScanner) (*model.Task, error) {
	task := &model.Task{}
	if err := s.Scan(
		&task.ID, &task.OwnerID, &task.Title, &task.Description, &task.Completed, &task.CreatedAt,
	); err != nil {
		return nil, err
	}
	task.CreatedAt = task.CreatedAt.UTC()
	return task, nil
}

// compile-time interface check
var _ TaskRepository = (*SQLTaskRepo)(nil)
