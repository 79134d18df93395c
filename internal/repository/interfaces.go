// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/todoapi/internal/model"
)

// ErrDuplicateExternalID は同一external_idのアカウントが既に存在する場合に返る。
// 初回ログインが同時に発生した場合の一意制約違反を表す。
var ErrDuplicateExternalID = errors.New("account with the same external ID already exists")

// AccountRepository はアカウントデータの永続化インターフェース。
type AccountRepository interface {
	// FindByID は指定IDのアカウントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Account, error)

	// FindByExternalID は外部IdPのsubjectでアカウントを取得する。見つからない場合はnilを返す。
	FindByExternalID(ctx context.Context, externalID string) (*model.Account, error)

	// Create はアカウントを作成する。
	// external_idが重複する場合はErrDuplicateExternalIDを返す。
	Create(ctx context.Context, account *model.Account) error
}

// TaskRepository はタスクデータの永続化インターフェース。
// 参照・更新・削除はすべて (id, owner_id) の組で絞り込む。
type TaskRepository interface {
	// ListByOwner は所有者のタスクを作成日時の昇順で返す。
	ListByOwner(ctx context.Context, ownerID string) ([]*model.Task, error)

	// Create はタスクを作成する。
	Create(ctx context.Context, task *model.Task) error

	// UpdateByOwner は所有者のタスクを部分更新し、更新後のタスクを返す。
	// 該当タスクがない場合はnilを返す。
	UpdateByOwner(ctx context.Context, ownerID, id string, patch model.TaskPatch) (*model.Task, error)

	// DeleteByOwner は所有者のタスクを削除する。
	// 該当タスクがなく削除しなかった場合はfalseを返す。
	DeleteByOwner(ctx context.Context, ownerID, id string) (bool, error)

	// StatsByOwner は所有者のタスク総数と完了数を返す。
	StatsByOwner(ctx context.Context, ownerID string) (model.TaskStats, error)
}
