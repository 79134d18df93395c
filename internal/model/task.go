package model

import (
	"time"

	"github.com/google/uuid"
)

// Task はアカウントが所有するタスクを表す。
// OwnerID と CreatedAt は作成後に変更しない。
type Task struct {
	ID          string
	OwnerID     string
	Title       string
	Description string
	Completed   bool
	CreatedAt   time.Time
}

// NewTask は未完了状態の新しいTaskを生成する。
// IDは時刻順に単調増加するUUIDv7で、同一時刻に作成したタスクも作成順に並ぶ。
// 入力値の検証は呼び出し側（task.Service）で行う。
func NewTask(ownerID, title, description string) *Task {
	return &Task{
		ID:          uuid.Must(uuid.NewV7()).String(),
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		Completed:   false,
		CreatedAt:   time.Now().UTC(),
	}
}

// TaskPatch はタスクの部分更新内容を表す。
// nilのフィールドは変更しない。
type TaskPatch struct {
	Title       *string
	Description *string
	Completed   *bool
}

// IsEmpty は変更対象のフィールドが1つもない場合にtrueを返す。
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Completed == nil
}

// TaskStats はアカウントのタスク集計値。
type TaskStats struct {
	Total     int
	Completed int
}
