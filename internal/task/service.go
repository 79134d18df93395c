// Package task はアカウントごとのタスク管理のドメインロジックを提供する。
package task

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/hitoshi/todoapi/internal/model"
	"github.com/hitoshi/todoapi/internal/repository"
	"github.com/hitoshi/todoapi/internal/security"
)

const (
	// MaxTitleLength はタイトルの最大文字数。
	MaxTitleLength = 200
	// MaxDescriptionLength は説明の最大文字数。
	MaxDescriptionLength = 2000
)

// Service はタスク管理のサービス層。
// すべての操作は認証済みアカウント（ownerID）のタスクに限定される。
// 他アカウントのタスクは存在しないタスクと同じくTASK_NOT_FOUNDとして扱う。
type Service struct {
	repo   repository.TaskRepository
	markup security.MarkupGuard
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.TaskRepository, markup security.MarkupGuard) *Service {
	return &Service{
		repo:   repo,
		markup: markup,
	}
}

// List は所有者のタスクを作成順に返す。
func (s *Service) List(ctx context.Context, ownerID string) ([]*model.Task, error) {
	tasks, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("タスク一覧の取得に失敗しました: %w", err)
	}
	return tasks, nil
}

// Create はタスクを作成する。
// タイトルと説明は前後の空白だけを除いて保存する。
// タイトルが空の場合やマークアップを含む場合はVALIDATION_ERRORを返す。
func (s *Service) Create(ctx context.Context, ownerID, title, description string) (*model.Task, error) {
	cleanTitle, err := s.validateTitle(title)
	if err != nil {
		return nil, err
	}
	cleanDescription, err := s.validateDescription(description)
	if err != nil {
		return nil, err
	}

	task := model.NewTask(ownerID, cleanTitle, cleanDescription)
	if err := s.repo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("タスクの作成に失敗しました: %w", err)
	}
	return task, nil
}

// Update はpatchに含まれるフィールドだけを更新し、更新後のタスクを返す。
// 空のpatchの場合は変更せずに現在のタスクを返す。
func (s *Service) Update(ctx context.Context, ownerID, taskID string, patch model.TaskPatch) (*model.Task, error) {
	if !isTaskID(taskID) {
		return nil, model.NewTaskNotFoundError(taskID)
	}

	if patch.Title != nil {
		cleanTitle, err := s.validateTitle(*patch.Title)
		if err != nil {
			return nil, err
		}
		patch.Title = &cleanTitle
	}
	if patch.Description != nil {
		cleanDescription, err := s.validateDescription(*patch.Description)
		if err != nil {
			return nil, err
		}
		patch.Description = &cleanDescription
	}

	task, err := s.repo.UpdateByOwner(ctx, ownerID, taskID, patch)
	if err != nil {
		return nil, fmt.Errorf("タスクの更新に失敗しました: %w", err)
	}
	if task == nil {
		return nil, model.NewTaskNotFoundError(taskID)
	}
	return task, nil
}

// Delete はタスクを削除する。
func (s *Service) Delete(ctx context.Context, ownerID, taskID string) error {
	if !isTaskID(taskID) {
		return model.NewTaskNotFoundError(taskID)
	}

	deleted, err := s.repo.DeleteByOwner(ctx, ownerID, taskID)
	if err != nil {
		return fmt.Errorf("タスクの削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewTaskNotFoundError(taskID)
	}
	return nil
}

// Stats は所有者のタスク総数と完了数を返す。タスクがない場合は {0, 0}。
func (s *Service) Stats(ctx context.Context, ownerID string) (model.TaskStats, error) {
	stats, err := s.repo.StatsByOwner(ctx, ownerID)
	if err != nil {
		return model.TaskStats{}, fmt.Errorf("タスク集計に失敗しました: %w", err)
	}
	return stats, nil
}

func (s *Service) validateTitle(title string) (string, error) {
	clean := strings.TrimSpace(title)
	if clean == "" {
		return "", model.NewValidationError("title", "必須項目です")
	}
	if s.markup.ContainsMarkup(clean) {
		return "", model.NewValidationError("title", "HTMLタグは使用できません")
	}
	if utf8.RuneCountInString(clean) > MaxTitleLength {
		return "", model.NewValidationError("title", fmt.Sprintf("%d文字以内で入力してください", MaxTitleLength))
	}
	return clean, nil
}

func (s *Service) validateDescription(description string) (string, error) {
	clean := strings.TrimSpace(description)
	if s.markup.ContainsMarkup(clean) {
		return "", model.NewValidationError("description", "HTMLタグは使用できません")
	}
	if utf8.RuneCountInString(clean) > MaxDescriptionLength {
		return "", model.NewValidationError("description", fmt.Sprintf("%d文字以内で入力してください", MaxDescriptionLength))
	}
	return clean, nil
}

// isTaskID はタスクIDとして解釈可能な形式かを判定する。
// 不正な形式のIDは存在しないタスクと同じ扱いにする。
func isTaskID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
