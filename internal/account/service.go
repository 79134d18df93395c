// Package account はアカウント管理のドメインロジックを提供する。
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/todoapi/internal/model"
	"github.com/hitoshi/todoapi/internal/repository"
)

// Profile は外部IdPで検証済みのプロフィール。
type Profile struct {
	ExternalID  string
	Email       string
	DisplayName string
}

// Service はアカウント管理のサービス層。
type Service struct {
	repo repository.AccountRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.AccountRepository) *Service {
	return &Service{repo: repo}
}

// FindByID は指定IDのアカウントを取得する。見つからない場合はnilを返す。
func (s *Service) FindByID(ctx context.Context, id string) (*model.Account, error) {
	return s.repo.FindByID(ctx, id)
}

// FindOrCreate はexternal_idでアカウントを検索し、存在しなければ作成する。
// 同一external_idの初回ログインが競合した場合は一意制約違反を受けて再取得し、
// 先に作成されたアカウントを返す。既存アカウントのemail・表示名は更新しない。
func (s *Service) FindOrCreate(ctx context.Context, profile Profile) (*model.Account, error) {
	existing, err := s.repo.FindByExternalID(ctx, profile.ExternalID)
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	account, err := model.NewAccount(profile.ExternalID, profile.Email, profile.DisplayName)
	if err != nil {
		return nil, fmt.Errorf("invalid profile: %w", err)
	}

	err = s.repo.Create(ctx, account)
	if errors.Is(err, repository.ErrDuplicateExternalID) {
		winner, findErr := s.repo.FindByExternalID(ctx, profile.ExternalID)
		if findErr != nil {
			return nil, fmt.Errorf("failed to re-read account after conflict: %w", findErr)
		}
		if winner == nil {
			return nil, fmt.Errorf("account vanished after unique conflict: %w", err)
		}
		return winner, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	slog.Info("new account created",
		slog.String("account_id", account.ID),
		slog.String("email", account.Email),
	)

	return account, nil
}
