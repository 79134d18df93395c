// Package auth はOAuthによる本人確認とBearerトークンの発行・検証を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/todoapi/internal/account"
	"github.com/hitoshi/todoapi/internal/model"
)

// ErrIdentityVerification は外部IdPでの本人確認に失敗した場合に返る。
var ErrIdentityVerification = errors.New("identity verification failed")

// OAuthUserInfo はOAuthプロバイダーから取得したユーザー情報を表す。
type OAuthUserInfo struct {
	ProviderUserID string
	Email          string
	Name           string
	Provider       string // "google"
}

// OAuthProvider はOAuth認証プロバイダーのインターフェース。
type OAuthProvider interface {
	// GetLoginURL はOAuth認証URLを生成する。
	GetLoginURL(state string) string
	// ExchangeCode は認可コードをトークンに交換し、ユーザー情報を取得する。
	ExchangeCode(ctx context.Context, code string) (*OAuthUserInfo, error)
}

// AccountResolver は検証済みプロフィールからアカウントを解決するインターフェース。
type AccountResolver interface {
	FindOrCreate(ctx context.Context, profile account.Profile) (*model.Account, error)
}

// TokenIssuer はアカウントIDに束縛したトークンを発行するインターフェース。
type TokenIssuer interface {
	Issue(accountID string) (string, error)
}

// Service はOAuthコールバックからトークン発行までの認証フローを提供する。
type Service struct {
	oauth    OAuthProvider
	accounts AccountResolver
	tokens   TokenIssuer
}

// NewService はServiceを生成する。
func NewService(oauth OAuthProvider, accounts AccountResolver, tokens TokenIssuer) *Service {
	return &Service{
		oauth:    oauth,
		accounts: accounts,
		tokens:   tokens,
	}
}

// GetLoginURL はOAuth認証URLを生成する。
func (s *Service) GetLoginURL(state string) string {
	return s.oauth.GetLoginURL(state)
}

// HandleCallback はOAuthコールバックを処理し、Bearerトークンを発行する。
// 未登録のexternal_idの場合はアカウントを自動作成する。
// 本人確認の失敗はErrIdentityVerificationをラップして返す。
func (s *Service) HandleCallback(ctx context.Context, code string) (string, *model.Account, error) {
	// 1. 認可コードをトークンに交換し、ユーザー情報を取得
	userInfo, err := s.oauth.ExchangeCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrIdentityVerification) {
			return "", nil, err
		}
		return "", nil, fmt.Errorf("%w: %v", ErrIdentityVerification, err)
	}
	if userInfo == nil || userInfo.ProviderUserID == "" || userInfo.Email == "" {
		return "", nil, fmt.Errorf("%w: incomplete profile", ErrIdentityVerification)
	}

	// 2. アカウントを検索、なければ作成
	acc, err := s.accounts.FindOrCreate(ctx, account.Profile{
		ExternalID:  userInfo.ProviderUserID,
		Email:       userInfo.Email,
		DisplayName: userInfo.Name,
	})
	if err != nil {
		return "", nil, fmt.Errorf("failed to resolve account: %w", err)
	}

	// 3. トークンを発行
	token, err := s.tokens.Issue(acc.ID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to issue token: %w", err)
	}

	slog.Info("account logged in",
		slog.String("account_id", acc.ID),
		slog.String("provider", userInfo.Provider),
	)

	return token, acc, nil
}
