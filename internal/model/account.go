// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Account はサービス利用アカウントを表す。
// 外部IdPのsubject（ExternalID）ごとに1件だけ存在する。
// Email と DisplayName は作成時のプロフィールから設定し、ログイン時には再同期しない。
type Account struct {
	ID          string
	ExternalID  string
	Email       string
	DisplayName string
	CreatedAt   time.Time
}

// NewAccount は新しいAccountを生成する。
// externalID と email が空の場合はエラーを返す。
func NewAccount(externalID, email, displayName string) (*Account, error) {
	externalID = strings.TrimSpace(externalID)
	email = strings.TrimSpace(email)
	if externalID == "" {
		return nil, errors.New("external ID is required")
	}
	if email == "" {
		return nil, errors.New("email is required")
	}

	return &Account{
		ID:          uuid.New().String(),
		ExternalID:  externalID,
		Email:       email,
		DisplayName: strings.TrimSpace(displayName),
		CreatedAt:   time.Now().UTC(),
	}, nil
}
