// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/todoapi/internal/auth"
	"github.com/hitoshi/todoapi/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// accountContextKey はリクエストコンテキストに認証済みアカウントを格納するためのキー。
var accountContextKey = contextKey("account")

// TokenVerifier はBearerトークンを検証しアカウントIDを返すインターフェース。
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// AccountFinder はアカウントの検索に必要なインターフェース。
type AccountFinder interface {
	FindByID(ctx context.Context, id string) (*model.Account, error)
}

// AuthRejectFunc は認証拒否時に理由を受け取るコールバック。メトリクス記録に使う。
type AuthRejectFunc func(reason string)

// 認証拒否の理由
const (
	RejectMissingCredentials = "missing_credentials"
	RejectMalformedToken     = "malformed_token"
	RejectInvalidSignature   = "invalid_signature"
	RejectExpiredToken       = "expired_token"
	RejectUnknownAccount     = "unknown_account"
)

// NewAuthMiddleware はAuthorizationヘッダーのBearerトークンを検証するミドルウェアを返す。
// 検証後にアカウントを取得し、リクエストコンテキストに注入する。
// 資格情報がない、検証に失敗した、またはアカウントが存在しない場合は401を返す。
// onRejectはnilでもよい。
func NewAuthMiddleware(verifier TokenVerifier, accounts AccountFinder, onReject AuthRejectFunc) func(next http.Handler) http.Handler {
	reject := func(w http.ResponseWriter, reason string) {
		if onReject != nil {
			onReject(reason)
		}
		WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. Bearerトークンを取得
			token, ok := bearerToken(r)
			if !ok {
				reject(w, RejectMissingCredentials)
				return
			}

			// 2. トークンを検証（データベースは参照しない）
			accountID, err := verifier.Verify(token)
			if err != nil {
				reason := rejectReason(err)
				slog.Warn("token verification failed",
					slog.String("reason", reason),
					slog.String("path", r.URL.Path),
				)
				reject(w, reason)
				return
			}

			// 3. アカウントの存在確認
			account, err := accounts.FindByID(r.Context(), accountID)
			if err != nil {
				slog.Error("failed to find account",
					slog.String("account_id", accountID),
					slog.String("error", err.Error()),
				)
				WriteInternalServerError(w)
				return
			}
			if account == nil {
				reject(w, RejectUnknownAccount)
				return
			}

			// 4. 認証済みアカウントをコンテキストに注入
			recordAccountID(r.Context(), account.ID)
			next.ServeHTTP(w, r.WithContext(ContextWithAccount(r.Context(), account)))
		})
	}
}

// bearerToken はAuthorizationヘッダーからBearerトークンを取り出す。
// スキーム名は大文字小文字を区別しない。
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return RejectExpiredToken
	case errors.Is(err, auth.ErrInvalidSignature):
		return RejectInvalidSignature
	default:
		return RejectMalformedToken
	}
}

// AccountFromContext はリクエストコンテキストから認証済みアカウントを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func AccountFromContext(ctx context.Context) (*model.Account, error) {
	account, ok := ctx.Value(accountContextKey).(*model.Account)
	if !ok || account == nil {
		return nil, fmt.Errorf("account not found in context")
	}
	return account, nil
}

// AccountIDFromContext はリクエストコンテキストから認証済みアカウントIDを取得する。
func AccountIDFromContext(ctx context.Context) (string, error) {
	account, err := AccountFromContext(ctx)
	if err != nil {
		return "", err
	}
	return account.ID, nil
}

// ContextWithAccount はコンテキストにアカウントを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithAccount(ctx context.Context, account *model.Account) context.Context {
	return context.WithValue(ctx, accountContextKey, account)
}
