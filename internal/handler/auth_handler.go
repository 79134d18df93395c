// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/hitoshi/todoapi/internal/auth"
	"github.com/hitoshi/todoapi/internal/metrics"
	"github.com/hitoshi/todoapi/internal/middleware"
	"github.com/hitoshi/todoapi/internal/model"
)

const (
	oauthStateCookie = "oauth_state"
	oauthStateMaxAge = 600 // 10分
	tokenQueryParam  = "token"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	GetLoginURL(state string) string
	HandleCallback(ctx context.Context, code string) (string, *model.Account, error)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	FrontendURL  string // ログイン成功後のリダイレクト先
	CookieSecure bool
}

// AuthHandler はOAuth認証関連のHTTPハンドラー。
type AuthHandler struct {
	service  AuthServiceInterface
	config   AuthHandlerConfig
	recorder metrics.Recorder
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig, recorder metrics.Recorder) *AuthHandler {
	return &AuthHandler{
		service:  service,
		config:   config,
		recorder: recorder,
	}
}

// Login はGoogle OAuthフローを開始する。
// GET /auth/google
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state, err := generateState()
	if err != nil {
		slog.Error("failed to generate oauth state", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	// stateをCookieに保存（CSRF対策）
	h.setStateCookie(w, state, oauthStateMaxAge)

	http.Redirect(w, r, h.service.GetLoginURL(state), http.StatusFound)
}

// Callback はOAuthコールバックを処理し、発行したトークンを付けてフロントエンドにリダイレクトする。
// GET /auth/google/callback?code=xxx&state=yyy
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	// 1. stateの検証（CSRF対策）
	state := query.Get("state")
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || state == "" || stateCookie.Value != state {
		slog.Warn("oauth state mismatch", slog.String("query_state", state))
		h.rejectLogin(w)
		return
	}
	h.setStateCookie(w, "", -1)

	// 2. IdP側でのキャンセル・拒否
	if providerErr := query.Get("error"); providerErr != "" {
		slog.Warn("oauth provider returned error", slog.String("error", providerErr))
		h.rejectLogin(w)
		return
	}

	// 3. 認証処理（本人確認 → アカウント取得/作成 → トークン発行）
	token, _, err := h.service.HandleCallback(r.Context(), query.Get("code"))
	if err != nil {
		if errors.Is(err, auth.ErrIdentityVerification) {
			slog.Warn("oauth callback failed", slog.String("error", err.Error()))
			h.rejectLogin(w)
			return
		}
		h.recorder.RecordLogin(metrics.LoginFailure)
		handleServiceError(w, err)
		return
	}

	redirectURL, err := withTokenQuery(h.config.FrontendURL, token)
	if err != nil {
		slog.Error("invalid frontend url", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	h.recorder.RecordLogin(metrics.LoginSuccess)

	// 4. トークン付きでフロントエンドにリダイレクト
	http.Redirect(w, r, redirectURL, http.StatusFound)
}

// Me は現在の認証済みアカウント情報を返す。
// GET /api/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	account, err := middleware.AccountFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	writeJSON(w, http.StatusOK, accountResponse{
		ID:          account.ID,
		Email:       account.Email,
		DisplayName: account.DisplayName,
	})
}

// accountResponse はアカウント情報のAPIレスポンス。
type accountResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

func (h *AuthHandler) rejectLogin(w http.ResponseWriter) {
	h.recorder.RecordLogin(metrics.LoginFailure)
	middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewIdentityVerificationError())
}

func (h *AuthHandler) setStateCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    value,
		Path:     "/auth",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// withTokenQuery はフロントエンドURLにtokenクエリパラメータを付与する。
// 既存のクエリパラメータは保持する。
func withTokenQuery(frontendURL, token string) (string, error) {
	u, err := url.Parse(frontendURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set(tokenQueryParam, token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// generateState はCSRF対策用のランダムなstate値を生成する。
func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
