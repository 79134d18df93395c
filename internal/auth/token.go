package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrVerification はBearerトークン検証失敗の共通エラー。
	ErrVerification = errors.New("token verification failed")

	// ErrMalformedToken はトークンを解析できない場合に返る。
	ErrMalformedToken = fmt.Errorf("%w: malformed token", ErrVerification)

	// ErrInvalidSignature は署名が改ざんされているか、異なる秘密鍵で署名された場合に返る。
	ErrInvalidSignature = fmt.Errorf("%w: invalid signature", ErrVerification)

	// ErrExpiredToken は有効期限を過ぎたトークンの場合に返る。
	ErrExpiredToken = fmt.Errorf("%w: token expired", ErrVerification)

	// ErrMissingSigningSecret は署名用の秘密鍵が設定されていない場合に返る。起動時の致命的エラー。
	ErrMissingSigningSecret = errors.New("token signing secret is not configured")
)

// TokenVerifier はBearerトークンを検証しアカウントIDを取り出すインターフェース。
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// TokenManager はHS256署名のJWTを発行・検証する。
// 検証は秘密鍵のみで完結し、データベースを参照しない。
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager はTokenManagerを生成する。
// ttlが0の場合は有効期限を設定しない。
func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrMissingSigningSecret
	}
	if ttl < 0 {
		return nil, fmt.Errorf("token TTL must not be negative: %s", ttl)
	}
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Issue はアカウントIDを束縛した署名付きトークンを発行する。
func (m *TokenManager) Issue(accountID string) (string, error) {
	if accountID == "" {
		return "", errors.New("account ID is required")
	}

	now := m.now()
	claims := jwt.RegisteredClaims{
		Subject:  accountID,
		IssuedAt: jwt.NewNumericDate(now),
		ID:       uuid.New().String(),
	}
	if m.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(m.ttl))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify はトークンの署名と有効期限を検証し、束縛されたアカウントIDを返す。
// 失敗時はErrMalformedToken, ErrInvalidSignature, ErrExpiredTokenのいずれかを返す。
func (m *TokenManager) Verify(token string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return "", mapJWTError(err)
	}

	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrMalformedToken)
	}
	return claims.Subject, nil
}

// mapJWTError はjwtライブラリのエラーを検証エラーに変換する。
func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpiredToken
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrInvalidSignature
	default:
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
}

// compile-time interface check
var _ TokenVerifier = (*TokenManager)(nil)
