// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/hitoshi/rideshare/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userIDContextKey はリクエストコンテキストにアカウントIDを格納するためのキー。
var userIDContextKey = contextKey("user_id")

// roleContextKey はリクエストコンテキストにアカウント種別を格納するためのキー。
var roleContextKey = contextKey("role")

// TokenVerifier はアクセストークンの検証に必要なインターフェース。
// auth.TokenIssuerの部分集合として定義する。
type TokenVerifier interface {
	Verify(token string) (string, model.Role, error)
}

// TokenFailureRecorder はトークン検証失敗のメトリクス記録インターフェース。
type TokenFailureRecorder interface {
	RecordTokenVerifyFailure(reason string)
}

// NewAuthMiddleware はAuthorizationヘッダーのBearerトークンを検証し、
// アカウントIDと種別をリクエストコンテキストに注入するミドルウェアを返す。
// サーバー側のセッション状態は持たず、トークンの署名と有効期限のみで判定する。
// metricsはnil可。
func NewAuthMiddleware(verifier TokenVerifier, metrics TokenFailureRecorder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. AuthorizationヘッダーからBearerトークンを取得
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			// 2. トークンの署名・有効期限・クレームを検証
			userID, role, err := verifier.Verify(token)
			if err != nil {
				apiErr, ok := err.(*model.APIError)
				if !ok {
					apiErr = model.NewMalformedTokenError()
				}
				if metrics != nil {
					metrics.RecordTokenVerifyFailure(failureReason(apiErr.Code))
				}
				WriteErrorResponse(w, http.StatusUnauthorized, apiErr)
				return
			}

			// 3. 認証済みアカウントのIDと種別をコンテキストに注入
			ctx := ContextWithUserID(r.Context(), userID)
			ctx = ContextWithRole(ctx, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// failureReason はエラーコードをメトリクスのreasonラベルに変換する。
func failureReason(code string) string {
	switch code {
	case model.ErrCodeExpiredToken:
		return "expired"
	case model.ErrCodeInvalidSignature:
		return "invalid_signature"
	default:
		return "malformed"
	}
}

// RequireRole は指定種別のアカウントのみを通過させるミドルウェアを返す。
// AuthMiddlewareの後に配置する。
func RequireRole(role model.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, err := RoleFromContext(r.Context())
			if err != nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}
			if got != role {
				WriteErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserIDFromContext はリクエストコンテキストからアカウントIDを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// RoleFromContext はリクエストコンテキストからアカウント種別を取得する。
func RoleFromContext(ctx context.Context) (model.Role, error) {
	role, ok := ctx.Value(roleContextKey).(model.Role)
	if !ok || !role.Valid() {
		return "", fmt.Errorf("role not found in context")
	}
	return role, nil
}

// ContextWithUserID はコンテキストにアカウントIDを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// ContextWithRole はコンテキストにアカウント種別を注入する。
func ContextWithRole(ctx context.Context, role model.Role) context.Context {
	return context.WithValue(ctx, roleContextKey, role)
}
