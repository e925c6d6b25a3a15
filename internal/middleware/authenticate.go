// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/hitoshi/taskman/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userIDContextKey はリクエストコンテキストにユーザーIDを格納するためのキー。
var userIDContextKey = contextKey("user_id")

// Authorizer はアクセストークンを検証してユーザーIDを返すインターフェース。
// auth.Serviceが満たす。
type Authorizer interface {
	Authorize(ctx context.Context, accessToken string) (int64, error)
}

// AccessTokenFromHeader はAuthorizationヘッダーからアクセストークンを取り出す。
// "Bearer <token>" と、トークンのみの形式の両方を受け付ける。
func AccessTokenFromHeader(r *http.Request) string {
	value := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(value) > 7 && strings.EqualFold(value[:7], "bearer ") {
		return strings.TrimSpace(value[7:])
	}
	return value
}

// NewAuthMiddleware はAuthorizationヘッダーのアクセストークンを検証するミドルウェアを返す。
// 認証済みユーザーIDをリクエストコンテキストに注入する。
func NewAuthMiddleware(authorizer Authorizer) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. ヘッダーからトークンを取得
			token := AccessTokenFromHeader(r)
			if token == "" {
				WriteErrorResponse(w, http.StatusUnauthorized, &model.APIError{
					Code:     model.ErrCodeUnauthorized,
					Message:  "Access token is missing from the header",
					Category: "auth",
					Action:   "Log in and send the access token in the Authorization header.",
				})
				return
			}

			// 2. トークンを検証
			userID, err := authorizer.Authorize(r.Context(), token)
			if err != nil {
				WriteAuthError(w, r, err)
				return
			}

			// 3. 認証済みユーザーIDをコンテキストに注入
			reportUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), userID)))
		})
	}
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (int64, error) {
	userID, ok := ctx.Value(userIDContextKey).(int64)
	if !ok || userID <= 0 {
		return 0, fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// ContextWithUserID はコンテキストにユーザーIDを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}
