package auth

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind は認証処理の失敗種別を表す。
// 値はログとメトリクスのラベルにもそのまま使用する。
type ErrorKind string

const (
	KindInvalidCredentials ErrorKind = "invalid_credentials"
	KindAccountInactive    ErrorKind = "account_inactive"
	KindAccountLocked      ErrorKind = "account_locked"
	KindInvalidSession     ErrorKind = "invalid_session"
	KindRefreshExpired     ErrorKind = "refresh_expired"
	KindRefreshConflict    ErrorKind = "refresh_conflict"
	KindSessionNotFound    ErrorKind = "session_not_found"
	KindInvalidToken       ErrorKind = "invalid_token"
	KindTokenExpired       ErrorKind = "token_expired"
	KindPersistence        ErrorKind = "persistence_error"
	KindEntropyUnavailable ErrorKind = "entropy_unavailable"
)

// genericServerMessage はサーバー側障害でクライアントに返す共通メッセージ。
const genericServerMessage = "There was an issue processing the request - please try again"

// StatusCode は種別に対応するHTTPステータスコードを返す。
func (k ErrorKind) StatusCode() int {
	switch k {
	case KindSessionNotFound:
		return http.StatusBadRequest
	case KindPersistence, KindEntropyUnavailable:
		return http.StatusInternalServerError
	case KindInvalidCredentials, KindAccountInactive, KindAccountLocked,
		KindInvalidSession, KindRefreshExpired, KindRefreshConflict,
		KindInvalidToken, KindTokenExpired:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// IsServerFault はサーバー側の障害かどうかを返す。
func (k ErrorKind) IsServerFault() bool {
	return k.StatusCode() >= http.StatusInternalServerError
}

// Message はクライアントに返すメッセージを返す。
// ユーザー名の存在有無が判別できないよう、認証情報の誤りは1つの文言にまとめる。
func (k ErrorKind) Message() string {
	switch k {
	case KindInvalidCredentials:
		return "Username or password is incorrect"
	case KindAccountInactive:
		return "User account is not active"
	case KindAccountLocked:
		return "User account is currently locked out"
	case KindInvalidSession:
		return "Access token or refresh token is incorrect for session id"
	case KindRefreshExpired:
		return "Refresh token has expired - please log in again"
	case KindRefreshConflict:
		return "Access token could not be refreshed - please log in again"
	case KindSessionNotFound:
		return "Failed to log out of this session using access token provided"
	case KindInvalidToken:
		return "Access token is invalid"
	case KindTokenExpired:
		return "Access token has expired"
	default:
		return genericServerMessage
	}
}

// Error は認証処理のエラー。Errにはサーバー側障害の原因を保持する。
type Error struct {
	Kind ErrorKind
	Err  error
}

// Error はerrorインターフェースを実装する。
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("auth %s", e.Kind)
}

// Unwrap は原因となったエラーを返す。
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf はエラーチェーンから認証エラーの種別を取り出す。
func KindOf(err error) (ErrorKind, bool) {
	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr.Kind, true
	}
	return "", false
}

func newError(kind ErrorKind) *Error {
	return &Error{Kind: kind}
}

func persistenceError(op string, err error) *Error {
	return &Error{Kind: KindPersistence, Err: fmt.Errorf("%s: %w", op, err)}
}
