package model

import (
	"fmt"
	"strings"
)

// APIError は統一エラーフォーマットを表す。
// Details には入力検証で見つかった個別のメッセージを格納する。
type APIError struct {
	Code     string   // エラーコード
	Message  string   // エラーメッセージ
	Category string   // カテゴリ: auth, validation, task, system
	Action   string   // クライアント向け対処方法
	Details  []string // 入力検証の個別メッセージ
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	if len(e.Details) > 0 {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, strings.Join(e.Details, "; "))
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Messages はレスポンスエンベロープのmessagesに載せる文字列を返す。
func (e *APIError) Messages() []string {
	if len(e.Details) > 0 {
		return append([]string(nil), e.Details...)
	}
	return []string{e.Message}
}

// 定義済みエラーコード
const (
	ErrCodeValidation         = "VALIDATION_FAILED"
	ErrCodeInvalidContentType = "INVALID_CONTENT_TYPE"
	ErrCodeInvalidJSON        = "INVALID_JSON"
	ErrCodeUsernameTaken      = "USERNAME_TAKEN"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeTaskNotFound       = "TASK_NOT_FOUND"
	ErrCodePageNotFound       = "PAGE_NOT_FOUND"
	ErrCodeInvalidFilter      = "INVALID_FILTER"
	ErrCodeNoTaskFields       = "NO_TASK_FIELDS"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeEndpointNotFound   = "ENDPOINT_NOT_FOUND"
	ErrCodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	ErrCodeRateLimited        = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// NewValidationError は入力検証エラーを生成する。
func NewValidationError(details ...string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  "Request validation failed",
		Category: "validation",
		Action:   "Correct the listed fields and retry.",
		Details:  details,
	}
}

// NewInvalidContentTypeError はContent-TypeがJSONでない場合のエラーを生成する。
func NewInvalidContentTypeError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidContentType,
		Message:  "Content type header is not set to JSON",
		Category: "validation",
		Action:   "Send the request with Content-Type: application/json.",
	}
}

// NewInvalidJSONError はリクエストボディがJSONとして解釈できない場合のエラーを生成する。
func NewInvalidJSONError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidJSON,
		Message:  "Request body is not valid JSON",
		Category: "validation",
		Action:   "Send a well-formed JSON object.",
	}
}

// NewUsernameTakenError はユーザー名重複エラーを生成する。
func NewUsernameTakenError() *APIError {
	return &APIError{
		Code:     ErrCodeUsernameTaken,
		Message:  "Username already exists",
		Category: "validation",
		Action:   "Choose a different username.",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError(username string) *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  fmt.Sprintf("User not found: %s", username),
		Category: "auth",
		Action:   "Check the username.",
	}
}

// NewTaskNotFoundError はタスク未検出エラーを生成する。
func NewTaskNotFoundError(message string) *APIError {
	if message == "" {
		message = "Task not found"
	}
	return &APIError{
		Code:     ErrCodeTaskNotFound,
		Message:  message,
		Category: "task",
		Action:   "Check the task ID.",
	}
}

// NewPageNotFoundError はページ番号が範囲外の場合のエラーを生成する。
func NewPageNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodePageNotFound,
		Message:  "Page not found",
		Category: "task",
		Action:   "Request a page between 1 and total_pages.",
	}
}

// NewInvalidFilterError は無効な完了フィルタのエラーを生成する。
func NewInvalidFilterError(filter string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidFilter,
		Message:  fmt.Sprintf("Completed filter must be Y or N: %s", filter),
		Category: "validation",
		Action:   "Use completed=Y, completed=N, or omit the parameter.",
	}
}

// NewNoTaskFieldsError は更新対象フィールドがない場合のエラーを生成する。
func NewNoTaskFieldsError() *APIError {
	return &APIError{
		Code:     ErrCodeNoTaskFields,
		Message:  "No task fields provided",
		Category: "validation",
		Action:   "Provide at least one of title, description, deadline, completed.",
	}
}
