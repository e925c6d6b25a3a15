package handler

import (
	"context"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/hitoshi/taskman/internal/middleware"
	"github.com/hitoshi/taskman/internal/model"
)

const maxCredentialLength = 255

// SessionServiceInterface はセッションハンドラーが必要とするサービスインターフェース。
type SessionServiceInterface interface {
	// Login はユーザー名とパスワードを検証し、新しいセッションを発行する。
	Login(ctx context.Context, username, password string) (*sessionResponse, error)
	// Refresh はセッションのトークンを新しい組に置き換える。
	Refresh(ctx context.Context, sessionID int64, accessToken, refreshToken string) (*sessionResponse, error)
	// Logout はセッションを削除し、削除したセッションIDを返す。
	Logout(ctx context.Context, sessionID int64, accessToken string) (int64, error)
}

// SessionHandler はセッション管理のHTTPハンドラー。
type SessionHandler struct {
	service SessionServiceInterface
}

// NewSessionHandler はSessionHandlerを生成する。
func NewSessionHandler(service SessionServiceInterface) *SessionHandler {
	return &SessionHandler{service: service}
}

// loginRequest はログインリクエストのボディ。省略と空文字列を区別するためポインタで受ける。
type loginRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

// refreshRequest はトークンリフレッシュリクエストのボディ。
type refreshRequest struct {
	RefreshToken *string `json:"refresh_token"`
}

// sessionResponse はログイン・リフレッシュのAPIレスポンス。
type sessionResponse struct {
	SessionID             int64  `json:"session_id"`
	AccessToken           string `json:"access_token"`
	AccessTokenExpiresIn  int    `json:"access_token_expires_in"`
	RefreshToken          string `json:"refresh_token"`
	RefreshTokenExpiresIn int    `json:"refresh_token_expires_in"`
}

// Login はログインを処理する。
// POST /v1/sessions
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if apiErr := decodeJSONBody(w, r, &req, maxJSONBodyBytes); apiErr != nil {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	var details []string
	var username, password string
	if req.Username == nil {
		details = append(details, "Username not provided")
	} else {
		username = strings.TrimSpace(*req.Username)
		details = appendCredentialErrors(details, "Username", username)
	}
	if req.Password == nil {
		details = append(details, "Password not provided")
	} else {
		password = *req.Password
		details = appendCredentialErrors(details, "Password", password)
	}
	if len(details) > 0 {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError(details...))
		return
	}

	session, err := h.service.Login(r.Context(), username, password)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	middleware.WriteResponse(w, http.StatusCreated, false, nil, session)
}

// Refresh はトークンのリフレッシュを処理する。
// PATCH /v1/sessions/{sessionid}
func (h *SessionHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	sessionID, accessToken, ok := h.sessionCredentials(w, r)
	if !ok {
		return
	}

	var req refreshRequest
	if apiErr := decodeJSONBody(w, r, &req, maxJSONBodyBytes); apiErr != nil {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}
	if req.RefreshToken == nil || *req.RefreshToken == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("Refresh token not supplied"))
		return
	}

	session, err := h.service.Refresh(r.Context(), sessionID, accessToken, *req.RefreshToken)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	middleware.WriteResponse(w, http.StatusOK, false, []string{"Token refreshed"}, session)
}

// Logout はログアウトを処理する。
// DELETE /v1/sessions/{sessionid}
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID, accessToken, ok := h.sessionCredentials(w, r)
	if !ok {
		return
	}

	deleted, err := h.service.Logout(r.Context(), sessionID, accessToken)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	middleware.WriteResponse(w, http.StatusOK, false, []string{"Logged out"},
		map[string]int64{"session_id": deleted})
}

// sessionCredentials はURLのセッションIDとAuthorizationヘッダーのアクセストークンを取り出す。
// 不正な場合はエラーレスポンスを書き込みfalseを返す。
func (h *SessionHandler) sessionCredentials(w http.ResponseWriter, r *http.Request) (int64, string, bool) {
	sessionID, ok := parseIDParam(r, "sessionid")
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("Session ID cannot be blank and must be numeric"))
		return 0, "", false
	}

	accessToken := middleware.AccessTokenFromHeader(r)
	if accessToken == "" {
		writeUnauthorized(w)
		return 0, "", false
	}
	return sessionID, accessToken, true
}

func appendCredentialErrors(details []string, field, value string) []string {
	switch n := utf8.RuneCountInString(value); {
	case n == 0:
		details = append(details, field+" cannot be blank")
	case n > maxCredentialLength:
		details = append(details, field+" cannot be longer than 255 characters")
	}
	return details
}
