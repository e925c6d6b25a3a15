package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/taskman/internal/middleware"
	"github.com/hitoshi/taskman/internal/model"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// Register はユーザーを登録する。入力の長さ検証はサービス側で行う。
	Register(ctx context.Context, fullName, username, password string) (*userResponse, error)
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

type registerRequest struct {
	FullName *string `json:"fullname"`
	Username *string `json:"username"`
	Password *string `json:"password"`
}

// userResponse は登録済みユーザーのAPIレスポンス。パスワードハッシュは含めない。
type userResponse struct {
	UserID   int64  `json:"user_id"`
	FullName string `json:"fullname"`
	Username string `json:"username"`
}

// Register はユーザー登録を処理する。
// POST /v1/users
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if apiErr := decodeJSONBody(w, r, &req, maxJSONBodyBytes); apiErr != nil {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	var missing []string
	if req.FullName == nil {
		missing = append(missing, "Fullname not provided")
	}
	if req.Username == nil {
		missing = append(missing, "Username not provided")
	}
	if req.Password == nil {
		missing = append(missing, "Password not provided")
	}
	if len(missing) > 0 {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError(missing...))
		return
	}

	user, err := h.service.Register(r.Context(), *req.FullName, *req.Username, *req.Password)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	middleware.WriteResponse(w, http.StatusCreated, false, []string{"User created"}, user)
}
