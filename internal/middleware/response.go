package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/taskman/internal/auth"
	"github.com/hitoshi/taskman/internal/model"
	"github.com/hitoshi/taskman/internal/observability"
)

// ResponseBody はすべてのAPIレスポンスで共通のエンベロープ。
type ResponseBody struct {
	StatusCode int      `json:"status_code"`
	Success    bool     `json:"success"`
	Messages   []string `json:"messages"`
	Data       any      `json:"data,omitempty"`
	Code       string   `json:"code,omitempty"`
}

// Cache-Controlヘッダーの値
const (
	cacheControlNoStore   = "no-cache, no-store"
	cacheControlCacheable = "max-age=60"
)

// WriteResponse はエンベロープ形式でレスポンスを書き込む。
// cacheableがfalseの場合はキャッシュを禁止する。
func WriteResponse(w http.ResponseWriter, statusCode int, cacheable bool, messages []string, data any) {
	writeEnvelope(w, statusCode, cacheable, ResponseBody{
		StatusCode: statusCode,
		Success:    statusCode < http.StatusBadRequest,
		Messages:   messages,
		Data:       data,
	})
}

// WriteErrorResponse はAPIErrorをエンベロープ形式で書き込む。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	writeEnvelope(w, statusCode, false, ResponseBody{
		StatusCode: statusCode,
		Success:    false,
		Messages:   apiErr.Messages(),
		Code:       apiErr.Code,
	})
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     model.ErrCodeInternal,
		Message:  "There was an issue processing the request - please try again",
		Category: "system",
		Action:   "Please retry later.",
	})
}

// WriteAuthError は認証エラーを種別に応じたステータスで書き込む。
// サーバー側障害は原因をログとSentryに記録し、クライアントには共通メッセージだけを返す。
func WriteAuthError(w http.ResponseWriter, r *http.Request, err error) {
	kind, ok := auth.KindOf(err)
	if !ok {
		kind = auth.KindPersistence
	}

	if kind.IsServerFault() {
		slog.Error("auth operation failed",
			slog.String("kind", string(kind)),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		observability.CaptureError(r, err)
	}

	statusCode := kind.StatusCode()
	writeEnvelope(w, statusCode, false, ResponseBody{
		StatusCode: statusCode,
		Success:    false,
		Messages:   []string{kind.Message()},
		Code:       strings.ToUpper(string(kind)),
	})
}

func writeEnvelope(w http.ResponseWriter, statusCode int, cacheable bool, body ResponseBody) {
	if body.Messages == nil {
		body.Messages = []string{}
	}

	w.Header().Set("Content-Type", "application/json;charset=utf-8")
	if cacheable {
		w.Header().Set("Cache-Control", cacheControlCacheable)
	} else {
		w.Header().Set("Cache-Control", cacheControlNoStore)
	}
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}
