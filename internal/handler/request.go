package handler

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/taskman/internal/model"
)

// リクエストボディの上限サイズ
const (
	maxJSONBodyBytes = 1 << 20
	maxTaskBodyBytes = 20 << 20
)

// decodeJSONBody はContent-Typeを確認し、リクエストボディをdstにデコードする。
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any, limit int64) *model.APIError {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return model.NewInvalidContentTypeError()
	}

	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var syntaxErr *json.SyntaxError
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			return model.NewInvalidJSONError()
		case errors.As(err, &maxBytesErr):
			return model.NewValidationError("Request body is too large")
		default:
			return model.NewValidationError("Request body fields have invalid types")
		}
	}
	return nil
}

// parseIDParam はURLパラメータを正の整数として解釈する。
func parseIDParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
