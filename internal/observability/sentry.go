// Package observability はSentryへのエラー送信を提供する。
// DSNが未設定の場合、各関数は何もしない。
package observability

import (
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
)

// InitSentry はSentryクライアントを初期化する。dsnが空の場合は何もしない。
func InitSentry(dsn, environment string) error {
	if dsn == "" {
		return nil
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		AttachStacktrace: true,
	})
}

// FlushSentry は送信待ちのイベントを最大2秒待って送信する。
func FlushSentry() {
	sentry.Flush(2 * time.Second)
}

// CaptureError はサーバー側障害をリクエスト情報とともに送信する。
func CaptureError(r *http.Request, err error) {
	sentry.WithScope(func(scope *sentry.Scope) {
		if r != nil {
			scope.SetRequest(r)
			scope.SetTag("path", r.URL.Path)
		}
		sentry.CaptureException(err)
	})
}

// CapturePanic は回復したpanicをスタックトレースとともに送信する。
func CapturePanic(r *http.Request, recovered any, stack []byte) {
	sentry.WithScope(func(scope *sentry.Scope) {
		if r != nil {
			scope.SetRequest(r)
		}
		scope.SetExtra("panic", recovered)
		scope.SetExtra("stack", string(stack))
		sentry.CaptureMessage("panic in request")
	})
}
