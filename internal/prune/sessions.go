// Package prune は失効済みセッションの一括削除を提供する。
// 管理者がpruneサブコマンドで明示的に実行する。サーバーは自動では実行しない。
package prune

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SessionPruner はリフレッシュトークンの期限を過ぎたセッションを削除する。
// リフレッシュ期限切れのセッションは認可にもリフレッシュにも使えない。
type SessionPruner struct {
	db        Executor
	logger    *slog.Logger
	GraceDays int // リフレッシュ期限切れ後に残しておく日数（デフォルト: 30）
}

// NewSessionPruner は新しいSessionPrunerを生成する。
func NewSessionPruner(db Executor, logger *slog.Logger) *SessionPruner {
	return &SessionPruner{
		db:        db,
		logger:    logger,
		GraceDays: 30,
	}
}

// Run はrefresh_token_expiryがGraceDays日より前のセッションを削除し、削除件数を返す。
// 冪等: 削除対象がない場合でもエラーにならない。
func (p *SessionPruner) Run(ctx context.Context) (int64, error) {
	start := time.Now()

	interval := fmt.Sprintf("%d days", p.GraceDays)

	query := `DELETE FROM sessions WHERE refresh_token_expiry < now() - $1::interval`
	result, err := p.db.ExecContext(ctx, query, interval)
	if err != nil {
		p.logger.Error("session prune failed",
			slog.String("error", err.Error()),
			slog.Int("grace_days", p.GraceDays),
		)
		return 0, fmt.Errorf("failed to prune sessions: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	p.logger.Info("session prune completed",
		slog.Int64("deleted_count", deleted),
		slog.Int("grace_days", p.GraceDays),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	return deleted, nil
}
