package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hitoshi/taskman/internal/model"
)

const selectSessionWithUser = `SELECT s.id, s.user_id, s.access_token, s.access_token_expiry,
	s.refresh_token, s.refresh_token_expiry, u.active, u.login_attempts
	FROM sessions s
	JOIN users u ON u.id = s.user_id`

// PostgresSessionRepo はPostgreSQLを使用したセッションリポジトリ。
type PostgresSessionRepo struct {
	db *sql.DB
}

// NewPostgresSessionRepo はPostgresSessionRepoを生成する。
func NewPostgresSessionRepo(db *sql.DB) *PostgresSessionRepo {
	return &PostgresSessionRepo{db: db}
}

// CreateWithLoginReset はログイン失敗回数のリセットとセッション作成を同一トランザクションで行う。
func (r *PostgresSessionRepo) CreateWithLoginReset(ctx context.Context, session *model.Session) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// 1. ログイン失敗回数をリセット
	result, err := tx.ExecContext(ctx,
		`UPDATE users SET login_attempts = 0 WHERE id = $1`,
		session.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to reset login attempts: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user not found: %d", session.UserID)
	}

	// 2. セッションを作成
	err = tx.QueryRowContext(ctx,
		`INSERT INTO sessions (user_id, access_token, access_token_expiry, refresh_token, refresh_token_expiry)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		session.UserID, session.AccessToken, session.AccessTokenExpiry,
		session.RefreshToken, session.RefreshTokenExpiry,
	).Scan(&session.ID)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// FindByCredentials は条件に完全一致するセッションをユーザー状態とJOINして取得する。
// 見つからない場合はnilを返す。
func (r *PostgresSessionRepo) FindByCredentials(ctx context.Context, creds model.SessionCredentials) (*model.SessionWithUser, error) {
	query, args, err := buildCredentialsQuery(creds)
	if err != nil {
		return nil, err
	}

	s := &model.SessionWithUser{}
	err = r.db.QueryRowContext(ctx, query, args...).Scan(
		&s.ID, &s.UserID, &s.AccessToken, &s.AccessTokenExpiry,
		&s.RefreshToken, &s.RefreshTokenExpiry, &s.UserActive, &s.LoginAttempts,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	return s, nil
}

// buildCredentialsQuery は指定された条件だけをWHERE句に含めたSELECT文を組み立てる。
func buildCredentialsQuery(creds model.SessionCredentials) (string, []any, error) {
	var conds []string
	var args []any

	if creds.ID > 0 {
		args = append(args, creds.ID)
		conds = append(conds, fmt.Sprintf("s.id = $%d", len(args)))
	}
	if creds.AccessToken != "" {
		args = append(args, creds.AccessToken)
		conds = append(conds, fmt.Sprintf("s.access_token = $%d", len(args)))
	}
	if creds.RefreshToken != "" {
		args = append(args, creds.RefreshToken)
		conds = append(conds, fmt.Sprintf("s.refresh_token = $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", nil, ErrEmptyCredentials
	}

	return selectSessionWithUser + " WHERE " + strings.Join(conds, " AND "), args, nil
}

// UpdateTokens はID、ユーザーID、旧トークンの組が一致する行のトークンと期限を置き換える。
func (r *PostgresSessionRepo) UpdateTokens(ctx context.Context, rot model.TokenRotation) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE sessions
		 SET access_token = $1, access_token_expiry = $2,
		     refresh_token = $3, refresh_token_expiry = $4
		 WHERE id = $5 AND user_id = $6 AND access_token = $7 AND refresh_token = $8`,
		rot.AccessToken, rot.AccessTokenExpiry, rot.RefreshToken, rot.RefreshTokenExpiry,
		rot.SessionID, rot.UserID, rot.OldAccessToken, rot.OldRefreshToken,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update session tokens: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

// Delete はIDとアクセストークンが一致するセッションを削除する。
func (r *PostgresSessionRepo) Delete(ctx context.Context, sessionID int64, accessToken string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE id = $1 AND access_token = $2`,
		sessionID, accessToken,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete session: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

// compile-time interface check
var _ SessionRepository = (*PostgresSessionRepo)(nil)
