package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/taskman/internal/model"
)

// uniqueViolation はPostgreSQLの一意制約違反のエラーコード。
const uniqueViolation = "23505"

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByUsername はユーザー名が完全一致するユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, full_name, username, password_hash, active, login_attempts, created_at
		 FROM users WHERE username = $1`,
		username,
	).Scan(&user.ID, &user.FullName, &user.Username, &user.PasswordHash,
		&user.Active, &user.LoginAttempts, &user.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by username: %w", err)
	}

	return user, nil
}

// Create はユーザーを作成し、採番されたIDをuser.IDに設定する。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (full_name, username, password_hash, active, login_attempts)
		 VALUES ($1, $2, $3, $4, 0)
		 RETURNING id, created_at`,
		user.FullName, user.Username, user.PasswordHash, user.Active,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateUsername
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	user.LoginAttempts = 0
	return nil
}

// IncrementLoginAttempts はログイン失敗回数を単一のUPDATE文で1つ増やす。
func (r *PostgresUserRepo) IncrementLoginAttempts(ctx context.Context, userID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET login_attempts = login_attempts + 1 WHERE id = $1`,
		userID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to increment login attempts: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

// SetLoginAttempts はログイン失敗回数を指定値に設定する。
func (r *PostgresUserRepo) SetLoginAttempts(ctx context.Context, userID int64, attempts int) (int64, error) {
	if attempts < 0 {
		return 0, fmt.Errorf("login attempts must not be negative: %d", attempts)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET login_attempts = $2 WHERE id = $1`,
		userID, attempts,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to set login attempts: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
