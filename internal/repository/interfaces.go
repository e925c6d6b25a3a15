// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/taskman/internal/model"
)

// ErrDuplicateUsername はユーザー名の一意制約違反を表す。
var ErrDuplicateUsername = errors.New("username already exists")

// ErrEmptyCredentials はセッション検索条件が1つも指定されていないことを表す。
var ErrEmptyCredentials = errors.New("at least one session credential is required")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByUsername はユーザー名が完全一致するユーザーを取得する。見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// Create はユーザーを作成し、採番されたIDをuser.IDに設定する。
	// ユーザー名が重複する場合はErrDuplicateUsernameを返す。
	Create(ctx context.Context, user *model.User) error

	// IncrementLoginAttempts はログイン失敗回数を1つ増やす。
	// 読み出しと書き込みを分けず単一のUPDATE文で加算する。影響行数を返す。
	IncrementLoginAttempts(ctx context.Context, userID int64) (int64, error)

	// SetLoginAttempts はログイン失敗回数を指定値に設定する。影響行数を返す。
	SetLoginAttempts(ctx context.Context, userID int64, attempts int) (int64, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// CreateWithLoginReset はユーザーのログイン失敗回数の0リセットとセッション作成を
	// 同一トランザクションで行い、採番されたIDをsession.IDに設定する。
	// どちらかが失敗した場合は両方ロールバックされる。
	CreateWithLoginReset(ctx context.Context, session *model.Session) error

	// FindByCredentials は条件に完全一致するセッションをユーザー状態とJOINして取得する。
	// 見つからない場合はnilを返す。期限切れのセッションも返す（判定は呼び出し側）。
	FindByCredentials(ctx context.Context, creds model.SessionCredentials) (*model.SessionWithUser, error)

	// UpdateTokens はID、ユーザーID、旧トークンの組が一致する行のトークンと期限を置き換える。
	// 影響行数を返す。0は他のリクエストが先にローテーションしたことを意味する。
	UpdateTokens(ctx context.Context, rotation model.TokenRotation) (int64, error)

	// Delete はIDとアクセストークンが一致するセッションを削除する。影響行数を返す。
	Delete(ctx context.Context, sessionID int64, accessToken string) (int64, error)
}

// TaskRepository はタスクデータの永続化インターフェース。
// すべての操作は所有ユーザーIDで絞り込まれる。
type TaskRepository interface {
	// FindByID は指定IDのタスクを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, userID, taskID int64) (*model.Task, error)

	// List はフィルタに一致するタスクをID昇順で取得する。
	List(ctx context.Context, userID int64, filter model.TaskFilter, limit, offset int) ([]*model.Task, error)

	// Count はフィルタに一致するタスク数を返す。
	Count(ctx context.Context, userID int64, filter model.TaskFilter) (int, error)

	// Create はタスクを作成し、採番されたIDをtask.IDに設定する。
	Create(ctx context.Context, task *model.Task) error

	// Update はタスクを部分更新し、更新後のタスクを返す。見つからない場合はnilを返す。
	Update(ctx context.Context, userID, taskID int64, patch model.TaskPatch) (*model.Task, error)

	// Delete は指定IDのタスクを削除する。影響行数を返す。
	Delete(ctx context.Context, userID, taskID int64) (int64, error)
}
