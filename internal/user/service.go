// Package user はユーザー登録とアカウントロック解除のドメインロジックを提供する。
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/hitoshi/taskman/internal/auth"
	"github.com/hitoshi/taskman/internal/model"
	"github.com/hitoshi/taskman/internal/repository"
)

// maxFieldLength は氏名、ユーザー名、パスワードの最大文字数。
const maxFieldLength = 255

// PasswordHasher はパスワードをハッシュ化する関数。
type PasswordHasher func(password string) (string, error)

// Service はユーザー管理のサービス層。
type Service struct {
	userRepo repository.UserRepository
	hash     PasswordHasher
}

// NewService はServiceの新しいインスタンスを生成する。hashがnilの場合はbcryptを使用する。
func NewService(userRepo repository.UserRepository, hash PasswordHasher) *Service {
	if hash == nil {
		hash = auth.HashPassword
	}
	return &Service{
		userRepo: userRepo,
		hash:     hash,
	}
}

// Register は新しいユーザーを作成する。
// 氏名とユーザー名は前後の空白を除去してから検証する。パスワードはそのまま扱う。
func (s *Service) Register(ctx context.Context, fullName, username, password string) (*model.User, error) {
	fullName = strings.TrimSpace(fullName)
	username = strings.TrimSpace(username)

	// 1. 入力検証（すべての違反をまとめて返す）
	var details []string
	details = appendLengthErrors(details, "Full name", fullName)
	details = appendLengthErrors(details, "Username", username)
	details = appendLengthErrors(details, "Password", password)
	if len(details) > 0 {
		return nil, model.NewValidationError(details...)
	}

	// 2. パスワードのハッシュ化
	hash, err := s.hash(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, model.NewValidationError("Password must not be longer than 72 bytes")
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// 3. ユーザー作成
	u := &model.User{
		FullName:     fullName,
		Username:     username,
		PasswordHash: hash,
		Active:       true,
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return nil, model.NewUsernameTakenError()
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user registered", slog.Int64("user_id", u.ID))
	return u, nil
}

// Unlock はログイン失敗回数を0に戻し、ロックされたアカウントを解除する。
// 管理者が明示的に実行する操作で、時間経過による自動解除は行わない。
func (s *Service) Unlock(ctx context.Context, username string) error {
	u, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if u == nil {
		return model.NewUserNotFoundError(username)
	}

	rows, err := s.userRepo.SetLoginAttempts(ctx, u.ID, 0)
	if err != nil {
		return fmt.Errorf("failed to reset login attempts: %w", err)
	}
	if rows == 0 {
		return model.NewUserNotFoundError(username)
	}

	slog.Info("user unlocked",
		slog.Int64("user_id", u.ID),
		slog.Int("previous_login_attempts", u.LoginAttempts),
	)
	return nil
}

func appendLengthErrors(details []string, field, value string) []string {
	n := utf8.RuneCountInString(value)
	if n == 0 {
		return append(details, field+" cannot be blank")
	}
	if n > maxFieldLength {
		return append(details, fmt.Sprintf("%s must not be longer than %d characters", field, maxFieldLength))
	}
	return details
}
