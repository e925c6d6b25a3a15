// Package auth はログイン、トークンのリフレッシュ、ログアウト、アクセストークンによる認可を提供する。
package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hitoshi/taskman/internal/model"
	"github.com/hitoshi/taskman/internal/repository"
)

// 認証操作の名前。メトリクスのラベルに使用する。
const (
	OperationLogin     = "login"
	OperationRefresh   = "refresh"
	OperationLogout    = "logout"
	OperationAuthorize = "authorize"
)

// MetricsRecorder は認証操作の結果を記録するインターフェース。
type MetricsRecorder interface {
	RecordAuthOutcome(operation, outcome string)
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	AccessTokenTTL  time.Duration // アクセストークンの有効期間
	RefreshTokenTTL time.Duration // リフレッシュトークンの有効期間
}

// DefaultServiceConfig はアクセストークン1時間、リフレッシュトークン2週間の設定を返す。
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 14 * 24 * time.Hour,
	}
}

// IssuedSession はログインまたはリフレッシュで発行されたトークンの組を表す。
type IssuedSession struct {
	SessionID             int64
	AccessToken           string
	AccessTokenExpiresIn  int // 秒
	RefreshToken          string
	RefreshTokenExpiresIn int // 秒
}

// Service はセッションのライフサイクルを管理する。
// 状態はすべてリポジトリ側にあり、Service自体は共有の可変状態を持たない。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	tokens      TokenGenerator
	metrics     MetricsRecorder
	config      ServiceConfig
	now         func() time.Time
	verify      func(hash, password string) bool
}

// NewService はServiceを生成する。metricsはnilでもよい。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	tokens TokenGenerator,
	metrics MetricsRecorder,
	config ServiceConfig,
) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		tokens:      tokens,
		metrics:     metrics,
		config:      config,
		now:         time.Now,
		verify:      VerifyPassword,
	}
}

// Login はユーザー名とパスワードを検証し、新しいセッションを発行する。
func (s *Service) Login(ctx context.Context, username, password string) (*IssuedSession, error) {
	issued, err := s.login(ctx, username, password)
	s.record(OperationLogin, err)
	return issued, err
}

func (s *Service) login(ctx context.Context, username, password string) (*IssuedSession, error) {
	// 1. ユーザーを検索（存在しない場合もパスワード照合を行い、誤りと同じ応答にする）
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, persistenceError("failed to find user", err)
	}
	if user == nil {
		s.verify(dummyPasswordHash(), password)
		return nil, newError(KindInvalidCredentials)
	}

	// 2. アカウント状態の確認（ロック判定はパスワード照合より先に行う）
	if !user.Active {
		return nil, newError(KindAccountInactive)
	}
	if IsLocked(user.LoginAttempts) {
		slog.Warn("login rejected for locked account", slog.Int64("user_id", user.ID))
		return nil, newError(KindAccountLocked)
	}

	// 3. パスワード照合。失敗時は失敗回数を加算する
	if !s.verify(user.PasswordHash, password) {
		if _, err := s.userRepo.IncrementLoginAttempts(ctx, user.ID); err != nil {
			return nil, persistenceError("failed to record login failure", err)
		}
		attempts := user.LoginAttempts + 1
		slog.Warn("login failed",
			slog.Int64("user_id", user.ID),
			slog.Int("login_attempts", attempts),
		)
		if IsLocked(attempts) {
			slog.Warn("account locked", slog.Int64("user_id", user.ID))
		}
		return nil, newError(KindInvalidCredentials)
	}

	// 4. トークンを発行し、失敗回数のリセットとセッション作成を1トランザクションで行う
	now := s.now()
	access, refresh, err := s.generatePair()
	if err != nil {
		return nil, err
	}

	session := &model.Session{
		UserID:             user.ID,
		AccessToken:        access,
		AccessTokenExpiry:  now.Add(s.config.AccessTokenTTL),
		RefreshToken:       refresh,
		RefreshTokenExpiry: now.Add(s.config.RefreshTokenTTL),
	}
	if err := s.sessionRepo.CreateWithLoginReset(ctx, session); err != nil {
		return nil, persistenceError("failed to create session", err)
	}

	slog.Info("user logged in",
		slog.Int64("user_id", user.ID),
		slog.Int64("session_id", session.ID),
	)

	return s.issued(session.ID, access, refresh), nil
}

// Refresh はセッションID、現在のアクセストークン、リフレッシュトークンの組を検証し、
// 同じセッションのトークンを新しい組に置き換える。
// 同一トークンでの並行リフレッシュは条件付き更新により1つだけが成功する。
func (s *Service) Refresh(ctx context.Context, sessionID int64, accessToken, refreshToken string) (*IssuedSession, error) {
	issued, err := s.refresh(ctx, sessionID, accessToken, refreshToken)
	s.record(OperationRefresh, err)
	return issued, err
}

func (s *Service) refresh(ctx context.Context, sessionID int64, accessToken, refreshToken string) (*IssuedSession, error) {
	// 条件が欠けると検索範囲が広がるため、3つ揃っていない場合は照合しない
	if sessionID <= 0 || accessToken == "" || refreshToken == "" {
		return nil, newError(KindInvalidSession)
	}

	// 1. 3つの値すべてに一致するセッションを検索
	session, err := s.sessionRepo.FindByCredentials(ctx, model.SessionCredentials{
		ID:           sessionID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
	if err != nil {
		return nil, persistenceError("failed to find session", err)
	}
	if session == nil {
		return nil, newError(KindInvalidSession)
	}

	// 2. 所有ユーザーの状態を確認
	if err := checkUserState(session); err != nil {
		return nil, err
	}

	// 3. リフレッシュトークンの期限を確認
	now := s.now()
	if session.RefreshTokenExpiry.Before(now) {
		return nil, newError(KindRefreshExpired)
	}

	// 4. 新しいトークンの組で条件付き更新
	access, refresh, err := s.generatePair()
	if err != nil {
		return nil, err
	}

	rows, err := s.sessionRepo.UpdateTokens(ctx, model.TokenRotation{
		SessionID:          session.ID,
		UserID:             session.UserID,
		OldAccessToken:     accessToken,
		OldRefreshToken:    refreshToken,
		AccessToken:        access,
		AccessTokenExpiry:  now.Add(s.config.AccessTokenTTL),
		RefreshToken:       refresh,
		RefreshTokenExpiry: now.Add(s.config.RefreshTokenTTL),
	})
	if err != nil {
		return nil, persistenceError("failed to rotate session tokens", err)
	}
	if rows == 0 {
		slog.Warn("concurrent refresh lost",
			slog.Int64("user_id", session.UserID),
			slog.Int64("session_id", session.ID),
		)
		return nil, newError(KindRefreshConflict)
	}

	slog.Info("session refreshed",
		slog.Int64("user_id", session.UserID),
		slog.Int64("session_id", session.ID),
	)

	return s.issued(session.ID, access, refresh), nil
}

// Logout はセッションIDとアクセストークンが一致するセッションを削除する。
// ユーザーの状態やトークンの期限は確認しない。
func (s *Service) Logout(ctx context.Context, sessionID int64, accessToken string) (int64, error) {
	id, err := s.logout(ctx, sessionID, accessToken)
	s.record(OperationLogout, err)
	return id, err
}

func (s *Service) logout(ctx context.Context, sessionID int64, accessToken string) (int64, error) {
	if sessionID <= 0 || accessToken == "" {
		return 0, newError(KindSessionNotFound)
	}

	rows, err := s.sessionRepo.Delete(ctx, sessionID, accessToken)
	if err != nil {
		return 0, persistenceError("failed to delete session", err)
	}
	if rows == 0 {
		return 0, newError(KindSessionNotFound)
	}

	slog.Info("user logged out", slog.Int64("session_id", sessionID))
	return sessionID, nil
}

// Authorize はアクセストークンを検証し、所有ユーザーのIDを返す。
// 期限切れのセッションは削除せず、リフレッシュに使えるよう残す。
func (s *Service) Authorize(ctx context.Context, accessToken string) (int64, error) {
	userID, err := s.authorize(ctx, accessToken)
	s.record(OperationAuthorize, err)
	return userID, err
}

func (s *Service) authorize(ctx context.Context, accessToken string) (int64, error) {
	if accessToken == "" {
		return 0, newError(KindInvalidToken)
	}

	session, err := s.sessionRepo.FindByCredentials(ctx, model.SessionCredentials{AccessToken: accessToken})
	if err != nil {
		return 0, persistenceError("failed to find session", err)
	}
	if session == nil {
		return 0, newError(KindInvalidToken)
	}

	if err := checkUserState(session); err != nil {
		return 0, err
	}

	if session.AccessTokenExpiry.Before(s.now()) {
		return 0, newError(KindTokenExpired)
	}

	return session.UserID, nil
}

// checkUserState はセッション所有ユーザーが有効かつ未ロックであることを確認する。
func checkUserState(session *model.SessionWithUser) error {
	if !session.UserActive {
		return newError(KindAccountInactive)
	}
	if IsLocked(session.LoginAttempts) {
		return newError(KindAccountLocked)
	}
	return nil
}

// generatePair はアクセストークンとリフレッシュトークンを生成する。
func (s *Service) generatePair() (string, string, error) {
	access, err := s.generate()
	if err != nil {
		return "", "", err
	}
	refresh, err := s.generate()
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (s *Service) generate() (string, error) {
	token, err := s.tokens.Generate()
	if err != nil {
		var authErr *Error
		if errors.As(err, &authErr) {
			return "", authErr
		}
		return "", &Error{Kind: KindEntropyUnavailable, Err: err}
	}
	return token, nil
}

func (s *Service) issued(sessionID int64, access, refresh string) *IssuedSession {
	return &IssuedSession{
		SessionID:             sessionID,
		AccessToken:           access,
		AccessTokenExpiresIn:  int(s.config.AccessTokenTTL / time.Second),
		RefreshToken:          refresh,
		RefreshTokenExpiresIn: int(s.config.RefreshTokenTTL / time.Second),
	}
}

// record は操作結果をメトリクスに記録する。
func (s *Service) record(operation string, err error) {
	if s.metrics == nil {
		return
	}
	outcome := "success"
	if err != nil {
		if kind, ok := KindOf(err); ok {
			outcome = string(kind)
		} else {
			outcome = "error"
		}
	}
	s.metrics.RecordAuthOutcome(operation, outcome)
}
