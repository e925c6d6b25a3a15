// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// LoginAttempts はパスワード誤りの連続回数で、ログイン成功時に0へ戻る。
type User struct {
	ID            int64
	FullName      string
	Username      string
	PasswordHash  string
	Active        bool
	LoginAttempts int
	CreatedAt     time.Time
}

// Session はユーザーのログインセッションを表す。
// アクセストークンとリフレッシュトークンの組を保持し、リフレッシュ時に両方を置き換える。
type Session struct {
	ID                 int64
	UserID             int64
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

// SessionWithUser はセッションと所有ユーザーの状態を結合したモデル。
// usersテーブルとJOINして取得される。
type SessionWithUser struct {
	Session
	UserActive    bool
	LoginAttempts int
}

// SessionCredentials はセッション検索条件。
// ゼロ値のフィールドは条件に含めない。少なくとも1つは指定が必要。
type SessionCredentials struct {
	ID           int64
	AccessToken  string
	RefreshToken string
}

// TokenRotation はリフレッシュ時の条件付き更新の内容を表す。
// ID、UserID、旧トークンの組が一致する行だけが更新される。
type TokenRotation struct {
	SessionID          int64
	UserID             int64
	OldAccessToken     string
	OldRefreshToken    string
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}
