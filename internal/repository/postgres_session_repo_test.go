package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/taskman/internal/model"
)

// PostgresSessionRepoはSessionRepositoryインターフェースを満たすことを検証
func TestPostgresSessionRepo_ImplementsInterface(t *testing.T) {
	var _ SessionRepository = (*PostgresSessionRepo)(nil)
}

func TestBuildCredentialsQuery(t *testing.T) {
	tests := []struct {
		name      string
		creds     model.SessionCredentials
		wantConds []string
		wantArgs  int
	}{
		{
			name:      "access token only",
			creds:     model.SessionCredentials{AccessToken: "a"},
			wantConds: []string{"s.access_token = $1"},
			wantArgs:  1,
		},
		{
			name:      "id and access token",
			creds:     model.SessionCredentials{ID: 5, AccessToken: "a"},
			wantConds: []string{"s.id = $1", "s.access_token = $2"},
			wantArgs:  2,
		},
		{
			name:      "all three",
			creds:     model.SessionCredentials{ID: 5, AccessToken: "a", RefreshToken: "r"},
			wantConds: []string{"s.id = $1", "s.access_token = $2", "s.refresh_token = $3"},
			wantArgs:  3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args, err := buildCredentialsQuery(tt.creds)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(args) != tt.wantArgs {
				t.Errorf("len(args) = %d, want %d", len(args), tt.wantArgs)
			}
			want := " WHERE " + strings.Join(tt.wantConds, " AND ")
			if !strings.HasSuffix(query, want) {
				t.Errorf("query %q does not end with %q", query, want)
			}
		})
	}
}

func TestBuildCredentialsQuery_Empty(t *testing.T) {
	_, _, err := buildCredentialsQuery(model.SessionCredentials{})
	if !errors.Is(err, ErrEmptyCredentials) {
		t.Errorf("expected ErrEmptyCredentials, got %v", err)
	}
}

func newTestSession(userID int64, suffix string) *model.Session {
	now := time.Now().UTC().Truncate(time.Second)
	return &model.Session{
		UserID:             userID,
		AccessToken:        "access-" + suffix,
		AccessTokenExpiry:  now.Add(time.Hour),
		RefreshToken:       "refresh-" + suffix,
		RefreshTokenExpiry: now.Add(14 * 24 * time.Hour),
	}
}

func TestPostgresSessionRepo_CreateWithLoginReset(t *testing.T) {
	db := openTestDB(t)
	users := NewPostgresUserRepo(db)
	repo := NewPostgresSessionRepo(db)
	ctx := context.Background()

	user := createTestUser(t, users, "erin")
	if _, err := users.SetLoginAttempts(ctx, user.ID, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	session := newTestSession(user.ID, "1")
	if err := repo.CreateWithLoginReset(ctx, session); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.ID == 0 {
		t.Fatal("expected generated session ID")
	}

	found, err := repo.FindByCredentials(ctx, model.SessionCredentials{AccessToken: "access-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found == nil || found.ID != session.ID {
		t.Fatalf("expected session %d, got %+v", session.ID, found)
	}
	if found.LoginAttempts != 0 {
		t.Errorf("login_attempts = %d, want 0 after login", found.LoginAttempts)
	}
	if !found.UserActive {
		t.Error("expected active user")
	}
}

func TestPostgresSessionRepo_CreateWithLoginReset_UnknownUser(t *testing.T) {
	db := openTestDB(t)
	repo := NewPostgresSessionRepo(db)

	err := repo.CreateWithLoginReset(context.Background(), newTestSession(12345, "x"))
	if err == nil {
		t.Fatal("expected error for unknown user")
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&count); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 0 {
		t.Errorf("sessions = %d, want 0", count)
	}
}

// セッション挿入が失敗した場合、同じトランザクション内の失敗回数リセットも取り消されることを検証
func TestPostgresSessionRepo_CreateWithLoginReset_InsertFailureKeepsAttempts(t *testing.T) {
	db := openTestDB(t)
	users := NewPostgresUserRepo(db)
	repo := NewPostgresSessionRepo(db)
	ctx := context.Background()

	user := createTestUser(t, users, "grace")
	existing := newTestSession(user.ID, "dup")
	if err := repo.CreateWithLoginReset(ctx, existing); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := users.SetLoginAttempts(ctx, user.ID, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// アクセストークンが重複するため一意制約違反で挿入に失敗する
	conflicting := newTestSession(user.ID, "dup")
	conflicting.RefreshToken = "refresh-other"
	if err := repo.CreateWithLoginReset(ctx, conflicting); err == nil {
		t.Fatal("expected unique violation error")
	}

	var attempts int
	if err := db.QueryRow(`SELECT login_attempts FROM users WHERE id = $1`, user.ID).Scan(&attempts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 2 {
		t.Errorf("login_attempts = %d, want 2 (reset must be rolled back)", attempts)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM sessions WHERE user_id = $1`, user.ID).Scan(&count); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Errorf("sessions = %d, want 1", count)
	}
}

func TestPostgresSessionRepo_FindByCredentials_Mismatch(t *testing.T) {
	db := openTestDB(t)
	users := NewPostgresUserRepo(db)
	repo := NewPostgresSessionRepo(db)
	ctx := context.Background()

	user := createTestUser(t, users, "frank")
	session := newTestSession(user.ID, "2")
	if err := repo.CreateWithLoginReset(ctx, session); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found, err := repo.FindByCredentials(ctx, model.SessionCredentials{
		ID:           session.ID,
		AccessToken:  "access-2",
		RefreshToken: "wrong",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found != nil {
		t.Errorf("expected nil, got %+v", found)
	}
}

// 旧トークンの組が一致する場合だけ置き換わることを検証
func TestPostgresSessionRepo_UpdateTokens_CompareAndSwap(t *testing.T) {
	db := openTestDB(t)
	users := NewPostgresUserRepo(db)
	repo := NewPostgresSessionRepo(db)
	ctx := context.Background()

	user := createTestUser(t, users, "grace")
	session := newTestSession(user.ID, "3")
	if err := repo.CreateWithLoginReset(ctx, session); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rot := model.TokenRotation{
		SessionID:          session.ID,
		UserID:             user.ID,
		OldAccessToken:     "access-3",
		OldRefreshToken:    "refresh-3",
		AccessToken:        "access-4",
		AccessTokenExpiry:  session.AccessTokenExpiry.Add(time.Minute),
		RefreshToken:       "refresh-4",
		RefreshTokenExpiry: session.RefreshTokenExpiry.Add(time.Minute),
	}

	rows, err := repo.UpdateTokens(ctx, rot)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows != 1 {
		t.Fatalf("rows = %d, want 1", rows)
	}

	// 同じ旧トークンでの2回目は一致しない
	rot.AccessToken, rot.RefreshToken = "access-5", "refresh-5"
	rows, err = repo.UpdateTokens(ctx, rot)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows != 0 {
		t.Errorf("rows = %d, want 0 for stale tokens", rows)
	}

	found, err := repo.FindByCredentials(ctx, model.SessionCredentials{ID: session.ID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found.AccessToken != "access-4" || found.RefreshToken != "refresh-4" {
		t.Errorf("unexpected tokens: %q %q", found.AccessToken, found.RefreshToken)
	}
}

func TestPostgresSessionRepo_Delete(t *testing.T) {
	db := openTestDB(t)
	users := NewPostgresUserRepo(db)
	repo := NewPostgresSessionRepo(db)
	ctx := context.Background()

	user := createTestUser(t, users, "heidi")
	session := newTestSession(user.ID, "6")
	if err := repo.CreateWithLoginReset(ctx, session); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rows, err := repo.Delete(ctx, session.ID, "wrong-token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows != 0 {
		t.Errorf("rows = %d, want 0 for wrong token", rows)
	}

	rows, err = repo.Delete(ctx, session.ID, "access-6")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows != 1 {
		t.Errorf("rows = %d, want 1", rows)
	}
}
