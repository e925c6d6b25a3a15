package auth

import (
	"context"
	"sync"

	"github.com/hitoshi/taskman/internal/model"
	"github.com/hitoshi/taskman/internal/repository"
)

// memStore はUserRepositoryとSessionRepositoryのインメモリ実装。
// 条件付き更新と影響行数の扱いはPostgreSQL実装と同じ意味を持つ。
type memStore struct {
	mu            sync.Mutex
	users         map[int64]*model.User
	sessions      map[int64]*model.Session
	nextSessionID int64

	// 障害注入用
	findUserErr      error
	incrementErr     error
	createSessionErr error
	findSessionErr   error
	updateErr        error
	deleteErr        error

	// findBarrier が設定されている場合、FindByCredentialsは検索後に全員が揃うまで待つ
	findBarrier *sync.WaitGroup
}

func newMemStore() *memStore {
	return &memStore{
		users:         make(map[int64]*model.User),
		sessions:      make(map[int64]*model.Session),
		nextSessionID: 1,
	}
}

func (m *memStore) addUser(u *model.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.users[u.ID] = &cp
}

func (m *memStore) user(id int64) model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.users[id]
}

func (m *memStore) setUserActive(id int64, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id].Active = active
}

func (m *memStore) session(id int64) (model.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return model.Session{}, false
	}
	return *s, true
}

func (m *memStore) sessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// --- UserRepository ---

func (m *memStore) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	if m.findUserErr != nil {
		return nil, m.findUserErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) Create(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == user.Username {
			return repository.ErrDuplicateUsername
		}
	}
	user.ID = int64(len(m.users) + 1)
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memStore) IncrementLoginAttempts(ctx context.Context, userID int64) (int64, error) {
	if m.incrementErr != nil {
		return 0, m.incrementErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return 0, nil
	}
	u.LoginAttempts++
	return 1, nil
}

func (m *memStore) SetLoginAttempts(ctx context.Context, userID int64, attempts int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return 0, nil
	}
	u.LoginAttempts = attempts
	return 1, nil
}

// --- SessionRepository ---

func (m *memStore) CreateWithLoginReset(ctx context.Context, session *model.Session) error {
	if m.createSessionErr != nil {
		return m.createSessionErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[session.UserID]
	if !ok {
		return repository.ErrEmptyCredentials
	}
	u.LoginAttempts = 0
	session.ID = m.nextSessionID
	m.nextSessionID++
	cp := *session
	m.sessions[session.ID] = &cp
	return nil
}

func (m *memStore) FindByCredentials(ctx context.Context, creds model.SessionCredentials) (*model.SessionWithUser, error) {
	if m.findSessionErr != nil {
		return nil, m.findSessionErr
	}
	if creds.ID == 0 && creds.AccessToken == "" && creds.RefreshToken == "" {
		return nil, repository.ErrEmptyCredentials
	}

	found := m.lookup(creds)

	if m.findBarrier != nil {
		m.findBarrier.Done()
		m.findBarrier.Wait()
	}
	return found, nil
}

func (m *memStore) lookup(creds model.SessionCredentials) *model.SessionWithUser {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if creds.ID != 0 && s.ID != creds.ID {
			continue
		}
		if creds.AccessToken != "" && s.AccessToken != creds.AccessToken {
			continue
		}
		if creds.RefreshToken != "" && s.RefreshToken != creds.RefreshToken {
			continue
		}
		u := m.users[s.UserID]
		return &model.SessionWithUser{
			Session:       *s,
			UserActive:    u.Active,
			LoginAttempts: u.LoginAttempts,
		}
	}
	return nil
}

func (m *memStore) UpdateTokens(ctx context.Context, rot model.TokenRotation) (int64, error) {
	if m.updateErr != nil {
		return 0, m.updateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[rot.SessionID]
	if !ok || s.UserID != rot.UserID || s.AccessToken != rot.OldAccessToken || s.RefreshToken != rot.OldRefreshToken {
		return 0, nil
	}
	s.AccessToken = rot.AccessToken
	s.AccessTokenExpiry = rot.AccessTokenExpiry
	s.RefreshToken = rot.RefreshToken
	s.RefreshTokenExpiry = rot.RefreshTokenExpiry
	return 1, nil
}

func (m *memStore) Delete(ctx context.Context, sessionID int64, accessToken string) (int64, error) {
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok || s.AccessToken != accessToken {
		return 0, nil
	}
	delete(m.sessions, sessionID)
	return 1, nil
}

var (
	_ repository.UserRepository    = (*memStore)(nil)
	_ repository.SessionRepository = (*memStore)(nil)
)
