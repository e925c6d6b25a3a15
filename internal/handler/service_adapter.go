package handler

import (
	"context"

	"github.com/hitoshi/taskman/internal/auth"
	"github.com/hitoshi/taskman/internal/model"
	"github.com/hitoshi/taskman/internal/task"
	"github.com/hitoshi/taskman/internal/user"
)

// SessionServiceAdapter は auth.Service を SessionServiceInterface に適合させるアダプタ。
type SessionServiceAdapter struct {
	svc *auth.Service
}

// NewSessionServiceAdapter はSessionServiceAdapterを生成する。
func NewSessionServiceAdapter(svc *auth.Service) *SessionServiceAdapter {
	return &SessionServiceAdapter{svc: svc}
}

// Login はログインしhandlerレスポンス型で返す。
func (a *SessionServiceAdapter) Login(ctx context.Context, username, password string) (*sessionResponse, error) {
	issued, err := a.svc.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return toSessionResponse(issued), nil
}

// Refresh はトークンをリフレッシュしhandlerレスポンス型で返す。
func (a *SessionServiceAdapter) Refresh(ctx context.Context, sessionID int64, accessToken, refreshToken string) (*sessionResponse, error) {
	issued, err := a.svc.Refresh(ctx, sessionID, accessToken, refreshToken)
	if err != nil {
		return nil, err
	}
	return toSessionResponse(issued), nil
}

// Logout はセッションを削除する。
func (a *SessionServiceAdapter) Logout(ctx context.Context, sessionID int64, accessToken string) (int64, error) {
	return a.svc.Logout(ctx, sessionID, accessToken)
}

func toSessionResponse(issued *auth.IssuedSession) *sessionResponse {
	return &sessionResponse{
		SessionID:             issued.SessionID,
		AccessToken:           issued.AccessToken,
		AccessTokenExpiresIn:  issued.AccessTokenExpiresIn,
		RefreshToken:          issued.RefreshToken,
		RefreshTokenExpiresIn: issued.RefreshTokenExpiresIn,
	}
}

// UserServiceAdapter は user.Service を UserServiceInterface に適合させるアダプタ。
type UserServiceAdapter struct {
	svc *user.Service
}

// NewUserServiceAdapter はUserServiceAdapterを生成する。
func NewUserServiceAdapter(svc *user.Service) *UserServiceAdapter {
	return &UserServiceAdapter{svc: svc}
}

// Register はユーザーを登録しhandlerレスポンス型で返す。
func (a *UserServiceAdapter) Register(ctx context.Context, fullName, username, password string) (*userResponse, error) {
	u, err := a.svc.Register(ctx, fullName, username, password)
	if err != nil {
		return nil, err
	}
	return &userResponse{
		UserID:   u.ID,
		FullName: u.FullName,
		Username: u.Username,
	}, nil
}

// TaskServiceAdapter は task.Service を TaskServiceInterface に適合させるアダプタ。
type TaskServiceAdapter struct {
	svc *task.Service
}

// NewTaskServiceAdapter はTaskServiceAdapterを生成する。
func NewTaskServiceAdapter(svc *task.Service) *TaskServiceAdapter {
	return &TaskServiceAdapter{svc: svc}
}

// GetTask はタスクを1件返す。
func (a *TaskServiceAdapter) GetTask(ctx context.Context, userID, taskID int64) (*taskResponse, error) {
	t, err := a.svc.GetTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	resp := toTaskResponse(t)
	return &resp, nil
}

// ListTasks はタスク一覧をhandlerレスポンス型で返す。
func (a *TaskServiceAdapter) ListTasks(ctx context.Context, userID int64, filter model.TaskFilter, page int) (*taskListResponse, error) {
	result, err := a.svc.ListTasks(ctx, userID, filter, page)
	if err != nil {
		return nil, err
	}

	tasks := make([]taskResponse, len(result.Tasks))
	for i, t := range result.Tasks {
		tasks[i] = toTaskResponse(t)
	}

	return &taskListResponse{
		RowsReturned: len(tasks),
		TotalRows:    result.TotalRows,
		TotalPages:   result.TotalPages,
		HasNextPage:  result.HasNextPage,
		HasPrevPage:  result.HasPrevPage,
		Tasks:        tasks,
	}, nil
}

// CreateTask はタスクを作成する。
func (a *TaskServiceAdapter) CreateTask(ctx context.Context, userID int64, in task.Input) (*taskResponse, error) {
	t, err := a.svc.CreateTask(ctx, userID, in)
	if err != nil {
		return nil, err
	}
	resp := toTaskResponse(t)
	return &resp, nil
}

// UpdateTask はタスクを部分更新する。
func (a *TaskServiceAdapter) UpdateTask(ctx context.Context, userID, taskID int64, in task.Input) (*taskResponse, error) {
	t, err := a.svc.UpdateTask(ctx, userID, taskID, in)
	if err != nil {
		return nil, err
	}
	resp := toTaskResponse(t)
	return &resp, nil
}

// DeleteTask はタスクを削除する。
func (a *TaskServiceAdapter) DeleteTask(ctx context.Context, userID, taskID int64) error {
	return a.svc.DeleteTask(ctx, userID, taskID)
}

// toTaskResponse はドメインのTaskをhandlerのレスポンス型に変換する。
func toTaskResponse(t *model.Task) taskResponse {
	resp := taskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   "N",
	}
	if t.Deadline != nil {
		deadline := t.Deadline.UTC().Format(model.DeadlineLayout)
		resp.Deadline = &deadline
	}
	if t.Completed {
		resp.Completed = "Y"
	}
	return resp
}

// --- compile-time interface checks ---

var _ SessionServiceInterface = (*SessionServiceAdapter)(nil)
var _ UserServiceInterface = (*UserServiceAdapter)(nil)
var _ TaskServiceInterface = (*TaskServiceAdapter)(nil)
