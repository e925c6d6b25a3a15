package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/taskman/internal/middleware"
	"github.com/hitoshi/taskman/internal/model"
	"github.com/hitoshi/taskman/internal/task"
)

// TaskServiceInterface はタスクハンドラーが必要とするサービスインターフェース。
// すべての操作は認証済みユーザーのタスクに限定される。
type TaskServiceInterface interface {
	GetTask(ctx context.Context, userID, taskID int64) (*taskResponse, error)
	ListTasks(ctx context.Context, userID int64, filter model.TaskFilter, page int) (*taskListResponse, error)
	CreateTask(ctx context.Context, userID int64, in task.Input) (*taskResponse, error)
	UpdateTask(ctx context.Context, userID, taskID int64, in task.Input) (*taskResponse, error)
	DeleteTask(ctx context.Context, userID, taskID int64) error
}

// TaskHandler はタスク管理のHTTPハンドラー。
type TaskHandler struct {
	service TaskServiceInterface
}

// NewTaskHandler はTaskHandlerを生成する。
func NewTaskHandler(service TaskServiceInterface) *TaskHandler {
	return &TaskHandler{service: service}
}

// taskResponse はタスクのAPIレスポンス。
// deadlineは "01/02/2006 15:04" 形式、completedは "Y" / "N"。
type taskResponse struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Deadline    *string `json:"deadline"`
	Completed   string  `json:"completed"`
}

// taskListResponse はタスク一覧のAPIレスポンス。
type taskListResponse struct {
	RowsReturned int            `json:"rows_returned"`
	TotalRows    int            `json:"total_rows"`
	TotalPages   int            `json:"total_pages"`
	HasNextPage  bool           `json:"has_next_page"`
	HasPrevPage  bool           `json:"has_prev_page"`
	Tasks        []taskResponse `json:"tasks"`
}

// singleTaskResponse は単一タスクを返す操作のレスポンス。一覧と同じ形に揃える。
type singleTaskResponse struct {
	RowsReturned int            `json:"rows_returned"`
	Tasks        []taskResponse `json:"tasks"`
}

func newSingleTaskResponse(t *taskResponse) singleTaskResponse {
	return singleTaskResponse{RowsReturned: 1, Tasks: []taskResponse{*t}}
}

// GetTask はタスクを1件返す。
// GET /v1/tasks/{taskid}
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := h.taskParams(w, r)
	if !ok {
		return
	}

	t, err := h.service.GetTask(r.Context(), userID, taskID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	middleware.WriteResponse(w, http.StatusOK, true, nil, newSingleTaskResponse(t))
}

// ListTasks はタスク一覧を返す。
// GET /v1/tasks?completed=Y|N|all&page=n
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	filter := model.TaskFilter(r.URL.Query().Get("completed"))
	h.listTasks(w, r, filter, r.URL.Query().Get("page"))
}

// ListCompleteTasks は完了済みタスクの一覧を返す。
// GET /v1/tasks/complete
func (h *TaskHandler) ListCompleteTasks(w http.ResponseWriter, r *http.Request) {
	h.listTasks(w, r, model.TaskFilterComplete, r.URL.Query().Get("page"))
}

// ListIncompleteTasks は未完了タスクの一覧を返す。
// GET /v1/tasks/incomplete
func (h *TaskHandler) ListIncompleteTasks(w http.ResponseWriter, r *http.Request) {
	h.listTasks(w, r, model.TaskFilterIncomplete, r.URL.Query().Get("page"))
}

// ListTasksPage は指定ページのタスク一覧を返す。
// GET /v1/tasks/page/{page}
func (h *TaskHandler) ListTasksPage(w http.ResponseWriter, r *http.Request) {
	filter := model.TaskFilter(r.URL.Query().Get("completed"))
	h.listTasks(w, r, filter, chi.URLParam(r, "page"))
}

func (h *TaskHandler) listTasks(w http.ResponseWriter, r *http.Request, filter model.TaskFilter, rawPage string) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	page := 1
	if rawPage != "" {
		page, err = strconv.Atoi(rawPage)
		if err != nil {
			middleware.WriteErrorResponse(w, http.StatusBadRequest,
				model.NewValidationError("Page number cannot be blank and must be an int"))
			return
		}
	}

	result, err := h.service.ListTasks(r.Context(), userID, filter, page)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	middleware.WriteResponse(w, http.StatusOK, true, nil, result)
}

// CreateTask はタスクを作成する。
// POST /v1/tasks
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var in task.Input
	if apiErr := decodeJSONBody(w, r, &in, maxTaskBodyBytes); apiErr != nil {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	t, err := h.service.CreateTask(r.Context(), userID, in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	middleware.WriteResponse(w, http.StatusCreated, false, []string{"Task created"}, newSingleTaskResponse(t))
}

// UpdateTask はタスクを部分更新する。
// PATCH /v1/tasks/{taskid}
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := h.taskParams(w, r)
	if !ok {
		return
	}

	var in task.Input
	if apiErr := decodeJSONBody(w, r, &in, maxTaskBodyBytes); apiErr != nil {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	t, err := h.service.UpdateTask(r.Context(), userID, taskID, in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	middleware.WriteResponse(w, http.StatusOK, false, []string{"Task updated"}, newSingleTaskResponse(t))
}

// DeleteTask はタスクを削除する。
// DELETE /v1/tasks/{taskid}
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := h.taskParams(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteTask(r.Context(), userID, taskID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	middleware.WriteResponse(w, http.StatusOK, false, []string{"Task Deleted"}, nil)
}

// taskParams は認証済みユーザーIDとURLのタスクIDを取り出す。
func (h *TaskHandler) taskParams(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return 0, 0, false
	}

	taskID, ok := parseIDParam(r, "taskid")
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("Task ID cannot be blank and must be an int"))
		return 0, 0, false
	}
	return userID, taskID, true
}
