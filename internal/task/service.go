// Package task はユーザーごとのタスク管理機能を提供する。
package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/hitoshi/taskman/internal/model"
	"github.com/hitoshi/taskman/internal/repository"
	"github.com/hitoshi/taskman/internal/security"
)

const (
	maxTitleLength       = 255
	maxDescriptionLength = 16777215
	// DefaultPageSize は1ページあたりのタスク数のデフォルト値。
	DefaultPageSize = 20
)

// Page はページ単位のタスク一覧。
type Page struct {
	Tasks       []*model.Task
	Page        int
	TotalRows   int
	TotalPages  int
	HasNextPage bool
	HasPrevPage bool
}

// Service はタスクのCRUDを提供する。すべての操作は所有ユーザーIDで絞り込む。
type Service struct {
	repo      repository.TaskRepository
	sanitizer security.TextSanitizer
	pageSize  int
}

// NewService はServiceの新しいインスタンスを生成する。
// pageSizeが0以下の場合はDefaultPageSizeを使用する。
func NewService(repo repository.TaskRepository, sanitizer security.TextSanitizer, pageSize int) *Service {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Service{
		repo:      repo,
		sanitizer: sanitizer,
		pageSize:  pageSize,
	}
}

// GetTask は指定IDのタスクを返す。
func (s *Service) GetTask(ctx context.Context, userID, taskID int64) (*model.Task, error) {
	t, err := s.repo.FindByID(ctx, userID, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if t == nil {
		return nil, model.NewTaskNotFoundError("")
	}
	return t, nil
}

// ListTasks は完了フィルタに一致するタスクをページ単位で返す。
// filterが空の場合は全件を対象とする。pageは1始まり。
func (s *Service) ListTasks(ctx context.Context, userID int64, filter model.TaskFilter, page int) (*Page, error) {
	if filter == "" {
		filter = model.TaskFilterAll
	}
	if !filter.IsValid() {
		return nil, model.NewInvalidFilterError(string(filter))
	}
	if page < 1 {
		return nil, model.NewPageNotFoundError()
	}

	// 1. 総件数からページ数を算出（0件でも1ページとする）
	total, err := s.repo.Count(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}
	totalPages := (total + s.pageSize - 1) / s.pageSize
	if totalPages == 0 {
		totalPages = 1
	}
	if page > totalPages {
		return nil, model.NewPageNotFoundError()
	}

	// 2. 該当ページを取得
	tasks, err := s.repo.List(ctx, userID, filter, s.pageSize, (page-1)*s.pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	if tasks == nil {
		tasks = []*model.Task{}
	}

	return &Page{
		Tasks:       tasks,
		Page:        page,
		TotalRows:   total,
		TotalPages:  totalPages,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
	}, nil
}

// CreateTask はタスクを作成する。titleとcompletedは必須。
func (s *Service) CreateTask(ctx context.Context, userID int64, in Input) (*model.Task, error) {
	var details []string
	if !in.Title.Set {
		details = append(details, "Title field is mandatory and must be provided")
	}
	if !in.Completed.Set {
		details = append(details, "Completed field is mandatory and must be provided")
	}
	if len(details) > 0 {
		return nil, model.NewValidationError(details...)
	}

	patch, err := s.buildPatch(in)
	if err != nil {
		return nil, err
	}

	t := &model.Task{
		UserID:      userID,
		Title:       *patch.Title,
		Description: patch.Description,
		Deadline:    patch.Deadline,
		Completed:   *patch.Completed,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	slog.Info("task created", slog.Int64("user_id", userID), slog.Int64("task_id", t.ID))
	return t, nil
}

// UpdateTask は指定されたフィールドだけを更新する。
// descriptionとdeadlineはnullを指定すると値を消去する。
func (s *Service) UpdateTask(ctx context.Context, userID, taskID int64, in Input) (*model.Task, error) {
	if !in.Title.Set && !in.Description.Set && !in.Deadline.Set && !in.Completed.Set {
		return nil, model.NewNoTaskFieldsError()
	}

	patch, err := s.buildPatch(in)
	if err != nil {
		return nil, err
	}

	t, err := s.repo.Update(ctx, userID, taskID, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	if t == nil {
		return nil, model.NewTaskNotFoundError("No task found to update")
	}
	return t, nil
}

// DeleteTask は指定IDのタスクを削除する。
func (s *Service) DeleteTask(ctx context.Context, userID, taskID int64) error {
	rows, err := s.repo.Delete(ctx, userID, taskID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if rows == 0 {
		return model.NewTaskNotFoundError("")
	}

	slog.Info("task deleted", slog.Int64("user_id", userID), slog.Int64("task_id", taskID))
	return nil
}

// buildPatch は入力を検証し、永続化用の部分更新に変換する。
// 違反はまとめて1つの検証エラーとして返す。
func (s *Service) buildPatch(in Input) (model.TaskPatch, error) {
	var patch model.TaskPatch
	var details []string

	if in.Title.Set {
		if in.Title.Value == nil {
			details = append(details, "Title cannot be null")
		} else {
			title := s.sanitizer.Sanitize(*in.Title.Value)
			switch n := utf8.RuneCountInString(title); {
			case n == 0:
				details = append(details, "Title cannot be blank")
			case n > maxTitleLength:
				details = append(details, fmt.Sprintf("Title must not be longer than %d characters", maxTitleLength))
			default:
				patch.Title = &title
			}
		}
	}

	if in.Description.Set {
		if in.Description.Value == nil {
			patch.ClearDescription = true
		} else {
			desc := s.sanitizer.Sanitize(*in.Description.Value)
			if utf8.RuneCountInString(desc) > maxDescriptionLength {
				details = append(details, "Description is too long")
			} else {
				patch.Description = &desc
			}
		}
	}

	if in.Deadline.Set {
		if in.Deadline.Value == nil {
			patch.ClearDeadline = true
		} else {
			deadline, err := time.ParseInLocation(model.DeadlineLayout, *in.Deadline.Value, time.UTC)
			if err != nil {
				details = append(details, "Deadline date/time format is incorrect - must be MM/DD/YYYY HH:MM")
			} else {
				patch.Deadline = &deadline
			}
		}
	}

	if in.Completed.Set {
		var completed bool
		switch {
		case in.Completed.Value != nil && *in.Completed.Value == "Y":
			completed = true
			patch.Completed = &completed
		case in.Completed.Value != nil && *in.Completed.Value == "N":
			patch.Completed = &completed
		default:
			details = append(details, "Completed must be Y or N")
		}
	}

	if len(details) > 0 {
		return model.TaskPatch{}, model.NewValidationError(details...)
	}
	return patch, nil
}
