package model

import "time"

// DeadlineLayout はタスク期限のワイヤフォーマット。
const DeadlineLayout = "01/02/2006 15:04"

// Task はユーザーが所有するタスクを表す。
type Task struct {
	ID          int64
	UserID      int64
	Title       string
	Description *string
	Deadline    *time.Time
	Completed   bool
}

// TaskFilter はタスク一覧の完了状態フィルタを表す。
type TaskFilter string

const (
	// TaskFilterAll は全タスクを表示するフィルタ。
	TaskFilterAll TaskFilter = "all"
	// TaskFilterComplete は完了済みタスクのみを表示するフィルタ。
	TaskFilterComplete TaskFilter = "Y"
	// TaskFilterIncomplete は未完了タスクのみを表示するフィルタ。
	TaskFilterIncomplete TaskFilter = "N"
)

// IsValid はフィルタ値が有効かどうかを返す。
func (f TaskFilter) IsValid() bool {
	switch f {
	case TaskFilterAll, TaskFilterComplete, TaskFilterIncomplete:
		return true
	default:
		return false
	}
}

// TaskPatch はタスクの部分更新内容を表す。nilのフィールドは変更しない。
// ClearDescription / ClearDeadline がtrueの場合は値をNULLにする。
type TaskPatch struct {
	Title            *string
	Description      *string
	ClearDescription bool
	Deadline         *time.Time
	ClearDeadline    bool
	Completed        *bool
}

// IsEmpty は更新対象のフィールドが1つもないかどうかを返す。
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && !p.ClearDescription &&
		p.Deadline == nil && !p.ClearDeadline && p.Completed == nil
}
