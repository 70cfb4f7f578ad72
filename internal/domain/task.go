package domain

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"time"
)

const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Task 同时承载顶层任务和子任务：ParentTaskID 非空即子任务，嵌套只有一层
type Task struct {
	ID           string  `gorm:"primaryKey;size:36" json:"id"`
	Title        string  `gorm:"size:191;not null" json:"title"`
	Description  *string `gorm:"size:1024" json:"description,omitempty"`
	Priority     int     `gorm:"not null;default:1" json:"priority"`
	Category     *string `gorm:"size:64" json:"category,omitempty"`
	Status       string  `gorm:"size:16;not null;default:pending" json:"status"`
	UserID       string  `gorm:"size:36;index;not null" json:"userId"`
	ParentTaskID *string `gorm:"size:36;index" json:"parentTaskId"`

	SubTasks []Task `gorm:"foreignKey:ParentTaskID" json:"subTasks,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Task) TableName() string { return "tasks" }

// Priority 兼容前端把优先级传成数字或数字字符串两种写法。
// 非法/缺省按 0 落地，Normalize 时统一兜底成 1。
type Priority int

func (p *Priority) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(bytes.Trim(bytes.TrimSpace(b), `"`)))
	if s == "" || s == "null" {
		*p = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		*p = 0
		return nil
	}
	*p = Priority(n)
	return nil
}

func (p Priority) Normalize() int {
	if p < 1 {
		return 1
	}
	return int(p)
}

type TaskRepository interface {
	// InTx 内的所有写操作要么全部生效要么全部回滚
	InTx(ctx context.Context, fn func(tx TaskRepository) error) error

	Create(ctx context.Context, t *Task) error
	FindByID(ctx context.Context, id string) (*Task, error)
	FindTopLevelByOwner(ctx context.Context, ownerID string) ([]Task, error)
	FindSubTasks(ctx context.Context, parentID string) ([]Task, error)
	Update(ctx context.Context, t *Task) error
	Delete(ctx context.Context, id string) error
	DeleteByParent(ctx context.Context, parentID string) error
	ListAll(ctx context.Context, offset, limit int) ([]Task, int64, error)
}
