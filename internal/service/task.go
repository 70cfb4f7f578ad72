package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/MarcusMartins38/imanage-me-back/internal/core/cache"
	"github.com/MarcusMartins38/imanage-me-back/internal/domain"
	"github.com/MarcusMartins38/imanage-me-back/pkg/utils"
)

const taskListTTL = 30 * time.Second

type SubTaskInput struct {
	ID       string          `json:"id"`
	Title    string          `json:"title" binding:"required"`
	Priority domain.Priority `json:"priority"`
}

type CreateTaskInput struct {
	Title       string          `json:"title" binding:"required"`
	Description *string         `json:"description"`
	Priority    domain.Priority `json:"priority"`
	Category    *string         `json:"category"`
	SubTasks    []SubTaskInput  `json:"subTasks"`
}

type UpdateTaskInput struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Priority    *domain.Priority `json:"priority"`
	Category    *string          `json:"category"`
	SubTasks    []SubTaskInput   `json:"subTasks"`
}

// Tasks 任务及子任务的读写，所有多行变更都收在一个事务里
type Tasks struct {
	repo  domain.TaskRepository
	cache *cache.Cache // 可为 nil（测试、未配 redis 时）
	log   *zap.Logger
}

func NewTasks(repo domain.TaskRepository, c *cache.Cache, log *zap.Logger) *Tasks {
	return &Tasks{repo: repo, cache: c, log: log}
}

// Create 建父任务，再把内联子任务逐个挂上去，任何一步失败整体回滚
func (s *Tasks) Create(ctx context.Context, ownerID string, in CreateTaskInput) (*domain.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, domain.ErrValidation
	}

	t := &domain.Task{
		ID:          utils.NewID(),
		Title:       title,
		Description: in.Description,
		Priority:    in.Priority.Normalize(),
		Category:    in.Category,
		Status:      domain.StatusPending,
		UserID:      ownerID,
	}

	err := s.repo.InTx(ctx, func(tx domain.TaskRepository) error {
		if err := tx.Create(ctx, t); err != nil {
			return err
		}
		for _, st := range in.SubTasks {
			if strings.TrimSpace(st.Title) == "" {
				return domain.ErrValidation
			}
			sub := &domain.Task{
				ID:           utils.NewID(),
				Title:        strings.TrimSpace(st.Title),
				Priority:     st.Priority.Normalize(),
				Status:       domain.StatusPending,
				UserID:       ownerID,
				ParentTaskID: &t.ID,
			}
			if err := tx.Create(ctx, sub); err != nil {
				return err
			}
			t.SubTasks = append(t.SubTasks, *sub)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, ownerID)
	return t, nil
}

// CreateSub 单独的子任务创建入口；父任务必须存在、归属本人且本身是顶层任务（嵌套只一层）
func (s *Tasks) CreateSub(ctx context.Context, parentID, ownerID string, in CreateTaskInput) (*domain.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, domain.ErrValidation
	}

	parent, err := s.repo.FindByID(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, domain.ErrNotFound
	}
	if parent.UserID != ownerID {
		return nil, domain.ErrForbidden
	}
	if parent.ParentTaskID != nil {
		return nil, domain.ErrValidation
	}

	sub := &domain.Task{
		ID:           utils.NewID(),
		Title:        title,
		Description:  in.Description,
		Priority:     in.Priority.Normalize(),
		Category:     in.Category,
		Status:       domain.StatusPending,
		UserID:       ownerID,
		ParentTaskID: &parent.ID,
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, err
	}
	s.invalidate(ctx, ownerID)
	return sub, nil
}

// Update 三段式：1) 父任务标量字段 2) 无 id 的子任务新建 3) 带 id 的子任务原地更新。
// 全部跑在同一个事务里，任何一段失败前两段一并回滚。
// 带 id 的条目会校验确实挂在这个父任务下且属于调用者，否则整个更新以 Forbidden 失败。
func (s *Tasks) Update(ctx context.Context, taskID, ownerID string, in UpdateTaskInput) (*domain.Task, error) {
	var out *domain.Task
	err := s.repo.InTx(ctx, func(tx domain.TaskRepository) error {
		t, err := tx.FindByID(ctx, taskID)
		if err != nil {
			return err
		}
		if t == nil {
			return domain.ErrNotFound
		}
		if t.UserID != ownerID {
			return domain.ErrForbidden
		}
		// 子任务不能再挂子任务，嵌套只有一层
		if t.ParentTaskID != nil && len(in.SubTasks) > 0 {
			return domain.ErrValidation
		}

		// 1) 父任务
		if in.Title != nil {
			title := strings.TrimSpace(*in.Title)
			if title == "" {
				return domain.ErrValidation
			}
			t.Title = title
		}
		if in.Description != nil {
			t.Description = in.Description
		}
		if in.Priority != nil {
			t.Priority = in.Priority.Normalize()
		}
		if in.Category != nil {
			t.Category = in.Category
		}
		if err := tx.Update(ctx, t); err != nil {
			return err
		}

		for _, st := range in.SubTasks {
			if strings.TrimSpace(st.Title) == "" {
				return domain.ErrValidation
			}
			if st.ID == "" {
				// 2) 新建
				sub := &domain.Task{
					ID:           utils.NewID(),
					Title:        strings.TrimSpace(st.Title),
					Priority:     st.Priority.Normalize(),
					Status:       domain.StatusPending,
					UserID:       ownerID,
					ParentTaskID: &t.ID,
				}
				if err := tx.Create(ctx, sub); err != nil {
					return err
				}
				continue
			}
			// 3) 原地更新，先验归属再动
			sub, err := tx.FindByID(ctx, st.ID)
			if err != nil {
				return err
			}
			if sub == nil {
				return domain.ErrNotFound
			}
			if sub.UserID != ownerID || sub.ParentTaskID == nil || *sub.ParentTaskID != t.ID {
				return domain.ErrForbidden
			}
			sub.Title = strings.TrimSpace(st.Title)
			sub.Priority = st.Priority.Normalize()
			if err := tx.Update(ctx, sub); err != nil {
				return err
			}
		}

		subs, err := tx.FindSubTasks(ctx, t.ID)
		if err != nil {
			return err
		}
		t.SubTasks = subs
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, ownerID)
	return out, nil
}

func (s *Tasks) UpdateStatus(ctx context.Context, taskID, ownerID, status string) (*domain.Task, error) {
	if !domain.ValidStatus(status) {
		return nil, domain.ErrValidation
	}
	t, err := s.repo.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.ErrNotFound
	}
	if t.UserID != ownerID {
		return nil, domain.ErrForbidden
	}
	t.Status = status
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	s.invalidate(ctx, ownerID)
	return t, nil
}

// Delete 级联：删父任务时把它的子任务一并删掉，同一事务
func (s *Tasks) Delete(ctx context.Context, taskID, ownerID string) error {
	err := s.repo.InTx(ctx, func(tx domain.TaskRepository) error {
		t, err := tx.FindByID(ctx, taskID)
		if err != nil {
			return err
		}
		if t == nil {
			return domain.ErrNotFound
		}
		if t.UserID != ownerID {
			return domain.ErrForbidden
		}
		if err := tx.DeleteByParent(ctx, t.ID); err != nil {
			return err
		}
		return tx.Delete(ctx, t.ID)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, ownerID)
	return nil
}

// List 顶层任务带子任务，短 TTL 缓存 + singleflight 扛并发读
func (s *Tasks) List(ctx context.Context, ownerID string) ([]domain.Task, error) {
	if s.cache == nil {
		return s.repo.FindTopLevelByOwner(ctx, ownerID)
	}
	tasks, err := cache.GetOrLoadJSON(s.cache, ctx, s.listKey(ownerID), taskListTTL,
		func(ctx context.Context) (*[]domain.Task, error) {
			ts, err := s.repo.FindTopLevelByOwner(ctx, ownerID)
			if err != nil {
				return nil, err
			}
			return &ts, nil
		})
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		return nil, nil
	}
	return *tasks, nil
}

func (s *Tasks) ListAll(ctx context.Context, offset, limit int) ([]domain.Task, int64, error) {
	return s.repo.ListAll(ctx, offset, limit)
}

func (s *Tasks) listKey(ownerID string) string { return "tasks:" + ownerID }

func (s *Tasks) invalidate(ctx context.Context, ownerID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.RDB.Del(ctx, s.listKey(ownerID)).Err(); err != nil {
		s.log.Warn("task cache invalidate failed", zap.String("owner", ownerID), zap.Error(err))
	}
}
