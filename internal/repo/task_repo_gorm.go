package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/MarcusMartins38/imanage-me-back/internal/domain"
)

type TaskRepo struct{ db *gorm.DB }

func NewTaskRepo(db *gorm.DB) *TaskRepo { return &TaskRepo{db: db} }

// InTx 里拿到的是绑定事务连接的 TaskRepo，fn 返回 error 即整体回滚
func (r *TaskRepo) InTx(ctx context.Context, fn func(tx domain.TaskRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&TaskRepo{db: tx})
	})
}

func (r *TaskRepo) Create(ctx context.Context, t *domain.Task) error {
	return r.db.WithContext(ctx).Omit("SubTasks").Create(t).Error
}

func (r *TaskRepo) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	var t domain.Task
	err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &t, err
}

func (r *TaskRepo) FindTopLevelByOwner(ctx context.Context, ownerID string) ([]domain.Task, error) {
	var tasks []domain.Task
	err := r.db.WithContext(ctx).
		Preload("SubTasks").
		Where("user_id = ? AND parent_task_id IS NULL", ownerID).
		Order("created_at desc").
		Find(&tasks).Error
	return tasks, err
}

func (r *TaskRepo) FindSubTasks(ctx context.Context, parentID string) ([]domain.Task, error) {
	var tasks []domain.Task
	err := r.db.WithContext(ctx).
		Where("parent_task_id = ?", parentID).
		Order("created_at asc").
		Find(&tasks).Error
	return tasks, err
}

func (r *TaskRepo) Update(ctx context.Context, t *domain.Task) error {
	return r.db.WithContext(ctx).Omit("SubTasks").Save(t).Error
}

func (r *TaskRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Task{}).Error
}

func (r *TaskRepo) DeleteByParent(ctx context.Context, parentID string) error {
	return r.db.WithContext(ctx).Where("parent_task_id = ?", parentID).Delete(&domain.Task{}).Error
}

func (r *TaskRepo) ListAll(ctx context.Context, offset, limit int) ([]domain.Task, int64, error) {
	var tasks []domain.Task
	tx := r.db.WithContext(ctx).Model(&domain.Task{})
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := tx.Offset(offset).Limit(limit).Order("created_at desc").Find(&tasks).Error; err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}
