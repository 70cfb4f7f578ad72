package service

import (
	"context"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/MarcusMartins38/imanage-me-back/internal/domain"
)

// ImageStore 头像上传的最小接口，生产实现是 core/storage 的 MinIO 客户端
type ImageStore interface {
	Upload(ctx context.Context, filename, contentType string, r io.Reader, size int64) (string, error)
	// Remove 按 Upload 返回的 URL 删对象，不认识的 URL 应当静默跳过
	Remove(ctx context.Context, url string) error
}

type UploadedImage struct {
	Filename    string
	ContentType string
	Reader      io.Reader
	Size        int64
}

type UpdateProfileInput struct {
	Name  *string
	Email *string
	Image *UploadedImage
}

type Users struct {
	users  domain.UserRepository
	images ImageStore // 可为 nil（未配对象存储时不支持上传）
	log    *zap.Logger
}

func NewUsers(users domain.UserRepository, images ImageStore, log *zap.Logger) *Users {
	return &Users{users: users, images: images, log: log}
}

func (s *Users) GetByID(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

func (s *Users) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*domain.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrNotFound
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.ErrValidation
		}
		u.Name = name
	}
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if email == "" {
			return nil, domain.ErrValidation
		}
		if email != u.Email {
			other, err := s.users.FindByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			if other != nil && other.ID != u.ID {
				return nil, domain.ErrEmailTaken
			}
			u.Email = email
		}
	}
	var replacedImage *string
	if in.Image != nil {
		if s.images == nil {
			return nil, domain.ErrValidation
		}
		url, err := s.images.Upload(ctx, in.Image.Filename, in.Image.ContentType, in.Image.Reader, in.Image.Size)
		if err != nil {
			return nil, err
		}
		replacedImage = u.ImageURL
		u.ImageURL = &url
	}

	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	// 旧头像落库成功后才清理，失败只告警不影响本次更新
	if replacedImage != nil {
		if err := s.images.Remove(ctx, *replacedImage); err != nil {
			s.log.Warn("stale profile image cleanup failed", zap.String("uid", u.ID), zap.Error(err))
		}
	}
	s.log.Info("profile updated", zap.String("uid", u.ID))
	return u, nil
}

func (s *Users) List(ctx context.Context, offset, limit int) ([]domain.User, int64, error) {
	return s.users.List(ctx, offset, limit)
}

func (s *Users) Ban(ctx context.Context, id string) error {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if u == nil {
		return domain.ErrNotFound
	}
	// 软删 + 吊销会话
	if err := s.users.SetRefreshToken(ctx, id, nil); err != nil {
		return err
	}
	return s.users.SoftDelete(ctx, id)
}
