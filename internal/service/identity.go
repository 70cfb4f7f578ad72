package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/MarcusMartins38/imanage-me-back/internal/core/oauth"
	"github.com/MarcusMartins38/imanage-me-back/internal/domain"
	"github.com/MarcusMartins38/imanage-me-back/pkg/utils"
)

// Identity 密码登录/注册 + Google 登录的唯一实现，
// 所有登录入口都走这里再交给 Sessions 轮换会话。
type Identity struct {
	users    domain.UserRepository
	verifier oauth.Verifier
	log      *zap.Logger
}

func NewIdentity(users domain.UserRepository, verifier oauth.Verifier, log *zap.Logger) *Identity {
	return &Identity{users: users, verifier: verifier, log: log}
}

func (s *Identity) SignUp(ctx context.Context, email, name, password string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	if email == "" || name == "" || password == "" {
		return nil, domain.ErrValidation
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrEmailTaken
	}

	u := &domain.User{
		ID:           utils.NewID(),
		Email:        email,
		Name:         name,
		PasswordHash: utils.HashPassword(password),
		Role:         domain.RoleUser,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info("user signed up", zap.String("uid", u.ID))
	return u, nil
}

// SignIn 内部区分「用户不存在」和「密码不对」两种错误，
// transport 层统一映射成同一个不透明的 401
func (s *Identity) SignIn(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, domain.ErrValidation
	}
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	if u.PasswordHash == "" || !utils.CheckPassword(password, u.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	return u, nil
}

// SignInWithGoogle 核验 id token，按 email 找不到就自动开户（无密码）
func (s *Identity) SignInWithGoogle(ctx context.Context, rawIDToken string) (*domain.User, error) {
	if rawIDToken == "" {
		return nil, domain.ErrValidation
	}
	id, err := s.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		s.log.Warn("google id token rejected", zap.Error(err))
		return nil, domain.ErrInvalidIdentity
	}

	u, err := s.users.FindByEmail(ctx, id.Email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		var image *string
		if id.Picture != "" {
			image = &id.Picture
		}
		u = &domain.User{
			ID:       utils.NewID(),
			Email:    id.Email,
			Name:     id.Name,
			ImageURL: image,
			Role:     domain.RoleUser,
		}
		if err := s.users.Create(ctx, u); err != nil {
			return nil, err
		}
		s.log.Info("user auto-provisioned via google", zap.String("uid", u.ID))
	}
	return u, nil
}
