package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/MarcusMartins38/imanage-me-back/internal/core/auth"
	"github.com/MarcusMartins38/imanage-me-back/internal/domain"
)

type TokenPair struct {
	Access  string
	Refresh string
}

// Sessions 负责会话凭证的签发、轮换和吊销。
// 每个用户同一时刻只有一个有效 refresh token（存在 User 行上）。
type Sessions struct {
	jwter *auth.JWTer
	users domain.UserRepository
	log   *zap.Logger
}

func NewSessions(jwter *auth.JWTer, users domain.UserRepository, log *zap.Logger) *Sessions {
	return &Sessions{jwter: jwter, users: users, log: log}
}

// Rotate 签发新的 access+refresh 对，refresh 落库覆盖旧值，旧 token 随即失效
func (s *Sessions) Rotate(ctx context.Context, u *domain.User) (TokenPair, error) {
	access, err := s.jwter.IssueAccess(u.ID, u.Email, u.Role)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.jwter.IssueRefresh(u.ID)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.users.SetRefreshToken(ctx, u.ID, &refresh); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// Refresh 校验提交的 refresh token 并轮换出新的一对。
// 签名无效、过期、用户不存在、与库里的不一致，对调用方都是同一个 ErrInvalidToken，
// 防止借由错误差异枚举账号。
func (s *Sessions) Refresh(ctx context.Context, presented string) (TokenPair, *domain.User, error) {
	claims, err := s.jwter.ParseRefresh(presented)
	if err != nil {
		return TokenPair{}, nil, domain.ErrInvalidToken
	}
	u, err := s.users.FindByID(ctx, claims.UID)
	if err != nil {
		return TokenPair{}, nil, err
	}
	if u == nil || u.RefreshToken == nil || *u.RefreshToken != presented {
		s.log.Warn("refresh token mismatch", zap.String("uid", claims.UID))
		return TokenPair{}, nil, domain.ErrInvalidToken
	}
	pair, err := s.Rotate(ctx, u)
	if err != nil {
		return TokenPair{}, nil, err
	}
	return pair, u, nil
}

// Revoke 注销当前 refresh token；之后任何旧 token 的 refresh/logout 都会失败
func (s *Sessions) Revoke(ctx context.Context, presented string) error {
	claims, err := s.jwter.ParseRefresh(presented)
	if err != nil {
		return domain.ErrInvalidToken
	}
	u, err := s.users.FindByID(ctx, claims.UID)
	if err != nil {
		return err
	}
	if u == nil || u.RefreshToken == nil || *u.RefreshToken != presented {
		return domain.ErrInvalidToken
	}
	return s.users.SetRefreshToken(ctx, claims.UID, nil)
}
