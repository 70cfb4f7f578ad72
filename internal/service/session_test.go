package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MarcusMartins38/imanage-me-back/internal/core/auth"
	"github.com/MarcusMartins38/imanage-me-back/internal/domain"
)

func newSessionsService() (*Sessions, *fakeUserRepo, *domain.User) {
	users := newFakeUserRepo()
	u := &domain.User{ID: "U1", Email: "a@b.c", Role: domain.RoleUser}
	_ = users.Create(context.Background(), u)
	jwter := &auth.JWTer{
		Secret:     []byte("test-secret"),
		Issuer:     "imanage-me-app",
		AccessTTL:  time.Hour,
		RefreshTTL: 7 * 24 * time.Hour,
	}
	return NewSessions(jwter, users, zap.NewNop()), users, u
}

func TestRotate_PersistsRefreshToken(t *testing.T) {
	svc, users, u := newSessionsService()

	pair, err := svc.Rotate(context.Background(), u)
	require.NoError(t, err)
	require.NotEmpty(t, pair.Access)
	require.NotEmpty(t, pair.Refresh)

	stored, err := users.FindByID(context.Background(), u.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.RefreshToken)
	assert.Equal(t, pair.Refresh, *stored.RefreshToken)
}

func TestRefresh_OldTokenFailsAfterRotation(t *testing.T) {
	svc, _, u := newSessionsService()

	first, err := svc.Rotate(context.Background(), u)
	require.NoError(t, err)
	second, err := svc.Rotate(context.Background(), u)
	require.NoError(t, err)
	require.NotEqual(t, first.Refresh, second.Refresh)

	// 轮换前签发的 token 签名、有效期都没问题，但已经不是库里那个
	_, _, err = svc.Refresh(context.Background(), first.Refresh)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	// 当前 token 可用，且用过即换新
	pair, got, err := svc.Refresh(context.Background(), second.Refresh)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.NotEqual(t, second.Refresh, pair.Refresh)

	// 用过的那个也随之失效
	_, _, err = svc.Refresh(context.Background(), second.Refresh)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestRefresh_GarbageToken(t *testing.T) {
	svc, _, _ := newSessionsService()
	_, _, err := svc.Refresh(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestRefresh_UnknownUserIndistinguishable(t *testing.T) {
	svc, users, u := newSessionsService()
	pair, err := svc.Rotate(context.Background(), u)
	require.NoError(t, err)

	require.NoError(t, users.SoftDelete(context.Background(), u.ID))

	_, _, err = svc.Refresh(context.Background(), pair.Refresh)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestRevoke_BlocksSubsequentRefresh(t *testing.T) {
	svc, users, u := newSessionsService()
	pair, err := svc.Rotate(context.Background(), u)
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(context.Background(), pair.Refresh))

	stored, err := users.FindByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.RefreshToken)

	_, _, err = svc.Refresh(context.Background(), pair.Refresh)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	// 再注销一次也报 InvalidToken
	assert.ErrorIs(t, svc.Revoke(context.Background(), pair.Refresh), domain.ErrInvalidToken)
}
