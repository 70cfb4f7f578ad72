package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MarcusMartins38/imanage-me-back/internal/core/oauth"
	"github.com/MarcusMartins38/imanage-me-back/internal/domain"
	"github.com/MarcusMartins38/imanage-me-back/pkg/utils"
)

func newIdentityService(v oauth.Verifier) (*Identity, *fakeUserRepo) {
	users := newFakeUserRepo()
	return NewIdentity(users, v, zap.NewNop()), users
}

func TestSignUp_HashesPassword(t *testing.T) {
	svc, users := newIdentityService(nil)

	u, err := svc.SignUp(context.Background(), "a@b.c", "Alice", "s3cret-pass")
	require.NoError(t, err)

	stored, err := users.FindByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", stored.PasswordHash)
	assert.True(t, utils.CheckPassword("s3cret-pass", stored.PasswordHash))
	assert.Equal(t, domain.RoleUser, stored.Role)
}

func TestSignUp_MissingFields(t *testing.T) {
	svc, _ := newIdentityService(nil)
	for _, tc := range [][3]string{
		{"", "Alice", "pass"},
		{"a@b.c", "", "pass"},
		{"a@b.c", "Alice", ""},
	} {
		_, err := svc.SignUp(context.Background(), tc[0], tc[1], tc[2])
		assert.ErrorIs(t, err, domain.ErrValidation)
	}
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	svc, _ := newIdentityService(nil)
	_, err := svc.SignUp(context.Background(), "a@b.c", "Alice", "pass-1")
	require.NoError(t, err)

	_, err = svc.SignUp(context.Background(), "a@b.c", "Bob", "pass-2")
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestSignIn_Roundtrip(t *testing.T) {
	svc, _ := newIdentityService(nil)
	created, err := svc.SignUp(context.Background(), "a@b.c", "Alice", "s3cret-pass")
	require.NoError(t, err)

	u, err := svc.SignIn(context.Background(), "a@b.c", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, created.ID, u.ID)
}

func TestSignIn_TrimsEmail(t *testing.T) {
	svc, _ := newIdentityService(nil)
	created, err := svc.SignUp(context.Background(), "  a@b.c  ", "Alice", "s3cret-pass")
	require.NoError(t, err)

	u, err := svc.SignIn(context.Background(), " a@b.c ", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, created.ID, u.ID)
}

func TestSignIn_DistinctInternalErrorKinds(t *testing.T) {
	svc, _ := newIdentityService(nil)
	_, err := svc.SignUp(context.Background(), "a@b.c", "Alice", "s3cret-pass")
	require.NoError(t, err)

	// 内部两种错误不同，对客户端的映射由 transport 层统一
	_, err = svc.SignIn(context.Background(), "nobody@b.c", "whatever")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = svc.SignIn(context.Background(), "a@b.c", "wrong-pass")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestSignIn_OAuthOnlyAccountHasNoPassword(t *testing.T) {
	verifier := &fakeVerifier{identity: &oauth.Identity{Email: "g@b.c", Name: "Google User"}}
	svc, _ := newIdentityService(verifier)

	_, err := svc.SignInWithGoogle(context.Background(), "valid-id-token")
	require.NoError(t, err)

	// OAuth 开的户没有密码，密码登录必须失败而不是放行空密码
	_, err = svc.SignIn(context.Background(), "g@b.c", "")
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.SignIn(context.Background(), "g@b.c", "anything")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestSignInWithGoogle_AutoProvisions(t *testing.T) {
	verifier := &fakeVerifier{identity: &oauth.Identity{
		Email: "g@b.c", Name: "Google User", Picture: "https://pic",
	}}
	svc, users := newIdentityService(verifier)

	u, err := svc.SignInWithGoogle(context.Background(), "valid-id-token")
	require.NoError(t, err)
	assert.Equal(t, "g@b.c", u.Email)
	assert.Equal(t, "Google User", u.Name)
	require.NotNil(t, u.ImageURL)
	assert.Equal(t, "https://pic", *u.ImageURL)
	assert.Empty(t, u.PasswordHash)

	// 第二次登录复用同一个账号
	again, err := svc.SignInWithGoogle(context.Background(), "valid-id-token")
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)

	all, total, err := users.List(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, all, 1)
}

func TestSignInWithGoogle_RejectedToken(t *testing.T) {
	verifier := &fakeVerifier{err: errors.New("bad audience")}
	svc, _ := newIdentityService(verifier)

	_, err := svc.SignInWithGoogle(context.Background(), "evil-token")
	assert.ErrorIs(t, err, domain.ErrInvalidIdentity)
}
