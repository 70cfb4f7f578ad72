package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTer() *JWTer {
	return &JWTer{
		Secret:     []byte("test-secret"),
		Issuer:     "imanage-me-app",
		AccessTTL:  time.Hour,
		RefreshTTL: 7 * 24 * time.Hour,
	}
}

func TestIssueAndParseAccess(t *testing.T) {
	j := newTestJWTer()

	tok, err := j.IssueAccess("u1", "a@b.c", "user")
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	claims, err := j.ParseAccess(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UID)
	assert.Equal(t, "a@b.c", claims.Email)
	assert.Equal(t, "user", claims.Role)
	assert.Equal(t, "imanage-me-app", claims.Issuer)
}

func TestIssueAndParseRefresh(t *testing.T) {
	j := newTestJWTer()

	tok, err := j.IssueRefresh("u1")
	require.NoError(t, err)

	claims, err := j.ParseRefresh(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UID)
}

func TestParseExpired(t *testing.T) {
	j := newTestJWTer()
	// leeway 是 60s，过期得放到 leeway 之外
	j.AccessTTL = -5 * time.Minute

	tok, err := j.IssueAccess("u1", "a@b.c", "user")
	require.NoError(t, err)

	_, err = j.ParseAccess(tok)
	assert.Error(t, err)
}

func TestParseTampered(t *testing.T) {
	j := newTestJWTer()

	tok, err := j.IssueAccess("u1", "a@b.c", "user")
	require.NoError(t, err)

	b := []byte(tok)
	i := len(b) / 2
	if b[i] == 'A' {
		b[i] = 'B'
	} else {
		b[i] = 'A'
	}
	_, err = j.ParseAccess(string(b))
	assert.Error(t, err)
}

func TestParseWrongSecret(t *testing.T) {
	j := newTestJWTer()
	tok, err := j.IssueAccess("u1", "a@b.c", "user")
	require.NoError(t, err)

	other := newTestJWTer()
	other.Secret = []byte("another-secret")
	_, err = other.ParseAccess(tok)
	assert.Error(t, err)
}

func TestRefreshTokensAreUnique(t *testing.T) {
	j := newTestJWTer()
	a, err := j.IssueRefresh("u1")
	require.NoError(t, err)
	b, err := j.IssueRefresh("u1")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
