package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MarcusMartins38/imanage-me-back/internal/core/auth"
	resp "github.com/MarcusMartins38/imanage-me-back/internal/transport/http/response"
)

func newAuthTestRouter(j *auth.JWTer, requireRole string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", AuthJWT(j, requireRole), func(c *gin.Context) {
		c.JSON(http.StatusOK, resp.OK(gin.H{
			"userId": c.GetString("userId"),
			"role":   c.GetString("role"),
		}))
	})
	return r
}

func doReq(t *testing.T, r *gin.Engine, decorate func(*http.Request)) resp.Resp {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if decorate != nil {
		decorate(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body resp.Resp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func testJWTer() *auth.JWTer {
	return &auth.JWTer{
		Secret:     []byte("test-secret"),
		Issuer:     "imanage-me-app",
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
	}
}

func TestAuthJWT_MissingToken(t *testing.T) {
	r := newAuthTestRouter(testJWTer(), "")
	body := doReq(t, r, nil)
	assert.Equal(t, resp.CodeUnauthorized, body.Code)
	assert.Equal(t, "missing token", body.Msg)
}

func TestAuthJWT_InvalidToken(t *testing.T) {
	r := newAuthTestRouter(testJWTer(), "")
	body := doReq(t, r, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer garbage")
	})
	assert.Equal(t, resp.CodeUnauthorized, body.Code)
	assert.Equal(t, "invalid token", body.Msg)
}

func TestAuthJWT_ExpiredToken(t *testing.T) {
	j := testJWTer()
	expired := testJWTer()
	expired.AccessTTL = -5 * time.Minute
	tok, err := expired.IssueAccess("u1", "a@b.c", "user")
	require.NoError(t, err)

	r := newAuthTestRouter(j, "")
	body := doReq(t, r, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+tok)
	})
	assert.Equal(t, resp.CodeUnauthorized, body.Code)
	assert.Equal(t, "invalid token", body.Msg)
}

func TestAuthJWT_BearerHeader(t *testing.T) {
	j := testJWTer()
	tok, err := j.IssueAccess("u1", "a@b.c", "user")
	require.NoError(t, err)

	r := newAuthTestRouter(j, "")
	body := doReq(t, r, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+tok)
	})
	require.Equal(t, resp.CodeOK, body.Code)
	data := body.Data.(map[string]any)
	assert.Equal(t, "u1", data["userId"])
	assert.Equal(t, "user", data["role"])
}

func TestAuthJWT_CookieCarrier(t *testing.T) {
	j := testJWTer()
	tok, err := j.IssueAccess("u1", "a@b.c", "user")
	require.NoError(t, err)

	r := newAuthTestRouter(j, "")
	body := doReq(t, r, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: AccessCookieName, Value: tok})
	})
	require.Equal(t, resp.CodeOK, body.Code)
	data := body.Data.(map[string]any)
	assert.Equal(t, "u1", data["userId"])
}

func TestAuthJWT_NonAdminForbidden(t *testing.T) {
	j := testJWTer()
	tok, err := j.IssueAccess("u1", "a@b.c", "user")
	require.NoError(t, err)

	r := newAuthTestRouter(j, "admin")
	body := doReq(t, r, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+tok)
	})
	assert.Equal(t, resp.CodeForbidden, body.Code)
}

func TestAuthJWT_AdminAllowed(t *testing.T) {
	j := testJWTer()
	tok, err := j.IssueAccess("u1", "a@b.c", "admin")
	require.NoError(t, err)

	r := newAuthTestRouter(j, "admin")
	body := doReq(t, r, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+tok)
	})
	assert.Equal(t, resp.CodeOK, body.Code)
}
