package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/MarcusMartins38/imanage-me-back/internal/core/auth"
	resp "github.com/MarcusMartins38/imanage-me-back/internal/transport/http/response"
)

const (
	AccessCookieName  = "accessToken"
	RefreshCookieName = "refreshToken"
)

// AuthJWT 统一鉴权入口：Bearer 头优先，其次 accessToken cookie。
// 「没带 token」和「token 无效/过期」是两种失败，消息不同；角色不够是 403。
// 通过后只往请求上下文写 userId/email/role，不碰任何全局状态。
func AuthJWT(j *auth.JWTer, requireRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		if ah := c.GetHeader("Authorization"); strings.HasPrefix(ah, "Bearer ") {
			token = strings.TrimPrefix(ah, "Bearer ")
		} else if ck, err := c.Cookie(AccessCookieName); err == nil {
			token = ck
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "missing token"))
			return
		}
		claims, err := j.ParseAccess(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "invalid token"))
			return
		}
		if requireRole != "" && claims.Role != requireRole {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeForbidden, "forbidden"))
			return
		}
		c.Set("userId", claims.UID)
		c.Set("email", claims.Email)
		c.Set("role", claims.Role)
		c.Next()
	}
}
