package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MarcusMartins38/imanage-me-back/internal/core/auth"
	"github.com/MarcusMartins38/imanage-me-back/internal/service"
	mdw "github.com/MarcusMartins38/imanage-me-back/internal/transport/http/middleware"
)

// Deps 入口在 main 里构建好再注入，路由层不自己拼依赖
type Deps struct {
	Identity     *service.Identity
	Sessions     *service.Sessions
	Users        *service.Users
	Tasks        *service.Tasks
	JWTer        *auth.JWTer
	CookieSecure bool
	AllowOrigins []string
}

func NewAPIEngine(l *zap.Logger, d Deps) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(
		corsFor(d.AllowOrigins),
		mdw.RequestID(),
		mdw.RateLimit(200, 400),
		mdw.ConcurrencyLimit(300),
		mdw.MaxBodyBytes(16<<20),
		mdw.Timeout(10*time.Second),
		mdw.SimpleRecovery(),
		mdw.Metrics(),
		mdw.AccessLog(l),
	)

	// 健康检查
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })

	// 前缀
	api := r.Group("/api/v1")

	reg := &Registry{}
	reg.Register(&AuthModule{
		Identity:     d.Identity,
		Sessions:     d.Sessions,
		Users:        d.Users,
		JWTer:        d.JWTer,
		CookieSecure: d.CookieSecure,
	})
	reg.Register(&TaskModule{Tasks: d.Tasks, JWTer: d.JWTer})
	reg.Register(&UserModule{Users: d.Users, JWTer: d.JWTer})
	reg.MountAllAPI(api)

	return r
}

// corsFor 凭证（cookie）模式必须显式列出源；没配就退回默认的无凭证放行
func corsFor(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		return cors.Default()
	}
	cc := cors.DefaultConfig()
	cc.AllowOrigins = origins
	cc.AllowCredentials = true
	cc.AllowHeaders = append(cc.AllowHeaders, "Authorization")
	return cors.New(cc)
}

// NewAdminEngine 后台单独一个 engine，整个 /admin/v1 都要 admin 角色
func NewAdminEngine(l *zap.Logger, d Deps) *gin.Engine {
	r := gin.New()
	r.Use(
		mdw.RequestID(),
		ginzap.Ginzap(l, time.RFC3339, true),
		ginzap.RecoveryWithZap(l, true),
	)
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })

	admin := r.Group("/admin/v1")
	admin.Use(mdw.AuthJWT(d.JWTer, "admin"))

	reg := &Registry{}
	reg.Register(&AdminModule{Users: d.Users, Tasks: d.Tasks})
	reg.MountAllAdmin(admin)

	return r
}
