package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MarcusMartins38/imanage-me-back/internal/core/auth"
	"github.com/MarcusMartins38/imanage-me-back/internal/domain"
	"github.com/MarcusMartins38/imanage-me-back/internal/service"
	httpez "github.com/MarcusMartins38/imanage-me-back/internal/transport/http/ez"
	mdw "github.com/MarcusMartins38/imanage-me-back/internal/transport/http/middleware"
)

// TaskModule /tasks/* 任务 CRUD + 子任务 + 状态流转
type TaskModule struct {
	Tasks *service.Tasks
	JWTer *auth.JWTer
}

func (m *TaskModule) Priority() int { return 20 }

func (m *TaskModule) MountAPI(api *gin.RouterGroup) {
	// 管理员全量列表单独一个分组，角色在中间件层就挡掉
	admin := api.Group("", mdw.AuthJWT(m.JWTer, domain.RoleAdmin))
	ezAdmin := httpez.New(admin)

	type listAllQ struct {
		Offset int `form:"offset,default=0"`
		Limit  int `form:"limit,default=20"`
	}
	type listAllOut struct {
		Total int64         `json:"total"`
		Items []domain.Task `json:"items"`
	}
	httpez.RegisterAction[listAllQ, listAllOut](ezAdmin, httpez.Action[listAllQ, listAllOut]{
		Method: http.MethodGet,
		Path:   "/tasks/all",
		Binder: httpez.BindQuery,
		Auth:   true,
		Roles:  []string{domain.RoleAdmin},
		Handler: func(c *gin.Context, in *listAllQ) (listAllOut, error) {
			if in.Limit <= 0 || in.Limit > 100 {
				in.Limit = 20
			}
			items, total, err := m.Tasks.ListAll(c.Request.Context(), in.Offset, in.Limit)
			if err != nil {
				return listAllOut{}, httpez.Internal("list tasks failed", err)
			}
			return listAllOut{Total: total, Items: items}, nil
		},
	})

	g := api.Group("", mdw.AuthJWT(m.JWTer, ""))
	ez := httpez.New(g)

	type listOut struct {
		Items []domain.Task `json:"items"`
	}
	httpez.RegisterAction[struct{}, listOut](ez, httpez.Action[struct{}, listOut]{
		Method: http.MethodGet,
		Path:   "/tasks",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (listOut, error) {
			items, err := m.Tasks.List(c.Request.Context(), c.GetString("userId"))
			if err != nil {
				return listOut{}, httpez.Internal("list tasks failed", err)
			}
			return listOut{Items: items}, nil
		},
	})

	httpez.RegisterAction[service.CreateTaskInput, *domain.Task](ez, httpez.Action[service.CreateTaskInput, *domain.Task]{
		Method: http.MethodPost,
		Path:   "/tasks",
		Binder: httpez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *service.CreateTaskInput) (*domain.Task, error) {
			return m.Tasks.Create(c.Request.Context(), c.GetString("userId"), *in)
		},
	})

	httpez.RegisterAction[service.UpdateTaskInput, *domain.Task](ez, httpez.Action[service.UpdateTaskInput, *domain.Task]{
		Method: http.MethodPatch,
		Path:   "/tasks/:id",
		Binder: httpez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *service.UpdateTaskInput) (*domain.Task, error) {
			return m.Tasks.Update(c.Request.Context(), c.Param("id"), c.GetString("userId"), *in)
		},
	})

	httpez.RegisterAction[struct{}, gin.H](ez, httpez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/tasks/:id",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			if err := m.Tasks.Delete(c.Request.Context(), c.Param("id"), c.GetString("userId")); err != nil {
				return nil, err
			}
			return gin.H{"id": c.Param("id")}, nil
		},
	})

	httpez.RegisterAction[service.CreateTaskInput, *domain.Task](ez, httpez.Action[service.CreateTaskInput, *domain.Task]{
		Method: http.MethodPost,
		Path:   "/tasks/:id/subtask",
		Binder: httpez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *service.CreateTaskInput) (*domain.Task, error) {
			return m.Tasks.CreateSub(c.Request.Context(), c.Param("id"), c.GetString("userId"), *in)
		},
	})

	type statusIn struct {
		Status string `json:"status" binding:"required"`
	}
	httpez.RegisterAction[statusIn, *domain.Task](ez, httpez.Action[statusIn, *domain.Task]{
		Method: http.MethodPatch,
		Path:   "/tasks/:id/status",
		Binder: httpez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *statusIn) (*domain.Task, error) {
			return m.Tasks.UpdateStatus(c.Request.Context(), c.Param("id"), c.GetString("userId"), in.Status)
		},
	})
}
