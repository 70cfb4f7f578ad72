package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MarcusMartins38/imanage-me-back/internal/domain"
	"github.com/MarcusMartins38/imanage-me-back/internal/service"
	httpez "github.com/MarcusMartins38/imanage-me-back/internal/transport/http/ez"
)

// AdminModule 后台：用户列表/封禁 + 全量任务列表
type AdminModule struct {
	Users *service.Users
	Tasks *service.Tasks
}

func (m *AdminModule) MountAdmin(admin *gin.RouterGroup) {
	ez := httpez.New(admin)

	// --- 用户列表 ---
	type listQ struct {
		Offset int `form:"offset,default=0"`
		Limit  int `form:"limit,default=20"`
	}
	type row struct {
		ID        string    `json:"id"`
		Email     string    `json:"email"`
		Name      string    `json:"name"`
		Role      string    `json:"role"`
		CreatedAt time.Time `json:"createdAt"`
	}
	type listOut struct {
		Total int64 `json:"total"`
		Items []row `json:"items"`
	}
	httpez.RegisterAction[listQ, listOut](ez, httpez.Action[listQ, listOut]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: httpez.BindQuery,
		Auth:   true,
		Roles:  []string{domain.RoleAdmin},
		Handler: func(c *gin.Context, in *listQ) (listOut, error) {
			if in.Limit <= 0 || in.Limit > 100 {
				in.Limit = 20
			}
			us, total, err := m.Users.List(c.Request.Context(), in.Offset, in.Limit)
			if err != nil {
				return listOut{}, httpez.Internal("list users failed", err)
			}
			out := listOut{Total: total, Items: make([]row, 0, len(us))}
			for _, u := range us {
				out.Items = append(out.Items, row{
					ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role, CreatedAt: u.CreatedAt,
				})
			}
			return out, nil
		},
	})

	// --- 封禁（软删 + 吊销会话） ---
	httpez.RegisterAction[struct{}, gin.H](ez, httpez.Action[struct{}, gin.H]{
		Method: http.MethodPost,
		Path:   "/users/:id/ban",
		Binder: httpez.BindNone,
		Auth:   true,
		Roles:  []string{domain.RoleAdmin},
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			id := c.Param("id")
			if id == "" {
				return nil, httpez.BadRequest("missing id")
			}
			if err := m.Users.Ban(c.Request.Context(), id); err != nil {
				return nil, err
			}
			return gin.H{"id": id}, nil
		},
	})

	// --- 全量任务列表 ---
	type tasksOut struct {
		Total int64         `json:"total"`
		Items []domain.Task `json:"items"`
	}
	httpez.RegisterAction[listQ, tasksOut](ez, httpez.Action[listQ, tasksOut]{
		Method: http.MethodGet,
		Path:   "/tasks",
		Binder: httpez.BindQuery,
		Auth:   true,
		Roles:  []string{domain.RoleAdmin},
		Handler: func(c *gin.Context, in *listQ) (tasksOut, error) {
			if in.Limit <= 0 || in.Limit > 100 {
				in.Limit = 20
			}
			items, total, err := m.Tasks.ListAll(c.Request.Context(), in.Offset, in.Limit)
			if err != nil {
				return tasksOut{}, httpez.Internal("list tasks failed", err)
			}
			return tasksOut{Total: total, Items: items}, nil
		},
	})
}
