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

// UserModule /user/profile 资料更新（multipart，可带头像文件）
type UserModule struct {
	Users *service.Users
	JWTer *auth.JWTer
}

func (m *UserModule) Priority() int { return 30 }

func (m *UserModule) MountAPI(api *gin.RouterGroup) {
	g := api.Group("", mdw.AuthJWT(m.JWTer, ""))
	ez := httpez.New(g)

	httpez.RegisterAction[struct{}, domain.Profile](ez, httpez.Action[struct{}, domain.Profile]{
		Method: http.MethodPut,
		Path:   "/user/profile",
		Binder: httpez.BindNone, // multipart：字段和文件都自己取
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (domain.Profile, error) {
			in := service.UpdateProfileInput{}
			if v, ok := c.GetPostForm("name"); ok {
				in.Name = &v
			}
			if v, ok := c.GetPostForm("email"); ok {
				in.Email = &v
			}

			if fh, err := c.FormFile("profileImageFile"); err == nil && fh != nil {
				f, err := fh.Open()
				if err != nil {
					return domain.Profile{}, httpez.BadRequest("unreadable image file")
				}
				defer f.Close()
				in.Image = &service.UploadedImage{
					Filename:    fh.Filename,
					ContentType: fh.Header.Get("Content-Type"),
					Reader:      f,
					Size:        fh.Size,
				}
			}

			u, err := m.Users.UpdateProfile(c.Request.Context(), c.GetString("userId"), in)
			if err != nil {
				return domain.Profile{}, err
			}
			return u.Profile(), nil
		},
	})
}
