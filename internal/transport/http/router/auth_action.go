package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MarcusMartins38/imanage-me-back/internal/core/auth"
	"github.com/MarcusMartins38/imanage-me-back/internal/domain"
	"github.com/MarcusMartins38/imanage-me-back/internal/service"
	httpez "github.com/MarcusMartins38/imanage-me-back/internal/transport/http/ez"
	mdw "github.com/MarcusMartins38/imanage-me-back/internal/transport/http/middleware"
)

// refresh cookie 只需要到达 /auth/refresh 和 /auth/logout，收窄 path 减少暴露面
const refreshCookiePath = "/api/v1/auth"

// AuthModule /auth/* 登录注册 + /me
type AuthModule struct {
	Identity     *service.Identity
	Sessions     *service.Sessions
	Users        *service.Users
	JWTer        *auth.JWTer
	CookieSecure bool
}

func (m *AuthModule) Priority() int { return 10 }

func (m *AuthModule) MountAPI(api *gin.RouterGroup) {
	ezPublic := httpez.New(api)

	type signUpIn struct {
		Email    string `json:"email"    binding:"required,email"`
		Name     string `json:"name"     binding:"required,max=64"`
		Password string `json:"password" binding:"required,min=6"`
	}
	type signUpOut struct {
		User domain.Profile `json:"user"`
	}
	httpez.RegisterAction[signUpIn, signUpOut](ezPublic, httpez.Action[signUpIn, signUpOut]{
		Method: http.MethodPost,
		Path:   "/auth/sign-up",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *signUpIn) (signUpOut, error) {
			u, err := m.Identity.SignUp(c.Request.Context(), in.Email, in.Name, in.Password)
			if err != nil {
				return signUpOut{}, err
			}
			return signUpOut{User: u.Profile()}, nil
		},
	})

	type signInIn struct {
		Email    string `json:"email"    binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	type sessionOut struct {
		User        domain.Profile `json:"user"`
		AccessToken string         `json:"accessToken"`
	}
	httpez.RegisterAction[signInIn, sessionOut](ezPublic, httpez.Action[signInIn, sessionOut]{
		Method: http.MethodPost,
		Path:   "/auth/sign-in",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *signInIn) (sessionOut, error) {
			u, err := m.Identity.SignIn(c.Request.Context(), in.Email, in.Password)
			if err != nil {
				return sessionOut{}, err
			}
			pair, err := m.Sessions.Rotate(c.Request.Context(), u)
			if err != nil {
				return sessionOut{}, httpez.Internal("issue session failed", err)
			}
			m.setSessionCookies(c, pair)
			return sessionOut{User: u.Profile(), AccessToken: pair.Access}, nil
		},
	})

	type googleIn struct {
		IDToken string `json:"idToken" binding:"required"`
	}
	httpez.RegisterAction[googleIn, sessionOut](ezPublic, httpez.Action[googleIn, sessionOut]{
		Method: http.MethodPost,
		Path:   "/auth/google",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *googleIn) (sessionOut, error) {
			u, err := m.Identity.SignInWithGoogle(c.Request.Context(), in.IDToken)
			if err != nil {
				return sessionOut{}, err
			}
			pair, err := m.Sessions.Rotate(c.Request.Context(), u)
			if err != nil {
				return sessionOut{}, httpez.Internal("issue session failed", err)
			}
			m.setSessionCookies(c, pair)
			return sessionOut{User: u.Profile(), AccessToken: pair.Access}, nil
		},
	})

	type refreshOut struct {
		AccessToken string `json:"accessToken"`
	}
	httpez.RegisterAction[struct{}, refreshOut](ezPublic, httpez.Action[struct{}, refreshOut]{
		Method: http.MethodPost,
		Path:   "/auth/refresh",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (refreshOut, error) {
			presented, err := c.Cookie(mdw.RefreshCookieName)
			if err != nil || presented == "" {
				return refreshOut{}, httpez.Unauthorized("not authenticated")
			}
			pair, _, err := m.Sessions.Refresh(c.Request.Context(), presented)
			if err != nil {
				return refreshOut{}, err
			}
			m.setSessionCookies(c, pair)
			return refreshOut{AccessToken: pair.Access}, nil
		},
	})

	httpez.RegisterAction[struct{}, gin.H](ezPublic, httpez.Action[struct{}, gin.H]{
		Method: http.MethodPost,
		Path:   "/auth/logout",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			presented, err := c.Cookie(mdw.RefreshCookieName)
			if err != nil || presented == "" {
				return nil, httpez.Unauthorized("not authenticated")
			}
			if err := m.Sessions.Revoke(c.Request.Context(), presented); err != nil {
				return nil, err
			}
			m.clearSessionCookies(c)
			return gin.H{"loggedOut": true}, nil
		},
	})

	// 鉴权分组，/me 必须挂这里才能拿到 userId
	authUser := api.Group("")
	authUser.Use(mdw.AuthJWT(m.JWTer, ""))
	ezAuth := httpez.New(authUser)

	httpez.RegisterAction[struct{}, domain.Profile](ezAuth, httpez.Action[struct{}, domain.Profile]{
		Method: http.MethodGet,
		Path:   "/me",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (domain.Profile, error) {
			u, err := m.Users.GetByID(c.Request.Context(), c.GetString("userId"))
			if err != nil {
				return domain.Profile{}, err
			}
			return u.Profile(), nil
		},
	})
}

func (m *AuthModule) setSessionCookies(c *gin.Context, pair service.TokenPair) {
	c.SetCookie(mdw.AccessCookieName, pair.Access,
		int(m.JWTer.AccessTTL/time.Second), "/", "", m.CookieSecure, true)
	c.SetCookie(mdw.RefreshCookieName, pair.Refresh,
		int(m.JWTer.RefreshTTL/time.Second), refreshCookiePath, "", m.CookieSecure, true)
}

func (m *AuthModule) clearSessionCookies(c *gin.Context) {
	c.SetCookie(mdw.AccessCookieName, "", -1, "/", "", m.CookieSecure, true)
	c.SetCookie(mdw.RefreshCookieName, "", -1, refreshCookiePath, "", m.CookieSecure, true)
}
