package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	userapp "github.com/oksasatya/go-auth-boilerplate/internal/application"
	"github.com/oksasatya/go-auth-boilerplate/internal/container"
	handlers "github.com/oksasatya/go-auth-boilerplate/internal/interface/http"
	"github.com/oksasatya/go-auth-boilerplate/internal/interface/middleware"
	"github.com/oksasatya/go-auth-boilerplate/pkg/helpers"
)

// UserModule wires profile endpoints. Everything here requires an active
// session.
// GET /api/user/profile, PATCH /api/user/profile, PATCH /api/user/password
// POST /api/user/profile-image, DELETE /api/user/profile-image
// GET /api/users/search
type UserModule struct {
	Handler *handlers.UserHandler
	Svc     *userapp.Service
	JWT     *helpers.JWTManager
}

func NewUserModule(h *handlers.UserHandler, svc *userapp.Service, jwt *helpers.JWTManager) *UserModule {
	return &UserModule{Handler: h, Svc: svc, JWT: jwt}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetRedis(), m.JWT, m.Svc))
	// Softer per-IP limiter plus a per-user one on all protected routes
	auth.Use(
		middleware.RateLimit(container.GetRedis(), 300, time.Minute, middleware.KeyByIP(), nil),
		middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		auth.GET("/user/profile", m.Handler.GetProfile)
		auth.PATCH("/user/profile", m.Handler.UpdateProfile)
		auth.PATCH("/user/password", m.Handler.ChangePassword)
		auth.POST("/user/profile-image", m.Handler.UploadProfileImage)
		auth.DELETE("/user/profile-image", m.Handler.DeleteProfileImage)
		// Search users via Elasticsearch
		auth.GET("/users/search", m.Handler.Search)
	}
}
