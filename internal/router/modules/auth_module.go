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

// AuthModule wires account creation and session endpoints.
// Public: POST /api/auth/register, POST /api/auth/login, POST /api/auth/refresh
// Protected: POST /api/auth/logout
type AuthModule struct {
	Handler *handlers.AuthHandler
	Svc     *userapp.Service
	JWT     *helpers.JWTManager
}

func NewAuthModule(h *handlers.AuthHandler, svc *userapp.Service, jwt *helpers.JWTManager) *AuthModule {
	return &AuthModule{Handler: h, Svc: svc, JWT: jwt}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	// Public endpoints with IP-based rate limits
	registerLimiter := middleware.RateLimit(container.GetRedis(), 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	loginLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIP(), nil)
	refreshLimiter := middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByIP(), nil)

	rg.POST("/auth/register", registerLimiter, m.Handler.Register)
	rg.POST("/auth/login", loginLimiter, m.Handler.Login)
	rg.POST("/auth/refresh", refreshLimiter, m.Handler.Refresh)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetRedis(), m.JWT, m.Svc))
	{
		auth.POST("/auth/logout", m.Handler.Logout)
	}
}
