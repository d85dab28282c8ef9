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

// TwoFactorModule wires TOTP management endpoints.
// PUT /api/user/2fa (begin setup), POST /api/user/2fa (confirm),
// DELETE /api/user/2fa (disable)
type TwoFactorModule struct {
	Handler *handlers.TwoFactorHandler
	Svc     *userapp.Service
	JWT     *helpers.JWTManager
}

func NewTwoFactorModule(h *handlers.TwoFactorHandler, svc *userapp.Service, jwt *helpers.JWTManager) *TwoFactorModule {
	return &TwoFactorModule{Handler: h, Svc: svc, JWT: jwt}
}

func (m *TwoFactorModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetRedis(), m.JWT, m.Svc))
	// Tight per-user limit; confirm attempts are code guesses
	auth.Use(middleware.RateLimit(container.GetRedis(), 15, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.PUT("/user/2fa", m.Handler.Setup)
		auth.POST("/user/2fa", m.Handler.Confirm)
		auth.DELETE("/user/2fa", m.Handler.Disable)
	}
}
