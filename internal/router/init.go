package router

import (
	userapp "github.com/oksasatya/go-auth-boilerplate/internal/application"
	"github.com/oksasatya/go-auth-boilerplate/internal/container"
	mongoinfra "github.com/oksasatya/go-auth-boilerplate/internal/infrastructure/mongo"
	handlers "github.com/oksasatya/go-auth-boilerplate/internal/interface/http"
	"github.com/oksasatya/go-auth-boilerplate/internal/router/modules"
	"github.com/oksasatya/go-auth-boilerplate/pkg/imaging"
)

func buildService() *userapp.Service {
	cfg := container.GetConfig()
	return &userapp.Service{
		Repo:           mongoinfra.NewUserRepository(container.GetMongoDB()),
		JWT:            container.GetJWT(),
		Store:          container.GetStore(),
		Redis:          container.GetRedis(),
		Logger:         container.GetLogger(),
		ES:             container.GetES(),
		ESUsersIndex:   cfg.ESUsersIndex,
		Mail:           container.GetRabbitPub(),
		TOTPIssuer:     cfg.TOTPIssuer,
		Transcoder:     imaging.NewTranscoder(cfg.AvatarSize, cfg.AvatarQuality),
		MaxUploadBytes: cfg.MaxUploadBytes,
	}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	svc := buildService()

	authHandler := handlers.NewAuthHandler(svc, logger, cfg.CookieDomain, cfg.CookieSecure)
	userHandler := handlers.NewUserHandler(svc, logger)
	twoFactorHandler := handlers.NewTwoFactorHandler(svc, logger)

	r.Add(modules.NewAuthModule(authHandler, svc, container.GetJWT()))
	r.Add(modules.NewUserModule(userHandler, svc, container.GetJWT()))
	r.Add(modules.NewTwoFactorModule(twoFactorHandler, svc, container.GetJWT()))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
