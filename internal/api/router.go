// Package api wires the gin router: the public print/health surface and the
// authenticated admin API.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/ibp/labeld/internal/api/handlers"
	"github.com/ibp/labeld/internal/api/middleware"
	"github.com/ibp/labeld/internal/config"
	"github.com/ibp/labeld/internal/discover"
	"github.com/ibp/labeld/internal/history"
	"github.com/ibp/labeld/internal/queue"
)

type Dependencies struct {
	Config   *config.ServerConfig
	Cache    *discover.Cache
	Queue    *queue.Queue
	Loop     *queue.Loop
	History  *history.Store
	Notifier queue.Notifier
	Auth     *middleware.AuthMiddleware
}

func NewRouter(deps Dependencies) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(deps.Config.AllowedOrigins))

	printHandler := handlers.NewPrintHandler(
		deps.Queue, deps.History, deps.Notifier,
		deps.Config.MaxPayloadBytes, deps.Config.MaxFieldLength,
	)
	healthHandler := handlers.NewHealthHandler(deps.Cache, deps.Loop)

	r.POST("/", printHandler.Submit)
	r.GET("/health", healthHandler.Health)

	if deps.Auth != nil {
		auth := r.Group("/api/auth")
		{
			auth.POST("/setup", deps.Auth.SetupHandler)
			auth.POST("/login", deps.Auth.LoginHandler)
			auth.POST("/logout", deps.Auth.LogoutHandler)
			auth.GET("/status", deps.Auth.StatusHandler)
		}

		historyHandler := handlers.NewHistoryHandler(deps.History, deps.Loop)
		admin := r.Group("/api", deps.Auth.RequireAuth())
		{
			admin.GET("/jobs", historyHandler.ListJobs)
			admin.GET("/stats", historyHandler.Stats)
		}
	}

	return r
}
