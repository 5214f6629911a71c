package http

import (
	"context"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Djacko3532/telemedecin/internal/adapters/signal"
	"github.com/Djacko3532/telemedecin/internal/config"
)

func SetupRouter(ctx context.Context, cfg *config.Config, ctl *signal.Controller, api *APIHandlers) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("TelemedecinSession", store))

	if cfg.StaticPath != "" {
		r.Static("/static", cfg.StaticPath)
		r.GET("/", func(c *gin.Context) {
			c.File(cfg.StaticPath + "/index.html")
		})
	}

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	r.POST("/api/auth/session", HandleLogin)

	authed := r.Group("/api", AuthRequired())

	authed.GET("/ws/signal", func(c *gin.Context) {
		ctl.HandleSignal(ctx, c)
	})

	consultations := authed.Group("/consultation")
	consultations.POST("/start", RequireRole("Medecin"), api.StartConsultation)
	consultations.GET("/:roomId", api.GetConsultation)
	consultations.PUT("/:roomId/end", RequireRole("Medecin"), api.EndConsultation)

	notifications := authed.Group("/notifications")
	notifications.GET("", api.ListNotifications)
	notifications.PUT("/:id/read", api.MarkNotificationRead)
	notifications.DELETE("/clear", api.ClearNotifications)

	return r
}
