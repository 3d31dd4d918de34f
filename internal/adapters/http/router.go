package http

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/loungefm/loungefm/internal/adapters/signal"
	"github.com/loungefm/loungefm/internal/app"
	"github.com/loungefm/loungefm/internal/config"
	"github.com/loungefm/loungefm/internal/core"
)

func SetupRouter(ctx context.Context, cfg *config.Config, auth *app.Authenticator, lounges *app.LoungeManager, broker core.Broker, ws *signal.Controller) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// The websocket handshake carries its own token; middleware applies
	// to the request/response surface only.
	r.GET("/api/ws", func(c *gin.Context) {
		ws.HandleWS(ctx, c)
	})

	h := &LoungeHandler{Lounges: lounges, Broker: broker}

	api := r.Group("/api", AuthMiddleware(auth))
	api.POST("/lounges", h.Create)
	api.GET("/lounges", h.List)
	api.GET("/lounges/mine", h.Mine)
	api.POST("/lounges/join", h.JoinByCode)
	api.GET("/lounges/:id", h.Detail)
	api.POST("/lounges/:id/leave", h.Leave)
	api.DELETE("/lounges/:id", h.Delete)
	api.POST("/lounges/:id/tracks", h.AddTrack)
	api.POST("/lounges/:id/tracks/:trackId/vote", h.Vote)
	api.DELETE("/lounges/:id/tracks/:trackId", h.RemoveTrack)
	api.PATCH("/lounges/:id/tracks/:trackId/played", h.MarkPlayed)

	log.Info().Str("module", "adapters.http").Msg("router setup")
	return r
}
