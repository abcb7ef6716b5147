package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/evrelay/event-relay/internal/handler"
	"github.com/evrelay/event-relay/pkg/constants"
)

// New builds the HTTP router.
func New(
	channelHandler *handler.ChannelHandler,
	eventWS *handler.EventWSHandler,
	health *handler.HealthHandler,
) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET(constants.PathHealth, health.Health)
	r.GET(constants.PathReady, health.Ready)

	// REST channels
	channels := r.Group("/channels")
	{
		channels.POST("", channelHandler.CreateChannel)
		channels.DELETE("/:id", channelHandler.DeleteChannel)
		channels.GET("/:id/subscribers", channelHandler.GetChannelSubscribers)
	}

	// WebSocket: /ws/events/:channel_id/:user_id
	r.GET(constants.PathWSEvents+"/:channel_id/:user_id", eventWS.ServeWS)

	return r
}
