package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/evrelay/event-relay/internal/errs"
	"github.com/evrelay/event-relay/internal/model"
	"github.com/evrelay/event-relay/internal/service"
	"github.com/evrelay/event-relay/internal/wsurl"
	"github.com/evrelay/event-relay/pkg/constants"
)

// ChannelHandler handles REST API for channels.
type ChannelHandler struct {
	svc      service.ChannelServicer
	resolver *wsurl.Resolver
}

// NewChannelHandler creates a channel handler.
func NewChannelHandler(svc service.ChannelServicer, resolver *wsurl.Resolver) *ChannelHandler {
	return &ChannelHandler{svc: svc, resolver: resolver}
}

// CreateChannel godoc
// POST /channels
func (h *ChannelHandler) CreateChannel(c *gin.Context) {
	var req model.CreateChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	ch, err := h.svc.Create(req.OwnerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create channel"})
		return
	}
	wsURL := h.resolver.Resolve(constants.PathWSEvents + "/" + ch.ID + "/" + req.OwnerID)
	c.JSON(http.StatusCreated, model.CreateChannelResponse{
		ChannelID:  ch.ID,
		ChannelKey: ch.ChannelKey,
		WSURL:      wsURL,
		Status:     string(ch.Status),
	})
}

// DeleteChannel godoc
// DELETE /channels/:id
func (h *ChannelHandler) DeleteChannel(c *gin.Context) {
	channelID := c.Param("id")
	if channelID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "channel_id required"})
		return
	}
	err := h.svc.Close(channelID)
	if err != nil {
		if errors.Is(err, errs.ErrChannelNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "channel not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to close channel"})
		return
	}
	c.Status(http.StatusNoContent)
}

// GetChannelSubscribers godoc
// GET /channels/:id/subscribers
func (h *ChannelHandler) GetChannelSubscribers(c *gin.Context) {
	channelID := c.Param("id")
	if channelID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "channel_id required"})
		return
	}
	subscribers, err := h.svc.GetSubscribers(channelID)
	if err != nil {
		if errors.Is(err, errs.ErrChannelNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "channel not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get subscribers"})
		return
	}
	c.JSON(http.StatusOK, model.ChannelSubscribersResponse{
		ChannelID:   channelID,
		Subscribers: subscribers,
	})
}
