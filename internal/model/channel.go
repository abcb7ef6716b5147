package model

import "time"

// ChannelStatus represents event channel state.
type ChannelStatus string

const (
	ChannelStatusWaiting ChannelStatus = "waiting"
	ChannelStatusLive    ChannelStatus = "live"
	ChannelStatusClosed  ChannelStatus = "closed"
)

// Channel is the API view of an event channel (not GORM entity).
type Channel struct {
	ID          string        `json:"id"`
	OwnerID     string        `json:"owner_id"`
	ChannelKey  string        `json:"channel_key"`
	Status      ChannelStatus `json:"status"`
	Subscribers []Subscriber  `json:"subscribers"`
	CreatedAt   time.Time     `json:"created_at"`
	ClosedAt    *time.Time    `json:"closed_at,omitempty"`
}

// Subscriber is a participant in a channel — API response DTO.
type Subscriber struct {
	UserID   string    `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
}

// CreateChannelRequest is the request body for POST /channels.
type CreateChannelRequest struct {
	OwnerID string `json:"owner_id" binding:"required"`
}

// CreateChannelResponse is the response for POST /channels.
type CreateChannelResponse struct {
	ChannelID  string `json:"channel_id"`
	ChannelKey string `json:"channel_key"`
	WSURL      string `json:"ws_url"`
	Status     string `json:"status"`
}

// ChannelSubscribersResponse is the response for GET /channels/:id/subscribers.
type ChannelSubscribersResponse struct {
	ChannelID   string       `json:"channel_id"`
	Subscribers []Subscriber `json:"subscribers"`
}
