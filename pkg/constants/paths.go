package constants

// Route paths shared between router and clients.
const (
	PathHealth = "/health"
	PathReady  = "/ready"

	// PathWSEvents is the websocket mount point; per-channel URLs are
	// PathWSEvents + "/<channel_id>/<user_id>".
	PathWSEvents = "/ws/events"
)
