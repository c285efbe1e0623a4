package httpapi

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/dexwatch/dexfeed/internal/feed"
	"github.com/dexwatch/dexfeed/internal/room"
)

const (
	ServiceName         = "dexfeed-dashboard"
	RequestIDContextKey = "request_id"
	RequestIDHeaderKey  = "X-Request-ID"
)

// FeedStatus is the slice of the connection manager the API reads.
type FeedStatus interface {
	Status() feed.Status
	Stats() feed.Stats
}

// Handler serves the dashboard's read API over the room store.
type Handler struct {
	store  *room.Store
	feed   FeedStatus
	logger *slog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(store *room.Store, fs FeedStatus, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		store:  store,
		feed:   fs,
		logger: logger,
	}
}

// SetupRoutes configures all API routes.
func (h *Handler) SetupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(requestIDMiddleware())
	router.Use(ginLoggerMiddleware())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	router.GET("/health", h.HealthCheck)

	api := router.Group("/api")
	{
		api.GET("/status", h.GetStatus)
		api.GET("/rooms", h.GetRooms)
		api.GET("/transactions", h.GetAllTransactions)

		// Token pairs contain a slash, so rooms are addressed by query
		// parameter rather than path segment.
		api.GET("/room/transactions", h.GetRoomTransactions)
		api.GET("/room/metrics", h.GetRoomMetrics)
		api.GET("/room/candles", h.GetRoomCandles)

		api.POST("/room/join", h.JoinRoom)
		api.POST("/room/leave", h.LeaveRoom)
	}

	return router
}
