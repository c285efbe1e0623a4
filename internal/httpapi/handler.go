package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dexwatch/dexfeed/internal/model"
	"github.com/dexwatch/dexfeed/internal/room"
	"github.com/dexwatch/dexfeed/internal/version"
)

// roomRequest is the body of the join and leave endpoints.
type roomRequest struct {
	Pair         string `json:"pair" binding:"required"`
	SubscriberID string `json:"subscriber_id"`
}

// HealthCheck handles GET /health requests.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"service":   ServiceName,
		"version":   version.Version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// GetStatus handles GET /api/status requests. It reports the feed
// connection state alongside store and frame counters.
func (h *Handler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"feed_status": h.feed.Status().String(),
		"feed_stats":  h.feed.Stats(),
		"store_stats": h.store.Stats(),
	})
}

// GetRooms handles GET /api/rooms requests.
func (h *Handler) GetRooms(c *gin.Context) {
	rooms := h.store.ActiveRooms()

	out := make([]gin.H, 0, len(rooms))
	for _, pair := range rooms {
		out = append(out, gin.H{
			"pair":        pair,
			"subscribers": h.store.SubscriberCount(pair),
		})
	}

	c.JSON(http.StatusOK, gin.H{"rooms": out})
}

// GetAllTransactions handles GET /api/transactions requests. The
// global log is newest-first.
func (h *Handler) GetAllTransactions(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.AllTransactions())
}

// GetRoomTransactions handles GET /api/room/transactions requests.
func (h *Handler) GetRoomTransactions(c *gin.Context) {
	pair, ok := h.requirePair(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, h.store.RoomTransactions(pair))
}

// GetRoomMetrics handles GET /api/room/metrics requests. A room with
// no metrics yet returns 404.
func (h *Handler) GetRoomMetrics(c *gin.Context) {
	pair, ok := h.requirePair(c)
	if !ok {
		return
	}

	metrics := h.store.RoomMetrics(pair)
	if metrics == nil {
		h.notFound(c, "no metrics for pair")
		return
	}

	c.JSON(http.StatusOK, metrics)
}

// GetRoomCandles handles GET /api/room/candles requests. Candles are
// in ascending timestamp order.
func (h *Handler) GetRoomCandles(c *gin.Context) {
	pair, ok := h.requirePair(c)
	if !ok {
		return
	}

	timeframe := c.DefaultQuery("timeframe", "1m")
	if !model.ValidTimeframe(timeframe) {
		h.badRequest(c, "unknown timeframe: "+timeframe)
		return
	}

	c.JSON(http.StatusOK, h.store.RoomCandles(pair, timeframe))
}

// JoinRoom handles POST /api/room/join requests. A missing
// subscriber_id gets one generated, so the caller can reuse it for
// further joins and the final leave.
func (h *Handler) JoinRoom(c *gin.Context) {
	var req roomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "pair is required")
		return
	}

	if req.SubscriberID == "" {
		req.SubscriberID = room.NewSubscriberID()
	}

	h.store.Join(req.Pair, req.SubscriberID)

	c.JSON(http.StatusOK, gin.H{
		"pair":          req.Pair,
		"subscriber_id": req.SubscriberID,
		"subscribers":   h.store.SubscriberCount(req.Pair),
	})
}

// LeaveRoom handles POST /api/room/leave requests. Leaving a room the
// subscriber never joined is a no-op, not an error.
func (h *Handler) LeaveRoom(c *gin.Context) {
	var req roomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "pair is required")
		return
	}
	if req.SubscriberID == "" {
		h.badRequest(c, "subscriber_id is required")
		return
	}

	h.store.Leave(req.Pair, req.SubscriberID)

	c.JSON(http.StatusOK, gin.H{
		"pair":        req.Pair,
		"subscribers": h.store.SubscriberCount(req.Pair),
	})
}

// requirePair extracts the mandatory pair query parameter.
func (h *Handler) requirePair(c *gin.Context) (string, bool) {
	pair := c.Query("pair")
	if pair == "" {
		h.badRequest(c, "pair query parameter is required")
		return "", false
	}
	return pair, true
}

func (h *Handler) badRequest(c *gin.Context, msg string) {
	h.respondError(c, http.StatusBadRequest, msg)
}

func (h *Handler) notFound(c *gin.Context, msg string) {
	h.respondError(c, http.StatusNotFound, msg)
}

func (h *Handler) respondError(c *gin.Context, statusCode int, msg string) {
	requestID := "unknown"
	if id, ok := c.Get(RequestIDContextKey); ok {
		if s, ok := id.(string); ok {
			requestID = s
		}
	}

	h.logger.Warn("API error",
		slog.String("request_id", requestID),
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.Int("status_code", statusCode),
		slog.String("error", msg),
	)

	c.JSON(statusCode, gin.H{
		"error":      msg,
		"request_id": requestID,
	})
}
