package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/VikramVasudevan/youtube-surfer-ai-agent/internal/service"
)

// SyncHandler handles sync run endpoints.
type SyncHandler struct {
	manager *service.SyncManager
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(manager *service.SyncManager) *SyncHandler {
	return &SyncHandler{manager: manager}
}

// SyncRequest is the body of POST /api/v1/sync.
type SyncRequest struct {
	ChannelURLs []string `json:"channel_urls" binding:"required,min=1"`
}

// Start handles POST /api/v1/sync. Progress is streamed back as
// server-sent events; the stream ends after the terminal summary
// event. Only one run may be active at a time.
func (h *SyncHandler) Start(c *gin.Context) {
	var req SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	events, err := h.manager.Start(c.Request.Context(), req.ChannelURLs)
	if err != nil {
		if errors.Is(err, service.ErrSyncRunning) {
			c.JSON(http.StatusConflict, gin.H{
				"error": err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to start sync: " + err.Error(),
		})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		event, ok := <-events
		if !ok {
			return false
		}
		c.SSEvent("progress", event)
		return !event.Terminal
	})

	// The run keeps going server-side if the client disconnects; drain
	// the remaining events so it is never blocked on a gone reader.
	go func() {
		for range events {
		}
	}()
}

// Stop handles POST /api/v1/sync/stop.
func (h *SyncHandler) Stop(c *gin.Context) {
	if !h.manager.Stop() {
		c.JSON(http.StatusConflict, gin.H{
			"error": "no sync run in progress",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "stopping",
	})
}

// Status handles GET /api/v1/sync/status.
func (h *SyncHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.manager.Status())
}
