package handler

import (
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/VikramVasudevan/youtube-surfer-ai-agent/internal/service"
)

const (
	defaultVideoPageLimit = 50
	maxVideoPageLimit     = 200
)

// ChannelHandler handles channel listing and management endpoints.
type ChannelHandler struct {
	store    service.VideoStore
	exporter *service.ExporterService
}

// NewChannelHandler creates a new channel handler.
func NewChannelHandler(store service.VideoStore, exporter *service.ExporterService) *ChannelHandler {
	return &ChannelHandler{store: store, exporter: exporter}
}

// List handles GET /api/v1/channels.
func (h *ChannelHandler) List(c *gin.Context) {
	channels, err := h.store.ListChannels(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list channels: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"channels": channels,
		"total":    len(channels),
	})
}

// Videos handles GET /api/v1/channels/:id/videos.
func (h *ChannelHandler) Videos(c *gin.Context) {
	channelID := c.Param("id")

	limit := queryInt(c, "limit", defaultVideoPageLimit)
	if limit <= 0 {
		limit = defaultVideoPageLimit
	}
	if limit > maxVideoPageLimit {
		limit = maxVideoPageLimit
	}
	offset := queryInt(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	videos, err := h.store.GetChannelVideos(c.Request.Context(), channelID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list videos: " + err.Error(),
		})
		return
	}

	total, err := h.store.CountChannel(c.Request.Context(), channelID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to count videos: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"channel_id": channelID,
		"videos":     videos,
		"total":      total,
		"limit":      limit,
		"offset":     offset,
	})
}

// Delete handles DELETE /api/v1/channels/:id.
func (h *ChannelHandler) Delete(c *gin.Context) {
	channelID := c.Param("id")

	count, err := h.store.CountChannel(c.Request.Context(), channelID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to count videos: " + err.Error(),
		})
		return
	}
	if count == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "channel not found: " + channelID,
		})
		return
	}

	if err := h.store.DeleteChannel(c.Request.Context(), channelID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to delete channel: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"channel_id": channelID,
		"deleted":    count,
	})
}

// Export handles GET /api/v1/channels/:id/export. The dump is written
// to a temp file and served as a download; the file is removed after
// the response is sent.
func (h *ChannelHandler) Export(c *gin.Context) {
	channelID := c.Param("id")

	path, err := h.exporter.ExportChannel(c.Request.Context(), channelID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to export channel: " + err.Error(),
		})
		return
	}
	defer os.Remove(path)

	c.FileAttachment(path, channelID+"-export.json")
}

func queryInt(c *gin.Context, key string, defaultVal int) int {
	raw := c.Query(key)
	if raw == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return defaultVal
	}
	return val
}
