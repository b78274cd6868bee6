package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/likekeeper/likekeeper/internal/capture"
	"github.com/likekeeper/likekeeper/internal/export"
)

// captureHandler handles POST /api/posts/capture
func (r *Router) captureHandler(c *gin.Context) {
	var payload capture.CapturePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, capture.NewValidationError(map[string]string{
			"body": "malformed JSON payload",
		}))
		return
	}

	result, err := r.service.Capture(c.Request.Context(), &payload)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":                       "success",
		"post_id":                      result.PostID,
		"screenshot_saved":             result.ScreenshotSaved,
		"thread_relationships_created": result.EdgesCreated,
	})
}

// unlikeRequest identifies the post to remove
type unlikeRequest struct {
	ExternalID string `json:"external_id"`
}

// unlikeHandler handles DELETE /api/posts/unlike
func (r *Router) unlikeHandler(c *gin.Context) {
	var req unlikeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ExternalID == "" {
		writeError(c, capture.NewValidationError(map[string]string{
			"external_id": "required",
		}))
		return
	}

	result, err := r.service.Unlike(c.Request.Context(), req.ExternalID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":             "success",
		"deleted":            result.Deleted,
		"screenshot_removed": result.ScreenshotRemoved,
	})
}

// statusHandler handles GET /api/posts/status
func (r *Router) statusHandler(c *gin.Context) {
	stats, err := r.service.Status(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        "success",
		"stats":         stats,
		"server_status": "healthy",
	})
}

// exportHandler handles GET /api/posts/export?format=json|csv
func (r *Router) exportHandler(c *gin.Context) {
	format := c.DefaultQuery("format", export.FormatJSON)
	switch format {
	case export.FormatJSON:
		c.Header("Content-Type", "application/json")
		c.Header("Content-Disposition", `attachment; filename="posts.json"`)
	case export.FormatCSV:
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", `attachment; filename="posts.csv"`)
	default:
		writeError(c, capture.NewValidationError(map[string]string{
			"format": "must be json or csv",
		}))
		return
	}

	count, err := r.exporter.Export(c.Request.Context(), format, c.Writer)
	if err != nil {
		r.logger.Error("Export failed", zap.Error(err))
		// Headers may already be written; abort the stream.
		c.Abort()
		return
	}

	r.logger.Info("Export served",
		zap.String("format", format),
		zap.Int("records", count))
}
