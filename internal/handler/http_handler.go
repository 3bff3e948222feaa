package handler

import (
	"encoding/json"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/solacese/romo-robot/internal/broker"
	"github.com/solacese/romo-robot/internal/event"
	"github.com/solacese/romo-robot/internal/processor"
	"github.com/solacese/romo-robot/internal/vision"
	"github.com/solacese/romo-robot/pkg/log"
	"github.com/solacese/romo-robot/pkg/response"
)

// maxNotificationBytes bounds the webhook request body.
const maxNotificationBytes = 1 << 20

// Handler serves storage notifications pushed over HTTP.
type Handler struct {
	processor processor.FaceEventProcessor
}

// NewHandler creates a new HTTP handler.
func NewHandler(p processor.FaceEventProcessor) *Handler {
	return &Handler{processor: p}
}

// RegisterRoutes registers all routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)

	api := r.Group("/api/v1")
	{
		api.POST("/notifications", h.HandleNotification)
	}

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "route not found")
	})
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	response.Success(c, gin.H{"status": "ok"})
}

// HandleNotification runs the face pipeline for one notification body and
// returns the detection result.
func (h *Handler) HandleNotification(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxNotificationBytes))
	if err != nil {
		l.Warn().Err(err).Msg("failed to read notification body")
		response.BadRequest(c, "unreadable request body")
		return
	}

	result, err := h.processor.Handle(ctx, raw)
	if err != nil {
		switch {
		case event.IsMalformedEvent(err):
			response.BadRequest(c, err.Error())
		case vision.IsProviderError(err):
			response.DetectionFailed(c, err.Error())
		case broker.IsPublishError(err):
			response.PublishFailed(c, err.Error())
		default:
			l.Error().Err(err).Msg("notification handling failed")
			response.InternalError(c, "failed to process notification")
		}
		return
	}

	response.Success(c, json.RawMessage(result))
}
