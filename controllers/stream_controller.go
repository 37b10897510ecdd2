package controllers

import (
	"net/http"

	"github.com/SujaySAK777/StreamIQ/models"
	"github.com/gin-gonic/gin"
)

// ExposureStream hands out per-client exposure feeds.
type ExposureStream interface {
	Subscribe() (<-chan *models.ExposurePayload, func())
}

// StreamController pushes approved promotions to UI clients over
// Server-Sent Events.
type StreamController struct {
	stream ExposureStream
}

// NewStreamController creates a new StreamController.
func NewStreamController(stream ExposureStream) *StreamController {
	return &StreamController{stream: stream}
}

// Stream handles GET /promotions/stream.
func (sc *StreamController) Stream(ctx *gin.Context) {
	exposures, cancel := sc.stream.Subscribe()
	defer cancel()

	ctx.Header("Content-Type", "text/event-stream")
	ctx.Header("Cache-Control", "no-cache")
	ctx.Header("Connection", "keep-alive")
	ctx.Status(http.StatusOK)
	ctx.Writer.Flush()

	done := ctx.Request.Context().Done()
	for {
		select {
		case <-done:
			return
		case exposure, ok := <-exposures:
			if !ok {
				return
			}
			ctx.SSEvent("promotion_exposure", exposure)
			ctx.Writer.Flush()
		}
	}
}
