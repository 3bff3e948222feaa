package processor

import (
	"context"

	"github.com/solacese/romo-robot/internal/event"
	"github.com/solacese/romo-robot/internal/vision"
)

// FaceEventProcessor detects faces in an uploaded image and publishes the
// detection result. FaceProcessor also satisfies mq.UploadEventHandler.
type FaceEventProcessor interface {
	// Handle decodes a raw storage notification and processes it.
	Handle(ctx context.Context, raw []byte) (vision.DetectionResult, error)

	// Process runs detection and publishing for an already decoded notification.
	Process(ctx context.Context, n *event.Notification) (vision.DetectionResult, error)
}
