package vision

import (
	"context"
	"encoding/json"
)

// DetectionResult is the provider's face-detection response carried as raw
// JSON. The pipeline forwards it without interpreting any field.
type DetectionResult = json.RawMessage

// FaceDetector detects faces in an image that already lives in object storage.
type FaceDetector interface {
	// DetectFaces requests every available attribute for every face found in
	// the object at (bucket, key). Failures are returned as *ProviderError.
	DetectFaces(ctx context.Context, bucket, key string) (DetectionResult, error)
}
