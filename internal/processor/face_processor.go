package processor

import (
	"context"
	"time"

	"github.com/solacese/romo-robot/internal/broker"
	"github.com/solacese/romo-robot/internal/event"
	"github.com/solacese/romo-robot/internal/metrics"
	"github.com/solacese/romo-robot/internal/topic"
	"github.com/solacese/romo-robot/internal/vision"
	pkglog "github.com/solacese/romo-robot/pkg/log"
)

// FaceProcessor implements FaceEventProcessor. Any failure ends the run and
// is returned unchanged. A failed publish discards the detection result.
type FaceProcessor struct {
	detector  vision.FaceDetector
	publisher broker.EventPublisher
	metrics   *metrics.Metrics
}

// NewFaceProcessor constructs a FaceProcessor. m may be nil.
func NewFaceProcessor(detector vision.FaceDetector, publisher broker.EventPublisher, m *metrics.Metrics) *FaceProcessor {
	return &FaceProcessor{
		detector:  detector,
		publisher: publisher,
		metrics:   m,
	}
}

// Handle decodes raw and calls Process.
func (p *FaceProcessor) Handle(ctx context.Context, raw []byte) (vision.DetectionResult, error) {
	l := pkglog.Ctx(ctx)

	start := time.Now()
	n, err := event.Decode(raw)
	p.metrics.ObserveStage(metrics.StageDecode, start, err)
	if err != nil {
		l.Error().Err(err).Str(pkglog.FieldStage, metrics.StageDecode).Msg("failed to decode storage notification")
		p.metrics.Invocation(metrics.StageDecode)
		return nil, err
	}

	return p.Process(ctx, n)
}

// Process detects faces in the notified object and publishes the result to
// the topic derived from its key.
func (p *FaceProcessor) Process(ctx context.Context, n *event.Notification) (vision.DetectionResult, error) {
	ctx = pkglog.WithObject(ctx, n.Bucket, n.Key)
	l := pkglog.Ctx(ctx)

	// 1. Detect faces.
	start := time.Now()
	result, err := p.detector.DetectFaces(ctx, n.Bucket, n.Key)
	p.metrics.ObserveStage(metrics.StageDetect, start, err)
	if err != nil {
		l.Error().Err(err).
			Str(pkglog.FieldStage, metrics.StageDetect).
			Msg("face detection failed")
		p.metrics.Invocation(metrics.StageDetect)
		return nil, err
	}
	l.Debug().RawJSON("result", result).Msg("faces detected")

	// 2. Publish to the derived topic.
	t := topic.FromKey(n.Key)
	start = time.Now()
	err = p.publisher.Publish(ctx, t, result)
	p.metrics.ObserveStage(metrics.StagePublish, start, err)
	if err != nil {
		l.Error().Err(err).
			Str(pkglog.FieldStage, metrics.StagePublish).
			Str(pkglog.FieldTopic, t).
			Msg("failed to publish detection result")
		p.metrics.Invocation(metrics.StagePublish)
		return nil, err
	}

	l.Info().Str(pkglog.FieldTopic, t).Msg("detection result published")
	p.metrics.Invocation("")
	return result, nil
}

// HandleUploadEvent processes a notification delivered by the Kafka consumer.
func (p *FaceProcessor) HandleUploadEvent(ctx context.Context, n *event.Notification) error {
	_, err := p.Process(ctx, n)
	return err
}
