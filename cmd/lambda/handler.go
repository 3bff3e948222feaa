package main

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-lambda-go/lambdacontext"

	"github.com/solacese/romo-robot/internal/processor"
	pkglog "github.com/solacese/romo-robot/pkg/log"
)

// newHandler adapts the processor to the Lambda runtime. The raw event is
// passed through so the decoder sees exactly what S3 sent.
func newHandler(p processor.FaceEventProcessor) func(context.Context, json.RawMessage) (json.RawMessage, error) {
	return func(ctx context.Context, evt json.RawMessage) (json.RawMessage, error) {
		if lc, ok := lambdacontext.FromContext(ctx); ok {
			child := pkglog.L().With().Str(pkglog.FieldRequestID, lc.AwsRequestID).Logger()
			ctx = pkglog.WithLogger(ctx, child)
		}

		res, err := p.Handle(ctx, evt)
		if err != nil {
			return nil, err
		}
		return json.RawMessage(res), nil
	}
}
