package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solacese/romo-robot/internal/event"
	"github.com/solacese/romo-robot/internal/vision"
)

type stubProcessor struct {
	raw    []byte
	result vision.DetectionResult
	err    error
}

func (s *stubProcessor) Handle(_ context.Context, raw []byte) (vision.DetectionResult, error) {
	s.raw = raw
	return s.result, s.err
}

func (s *stubProcessor) Process(context.Context, *event.Notification) (vision.DetectionResult, error) {
	return s.result, s.err
}

func TestHandlerReturnsDetectionResult(t *testing.T) {
	p := &stubProcessor{result: vision.DetectionResult(`{"FaceDetails":[]}`)}
	ctx := lambdacontext.NewContext(context.Background(), &lambdacontext.LambdaContext{AwsRequestID: "req-1"})

	out, err := newHandler(p)(ctx, json.RawMessage(`{"Records":[]}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"FaceDetails":[]}`, string(out))
	assert.Equal(t, `{"Records":[]}`, string(p.raw))
}

func TestHandlerSurfacesError(t *testing.T) {
	boom := &vision.ProviderError{Err: errors.New("AccessDenied")}

	out, err := newHandler(&stubProcessor{err: boom})(context.Background(), json.RawMessage(`{}`))
	assert.Nil(t, out)
	assert.Same(t, boom, err)
}
