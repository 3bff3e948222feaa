package vision

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRekognition struct {
	input *rekognition.DetectFacesInput
	out   *rekognition.DetectFacesOutput
	err   error
}

func (f *fakeRekognition) DetectFaces(_ context.Context, in *rekognition.DetectFacesInput, _ ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error) {
	f.input = in
	return f.out, f.err
}

func TestDetectFacesRequestsAllAttributes(t *testing.T) {
	fake := &fakeRekognition{out: &rekognition.DetectFacesOutput{}}
	d := NewRekognitionDetectorWithClient(fake)

	_, err := d.DetectFaces(context.Background(), "imgs", "romo-demo.jpg")
	require.NoError(t, err)

	require.NotNil(t, fake.input)
	require.NotNil(t, fake.input.Image)
	require.NotNil(t, fake.input.Image.S3Object)
	assert.Equal(t, "imgs", aws.ToString(fake.input.Image.S3Object.Bucket))
	assert.Equal(t, "romo-demo.jpg", aws.ToString(fake.input.Image.S3Object.Name))
	assert.Equal(t, []types.Attribute{types.AttributeAll}, fake.input.Attributes)
}

func TestDetectFacesEncodesFaceDetails(t *testing.T) {
	fake := &fakeRekognition{out: &rekognition.DetectFacesOutput{
		FaceDetails: []types.FaceDetail{{
			Confidence: aws.Float32(99.5),
			Emotions: []types.Emotion{
				{Type: types.EmotionNameHappy, Confidence: aws.Float32(87.5)},
			},
		}},
	}}
	d := NewRekognitionDetectorWithClient(fake)

	res, err := d.DetectFaces(context.Background(), "imgs", "romo-demo.jpg")
	require.NoError(t, err)

	var decoded struct {
		FaceDetails []struct {
			Confidence float64
			Emotions   []struct {
				Type       string
				Confidence float64
			}
		}
	}
	require.NoError(t, json.Unmarshal(res, &decoded))
	require.Len(t, decoded.FaceDetails, 1)
	assert.InDelta(t, 99.5, decoded.FaceDetails[0].Confidence, 0.001)
	require.Len(t, decoded.FaceDetails[0].Emotions, 1)
	assert.Equal(t, "HAPPY", decoded.FaceDetails[0].Emotions[0].Type)
}

func TestDetectFacesWrapsAPIError(t *testing.T) {
	apiErr := &smithy.GenericAPIError{Code: "InvalidS3ObjectException", Message: "unable to get object"}
	d := NewRekognitionDetectorWithClient(&fakeRekognition{err: apiErr})

	res, err := d.DetectFaces(context.Background(), "imgs", "missing.jpg")
	assert.Nil(t, res)
	require.Error(t, err)

	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "InvalidS3ObjectException", perr.Code)
	assert.Equal(t, "imgs", perr.Bucket)
	assert.Equal(t, "missing.jpg", perr.Key)
	assert.ErrorIs(t, err, apiErr)
}

func TestDetectFacesWrapsTransportError(t *testing.T) {
	transport := errors.New("dial tcp: connection refused")
	d := NewRekognitionDetectorWithClient(&fakeRekognition{err: transport})

	_, err := d.DetectFaces(context.Background(), "imgs", "a.jpg")
	require.Error(t, err)
	assert.True(t, IsProviderError(err))
	assert.ErrorIs(t, err, transport)

	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Empty(t, perr.Code)
}
