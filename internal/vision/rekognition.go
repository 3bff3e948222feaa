package vision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/aws/smithy-go"
)

// RekognitionAPI is the subset of the Rekognition client used here.
type RekognitionAPI interface {
	DetectFaces(
		ctx context.Context,
		params *rekognition.DetectFacesInput,
		optFns ...func(*rekognition.Options),
	) (*rekognition.DetectFacesOutput, error)
}

// Config holds configuration for the Rekognition client.
type Config struct {
	Region string `mapstructure:"region"`
	// Static keys are for local runs only. Left empty, the default AWS chain
	// applies, which carries the session token of a Lambda or ECS role.
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	SessionToken    string `mapstructure:"session_token"`
	Endpoint        string `mapstructure:"endpoint"` // optional, e.g. a localstack URL
}

// faceDetections is the published payload. Field names follow the
// Rekognition response so downstream consumers can read FaceDetails directly.
type faceDetections struct {
	FaceDetails           []types.FaceDetail          `json:"FaceDetails"`
	OrientationCorrection types.OrientationCorrection `json:"OrientationCorrection,omitempty"`
}

// RekognitionDetector implements FaceDetector with AWS Rekognition DetectFaces.
type RekognitionDetector struct {
	client RekognitionAPI
}

// NewRekognitionDetector builds a Rekognition client from cfg. The SDK
// retryer is limited to a single attempt.
func NewRekognitionDetector(ctx context.Context, cfg Config) (*RekognitionDetector, error) {
	awsCfg, err := loadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var clientOpts []func(*rekognition.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *rekognition.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	return NewRekognitionDetectorWithClient(rekognition.NewFromConfig(awsCfg, clientOpts...)), nil
}

// loadAWSConfig uses static credentials only when both keys are configured.
func loadAWSConfig(ctx context.Context, cfg Config) (aws.Config, error) {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
		config.WithRetryMaxAttempts(1),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return awsCfg, nil
}

// NewRekognitionDetectorWithClient wraps an existing client.
func NewRekognitionDetectorWithClient(client RekognitionAPI) *RekognitionDetector {
	return &RekognitionDetector{client: client}
}

// DetectFaces calls DetectFaces with Attributes=[ALL] on the S3 object.
func (d *RekognitionDetector) DetectFaces(ctx context.Context, bucket, key string) (DetectionResult, error) {
	out, err := d.client.DetectFaces(ctx, &rekognition.DetectFacesInput{
		Image: &types.Image{
			S3Object: &types.S3Object{
				Bucket: aws.String(bucket),
				Name:   aws.String(key),
			},
		},
		Attributes: []types.Attribute{types.AttributeAll},
	})
	if err != nil {
		perr := &ProviderError{Bucket: bucket, Key: key, Err: err}
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			perr.Code = apiErr.ErrorCode()
		}
		return nil, perr
	}

	data, err := json.Marshal(faceDetections{
		FaceDetails:           out.FaceDetails,
		OrientationCorrection: out.OrientationCorrection,
	})
	if err != nil {
		return nil, &ProviderError{Bucket: bucket, Key: key, Err: fmt.Errorf("failed to encode detection result: %w", err)}
	}

	return data, nil
}
