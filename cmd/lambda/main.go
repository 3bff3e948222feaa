package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/solacese/romo-robot/internal/broker"
	"github.com/solacese/romo-robot/internal/config"
	"github.com/solacese/romo-robot/internal/processor"
	"github.com/solacese/romo-robot/internal/vision"
	pkglog "github.com/solacese/romo-robot/pkg/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		ServiceName: "rekognition-lambda",
	})
	l := pkglog.L()

	if err := cfg.Broker.Validate(); err != nil {
		l.Fatal().Err(err).Msg("invalid broker config")
	}

	// Clients are built once per cold start and reused across invocations.
	ctx := context.Background()
	detector, err := vision.NewRekognitionDetector(ctx, cfg.Vision)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to init rekognition client")
	}
	publisher, err := broker.NewPublisher(cfg.Broker)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to init publisher")
	}

	lambda.Start(newHandler(processor.NewFaceProcessor(detector, publisher, nil)))
}
