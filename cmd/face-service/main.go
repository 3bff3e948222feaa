package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/solacese/romo-robot/internal/broker"
	"github.com/solacese/romo-robot/internal/config"
	"github.com/solacese/romo-robot/internal/handler"
	"github.com/solacese/romo-robot/internal/metrics"
	"github.com/solacese/romo-robot/internal/mq"
	"github.com/solacese/romo-robot/internal/processor"
	"github.com/solacese/romo-robot/internal/vision"
	pkglog "github.com/solacese/romo-robot/pkg/log"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Pretty || cfg.Log.Level == "debug",
		ServiceName: "face-service",
	})
	l := pkglog.L()

	if err := cfg.ValidateService(); err != nil {
		l.Fatal().Err(err).Msg("invalid config")
	}
	l.Info().Str(pkglog.FieldDriver, cfg.Broker.Driver).Msg("face-service starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	detector, err := vision.NewRekognitionDetector(ctx, cfg.Vision)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to init rekognition client")
	}

	if cfg.Broker.SEMP.Enabled {
		if err := broker.NewProvisioner(cfg.Broker.SEMP, nil).Provision(ctx); err != nil {
			l.Fatal().Err(err).Msg("failed to provision broker queue")
		}
		l.Info().
			Str("queue", cfg.Broker.SEMP.Queue).
			Str("subscription", cfg.Broker.SEMP.Subscription).
			Msg("broker queue provisioned")
	}

	publisher, err := broker.NewPublisher(cfg.Broker)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to init publisher")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	proc := processor.NewFaceProcessor(detector, publisher, metrics.New(reg))

	g, gctx := errgroup.WithContext(ctx)

	// HTTP: health, metrics and optionally the notification webhook.
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), pkglog.GinMiddleware(l))
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	h := handler.NewHandler(proc)
	if cfg.Webhook.Enabled {
		h.RegisterRoutes(r)
	} else {
		r.GET("/health", h.Health)
	}

	srv := &http.Server{Addr: cfg.Server.Addr(), Handler: r}
	g.Go(func() error {
		l.Info().Str("addr", srv.Addr).Bool("webhook", cfg.Webhook.Enabled).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	// Kafka: storage notifications pushed by MinIO or an S3 bridge.
	if cfg.Consumer.Enabled {
		consumer, err := mq.NewKafkaConsumer(mq.ConsumerConfig{
			Brokers: cfg.Consumer.Brokers,
			Topic:   cfg.Consumer.Topic,
			GroupID: cfg.Consumer.GroupID,
			Filter: mq.Filter{
				Bucket:     cfg.Consumer.BucketFilter,
				KeyPrefix:  cfg.Consumer.PrefixFilter,
				EventNames: cfg.Consumer.EventNameFilters,
			},
		}, proc)
		if err != nil {
			l.Fatal().Err(err).Msg("failed to init kafka consumer")
		}
		if err := consumer.Start(gctx); err != nil {
			l.Fatal().Err(err).Msg("failed to start consumer")
		}
		g.Go(func() error {
			<-gctx.Done()
			// Waits for the in-flight notification to finish.
			return consumer.Close()
		})
	}

	if err := g.Wait(); err != nil {
		l.Error().Err(err).Msg("face-service stopped with error")
	}

	if err := publisher.Close(); err != nil {
		l.Warn().Err(err).Msg("failed to close publisher")
	}
	l.Info().Msg("shutdown complete")
}
