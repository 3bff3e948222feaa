package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/solacese/romo-robot/internal/mq"
	"github.com/solacese/romo-robot/internal/uploader"
	pkglog "github.com/solacese/romo-robot/pkg/log"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Upload image captures read from a Kafka topic until interrupted",
	Args:  cobra.NoArgs,
	RunE:  runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().String("topic", "", "topic carrying raw image bytes (default from config)")
	ingestCmd.Flags().String("brokers", "", "Kafka bootstrap servers (default from config)")
}

// imageIngester uploads one message payload per call.
type imageIngester struct {
	up *uploader.Uploader
}

func (i imageIngester) HandleImage(ctx context.Context, payload []byte) error {
	res, err := i.up.Upload(ctx, bytes.NewReader(payload))
	if errors.Is(err, uploader.ErrInvalidImage) {
		return fmt.Errorf("%w: %w", mq.ErrUnprocessable, err)
	}
	if err != nil {
		return err
	}

	l := pkglog.Ctx(ctx)
	l.Debug().Str(pkglog.FieldURL, res.URL).Msg("captured image stored")
	return nil
}

func runIngest(cmd *cobra.Command, _ []string) error {
	cfg, err := setup(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("topic") {
		cfg.Ingest.Topic, _ = cmd.Flags().GetString("topic")
	}
	if cmd.Flags().Changed("brokers") {
		cfg.Ingest.Brokers, _ = cmd.Flags().GetString("brokers")
	}
	l := pkglog.L()

	if err := cfg.ValidateIngest(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	up, err := newUploader(ctx, cfg)
	if err != nil {
		return err
	}

	consumer, err := mq.NewImageConsumer(mq.ImageConsumerConfig{
		Brokers:      cfg.Ingest.Brokers,
		Topic:        cfg.Ingest.Topic,
		GroupID:      cfg.Ingest.GroupID,
		RetryBackoff: cfg.Ingest.RetryBackoff,
	}, imageIngester{up: up})
	if err != nil {
		return err
	}
	if err := consumer.Start(ctx); err != nil {
		consumer.Close()
		return err
	}

	<-ctx.Done()
	l.Info().Msg("stopping image ingest")
	return consumer.Close()
}
