package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/solacese/romo-robot/internal/config"
	"github.com/solacese/romo-robot/internal/uploader"
	pkglog "github.com/solacese/romo-robot/pkg/log"
	"github.com/solacese/romo-robot/pkg/storage"
)

var rootCmd = &cobra.Command{
	Use:          "image-uploader",
	Short:        "Normalize images to JPEG and upload them to the watched bucket",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("storage", "", "storage backend: s3 or local (default from config)")
	rootCmd.PersistentFlags().String("prefix", "", "object key prefix (default from config)")
	rootCmd.PersistentFlags().Int("quality", 0, "JPEG quality 1-100 (default from config)")
	rootCmd.PersistentFlags().Int("max-width", 0, "downscale wider images to this width")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads config, applies flag overrides and initializes logging.
func setup(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	applyFlags(cmd, cfg)

	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      true,
		ServiceName: "image-uploader",
	})
	return cfg, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("storage") {
		cfg.Storage.Type, _ = flags.GetString("storage")
	}
	if flags.Changed("prefix") {
		cfg.Uploader.KeyPrefix, _ = flags.GetString("prefix")
	}
	if flags.Changed("quality") {
		cfg.Uploader.JPEGQuality, _ = flags.GetInt("quality")
	}
	if flags.Changed("max-width") {
		cfg.Uploader.MaxWidth, _ = flags.GetInt("max-width")
	}
}

func newUploader(ctx context.Context, cfg *config.Config) (*uploader.Uploader, error) {
	store, err := newStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	return uploader.New(store, cfg.Uploader), nil
}

func newStore(ctx context.Context, cfg config.StorageConfig) (storage.ObjectStore, error) {
	if cfg.Type == "local" {
		st, err := storage.NewLocalStore(cfg.Local)
		if err != nil {
			return nil, err
		}
		return st, nil
	}
	st, err := storage.NewS3Store(ctx, cfg.S3)
	if err != nil {
		return nil, err
	}
	return st, nil
}
