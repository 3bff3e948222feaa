package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	pkglog "github.com/solacese/romo-robot/pkg/log"
)

var uploadCmd = &cobra.Command{
	Use:   "upload [flags] IMAGE...",
	Short: "Upload local image files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)

	uploadCmd.Flags().IntP("concurrency", "c", 4, "parallel uploads")
}

func runUpload(cmd *cobra.Command, args []string) error {
	cfg, err := setup(cmd)
	if err != nil {
		return err
	}
	l := pkglog.L()

	if err := cfg.ValidateUploader(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	up, err := newUploader(ctx, cfg)
	if err != nil {
		return err
	}

	concurrency, _ := cmd.Flags().GetInt("concurrency")
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))

	for _, path := range args {
		path := path
		g.Go(func() error {
			res, err := up.UploadFile(gctx, path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", path, res.Key, res.URL)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		l.Error().Err(err).Msg("upload failed")
		return err
	}
	return nil
}
