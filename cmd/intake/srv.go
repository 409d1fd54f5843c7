package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"intake/internal/blobstore"
	"intake/internal/config"
	"intake/internal/models"
	"intake/internal/records"
	"intake/internal/server"
	"intake/internal/store"
)

func newSrvCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "srv",
		Short: "Run the intake API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg == nil {
				return fmt.Errorf("config not initialized")
			}
			srv, cleanup, err := buildServer(cmd.Context(), cfg, slog.Default().With("component", "server"))
			if err != nil {
				return err
			}
			defer cleanup()
			return srv.ListenAndServe()
		},
	}
}

// buildServer opens the configured table and blob store and wires them into
// an HTTP server. cleanup closes the table.
func buildServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*server.Server, func(), error) {
	if ctx == nil {
		ctx = context.Background()
	}
	addr, err := server.ListenAddr(cfg.APIURL)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("opening table", "driver", cfg.Table.Driver, "sheet", cfg.Table.Sheet)
	table, err := store.Open(ctx, store.Options{
		Driver: store.Driver(cfg.Table.Driver),
		Path:   cfg.DBPath,
		DSN:    cfg.Table.DSN,
		Sheet:  cfg.Table.Sheet,
	})
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { _ = table.Close() }

	if err := table.EnsureHeader(ctx, models.DefaultHeaders); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("write header row: %w", err)
	}

	logger.Info("opening blob store", "driver", cfg.Blobs.Driver)
	files, err := blobstore.Open(ctx, blobstore.Options{
		Driver:  blobstore.Driver(cfg.Blobs.Driver),
		Root:    cfg.Blobs.Root,
		BaseURL: cfg.BaseURL(),
		S3: blobstore.S3Config{
			Bucket:        cfg.Blobs.S3.Bucket,
			Region:        cfg.Blobs.S3.Region,
			Endpoint:      cfg.Blobs.S3.Endpoint,
			PathStyle:     cfg.Blobs.S3.PathStyle,
			PublicBaseURL: cfg.Blobs.S3.PublicBaseURL,
		},
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	metrics := server.NewMetrics(nil)
	collector := records.NewCollector(files, cfg.Blobs.Folders(), slog.Default(), metrics)
	service := records.NewService(records.NewAdapter(table), collector, slog.Default())

	opts := server.Options{
		BaseURL:            cfg.BaseURL(),
		MaxUploadBytes:     cfg.Uploads.MaxUploadBytes,
		MultipartMaxMemory: cfg.Uploads.MultipartMaxMemory,
		Metrics:            metrics,
	}
	if reader, ok := files.(blobstore.Reader); ok {
		opts.Files = reader
	}
	return server.New(addr, service, opts, logger), cleanup, nil
}
