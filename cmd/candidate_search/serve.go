package main

import (
	"context"
	stderrors "errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gcbaptista/candidate-search/api"
	"github.com/gcbaptista/candidate-search/internal/analytics"
	"github.com/gcbaptista/candidate-search/internal/jobs"
	"github.com/gcbaptista/candidate-search/internal/objectstore"
	"github.com/gcbaptista/candidate-search/internal/search"
)

const (
	jobWorkers      = 2
	shutdownTimeout = 10 * time.Second
)

type serveOptions struct {
	port           string
	dataDir        string
	refreshOnStart bool
}

func newServeCmd() *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Starts the HTTP API. The corpus is restored from the cache in the data
directory when present, otherwise fetched from object storage.

Examples:
  candidate-search serve                         # port 8080, ./candidate_data
  candidate-search serve --port 9000
  candidate-search serve --refresh-on-start      # always refetch at startup`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.port, "port", "", "Port to listen on (default $PORT or 8080)")
	cmd.Flags().StringVar(&opts.dataDir, "data-dir", "", "Directory for the corpus cache and analytics (default $DATA_DIR or ./candidate_data)")
	cmd.Flags().BoolVar(&opts.refreshOnStart, "refresh-on-start", false, "Fetch the corpus even when a cache exists")
	return cmd
}

func runServe(ctx context.Context, opts *serveOptions) error {
	if opts.port != "" {
		settings.Server.Port = opts.port
	}
	if opts.dataDir != "" {
		settings.Server.DataDir = opts.dataDir
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := objectstore.NewClient(settings.Storage, logger)
	if err != nil {
		return err
	}

	manager := jobs.NewManager(jobWorkers, logger)
	manager.Start()
	defer manager.Stop()

	service, err := search.NewService(search.Options{
		Matcher:  settings.Matcher,
		Grouping: settings.Grouping,
		Source:   client,
		Jobs:     manager,
		DataDir:  settings.Server.DataDir,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	tracker := analytics.NewService(service, filepath.Join(settings.Server.DataDir, analytics.AnalyticsFile), logger)
	service.SetRecorder(tracker)
	defer func() {
		if err := tracker.Flush(); err != nil {
			logger.Warn("failed to save analytics", zap.Error(err))
		}
	}()

	// The API starts without a corpus; searches answer 503 until a refresh succeeds.
	if err := service.WarmStart(ctx, opts.refreshOnStart); err != nil {
		logger.Warn("starting without a corpus", zap.String("source", client.Describe()), zap.Error(err))
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(
		gin.Recovery(),
		api.RequestIDMiddleware(),
		api.LoggerMiddleware(logger),
		api.CORSMiddleware(),
		api.RequestSizeLimitMiddleware(settings.Server.MaxRequestSize),
	)
	api.SetupRoutes(router, api.Dependencies{
		Searcher:  service,
		Refresher: service,
		Details:   client,
		Jobs:      manager,
		Analytics: tracker,
		PerParty:  settings.Grouping.PerParty,
		Logger:    logger,
	})

	server := &http.Server{
		Addr:              ":" + settings.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			zap.String("addr", server.Addr),
			zap.String("data_dir", settings.Server.DataDir),
			zap.Int("candidates", service.CorpusSize()))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
