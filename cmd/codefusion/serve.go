package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"codefusion/internal/api"
	"codefusion/internal/services"
	"codefusion/pkg/types"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Server.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	svc, err := newServices(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize services", zap.Error(err))
		return err
	}

	return runServer(logger, cfg, svc)
}

func runServer(logger *zap.Logger, cfg *types.Config, svc *services.Services) error {
	apiServer := api.NewGinServer(logger, cfg.Server, svc)
	defer apiServer.Close()

	addr := cfg.Server.GetServerAddress()
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      apiServer.GetRouter(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			zap.String("address", addr),
			zap.Bool("hub_enabled", cfg.Server.HubEnabled),
			zap.String("review_provider", cfg.Review.Provider),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-serveErr:
		if ok {
			logger.Error("server failed to start", zap.Error(err))
			return err
		}
		return nil
	case <-quit:
	}
	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
		return err
	}

	logger.Info("server stopped")
	return nil
}
