package main

import (
	"context"
	"fmt"

	"codefusion/internal/code_converter"
	"codefusion/internal/code_reviewer"
	"codefusion/internal/review_provider"
	"codefusion/internal/services"
	"codefusion/internal/third_party/gemini"
	"codefusion/internal/validator"
	"codefusion/pkg/types"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "codefusion",
		Short:         "AI code review and code conversion service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	root.AddCommand(newServeCmd(), newConvertCmd(), newReviewCmd())
	return root
}

// newLogger initializes a zap logger with human-readable timestamps
func newLogger(level string) (*zap.Logger, error) {
	logConfig := zap.NewProductionConfig()
	logConfig.EncoderConfig.TimeKey = "time"
	logConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logLevel := zap.InfoLevel
	if level != "" {
		if err := logLevel.UnmarshalText([]byte(level)); err != nil {
			logLevel = zap.InfoLevel
		}
	}
	logConfig.Level = zap.NewAtomicLevelAt(logLevel)
	return logConfig.Build()
}

// bootstrap loads configuration and builds the logger shared by every command.
func bootstrap() (*types.Config, *zap.Logger, error) {
	cfg, err := types.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := newLogger(cfg.Server.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, logger, nil
}

func newConverter(cfg *types.Config, logger *zap.Logger) *code_converter.CodeConverterService {
	client := gemini.NewContentClient(cfg.Gemini, cfg.Converter, logger)
	return code_converter.NewCodeConverterService(logger, client, cfg.Converter)
}

func newReviewer(ctx context.Context, cfg *types.Config, logger *zap.Logger) (*code_reviewer.CodeReviewerService, error) {
	providerFactory := review_provider.NewFactory(cfg, logger)
	provider, err := providerFactory.CreateProvider(ctx, review_provider.GenerativeProviderType(cfg.Review.Provider))
	if err != nil {
		return nil, fmt.Errorf("failed to create review provider: %w", err)
	}
	return code_reviewer.NewCodeReviewerService(logger, provider, cfg.Review), nil
}

func newServices(ctx context.Context, cfg *types.Config, logger *zap.Logger) (*services.Services, error) {
	reviewer, err := newReviewer(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return services.NewServices(newConverter(cfg, logger), reviewer, validator.NewPresenceValidator()), nil
}
