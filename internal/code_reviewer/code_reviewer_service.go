package code_reviewer

import (
	"context"
	"fmt"
	"time"

	"codefusion/internal/review_provider"
	"codefusion/pkg/types"

	"go.uber.org/zap"
)

// CodeReviewerService produces free-form reviews of submitted code
type CodeReviewerService struct {
	logger   *zap.Logger
	provider review_provider.ReviewProvider
	timeout  time.Duration
}

func NewCodeReviewerService(logger *zap.Logger, provider review_provider.ReviewProvider, cfg types.ReviewConfig) *CodeReviewerService {
	return &CodeReviewerService{
		logger:   logger,
		provider: provider,
		timeout:  cfg.Timeout,
	}
}

func (s *CodeReviewerService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return context.WithCancel(ctx)
}

// Review sends the code as-is and returns the model's text unmodified.
func (s *CodeReviewerService) Review(ctx context.Context, code string) (string, error) {
	if code == "" {
		return "", fmt.Errorf("code is required: %w", types.ErrInvalidInput)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	s.logger.Info("reviewing code", zap.Int("code_length", len(code)))

	text, err := s.provider.Complete(ctx, SystemInstruction, code)
	if err != nil {
		s.logger.Error("review failed", zap.Error(err))
		return "", err
	}

	s.logger.Info("code review completed", zap.Int("review_length", len(text)))
	return text, nil
}

// StreamReview is Review with the answer delivered in chunks.
func (s *CodeReviewerService) StreamReview(ctx context.Context, code string, onChunk func(string) error) error {
	if code == "" {
		return fmt.Errorf("code is required: %w", types.ErrInvalidInput)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	s.logger.Info("streaming code review", zap.Int("code_length", len(code)))
	return s.provider.StreamCompletion(ctx, SystemInstruction, code, onChunk)
}
