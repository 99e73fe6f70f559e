package code_converter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"codefusion/pkg/types"

	"go.uber.org/zap"
)

// ContentGenerator sends a single prompt to a text-generation model and
// returns the first candidate's text. An empty string means the model
// produced nothing usable.
type ContentGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// CodeConverterService converts code between languages through a model
type CodeConverterService struct {
	logger    *zap.Logger
	generator ContentGenerator
	timeout   time.Duration
}

// NewCodeConverterService creates a new instance of CodeConverterService
func NewCodeConverterService(logger *zap.Logger, generator ContentGenerator, cfg types.ConverterConfig) *CodeConverterService {
	return &CodeConverterService{
		logger:    logger,
		generator: generator,
		timeout:   cfg.Timeout,
	}
}

// Convert asks the model to rewrite code from sourceLang into targetLang and
// post-processes the answer. Every failure, including an empty answer, is
// reported as types.ErrConversionFailed.
func (s *CodeConverterService) Convert(ctx context.Context, code, sourceLang, targetLang string) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	s.logger.Info("converting code",
		zap.String("source_language", sourceLang),
		zap.String("target_language", targetLang),
		zap.Int("code_length", len(code)),
	)

	raw, err := s.generator.Generate(ctx, buildPrompt(code, sourceLang, targetLang))
	if err != nil {
		s.logger.Error("model call failed", zap.Error(err))
		return "", fmt.Errorf("%w: %w: %v", types.ErrConversionFailed, types.ErrUpstream, err)
	}
	if raw == "" {
		s.logger.Warn("model returned no text")
		return "", types.ErrConversionFailed
	}
	s.logger.Debug("raw model output", zap.String("text", raw))

	formatted := FormatOutput(raw, targetLang)
	s.logger.Info("code conversion completed", zap.Int("output_length", len(formatted)))
	return formatted, nil
}

func buildPrompt(code, source, target string) string {
	b := strings.Builder{}
	b.WriteString(fmt.Sprintf("Convert the following %s code to %s. Output must be a properly formatted program.\n", source, target))
	b.WriteString("For C, C++, or Java, use this exact structure:\n")
	b.WriteString("#include <stdio.h>\n")
	b.WriteString("int main() {\n")
	b.WriteString("    [your code here]\n")
	b.WriteString("    return 0;\n")
	b.WriteString("}\n")
	b.WriteString(fmt.Sprintf("Ensure 4-space indentation and one statement per line. Input: %s\n\n", code))
	b.WriteString("Output only the formatted code.")
	return b.String()
}
