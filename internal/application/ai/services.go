package ai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bryanwahyu/threatdesk/internal/domain/ai"
	"github.com/bryanwahyu/threatdesk/internal/metrics"
)

// Service wraps an ai.Client with the fallback policy: Analyze never fails,
// it returns either the model's verdict or the fixed conservative one.
type Service struct {
	client  ai.Client
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewService(client ai.Client, logger *slog.Logger, m *metrics.Metrics) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.New()
	}
	return &Service{client: client, logger: logger, metrics: m}
}

func (s *Service) Analyze(ctx context.Context, input string, category ai.Category) (out ai.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = s.fallback(fmt.Errorf("analysis panicked: %v", r), category)
		}
	}()

	status, err := s.client.Analyze(ctx, input, category)
	if err != nil {
		return s.fallback(err, category)
	}
	return ai.Ok(status)
}

func (s *Service) fallback(err error, category ai.Category) ai.Outcome {
	s.metrics.AnalysisFallbacks.Add(1)
	s.logger.Warn("analysis failed, using fallback verdict", "category", category, "error", err)
	return ai.Fallback(err)
}
