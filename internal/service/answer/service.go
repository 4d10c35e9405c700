package answer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/zhouzirui/askbot/backend/internal/analysis/intent"
	"github.com/zhouzirui/askbot/backend/internal/logging"
	"github.com/zhouzirui/askbot/backend/internal/model/answer"
	"github.com/zhouzirui/askbot/backend/internal/service/chunk"
	"github.com/zhouzirui/askbot/backend/internal/service/resolver"
)

// Reply is everything the presentation layer needs to render one bot turn.
type Reply struct {
	Intent   intent.Intent      `json:"intent"`
	Provider answer.ProviderID  `json:"provider,omitempty"`
	Chunks   []string           `json:"chunks"`
	Attempts []resolver.Attempt `json:"attempts"`
}

// Service is the query-routing core: classify, resolve, chunk.
type Service struct {
	classifier *intent.Classifier
	resolver   *resolver.Resolver
	chunkSize  int
	logger     *zap.Logger
}

// NewService wires the core. chunkSize <= 0 uses chunk.DefaultSize.
func NewService(classifier *intent.Classifier, res *resolver.Resolver, chunkSize int, logger *zap.Logger) *Service {
	if classifier == nil {
		classifier = intent.NewClassifier(nil)
	}
	if chunkSize <= 0 {
		chunkSize = chunk.DefaultSize
	}
	return &Service{
		classifier: classifier,
		resolver:   res,
		chunkSize:  chunkSize,
		logger:     logging.OrNop(logger),
	}
}

// SubmitQuery answers one user turn. It never fails: total upstream failure
// still produces a displayable message, so Chunks always has at least one entry.
func (s *Service) SubmitQuery(ctx context.Context, query string) Reply {
	started := time.Now()
	in := s.classifier.Classify(query)
	resolution := s.resolver.Resolve(ctx, in, query)

	chunks := chunk.Split(resolution.Text, s.chunkSize)
	if len(chunks) == 0 {
		chunks = []string{resolver.ExhaustedText}
	}

	s.logger.Info("query answered",
		zap.String("intent", string(in)),
		zap.String("provider", string(resolution.Provider)),
		zap.Bool("terminal", resolution.Terminal),
		zap.Int("attempts", len(resolution.Attempts)),
		zap.Int("chunks", len(chunks)),
		zap.Duration("elapsed", time.Since(started)))

	return Reply{
		Intent:   in,
		Provider: resolution.Provider,
		Chunks:   chunks,
		Attempts: resolution.Attempts,
	}
}

// ChunkSize reports the configured display chunk length.
func (s *Service) ChunkSize() int {
	return s.chunkSize
}
