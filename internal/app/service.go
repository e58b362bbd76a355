// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"sync"

	submissionqueue "github.com/amaydixit11/UnoLeaderboard/internal/adapters/mq/queue"
	"github.com/amaydixit11/UnoLeaderboard/internal/adapters/mq/worker"
	repository "github.com/amaydixit11/UnoLeaderboard/internal/adapters/repository"
	"github.com/amaydixit11/UnoLeaderboard/internal/domain/dedupe"
	"github.com/amaydixit11/UnoLeaderboard/internal/domain/model"
	"github.com/amaydixit11/UnoLeaderboard/internal/domain/rating"
	"github.com/amaydixit11/UnoLeaderboard/internal/domain/types"
	"github.com/amaydixit11/UnoLeaderboard/pkg/logger"
	"github.com/amaydixit11/UnoLeaderboard/pkg/metrics"
)

// Service implements the API dependencies for the rating system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    repository.Store
	deduper  dedupe.Deduper
	queue    submissionqueue.Queue
	worker   *worker.Worker
	provider rating.Provider

	// Configuration
	queueSize           int
	dedupeSize          int
	maxLeaderboardLimit int
	kMin, kMax, kDecay  float64
	whrSweeps           int
	whrDriftVariance    float64
	whrMinGapDays       float64
	whrMinCurvature     float64

	// State
	started bool
	cancel  context.CancelFunc

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithQueueSize sets the maximum size of the submission queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxLeaderboardLimit caps the leaderboard query limit.
func WithMaxLeaderboardLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.maxLeaderboardLimit = limit
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithKCurve shapes the per-player K-factor curve used by the pairwise
// and expected-rank models.
func WithKCurve(min, max, decay float64) Option {
	return func(s *Service) {
		if min > 0 && max >= min && decay > 0 {
			s.kMin, s.kMax, s.kDecay = min, max, decay
		}
	}
}

// WithWHRTuning configures the whole-history optimizer.
func WithWHRTuning(sweeps int, driftVariance, minGapDays, minCurvature float64) Option {
	return func(s *Service) {
		if sweeps > 0 {
			s.whrSweeps = sweeps
		}
		if driftVariance > 0 {
			s.whrDriftVariance = driftVariance
		}
		if minGapDays > 0 {
			s.whrMinGapDays = minGapDays
		}
		if minCurvature > 0 {
			s.whrMinCurvature = minCurvature
		}
	}
}

// WithProvider attaches an external rating provider. When nil, the
// external model is skipped and only the in-house models run.
func WithProvider(p rating.Provider) Option {
	return func(s *Service) {
		s.provider = p
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		queueSize:           10_000,
		dedupeSize:          100_000,
		maxLeaderboardLimit: 100,
		kMin:                16,
		kMax:                32,
		kDecay:              20,
		whrSweeps:           100,
		whrDriftVariance:    0.1,
		whrMinGapDays:       0.5,
		whrMinCurvature:     1e-6,
		logger:              nil, // Will be replaced when service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// MaxLeaderboardLimit reports the configured leaderboard query cap.
func (s *Service) MaxLeaderboardLimit() int {
	return s.maxLeaderboardLimit
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting rating service...")

	s.store = repository.NewMemStore(ctx)
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.queue = submissionqueue.NewInMemoryQueue(
		submissionqueue.WithCapacity(s.queueSize),
		submissionqueue.WithBufferSize(s.queueSize),
	)

	workerOpts := []worker.Option{
		worker.WithModels(
			rating.NewPairwiseModel(rating.WithPairwiseKCurve(s.kMin, s.kMax, s.kDecay)),
			rating.NewExpectedRankModel(rating.WithExpectedRankKCurve(s.kMin, s.kMax, s.kDecay)),
		),
		worker.WithWholeHistory(rating.NewWholeHistory(
			rating.WithSweeps(s.whrSweeps),
			rating.WithDriftVariance(s.whrDriftVariance),
			rating.WithMinGapDays(s.whrMinGapDays),
			rating.WithMinCurvature(s.whrMinCurvature),
		)),
	}
	if s.provider != nil {
		workerOpts = append(workerOpts, worker.WithProvider(s.provider))
	}
	s.worker = worker.New(s.queue, s.store, s.deduper, workerOpts...)

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.worker.Run(runCtx)

	s.started = true
	s.logger.Info(ctx, "rating service started",
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping rating service...")

	// Stop accepting new submissions, then drain the worker
	if q, ok := s.queue.(*submissionqueue.InMemoryQueue); ok {
		_ = q.Close()
	}
	if s.worker != nil {
		_ = s.worker.Shutdown(context.Background())
	}
	if s.cancel != nil {
		s.cancel()
	}

	s.started = false
	s.logger.Info(context.Background(), "rating service stopped")
}

// SeenAndRecord atomically checks if a game id was seen and records it if
// not. Returns true if the game was already seen.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordGameDuplicate()
	}
	return seen
}

// Unrecord removes a game id from the seen list, allowing it to be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// Enqueue submits a game for asynchronous processing.
func (s *Service) Enqueue(ctx context.Context, sub model.Submission) bool {
	s.logger.Debug(ctx, "received submission",
		logger.String("gameID", sub.GameID),
		logger.Int("eliminations", len(sub.Eliminations)),
	)

	ok := s.queue.Enqueue(ctx, sub)
	if ok {
		metrics.UpdateQueueSize(s.queue.Len(ctx))
	}
	return ok
}

// TopN returns the top N leaderboard entries under one rating model.
func (s *Service) TopN(ctx context.Context, modelID types.ModelID, n int) ([]types.Entry, error) {
	return s.store.TopN(ctx, modelID, n)
}

// Player returns the live rating state of one player across all models.
func (s *Service) Player(ctx context.Context, playerID string) (model.Player, error) {
	return s.store.Player(ctx, playerID)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":    s.started,
		"queueSize":  s.queueSize,
		"dedupeSize": s.dedupeSize,
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		totalPlayers := s.store.Count(ctx)
		totalGames := s.store.GameCount(ctx)

		stats["queueLength"] = queueLen
		stats["totalPlayers"] = totalPlayers
		stats["totalGames"] = totalGames

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateTotalPlayers(totalPlayers)
	}

	return stats
}
