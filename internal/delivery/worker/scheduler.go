// Package worker runs the background scheduler that publishes due scheduled
// posts.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"relay/config"
	"relay/internal/delivery"
	"relay/internal/domain/entity"
	"relay/internal/domain/repository"
	"relay/internal/usecase"

	"github.com/google/uuid"
	"go.uber.org/fx"
)

// scheduler polls the post store for due scheduled records and runs each one
// through the publish path. Because due records live in the store, posts
// scheduled before a restart are picked up by the first sweep after it.
type scheduler struct {
	interval   time.Duration
	postRepo   repository.PostRepository
	publishUC  usecase.PublishUsecase
	logger     *slog.Logger
	stop       chan struct{}
	sweepDone  sync.WaitGroup
	inflightMu sync.Mutex
	inflight   map[uuid.UUID]struct{}
}

// SchedulerParams holds dependencies for the scheduler, injected by Fx.
type SchedulerParams struct {
	fx.In

	Lc        fx.Lifecycle
	Config    *config.Config
	PostRepo  repository.PostRepository
	PublishUC usecase.PublishUsecase
	Logger    *slog.Logger
}

// NewScheduler creates the scheduled-post worker.
func NewScheduler(params SchedulerParams) delivery.Delivery {
	s := &scheduler{
		interval:  params.Config.Publish.SchedulerPollInterval,
		postRepo:  params.PostRepo,
		publishUC: params.PublishUC,
		logger:    params.Logger,
		stop:      make(chan struct{}),
		inflight:  make(map[uuid.UUID]struct{}),
	}

	params.Lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			close(s.stop)
			s.sweepDone.Wait()

			return nil
		},
	})

	return s
}

// Serve runs the polling loop. The first sweep happens immediately, which is
// what recovers scheduled posts that came due while the process was down.
func (s *scheduler) Serve(ctx context.Context) error {
	s.logger.Info("Starting scheduled-post worker", slog.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.stop:
			return nil
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep loads every due record and dispatches the ones not already running.
func (s *scheduler) sweep(ctx context.Context) {
	due, err := s.postRepo.ListScheduledDue(ctx, time.Now())
	if err != nil {
		s.logger.Error("scheduled-post sweep failed", slog.String("error", err.Error()))

		return
	}

	for _, post := range due {
		if !s.acquire(post.ID) {
			continue
		}

		s.sweepDone.Add(1)
		go s.run(ctx, post)
	}
}

func (s *scheduler) run(ctx context.Context, post *entity.PostRecord) {
	defer s.sweepDone.Done()
	defer s.release(post.ID)

	if err := s.publishUC.ExecuteScheduled(ctx, post); err != nil {
		s.logger.Warn("scheduled post failed",
			slog.String("post_id", post.ID.String()),
			slog.String("platform", string(post.Platform)),
			slog.String("error", err.Error()),
		)

		return
	}

	s.logger.Info("scheduled post published",
		slog.String("post_id", post.ID.String()),
		slog.String("platform", string(post.Platform)),
	)
}

// acquire marks a record as in flight so overlapping sweeps skip it. The
// store-level status guard is the real double-post defense; this only avoids
// wasted work within the process.
func (s *scheduler) acquire(id uuid.UUID) bool {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()

	if _, running := s.inflight[id]; running {
		return false
	}
	s.inflight[id] = struct{}{}

	return true
}

func (s *scheduler) release(id uuid.UUID) {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()

	delete(s.inflight, id)
}
