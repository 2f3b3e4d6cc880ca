package job

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/bkolar18/wedding-scraper/internal/mapper"
	"github.com/bkolar18/wedding-scraper/internal/model"
	"github.com/bkolar18/wedding-scraper/internal/telemetry"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("job not found")

// Storage is where jobs live during and after execution.
type Storage interface {
	Save(job *model.ScrapeJob) error
	Get(id string) (*model.ScrapeJob, error)
}

// Runner executes one scrape end to end, reporting progress as it goes.
type Runner interface {
	Run(ctx context.Context, url string, force bool, progress func(pct int, msg string)) (*model.ScrapeOutcome, error)
}

// Service owns the async job lifecycle: pending on submit, processing while
// the runner works, then exactly one terminal transition. Failed jobs are
// never retried automatically; visible progress only moves forward.
type Service struct {
	store   Storage
	runner  Runner
	results chan<- *model.ResultTask
	metrics *telemetry.JobMetrics
	log     *slog.Logger

	baseCtx context.Context
	wg      sync.WaitGroup
}

// NewService wires the lifecycle. results may be nil when no downstream
// topic is configured (library use).
func NewService(baseCtx context.Context, store Storage, runner Runner,
	results chan<- *model.ResultTask, metrics *telemetry.JobMetrics, log *slog.Logger) *Service {
	return &Service{
		store:   store,
		runner:  runner,
		results: results,
		metrics: metrics,
		log:     log,
		baseCtx: baseCtx,
	}
}

// Submit registers a new job and starts its executor. The returned id is
// immediately pollable.
func (s *Service) Submit(ctx context.Context, url string, force bool) (string, error) {
	j := &model.ScrapeJob{
		ID:        uuid.New().String(),
		URL:       url,
		Status:    model.JobPending,
		Progress:  0,
		Message:   "queued",
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Save(j); err != nil {
		return "", err
	}

	s.wg.Add(1)
	go s.execute(j.ID, url, force)

	return j.ID, nil
}

// Poll returns the current snapshot of a job.
func (s *Service) Poll(ctx context.Context, id string) (*model.ScrapeJob, error) {
	return s.store.Get(id)
}

// Wait blocks until all running executors finish. Used during shutdown.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) execute(id, url string, force bool) {
	defer s.wg.Done()

	now := time.Now().UTC()
	j, err := s.store.Get(id)
	if err != nil {
		s.log.Error("executor lost its job.", slog.String("job_id", id), slog.Any("err", err))
		return
	}
	j.Status = model.JobProcessing
	j.StartedAt = &now
	j.Message = "starting scrape"
	s.save(j)

	progress := func(pct int, msg string) {
		current, err := s.store.Get(id)
		if err != nil || current.Status.Terminal() {
			return
		}
		if pct > current.Progress {
			current.Progress = pct
		}
		current.Message = msg
		s.save(current)
	}

	outcome, err := s.runner.Run(s.baseCtx, url, force, progress)

	final, getErr := s.store.Get(id)
	if getErr != nil {
		s.log.Error("executor lost its job.", slog.String("job_id", id), slog.Any("err", getErr))
		return
	}
	done := time.Now().UTC()
	final.CompletedAt = &done

	if err != nil {
		final.Status = model.JobFailed
		final.Error = err.Error()
		final.Message = "scrape failed"
		if outcome != nil {
			final.Platform = outcome.Platform
		}
		s.save(final)
		s.metrics.FailedCnt(1)
		s.publish(final, outcome)
		s.log.Warn("job failed.", slog.String("job_id", id), slog.String("url", url),
			slog.Any("err", err))
		return
	}

	final.Status = model.JobCompleted
	final.Progress = 100
	final.Message = "scrape complete"
	final.Platform = outcome.Platform
	final.ScrapedData = outcome.Record
	final.PreviewData = mapper.Preview(outcome.Record)
	s.save(final)
	s.metrics.CompletedCnt(1)
	s.publish(final, outcome)
	s.log.Info("job completed.", slog.String("job_id", id), slog.String("url", url),
		slog.String("platform", string(outcome.Platform)))
}

func (s *Service) publish(j *model.ScrapeJob, outcome *model.ScrapeOutcome) {
	if s.results == nil {
		return
	}
	task := &model.ResultTask{
		JobID:  j.ID,
		URL:    j.URL,
		Status: j.Status,
		Error:  j.Error,
	}
	if outcome != nil {
		task.Platform = outcome.Platform
		task.S3Bucket = outcome.S3Bucket
		task.S3Key = outcome.S3Key
	}
	s.results <- task
}

func (s *Service) save(j *model.ScrapeJob) {
	if err := s.store.Save(j); err != nil {
		s.log.Error("failed to save job.", slog.String("job_id", j.ID), slog.Any("err", err))
	}
}
