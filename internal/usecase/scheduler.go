package usecase

import (
	"context"
	"time"

	"NewsAnalyzer/internal/domain"
	"NewsAnalyzer/internal/ports"
)

// Scheduler repeats one query through the pipeline on a recurring driver.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	query    domain.SearchQuery
	opts     RunOptions
	onResult func(time.Time, Result)
}

// NewScheduler returns a helper to start/stop recurring runs. onResult
// receives every finished run and may be nil.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, query domain.SearchQuery, opts RunOptions, onResult func(time.Time, Result)) *Scheduler {
	return &Scheduler{driver: driver, pipeline: pipeline, query: query, opts: opts, onResult: onResult}
}

// Start registers the pipeline with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(jobCtx context.Context, trigger time.Time) {
		res := s.pipeline.Run(jobCtx, s.query, s.opts)
		s.pipeline.logger.Info("scheduled run finished", "run", res.ID, "trigger", trigger, "status", res.Status)
		if s.onResult != nil {
			s.onResult(trigger, res)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
