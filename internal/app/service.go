// Package service runs one ingest job: fetch a snapshot, merge it into the
// dataset and announce the change.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alexberlino/atp/internal/adapters/publish"
	"github.com/alexberlino/atp/internal/domain/fetch"
	"github.com/alexberlino/atp/internal/domain/merge"
	"github.com/alexberlino/atp/internal/domain/model"
	"github.com/alexberlino/atp/pkg/logger"
	"github.com/alexberlino/atp/pkg/metrics"
)

// ErrPublish marks a run whose merge succeeded but whose announcement did
// not. The dataset stays committed.
var ErrPublish = errors.New("dataset committed but publish failed")

// Fetcher produces a snapshot.
type Fetcher interface {
	Fetch(ctx context.Context) (model.Snapshot, fetch.Report, error)
}

// Merger commits a snapshot.
type Merger interface {
	Merge(ctx context.Context, snap model.Snapshot) (merge.Result, error)
}

// Report summarizes a run.
type Report struct {
	RunID      string
	Fetch      fetch.Report
	Merge      merge.Result
	Sample     []model.Entry // first entries of the fetched snapshot
	Published  bool
	PublishErr error
	Elapsed    time.Duration
}

// Service implements one ingest run.
type Service struct {
	fetcher     Fetcher
	merger      Merger
	publisher   publish.Publisher
	datasetPath string
	sampleSize  int
	newID       func() string
	logger      logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithPublisher announces committed changes. Without one, nothing is published.
func WithPublisher(p publish.Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithDatasetPath is reported to publishers in the notice.
func WithDatasetPath(p string) Option {
	return func(s *Service) {
		s.datasetPath = p
	}
}

// WithSampleSize sets how many leading entries the report carries.
func WithSampleSize(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.sampleSize = n
		}
	}
}

// WithRunID overrides the run identifier generator.
func WithRunID(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Service from its two mandatory stages.
func New(fetcher Fetcher, merger Merger, opts ...Option) *Service {
	s := &Service{
		fetcher:    fetcher,
		merger:     merger,
		sampleSize: 5,
		newID:      func() string { return uuid.NewString() },
		logger:     logger.Get().Named("service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes fetch, merge and publish once. A fetch or merge failure is
// returned as is and leaves the dataset untouched. A publish failure is
// returned wrapped in ErrPublish together with a complete report.
func (s *Service) Run(ctx context.Context) (Report, error) {
	began := time.Now()
	rep := Report{RunID: s.newID()}
	log := s.logger
	defer func() {
		rep.Elapsed = time.Since(began)
		metrics.RecordRunDuration(rep.Elapsed)
	}()

	log.Info(ctx, "ingest run started", logger.String("run_id", rep.RunID))

	snap, fr, err := s.fetcher.Fetch(ctx)
	rep.Fetch = fr
	if err != nil {
		log.Error(ctx, "ingest run failed while fetching", logger.String("run_id", rep.RunID), logger.Error(err))
		return rep, err
	}
	rep.Sample = snap.Clone().Entries[:min(s.sampleSize, snap.Len())]

	res, err := s.merger.Merge(ctx, snap.Clone())
	rep.Merge = res
	if err != nil {
		log.Error(ctx, "ingest run failed while merging", logger.String("run_id", rep.RunID), logger.Error(err))
		return rep, err
	}
	metrics.UpdateLastSuccess(time.Now())

	if !res.Outcome.Changed() || s.publisher == nil {
		log.Info(ctx, "ingest run finished",
			logger.String("run_id", rep.RunID),
			logger.String("outcome", res.Outcome.String()),
			logger.Int("entries", res.Entries),
		)
		return rep, nil
	}

	notice := publish.Notice{
		RunID:       rep.RunID,
		Outcome:     res.Outcome.String(),
		Entries:     res.Entries,
		UpdatedAt:   res.UpdatedAt,
		DatasetPath: s.datasetPath,
		BackupPath:  res.BackupPath,
	}
	if err := s.publisher.Publish(ctx, notice); err != nil {
		rep.PublishErr = err
		log.Warn(ctx, "dataset committed but publish failed",
			logger.String("run_id", rep.RunID),
			logger.Error(err),
		)
		return rep, fmt.Errorf("%w: %w", ErrPublish, err)
	}
	rep.Published = true

	log.Info(ctx, "ingest run finished",
		logger.String("run_id", rep.RunID),
		logger.String("outcome", res.Outcome.String()),
		logger.Int("entries", res.Entries),
		logger.Bool("published", true),
	)
	return rep, nil
}
