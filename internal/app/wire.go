package service

import (
	"context"
	"fmt"

	"github.com/alexberlino/atp/internal/adapters/publish"
	"github.com/alexberlino/atp/internal/adapters/repository"
	"github.com/alexberlino/atp/internal/adapters/source"
	"github.com/alexberlino/atp/internal/config"
	"github.com/alexberlino/atp/internal/domain/fetch"
	"github.com/alexberlino/atp/internal/domain/merge"
	"github.com/alexberlino/atp/internal/domain/rows"
	"github.com/alexberlino/atp/internal/domain/snapshot"
)

var (
	_ merge.Store    = (*repository.CSVStore)(nil)
	_ merge.Archiver = (*repository.CSVStore)(nil)
)

// NewStore builds the CSV dataset store described by cfg.
func NewStore(cfg config.Dataset) *repository.CSVStore {
	return repository.NewCSVStore(cfg.Path,
		repository.WithBackupDir(cfg.BackupDir),
		repository.WithArchiveDir(cfg.ArchiveDir),
		repository.WithTimestampFile(cfg.LastUpdatedPath),
		repository.WithTimestampLayout(cfg.TimestampLayout()),
	)
}

// FromConfig wires every stage from cfg. The returned closer releases
// publisher connections.
func FromConfig(ctx context.Context, cfg *config.Config, opts ...Option) (*Service, func() error, error) {
	loader, err := source.New(cfg.Source)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}

	builder := snapshot.NewBuilder(
		snapshot.WithMaxConsecutiveInvalid(cfg.Rows.MaxConsecutiveInvalid),
		snapshot.WithRowOptions(rows.WithMaxAge(cfg.Rows.MaxAge)),
		snapshot.WithSource(cfg.Source.URL),
	)
	orch := fetch.NewOrchestrator(loader, builder, cfg.Source.URL,
		fetch.WithMaxAttempts(cfg.Fetch.MaxAttempts),
		fetch.WithDelays(cfg.Fetch.BaseDelay, cfg.Fetch.MaxDelay),
		fetch.WithAttemptTimeout(cfg.Fetch.AttemptTimeout),
	)

	store := NewStore(cfg.Dataset)
	mergeOpts := []merge.Option{}
	if cfg.Dataset.ArchiveDir != "" {
		mergeOpts = append(mergeOpts, merge.WithArchiver(store))
	}
	merger := merge.NewMerger(store, mergeOpts...)

	pubs, closer, err := publish.FromConfig(ctx, cfg.Publish, cfg.Dataset.Path, store)
	if err != nil {
		_ = closer()
		return nil, nil, err
	}

	base := []Option{WithDatasetPath(cfg.Dataset.Path)}
	if pubs.Len() > 0 {
		base = append(base, WithPublisher(pubs))
	}
	return New(orch, merger, append(base, opts...)...), closer, nil
}
