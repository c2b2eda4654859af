package publish

import (
	"context"
	"errors"
	"io"

	"github.com/alexberlino/atp/internal/config"
)

// FromConfig builds every publisher enabled in cfg. The returned closer
// releases client connections.
func FromConfig(ctx context.Context, cfg config.Publish, datasetPath string, source EntrySource) (*Multi, func() error, error) {
	var (
		pubs    []Publisher
		closers []io.Closer
	)
	closeAll := func() error {
		var errs []error
		for _, c := range closers {
			errs = append(errs, c.Close())
		}
		return errors.Join(errs...)
	}

	if cfg.Git.Enabled {
		paths := cfg.Git.Paths
		if len(paths) == 0 {
			paths = []string{datasetPath}
		}
		pubs = append(pubs, NewGit(cfg.Git.RepoDir, cfg.Git.Remote, cfg.Git.Branch, paths,
			WithAuthor(cfg.Git.AuthorName, cfg.Git.AuthorEmail),
			WithToken(cfg.Git.Token),
		))
	}
	if cfg.S3.Bucket != "" {
		w, err := NewS3Writer(ctx, cfg.S3.Bucket, cfg.S3.Region)
		if err != nil {
			return nil, closeAll, err
		}
		closers = append(closers, w)
		pubs = append(pubs, NewObject("s3", w, cfg.S3.Prefix))
	}
	if cfg.GCS.Bucket != "" {
		w, err := NewGCSWriter(ctx, cfg.GCS.Bucket)
		if err != nil {
			return nil, closeAll, err
		}
		closers = append(closers, w)
		pubs = append(pubs, NewObject("gcs", w, cfg.GCS.Prefix))
	}
	if cfg.Slack.Token != "" {
		pubs = append(pubs, NewSlack(cfg.Slack.Token, cfg.Slack.Channel, cfg.Slack.APIURL))
	}
	if cfg.Redis.Addr != "" {
		r := NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Channel)
		closers = append(closers, r)
		pubs = append(pubs, r)
	}
	if cfg.Postgres.DSN != "" {
		p, err := NewPostgres(ctx, cfg.Postgres.DSN, cfg.Postgres.Table, source)
		if err != nil {
			return nil, closeAll, err
		}
		closers = append(closers, p)
		pubs = append(pubs, p)
	}

	return NewMulti(pubs...), closeAll, nil
}
