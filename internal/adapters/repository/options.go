package repository

import (
	"os"
	"time"

	"github.com/alexberlino/atp/pkg/logger"
)

// Option applies a configuration option to the CSVStore.
type Option func(*CSVStore)

// WithBackupDir sets where dated backups go. Defaults to the dataset's directory.
func WithBackupDir(dir string) Option {
	return func(s *CSVStore) {
		if dir != "" {
			s.backupDir = dir
		}
	}
}

// WithArchiveDir enables dated copies of each merged table.
func WithArchiveDir(dir string) Option {
	return func(s *CSVStore) {
		s.archiveDir = dir
	}
}

// WithTimestampFile sets the last-updated record path.
func WithTimestampFile(path string) Option {
	return func(s *CSVStore) {
		if path != "" {
			s.timestampPath = path
		}
	}
}

// WithTimestampLayout sets the Go time layout of the last-updated record.
func WithTimestampLayout(layout string) Option {
	return func(s *CSVStore) {
		if layout != "" {
			s.timestampLayout = layout
		}
	}
}

// WithFileMode sets the permission bits for written files.
func WithFileMode(mode os.FileMode) Option {
	return func(s *CSVStore) {
		if mode != 0 {
			s.fileMode = mode
		}
	}
}

// WithLocation sets the zone used to render and parse timestamps.
func WithLocation(loc *time.Location) Option {
	return func(s *CSVStore) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithLogger sets the store's logger.
func WithLogger(l logger.Logger) Option {
	return func(s *CSVStore) {
		if l != nil {
			s.log = l
		}
	}
}
