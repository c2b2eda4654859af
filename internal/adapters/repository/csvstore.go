package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/alexberlino/atp/internal/domain/model"
	"github.com/alexberlino/atp/internal/domain/rows"
	"github.com/alexberlino/atp/pkg/logger"
)

// Header is the first line of every dataset file.
var Header = []string{"Rank", "Player Name", "Age", "Country", "Points", "Change"}

const backupDateLayout = time.DateOnly

// CSVStore keeps the dataset as a CSV file on local disk. Writes go to a
// temporary file in the target directory that is synced and then renamed
// over the destination, so readers see either the old or the new table.
type CSVStore struct {
	path            string
	backupDir       string
	archiveDir      string
	timestampPath   string
	timestampLayout string
	fileMode        os.FileMode
	loc             *time.Location
	log             logger.Logger
}

// NewCSVStore creates a store for the dataset at path.
func NewCSVStore(path string, opts ...Option) *CSVStore {
	dir := filepath.Dir(path)
	s := &CSVStore{
		path:            path,
		backupDir:       dir,
		timestampPath:   filepath.Join(dir, "last_updated.txt"),
		timestampLayout: time.DateTime,
		fileMode:        0o644,
		loc:             time.Local,
		log:             logger.Get().Named("repository"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the dataset file path.
func (s *CSVStore) Path() string { return s.path }

// Load reads the dataset. A missing file is not an error.
func (s *CSVStore) Load(ctx context.Context) ([]model.Entry, bool, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("open dataset: %w", err)
	}
	defer func() { _ = f.Close() }()

	entries, err := decodeEntries(f)
	if err != nil {
		return nil, true, fmt.Errorf("read %s: %w", s.path, err)
	}
	s.log.Debug(ctx, "dataset loaded", logger.String("path", s.path), logger.Int("entries", len(entries)))
	return entries, true, nil
}

// Backup copies the current dataset to <backup_dir>/<name>_<YYYY-MM-DD><ext>.
func (s *CSVStore) Backup(ctx context.Context, day time.Time) (string, error) {
	src, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoDataset
	}
	if err != nil {
		return "", fmt.Errorf("open dataset: %w", err)
	}
	defer func() { _ = src.Close() }()

	dst := datedPath(s.backupDir, s.path, day.In(s.loc))
	if err := writeFileAtomic(dst, s.fileMode, func(w io.Writer) error {
		_, err := io.Copy(w, src)
		return err
	}); err != nil {
		return "", fmt.Errorf("backup to %s: %w", dst, err)
	}
	s.log.Info(ctx, "dataset backed up", logger.String("backup", dst))
	return dst, nil
}

// Replace writes entries as the new dataset.
func (s *CSVStore) Replace(ctx context.Context, entries []model.Entry) error {
	if err := writeFileAtomic(s.path, s.fileMode, func(w io.Writer) error {
		return encodeEntries(w, entries)
	}); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	s.log.Debug(ctx, "dataset replaced", logger.String("path", s.path), logger.Int("entries", len(entries)))
	return nil
}

// Archive writes entries to <archive_dir>/<name>_<YYYY-MM-DD><ext>. It is a
// no-op returning "" when no archive directory is configured.
func (s *CSVStore) Archive(ctx context.Context, entries []model.Entry, day time.Time) (string, error) {
	if s.archiveDir == "" {
		return "", nil
	}
	dst := datedPath(s.archiveDir, s.path, day.In(s.loc))
	if err := writeFileAtomic(dst, s.fileMode, func(w io.Writer) error {
		return encodeEntries(w, entries)
	}); err != nil {
		return "", fmt.Errorf("archive to %s: %w", dst, err)
	}
	s.log.Debug(ctx, "snapshot archived", logger.String("archive", dst))
	return dst, nil
}

// WriteTimestamp stores at in the configured layout.
func (s *CSVStore) WriteTimestamp(_ context.Context, at time.Time) error {
	line := at.In(s.loc).Format(s.timestampLayout) + "\n"
	if err := writeFileAtomic(s.timestampPath, s.fileMode, func(w io.Writer) error {
		_, err := io.WriteString(w, line)
		return err
	}); err != nil {
		return fmt.Errorf("write timestamp: %w", err)
	}
	return nil
}

// ReadTimestamp parses the last-updated record. Both the date-time and the
// date-only layouts are accepted.
func (s *CSVStore) ReadTimestamp(_ context.Context) (time.Time, bool, error) {
	raw, err := os.ReadFile(s.timestampPath)
	if errors.Is(err, os.ErrNotExist) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read timestamp: %w", err)
	}
	text := strings.TrimSpace(string(raw))
	for _, layout := range []string{s.timestampLayout, time.DateTime, time.DateOnly} {
		if t, err := time.ParseInLocation(layout, text, s.loc); err == nil {
			return t, true, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("%w: timestamp %q", ErrCorrupt, text)
}

func datedPath(dir, dataset string, day time.Time) string {
	base := filepath.Base(dataset)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	return filepath.Join(dir, fmt.Sprintf("%s_%s%s", name, day.Format(backupDateLayout), ext))
}

func encodeEntries(w io.Writer, entries []model.Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	rec := make([]string, len(Header))
	for _, e := range entries {
		rec[0] = strconv.Itoa(e.Rank)
		rec[1] = e.Name
		rec[2] = strconv.Itoa(e.Age)
		rec[3] = e.Country
		rec[4] = strconv.Itoa(e.Points)
		rec[5] = ""
		if e.Change != nil {
			rec[5] = fmt.Sprintf("%+d", *e.Change)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func decodeEntries(r io.Reader) ([]model.Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty file", ErrBadHeader)
	}
	if err != nil {
		return nil, err
	}
	head[0] = strings.TrimPrefix(head[0], "\ufeff")
	for i := range Header {
		if strings.TrimSpace(head[i]) != Header[i] {
			return nil, fmt.Errorf("%w: column %d is %q", ErrBadHeader, i, head[i])
		}
	}

	var entries []model.Entry
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return nil, err
		}
		e, err := decodeRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrCorrupt, line, err)
		}
		entries = append(entries, e)
	}
}

func decodeRecord(rec []string) (model.Entry, error) {
	var e model.Entry
	var err error
	if e.Rank, err = strconv.Atoi(rec[0]); err != nil {
		return e, err
	}
	e.Name = rec[1]
	if e.Age, err = strconv.Atoi(rec[2]); err != nil {
		return e, err
	}
	e.Country = rec[3]
	// Older datasets kept the page's formatting, e.g. "11,830".
	points, ok := rows.ParsePoints(rec[4])
	if !ok {
		return e, fmt.Errorf("points %q is not a number", rec[4])
	}
	e.Points = points
	if c := strings.TrimSpace(rec[5]); c != "" {
		v, err := strconv.Atoi(c)
		if err != nil {
			return e, err
		}
		e.Change = &v
	}
	return e, nil
}

// writeFileAtomic writes through fill into a temporary sibling of path,
// syncs it and renames it into place. The temporary file is removed on any
// failure, leaving path untouched.
func writeFileAtomic(path string, mode os.FileMode, fill func(io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = fill(tmp); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Chmod(mode); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return err
	}
	syncDir(dir)
	return nil
}

// syncDir makes the rename durable where the platform allows it.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
