// Package history persists run reports as append-only artifacts and keeps a
// "latest" alias per format.
//
// Layout:
//
//	<dir>/<YYYY-MM-DD>/run-<UTC timestamp>-<short run id>.json
//	<dir>/<YYYY-MM-DD>/run-<UTC timestamp>-<short run id>.txt
//	<dir>/latest.json
//	<dir>/latest.txt
package history

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/acarl005/stripansi"
	"github.com/rs/zerolog"

	"github.com/stolostron/capitest/internal/output"
	"github.com/stolostron/capitest/internal/report"
)

// Artifact formats.
const (
	FormatJSON = "json"
	FormatText = "txt"
)

const (
	dateLayout  = "2006-01-02"
	stampLayout = "20060102T150405.000Z"
	runPrefix   = "run-"
	latestName  = "latest"
)

// PersistenceWarning reports an artifact that could not be written. It never
// changes the outcome of the run.
type PersistenceWarning struct {
	Path string
	Err  error
}

func (w *PersistenceWarning) Error() string {
	return fmt.Sprintf("persist %s: %v", w.Path, w.Err)
}

func (w *PersistenceWarning) Unwrap() error {
	return w.Err
}

// Store is an append-only report store rooted at a directory. A Store holds
// no run state, so several may point at the same directory.
type Store struct {
	dir       string
	tailLines int
	logger    zerolog.Logger
}

// Entry is one persisted run.
type Entry struct {
	Report report.RunReport
	Path   string
}

// NewStore creates a store rooted at dir.
func NewStore(dir string, tailLines int, logger zerolog.Logger) *Store {
	return &Store{dir: dir, tailLines: tailLines, logger: logger}
}

// Dir returns the store root.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes one artifact per format and then repoints the matching latest
// alias. It returns the paths written; every failure is reported as a
// PersistenceWarning joined into the returned error.
func (s *Store) Save(run report.RunReport, formats []string) ([]string, error) {
	var (
		written []string
		errs    []error
	)
	for _, format := range formats {
		data, err := s.render(run, format)
		if err != nil {
			errs = append(errs, &PersistenceWarning{Path: s.artifactPath(run, format), Err: err})
			continue
		}

		path := s.artifactPath(run, format)
		if err := writeExclusive(path, data); err != nil {
			errs = append(errs, &PersistenceWarning{Path: path, Err: err})
			continue
		}
		written = append(written, path)

		latest := s.LatestPath(format)
		if err := writeAtomic(latest, data); err != nil {
			errs = append(errs, &PersistenceWarning{Path: latest, Err: err})
			continue
		}
		s.logger.Debug().Str("path", path).Str("latest", latest).Msg("Saved run report")
	}
	return written, errors.Join(errs...)
}

// LatestPath returns the alias that always holds the most recent artifact of
// the given format.
func (s *Store) LatestPath(format string) string {
	return filepath.Join(s.dir, latestName+"."+format)
}

func (s *Store) artifactPath(run report.RunReport, format string) string {
	start := run.StartTime.UTC()
	name := fmt.Sprintf("%s%s-%s.%s", runPrefix, start.Format(stampLayout), shortID(run.RunID), format)
	return filepath.Join(s.dir, start.Format(dateLayout), name)
}

func (s *Store) render(run report.RunReport, format string) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatJSON:
		if err := output.NewJSON(&buf).Render(run); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatText:
		pretty := output.NewPretty(&buf)
		if s.tailLines > 0 {
			pretty.TailLines = s.tailLines
		}
		if err := pretty.RenderReport(run); err != nil {
			return nil, err
		}
		return []byte(stripansi.Strip(buf.String())), nil
	default:
		return nil, fmt.Errorf("unknown artifact format %q", format)
	}
}

// List returns persisted runs, newest first. Unreadable artifacts are logged
// and skipped; a missing store directory yields no entries.
func (s *Store) List() ([]Entry, error) {
	var entries []Entry

	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == s.dir {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if !strings.HasPrefix(name, runPrefix) || filepath.Ext(name) != "."+FormatJSON {
			return nil
		}

		run, err := parseReport(path)
		if err != nil {
			s.logger.Warn().Err(err).Str("path", path).Msg("Failed to parse run report")
			return nil
		}
		entries = append(entries, Entry{Report: run, Path: path})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk history directory %q: %w", s.dir, err)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].Report.StartTime, entries[j].Report.StartTime
		if a.Equal(b) {
			return entries[i].Path > entries[j].Path
		}
		return a.After(b)
	})
	return entries, nil
}

func parseReport(path string) (report.RunReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return report.RunReport{}, err
	}
	var run report.RunReport
	if err := json.Unmarshal(data, &run); err != nil {
		return report.RunReport{}, err
	}
	run.Duration = run.EndTime.Sub(run.StartTime)
	return run, nil
}

func shortID(id string) string {
	id = strings.ReplaceAll(id, "-", "")
	if len(id) > 8 {
		return id[:8]
	}
	if id == "" {
		return "norunid"
	}
	return id
}
