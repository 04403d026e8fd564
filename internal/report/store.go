package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Store persists finalized reports as JSON files under a data directory,
// one file per report, named <startedAt>-<id>.json.
type Store struct {
	dir string
}

// NewStore creates the data directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating report dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the store's data directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(r *RunReport) string {
	name := fmt.Sprintf("%s-%s.json", r.StartedAt.Format("20060102-150405"), r.ID)
	return filepath.Join(s.dir, name)
}

// Save writes a terminal report. Non-terminal reports are refused: the
// store only ever holds finalized records.
func (s *Store) Save(r *RunReport) error {
	if !r.Terminal() {
		return fmt.Errorf("report %s is not terminal (%s)", r.ID, r.Status)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report %s: %w", r.ID, err)
	}
	return os.WriteFile(s.path(r), data, 0o600)
}

// Load reads one report file by path.
func (s *Store) Load(path string) (*RunReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r RunReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &r, nil
}

// List returns all saved reports, newest first.
func (s *Store) List() ([]*RunReport, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var reports []*RunReport
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		r, err := s.Load(filepath.Join(s.dir, e.Name()))
		if err != nil {
			continue // skip unreadable files, they are not ours to repair
		}
		reports = append(reports, r)
	}
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].StartedAt.After(reports[j].StartedAt)
	})
	return reports, nil
}

// Find returns the saved report whose id has the given prefix.
func (s *Store) Find(idPrefix string) (*RunReport, error) {
	reports, err := s.List()
	if err != nil {
		return nil, err
	}
	for _, r := range reports {
		if strings.HasPrefix(r.ID, idPrefix) {
			return r, nil
		}
	}
	return nil, fmt.Errorf("no report matching %q", idPrefix)
}

// Watch emits each newly written report until ctx is done. Another
// process (or another run in this one) may save reports concurrently;
// watching lets a reports view pick them up live.
func (s *Store) Watch(ctx context.Context, onReport func(*RunReport)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(s.dir); err != nil {
		return fmt.Errorf("watching %s: %w", s.dir, err)
	}

	// Writes arrive in bursts; debounce per path.
	pending := make(map[string]time.Time)
	tick := time.NewTicker(200 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(ev.Name, ".json") {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				pending[ev.Name] = time.Now()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch error: %w", err)
		case now := <-tick.C:
			for path, at := range pending {
				if now.Sub(at) < 150*time.Millisecond {
					continue
				}
				delete(pending, path)
				if r, err := s.Load(path); err == nil {
					onReport(r)
				}
			}
		}
	}
}
