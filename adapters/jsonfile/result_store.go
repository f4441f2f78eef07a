package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gosynergy/domain/analysis"
	"gosynergy/domain/core"
	"gosynergy/ports"
)

const backupSuffix = ".bak"

// ResultStore implements ResultRepository on a directory of JSON files, one
// file per experiment. It is the storage backend when no database is
// configured.
type ResultStore struct {
	dir string
	mu  sync.Mutex
}

// NewResultStore creates the directory if needed and returns the store.
func NewResultStore(dir string) (*ResultStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create result directory: %w", err)
	}
	return &ResultStore{dir: dir}, nil
}

// SaveResult writes the result atomically. An existing file is kept as a
// timestamped backup before being replaced.
func (s *ResultStore) SaveResult(_ context.Context, experimentID core.ExperimentID, result *analysis.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(experimentID)
	data, err := json.MarshalIndent(result.ToMap(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		backup := fmt.Sprintf("%s.%s%s", path, time.Now().Format("20060102_150405"), backupSuffix)
		if err := os.Rename(path, backup); err != nil {
			return fmt.Errorf("failed to back up existing result: %w", err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return os.Rename(tmp, path)
}

// GetResult loads and decodes the stored result for an experiment.
func (s *ResultStore) GetResult(_ context.Context, experimentID core.ExperimentID) (*analysis.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(experimentID))
	if os.IsNotExist(err) {
		return nil, core.ErrExperimentNotFound
	}
	if err != nil {
		return nil, err
	}

	return decode(data)
}

// ListResults returns stored results ordered newest first, optionally limited.
func (s *ResultStore) ListResults(_ context.Context, limit int) ([]*ports.StoredResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	var results []*ports.StoredResult
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			return nil, err
		}
		result, err := decode(data)
		if err != nil {
			// Skip unreadable files rather than failing the whole listing.
			continue
		}
		results = append(results, &ports.StoredResult{
			ExperimentID: core.ExperimentID(strings.TrimSuffix(name, ".json")),
			Result:       result,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Result.CreatedAt.After(results[j].Result.CreatedAt)
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// DeleteResult removes the stored result for an experiment.
func (s *ResultStore) DeleteResult(_ context.Context, experimentID core.ExperimentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(experimentID))
	if os.IsNotExist(err) {
		return core.ErrExperimentNotFound
	}
	return err
}

// PruneBackups deletes backup files older than the retention window.
func (s *ResultStore) PruneBackups(retention time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-retention)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), backupSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.dir, entry.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

func (s *ResultStore) path(experimentID core.ExperimentID) string {
	return filepath.Join(s.dir, experimentID.String()+".json")
}

func decode(data []byte) (*analysis.Result, error) {
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return analysis.FromMap(m)
}

var _ ports.ResultRepository = (*ResultStore)(nil)
