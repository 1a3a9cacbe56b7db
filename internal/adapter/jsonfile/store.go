package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"timetracker/internal/domain"
)

// Store implements ports.EntryStore on a single JSON document holding the
// full entry array. Every call reads the whole document and writes it back.
type Store struct {
	path string
	log  *slog.Logger
	mu   sync.Mutex
}

func NewStore(path string, log *slog.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("jsonfile: path is required")
	}
	return &Store{path: path, log: log}, nil
}

// Path returns the backing file location.
func (s *Store) Path() string { return s.path }

func (s *Store) List(ctx context.Context) ([]domain.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *Store) Append(ctx context.Context, entry domain.TimeEntry) (domain.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return domain.TimeEntry{}, err
	}
	entries = append(entries, entry)
	if err := s.write(entries); err != nil {
		return domain.TimeEntry{}, err
	}
	s.log.Debug("jsonfile appended entry", slog.Int64("id", entry.ID), slog.Int("count", len(entries)))
	return entry, nil
}

func (s *Store) Replace(ctx context.Context, id int64, patch domain.Patch) (domain.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return domain.TimeEntry{}, err
	}
	idx := -1
	for i, e := range entries {
		if e.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return domain.TimeEntry{}, domain.ErrNotFound
	}
	updated, err := patch.Apply(entries[idx])
	if err != nil {
		return domain.TimeEntry{}, err
	}
	entries[idx] = updated
	if err := s.write(entries); err != nil {
		return domain.TimeEntry{}, err
	}
	s.log.Debug("jsonfile replaced entry", slog.Int64("id", id))
	return updated, nil
}

// read loads the document, creating it as an empty array when missing.
func (s *Store) read() ([]domain.TimeEntry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err := s.write([]domain.TimeEntry{}); err != nil {
				return nil, err
			}
			return []domain.TimeEntry{}, nil
		}
		return nil, fmt.Errorf("jsonfile: read %s: %w", s.path, err)
	}
	entries := []domain.TimeEntry{}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("jsonfile: parse %s: %w", s.path, err)
	}
	if entries == nil {
		entries = []domain.TimeEntry{}
	}
	return entries, nil
}

func (s *Store) write(entries []domain.TimeEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("jsonfile: marshal: %w", err)
	}
	if err := writeFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("jsonfile: write %s: %w", s.path, err)
	}
	return nil
}

// writeFileAtomic replaces path via temp file + fsync + rename.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return nil
}
