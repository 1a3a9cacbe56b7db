package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"timetracker/internal/domain"
)

// Cache mirrors the client's running entry to a file so a restart can pick
// the timer up again. It is a convenience copy; the server stays authoritative.
type Cache struct {
	path string
}

func NewCache(path string) (*Cache, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("session: path is required")
	}
	return &Cache{path: path}, nil
}

// Load returns the cached entry, or nil when nothing is cached.
// A corrupt cache file is treated as empty.
func (c *Cache) Load() (*domain.TimeEntry, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("session: read: %w", err)
	}
	var e domain.TimeEntry
	if err := json.Unmarshal(data, &e); err != nil || e.ID == 0 {
		return nil, nil
	}
	return &e, nil
}

// Save writes e, or removes the cache file when e is nil.
func (c *Cache) Save(e *domain.TimeEntry) error {
	if e == nil {
		return c.Clear()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("session: mkdir: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("session: write: %w", err)
	}
	return os.Rename(tmp, c.path)
}

func (c *Cache) Clear() error {
	if err := os.Remove(c.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("session: clear: %w", err)
	}
	return nil
}
