package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"timetracker/internal/domain"
)

func TestCache_SaveLoadClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "current.json")
	c, err := NewCache(path)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}

	got, err := c.Load()
	if err != nil || got != nil {
		t.Fatalf("expected empty cache, got %+v, %v", got, err)
	}

	e := &domain.TimeEntry{ID: 1722502800000, Description: "Write report", StartTime: time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)}
	if err := c.Save(e); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err = c.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got == nil || got.ID != e.ID || got.Description != e.Description || !got.StartTime.Equal(e.StartTime) || !got.Running() {
		t.Fatalf("cache mismatch: %+v", got)
	}

	if err := c.Save(nil); err != nil {
		t.Fatalf("Save(nil): %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected cache file removed, stat err=%v", err)
	}
	if err := c.Clear(); err != nil {
		t.Fatalf("Clear on missing file: %v", err)
	}
}

func TestCache_CorruptFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "current.json")
	if err := os.WriteFile(path, []byte("garbage"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	c, err := NewCache(path)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	got, err := c.Load()
	if err != nil || got != nil {
		t.Fatalf("expected nil entry for corrupt cache, got %+v, %v", got, err)
	}
}
