package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound = errors.New("entry not found")
	ErrInvalid  = errors.New("invalid entry")
)

// TimeEntry is a single timed task record. EndTime is nil while the timer runs.
type TimeEntry struct {
	ID          int64      `json:"id"`
	Description string     `json:"description"`
	StartTime   time.Time  `json:"startTime"`
	EndTime     *time.Time `json:"endTime"`
	Duration    float64    `json:"duration"` // seconds; 0 while running
}

// Running reports whether the entry has no end time yet.
func (e TimeEntry) Running() bool { return e.EndTime == nil }

// Validate checks the shape invariants that every stored entry satisfies.
func (e TimeEntry) Validate() error {
	if strings.TrimSpace(e.Description) == "" {
		return fmt.Errorf("%w: description is required", ErrInvalid)
	}
	if e.StartTime.IsZero() {
		return fmt.Errorf("%w: startTime is required", ErrInvalid)
	}
	if e.EndTime != nil && e.EndTime.Before(e.StartTime) {
		return fmt.Errorf("%w: endTime before startTime", ErrInvalid)
	}
	return nil
}

// Normalize derives Duration from the timestamps.
func (e TimeEntry) Normalize() TimeEntry {
	if e.EndTime == nil {
		e.Duration = 0
		return e
	}
	e.Duration = e.EndTime.Sub(e.StartTime).Seconds()
	return e
}

// Patch carries the fields of an update body. Nil pointers leave the stored
// value alone; EndTimeSet distinguishes an explicit null from an absent key.
type Patch struct {
	Description *string
	StartTime   *time.Time
	EndTimeSet  bool
	EndTime     *time.Time
}

// Apply merges p over e and returns the normalized, validated result.
func (p Patch) Apply(e TimeEntry) (TimeEntry, error) {
	if p.Description != nil {
		e.Description = strings.TrimSpace(*p.Description)
	}
	if p.StartTime != nil {
		e.StartTime = *p.StartTime
	}
	if p.EndTimeSet {
		if p.EndTime == nil {
			e.EndTime = nil
		} else {
			end := *p.EndTime
			e.EndTime = &end
		}
	}
	e = e.Normalize()
	if err := e.Validate(); err != nil {
		return TimeEntry{}, err
	}
	return e, nil
}
