package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"timetracker/internal/domain"
)

// Client talks to the entries API exposed by timetracker-server.
type Client struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

// APIError is returned for any non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: unexpected status %d", e.Status)
	}
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

// Unwrap maps 404 onto domain.ErrNotFound.
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return domain.ErrNotFound
	}
	return nil
}

// NewClient returns a client for baseURL (including the /api prefix).
func NewClient(baseURL string, log *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:3001/api"
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
	}
}

// ListEntries fetches the full entry snapshot.
// GET /entries
func (c *Client) ListEntries(ctx context.Context) ([]domain.TimeEntry, error) {
	var out []domain.TimeEntry
	if err := c.do(ctx, http.MethodGet, "/entries", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.TimeEntry{}
	}
	return toLocal(out), nil
}

// CreateEntry starts a new entry; the server assigns the id.
// POST /entries
func (c *Client) CreateEntry(ctx context.Context, e domain.TimeEntry) (domain.TimeEntry, error) {
	var out domain.TimeEntry
	if err := c.do(ctx, http.MethodPost, "/entries", e, &out); err != nil {
		return domain.TimeEntry{}, err
	}
	return toLocal([]domain.TimeEntry{out})[0], nil
}

// UpdateEntry sends the full entry as the update body.
// PUT /entries/{id}
func (c *Client) UpdateEntry(ctx context.Context, e domain.TimeEntry) (domain.TimeEntry, error) {
	var out domain.TimeEntry
	path := "/entries/" + strconv.FormatInt(e.ID, 10)
	if err := c.do(ctx, http.MethodPut, path, e, &out); err != nil {
		return domain.TimeEntry{}, err
	}
	return toLocal([]domain.TimeEntry{out})[0], nil
}

func (c *Client) do(ctx context.Context, method, path string, body, dst any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	c.log.Debug("api call",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("dur", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		apiErr := &APIError{Status: resp.StatusCode}
		var msg struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &msg) == nil && msg.Error != "" {
			apiErr.Message = msg.Error
		} else {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return apiErr
	}
	if dst == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("api: decode %s %s: %w", method, path, err)
	}
	return nil
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}

// toLocal converts wire timestamps to the local zone for display.
func toLocal(entries []domain.TimeEntry) []domain.TimeEntry {
	for i := range entries {
		entries[i].StartTime = entries[i].StartTime.Local()
		if entries[i].EndTime != nil {
			end := entries[i].EndTime.Local()
			entries[i].EndTime = &end
		}
	}
	return entries
}
