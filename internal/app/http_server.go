package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"timetracker/internal/domain"
	"timetracker/internal/usecase"
)

const maxBodyBytes = 1 << 20

type requestIDKey struct{}

// HTTPServer returns a configured http.Server exposing the entries API.
// Call ListenAndServe on the returned server in a goroutine and Shutdown it on exit.
func (a *App) HTTPServer(addr string) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	a.log.Info("http server configured", slog.String("addr", addr))
	return srv
}

// Handler returns the full middleware-wrapped API handler.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET /api/entries", a.listEntries)
	mux.HandleFunc("POST /api/entries", a.createEntry)
	mux.HandleFunc("PUT /api/entries/{id}", a.updateEntry)

	return requestIDMiddleware(loggingMiddleware(a.log, corsMiddleware(a.corsOrigin, mux)))
}

func (a *App) listEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := a.uc.List(r.Context())
	if err != nil {
		a.serverError(r, err, "Error reading entries")
		writeError(w, http.StatusInternalServerError, "Error reading entries")
		return
	}
	if entries == nil {
		entries = []domain.TimeEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// createBody is the accepted POST shape; id and duration are ignored.
type createBody struct {
	Description string     `json:"description"`
	StartTime   *time.Time `json:"startTime"`
	EndTime     *time.Time `json:"endTime"`
}

func (a *App) createEntry(w http.ResponseWriter, r *http.Request) {
	var body createBody
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	entry, err := a.uc.Create(r.Context(), usecase.NewEntry{
		Description: body.Description,
		StartTime:   body.StartTime,
		EndTime:     body.EndTime,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalid) {
			writeError(w, http.StatusBadRequest, "Invalid entry")
			return
		}
		a.serverError(r, err, "Error creating entry")
		writeError(w, http.StatusInternalServerError, "Error creating entry")
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (a *App) updateEntry(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid entry id")
		return
	}
	patch, err := decodePatch(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	entry, err := a.uc.Update(r.Context(), id, patch)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, entry)
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Entry not found")
	case errors.Is(err, domain.ErrInvalid):
		writeError(w, http.StatusBadRequest, "Invalid entry")
	default:
		a.serverError(r, err, "Error updating entry")
		writeError(w, http.StatusInternalServerError, "Error updating entry")
	}
}

// decodePatch reads a partial entry. Keys that are absent leave the stored
// field alone; "endTime": null re-opens the entry. id and duration are ignored.
func decodePatch(r io.Reader) (domain.Patch, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return domain.Patch{}, err
	}
	var p domain.Patch
	if v, ok := raw["description"]; ok && !isNull(v) {
		var d string
		if err := json.Unmarshal(v, &d); err != nil {
			return domain.Patch{}, err
		}
		p.Description = &d
	}
	if v, ok := raw["startTime"]; ok && !isNull(v) {
		var t time.Time
		if err := json.Unmarshal(v, &t); err != nil {
			return domain.Patch{}, err
		}
		p.StartTime = &t
	}
	if v, ok := raw["endTime"]; ok {
		p.EndTimeSet = true
		if !isNull(v) {
			var t time.Time
			if err := json.Unmarshal(v, &t); err != nil {
				return domain.Patch{}, err
			}
			p.EndTime = &t
		}
	}
	return p, nil
}

func isNull(v json.RawMessage) bool { return string(v) == "null" }

func (a *App) serverError(r *http.Request, err error, msg string) {
	a.log.Error(msg,
		slog.String("error", err.Error()),
		slog.String("request_id", requestID(r.Context())),
	)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// corsMiddleware allows the configured origin and answers preflight requests.
func corsMiddleware(origin string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware provides basic request logging.
func loggingMiddleware(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Info("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.String("remote", r.RemoteAddr),
			slog.String("request_id", requestID(r.Context())),
			slog.Duration("dur", time.Since(start)),
		)
	})
}
