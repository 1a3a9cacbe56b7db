package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"timetracker/internal/adapter/jsonfile"
	msql "timetracker/internal/adapter/mysql"
	"timetracker/internal/adapter/sqlite"
	"timetracker/internal/config"
	"timetracker/internal/migrate"
	"timetracker/internal/ports"
	"timetracker/internal/usecase"
)

// App wires the configured entry store to the entry use case.
type App struct {
	log        *slog.Logger
	uc         *usecase.EntryService
	corsOrigin string
	closer     io.Closer
}

func New(ctx context.Context, log *slog.Logger, cfg config.Config) (*App, error) {
	store, closer, err := openStore(ctx, log, cfg)
	if err != nil {
		return nil, err
	}
	log.Info("entry store ready", slog.String("driver", cfg.Store.Driver))
	return NewWithStore(log, store, cfg.Server.CORSOrigin, closer), nil
}

// NewWithStore builds an App around an already opened store. closer may be nil.
func NewWithStore(log *slog.Logger, store ports.EntryStore, corsOrigin string, closer io.Closer) *App {
	if corsOrigin == "" {
		corsOrigin = "*"
	}
	uc := &usecase.EntryService{
		Log:   log,
		Store: store,
	}
	return &App{log: log, uc: uc, corsOrigin: corsOrigin, closer: closer}
}

// Close releases the store's resources, if any.
func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

func openStore(ctx context.Context, log *slog.Logger, cfg config.Config) (ports.EntryStore, io.Closer, error) {
	switch cfg.Store.Driver {
	case config.DriverJSON:
		s, err := jsonfile.NewStore(cfg.Store.DataFile, log)
		if err != nil {
			return nil, nil, err
		}
		return s, nil, nil
	case config.DriverSQLite:
		s, err := sqlite.NewStore(ctx, cfg.Store.SQLitePath, log)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		return s, s, nil
	case config.DriverMySQL:
		db, err := msql.Open(ctx, cfg.MySQL.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open mysql: %w", err)
		}
		// Run migrations before handing the store out
		if err := migrate.Run(ctx, db, log); err != nil {
			db.Close()
			return nil, nil, err
		}
		s := msql.NewStore(db, log)
		return s, s, nil
	}
	return nil, nil, errors.New("unknown store driver: " + cfg.Store.Driver)
}
