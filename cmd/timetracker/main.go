package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"timetracker/internal/client"
	"timetracker/internal/config"
	"timetracker/internal/session"
	"timetracker/internal/tui"
)

func main() {
	// Flags
	apiURL := flag.String("api", "", "API base URL (overrides API_URL)")
	verbose := flag.Bool("v", false, "Enable verbose logging")
	flag.Parse()

	// Config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *apiURL != "" {
		cfg.Client.APIURL = *apiURL
	}

	// Logger; the terminal belongs to the UI, so logs go to a file or nowhere.
	var out io.Writer = io.Discard
	if cfg.Client.LogFile != "" {
		f, err := os.OpenFile(cfg.Client.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cache, err := session.NewCache(cfg.Client.SessionFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open session cache: %v\n", err)
		os.Exit(1)
	}

	api := client.NewClient(cfg.Client.APIURL, logger)
	model := tui.NewModel(api, cache, logger)

	logger.Info("client starting", slog.String("api", cfg.Client.APIURL))
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		logger.Error("ui failed", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
