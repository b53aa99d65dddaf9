package main

import (
	"context"
	"fmt"
	"os"

	"github.com/tatianab/tribute-sim/internal/author"
	"github.com/tatianab/tribute-sim/internal/config"
	"github.com/tatianab/tribute-sim/internal/content"
	"github.com/tatianab/tribute-sim/internal/logger"
	"github.com/tatianab/tribute-sim/internal/models"
	"github.com/tatianab/tribute-sim/internal/stats"
	"github.com/tatianab/tribute-sim/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	models.SaveDir = cfg.SaveDir
	if err := os.MkdirAll(cfg.SaveDir, 0755); err != nil {
		return err
	}

	log, closer, err := logger.SetupFile(cfg.SaveDir+"/console.log", cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer closer.Close()

	lib, err := loadLibrary(cfg.ContentPath)
	if err != nil {
		return fmt.Errorf("loading content: %w", err)
	}

	st, err := stats.Open(cfg.DBPath, log)
	if err != nil {
		return fmt.Errorf("opening stats: %w", err)
	}
	defer st.Close()

	opts := tui.Options{
		Library:    lib,
		Stats:      st,
		EventDelay: cfg.EventDelay,
		PhaseDelay: cfg.PhaseDelay,
		MinPlayers: cfg.MinPlayers,
		Seed:       cfg.Seed,
		HasSeed:    cfg.HasSeed,
		Log:        log,
	}
	if cfg.GeminiAPIKey != "" {
		a, err := author.NewAuthor(ctx, cfg.GeminiAPIKey, log)
		if err != nil {
			return fmt.Errorf("creating author: %w", err)
		}
		defer a.Close()
		opts.Author = a
	} else {
		log.Info().Msg("GEMINI_API_KEY not set; theme drafting disabled")
	}

	if err := tui.Run(opts); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

func loadLibrary(path string) (*content.Library, error) {
	if path == "" {
		return content.Default()
	}
	return content.Load(path)
}
