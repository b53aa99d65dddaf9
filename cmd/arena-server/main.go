// Command arena-server runs games on a schedule with synthetic entrants and
// streams them to spectators.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/tatianab/tribute-sim/internal/config"
	"github.com/tatianab/tribute-sim/internal/content"
	"github.com/tatianab/tribute-sim/internal/engine"
	"github.com/tatianab/tribute-sim/internal/logger"
	"github.com/tatianab/tribute-sim/internal/models"
	"github.com/tatianab/tribute-sim/internal/runner"
	"github.com/tatianab/tribute-sim/internal/spectate"
	"github.com/tatianab/tribute-sim/internal/stats"
)

func main() {
	players := flag.Int("players", 12, "synthetic entrants per game")
	once := flag.Bool("once", false, "run a single game and exit")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Setup("info").Fatal().Err(err).Msg("failed to load config")
	}
	log := logger.Setup(cfg.LogLevel)
	models.SaveDir = cfg.SaveDir
	gin.SetMode(gin.ReleaseMode)

	lib := content.Default
	if cfg.ContentPath != "" {
		lib = func() (*content.Library, error) { return content.Load(cfg.ContentPath) }
	}
	library, err := lib()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load content")
	}

	st, err := stats.Open(cfg.DBPath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open stats database")
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := spectate.NewHub(log)
	go hub.Run(ctx)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           spectate.NewRouter(hub, st),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("spectator server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("spectator server failed")
			stop()
		}
	}()

	seed := time.Now().UnixNano()
	if cfg.HasSeed {
		seed = cfg.Seed
	}
	for game := int64(0); ctx.Err() == nil; game++ {
		if err := playOne(ctx, cfg, library, hub, st, *players, seed+game, log); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("game failed")
		}
		if *once {
			break
		}
		select {
		case <-ctx.Done():
		case <-time.After(cfg.GameInterval):
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	log.Info().Msg("arena server stopped")
}

func playOne(ctx context.Context, cfg *config.Config, lib *content.Library, hub *spectate.Hub, st *stats.Store, players int, seed int64, log zerolog.Logger) error {
	rng := engine.NewRand(seed)
	roster, err := runner.NewRoster(nil, players, cfg.MinPlayers, rng)
	if err != nil {
		return err
	}
	s := runner.NewSession(roster)
	glog := log.With().Str("game_id", s.ID).Int64("seed", seed).Logger()

	eng := engine.NewEngine(lib, engine.WithRand(rng), engine.WithLogger(glog))
	r := runner.New(eng,
		runner.WithNarrator(hub),
		runner.WithPacer(runner.NewPacer(cfg.EventDelay, cfg.PhaseDelay)),
		runner.WithRecorder(st),
		runner.WithSave("arena-"+s.ID),
		runner.WithLogger(glog),
	)
	res, err := r.Run(ctx, s)
	if err != nil {
		return err
	}
	glog.Info().Str("title", res.Title).Msg("game finished")
	return nil
}
