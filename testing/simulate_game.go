package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/tatianab/tribute-sim/internal/author"
	"github.com/tatianab/tribute-sim/internal/config"
	"github.com/tatianab/tribute-sim/internal/content"
	"github.com/tatianab/tribute-sim/internal/engine"
	"github.com/tatianab/tribute-sim/internal/logger"
	"github.com/tatianab/tribute-sim/internal/models"
	"github.com/tatianab/tribute-sim/internal/runner"
)

func main() {
	games := flag.Int("games", 100, "number of games to simulate")
	players := flag.Int("players", 24, "entrants per game")
	seed := flag.Int64("seed", 1, "seed of the first game")
	verbose := flag.Bool("v", false, "print every game transcript")
	recap := flag.Bool("recap", false, "ask Gemini to recap the last game")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Setup("info").Fatal().Err(err).Msg("failed to load config")
	}
	log := logger.Setup(cfg.LogLevel)

	var lib *content.Library
	if cfg.ContentPath != "" {
		lib, err = content.Load(cfg.ContentPath)
	} else {
		lib, err = content.Default()
	}
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load content")
	}

	ctx := context.Background()
	var out io.Writer = io.Discard
	if *verbose {
		out = os.Stdout
	}

	var (
		days       []int
		noWinner   int
		aborted    int
		topKills   = map[int]int{}
		lastGame   *models.GameSession
		lastResult runner.Results
	)
	for g := range *games {
		rng := engine.NewRand(*seed + int64(g))
		roster, err := runner.NewRoster(nil, *players, cfg.MinPlayers, rng)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to build roster")
		}
		s := runner.NewSession(roster)
		eng := engine.NewEngine(lib, engine.WithRand(rng), engine.WithLogger(log))
		r := runner.New(eng, runner.WithNarrator(runner.TextNarrator{W: out}), runner.WithLogger(log))

		res, err := r.Run(ctx, s)
		if err != nil {
			log.Error().Err(err).Int("game", g).Msg("game failed")
			aborted++
			continue
		}
		days = append(days, res.Summary.Days)
		if res.Summary.WinnerID == "" {
			noWinner++
		}
		best := 0
		for _, p := range res.Summary.Placements {
			best = max(best, p.Kills)
		}
		topKills[best]++
		lastGame, lastResult = s, res
	}

	fmt.Printf("--- %d games, %d entrants each ---\n", *games, *players)
	if len(days) == 0 {
		fmt.Println("No game finished.")
		os.Exit(1)
	}
	sort.Ints(days)
	total := 0
	for _, d := range days {
		total += d
	}
	fmt.Printf("Days: min %d, median %d, max %d, mean %.2f\n",
		days[0], days[len(days)/2], days[len(days)-1], float64(total)/float64(len(days)))
	fmt.Printf("Games with no survivor: %d\n", noWinner)
	fmt.Printf("Failed games: %d\n", aborted)

	var kills []int
	for k := range topKills {
		kills = append(kills, k)
	}
	sort.Ints(kills)
	fmt.Println("Most kills by one entrant:")
	for _, k := range kills {
		fmt.Printf("  %2d kills: %d games\n", k, topKills[k])
	}

	if !*recap || lastGame == nil {
		return
	}
	if cfg.GeminiAPIKey == "" {
		log.Warn().Msg("GEMINI_API_KEY not set; skipping recap")
		return
	}
	a, err := author.NewAuthor(ctx, cfg.GeminiAPIKey, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create author")
	}
	defer a.Close()
	text, err := a.SummarizeRun(ctx, lastGame, lastResult.History)
	if err != nil {
		log.Error().Err(err).Msg("recap failed")
		return
	}
	fmt.Printf("\n--- Recap of the last game ---\n%s\n", text)
}
