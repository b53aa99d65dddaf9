// Package stats keeps per-player lifetime statistics in SQLite.
package stats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tatianab/tribute-sim/internal/models"

	_ "modernc.org/sqlite"
)

var (
	ErrPlayerNotFound = errors.New("player not found")
	ErrUnknownSortKey = errors.New("unknown leaderboard sort key")
)

// SortKeys maps leaderboard sort keys to their ORDER BY clause.
var SortKeys = map[string]string{
	"wins":      "wins DESC, kills DESC",
	"kills":     "kills DESC, wins DESC",
	"deaths":    "deaths DESC",
	"maxdays":   "max_days DESC",
	"totaldays": "total_days DESC",
	"games":     "games_played DESC",
	"maxkills":  "max_kills_single_game DESC",
}

// PlayerStats is one row of lifetime statistics.
type PlayerStats struct {
	UserID             string  `json:"user_id"`
	Username           string  `json:"username"`
	Wins               int     `json:"wins"`
	Kills              int     `json:"kills"`
	Deaths             int     `json:"deaths"`
	MaxDays            int     `json:"max_days"`
	TotalDays          int     `json:"total_days"`
	GamesPlayed        int     `json:"games_played"`
	MaxKillsSingleGame int     `json:"max_kills_single_game"`
	WinRate            float64 `json:"win_rate"`
}

type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open opens or creates the stats database at dbPath.
func Open(dbPath string, log zerolog.Logger) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	if err := createSchemas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schemas: %w", err)
	}

	return &Store{db: db, log: log.With().Str("component", "stats").Logger()}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func createSchemas(db *sql.DB) error {
	schemas := []string{
		`CREATE TABLE IF NOT EXISTS player_stats (
			user_id TEXT PRIMARY KEY,
			username TEXT NOT NULL,
			wins INTEGER NOT NULL DEFAULT 0,
			kills INTEGER NOT NULL DEFAULT 0,
			deaths INTEGER NOT NULL DEFAULT 0,
			max_days INTEGER NOT NULL DEFAULT 0,
			total_days INTEGER NOT NULL DEFAULT 0,
			games_played INTEGER NOT NULL DEFAULT 0,
			max_kills_single_game INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_player_stats_username ON player_stats(username);`,
	}

	for _, query := range schemas {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}

const (
	upsertPlayer = `INSERT INTO player_stats (user_id, username) VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET username = excluded.username`

	recordPlacement = `UPDATE player_stats SET
		games_played = games_played + 1,
		total_days = total_days + ?,
		kills = kills + ?,
		max_days = MAX(max_days, ?),
		max_kills_single_game = MAX(max_kills_single_game, ?),
		wins = wins + ?,
		deaths = deaths + ?
		WHERE user_id = ?`

	creditWin = `UPDATE player_stats SET wins = wins + 1 WHERE user_id = ?`

	selectColumns = `SELECT user_id, username, wins, kills, deaths, max_days, total_days,
		games_played, max_kills_single_game FROM player_stats`
)

// RecordRun adds a finished run to every human participant's totals.
// Synthetic entrants are not tracked.
func (s *Store) RecordRun(ctx context.Context, sum models.RunSummary) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	names := make(map[string]string, len(sum.Placements))
	recorded := 0
	for _, p := range sum.Placements {
		names[p.ParticipantID] = p.Username
		if p.Kind != models.KindHuman {
			continue
		}
		if _, err := tx.ExecContext(ctx, upsertPlayer, p.ParticipantID, p.Username); err != nil {
			return fmt.Errorf("upsert %s: %w", p.ParticipantID, err)
		}
		won, died := 0, 1
		if p.Won {
			won, died = 1, 0
		}
		if _, err := tx.ExecContext(ctx, recordPlacement,
			p.DaysSurvived, p.Kills, p.DaysSurvived, p.Kills, won, died, p.ParticipantID); err != nil {
			return fmt.Errorf("record %s: %w", p.ParticipantID, err)
		}
		recorded++
	}

	for _, id := range sum.SharedWins {
		if _, err := tx.ExecContext(ctx, upsertPlayer, id, names[id]); err != nil {
			return fmt.Errorf("upsert %s: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, creditWin, id); err != nil {
			return fmt.Errorf("credit shared win to %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	s.log.Info().
		Str("game_id", sum.GameID).
		Int("players", recorded).
		Int("shared_wins", len(sum.SharedWins)).
		Msg("run recorded")
	return nil
}

// Leaderboard returns the top players ordered by sortKey.
func (s *Store) Leaderboard(ctx context.Context, sortKey string, limit int) ([]PlayerStats, error) {
	if sortKey == "" {
		sortKey = "wins"
	}
	order, ok := SortKeys[strings.ToLower(sortKey)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSortKey, sortKey)
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, selectColumns+" ORDER BY "+order+", username ASC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PlayerStats
	for rows.Next() {
		ps, err := scanStats(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ps)
	}
	return out, rows.Err()
}

// Player returns the statistics of one user.
func (s *Store) Player(ctx context.Context, userID string) (PlayerStats, error) {
	return s.queryOne(ctx, selectColumns+" WHERE user_id = ?", userID)
}

// PlayerByName looks a user up by their last known username, ignoring case.
func (s *Store) PlayerByName(ctx context.Context, username string) (PlayerStats, error) {
	return s.queryOne(ctx, selectColumns+" WHERE username = ? COLLATE NOCASE LIMIT 1", username)
}

func (s *Store) queryOne(ctx context.Context, query string, arg string) (PlayerStats, error) {
	ps, err := scanStats(s.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return PlayerStats{}, fmt.Errorf("%w: %s", ErrPlayerNotFound, arg)
	}
	return ps, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanStats(row scanner) (PlayerStats, error) {
	var ps PlayerStats
	err := row.Scan(&ps.UserID, &ps.Username, &ps.Wins, &ps.Kills, &ps.Deaths,
		&ps.MaxDays, &ps.TotalDays, &ps.GamesPlayed, &ps.MaxKillsSingleGame)
	if err != nil {
		return PlayerStats{}, err
	}
	if ps.GamesPlayed > 0 {
		ps.WinRate = float64(ps.Wins) / float64(ps.GamesPlayed)
	}
	return ps, nil
}
