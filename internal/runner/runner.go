// Package runner drives a session from the bloodbath to the results,
// narrating each step and recording the outcome.
package runner

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/tatianab/tribute-sim/internal/engine"
	"github.com/tatianab/tribute-sim/internal/models"
)

// Recorder persists the outcome of a finished run.
type Recorder interface {
	RecordRun(ctx context.Context, sum models.RunSummary) error
}

type Runner struct {
	engine   *engine.Engine
	narrator Narrator
	pacer    *Pacer
	recorder Recorder
	namer    engine.Namer
	saveName string
	log      zerolog.Logger
}

type Option func(*Runner)

func WithNarrator(n Narrator) Option {
	return func(r *Runner) { r.narrator = n }
}

func WithPacer(p *Pacer) Option {
	return func(r *Runner) { r.pacer = p }
}

func WithRecorder(rec Recorder) Option {
	return func(r *Runner) { r.recorder = rec }
}

// WithNamer sets how names are written in recaps. It should match the
// engine's namer.
func WithNamer(n engine.Namer) Option {
	return func(r *Runner) { r.namer = n }
}

// WithSave saves the session and its phase history under name after every step.
func WithSave(name string) Option {
	return func(r *Runner) { r.saveName = name }
}

func WithLogger(l zerolog.Logger) Option {
	return func(r *Runner) { r.log = l }
}

func New(eng *engine.Engine, opts ...Option) *Runner {
	r := &Runner{
		engine:   eng,
		narrator: Narrators{},
		namer:    engine.TransformNamer{},
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With().Str("component", "runner").Logger()
	return r
}

// Run plays s to completion. Cancelling ctx stops the run before the next
// step; a step that has started is always applied in full.
func (r *Runner) Run(ctx context.Context, s *models.GameSession) (Results, error) {
	log := r.log.With().Str("game_id", s.ID).Logger()
	log.Info().Int("participants", len(s.Participants)).Msg("run started")

	var history []models.PhaseLog
	for !s.IsComplete() {
		if err := ctx.Err(); err != nil {
			log.Info().Int("day", s.CurrentDay).Msg("run stopped")
			return Results{History: history}, err
		}

		res, err := r.engine.Next(s)
		switch {
		case errors.Is(err, engine.ErrNoSelectableAction):
			log.Warn().Err(err).Msg("phase ended early")
		case err != nil:
			return Results{History: history}, fmt.Errorf("day %d: %w", s.CurrentDay, err)
		}

		entry, err := r.narrate(ctx, s, res)
		history = append(history, entry)
		r.save(s, entry)
		if err != nil {
			return Results{History: history}, err
		}
		if !s.IsComplete() {
			if err := r.pacer.Phase(ctx); err != nil {
				return Results{History: history}, err
			}
		}
	}

	// The final deaths never reach a scheduled recap.
	if len(s.FallenSinceRecap) > 0 {
		recap := r.recap(s, s.FallenSinceRecap)
		s.FallenSinceRecap = nil
		r.narrator.Fallen(s, recap)
		entry := models.PhaseLog{Day: s.CurrentDay, Title: recap.Title, Fallen: recap.IDs}
		history = append(history, entry)
		r.save(s, entry)
	}

	results := r.results(s)
	results.History = history
	r.narrator.Finished(s, results)
	log.Info().
		Str("winner_id", results.Summary.WinnerID).
		Int("days", results.Summary.Days).
		Msg("run finished")

	if r.recorder != nil {
		if err := r.recorder.RecordRun(ctx, results.Summary); err != nil {
			return results, fmt.Errorf("record run: %w", err)
		}
	}
	return results, nil
}

func (r *Runner) narrate(ctx context.Context, s *models.GameSession, res engine.PhaseResult) (models.PhaseLog, error) {
	st := res.Step
	entry := models.PhaseLog{Day: st.Day, Kind: st.Kind, Title: st.Title()}

	if st.Stage == models.StageFallen {
		recap := r.recap(s, res.Fallen)
		entry.Title = recap.Title
		entry.Fallen = res.Fallen
		r.narrator.Fallen(s, recap)
		return entry, r.pacer.Event(ctx)
	}

	entry.Events = res.Events
	r.narrator.PhaseStarted(s, Header{
		Day:         st.Day,
		Stage:       st.Stage,
		Kind:        st.Kind,
		Title:       st.Title(),
		Description: st.Phase.Description,
		Color:       st.Phase.Color,
	})
	if err := r.pacer.Event(ctx); err != nil {
		return entry, err
	}
	for _, ev := range res.Events {
		if ev.Hidden {
			continue
		}
		r.narrator.Event(s, ev)
		if err := r.pacer.Event(ctx); err != nil {
			return entry, err
		}
	}
	return entry, nil
}

func (r *Runner) recap(s *models.GameSession, ids []string) Recap {
	terms := r.engine.Library().Terminology
	title := terms.FallenPlayers
	if title == "" {
		title = "Fallen Tributes"
	}
	recap := Recap{Title: title, Text: fallenText(len(ids), terms.DeathSound), IDs: ids}
	for _, id := range ids {
		if p := s.Participant(id); p != nil {
			recap.Names = append(recap.Names, r.namer.DisplayName(s, p))
		}
	}
	return recap
}

func (r *Runner) results(s *models.GameSession) Results {
	lib := r.engine.Library()
	game := lib.AppName
	if game == "" {
		game = "Tribute Games"
	}
	players := lib.Terminology.PlayerPlural
	if players == "" {
		players = "tributes"
	}

	res := Results{Summary: s.Summary()}
	survivors := s.Survivors()
	if len(survivors) != 1 {
		res.Title = fmt.Sprintf("No one survived the %s!", game)
		res.Description = fmt.Sprintf("All %s have perished.", players)
		return res
	}

	winner := survivors[0]
	if t, ok := s.Transformation(winner.ID); ok {
		res.Title = fmt.Sprintf("%s won the %s! wait.. thats not right.. %s won? what?", t.NewForm, game, t.OriginalName)
	} else {
		res.Title = fmt.Sprintf("%s won the %s!", winner.Username, game)
	}
	res.Description = fmt.Sprintf("After %d days of battle, a winner emerges!", s.CurrentDay)
	return res
}

func (r *Runner) save(s *models.GameSession, entry models.PhaseLog) {
	if r.saveName == "" {
		return
	}
	if err := s.Save(r.saveName); err != nil {
		r.log.Warn().Err(err).Str("save", r.saveName).Msg("failed to save session")
		return
	}
	if err := models.AppendHistory(r.saveName, entry); err != nil {
		r.log.Warn().Err(err).Str("save", r.saveName).Msg("failed to append history")
	}
}
