package engine

import (
	"fmt"

	"github.com/tatianab/tribute-sim/internal/content"
	"github.com/tatianab/tribute-sim/internal/models"
)

// Step is the next thing a session will play.
type Step struct {
	Stage   models.Stage
	Kind    models.PhaseKind
	Day     int
	Phase   content.Phase
	Variant int // index into the feast or arena variants, -1 otherwise
}

// Title is the header to announce for the step.
func (st Step) Title() string {
	return st.Phase.HeaderTitle(st.Day)
}

// PhaseResult is everything produced by playing one step.
type PhaseResult struct {
	Step   Step
	Events []models.EventRecord

	// Fallen lists the participant IDs reported by a fallen recap.
	Fallen []string

	// Deaths lists the participant IDs eliminated during this step.
	Deaths []string
}

// feastChance is the probability a day is replaced by a feast after d
// ordinary steps.
func feastChance(d int) float64 {
	fd := float64(d)
	return min(1, (100*fd*fd/55+9.0/55)/100)
}

// StepType decides whether the upcoming day or night step is substituted by a
// feast or an arena event, updating the session's special-event counter.
func (e *Engine) StepType(s *models.GameSession, isDay bool) models.PhaseKind {
	base := models.PhaseNight
	if isDay {
		base = models.PhaseDay
	}
	if s.CurrentDay > 1 {
		if isDay && e.rng.Float64() < feastChance(s.DaysSinceSpecialEvent) {
			s.DaysSinceSpecialEvent = 0
			return models.PhaseFeast
		}
		if s.DaysSinceSpecialEvent > 0 && e.rng.IntN(20) == 0 {
			s.DaysSinceSpecialEvent = 0
			return models.PhaseArena
		}
	}
	s.DaysSinceSpecialEvent++
	return base
}

// Plan resolves the session's current stage into a concrete step. Planning a
// day or night step consumes randomness and updates substitution state, so
// each planned step should be played.
func (e *Engine) Plan(s *models.GameSession) (Step, error) {
	if s.IsComplete() {
		return Step{}, ErrGameOver
	}
	st := Step{Stage: s.Stage, Day: s.CurrentDay, Variant: -1}
	switch s.Stage {
	case models.StageBloodbath:
		st.Kind = models.PhaseBloodbath
		st.Phase = e.lib.Bloodbath
	case models.StageFallen:
		st.Phase = content.Phase{Title: e.fallenTitle()}
	case models.StageDay, models.StageNight:
		st.Kind = e.StepType(s, s.Stage == models.StageDay)
		switch st.Kind {
		case models.PhaseFeast:
			st.Variant, s.UsedFeast = pickVariant(e.rng, len(e.lib.Feast), s.UsedFeast)
			if st.Variant < 0 {
				st.Kind = models.PhaseDay
			} else {
				st.Phase = e.lib.Feast[st.Variant]
			}
		case models.PhaseArena:
			st.Variant, s.UsedArena = pickVariant(e.rng, len(e.lib.Arena), s.UsedArena)
			if st.Variant < 0 {
				st.Kind = baseKind(s.Stage)
			} else {
				st.Phase = e.lib.Arena[st.Variant]
			}
		}
		switch st.Kind {
		case models.PhaseDay:
			st.Phase = e.lib.Day
		case models.PhaseNight:
			st.Phase = e.lib.Night
		}
	default:
		return Step{}, fmt.Errorf("unknown stage %q", s.Stage)
	}
	return st, nil
}

// Play runs a planned step against the session and advances the stage.
func (e *Engine) Play(s *models.GameSession, st Step) (PhaseResult, error) {
	res := PhaseResult{Step: st}
	if st.Stage == models.StageFallen {
		res.Fallen = s.FallenSinceRecap
		s.FallenSinceRecap = nil
		e.advance(s)
		return res, nil
	}

	s.PhaseKind = st.Kind
	events, err := e.RunPhaseEvents(s, st.Kind, st.Phase)
	res.Events = events
	res.Deaths = append([]string(nil), s.KilledThisPhase...)
	e.log.Debug().
		Str("game_id", s.ID).
		Int("day", st.Day).
		Str("phase", string(st.Kind)).
		Int("events", len(events)).
		Int("deaths", len(res.Deaths)).
		Int("alive", s.AliveCount()).
		Msg("phase complete")
	e.advance(s)
	return res, err
}

// Next plans and plays the next step, skipping an empty fallen recap. It
// returns ErrGameOver once at most one participant is alive.
func (e *Engine) Next(s *models.GameSession) (PhaseResult, error) {
	if s.IsComplete() {
		return PhaseResult{}, ErrGameOver
	}
	if s.Stage == models.StageFallen && len(s.FallenSinceRecap) == 0 {
		e.advance(s)
	}
	st, err := e.Plan(s)
	if err != nil {
		return PhaseResult{}, err
	}
	return e.Play(s, st)
}

func (e *Engine) advance(s *models.GameSession) {
	switch s.Stage {
	case models.StageBloodbath:
		s.Stage = models.StageDay
	case models.StageDay:
		s.Stage = models.StageFallen
	case models.StageFallen:
		s.Stage = models.StageNight
	case models.StageNight:
		s.CurrentDay++
		s.Stage = models.StageDay
	}
}

func (e *Engine) fallenTitle() string {
	if t := e.lib.Terminology.FallenPlayers; t != "" {
		return t
	}
	return "Fallen Tributes"
}

func baseKind(stage models.Stage) models.PhaseKind {
	if stage == models.StageDay {
		return models.PhaseDay
	}
	return models.PhaseNight
}

// pickVariant chooses an index in [0, n) not yet in used. When every variant
// has been used the set starts over. It returns -1 when there are none.
func pickVariant(rng Rand, n int, used []int) (int, []int) {
	if n == 0 {
		return -1, used
	}
	if len(used) >= n {
		used = nil
	}
	taken := make(map[int]bool, len(used))
	for _, u := range used {
		taken[u] = true
	}
	free := make([]int, 0, n-len(used))
	for i := range n {
		if !taken[i] {
			free = append(free, i)
		}
	}
	if len(free) == 0 {
		free = free[:0]
		for i := range n {
			free = append(free, i)
		}
		used = nil
	}
	pick := free[rng.IntN(len(free))]
	return pick, append(used, pick)
}
