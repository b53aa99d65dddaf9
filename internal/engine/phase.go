package engine

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tatianab/tribute-sim/internal/content"
	"github.com/tatianab/tribute-sim/internal/models"
)

// RunPhaseEvents plays one phase: every living participant is consumed by
// exactly one event, drawn from the phase pools plus the generic pools. It
// mutates the session (deaths, kills, bookkeeping) and returns the events in
// narration order.
//
// If every eligible action weighs zero the pass stops early and the events
// collected so far are returned together with ErrNoSelectableAction.
func (e *Engine) RunPhaseEvents(s *models.GameSession, kind models.PhaseKind, phase content.Phase) ([]models.EventRecord, error) {
	s.KilledThisPhase = nil
	decay := newDecayTracker(s, e.decay)

	alive := s.Survivors()
	factor := e.rng.IntN(3) + 1 + s.ConsecutiveNoDeathPhases
	if kind == models.PhaseBloodbath {
		factor++
	}

	var (
		events []models.EventRecord
		err    error
	)
	for len(alive) > 0 {
		roll := e.rng.IntN(11)
		fatal := roll < factor && s.AliveCount() > 1

		pool := e.buildPool(phase, kind.Special(), fatal, len(alive), decay)
		if len(pool) == 0 {
			break
		}
		cand, selErr := Select(e.rng, pool)
		if selErr != nil {
			err = fmt.Errorf("day %d %s phase with %d left to place: %w", s.CurrentDay, kind, len(alive), selErr)
			e.log.Warn().Err(selErr).
				Str("game_id", s.ID).
				Int("day", s.CurrentDay).
				Str("phase", string(kind)).
				Bool("fatal", fatal).
				Msg("aborting phase")
			break
		}
		decay.markUsed(cand.Template)

		picks := make([]*models.Participant, 0, cand.Action.Tributes)
		for range cand.Action.Tributes {
			i := e.rng.IntN(len(alive))
			picks = append(picks, alive[i])
			alive = append(alive[:i], alive[i+1:]...)
		}

		events = append(events, e.resolveEvent(s, cand, picks))
	}

	sort.SliceStable(events, func(i, j int) bool { return events[i].Order < events[j].Order })
	decay.commit()
	if len(s.KilledThisPhase) > 0 {
		s.ConsecutiveNoDeathPhases = 0
	} else {
		s.ConsecutiveNoDeathPhases++
	}
	return events, err
}

// resolveEvent renders an action for its picks and applies its consequences.
func (e *Engine) resolveEvent(s *models.GameSession, cand Candidate, picks []*models.Participant) models.EventRecord {
	a := cand.Action

	text := e.resolver.Resolve(a.Msg, len(a.Killed))
	text = e.renderNames(s, text, picks)

	if a.CustomHandler != "" && !e.handlers.invoke(a.CustomHandler, picks, s.CurrentDay, &s.Aux) {
		e.log.Warn().Str("handler", a.CustomHandler).Msg("unknown custom handler")
	}

	eliminated := 0
	for _, k := range a.Killed {
		if k < 0 || k >= len(picks) {
			continue
		}
		if s.Eliminate(picks[k]) {
			eliminated++
		}
	}
	if eliminated > 0 {
		for _, k := range a.Killer {
			if k < 0 || k >= len(picks) {
				continue
			}
			picks[k].Kills += eliminated
		}
	}

	ids := make([]string, len(picks))
	for i, p := range picks {
		ids[i] = p.ID
	}
	return models.EventRecord{
		Picks:    ids,
		Text:     text,
		Killed:   a.Killed,
		Killer:   a.Killer,
		Hidden:   a.Hidden,
		Fatal:    a.Fatal(),
		Order:    a.Order,
		Template: cand.Template,
	}
}

func (e *Engine) renderNames(s *models.GameSession, text string, picks []*models.Participant) string {
	if len(picks) == 0 {
		return text
	}
	pairs := make([]string, 0, 2*len(picks))
	for i, p := range picks {
		pairs = append(pairs, "{"+strconv.Itoa(i)+"}", e.namer.DisplayName(s, p))
	}
	return strings.NewReplacer(pairs...).Replace(text)
}
