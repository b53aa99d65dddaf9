package models

// Participant looks up a roster entry by ID.
func (s *GameSession) Participant(id string) *Participant {
	for _, p := range s.Participants {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// AliveCount returns the number of living participants.
func (s *GameSession) AliveCount() int {
	n := 0
	for _, p := range s.Participants {
		if p.Alive {
			n++
		}
	}
	return n
}

// Survivors returns the living participants in roster order.
func (s *GameSession) Survivors() []*Participant {
	var out []*Participant
	for _, p := range s.Participants {
		if p.Alive {
			out = append(out, p)
		}
	}
	return out
}

// IsComplete reports whether the run has reached its terminal condition.
func (s *GameSession) IsComplete() bool {
	return s.AliveCount() <= 1
}

// Placements ranks the roster: the sole survivor first, then the dead with the
// most recently eliminated highest. With several survivors left only the
// eliminated are ranked.
func (s *GameSession) Placements() []*Participant {
	survivors := s.Survivors()
	out := make([]*Participant, 0, len(s.EliminationOrder)+1)
	if len(survivors) == 1 {
		out = append(out, survivors[0])
	}
	for i := len(s.EliminationOrder) - 1; i >= 0; i-- {
		if p := s.Participant(s.EliminationOrder[i]); p != nil {
			out = append(out, p)
		}
	}
	return out
}

// Eliminate marks p dead on the current day and records it in every
// elimination list. It is a no-op for a participant that is already dead.
func (s *GameSession) Eliminate(p *Participant) bool {
	if p == nil || !p.Alive {
		return false
	}
	day := s.CurrentDay
	p.Alive = false
	p.DeathDay = &day
	s.KilledThisPhase = append(s.KilledThisPhase, p.ID)
	s.FallenSinceRecap = append(s.FallenSinceRecap, p.ID)
	s.EliminationOrder = append(s.EliminationOrder, p.ID)
	return true
}

// Transformation returns the active identity swap for a participant, if any.
func (s *GameSession) Transformation(id string) (Transformation, bool) {
	if s.Aux.Transformations == nil {
		return Transformation{}, false
	}
	t, ok := s.Aux.Transformations[id]
	return t, ok
}

// PlacementSummary is the per-participant end-of-run record handed to stats sinks.
type PlacementSummary struct {
	ParticipantID string          `json:"participant_id"`
	Username      string          `json:"username"`
	Kind          ParticipantKind `json:"kind"`
	Place         int             `json:"place"`
	Kills         int             `json:"kills"`
	DaysSurvived  int             `json:"days_survived"`
	Won           bool            `json:"won"`
}

// RunSummary is the end-of-run record handed to stats sinks.
type RunSummary struct {
	GameID     string             `json:"game_id"`
	Days       int                `json:"days"`
	WinnerID   string             `json:"winner_id,omitempty"`
	Placements []PlacementSummary `json:"placements"`

	// SharedWins lists human participants credited with a win because the
	// winner was wearing their identity.
	SharedWins []string `json:"shared_wins,omitempty"`
}

// Summary builds the end-of-run record from the current state.
func (s *GameSession) Summary() RunSummary {
	sum := RunSummary{GameID: s.ID, Days: s.CurrentDay}
	for i, p := range s.Placements() {
		days := s.CurrentDay
		if p.DeathDay != nil {
			days = *p.DeathDay
		}
		sum.Placements = append(sum.Placements, PlacementSummary{
			ParticipantID: p.ID,
			Username:      p.Username,
			Kind:          p.Kind,
			Place:         i + 1,
			Kills:         p.Kills,
			DaysSurvived:  days,
			Won:           p.Alive,
		})
		if p.Alive {
			sum.WinnerID = p.ID
			if t, ok := s.Transformation(p.ID); ok {
				if form := s.Participant(t.NewFormID); form != nil && form.Kind == KindHuman {
					sum.SharedWins = append(sum.SharedWins, form.ID)
				}
			}
		}
	}
	return sum
}
