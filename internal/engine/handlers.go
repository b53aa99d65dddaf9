package engine

import (
	"fmt"

	"github.com/tatianab/tribute-sim/internal/models"
)

// Handler is a named side effect attached to an action. It may change
// auxiliary state but never eliminates anyone.
type Handler func(picks []*models.Participant, day int, aux *models.AuxState)

// Handlers maps custom_handler names to their implementation.
type Handlers map[string]Handler

func DefaultHandlers() Handlers {
	return Handlers{"polymorph": Polymorph}
}

func (h Handlers) invoke(name string, picks []*models.Participant, day int, aux *models.AuxState) bool {
	fn, ok := h[name]
	if !ok || fn == nil {
		return false
	}
	fn(picks, day, aux)
	return true
}

// Polymorph makes the first pick take on the identity of the second.
func Polymorph(picks []*models.Participant, day int, aux *models.AuxState) {
	if len(picks) < 2 {
		return
	}
	if aux.Transformations == nil {
		aux.Transformations = make(map[string]models.Transformation)
	}
	original, form := picks[0], picks[1]
	aux.Transformations[original.ID] = models.Transformation{
		OriginalName: original.Username,
		OriginalID:   original.ID,
		NewForm:      form.Username,
		NewFormID:    form.ID,
		Day:          day,
	}
}

// Namer decides how a participant is written into narration.
type Namer interface {
	DisplayName(s *models.GameSession, p *models.Participant) string
}

// TransformNamer writes plain usernames, showing any active transformation.
type TransformNamer struct{}

func (TransformNamer) DisplayName(s *models.GameSession, p *models.Participant) string {
	if t, ok := s.Transformation(p.ID); ok {
		return fmt.Sprintf("%s (formerly %s)", t.NewForm, t.OriginalName)
	}
	return p.Username
}

// MentionNamer writes chat mentions for humans and plain names for
// synthetic entrants.
type MentionNamer struct{}

func (MentionNamer) DisplayName(s *models.GameSession, p *models.Participant) string {
	if t, ok := s.Transformation(p.ID); ok {
		return fmt.Sprintf("%s (formerly %s)",
			mention(s.Participant(t.NewFormID), t.NewForm),
			mention(s.Participant(t.OriginalID), t.OriginalName))
	}
	return mention(p, p.Username)
}

func mention(p *models.Participant, fallback string) string {
	if p == nil || p.Kind != models.KindHuman {
		return fallback
	}
	return "<@" + p.ID + ">"
}
