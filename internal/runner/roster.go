package runner

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tatianab/tribute-sim/internal/engine"
	"github.com/tatianab/tribute-sim/internal/models"
)

// ErrNotEnoughPlayers is returned when a roster is below the minimum size.
var ErrNotEnoughPlayers = errors.New("not enough players")

// SyntheticPrefix marks the IDs of generated entrants.
const SyntheticPrefix = "synthetic-"

var (
	adjectives = []string{"Iron", "Silver", "Golden", "Dusky", "Silent", "Swift", "Fierce", "Mystic", "Crimson", "Shadow"}
	nouns      = []string{"Wolf", "Raven", "Phoenix", "Dragon", "Saber", "Viper", "Falcon", "Stalker", "Hunter", "Wraith"}
)

// Entrant is a human who joined before the run started.
type Entrant struct {
	ID       string
	Username string
}

// SyntheticName generates an entrant name like "SwiftRaven042".
func SyntheticName(rng engine.Rand) string {
	return fmt.Sprintf("%s%s%03d",
		adjectives[rng.IntN(len(adjectives))],
		nouns[rng.IntN(len(nouns))],
		rng.IntN(1000))
}

// NewRoster builds the participant list from joined humans plus synthetic
// filler. Humans joining twice are listed once.
func NewRoster(humans []Entrant, synthetic, minPlayers int, rng engine.Rand) ([]*models.Participant, error) {
	seen := make(map[string]bool, len(humans))
	out := make([]*models.Participant, 0, len(humans)+synthetic)
	for _, h := range humans {
		if h.ID == "" || seen[h.ID] {
			continue
		}
		seen[h.ID] = true
		out = append(out, &models.Participant{ID: h.ID, Username: h.Username, Kind: models.KindHuman, Alive: true})
	}
	for range max(synthetic, 0) {
		out = append(out, &models.Participant{
			ID:       SyntheticPrefix + uuid.NewString(),
			Username: SyntheticName(rng),
			Kind:     models.KindSynthetic,
			Alive:    true,
		})
	}
	if len(out) < minPlayers {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrNotEnoughPlayers, len(out), minPlayers)
	}
	return out, nil
}

// NewSession locks a roster into a fresh session with a random ID.
func NewSession(participants []*models.Participant) *models.GameSession {
	s := models.NewGameSession(uuid.NewString(), participants)
	s.StartedAt = time.Now().UTC()
	return s
}
