package models

import (
	"errors"
	"time"
)

// ErrSessionNotFound is returned when a saved session does not exist.
var ErrSessionNotFound = errors.New("session not found")

// ParticipantKind tells the render boundary whether a participant can be mentioned.
type ParticipantKind string

const (
	KindHuman     ParticipantKind = "human"
	KindSynthetic ParticipantKind = "synthetic"
)

// Stage is the position of a session in the bloodbath/day/fallen/night cycle.
type Stage string

const (
	StageBloodbath Stage = "bloodbath"
	StageDay       Stage = "day"
	StageFallen    Stage = "fallen"
	StageNight     Stage = "night"
)

// PhaseKind selects which action sub-library a phase draws from.
type PhaseKind string

const (
	PhaseBloodbath PhaseKind = "bloodbath"
	PhaseDay       PhaseKind = "day"
	PhaseNight     PhaseKind = "night"
	PhaseFeast     PhaseKind = "feast"
	PhaseArena     PhaseKind = "arena"
)

// Special reports whether phase-specific content should dominate generic filler.
func (k PhaseKind) Special() bool {
	return k == PhaseBloodbath || k == PhaseFeast || k == PhaseArena
}

// Participant is a single entrant in a run.
type Participant struct {
	ID       string          `yaml:"id" json:"id"`
	Username string          `yaml:"username" json:"username"`
	Kind     ParticipantKind `yaml:"kind" json:"kind"`
	Alive    bool            `yaml:"alive" json:"alive"`
	Kills    int             `yaml:"kills" json:"kills"`
	DeathDay *int            `yaml:"death_day,omitempty" json:"death_day,omitempty"`
	Color    string          `yaml:"color,omitempty" json:"color,omitempty"`
	Avatar   string          `yaml:"avatar,omitempty" json:"avatar,omitempty"`
}

// Transformation records that one participant is currently wearing another's identity.
type Transformation struct {
	OriginalName string `yaml:"original_name"`
	OriginalID   string `yaml:"original_id"`
	NewForm      string `yaml:"new_form"`
	NewFormID    string `yaml:"new_form_id"`
	Day          int    `yaml:"day"`
}

// AuxState is session-scoped state owned by custom event handlers.
type AuxState struct {
	Transformations map[string]Transformation `yaml:"transformations,omitempty"` // keyed by participant ID
}

// EventRecord is one narrated outcome produced by a phase pass.
type EventRecord struct {
	Picks    []string `yaml:"picks" json:"picks"` // participant IDs in slot order
	Text     string   `yaml:"text" json:"text"`
	Killed   []int    `yaml:"killed,omitempty" json:"killed,omitempty"`
	Killer   []int    `yaml:"killer,omitempty" json:"killer,omitempty"`
	Hidden   bool     `yaml:"hidden,omitempty" json:"hidden,omitempty"`
	Fatal    bool     `yaml:"fatal,omitempty" json:"fatal,omitempty"`
	Order    int      `yaml:"order,omitempty" json:"order,omitempty"`
	Template string   `yaml:"template" json:"-"`
}

// GameSession aggregates all state of one run.
type GameSession struct {
	ID           string         `yaml:"id"`
	StartedAt    time.Time      `yaml:"started_at"`
	Participants []*Participant `yaml:"participants"`

	// EliminationOrder holds participant IDs, oldest elimination first.
	EliminationOrder []string `yaml:"elimination_order"`

	CurrentDay               int       `yaml:"current_day"`
	Stage                    Stage     `yaml:"stage"`
	PhaseKind                PhaseKind `yaml:"phase_kind,omitempty"`
	DaysSinceSpecialEvent    int       `yaml:"days_since_special_event"`
	ConsecutiveNoDeathPhases int       `yaml:"consecutive_no_death_phases"`
	KilledThisPhase          []string  `yaml:"killed_this_phase,omitempty"`
	FallenSinceRecap         []string  `yaml:"fallen_since_recap,omitempty"`

	// PhasesRun counts simulated phases; RecentTemplates maps a normalised
	// template to the phase index it was last used in.
	PhasesRun       int            `yaml:"phases_run"`
	RecentTemplates map[string]int `yaml:"recent_templates,omitempty"`

	UsedFeast []int `yaml:"used_feast,omitempty"`
	UsedArena []int `yaml:"used_arena,omitempty"`

	Aux AuxState `yaml:"aux"`
}

// NewGameSession locks a roster into a fresh session at the bloodbath.
func NewGameSession(id string, participants []*Participant) *GameSession {
	for _, p := range participants {
		p.Alive = true
		p.Kills = 0
		p.DeathDay = nil
	}
	return &GameSession{
		ID:              id,
		StartedAt:       time.Now(),
		Participants:    participants,
		CurrentDay:      1,
		Stage:           StageBloodbath,
		RecentTemplates: make(map[string]int),
		Aux:             AuxState{Transformations: make(map[string]Transformation)},
	}
}
