package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tatianab/tribute-sim/internal/content"
	"github.com/tatianab/tribute-sim/internal/models"
)

// scriptedRand replays fixed values and returns zero once exhausted.
type scriptedRand struct {
	ints   []int
	floats []float64
}

func (r *scriptedRand) IntN(n int) int {
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[0]
	r.ints = r.ints[1:]
	return v % n
}

func (r *scriptedRand) Float64() float64 {
	if len(r.floats) == 0 {
		return 0
	}
	v := r.floats[0]
	r.floats = r.floats[1:]
	return v
}

func roster(names ...string) []*models.Participant {
	out := make([]*models.Participant, 0, len(names))
	for _, n := range names {
		out = append(out, &models.Participant{ID: n, Username: n, Kind: models.KindHuman})
	}
	return out
}

func texts(events []models.EventRecord) []string {
	out := make([]string, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Text)
	}
	return out
}

func defaultLibrary(t *testing.T) *content.Library {
	t.Helper()
	lib, err := content.Default()
	require.NoError(t, err)
	return lib
}

func duelLibrary() *content.Library {
	return &content.Library{
		Day: content.Phase{
			Title: "Day {0}",
			Fatal: []content.Action{
				{Msg: "{0} kills {1}.", Tributes: 2, Killed: []int{1}, Killer: []int{0}},
			},
			Nonfatal: []content.Action{
				{Msg: "{0} rests.", Tributes: 1},
			},
		},
	}
}

func TestZeroRollScenario(t *testing.T) {
	e := NewEngine(duelLibrary(), WithRand(&scriptedRand{}), WithoutDecay())
	s := models.NewGameSession("g", roster("A", "B", "C", "D"))

	events, err := e.RunPhaseEvents(s, models.PhaseDay, e.Library().Day)
	require.NoError(t, err)

	if diff := cmp.Diff([]string{"A kills B.", "C kills D."}, texts(events)); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"B", "D"}, s.EliminationOrder)
	assert.Equal(t, []string{"B", "D"}, s.KilledThisPhase)
	assert.Equal(t, 1, s.Participant("A").Kills)
	assert.Equal(t, 1, s.Participant("C").Kills)
	assert.Equal(t, 0, s.ConsecutiveNoDeathPhases)
	assert.Equal(t, 1, s.PhasesRun)
	assert.Equal(t, []string{"A", "B"}, events[0].Picks)
	assert.True(t, events[0].Fatal)
}

func TestDecayExhaustionAbortsPhase(t *testing.T) {
	e := NewEngine(duelLibrary(), WithRand(&scriptedRand{}))
	s := models.NewGameSession("g", roster("A", "B", "C", "D"))

	events, err := e.RunPhaseEvents(s, models.PhaseDay, e.Library().Day)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoSelectableAction))
	assert.Equal(t, []string{"A kills B."}, texts(events))
	assert.True(t, s.Participant("C").Alive)
	assert.True(t, s.Participant("D").Alive)
	assert.Equal(t, 1, s.PhasesRun, "bookkeeping still runs after an aborted pass")
	assert.Equal(t, 0, s.ConsecutiveNoDeathPhases)
}

func TestKillCredit(t *testing.T) {
	tests := []struct {
		name      string
		killed    []int
		killer    []int
		wantKills int
		wantDead  []string
	}{
		{"two victims", []int{1, 2}, []int{0}, 2, []string{"B", "C"}},
		{"out of range victim skipped", []int{1, 7}, []int{0, 9}, 1, []string{"B"}},
		{"repeated victim counted once", []int{1, 1}, []int{0}, 1, []string{"B"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lib := &content.Library{Day: content.Phase{
				Fatal: []content.Action{{Msg: "{0} blows up {1} and {2}.", Tributes: 3, Killed: tt.killed, Killer: tt.killer}},
			}}
			e := NewEngine(lib, WithRand(&scriptedRand{}))
			s := models.NewGameSession("g", roster("A", "B", "C"))

			events, err := e.RunPhaseEvents(s, models.PhaseDay, lib.Day)
			require.NoError(t, err)
			require.Len(t, events, 1)
			assert.Equal(t, tt.wantKills, s.Participant("A").Kills)
			assert.Equal(t, tt.wantDead, s.EliminationOrder)
			assert.Equal(t, len(s.Participants), s.AliveCount()+len(s.EliminationOrder))
		})
	}
}

func TestFatalityRoll(t *testing.T) {
	tests := []struct {
		name      string
		kind      models.PhaseKind
		noDeaths  int
		roll      int
		wantFatal bool
	}{
		{"roll below base factor", models.PhaseDay, 0, 0, true},
		{"roll at base factor", models.PhaseDay, 0, 1, false},
		{"bloodbath bump", models.PhaseBloodbath, 0, 1, true},
		{"drought raises factor", models.PhaseDay, 3, 3, true},
		{"drought still bounded", models.PhaseDay, 3, 4, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lib := duelLibrary()
			// factor base roll 0 gives a factor of 1 before bumps.
			e := NewEngine(lib, WithRand(&scriptedRand{ints: []int{0, tt.roll, 0, 0}}), WithoutDecay())
			s := models.NewGameSession("g", roster("A", "B"))
			s.ConsecutiveNoDeathPhases = tt.noDeaths

			events, err := e.RunPhaseEvents(s, tt.kind, lib.Day)
			require.NoError(t, err)
			require.NotEmpty(t, events)
			assert.Equal(t, tt.wantFatal, events[0].Fatal)
		})
	}
}

func TestNoFatalDrawWithOneSurvivor(t *testing.T) {
	lib := duelLibrary()
	lib.Generic.Fatal = []content.Action{{Msg: "{0} trips.", Tributes: 1, Killed: []int{0}}}
	e := NewEngine(lib, WithRand(&scriptedRand{}))
	s := models.NewGameSession("g", roster("A", "B"))
	s.Eliminate(s.Participant("B"))

	events, err := e.RunPhaseEvents(s, models.PhaseDay, lib.Day)
	require.NoError(t, err)
	assert.Equal(t, []string{"A rests."}, texts(events))
	assert.True(t, s.Participant("A").Alive)
	assert.Equal(t, 1, s.ConsecutiveNoDeathPhases)
}

func TestOrderHintSortsEventsStably(t *testing.T) {
	lib := &content.Library{Day: content.Phase{Nonfatal: []content.Action{
		{Msg: "{0} is found later.", Tributes: 1, Order: 1, Hidden: true},
		{Msg: "{0} rests.", Tributes: 1},
	}}}
	// factor 1, then nonfatal rolls for both draws
	e := NewEngine(lib, WithRand(&scriptedRand{ints: []int{0, 10, 0, 10, 0}}))
	s := models.NewGameSession("g", roster("A", "B"))

	events, err := e.RunPhaseEvents(s, models.PhaseDay, lib.Day)
	require.NoError(t, err)
	assert.Equal(t, []string{"B rests.", "A is found later."}, texts(events))
	assert.True(t, events[1].Hidden)
}

func TestPolymorphRendersBeforeTransforming(t *testing.T) {
	lib := &content.Library{Day: content.Phase{Nonfatal: []content.Action{
		{Msg: "{0} turns into {1}.", Tributes: 2, CustomHandler: "polymorph"},
	}}}
	e := NewEngine(lib, WithRand(&scriptedRand{ints: []int{0, 10}}))
	s := models.NewGameSession("g", roster("A", "B"))

	events, err := e.RunPhaseEvents(s, models.PhaseDay, lib.Day)
	require.NoError(t, err)
	assert.Equal(t, []string{"A turns into B."}, texts(events))

	tr, ok := s.Transformation("A")
	require.True(t, ok)
	assert.Equal(t, "B", tr.NewForm)
	assert.Equal(t, 1, tr.Day)
	assert.Equal(t, "B (formerly A)", TransformNamer{}.DisplayName(s, s.Participant("A")))
}

func TestUnknownHandlerIsSkipped(t *testing.T) {
	lib := &content.Library{Day: content.Phase{Nonfatal: []content.Action{
		{Msg: "{0} waves.", Tributes: 1, CustomHandler: "teleport"},
	}}}
	e := NewEngine(lib, WithRand(&scriptedRand{ints: []int{0, 10}}))
	s := models.NewGameSession("g", roster("A"))

	events, err := e.RunPhaseEvents(s, models.PhaseDay, lib.Day)
	require.NoError(t, err)
	assert.Equal(t, []string{"A waves."}, texts(events))
	assert.Empty(t, s.Aux.Transformations)
}

func TestUsernamesAreNotResolvedAsPlaceholders(t *testing.T) {
	lib := &content.Library{
		Day: content.Phase{Nonfatal: []content.Action{{Msg: "{0} lights a {weapon_fire}.", Tributes: 1}}},
		Items: map[string][]content.Noun{
			"weapon_fire": {{Name: "torch", MaxKills: 1}},
		},
	}
	e := NewEngine(lib, WithRand(&scriptedRand{ints: []int{0, 10}}))
	s := models.NewGameSession("g", []*models.Participant{{ID: "x", Username: "{weapon_fire}", Kind: models.KindHuman}})

	events, err := e.RunPhaseEvents(s, models.PhaseDay, lib.Day)
	require.NoError(t, err)
	assert.Equal(t, []string{"{weapon_fire} lights a torch."}, texts(events))
}

func TestTerminationWithAlwaysFatalAction(t *testing.T) {
	lib := &content.Library{Generic: content.Phase{
		Fatal: []content.Action{{Msg: "{0} perishes.", Tributes: 1, Killed: []int{0}}},
	}}
	e := NewEngine(lib, WithRand(NewRand(7)), WithoutDecay())
	s := models.NewGameSession("g", roster("A", "B", "C", "D", "E", "F"))

	for steps := 0; !s.IsComplete(); steps++ {
		require.Less(t, steps, 10000, "run did not terminate")
		_, err := e.Next(s)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, s.AliveCount())
	assert.Len(t, s.EliminationOrder, 5)

	_, err := e.Next(s)
	assert.ErrorIs(t, err, ErrGameOver)
}

// TestWholeGameProperties plays whole games over the built-in library and checks
// the properties every phase pass must keep.
func TestWholeGameProperties(t *testing.T) {
	lib := defaultLibrary(t)
	for seed := int64(1); seed <= 40; seed++ {
		t.Run(fmt.Sprintf("seed %d", seed), func(t *testing.T) {
			names := make([]string, 12)
			for i := range names {
				names[i] = fmt.Sprintf("p%02d", i)
			}
			e := NewEngine(lib, WithRand(NewRand(seed)))
			s := models.NewGameSession("g", roster(names...))
			dead := make(map[string]bool)

			for steps := 0; !s.IsComplete(); steps++ {
				require.Less(t, steps, 2000, "run did not terminate")

				aliveBefore := make(map[string]bool)
				for _, p := range s.Survivors() {
					aliveBefore[p.ID] = true
				}
				res, err := e.Next(s)
				if err != nil {
					require.ErrorIs(t, err, ErrNoSelectableAction)
				}

				seen := make(map[string]bool)
				templates := make(map[string]bool)
				for _, ev := range res.Events {
					assert.LessOrEqual(t, len(ev.Picks), len(aliveBefore))
					for _, id := range ev.Picks {
						assert.True(t, aliveBefore[id], "%s picked while dead", id)
						assert.False(t, seen[id], "%s picked twice in one phase", id)
						seen[id] = true
					}
					assert.False(t, templates[ev.Template], "template %q repeated in one phase", ev.Template)
					templates[ev.Template] = true
				}
				if err == nil && res.Step.Stage != models.StageFallen {
					assert.Len(t, seen, len(aliveBefore), "every living participant is consumed")
				}

				assert.Equal(t, len(s.Participants), s.AliveCount()+len(s.EliminationOrder))
				for _, p := range s.Participants {
					if dead[p.ID] {
						assert.False(t, p.Alive, "%s came back to life", p.ID)
					}
					if !p.Alive {
						dead[p.ID] = true
					}
				}
			}
			assert.Equal(t, 1, s.AliveCount())
		})
	}
}

func TestSeededRunsAreReproducible(t *testing.T) {
	play := func() []string {
		e := NewEngine(defaultLibrary(t), WithRand(NewRand(99)))
		s := models.NewGameSession("g", roster("A", "B", "C", "D", "E", "F", "G", "H"))
		var out []string
		for !s.IsComplete() {
			res, err := e.Next(s)
			if err != nil {
				require.ErrorIs(t, err, ErrNoSelectableAction)
			}
			out = append(out, texts(res.Events)...)
		}
		return out
	}

	first := play()
	require.NotEmpty(t, first)
	if diff := cmp.Diff(first, play()); diff != "" {
		t.Fatalf("same seed produced different runs (-first +second):\n%s", diff)
	}
}
