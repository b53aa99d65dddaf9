package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tatianab/tribute-sim/internal/content"
	"github.com/tatianab/tribute-sim/internal/models"
)

func TestFeastChance(t *testing.T) {
	assert.InDelta(t, 9.0/5500, feastChance(0), 1e-12)
	assert.InDelta(t, (100*49.0/55+9.0/55)/100, feastChance(7), 1e-12)
	assert.Equal(t, 1.0, feastChance(8))
	for d := 1; d < 10; d++ {
		assert.GreaterOrEqual(t, feastChance(d), feastChance(d-1))
	}
}

func TestStepType(t *testing.T) {
	tests := []struct {
		name   string
		day    int
		since  int
		isDay  bool
		rng    *scriptedRand
		want   models.PhaseKind
		wantSi int
	}{
		{"first day is ordinary", 1, 9, true, &scriptedRand{}, models.PhaseDay, 10},
		{"feast", 2, 3, true, &scriptedRand{floats: []float64{0}}, models.PhaseFeast, 0},
		{"no feast at night", 2, 3, false, &scriptedRand{ints: []int{5}}, models.PhaseNight, 4},
		{"arena at night", 2, 2, false, &scriptedRand{ints: []int{0}}, models.PhaseArena, 0},
		{"arena needs a gap", 3, 0, true, &scriptedRand{floats: []float64{0.5}, ints: []int{0}}, models.PhaseDay, 1},
		{"arena on a day", 3, 1, true, &scriptedRand{floats: []float64{0.5}, ints: []int{0}}, models.PhaseArena, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(&content.Library{}, WithRand(tt.rng))
			s := models.NewGameSession("g", nil)
			s.CurrentDay = tt.day
			s.DaysSinceSpecialEvent = tt.since

			assert.Equal(t, tt.want, e.StepType(s, tt.isDay))
			assert.Equal(t, tt.wantSi, s.DaysSinceSpecialEvent)
		})
	}
}

func TestPickVariantCyclesBeforeRepeating(t *testing.T) {
	rng := &scriptedRand{}
	var used []int
	var got []int
	for range 4 {
		var v int
		v, used = pickVariant(rng, 3, used)
		got = append(got, v)
	}
	assert.Equal(t, []int{0, 1, 2, 0}, got)
	assert.Equal(t, []int{0}, used)

	v, _ := pickVariant(rng, 0, nil)
	assert.Equal(t, -1, v)
}

func quietLibrary() *content.Library {
	return &content.Library{
		Bloodbath: content.Phase{Title: "The Bloodbath"},
		Day:       content.Phase{Title: "Day {0}"},
		Night:     content.Phase{Title: "Night {0}"},
		Generic:   content.Phase{Nonfatal: []content.Action{{Msg: "{0} waits.", Tributes: 1}}},
	}
}

func TestNextWalksTheStageCycle(t *testing.T) {
	e := NewEngine(quietLibrary(), WithRand(&scriptedRand{}))
	s := models.NewGameSession("g", roster("A", "B", "C"))

	type step struct {
		stage models.Stage
		kind  models.PhaseKind
		title string
	}
	var got []step
	for range 5 {
		res, err := e.Next(s)
		require.NoError(t, err)
		got = append(got, step{res.Step.Stage, res.Step.Kind, res.Step.Title()})
	}

	// Nobody dies, so every fallen recap is skipped. The day 2 feast roll
	// succeeds but there are no feast variants to play.
	assert.Equal(t, []step{
		{models.StageBloodbath, models.PhaseBloodbath, "The Bloodbath"},
		{models.StageDay, models.PhaseDay, "Day 1"},
		{models.StageNight, models.PhaseNight, "Night 1"},
		{models.StageDay, models.PhaseDay, "Day 2"},
		{models.StageNight, models.PhaseNight, "Night 2"},
	}, got)
	assert.Equal(t, 3, s.CurrentDay, "the night advances to the next day")
	assert.Equal(t, models.StageDay, s.Stage)
	assert.Equal(t, 5, s.PhasesRun)
}

func TestFallenRecap(t *testing.T) {
	e := NewEngine(quietLibrary(), WithRand(&scriptedRand{}))
	s := models.NewGameSession("g", roster("A", "B", "C"))
	s.Stage = models.StageFallen
	s.Eliminate(s.Participant("B"))

	res, err := e.Next(s)
	require.NoError(t, err)
	assert.Equal(t, models.StageFallen, res.Step.Stage)
	assert.Equal(t, "Fallen Tributes", res.Step.Title())
	assert.Equal(t, []string{"B"}, res.Fallen)
	assert.Empty(t, s.FallenSinceRecap)
	assert.Equal(t, models.StageNight, s.Stage)
	assert.Equal(t, 0, s.PhasesRun, "a recap is not a simulated phase")
}

func TestFeastVariantsAreUnique(t *testing.T) {
	lib := quietLibrary()
	lib.Feast = content.Variants{{Title: "Feast One"}, {Title: "Feast Two"}}
	e := NewEngine(lib, WithRand(&scriptedRand{}))

	var titles []string
	for range 3 {
		s := models.NewGameSession("g", roster("A", "B"))
		s.Stage = models.StageDay
		s.CurrentDay = 4
		s.DaysSinceSpecialEvent = 9
		if len(titles) > 0 {
			s.UsedFeast = []int{0}
		}
		if len(titles) > 1 {
			s.UsedFeast = []int{0, 1}
		}
		st, err := e.Plan(s)
		require.NoError(t, err)
		assert.Equal(t, models.PhaseFeast, st.Kind)
		titles = append(titles, st.Title())
	}
	assert.Equal(t, []string{"Feast One", "Feast Two", "Feast One"}, titles)
}

func TestPlanOnFinishedGame(t *testing.T) {
	e := NewEngine(quietLibrary(), WithRand(&scriptedRand{}))
	s := models.NewGameSession("g", roster("A"))

	_, err := e.Plan(s)
	assert.ErrorIs(t, err, ErrGameOver)
}
