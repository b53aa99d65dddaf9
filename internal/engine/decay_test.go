package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tatianab/tribute-sim/internal/models"
)

func TestNormalizeTemplate(t *testing.T) {
	assert.Equal(t, "{*} hits {*} with a {*}.", NormalizeTemplate("{0} hits {1} with a {weapon_any}."))
	assert.Equal(t, NormalizeTemplate("{0} eats {food_good}."), NormalizeTemplate("{1} eats {food_bad}."))
	assert.Equal(t, "no slots", NormalizeTemplate("no slots"))
}

func TestDecayRecovery(t *testing.T) {
	tests := []struct {
		elapsed int
		want    float64
	}{
		{1, 0.1},
		{2, 0.4},
		{3, 0.7},
		{4, 1},
		{9, 1},
	}
	for _, tt := range tests {
		s := models.NewGameSession("g", nil)
		s.RecentTemplates["t"] = 5
		s.PhasesRun = 5 + tt.elapsed
		d := newDecayTracker(s, true)
		assert.InDelta(t, tt.want, d.factor("t"), 1e-9, "elapsed %d", tt.elapsed)
	}
}

func TestDecayWithinPhase(t *testing.T) {
	s := models.NewGameSession("g", nil)
	d := newDecayTracker(s, true)
	assert.Equal(t, 1.0, d.factor("t"))
	d.markUsed("t")
	assert.Equal(t, 0.0, d.factor("t"))

	off := newDecayTracker(s, false)
	off.markUsed("t")
	assert.Equal(t, 1.0, off.factor("t"))
}

func TestDecayCommitPrunesOldHistory(t *testing.T) {
	s := models.NewGameSession("g", nil)
	s.PhasesRun = 12
	s.RecentTemplates["stale"] = 2
	s.RecentTemplates["fresh"] = 8

	d := newDecayTracker(s, true)
	d.markUsed("new")
	d.commit()

	assert.Equal(t, map[string]int{"fresh": 8, "new": 12}, s.RecentTemplates)
	assert.Equal(t, 13, s.PhasesRun)

	next := newDecayTracker(s, true)
	assert.InDelta(t, 0.1, next.factor("new"), 1e-9)
}
