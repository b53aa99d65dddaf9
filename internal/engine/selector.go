package engine

import (
	"math"

	"github.com/tatianab/tribute-sim/internal/content"
)

// Candidate is an action eligible for selection with its effective weight.
type Candidate struct {
	Action   content.Action
	Template string
	Weight   float64
}

// Select draws one candidate with probability proportional to its weight.
// Zero-weight candidates are never chosen.
func Select(rng Rand, pool []Candidate) (Candidate, error) {
	var total float64
	for _, c := range pool {
		if c.Weight > 0 {
			total += c.Weight
		}
	}
	if total <= 0 {
		return Candidate{}, ErrNoSelectableAction
	}
	r := rng.Float64() * total
	var acc float64
	last := -1
	for i, c := range pool {
		if c.Weight <= 0 {
			continue
		}
		last = i
		acc += c.Weight
		if acc >= r {
			return c, nil
		}
	}
	// Float rounding can leave r a hair above the final sum.
	return pool[last], nil
}

// specialMultiplier is how much phase-specific actions outweigh generic ones
// so that themed content dominates special phases.
func specialMultiplier(phaseLen, genericLen int) float64 {
	if phaseLen == 0 || genericLen == 0 {
		return 1
	}
	return math.Ceil(3 * float64(genericLen) / float64(phaseLen))
}

// buildPool assembles the candidates for one draw: the phase pool plus the
// generic pool, minus actions that need more participants than are alive.
func (e *Engine) buildPool(phase content.Phase, special, fatal bool, alive int, decay *decayTracker) []Candidate {
	phaseActions := phase.Pool(fatal)
	generic := e.lib.Generic.Pool(fatal)

	mult := 1.0
	if special {
		mult = specialMultiplier(len(phaseActions), len(generic))
	}

	pool := make([]Candidate, 0, len(phaseActions)+len(generic))
	add := func(actions []content.Action, m float64) {
		for _, a := range actions {
			if a.Tributes < 1 || a.Tributes > alive {
				continue
			}
			tpl := NormalizeTemplate(a.Msg)
			pool = append(pool, Candidate{
				Action:   a,
				Template: tpl,
				Weight:   a.BaseWeight() * m * decay.factor(tpl),
			})
		}
	}
	add(phaseActions, mult)
	add(generic, 1)
	return pool
}
