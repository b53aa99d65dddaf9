package engine

import (
	"regexp"

	"github.com/tatianab/tribute-sim/internal/models"
)

const (
	decayWindow   = 10  // phases a template use is remembered for
	decayFloor    = 0.1 // weight factor in the phase right after a use
	decayRecovery = 0.3 // factor regained per further phase
)

var placeholderRE = regexp.MustCompile(`\{[^{}]*\}`)

// NormalizeTemplate collapses every {placeholder} so different substitutions
// of one message count as the same template.
func NormalizeTemplate(msg string) string {
	return placeholderRE.ReplaceAllString(msg, "{*}")
}

// decayTracker scopes template usage to one phase pass and folds it into the
// session history when the pass ends.
type decayTracker struct {
	session *models.GameSession
	phase   int
	enabled bool
	used    map[string]bool
}

func newDecayTracker(s *models.GameSession, enabled bool) *decayTracker {
	if s.RecentTemplates == nil {
		s.RecentTemplates = make(map[string]int)
	}
	return &decayTracker{
		session: s,
		phase:   s.PhasesRun,
		enabled: enabled,
		used:    make(map[string]bool),
	}
}

func (d *decayTracker) factor(template string) float64 {
	if !d.enabled {
		return 1
	}
	if d.used[template] {
		return 0
	}
	last, ok := d.session.RecentTemplates[template]
	if !ok {
		return 1
	}
	elapsed := d.phase - last
	if elapsed < 1 || elapsed > decayWindow {
		return 1
	}
	return min(1, decayFloor+decayRecovery*float64(elapsed-1))
}

func (d *decayTracker) markUsed(template string) {
	d.used[template] = true
}

func (d *decayTracker) commit() {
	for tpl := range d.used {
		d.session.RecentTemplates[tpl] = d.phase
	}
	for tpl, last := range d.session.RecentTemplates {
		if d.phase-last >= decayWindow {
			delete(d.session.RecentTemplates, tpl)
		}
	}
	d.session.PhasesRun++
}
