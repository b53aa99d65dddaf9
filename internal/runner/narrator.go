package runner

import (
	"fmt"
	"io"
	"strings"

	"github.com/tatianab/tribute-sim/internal/models"
)

// Header announces a simulated phase.
type Header struct {
	Day         int
	Stage       models.Stage
	Kind        models.PhaseKind
	Title       string
	Description string
	Color       string
}

// Recap reports who fell since the last recap.
type Recap struct {
	Title string
	Text  string
	IDs   []string
	Names []string // display names, parallel to IDs
}

// Results is the end-of-run announcement.
type Results struct {
	Title       string
	Description string
	Summary     models.RunSummary
	History     []models.PhaseLog
}

// Narrator receives a run as it unfolds. Calls come from the goroutine that
// drives the run, in order.
type Narrator interface {
	PhaseStarted(s *models.GameSession, h Header)
	Event(s *models.GameSession, ev models.EventRecord)
	Fallen(s *models.GameSession, r Recap)
	Finished(s *models.GameSession, res Results)
}

// Narrators fans every call out to each narrator in turn.
type Narrators []Narrator

func (ns Narrators) PhaseStarted(s *models.GameSession, h Header) {
	for _, n := range ns {
		n.PhaseStarted(s, h)
	}
}

func (ns Narrators) Event(s *models.GameSession, ev models.EventRecord) {
	for _, n := range ns {
		n.Event(s, ev)
	}
}

func (ns Narrators) Fallen(s *models.GameSession, r Recap) {
	for _, n := range ns {
		n.Fallen(s, r)
	}
}

func (ns Narrators) Finished(s *models.GameSession, res Results) {
	for _, n := range ns {
		n.Finished(s, res)
	}
}

// TextNarrator writes a plain transcript.
type TextNarrator struct {
	W io.Writer
}

func (t TextNarrator) PhaseStarted(_ *models.GameSession, h Header) {
	fmt.Fprintf(t.W, "\n== %s ==\n", h.Title)
	if h.Description != "" {
		fmt.Fprintln(t.W, h.Description)
	}
}

func (t TextNarrator) Event(_ *models.GameSession, ev models.EventRecord) {
	fmt.Fprintln(t.W, ev.Text)
}

func (t TextNarrator) Fallen(_ *models.GameSession, r Recap) {
	fmt.Fprintf(t.W, "\n-- %s --\n%s\n", r.Title, r.Text)
	for _, n := range r.Names {
		fmt.Fprintf(t.W, "- %s\n", n)
	}
}

func (t TextNarrator) Finished(_ *models.GameSession, res Results) {
	fmt.Fprintf(t.W, "\n%s\n%s\n", res.Title, res.Description)
	for _, p := range res.Summary.Placements {
		fmt.Fprintf(t.W, "#%d %s - %s\n", p.Place, p.Username, plural(p.Kills, "kill"))
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// fallenText is the recap line, e.g. "2 cannons can be heard going off in the distance."
func fallenText(n int, sound string) string {
	if strings.TrimSpace(sound) == "" {
		sound = "cannon"
	}
	return plural(n, sound) + " can be heard going off in the distance."
}
