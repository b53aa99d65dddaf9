package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/tatianab/tribute-sim/internal/engine"
	"github.com/tatianab/tribute-sim/internal/models"
	"github.com/tatianab/tribute-sim/internal/runner"
)

// playerLine is a copy of one participant for the side panel. The run
// goroutine owns the session, so the view never reads it directly.
type playerLine struct {
	Name  string
	Alive bool
	Kills int
}

type phaseMsg struct {
	header runner.Header
	roster []playerLine
}

type eventMsg struct {
	event  models.EventRecord
	roster []playerLine
}

type fallenMsg struct {
	recap  runner.Recap
	roster []playerLine
}

type finishedMsg struct {
	results runner.Results
	roster  []playerLine
}

// runDoneMsg is sent once the run goroutine returns.
type runDoneMsg struct {
	session *models.GameSession
	results runner.Results
	err     error
}

// chanNarrator forwards narration into the program through a channel that
// the model drains one message at a time.
type chanNarrator struct {
	ch    chan<- tea.Msg
	namer engine.Namer
}

var _ runner.Narrator = chanNarrator{}

func (n chanNarrator) snapshot(s *models.GameSession) []playerLine {
	out := make([]playerLine, 0, len(s.Participants))
	for _, p := range s.Participants {
		out = append(out, playerLine{Name: n.namer.DisplayName(s, p), Alive: p.Alive, Kills: p.Kills})
	}
	return out
}

func (n chanNarrator) PhaseStarted(s *models.GameSession, h runner.Header) {
	n.ch <- phaseMsg{header: h, roster: n.snapshot(s)}
}

func (n chanNarrator) Event(s *models.GameSession, ev models.EventRecord) {
	n.ch <- eventMsg{event: ev, roster: n.snapshot(s)}
}

func (n chanNarrator) Fallen(s *models.GameSession, r runner.Recap) {
	n.ch <- fallenMsg{recap: r, roster: n.snapshot(s)}
}

func (n chanNarrator) Finished(s *models.GameSession, res runner.Results) {
	n.ch <- finishedMsg{results: res, roster: n.snapshot(s)}
}

func listen(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}
