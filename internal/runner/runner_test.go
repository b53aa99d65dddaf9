package runner

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tatianab/tribute-sim/internal/content"
	"github.com/tatianab/tribute-sim/internal/engine"
	"github.com/tatianab/tribute-sim/internal/models"
)

type recordingNarrator struct {
	headers  []Header
	events   []models.EventRecord
	recaps   []Recap
	finished []Results
}

func (n *recordingNarrator) PhaseStarted(_ *models.GameSession, h Header) {
	n.headers = append(n.headers, h)
}

func (n *recordingNarrator) Event(_ *models.GameSession, ev models.EventRecord) {
	n.events = append(n.events, ev)
}

func (n *recordingNarrator) Fallen(_ *models.GameSession, r Recap) {
	n.recaps = append(n.recaps, r)
}

func (n *recordingNarrator) Finished(_ *models.GameSession, res Results) {
	n.finished = append(n.finished, res)
}

type fakeRecorder struct {
	runs []models.RunSummary
	err  error
}

func (f *fakeRecorder) RecordRun(_ context.Context, sum models.RunSummary) error {
	f.runs = append(f.runs, sum)
	return f.err
}

func newEngine(t *testing.T, seed int64) *engine.Engine {
	t.Helper()
	lib, err := content.Default()
	require.NoError(t, err)
	return engine.NewEngine(lib, engine.WithRand(engine.NewRand(seed)))
}

func humans(names ...string) []*models.Participant {
	out := make([]*models.Participant, 0, len(names))
	for _, n := range names {
		out = append(out, &models.Participant{ID: n, Username: n, Kind: models.KindHuman})
	}
	return out
}

func TestRunToCompletion(t *testing.T) {
	narr := &recordingNarrator{}
	rec := &fakeRecorder{}
	r := New(newEngine(t, 3), WithNarrator(narr), WithRecorder(rec))
	s := models.NewGameSession("g1", humans("A", "B", "C", "D", "E", "F"))

	res, err := r.Run(context.Background(), s)
	require.NoError(t, err)

	assert.True(t, s.IsComplete())
	require.Len(t, narr.finished, 1)
	require.Len(t, rec.runs, 1)
	assert.Equal(t, res.Summary, rec.runs[0])
	assert.Len(t, res.Summary.Placements, 6)
	assert.NotEmpty(t, res.History)
	assert.Equal(t, models.PhaseBloodbath, narr.headers[0].Kind)

	for _, ev := range narr.events {
		assert.False(t, ev.Hidden, "hidden events are not narrated")
	}

	recapped := 0
	for _, rc := range narr.recaps {
		recapped += len(rc.IDs)
		assert.Len(t, rc.Names, len(rc.IDs))
		assert.Contains(t, rc.Text, "can be heard going off in the distance.")
	}
	assert.Equal(t, len(s.EliminationOrder), recapped, "every death is recapped once")
	assert.Empty(t, s.FallenSinceRecap)
}

func TestRunStopsWhenCancelled(t *testing.T) {
	narr := &recordingNarrator{}
	r := New(newEngine(t, 1), WithNarrator(narr))
	s := models.NewGameSession("g1", humans("A", "B", "C"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Run(ctx, s)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, narr.finished)
	assert.Equal(t, models.StageBloodbath, s.Stage, "no step starts after cancellation")
}

func TestRunReportsRecorderFailure(t *testing.T) {
	r := New(newEngine(t, 5), WithRecorder(&fakeRecorder{err: errors.New("disk full")}))
	s := models.NewGameSession("g1", humans("A", "B"))

	res, err := r.Run(context.Background(), s)
	assert.ErrorContains(t, err, "record run: disk full")
	assert.NotEmpty(t, res.Summary.Placements)
}

func TestRunSavesHistory(t *testing.T) {
	old := models.SaveDir
	models.SaveDir = t.TempDir()
	t.Cleanup(func() { models.SaveDir = old })

	r := New(newEngine(t, 11), WithSave("current"))
	s := models.NewGameSession("g1", humans("A", "B", "C", "D"))

	res, err := r.Run(context.Background(), s)
	require.NoError(t, err)

	loaded, err := models.LoadSession("current")
	require.NoError(t, err)
	assert.Equal(t, s.AliveCount(), loaded.AliveCount())

	history, err := models.LoadHistory("current")
	require.NoError(t, err)
	assert.Len(t, history, len(res.History))
}

func TestResultsMessages(t *testing.T) {
	r := New(newEngine(t, 1))

	s := models.NewGameSession("g1", humans("A", "B"))
	s.CurrentDay = 4
	s.Eliminate(s.Participant("B"))
	res := r.results(s)
	assert.Equal(t, "A won the Tribute Games!", res.Title)
	assert.Equal(t, "After 4 days of battle, a winner emerges!", res.Description)

	engine.Polymorph([]*models.Participant{s.Participant("A"), s.Participant("B")}, 2, &s.Aux)
	res = r.results(s)
	assert.Equal(t, "B won the Tribute Games! wait.. thats not right.. A won? what?", res.Title)
	assert.Equal(t, []string{"B"}, res.Summary.SharedWins)

	s.Eliminate(s.Participant("A"))
	res = r.results(s)
	assert.Equal(t, "No one survived the Tribute Games!", res.Title)
}

func TestFallenText(t *testing.T) {
	assert.Equal(t, "1 cannon can be heard going off in the distance.", fallenText(1, "cannon"))
	assert.Equal(t, "3 cannons can be heard going off in the distance.", fallenText(3, ""))
	assert.Equal(t, "2 nukes can be heard going off in the distance.", fallenText(2, "nuke"))
}

func TestTextNarrator(t *testing.T) {
	var buf bytes.Buffer
	n := TextNarrator{W: &buf}
	n.PhaseStarted(nil, Header{Title: "Day 2", Description: "The sun rises."})
	n.Event(nil, models.EventRecord{Text: "A rests."})
	n.Fallen(nil, Recap{Title: "Fallen Tributes", Text: fallenText(1, "cannon"), Names: []string{"B"}})
	n.Finished(nil, Results{Title: "A won the Tribute Games!", Summary: models.RunSummary{
		Placements: []models.PlacementSummary{{Place: 1, Username: "A", Kills: 1}},
	}})

	out := buf.String()
	assert.Contains(t, out, "== Day 2 ==")
	assert.Contains(t, out, "A rests.")
	assert.Contains(t, out, "- B")
	assert.Contains(t, out, "#1 A - 1 kill\n")
}

func TestPacer(t *testing.T) {
	p := NewPacer(time.Hour, 0)
	ctx := context.Background()

	require.NoError(t, p.Event(ctx), "the first event is not delayed")
	for range 3 {
		require.NoError(t, p.Phase(ctx), "a zero delay never waits")
	}

	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.Error(t, p.Event(short))

	var none *Pacer
	assert.NoError(t, none.Event(ctx))
}

var syntheticName = regexp.MustCompile(`^[A-Z][a-z]+[A-Z][a-z]+\d{3}$`)

func TestNewRoster(t *testing.T) {
	rng := engine.NewRand(1)
	ps, err := NewRoster([]Entrant{{"1", "ana"}, {"2", "bo"}, {"1", "ana again"}}, 3, 2, rng)
	require.NoError(t, err)
	require.Len(t, ps, 5)

	assert.Equal(t, "ana", ps[0].Username)
	assert.Equal(t, models.KindHuman, ps[1].Kind)
	for _, p := range ps[2:] {
		assert.Equal(t, models.KindSynthetic, p.Kind)
		assert.Regexp(t, syntheticName, p.Username)
		assert.True(t, len(p.ID) > len(SyntheticPrefix))
	}

	_, err = NewRoster([]Entrant{{"1", "ana"}}, 0, 2, rng)
	assert.ErrorIs(t, err, ErrNotEnoughPlayers)
}

func TestNewSession(t *testing.T) {
	s := NewSession(humans("A", "B"))
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, models.StageBloodbath, s.Stage)
	assert.Equal(t, 1, s.CurrentDay)
}
