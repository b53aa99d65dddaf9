package author

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tatianab/tribute-sim/internal/content"
	"github.com/tatianab/tribute-sim/internal/models"
)

type fakeGenerator struct {
	reply  string
	err    error
	prompt string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.reply, f.err
}

const draftReply = "```yaml\n" + `day:
  nonfatal:
    - msg: "{0} polishes a {weapon_blunt}."
      tributes: 1
    - msg: "{0} waves at {3}."
      tributes: 2
  fatal:
    - msg: "{0} pushes {1} off a cliff."
      tributes: 2
      killed: [1]
      killer: [0]
    - msg: "{0} sighs."
      tributes: 1
arena:
  title: "Arena Event: Sandstorm"
  description: "The wind picks up."
  fatal:
    - msg: "{0} is buried in sand."
      tributes: 1
      killed: [0]
night:
  nonfatal:
    - msg: ""
      tributes: 1
` + "```"

func testLibrary() *content.Library {
	return &content.Library{Items: map[string][]content.Noun{"weapon_blunt": {{Name: "club", MaxKills: 1}}}}
}

func TestDraftActions(t *testing.T) {
	gen := &fakeGenerator{reply: draftReply}
	a := &Author{gen: gen, log: zerolog.Nop()}

	drafts, err := a.DraftActions(context.Background(), "desert planet", testLibrary())
	require.NoError(t, err)

	assert.Contains(t, gen.prompt, "desert planet")
	assert.Contains(t, gen.prompt, "{weapon_blunt}")

	require.Contains(t, drafts, "day")
	assert.Len(t, drafts["day"].Nonfatal, 1, "slot beyond tributes is dropped")
	assert.Len(t, drafts["day"].Fatal, 1, "fatal entry without victims is dropped")
	assert.Equal(t, "Arena Event: Sandstorm", drafts["arena"].Title)
	assert.NotContains(t, drafts, "night", "a key left with no valid actions is omitted")

	lib := testLibrary()
	lib.Merge(drafts)
	assert.Len(t, lib.Arena, 1)
	assert.Len(t, lib.Day.Fatal, 1)
}

func TestDraftActionsErrors(t *testing.T) {
	a := &Author{gen: &fakeGenerator{err: errors.New("quota")}, log: zerolog.Nop()}
	_, err := a.DraftActions(context.Background(), "x", testLibrary())
	assert.ErrorContains(t, err, "quota")

	a.gen = &fakeGenerator{reply: "not: [valid"}
	_, err = a.DraftActions(context.Background(), "x", testLibrary())
	assert.ErrorContains(t, err, "failed to parse drafted YAML")

	a.gen = &fakeGenerator{reply: "day:\n  fatal:\n    - msg: \"{0} naps.\"\n      tributes: 1\n"}
	_, err = a.DraftActions(context.Background(), "x", testLibrary())
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestSummarizeRun(t *testing.T) {
	gen := &fakeGenerator{reply: "  Ana outlasted everyone.  "}
	a := &Author{gen: gen, log: zerolog.Nop()}

	s := models.NewGameSession("g", []*models.Participant{
		{ID: "1", Username: "Ana", Kind: models.KindHuman},
		{ID: "2", Username: "Bo", Kind: models.KindHuman},
	})
	s.Eliminate(s.Participant("2"))
	history := []models.PhaseLog{{Day: 1, Title: "The Bloodbath", Events: []models.EventRecord{{Text: "Ana kills Bo."}}}}

	recap, err := a.SummarizeRun(context.Background(), s, history)
	require.NoError(t, err)
	assert.Equal(t, "Ana outlasted everyone.", recap)
	assert.Contains(t, gen.prompt, "Winner: Ana")
	assert.Contains(t, gen.prompt, "- Ana kills Bo.")
}
