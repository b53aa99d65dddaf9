// Package author drafts themed game content and run recaps with Gemini.
package author

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"github.com/tatianab/tribute-sim/internal/content"
	"github.com/tatianab/tribute-sim/internal/models"
	"google.golang.org/api/option"
	"gopkg.in/yaml.v3"
)

//go:embed prompts/draft_actions.txt
var draftActionsPrompt string

//go:embed prompts/summarize_run.txt
var summarizeRunPrompt string

var (
	draftTmpl     = template.Must(template.New("draft_actions").Parse(draftActionsPrompt))
	summarizeTmpl = template.Must(template.New("summarize_run").Parse(summarizeRunPrompt))
)

// ErrNoContent is returned when the model answers with nothing usable.
var ErrNoContent = errors.New("no content returned from Gemini")

// generator turns a prompt into text.
type generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type geminiGenerator struct {
	model *genai.GenerativeModel
}

func (g geminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ErrNoContent
	}
	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", fmt.Errorf("unexpected response type from Gemini")
	}
	return string(text), nil
}

type Author struct {
	client *genai.Client
	gen    generator
	log    zerolog.Logger
}

func NewAuthor(ctx context.Context, apiKey string, log zerolog.Logger) (*Author, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	model := client.GenerativeModel("gemini-2.5-flash")
	return &Author{
		client: client,
		gen:    geminiGenerator{model: model},
		log:    log.With().Str("component", "author").Logger(),
	}, nil
}

func (a *Author) Close() {
	if a.client != nil {
		a.client.Close()
	}
}

// DraftActions asks for themed actions that fit lib's placeholder categories.
// Drafts that fail validation are dropped; the rest are keyed the way
// content.Library.Merge expects.
func (a *Author) DraftActions(ctx context.Context, theme string, lib *content.Library) (map[string]content.Phase, error) {
	var buf bytes.Buffer
	data := struct {
		Theme      string
		Categories []string
		Count      int
	}{
		Theme:      theme,
		Categories: lib.CategoryList(),
		Count:      4,
	}
	if err := draftTmpl.Execute(&buf, data); err != nil {
		return nil, err
	}

	text, err := a.gen.Generate(ctx, buf.String())
	if err != nil {
		return nil, fmt.Errorf("draft actions: %w", err)
	}

	drafts, err := parseDrafts(text)
	if err != nil {
		return nil, err
	}
	kept, dropped := filterDrafts(drafts)
	if dropped > 0 {
		a.log.Warn().Int("dropped", dropped).Str("theme", theme).Msg("discarded invalid drafted actions")
	}
	if len(kept) == 0 {
		return nil, ErrNoContent
	}
	return kept, nil
}

// SummarizeRun writes a short recap of a finished run from its phase logs.
func (a *Author) SummarizeRun(ctx context.Context, s *models.GameSession, history []models.PhaseLog) (string, error) {
	var events strings.Builder
	for _, h := range history {
		fmt.Fprintf(&events, "%s\n", h.Title)
		for _, ev := range h.Events {
			fmt.Fprintf(&events, "- %s\n", ev.Text)
		}
	}

	winner := "nobody"
	if survivors := s.Survivors(); len(survivors) == 1 {
		winner = survivors[0].Username
	}

	var buf bytes.Buffer
	data := struct {
		Winner string
		Days   int
		Events string
	}{
		Winner: winner,
		Days:   s.CurrentDay,
		Events: events.String(),
	}
	if err := summarizeTmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	text, err := a.gen.Generate(ctx, buf.String())
	if err != nil {
		return "", fmt.Errorf("summarize run: %w", err)
	}
	recap := strings.TrimSpace(text)
	if recap == "" {
		return "", ErrNoContent
	}
	return recap, nil
}

func cleanYAML(text string) string {
	clean := strings.TrimSpace(text)
	clean = strings.TrimPrefix(clean, "```yaml")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	return strings.TrimSpace(clean)
}

func parseDrafts(text string) (map[string]content.Phase, error) {
	clean := cleanYAML(text)
	var drafts map[string]content.Phase
	if err := yaml.Unmarshal([]byte(clean), &drafts); err != nil {
		return nil, fmt.Errorf("failed to parse drafted YAML: %w\nOutput was: %s", err, clean)
	}
	return drafts, nil
}

// filterDrafts keeps only actions that validate and sit in the right pool.
func filterDrafts(drafts map[string]content.Phase) (map[string]content.Phase, int) {
	kept := make(map[string]content.Phase, len(drafts))
	dropped := 0
	keep := func(actions []content.Action, fatal bool) []content.Action {
		var out []content.Action
		for _, act := range actions {
			if content.ValidateAction(act) != nil || act.Fatal() != fatal {
				dropped++
				continue
			}
			out = append(out, act)
		}
		return out
	}
	for key, p := range drafts {
		p.Fatal = keep(p.Fatal, true)
		p.Nonfatal = keep(p.Nonfatal, false)
		if len(p.Fatal)+len(p.Nonfatal) == 0 {
			continue
		}
		kept[key] = p
	}
	return kept, dropped
}
