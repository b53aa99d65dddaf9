// Package content holds the authored narrative data a game draws from:
// phase action libraries and the item/material taxonomies used to fill
// category placeholders.
package content

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Action is an authored event template. It is never mutated after loading.
type Action struct {
	Msg           string  `yaml:"msg"`
	Tributes      int     `yaml:"tributes"`
	Weight        float64 `yaml:"weight,omitempty"`
	Killed        []int   `yaml:"killed,omitempty"`
	Killer        []int   `yaml:"killer,omitempty"`
	CustomHandler string  `yaml:"custom_handler,omitempty"`
	Hidden        bool    `yaml:"hidden,omitempty"`
	Order         int     `yaml:"order,omitempty"`
}

// Fatal reports whether the action kills anyone.
func (a Action) Fatal() bool { return len(a.Killed) > 0 }

// BaseWeight is the declared weight, or 1 when unset or non-positive.
func (a Action) BaseWeight() float64 {
	if a.Weight > 0 {
		return a.Weight
	}
	return 1
}

// Phase is the action library and presentation for one phase type.
type Phase struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description,omitempty"`
	Color       string   `yaml:"color,omitempty"`
	Fatal       []Action `yaml:"fatal,omitempty"`
	Nonfatal    []Action `yaml:"nonfatal,omitempty"`
}

// Pool returns the fatal or non-fatal sub-library.
func (p Phase) Pool(fatal bool) []Action {
	if fatal {
		return p.Fatal
	}
	return p.Nonfatal
}

// HeaderTitle renders the title with {0} replaced by the day number.
func (p Phase) HeaderTitle(day int) string {
	return strings.ReplaceAll(p.Title, "{0}", fmt.Sprint(day))
}

// Variants is a list of phases that may be written in YAML as a single
// mapping or as a sequence.
type Variants []Phase

func (v *Variants) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.MappingNode {
		var single Phase
		if err := node.Decode(&single); err != nil {
			return err
		}
		*v = Variants{single}
		return nil
	}
	var many []Phase
	if err := node.Decode(&many); err != nil {
		return err
	}
	*v = many
	return nil
}

// Noun is a substitutable item or material. Materials are often written as
// bare strings.
type Noun struct {
	Name     string `yaml:"name"`
	MaxKills int    `yaml:"max_kills,omitempty"`
}

func (n *Noun) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		n.Name = node.Value
		return nil
	}
	type plain Noun
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*n = Noun(p)
	return nil
}

// Terminology customises the words used by narration shells.
type Terminology struct {
	PlayerSingular string `yaml:"player_singular"`
	PlayerPlural   string `yaml:"player_plural"`
	FallenPlayers  string `yaml:"fallen_players"`
	DeathSound     string `yaml:"death_sound"`
}

// Library is the full content set for one theme.
type Library struct {
	Title       string      `yaml:"title"`
	AppName     string      `yaml:"app_name"`
	Terminology Terminology `yaml:"terminology"`

	// Categories lists placeholder categories in resolution order. When empty
	// the union of item and material keys is used.
	Categories []string `yaml:"categories,omitempty"`

	Bloodbath Phase    `yaml:"bloodbath"`
	Day       Phase    `yaml:"day"`
	Night     Phase    `yaml:"night"`
	Feast     Variants `yaml:"feast,omitempty"`
	Arena     Variants `yaml:"arena,omitempty"`
	Generic   Phase    `yaml:"generic"`

	Items     map[string][]Noun `yaml:"items"`
	Materials map[string][]Noun `yaml:"materials"`
}

// CategoryList returns the placeholder categories in resolution order.
func (l *Library) CategoryList() []string {
	if len(l.Categories) > 0 {
		return l.Categories
	}
	seen := make(map[string]bool, len(l.Items)+len(l.Materials))
	var out []string
	for k := range l.Items {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	for k := range l.Materials {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Merge appends drafted actions to the library. Phase-keyed drafts extend the
// matching phase; anything else lands in the generic pools.
func (l *Library) Merge(drafts map[string]Phase) {
	for key, d := range drafts {
		var target *Phase
		switch key {
		case "bloodbath":
			target = &l.Bloodbath
		case "day":
			target = &l.Day
		case "night":
			target = &l.Night
		case "arena":
			if d.Title != "" {
				l.Arena = append(l.Arena, d)
				continue
			}
			target = &l.Generic
		default:
			target = &l.Generic
		}
		target.Fatal = append(target.Fatal, d.Fatal...)
		target.Nonfatal = append(target.Nonfatal, d.Nonfatal...)
	}
}

// Clone returns a deep enough copy that merging drafts does not touch l.
func (l *Library) Clone() *Library {
	c := *l
	clonePhase := func(p Phase) Phase {
		p.Fatal = append([]Action(nil), p.Fatal...)
		p.Nonfatal = append([]Action(nil), p.Nonfatal...)
		return p
	}
	c.Bloodbath = clonePhase(l.Bloodbath)
	c.Day = clonePhase(l.Day)
	c.Night = clonePhase(l.Night)
	c.Generic = clonePhase(l.Generic)
	c.Feast = nil
	for _, p := range l.Feast {
		c.Feast = append(c.Feast, clonePhase(p))
	}
	c.Arena = nil
	for _, p := range l.Arena {
		c.Arena = append(c.Arena, clonePhase(p))
	}
	return &c
}
