package engine

import (
	"strings"

	"github.com/tatianab/tribute-sim/internal/content"
)

const (
	itemAny     = "item_any"
	materialAny = "material_any"
	weaponAny   = "weapon_any"
)

// Resolver fills {category} placeholders with nouns from the library.
type Resolver struct {
	lib        *content.Library
	rng        Rand
	base       []string
	categories []string
}

func NewResolver(lib *content.Library, rng Rand) *Resolver {
	base := lib.CategoryList()
	r := &Resolver{lib: lib, rng: rng, base: base}

	seen := make(map[string]bool)
	add := func(cat string) {
		if !seen[cat] {
			seen[cat] = true
			r.categories = append(r.categories, cat)
		}
	}
	for _, cat := range base {
		add(cat)
	}
	add(itemAny)
	add(materialAny)

	prefixCount := make(map[string]int)
	var prefixes []string
	for _, cat := range base {
		i := strings.Index(cat, "_")
		if i <= 0 {
			continue
		}
		p := cat[:i+1]
		if prefixCount[p] == 0 {
			prefixes = append(prefixes, p)
		}
		prefixCount[p]++
	}
	if prefixCount["weapon_"] > 0 {
		add(weaponAny)
	}
	for _, p := range prefixes {
		if prefixCount[p] > 1 {
			add(p + "any")
		}
	}
	return r
}

// Categories lists every placeholder the resolver understands.
func (r *Resolver) Categories() []string {
	return r.categories
}

// Resolve replaces each known placeholder in text with one randomly chosen
// candidate. kills is the number of deaths the action causes; weapons that
// cannot kill that many are never named. Placeholders without candidates are
// left as written.
func (r *Resolver) Resolve(text string, kills int) string {
	if !strings.Contains(text, "{") {
		return text
	}
	for _, cat := range r.categories {
		token := "{" + cat + "}"
		if !strings.Contains(text, token) {
			continue
		}
		cands := r.Candidates(cat, kills)
		if len(cands) == 0 {
			continue
		}
		pick := cands[r.rng.IntN(len(cands))]
		text = strings.ReplaceAll(text, token, pick.Name)
	}
	return text
}

// Candidates returns the nouns eligible for a category.
func (r *Resolver) Candidates(cat string, kills int) []content.Noun {
	switch {
	case cat == itemAny:
		return r.collect(r.lib.Items, r.base)
	case cat == materialAny:
		return r.collect(r.lib.Materials, r.base)
	case strings.HasSuffix(cat, "_any"):
		prefix := strings.TrimSuffix(cat, "any")
		var cats []string
		for _, c := range r.base {
			if strings.HasPrefix(c, prefix) {
				cats = append(cats, c)
			}
		}
		if items := r.collect(r.lib.Items, cats); len(items) > 0 {
			return capable(items, kills)
		}
		return r.collect(r.lib.Materials, cats)
	case strings.HasPrefix(cat, "weapon_"):
		return capable(r.lib.Items[cat], kills)
	}
	if items, ok := r.lib.Items[cat]; ok {
		return items
	}
	return r.lib.Materials[cat]
}

func (r *Resolver) collect(from map[string][]content.Noun, cats []string) []content.Noun {
	var out []content.Noun
	for _, c := range cats {
		out = append(out, from[c]...)
	}
	return out
}

func capable(nouns []content.Noun, kills int) []content.Noun {
	var out []content.Noun
	for _, n := range nouns {
		if n.MaxKills >= kills {
			out = append(out, n)
		}
	}
	return out
}
