package content

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultLibrary []byte

var slotRE = regexp.MustCompile(`\{(\d+)\}`)

// Default returns the embedded library.
func Default() (*Library, error) {
	return Parse(defaultLibrary)
}

// Load reads and validates a library from a YAML file.
func Load(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content %s: %w", path, err)
	}
	lib, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("content %s: %w", path, err)
	}
	return lib, nil
}

// Parse decodes and validates a library.
func Parse(data []byte) (*Library, error) {
	var lib Library
	if err := yaml.Unmarshal(data, &lib); err != nil {
		return nil, fmt.Errorf("parse content: %w", err)
	}
	if err := lib.Validate(); err != nil {
		return nil, err
	}
	return &lib, nil
}

// Validate reports every authoring defect in the library.
func (l *Library) Validate() error {
	var errs []error
	for _, name := range []string{"bloodbath", "day", "night"} {
		p := l.phase(name)
		if len(p.Fatal)+len(p.Nonfatal) == 0 && len(l.Generic.Fatal)+len(l.Generic.Nonfatal) == 0 {
			errs = append(errs, fmt.Errorf("%s: no actions and no generic fallback", name))
		}
		errs = append(errs, validatePhase(name, p)...)
	}
	errs = append(errs, validatePhase("generic", l.Generic)...)
	for i, p := range l.Feast {
		errs = append(errs, validatePhase(fmt.Sprintf("feast[%d]", i), p)...)
	}
	for i, p := range l.Arena {
		errs = append(errs, validatePhase(fmt.Sprintf("arena[%d]", i), p)...)
	}
	for cat, nouns := range l.Items {
		for i, n := range nouns {
			if n.Name == "" {
				errs = append(errs, fmt.Errorf("items.%s[%d]: empty name", cat, i))
			}
			if n.MaxKills < 0 {
				errs = append(errs, fmt.Errorf("items.%s[%d]: negative max_kills", cat, i))
			}
		}
	}
	for cat, nouns := range l.Materials {
		for i, n := range nouns {
			if n.Name == "" {
				errs = append(errs, fmt.Errorf("materials.%s[%d]: empty name", cat, i))
			}
		}
	}
	return errors.Join(errs...)
}

func (l *Library) phase(name string) Phase {
	switch name {
	case "bloodbath":
		return l.Bloodbath
	case "day":
		return l.Day
	case "night":
		return l.Night
	}
	return l.Generic
}

func validatePhase(name string, p Phase) []error {
	var errs []error
	check := func(pool string, actions []Action) {
		for i, a := range actions {
			where := fmt.Sprintf("%s.%s[%d]", name, pool, i)
			if err := ValidateAction(a); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", where, err))
			}
			if pool == "fatal" && !a.Fatal() {
				errs = append(errs, fmt.Errorf("%s: fatal action kills nobody", where))
			}
			if pool == "nonfatal" && a.Fatal() {
				errs = append(errs, fmt.Errorf("%s: nonfatal action kills %v", where, a.Killed))
			}
		}
	}
	check("fatal", p.Fatal)
	check("nonfatal", p.Nonfatal)
	return errs
}

// ValidateAction checks slot references and kill indices against the
// action's tribute count.
func ValidateAction(a Action) error {
	var errs []error
	if a.Msg == "" {
		errs = append(errs, errors.New("empty msg"))
	}
	if a.Tributes < 1 {
		errs = append(errs, fmt.Errorf("tributes must be at least 1, got %d", a.Tributes))
	}
	for _, m := range slotRE.FindAllStringSubmatch(a.Msg, -1) {
		idx, _ := strconv.Atoi(m[1])
		if idx >= a.Tributes {
			errs = append(errs, fmt.Errorf("slot {%d} exceeds %d tributes", idx, a.Tributes))
		}
	}
	seen := make(map[int]bool, len(a.Killed))
	for _, idx := range a.Killed {
		if idx < 0 || idx >= a.Tributes {
			errs = append(errs, fmt.Errorf("killed index %d out of range", idx))
		}
		if seen[idx] {
			errs = append(errs, fmt.Errorf("killed index %d repeated", idx))
		}
		seen[idx] = true
	}
	for _, idx := range a.Killer {
		if idx < 0 || idx >= a.Tributes {
			errs = append(errs, fmt.Errorf("killer index %d out of range", idx))
		}
	}
	return errors.Join(errs...)
}
