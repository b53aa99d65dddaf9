// Package command parses operator console input, tolerating typos.
package command

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
)

type Verb string

const (
	Join        Verb = "join"
	AddFake     Verb = "addfake"
	Players     Verb = "players"
	Start       Verb = "start"
	Stop        Verb = "stop"
	Resume      Verb = "resume"
	Leaderboard Verb = "leaderboard"
	Stats       Verb = "stats"
	Theme       Verb = "theme"
	Help        Verb = "help"
	Quit        Verb = "quit"
)

var (
	ErrEmpty     = errors.New("empty command")
	ErrUnknown   = errors.New("unknown command")
	ErrAmbiguous = errors.New("ambiguous command")
	ErrUsage     = errors.New("wrong arguments")
)

// Def describes one console command.
type Def struct {
	Verb    Verb
	Aliases []string
	MinArgs int
	MaxArgs int // -1 for free text
	Usage   string
}

var defs = []Def{
	{Join, []string{"enter", "add"}, 1, -1, "join <name>"},
	{AddFake, []string{"fake", "bots"}, 0, 1, "addfake [n]"},
	{Players, []string{"roster", "list"}, 0, 0, "players"},
	{Start, []string{"begin", "go"}, 0, 0, "start"},
	{Stop, []string{"cancel", "halt"}, 0, 0, "stop"},
	{Resume, []string{"continue"}, 0, 1, "resume [save]"},
	{Leaderboard, []string{"lb", "top", "board"}, 0, 1, "leaderboard [wins|kills|deaths|maxdays|totaldays|games|maxkills]"},
	{Stats, []string{"stat", "profile"}, 1, -1, "stats <name>"},
	{Theme, []string{"draft"}, 1, -1, "theme <hint>"},
	{Help, []string{"h", "?", "commands"}, 0, 0, "help"},
	{Quit, []string{"exit", "q"}, 0, 0, "quit"},
}

// Defs lists every command in display order.
func Defs() []Def {
	return defs
}

// Command is a parsed console line.
type Command struct {
	Verb Verb
	Args []string

	// Corrected is set when the verb was matched approximately.
	Corrected bool
}

// Text joins the arguments back into free text.
func (c Command) Text() string {
	return strings.Join(c.Args, " ")
}

// Count returns the numeric argument, or fallback when absent.
func (c Command) Count(fallback int) (int, error) {
	if len(c.Args) == 0 {
		return fallback, nil
	}
	n, err := strconv.Atoi(c.Args[0])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %q is not a positive number", ErrUsage, c.Args[0])
	}
	return n, nil
}

type candidate struct {
	def   Def
	score float64
	exact bool
}

// Parse reads one console line. A leading "/" or "!" is ignored.
func Parse(input string) (Command, error) {
	fields := strings.Fields(strings.TrimSpace(input))
	if len(fields) == 0 {
		return Command{}, ErrEmpty
	}
	head := strings.ToLower(strings.TrimLeft(fields[0], "/!"))
	args := fields[1:]
	if head == "" {
		return Command{}, ErrEmpty
	}

	best, err := match(head)
	if err != nil {
		return Command{}, err
	}
	d := best.def
	if len(args) < d.MinArgs || (d.MaxArgs >= 0 && len(args) > d.MaxArgs) {
		return Command{}, fmt.Errorf("%w: usage: %s", ErrUsage, d.Usage)
	}
	cmd := Command{Verb: d.Verb, Args: args, Corrected: !best.exact}
	if d.Verb == AddFake {
		if _, err := cmd.Count(1); err != nil {
			return Command{}, err
		}
	}
	if d.Verb == Leaderboard && len(args) == 1 {
		cmd.Args = []string{strings.ToLower(args[0])}
	}
	return cmd, nil
}

func match(token string) (candidate, error) {
	var cands []candidate
	for _, d := range defs {
		var best candidate
		for _, alias := range append([]string{string(d.Verb)}, d.Aliases...) {
			c := candidate{def: d}
			switch {
			case token == alias:
				c.score, c.exact = 1.0, true
			case strings.HasPrefix(alias, token) && len(token) >= 2:
				c.score = 0.9
			case len(token) >= 3:
				dist := levenshtein.ComputeDistance(token, alias)
				if dist > levenshteinLimit(len(alias)) {
					continue
				}
				c.score = 0.72 - (0.08 * float64(dist))
			default:
				continue
			}
			if c.score > best.score {
				best = c
			}
		}
		if best.score > 0 {
			cands = append(cands, best)
		}
	}
	if len(cands) == 0 {
		return candidate{}, fmt.Errorf("%w: %q", ErrUnknown, token)
	}

	sort.SliceStable(cands, func(i, j int) bool { return cands[i].score > cands[j].score })
	if len(cands) > 1 && cands[0].score == cands[1].score && !cands[0].exact {
		var names []string
		for _, c := range cands {
			if c.score == cands[0].score {
				names = append(names, string(c.def.Verb))
			}
		}
		return candidate{}, fmt.Errorf("%w: %q could be %s", ErrAmbiguous, token, strings.Join(names, ", "))
	}
	return cands[0], nil
}

func levenshteinLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}

// HelpText renders the command list.
func HelpText() string {
	var b strings.Builder
	b.WriteString("Commands:\n")
	for _, d := range defs {
		fmt.Fprintf(&b, "  %s\n", d.Usage)
	}
	return b.String()
}
