package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"github.com/tatianab/tribute-sim/internal/command"
	"github.com/tatianab/tribute-sim/internal/content"
	"github.com/tatianab/tribute-sim/internal/engine"
	"github.com/tatianab/tribute-sim/internal/models"
	"github.com/tatianab/tribute-sim/internal/runner"
	"github.com/tatianab/tribute-sim/internal/stats"
)

// saveName is where the console keeps the run in progress.
const saveName = "current"

type sessionState int

const (
	stateLobby sessionState = iota
	stateDrafting
	stateRunning
)

// StatsStore is what the console needs from the stats database.
type StatsStore interface {
	runner.Recorder
	Leaderboard(ctx context.Context, sortKey string, limit int) ([]stats.PlayerStats, error)
	PlayerByName(ctx context.Context, username string) (stats.PlayerStats, error)
}

// Writer drafts themed content and run recaps. *author.Author satisfies it.
type Writer interface {
	DraftActions(ctx context.Context, theme string, lib *content.Library) (map[string]content.Phase, error)
	SummarizeRun(ctx context.Context, s *models.GameSession, history []models.PhaseLog) (string, error)
}

// Options configures the console.
type Options struct {
	Library *content.Library
	Author  Writer     // optional
	Stats   StatsStore // optional

	EventDelay time.Duration
	PhaseDelay time.Duration
	MinPlayers int
	Seed       int64
	HasSeed    bool
	Log        zerolog.Logger
}

type model struct {
	state     sessionState
	opts      Options
	lib       *content.Library
	theme     string
	entrants  []runner.Entrant
	synthetic int
	games     int

	narration chan tea.Msg
	cancel    context.CancelFunc
	roster    []playerLine

	textInput textinput.Model
	viewport  viewport.Model
	gameLog   string
	width     int
	height    int
	quitting  bool
}

var (
	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EEEEEE")).
			Background(lipgloss.Color("#5F5F87")).
			Bold(true).
			PaddingLeft(1)

	gameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	fatalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F5F"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF8700"))

	stateStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#3C3C3C")).
			PaddingLeft(2).
			Foreground(lipgloss.Color("#AAAAAA"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true).
			Underline(true)

	deadStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5F5F5F")).
			Strikethrough(true)
)

func NewModel(opts Options) model {
	ti := textinput.New()
	ti.Placeholder = "join <name>, addfake [n], start... (help for more)"
	ti.Focus()
	ti.CharLimit = 156
	ti.Width = 60

	if opts.MinPlayers < 2 {
		opts.MinPlayers = 2
	}
	m := model{
		state:     stateLobby,
		opts:      opts,
		lib:       opts.Library,
		textInput: ti,
		viewport:  viewport.New(80, 20),
	}
	m.gameLog = gameStyle.Bold(true).Render(m.appName()) + "\n\n" + command.HelpText()
	return m
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

type infoMsg struct {
	text string
}

type errMsg struct {
	err error
}

type draftedMsg struct {
	theme  string
	drafts map[string]content.Phase
	err    error
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m.quit()
		case tea.KeyEnter:
			line := m.textInput.Value()
			m.textInput.Reset()
			if strings.TrimSpace(line) == "" {
				return m, nil
			}
			m.appendLog(userStyle.Width(m.logWidth()).Render("> " + line))
			return m.execute(line)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = m.logWidth()
		m.viewport.Height = max(msg.Height-6, 1)
		m.viewport.SetContent(m.gameLog)
		m.viewport.GotoBottom()

	case phaseMsg:
		m.roster = msg.roster
		title := gameStyle.Bold(true)
		if msg.header.Color != "" {
			title = title.Foreground(lipgloss.Color(msg.header.Color))
		}
		block := title.Render(msg.header.Title)
		if msg.header.Description != "" {
			block += "\n" + gameStyle.Width(m.logWidth()).Render(msg.header.Description)
		}
		m.appendLog(block)
		return m, listen(m.narration)

	case eventMsg:
		m.roster = msg.roster
		style := gameStyle
		if msg.event.Fatal {
			style = fatalStyle
		}
		m.appendLog(style.Width(m.logWidth()).Render(msg.event.Text))
		return m, listen(m.narration)

	case fallenMsg:
		m.roster = msg.roster
		block := titleStyle.Render(msg.recap.Title) + "\n" + msg.recap.Text
		for _, n := range msg.recap.Names {
			block += "\n- " + n
		}
		m.appendLog(block)
		return m, listen(m.narration)

	case finishedMsg:
		m.roster = msg.roster
		var b strings.Builder
		b.WriteString(titleStyle.Render(msg.results.Title))
		b.WriteString("\n" + msg.results.Description)
		for _, p := range msg.results.Summary.Placements {
			fmt.Fprintf(&b, "\n#%d %s (%d kills)", p.Place, p.Username, p.Kills)
		}
		m.appendLog(b.String())
		return m, listen(m.narration)

	case runDoneMsg:
		m.state = stateLobby
		m.cancel = nil
		m.narration = nil
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			m.appendLog(errStyle.Render("Run failed: " + msg.err.Error()))
		}
		if errors.Is(msg.err, context.Canceled) {
			m.appendLog(helpStyle.Render("Run stopped."))
		}
		if msg.err == nil && m.opts.Author != nil {
			return m, m.summarize(msg.session, msg.results.History)
		}
		return m, nil

	case draftedMsg:
		m.state = stateLobby
		if msg.err != nil {
			m.appendLog(errStyle.Render("Drafting failed: " + msg.err.Error()))
			return m, nil
		}
		lib := m.lib.Clone()
		lib.Merge(msg.drafts)
		if err := lib.Validate(); err != nil {
			m.appendLog(errStyle.Render("Drafted content rejected: " + err.Error()))
			return m, nil
		}
		m.lib = lib
		m.theme = msg.theme
		n := 0
		for _, p := range msg.drafts {
			n += len(p.Fatal) + len(p.Nonfatal)
		}
		m.appendLog(fmt.Sprintf("Added %d %q actions.", n, msg.theme))
		return m, nil

	case infoMsg:
		m.appendLog(msg.text)
		return m, nil

	case errMsg:
		m.appendLog(errStyle.Render(msg.err.Error()))
		return m, nil
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

// execute runs one console command.
func (m model) execute(line string) (tea.Model, tea.Cmd) {
	c, err := command.Parse(line)
	if err != nil {
		m.appendLog(errStyle.Render(err.Error()))
		return m, nil
	}
	if c.Corrected {
		m.appendLog(helpStyle.Render("(" + string(c.Verb) + ")"))
	}

	switch c.Verb {
	case command.Help:
		m.appendLog(command.HelpText())
	case command.Quit:
		return m.quit()
	case command.Join:
		if m.state == stateRunning {
			m.appendLog(errStyle.Render("A run is in progress; join the next one."))
			return m, nil
		}
		name := c.Text()
		id := "console:" + strings.ToLower(name)
		for _, e := range m.entrants {
			if e.ID == id {
				m.appendLog(fmt.Sprintf("%s has already joined.", name))
				return m, nil
			}
		}
		m.entrants = append(m.entrants, runner.Entrant{ID: id, Username: name})
		m.appendLog(fmt.Sprintf("%s has joined the %s!", name, m.appName()))
	case command.AddFake:
		n, _ := c.Count(1)
		m.synthetic += n
		m.appendLog(fmt.Sprintf("Added %d synthetic %s (%d total).", n, m.players(), m.synthetic))
	case command.Players:
		m.appendLog(m.lobbyText())
	case command.Start:
		return m.start()
	case command.Resume:
		name := saveName
		if len(c.Args) == 1 {
			name = c.Args[0]
		}
		return m.resume(name)
	case command.Stop:
		if m.cancel == nil {
			m.appendLog("Nothing is running.")
			return m, nil
		}
		m.cancel()
	case command.Leaderboard:
		key := "wins"
		if len(c.Args) == 1 {
			key = c.Args[0]
		}
		return m, m.leaderboard(key)
	case command.Stats:
		return m, m.playerStats(c.Text())
	case command.Theme:
		if m.opts.Author == nil {
			m.appendLog(errStyle.Render("Theme drafting needs GEMINI_API_KEY."))
			return m, nil
		}
		if m.state != stateLobby {
			m.appendLog(errStyle.Render("Wait for the current run or draft to finish."))
			return m, nil
		}
		m.state = stateDrafting
		m.appendLog(helpStyle.Render("Drafting actions for " + c.Text() + "..."))
		return m, m.draft(c.Text())
	}
	return m, nil
}

func (m model) start() (tea.Model, tea.Cmd) {
	if m.state != stateLobby {
		m.appendLog(errStyle.Render("A run or draft is already in progress."))
		return m, nil
	}
	rng := m.nextRand()
	roster, err := runner.NewRoster(m.entrants, m.synthetic, m.opts.MinPlayers, rng)
	if err != nil {
		m.appendLog(errStyle.Render(err.Error()))
		return m, nil
	}
	if err := models.ClearHistory(saveName); err != nil {
		m.opts.Log.Warn().Err(err).Msg("failed to clear previous history")
	}
	m.entrants = nil
	m.synthetic = 0
	return m.launch(runner.NewSession(roster), rng)
}

// resume continues a saved run from its last completed step.
func (m model) resume(name string) (tea.Model, tea.Cmd) {
	if m.state != stateLobby {
		m.appendLog(errStyle.Render("A run or draft is already in progress."))
		return m, nil
	}
	s, err := models.LoadSession(name)
	if err != nil {
		m.appendLog(errStyle.Render(err.Error()))
		return m, nil
	}
	if s.IsComplete() {
		m.appendLog(fmt.Sprintf("Save %q has already finished.", name))
		return m, nil
	}
	m.appendLog(fmt.Sprintf("Resuming %q on day %d with %d alive.", name, s.CurrentDay, s.AliveCount()))
	return m.launch(s, m.nextRand())
}

func (m *model) nextRand() engine.Rand {
	m.games++
	if m.opts.HasSeed {
		return engine.NewRand(m.opts.Seed + int64(m.games-1))
	}
	return engine.NewRand(time.Now().UnixNano())
}

func (m model) launch(s *models.GameSession, rng engine.Rand) (tea.Model, tea.Cmd) {
	log := m.opts.Log.With().Str("game_id", s.ID).Logger()
	namer := engine.TransformNamer{}
	eng := engine.NewEngine(m.lib, engine.WithRand(rng), engine.WithNamer(namer), engine.WithLogger(log))
	m.narration = make(chan tea.Msg, 16)
	opts := []runner.Option{
		runner.WithNarrator(chanNarrator{ch: m.narration, namer: namer}),
		runner.WithPacer(runner.NewPacer(m.opts.EventDelay, m.opts.PhaseDelay)),
		runner.WithNamer(namer),
		runner.WithSave(saveName),
		runner.WithLogger(log),
	}
	if m.opts.Stats != nil {
		opts = append(opts, runner.WithRecorder(m.opts.Stats))
	}
	r := runner.New(eng, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.state = stateRunning
	m.roster = nil

	ch := m.narration
	go func() {
		defer cancel()
		res, err := r.Run(ctx, s)
		ch <- runDoneMsg{session: s, results: res, err: err}
	}()
	return m, listen(ch)
}

func (m model) quit() (tea.Model, tea.Cmd) {
	if m.cancel != nil {
		m.cancel()
	}
	m.quitting = true
	return m, tea.Quit
}

func (m model) leaderboard(key string) tea.Cmd {
	st := m.opts.Stats
	return func() tea.Msg {
		if st == nil {
			return errMsg{errors.New("stats are disabled")}
		}
		rows, err := st.Leaderboard(context.Background(), key, 10)
		if err != nil {
			return errMsg{err}
		}
		if len(rows) == 0 {
			return infoMsg{"No games recorded yet."}
		}
		var b strings.Builder
		b.WriteString(titleStyle.Render("LEADERBOARD: " + strings.ToUpper(key)))
		for i, r := range rows {
			fmt.Fprintf(&b, "\n%2d. %-20s %3d wins %4d kills %3d deaths %5.1f%%",
				i+1, r.Username, r.Wins, r.Kills, r.Deaths, r.WinRate*100)
		}
		return infoMsg{b.String()}
	}
}

func (m model) playerStats(name string) tea.Cmd {
	st := m.opts.Stats
	return func() tea.Msg {
		if st == nil {
			return errMsg{errors.New("stats are disabled")}
		}
		ps, err := st.PlayerByName(context.Background(), name)
		if err != nil {
			return errMsg{err}
		}
		return infoMsg{fmt.Sprintf("%s\nGames: %d  Wins: %d (%.1f%%)  Kills: %d  Deaths: %d\nLongest run: %d days  Most kills in a game: %d",
			titleStyle.Render(ps.Username), ps.GamesPlayed, ps.Wins, ps.WinRate*100, ps.Kills, ps.Deaths,
			ps.MaxDays, ps.MaxKillsSingleGame)}
	}
}

func (m model) draft(theme string) tea.Cmd {
	a, lib := m.opts.Author, m.lib
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		drafts, err := a.DraftActions(ctx, theme, lib)
		return draftedMsg{theme: theme, drafts: drafts, err: err}
	}
}

func (m model) summarize(s *models.GameSession, history []models.PhaseLog) tea.Cmd {
	a := m.opts.Author
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		text, err := a.SummarizeRun(ctx, s, history)
		if err != nil {
			return errMsg{fmt.Errorf("summary: %w", err)}
		}
		return infoMsg{helpStyle.Render(text)}
	}
}

func (m model) View() string {
	if m.quitting {
		return ""
	}
	mainView := lipgloss.JoinHorizontal(lipgloss.Top,
		m.viewport.View(),
		m.renderState(),
	)

	help := helpStyle.Render("Type help for commands. Esc quits.")

	return "\n" + lipgloss.JoinVertical(lipgloss.Left,
		mainView,
		"\n"+m.textInput.View(),
		"\n"+help,
	) + "\n"
}

func (m model) renderState() string {
	var b strings.Builder
	switch m.state {
	case stateRunning:
		b.WriteString(titleStyle.Render(strings.ToUpper(m.players())) + "\n")
		alive := 0
		for _, p := range m.roster {
			if p.Alive {
				alive++
				fmt.Fprintf(&b, "%s (%d)\n", p.Name, p.Kills)
			}
		}
		for _, p := range m.roster {
			if !p.Alive {
				b.WriteString(deadStyle.Render(p.Name) + "\n")
			}
		}
		fmt.Fprintf(&b, "\n%d alive", alive)
	default:
		b.WriteString(m.lobbyText())
	}
	if m.theme != "" {
		b.WriteString("\n\n" + titleStyle.Render("THEME") + "\n" + m.theme)
	}

	stateWidth := int(float64(m.width) * 0.23) // Leave some room for padding
	return stateStyle.Width(stateWidth).Height(m.viewport.Height).Render(b.String())
}

func (m model) lobbyText() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("LOBBY") + "\n")
	if len(m.entrants) == 0 {
		b.WriteString("(nobody yet)\n")
	}
	for _, e := range m.entrants {
		b.WriteString("- " + e.Username + "\n")
	}
	if m.synthetic > 0 {
		fmt.Fprintf(&b, "+ %d synthetic\n", m.synthetic)
	}
	fmt.Fprintf(&b, "%d of %d needed", len(m.entrants)+m.synthetic, m.opts.MinPlayers)
	return b.String()
}

func (m *model) appendLog(s string) {
	m.gameLog += s + "\n\n"
	m.viewport.SetContent(m.gameLog)
	m.viewport.GotoBottom()
}

func (m model) logWidth() int {
	if m.width == 0 {
		return 80
	}
	return int(float64(m.width) * 0.75)
}

func (m model) appName() string {
	if m.lib.AppName != "" {
		return m.lib.AppName
	}
	return "Tribute Games"
}

func (m model) players() string {
	if p := m.lib.Terminology.PlayerPlural; p != "" {
		return p
	}
	return "tributes"
}

// Run starts the console and blocks until the operator quits.
func Run(opts Options) error {
	p := tea.NewProgram(NewModel(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
