// Package ui provides the main UI for the rsvp application.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/rsvp/internal/source"
	"github.com/dgnsrekt/rsvp/internal/watch"
	"github.com/dgnsrekt/rsvp/rsvp"
	"github.com/dgnsrekt/rsvp/rsvp/preprocess"
	rsvpsync "github.com/dgnsrekt/rsvp/rsvp/sync"
)

const (
	statusMessageTimeout = time.Second * 3 // how long to show status messages like "350 wpm"
	eventBufferSize      = 64
	maxProgressWidth     = 80
)

// NewProgram returns a new Tea program.
func NewProgram(cfg Config, content string) *tea.Program {
	log.Debug(
		"Starting rsvp",
		"path", cfg.Path,
		"wpm", cfg.Reader.WPM,
		"pause_policy", cfg.Reader.PausePolicy,
	)

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	m := newModel(cfg, content)
	return tea.NewProgram(m, opts...)
}

type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

type (
	// Text from a file reload or the clipboard.
	textLoadedMsg struct {
		src *source.Source
	}
	// The watched file could not be read back.
	reloadFailedMsg struct {
		err error
	}
	// The watched file changed on disk.
	reloadMsg               struct{}
	statusMessageTimeoutMsg int
)

// state is the top-level application state.
type state int

const (
	stateInput state = iota
	stateReading
	stateSearch
)

func (s state) String() string {
	return map[state]string{
		stateInput:   "entering text",
		stateReading: "reading",
		stateSearch:  "searching",
	}[s]
}

// Common stuff we'll need to access in all models.
type commonModel struct {
	cfg    Config
	width  int
	height int
}

type model struct {
	common   *commonModel
	state    state
	fatalErr error

	// Reader
	ctrl    *rsvp.Controller
	events  chan tea.Msg
	tickGen uint64 // Subscription generation the tick chain samples for

	// Sub-models
	input    textarea.Model
	search   textinput.Model
	progress progress.Model
	help     help.Model

	keys      keyMap
	inputKeys inputKeyMap

	// Search results, best match first
	matches    []int
	matchIndex int

	statusMessage   string
	statusMessageID int

	watcher *watch.Watcher
	ctx     context.Context
	cancel  context.CancelFunc
}

func newController(cfg rsvp.Config, clock rsvp.Clock) *rsvp.Controller {
	pre := preprocess.New(preprocess.WithFontSize(cfg.FontSize))
	sched := rsvpsync.NewScheduler(
		rsvpsync.WithClock(clock),
		rsvpsync.WithPausePolicy(cfg.PausePolicy),
		rsvpsync.WithRate(cfg.WPM),
	)
	return rsvp.NewController(pre, sched, cfg)
}

func newModel(cfg Config, content string) model {
	if cfg.Reader.FrameInterval <= 0 {
		cfg.Reader.FrameInterval = rsvpsync.DefaultFrameInterval
	}
	common := commonModel{cfg: cfg}

	ta := textarea.New()
	ta.Placeholder = "Type or paste the text you want to read…"
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.MaxHeight = 0

	ti := textinput.New()
	ti.Prompt = searchPromptStyle.Render("/")
	ti.Placeholder = "word"

	ctx, cancel := context.WithCancel(context.Background())
	m := model{
		common:    &common,
		ctrl:      newController(cfg.Reader, rsvp.SystemClock{}),
		events:    make(chan tea.Msg, eventBufferSize),
		input:     ta,
		search:    ti,
		progress:  progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		help:      help.New(),
		keys:      newKeyMap(),
		inputKeys: newInputKeyMap(),
		ctx:       ctx,
		cancel:    cancel,
	}
	m.subscribe()

	if strings.TrimSpace(content) == "" {
		m.state = stateInput
		m.input.Focus()
		return m
	}

	m.state = stateReading
	m.ctrl.LoadText(content)

	if cfg.Path != "" && cfg.Reader.Watch {
		w, err := watch.New(cfg.Path)
		if err != nil {
			log.Error("unable to watch file", "file", cfg.Path, "error", err)
		} else {
			m.watcher = w
		}
	}
	return m
}

// subscribe forwards reader callbacks to the event channel. Callbacks may
// run on a timer goroutine, so they never block.
func (m model) subscribe() {
	events := m.events
	send := func(msg tea.Msg) {
		select {
		case events <- msg:
		default:
			log.Warn("Dropped reader event", "msg", fmt.Sprintf("%T", msg))
		}
	}

	m.ctrl.OnStateChange(func(from, to rsvp.PlaybackState) {
		send(rsvp.StateChangedMsg{From: from, To: to})
	})
	m.ctrl.OnSequenceLoaded(func(msg rsvp.SequenceLoadedMsg) {
		send(msg)
	})
	m.ctrl.OnRateChange(func(msg rsvp.RateChangedMsg) {
		send(msg)
	})
}

func (m model) Init() tea.Cmd {
	log.Debug("Init() called", "state", m.state)
	cmds := []tea.Cmd{rsvp.WaitForEventCmd(m.events)}

	switch m.state {
	case stateInput:
		cmds = append(cmds, textarea.Blink)
	case stateReading:
		if m.watcher != nil {
			cmds = append(cmds, waitForChange(m.ctx, m.watcher))
		}
	}

	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// If there's been an error, any key exits
	if m.fatalErr != nil {
		if _, ok := msg.(tea.KeyMsg); ok {
			return m, m.quit()
		}
	}

	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.setSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		// Ctrl+C always quits no matter where in the application you are.
		if msg.String() == "ctrl+c" {
			return m, m.quit()
		}

		switch m.state {
		case stateInput:
			return m.updateInput(msg)
		case stateSearch:
			return m.updateSearch(msg)
		default:
			return m.updateReading(msg)
		}

	case tea.MouseMsg:
		if m.state != stateReading {
			break
		}
		switch msg.Button { //nolint:exhaustive
		case tea.MouseButtonWheelUp:
			cmds = append(cmds, m.rateCmd(m.ctrl.IncreaseRate()))
		case tea.MouseButtonWheelDown:
			cmds = append(cmds, m.rateCmd(m.ctrl.DecreaseRate()))
		}

	case rsvp.SampleMsg:
		cmd := m.handleSample(msg)
		return m, cmd

	case rsvp.StateChangedMsg:
		if msg.To == rsvp.StateFinished {
			cmds = append(cmds, m.showStatusMessage("finished"))
		}
		cmds = append(cmds, rsvp.WaitForEventCmd(m.events), m.ensureTicking())

	case rsvp.SequenceLoadedMsg:
		// A re-derived sequence restarts the subscription when the
		// position was kept while playing.
		if msg.Rederived {
			log.Debug("sequence re-derived", "words", msg.Words, "wpm", msg.WPM)
		}
		cmds = append(cmds, rsvp.WaitForEventCmd(m.events), m.ensureTicking())

	case rsvp.RateChangedMsg:
		cmds = append(cmds,
			rsvp.WaitForEventCmd(m.events),
			m.showStatusMessage(fmt.Sprintf("%d wpm", msg.WPM)),
		)

	case rsvp.ErrorMsg:
		if !msg.Recoverable {
			m.fatalErr = msg.Err
			return m, nil
		}
		cmds = append(cmds, m.showStatusMessage(fmt.Sprintf("%s: %v", msg.Action, msg.Err)))

	case reloadMsg:
		cmds = append(cmds, loadFile(m.common.cfg.Path))

	case reloadFailedMsg:
		log.Warn("unable to reload file", "file", m.common.cfg.Path, "error", msg.err)
		cmds = append(cmds, m.showStatusMessage(fmt.Sprintf("unable to reload: %v", msg.err)))
		if m.watcher != nil {
			cmds = append(cmds, waitForChange(m.ctx, m.watcher))
		}

	case textLoadedMsg:
		n := m.ctrl.LoadText(msg.src.Text)
		m.state = stateReading
		m.input.Blur()
		m.matches = nil
		cmds = append(cmds, m.showStatusMessage(fmt.Sprintf("loaded %d words", n)))
		if m.watcher != nil && msg.src.IsFile() {
			cmds = append(cmds, waitForChange(m.ctx, m.watcher))
		}

	case statusMessageTimeoutMsg:
		if int(msg) == m.statusMessageID {
			m.statusMessage = ""
		}

	case errMsg:
		log.Error("error", "error", msg.err)
		cmds = append(cmds, m.showStatusMessage(msg.Error()))
	}

	// Let the textarea blink while it has focus.
	if m.state == stateInput {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.inputKeys.Load):
		text := m.input.Value()
		if strings.TrimSpace(text) == "" {
			cmd := m.showStatusMessage(rsvp.ErrNoText.Error())
			return m, cmd
		}
		n := m.ctrl.LoadText(text)
		m.state = stateReading
		m.input.Blur()
		m.matches = nil
		cmd := m.showStatusMessage(fmt.Sprintf("loaded %d words", n))
		return m, cmd

	case key.Matches(msg, m.inputKeys.Back):
		if len(m.ctrl.Sequence()) == 0 {
			return m, nil
		}
		m.state = stateReading
		m.input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.state = stateReading
		m.search.Blur()
		m.search.Reset()
		return m, nil

	case "enter":
		pattern := m.search.Value()
		m.state = stateReading
		m.search.Blur()
		m.search.Reset()

		m.matches = m.ctrl.Find(pattern)
		m.matchIndex = 0
		if len(m.matches) == 0 {
			cmd := m.showStatusMessage(fmt.Sprintf("no match for %q", pattern))
			return m, cmd
		}
		cmd := m.seekMatch()
		return m, cmd
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m model) updateReading(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, m.quit()

	case key.Matches(msg, m.keys.Play):
		m.ctrl.TogglePause()

	case key.Matches(msg, m.keys.Stop):
		m.ctrl.Stop()

	case key.Matches(msg, m.keys.Reset):
		m.ctrl.Reset()

	case key.Matches(msg, m.keys.Faster):
		cmd := m.rateCmd(m.ctrl.IncreaseRate())
		return m, cmd

	case key.Matches(msg, m.keys.Slower):
		cmd := m.rateCmd(m.ctrl.DecreaseRate())
		return m, cmd

	case key.Matches(msg, m.keys.Prev):
		if err := m.ctrl.Previous(); err != nil {
			log.Debug("previous word", "error", err)
		}

	case key.Matches(msg, m.keys.Next):
		if err := m.ctrl.Next(); err != nil {
			log.Debug("next word", "error", err)
		}

	case key.Matches(msg, m.keys.Search):
		m.state = stateSearch
		cmd := m.search.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.NextMatch):
		if len(m.matches) == 0 {
			return m, nil
		}
		m.matchIndex = (m.matchIndex + 1) % len(m.matches)
		cmd := m.seekMatch()
		return m, cmd

	case key.Matches(msg, m.keys.Edit):
		m.ctrl.Pause()
		m.state = stateInput
		m.input.SetValue(m.ctrl.Text())
		cmd := m.input.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.Paste):
		return m, readClipboard

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.setSize(m.common.width, m.common.height)
	}

	cmd := m.ensureTicking()
	return m, cmd
}

func (m *model) seekMatch() tea.Cmd {
	idx := m.matches[m.matchIndex]
	if err := m.ctrl.Seek(idx); err != nil {
		return rsvp.ErrorCmd(err, "seek")
	}
	status := fmt.Sprintf("match %d of %d", m.matchIndex+1, len(m.matches))
	return tea.Batch(m.showStatusMessage(status), m.ensureTicking())
}

func (m *model) rateCmd(err error) tea.Cmd {
	if err == nil {
		return nil
	}
	if errors.Is(err, rsvp.ErrInvalidRate) {
		return m.showStatusMessage(fmt.Sprintf("rate must stay between %d and %d wpm", rsvp.MinWPM, rsvp.MaxWPM))
	}
	return rsvp.ErrorCmd(err, "set rate")
}

// handleSample applies a tick to the scheduler and schedules the next one.
// Ticks of a superseded chain are dropped and end that chain.
func (m *model) handleSample(msg rsvp.SampleMsg) tea.Cmd {
	if msg.Gen != m.tickGen {
		return nil
	}
	m.ctrl.Sample(msg.Gen, msg.Time)

	gen, active := m.ctrl.Subscription()
	if active && gen == msg.Gen {
		return rsvp.SampleTickCmd(gen, m.common.cfg.Reader.FrameInterval)
	}
	return m.ensureTicking()
}

// ensureTicking starts a tick chain for a new subscription generation.
func (m *model) ensureTicking() tea.Cmd {
	gen, active := m.ctrl.Subscription()
	if !active || gen == m.tickGen {
		return nil
	}
	m.tickGen = gen
	return rsvp.SampleTickCmd(gen, m.common.cfg.Reader.FrameInterval)
}

func (m *model) setSize(w, h int) {
	m.common.width = w
	m.common.height = h

	m.progress.Width = min(max(w-4, 0), maxProgressWidth)
	m.help.Width = w
	m.input.SetWidth(max(w-4, 0))
	m.input.SetHeight(max(h-6, 1))
	m.search.Width = max(w-4, 0)
}

// Perform cleanup before quitting.
func (m model) quit() tea.Cmd {
	m.cancel()
	m.ctrl.Close()
	if m.watcher != nil {
		_ = m.watcher.Close()
	}
	return tea.Quit
}

func (m *model) showStatusMessage(msg string) tea.Cmd {
	m.statusMessageID++
	m.statusMessage = msg
	id := m.statusMessageID
	return tea.Tick(statusMessageTimeout, func(time.Time) tea.Msg {
		return statusMessageTimeoutMsg(id)
	})
}

func (m model) View() string {
	if m.fatalErr != nil {
		return errorView(m.fatalErr)
	}

	switch m.state {
	case stateInput:
		return m.inputView()
	default:
		return m.readerView()
	}
}

func (m model) inputView() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(indent(m.input.View(), 2))
	if m.statusMessage != "" {
		b.WriteString(indent(statusBarMessageStyle.Render(" "+m.statusMessage+" "), 2))
	}
	b.WriteString(indent(m.help.View(m.inputKeys), 2))
	return b.String()
}

func (m model) readerView() string {
	st := m.ctrl.State()
	width := m.common.width
	col := anchorColumn(width)

	word := ""
	if st.Current != nil {
		anchor := anchorStyle(m.common.cfg.Reader.AnchorStyle())
		word = truncateLine(wordLine(*st.Current, col, wordStyle, anchor), width)
	}
	lines := []string{word}
	if m.common.cfg.ShowGuides {
		lines = []string{guideLine(col), word, guideLine(col)}
	}

	var footer []string
	if m.common.cfg.Reader.ShowProgress {
		footer = append(footer, "  "+m.progress.ViewAs(st.Progress()))
	}
	switch {
	case m.state == stateSearch:
		footer = append(footer, "  "+m.search.View())
	case m.statusMessage != "":
		footer = append(footer, statusBarMessageStyle.Render(truncateLine(" "+m.statusMessage+" ", width)))
	default:
		footer = append(footer, statusBarStyle.Render(statusLine(st, width)))
	}
	if m.common.cfg.Debug {
		footer = append(footer, subtleStyle.Render(truncateLine(m.debugLine(), width)))
	}
	footer = append(footer, "  "+m.help.View(m.keys))

	// Center the word vertically in the space above the footer.
	top := max((m.common.height-len(footer)-len(lines))/2, 1)
	gap := max(m.common.height-top-len(lines)-footerHeight(footer), 1)

	return strings.Repeat("\n", top) +
		strings.Join(lines, "\n") +
		strings.Repeat("\n", gap) +
		strings.Join(footer, "\n")
}

// debugLine reports the tick chain and derivation cache.
func (m model) debugLine() string {
	gen, active := m.ctrl.Subscription()
	cs := m.ctrl.CacheStats()
	return fmt.Sprintf("  gen %d (active %t)  tick %d  cache %d/%d  hits %d  misses %d",
		gen, active, m.tickGen, cs.ItemCount, cs.Capacity, cs.Hits, cs.Misses)
}

func footerHeight(footer []string) int {
	n := 0
	for _, f := range footer {
		n += lipgloss.Height(f)
	}
	return n
}

func errorView(err error) string {
	s := fmt.Sprintf("%s\n\n%v\n\n%s",
		errorTitleStyle.Render("ERROR"),
		err,
		subtleStyle.Render("press any key to exit"),
	)
	return "\n" + indent(s, 3)
}

// COMMANDS

func loadFile(path string) tea.Cmd {
	return func() tea.Msg {
		src, err := source.Load(path)
		if err != nil {
			return reloadFailedMsg{err}
		}
		return textLoadedMsg{src}
	}
}

func readClipboard() tea.Msg {
	src, err := source.FromClipboard()
	if err != nil {
		return errMsg{err}
	}
	if strings.TrimSpace(src.Text) == "" {
		return errMsg{rsvp.ErrNoText}
	}
	return textLoadedMsg{src}
}

func waitForChange(ctx context.Context, w *watch.Watcher) tea.Cmd {
	return func() tea.Msg {
		if err := w.Wait(ctx); err != nil {
			log.Debug("stopped watching", "file", w.Path(), "error", err)
			return nil
		}
		return reloadMsg{}
	}
}

// ETC

// Lightweight version of reflow's indent function.
func indent(s string, n int) string {
	if n <= 0 || s == "" {
		return s
	}
	l := strings.Split(s, "\n")
	b := strings.Builder{}
	i := strings.Repeat(" ", n)
	for _, v := range l {
		fmt.Fprintf(&b, "%s%s\n", i, v)
	}
	return b.String()
}
