package tui

import (
	"context"
	"errors"
	"unicode"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"mcq-studio/internal/app"
	"mcq-studio/internal/domain"
)

// Model is a terminal quiz over one session State. It shows one question at
// a time and applies key presses through the app transitions.
type Model struct {
	state   app.State
	index   int
	cursor  int
	status  string
	noColor bool
	bar     progress.Model
}

// Options configures the terminal quiz.
type Options struct {
	NoColor bool
}

// NewModel constructs a quiz model for a loaded session.
func NewModel(state app.State, opts Options) Model {
	bar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(40))
	if opts.NoColor {
		bar = progress.New(progress.WithSolidFill("7"), progress.WithWidth(40))
	}
	return Model{
		state:   state,
		noColor: opts.NoColor,
		bar:     bar,
	}
}

// Run drives the model until the user quits and returns the final state.
func Run(ctx context.Context, state app.State, opts Options) (app.State, error) {
	final, err := tea.NewProgram(NewModel(state, opts), tea.WithContext(ctx)).Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return state, err
	}
	if m, ok := final.(Model); ok {
		return m.state, nil
	}
	return state, nil
}

// State returns the session as edited so far.
func (m Model) State() app.State { return m.state }

func (m Model) Init() tea.Cmd { return nil }

// Update consumes key presses and window resizes.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.bar.Width = max(min(typed.Width-20, 60), 10)
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(typed)
	}
	return m, nil
}

func (m Model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	questions := m.state.Questions()
	q, hasQuestion := m.current()

	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if hasQuestion && m.cursor < len(q.Options)-1 {
			m.cursor++
		}
	case "n", "right", "tab":
		if m.index < len(questions)-1 {
			m.index++
			m.cursor = 0
		}
	case "p", "left", "shift+tab":
		if m.index > 0 {
			m.index--
			m.cursor = 0
		}
	case " ", "space", "enter":
		if hasQuestion {
			m = m.toggle(q, q.Options[m.cursor].Key)
		}
	case "a", "b", "c", "d":
		if hasQuestion {
			k, _ := domain.ParseOptionKey(unicode.ToUpper(key.Runes[0]))
			m = m.toggle(q, k)
		}
	case "s":
		next, result, err := app.Submit(m.state)
		if err != nil {
			m.status = err.Error()
			break
		}
		m.state = next
		m.status = scoreLine(result.Score)
	case "r":
		m.state = app.Reset(m.state)
		m.index, m.cursor = 0, 0
		m.status = "answers cleared"
	}
	return m, nil
}

func (m Model) toggle(q domain.Question, key domain.OptionKey) Model {
	next, err := app.ToggleSelection(m.state, q.ID, key)
	if err != nil {
		m.status = err.Error()
		return m
	}
	m.state = next
	for i, opt := range q.Options {
		if opt.Key == key {
			m.cursor = i
		}
	}
	return m
}

func (m Model) current() (domain.Question, bool) {
	questions := m.state.Questions()
	if m.index < 0 || m.index >= len(questions) {
		return domain.Question{}, false
	}
	return questions[m.index], true
}

// View renders the current question.
func (m Model) View() string {
	q, ok := m.current()
	if !ok {
		return lipgloss.JoinVertical(lipgloss.Left,
			renderHeader(m.state, m.noColor),
			renderEmpty(m.state, m.noColor),
			renderHelp(m.noColor),
		)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		renderHeader(m.state, m.noColor),
		renderProgress(m.state, m.bar),
		"",
		renderQuestion(q, m.index, len(m.state.Questions()), m.noColor),
		renderOptions(q, m.state.Selections[q.ID], m.cursor, m.state.Submitted, m.noColor),
		renderFeedback(q, m.state, m.noColor),
		"",
		renderStatus(m.state, m.status, m.noColor),
		renderHelp(m.noColor),
	)
}
