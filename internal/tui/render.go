package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"mcq-studio/internal/app"
	"mcq-studio/internal/domain"
)

func renderHeader(state app.State, noColor bool) string {
	line := "MCQ Studio"
	if state.Bank != nil && state.Bank.Name != "" {
		line += " | " + state.Bank.Name
	}
	return stylize(line, noColor, lipgloss.Color("33"), true)
}

func renderEmpty(state app.State, noColor bool) string {
	if state.LoadError != "" {
		return stylize("Could not load questions: "+state.LoadError, noColor, lipgloss.Color("196"), false)
	}
	return stylize("No questions loaded.", noColor, lipgloss.Color("242"), false)
}

func renderProgress(state app.State, bar progress.Model) string {
	p := state.Progress()
	return fmt.Sprintf("%s  %d/%d answered", bar.ViewAs(float64(p.Percent)/100), p.Answered, p.Total)
}

func renderQuestion(q domain.Question, index, total int, noColor bool) string {
	title := fmt.Sprintf("Question %d of %d", index+1, total)
	if q.AllowsMultiple {
		title += " (select all that apply)"
	}
	return stylize(title, noColor, lipgloss.Color("240"), false) + "\n" +
		stylize(q.Text, noColor, lipgloss.Color("255"), true)
}

// renderOptions lists the options with checkboxes for multi-answer questions
// and radio marks otherwise. After submission correct keys are highlighted.
func renderOptions(q domain.Question, selected []domain.OptionKey, cursor int, submitted, noColor bool) string {
	lines := make([]string, 0, len(q.Options))
	for i, opt := range q.Options {
		pointer := "  "
		if i == cursor {
			pointer = "> "
		}
		on := slices.Contains(selected, opt.Key)
		mark := "( )"
		if q.AllowsMultiple {
			mark = "[ ]"
		}
		if on {
			mark = mark[:1] + "x" + mark[2:]
		}
		line := fmt.Sprintf("%s%s %s. %s", pointer, mark, opt.Key, opt.Label)
		switch {
		case submitted && slices.Contains(q.CorrectKeys, opt.Key):
			line = stylize(line, noColor, lipgloss.Color("42"), false)
		case submitted && on:
			line = stylize(line, noColor, lipgloss.Color("196"), false)
		case i == cursor:
			line = stylize(line, noColor, lipgloss.Color("214"), false)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func renderFeedback(q domain.Question, state app.State, noColor bool) string {
	if !state.Submitted || state.Result == nil {
		return ""
	}
	var res domain.QuestionResult
	for _, r := range state.Result.Questions {
		if r.QuestionID == q.ID {
			res = r
		}
	}
	verdict := stylize("Correct", noColor, lipgloss.Color("42"), true)
	if !res.Correct {
		verdict = stylize("Review", noColor, lipgloss.Color("196"), true)
	}
	lines := []string{"", verdict, "Answer: " + joinKeys(q.CorrectKeys)}
	if q.Explanation != "" {
		lines = append(lines, stylize(q.Explanation, noColor, lipgloss.Color("244"), false))
	}
	return strings.Join(lines, "\n")
}

func renderStatus(state app.State, status string, noColor bool) string {
	lines := []string{}
	if state.Submitted && state.Result != nil {
		lines = append(lines, stylize(scoreLine(state.Result.Score), noColor, lipgloss.Color("33"), true))
	}
	if status != "" && (state.Result == nil || status != scoreLine(state.Result.Score)) {
		lines = append(lines, stylize(status, noColor, lipgloss.Color("244"), false))
	}
	return strings.Join(lines, "\n")
}

func renderHelp(noColor bool) string {
	return stylize("up/down move | space select | a-d pick | n/p next/prev | s submit | r reset | q quit",
		noColor, lipgloss.Color("240"), false)
}

// scoreLine formats a score as "x/y correct (p%)". The percentage is omitted
// for an empty bank.
func scoreLine(score domain.Score) string {
	line := fmt.Sprintf("%d/%d correct", score.CorrectCount, score.Total)
	if p, ok := score.Percent(); ok {
		line += fmt.Sprintf(" (%d%%)", p)
	}
	return line
}

func joinKeys(keys []domain.OptionKey) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = string(k)
	}
	return strings.Join(parts, ", ")
}

// stylize applies optional color styling.
func stylize(text string, noColor bool, color lipgloss.Color, bold bool) string {
	if noColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Bold(bold).Render(text)
}
