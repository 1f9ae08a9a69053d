package workbook

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"mcq-studio/internal/domain"
)

func TestParseSingleAnswerRow(t *testing.T) {
	questions, err := NewParser().Parse([]Row{
		{"question": "2+2?", "A": "3", "B": "4", "correct": "B"},
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(questions))
	}
	q := questions[0]
	if q.ID != "1" {
		t.Fatalf("expected positional id 1, got %q", q.ID)
	}
	if !reflect.DeepEqual(q.CorrectKeys, []domain.OptionKey{domain.KeyB}) {
		t.Fatalf("expected correct keys [B], got %v", q.CorrectKeys)
	}
	if len(q.Options) != 2 || q.Options[1].Label != "4" {
		t.Fatalf("unexpected options %+v", q.Options)
	}
	if q.AllowsMultiple {
		t.Fatalf("expected single-answer question")
	}
	if q.Explanation != "" {
		t.Fatalf("expected no explanation, got %q", q.Explanation)
	}
}

func TestNormalizeKeysSeparators(t *testing.T) {
	want := []domain.OptionKey{domain.KeyA, domain.KeyC}
	for _, raw := range []string{"AC", "A,C", "A;C", "A C", " a , c ", "ACA", "A/C?"} {
		if got := NormalizeKeys(raw); !reflect.DeepEqual(got, want) {
			t.Fatalf("NormalizeKeys(%q) = %v, want %v", raw, got, want)
		}
	}
	if got := NormalizeKeys("CA"); !reflect.DeepEqual(got, []domain.OptionKey{domain.KeyC, domain.KeyA}) {
		t.Fatalf("expected first-seen order, got %v", got)
	}
	if got := NormalizeKeys("xyz 42"); len(got) != 0 {
		t.Fatalf("expected no keys, got %v", got)
	}
}

func TestParseFallsBackToFirstSurvivingOption(t *testing.T) {
	questions, err := NewParser().Parse([]Row{
		{"question": "Pick", "A": "  ", "B": "", "C": "yes", "D": "no", "correct": "??"},
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	q := questions[0]
	if !reflect.DeepEqual(q.CorrectKeys, []domain.OptionKey{domain.KeyC}) {
		t.Fatalf("expected fallback to C, got %v", q.CorrectKeys)
	}
	if len(q.Options) != 2 || q.Options[0].Key != domain.KeyC || q.Options[1].Key != domain.KeyD {
		t.Fatalf("expected options C,D in order, got %+v", q.Options)
	}
}

func TestParseColumnAliases(t *testing.T) {
	questions, err := NewParser().Parse([]Row{
		{"id": "q-7", "question": "Alias", "optionA": "x", "optionB": "y", "answer": "b", "explanation": "  because  ", "multi": " YES "},
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	q := questions[0]
	if q.ID != "q-7" {
		t.Fatalf("expected id q-7, got %q", q.ID)
	}
	if len(q.Options) != 2 || q.Options[0].Label != "x" {
		t.Fatalf("expected long-form options, got %+v", q.Options)
	}
	if !reflect.DeepEqual(q.CorrectKeys, []domain.OptionKey{domain.KeyB}) {
		t.Fatalf("expected answer alias B, got %v", q.CorrectKeys)
	}
	if q.Explanation != "because" {
		t.Fatalf("expected trimmed explanation, got %q", q.Explanation)
	}
	if !q.AllowsMultiple {
		t.Fatalf("expected multi=YES to allow multiple")
	}
}

func TestParseShortAliasWinsWhenPresent(t *testing.T) {
	questions, err := NewParser(WithLenientKeys()).Parse([]Row{
		{"question": "Shadow", "A": "", "optionA": "hidden", "B": "shown", "correct": "", "answer": "A"},
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	q := questions[0]
	if len(q.Options) != 1 || q.Options[0].Key != domain.KeyB {
		t.Fatalf("expected blank A column to shadow optionA, got %+v", q.Options)
	}
	if !reflect.DeepEqual(q.CorrectKeys, []domain.OptionKey{domain.KeyB}) {
		t.Fatalf("expected present-but-blank correct column to shadow answer, got %v", q.CorrectKeys)
	}
}

func TestParseMultiFlag(t *testing.T) {
	cases := map[string]bool{
		"1": true, "true": true, "TRUE": true, " yes ": true,
		"0": false, "no": false, "y": false, "": false,
	}
	for raw, want := range cases {
		q, err := NewParser().ParseRow(1, Row{"question": "q", "A": "a", "multi": raw})
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if q.AllowsMultiple != want {
			t.Fatalf("multi=%q: expected %v, got %v", raw, want, q.AllowsMultiple)
		}
	}
}

func TestParseRejectsBlankQuestion(t *testing.T) {
	_, err := NewParser().Parse([]Row{
		{"question": "ok", "A": "a"},
		{"question": "ok", "A": "a"},
		{"question": "   ", "A": "a"},
		{"question": "never reached"},
	})
	var validationErr *domain.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if validationErr.Row != 4 {
		t.Fatalf("expected row 4 (third data row plus header), got %d", validationErr.Row)
	}
	if !strings.Contains(err.Error(), "question") {
		t.Fatalf("expected message to name the question requirement, got %q", err.Error())
	}
}

func TestParseRejectsRowWithoutOptions(t *testing.T) {
	_, err := NewParser().Parse([]Row{
		{"question": "No choices", "A": " ", "B": "", "correct": "A"},
	})
	var validationErr *domain.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if validationErr.Row != 2 {
		t.Fatalf("expected row 2, got %d", validationErr.Row)
	}
	if !strings.Contains(validationErr.Reason, "options") {
		t.Fatalf("expected reason to mention options, got %q", validationErr.Reason)
	}
}

func TestParseCorrectKeyOnBlankOption(t *testing.T) {
	row := Row{"question": "Dangling", "A": "a", "B": "b", "D": "", "correct": "D"}

	_, err := NewParser().Parse([]Row{row})
	var validationErr *domain.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected strict parser to reject dangling key, got %v", err)
	}

	questions, err := NewParser(WithLenientKeys()).Parse([]Row{row})
	if err != nil {
		t.Fatalf("lenient parse: %v", err)
	}
	if !reflect.DeepEqual(questions[0].CorrectKeys, []domain.OptionKey{domain.KeyD}) {
		t.Fatalf("expected lenient parser to keep D, got %v", questions[0].CorrectKeys)
	}
}

func TestParseIsDeterministic(t *testing.T) {
	rows := []Row{
		{"id": "a", "question": "One", "A": "1", "B": "2", "correct": "b"},
		{"question": "Two", "A": "x", "C": "z", "correct": "A,C", "multi": "1"},
	}
	first, err := NewParser().Parse(rows)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	second, err := NewParser().Parse(rows)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical output, got %+v and %+v", first, second)
	}
	if second[1].ID != "2" {
		t.Fatalf("expected positional id 2, got %q", second[1].ID)
	}
}

func TestParseBlankIDFallsBackToPosition(t *testing.T) {
	questions, err := NewParser().Parse([]Row{
		{"id": "q1", "question": "One", "A": "1", "correct": "A"},
		{"id": "  ", "question": "Two", "A": "2", "correct": "A"},
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if questions[0].ID != "q1" || questions[1].ID != "2" {
		t.Fatalf("expected ids q1 and 2, got %q and %q", questions[0].ID, questions[1].ID)
	}
}
