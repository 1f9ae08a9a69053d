package app

import (
	"errors"
	"testing"
	"time"

	"mcq-studio/internal/domain"
)

func TestSessionTransitionsLeaveInputUntouched(t *testing.T) {
	loaded := LoadWorkbook(NewState("s1", time.Now()), domain.Bank{
		Questions: []domain.Question{question("q1", true, "AC", "A", "B", "C")},
	})

	answered, err := ToggleSelection(loaded, "q1", domain.KeyA)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if len(loaded.Selections["q1"]) != 0 {
		t.Fatalf("expected input state untouched, got %v", loaded.Selections)
	}
	if got := answered.Progress(); got != (domain.Progress{Answered: 1, Total: 1, Percent: 100}) {
		t.Fatalf("unexpected progress %+v", got)
	}

	reset := Reset(answered)
	if len(reset.Selections) != 0 || len(answered.Selections["q1"]) != 1 {
		t.Fatalf("expected reset to clear only the new state")
	}
	if len(reset.Questions()) != 1 {
		t.Fatalf("expected reset to keep questions")
	}
}

func TestSubmitRecomputesAfterEdits(t *testing.T) {
	state := LoadWorkbook(NewState("s1", time.Now()), domain.Bank{
		Questions: []domain.Question{question("q1", false, "B", "A", "B")},
	})
	state, _ = ToggleSelection(state, "q1", domain.KeyA)
	state, result, err := Submit(state)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Score.CorrectCount != 0 || !state.Submitted {
		t.Fatalf("expected wrong first attempt, got %+v", result.Score)
	}

	state, err = ToggleSelection(state, "q1", domain.KeyB)
	if err != nil {
		t.Fatalf("answers must stay editable after submit: %v", err)
	}
	_, result, _ = Submit(state)
	if result.Score.CorrectCount != 1 {
		t.Fatalf("expected resubmission to recompute, got %+v", result.Score)
	}
}

func TestSubmitWithoutQuestions(t *testing.T) {
	if _, _, err := Submit(NewState("s1", time.Now())); !errors.Is(err, domain.ErrNoQuestions) {
		t.Fatalf("expected no questions error, got %v", err)
	}
}

func TestLoadWorkbookClearsPreviousAnswers(t *testing.T) {
	bank := domain.Bank{Questions: []domain.Question{question("q1", false, "A", "A", "B")}}
	state := LoadWorkbook(NewState("s1", time.Now()), bank)
	state, _ = ToggleSelection(state, "q1", domain.KeyA)
	state, _, _ = Submit(state)

	state = LoadWorkbook(state, bank)
	if len(state.Selections) != 0 || state.Submitted || state.Result != nil {
		t.Fatalf("expected fresh selections after reload, got %+v", state)
	}

	failed := FailLoad(state, &domain.ValidationError{Row: 3, Reason: "missing 'question' text"})
	if failed.Bank != nil || failed.LoadError != "row 3 invalid: missing 'question' text" {
		t.Fatalf("expected failed load to show no questions, got %+v", failed)
	}
}

func TestToggleSelectionUnknownQuestion(t *testing.T) {
	if _, err := ToggleSelection(NewState("s1", time.Now()), "nope", domain.KeyA); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected question not found, got %v", err)
	}
}
