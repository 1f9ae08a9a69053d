package app

import (
	"time"

	"mcq-studio/internal/domain"
)

// State is one quiz session. Transition functions below return a new State
// and leave their input untouched, so a State can be shared or cached freely.
type State struct {
	ID         string         `json:"id"`
	Bank       *domain.Bank   `json:"bank,omitempty"`
	Selections Selections     `json:"selections"`
	Submitted  bool           `json:"submitted"`
	Result     *domain.Result `json:"result,omitempty"`
	Loading    bool           `json:"loading"`
	LoadError  string         `json:"loadError,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// NewState returns an empty session.
func NewState(id string, now time.Time) State {
	return State{
		ID:         id,
		Selections: Selections{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Questions returns the loaded questions, or nil before a successful load.
func (s State) Questions() []domain.Question {
	if s.Bank == nil {
		return nil
	}
	return s.Bank.Questions
}

// Question looks a loaded question up by ID.
func (s State) Question(id string) (domain.Question, bool) {
	for _, q := range s.Questions() {
		if q.ID == id {
			return q, true
		}
	}
	return domain.Question{}, false
}

// Progress counts questions that have at least one selected key.
func (s State) Progress() domain.Progress {
	questions := s.Questions()
	answered := 0
	for _, q := range questions {
		if len(s.Selections[q.ID]) > 0 {
			answered++
		}
	}
	return domain.NewProgress(answered, len(questions))
}

// BeginLoad marks a new upload in flight. The previous bank and every answer
// are discarded straight away.
func BeginLoad(s State) State {
	s.Bank = nil
	s.Selections = Selections{}
	s.Submitted = false
	s.Result = nil
	s.Loading = true
	s.LoadError = ""
	return s
}

// LoadWorkbook installs a parsed bank with empty selections.
func LoadWorkbook(s State, bank domain.Bank) State {
	s = BeginLoad(s)
	s.Bank = &bank
	s.Loading = false
	return s
}

// FailLoad records why the upload could not be used. No questions remain.
func FailLoad(s State, err error) State {
	s = BeginLoad(s)
	s.Loading = false
	s.LoadError = err.Error()
	return s
}

// ToggleSelection clicks key on question questionID.
func ToggleSelection(s State, questionID string, key domain.OptionKey) (State, error) {
	q, ok := s.Question(questionID)
	if !ok {
		return s, domain.ErrQuestionNotFound
	}
	next, err := Toggle(q, s.Selections[questionID], key)
	if err != nil {
		return s, err
	}
	selections := s.Selections.clone()
	selections[questionID] = next
	s.Selections = selections
	return s, nil
}

// Reset clears every answer and the last result but keeps the bank.
func Reset(s State) State {
	s.Selections = Selections{}
	s.Submitted = false
	s.Result = nil
	return s
}

// Submit scores the current selections. Answers stay editable afterwards and a
// later Submit recomputes from scratch.
func Submit(s State) (State, domain.Result, error) {
	questions := s.Questions()
	if len(questions) == 0 {
		return s, domain.Result{}, domain.ErrNoQuestions
	}
	result := Evaluate(questions, s.Selections)
	s.Submitted = true
	s.Result = &result
	return s, result, nil
}
