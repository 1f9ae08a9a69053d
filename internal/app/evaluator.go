package app

import "mcq-studio/internal/domain"

// Selections maps question ID to the keys currently chosen for it.
type Selections map[string][]domain.OptionKey

func (s Selections) clone() Selections {
	out := make(Selections, len(s))
	for id, keys := range s {
		out[id] = append([]domain.OptionKey(nil), keys...)
	}
	return out
}

// Toggle applies a click on key to the current selection of q and returns the
// new selection. Single-answer questions behave like radio buttons, multi-answer
// ones like checkboxes. current is never modified.
func Toggle(q domain.Question, current []domain.OptionKey, key domain.OptionKey) ([]domain.OptionKey, error) {
	if !q.HasOption(key) {
		return nil, domain.ErrOptionNotFound
	}
	if !q.AllowsMultiple {
		return []domain.OptionKey{key}, nil
	}

	next := make([]domain.OptionKey, 0, len(current)+1)
	removed := false
	for _, k := range current {
		if k == key {
			removed = true
			continue
		}
		next = append(next, k)
	}
	if !removed {
		next = append(next, key)
	}
	return next, nil
}

// Matches reports whether selected equals the correct key set of q, ignoring
// order and repeats. An empty selection never matches.
func Matches(q domain.Question, selected []domain.OptionKey) bool {
	chosen := keySet(selected)
	if len(chosen) == 0 {
		return false
	}
	correct := keySet(q.CorrectKeys)
	if len(chosen) != len(correct) {
		return false
	}
	for k := range chosen {
		if _, ok := correct[k]; !ok {
			return false
		}
	}
	return true
}

// Evaluate scores every question against the selections. It never fails:
// unanswered questions simply count as incorrect.
func Evaluate(questions []domain.Question, selections Selections) domain.Result {
	result := domain.Result{
		Score:     domain.Score{Total: len(questions)},
		Questions: make([]domain.QuestionResult, 0, len(questions)),
	}
	for _, q := range questions {
		selected := selections[q.ID]
		qr := domain.QuestionResult{
			QuestionID: q.ID,
			Selected:   append([]domain.OptionKey(nil), selected...),
			Answered:   len(selected) > 0,
			Correct:    Matches(q, selected),
		}
		correct := keySet(q.CorrectKeys)
		for _, k := range selected {
			if _, ok := correct[k]; !ok {
				qr.Wrong = append(qr.Wrong, k)
			}
		}
		if qr.Correct {
			result.Score.CorrectCount++
		}
		result.Questions = append(result.Questions, qr)
	}
	return result
}

func keySet(keys []domain.OptionKey) map[domain.OptionKey]struct{} {
	set := make(map[domain.OptionKey]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}
