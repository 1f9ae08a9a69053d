package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned when a quiz session does not exist or has expired.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrQuestionNotFound indicates a selection referenced an unknown question ID.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrOptionNotFound indicates a selection referenced a key the question does not offer.
	ErrOptionNotFound = errors.New("option not found")
	// ErrNoQuestions is returned when submitting a session without a loaded bank.
	ErrNoQuestions = errors.New("no questions loaded")
	// ErrUnreadableWorkbook wraps failures to read the uploaded bytes as a table.
	ErrUnreadableWorkbook = errors.New("could not read this file")
	// ErrLoadSuperseded is returned to a load that was replaced by a newer upload.
	ErrLoadSuperseded = errors.New("workbook load superseded by a newer upload")
)

// ValidationError names the spreadsheet row that failed normalization.
// Row is the human-facing number: data position plus one for the header row.
type ValidationError struct {
	Row    int
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("row %d invalid: %s", e.Row, e.Reason)
}
