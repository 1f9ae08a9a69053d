package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"time"
)

// OptionKey identifies one of the fixed answer slots.
type OptionKey string

const (
	KeyA OptionKey = "A"
	KeyB OptionKey = "B"
	KeyC OptionKey = "C"
	KeyD OptionKey = "D"
)

// OptionKeys is the ordered key alphabet. Slot order in a question follows it.
var OptionKeys = []OptionKey{KeyA, KeyB, KeyC, KeyD}

// ParseOptionKey maps a single rune to its key.
func ParseOptionKey(r rune) (OptionKey, bool) {
	for _, key := range OptionKeys {
		if string(r) == string(key) {
			return key, true
		}
	}
	return "", false
}

// Option is one answer choice shown for a question.
type Option struct {
	Key   OptionKey `json:"key"`
	Label string    `json:"label"`
}

// Question is a normalized row of a question bank.
type Question struct {
	ID             string      `json:"id"`
	Text           string      `json:"text"`
	Options        []Option    `json:"options"`
	CorrectKeys    []OptionKey `json:"correctKeys"`
	Explanation    string      `json:"explanation,omitempty"` // empty means absent
	AllowsMultiple bool        `json:"allowsMultiple"`
}

// HasOption reports whether key is one of the question's surviving slots.
func (q Question) HasOption(key OptionKey) bool {
	for _, opt := range q.Options {
		if opt.Key == key {
			return true
		}
	}
	return false
}

// Bank is a parsed workbook.
type Bank struct {
	ID        string     `json:"id"` // content digest of the uploaded file
	Name      string     `json:"name"`
	Questions []Question `json:"questions"`
	LoadedAt  time.Time  `json:"loadedAt"`
}

// Upload is the raw content of a workbook file.
type Upload struct {
	Name string
	Data []byte
}

// Digest identifies the upload by content.
func (u Upload) Digest() string {
	sum := sha256.Sum256(u.Data)
	return hex.EncodeToString(sum[:])
}

// Score is the aggregate outcome of a submission.
type Score struct {
	CorrectCount int `json:"correctCount"`
	Total        int `json:"total"`
}

// Percent returns the rounded percentage. ok is false for an empty bank.
func (s Score) Percent() (int, bool) {
	return percent(s.CorrectCount, s.Total)
}

// QuestionResult is the per-question feedback of a submission.
type QuestionResult struct {
	QuestionID string      `json:"questionId"`
	Selected   []OptionKey `json:"selected"`
	Wrong      []OptionKey `json:"wrong,omitempty"` // selected but not correct
	Answered   bool        `json:"answered"`
	Correct    bool        `json:"correct"`
}

// Result is what a submission returns.
type Result struct {
	Score     Score            `json:"score"`
	Questions []QuestionResult `json:"questions"`
}

// Progress counts questions with at least one selected key.
type Progress struct {
	Answered int `json:"answered"`
	Total    int `json:"total"`
	Percent  int `json:"percent"`
}

func percent(part, total int) (int, bool) {
	if total == 0 {
		return 0, false
	}
	return int(math.Round(float64(part) / float64(total) * 100)), true
}

// NewProgress builds a Progress with its percentage filled in.
func NewProgress(answered, total int) Progress {
	p, _ := percent(answered, total)
	return Progress{Answered: answered, Total: total, Percent: p}
}
