package workbook

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"mcq-studio/internal/domain"
)

// Column aliases accepted per logical field, in order of preference.
var (
	idColumns          = []string{"id"}
	questionColumns    = []string{"question"}
	correctColumns     = []string{"correct", "answer"}
	explanationColumns = []string{"explanation"}
	multiColumns       = []string{"multi"}

	optionColumns = map[domain.OptionKey][]string{
		domain.KeyA: {"A", "optionA"},
		domain.KeyB: {"B", "optionB"},
		domain.KeyC: {"C", "optionC"},
		domain.KeyD: {"D", "optionD"},
	}
)

// Option configures a Parser.
type Option func(*Parser)

// WithLenientKeys keeps correct keys that point at blank option slots instead
// of rejecting the row.
func WithLenientKeys() Option { return func(p *Parser) { p.lenientKeys = true } }

// Parser normalizes spreadsheet rows into questions.
type Parser struct {
	lenientKeys bool
}

func NewParser(opts ...Option) *Parser {
	p := &Parser{}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Parse normalizes every row, stopping at the first invalid one. The header
// is taken to be line 1.
func (p *Parser) Parse(rows []Row) ([]domain.Question, error) {
	return p.ParseSheet(Sheet{HeaderLine: 1, Rows: rows})
}

// ParseSheet is Parse for rows whose header sits on sheet.HeaderLine.
func (p *Parser) ParseSheet(sheet Sheet) ([]domain.Question, error) {
	headerLine := max(sheet.HeaderLine, 1)
	questions := make([]domain.Question, 0, len(sheet.Rows))
	for i, row := range sheet.Rows {
		q, err := p.parseRow(i+1, headerLine+i+1, row)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// ParseRow normalizes a single row. position is 1-based among data rows.
func (p *Parser) ParseRow(position int, row Row) (domain.Question, error) {
	return p.parseRow(position, position+1, row)
}

// parseRow reports errors against line, the row number shown by spreadsheet tools.
func (p *Parser) parseRow(position, line int, row Row) (domain.Question, error) {
	q := domain.Question{
		ID:          strings.TrimSpace(row.Text(idColumns...)),
		Text:        strings.TrimSpace(row.Text(questionColumns...)),
		Options:     parseOptions(row),
		Explanation: strings.TrimSpace(row.Text(explanationColumns...)),
	}
	if q.ID == "" {
		q.ID = strconv.Itoa(position)
	}

	q.CorrectKeys = NormalizeKeys(row.Text(correctColumns...))
	if len(q.CorrectKeys) == 0 && len(q.Options) > 0 {
		q.CorrectKeys = []domain.OptionKey{q.Options[0].Key}
	}

	switch strings.ToLower(strings.TrimSpace(row.Text(multiColumns...))) {
	case "1", "true", "yes":
		q.AllowsMultiple = true
	}

	if q.Text == "" {
		return domain.Question{}, &domain.ValidationError{Row: line, Reason: "missing 'question' text"}
	}
	if len(q.Options) == 0 {
		return domain.Question{}, &domain.ValidationError{Row: line, Reason: "no options: fill at least one of the A-D columns"}
	}
	if !p.lenientKeys {
		for _, key := range q.CorrectKeys {
			if !q.HasOption(key) {
				return domain.Question{}, &domain.ValidationError{
					Row:    line,
					Reason: fmt.Sprintf("correct answer %s refers to a blank option", key),
				}
			}
		}
	}
	return q, nil
}

func parseOptions(row Row) []domain.Option {
	options := make([]domain.Option, 0, len(domain.OptionKeys))
	for _, key := range domain.OptionKeys {
		label := strings.TrimSpace(row.Text(optionColumns[key]...))
		if label == "" {
			continue
		}
		options = append(options, domain.Option{Key: key, Label: label})
	}
	return options
}

// NormalizeKeys uppercases raw, keeps only characters of the key alphabet and
// drops repeats. "A,C", "A;C", "a c" and "AC" all yield [A C].
func NormalizeKeys(raw string) []domain.OptionKey {
	var keys []domain.OptionKey
	seen := make(map[domain.OptionKey]struct{}, len(domain.OptionKeys))
	for _, r := range strings.ToUpper(raw) {
		key, ok := domain.ParseOptionKey(r)
		if !ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	return keys
}

// Loader reads and parses uploads into banks.
type Loader struct {
	parser *Parser
	now    func() time.Time
}

func NewLoader(parser *Parser) *Loader {
	return &Loader{parser: parser, now: time.Now}
}

// LoadBank reads the first sheet of the upload and parses it. A canceled ctx
// abandons the load between the read and the parse.
func (l *Loader) LoadBank(ctx context.Context, upload domain.Upload) (domain.Bank, error) {
	if err := ctx.Err(); err != nil {
		return domain.Bank{}, err
	}
	sheet, err := ReadSheet(upload)
	if err != nil {
		return domain.Bank{}, err
	}
	if err := ctx.Err(); err != nil {
		return domain.Bank{}, err
	}
	questions, err := l.parser.ParseSheet(sheet)
	if err != nil {
		return domain.Bank{}, err
	}
	return domain.Bank{
		ID:        upload.Digest(),
		Name:      upload.Name,
		Questions: questions,
		LoadedAt:  l.now(),
	}, nil
}
