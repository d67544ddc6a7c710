// Package catalog holds the fixed onboarding question set the form builder
// composes from. The dataset is embedded at build time and parsed once; the
// resulting catalog is immutable.
package catalog

import (
	"embed"
	"encoding/csv"
	"strings"
)

//go:embed questions.csv
var dataFS embed.FS

// InputKind describes how a question is answered.
type InputKind string

const (
	ShortAnswer    InputKind = "short-answer"
	LongAnswer     InputKind = "long-answer"
	MultipleChoice InputKind = "multiple-choice"
	Other          InputKind = "other"
)

// Question is a single catalog entry. IDs are assigned in the dataset and
// stay stable across reorders of the source file.
type Question struct {
	ID       string    `json:"id"`
	Category string    `json:"category"`
	Text     string    `json:"text"`
	Tags     []string  `json:"tags,omitempty"`
	Kind     InputKind `json:"inputKind"`
	Options  []string  `json:"options,omitempty"`
}

// Category pairs a stable id with its display label.
type Category struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Categories lists the nine fixed question categories in display order.
var Categories = []Category{
	{ID: "business", Label: "Your Business"},
	{ID: "goals", Label: "Goals & Budget"},
	{ID: "audience", Label: "Audience"},
	{ID: "branding", Label: "Branding"},
	{ID: "design", Label: "Design Direction"},
	{ID: "content", Label: "Content"},
	{ID: "features", Label: "Features"},
	{ID: "technical", Label: "Technical"},
	{ID: "logistics", Label: "Working Together"},
}

var yesNoOptions = []string{"Yes", "No", "Maybe", "Not sure"}

// choiceRule attaches a concrete option set to questions matching a keyword.
// Rules are checked in order against the lower-cased question text; the
// first match wins, ahead of the generic long-answer and yes/no rules.
type choiceRule struct {
	keyword string
	options []string
}

var choiceRules = []choiceRule{
	{"budget", []string{
		"Under $2,500",
		"$2,500 – $5,000",
		"$5,000 – $10,000",
		"$10,000 – $25,000",
		"Over $25,000",
	}},
	{"existing logo", []string{
		"Yes, and we're happy with it",
		"Yes, but it needs refreshing",
		"No, we need help creating one",
	}},
	{"hear about", []string{
		"Google search",
		"Social media",
		"Referral from a friend or colleague",
		"Saw a site you built",
		"Other (specify)",
	}},
	{"timeline", []string{
		"As soon as possible",
		"Within 1 month",
		"1–3 months",
		"3–6 months",
		"No firm deadline",
	}},
	{"how many pages", []string{
		"1–5",
		"6–10",
		"11–20",
		"More than 20",
		"Not sure yet",
	}},
}

var longAnswerCues = []string{"describe", "tell us", "explain", "walk us", "why "}

// Trailing spaces keep "are you " from matching "are your customers".
var yesNoCues = []string{"do you ", "are you ", "have you ", "will you ", "would you ", "is there "}

// Classify determines the input kind (and option set, for multiple choice)
// from the question text alone. The rule order is load-bearing: choice-set
// rules run first, then long-form cues, then yes/no phrasing, and anything
// left over is a short answer.
func Classify(text string) (InputKind, []string) {
	lower := strings.ToLower(text)
	for _, rule := range choiceRules {
		if strings.Contains(lower, rule.keyword) {
			opts := make([]string, len(rule.options))
			copy(opts, rule.options)
			return MultipleChoice, opts
		}
	}
	for _, cue := range longAnswerCues {
		if strings.Contains(lower, cue) {
			return LongAnswer, nil
		}
	}
	for _, cue := range yesNoCues {
		if strings.Contains(lower, cue) {
			opts := make([]string, len(yesNoOptions))
			copy(opts, yesNoOptions)
			return MultipleChoice, opts
		}
	}
	return ShortAnswer, nil
}

// Catalog is the parsed, ordered question set.
type Catalog struct {
	questions []Question
	byID      map[string]int
}

// Load parses the embedded dataset. Rows missing an id, category, or
// question text are skipped; a duplicate id keeps the first occurrence.
func Load() (*Catalog, error) {
	raw, err := dataFS.ReadFile("questions.csv")
	if err != nil {
		return nil, err
	}
	return parse(string(raw))
}

func parse(data string) (*Catalog, error) {
	r := csv.NewReader(strings.NewReader(data))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	c := &Catalog{byID: map[string]int{}}
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		if len(row) < 3 {
			continue
		}
		id := strings.TrimSpace(row[0])
		category := strings.TrimSpace(row[1])
		text := strings.TrimSpace(row[2])
		if id == "" || category == "" || text == "" {
			continue
		}
		if _, dup := c.byID[id]; dup {
			continue
		}
		// The include flag retires a question without renumbering the rest.
		if len(row) > 4 && strings.TrimSpace(row[4]) == "n" {
			continue
		}
		q := Question{ID: id, Category: category, Text: text}
		if len(row) > 3 {
			q.Tags = splitTags(row[3])
		}
		q.Kind, q.Options = Classify(text)
		c.byID[id] = len(c.questions)
		c.questions = append(c.questions, q)
	}
	return c, nil
}

func splitTags(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ";") {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Questions returns the full catalog in dataset order. The slice is a copy;
// the underlying questions are shared and must not be mutated.
func (c *Catalog) Questions() []Question {
	out := make([]Question, len(c.questions))
	copy(out, c.questions)
	return out
}

// ByID returns the question with the given id, or false.
func (c *Catalog) ByID(id string) (Question, bool) {
	idx, ok := c.byID[id]
	if !ok {
		return Question{}, false
	}
	return c.questions[idx], true
}

// ByCategory returns the questions in a category, preserving dataset order.
func (c *Catalog) ByCategory(category string) []Question {
	var out []Question
	for _, q := range c.questions {
		if q.Category == category {
			out = append(out, q)
		}
	}
	return out
}

// Position returns the dataset index of a question id, used to keep composed
// forms in catalog order regardless of selection order.
func (c *Catalog) Position(id string) (int, bool) {
	idx, ok := c.byID[id]
	return idx, ok
}

// Len reports the number of catalog questions.
func (c *Catalog) Len() int { return len(c.questions) }
