package services

import (
	"strings"

	"github.com/studiofoundry/intake/internal/catalog"
)

// specifySuffix marks an option that needs a secondary free-text value.
const specifySuffix = "(specify)"

// ContactInfo is collected by the fixed last step of every funnel.
type ContactInfo struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Business string `json:"business,omitempty"`
}

// StepView is what a client renders for the current step.
type StepView struct {
	Index     int           `json:"index"`
	Total     int           `json:"total"`
	Contact   bool          `json:"contact"`
	Question  *FormQuestion `json:"question,omitempty"`
	Pending   []string      `json:"pending,omitempty"`
	Rehydrate string        `json:"rehydrate,omitempty"`
}

// Funnel walks a recipient through a form one question at a time: steps 0..N-1
// are the form's questions, step N is the contact step, and a successful
// submit is terminal. State lives in memory only; abandoning the funnel
// simply discards it.
type Funnel struct {
	def       FormDefinition
	formID    string
	pageURL   string
	index     int
	answers   map[string][]string
	pending   []string
	submitted bool
}

// NewFunnel starts a funnel over a definition. formID is "" for legacy
// inline definitions that were never persisted.
func NewFunnel(def FormDefinition, formID, pageURL string) (*Funnel, error) {
	if len(def.Questions) == 0 {
		return nil, NewInvalidError("form has no questions")
	}
	return &Funnel{
		def:     def,
		formID:  formID,
		pageURL: pageURL,
		answers: map[string][]string{},
	}, nil
}

func (f *Funnel) FormID() string { return f.formID }

func (f *Funnel) Definition() FormDefinition { return f.def }

func (f *Funnel) Submitted() bool { return f.submitted }

// AtContactStep reports whether the funnel has passed every question step.
func (f *Funnel) AtContactStep() bool { return f.index == len(f.def.Questions) }

func (f *Funnel) current() *FormQuestion {
	if f.AtContactStep() {
		return nil
	}
	return &f.def.Questions[f.index]
}

func (f *Funnel) multiSelect(q *FormQuestion) bool {
	return q.Kind == catalog.MultipleChoice && q.MaxSelections > 1
}

// Current renders the step the funnel is on.
func (f *Funnel) Current() StepView {
	view := StepView{
		Index:   f.index,
		Total:   len(f.def.Questions) + 1,
		Contact: f.AtContactStep(),
	}
	if q := f.current(); q != nil {
		view.Question = q
		if f.multiSelect(q) {
			view.Pending = append([]string(nil), f.pending...)
		}
	}
	return view
}

// Answer records a value for the current question step and advances.
// Free-text steps block in place when required and empty; an optional empty
// input advances without recording anything. Single-select choices must be
// one of the question's options, and an option carrying the specify suffix
// is rewritten to "<label>: <text>" before it is recorded.
func (f *Funnel) Answer(value, specify string) (StepView, error) {
	if f.submitted {
		return f.Current(), NewInvalidError("already submitted")
	}
	q := f.current()
	if q == nil {
		return f.Current(), NewInvalidError("contact step expects submit")
	}
	if q.Kind == catalog.MultipleChoice {
		if f.multiSelect(q) {
			return f.Current(), NewInvalidError("multi-select step expects toggle and next")
		}
		if !hasOption(q.Options, value) {
			return f.Current(), NewInvalidError("not one of the available options")
		}
		if strings.HasSuffix(value, specifySuffix) {
			specify = strings.TrimSpace(specify)
			if specify == "" {
				return f.Current(), NewInvalidError("this option needs a short description")
			}
			label := strings.TrimSpace(strings.TrimSuffix(value, specifySuffix))
			value = label + ": " + specify
		}
		f.answers[q.ID] = []string{value}
		return f.advance(), nil
	}

	value = strings.TrimSpace(value)
	if value == "" {
		if q.Required {
			return f.Current(), NewInvalidError("this question is required")
		}
		delete(f.answers, q.ID)
		return f.advance(), nil
	}
	f.answers[q.ID] = []string{value}
	return f.advance(), nil
}

// Toggle flips an option in the pending set of a multi-select step. A toggle
// that would exceed the question's maximum is ignored, not an error.
func (f *Funnel) Toggle(option string) (StepView, error) {
	if f.submitted {
		return f.Current(), NewInvalidError("already submitted")
	}
	q := f.current()
	if q == nil || !f.multiSelect(q) {
		return f.Current(), NewInvalidError("not a multi-select step")
	}
	if !hasOption(q.Options, option) {
		return f.Current(), NewInvalidError("not one of the available options")
	}
	for i, p := range f.pending {
		if p == option {
			f.pending = append(f.pending[:i], f.pending[i+1:]...)
			return f.Current(), nil
		}
	}
	if len(f.pending) >= q.MaxSelections {
		return f.Current(), nil
	}
	f.pending = append(f.pending, option)
	return f.Current(), nil
}

// Next records the pending multi-select set and advances. It is rejected
// while the set is empty.
func (f *Funnel) Next() (StepView, error) {
	if f.submitted {
		return f.Current(), NewInvalidError("already submitted")
	}
	q := f.current()
	if q == nil || !f.multiSelect(q) {
		return f.Current(), NewInvalidError("not a multi-select step")
	}
	if len(f.pending) == 0 {
		return f.Current(), NewInvalidError("pick at least one option")
	}
	f.answers[q.ID] = append([]string(nil), f.pending...)
	return f.advance(), nil
}

func (f *Funnel) advance() StepView {
	f.index++
	f.pending = nil
	return f.Current()
}

// Back moves one step earlier. Free-text steps report their prior answer for
// rehydration; choice answers stay recorded but are not replayed into the
// view. Back at step 0 is a no-op.
func (f *Funnel) Back() StepView {
	if f.submitted || f.index == 0 {
		return f.Current()
	}
	f.index--
	f.pending = nil
	view := f.Current()
	if q := f.current(); q != nil && q.Kind != catalog.MultipleChoice {
		if prior, ok := f.answers[q.ID]; ok && len(prior) == 1 {
			view.Rehydrate = prior[0]
		}
	}
	return view
}

// Answers exposes the recorded answers keyed by question id.
func (f *Funnel) Answers() map[string][]string {
	out := make(map[string][]string, len(f.answers))
	for k, v := range f.answers {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// BeginSubmit validates that the funnel is ready for final submission.
func (f *Funnel) BeginSubmit(contact ContactInfo) error {
	if f.submitted {
		return NewInvalidError("already submitted")
	}
	if !f.AtContactStep() {
		return NewInvalidError("answer the remaining questions first")
	}
	if strings.TrimSpace(contact.Name) == "" || strings.TrimSpace(contact.Email) == "" {
		return NewInvalidError("name and email are required")
	}
	return nil
}

// MarkSubmitted moves the funnel to its terminal state.
func (f *Funnel) MarkSubmitted() { f.submitted = true }

// PageURL is where the recipient filled the form in.
func (f *Funnel) PageURL() string { return f.pageURL }

func hasOption(options []string, value string) bool {
	for _, o := range options {
		if o == value {
			return true
		}
	}
	return false
}
