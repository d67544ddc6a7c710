package services

import (
	"strings"

	"github.com/studiofoundry/intake/internal/catalog"
)

// QuestionPatch is a partial overlay edit. Nil fields are left untouched.
type QuestionPatch struct {
	Text          *string   `json:"text,omitempty"`
	Placeholder   *string   `json:"placeholder,omitempty"`
	Required      *bool     `json:"required,omitempty"`
	Options       *[]string `json:"options,omitempty"`
	MaxSelections *int      `json:"maxSelections,omitempty"`
}

type questionOverlay struct {
	text          string
	placeholder   string
	hasText       bool
	hasPlaceholder bool
	required      bool
	hasRequired   bool
	options       []string
	hasOptions    bool
	maxSelections int
	hasMax        bool
}

// Builder accumulates an operator's selection and edits over the catalog and
// projects them into a FormDefinition. Edits never touch the catalog itself,
// only the per-builder overlay map.
type Builder struct {
	cat         *catalog.Catalog
	title       string
	description string
	selected    map[string]bool
	overlays    map[string]*questionOverlay
	savedID     string
}

func NewBuilder(cat *catalog.Catalog) *Builder {
	return &Builder{
		cat:      cat,
		selected: map[string]bool{},
		overlays: map[string]*questionOverlay{},
	}
}

// touch invalidates the saved marker. Any change to title, description,
// selection, or overlays means the last saved copy no longer matches.
func (b *Builder) touch() { b.savedID = "" }

func (b *Builder) SetTitle(title string) {
	b.title = title
	b.touch()
}

func (b *Builder) SetDescription(desc string) {
	b.description = desc
	b.touch()
}

// Select adds a catalog question to the form. Unknown ids are rejected.
func (b *Builder) Select(id string) error {
	if _, ok := b.cat.ByID(id); !ok {
		return NewInvalidError("unknown question id: " + id)
	}
	if !b.selected[id] {
		b.selected[id] = true
		b.touch()
	}
	return nil
}

// Deselect removes a question from the form. Unknown ids are ignored.
func (b *Builder) Deselect(id string) {
	if b.selected[id] {
		delete(b.selected, id)
		b.touch()
	}
}

func (b *Builder) Selected(id string) bool { return b.selected[id] }

// SelectCategory selects every catalog question in the category.
func (b *Builder) SelectCategory(category string) int {
	added := 0
	for _, q := range b.cat.ByCategory(category) {
		if !b.selected[q.ID] {
			b.selected[q.ID] = true
			added++
		}
	}
	if added > 0 {
		b.touch()
	}
	return added
}

// DeselectCategory removes every question in the category from the form.
func (b *Builder) DeselectCategory(category string) int {
	removed := 0
	for _, q := range b.cat.ByCategory(category) {
		if b.selected[q.ID] {
			delete(b.selected, q.ID)
			removed++
		}
	}
	if removed > 0 {
		b.touch()
	}
	return removed
}

// CategorySelected reports whether every question in the category is
// currently selected, so a UI can choose between the two commands instead of
// relying on a single state-dependent toggle.
func (b *Builder) CategorySelected(category string) bool {
	qs := b.cat.ByCategory(category)
	if len(qs) == 0 {
		return false
	}
	for _, q := range qs {
		if !b.selected[q.ID] {
			return false
		}
	}
	return true
}

// EditQuestion records an overlay for a catalog question. Option edits are
// only accepted for multiple-choice questions; blank options are filtered,
// and an edit may not leave a multiple-choice question with no options.
func (b *Builder) EditQuestion(id string, patch QuestionPatch) error {
	q, ok := b.cat.ByID(id)
	if !ok {
		return NewInvalidError("unknown question id: " + id)
	}
	if patch.Options != nil && q.Kind != catalog.MultipleChoice {
		return NewInvalidError("options can only be edited on multiple-choice questions")
	}
	var cleaned []string
	if patch.Options != nil {
		for _, opt := range *patch.Options {
			opt = strings.TrimSpace(opt)
			if opt != "" {
				cleaned = append(cleaned, opt)
			}
		}
		if len(cleaned) == 0 {
			return NewInvalidError("a multiple-choice question needs at least one option")
		}
	}

	ov := b.overlays[id]
	if ov == nil {
		ov = &questionOverlay{}
		b.overlays[id] = ov
	}
	if patch.Text != nil {
		ov.text = strings.TrimSpace(*patch.Text)
		ov.hasText = ov.text != ""
	}
	if patch.Placeholder != nil {
		ov.placeholder = *patch.Placeholder
		ov.hasPlaceholder = true
	}
	if patch.Required != nil {
		ov.required = *patch.Required
		ov.hasRequired = true
	}
	if patch.Options != nil {
		ov.options = cleaned
		ov.hasOptions = true
	}
	if patch.MaxSelections != nil && *patch.MaxSelections > 0 {
		ov.maxSelections = *patch.MaxSelections
		ov.hasMax = true
	}
	b.touch()
	return nil
}

// Build projects the selected questions, in catalog order, through their
// overlays into a FormDefinition. A form with zero questions is rejected
// here, before any network or storage call happens.
func (b *Builder) Build() (FormDefinition, error) {
	if len(b.selected) == 0 {
		return FormDefinition{}, NewInvalidError("select at least one question before saving")
	}
	def := FormDefinition{Title: b.title, Description: b.description}
	for _, q := range b.cat.Questions() {
		if !b.selected[q.ID] {
			continue
		}
		def.Questions = append(def.Questions, b.project(q))
	}
	return def, nil
}

func (b *Builder) project(q catalog.Question) FormQuestion {
	fq := FormQuestion{
		ID:       q.ID,
		Text:     q.Text,
		Category: q.Category,
		Kind:     q.Kind,
	}
	if len(q.Options) > 0 {
		fq.Options = make([]string, len(q.Options))
		copy(fq.Options, q.Options)
	}
	ov := b.overlays[q.ID]
	if ov == nil {
		return fq
	}
	if ov.hasText {
		fq.Text = ov.text
	}
	if ov.hasPlaceholder {
		fq.Placeholder = ov.placeholder
	}
	if ov.hasRequired {
		fq.Required = ov.required
	}
	if ov.hasOptions {
		fq.Options = make([]string, len(ov.options))
		copy(fq.Options, ov.options)
	}
	if ov.hasMax {
		fq.MaxSelections = ov.maxSelections
	}
	return fq
}

// MarkSaved records the id returned by a successful save. The marker is
// cleared by the next edit of any kind; the stored copy stays valid, the
// builder just stops reporting it as current.
func (b *Builder) MarkSaved(id string) { b.savedID = id }

// SavedID returns the id of the last save still in sync with the builder
// state, or "" when unsaved edits exist.
func (b *Builder) SavedID() string { return b.savedID }

// SelectedCount reports how many questions are currently selected.
func (b *Builder) SelectedCount() int { return len(b.selected) }
