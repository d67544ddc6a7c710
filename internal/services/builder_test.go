package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studiofoundry/intake/internal/catalog"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Load()
	require.NoError(t, err)
	return c
}

func TestBuilderSelectAndBuildInCatalogOrder(t *testing.T) {
	cat := testCatalog(t)
	b := NewBuilder(cat)
	b.SetTitle("Onboarding")

	// Select out of catalog order; Build must restore it.
	require.NoError(t, b.Select("goal-budget"))
	require.NoError(t, b.Select("biz-name"))
	require.NoError(t, b.Select("brand-logo"))

	def, err := b.Build()
	require.NoError(t, err)
	require.Len(t, def.Questions, 3)
	assert.Equal(t, "biz-name", def.Questions[0].ID)
	assert.Equal(t, "goal-budget", def.Questions[1].ID)
	assert.Equal(t, "brand-logo", def.Questions[2].ID)
}

func TestBuilderRejectsUnknownID(t *testing.T) {
	b := NewBuilder(testCatalog(t))
	err := b.Select("nope")
	require.Error(t, err)
	se, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorInvalid, se.Code)

	// Deselect of an unknown id is a silent no-op.
	b.Deselect("nope")
}

func TestBuilderEmptySelectionRejected(t *testing.T) {
	b := NewBuilder(testCatalog(t))
	b.SetTitle("Empty")
	_, err := b.Build()
	require.Error(t, err)
	se, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorInvalid, se.Code)
}

func TestBuilderEmptyTitleAllowed(t *testing.T) {
	b := NewBuilder(testCatalog(t))
	require.NoError(t, b.Select("biz-name"))
	def, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, "", def.Title)
}

func TestBuilderCategoryCommands(t *testing.T) {
	cat := testCatalog(t)
	b := NewBuilder(cat)

	total := len(cat.ByCategory("branding"))
	require.NotZero(t, total)

	added := b.SelectCategory("branding")
	assert.Equal(t, total, added)
	assert.True(t, b.CategorySelected("branding"))

	// Selecting again adds nothing.
	assert.Zero(t, b.SelectCategory("branding"))

	removed := b.DeselectCategory("branding")
	assert.Equal(t, total, removed)
	assert.False(t, b.CategorySelected("branding"))
	assert.Zero(t, b.SelectedCount())
}

func TestBuilderOverlayEdits(t *testing.T) {
	b := NewBuilder(testCatalog(t))
	require.NoError(t, b.Select("brand-logo"))

	text := "Does your company already have a logo?"
	required := true
	opts := []string{"Yes", "  ", "No, design one for us", ""}
	require.NoError(t, b.EditQuestion("brand-logo", QuestionPatch{
		Text:     &text,
		Required: &required,
		Options:  &opts,
	}))

	def, err := b.Build()
	require.NoError(t, err)
	q := def.Questions[0]
	assert.Equal(t, text, q.Text)
	assert.True(t, q.Required)
	assert.Equal(t, []string{"Yes", "No, design one for us"}, q.Options)

	// The catalog itself is untouched.
	orig, ok := testCatalog(t).ByID("brand-logo")
	require.True(t, ok)
	assert.Equal(t, "Do you have an existing logo?", orig.Text)
}

func TestBuilderOptionEditRules(t *testing.T) {
	b := NewBuilder(testCatalog(t))

	// Options on a free-text question are rejected.
	opts := []string{"A", "B"}
	err := b.EditQuestion("biz-name", QuestionPatch{Options: &opts})
	require.Error(t, err)

	// All-blank options are rejected too.
	blank := []string{"", "   "}
	err = b.EditQuestion("brand-logo", QuestionPatch{Options: &blank})
	require.Error(t, err)
}

func TestBuilderSavedMarkerInvalidation(t *testing.T) {
	b := NewBuilder(testCatalog(t))
	require.NoError(t, b.Select("biz-name"))
	b.MarkSaved("abc12345")
	assert.Equal(t, "abc12345", b.SavedID())

	b.SetTitle("Changed")
	assert.Equal(t, "", b.SavedID())

	b.MarkSaved("abc12345")
	require.NoError(t, b.Select("goal-budget"))
	assert.Equal(t, "", b.SavedID())

	b.MarkSaved("abc12345")
	placeholder := "Acme Inc."
	require.NoError(t, b.EditQuestion("biz-name", QuestionPatch{Placeholder: &placeholder}))
	assert.Equal(t, "", b.SavedID())

	// Re-selecting an already selected question changes nothing.
	b.MarkSaved("abc12345")
	require.NoError(t, b.Select("goal-budget"))
	assert.Equal(t, "abc12345", b.SavedID())
}
