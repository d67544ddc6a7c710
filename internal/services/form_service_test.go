package services

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studiofoundry/intake/internal/catalog"
)

type stubFormStore struct {
	forms       map[string]*StoredForm
	createCalls int
	cascadeErr  error
	cascaded    map[string]int
}

func newStubFormStore() *stubFormStore {
	return &stubFormStore{forms: map[string]*StoredForm{}, cascaded: map[string]int{}}
}

func (s *stubFormStore) CreateForm(f *StoredForm) error {
	s.createCalls++
	if _, exists := s.forms[f.ID]; exists {
		return ErrFormExists
	}
	cp := *f
	s.forms[f.ID] = &cp
	return nil
}

func (s *stubFormStore) GetForm(id string) (*StoredForm, error) {
	f, ok := s.forms[id]
	if !ok {
		return nil, nil
	}
	cp := *f
	return &cp, nil
}

func (s *stubFormStore) DeleteForm(id string) (bool, error) {
	if _, ok := s.forms[id]; !ok {
		return false, nil
	}
	delete(s.forms, id)
	return true, nil
}

func (s *stubFormStore) ListForms() ([]*StoredForm, error) {
	out := make([]*StoredForm, 0, len(s.forms))
	for _, f := range s.forms {
		cp := *f
		out = append(out, &cp)
	}
	return out, nil
}

func (s *stubFormStore) DeleteSubmissionsByForm(formID string) (int, error) {
	if s.cascadeErr != nil {
		return 0, s.cascadeErr
	}
	n := s.cascaded[formID]
	delete(s.cascaded, formID)
	return n, nil
}

func testFormService(store *stubFormStore) *FormService {
	return NewFormService(store, "https://example.test", 240*time.Hour, zerolog.Nop())
}

func oneQuestionDef(title string) FormDefinition {
	return FormDefinition{
		Title: title,
		Questions: []FormQuestion{
			{ID: "biz-name", Text: "What is the name of your business?", Category: "business", Kind: catalog.ShortAnswer},
		},
	}
}

func TestSaveFetchRoundTrip(t *testing.T) {
	store := newStubFormStore()
	svc := testFormService(store)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	form, err := svc.Save(oneQuestionDef("Kickoff"))
	require.NoError(t, err)
	require.Len(t, form.ID, 8)
	assert.Equal(t, now, form.CreatedAt)
	assert.Equal(t, now.Add(240*time.Hour), form.ExpiresAt)
	assert.Equal(t, "https://example.test/forms/client/"+form.ID, svc.ShareURL(form.ID))

	got, err := svc.Fetch(form.ID)
	require.NoError(t, err)
	assert.Equal(t, form.Definition(), got.Definition())
}

func TestSaveEmptyDefinitionRejectedBeforeStore(t *testing.T) {
	store := newStubFormStore()
	svc := testFormService(store)

	_, err := svc.Save(FormDefinition{Title: "Empty"})
	require.Error(t, err)
	se, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorInvalid, se.Code)
	assert.Zero(t, store.createCalls, "validation must happen before any store call")
}

func TestSaveEmptyTitleAccepted(t *testing.T) {
	svc := testFormService(newStubFormStore())
	form, err := svc.Save(oneQuestionDef(""))
	require.NoError(t, err)
	assert.Equal(t, "", form.Title)
}

func TestSaveRetriesOnCollision(t *testing.T) {
	store := newStubFormStore()
	svc := testFormService(store)

	ids := []string{"collide1", "collide1", "fresh123"}
	svc.idGen = func() string {
		id := ids[0]
		if len(ids) > 1 {
			ids = ids[1:]
		}
		return id
	}
	_, err := svc.Save(oneQuestionDef("First"))
	require.NoError(t, err)

	form, err := svc.Save(oneQuestionDef("Second"))
	require.NoError(t, err)
	assert.Equal(t, "fresh123", form.ID)
	assert.Equal(t, 3, store.createCalls)
}

func TestSaveGenerationExhausted(t *testing.T) {
	store := newStubFormStore()
	svc := testFormService(store)
	svc.idGen = func() string { return "sameid00" }

	_, err := svc.Save(oneQuestionDef("First"))
	require.NoError(t, err)

	_, err = svc.Save(oneQuestionDef("Second"))
	require.ErrorIs(t, err, ErrGenerationExhausted)
	// 1 successful insert + 10 collision attempts
	assert.Equal(t, 11, store.createCalls)
}

func TestFetchExpiredIsGoneThenNotFound(t *testing.T) {
	store := newStubFormStore()
	svc := testFormService(store)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	form, err := svc.Save(oneQuestionDef("Fleeting"))
	require.NoError(t, err)

	now = now.Add(240*time.Hour + time.Second)
	_, err = svc.Fetch(form.ID)
	se, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorGone, se.Code)

	_, err = svc.Fetch(form.ID)
	se, ok = AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorNotFound, se.Code)
}

func TestListFiltersExpiredAndOrdersNewestFirst(t *testing.T) {
	store := newStubFormStore()
	svc := testFormService(store)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	var ids []string
	for i := 0; i < 3; i++ {
		now := base.Add(time.Duration(i) * time.Hour)
		svc.now = func() time.Time { return now }
		form, err := svc.Save(oneQuestionDef(fmt.Sprintf("Form %d", i)))
		require.NoError(t, err)
		ids = append(ids, form.ID)
	}

	// Advance past the first form's expiry but not the others'.
	svc.now = func() time.Time { return base.Add(240*time.Hour + 30*time.Minute) }
	forms, err := svc.List(10)
	require.NoError(t, err)
	require.Len(t, forms, 2)
	assert.Equal(t, ids[2], forms[0].ID)
	assert.Equal(t, ids[1], forms[1].ID)
	assert.False(t, forms[0].IsExpired)

	// List does not delete eagerly; the expired form is still stored.
	_, stillThere := store.forms[ids[0]]
	assert.True(t, stillThere)

	// Limit truncates.
	forms, err = svc.List(1)
	require.NoError(t, err)
	require.Len(t, forms, 1)
	assert.Equal(t, ids[2], forms[0].ID)
}

func TestRemoveCascades(t *testing.T) {
	store := newStubFormStore()
	svc := testFormService(store)

	form, err := svc.Save(oneQuestionDef("Doomed"))
	require.NoError(t, err)
	store.cascaded[form.ID] = 4

	removed, err := svc.Remove(form.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, removed)

	_, err = svc.Fetch(form.ID)
	se, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorNotFound, se.Code)
}

func TestRemoveNotFound(t *testing.T) {
	svc := testFormService(newStubFormStore())
	_, err := svc.Remove("missing0")
	se, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorNotFound, se.Code)
}

func TestRemoveCascadeFailureIsBestEffort(t *testing.T) {
	store := newStubFormStore()
	svc := testFormService(store)

	form, err := svc.Save(oneQuestionDef("Half"))
	require.NoError(t, err)
	store.cascadeErr = errors.New("backend down")

	removed, err := svc.Remove(form.ID)
	require.NoError(t, err, "cascade failure must not fail the delete")
	assert.Zero(t, removed)
}

func encodeLegacy(t *testing.T, def FormDefinition) string {
	t.Helper()
	raw, err := json.Marshal(def)
	require.NoError(t, err)
	return base64.URLEncoding.EncodeToString(raw)
}

func TestDecodeLegacyRoundTrip(t *testing.T) {
	def := oneQuestionDef("Legacy")
	encoded := encodeLegacy(t, def)
	got, err := DecodeLegacy(encoded)
	require.NoError(t, err)
	assert.Equal(t, def, got)

	_, err = DecodeLegacy("not base64 at all!!!")
	require.Error(t, err)

	_, err = DecodeLegacy("")
	require.Error(t, err)
}
