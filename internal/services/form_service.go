package services

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrFormExists is returned by stores when a form id is already taken. The
// save loop treats it as a collision and regenerates.
var ErrFormExists = errors.New("form id already exists")

// ErrGenerationExhausted means ten consecutive id collisions. The store
// would have to hold a large share of the 36^8 id space for this to happen.
var ErrGenerationExhausted = errors.New("form id generation exhausted")

const maxIDAttempts = 10

// FormStore abstracts persistence for composed forms. CreateForm must be
// atomic create-if-absent on the id.
type FormStore interface {
	CreateForm(f *StoredForm) error
	GetForm(id string) (*StoredForm, error)
	DeleteForm(id string) (bool, error)
	ListForms() ([]*StoredForm, error)
	DeleteSubmissionsByForm(formID string) (int, error)
}

// FormService owns the form lifecycle: save with collision retry, fetch
// with lazy expiry, list, and cascading delete.
type FormService struct {
	store   FormStore
	now     func() time.Time
	idGen   func() string
	ttl     time.Duration
	baseURL string
	log     zerolog.Logger
}

func NewFormService(store FormStore, baseURL string, ttl time.Duration, log zerolog.Logger) *FormService {
	return &FormService{
		store:   store,
		now:     func() time.Time { return time.Now().UTC() },
		idGen:   func() string { return strings.ToLower(shortID(8)) },
		ttl:     ttl,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log,
	}
}

// ShareURL is the recipient-facing link for a stored form.
func (s *FormService) ShareURL(id string) string {
	return s.baseURL + "/forms/client/" + id
}

// Save validates and persists a definition under a fresh 8-character id,
// regenerating on collision up to ten times.
func (s *FormService) Save(def FormDefinition) (*StoredForm, error) {
	if len(def.Questions) == 0 {
		return nil, NewInvalidError("select at least one question before saving")
	}
	now := s.now()
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		form := &StoredForm{
			ID:          s.idGen(),
			Title:       def.Title,
			Description: def.Description,
			Questions:   def.Questions,
			CreatedAt:   now,
			ExpiresAt:   now.Add(s.ttl),
		}
		err := s.store.CreateForm(form)
		if errors.Is(err, ErrFormExists) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return form, nil
	}
	return nil, ErrGenerationExhausted
}

// Fetch returns a stored form by id. An expired form is deleted on read and
// reported as gone; the next fetch of the same id is a plain not-found.
func (s *FormService) Fetch(id string) (*StoredForm, error) {
	form, err := s.store.GetForm(id)
	if err != nil {
		return nil, err
	}
	if form == nil {
		return nil, NewNotFoundError("form not found")
	}
	if s.now().After(form.ExpiresAt) {
		if _, derr := s.store.DeleteForm(id); derr != nil {
			s.log.Warn().Err(derr).Str("form_id", id).Msg("lazy delete of expired form failed")
		}
		return nil, NewGoneError("form link expired")
	}
	return form, nil
}

// List returns up to limit unexpired forms, newest first. Expired entries
// are filtered from the view but left in place; only Fetch deletes eagerly.
func (s *FormService) List(limit int) ([]FormSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	forms, err := s.store.ListForms()
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]FormSummary, 0, len(forms))
	for _, f := range forms {
		if now.After(f.ExpiresAt) {
			continue
		}
		out = append(out, FormSummary{
			ID:            f.ID,
			Title:         f.Title,
			Description:   f.Description,
			QuestionCount: len(f.Questions),
			CreatedAt:     f.CreatedAt,
			ExpiresAt:     f.ExpiresAt,
			IsExpired:     false,
			URL:           s.ShareURL(f.ID),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Remove deletes a form and cascades to its submissions. The cascade is
// best-effort: a failure there is logged and the form deletion stands.
func (s *FormService) Remove(id string) (int, error) {
	ok, err := s.store.DeleteForm(id)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, NewNotFoundError("form not found")
	}
	removed, err := s.store.DeleteSubmissionsByForm(id)
	if err != nil {
		s.log.Warn().Err(err).Str("form_id", id).Msg("submission cascade incomplete")
	}
	return removed, nil
}

// DecodeLegacy resolves the old share-link variant that carries the whole
// definition as base64 JSON in a query parameter.
func DecodeLegacy(encoded string) (FormDefinition, error) {
	var def FormDefinition
	if strings.TrimSpace(encoded) == "" {
		return def, NewInvalidError("missing form data")
	}
	raw, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		raw, err = base64.StdEncoding.DecodeString(encoded)
	}
	if err != nil {
		return def, NewInvalidError("malformed form data")
	}
	if err := json.Unmarshal(raw, &def); err != nil {
		return def, NewInvalidError("malformed form data")
	}
	if len(def.Questions) == 0 {
		return def, NewInvalidError("form data has no questions")
	}
	return def, nil
}
