package services

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// EmailRelay notifies the operator of a new submission. Implemented by the
// relay package; stubbed in tests.
type EmailRelay interface {
	Send(ctx context.Context, subject string, fields map[string]string) error
}

// SubmissionStore abstracts persistence for submissions and the dead-letter
// records kept when the best-effort submission write fails.
type SubmissionStore interface {
	InsertSubmission(sub *Submission) error
	ListSubmissionsByForm(formID string, limit int) ([]*Submission, error)
	InsertDeadLetter(dl *DeadLetter) error
	ListDeadLetters() ([]*DeadLetter, error)
	GetDeadLetter(id string) (*DeadLetter, error)
	DeleteDeadLetter(id string) (bool, error)
}

// SubmissionService fans a completed funnel out to the email relay and the
// document store. The relay is the primary channel: its failure is the
// caller's failure. The store write is secondary and never blocks success;
// when it fails the submission is parked as a dead letter instead of lost.
type SubmissionService struct {
	store SubmissionStore
	relay EmailRelay
	now   func() time.Time
	idGen func() string
	log   zerolog.Logger
}

func NewSubmissionService(store SubmissionStore, relay EmailRelay, log zerolog.Logger) *SubmissionService {
	return &SubmissionService{
		store: store,
		relay: relay,
		now:   func() time.Time { return time.Now().UTC() },
		idGen: func() string { return shortID(12) },
		log:   log,
	}
}

// Flatten turns the funnel's answers into the flat key→string payload the
// email relay expects, keyed by question prompt so the notification reads
// naturally. List answers are joined with ", ".
func Flatten(def FormDefinition, answers map[string][]string) map[string]string {
	out := make(map[string]string, len(answers))
	for _, q := range def.Questions {
		vals, ok := answers[q.ID]
		if !ok || len(vals) == 0 {
			continue
		}
		out[q.Text] = strings.Join(vals, ", ")
	}
	return out
}

// Submit performs the final fan-out for a funnel: relay first, then the
// best-effort store write.
func (s *SubmissionService) Submit(ctx context.Context, f *Funnel, contact ContactInfo) (*Submission, error) {
	if err := f.BeginSubmit(contact); err != nil {
		return nil, err
	}
	def := f.Definition()
	answers := f.Answers()

	fields := Flatten(def, answers)
	fields["Name"] = contact.Name
	fields["Email"] = contact.Email
	if contact.Phone != "" {
		fields["Phone"] = contact.Phone
	}
	if contact.Business != "" {
		fields["Business"] = contact.Business
	}
	subject := "New submission"
	if strings.TrimSpace(def.Title) != "" {
		subject = "New submission: " + def.Title
	}
	if err := s.relay.Send(ctx, subject, fields); err != nil {
		return nil, NewBadGatewayError("could not deliver your submission, please try again")
	}

	sub := &Submission{
		ID:              s.idGen(),
		FormID:          f.FormID(),
		FormTitle:       def.Title,
		FormDescription: def.Description,
		Name:            contact.Name,
		Email:           contact.Email,
		Phone:           contact.Phone,
		Business:        contact.Business,
		Answers:         joinAnswers(answers),
		SubmittedAt:     s.now(),
		PageURL:         f.PageURL(),
	}
	s.persistBestEffort(sub)
	f.MarkSubmitted()
	return sub, nil
}

// Record stores a submission that arrived directly over the HTTP contract
// (the legacy inline-definition funnel posts here itself).
func (s *SubmissionService) Record(sub *Submission) (*Submission, error) {
	if sub == nil {
		return nil, NewInvalidError("submission required")
	}
	if strings.TrimSpace(sub.Name) == "" || strings.TrimSpace(sub.Email) == "" {
		return nil, NewInvalidError("name and email are required")
	}
	if sub.ID == "" {
		sub.ID = s.idGen()
	}
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = s.now()
	}
	if err := s.store.InsertSubmission(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *SubmissionService) persistBestEffort(sub *Submission) {
	err := s.store.InsertSubmission(sub)
	if err == nil {
		return
	}
	s.log.Warn().Err(err).Str("form_id", sub.FormID).Msg("submission store write failed, parking dead letter")
	payload, merr := json.Marshal(sub)
	if merr != nil {
		s.log.Error().Err(merr).Msg("dead letter payload marshal failed")
		return
	}
	dl := &DeadLetter{
		ID:        s.idGen(),
		FormID:    sub.FormID,
		Payload:   string(payload),
		Reason:    err.Error(),
		CreatedAt: s.now(),
	}
	if dlerr := s.store.InsertDeadLetter(dl); dlerr != nil {
		s.log.Error().Err(dlerr).Str("form_id", sub.FormID).Msg("dead letter write failed, submission lost from store")
	}
}

// ListByForm returns the stored submissions for a form, newest first.
func (s *SubmissionService) ListByForm(formID string, limit int) ([]*Submission, error) {
	if strings.TrimSpace(formID) == "" {
		return nil, NewInvalidError("formId required")
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	subs, err := s.store.ListSubmissionsByForm(formID, limit)
	if err != nil {
		return nil, err
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].SubmittedAt.After(subs[j].SubmittedAt) })
	return subs, nil
}

// DeadLetters lists parked submissions for the operator.
func (s *SubmissionService) DeadLetters() ([]*DeadLetter, error) {
	return s.store.ListDeadLetters()
}

// RetryDeadLetter re-attempts the store write for a parked submission and
// removes the record on success.
func (s *SubmissionService) RetryDeadLetter(id string) error {
	dl, err := s.store.GetDeadLetter(id)
	if err != nil {
		return err
	}
	if dl == nil {
		return NewNotFoundError("dead letter not found")
	}
	var sub Submission
	if err := json.Unmarshal([]byte(dl.Payload), &sub); err != nil {
		return NewInvalidError("dead letter payload is unreadable")
	}
	if err := s.store.InsertSubmission(&sub); err != nil {
		return err
	}
	if _, err := s.store.DeleteDeadLetter(id); err != nil {
		s.log.Warn().Err(err).Str("dead_letter_id", id).Msg("dead letter cleanup failed after successful retry")
	}
	return nil
}

func joinAnswers(answers map[string][]string) map[string]string {
	out := make(map[string]string, len(answers))
	for id, vals := range answers {
		out[id] = strings.Join(vals, ", ")
	}
	return out
}
