package services

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/studiofoundry/intake/internal/catalog"
)

// FormQuestion is one question inside a composed form: a catalog question
// projected through any operator overlay, plus per-form flags.
type FormQuestion struct {
	ID            string            `json:"id"`
	Text          string            `json:"text"`
	Category      string            `json:"category"`
	Kind          catalog.InputKind `json:"inputKind"`
	Options       []string          `json:"options,omitempty"`
	Placeholder   string            `json:"placeholder,omitempty"`
	Required      bool              `json:"required"`
	MaxSelections int               `json:"maxSelections,omitempty"`
}

// FormDefinition is what the builder produces and the store persists.
type FormDefinition struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Questions   []FormQuestion `json:"questions"`
}

// StoredForm is a persisted definition with its lifecycle timestamps.
type StoredForm struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Questions   []FormQuestion `json:"questions"`
	CreatedAt   time.Time      `json:"createdAt"`
	ExpiresAt   time.Time      `json:"expiresAt"`
}

// Definition re-projects the stored record as a plain definition.
func (f *StoredForm) Definition() FormDefinition {
	return FormDefinition{Title: f.Title, Description: f.Description, Questions: f.Questions}
}

// FormSummary is the list-view shape shown in the operator's "My Forms".
type FormSummary struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	QuestionCount int       `json:"questionCount"`
	CreatedAt     time.Time `json:"createdAt"`
	ExpiresAt     time.Time `json:"expiresAt"`
	IsExpired     bool      `json:"isExpired"`
	URL           string    `json:"url"`
}

// Submission is an immutable record of one completed funnel. Answers are
// keyed by question id; list answers are joined before storage.
type Submission struct {
	ID              string            `json:"id"`
	FormID          string            `json:"formId"`
	FormTitle       string            `json:"formTitle"`
	FormDescription string            `json:"formDescription"`
	Name            string            `json:"name"`
	Email           string            `json:"email"`
	Phone           string            `json:"phone,omitempty"`
	Business        string            `json:"business,omitempty"`
	Answers         map[string]string `json:"answers"`
	SubmittedAt     time.Time         `json:"submittedAt"`
	PageURL         string            `json:"pageUrl,omitempty"`
}

// DeadLetter records a submission whose document-store write failed after
// the email relay already succeeded.
type DeadLetter struct {
	ID        string    `json:"id"`
	FormID    string    `json:"formId"`
	Payload   string    `json:"payload"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"createdAt"`
}

// Operator is an admin account allowed into the builder.
type Operator struct {
	ID        string
	Email     string
	PassHash  []byte
	CreatedAt time.Time
}

type ErrorCode string

const (
	ErrorInvalid      ErrorCode = "invalid"
	ErrorUnauthorized ErrorCode = "unauthorized"
	ErrorForbidden    ErrorCode = "forbidden"
	ErrorNotFound     ErrorCode = "not_found"
	ErrorGone         ErrorCode = "gone"
	ErrorConflict     ErrorCode = "conflict"
	ErrorBadGateway   ErrorCode = "bad_gateway"
)

type ServiceError struct {
	Code    ErrorCode
	Message string
}

func (e *ServiceError) Error() string { return e.Message }

func NewInvalidError(msg string) error { return &ServiceError{Code: ErrorInvalid, Message: msg} }
func NewUnauthorizedError(msg string) error {
	return &ServiceError{Code: ErrorUnauthorized, Message: msg}
}
func NewForbiddenError(msg string) error { return &ServiceError{Code: ErrorForbidden, Message: msg} }
func NewNotFoundError(msg string) error { return &ServiceError{Code: ErrorNotFound, Message: msg} }
func NewGoneError(msg string) error { return &ServiceError{Code: ErrorGone, Message: msg} }
func NewConflictError(msg string) error { return &ServiceError{Code: ErrorConflict, Message: msg} }
func NewBadGatewayError(msg string) error { return &ServiceError{Code: ErrorBadGateway, Message: msg} }

func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

func shortID(n int) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}

// NewSessionID generates an opaque funnel session id.
func NewSessionID() string { return shortID(16) }
