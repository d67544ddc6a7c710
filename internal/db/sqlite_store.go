package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/studiofoundry/intake/internal/services"
)

// SQLiteStore persists forms, submissions, dead letters, and operators in a
// single sqlite file. It implements the services store interfaces.
type SQLiteStore struct {
	db  *sql.DB
	log zerolog.Logger
}

var (
	_ services.FormStore       = (*SQLiteStore)(nil)
	_ services.SubmissionStore = (*SQLiteStore)(nil)
	_ services.AuthStore       = (*SQLiteStore)(nil)
)

func NewSQLiteStore(db *sql.DB, log zerolog.Logger) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db, log: log}, nil
}

func toNullString(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrConstraint
	}
	return false
}

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CreateForm inserts a form, relying on the primary key for atomic
// create-if-absent. A collision maps to services.ErrFormExists.
func (s *SQLiteStore) CreateForm(f *services.StoredForm) error {
	questions, err := encodeJSON(f.Questions)
	if err != nil {
		return fmt.Errorf("encode questions: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO forms (id, title, description, questions, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		f.ID, f.Title, f.Description, questions, f.CreatedAt.Unix(), f.ExpiresAt.Unix(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return services.ErrFormExists
		}
		return fmt.Errorf("insert form: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetForm(id string) (*services.StoredForm, error) {
	row := s.db.QueryRow(
		`SELECT id, title, description, questions, created_at, expires_at FROM forms WHERE id = ?`, id)
	var (
		f         services.StoredForm
		questions string
		created   int64
		expires   int64
	)
	err := row.Scan(&f.ID, &f.Title, &f.Description, &questions, &created, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get form: %w", err)
	}
	if err := json.Unmarshal([]byte(questions), &f.Questions); err != nil {
		return nil, fmt.Errorf("decode questions for form %s: %w", id, err)
	}
	f.CreatedAt = time.Unix(created, 0).UTC()
	f.ExpiresAt = time.Unix(expires, 0).UTC()
	return &f, nil
}

func (s *SQLiteStore) DeleteForm(id string) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM forms WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete form: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) ListForms() ([]*services.StoredForm, error) {
	rows, err := s.db.Query(
		`SELECT id, title, description, questions, created_at, expires_at
		 FROM forms ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list forms: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*services.StoredForm
	for rows.Next() {
		var (
			f         services.StoredForm
			questions string
			created   int64
			expires   int64
		)
		if err := rows.Scan(&f.ID, &f.Title, &f.Description, &questions, &created, &expires); err != nil {
			return nil, fmt.Errorf("scan form: %w", err)
		}
		if err := json.Unmarshal([]byte(questions), &f.Questions); err != nil {
			s.log.Warn().Err(err).Str("form_id", f.ID).Msg("skipping form with undecodable questions")
			continue
		}
		f.CreatedAt = time.Unix(created, 0).UTC()
		f.ExpiresAt = time.Unix(expires, 0).UTC()
		out = append(out, &f)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) InsertSubmission(sub *services.Submission) error {
	answers, err := encodeJSON(sub.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO submissions
		 (id, form_id, form_title, form_description, name, email, phone, business, answers, submitted_at, page_url)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.FormID, sub.FormTitle, sub.FormDescription, sub.Name, sub.Email,
		toNullString(sub.Phone), toNullString(sub.Business), answers,
		sub.SubmittedAt.Unix(), toNullString(sub.PageURL),
	)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListSubmissionsByForm(formID string, limit int) ([]*services.Submission, error) {
	rows, err := s.db.Query(
		`SELECT id, form_id, form_title, form_description, name, email, phone, business, answers, submitted_at, page_url
		 FROM submissions WHERE form_id = ? ORDER BY submitted_at DESC LIMIT ?`, formID, limit)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*services.Submission
	for rows.Next() {
		var (
			sub       services.Submission
			phone     sql.NullString
			business  sql.NullString
			answers   string
			submitted int64
			pageURL   sql.NullString
		)
		if err := rows.Scan(&sub.ID, &sub.FormID, &sub.FormTitle, &sub.FormDescription,
			&sub.Name, &sub.Email, &phone, &business, &answers, &submitted, &pageURL); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		if err := json.Unmarshal([]byte(answers), &sub.Answers); err != nil {
			s.log.Warn().Err(err).Str("submission_id", sub.ID).Msg("skipping submission with undecodable answers")
			continue
		}
		sub.Phone = phone.String
		sub.Business = business.String
		sub.PageURL = pageURL.String
		sub.SubmittedAt = time.Unix(submitted, 0).UTC()
		out = append(out, &sub)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeleteSubmissionsByForm(formID string) (int, error) {
	res, err := s.db.Exec(`DELETE FROM submissions WHERE form_id = ?`, formID)
	if err != nil {
		return 0, fmt.Errorf("delete submissions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *SQLiteStore) InsertDeadLetter(dl *services.DeadLetter) error {
	_, err := s.db.Exec(
		`INSERT INTO dead_letters (id, form_id, payload, reason, created_at) VALUES (?, ?, ?, ?, ?)`,
		dl.ID, dl.FormID, dl.Payload, dl.Reason, dl.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert dead letter: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListDeadLetters() ([]*services.DeadLetter, error) {
	rows, err := s.db.Query(
		`SELECT id, form_id, payload, reason, created_at FROM dead_letters ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list dead letters: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*services.DeadLetter
	for rows.Next() {
		var (
			dl      services.DeadLetter
			created int64
		)
		if err := rows.Scan(&dl.ID, &dl.FormID, &dl.Payload, &dl.Reason, &created); err != nil {
			return nil, fmt.Errorf("scan dead letter: %w", err)
		}
		dl.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, &dl)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetDeadLetter(id string) (*services.DeadLetter, error) {
	row := s.db.QueryRow(
		`SELECT id, form_id, payload, reason, created_at FROM dead_letters WHERE id = ?`, id)
	var (
		dl      services.DeadLetter
		created int64
	)
	err := row.Scan(&dl.ID, &dl.FormID, &dl.Payload, &dl.Reason, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get dead letter: %w", err)
	}
	dl.CreatedAt = time.Unix(created, 0).UTC()
	return &dl, nil
}

func (s *SQLiteStore) DeleteDeadLetter(id string) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM dead_letters WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete dead letter: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) FindOperatorByEmail(email string) (*services.Operator, error) {
	row := s.db.QueryRow(
		`SELECT id, email, pass_hash, created_at FROM operators WHERE email = ?`, email)
	var (
		op      services.Operator
		created int64
	)
	err := row.Scan(&op.ID, &op.Email, &op.PassHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find operator: %w", err)
	}
	op.CreatedAt = time.Unix(created, 0).UTC()
	return &op, nil
}

func (s *SQLiteStore) AddOperator(op *services.Operator) error {
	_, err := s.db.Exec(
		`INSERT INTO operators (id, email, pass_hash, created_at) VALUES (?, ?, ?, ?)`,
		op.ID, op.Email, op.PassHash, op.CreatedAt.Unix(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return services.NewConflictError("operator email already exists")
		}
		return fmt.Errorf("add operator: %w", err)
	}
	return nil
}

func (s *SQLiteStore) CountOperators() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM operators`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count operators: %w", err)
	}
	return n, nil
}
