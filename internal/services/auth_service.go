package services

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// AuthStore abstracts the operator credential table.
type AuthStore interface {
	FindOperatorByEmail(email string) (*Operator, error)
	AddOperator(op *Operator) error
	CountOperators() (int, error)
}

// TokenSigner produces the session token placed in the admin cookie.
type TokenSigner func(operatorID, email string, ttl time.Duration) (string, error)

// AuthService authenticates operators against per-operator credentials.
// There is no open registration: the first operator is seeded at startup
// and further ones are added out of band.
type AuthService struct {
	store     AuthStore
	now       func() time.Time
	idGen     func(prefix string, n int) string
	signToken TokenSigner
	tokenTTL  time.Duration
}

func NewAuthService(store AuthStore, signer TokenSigner) *AuthService {
	return &AuthService{
		store:     store,
		now:       func() time.Time { return time.Now().UTC() },
		idGen:     func(prefix string, n int) string { return prefix + shortID(n) },
		signToken: signer,
		tokenTTL:  7 * 24 * time.Hour,
	}
}

// Login verifies credentials and returns a signed session token.
func (s *AuthService) Login(email, password string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || strings.TrimSpace(password) == "" {
		return "", NewInvalidError("email and password are required")
	}
	op, err := s.store.FindOperatorByEmail(email)
	if err != nil {
		return "", err
	}
	if op == nil {
		return "", NewUnauthorizedError("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword(op.PassHash, []byte(password)); err != nil {
		return "", NewUnauthorizedError("invalid credentials")
	}
	if s.signToken == nil {
		return "", NewInvalidError("token signer not configured")
	}
	return s.signToken(op.ID, op.Email, s.tokenTTL)
}

// SeedOperator creates the initial operator account when the table is
// empty. Called once at startup; a no-op when operators already exist or
// the seed credentials are unset.
func (s *AuthService) SeedOperator(email, password string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || strings.TrimSpace(password) == "" {
		return nil
	}
	n, err := s.store.CountOperators()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.store.AddOperator(&Operator{
		ID:        s.idGen("op", 8),
		Email:     email,
		PassHash:  hash,
		CreatedAt: s.now(),
	})
}

// TokenTTL is the session cookie lifetime.
func (s *AuthService) TokenTTL() time.Duration { return s.tokenTTL }
