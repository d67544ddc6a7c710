package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// SessionCookie carries the operator's signed session token.
const SessionCookie = "intake_session"

type authCtxKey int

const claimsKey authCtxKey = 1

type Claims struct {
	OperatorID string `json:"oid"`
	Email      string `json:"email"`
	jwt.RegisteredClaims
}

// SessionAuth signs and validates the admin session cookie. The builder and
// operator endpoints sit behind it; recipient-facing routes do not.
type SessionAuth struct {
	secret []byte
	secure bool
}

func NewSessionAuth(secret string, secure bool) *SessionAuth {
	return &SessionAuth{secret: []byte(secret), secure: secure}
}

// SignToken issues an HS256 session token for a logged-in operator.
func (a *SessionAuth) SignToken(operatorID, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		OperatorID: operatorID,
		Email:      email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

func (a *SessionAuth) parseToken(tok string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tok, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if c, ok := t.Claims.(*Claims); ok && t.Valid {
		return c, nil
	}
	return nil, errors.New("invalid token")
}

// SetCookie attaches the session cookie. HTTP-only always, Secure only in
// production so local HTTP development keeps working, SameSite=Lax.
func (a *SessionAuth) SetCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func (a *SessionAuth) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Authenticated reports the session claims when the request carries a valid
// cookie.
func (a *SessionAuth) Authenticated(r *http.Request) (*Claims, bool) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return nil, false
	}
	claims, err := a.parseToken(cookie.Value)
	if err != nil {
		return nil, false
	}
	return claims, true
}

// RequireOperator rejects requests without a valid session cookie.
func (a *SessionAuth) RequireOperator(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := a.Authenticated(r)
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "authentication required"})
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	}
}

// ClaimsFromContext returns the operator claims attached by RequireOperator.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*Claims)
	return c, ok
}
