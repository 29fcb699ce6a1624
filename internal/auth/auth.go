// Package auth verifies bearer tokens and resolves them to a ledger user.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"budgetledger/internal/core"
)

var (
	ErrNoToken      = errors.New("no token provided")
	ErrTokenExpired = errors.New("token expired")
	ErrInvalidToken = errors.New("invalid token")
)

// Wire codes returned to clients for each rejection reason.
const (
	CodeNoToken      = "NO_TOKEN"
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeInvalidToken = "INVALID_TOKEN"
)

// Claims is the token payload issued at login.
type Claims struct {
	ID    int64  `json:"id"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Verifier validates HS256 tokens signed with a shared secret.
type Verifier struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewVerifier(secret, issuer string) (*Verifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &Verifier{secret: []byte(secret), issuer: issuer, now: time.Now}, nil
}

// Verify parses a raw token and returns the user it names.
func (v *Verifier) Verify(raw string) (core.UserID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ErrNoToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := new(Claims)
	token, err := jwt.NewParser(opts...).ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return 0, ErrTokenExpired
	case err != nil:
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	case !token.Valid:
		return 0, ErrInvalidToken
	case claims.ID <= 0:
		return 0, fmt.Errorf("%w: missing user id", ErrInvalidToken)
	}
	return core.UserID(claims.ID), nil
}

// Issue signs a token for id valid for ttl. Used by tooling and tests; the
// ledger itself never logs users in.
func (v *Verifier) Issue(id core.UserID, email string, ttl time.Duration) (string, error) {
	now := v.now()
	claims := Claims{
		ID:    int64(id),
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// TokenFromRequest reads the Authorization header; the Bearer prefix is optional.
func TokenFromRequest(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) >= 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return h
}

// Rejection maps a verification error to its wire code and message. Parser
// detail stays out of the message.
func Rejection(err error) (code, message string) {
	switch {
	case errors.Is(err, ErrNoToken):
		return CodeNoToken, "No token provided"
	case errors.Is(err, ErrTokenExpired):
		return CodeTokenExpired, "Session expired. Please log in again."
	default:
		return CodeInvalidToken, "Invalid token"
	}
}

type contextKey struct{}

func WithUser(ctx context.Context, id core.UserID) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// UserFromContext returns the authenticated user set by WithUser.
func UserFromContext(ctx context.Context) (core.UserID, bool) {
	id, ok := ctx.Value(contextKey{}).(core.UserID)
	return id, ok
}
