// Package auth provides authentication and authorization support for the
// payroll APIs. Tokens are signed with a shared HMAC secret and carry the
// account id of the caller as the subject.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/paystream/foundation/paystream/accounts"
	"github.com/golang-jwt/jwt/v5"
)

// These are the expected values for Claims.Roles.
const (
	RoleAdmin   = "ADMIN"
	RoleUser    = "USER"
	RoleRelayer = "RELAYER"
)

// ErrForbidden is returned when an authenticated caller lacks the role.
var ErrForbidden = errors.New("attempted action is not allowed")

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles"`
}

// Authorized returns true if the claims has at least one of the provided roles.
func (c Claims) Authorized(roles ...string) bool {
	for _, has := range c.Roles {
		for _, want := range roles {
			if has == want {
				return true
			}
		}
	}
	return false
}

// AccountID returns the subject of the claims as an account id.
func (c Claims) AccountID() (accounts.AccountID, error) {
	return accounts.ToAccountID(c.Subject)
}

// =============================================================================

// Auth is used to authenticate clients. It can generate a token for a set
// of user claims and recreate the claims by parsing the token.
type Auth struct {
	secret []byte
	issuer string
	parser *jwt.Parser
}

// New creates an Auth to support authentication and authorization.
func New(secret string, issuer string) (*Auth, error) {
	if len(secret) < 32 {
		return nil, errors.New("auth secret must be at least 32 bytes")
	}

	a := Auth{
		secret: []byte(secret),
		issuer: issuer,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
			jwt.WithIssuer(issuer),
			jwt.WithLeeway(30*time.Second),
		),
	}

	return &a, nil
}

// GenerateToken generates a signed JWT token string for the account and
// roles, valid for the specified duration.
func (a *Auth) GenerateToken(accountID accounts.AccountID, roles []string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(accountID),
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Roles: roles,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	str, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}

	return str, nil
}

// ValidateToken recreates the Claims that were used to generate a token. It
// verifies that the token was signed using our secret.
func (a *Auth) ValidateToken(tokenStr string) (Claims, error) {
	var claims Claims
	token, err := a.parser.ParseWithClaims(tokenStr, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("parsing token: %w", err)
	}

	if !token.Valid {
		return Claims{}, errors.New("invalid token")
	}

	if _, err := claims.AccountID(); err != nil {
		return Claims{}, fmt.Errorf("subject: %w", err)
	}

	return claims, nil
}

// =============================================================================

// ctxKey represents the type of value for the context key.
type ctxKey int

// key is used to store/retrieve a Claims value from a context.Context.
const key ctxKey = 1

// SetClaims stores the claims in the context.
func SetClaims(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, key, claims)
}

// GetClaims returns the claims from the context.
func GetClaims(ctx context.Context) (Claims, error) {
	v, ok := ctx.Value(key).(Claims)
	if !ok {
		return Claims{}, errors.New("claim value missing from context")
	}
	return v, nil
}

// GetAccountID returns the account id of the authenticated caller.
func GetAccountID(ctx context.Context) (accounts.AccountID, error) {
	claims, err := GetClaims(ctx)
	if err != nil {
		return "", err
	}
	return claims.AccountID()
}
