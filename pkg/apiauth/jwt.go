// Package apiauth provides bearer-token auth for the admin-only registry
// endpoints (register/unregister chain & token), modeled on the teacher's
// pkg/auth/jwt.go JWTValidator but symmetric (HS256, a single operator-held
// signing secret) rather than JWKS-backed, since there is no external
// identity provider in this deployment's trust boundary.
package apiauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/chainsafe/watchtower-bridge/pkg/apperr"
)

// Claims is the admin token's claim set: a subject identifying the
// operator and the set of roles it may act as.
type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles"`
}

// ctxKey is unexported to keep the context namespace private to this package.
type ctxKey struct{}

// Issuer mints admin bearer tokens signed with a shared HMAC secret.
type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewIssuer constructs an Issuer. secret must be non-empty; ttl defaults to
// one hour if zero.
func NewIssuer(secret []byte, issuerName string, ttl time.Duration) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, errors.New("apiauth: signing secret must not be empty")
	}
	if ttl == 0 {
		ttl = time.Hour
	}
	return &Issuer{secret: secret, issuer: issuerName, ttl: ttl}, nil
}

// Mint issues a signed token for subject with roles.
func (i *Issuer) Mint(subject string, roles []string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		Roles: roles,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("apiauth: failed to sign token: %w", err)
	}
	return signed, nil
}

// Validator checks bearer tokens minted by an Issuer holding the same secret.
type Validator struct {
	secret []byte
	issuer string
}

// NewValidator constructs a Validator.
func NewValidator(secret []byte, issuerName string) *Validator {
	return &Validator{secret: secret, issuer: issuerName}
}

// ValidateToken parses and validates tokenString, returning its claims.
func (v *Validator) ValidateToken(tokenString string) (*Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithIssuer(v.issuer))
	if err != nil {
		return nil, fmt.Errorf("apiauth: failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("apiauth: invalid token")
	}
	return &claims, nil
}

// HasRole reports whether claims includes role.
func (c *Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// RequireRole returns a chi-compatible middleware that validates the bearer
// token and rejects requests missing role, storing the parsed claims in the
// request context for downstream handlers via ClaimsFromContext.
func (v *Validator) RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			const prefix = "Bearer "
			if !strings.HasPrefix(header, prefix) {
				writeUnauthorized(w, "missing bearer token")
				return
			}
			claims, err := v.ValidateToken(strings.TrimPrefix(header, prefix))
			if err != nil {
				writeUnauthorized(w, err.Error())
				return
			}
			if role != "" && !claims.HasRole(role) {
				http.Error(w, apperr.Forbidden("caller lacks required role").Error(), http.StatusForbidden)
				return
			}
			ctx := context.WithValue(r.Context(), ctxKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	http.Error(w, msg, http.StatusUnauthorized)
}

// ClaimsFromContext extracts the Claims a RequireRole middleware stored.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ctxKey{}).(*Claims)
	return claims, ok
}
