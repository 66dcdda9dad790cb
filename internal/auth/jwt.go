// Package auth verifies and issues the HS256 bearer tokens that identify a
// principal to the HTTP API and the notification hub.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/sliea/antennadesk/internal/models"
)

// ErrInvalidToken is returned for absent, malformed, expired or badly signed tokens.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the token payload. The subject is the principal id.
type Claims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Principal is the verified identity carried by a token.
type Principal struct {
	ID        string
	Role      models.Role
	ExpiresAt time.Time
}

// IsAdmin reports whether the principal has the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == models.RoleAdmin
}

// Verifier checks token signatures and claims.
type Verifier struct {
	secret []byte
	issuer string
	parser *jwt.Parser
	leeway time.Duration
	now    func() time.Time
}

// NewVerifier creates a Verifier for tokens signed with secret. An empty
// issuer accepts any issuer.
func NewVerifier(secret, issuer string, leeway time.Duration) *Verifier {
	return &Verifier{
		secret: []byte(secret),
		issuer: issuer,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
		leeway: leeway,
		now:    time.Now,
	}
}

// Verify parses a token and returns its principal.
func (v *Verifier) Verify(token string) (Principal, error) {
	if token == "" {
		return Principal{}, ErrInvalidToken
	}

	claims := &Claims{}

	// Claims are checked by checkClaims so the leeway applies.
	_, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if err := v.checkClaims(claims); err != nil {
		return Principal{}, err
	}

	p := Principal{ID: claims.Subject, Role: claims.Role}
	if claims.ExpiresAt != nil {
		p.ExpiresAt = claims.ExpiresAt.Time
	}

	return p, nil
}

func (v *Verifier) checkClaims(claims *Claims) error {
	now := v.now()

	if claims.Subject == "" {
		return fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	if claims.Role != models.RoleAdmin && claims.Role != models.RoleUser {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}

	if claims.ExpiresAt != nil && now.After(claims.ExpiresAt.Add(v.leeway)) {
		return fmt.Errorf("%w: token expired", ErrInvalidToken)
	}

	if claims.NotBefore != nil && now.Add(v.leeway).Before(claims.NotBefore.Time) {
		return fmt.Errorf("%w: token not yet valid", ErrInvalidToken)
	}

	if v.issuer != "" && !claims.VerifyIssuer(v.issuer, true) {
		return fmt.Errorf("%w: unexpected issuer", ErrInvalidToken)
	}

	return nil
}

// Issuer signs tokens. It is used by the CLI for development tokens and by tests.
type Issuer struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewIssuer creates an Issuer signing with secret.
func NewIssuer(secret, issuer string) *Issuer {
	return &Issuer{secret: []byte(secret), issuer: issuer, now: time.Now}
}

// Issue signs a token for principalID with role, valid for ttl. A zero ttl
// produces a token without expiry.
func (i *Issuer) Issue(principalID string, role models.Role, ttl time.Duration) (string, error) {
	now := i.now()

	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  principalID,
			Issuer:   i.issuer,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}

	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}

	return signed, nil
}
