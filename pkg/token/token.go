// Package token issues and verifies the signed access tokens used by the
// HTTP layer. Token issuance is deliberately plain HS256; identity protocol
// design is out of scope for this service.
package token

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/nhupane/gopasal/pkg/config"
)

const roleClaim = "role"

// Claims is the verified identity extracted from an access token.
type Claims struct {
	UserID uuid.UUID
	Role   string
}

// Verifier verifies a signed token string and returns its claims.
type Verifier interface {
	Verify(tokenString string) (*Claims, error)
}

// Issuer creates and verifies HS256-signed tokens.
type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewIssuer(cfg config.TokenConfig) *Issuer {
	return &Issuer{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    cfg.TTL,
	}
}

// Issue signs a token for the given user.
func (i *Issuer) Issue(userID uuid.UUID, role string) (string, error) {
	now := time.Now()
	tok, err := jwt.NewBuilder().
		Issuer(i.issuer).
		Subject(userID.String()).
		IssuedAt(now).
		Expiration(now.Add(i.ttl)).
		Claim(roleClaim, role).
		Build()
	if err != nil {
		return "", fmt.Errorf("failed to build token: %w", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256(), i.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return string(signed), nil
}

// Verify parses and validates a token string, returning its claims.
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	tok, err := jwt.Parse([]byte(tokenString),
		jwt.WithKey(jwa.HS256(), i.secret),
		jwt.WithIssuer(i.issuer),
		jwt.WithValidate(true),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	subject, ok := tok.Subject()
	if !ok {
		return nil, fmt.Errorf("token has no `sub` claim")
	}
	userID, err := uuid.Parse(subject)
	if err != nil {
		return nil, fmt.Errorf("token subject is not a valid user ID: %w", err)
	}

	var role string
	if err := tok.Get(roleClaim, &role); err != nil {
		return nil, fmt.Errorf("token has no `%s` claim: %w", roleClaim, err)
	}

	return &Claims{UserID: userID, Role: role}, nil
}
