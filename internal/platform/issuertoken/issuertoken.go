// Package issuertoken issues and validates the HS256 bearer tokens that
// protect issuer-side exchange routes.
package issuertoken

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"vpexchange/internal/platform/middleware"
	dErrors "vpexchange/pkg/domain-errors"

	"github.com/golang-jwt/jwt/v5"
)

const issuerName = "vpexchange"

// Claims are the JWT claims carried by issuer tokens.
type Claims struct {
	Scope []string `json:"scope"`
	jwt.RegisteredClaims
}

// Service handles issuer token creation and validation.
type Service struct {
	signingKey []byte
	now        func() time.Time
}

type Option func(*Service)

// WithClock overrides the time source used for iat/exp.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(signingKey string, opts ...Option) *Service {
	s := &Service{
		signingKey: []byte(signingKey),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate signs a token for subject with the given scopes.
func (s *Service) Generate(subject string, scopes []string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "subject is required")
	}
	if len(scopes) == 0 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "scopes cannot be empty")
	}
	if ttl <= 0 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "ttl must be positive")
	}

	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate token id")
	}

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Scope: scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuerName,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        hex.EncodeToString(b),
		},
	})
	return token.SignedString(s.signingKey)
}

// ValidateToken verifies signature, algorithm, expiry and issuer.
func (s *Service) ValidateToken(tokenString string) (*middleware.IssuerClaims, error) {
	if tokenString == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "empty token")
	}

	claims := new(Claims)
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(issuerName),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	return &middleware.IssuerClaims{
		Subject: claims.Subject,
		Scopes:  claims.Scope,
	}, nil
}
