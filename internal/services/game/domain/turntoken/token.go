// Package turntoken signs and verifies the bearer tokens that prove a player
// may act on a pending turn.
//
// Tokens are HS256 JWTs over a shared secret carrying the turn ids they
// authorize in a "turns" claim.
package turntoken

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/louisbranch/carcassonne/internal/platform/errors"
)

// DefaultIssuer is stamped on every token and required on verification.
const DefaultIssuer = "carcassonne"

// ErrInvalidToken is the error every verification failure matches.
var ErrInvalidToken = apperrors.New(apperrors.CodeTurnTokenInvalid, "turn token is invalid")

var errSecretRequired = errors.New("turn token secret is required")

// Config defines how tokens are signed and verified.
type Config struct {
	Secret []byte
	Issuer string
	// TTL bounds token lifetime; zero issues tokens that never expire.
	TTL time.Duration
	Now func() time.Time
}

type claims struct {
	jwt.RegisteredClaims
	Turns []string `json:"turns"`
}

// Signer issues and verifies turn tokens.
type Signer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner validates cfg and builds a Signer.
func NewSigner(cfg Config) (*Signer, error) {
	if len(cfg.Secret) == 0 {
		return nil, errSecretRequired
	}
	if cfg.TTL < 0 {
		return nil, fmt.Errorf("turn token ttl must not be negative")
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = DefaultIssuer
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)
	return &Signer{secret: secret, issuer: issuer, ttl: cfg.TTL, now: now}, nil
}

// Sign produces a token carrying payload. The payload must not be empty.
func (s *Signer) Sign(payload []string) (string, error) {
	if len(payload) == 0 {
		return "", fmt.Errorf("turn token payload is required")
	}
	now := s.now().UTC()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   s.issuer,
			IssuedAt: jwt.NewNumericDate(now),
		},
		Turns: append([]string(nil), payload...),
	}
	if s.ttl > 0 {
		c.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign turn token: %w", err)
	}
	return token, nil
}

// Verify returns the payload of a token produced by Sign with the same
// secret and issuer. Any other input fails with an error matching
// ErrInvalidToken.
func (s *Signer) Verify(token string) ([]string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, invalid("turn token is required", nil)
	}

	var parsed claims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, mapJWTError(err)
	}
	if len(parsed.Turns) == 0 {
		return nil, invalid("turn token payload is empty", nil)
	}
	return parsed.Turns, nil
}

// mapJWTError translates jwt library errors to application errors.
func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return invalid("turn token signature is invalid", err)
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return invalid("turn token alg is invalid", err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return invalid("turn token is expired", err)
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return invalid("turn token issuer mismatch", err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return invalid("turn token is malformed", err)
	default:
		return invalid("turn token is invalid", err)
	}
}

func invalid(message string, cause error) error {
	return apperrors.Wrap(apperrors.CodeTurnTokenInvalid, message, cause)
}
