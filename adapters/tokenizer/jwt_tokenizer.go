package tokenizer

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/universitydao/walletauth/core"
	"github.com/universitydao/walletauth/ports"
)

const (
	DefaultIssuer   = "universitydao"
	DefaultAudience = "universitydao:session"
)

// JWTTokenizer implements the Tokenizer interface using HS256 signed JWTs
type JWTTokenizer struct {
	secret   []byte
	issuer   string
	audience string
	now      func() time.Time
}

// Option configures a JWTTokenizer
type Option func(*JWTTokenizer)

// WithIssuer overrides the iss claim
func WithIssuer(issuer string) Option {
	return func(j *JWTTokenizer) { j.issuer = issuer }
}

// WithAudience overrides the aud claim
func WithAudience(audience string) Option {
	return func(j *JWTTokenizer) { j.audience = audience }
}

// WithClock sets the time source used when validating expiry
func WithClock(now func() time.Time) Option {
	return func(j *JWTTokenizer) { j.now = now }
}

// NewJWTTokenizer creates a new JWT tokenizer. An empty secret is a
// configuration error: tokens are never issued unsigned.
func NewJWTTokenizer(secret []byte, opts ...Option) (ports.Tokenizer, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("jwt signing secret is not set: %w", core.ErrServerConfiguration)
	}

	j := &JWTTokenizer{
		secret:   secret,
		issuer:   DefaultIssuer,
		audience: DefaultAudience,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}

	return j, nil
}

func (j *JWTTokenizer) Issuer() string   { return j.issuer }
func (j *JWTTokenizer) Audience() string { return j.audience }

// SessionToToken converts a Session to a signed JWT
func (j *JWTTokenizer) SessionToToken(session *core.Session) (string, error) {
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    session.Issuer,
			Subject:   session.Address,
			Audience:  jwt.ClaimStrings{session.Audience},
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(session.IssuedAt),
			ID:        session.ID,
		},
		Nonce: session.Nonce,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedToken, err := token.SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return signedToken, nil
}

// TokenToSession parses and validates a JWT and returns its session
func (j *JWTTokenizer) TokenToSession(tokenStr string) (*core.Session, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return j.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(j.issuer),
		jwt.WithAudience(j.audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, core.ErrTokenExpired
		}
		return nil, fmt.Errorf("failed to parse token: %v: %w", err, core.ErrInvalidToken)
	}

	if !token.Valid {
		return nil, core.ErrInvalidToken
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || claims.Subject == "" || claims.IssuedAt == nil {
		return nil, fmt.Errorf("invalid claims: %w", core.ErrInvalidToken)
	}

	return &core.Session{
		ID:        claims.ID,
		Address:   claims.Subject,
		Issuer:    claims.Issuer,
		Audience:  j.audience,
		Nonce:     claims.Nonce,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
