package authkit

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is how long a session token stays valid unless the
// Signer is configured otherwise.
const DefaultTokenTTL = time.Hour

// Signer issues and verifies the stateless session tokens embedded in
// the session cookie. It is read-only after construction and safe for
// concurrent use.
type Signer struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewSigner returns ErrNoSecret when secret is empty; callers treat
// that as fatal at startup so the service can never issue unsigned
// sessions.
func NewSigner(secret, issuer string, ttl time.Duration) (*Signer, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Signer{secret: []byte(secret), issuer: issuer, ttl: ttl}, nil
}

// TTL returns the configured token lifetime.
func (s *Signer) TTL() time.Duration { return s.ttl }

// Issue signs a session token for the subject user id.
func (s *Signer) Issue(subjectID string) (string, error) {
	if subjectID == "" {
		return "", fmt.Errorf("subject id required")
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subjectID,
		"iss": s.issuer,
		"iat": now.Unix(),
		"exp": now.Add(s.ttl).Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm and expiry and returns the
// subject user id. Failures are ErrTokenExpired or ErrInvalidToken;
// verification never distinguishes beyond that.
func (s *Signer) Verify(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	if s.issuer != "" {
		iss, err := claims.GetIssuer()
		if err != nil || iss != s.issuer {
			return "", ErrInvalidToken
		}
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}
