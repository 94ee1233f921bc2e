// Package googleid validates Google-issued ID tokens and extracts a
// verified email claim. This is the trust boundary for federated
// login: signature validation is delegated to Google's published key
// material, so the audience check and the email_verified check are
// mandatory, not optional.
package googleid

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/idtoken"

	"github.com/foresteye/authkit"
)

// DefaultTimeout bounds the provider-side verification call, which may
// fetch Google's signing keys over the network.
const DefaultTimeout = 10 * time.Second

// Validator abstracts idtoken validation so tests can inject a fake
// provider instead of reaching Google.
type Validator interface {
	Validate(ctx context.Context, token, audience string) (*idtoken.Payload, error)
}

type googleValidator struct {
	v *idtoken.Validator
}

func (g *googleValidator) Validate(ctx context.Context, token, audience string) (*idtoken.Payload, error) {
	return g.v.Validate(ctx, token, audience)
}

// NewValidator builds the production Validator backed by Google's
// certificate endpoints. Construct once at startup and share; the
// underlying validator caches key material.
func NewValidator(ctx context.Context) (Validator, error) {
	v, err := idtoken.NewValidator(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create idtoken validator: %w", err)
	}
	return &googleValidator{v: v}, nil
}

// Verifier checks Google ID tokens against this service's registered
// client id. Read-only after construction.
type Verifier struct {
	audience  string
	timeout   time.Duration
	validator Validator
}

// New returns an error when audience is empty: without it any token
// minted for another client would verify, so this is a startup-time
// configuration check.
func New(audience string, validator Validator) (*Verifier, error) {
	if audience == "" {
		return nil, fmt.Errorf("google client id (audience) required")
	}
	if validator == nil {
		return nil, fmt.Errorf("validator required")
	}
	return &Verifier{audience: audience, timeout: DefaultTimeout, validator: validator}, nil
}

// WithTimeout overrides the verification call timeout.
func (g *Verifier) WithTimeout(d time.Duration) *Verifier {
	if d > 0 {
		g.timeout = d
	}
	return g
}

// Verify validates the token's signature and audience and returns the
// claim. Tokens whose email is not verified by the provider are
// rejected with authkit.ErrUnverifiedEmail before the claim can reach
// any user lookup; signature/audience failures map to
// authkit.ErrInvalidAssertion.
func (g *Verifier) Verify(ctx context.Context, providerToken string) (*authkit.IdentityClaim, error) {
	if providerToken == "" {
		return nil, fmt.Errorf("%w: empty token", authkit.ErrInvalidAssertion)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	payload, err := g.validator.Validate(ctx, providerToken, g.audience)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", authkit.ErrInvalidAssertion, err)
	}

	// An absent flag counts as unverified.
	verified, _ := payload.Claims["email_verified"].(bool)
	if !verified {
		return nil, authkit.ErrUnverifiedEmail
	}

	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return nil, fmt.Errorf("%w: claim has no email", authkit.ErrInvalidAssertion)
	}

	return &authkit.IdentityClaim{
		Subject:       payload.Subject,
		Email:         email,
		EmailVerified: true,
	}, nil
}
