// Package auth resolves bearer tokens to user identities and guards the
// HTTP API. Token issuance and account management live in the external
// identity provider; this package only verifies.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// ErrUnauthorized is returned for missing, malformed, or rejected tokens.
var ErrUnauthorized = errors.New("unauthorized")

// Verifier maps a bearer token to the owning user id.
type Verifier interface {
	Verify(ctx context.Context, token string) (uuid.UUID, error)
}

// HTTPVerifier asks the identity provider's user endpoint who a token
// belongs to. The provider answers with a JSON body carrying the user id.
type HTTPVerifier struct {
	url    string
	client *http.Client
}

// NewHTTPVerifier creates a verifier against the given user endpoint.
func NewHTTPVerifier(url string) *HTTPVerifier {
	return &HTTPVerifier{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Verify calls the identity provider with the bearer token. Any non-200
// answer is ErrUnauthorized; transport failures surface as-is so callers can
// distinguish an outage from a rejected token.
func (v *HTTPVerifier) Verify(ctx context.Context, token string) (uuid.UUID, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.url, nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("build auth request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := v.client.Do(req)
	if err != nil {
		return uuid.Nil, fmt.Errorf("auth request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return uuid.Nil, fmt.Errorf("%w: provider returned %d", ErrUnauthorized, resp.StatusCode)
	}

	var body struct {
		ID uuid.UUID `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return uuid.Nil, fmt.Errorf("%w: malformed provider response", ErrUnauthorized)
	}
	if body.ID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: provider returned no user id", ErrUnauthorized)
	}
	return body.ID, nil
}
