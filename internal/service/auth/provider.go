package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "github.com/jwalitptl/anamnese-api/pkg/errors"
)

const providerName = "auth provider"

// ProviderSession is what the identity provider reports for an external session id.
type ProviderSession struct {
	Email        string  `json:"email"`
	Name         string  `json:"name"`
	Picture      *string `json:"picture"`
	SessionToken string  `json:"session_token"`
}

// Provider resolves an external session id into the authenticated identity.
type Provider interface {
	SessionData(ctx context.Context, sessionID string) (*ProviderSession, error)
}

// HTTPProvider calls the provider's session-data endpoint.
type HTTPProvider struct {
	url    string
	client *http.Client
}

func NewHTTPProvider(url string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (p *HTTPProvider) SessionData(ctx context.Context, sessionID string) (*ProviderSession, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build session-data request: %w", err)
	}
	req.Header.Set("X-Session-ID", sessionID)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, apperrors.NewExternalService(providerName, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, apperrors.NewExternalService(providerName, resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var session ProviderSession
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&session); err != nil {
		return nil, apperrors.NewExternalService(providerName, 0, fmt.Errorf("failed to decode session data: %w", err))
	}
	if session.Email == "" || session.SessionToken == "" {
		return nil, apperrors.NewExternalService(providerName, 0, fmt.Errorf("session data is missing email or session_token"))
	}
	return &session, nil
}
