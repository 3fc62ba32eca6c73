package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/stridestats/stridestats/internal/models"
)

// TokenStore persists athlete OAuth credentials.
type TokenStore interface {
	Get(ctx context.Context, athleteID int64) (*models.TokenRecord, error)
	Store(ctx context.Context, token models.TokenRecord) error
}

// OAuthClient exchanges and refreshes tokens against the upstream OAuth
// endpoint.
type OAuthClient struct {
	client       *http.Client
	clientID     string
	clientSecret string
	base         string
}

// NewOAuthClient creates an OAuth client for the upstream provider.
func NewOAuthClient(client *http.Client, clientID, clientSecret string) *OAuthClient {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &OAuthClient{
		client:       client,
		clientID:     clientID,
		clientSecret: clientSecret,
		base:         defaultOAuthBase,
	}
}

// SetBase overrides the OAuth base URL, used by tests.
func (c *OAuthClient) SetBase(base string) {
	c.base = base
}

// tokenResponse is the wire shape of a token grant.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
	Athlete      struct {
		ID int64 `json:"id"`
	} `json:"athlete"`
}

// Exchange trades an authorization code for a token record.
func (c *OAuthClient) Exchange(ctx context.Context, code string) (*models.TokenRecord, error) {
	return c.post(ctx, url.Values{
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"grant_type":    {"authorization_code"},
		"code":          {code},
	})
}

// Refresh trades a refresh token for a fresh token record.
func (c *OAuthClient) Refresh(ctx context.Context, refreshToken string) (*models.TokenRecord, error) {
	return c.post(ctx, url.Values{
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	})
}

func (c *OAuthClient) post(ctx context.Context, form url.Values) (*models.TokenRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("building token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling token endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest {
			return nil, &AuthError{Err: fmt.Errorf("token grant rejected: %s", body)}
		}
		return nil, fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, body)
	}

	var grant tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&grant); err != nil {
		return nil, fmt.Errorf("decoding token response: %w", err)
	}

	return &models.TokenRecord{
		AthleteID:    grant.Athlete.ID,
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		ExpiresAt:    time.Unix(grant.ExpiresAt, 0),
	}, nil
}

// TokenManager implements TokenProvider on top of a TokenStore, refreshing
// expired access tokens through the OAuth client.
type TokenManager struct {
	mu    sync.Mutex
	store TokenStore
	oauth *OAuthClient
	now   func() time.Time
}

// NewTokenManager creates a TokenManager.
func NewTokenManager(store TokenStore, oauth *OAuthClient) *TokenManager {
	return &TokenManager{store: store, oauth: oauth, now: time.Now}
}

// AccessToken returns a valid access token for the athlete, refreshing it
// first when expired. An athlete with no stored token yields an AuthError.
func (m *TokenManager) AccessToken(ctx context.Context, athleteID int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, err := m.store.Get(ctx, athleteID)
	if err != nil {
		return "", fmt.Errorf("reading token: %w", err)
	}
	if record == nil {
		return "", &AuthError{Err: fmt.Errorf("athlete %d has no stored credentials", athleteID)}
	}

	if !record.Expired(m.now()) {
		return record.AccessToken, nil
	}

	fresh, err := m.oauth.Refresh(ctx, record.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("refreshing token: %w", err)
	}
	fresh.AthleteID = athleteID

	if err := m.store.Store(ctx, *fresh); err != nil {
		return "", fmt.Errorf("storing refreshed token: %w", err)
	}
	return fresh.AccessToken, nil
}
