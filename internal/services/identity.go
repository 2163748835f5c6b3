// OAuth2 / OpenID Connect identity provider
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/desertthunder/wlx/internal/shared"
	"golang.org/x/oauth2"
)

// Identity is the signed-in user as reported by the provider's userinfo endpoint.
type Identity struct {
	UID   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// IdentityService runs the authorization-code flow.
type IdentityService struct {
	config      *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
}

// NewIdentityService creates an identity client from the [shared.OAuthConfig] settings.
func NewIdentityService(cfg shared.OAuthConfig, httpClient *http.Client) (*IdentityService, error) {
	if cfg.ClientID == "" || strings.HasPrefix(cfg.ClientID, "your_") {
		return nil, fmt.Errorf("%w: oauth client_id", shared.ErrMissingCredentials)
	}
	if cfg.AuthURL == "" || cfg.TokenURL == "" || cfg.UserInfoURL == "" {
		return nil, fmt.Errorf("%w: oauth auth_url, token_url and userinfo_url are required", shared.ErrInvalidConfig)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &IdentityService{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
		},
		userInfoURL: cfg.UserInfoURL,
		httpClient:  httpClient,
	}, nil
}

// AuthURL returns the provider URL the user opens to sign in.
func (s *IdentityService) AuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades an authorization code for a token.
func (s *IdentityService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}
	return token, nil
}

// UserInfo reads the identity behind token.
func (s *IdentityService) UserInfo(ctx context.Context, token *oauth2.Token) (*Identity, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	client := s.config.Client(ctx, token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: userinfo: %w", shared.ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: userinfo: %w", shared.ErrNetwork, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: userinfo status %d", shared.ErrAuthFailed, resp.StatusCode)
	}

	var id Identity
	if err := json.Unmarshal(body, &id); err != nil {
		return nil, fmt.Errorf("%w: userinfo: %w", shared.ErrMalformedResponse, err)
	}
	if id.UID == "" {
		return nil, fmt.Errorf("%w: userinfo missing subject", shared.ErrMalformedResponse)
	}
	return &id, nil
}
