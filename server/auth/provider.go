package auth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// ExternalIdentity is the profile returned by an external identity
// provider after a successful OAuth exchange.
type ExternalIdentity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// OAuthProvider exchanges OAuth authorization codes with an external
// identity provider and fetches the user's profile.
type OAuthProvider struct {
	Name        string
	UserInfoURL string
	config      *oauth2.Config
}

// OAuthProviderConfig describes one external provider.
type OAuthProviderConfig struct {
	Name         string
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	RedirectURL  string
	Scopes       []string
}

// NewOAuthProvider creates a provider from its endpoint configuration.
func NewOAuthProvider(cfg OAuthProviderConfig) *OAuthProvider {
	return &OAuthProvider{
		Name:        cfg.Name,
		UserInfoURL: cfg.UserInfoURL,
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
		},
	}
}

// AuthCodeURL returns the provider's consent page URL for the state.
func (p *OAuthProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state)
}

// Exchange trades an authorization code for the external identity.
func (p *OAuthProvider) Exchange(ctx context.Context, code string) (*ExternalIdentity, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, errors.Wrap(err, "failed to exchange authorization code")
	}

	client := p.config.Client(ctx, token)
	resp, err := client.Get(p.UserInfoURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch user info")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, errors.Errorf("user info request failed with status %d: %s", resp.StatusCode, body)
	}

	identity := &ExternalIdentity{}
	if err := json.NewDecoder(resp.Body).Decode(identity); err != nil {
		return nil, errors.Wrap(err, "failed to decode user info")
	}
	if identity.ID == "" {
		return nil, errors.New("user info response missing id")
	}
	return identity, nil
}
