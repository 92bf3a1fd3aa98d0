package signon

import (
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

// ProviderKind discriminates what a provider can do. Only oauth2 providers
// can build authorization URLs; any other kind is data the host app carries
// for its own flows and is rejected by sign-in identically to an unknown id.
type ProviderKind string

const (
	KindOAuth2 ProviderKind = "oauth2"
)

// Provider describes one delegated sign-in target. The OAuth2 config is only
// meaningful when Kind is KindOAuth2.
type Provider struct {
	ID     string
	Kind   ProviderKind
	OAuth2 oauth2.Config
}

// AuthorizationURL builds the provider's authorization endpoint URL carrying
// the state parameter and the S256 challenge for codeVerifier. Construction
// failures are reported as errors, never panics; the boundary maps them to a
// generic internal error.
func (p *Provider) AuthorizationURL(state, codeVerifier string) (string, error) {
	if p.Kind != KindOAuth2 {
		return "", fmt.Errorf("provider %q cannot build authorization URLs", p.ID)
	}
	if p.OAuth2.ClientID == "" || p.OAuth2.Endpoint.AuthURL == "" {
		return "", fmt.Errorf("provider %q is not fully configured", p.ID)
	}
	return p.OAuth2.AuthCodeURL(state, oauth2.S256ChallengeOption(codeVerifier)), nil
}

// GoogleProvider returns a ready Google provider. Empty arguments fall back
// to OAUTH2_GOOGLE_* environment variables.
func GoogleProvider(clientID, clientSecret, redirectURL string) *Provider {
	if clientID == "" {
		clientID = os.Getenv("OAUTH2_GOOGLE_CLIENT_ID")
	}
	if clientSecret == "" {
		clientSecret = os.Getenv("OAUTH2_GOOGLE_CLIENT_SECRET")
	}
	if redirectURL == "" {
		redirectURL = os.Getenv("OAUTH2_GOOGLE_CALLBACK_URL")
	}
	return &Provider{
		ID:   "google",
		Kind: KindOAuth2,
		OAuth2: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
	}
}

// GitHubProvider returns a ready GitHub provider. Empty arguments fall back
// to OAUTH2_GITHUB_* environment variables.
func GitHubProvider(clientID, clientSecret, redirectURL string) *Provider {
	if clientID == "" {
		clientID = os.Getenv("OAUTH2_GITHUB_CLIENT_ID")
	}
	if clientSecret == "" {
		clientSecret = os.Getenv("OAUTH2_GITHUB_CLIENT_SECRET")
	}
	if redirectURL == "" {
		redirectURL = os.Getenv("OAUTH2_GITHUB_CALLBACK_URL")
	}
	return &Provider{
		ID:   "github",
		Kind: KindOAuth2,
		OAuth2: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
	}
}
