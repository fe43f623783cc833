package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// DefaultGitHubAPIURL is the base of the GitHub REST API.
const DefaultGitHubAPIURL = "https://api.github.com"

// GitHubUser is the portion of the GitHub /user API response we keep.
//
// GitHub API docs: https://docs.github.com/en/rest/users/users#get-the-authenticated-user
type GitHubUser struct {
	ID          int64  `json:"id"`           // stable numeric account ID
	Login       string `json:"login"`        // username, e.g. "octocat"
	Name        string `json:"name"`         // display name, empty if never set
	PublicRepos int    `json:"public_repos"` // number of public repositories
}

// GitHubProvider wraps golang.org/x/oauth2 for the GitHub Authorization Code flow.
//
// OAUTH 2.0 AUTHORIZATION CODE FLOW:
// 1. Redirect the user to GitHub's authorization endpoint with our ClientID.
// 2. The user approves on GitHub.
// 3. GitHub redirects back to CallbackURL with a short-lived "code".
// 4. We exchange the code for an access token (server-to-server, with ClientSecret).
// 5. We call the GitHub API with that token for the user's profile.
//
// The access token never reaches the browser and is not stored: all we keep
// is the profile snapshot.
type GitHubProvider struct {
	config *oauth2.Config
	apiURL string
}

// ProviderOption customises a GitHubProvider (tests, GitHub Enterprise).
type ProviderOption func(*GitHubProvider)

// WithEndpoint overrides the OAuth authorize/token endpoints.
func WithEndpoint(endpoint oauth2.Endpoint) ProviderOption {
	return func(p *GitHubProvider) {
		p.config.Endpoint = endpoint
	}
}

// WithAPIURL overrides the REST API base URL used to fetch the profile.
func WithAPIURL(apiURL string) ProviderOption {
	return func(p *GitHubProvider) {
		p.apiURL = strings.TrimRight(apiURL, "/")
	}
}

// NewGitHubProvider creates a GitHubProvider with the given credentials.
//
// callbackURL must match the "Authorization callback URL" registered for the
// OAuth App exactly, e.g. "http://localhost:8080/auth/github/callback".
//
// Only "read:user" is requested: the app needs the public profile and
// nothing else.
func NewGitHubProvider(clientID, clientSecret, callbackURL string, opts ...ProviderOption) *GitHubProvider {
	p := &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"read:user"},
			Endpoint:     github.Endpoint,
		},
		apiURL: DefaultGitHubAPIURL,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AuthURL returns the URL to redirect the user to for authorization.
//
// state is a random value the handler also stores in a cookie; the callback
// compares the two to reject forged (CSRF) callbacks.
func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the authorization code for the user's GitHub profile.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*GitHubUser, error) {
	oauthToken, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	// This client adds "Authorization: Bearer <token>" to every request.
	client := p.config.Client(ctx, oauthToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiURL+"/user", nil)
	if err != nil {
		return nil, fmt.Errorf("auth: building GitHub /user request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth: calling GitHub /user API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: GitHub /user API returned status %d", resp.StatusCode)
	}

	var ghUser GitHubUser
	if err := json.NewDecoder(resp.Body).Decode(&ghUser); err != nil {
		return nil, fmt.Errorf("auth: decoding GitHub /user response: %w", err)
	}

	if ghUser.ID == 0 {
		return nil, fmt.Errorf("auth: GitHub returned an invalid user (ID = 0)")
	}

	return &ghUser, nil
}
