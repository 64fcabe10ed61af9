package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// GitHubUser is the slice of the GitHub /user API response we care about.
// GitHub returns a much larger object; we only decode what we store.
type GitHubUser struct {
	ID        int64  `json:"id"`         // GitHub's numeric user ID, stable for the account's lifetime
	Login     string `json:"login"`      // GitHub username
	Name      string `json:"name"`       // Display name (empty if the user never set one)
	Email     string `json:"email"`      // Primary email (empty if hidden in GitHub settings)
	AvatarURL string `json:"avatar_url"` // Profile picture URL
}

// GitHubProvider wraps golang.org/x/oauth2 for the GitHub Authorization Code
// flow.
//
// FLOW:
//  1. We redirect the user to GitHub's authorization endpoint with our
//     ClientID and scopes.
//  2. The user approves on GitHub.
//  3. GitHub redirects back to our callback URL with a short-lived code.
//  4. We exchange the code for an access token, server-to-server, using the
//     ClientSecret — the access token never touches the browser.
//  5. We call the GitHub API with that token to fetch the user's profile.
type GitHubProvider struct {
	config *oauth2.Config
}

// NewGitHubProvider creates a GitHubProvider with the given credentials.
//
// Register an OAuth App at github.com/settings/developers to obtain a
// ClientID and ClientSecret; callbackURL must exactly match the
// "Authorization callback URL" configured there.
//
// Scopes:
//   - "read:user"  — public profile (ID, login, name, avatar)
//   - "user:email" — email addresses
func NewGitHubProvider(clientID, clientSecret, callbackURL string) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
	}
}

// AuthURL returns the GitHub authorization URL to redirect the user to.
//
// The state parameter is a random string we also store in a cookie before
// redirecting; the callback verifies the two match. Without it an attacker
// could trick a victim's browser into completing an OAuth flow for the
// attacker's account (CSRF).
func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange completes the flow: trades the authorization code for a GitHub
// user profile.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*GitHubUser, error) {
	oauthToken, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	// config.Client returns an *http.Client that injects the
	// "Authorization: Bearer <token>" header on every request.
	client := p.config.Client(ctx, oauthToken)

	resp, err := client.Get("https://api.github.com/user")
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
