package platform

import (
	"context"
	"net/http"

	"relay/config"
	"relay/internal/domain/entity"
	domainerrors "relay/internal/domain/errors"
	"relay/internal/domain/service"

	"golang.org/x/oauth2"
)

const twitterMaxContentLength = 280

// TwitterAdapter drives the Twitter v2 API. Linking uses the PKCE
// authorization-code flow with offline access, so expired tokens can be
// refreshed without a re-link.
type TwitterAdapter struct {
	app    *config.OAuthAppConfig
	client *http.Client

	authURL  string
	tokenURL string
	apiBase  string
}

// NewTwitterAdapter is the constructor for TwitterAdapter.
func NewTwitterAdapter(app *config.OAuthAppConfig, client *http.Client) *TwitterAdapter {
	return &TwitterAdapter{
		app:      app,
		client:   client,
		authURL:  "https://twitter.com/i/oauth2/authorize",
		tokenURL: "https://api.twitter.com/2/oauth2/token",
		apiBase:  "https://api.twitter.com/2",
	}
}

func (a *TwitterAdapter) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     a.app.ClientID,
		ClientSecret: a.app.ClientSecret,
		RedirectURL:  a.app.RedirectURL,
		Scopes:       a.app.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   a.authURL,
			TokenURL:  a.tokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
}

// Platform returns the platform this adapter serves.
func (a *TwitterAdapter) Platform() entity.Platform {
	return entity.PlatformTwitter
}

// BuildAuthURL constructs the PKCE authorization URL for the given state.
func (a *TwitterAdapter) BuildAuthURL(state string) (*service.AuthRequest, error) {
	verifier := oauth2.GenerateVerifier()
	authURL := a.oauthConfig().AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.S256ChallengeOption(verifier),
	)

	return &service.AuthRequest{
		URL:          authURL,
		State:        state,
		CodeVerifier: verifier,
		Scopes:       a.app.Scopes,
	}, nil
}

// ExchangeCode trades the authorization code and PKCE verifier for tokens.
func (a *TwitterAdapter) ExchangeCode(ctx context.Context, code, verifier string) (*service.TokenSet, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.client)

	token, err := a.oauthConfig().Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, domainerrors.ErrTokenExchangeFailed.WrapMessage(err.Error())
	}

	return tokenSetFromOAuth2(token, a.app.Scopes), nil
}

// FetchProfile resolves the authorized user behind the token set.
func (a *TwitterAdapter) FetchProfile(ctx context.Context, tokens *service.TokenSet) (*service.Identity, error) {
	var resp struct {
		Data struct {
			ID              string `json:"id"`
			Name            string `json:"name"`
			Username        string `json:"username"`
			ProfileImageURL string `json:"profile_image_url"`
		} `json:"data"`
	}

	url := a.apiBase + "/users/me?user.fields=profile_image_url"
	if err := getJSON(ctx, a.client, url, bearerHeader(tokens.AccessToken), &resp); err != nil {
		return nil, mapAPIError(err, domainerrors.ErrProfileFetchFailed)
	}

	return &service.Identity{
		ProviderID: resp.Data.ID,
		Profile: entity.Profile{
			Username:  resp.Data.Username,
			Name:      resp.Data.Name,
			AvatarURL: resp.Data.ProfileImageURL,
		},
	}, nil
}

// Publish creates a tweet with the credential's stored token.
func (a *TwitterAdapter) Publish(ctx context.Context, cred *entity.Credential, req *service.PublishRequest) (*service.PublishResult, error) {
	var resp struct {
		Data struct {
			ID   string `json:"id"`
			Text string `json:"text"`
		} `json:"data"`
	}

	body := map[string]string{"text": req.Content}
	if err := postJSON(ctx, a.client, a.apiBase+"/tweets", bearerHeader(cred.AccessToken), body, &resp); err != nil {
		return nil, mapAPIError(err, domainerrors.ErrPublishFailed)
	}

	return &service.PublishResult{
		PostID:  resp.Data.ID,
		PostURL: "https://twitter.com/" + cred.Profile.Username + "/status/" + resp.Data.ID,
	}, nil
}

// RefreshToken exchanges a refresh token for a fresh token set.
func (a *TwitterAdapter) RefreshToken(ctx context.Context, refreshToken string) (*service.TokenSet, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.client)

	source := a.oauthConfig().TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return nil, domainerrors.ErrAuthExpired.WrapMessage(err.Error())
	}

	return tokenSetFromOAuth2(token, a.app.Scopes), nil
}

// SupportsRefresh reports whether RefreshToken is usable.
func (a *TwitterAdapter) SupportsRefresh() bool {
	return true
}

// MaxContentLength is the tweet length limit.
func (a *TwitterAdapter) MaxContentLength() int {
	return twitterMaxContentLength
}

// RequiresMedia reports whether text-only posts are rejected.
func (a *TwitterAdapter) RequiresMedia() bool {
	return false
}

func tokenSetFromOAuth2(token *oauth2.Token, scopes []string) *service.TokenSet {
	set := &service.TokenSet{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Scopes:       scopes,
	}
	if !token.Expiry.IsZero() {
		expiry := token.Expiry
		set.ExpiresAt = &expiry
	}

	return set
}

func bearerHeader(accessToken string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + accessToken}
}
