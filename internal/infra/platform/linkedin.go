package platform

import (
	"context"
	"net/http"
	"strings"

	"relay/config"
	"relay/internal/domain/entity"
	domainerrors "relay/internal/domain/errors"
	"relay/internal/domain/service"

	"golang.org/x/oauth2"
)

const linkedinMaxContentLength = 3000

// LinkedInAdapter drives the LinkedIn REST API. Linking uses the plain
// authorization-code flow; LinkedIn issues no refresh tokens on standard
// applications, so an expired token always forces a re-link.
type LinkedInAdapter struct {
	app    *config.OAuthAppConfig
	client *http.Client

	authURL  string
	tokenURL string
	apiBase  string
}

// NewLinkedInAdapter is the constructor for LinkedInAdapter.
func NewLinkedInAdapter(app *config.OAuthAppConfig, client *http.Client) *LinkedInAdapter {
	return &LinkedInAdapter{
		app:      app,
		client:   client,
		authURL:  "https://www.linkedin.com/oauth/v2/authorization",
		tokenURL: "https://www.linkedin.com/oauth/v2/accessToken",
		apiBase:  "https://api.linkedin.com",
	}
}

func (a *LinkedInAdapter) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     a.app.ClientID,
		ClientSecret: a.app.ClientSecret,
		RedirectURL:  a.app.RedirectURL,
		Scopes:       a.app.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   a.authURL,
			TokenURL:  a.tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// Platform returns the platform this adapter serves.
func (a *LinkedInAdapter) Platform() entity.Platform {
	return entity.PlatformLinkedIn
}

// BuildAuthURL constructs the authorization URL for the given state.
func (a *LinkedInAdapter) BuildAuthURL(state string) (*service.AuthRequest, error) {
	return &service.AuthRequest{
		URL:    a.oauthConfig().AuthCodeURL(state),
		State:  state,
		Scopes: a.app.Scopes,
	}, nil
}

// ExchangeCode trades the authorization code for an access token.
func (a *LinkedInAdapter) ExchangeCode(ctx context.Context, code, _ string) (*service.TokenSet, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.client)

	token, err := a.oauthConfig().Exchange(ctx, code)
	if err != nil {
		return nil, domainerrors.ErrTokenExchangeFailed.WrapMessage(err.Error())
	}

	return tokenSetFromOAuth2(token, a.app.Scopes), nil
}

// FetchProfile resolves the member behind the token through the OpenID
// userinfo endpoint. LinkedIn exposes no handle there, so the username is
// synthesized from the display name.
func (a *LinkedInAdapter) FetchProfile(ctx context.Context, tokens *service.TokenSet) (*service.Identity, error) {
	var resp struct {
		Sub     string `json:"sub"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
		Email   string `json:"email"`
	}

	url := a.apiBase + "/v2/userinfo"
	if err := getJSON(ctx, a.client, url, bearerHeader(tokens.AccessToken), &resp); err != nil {
		return nil, mapAPIError(err, domainerrors.ErrProfileFetchFailed)
	}

	return &service.Identity{
		ProviderID: resp.Sub,
		Profile: entity.Profile{
			Username:  synthesizeUsername(resp.Name),
			Name:      resp.Name,
			AvatarURL: resp.Picture,
			Email:     resp.Email,
		},
	}, nil
}

// Publish creates a UGC share authored by the linked member.
func (a *LinkedInAdapter) Publish(ctx context.Context, cred *entity.Credential, req *service.PublishRequest) (*service.PublishResult, error) {
	shareContent := map[string]any{
		"shareCommentary":    map[string]string{"text": req.Content},
		"shareMediaCategory": "NONE",
	}
	if req.MediaURL != "" {
		shareContent["shareMediaCategory"] = "ARTICLE"
		shareContent["media"] = []map[string]any{{
			"status":      "READY",
			"originalUrl": req.MediaURL,
		}}
	}

	body := map[string]any{
		"author":         "urn:li:person:" + cred.ProviderID,
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]any{
			"com.linkedin.ugc.ShareContent": shareContent,
		},
		"visibility": map[string]string{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}

	headers := bearerHeader(cred.AccessToken)
	headers["X-Restli-Protocol-Version"] = "2.0.0"

	var resp struct {
		ID string `json:"id"`
	}
	if err := postJSON(ctx, a.client, a.apiBase+"/v2/ugcPosts", headers, body, &resp); err != nil {
		return nil, mapAPIError(err, domainerrors.ErrPublishFailed)
	}

	return &service.PublishResult{
		PostID:  resp.ID,
		PostURL: "https://www.linkedin.com/feed/update/" + resp.ID,
	}, nil
}

// RefreshToken always fails: the platform issues no refresh tokens here.
func (a *LinkedInAdapter) RefreshToken(_ context.Context, _ string) (*service.TokenSet, error) {
	return nil, service.ErrRefreshNotSupported
}

// SupportsRefresh reports whether RefreshToken is usable.
func (a *LinkedInAdapter) SupportsRefresh() bool {
	return false
}

// MaxContentLength is the share commentary length limit.
func (a *LinkedInAdapter) MaxContentLength() int {
	return linkedinMaxContentLength
}

// RequiresMedia reports whether text-only posts are rejected.
func (a *LinkedInAdapter) RequiresMedia() bool {
	return false
}

func synthesizeUsername(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", ""))
}
