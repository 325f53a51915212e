package platform

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"relay/config"
	"relay/internal/domain/entity"
	domainerrors "relay/internal/domain/errors"
	"relay/internal/domain/service"
)

const facebookMaxContentLength = 63206

// FacebookAdapter drives the Facebook Graph API. Linking resolves the user's
// first managed page and stores that page's token; publishing always targets
// the page, never the personal profile.
type FacebookAdapter struct {
	app    *config.OAuthAppConfig
	client *http.Client

	dialogURL string
	graphBase string
}

// NewFacebookAdapter is the constructor for FacebookAdapter.
func NewFacebookAdapter(app *config.OAuthAppConfig, client *http.Client) *FacebookAdapter {
	return &FacebookAdapter{
		app:       app,
		client:    client,
		dialogURL: "https://www.facebook.com/v19.0/dialog/oauth",
		graphBase: "https://graph.facebook.com/v19.0",
	}
}

// Platform returns the platform this adapter serves.
func (a *FacebookAdapter) Platform() entity.Platform {
	return entity.PlatformFacebook
}

// BuildAuthURL constructs the login dialog URL for the given state.
func (a *FacebookAdapter) BuildAuthURL(state string) (*service.AuthRequest, error) {
	return &service.AuthRequest{
		URL:    buildGraphDialogURL(a.dialogURL, a.app, state),
		State:  state,
		Scopes: a.app.Scopes,
	}, nil
}

// ExchangeCode trades the authorization code for a long-lived user token. The
// Graph API hands out a short-lived token first; a second exchange with
// fb_exchange_token extends it to roughly sixty days.
func (a *FacebookAdapter) ExchangeCode(ctx context.Context, code, _ string) (*service.TokenSet, error) {
	shortLived, err := graphCodeExchange(ctx, a.client, a.graphBase, a.app, code)
	if err != nil {
		return nil, err
	}

	return graphLongLivedExchange(ctx, a.client, a.graphBase, a.app, shortLived, a.app.Scopes)
}

// FetchProfile enumerates the user's managed pages and adopts the first one.
// The returned token set carries the page token, which replaces the user
// token in the stored credential.
func (a *FacebookAdapter) FetchProfile(ctx context.Context, tokens *service.TokenSet) (*service.Identity, error) {
	page, err := firstManagedPage(ctx, a.client, a.graphBase, tokens.AccessToken, false)
	if err != nil {
		return nil, err
	}

	return &service.Identity{
		ProviderID: page.ID,
		Profile: entity.Profile{
			Username:  page.Name,
			Name:      page.Name,
			AvatarURL: page.Picture.Data.URL,
			PageID:    page.ID,
		},
		// Page tokens inherit the user token's long-lived expiry but are
		// reported without one, so the credential keeps no expiry here.
		Tokens: &service.TokenSet{
			AccessToken: page.AccessToken,
			Scopes:      tokens.Scopes,
		},
	}, nil
}

// Publish posts to the linked page's feed, or uploads a photo when media is
// attached.
func (a *FacebookAdapter) Publish(ctx context.Context, cred *entity.Credential, req *service.PublishRequest) (*service.PublishResult, error) {
	endpoint := a.graphBase + "/" + cred.Profile.PageID + "/feed"
	values := url.Values{}
	values.Set("access_token", cred.AccessToken)

	if req.MediaURL != "" {
		endpoint = a.graphBase + "/" + cred.Profile.PageID + "/photos"
		values.Set("url", req.MediaURL)
		values.Set("caption", req.Content)
	} else {
		values.Set("message", req.Content)
	}

	var resp struct {
		ID     string `json:"id"`
		PostID string `json:"post_id"`
	}
	if err := postForm(ctx, a.client, endpoint, values, &resp); err != nil {
		return nil, mapAPIError(err, domainerrors.ErrPublishFailed)
	}

	// Photo uploads report the feed story under post_id.
	postID := resp.ID
	if resp.PostID != "" {
		postID = resp.PostID
	}

	return &service.PublishResult{
		PostID:  postID,
		PostURL: "https://www.facebook.com/" + postID,
	}, nil
}

// RefreshToken always fails: page tokens are replaced by re-linking, not
// refreshed.
func (a *FacebookAdapter) RefreshToken(_ context.Context, _ string) (*service.TokenSet, error) {
	return nil, service.ErrRefreshNotSupported
}

// SupportsRefresh reports whether RefreshToken is usable.
func (a *FacebookAdapter) SupportsRefresh() bool {
	return false
}

// MaxContentLength is the page post length limit.
func (a *FacebookAdapter) MaxContentLength() int {
	return facebookMaxContentLength
}

// RequiresMedia reports whether text-only posts are rejected.
func (a *FacebookAdapter) RequiresMedia() bool {
	return false
}

// --- Shared Graph API helpers (Facebook and Instagram use the same app) ---

type graphPage struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AccessToken string `json:"access_token"`
	Picture     struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"picture"`
	InstagramBusinessAccount *struct {
		ID                string `json:"id"`
		Username          string `json:"username"`
		ProfilePictureURL string `json:"profile_picture_url"`
	} `json:"instagram_business_account"`
}

func buildGraphDialogURL(dialogURL string, app *config.OAuthAppConfig, state string) string {
	params := url.Values{}
	params.Set("client_id", app.ClientID)
	params.Set("redirect_uri", app.RedirectURL)
	params.Set("state", state)
	params.Set("response_type", "code")
	if len(app.Scopes) > 0 {
		params.Set("scope", joinScopes(app.Scopes))
	}

	return dialogURL + "?" + params.Encode()
}

func graphCodeExchange(ctx context.Context, client *http.Client, graphBase string, app *config.OAuthAppConfig, code string) (string, error) {
	params := url.Values{}
	params.Set("client_id", app.ClientID)
	params.Set("client_secret", app.ClientSecret)
	params.Set("redirect_uri", app.RedirectURL)
	params.Set("code", code)

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	exchangeURL := graphBase + "/oauth/access_token?" + params.Encode()
	if err := getJSON(ctx, client, exchangeURL, nil, &resp); err != nil {
		return "", domainerrors.ErrTokenExchangeFailed.WrapMessage(err.Error())
	}

	return resp.AccessToken, nil
}

func graphLongLivedExchange(ctx context.Context, client *http.Client, graphBase string, app *config.OAuthAppConfig, shortLived string, scopes []string) (*service.TokenSet, error) {
	params := url.Values{}
	params.Set("grant_type", "fb_exchange_token")
	params.Set("client_id", app.ClientID)
	params.Set("client_secret", app.ClientSecret)
	params.Set("fb_exchange_token", shortLived)

	var resp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	exchangeURL := graphBase + "/oauth/access_token?" + params.Encode()
	if err := getJSON(ctx, client, exchangeURL, nil, &resp); err != nil {
		return nil, domainerrors.ErrTokenExchangeFailed.WrapMessage(err.Error())
	}

	set := &service.TokenSet{
		AccessToken: resp.AccessToken,
		Scopes:      scopes,
	}
	if resp.ExpiresIn > 0 {
		expiry := time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
		set.ExpiresAt = &expiry
	}

	return set, nil
}

// firstManagedPage scans the first page of /me/accounts and returns the first
// entry that qualifies. With requireInstagram set, pages without a linked
// Instagram business account are skipped.
func firstManagedPage(ctx context.Context, client *http.Client, graphBase string, userToken string, requireInstagram bool) (*graphPage, error) {
	fields := "id,name,access_token,picture{url}"
	if requireInstagram {
		fields = "id,name,access_token,instagram_business_account{id,username,profile_picture_url}"
	}

	params := url.Values{}
	params.Set("fields", fields)
	params.Set("access_token", userToken)

	var resp struct {
		Data []graphPage `json:"data"`
	}
	accountsURL := graphBase + "/me/accounts?" + params.Encode()
	if err := getJSON(ctx, client, accountsURL, nil, &resp); err != nil {
		return nil, mapAPIError(err, domainerrors.ErrProfileFetchFailed)
	}

	for i := range resp.Data {
		page := &resp.Data[i]
		if requireInstagram && page.InstagramBusinessAccount == nil {
			continue
		}

		return page, nil
	}

	return nil, domainerrors.ErrProfileFetchFailed.WrapMessage("no eligible page found for this account")
}

func joinScopes(scopes []string) string {
	joined := scopes[0]
	for _, s := range scopes[1:] {
		joined += "," + s
	}

	return joined
}
