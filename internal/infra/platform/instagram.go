package platform

import (
	"context"
	"net/http"
	"net/url"

	"relay/config"
	"relay/internal/domain/entity"
	domainerrors "relay/internal/domain/errors"
	"relay/internal/domain/service"
)

const instagramMaxContentLength = 2200

// InstagramAdapter drives Instagram content publishing through the Facebook
// Graph API. It rides the same OAuth application as Facebook; linking walks
// the user's pages and adopts the first one backed by an Instagram business
// account.
type InstagramAdapter struct {
	app    *config.OAuthAppConfig
	client *http.Client

	dialogURL string
	graphBase string
}

// NewInstagramAdapter is the constructor for InstagramAdapter.
func NewInstagramAdapter(app *config.OAuthAppConfig, client *http.Client) *InstagramAdapter {
	return &InstagramAdapter{
		app:       app,
		client:    client,
		dialogURL: "https://www.facebook.com/v19.0/dialog/oauth",
		graphBase: "https://graph.facebook.com/v19.0",
	}
}

// Platform returns the platform this adapter serves.
func (a *InstagramAdapter) Platform() entity.Platform {
	return entity.PlatformInstagram
}

// BuildAuthURL constructs the login dialog URL for the given state.
func (a *InstagramAdapter) BuildAuthURL(state string) (*service.AuthRequest, error) {
	return &service.AuthRequest{
		URL:    buildGraphDialogURL(a.dialogURL, a.app, state),
		State:  state,
		Scopes: a.app.Scopes,
	}, nil
}

// ExchangeCode trades the authorization code for a long-lived user token.
func (a *InstagramAdapter) ExchangeCode(ctx context.Context, code, _ string) (*service.TokenSet, error) {
	shortLived, err := graphCodeExchange(ctx, a.client, a.graphBase, a.app, code)
	if err != nil {
		return nil, err
	}

	return graphLongLivedExchange(ctx, a.client, a.graphBase, a.app, shortLived, a.app.Scopes)
}

// FetchProfile finds the first page backed by an Instagram business account.
// The credential stores the page token and the Instagram account id.
func (a *InstagramAdapter) FetchProfile(ctx context.Context, tokens *service.TokenSet) (*service.Identity, error) {
	page, err := firstManagedPage(ctx, a.client, a.graphBase, tokens.AccessToken, true)
	if err != nil {
		return nil, err
	}

	account := page.InstagramBusinessAccount

	return &service.Identity{
		ProviderID: account.ID,
		Profile: entity.Profile{
			Username:  account.Username,
			Name:      account.Username,
			AvatarURL: account.ProfilePictureURL,
			PageID:    page.ID,
		},
		Tokens: &service.TokenSet{
			AccessToken: page.AccessToken,
			Scopes:      tokens.Scopes,
		},
	}, nil
}

// Publish runs the two-step container flow: create a media container, then
// publish it. A post without media never reaches the API; the controller
// rejects it first, and this guards again.
func (a *InstagramAdapter) Publish(ctx context.Context, cred *entity.Credential, req *service.PublishRequest) (*service.PublishResult, error) {
	if req.MediaURL == "" {
		return nil, domainerrors.ErrValidation.WrapMessage("instagram posts require media")
	}

	containerValues := url.Values{}
	containerValues.Set("image_url", req.MediaURL)
	containerValues.Set("caption", req.Content)
	containerValues.Set("access_token", cred.AccessToken)

	var container struct {
		ID string `json:"id"`
	}
	containerURL := a.graphBase + "/" + cred.ProviderID + "/media"
	if err := postForm(ctx, a.client, containerURL, containerValues, &container); err != nil {
		return nil, mapAPIError(err, domainerrors.ErrPublishFailed)
	}

	if container.ID == "" {
		return nil, domainerrors.ErrPublishFailed.WrapMessage("media container was not created")
	}

	publishValues := url.Values{}
	publishValues.Set("creation_id", container.ID)
	publishValues.Set("access_token", cred.AccessToken)

	var published struct {
		ID string `json:"id"`
	}
	publishURL := a.graphBase + "/" + cred.ProviderID + "/media_publish"
	if err := postForm(ctx, a.client, publishURL, publishValues, &published); err != nil {
		return nil, mapAPIError(err, domainerrors.ErrPublishFailed)
	}

	return &service.PublishResult{
		PostID:  published.ID,
		PostURL: a.fetchPermalink(ctx, published.ID, cred.AccessToken),
	}, nil
}

// fetchPermalink resolves the public URL of a published media item. The post
// already exists at this point, so a lookup failure only costs the URL.
func (a *InstagramAdapter) fetchPermalink(ctx context.Context, mediaID, accessToken string) string {
	params := url.Values{}
	params.Set("fields", "permalink")
	params.Set("access_token", accessToken)

	var resp struct {
		Permalink string `json:"permalink"`
	}
	mediaURL := a.graphBase + "/" + mediaID + "?" + params.Encode()
	if err := getJSON(ctx, a.client, mediaURL, nil, &resp); err != nil {
		return ""
	}

	return resp.Permalink
}

// RefreshToken always fails: page tokens are replaced by re-linking, not
// refreshed.
func (a *InstagramAdapter) RefreshToken(_ context.Context, _ string) (*service.TokenSet, error) {
	return nil, service.ErrRefreshNotSupported
}

// SupportsRefresh reports whether RefreshToken is usable.
func (a *InstagramAdapter) SupportsRefresh() bool {
	return false
}

// MaxContentLength is the caption length limit.
func (a *InstagramAdapter) MaxContentLength() int {
	return instagramMaxContentLength
}

// RequiresMedia reports whether text-only posts are rejected.
func (a *InstagramAdapter) RequiresMedia() bool {
	return true
}
