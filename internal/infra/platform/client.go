// Package platform implements the per-network adapters behind the domain
// Adapter contract. Each adapter owns its network's OAuth dialect and publish
// API; all outbound calls share one timeout-bounded HTTP client.
package platform

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"relay/config"
	domainerrors "relay/internal/domain/errors"
	"relay/internal/domain/service"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// Params defines the parameters required to build the adapter registry.
type Params struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

// New builds the adapter registry from the configured platforms. Platforms
// without credentials in the config are simply absent from the registry.
func New(params Params) *service.Registry {
	client := &http.Client{Timeout: params.Config.Publish.CallTimeout}

	var adapters []service.Adapter
	if app := params.Config.Platforms.Twitter; app != nil {
		adapters = append(adapters, NewTwitterAdapter(app, client))
	}
	if app := params.Config.Platforms.LinkedIn; app != nil {
		adapters = append(adapters, NewLinkedInAdapter(app, client))
	}
	if app := params.Config.Platforms.Facebook; app != nil {
		adapters = append(adapters, NewFacebookAdapter(app, client))
	}
	if app := params.Config.Platforms.Instagram; app != nil {
		adapters = append(adapters, NewInstagramAdapter(app, client))
	}

	params.Logger.Info("platform adapters registered", slog.Int("count", len(adapters)))

	return service.NewRegistry(adapters)
}

// getJSON performs a GET and decodes the JSON response body into out.
func getJSON(ctx context.Context, client *http.Client, rawURL string, headers map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return doJSON(client, req, out)
}

// postJSON performs a POST with a JSON body and decodes the JSON response.
func postJSON(ctx context.Context, client *http.Client, rawURL string, headers map[string]string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "failed to encode request body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(string(payload)))
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return doJSON(client, req, out)
}

// postForm performs a POST with form-encoded values and decodes the JSON
// response.
func postForm(ctx context.Context, client *http.Client, rawURL string, values url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(values.Encode()))
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return doJSON(client, req, out)
}

func doJSON(client *http.Client, req *http.Request, out any) error {
	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

		return &apiError{status: resp.StatusCode, body: string(body)}
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "failed to decode response")
	}

	return nil
}

// apiError carries the HTTP status of a failed platform call so callers can
// map it onto the domain taxonomy.
type apiError struct {
	status int
	body   string
}

func (e *apiError) Error() string {
	return "platform API returned status " + http.StatusText(e.status) + ": " + e.body
}

// mapAPIError converts a platform call failure into a domain error. Auth
// rejections and rate limits keep their category regardless of the operation;
// everything else falls back to the operation's own error.
func mapAPIError(err error, fallback *domainerrors.BaseError) error {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		switch apiErr.status {
		case http.StatusUnauthorized, http.StatusForbidden:
			return domainerrors.ErrAuthExpired.WrapMessage(apiErr.Error())
		case http.StatusTooManyRequests:
			return domainerrors.ErrRateLimited.WrapMessage(apiErr.Error())
		}
	}

	return fallback.WrapMessage(err.Error())
}
