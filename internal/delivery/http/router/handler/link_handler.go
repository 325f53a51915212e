// Package handler contains the HTTP handlers for the application.
package handler

import (
	"html/template"
	"log/slog"
	"net/http"
	"net/url"

	"relay/config"
	"relay/internal/domain/entity"
	domainerrors "relay/internal/domain/errors"
	"relay/internal/domain/service"
	"relay/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// bridgeTemplate is the interstitial page for mobile link flows. It fires the
// app deep link immediately and falls back to the web frontend if nothing
// claims it. Only the one-shot session id travels in either URL.
var bridgeTemplate = template.Must(template.New("bridge").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Account linked</title>
</head>
<body>
<p>Account linked. Returning to the app&hellip;</p>
<script>
window.location.href = {{.DeepLink}};
setTimeout(function () {
	window.location.href = {{.Fallback}};
}, 2500);
</script>
</body>
</html>
`))

// LinkHandler holds dependencies for the account-linking routes.
type LinkHandler struct {
	uc          usecase.LinkUsecase
	qrService   service.QRCodeService
	frontendURL string
	logger      *slog.Logger
}

// NewLinkHandler is the constructor for LinkHandler, injected by Fx.
func NewLinkHandler(uc usecase.LinkUsecase, qrService service.QRCodeService, cfg *config.Config, logger *slog.Logger) *LinkHandler {
	return &LinkHandler{
		uc:          uc,
		qrService:   qrService,
		frontendURL: cfg.Link.FrontendURL,
		logger:      logger,
	}
}

// BeginLink starts an OAuth flow and redirects the user-agent to the
// platform. With format=qr the authorization URL is rendered as a PNG QR
// code instead, for linking from a second device.
func (h *LinkHandler) BeginLink(c echo.Context) error {
	platform, err := parsePlatform(c)
	if err != nil {
		return err
	}

	origin := entity.OriginWeb
	if c.QueryParam("origin") == string(entity.OriginMobile) {
		origin = entity.OriginMobile
	}

	result, err := h.uc.BeginLink(c.Request().Context(), c.QueryParam("userId"), platform, origin)
	if err != nil {
		return errors.WithStack(err)
	}

	if c.QueryParam("format") == "qr" {
		png, err := h.qrService.EncodeURL(result.AuthURL)
		if err != nil {
			return errors.WithStack(err)
		}

		return c.Blob(http.StatusOK, "image/png", png)
	}

	return c.Redirect(http.StatusFound, result.AuthURL)
}

// Callback finishes an OAuth flow. Unlike the API routes this endpoint talks
// to a browser mid-redirect, so failures become an error redirect back to the
// frontend rather than a JSON body.
func (h *LinkHandler) Callback(c echo.Context) error {
	platform, err := parsePlatform(c)
	if err != nil {
		return h.errorRedirect(c, err)
	}

	// The platform reports user denial through an error query parameter.
	if denied := c.QueryParam("error"); denied != "" {
		return h.errorRedirect(c, domainerrors.ErrTokenExchangeFailed.WrapMessage("authorization denied: "+denied))
	}

	result, err := h.uc.CompleteLink(c.Request().Context(), platform, c.QueryParam("state"), c.QueryParam("code"))
	if err != nil {
		return h.errorRedirect(c, err)
	}

	if result.Origin == entity.OriginMobile {
		return bridgeTemplate.Execute(c.Response().Writer, map[string]string{
			"DeepLink": result.DeepLinkURL,
			"Fallback": result.RedirectURL,
		})
	}

	return c.Redirect(http.StatusFound, result.RedirectURL)
}

// VerifySession consumes a one-shot mobile session handle and returns the
// linked account.
func (h *LinkHandler) VerifySession(c echo.Context) error {
	account, err := h.uc.ResolveTransientSession(c.Request().Context(), c.QueryParam("session_id"))
	if err != nil {
		return errors.WithStack(err)
	}

	return c.JSON(http.StatusOK, verifySessionResponse{
		Success: true,
		Account: account,
	})
}

// Check reports whether the platform account is linked and usable.
func (h *LinkHandler) Check(c echo.Context) error {
	platform, err := parsePlatform(c)
	if err != nil {
		return err
	}

	status, err := h.uc.CheckLink(c.Request().Context(), c.QueryParam("userId"), platform)
	if err != nil {
		return errors.WithStack(err)
	}

	return c.JSON(http.StatusOK, checkResponse{
		Success:   true,
		Connected: status.Connected,
		Account:   status.Account,
	})
}

// Disconnect removes the linked account.
func (h *LinkHandler) Disconnect(c echo.Context) error {
	platform, err := parsePlatform(c)
	if err != nil {
		return err
	}

	var input disconnectRequest
	if err := c.Bind(&input); err != nil {
		return domainerrors.ErrValidation.WrapMessage("invalid disconnect input")
	}

	count, err := h.uc.Unlink(c.Request().Context(), input.UserID, platform)
	if err != nil {
		return errors.WithStack(err)
	}

	return c.JSON(http.StatusOK, disconnectResponse{
		Success:      true,
		DeletedCount: count,
	})
}

// errorRedirect sends the browser back to the frontend with the failure
// category in the query string. Messages only; never tokens or state.
func (h *LinkHandler) errorRedirect(c echo.Context, err error) error {
	code := "INTERNAL_ERROR"
	message := "linking failed"

	var appErr domainerrors.AppError
	if errors.As(err, &appErr) {
		code = appErr.ErrorCode()
		message = appErr.Message()
	}

	h.logger.Warn("link callback failed",
		slog.String("code", code),
		slog.String("error", err.Error()),
	)

	params := url.Values{}
	params.Set("linked", "false")
	params.Set("error", message)
	params.Set("code", code)

	return c.Redirect(http.StatusFound, h.frontendURL+"?"+params.Encode())
}

func parsePlatform(c echo.Context) (entity.Platform, error) {
	platform, err := entity.ParsePlatform(c.Param("platform"))
	if err != nil {
		return "", domainerrors.ErrValidation.WrapMessage(err.Error())
	}

	return platform, nil
}

type disconnectRequest struct {
	UserID string `json:"userId"`
}

type disconnectResponse struct {
	Success      bool  `json:"success"`
	DeletedCount int64 `json:"deletedCount"`
}

type checkResponse struct {
	Success   bool                       `json:"success"`
	Connected bool                       `json:"connected"`
	Account   *usecase.CredentialSummary `json:"account,omitempty"`
}

type verifySessionResponse struct {
	Success bool                       `json:"success"`
	Account *usecase.CredentialSummary `json:"account"`
}
