package handler

import (
	"net/http"
	"time"

	deliverycontext "relay/internal/delivery/context"
	"relay/internal/domain/entity"
	domainerrors "relay/internal/domain/errors"
	"relay/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// PublishHandler holds dependencies for the publishing routes.
type PublishHandler struct {
	uc usecase.PublishUsecase
}

// NewPublishHandler is the constructor for PublishHandler, injected by Fx.
func NewPublishHandler(uc usecase.PublishUsecase) *PublishHandler {
	return &PublishHandler{uc: uc}
}

// Post publishes content immediately.
func (h *PublishHandler) Post(c echo.Context) error {
	platform, err := parsePlatform(c)
	if err != nil {
		return err
	}

	var input postRequest
	if err := c.Bind(&input); err != nil {
		return domainerrors.ErrValidation.WrapMessage("invalid post input")
	}

	output, err := h.uc.Publish(c.Request().Context(), &usecase.PublishInput{
		UserID:    input.UserID,
		Platform:  platform,
		Content:   input.Content,
		MediaURL:  input.MediaURL,
		RequestID: deliverycontext.GetRequestID(c),
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return c.JSON(http.StatusOK, postResponse{
		Success: true,
		PostID:  output.PostID,
		PostURL: output.PostURL,
	})
}

// Schedule records a post for deferred publishing.
func (h *PublishHandler) Schedule(c echo.Context) error {
	platform, err := parsePlatform(c)
	if err != nil {
		return err
	}

	var input scheduleRequest
	if err := c.Bind(&input); err != nil {
		return domainerrors.ErrValidation.WrapMessage("invalid schedule input")
	}

	scheduledFor, err := time.Parse(time.RFC3339, input.ScheduledFor)
	if err != nil {
		return domainerrors.ErrValidation.WrapMessage("scheduledFor must be an RFC 3339 timestamp")
	}

	output, err := h.uc.Schedule(c.Request().Context(), &usecase.ScheduleInput{
		PublishInput: usecase.PublishInput{
			UserID:    input.UserID,
			Platform:  platform,
			Content:   input.Content,
			MediaURL:  input.MediaURL,
			RequestID: deliverycontext.GetRequestID(c),
		},
		ScheduledFor: scheduledFor,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return c.JSON(http.StatusOK, scheduleResponse{
		Success:      true,
		PostID:       output.PostID,
		ScheduledFor: output.ScheduledFor.Format(time.RFC3339),
	})
}

// Posts lists the user's post history for the platform.
func (h *PublishHandler) Posts(c echo.Context) error {
	platform, err := parsePlatform(c)
	if err != nil {
		return err
	}

	records, err := h.uc.ListPosts(c.Request().Context(), c.QueryParam("userId"), platform)
	if err != nil {
		return errors.WithStack(err)
	}

	posts := make([]postView, 0, len(records))
	for _, record := range records {
		posts = append(posts, toPostView(record))
	}

	return c.JSON(http.StatusOK, listResponse{
		Success: true,
		Posts:   posts,
		Count:   len(posts),
	})
}

type postRequest struct {
	UserID   string `json:"userId"`
	Content  string `json:"content"`
	MediaURL string `json:"mediaUrl"`
}

type postResponse struct {
	Success bool   `json:"success"`
	PostID  string `json:"postId"`
	PostURL string `json:"postUrl,omitempty"`
}

type scheduleRequest struct {
	UserID       string `json:"userId"`
	Content      string `json:"content"`
	MediaURL     string `json:"mediaUrl"`
	ScheduledFor string `json:"scheduledFor"`
}

type scheduleResponse struct {
	Success      bool   `json:"success"`
	PostID       string `json:"postId"`
	ScheduledFor string `json:"scheduledFor"`
}

type listResponse struct {
	Success bool       `json:"success"`
	Posts   []postView `json:"posts"`
	Count   int        `json:"count"`
}

type postView struct {
	ID             string          `json:"id"`
	Platform       entity.Platform `json:"platform"`
	Content        string          `json:"content"`
	MediaURL       string          `json:"mediaUrl,omitempty"`
	PostURL        string          `json:"postUrl,omitempty"`
	ProviderPostID string          `json:"providerPostId,omitempty"`
	Status         string          `json:"status"`
	Account        accountView     `json:"account"`
	ScheduledFor   string          `json:"scheduledFor,omitempty"`
	PostedAt       string          `json:"postedAt,omitempty"`
	CreatedAt      string          `json:"createdAt"`
}

type accountView struct {
	Username   string `json:"username"`
	Name       string `json:"name"`
	AvatarURL  string `json:"avatarUrl,omitempty"`
	ProviderID string `json:"providerId"`
}

func toPostView(record *entity.PostRecord) postView {
	view := postView{
		ID:             record.ID.String(),
		Platform:       record.Platform,
		Content:        record.Content,
		MediaURL:       record.MediaURL,
		PostURL:        record.PostURL,
		ProviderPostID: record.ProviderPostID,
		Status:         string(record.Status),
		Account: accountView{
			Username:   record.Account.Username,
			Name:       record.Account.Name,
			AvatarURL:  record.Account.AvatarURL,
			ProviderID: record.Account.ProviderID,
		},
		CreatedAt: record.CreatedAt.Format(time.RFC3339),
	}

	if record.ScheduledFor != nil {
		view.ScheduledFor = record.ScheduledFor.Format(time.RFC3339)
	}
	if !record.PostedAt.IsZero() {
		view.PostedAt = record.PostedAt.Format(time.RFC3339)
	}

	return view
}
