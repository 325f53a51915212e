// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"relay/internal/delivery/http/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	LinkHandler    *handler.LinkHandler
	PublishHandler *handler.PublishHandler
}

// router holds all the handlers that need to be registered.
type router struct {
	linkHandler    *handler.LinkHandler
	publishHandler *handler.PublishHandler
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		linkHandler:    params.LinkHandler,
		publishHandler: params.PublishHandler,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// OAuth redirect endpoints: talk to a browser, render redirects not JSON
	authGroup := e.Group("/auth")
	{
		authGroup.GET("/:platform", r.linkHandler.BeginLink)
		authGroup.GET("/:platform/callback", r.linkHandler.Callback)
	}

	// JSON API endpoints
	apiGroup := e.Group("/api")
	{
		apiGroup.GET("/:platform/check", r.linkHandler.Check)
		apiGroup.GET("/:platform/verify-session", r.linkHandler.VerifySession)
		apiGroup.POST("/:platform/disconnect", r.linkHandler.Disconnect)
		apiGroup.POST("/:platform/post", r.publishHandler.Post)
		apiGroup.POST("/:platform/schedule", r.publishHandler.Schedule)
		apiGroup.GET("/:platform/posts", r.publishHandler.Posts)
	}
}
