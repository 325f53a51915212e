// Package delivery defines the contract every serving surface implements so
// the application entry point can start them uniformly.
package delivery

import "context"

// Delivery is a long-running serving component (HTTP server, background
// worker). Serve blocks until the component stops or the context ends.
type Delivery interface {
	Serve(ctx context.Context) error
}
