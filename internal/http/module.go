// Package http holds the pieces shared between the router and the feature
// modules that mount routes on it.
package http

import (
	"shop_assistant_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Module is a feature package that owns a set of HTTP routes.
type Module interface {
	// Name identifies the module in startup logs.
	Name() string
	// RegisterRoutes mounts the module's endpoints.
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext carries what a module needs while registering routes.
type RouterContext struct {
	Engine *gin.Engine
	// API is the /api route group.
	API *gin.RouterGroup
	// RateLimiter throttles expensive endpoints per client IP.
	RateLimiter *httpkit.IPRateLimiter
}
