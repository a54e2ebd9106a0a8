package http

import (
	"shop_assistant_backend/platform/config"
	"shop_assistant_backend/platform/logger"
)

// RouterConfig is the slice of configuration the router reads.
type RouterConfig interface {
	config.HTTPConfig
	GetChatRateLimitPerMinute() int
}

// App is assembled in cmd/api and handed to router.New.
type App struct {
	Config  RouterConfig
	Logger  *logger.Logger
	Modules []Module
}
