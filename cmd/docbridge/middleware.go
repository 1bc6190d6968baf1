package main

import (
	"github.com/JaimeStill/docbridge/internal/config"
	"github.com/JaimeStill/docbridge/internal/infrastructure"
	"github.com/JaimeStill/docbridge/pkg/middleware"
)

// buildMiddleware creates and configures the middleware stack with logging and CORS.
func buildMiddleware(infra *infrastructure.Infrastructure, cfg *config.Config) middleware.System {
	mw := middleware.New()
	mw.Use(middleware.TrimSlash())
	mw.Use(middleware.Logger(infra.Logger))
	mw.Use(middleware.CORS(&cfg.CORS))
	return mw
}
