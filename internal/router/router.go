package router

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/belzunces/monsieurchef/internal/api"
	"github.com/belzunces/monsieurchef/internal/web"
)

// SetupRouter configures the application routes: the JSON API under
// /api/v1 and the HTML pages everywhere else.
func SetupRouter(pages *web.Handler, deps api.Dependencies) (*gin.Engine, error) {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	// API first so its CORS middleware also covers unmatched preflights
	api.RegisterRoutes(router, deps)

	if err := pages.RegisterRoutes(router); err != nil {
		return nil, err
	}
	return router, nil
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelInfo
		if c.Writer.Status() >= 500 {
			level = slog.LevelError
		}
		slog.Log(c.Request.Context(), level, "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client_ip", c.ClientIP())
	}
}
