package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/belzunces/monsieurchef/internal/middleware"
	"github.com/belzunces/monsieurchef/internal/service"
)

// HealthCheck returns the health status of the API
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"message":        "MonsieurChef API is running",
		"prompt_version": service.PromptVersion,
	})
}

// Dependencies are the services the JSON API is built on. ConvertLimiter may be nil.
type Dependencies struct {
	Auth           service.IAuthService
	Store          service.IRecipeStore
	Converter      service.IConverter
	ConvertLimiter *middleware.RateLimiter
	AllowedOrigins []string
}

// RegisterRoutes registers all API routes under /api/v1
func RegisterRoutes(router *gin.Engine, deps Dependencies) {
	router.Use(middleware.CORSFor("/api/", deps.AllowedOrigins))

	v1 := router.Group("/api/v1")
	v1.Use(middleware.ErrorHandler())

	v1.GET("/health", HealthCheck)

	NewAuthHandler(deps.Auth).RegisterRoutes(v1)
	NewRecipeHandler(deps.Store, deps.Converter, deps.Auth, deps.ConvertLimiter).RegisterRoutes(v1)
}
