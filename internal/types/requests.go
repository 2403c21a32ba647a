package types

import (
	"github.com/belzunces/monsieurchef/internal/models"
)

// RegisterRequest represents the request body for creating an account
type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
}

// LoginRequest represents the request body for logging in
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// ConvertRequest represents the request body for a conversion. Image is
// base64 or a data URL.
type ConvertRequest struct {
	Text  string `json:"text"`
	Image string `json:"image"`
}

// ConvertResponse wraps a converted recipe
type ConvertResponse struct {
	Recipe *models.Recipe `json:"recipe"`
}

// SaveRecipeRequest represents the request body for saving a converted recipe
type SaveRecipeRequest struct {
	Recipe *models.Recipe `json:"recipe" binding:"required"`
}

// SavedRecipesResponse lists a user's saved recipes, newest first
type SavedRecipesResponse struct {
	Recipes []models.SavedRecipe `json:"recipes"`
}

// ErrorResponse is the body of every API error
type ErrorResponse struct {
	Error string `json:"error"`
}
