package service

import (
	"context"

	"google.golang.org/genai"

	"github.com/belzunces/monsieurchef/internal/models"
	"github.com/belzunces/monsieurchef/internal/types"
)

// IRecipeStore defines account, session and saved-recipe persistence.
type IRecipeStore interface {
	Register(ctx context.Context, sessionID, email, password, name string) (*models.User, error)
	Login(ctx context.Context, sessionID, email, password string) (*models.User, error)
	Logout(ctx context.Context, sessionID string) error
	CurrentUser(ctx context.Context, sessionID string) (*models.User, error)
	SaveRecipe(ctx context.Context, userID string, recipe models.Recipe, opts ...SaveOption) (*models.SavedRecipe, error)
	SavedRecipes(ctx context.Context, userID string) ([]models.SavedRecipe, error)
	SavedRecipe(ctx context.Context, id string) (*models.SavedRecipe, error)
	DeleteRecipe(ctx context.Context, id string) error
}

// IAuthService issues and validates API tokens.
type IAuthService interface {
	Register(ctx context.Context, email, password, name string) (string, *models.User, error)
	Login(ctx context.Context, email, password string) (string, *models.User, error)
	Logout(ctx context.Context, claims *types.TokenClaims) error
	Me(ctx context.Context, claims *types.TokenClaims) (*models.User, error)
	ValidateToken(ctx context.Context, token string) (*types.TokenClaims, error)
}

// IConverter turns free text and/or a photo into a structured recipe.
type IConverter interface {
	Convert(ctx context.Context, req models.ConversionRequest) (*models.Recipe, error)
}

// IPhotoArchive stores the photo a recipe was converted from.
type IPhotoArchive interface {
	Upload(ctx context.Context, userID string, data []byte, mimeType string) (string, error)
}

// ContentGenerator is the slice of the genai client the converter needs.
// *genai.Models satisfies it.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

var (
	_ IRecipeStore     = (*RecipeStore)(nil)
	_ IAuthService     = (*AuthService)(nil)
	_ IConverter       = (*Converter)(nil)
	_ IPhotoArchive    = (*S3PhotoArchive)(nil)
	_ ContentGenerator = (*genai.Models)(nil)
)
