package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/belzunces/monsieurchef/internal/middleware"
	"github.com/belzunces/monsieurchef/internal/models"
	"github.com/belzunces/monsieurchef/internal/service"
	"github.com/belzunces/monsieurchef/internal/types"
)

// maxConvertBody bounds a conversion request; a base64 photo is about 4/3 of its size.
const maxConvertBody = 16 << 20

type RecipeHandler struct {
	store       service.IRecipeStore
	converter   service.IConverter
	authService service.IAuthService
	limiter     *middleware.RateLimiter
	validate    *validator.Validate
}

func NewRecipeHandler(store service.IRecipeStore, converter service.IConverter, authService service.IAuthService, limiter *middleware.RateLimiter) *RecipeHandler {
	return &RecipeHandler{
		store:       store,
		converter:   converter,
		authService: authService,
		limiter:     limiter,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	recipes := router.Group("/recipes")
	{
		convert := []gin.HandlerFunc{}
		if h.limiter != nil {
			convert = append(convert, h.limiter.RateLimitMiddleware())
		}
		recipes.POST("/convert", append(convert, h.Convert)...)

		saved := recipes.Group("/saved", middleware.AuthMiddleware(h.authService))
		saved.GET("", h.ListSaved)
		saved.POST("", h.Save)
		saved.GET("/:id", h.GetSaved)
		saved.DELETE("/:id", h.DeleteSaved)
	}
}

// Convert turns text and/or a base64 photo into a recipe. No account needed.
func (h *RecipeHandler) Convert(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxConvertBody)

	var req types.ConvertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: errInvalidBody.Error()})
		return
	}

	image, mimeType, err := service.DecodeImagePayload(req.Image)
	if err != nil {
		_ = c.Error(err)
		return
	}

	recipe, err := h.converter.Convert(c.Request.Context(), models.ConversionRequest{
		Text:          req.Text,
		Image:         image,
		ImageMIMEType: mimeType,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, types.ConvertResponse{Recipe: recipe})
}

func (h *RecipeHandler) ListSaved(c *gin.Context) {
	claims, _ := middleware.ClaimsFrom(c)
	recipes, err := h.store.SavedRecipes(c.Request.Context(), claims.UserID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, types.SavedRecipesResponse{Recipes: recipes})
}

func (h *RecipeHandler) Save(c *gin.Context) {
	claims, _ := middleware.ClaimsFrom(c)

	var req types.SaveRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: errInvalidBody.Error()})
		return
	}
	if err := h.validate.Struct(req.Recipe); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "invalid recipe: " + err.Error()})
		return
	}

	saved, err := h.store.SaveRecipe(c.Request.Context(), claims.UserID, *req.Recipe)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

func (h *RecipeHandler) GetSaved(c *gin.Context) {
	saved, ok := h.ownedRecipe(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *RecipeHandler) DeleteSaved(c *gin.Context) {
	saved, ok := h.ownedRecipe(c)
	if !ok {
		return
	}
	if err := h.store.DeleteRecipe(c.Request.Context(), saved.ID); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ownedRecipe loads the :id recipe; other users' recipes are reported as not found.
func (h *RecipeHandler) ownedRecipe(c *gin.Context) (*models.SavedRecipe, bool) {
	claims, _ := middleware.ClaimsFrom(c)
	saved, err := h.store.SavedRecipe(c.Request.Context(), c.Param("id"))
	if err == nil && saved.UserID != claims.UserID {
		err = service.ErrRecipeNotFound
	}
	if err != nil {
		_ = c.Error(err)
		return nil, false
	}
	return saved, true
}
