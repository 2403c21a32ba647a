package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/belzunces/monsieurchef/internal/models"
	"github.com/belzunces/monsieurchef/internal/service"
)

// MockRecipeStore is a mock implementation of service.IRecipeStore
type MockRecipeStore struct {
	mock.Mock
}

func (m *MockRecipeStore) Register(ctx context.Context, sessionID, email, password, name string) (*models.User, error) {
	args := m.Called(ctx, sessionID, email, password, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockRecipeStore) Login(ctx context.Context, sessionID, email, password string) (*models.User, error) {
	args := m.Called(ctx, sessionID, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockRecipeStore) Logout(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *MockRecipeStore) CurrentUser(ctx context.Context, sessionID string) (*models.User, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// SaveRecipe records only the recipe; options are applied to the returned value
func (m *MockRecipeStore) SaveRecipe(ctx context.Context, userID string, recipe models.Recipe, opts ...service.SaveOption) (*models.SavedRecipe, error) {
	args := m.Called(ctx, userID, recipe)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	saved := *args.Get(0).(*models.SavedRecipe)
	for _, opt := range opts {
		opt(&saved)
	}
	return &saved, args.Error(1)
}

func (m *MockRecipeStore) SavedRecipes(ctx context.Context, userID string) ([]models.SavedRecipe, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SavedRecipe), args.Error(1)
}

func (m *MockRecipeStore) SavedRecipe(ctx context.Context, id string) (*models.SavedRecipe, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SavedRecipe), args.Error(1)
}

func (m *MockRecipeStore) DeleteRecipe(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
