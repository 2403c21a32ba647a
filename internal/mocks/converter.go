package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"google.golang.org/genai"

	"github.com/belzunces/monsieurchef/internal/models"
)

// MockConverter is a mock implementation of service.IConverter
type MockConverter struct {
	mock.Mock
}

func (m *MockConverter) Convert(ctx context.Context, req models.ConversionRequest) (*models.Recipe, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Recipe), args.Error(1)
}

// MockContentGenerator is a mock implementation of service.ContentGenerator
type MockContentGenerator struct {
	mock.Mock
}

func (m *MockContentGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	args := m.Called(ctx, model, contents, config)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*genai.GenerateContentResponse), args.Error(1)
}

// TextResponse builds a single-candidate model response carrying text
func TextResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      genai.NewContentFromText(text, genai.RoleModel),
			FinishReason: genai.FinishReasonStop,
		}},
	}
}

// MockPhotoArchive is a mock implementation of service.IPhotoArchive
type MockPhotoArchive struct {
	mock.Mock
}

func (m *MockPhotoArchive) Upload(ctx context.Context, userID string, data []byte, mimeType string) (string, error) {
	args := m.Called(ctx, userID, data, mimeType)
	return args.String(0), args.Error(1)
}
