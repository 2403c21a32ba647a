package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"google.golang.org/genai"

	"github.com/belzunces/monsieurchef/internal/models"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-3-flash-preview"

// GeminiConfig configures NewGeminiConverter.
type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Converter converts recipes with a generative model under a fixed
// instruction and response schema.
type Converter struct {
	gen      ContentGenerator
	model    string
	timeout  time.Duration
	validate *validator.Validate
}

// ConverterOption configures a Converter.
type ConverterOption func(*Converter)

// WithModel selects the model name passed to the generator.
func WithModel(model string) ConverterOption {
	return func(c *Converter) {
		if model != "" {
			c.model = model
		}
	}
}

// WithTimeout bounds each model call. Zero means only the caller's context applies.
func WithTimeout(d time.Duration) ConverterOption {
	return func(c *Converter) { c.timeout = d }
}

// NewConverter creates a converter over any ContentGenerator.
func NewConverter(gen ContentGenerator, opts ...ConverterOption) *Converter {
	c := &Converter{
		gen:      gen,
		model:    DefaultModel,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewGeminiConverter creates a converter backed by the Gemini API.
func NewGeminiConverter(ctx context.Context, cfg GeminiConfig) (*Converter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("converter: gemini api key is required")
	}
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("converter: creating genai client: %w", err)
	}
	return NewConverter(client.Models, WithModel(cfg.Model), WithTimeout(cfg.Timeout)), nil
}

// Convert sends the request to the model and returns the parsed recipe.
// Empty input is rejected without calling the model. Every other failure is
// logged and reported as ErrConversionFailed.
func (c *Converter) Convert(ctx context.Context, req models.ConversionRequest) (*models.Recipe, error) {
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" && !req.HasImage() {
		return nil, ErrEmptyInput
	}
	if req.HasImage() && req.ImageMIMEType == "" {
		mimeType, err := DetectImageMIME(req.Image)
		if err != nil {
			return nil, err
		}
		req.ImageMIMEType = mimeType
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	recipe, err := c.generate(ctx, req)
	if err != nil {
		slog.ErrorContext(ctx, "converter: conversion failed",
			"error", err,
			"model", c.model,
			"prompt_version", PromptVersion,
			"has_image", req.HasImage())
		return nil, ErrConversionFailed
	}
	return recipe, nil
}

func (c *Converter) generate(ctx context.Context, req models.ConversionRequest) (*models.Recipe, error) {
	contents, config := buildRequest(req)

	res, err := c.gen.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("generating content: %w", err)
	}

	text, err := responseText(res)
	if err != nil {
		return nil, err
	}

	var recipe models.Recipe
	if err := json.Unmarshal([]byte(extractJSON(text)), &recipe); err != nil {
		return nil, fmt.Errorf("unmarshaling recipe: %w", err)
	}
	if err := c.validate.Struct(&recipe); err != nil {
		return nil, fmt.Errorf("validating recipe: %w", err)
	}
	return &recipe, nil
}

// buildRequest assembles the contents and config of a conversion call.
// The image, when present, precedes the text part.
func buildRequest(req models.ConversionRequest) ([]*genai.Content, *genai.GenerateContentConfig) {
	parts := make([]*genai.Part, 0, 2)
	if req.HasImage() {
		parts = append(parts, genai.NewPartFromBytes(req.Image, req.ImageMIMEType))
	}

	text := req.Text
	if text == "" {
		text = imageOnlyPlaceholder
	}
	parts = append(parts, genai.NewPartFromText(userPromptPrefix+text))

	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleModel),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    recipeSchema,
	}
	return contents, config
}

func responseText(res *genai.GenerateContentResponse) (string, error) {
	if res == nil || len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return "", fmt.Errorf("unexpected response from generative ai: no candidates")
	}
	var sb strings.Builder
	for _, part := range res.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("unexpected response from generative ai: empty text (finish reason %q)", res.Candidates[0].FinishReason)
	}
	return sb.String(), nil
}

// extractJSON strips a markdown code fence the model occasionally wraps
// around its JSON despite the response MIME type.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
