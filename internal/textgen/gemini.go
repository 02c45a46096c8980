package textgen

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	apperrors "assistance-wizard/internal/common/errors"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiGenerator drafts text with Google's Gemini API.
type GeminiGenerator struct {
	client      *genai.Client
	model       string
	maxTokens   int32
	temperature float32
}

func NewGeminiGenerator(ctx context.Context, cfg *Config) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}

	return &GeminiGenerator{
		client:      client,
		model:       model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}, nil
}

func (g *GeminiGenerator) Name() string { return "gemini" }

func (g *GeminiGenerator) Generate(ctx context.Context, req Request) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(req.Prompt, genai.RoleUser),
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr(g.temperature),
		MaxOutputTokens:   g.maxTokens,
	})
	if err != nil {
		return "", normalizeGeminiError(err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", apperrors.NewServerRejectedError(http.StatusOK, apperrors.ErrCodeGenerationRejected, MsgGenerationFailed, nil)
	}
	return text, nil
}

// normalizeGeminiError maps API status errors through the HTTP status table
// and everything else through the transport rules.
func normalizeGeminiError(err error) error {
	status := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.Code
	case errors.As(err, &apiErrPtr):
		status = apiErrPtr.Code
	}
	if status == 0 {
		return apperrors.Normalize(apperrors.TransportFailure{Err: err})
	}
	appErr := apperrors.Normalize(apperrors.HTTPStatus{Code: status})
	appErr.Err = err
	return appErr
}
