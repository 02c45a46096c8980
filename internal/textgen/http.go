package textgen

import (
	"context"
	"net/http"
	"strings"

	apperrors "assistance-wizard/internal/common/errors"
	commonhttp "assistance-wizard/internal/common/http"
	"assistance-wizard/internal/models"
)

const generatePath = "/ai/generate"

// MsgGenerationFailed is shown when the collaborator answered but produced
// nothing usable.
const MsgGenerationFailed = "Could not generate a suggestion. Please try again or write it yourself."

type generateRequest struct {
	Prompt    string                  `json:"prompt"`
	FieldName models.NarrativeField   `json:"fieldName"`
	FormData  models.ApplicationDraft `json:"formData"`
	Language  string                  `json:"language"`
}

type generateResponse struct {
	Content string `json:"content"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// HTTPGenerator calls a text-generation backend over HTTP+JSON.
type HTTPGenerator struct {
	client *commonhttp.Client
	url    string
}

func NewHTTPGenerator(cfg *Config) *HTTPGenerator {
	client := commonhttp.NewClient(cfg.Timeout)
	if cfg.APIKey != "" {
		client = client.WithHeader("Authorization", "Bearer "+cfg.APIKey)
	}
	return &HTTPGenerator{
		client: client,
		url:    strings.TrimRight(cfg.BaseURL, "/") + generatePath,
	}
}

func (g *HTTPGenerator) Name() string { return "http" }

func (g *HTTPGenerator) Generate(ctx context.Context, req Request) (string, error) {
	body := generateRequest{
		Prompt:    req.Prompt,
		FieldName: req.Field,
		FormData:  req.Draft,
		Language:  Language(req.Locale),
	}

	var resp generateResponse
	if err := g.client.PostJSON(ctx, g.url, nil, body, &resp); err != nil {
		return "", err
	}

	content := strings.TrimSpace(resp.Content)
	if !resp.Success || content == "" {
		msg := MsgGenerationFailed
		if resp.Error != "" {
			msg = resp.Error
		}
		return "", apperrors.NewServerRejectedError(http.StatusOK, apperrors.ErrCodeGenerationRejected, msg, nil)
	}
	return content, nil
}
