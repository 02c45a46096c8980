package submission

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "assistance-wizard/internal/common/errors"
	commonhttp "assistance-wizard/internal/common/http"
	"assistance-wizard/internal/models"
)

const applicationsPath = "/applications"

// Receipt confirms an accepted application. ApplicationID is opaque.
type Receipt struct {
	ApplicationID string    `json:"applicationId"`
	Message       string    `json:"message"`
	SubmittedAt   time.Time `json:"submittedAt"`
}

// Client sends a completed draft to the submission backend. Failures are
// returned as *errors.AppError.
type Client interface {
	Submit(ctx context.Context, draft models.ApplicationDraft) (*Receipt, error)
}

type submitResponse struct {
	Success       bool   `json:"success"`
	ApplicationID string `json:"applicationId"`
	Message       string `json:"message"`
	SubmittedAt   string `json:"submittedAt"`
}

type HTTPClient struct {
	client *commonhttp.Client
	url    string
	now    func() time.Time
}

func NewHTTPClient(cfg *Config) *HTTPClient {
	return &HTTPClient{
		client: commonhttp.NewClient(cfg.Timeout),
		url:    strings.TrimRight(cfg.BaseURL, "/") + applicationsPath,
		now:    time.Now,
	}
}

func (c *HTTPClient) Submit(ctx context.Context, draft models.ApplicationDraft) (*Receipt, error) {
	headers := map[string]string{"X-Request-ID": uuid.NewString()}

	var resp submitResponse
	if err := c.client.PostJSON(ctx, c.url, headers, draft, &resp); err != nil {
		return nil, err
	}

	if !resp.Success || resp.ApplicationID == "" {
		msg := resp.Message
		if msg == "" {
			msg = apperrors.MsgRequestFailed
		}
		return nil, apperrors.NewServerRejectedError(http.StatusOK, apperrors.ErrCodeRequestFailed, msg, nil)
	}

	submittedAt, err := time.Parse(time.RFC3339, resp.SubmittedAt)
	if err != nil {
		submittedAt = c.now().UTC()
	}

	return &Receipt{
		ApplicationID: resp.ApplicationID,
		Message:       resp.Message,
		SubmittedAt:   submittedAt,
	}, nil
}
