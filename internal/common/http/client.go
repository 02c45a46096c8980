package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "assistance-wizard/internal/common/errors"
)

// maxBodyBytes caps how much of a collaborator response is read.
const maxBodyBytes = 1 << 20

type Client struct {
	httpClient *http.Client
	headers    map[string]string
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: map[string]string{},
	}
}

// WithHeader returns a client that sends the header on every request.
func (c *Client) WithHeader(key, value string) *Client {
	headers := make(map[string]string, len(c.headers)+1)
	for k, v := range c.headers {
		headers[k] = v
	}
	headers[key] = value
	return &Client{httpClient: c.httpClient, headers: headers}
}

// PostJSON sends body as JSON and decodes a 2xx response into out. Every
// failure comes back as a normalized *errors.AppError.
func (c *Client) PostJSON(ctx context.Context, url string, headers map[string]string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return apperrors.NewUnknownError(fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return apperrors.NewUnknownError(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Normalize(apperrors.TransportFailure{Err: err})
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return apperrors.Normalize(apperrors.TransportFailure{Err: err})
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apperrors.Normalize(apperrors.HTTPStatus{Code: resp.StatusCode, Body: data})
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apperrors.Normalize(apperrors.ParseFailure{Err: err})
	}
	return nil
}
