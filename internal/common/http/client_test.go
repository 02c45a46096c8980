package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "assistance-wizard/internal/common/errors"
)

type echoResponse struct {
	Name string `json:"name"`
}

func TestClient_PostJSON_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "abc", r.Header.Get("X-Request-ID"))
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Write([]byte(`{"name":"` + body["name"] + `"}`))
	}))
	defer server.Close()

	client := NewClient(time.Second).WithHeader("Authorization", "Bearer k")
	var out echoResponse
	err := client.PostJSON(context.Background(), server.URL, map[string]string{"X-Request-ID": "abc"}, map[string]string{"name": "Amal"}, &out)

	require.NoError(t, err)
	assert.Equal(t, "Amal", out.Name)
}

func TestClient_PostJSON_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		kind    apperrors.Kind
		code    apperrors.ErrorCode
	}{
		{
			name: "server rejection",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"message":"First name is required","errors":{"firstName":["First name is required"]}}`))
			},
			kind: apperrors.KindServerRejected,
			code: apperrors.ErrCodeBadRequest,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			kind: apperrors.KindServerRejected,
			code: apperrors.ErrCodeServerError,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{not json`))
			},
			kind: apperrors.KindUnknown,
			code: apperrors.ErrCodeParseFailure,
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			},
			kind: apperrors.KindTimeout,
			code: apperrors.ErrCodeTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			var out echoResponse
			err := NewClient(5*time.Second).PostJSON(ctx, server.URL, nil, map[string]string{}, &out)

			appErr, ok := apperrors.As(err)
			require.True(t, ok, "expected AppError, got %v", err)
			assert.Equal(t, tt.kind, appErr.Kind)
			assert.Equal(t, tt.code, appErr.Code)
		})
	}
}

func TestClient_PostJSON_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	err := NewClient(time.Second).PostJSON(context.Background(), url, nil, map[string]string{}, nil)

	assert.Equal(t, apperrors.KindNetwork, apperrors.KindOf(err))
}
