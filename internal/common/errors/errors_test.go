package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Logger Implementation
// ==========================

type recordingLogger struct {
	messages []string
}

func (l *recordingLogger) Error(msg string, fields map[string]interface{}) {
	l.messages = append(l.messages, msg)
}

type timeoutNetErr struct{}

func (timeoutNetErr) Error() string   { return "i/o timeout" }
func (timeoutNetErr) Timeout() bool   { return true }
func (timeoutNetErr) Temporary() bool { return true }

// ==========================
// Normalize Tests
// ==========================

func TestNormalize_StatusDefaults(t *testing.T) {
	tests := []struct {
		status  int
		code    ErrorCode
		message string
	}{
		{400, ErrCodeBadRequest, MsgBadRequest},
		{401, ErrCodeUnauthorized, MsgUnauthorized},
		{403, ErrCodeForbidden, MsgForbidden},
		{404, ErrCodeNotFound, MsgNotFound},
		{409, ErrCodeConflict, MsgConflict},
		{422, ErrCodeUnprocessable, MsgUnprocessable},
		{429, ErrCodeRateLimited, MsgRateLimited},
		{500, ErrCodeServerError, MsgServerError},
		{503, ErrCodeServerError, MsgServerError},
		{418, ErrCodeRequestFailed, MsgRequestFailed},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			e := Normalize(HTTPStatus{Code: tt.status})

			assert.Equal(t, KindServerRejected, e.Kind)
			assert.Equal(t, tt.code, e.Code)
			assert.Equal(t, tt.message, e.Message)
			assert.Equal(t, tt.status, e.Status)
			assert.Nil(t, e.FieldErrors)
		})
	}
}

func TestNormalize_StatusBodyMessageAndFieldErrors(t *testing.T) {
	body := []byte(`{"message":"First name is required","errors":{"firstName":["First name is required","ignored"],"email":"Bad email"}}`)

	e := Normalize(HTTPStatus{Code: 400, Body: body})

	assert.Equal(t, KindServerRejected, e.Kind)
	assert.Equal(t, "First name is required", e.Message)
	assert.Equal(t, map[string]string{
		"firstName": "First name is required",
		"email":     "Bad email",
	}, e.FieldErrors)
	assert.False(t, e.Retryable)
}

func TestNormalize_StatusGarbageBodyKeepsDefault(t *testing.T) {
	e := Normalize(HTTPStatus{Code: 502, Body: []byte("<html>bad gateway</html>")})

	assert.Equal(t, MsgServerError, e.Message)
	assert.True(t, e.Retryable)
}

func TestNormalize_Transport(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind Kind
	}{
		{"connection refused", stderrors.New("dial tcp: connection refused"), KindNetwork},
		{"context deadline", fmt.Errorf("post: %w", context.DeadlineExceeded), KindTimeout},
		{"net timeout", timeoutNetErr{}, KindTimeout},
		{"cancelled", context.Canceled, KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Normalize(TransportFailure{Err: tt.err})
			assert.Equal(t, tt.kind, e.Kind)
			assert.ErrorIs(t, e, tt.err)
		})
	}
}

func TestNormalize_Parse(t *testing.T) {
	e := Normalize(ParseFailure{Err: stderrors.New("unexpected EOF")})

	assert.Equal(t, KindUnknown, e.Kind)
	assert.Equal(t, ErrCodeParseFailure, e.Code)
	assert.Equal(t, MsgParse, e.Message)
}

// ==========================
// AppError Tests
// ==========================

func TestAppError_IsAndKindOf(t *testing.T) {
	wrapped := fmt.Errorf("submit: %w", NewTimeoutError(context.DeadlineExceeded))

	assert.True(t, stderrors.Is(wrapped, &AppError{Kind: KindTimeout}))
	assert.False(t, stderrors.Is(wrapped, &AppError{Kind: KindNetwork}))
	assert.True(t, stderrors.Is(wrapped, context.DeadlineExceeded))
	assert.Equal(t, KindTimeout, KindOf(wrapped))
	assert.Equal(t, KindUnknown, KindOf(stderrors.New("plain")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestAppError_ErrorString(t *testing.T) {
	e := NewSectionMissingError("personalInfo")
	assert.Equal(t, "[SECTION_MISSING] Section is incomplete: personalInfo", e.Error())
}

// ==========================
// Handler Tests
// ==========================

func TestErrorHandler_Handle(t *testing.T) {
	log := &recordingLogger{}
	h := NewErrorHandler(log)

	assert.Nil(t, h.Handle(nil))

	validation := NewValidationError("invalid", map[string]string{"email": "bad"})
	assert.Same(t, validation, h.Handle(validation))
	assert.Empty(t, log.messages)

	timeout := h.Handle(context.DeadlineExceeded)
	require.NotNil(t, timeout)
	assert.Equal(t, KindTimeout, timeout.Kind)
	assert.Empty(t, log.messages)

	refused := h.Handle(&net.OpError{Op: "dial", Net: "tcp", Err: stderrors.New("connection refused")})
	assert.Equal(t, KindNetwork, refused.Kind)
	assert.Empty(t, log.messages)

	unknown := h.Handle(stderrors.New("boom"))
	assert.Equal(t, KindUnknown, unknown.Kind)
	assert.Equal(t, "boom", unknown.Details)
	assert.Len(t, log.messages, 1)
}
